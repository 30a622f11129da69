//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"zolo-auth/internal/platform/config"
	platformredis "zolo-auth/internal/platform/redis"
	"zolo-auth/pkg/testutil/containers"
)

func TestClientHealth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	rc := containers.NewRedisContainer(t)

	client, err := platformredis.New(config.RedisConfig{URL: rc.Addr})
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()

	require.NoError(t, client.Health(context.Background()))
}

func TestClientNilWhenUnconfigured(t *testing.T) {
	client, err := platformredis.New(config.RedisConfig{})
	require.NoError(t, err)
	require.Nil(t, client)
}

//go:build integration

package lockout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"zolo-auth/internal/auth/store/lockout"
	"zolo-auth/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *lockout.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = lockout.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "auth_lockouts"))
}

// RecordFailure's increment happens inside one statement, so concurrent
// failures may not lose counts.
func (s *PostgresStoreSuite) TestConcurrentFailuresAllCounted() {
	ctx := context.Background()
	now := time.Now()
	stale := now.Add(-15 * time.Minute)
	const goroutines = 20

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.RecordFailure(ctx, "a@b.com", now, stale)
			s.NoError(err)
		}()
	}
	wg.Wait()

	rec, err := s.store.Get(ctx, "a@b.com")
	s.Require().NoError(err)
	s.Equal(goroutines, rec.FailureCount)
}

func (s *PostgresStoreSuite) TestStaleCountRestarts() {
	ctx := context.Background()
	old := time.Now().Add(-time.Hour)

	_, err := s.store.RecordFailure(ctx, "a@b.com", old, old.Add(-15*time.Minute))
	s.Require().NoError(err)

	now := time.Now()
	rec, err := s.store.RecordFailure(ctx, "a@b.com", now, now.Add(-15*time.Minute))
	s.Require().NoError(err)
	s.Equal(1, rec.FailureCount)
}

func (s *PostgresStoreSuite) TestApplyLockAndClear() {
	ctx := context.Background()
	now := time.Now()

	_, err := s.store.RecordFailure(ctx, "a@b.com", now, now.Add(-15*time.Minute))
	s.Require().NoError(err)

	until := now.Add(15 * time.Minute)
	s.Require().NoError(s.store.ApplyLock(ctx, "a@b.com", until))

	rec, err := s.store.Get(ctx, "a@b.com")
	s.Require().NoError(err)
	s.True(rec.Locked(now))

	s.Require().NoError(s.store.Clear(ctx, "a@b.com"))
	rec, err = s.store.Get(ctx, "a@b.com")
	s.Require().NoError(err)
	s.Nil(rec)
}

// A lock applied to an identity with no failure record must not record the
// lock deadline as the failure time.
func (s *PostgresStoreSuite) TestApplyLockWithoutPriorFailure() {
	ctx := context.Background()
	until := time.Now().Add(15 * time.Minute)

	s.Require().NoError(s.store.ApplyLock(ctx, "fresh@b.com", until))

	rec, err := s.store.Get(ctx, "fresh@b.com")
	s.Require().NoError(err)
	s.Require().NotNil(rec)
	s.True(rec.Locked(time.Now()))
	s.WithinDuration(time.Now(), rec.LastFailureAt, time.Minute)
	s.True(rec.LastFailureAt.Before(until))
}

//go:build integration

package user_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"zolo-auth/internal/auth/models"
	"zolo-auth/internal/auth/store/user"
	"zolo-auth/pkg/platform/sentinel"
	"zolo-auth/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = user.NewPostgres(s.postgres.DB)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "users"))
}

func newTestUser(email string) *models.User {
	return &models.User{
		Email:             email,
		PasswordHash:      "$2a$10$fakehashfakehashfakehashfakehash",
		FullName:          "Ada Lovelace",
		IsActive:          true,
		VerificationToken: uuid.NewString(),
	}
}

func (s *PostgresStoreSuite) TestCreateAssignsIDAndTimestamp() {
	ctx := context.Background()

	u := newTestUser("ada@example.com")
	s.Require().NoError(s.store.Create(ctx, u))
	s.NotZero(u.ID)
	s.False(u.CreatedAt.IsZero())

	found, err := s.store.FindByEmail(ctx, "ada@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)
	s.Equal(u.PasswordHash, found.PasswordHash)
}

func (s *PostgresStoreSuite) TestDuplicateEmailIsConflict() {
	ctx := context.Background()

	s.Require().NoError(s.store.Create(ctx, newTestUser("dup@example.com")))
	err := s.store.Create(ctx, newTestUser("dup@example.com"))
	s.Require().Error(err)
	s.ErrorIs(err, sentinel.ErrConflict)
}

// The unique index is the only line of defense against a duplicate-signup
// race; under concurrency exactly one insert may win.
func (s *PostgresStoreSuite) TestConcurrentCreateSameEmail() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, newTestUser("race@example.com"))
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load())
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

func (s *PostgresStoreSuite) TestFindByEmailNotFound() {
	_, err := s.store.FindByEmail(context.Background(), "nobody@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateProfileMergesFields() {
	ctx := context.Background()

	u := newTestUser("ada@example.com")
	s.Require().NoError(s.store.Create(ctx, u))

	company := "Analytical Engines Ltd"
	updated, err := s.store.UpdateProfile(ctx, u.ID, models.ProfilePatch{Company: &company})
	s.Require().NoError(err)
	s.Equal(company, updated.Company)
	s.Equal("Ada Lovelace", updated.FullName, "absent fields keep their values")
	s.Equal("ada@example.com", updated.Email)
	s.Equal(u.CreatedAt.UTC(), updated.CreatedAt.UTC())

	empty := ""
	updated, err = s.store.UpdateProfile(ctx, u.ID, models.ProfilePatch{Company: &empty})
	s.Require().NoError(err)
	s.Empty(updated.Company, "explicit empty blanks the field")
}

func (s *PostgresStoreSuite) TestVerificationFlow() {
	ctx := context.Background()

	u := newTestUser("ada@example.com")
	s.Require().NoError(s.store.Create(ctx, u))

	found, err := s.store.FindByVerificationToken(ctx, u.VerificationToken)
	s.Require().NoError(err)
	s.Equal(u.ID, found.ID)

	s.Require().NoError(s.store.MarkVerified(ctx, u.ID))

	after, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.True(after.EmailVerified)
	s.Empty(after.VerificationToken)

	_, err = s.store.FindByVerificationToken(ctx, u.VerificationToken)
	s.ErrorIs(err, sentinel.ErrNotFound, "token is single-use")
}

package service

//go:generate mockgen -destination=mocks/mocks.go -package=mocks zolo-auth/internal/auth/store/user Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"zolo-auth/internal/audit"
	"zolo-auth/internal/auth/models"
	"zolo-auth/internal/auth/service/mocks"
	"zolo-auth/internal/auth/store/lockout"
	"zolo-auth/internal/auth/store/revocation"
	"zolo-auth/internal/auth/store/user"
	"zolo-auth/internal/auth/token"
	"zolo-auth/internal/platform/config"
	"zolo-auth/internal/platform/email"
	dErrors "zolo-auth/pkg/domain-errors"
)

// captureSender records sent mail on a channel so tests can wait for the
// fire-and-forget goroutine.
type captureSender struct {
	sent chan email.Message
}

func newCaptureSender() *captureSender {
	return &captureSender{sent: make(chan email.Message, 8)}
}

func (c *captureSender) Send(_ context.Context, msg email.Message) error {
	c.sent <- msg
	return nil
}

type ServiceSuite struct {
	suite.Suite

	users      *user.MemoryStore
	lockouts   *lockout.MemoryStore
	revocation *revocation.MemoryList
	tokens     *token.Service
	mail       *captureSender
	auditStore *audit.MemoryStore
	auditor    *audit.Publisher
	service    *Service
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.users = user.NewMemory()
	s.lockouts = lockout.NewMemory()
	s.revocation = revocation.NewMemory()
	s.tokens = token.NewService("test-signing-key", time.Hour, token.WithRevocationList(s.revocation))
	s.mail = newCaptureSender()
	s.auditStore = audit.NewMemoryStore()
	s.auditor = audit.NewPublisher(s.auditStore, logger)

	s.service = New(
		s.users,
		s.lockouts,
		s.revocation,
		s.tokens,
		config.LockoutConfig{Threshold: 3, Window: 15 * time.Minute},
		logger,
		WithEmailSender(s.mail, "http://localhost:8000"),
		WithAuditPublisher(s.auditor),
	)
}

func (s *ServiceSuite) TearDownTest() {
	s.auditor.Close()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) signup(email string) *models.TokenResponse {
	resp, err := s.service.Signup(context.Background(), models.SignupRequest{
		Email:    email,
		Password: "correct-horse",
		FullName: "Ada Lovelace",
	})
	s.Require().NoError(err)
	return resp
}

func (s *ServiceSuite) TestSignup() {
	ctx := context.Background()

	s.Run("creates account and signs the client in", func() {
		resp := s.signup("ada@example.com")
		s.Equal("bearer", resp.TokenType)
		s.NotEmpty(resp.AccessToken)
		s.Equal("ada@example.com", resp.User.Email)
		s.True(resp.User.IsActive)
		s.False(resp.User.EmailVerified)

		claims, err := s.tokens.Validate(ctx, resp.AccessToken)
		s.Require().NoError(err)
		s.Equal("ada@example.com", claims.Email)
	})

	s.Run("email case and whitespace", func() {
		resp := s.signup("  Grace@Example.COM ")
		s.Equal("Grace@Example.COM", resp.User.Email, "case preserved, whitespace trimmed")
	})

	s.Run("duplicate email is rejected", func() {
		s.signup("dup@example.com")
		_, err := s.service.Signup(ctx, models.SignupRequest{
			Email:    "dup@example.com",
			Password: "correct-horse",
			FullName: "Copy Cat",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal("Email already registered", dErrors.MessageOf(err))
	})

	s.Run("sends a verification email", func() {
		s.signup("mail@example.com")
		select {
		case msg := <-s.mail.sent:
			s.Equal([]string{"mail@example.com"}, msg.To)
			s.Contains(msg.Body, "verify-email?token=")
		case <-time.After(2 * time.Second):
			s.Fail("verification email was not sent")
		}
	})
}

func (s *ServiceSuite) TestLogin() {
	ctx := context.Background()
	s.signup("ada@example.com")

	s.Run("valid credentials issue a token", func() {
		resp, err := s.service.Login(ctx, models.LoginRequest{
			Email:    "ada@example.com",
			Password: "correct-horse",
		}, "Chrome on Linux")
		s.Require().NoError(err)
		s.NotEmpty(resp.AccessToken)
		s.Equal("ada@example.com", resp.User.Email)
	})

	s.Run("wrong password and unknown email fail identically", func() {
		_, errWrongPass := s.service.Login(ctx, models.LoginRequest{
			Email:    "ada@example.com",
			Password: "wrong",
		}, "")
		_, errUnknown := s.service.Login(ctx, models.LoginRequest{
			Email:    "nobody@example.com",
			Password: "whatever",
		}, "")

		s.Require().Error(errWrongPass)
		s.Require().Error(errUnknown)
		s.True(dErrors.HasCode(errWrongPass, dErrors.CodeUnauthorized))
		s.True(dErrors.HasCode(errUnknown, dErrors.CodeUnauthorized))
		s.Equal(dErrors.MessageOf(errWrongPass), dErrors.MessageOf(errUnknown))
	})

	s.Run("identity is case-sensitive", func() {
		_, err := s.service.Login(ctx, models.LoginRequest{
			Email:    "aDA@exampLE.com",
			Password: "correct-horse",
		}, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *ServiceSuite) TestLoginLockout() {
	ctx := context.Background()
	s.signup("ada@example.com")
	bad := models.LoginRequest{Email: "ada@example.com", Password: "wrong"}

	for i := 0; i < 3; i++ {
		_, err := s.service.Login(ctx, bad, "")
		s.Require().Error(err)
	}

	s.Run("locked identity is rejected even with valid credentials", func() {
		_, err := s.service.Login(ctx, models.LoginRequest{
			Email:    "ada@example.com",
			Password: "correct-horse",
		}, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTooManyRequests))
	})

	s.Run("other identities are unaffected", func() {
		s.signup("grace@example.com")
		_, err := s.service.Login(ctx, models.LoginRequest{
			Email:    "grace@example.com",
			Password: "correct-horse",
		}, "")
		s.NoError(err)
	})
}

func (s *ServiceSuite) TestSuccessfulLoginClearsFailures() {
	ctx := context.Background()
	s.signup("ada@example.com")

	// Two failures, below the threshold of three.
	for i := 0; i < 2; i++ {
		_, err := s.service.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "wrong"}, "")
		s.Require().Error(err)
	}

	_, err := s.service.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "correct-horse"}, "")
	s.Require().NoError(err)

	// The counter restarted, so two more failures still don't lock.
	for i := 0; i < 2; i++ {
		_, err := s.service.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "wrong"}, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	}
}

func (s *ServiceSuite) TestCurrentUser() {
	ctx := context.Background()
	resp := s.signup("ada@example.com")

	s.Run("resolves an existing account", func() {
		u, err := s.service.CurrentUser(ctx, resp.User.ID)
		s.Require().NoError(err)
		s.Equal("ada@example.com", u.Email)
	})

	s.Run("unknown id returns not found", func() {
		_, err := s.service.CurrentUser(ctx, 99999)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal("User not found", dErrors.MessageOf(err))
	})
}

func (s *ServiceSuite) TestUpdateProfile() {
	ctx := context.Background()
	resp := s.signup("ada@example.com")

	company := "Analytical Engines Ltd"
	u, err := s.service.UpdateProfile(ctx, resp.User.ID, models.UpdateProfileRequest{
		Company: &company,
	})
	s.Require().NoError(err)
	s.Equal(company, u.Company)
	s.Equal("Ada Lovelace", u.FullName, "absent fields keep their values")
	s.Equal("ada@example.com", u.Email, "email is immutable")
}

func (s *ServiceSuite) TestLogoutRevokesToken() {
	ctx := context.Background()
	resp := s.signup("ada@example.com")

	claims, err := s.tokens.Validate(ctx, resp.AccessToken)
	s.Require().NoError(err)

	err = s.service.Logout(ctx, resp.User.ID, resp.User.Email, claims.ID, claims.ExpiresAt.Time)
	s.Require().NoError(err)

	_, err = s.tokens.Validate(ctx, resp.AccessToken)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestVerifyEmail() {
	ctx := context.Background()
	resp := s.signup("ada@example.com")

	stored, err := s.users.FindByID(ctx, resp.User.ID)
	s.Require().NoError(err)
	s.Require().NotEmpty(stored.VerificationToken)

	s.Run("valid token marks the account verified", func() {
		u, err := s.service.VerifyEmail(ctx, stored.VerificationToken)
		s.Require().NoError(err)
		s.True(u.EmailVerified)

		after, err := s.users.FindByID(ctx, resp.User.ID)
		s.Require().NoError(err)
		s.True(after.EmailVerified)
		s.Empty(after.VerificationToken, "token is single-use")
	})

	s.Run("consumed token is rejected on reuse", func() {
		_, err := s.service.VerifyEmail(ctx, stored.VerificationToken)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("empty and unknown tokens are rejected", func() {
		_, err := s.service.VerifyEmail(ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

		_, err = s.service.VerifyEmail(ctx, "no-such-token")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *ServiceSuite) TestAuditTrail() {
	ctx := context.Background()
	resp := s.signup("ada@example.com")
	_, err := s.service.Login(ctx, models.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	}, "Chrome on Linux")
	s.Require().NoError(err)

	s.auditor.Close()

	events, err := s.auditStore.ListByUser(ctx, resp.User.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.ActionSignup, events[0].Action)
	s.Equal(audit.ActionLogin, events[1].Action)
	s.Equal("Chrome on Linux", events[1].Device)
}

// Store failure paths use gomock so infrastructure errors can be injected.
func TestServiceStoreFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	boom := errors.New("connection reset")

	mockUsers := mocks.NewMockUserStore(ctrl)
	svc := New(
		mockUsers,
		lockout.NewMemory(),
		revocation.NewMemory(),
		token.NewService("test-signing-key", time.Hour),
		config.LockoutConfig{Threshold: 3, Window: 15 * time.Minute},
		logger,
	)
	ctx := context.Background()

	t.Run("signup surfaces store failure", func(t *testing.T) {
		mockUsers.EXPECT().Create(gomock.Any(), gomock.Any()).Return(boom)

		_, err := svc.Signup(ctx, models.SignupRequest{
			Email:    "ada@example.com",
			Password: "correct-horse",
			FullName: "Ada Lovelace",
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped store error, got %v", err)
		}
	})

	t.Run("login surfaces store failure", func(t *testing.T) {
		mockUsers.EXPECT().FindByEmail(gomock.Any(), "ada@example.com").Return(nil, boom)

		_, err := svc.Login(ctx, models.LoginRequest{Email: "ada@example.com", Password: "x"}, "")
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped store error, got %v", err)
		}
	})
}

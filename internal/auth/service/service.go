// Package service orchestrates account lifecycle: signup, login, profile
// management, logout and email verification. Handlers stay thin; stores stay
// pure I/O; everything in between lives here.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"zolo-auth/internal/audit"
	"zolo-auth/internal/auth/models"
	"zolo-auth/internal/auth/secrets"
	"zolo-auth/internal/auth/store/lockout"
	"zolo-auth/internal/auth/store/revocation"
	"zolo-auth/internal/auth/store/user"
	"zolo-auth/internal/platform/config"
	"zolo-auth/internal/platform/email"
	"zolo-auth/internal/platform/metrics"
	dErrors "zolo-auth/pkg/domain-errors"
	"zolo-auth/pkg/platform/sentinel"
)

var tracer trace.Tracer = otel.Tracer("zolo-auth/auth")

// TokenIssuer mints access tokens. Implemented by token.Service.
type TokenIssuer interface {
	Issue(userID int64, email string) (string, error)
	TTL() time.Duration
}

// Service wires the auth domain together. All dependencies are injected;
// there are no package-level singletons.
type Service struct {
	users      user.Store
	lockouts   lockout.Store
	revocation revocation.List
	tokens     TokenIssuer
	mail       email.Sender
	auditor    *audit.Publisher
	metrics    *metrics.Metrics
	logger     *slog.Logger

	lockoutCfg config.LockoutConfig
	baseURL    string
}

// Option configures optional collaborators.
type Option func(*Service)

// WithEmailSender enables verification and notification mail.
func WithEmailSender(sender email.Sender, baseURL string) Option {
	return func(s *Service) {
		s.mail = sender
		s.baseURL = baseURL
	}
}

// WithAuditPublisher enables audit event emission.
func WithAuditPublisher(pub *audit.Publisher) Option {
	return func(s *Service) { s.auditor = pub }
}

// WithMetrics enables counter updates.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(
	users user.Store,
	lockouts lockout.Store,
	rev revocation.List,
	tokens TokenIssuer,
	lockoutCfg config.LockoutConfig,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		users:      users,
		lockouts:   lockouts,
		revocation: rev,
		tokens:     tokens,
		mail:       email.NopSender{},
		logger:     logger,
		lockoutCfg: lockoutCfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signup registers a new account and returns it with a fresh access token,
// so the client is signed in immediately.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest) (*models.TokenResponse, error) {
	ctx, span := tracer.Start(ctx, "auth.Signup")
	defer span.End()

	hash, err := secrets.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	verificationToken, err := secrets.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	u := &models.User{
		Email:             strings.TrimSpace(req.Email),
		PasswordHash:      hash,
		FullName:          strings.TrimSpace(req.FullName),
		Company:           strings.TrimSpace(req.Company),
		Phone:             strings.TrimSpace(req.Phone),
		IsActive:          true,
		VerificationToken: verificationToken,
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "Email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	span.SetAttributes(attribute.Int64("user.id", u.ID))

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.IncrementUsersCreated()
	s.metrics.IncrementTokensIssued()
	s.auditor.Emit(audit.Event{Action: audit.ActionSignup, UserID: u.ID, Subject: u.Email})
	s.sendVerificationMail(u.Email, verificationToken)

	return &models.TokenResponse{AccessToken: token, TokenType: "bearer", User: u}, nil
}

// Login authenticates a credential pair. Unknown email and wrong password
// collapse into one indistinguishable failure; repeated failures lock the
// identity out for the configured window.
func (s *Service) Login(ctx context.Context, req models.LoginRequest, device string) (*models.TokenResponse, error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer span.End()

	identity := strings.TrimSpace(req.Email)
	now := time.Now()

	rec, err := s.lockouts.Get(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("lockout lookup: %w", err)
	}
	if rec.Locked(now) {
		s.metrics.ObserveLogin(metrics.LoginOutcomeLocked)
		return nil, dErrors.New(dErrors.CodeTooManyRequests, "Too many failed login attempts, try again later")
	}

	u, err := s.users.FindByEmail(ctx, identity)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok := false
	if u != nil {
		ok, err = secrets.Verify(req.Password, u.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("verify password: %w", err)
		}
	}
	if !ok {
		return nil, s.recordLoginFailure(ctx, identity, device, now)
	}

	if err := s.lockouts.Clear(ctx, identity); err != nil {
		s.logger.Warn("clearing lockout record failed", "error", err)
	}

	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.metrics.ObserveLogin(metrics.LoginOutcomeSuccess)
	s.metrics.IncrementTokensIssued()
	s.auditor.Emit(audit.Event{Action: audit.ActionLogin, UserID: u.ID, Subject: u.Email, Device: device})

	return &models.TokenResponse{AccessToken: token, TokenType: "bearer", User: u}, nil
}

func (s *Service) recordLoginFailure(ctx context.Context, identity, device string, now time.Time) error {
	s.metrics.ObserveLogin(metrics.LoginOutcomeFailure)
	s.auditor.Emit(audit.Event{Action: audit.ActionLoginFailed, Subject: identity, Device: device})

	rec, err := s.lockouts.RecordFailure(ctx, identity, now, now.Add(-s.lockoutCfg.Window))
	if err != nil {
		s.logger.Warn("recording login failure failed", "error", err)
	} else if rec.FailureCount >= s.lockoutCfg.Threshold {
		until := now.Add(s.lockoutCfg.Window)
		if err := s.lockouts.ApplyLock(ctx, identity, until); err != nil {
			s.logger.Warn("applying lockout failed", "error", err)
		} else {
			s.auditor.Emit(audit.Event{Action: audit.ActionLockout, Subject: identity})
		}
	}

	// Same message for unknown email and wrong password.
	return dErrors.New(dErrors.CodeUnauthorized, "Incorrect email or password")
}

// CurrentUser resolves the authenticated account.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*models.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

// UpdateProfile merges the provided fields into the account. Absent fields
// keep their previous values; email is immutable.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req models.UpdateProfileRequest) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "auth.UpdateProfile")
	defer span.End()

	patch := models.ProfilePatch{
		FullName: req.FullName,
		Company:  req.Company,
		Phone:    req.Phone,
	}

	u, err := s.users.UpdateProfile(ctx, userID, patch)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.auditor.Emit(audit.Event{Action: audit.ActionProfileUpdate, UserID: u.ID, Subject: u.Email})
	return u, nil
}

// Logout revokes the presented token for the remainder of its validity.
// The client clears its cached session regardless of the outcome here, so
// errors are reported but should not fail the request.
func (s *Service) Logout(ctx context.Context, userID int64, email, tokenID string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "auth.Logout")
	defer span.End()

	remaining := time.Until(expiresAt)
	if tokenID != "" && remaining > 0 && s.revocation != nil {
		if err := s.revocation.Revoke(ctx, tokenID, remaining); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
		s.metrics.IncrementTokensRevoked()
	}

	s.auditor.Emit(audit.Event{Action: audit.ActionLogout, UserID: userID, Subject: email})
	return nil
}

// VerifyEmail consumes a verification token and marks the account confirmed.
func (s *Service) VerifyEmail(ctx context.Context, token string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "auth.VerifyEmail")
	defer span.End()

	if token == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Invalid verification token")
	}

	u, err := s.users.FindByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeBadRequest, "Invalid verification token")
		}
		return nil, fmt.Errorf("find verification token: %w", err)
	}

	if err := s.users.MarkVerified(ctx, u.ID); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	u.EmailVerified = true
	u.VerificationToken = ""

	s.auditor.Emit(audit.Event{Action: audit.ActionEmailVerified, UserID: u.ID, Subject: u.Email})
	return u, nil
}

// sendVerificationMail is fire-and-forget: signup must not fail or stall
// because the mail relay is down.
func (s *Service) sendVerificationMail(to, token string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		msg := email.VerificationMessage(to, s.baseURL, token)
		if err := s.mail.Send(ctx, msg); err != nil {
			s.logger.Error("sending verification email failed", "error", err)
		}
	}()
}

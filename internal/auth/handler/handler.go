// Package handler exposes the auth domain over HTTP. Handlers decode,
// validate, delegate to the service and encode; no business rules live here.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"zolo-auth/internal/auth/models"
	"zolo-auth/internal/platform/device"
	"zolo-auth/internal/platform/middleware"
	"zolo-auth/internal/transport/http/shared"
	dErrors "zolo-auth/pkg/domain-errors"
)

// AuthService is the auth orchestration surface the handler depends on.
type AuthService interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.TokenResponse, error)
	Login(ctx context.Context, req models.LoginRequest, device string) (*models.TokenResponse, error)
	CurrentUser(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, req models.UpdateProfileRequest) (*models.User, error)
	Logout(ctx context.Context, userID int64, email, tokenID string, expiresAt time.Time) error
	VerifyEmail(ctx context.Context, token string) (*models.User, error)
}

// Handler handles the /api/auth endpoints.
type Handler struct {
	auth     AuthService
	verifier middleware.TokenVerifier
	logger   *slog.Logger
}

func New(auth AuthService, verifier middleware.TokenVerifier, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, verifier: verifier, logger: logger}
}

// Register mounts the auth routes. Public endpoints and authenticated
// endpoints get separate sub-routers so RequireAuth only guards the latter.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.handleSignup)
		r.Post("/login", h.handleLogin)
		r.Get("/verify-email", h.handleVerifyEmail)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.verifier, h.logger))
			r.Get("/me", h.handleMe)
			r.Put("/profile", h.handleUpdateProfile)
			r.Post("/logout", h.handleLogout)
		})
	})
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid request body"))
		return
	}

	if err := validateSignup(req); err != nil {
		shared.WriteError(w, err)
		return
	}

	resp, err := h.auth.Signup(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "signup rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid request body"))
		return
	}

	if err := validateLogin(req); err != nil {
		shared.WriteError(w, err)
		return
	}

	resp, err := h.auth.Login(ctx, req, device.Describe(r.UserAgent()))
	if err != nil {
		h.logger.WarnContext(ctx, "login rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, err := h.auth.CurrentUser(ctx, middleware.GetUserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid request body"))
		return
	}

	if err := validateProfileUpdate(req); err != nil {
		shared.WriteError(w, err)
		return
	}

	u, err := h.auth.UpdateProfile(ctx, middleware.GetUserID(ctx), req)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, u)
}

// handleLogout revokes the presented token. The client clears its local
// session either way, so revocation problems are logged and the request
// still succeeds.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims := middleware.GetTokenClaims(ctx)
	if claims != nil {
		err := h.auth.Logout(ctx, claims.UserID, claims.Email, claims.TokenID, claims.ExpiresAt)
		if err != nil {
			h.logger.ErrorContext(ctx, "logout revocation failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
	}

	shared.WriteJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	u, err := h.auth.VerifyEmail(ctx, r.URL.Query().Get("token"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Email verified successfully",
		"email":   u.Email,
	})
}

const passwordMinLength = 8

func validateSignup(req models.SignupRequest) error {
	fields := make(map[string]string)

	if !govalidator.StringLength(req.Email, "1", "255") || !govalidator.IsEmail(req.Email) {
		fields["email"] = "must be a valid email address"
	}
	if len(req.Password) < passwordMinLength {
		fields["password"] = "must be at least 8 characters"
	}
	if strings.TrimSpace(req.FullName) == "" {
		fields["full_name"] = "is required"
	}

	if len(fields) > 0 {
		return dErrors.NewValidation("Validation failed", fields)
	}
	return nil
}

func validateLogin(req models.LoginRequest) error {
	fields := make(map[string]string)

	if !govalidator.StringLength(req.Email, "1", "255") || !govalidator.IsEmail(req.Email) {
		fields["email"] = "must be a valid email address"
	}
	if req.Password == "" {
		fields["password"] = "is required"
	}

	if len(fields) > 0 {
		return dErrors.NewValidation("Validation failed", fields)
	}
	return nil
}

func validateProfileUpdate(req models.UpdateProfileRequest) error {
	if req.FullName != nil && strings.TrimSpace(*req.FullName) == "" {
		return dErrors.NewValidation("Validation failed", map[string]string{
			"full_name": "cannot be blank",
		})
	}
	return nil
}

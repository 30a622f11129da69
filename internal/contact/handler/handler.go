// Package handler exposes the contact form over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"zolo-auth/internal/contact/models"
	"zolo-auth/internal/platform/middleware"
	"zolo-auth/internal/transport/http/shared"
	dErrors "zolo-auth/pkg/domain-errors"
)

// ContactService is the surface the handler depends on.
type ContactService interface {
	Submit(ctx context.Context, req models.SubmitRequest) (*models.Submission, error)
	List(ctx context.Context, limit, offset int) (*models.Page, error)
}

type Handler struct {
	contact  ContactService
	verifier middleware.TokenVerifier
	logger   *slog.Logger
}

func New(contact ContactService, verifier middleware.TokenVerifier, logger *slog.Logger) *Handler {
	return &Handler{contact: contact, verifier: verifier, logger: logger}
}

// Register mounts the public submission endpoint and the authenticated
// admin listing.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/contact", h.handleSubmit)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.verifier, h.logger))
		r.Get("/api/admin/contacts", h.handleList)
	})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid request body"))
		return
	}

	if err := validateSubmit(req); err != nil {
		shared.WriteError(w, err)
		return
	}

	sub, err := h.contact.Submit(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "contact submission failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Thank you for contacting us. We will get back to you soon.",
		"id":      sub.ID,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	page, err := h.contact.List(r.Context(), limit, offset)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, page)
}

func validateSubmit(req models.SubmitRequest) error {
	fields := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "is required"
	}
	if !govalidator.StringLength(req.Email, "1", "255") || !govalidator.IsEmail(req.Email) {
		fields["email"] = "must be a valid email address"
	}
	if strings.TrimSpace(req.Subject) == "" {
		fields["subject"] = "is required"
	}
	if strings.TrimSpace(req.Message) == "" {
		fields["message"] = "is required"
	}

	if len(fields) > 0 {
		return dErrors.NewValidation("Validation failed", fields)
	}
	return nil
}

// Package service handles contact form submissions: persist first, then
// notify by mail on a best-effort basis.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zolo-auth/internal/audit"
	"zolo-auth/internal/contact/models"
	"zolo-auth/internal/contact/store"
	"zolo-auth/internal/platform/email"
	"zolo-auth/internal/platform/metrics"
)

type Service struct {
	store   store.Store
	mail    email.Sender
	notify  string
	auditor *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures optional collaborators.
type Option func(*Service)

// WithNotification sends each submission to the given internal address.
func WithNotification(sender email.Sender, to string) Option {
	return func(s *Service) {
		s.mail = sender
		s.notify = to
	}
}

func WithAuditPublisher(pub *audit.Publisher) Option {
	return func(s *Service) { s.auditor = pub }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(st store.Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  st,
		mail:   email.NopSender{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit stores the submission and queues the internal notification. The
// notification is fire-and-forget: a dead mail relay must not lose the
// submission or fail the request.
func (s *Service) Submit(ctx context.Context, req models.SubmitRequest) (*models.Submission, error) {
	sub := &models.Submission{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
		Phone:   req.Phone,
	}

	if err := s.store.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("store contact submission: %w", err)
	}

	s.metrics.IncrementContactSubmissions()
	s.auditor.Emit(audit.Event{Action: audit.ActionContact, Subject: sub.Email})
	s.sendNotification(sub)

	return sub, nil
}

// List returns a page of submissions for the admin view.
func (s *Service) List(ctx context.Context, limit, offset int) (*models.Page, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	subs, total, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list contact submissions: %w", err)
	}
	return &models.Page{Submissions: subs, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) sendNotification(sub *models.Submission) {
	if s.notify == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		msg := email.ContactNotification(s.notify, sub.Name, sub.Email, sub.Subject, sub.Message)
		if err := s.mail.Send(ctx, msg); err != nil {
			s.logger.Error("sending contact notification failed", "error", err, "submission_id", sub.ID)
		}
	}()
}

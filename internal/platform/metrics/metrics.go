package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	UsersCreated       prometheus.Counter
	LoginAttempts      *prometheus.CounterVec
	TokensIssued       prometheus.Counter
	TokensRevoked      prometheus.Counter
	ContactSubmissions prometheus.Counter
	RequestLatency     *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		UsersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zolo_auth_users_created_total",
			Help: "Total number of accounts created",
		}),
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "zolo_auth_login_attempts_total",
			Help: "Login attempts partitioned by outcome",
		}, []string{"outcome"}),
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zolo_auth_tokens_issued_total",
			Help: "Total number of access tokens issued",
		}),
		TokensRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zolo_auth_tokens_revoked_total",
			Help: "Total number of access tokens revoked at logout",
		}),
		ContactSubmissions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "zolo_contact_submissions_total",
			Help: "Total number of contact form submissions accepted",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zolo_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// Login outcome label values.
const (
	LoginOutcomeSuccess = "success"
	LoginOutcomeFailure = "failure"
	LoginOutcomeLocked  = "locked"
)

func (m *Metrics) IncrementUsersCreated() {
	if m == nil {
		return
	}
	m.UsersCreated.Inc()
}

func (m *Metrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementTokensIssued() {
	if m == nil {
		return
	}
	m.TokensIssued.Inc()
}

func (m *Metrics) IncrementTokensRevoked() {
	if m == nil {
		return
	}
	m.TokensRevoked.Inc()
}

func (m *Metrics) IncrementContactSubmissions() {
	if m == nil {
		return
	}
	m.ContactSubmissions.Inc()
}

// Package audit records security-relevant actions (signups, logins, lockouts,
// logouts) for later review. Emission is asynchronous so the request path
// never blocks on a sink.
package audit

import "time"

// Action identifies what happened.
type Action string

const (
	ActionSignup        Action = "auth.signup"
	ActionLogin         Action = "auth.login"
	ActionLoginFailed   Action = "auth.login_failed"
	ActionLockout       Action = "auth.lockout"
	ActionLogout        Action = "auth.logout"
	ActionEmailVerified Action = "auth.email_verified"
	ActionProfileUpdate Action = "auth.profile_updated"
	ActionContact       Action = "contact.submitted"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	UserID    int64     `json:"user_id,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Device    string    `json:"device,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

package models

import "time"

// User is the account aggregate.
//
// Invariants:
//   - Email is unique across all accounts and immutable after creation
//   - PasswordHash is never empty and never serialized
//   - CreatedAt is immutable after creation
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Company      string    `json:"company,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	IsActive     bool      `json:"is_active"`

	// Email verification state. The token is single-use and cleared once
	// the address is confirmed.
	EmailVerified     bool   `json:"-"`
	VerificationToken string `json:"-"`
}

// SignupRequest is the POST /auth/signup body.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Company  string `json:"company,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the PUT /auth/profile body. Pointer fields
// distinguish "absent" from "set to empty": absent fields keep their
// previous values.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Company  *string `json:"company,omitempty"`
	Phone    *string `json:"phone,omitempty"`
}

// ProfilePatch is the store-level partial update derived from an
// UpdateProfileRequest. Nil fields are left untouched.
type ProfilePatch struct {
	FullName *string
	Company  *string
	Phone    *string
}

// TokenResponse is returned by signup and login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

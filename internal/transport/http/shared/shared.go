// Package shared holds the response-writing helpers used by every HTTP
// handler so error bodies stay uniform across domains.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "zolo-auth/pkg/domain-errors"
)

// ErrorBody is the JSON error envelope. Detail is the short machine-stable
// string clients key behavior off; Message is the longer human-readable one;
// Errors carries per-field validation problems when present.
type ErrorBody struct {
	Detail  string            `json:"detail"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps a domain error onto an HTTP status and the error envelope.
// Unclassified errors become opaque 500s; their detail stays server-side.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	body := ErrorBody{
		Detail: dErrors.MessageOf(err),
		Errors: dErrors.FieldErrors(err),
	}
	if status == http.StatusInternalServerError {
		body.Detail = "Internal server error"
		body.Message = "An unexpected error occurred. Please try again later."
	}
	WriteJSON(w, status, body)
}

// StatusOf translates a domain error code into an HTTP status.
func StatusOf(err error) int {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict:
		// Kept at 400 for duplicate signups: the web client treats any
		// signup 400 as a form-level problem and surfaces the detail text.
		return http.StatusBadRequest
	case dErrors.CodeTooManyRequests:
		return http.StatusTooManyRequests
	case dErrors.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

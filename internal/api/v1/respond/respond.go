// Package respond writes JSON responses and the error envelope shared by handlers and middleware.
package respond

import (
	"encoding/json"
	"net/http"
)

// Error codes of the envelope.
const (
	CodeMethodNotAllowed    = "method_not_allowed"
	CodeUnauthorized        = "unauthorized"
	CodeNotFound            = "not_found"
	CodeInsufficientCredits = "insufficient_credits"
	CodeValidationFailed    = "validation_failed"
	CodeRateLimited         = "rate_limited"
	CodeUpstreamFailure     = "upstream_failure"
	CodeUpstreamUnavailable = "upstream_unavailable"
	CodePersistenceFailure  = "persistence_failure"
)

// ErrorBody is the single error envelope.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Error: message, Code: code})
}

// MethodNotAllowed is the 405 response for a route hit with the wrong verb.
func MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	Error(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method not allowed")
}

// NotFound is the 404 response for unknown routes.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	Error(w, http.StatusNotFound, CodeNotFound, "Not found")
}

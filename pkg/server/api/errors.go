package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/busmock/busmock/pkg/pattern"
	"github.com/busmock/busmock/pkg/server/jobs"
)

// ErrBadRequest marks client errors detected by handlers.
var ErrBadRequest = errors.New("bad request")

// ErrorResponse represents a standard JSON error response.
// Used consistently across all API endpoints for error responses.
//
// Example:
//
//	{
//	  "error": "Service Unavailable",
//	  "message": "job queue is full"
//	}
type ErrorResponse struct {
	Error   string `json:"error"`             // Short error type (e.g., "Bad Request", "Internal Server Error")
	Message string `json:"message,omitempty"` // Detailed error message (optional)
}

// StatusFor maps an error to an HTTP status code:
//   - ErrBadRequest, invalid or unsupported patterns → 400
//   - *http.MaxBytesError → 413
//   - jobs.ErrQueueFull, jobs.ErrNotStarted → 503
//   - anything else → 500
func StatusFor(err error) int {
	var tooLarge *http.MaxBytesError
	var unsupported *pattern.UnsupportedFilterError

	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, pattern.ErrInvalidPattern),
		errors.As(err, &unsupported):
		return http.StatusBadRequest
	case errors.Is(err, jobs.ErrQueueFull), errors.Is(err, jobs.ErrNotStarted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes a standard JSON error response to the client, with the
// status code chosen by StatusFor. Server-side failures log at error level,
// client errors at debug.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := StatusFor(err)

	logEvent := log.Debug()
	if statusCode >= http.StatusInternalServerError {
		logEvent = log.Error()
	}
	logEvent.
		Str("component", "api").
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", statusCode).
		Err(err).
		Msg("Request failed")

	WriteJSONError(w, statusCode, http.StatusText(statusCode), err.Error())
}

// WriteJSONError writes a custom JSON error response with a specific status code.
// Use this when you need fine-grained control over the error response.
//
// Example:
//
//	WriteJSONError(w, http.StatusBadRequest, "Bad Request", "Entries is required")
func WriteJSONError(w http.ResponseWriter, statusCode int, errorType, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error:   errorType,
		Message: message,
	})
}

// WriteJSON writes a JSON response to the client.
// Use this for successful API responses.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Str("component", "api").
			Err(err).
			Msg("Failed to encode JSON response")
	}
}

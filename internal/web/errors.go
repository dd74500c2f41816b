package web

// errors.go provides unified error response handling for the web layer.
//
// It ensures all errors are:
//   - Logged with full technical details for debugging (server-side)
//   - Returned to clients as one user-facing message with an action
//   - Formatted for the client: JSON for /api routes, an alert page otherwise
//
// The HTTP status is derived from the error kind with errors.Is, so handlers
// never pick status codes for pipeline failures themselves.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/popstat/internal/core"
	"github.com/JonMunkholm/popstat/internal/logging"
	"github.com/JonMunkholm/popstat/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSourceNotFound), errors.Is(err, core.ErrUnknownVariant):
		return http.StatusNotFound
	case errors.Is(err, core.ErrSchemaMismatch), errors.Is(err, core.ErrMalformedSource):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrRemoteUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrPipelineBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	// Known failures (busy, remote down, bad source) are expected operating
	// conditions; only errors without a user-facing code are logged as errors.
	logger := logging.FromContext(r.Context())
	if !core.IsUserFacing(err) {
		logger.Error("request error",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"error", err.Error(),
			"code", userMsg.Code,
		)
	} else {
		logger.Warn("request failed",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"error", err.Error(),
			"code", userMsg.Code,
		)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, status)
		return
	}
	s.renderErrorPage(w, r, userMsg, status)
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// renderErrorPage renders the alert in place of the page content.
func (s *Server) renderErrorPage(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)

	alert := templates.ErrorAlert(msg.Message, msg.Action, msg.Code)
	if isPartial(r) {
		_ = alert.Render(r.Context(), w)
		return
	}
	_ = templates.Page("年齢別人口", alert).Render(r.Context(), w)
}

// isPartial reports whether the client asked for a fragment (HTMX).
func isPartial(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}

	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

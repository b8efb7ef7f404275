package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. The status code comes from statusFor, the user message from core.MapError
//  4. Technical error + context is logged with request ID for correlation
//  5. User message is rendered as JSON for /api and as an HTML alert for pages

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sheetscan/internal/core"
	"github.com/JonMunkholm/sheetscan/internal/logging"
	"github.com/JonMunkholm/sheetscan/internal/sheets"
	"github.com/JonMunkholm/sheetscan/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

var errStatuses = []struct {
	target error
	status int
}{
	{core.ErrTableNotFound, http.StatusNotFound},
	{core.ErrSessionNotFound, http.StatusNotFound},
	{sheets.ErrMissingOption, http.StatusBadRequest},
	{sheets.ErrInvalidColumn, http.StatusBadRequest},
	{sheets.ErrUnsupportedColumnType, http.StatusBadRequest},
	{sheets.ErrUnsupportedOperation, http.StatusConflict},
	{core.ErrNotLoadable, http.StatusConflict},
	{core.ErrTargetMismatch, http.StatusConflict},
	{core.ErrTooManyScans, http.StatusServiceUnavailable},
	{core.ErrNoDatabase, http.StatusServiceUnavailable},
	{sheets.ErrTransport, http.StatusBadGateway},
	{sheets.ErrInvalidEnvelope, http.StatusBadGateway},
	{sheets.ErrMalformedJSON, http.StatusBadGateway},
	{sheets.ErrMissingRows, http.StatusBadGateway},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

// statusFor picks the HTTP status for an error.
func statusFor(err error) int {
	for _, e := range errStatuses {
		if errors.Is(err, e.target) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// respondError logs the technical error and returns a user-friendly one.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	userMsg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	}
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if errors.Is(err, core.ErrTooManyScans) {
		w.Header().Set("Retry-After", strconv.Itoa(5))
	}

	if wantsJSON(r) {
		respondErrorJSON(w, userMsg, detailOf(err), statusCode)
	} else {
		respondErrorHTML(w, r, userMsg, statusCode)
	}
}

// detailOf returns the adapter's detail for errors a caller can fix.
// Transport and unexpected errors are not echoed to clients.
func detailOf(err error) string {
	var serr *sheets.Error
	if !errors.As(err, &serr) {
		if errors.Is(err, core.ErrTargetMismatch) {
			return err.Error()
		}
		return ""
	}
	if errors.Is(err, sheets.ErrTransport) {
		return ""
	}
	return serr.Detail
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, detail string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Detail:  detail,
	})
}

// respondErrorHTML renders the error alert inside the page layout.
func respondErrorHTML(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	templates.Layout("Error", templates.ErrorAlert(msg.Message, msg.Action, msg.Code)).Render(r.Context(), w)
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

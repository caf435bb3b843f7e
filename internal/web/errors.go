package web

// errors.go provides unified error response handling for the web layer.
//
// The error flow:
//  1. Handler encounters an error
//  2. Calls respondError(w, r, err)
//  3. The status code is derived from the sentinel the error wraps
//  4. Error is mapped via core.MapError to get a user-friendly message
//  5. Technical error + context is logged with request ID for correlation
//  6. User message is rendered as JSON, or as an HTML fragment for HTMX

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvfilter/internal/core"
	"github.com/JonMunkholm/csvfilter/internal/logging"
	"github.com/JonMunkholm/csvfilter/internal/render"
)

// errBadRequest marks malformed request input that has no core sentinel.
var errBadRequest = errors.New("bad request")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Column  string `json:"column,omitempty"`
}

// statusFor maps an error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSourceNotFound), errors.Is(err, core.ErrDatasetNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrInvalidCSV), errors.Is(err, core.ErrEmptyFile):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrArityMismatch),
		errors.Is(err, core.ErrUnknownColumn),
		errors.Is(err, core.ErrInvalidTolerance),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotLoaded):
		return http.StatusConflict
	case errors.Is(err, core.ErrTooManyLoads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the technical error server-side and returns a
// user-friendly response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := statusFor(err)
	userMsg := core.MapError(err)
	if errors.Is(err, errBadRequest) {
		userMsg = core.UserMessage{Message: err.Error(), Code: "REQ000"}
	}

	logger := logging.FromContext(r.Context())
	if statusCode >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", statusCode, "error", err.Error(), "code", userMsg.Code)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", statusCode, "error", err.Error(), "code", userMsg.Code)
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusCode)
		render.ErrorAlert(userMsg).Render(r.Context(), w)
		return
	}

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	}
	var uc *core.UnknownColumnError
	if errors.As(err, &uc) {
		resp.Column = uc.Column
		resp.Error = uc.Error()
	}
	writeJSON(w, statusCode, resp)
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("HX-Request"), "true")
}

package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"walletgenie/internal/core"
	"walletgenie/internal/log"
)

// classifyError maps a service error to a status and a message safe to show.
// Not-found is reported as 200: the item the user acted on is already gone.
func classifyError(err error) (int, string) {
	switch {
	case core.IsValidation(err):
		msg := strings.TrimPrefix(err.Error(), core.ErrValidation.Error()+": ")
		return http.StatusUnprocessableEntity, msg
	case errors.Is(err, core.ErrNotFound):
		return http.StatusOK, "Nothing to do: the item no longer exists."
	case errors.Is(err, core.ErrAlreadyExists), errors.Is(err, core.ErrLimitReached):
		return http.StatusConflict, err.Error()
	case errors.Is(err, core.ErrBackendUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Storage is temporarily unavailable. Please try again."
	}
	return http.StatusInternalServerError, "Something went wrong. Please try again."
}

// respondError logs err at a level matching its class and writes the
// HTMX error response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, op string) {
	status, msg := classifyError(err)
	logger := log.FromContext(r.Context())
	switch {
	case status >= http.StatusInternalServerError:
		s.metrics.errors.Add(1)
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldOperation, op,
			log.FieldStatusCode, status,
			log.FieldError, err)
	case status == http.StatusOK:
		logger.InfoContext(r.Context(), "Target already gone",
			log.FieldOperation, op,
			log.FieldError, err)
		NewHTMXResponse().TriggerInfoNotification(msg).Write(w)
		return
	default:
		logger.WarnContext(r.Context(), "Request rejected",
			log.FieldOperation, op,
			log.FieldStatusCode, status,
			log.FieldError, err)
	}
	ErrorResponse(status, msg).TriggerErrorNotification(msg).Write(w)
}

// render executes a template into a buffer so a failure never leaves a
// half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.respondError(w, r, errors.New("templates not loaded"), log.OpRender)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.respondError(w, r, err, log.OpRender)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

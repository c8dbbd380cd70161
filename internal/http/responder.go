package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/example/ticket-queue/internal/application"
)

const (
	codeBadRequest     = "bad_request"
	codeInvalidEntryID = "invalid_entry_id"
	codeValidation     = "validation"
	codeInternal       = "unexpected"

	messageInternal = "internal server error"
)

var kindMessages = map[string]string{
	"invalid_date":            "service date must use YYYY-MM-DD",
	"day_already_started":     "service day already started",
	"day_active_cannot_reset": "service day already has tickets and cannot be reset",
	"duplicate_ticket":        "ticket number already issued",
	"entry_not_found":         "ticket not found",
	"no_previous_entry":       "no previously served ticket",
	"queue_full":              "no more tickets can be issued for this day",
	"edit_window_closed":      "tickets can only be edited on their service day",
	"invalid_phone":           "validation failed",
	"validation":              "validation failed",
}

var categoryStatus = map[application.Category]int{
	application.CategoryValidation: http.StatusBadRequest,
	application.CategoryPermission: http.StatusForbidden,
	application.CategoryNotFound:   http.StatusNotFound,
	application.CategoryConflict:   http.StatusConflict,
	application.CategoryCapacity:   http.StatusConflict,
}

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeBadRequest reports a malformed request that never reached the service.
func (r responder) writeBadRequest(ctx context.Context, w http.ResponseWriter, code, message string) {
	r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{ErrorCode: code, Message: message})
}

// writeRequestValidation reports DTO constraint failures by JSON field name.
func (r responder) writeRequestValidation(ctx context.Context, w http.ResponseWriter, err error) {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		r.writeBadRequest(ctx, w, codeBadRequest, err.Error())
		return
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describeConstraint(fe)
	}
	r.writeJSON(ctx, w, http.StatusBadRequest, errorResponse{
		ErrorCode: codeValidation,
		Message:   kindMessages[codeValidation],
		Errors:    details,
	})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	kind := application.ErrorKind(err)
	status, ok := categoryStatus[application.ErrorCategory(err)]
	if !ok {
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "error", err, "error_kind", kind)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{ErrorCode: codeInternal, Message: messageInternal})
		return
	}

	resp := errorResponse{ErrorCode: kind, Message: kindMessages[kind]}
	if resp.Message == "" {
		resp.Message = http.StatusText(status)
	}
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		resp.Errors = vErr.FieldErrors
	}
	r.writeJSON(ctx, w, status, resp)
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func describeConstraint(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "gt":
		return fe.Field() + " must be positive"
	default:
		return fe.Field() + " is invalid"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

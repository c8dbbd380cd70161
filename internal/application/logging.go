package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/ticket-queue/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	logger := logging.FromContext(ctx)
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	pairs := []any{"service", serviceName}
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if len(attrs) > 0 {
		pairs = append(pairs, attrs...)
	}
	return logger.With(pairs...)
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrDayAlreadyStarted):
		return "day_already_started"
	case errors.Is(err, ErrDayActiveCannotReset):
		return "day_active_cannot_reset"
	case errors.Is(err, ErrDuplicateTicket):
		return "duplicate_ticket"
	case errors.Is(err, ErrEntryNotFound):
		return "entry_not_found"
	case errors.Is(err, ErrNoPreviousEntry):
		return "no_previous_entry"
	case errors.Is(err, ErrQueueFull):
		return "queue_full"
	case errors.Is(err, ErrEditWindowClosed):
		return "edit_window_closed"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		if _, ok := vErr.FieldErrors[fieldPhone]; ok && len(vErr.FieldErrors) == 1 {
			return "invalid_phone"
		}
		return "validation"
	}

	return "unexpected"
}

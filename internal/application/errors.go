package application

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrInvalidDate is returned when a service date or birthday is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("application: invalid date")
	// ErrDayAlreadyStarted is returned when a day is opened twice without overwrite.
	ErrDayAlreadyStarted = errors.New("application: day already started")
	// ErrDayActiveCannotReset is returned when overwriting a day that already has tickets.
	ErrDayActiveCannotReset = errors.New("application: day has tickets and cannot be reset")
	// ErrDuplicateTicket is returned when storage already holds the assigned ticket index.
	ErrDuplicateTicket = errors.New("application: duplicate ticket")
	// ErrEntryNotFound is returned when the requested ticket does not exist.
	ErrEntryNotFound = errors.New("application: entry not found")
	// ErrNoPreviousEntry is returned by CallPrevious when nothing has been served.
	ErrNoPreviousEntry = errors.New("application: no previously served entry")
	// ErrQueueFull is returned once a day has issued its last ticket.
	ErrQueueFull = errors.New("application: queue full")
	// ErrEditWindowClosed is returned when editing a ticket from another day.
	ErrEditWindowClosed = errors.New("application: edit window closed")

	errIllegalTransition = errors.New("application: illegal status transition")
)

// Category groups error kinds by how callers should react.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryConflict   Category = "conflict"
	CategoryNotFound   Category = "not_found"
	CategoryCapacity   Category = "capacity"
	CategoryPermission Category = "permission"
	CategoryInternal   Category = "internal"
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ErrorCategory maps an error to the category used for transport status codes.
func ErrorCategory(err error) Category {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidDate):
		return CategoryValidation
	case errors.Is(err, ErrDayAlreadyStarted),
		errors.Is(err, ErrDayActiveCannotReset),
		errors.Is(err, ErrDuplicateTicket):
		return CategoryConflict
	case errors.Is(err, ErrEntryNotFound), errors.Is(err, ErrNoPreviousEntry):
		return CategoryNotFound
	case errors.Is(err, ErrQueueFull):
		return CategoryCapacity
	case errors.Is(err, ErrEditWindowClosed):
		return CategoryPermission
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return CategoryValidation
	}
	return CategoryInternal
}

package application

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/example/ticket-queue/internal/phone"
	"github.com/example/ticket-queue/internal/queue"
)

const (
	fieldName        = "name"
	fieldPhone       = "phone"
	fieldBirthday    = "birthday"
	fieldServiceDate = "service_date"

	maxNameLength = 200
)

func validateName(v *ValidationError, raw string) string {
	name := strings.TrimSpace(raw)
	switch {
	case name == "":
		v.add(fieldName, "name is required")
	case utf8.RuneCountInString(name) > maxNameLength:
		v.add(fieldName, "name is too long")
	}
	return name
}

func validatePhone(v *ValidationError, raw string) string {
	if strings.TrimSpace(raw) == "" {
		v.add(fieldPhone, "phone is required")
		return ""
	}
	normalized, err := phone.Normalize(raw)
	if err != nil {
		if errors.Is(err, phone.ErrInvalid) {
			v.add(fieldPhone, "phone must be an Iranian mobile number")
		} else {
			v.add(fieldPhone, err.Error())
		}
		return ""
	}
	return normalized
}

// validateBirthday parses an optional birth date. An empty value means none.
func validateBirthday(v *ValidationError, raw string, today queue.Date) *queue.Date {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	birthday, err := queue.ParseDate(raw)
	if err != nil {
		v.add(fieldBirthday, "birthday must use YYYY-MM-DD")
		return nil
	}
	if birthday.After(today) {
		v.add(fieldBirthday, "birthday cannot be in the future")
		return nil
	}
	return &birthday
}

package queue

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage layout of a service date.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a date string does not parse as YYYY-MM-DD.
var ErrInvalidDate = errors.New("queue: invalid date")

// Date is a calendar day in YYYY-MM-DD form.
type Date string

// ParseDate validates value and returns it as a Date.
func ParseDate(value string) (Date, error) {
	trimmed := strings.TrimSpace(value)
	parsed, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q must use YYYY-MM-DD", ErrInvalidDate, value)
	}
	return Date(parsed.Format(DateLayout)), nil
}

// ResolveDate parses value, falling back to the calendar day of now when the
// value is empty.
func ResolveDate(value string, now time.Time) (Date, error) {
	if strings.TrimSpace(value) == "" || value == "null" {
		return DateOf(now), nil
	}
	return ParseDate(value)
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	return Date(t.Format(DateLayout))
}

// String implements fmt.Stringer.
func (d Date) String() string {
	return string(d)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	parsed, err := time.ParseInLocation(DateLayout, string(d), loc)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

// After reports whether d is a later calendar day than other.
func (d Date) After(other Date) bool {
	// YYYY-MM-DD sorts lexically in calendar order.
	return string(d) > string(other)
}

package queue

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	got, err := ParseDate(" 2024-05-01 ")
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	if got != Date("2024-05-01") {
		t.Fatalf("unexpected date %q", got)
	}

	for _, bad := range []string{"2024/05/01", "01-05-2024", "2024-13-01", "2024-02-30", "tomorrow"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("ParseDate(%q) error=%v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestResolveDate(t *testing.T) {
	t.Parallel()

	tehran := time.FixedZone("IRST", 3*3600+1800)
	now := time.Date(2024, time.May, 1, 22, 0, 0, 0, time.UTC).In(tehran)

	got, err := ResolveDate("", now)
	if err != nil {
		t.Fatalf("ResolveDate returned error: %v", err)
	}
	if got != Date("2024-05-02") {
		t.Fatalf("expected local calendar day 2024-05-02, got %q", got)
	}

	if _, err := ResolveDate("bogus", now); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDate_After(t *testing.T) {
	t.Parallel()

	if !Date("2024-05-02").After("2024-05-01") {
		t.Fatalf("expected later date to compare after")
	}
	if Date("2024-05-01").After("2024-05-01") {
		t.Fatalf("expected equal dates not to compare after")
	}
}

package queue

import (
	"reflect"
	"testing"
	"time"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	entries := []Entry{
		entry(3, StatusWaiting),
		entry(1, StatusServed),
		entry(2, StatusActive),
		entry(4, StatusWaiting),
	}

	summary := Summarize("2024-05-01", entries)
	if summary.Active == nil || summary.Active.TicketIndex != 2 {
		t.Fatalf("expected ticket 2 active, got %+v", summary.Active)
	}
	if summary.Next == nil || summary.Next.TicketIndex != 3 {
		t.Fatalf("expected ticket 3 next, got %+v", summary.Next)
	}
	if summary.Waiting != 2 || summary.Served != 1 || summary.Pending != 3 || summary.Total != 4 {
		t.Fatalf("unexpected counts %+v", summary)
	}

	again := Summarize("2024-05-01", entries)
	if !reflect.DeepEqual(summary, again) {
		t.Fatalf("expected identical summaries, got %+v and %+v", summary, again)
	}
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	summary := Summarize("2024-05-01", nil)
	if summary.Active != nil || summary.Next != nil || summary.Pending != 0 {
		t.Fatalf("unexpected summary for empty day %+v", summary)
	}
}

func TestWindowStart(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("IRST", 3*3600+1800)
	cases := []struct {
		at   time.Time
		want time.Time
	}{
		{time.Date(2024, 5, 1, 9, 0, 0, 0, loc), time.Date(2024, 5, 1, 9, 0, 0, 0, loc)},
		{time.Date(2024, 5, 1, 9, 29, 59, 999, loc), time.Date(2024, 5, 1, 9, 0, 0, 0, loc)},
		{time.Date(2024, 5, 1, 9, 30, 0, 0, loc), time.Date(2024, 5, 1, 9, 30, 0, 0, loc)},
		{time.Date(2024, 5, 1, 23, 59, 1, 0, loc), time.Date(2024, 5, 1, 23, 30, 0, 0, loc)},
	}

	for _, tt := range cases {
		if got := WindowStart(tt.at, DefaultSnapshotWindow); !got.Equal(tt.want) {
			t.Fatalf("WindowStart(%s)=%s, want %s", tt.at, got, tt.want)
		}
	}

	got := WindowStart(time.Date(2024, 5, 1, 9, 44, 0, 0, loc), 15*time.Minute)
	if got.Minute() != 30 {
		t.Fatalf("expected 15 minute window to start at :30, got %s", got)
	}
}

func TestValidWindow(t *testing.T) {
	t.Parallel()

	for _, ok := range []time.Duration{time.Minute, 15 * time.Minute, 30 * time.Minute, time.Hour} {
		if !ValidWindow(ok) {
			t.Fatalf("expected %s to be valid", ok)
		}
	}
	for _, bad := range []time.Duration{0, 7 * time.Minute, 90 * time.Minute, 30 * time.Second} {
		if ValidWindow(bad) {
			t.Fatalf("expected %s to be invalid", bad)
		}
	}
}

func TestNewSnapshot(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 10, 47, 12, 0, time.UTC)
	snap := NewSnapshot(Summary{ServiceDate: "2024-05-01", Pending: 3, Waiting: 2, Served: 5}, now, DefaultSnapshotWindow)
	if !snap.WindowStart.Equal(time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window start %s", snap.WindowStart)
	}
	if snap.Pending != 3 || snap.Waiting != 2 || snap.Served != 5 || !snap.CapturedAt.Equal(now) {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

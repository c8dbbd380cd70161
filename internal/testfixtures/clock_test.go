package testfixtures

import (
	"testing"
	"time"
)

func TestClockDefaultsToReferenceTime(t *testing.T) {
	clock := NewClock(time.Time{})
	if !clock.Now().Equal(ReferenceTime()) {
		t.Fatalf("expected ReferenceTime, got %v", clock.Now())
	}
	if got := clock.Now().Format("2006-01-02"); got != ReferenceDate.String() {
		t.Fatalf("ReferenceTime falls on %s, expected %s", got, ReferenceDate)
	}
}

func TestClockAdvanceAndSet(t *testing.T) {
	start := time.Date(2024, time.March, 14, 9, 26, 0, 0, time.UTC)
	clock := NewClock(start)

	updated := clock.Advance(90 * time.Minute)
	if !updated.Equal(start.Add(90 * time.Minute)) {
		t.Fatalf("advance returned %v", updated)
	}

	clock.Set(start.Add(2 * time.Hour))
	if got := clock.Now(); !got.Equal(start.Add(2 * time.Hour)) {
		t.Fatalf("expected %v, got %v", start.Add(2*time.Hour), got)
	}
}

func TestClockSetWallClock(t *testing.T) {
	clock := NewClock(time.Time{})

	got := clock.SetWallClock(23, 45)
	want := time.Date(2024, time.May, 1, 23, 45, 0, 0, Tehran)
	if !got.Equal(want) || !clock.Now().Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestClockNowFunc(t *testing.T) {
	clock := NewClock(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	nowFn := clock.NowFunc()

	clock.Advance(time.Minute)
	if got := nowFn(); !got.Equal(clock.Now()) {
		t.Fatalf("expected updated time %v, got %v", clock.Now(), got)
	}

	var nilClock *Clock
	if nilClock.NowFunc() == nil {
		t.Fatal("nil clock should fall back to time.Now")
	}
}

func TestClockServiceDate(t *testing.T) {
	clock := NewClock(time.Time{})
	if got := clock.ServiceDate(); got != ReferenceDate {
		t.Fatalf("expected %s, got %s", ReferenceDate, got)
	}

	// 23:45 Tehran is still the same service date although UTC has not moved on.
	clock.SetWallClock(23, 45)
	if got := clock.ServiceDate(); got != ReferenceDate {
		t.Fatalf("expected %s late in the day, got %s", ReferenceDate, got)
	}

	if got := clock.NextDay(); got != "2024-05-02" {
		t.Fatalf("expected 2024-05-02, got %s", got)
	}
}

package queue

import "testing"

func TestApply(t *testing.T) {
	cases := []struct {
		action Action
		from   Status
		to     Status
		valid  bool
	}{
		{ActionDispatch, StatusWaiting, StatusActive, true},
		{ActionDispatch, StatusActive, "", false},
		{ActionDispatch, StatusServed, "", false},
		{ActionServe, StatusActive, StatusServed, true},
		{ActionServe, StatusWaiting, "", false},
		{ActionRecall, StatusActive, StatusWaiting, true},
		{ActionRecall, StatusServed, "", false},
		{ActionRestore, StatusServed, StatusActive, true},
		{ActionRestore, StatusWaiting, "", false},
		{Action("skip"), StatusWaiting, "", false},
	}

	for _, tt := range cases {
		got, err := Apply(tt.action, tt.from)
		if tt.valid {
			if err != nil || got != tt.to {
				t.Fatalf("Apply(%q, %q)=(%q, %v), want %q", tt.action, tt.from, got, err, tt.to)
			}
			continue
		}
		if err == nil {
			t.Fatalf("Apply(%q, %q) expected error, got %q", tt.action, tt.from, got)
		}
	}
}

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from  Status
		to    Status
		valid bool
	}{
		{StatusWaiting, StatusActive, true},
		{StatusActive, StatusServed, true},
		{StatusActive, StatusWaiting, true},
		{StatusServed, StatusActive, true},
		{StatusWaiting, StatusServed, false},
		{StatusServed, StatusWaiting, false},
		{StatusWaiting, StatusWaiting, false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("called"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
	got, err := ParseStatus("served")
	if err != nil || got != StatusServed {
		t.Fatalf("ParseStatus(served)=(%q, %v)", got, err)
	}
}

package queue

import (
	"errors"
	"testing"
)

func TestNextIndex(t *testing.T) {
	t.Parallel()

	for want := 1; want <= MaxTicketIndex; want++ {
		got, err := NextIndex(want - 1)
		if err != nil {
			t.Fatalf("NextIndex(%d) returned error: %v", want-1, err)
		}
		if got != want {
			t.Fatalf("NextIndex(%d)=%d, want %d", want-1, got, want)
		}
		if code := TicketCode(got); len(code) != 3 {
			t.Fatalf("TicketCode(%d)=%q is not three digits", got, code)
		}
	}

	if _, err := NextIndex(MaxTicketIndex); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull after %d tickets, got %v", MaxTicketIndex, err)
	}
}

func TestTicketCode(t *testing.T) {
	t.Parallel()

	cases := map[int]string{1: "001", 42: "042", 100: "100", 999: "999"}
	for index, want := range cases {
		if got := TicketCode(index); got != want {
			t.Fatalf("TicketCode(%d)=%q, want %q", index, got, want)
		}
	}
}

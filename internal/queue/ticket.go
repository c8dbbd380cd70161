package queue

import (
	"errors"
	"fmt"
)

// MaxTicketIndex is the highest ticket index a single service date can issue.
const MaxTicketIndex = 999

// ErrQueueFull is returned once a service date has issued MaxTicketIndex tickets.
var ErrQueueFull = errors.New("queue: ticket limit reached for the day")

// NextIndex returns the ticket index that follows maxIndex, the highest index
// already issued for the day (zero when none).
func NextIndex(maxIndex int) (int, error) {
	if maxIndex < 0 {
		maxIndex = 0
	}
	next := maxIndex + 1
	if next > MaxTicketIndex {
		return 0, ErrQueueFull
	}
	return next, nil
}

// TicketCode renders index as the zero padded three digit display code.
func TicketCode(index int) string {
	return fmt.Sprintf("%03d", index)
}

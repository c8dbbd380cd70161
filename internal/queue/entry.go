package queue

import (
	"sort"
	"time"
)

// Day records that a service date has been opened.
type Day struct {
	ServiceDate Date
	StartedAt   time.Time
}

// Entry is a customer ticket within one service date.
type Entry struct {
	ID           int64
	ServiceDate  Date
	TicketIndex  int
	TicketNumber string
	Name         string
	Phone        string
	Birthday     *Date
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SortByIndex returns a copy of entries ordered by ticket index ascending.
func SortByIndex(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TicketIndex < sorted[j].TicketIndex
	})
	return sorted
}

func cloneEntry(entry Entry) *Entry {
	clone := entry
	if entry.Birthday != nil {
		birthday := *entry.Birthday
		clone.Birthday = &birthday
	}
	return &clone
}

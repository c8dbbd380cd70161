package persistence

import "time"

// Day marks a service date as opened.
type Day struct {
	ServiceDate string
	StartedAt   time.Time
}

// Entry is a stored queue ticket.
type Entry struct {
	ID           int64
	ServiceDate  string
	TicketIndex  int
	TicketNumber string
	Name         string
	Phone        string
	Birthday     *string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Snapshot is the stored load aggregate for one window of a service date.
type Snapshot struct {
	ServiceDate string
	WindowStart time.Time
	Pending     int
	Waiting     int
	Served      int
	CapturedAt  time.Time
}

package application

import (
	"time"

	"github.com/example/ticket-queue/internal/queue"
)

// OpenDayParams wraps the data required to start a service day.
type OpenDayParams struct {
	// ServiceDate defaults to today when empty.
	ServiceDate string
	// Overwrite recreates an existing day that has no tickets yet.
	Overwrite bool
}

// IssueTicketParams wraps caller provided customer fields for a new ticket.
type IssueTicketParams struct {
	ServiceDate string
	Name        string
	Phone       string
	Birthday    *string
}

// EditTicketParams carries the fields to change on an existing ticket. Nil
// fields are left untouched; an empty Birthday clears it.
type EditTicketParams struct {
	EntryID  int64
	Name     *string
	Phone    *string
	Birthday *string
}

// TicketList is the ordered ticket set of one service date.
type TicketList struct {
	ServiceDate queue.Date
	Entries     []queue.Entry
}

// CallNextResult reports the outcome of advancing the serving pointer.
type CallNextResult struct {
	ServiceDate queue.Date
	// Active is the newly dispatched entry, nil when the queue is empty.
	Active *queue.Entry
	// Served is the entry that was active before the call, if any.
	Served     *queue.Entry
	QueueEmpty bool
}

// CallPreviousResult reports the outcome of rolling the serving pointer back.
type CallPreviousResult struct {
	ServiceDate queue.Date
	// Active is the reactivated entry.
	Active *queue.Entry
	// Recalled is the entry returned to the waiting pool, if one was active.
	Recalled *queue.Entry
}

// Display is the full presentation payload for a service date.
type Display struct {
	Summary queue.Summary
	Entries []queue.Entry
	History []queue.Snapshot
}

// TickerTicket is the minimal ticket projection shown on a ticker.
type TickerTicket struct {
	Number string
	Name   string
}

// Ticker is the simplified now-serving payload.
type Ticker struct {
	ServiceDate queue.Date
	Current     *TickerTicket
	Next        *TickerTicket
	Waiting     int
	Served      int
	Pending     int
}

// LoadHistory is the snapshot series of a service date, oldest window first.
type LoadHistory struct {
	ServiceDate queue.Date
	Snapshots   []queue.Snapshot
}

// NewTicker derives the ticker payload from a summary.
func NewTicker(summary queue.Summary) Ticker {
	ticker := Ticker{
		ServiceDate: summary.ServiceDate,
		Waiting:     summary.Waiting,
		Served:      summary.Served,
		Pending:     summary.Pending,
	}
	if summary.Active != nil {
		ticker.Current = &TickerTicket{Number: summary.Active.TicketNumber, Name: summary.Active.Name}
	}
	if summary.Next != nil {
		ticker.Next = &TickerTicket{Number: summary.Next.TicketNumber, Name: summary.Next.Name}
	}
	return ticker
}

// Day is the registry record returned by OpenDay.
type Day struct {
	ServiceDate queue.Date
	StartedAt   time.Time
	// Reset reports whether an existing empty day was recreated.
	Reset bool
}

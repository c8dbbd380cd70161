package queue

import "time"

// DefaultSnapshotWindow is the bucket size of load snapshots.
const DefaultSnapshotWindow = 30 * time.Minute

// Summary is the read model of one service date.
type Summary struct {
	ServiceDate Date
	Active      *Entry
	Next        *Entry
	Total       int
	Waiting     int
	Served      int
	// Pending counts entries not yet served: waiting plus active.
	Pending int
}

// Summarize derives the active entry, the next waiting entry and the status
// counts from a day's entries.
func Summarize(date Date, entries []Entry) Summary {
	summary := Summary{ServiceDate: date, Total: len(entries)}
	for _, entry := range SortByIndex(entries) {
		switch entry.Status {
		case StatusActive:
			if summary.Active == nil {
				summary.Active = cloneEntry(entry)
			}
		case StatusWaiting:
			summary.Waiting++
			if summary.Next == nil {
				summary.Next = cloneEntry(entry)
			}
		case StatusServed:
			summary.Served++
		}
	}
	summary.Pending = summary.Total - summary.Served
	return summary
}

// Snapshot is one point of the per-day load history.
type Snapshot struct {
	ServiceDate Date
	WindowStart time.Time
	Pending     int
	Waiting     int
	Served      int
	CapturedAt  time.Time
}

// NewSnapshot captures summary into the window enclosing now.
func NewSnapshot(summary Summary, now time.Time, window time.Duration) Snapshot {
	return Snapshot{
		ServiceDate: summary.ServiceDate,
		WindowStart: WindowStart(now, window),
		Pending:     summary.Pending,
		Waiting:     summary.Waiting,
		Served:      summary.Served,
		CapturedAt:  now,
	}
}

// WindowStart truncates t to the start of its enclosing window in t's own
// location. window must divide an hour; other values fall back to
// DefaultSnapshotWindow.
func WindowStart(t time.Time, window time.Duration) time.Time {
	if !ValidWindow(window) {
		window = DefaultSnapshotWindow
	}
	step := int(window / time.Minute)
	minute := (t.Minute() / step) * step
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0, t.Location())
}

// ValidWindow reports whether window is a whole number of minutes dividing an hour.
func ValidWindow(window time.Duration) bool {
	if window < time.Minute || window > time.Hour || window%time.Minute != 0 {
		return false
	}
	return time.Hour%window == 0
}

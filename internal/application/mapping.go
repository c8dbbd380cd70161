package application

import (
	"fmt"
	"time"

	"github.com/example/ticket-queue/internal/persistence"
	"github.com/example/ticket-queue/internal/queue"
)

func entryFromRecord(record persistence.Entry, loc *time.Location) (queue.Entry, error) {
	status, err := queue.ParseStatus(record.Status)
	if err != nil {
		return queue.Entry{}, fmt.Errorf("entry %d: %w", record.ID, err)
	}
	entry := queue.Entry{
		ID:           record.ID,
		ServiceDate:  queue.Date(record.ServiceDate),
		TicketIndex:  record.TicketIndex,
		TicketNumber: record.TicketNumber,
		Name:         record.Name,
		Phone:        record.Phone,
		Status:       status,
		CreatedAt:    record.CreatedAt.In(loc),
		UpdatedAt:    record.UpdatedAt.In(loc),
	}
	if record.Birthday != nil {
		birthday := queue.Date(*record.Birthday)
		entry.Birthday = &birthday
	}
	return entry, nil
}

func entriesFromRecords(records []persistence.Entry, loc *time.Location) ([]queue.Entry, error) {
	entries := make([]queue.Entry, 0, len(records))
	for _, record := range records {
		entry, err := entryFromRecord(record, loc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func recordFromEntry(entry queue.Entry) persistence.Entry {
	record := persistence.Entry{
		ID:           entry.ID,
		ServiceDate:  entry.ServiceDate.String(),
		TicketIndex:  entry.TicketIndex,
		TicketNumber: entry.TicketNumber,
		Name:         entry.Name,
		Phone:        entry.Phone,
		Status:       string(entry.Status),
		CreatedAt:    entry.CreatedAt,
		UpdatedAt:    entry.UpdatedAt,
	}
	if entry.Birthday != nil {
		birthday := entry.Birthday.String()
		record.Birthday = &birthday
	}
	return record
}

func snapshotFromRecord(record persistence.Snapshot, loc *time.Location) queue.Snapshot {
	return queue.Snapshot{
		ServiceDate: queue.Date(record.ServiceDate),
		WindowStart: record.WindowStart.In(loc),
		Pending:     record.Pending,
		Waiting:     record.Waiting,
		Served:      record.Served,
		CapturedAt:  record.CapturedAt.In(loc),
	}
}

func recordFromSnapshot(snapshot queue.Snapshot) persistence.Snapshot {
	return persistence.Snapshot{
		ServiceDate: snapshot.ServiceDate.String(),
		WindowStart: snapshot.WindowStart,
		Pending:     snapshot.Pending,
		Waiting:     snapshot.Waiting,
		Served:      snapshot.Served,
		CapturedAt:  snapshot.CapturedAt,
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/ticket-queue/internal/persistence"
)

const timeLayout = time.RFC3339Nano

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements persistence.QueueTx against one *sql.Tx.
type queries struct {
	q querier
}

var _ persistence.QueueTx = (*queries)(nil)

// GetDay retrieves the registry row for a service date.
func (r *queries) GetDay(ctx context.Context, serviceDate string) (persistence.Day, error) {
	query := `
		SELECT service_date, started_at
		FROM queue_days
		WHERE service_date = ?
	`

	var (
		day       persistence.Day
		startedAt string
	)
	err := r.q.QueryRowContext(ctx, query, serviceDate).Scan(&day.ServiceDate, &startedAt)
	if err != nil {
		return persistence.Day{}, mapError(err)
	}

	if day.StartedAt, err = parseTime(startedAt); err != nil {
		return persistence.Day{}, err
	}
	return day, nil
}

// InsertDay registers a service date. An existing row yields persistence.ErrDuplicate.
func (r *queries) InsertDay(ctx context.Context, day persistence.Day) error {
	query := `
		INSERT INTO queue_days (service_date, started_at)
		VALUES (?, ?)
	`
	if _, err := r.q.ExecContext(ctx, query, day.ServiceDate, formatTime(day.StartedAt)); err != nil {
		return mapError(err)
	}
	return nil
}

// DeleteDay removes a service date and, by cascade, its snapshots.
func (r *queries) DeleteDay(ctx context.Context, serviceDate string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM queue_days WHERE service_date = ?`, serviceDate)
	if err != nil {
		return mapError(err)
	}
	return requireRow(result)
}

// CountEntries returns the number of tickets issued for a service date.
func (r *queries) CountEntries(ctx context.Context, serviceDate string) (int, error) {
	var count int
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue_entries WHERE service_date = ?`, serviceDate).Scan(&count)
	if err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// MaxTicketIndex returns the highest issued ticket index, or zero.
func (r *queries) MaxTicketIndex(ctx context.Context, serviceDate string) (int, error) {
	var highest int
	err := r.q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(ticket_index), 0) FROM queue_entries WHERE service_date = ?`,
		serviceDate,
	).Scan(&highest)
	if err != nil {
		return 0, mapError(err)
	}
	return highest, nil
}

// InsertEntry stores a new ticket and returns it with its row ID.
func (r *queries) InsertEntry(ctx context.Context, entry persistence.Entry) (persistence.Entry, error) {
	query := `
		INSERT INTO queue_entries (
			service_date, ticket_index, ticket_number, name, phone, birthday,
			status, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.q.ExecContext(ctx, query,
		entry.ServiceDate,
		entry.TicketIndex,
		entry.TicketNumber,
		entry.Name,
		entry.Phone,
		nullableString(entry.Birthday),
		entry.Status,
		formatTime(entry.CreatedAt),
		formatTime(entry.UpdatedAt),
	)
	if err != nil {
		return persistence.Entry{}, mapError(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return persistence.Entry{}, fmt.Errorf("sqlite: read inserted id: %w", err)
	}
	entry.ID = id
	return entry, nil
}

// GetEntry retrieves a ticket by ID.
func (r *queries) GetEntry(ctx context.Context, id int64) (persistence.Entry, error) {
	query := selectEntryColumns + ` WHERE id = ?`
	entry, err := scanEntry(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return persistence.Entry{}, err
	}
	return entry, nil
}

// UpdateEntryDetails rewrites the customer fields of a ticket.
func (r *queries) UpdateEntryDetails(ctx context.Context, entry persistence.Entry) error {
	query := `
		UPDATE queue_entries
		SET name = ?, phone = ?, birthday = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.q.ExecContext(ctx, query,
		entry.Name,
		entry.Phone,
		nullableString(entry.Birthday),
		formatTime(entry.UpdatedAt),
		entry.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return requireRow(result)
}

// UpdateEntryStatus moves a ticket to status.
func (r *queries) UpdateEntryStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error {
	query := `
		UPDATE queue_entries
		SET status = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.q.ExecContext(ctx, query, status, formatTime(updatedAt), id)
	if err != nil {
		return mapError(err)
	}
	return requireRow(result)
}

// ListEntries returns the tickets of one service date ordered by index.
func (r *queries) ListEntries(ctx context.Context, filter persistence.EntryFilter) ([]persistence.Entry, error) {
	var (
		builder strings.Builder
		args    = []any{filter.ServiceDate}
	)
	builder.WriteString(selectEntryColumns)
	builder.WriteString(` WHERE service_date = ?`)
	if filter.Status != "" {
		builder.WriteString(` AND status = ?`)
		args = append(args, filter.Status)
	}
	if filter.Descending {
		builder.WriteString(` ORDER BY ticket_index DESC`)
	} else {
		builder.WriteString(` ORDER BY ticket_index ASC`)
	}
	if filter.Limit > 0 {
		builder.WriteString(` LIMIT ?`)
		args = append(args, filter.Limit)
	}

	rows, err := r.q.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	entries := make([]persistence.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

// UpsertSnapshot inserts the window row or overwrites its counts.
func (r *queries) UpsertSnapshot(ctx context.Context, snapshot persistence.Snapshot) error {
	query := `
		INSERT INTO load_snapshots (
			service_date, window_start, pending_count, waiting_count, served_count, captured_at
		)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (service_date, window_start) DO UPDATE SET
			pending_count = excluded.pending_count,
			waiting_count = excluded.waiting_count,
			served_count = excluded.served_count,
			captured_at = excluded.captured_at
	`
	_, err := r.q.ExecContext(ctx, query,
		snapshot.ServiceDate,
		formatTime(snapshot.WindowStart),
		snapshot.Pending,
		snapshot.Waiting,
		snapshot.Served,
		formatTime(snapshot.CapturedAt),
	)
	return mapError(err)
}

// ListSnapshots returns the load history of a service date, oldest window first.
func (r *queries) ListSnapshots(ctx context.Context, serviceDate string) ([]persistence.Snapshot, error) {
	query := `
		SELECT service_date, window_start, pending_count, waiting_count, served_count, captured_at
		FROM load_snapshots
		WHERE service_date = ?
		ORDER BY window_start ASC
	`
	rows, err := r.q.QueryContext(ctx, query, serviceDate)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	snapshots := make([]persistence.Snapshot, 0)
	for rows.Next() {
		var (
			snapshot                persistence.Snapshot
			windowStart, capturedAt string
		)
		if err := rows.Scan(
			&snapshot.ServiceDate,
			&windowStart,
			&snapshot.Pending,
			&snapshot.Waiting,
			&snapshot.Served,
			&capturedAt,
		); err != nil {
			return nil, mapError(err)
		}
		if snapshot.WindowStart, err = parseTime(windowStart); err != nil {
			return nil, err
		}
		if snapshot.CapturedAt, err = parseTime(capturedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return snapshots, nil
}

const selectEntryColumns = `
		SELECT id, service_date, ticket_index, ticket_number, name, phone, birthday,
			status, created_at, updated_at
		FROM queue_entries`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (persistence.Entry, error) {
	var (
		entry                persistence.Entry
		birthday             sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&entry.ID,
		&entry.ServiceDate,
		&entry.TicketIndex,
		&entry.TicketNumber,
		&entry.Name,
		&entry.Phone,
		&birthday,
		&entry.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Entry{}, mapError(err)
	}

	if birthday.Valid {
		value := birthday.String
		entry.Birthday = &value
	}
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Entry{}, err
	}
	if entry.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Entry{}, err
	}
	return entry, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, errors.Join(persistence.ErrConstraintViolation, fmt.Errorf("sqlite: malformed timestamp %q: %w", value, err))
	}
	return t, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/ticket-queue/internal/persistence"
	"github.com/example/ticket-queue/internal/queue"
)

const (
	queueServiceName = "QueueService"
	tracerName       = "github.com/example/ticket-queue/internal/application"
)

// QueueServiceDeps captures the collaborators of a QueueService.
type QueueServiceDeps struct {
	Store persistence.QueueStore
	// Now defaults to time.Now.
	Now func() time.Time
	// Location decides what "today" means. Defaults to UTC.
	Location *time.Location
	// SnapshotWindow defaults to queue.DefaultSnapshotWindow.
	SnapshotWindow time.Duration
	Logger         *slog.Logger
	// Tracer defaults to the global OpenTelemetry provider.
	Tracer trace.Tracer
}

// QueueService runs the day registry, ticket sequencer, state machine and
// load snapshots against one transactional store. Every mutating operation
// runs in a single transaction and is serialized per service date.
type QueueService struct {
	store  persistence.QueueStore
	now    func() time.Time
	loc    *time.Location
	window time.Duration
	logger *slog.Logger
	tracer trace.Tracer
	locks  *dateLocks
}

// NewQueueService constructs a queue service with the provided dependencies.
func NewQueueService(deps QueueServiceDeps) *QueueService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if !queue.ValidWindow(deps.SnapshotWindow) {
		deps.SnapshotWindow = queue.DefaultSnapshotWindow
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer(tracerName)
	}
	return &QueueService{
		store:  deps.Store,
		now:    deps.Now,
		loc:    deps.Location,
		window: deps.SnapshotWindow,
		logger: defaultLogger(deps.Logger),
		tracer: deps.Tracer,
		locks:  newDateLocks(),
	}
}

func (s *QueueService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, queueServiceName, operation, attrs...)
}

func (s *QueueService) startSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, queueServiceName+"."+operation, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrorKind(err))
	}
	span.End()
}

// logOutcome logs a finished operation. Caller mistakes are warnings; only
// internal failures are errors.
func logOutcome(ctx context.Context, logger *slog.Logger, err error, success string, attrs ...any) {
	if err == nil {
		logger.InfoContext(ctx, success, attrs...)
		return
	}
	level := slog.LevelWarn
	if ErrorCategory(err) == CategoryInternal {
		level = slog.LevelError
	}
	logger.Log(ctx, level, "operation failed", "error", err, "error_kind", ErrorKind(err))
}

func (s *QueueService) clock() time.Time {
	return s.now().In(s.loc)
}

// Today returns the current service date in the configured location.
func (s *QueueService) Today() queue.Date {
	return queue.DateOf(s.clock())
}

func (s *QueueService) resolveDate(value string) (queue.Date, error) {
	date, err := queue.ResolveDate(value, s.clock())
	if err != nil {
		return "", fmt.Errorf("%w: %s %q", ErrInvalidDate, fieldServiceDate, value)
	}
	return date, nil
}

// Ping reports whether the backing store is reachable.
func (s *QueueService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// OpenDay registers a service date. An existing day is only recreated when
// overwrite is requested and no ticket has been issued for it.
func (s *QueueService) OpenDay(ctx context.Context, params OpenDayParams) (day Day, err error) {
	if s == nil {
		err = fmt.Errorf("QueueService is nil")
		return
	}

	ctx, span := s.startSpan(ctx, "OpenDay", attribute.Bool("queue.overwrite", params.Overwrite))
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "OpenDay",
		"service_date", params.ServiceDate,
		"overwrite", params.Overwrite,
	)
	defer func() {
		logOutcome(ctx, logger, err, "service day opened",
			"started_at", day.StartedAt,
			"reset", day.Reset,
		)
	}()

	var date queue.Date
	date, err = s.resolveDate(params.ServiceDate)
	if err != nil {
		return
	}
	span.SetAttributes(attribute.String("queue.service_date", date.String()))
	logger = logger.With("service_date", date.String())

	unlock := s.locks.lock(date)
	defer unlock()

	now := s.clock()
	reset := false
	err = s.store.WithinTx(ctx, func(tx persistence.QueueTx) error {
		_, getErr := tx.GetDay(ctx, date.String())
		switch {
		case errors.Is(getErr, persistence.ErrNotFound):
			return tx.InsertDay(ctx, persistence.Day{ServiceDate: date.String(), StartedAt: now})
		case getErr != nil:
			return getErr
		}

		if !params.Overwrite {
			return ErrDayAlreadyStarted
		}

		count, countErr := tx.CountEntries(ctx, date.String())
		if countErr != nil {
			return countErr
		}
		if count > 0 {
			return fmt.Errorf("%w: %d tickets issued", ErrDayActiveCannotReset, count)
		}

		if delErr := tx.DeleteDay(ctx, date.String()); delErr != nil {
			return delErr
		}
		reset = true
		return tx.InsertDay(ctx, persistence.Day{ServiceDate: date.String(), StartedAt: now})
	})
	if err != nil {
		if errors.Is(err, persistence.ErrDuplicate) {
			err = ErrDayAlreadyStarted
			return
		}
		err = wrapStoreError("open day", err)
		return
	}

	day = Day{ServiceDate: date, StartedAt: now, Reset: reset}
	return
}

// IssueTicket validates the customer fields, opens the day implicitly when
// needed and appends a waiting ticket with the next index.
func (s *QueueService) IssueTicket(ctx context.Context, params IssueTicketParams) (entry queue.Entry, err error) {
	if s == nil {
		err = fmt.Errorf("QueueService is nil")
		return
	}

	ctx, span := s.startSpan(ctx, "IssueTicket")
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "IssueTicket", "service_date", params.ServiceDate)
	defer func() {
		logOutcome(ctx, logger, err, "ticket issued",
			"entry_id", entry.ID,
			"ticket_number", entry.TicketNumber,
		)
	}()

	var date queue.Date
	date, err = s.resolveDate(params.ServiceDate)
	if err != nil {
		return
	}
	span.SetAttributes(attribute.String("queue.service_date", date.String()))
	logger = logger.With("service_date", date.String())

	now := s.clock()
	vErr := &ValidationError{}
	name := validateName(vErr, params.Name)
	phoneNumber := validatePhone(vErr, params.Phone)
	var birthday *queue.Date
	if params.Birthday != nil {
		birthday = validateBirthday(vErr, *params.Birthday, queue.DateOf(now))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	unlock := s.locks.lock(date)
	defer unlock()

	err = s.store.WithinTx(ctx, func(tx persistence.QueueTx) error {
		if dayErr := ensureDay(ctx, tx, date, now); dayErr != nil {
			return dayErr
		}

		highest, maxErr := tx.MaxTicketIndex(ctx, date.String())
		if maxErr != nil {
			return maxErr
		}
		index, seqErr := queue.NextIndex(highest)
		if seqErr != nil {
			return fmt.Errorf("%w: %d tickets issued for %s", ErrQueueFull, highest, date)
		}

		record, insertErr := tx.InsertEntry(ctx, recordFromEntry(queue.Entry{
			ServiceDate:  date,
			TicketIndex:  index,
			TicketNumber: queue.TicketCode(index),
			Name:         name,
			Phone:        phoneNumber,
			Birthday:     birthday,
			Status:       queue.StatusWaiting,
			CreatedAt:    now,
			UpdatedAt:    now,
		}))
		if insertErr != nil {
			if errors.Is(insertErr, persistence.ErrDuplicate) {
				return fmt.Errorf("%w: ticket %s on %s", ErrDuplicateTicket, queue.TicketCode(index), date)
			}
			return insertErr
		}

		issued, mapErr := entryFromRecord(record, s.loc)
		if mapErr != nil {
			return mapErr
		}
		entry = issued
		return s.recordSnapshot(ctx, tx, date, now)
	})
	if err != nil {
		entry = queue.Entry{}
		err = wrapStoreError("issue ticket", err)
		return
	}
	return
}

// EditTicket corrects the customer fields of a ticket issued today.
func (s *QueueService) EditTicket(ctx context.Context, params EditTicketParams) (entry queue.Entry, err error) {
	if s == nil {
		err = fmt.Errorf("QueueService is nil")
		return
	}

	ctx, span := s.startSpan(ctx, "EditTicket", attribute.Int64("queue.entry_id", params.EntryID))
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "EditTicket", "entry_id", params.EntryID)
	defer func() {
		logOutcome(ctx, logger, err, "ticket updated",
			"service_date", entry.ServiceDate,
			"ticket_number", entry.TicketNumber,
		)
	}()

	now := s.clock()
	today := queue.DateOf(now)

	vErr := &ValidationError{}
	var name, phoneNumber string
	if params.Name != nil {
		name = validateName(vErr, *params.Name)
	}
	if params.Phone != nil {
		phoneNumber = validatePhone(vErr, *params.Phone)
	}
	var birthday *queue.Date
	if params.Birthday != nil {
		birthday = validateBirthday(vErr, *params.Birthday, today)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	unlock := s.locks.lock(today)
	defer unlock()

	err = s.store.WithinTx(ctx, func(tx persistence.QueueTx) error {
		record, getErr := tx.GetEntry(ctx, params.EntryID)
		if errors.Is(getErr, persistence.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrEntryNotFound, params.EntryID)
		}
		if getErr != nil {
			return getErr
		}

		current, mapErr := entryFromRecord(record, s.loc)
		if mapErr != nil {
			return mapErr
		}
		if current.ServiceDate != today {
			return fmt.Errorf("%w: ticket %s belongs to %s", ErrEditWindowClosed, current.TicketNumber, current.ServiceDate)
		}

		if params.Name != nil {
			current.Name = name
		}
		if params.Phone != nil {
			current.Phone = phoneNumber
		}
		if params.Birthday != nil {
			current.Birthday = birthday
		}
		current.UpdatedAt = now

		if updErr := tx.UpdateEntryDetails(ctx, recordFromEntry(current)); updErr != nil {
			return updErr
		}
		entry = current
		return s.recordSnapshot(ctx, tx, today, now)
	})
	if err != nil {
		entry = queue.Entry{}
		err = wrapStoreError("edit ticket", err)
		return
	}
	return
}

// ListTickets returns every ticket of a service date ordered by index.
func (s *QueueService) ListTickets(ctx context.Context, serviceDate string) (list TicketList, err error) {
	if s == nil {
		err = fmt.Errorf("QueueService is nil")
		return
	}

	ctx, span := s.startSpan(ctx, "ListTickets")
	defer func() { endSpan(span, err) }()

	var date queue.Date
	date, err = s.resolveDate(serviceDate)
	if err != nil {
		return
	}
	span.SetAttributes(attribute.String("queue.service_date", date.String()))

	err = s.store.ReadTx(ctx, func(r persistence.QueueReader) error {
		entries, loadErr := s.loadEntries(ctx, r, date)
		if loadErr != nil {
			return loadErr
		}
		list = TicketList{ServiceDate: date, Entries: entries}
		return nil
	})
	if err != nil {
		err = wrapStoreError("list tickets", err)
		return
	}

	s.loggerWith(ctx, "ListTickets", "service_date", date.String()).
		DebugContext(ctx, "tickets listed", "count", len(list.Entries))
	return
}

// CallNext serves the active ticket and dispatches the next waiting one.
func (s *QueueService) CallNext(ctx context.Context, serviceDate string) (result CallNextResult, err error) {
	if s == nil {
		err = fmt.Errorf("QueueService is nil")
		return
	}

	ctx, span := s.startSpan(ctx, "CallNext")
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "CallNext", "service_date", serviceDate)
	defer func() {
		attrs := []any{"queue_empty", result.QueueEmpty}
		if result.Active != nil {
			attrs = append(attrs, "active_ticket", result.Active.TicketNumber)
		}
		if result.Served != nil {
			attrs = append(attrs, "served_ticket", result.Served.TicketNumber)
		}
		logOutcome(ctx, logger, err, "queue advanced", attrs...)
	}()

	var date queue.Date
	date, err = s.resolveDate(serviceDate)
	if err != nil {
		return
	}
	span.SetAttributes(attribute.String("queue.service_date", date.String()))
	logger = logger.With("service_date", date.String())

	unlock := s.locks.lock(date)
	defer unlock()

	now := s.clock()
	err = s.store.WithinTx(ctx, func(tx persistence.QueueTx) error {
		result = CallNextResult{ServiceDate: date, QueueEmpty: true}

		if _, dayErr := tx.GetDay(ctx, date.String()); dayErr != nil {
			if errors.Is(dayErr, persistence.ErrNotFound) {
				return nil
			}
			return dayErr
		}

		entries, loadErr := s.loadEntries(ctx, tx, date)
		if loadErr != nil {
			return loadErr
		}

		plan, planErr := queue.PlanCallNext(entries)
		if planErr != nil {
			return planErr
		}
		if applyErr := applyChanges(ctx, tx, plan.Changes, now); applyErr != nil {
			return applyErr
		}

		result.Served = touch(plan.Served, now)
		result.Active = touch(plan.Activated, now)
		result.QueueEmpty = plan.QueueEmpty()
		return s.recordSnapshot(ctx, tx, date, now)
	})
	if err != nil {
		result = CallNextResult{}
		err = wrapStoreError("call next", err)
		return
	}
	return
}

// CallPrevious reactivates the most recently served ticket and returns the
// active one, if any, to the waiting pool.
func (s *QueueService) CallPrevious(ctx context.Context, serviceDate string) (result CallPreviousResult, err error) {
	if s == nil {
		err = fmt.Errorf("QueueService is nil")
		return
	}

	ctx, span := s.startSpan(ctx, "CallPrevious")
	defer func() { endSpan(span, err) }()

	logger := s.loggerWith(ctx, "CallPrevious", "service_date", serviceDate)
	defer func() {
		var attrs []any
		if result.Active != nil {
			attrs = append(attrs, "active_ticket", result.Active.TicketNumber)
		}
		if result.Recalled != nil {
			attrs = append(attrs, "recalled_ticket", result.Recalled.TicketNumber)
		}
		logOutcome(ctx, logger, err, "queue rolled back", attrs...)
	}()

	var date queue.Date
	date, err = s.resolveDate(serviceDate)
	if err != nil {
		return
	}
	span.SetAttributes(attribute.String("queue.service_date", date.String()))
	logger = logger.With("service_date", date.String())

	unlock := s.locks.lock(date)
	defer unlock()

	now := s.clock()
	err = s.store.WithinTx(ctx, func(tx persistence.QueueTx) error {
		latest, listErr := tx.ListEntries(ctx, persistence.EntryFilter{
			ServiceDate: date.String(),
			Status:      string(queue.StatusServed),
			Descending:  true,
			Limit:       1,
		})
		if listErr != nil {
			return listErr
		}
		if len(latest) == 0 {
			return fmt.Errorf("%w on %s", ErrNoPreviousEntry, date)
		}

		entries, loadErr := s.loadEntries(ctx, tx, date)
		if loadErr != nil {
			return loadErr
		}

		plan, planErr := queue.PlanCallPrevious(entries)
		if errors.Is(planErr, queue.ErrNoPreviousEntry) {
			return fmt.Errorf("%w on %s", ErrNoPreviousEntry, date)
		}
		if planErr != nil {
			return planErr
		}
		if applyErr := applyChanges(ctx, tx, plan.Changes, now); applyErr != nil {
			return applyErr
		}

		result = CallPreviousResult{
			ServiceDate: date,
			Active:      touch(plan.Restored, now),
			Recalled:    touch(plan.Recalled, now),
		}
		return s.recordSnapshot(ctx, tx, date, now)
	})
	if err != nil {
		result = CallPreviousResult{}
		err = wrapStoreError("call previous", err)
		return
	}
	return
}

// Summarize returns the active ticket, the next waiting ticket and the counts
// of a service date.
func (s *QueueService) Summarize(ctx context.Context, serviceDate string) (summary queue.Summary, err error) {
	display, err := s.GetDisplaySummary(ctx, serviceDate)
	if err != nil {
		return queue.Summary{}, err
	}
	return display.Summary, nil
}

// GetDisplaySummary returns the summary, the ordered tickets and the load
// history of a service date, all read from one snapshot of the store.
func (s *QueueService) GetDisplaySummary(ctx context.Context, serviceDate string) (display Display, err error) {
	if s == nil {
		err = fmt.Errorf("QueueService is nil")
		return
	}

	ctx, span := s.startSpan(ctx, "GetDisplaySummary")
	defer func() { endSpan(span, err) }()

	var date queue.Date
	date, err = s.resolveDate(serviceDate)
	if err != nil {
		return
	}
	span.SetAttributes(attribute.String("queue.service_date", date.String()))

	err = s.store.ReadTx(ctx, func(r persistence.QueueReader) error {
		entries, loadErr := s.loadEntries(ctx, r, date)
		if loadErr != nil {
			return loadErr
		}
		history, histErr := s.loadHistory(ctx, r, date)
		if histErr != nil {
			return histErr
		}
		display = Display{
			Summary: queue.Summarize(date, entries),
			Entries: entries,
			History: history,
		}
		return nil
	})
	if err != nil {
		display = Display{}
		err = wrapStoreError("display summary", err)
		return
	}

	s.loggerWith(ctx, "GetDisplaySummary", "service_date", date.String()).
		DebugContext(ctx, "display summary computed", "pending", display.Summary.Pending)
	return
}

// GetTicker returns the simplified now-serving payload of a service date.
func (s *QueueService) GetTicker(ctx context.Context, serviceDate string) (Ticker, error) {
	summary, err := s.Summarize(ctx, serviceDate)
	if err != nil {
		return Ticker{}, err
	}
	return NewTicker(summary), nil
}

// GetLoadHistory returns the load snapshots of a service date.
func (s *QueueService) GetLoadHistory(ctx context.Context, serviceDate string) (history LoadHistory, err error) {
	if s == nil {
		err = fmt.Errorf("QueueService is nil")
		return
	}

	ctx, span := s.startSpan(ctx, "GetLoadHistory")
	defer func() { endSpan(span, err) }()

	var date queue.Date
	date, err = s.resolveDate(serviceDate)
	if err != nil {
		return
	}
	span.SetAttributes(attribute.String("queue.service_date", date.String()))

	err = s.store.ReadTx(ctx, func(r persistence.QueueReader) error {
		snapshots, loadErr := s.loadHistory(ctx, r, date)
		if loadErr != nil {
			return loadErr
		}
		history = LoadHistory{ServiceDate: date, Snapshots: snapshots}
		return nil
	})
	if err != nil {
		history = LoadHistory{}
		err = wrapStoreError("load history", err)
		return
	}
	return
}

func (s *QueueService) loadEntries(ctx context.Context, r persistence.QueueReader, date queue.Date) ([]queue.Entry, error) {
	records, err := r.ListEntries(ctx, persistence.EntryFilter{ServiceDate: date.String()})
	if err != nil {
		return nil, err
	}
	return entriesFromRecords(records, s.loc)
}

func (s *QueueService) loadHistory(ctx context.Context, r persistence.QueueReader, date queue.Date) ([]queue.Snapshot, error) {
	records, err := r.ListSnapshots(ctx, date.String())
	if err != nil {
		return nil, err
	}
	snapshots := make([]queue.Snapshot, 0, len(records))
	for _, record := range records {
		snapshots = append(snapshots, snapshotFromRecord(record, s.loc))
	}
	return snapshots, nil
}

// recordSnapshot upserts the load aggregate of date into the window enclosing now.
func (s *QueueService) recordSnapshot(ctx context.Context, tx persistence.QueueTx, date queue.Date, now time.Time) error {
	entries, err := s.loadEntries(ctx, tx, date)
	if err != nil {
		return err
	}
	snapshot := queue.NewSnapshot(queue.Summarize(date, entries), now, s.window)
	return tx.UpsertSnapshot(ctx, recordFromSnapshot(snapshot))
}

func ensureDay(ctx context.Context, tx persistence.QueueTx, date queue.Date, now time.Time) error {
	_, err := tx.GetDay(ctx, date.String())
	if errors.Is(err, persistence.ErrNotFound) {
		return tx.InsertDay(ctx, persistence.Day{ServiceDate: date.String(), StartedAt: now})
	}
	return err
}

// applyChanges writes plan changes in order; plans put demotions first.
// A change outside the status machine aborts the transaction before any write.
func applyChanges(ctx context.Context, tx persistence.QueueTx, changes []queue.Change, now time.Time) error {
	for _, change := range changes {
		if !queue.ValidTransition(change.From, change.To) {
			return fmt.Errorf("%s entry %d: %w: %s -> %s", change.Action, change.EntryID, errIllegalTransition, change.From, change.To)
		}
	}
	for _, change := range changes {
		if err := tx.UpdateEntryStatus(ctx, change.EntryID, string(change.To), now); err != nil {
			return fmt.Errorf("%s entry %d: %w", change.Action, change.EntryID, err)
		}
	}
	return nil
}

func touch(entry *queue.Entry, now time.Time) *queue.Entry {
	if entry != nil {
		entry.UpdatedAt = now
	}
	return entry
}

// wrapStoreError leaves domain errors untouched and annotates storage failures.
func wrapStoreError(operation string, err error) error {
	if ErrorCategory(err) != CategoryInternal {
		return err
	}
	return fmt.Errorf("%s: %w", operation, err)
}

package application_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/ticket-queue/internal/application"
	"github.com/example/ticket-queue/internal/queue"
	"github.com/example/ticket-queue/internal/testfixtures"
)

func TestQueueServiceOnSQLite(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	factory := testfixtures.NewServiceFactory()
	svc := factory.NewQueueService(testfixtures.QueueServiceDeps{Store: harness.Store})
	ctx := context.Background()

	if _, err := svc.OpenDay(ctx, application.OpenDayParams{ServiceDate: testfixtures.ReferenceDate.String()}); err != nil {
		t.Fatalf("OpenDay returned error: %v", err)
	}
	for i, name := range []string{"Alice", "Bob", "Cyrus"} {
		entry, err := svc.IssueTicket(ctx, application.IssueTicketParams{Name: name, Phone: testfixtures.PhoneNumber(i + 1)})
		if err != nil {
			t.Fatalf("IssueTicket(%s) returned error: %v", name, err)
		}
		if entry.TicketIndex != i+1 {
			t.Fatalf("expected index %d, got %d", i+1, entry.TicketIndex)
		}
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.CallNext(ctx, ""); err != nil {
			t.Fatalf("CallNext returned error: %v", err)
		}
	}
	prev, err := svc.CallPrevious(ctx, "")
	if err != nil {
		t.Fatalf("CallPrevious returned error: %v", err)
	}
	if prev.Active == nil || prev.Active.TicketNumber != "001" {
		t.Fatalf("expected 001 restored, got %+v", prev.Active)
	}

	factory.Clock.Advance(45 * time.Minute)
	next, err := svc.CallNext(ctx, "")
	if err != nil {
		t.Fatalf("CallNext returned error: %v", err)
	}
	if next.Active == nil || next.Active.TicketNumber != "002" {
		t.Fatalf("expected 002 dispatched, got %+v", next.Active)
	}

	display, err := svc.GetDisplaySummary(ctx, "")
	if err != nil {
		t.Fatalf("GetDisplaySummary returned error: %v", err)
	}
	if display.Summary.Served != 1 || display.Summary.Waiting != 1 || display.Summary.Pending != 2 {
		t.Fatalf("unexpected summary %+v", display.Summary)
	}
	if len(display.History) != 2 {
		t.Fatalf("expected two snapshot windows, got %d", len(display.History))
	}
	if display.History[0].WindowStart.Location() != testfixtures.Tehran {
		t.Fatalf("history should be reported in the service zone")
	}

	_, err = svc.OpenDay(ctx, application.OpenDayParams{Overwrite: true})
	if !errors.Is(err, application.ErrDayActiveCannotReset) {
		t.Fatalf("expected ErrDayActiveCannotReset, got %v", err)
	}

	list, err := svc.ListTickets(ctx, "")
	if err != nil {
		t.Fatalf("ListTickets returned error: %v", err)
	}
	wantStatuses := []queue.Status{queue.StatusServed, queue.StatusActive, queue.StatusWaiting}
	for i, entry := range list.Entries {
		if entry.Status != wantStatuses[i] {
			t.Fatalf("ticket %s: expected %s, got %s", entry.TicketNumber, wantStatuses[i], entry.Status)
		}
	}
}

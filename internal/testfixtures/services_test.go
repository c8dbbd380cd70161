package testfixtures

import (
	"context"
	"testing"

	"github.com/example/ticket-queue/internal/application"
)

func TestServiceFactoryNewQueueService(t *testing.T) {
	factory := NewServiceFactory()

	svc := factory.NewQueueService(QueueServiceDeps{})
	if got := svc.Today(); got != ReferenceDate {
		t.Fatalf("expected today %s, got %s", ReferenceDate, got)
	}

	entry, err := svc.IssueTicket(context.Background(), application.IssueTicketParams{
		Name:  "Sara",
		Phone: PhoneNumber(1),
	})
	if err != nil {
		t.Fatalf("IssueTicket returned error: %v", err)
	}
	if entry.TicketNumber != "001" {
		t.Fatalf("expected ticket 001, got %q", entry.TicketNumber)
	}
	if !entry.CreatedAt.Equal(factory.Clock.Now()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Now(), entry.CreatedAt)
	}
	if entry.CreatedAt.Location() != Tehran {
		t.Fatalf("expected Tehran timestamps, got %v", entry.CreatedAt.Location())
	}
}

func TestServiceFactoryFollowsClock(t *testing.T) {
	clock := NewClock(ReferenceTime())
	factory := NewServiceFactory(WithClock(clock))
	svc := factory.NewQueueService(QueueServiceDeps{})

	clock.NextDay()
	if got := svc.Today(); got != clock.ServiceDate() || got != "2024-05-02" {
		t.Fatalf("expected service date to follow the clock, got %s", got)
	}
}

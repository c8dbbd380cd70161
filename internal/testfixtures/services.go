package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/ticket-queue/internal/application"
	"github.com/example/ticket-queue/internal/persistence"
	"github.com/example/ticket-queue/internal/persistence/memory"
	"github.com/example/ticket-queue/internal/queue"
)

// ServiceFactory assists tests with constructing application services using
// a deterministic clock and service time zone.
type ServiceFactory struct {
	Clock    *Clock
	Location *time.Location
	Window   time.Duration
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:    NewClock(time.Time{}),
		Location: Tehran,
		Window:   queue.DefaultSnapshotWindow,
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.Location == nil {
		factory.Location = Tehran
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithLocation overrides the service time zone.
func WithLocation(loc *time.Location) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Location = loc
	}
}

// WithSnapshotWindow overrides the load snapshot window width.
func WithSnapshotWindow(window time.Duration) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Window = window
	}
}

// QueueServiceDeps captures dependencies for constructing a queue service.
// A nil Store falls back to a fresh in-memory store.
type QueueServiceDeps struct {
	Store  persistence.QueueStore
	Now    func() time.Time
	Logger *slog.Logger
}

// NewQueueService builds a queue service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewQueueService(deps QueueServiceDeps) *application.QueueService {
	store := deps.Store
	if store == nil {
		store = memory.New()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewQueueService(application.QueueServiceDeps{
		Store:          store,
		Now:            now,
		Location:       f.Location,
		SnapshotWindow: f.Window,
		Logger:         deps.Logger,
	})
}

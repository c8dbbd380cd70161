package testfixtures

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/example/ticket-queue/internal/persistence"
	"github.com/example/ticket-queue/internal/queue"
)

// Tehran is the service time zone used across fixtures.
var Tehran = mustLoadLocation("Asia/Tehran")

// ReferenceDate is the service date that ReferenceTime falls on.
const ReferenceDate queue.Date = "2024-05-01"

var referenceTime = time.Date(2024, time.May, 1, 9, 10, 0, 0, Tehran)

// ReferenceTime returns the canonical baseline timestamp used by fixtures:
// 2024-05-01 09:10 Tehran time.
func ReferenceTime() time.Time {
	return referenceTime
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: load location %s: %v", name, err))
	}
	return loc
}

// ----------------------------- Entry fixtures -----------------------------

// EntryFixture is a deterministic queue ticket that can be materialised for
// domain or persistence tests.
type EntryFixture struct {
	ID          int64
	ServiceDate queue.Date
	Index       int
	Name        string
	Phone       string
	Birthday    *queue.Date
	Status      queue.Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EntryOption configures the generated entry fixture.
type EntryOption func(*EntryFixture)

// NewEntryFixture returns ticket 001 of ReferenceDate, waiting, unless overridden.
func NewEntryFixture(opts ...EntryOption) EntryFixture {
	fixture := EntryFixture{
		ServiceDate: ReferenceDate,
		Index:       1,
		Status:      queue.StatusWaiting,
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	if fixture.Name == "" {
		fixture.Name = fmt.Sprintf("Customer %s", queue.TicketCode(fixture.Index))
	}
	if fixture.Phone == "" {
		fixture.Phone = PhoneNumber(fixture.Index)
	}
	return fixture
}

// WithEntryID sets the storage identifier.
func WithEntryID(id int64) EntryOption {
	return func(f *EntryFixture) {
		f.ID = id
	}
}

// WithEntryDate overrides the service date.
func WithEntryDate(date queue.Date) EntryOption {
	return func(f *EntryFixture) {
		f.ServiceDate = date
	}
}

// WithEntryIndex overrides the ticket index.
func WithEntryIndex(index int) EntryOption {
	return func(f *EntryFixture) {
		f.Index = index
	}
}

// WithEntryStatus overrides the status. Unknown values are kept verbatim so
// storage validation can be exercised.
func WithEntryStatus(status queue.Status) EntryOption {
	return func(f *EntryFixture) {
		f.Status = status
	}
}

// WithEntryCustomer sets the customer name and canonical phone.
func WithEntryCustomer(name, phone string) EntryOption {
	return func(f *EntryFixture) {
		f.Name = name
		f.Phone = phone
	}
}

// WithEntryBirthday sets the optional birth date.
func WithEntryBirthday(date queue.Date) EntryOption {
	return func(f *EntryFixture) {
		f.Birthday = &date
	}
}

// WithEntryTimestamps overrides the created and updated timestamps.
func WithEntryTimestamps(created, updated time.Time) EntryOption {
	return func(f *EntryFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Domain converts the fixture into a queue.Entry.
func (f EntryFixture) Domain() queue.Entry {
	entry := queue.Entry{
		ID:           f.ID,
		ServiceDate:  f.ServiceDate,
		TicketIndex:  f.Index,
		TicketNumber: queue.TicketCode(f.Index),
		Name:         f.Name,
		Phone:        f.Phone,
		Status:       f.Status,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
	if f.Birthday != nil {
		birthday := *f.Birthday
		entry.Birthday = &birthday
	}
	return entry
}

// Persistence converts the fixture into a persistence.Entry.
func (f EntryFixture) Persistence() persistence.Entry {
	entry := persistence.Entry{
		ID:           f.ID,
		ServiceDate:  f.ServiceDate.String(),
		TicketIndex:  f.Index,
		TicketNumber: queue.TicketCode(f.Index),
		Name:         f.Name,
		Phone:        f.Phone,
		Status:       string(f.Status),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
	if f.Birthday != nil {
		birthday := f.Birthday.String()
		entry.Birthday = &birthday
	}
	return entry
}

// PhoneNumber returns a distinct canonical mobile number for n.
func PhoneNumber(n int) string {
	return fmt.Sprintf("+98912%07d", n)
}

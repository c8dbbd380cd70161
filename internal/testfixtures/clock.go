package testfixtures

import (
	"sync"
	"time"

	"github.com/example/ticket-queue/internal/queue"
)

// Clock is a controllable time source for queue tests. It keeps the location
// it was started in, so ServiceDate follows the configured time zone.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock initialised to the supplied time. When start is the
// zero value, ReferenceTime is used.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the current instant tracked by the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc exposes Now as a function suitable for dependency injection.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set updates the clock to the provided time.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the updated time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}

// SetWallClock moves the clock to hour:minute on its current calendar day,
// in the clock's own location, and returns the new time.
func (c *Clock) SetWallClock(hour, minute int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	y, m, d := c.current.Date()
	c.current = time.Date(y, m, d, hour, minute, 0, 0, c.current.Location())
	return c.current
}

// ServiceDate returns the calendar date the clock currently reads.
func (c *Clock) ServiceDate() queue.Date {
	return queue.DateOf(c.Now())
}

// NextDay moves the clock to the same wall time on the following day.
func (c *Clock) NextDay() queue.Date {
	c.mu.Lock()
	c.current = c.current.AddDate(0, 0, 1)
	c.mu.Unlock()
	return c.ServiceDate()
}

package application

import (
	"sync"

	"github.com/example/ticket-queue/internal/queue"
)

// dateLocks serializes mutating operations per service date. Entries are
// reference counted and dropped once no caller holds or waits for them.
type dateLocks struct {
	mu    sync.Mutex
	locks map[queue.Date]*dateLock
}

type dateLock struct {
	mu   sync.Mutex
	refs int
}

func newDateLocks() *dateLocks {
	return &dateLocks{locks: make(map[queue.Date]*dateLock)}
}

// lock blocks until the caller owns date and returns the matching unlock.
func (l *dateLocks) lock(date queue.Date) func() {
	l.mu.Lock()
	entry, ok := l.locks[date]
	if !ok {
		entry = &dateLock{}
		l.locks[date] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, date)
		}
		l.mu.Unlock()
	}
}

func (l *dateLocks) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

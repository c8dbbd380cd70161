package queue

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPreviousEntry is returned by rollback when nothing has been served yet.
	ErrNoPreviousEntry = errors.New("queue: no previously served entry")
	// ErrMultipleActive signals storage holding more than one active entry for a day.
	ErrMultipleActive = errors.New("queue: more than one active entry")
)

// Change is a single status write produced by a plan. Changes must be applied
// in order: demotions always precede promotions.
type Change struct {
	EntryID int64
	Action  Action
	From    Status
	To      Status
}

// CallNextPlan describes the outcome of advancing the serving pointer.
type CallNextPlan struct {
	// Served is the previously active entry, now served. Nil when nothing was active.
	Served *Entry
	// Activated is the newly active entry. Nil when the queue is empty.
	Activated *Entry
	Changes   []Change
}

// QueueEmpty reports whether no waiting entry could be dispatched.
func (p CallNextPlan) QueueEmpty() bool {
	return p.Activated == nil
}

// RollbackPlan describes the outcome of moving the serving pointer back.
type RollbackPlan struct {
	// Restored is the most recently served entry, active again.
	Restored *Entry
	// Recalled is the entry that was active and is back in the waiting pool.
	Recalled *Entry
	Changes  []Change
}

// PlanCallNext serves the active entry, if any, and dispatches the lowest
// waiting ticket after it. When no waiting ticket follows the last served
// index the lowest waiting ticket overall is dispatched instead.
func PlanCallNext(entries []Entry) (CallNextPlan, error) {
	sorted := SortByIndex(entries)

	active, err := findActive(sorted)
	if err != nil {
		return CallNextPlan{}, err
	}

	var plan CallNextPlan
	lastIndex := 0
	if active != nil {
		change, err := newChange(*active, ActionServe)
		if err != nil {
			return CallNextPlan{}, err
		}
		plan.Changes = append(plan.Changes, change)
		plan.Served = cloneEntry(*active)
		plan.Served.Status = change.To
		lastIndex = active.TicketIndex
	} else if served := lastServed(sorted); served != nil {
		lastIndex = served.TicketIndex
	}

	next := nextWaiting(sorted, lastIndex)
	if next == nil {
		return plan, nil
	}

	change, err := newChange(*next, ActionDispatch)
	if err != nil {
		return CallNextPlan{}, err
	}
	plan.Changes = append(plan.Changes, change)
	plan.Activated = cloneEntry(*next)
	plan.Activated.Status = change.To
	return plan, nil
}

// PlanCallPrevious reactivates the highest served ticket and returns the
// currently active ticket, if any, to the waiting pool.
func PlanCallPrevious(entries []Entry) (RollbackPlan, error) {
	sorted := SortByIndex(entries)

	served := lastServed(sorted)
	if served == nil {
		return RollbackPlan{}, ErrNoPreviousEntry
	}

	active, err := findActive(sorted)
	if err != nil {
		return RollbackPlan{}, err
	}

	var plan RollbackPlan
	if active != nil {
		change, err := newChange(*active, ActionRecall)
		if err != nil {
			return RollbackPlan{}, err
		}
		plan.Changes = append(plan.Changes, change)
		plan.Recalled = cloneEntry(*active)
		plan.Recalled.Status = change.To
	}

	change, err := newChange(*served, ActionRestore)
	if err != nil {
		return RollbackPlan{}, err
	}
	plan.Changes = append(plan.Changes, change)
	plan.Restored = cloneEntry(*served)
	plan.Restored.Status = change.To
	return plan, nil
}

func newChange(entry Entry, action Action) (Change, error) {
	to, err := Apply(action, entry.Status)
	if err != nil {
		return Change{}, err
	}
	return Change{EntryID: entry.ID, Action: action, From: entry.Status, To: to}, nil
}

func findActive(sorted []Entry) (*Entry, error) {
	var active *Entry
	for i := range sorted {
		if sorted[i].Status != StatusActive {
			continue
		}
		if active != nil {
			return nil, fmt.Errorf("%w: tickets %s and %s", ErrMultipleActive, active.TicketNumber, sorted[i].TicketNumber)
		}
		active = &sorted[i]
	}
	return active, nil
}

// lastServed scans descending: the most recently served ticket wins.
func lastServed(sorted []Entry) *Entry {
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Status == StatusServed {
			return &sorted[i]
		}
	}
	return nil
}

func nextWaiting(sorted []Entry, lastIndex int) *Entry {
	var lowest *Entry
	for i := range sorted {
		if sorted[i].Status != StatusWaiting {
			continue
		}
		if lowest == nil {
			lowest = &sorted[i]
		}
		if sorted[i].TicketIndex > lastIndex {
			return &sorted[i]
		}
	}
	return lowest
}

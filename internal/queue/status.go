package queue

import "fmt"

// Status is the lifecycle state of a queue entry.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusActive  Status = "active"
	StatusServed  Status = "served"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusActive, StatusServed:
		return true
	}
	return false
}

// ParseStatus converts a stored status string.
func ParseStatus(value string) (Status, error) {
	status := Status(value)
	if !status.Valid() {
		return "", fmt.Errorf("queue: unknown status %q", value)
	}
	return status, nil
}

// Action names a state machine edge.
type Action string

const (
	// ActionDispatch promotes a waiting entry to active.
	ActionDispatch Action = "dispatch"
	// ActionServe retires the active entry once the next one is dispatched.
	ActionServe Action = "serve"
	// ActionRecall returns the active entry to the waiting pool during rollback.
	ActionRecall Action = "recall"
	// ActionRestore reactivates the most recently served entry during rollback.
	ActionRestore Action = "restore"
)

type edge struct {
	from Status
	to   Status
}

var transitionMap = map[Action]edge{
	ActionDispatch: {from: StatusWaiting, to: StatusActive},
	ActionServe:    {from: StatusActive, to: StatusServed},
	ActionRecall:   {from: StatusActive, to: StatusWaiting},
	ActionRestore:  {from: StatusServed, to: StatusActive},
}

// Apply returns the status reached by performing action on an entry in
// status from, or an error when the edge does not exist.
func Apply(action Action, from Status) (Status, error) {
	e, ok := transitionMap[action]
	if !ok {
		return "", fmt.Errorf("queue: unknown action %q", action)
	}
	if e.from != from {
		return "", fmt.Errorf("queue: cannot %s an entry that is %s", action, from)
	}
	return e.to, nil
}

// ValidTransition reports whether the state machine allows from -> to.
func ValidTransition(from, to Status) bool {
	for _, e := range transitionMap {
		if e.from == from && e.to == to {
			return true
		}
	}
	return false
}

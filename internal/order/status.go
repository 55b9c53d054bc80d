// Package order orchestrates the order-to-worker handoff workflow.
package order

import "time"

// Status is a stage in the order fulfillment workflow.
type Status string

const (
	// StatusPending indicates an open order awaiting payment.
	StatusPending Status = "pending"
	// StatusPaid indicates the ledger has been credited for the order.
	StatusPaid Status = "paid"
	// StatusWorkerRequested indicates a coordination thread is open and
	// awaiting a worker.
	StatusWorkerRequested Status = "worker_requested"
	// StatusAssigned indicates a worker has been bound to the order.
	StatusAssigned Status = "assigned"
)

// State captures the tracked workflow status for one order.
type State struct {
	TicketID  string    `json:"ticket_id"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// validTransitions contains the permitted workflow transitions.
var validTransitions = map[Status][]Status{
	StatusPending:         {StatusPaid},
	StatusPaid:            {StatusWorkerRequested},
	StatusWorkerRequested: {StatusAssigned},
}

// IsTransitionAllowed reports whether moving from one status to another is valid.
func IsTransitionAllowed(from, to Status) bool {
	for _, status := range validTransitions[from] {
		if status == to {
			return true
		}
	}

	return false
}

var transitionRecorder = func(from, to string) {}

// RegisterTransitionRecorder allows external packages to observe workflow
// transitions.
func RegisterTransitionRecorder(recorder func(from, to string)) {
	if recorder == nil {
		transitionRecorder = func(string, string) {}
		return
	}

	transitionRecorder = recorder
}

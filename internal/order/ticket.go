package order

import (
	"errors"
	"strings"
)

const (
	// ticketChannelPrefix names order channels: ticket-<N>.
	ticketChannelPrefix = "ticket-"
	// threadLabel prefixes coordination thread names: "Order Thread: <N>".
	threadLabel = "Order Thread"
)

var (
	// ErrMalformedThreadName indicates a coordination thread name without the
	// "<label>: <id>" separator.
	ErrMalformedThreadName = errors.New("malformed thread name")
	// ErrOrderChannelNotFound indicates no channel matches the derived
	// ticket name.
	ErrOrderChannelNotFound = errors.New("order channel not found")
	// ErrNotAWorker indicates the nominated member lacks the Worker
	// entitlement.
	ErrNotAWorker = errors.New("nominee is not a worker")
	// ErrNotAThread indicates the assignment action was invoked outside a
	// coordination thread.
	ErrNotAThread = errors.New("not inside a coordination thread")
)

// ChannelName derives the order channel name from its ticket id.
func ChannelName(ticketID string) string {
	return ticketChannelPrefix + ticketID
}

// ThreadName derives the coordination thread name from the ticket id.
func ThreadName(ticketID string) string {
	return threadLabel + ": " + ticketID
}

// TicketFromChannelName extracts the ticket id out of an order channel name.
// Channels outside the ticket-<N> convention fall back to their full name so
// ad-hoc order channels still flow through the workflow.
func TicketFromChannelName(name string) string {
	if id, ok := strings.CutPrefix(name, ticketChannelPrefix); ok && id != "" {
		return id
	}

	return name
}

// TicketFromThreadName extracts the ticket id out of a coordination thread
// name of the form "<label>: <id>".
func TicketFromThreadName(name string) (string, error) {
	parts := strings.Split(name, ": ")
	if len(parts) < 2 {
		return "", ErrMalformedThreadName
	}

	return parts[1], nil
}

// Package platform defines the collaborator contracts the order workflow
// consumes from the chat platform. The core never talks to a transport
// library directly; adapters implement these interfaces.
package platform

import "context"

// Entitlement labels recognized by the bot.
const (
	RoleAdmin    = "Admin"
	RoleWorker   = "Worker"
	RoleCustomer = "Customer"
)

// Actor is a platform user referenced by an opaque stable identifier.
type Actor struct {
	ID          string
	DisplayName string
}

// Channel addresses a conversation surface. On Telegram this is a forum
// topic: ChatID is the supergroup, ThreadID the topic. A ThreadID of zero
// means the top-level chat.
type Channel struct {
	ChatID   int64
	ThreadID int
	Name     string
}

// IsThread reports whether the channel is a sub-thread of a parent chat.
func (c Channel) IsThread() bool {
	return c.ThreadID != 0
}

// Message identifies a message posted to a channel.
type Message struct {
	Channel   Channel
	MessageID int
}

// Entitlements checks and grants named permissions for actors.
type Entitlements interface {
	Has(ctx context.Context, actor Actor, label string) (bool, error)
	Grant(ctx context.Context, actor Actor, label string) error
}

// Channels relocates and resolves channels.
type Channels interface {
	// Move relocates the channel into the named grouping.
	Move(ctx context.Context, ch Channel, group string) error
	// Find resolves a channel by name, failing with ErrChannelNotFound
	// when absent.
	Find(ctx context.Context, name string) (*Channel, error)
	// GrantAccess gives the actor read/write access to the channel.
	GrantAccess(ctx context.Context, ch Channel, actor Actor) error
}

// Messenger publishes and pins messages.
type Messenger interface {
	Send(ctx context.Context, ch Channel, content string) (*Message, error)
	Pin(ctx context.Context, msg *Message) error
}

// Threads opens and retires coordination threads.
type Threads interface {
	// OpenThread creates a named thread attached to the parent channel.
	OpenThread(ctx context.Context, parent Channel, name string) (*Channel, error)
	// CloseThread retires the thread; it cannot be reused afterwards.
	CloseThread(ctx context.Context, thread Channel) error
}

// Mentioner renders platform-specific mention markup.
type Mentioner interface {
	MentionActor(actor Actor) string
	MentionRole(label string) string
}

// Gateway bundles every collaborator contract the workflow needs.
type Gateway interface {
	Entitlements
	Channels
	Messenger
	Threads
	Mentioner
}

package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ticketforge/foreman-bot/internal/platform"
)

// Accounts is the slice of the account service the workflow needs.
type Accounts interface {
	CreditSpend(ctx context.Context, userID, amountText string) (newSpent, loyaltyGained int64, err error)
}

// Config carries the workflow's fixed wiring.
type Config struct {
	// WorkersChannel is the designated channel coordination threads attach to.
	WorkersChannel platform.Channel
	// PaidGroup is the grouping paid order channels are relocated into.
	PaidGroup string
}

// Workflow runs the order fulfillment transitions. External side effects
// execute strictly in declaration order; a failing step reports its error and
// halts the remainder of the invocation. Ledger mutations committed by
// earlier steps are never reversed and no step is retried.
type Workflow struct {
	gateway  platform.Gateway
	accounts Accounts
	tracker  Tracker
	cfg      Config
	log      *slog.Logger
}

// NewWorkflow constructs a Workflow. The tracker may be nil, in which case
// status bookkeeping is skipped.
func NewWorkflow(gateway platform.Gateway, accounts Accounts, tracker Tracker, cfg Config, log *slog.Logger) *Workflow {
	if log == nil {
		log = slog.Default()
	}

	return &Workflow{
		gateway:  gateway,
		accounts: accounts,
		tracker:  tracker,
		cfg:      cfg,
		log:      log,
	}
}

// PaidRequest describes a "mark paid" invocation for the order channel the
// command was issued in.
type PaidRequest struct {
	Channel    platform.Channel
	Payer      platform.Actor
	AmountText string
	Note       string
}

// PaidResult reports what the paid transition accomplished.
type PaidResult struct {
	TicketID      string
	NewSpent      int64
	LoyaltyGained int64
	StatusText    string
	Thread        *platform.Channel
	// Warnings collects tolerated failures (the Customer role grant) that
	// were reported without halting the transition.
	Warnings []string
}

// MarkPaid runs the Pending -> Paid transition: credit the payer's ledger,
// grant the Customer entitlement, relocate the channel into the paid
// grouping, publish and pin the status message, then open a coordination
// thread for the workers. A malformed amount aborts before any side effect;
// later failures halt without reversing the committed ledger update.
func (w *Workflow) MarkPaid(ctx context.Context, req PaidRequest) (*PaidResult, error) {
	ticketID := TicketFromChannelName(req.Channel.Name)

	newSpent, loyaltyGained, err := w.accounts.CreditSpend(ctx, req.Payer.ID, req.AmountText)
	if err != nil {
		return nil, err
	}

	w.recordTransition(ctx, ticketID, StatusPaid)

	result := &PaidResult{
		TicketID:      ticketID,
		NewSpent:      newSpent,
		LoyaltyGained: loyaltyGained,
	}

	w.grantCustomer(ctx, req.Payer, result)

	if err := w.gateway.Move(ctx, req.Channel, w.cfg.PaidGroup); err != nil {
		w.log.Error("failed to relocate order channel",
			slog.String("ticket_id", ticketID),
			slog.String("group", w.cfg.PaidGroup),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("move channel to %q: %w", w.cfg.PaidGroup, err)
	}

	result.StatusText = w.composeStatus(ticketID, req)

	statusMsg, err := w.gateway.Send(ctx, req.Channel, result.StatusText)
	if err != nil {
		return nil, fmt.Errorf("publish status message: %w", err)
	}

	if err := w.gateway.Pin(ctx, statusMsg); err != nil {
		return nil, fmt.Errorf("pin status message: %w", err)
	}

	thread, err := w.gateway.OpenThread(ctx, w.cfg.WorkersChannel, ThreadName(ticketID))
	if err != nil {
		return nil, fmt.Errorf("open coordination thread: %w", err)
	}
	result.Thread = thread

	broadcast := fmt.Sprintf(
		"%s | Please ask any additional questions you need about this job. Jobs are first come first serve.\nPlease don't accept any jobs you are unable to complete for the buyer.",
		w.gateway.MentionRole(platform.RoleWorker),
	)
	if _, err := w.gateway.Send(ctx, *thread, broadcast); err != nil {
		return nil, fmt.Errorf("broadcast to coordination thread: %w", err)
	}
	if _, err := w.gateway.Send(ctx, *thread, result.StatusText); err != nil {
		return nil, fmt.Errorf("mirror status to coordination thread: %w", err)
	}

	w.recordTransition(ctx, ticketID, StatusWorkerRequested)

	w.log.Info("order marked paid",
		slog.String("ticket_id", ticketID),
		slog.String("payer_id", req.Payer.ID),
		slog.Int64("new_spent", newSpent),
		slog.Int64("loyalty_gained", loyaltyGained),
	)

	return result, nil
}

// AssignRequest describes a worker-assignment invocation issued from inside a
// coordination thread.
type AssignRequest struct {
	Thread  platform.Channel
	Nominee platform.Actor
}

// AssignResult reports a completed assignment.
type AssignResult struct {
	TicketID string
	Channel  platform.Channel
}

// AssignWorker runs the WorkerRequested -> Assigned transition: resolve the
// order channel from the thread name, verify the nominee holds the Worker
// entitlement, grant channel access, announce the assignment, and retire the
// thread. Validation failures perform zero mutations.
func (w *Workflow) AssignWorker(ctx context.Context, req AssignRequest) (*AssignResult, error) {
	if !req.Thread.IsThread() {
		return nil, ErrNotAThread
	}

	ticketID, err := TicketFromThreadName(req.Thread.Name)
	if err != nil {
		return nil, err
	}

	channelName := ChannelName(ticketID)
	channel, err := w.gateway.Find(ctx, channelName)
	if err != nil {
		if errors.Is(err, platform.ErrChannelNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderChannelNotFound, channelName)
		}
		return nil, fmt.Errorf("find order channel %q: %w", channelName, err)
	}

	isWorker, err := w.gateway.Has(ctx, req.Nominee, platform.RoleWorker)
	if err != nil {
		return nil, fmt.Errorf("check worker entitlement: %w", err)
	}
	if !isWorker {
		return nil, fmt.Errorf("%w: %s", ErrNotAWorker, req.Nominee.DisplayName)
	}

	if err := w.gateway.GrantAccess(ctx, *channel, req.Nominee); err != nil {
		return nil, fmt.Errorf("grant channel access: %w", err)
	}

	notice := fmt.Sprintf("%s has been assigned to %s.", w.gateway.MentionActor(req.Nominee), channel.Name)
	if _, err := w.gateway.Send(ctx, *channel, notice); err != nil {
		return nil, fmt.Errorf("announce assignment: %w", err)
	}

	w.recordTransition(ctx, ticketID, StatusAssigned)

	if err := w.gateway.CloseThread(ctx, req.Thread); err != nil {
		return nil, fmt.Errorf("retire coordination thread: %w", err)
	}

	w.log.Info("worker assigned",
		slog.String("ticket_id", ticketID),
		slog.String("worker_id", req.Nominee.ID),
	)

	return &AssignResult{TicketID: ticketID, Channel: *channel}, nil
}

// grantCustomer gives the payer the Customer entitlement when missing.
// Failures here are tolerated: they are reported as warnings, never halting
// the transition.
func (w *Workflow) grantCustomer(ctx context.Context, payer platform.Actor, result *PaidResult) {
	has, err := w.gateway.Has(ctx, payer, platform.RoleCustomer)
	if err != nil {
		w.log.Warn("failed to check customer entitlement", slog.String("payer_id", payer.ID), slog.Any("error", err))
		result.Warnings = append(result.Warnings, "Could not verify the Customer role.")
		return
	}
	if has {
		return
	}

	if err := w.gateway.Grant(ctx, payer, platform.RoleCustomer); err != nil {
		w.log.Warn("failed to grant customer entitlement", slog.String("payer_id", payer.ID), slog.Any("error", err))
		result.Warnings = append(result.Warnings, "Failed to assign the Customer role. Please contact an admin.")
	}
}

// recordTransition updates the tracked workflow status. Bookkeeping failures
// are logged but never interrupt the workflow: the ledger and the chat
// platform hold the authoritative state.
func (w *Workflow) recordTransition(ctx context.Context, ticketID string, to Status) {
	if w.tracker == nil {
		return
	}

	from, err := w.tracker.GetStatus(ctx, ticketID)
	if err != nil {
		if !errors.Is(err, ErrStatusNotFound) {
			w.log.Warn("failed to read order status", slog.String("ticket_id", ticketID), slog.Any("error", err))
			return
		}
		from = StatusPending
	}

	if !IsTransitionAllowed(from, to) {
		w.log.Warn("unexpected order status transition",
			slog.String("ticket_id", ticketID),
			slog.String("from", string(from)),
			slog.String("to", string(to)),
		)
		return
	}

	if err := w.tracker.SetStatus(ctx, ticketID, to); err != nil {
		w.log.Warn("failed to record order status", slog.String("ticket_id", ticketID), slog.Any("error", err))
		return
	}

	transitionRecorder(string(from), string(to))
}

func (w *Workflow) composeStatus(ticketID string, req PaidRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Order: %s\n", ticketID)
	b.WriteString("Order status: Paid / Order pending delivery\n")
	fmt.Fprintf(&b, "Buyer: %s\n", req.Payer.DisplayName)
	fmt.Fprintf(&b, "Amount: %s\n", req.AmountText)
	if req.Note != "" {
		fmt.Fprintf(&b, "Order note: %s\n", req.Note)
	}
	b.WriteString("\nThank you for your order! Please be patient while we assign a worker.")

	return b.String()
}

package order

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/ticketforge/foreman-bot/internal/platform"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Has(ctx context.Context, actor platform.Actor, label string) (bool, error) {
	args := m.Called(ctx, actor, label)
	return args.Bool(0), args.Error(1)
}

func (m *mockGateway) Grant(ctx context.Context, actor platform.Actor, label string) error {
	args := m.Called(ctx, actor, label)
	return args.Error(0)
}

func (m *mockGateway) Move(ctx context.Context, ch platform.Channel, group string) error {
	args := m.Called(ctx, ch, group)
	return args.Error(0)
}

func (m *mockGateway) Find(ctx context.Context, name string) (*platform.Channel, error) {
	args := m.Called(ctx, name)
	ch, _ := args.Get(0).(*platform.Channel)
	return ch, args.Error(1)
}

func (m *mockGateway) GrantAccess(ctx context.Context, ch platform.Channel, actor platform.Actor) error {
	args := m.Called(ctx, ch, actor)
	return args.Error(0)
}

func (m *mockGateway) Send(ctx context.Context, ch platform.Channel, content string) (*platform.Message, error) {
	args := m.Called(ctx, ch, content)
	msg, _ := args.Get(0).(*platform.Message)
	return msg, args.Error(1)
}

func (m *mockGateway) Pin(ctx context.Context, msg *platform.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockGateway) OpenThread(ctx context.Context, parent platform.Channel, name string) (*platform.Channel, error) {
	args := m.Called(ctx, parent, name)
	ch, _ := args.Get(0).(*platform.Channel)
	return ch, args.Error(1)
}

func (m *mockGateway) CloseThread(ctx context.Context, thread platform.Channel) error {
	args := m.Called(ctx, thread)
	return args.Error(0)
}

func (m *mockGateway) MentionActor(actor platform.Actor) string {
	return "@" + actor.DisplayName
}

func (m *mockGateway) MentionRole(label string) string {
	return "@" + label
}

type fakeAccounts struct {
	calls   int
	spent   int64
	loyalty int64
	err     error
}

func (f *fakeAccounts) CreditSpend(_ context.Context, _ string, _ string) (int64, int64, error) {
	f.calls++
	if f.err != nil {
		return 0, 0, f.err
	}
	return f.spent, f.loyalty, nil
}

type memTracker struct {
	statuses map[string]Status
}

func newMemTracker() *memTracker {
	return &memTracker{statuses: make(map[string]Status)}
}

func (t *memTracker) GetStatus(_ context.Context, ticketID string) (Status, error) {
	status, ok := t.statuses[ticketID]
	if !ok {
		return "", ErrStatusNotFound
	}
	return status, nil
}

func (t *memTracker) SetStatus(_ context.Context, ticketID string, status Status) error {
	t.statuses[ticketID] = status
	return nil
}

func (t *memTracker) ClearStatus(_ context.Context, ticketID string) error {
	delete(t.statuses, ticketID)
	return nil
}

var (
	orderChannel   = platform.Channel{ChatID: 100, ThreadID: 7, Name: "ticket-42"}
	workersChannel = platform.Channel{ChatID: 200, Name: "workers"}
	payer          = platform.Actor{ID: "901", DisplayName: "buyer"}
	workflowCfg    = Config{WorkersChannel: workersChannel, PaidGroup: "paid"}
)

func TestMarkPaidInvalidAmountHasNoSideEffects(t *testing.T) {
	gw := &mockGateway{}
	accounts := &fakeAccounts{err: errors.New("invalid amount")}
	tracker := newMemTracker()

	wf := NewWorkflow(gw, accounts, tracker, workflowCfg, testLogger())

	_, err := wf.MarkPaid(context.Background(), PaidRequest{
		Channel:    orderChannel,
		Payer:      payer,
		AmountText: "wat",
	})
	if err == nil {
		t.Fatal("expected error")
	}

	gw.AssertNotCalled(t, "Has", mock.Anything, mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "Move", mock.Anything, mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	if len(tracker.statuses) != 0 {
		t.Errorf("tracker mutated on aborted transition: %v", tracker.statuses)
	}
}

func TestMarkPaidHappyPath(t *testing.T) {
	gw := &mockGateway{}
	accounts := &fakeAccounts{spent: 25_000_000, loyalty: 2}
	tracker := newMemTracker()

	thread := &platform.Channel{ChatID: 200, ThreadID: 9, Name: "Order Thread: 42"}
	statusMsg := &platform.Message{Channel: orderChannel, MessageID: 1}

	gw.On("Has", mock.Anything, payer, platform.RoleCustomer).Return(false, nil).Once()
	gw.On("Grant", mock.Anything, payer, platform.RoleCustomer).Return(nil).Once()
	gw.On("Move", mock.Anything, orderChannel, "paid").Return(nil).Once()
	gw.On("Send", mock.Anything, orderChannel, mock.AnythingOfType("string")).Return(statusMsg, nil).Once()
	gw.On("Pin", mock.Anything, statusMsg).Return(nil).Once()
	gw.On("OpenThread", mock.Anything, workersChannel, "Order Thread: 42").Return(thread, nil).Once()
	gw.On("Send", mock.Anything, *thread, mock.AnythingOfType("string")).Return(&platform.Message{}, nil).Twice()

	wf := NewWorkflow(gw, accounts, tracker, workflowCfg, testLogger())

	result, err := wf.MarkPaid(context.Background(), PaidRequest{
		Channel:    orderChannel,
		Payer:      payer,
		AmountText: "25m",
		Note:       "full set",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.TicketID != "42" {
		t.Errorf("ticket id = %q, want 42", result.TicketID)
	}
	if result.NewSpent != 25_000_000 || result.LoyaltyGained != 2 {
		t.Errorf("ledger numbers = %d/%d", result.NewSpent, result.LoyaltyGained)
	}
	if result.Thread == nil || result.Thread.Name != "Order Thread: 42" {
		t.Errorf("thread = %+v", result.Thread)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
	if tracker.statuses["42"] != StatusWorkerRequested {
		t.Errorf("tracked status = %q, want worker_requested", tracker.statuses["42"])
	}

	gw.AssertExpectations(t)
}

func TestMarkPaidCustomerGrantFailureIsWarning(t *testing.T) {
	gw := &mockGateway{}
	accounts := &fakeAccounts{spent: 1_000_000}

	thread := &platform.Channel{ChatID: 200, ThreadID: 9, Name: "Order Thread: 42"}
	statusMsg := &platform.Message{Channel: orderChannel, MessageID: 1}

	gw.On("Has", mock.Anything, payer, platform.RoleCustomer).Return(false, nil).Once()
	gw.On("Grant", mock.Anything, payer, platform.RoleCustomer).Return(platform.ErrForbidden).Once()
	gw.On("Move", mock.Anything, orderChannel, "paid").Return(nil).Once()
	gw.On("Send", mock.Anything, orderChannel, mock.AnythingOfType("string")).Return(statusMsg, nil).Once()
	gw.On("Pin", mock.Anything, statusMsg).Return(nil).Once()
	gw.On("OpenThread", mock.Anything, workersChannel, "Order Thread: 42").Return(thread, nil).Once()
	gw.On("Send", mock.Anything, *thread, mock.AnythingOfType("string")).Return(&platform.Message{}, nil).Twice()

	wf := NewWorkflow(gw, accounts, nil, workflowCfg, testLogger())

	result, err := wf.MarkPaid(context.Background(), PaidRequest{
		Channel:    orderChannel,
		Payer:      payer,
		AmountText: "1m",
	})
	if err != nil {
		t.Fatalf("grant failure must not halt the transition: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Errorf("warnings = %v, want exactly one", result.Warnings)
	}

	gw.AssertExpectations(t)
}

func TestMarkPaidMoveFailureHaltsWithoutReversal(t *testing.T) {
	gw := &mockGateway{}
	accounts := &fakeAccounts{spent: 1_000_000}

	gw.On("Has", mock.Anything, payer, platform.RoleCustomer).Return(true, nil).Once()
	gw.On("Move", mock.Anything, orderChannel, "paid").
		Return(platform.NewTransportError("move", errors.New("api down"))).Once()

	wf := NewWorkflow(gw, accounts, nil, workflowCfg, testLogger())

	_, err := wf.MarkPaid(context.Background(), PaidRequest{
		Channel:    orderChannel,
		Payer:      payer,
		AmountText: "1m",
	})
	if err == nil {
		t.Fatal("expected error from failed relocation")
	}

	// The ledger credit stays committed; only the remaining steps halt.
	if accounts.calls != 1 {
		t.Errorf("credit calls = %d, want 1", accounts.calls)
	}
	gw.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "OpenThread", mock.Anything, mock.Anything, mock.Anything)
	gw.AssertExpectations(t)
}

func TestAssignWorkerValidation(t *testing.T) {
	thread := platform.Channel{ChatID: 200, ThreadID: 9, Name: "Order Thread: 42"}
	nominee := platform.Actor{ID: "777", DisplayName: "smith"}

	tests := []struct {
		name       string
		thread     platform.Channel
		setupMocks func(gw *mockGateway)
		wantErr    error
	}{
		{
			name:       "outside a thread",
			thread:     platform.Channel{ChatID: 200, Name: "workers"},
			setupMocks: func(gw *mockGateway) {},
			wantErr:    ErrNotAThread,
		},
		{
			name:       "malformed thread name",
			thread:     platform.Channel{ChatID: 200, ThreadID: 9, Name: "general chat"},
			setupMocks: func(gw *mockGateway) {},
			wantErr:    ErrMalformedThreadName,
		},
		{
			name:   "order channel missing",
			thread: thread,
			setupMocks: func(gw *mockGateway) {
				gw.On("Find", mock.Anything, "ticket-42").
					Return((*platform.Channel)(nil), platform.ErrChannelNotFound).Once()
			},
			wantErr: ErrOrderChannelNotFound,
		},
		{
			name:   "nominee lacks worker role",
			thread: thread,
			setupMocks: func(gw *mockGateway) {
				gw.On("Find", mock.Anything, "ticket-42").Return(&orderChannel, nil).Once()
				gw.On("Has", mock.Anything, nominee, platform.RoleWorker).Return(false, nil).Once()
			},
			wantErr: ErrNotAWorker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &mockGateway{}
			tt.setupMocks(gw)
			tracker := newMemTracker()

			wf := NewWorkflow(gw, &fakeAccounts{}, tracker, workflowCfg, testLogger())

			_, err := wf.AssignWorker(context.Background(), AssignRequest{
				Thread:  tt.thread,
				Nominee: nominee,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}

			// Validation failures must not mutate anything.
			gw.AssertNotCalled(t, "GrantAccess", mock.Anything, mock.Anything, mock.Anything)
			gw.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
			gw.AssertNotCalled(t, "CloseThread", mock.Anything, mock.Anything)
			if len(tracker.statuses) != 0 {
				t.Errorf("tracker mutated: %v", tracker.statuses)
			}
			gw.AssertExpectations(t)
		})
	}
}

func TestAssignWorkerHappyPath(t *testing.T) {
	gw := &mockGateway{}
	thread := platform.Channel{ChatID: 200, ThreadID: 9, Name: "Order Thread: 42"}
	nominee := platform.Actor{ID: "777", DisplayName: "smith"}
	tracker := newMemTracker()
	tracker.statuses["42"] = StatusWorkerRequested

	gw.On("Find", mock.Anything, "ticket-42").Return(&orderChannel, nil).Once()
	gw.On("Has", mock.Anything, nominee, platform.RoleWorker).Return(true, nil).Once()
	gw.On("GrantAccess", mock.Anything, orderChannel, nominee).Return(nil).Once()
	gw.On("Send", mock.Anything, orderChannel, "@smith has been assigned to ticket-42.").
		Return(&platform.Message{}, nil).Once()
	gw.On("CloseThread", mock.Anything, thread).Return(nil).Once()

	wf := NewWorkflow(gw, &fakeAccounts{}, tracker, workflowCfg, testLogger())

	result, err := wf.AssignWorker(context.Background(), AssignRequest{
		Thread:  thread,
		Nominee: nominee,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TicketID != "42" {
		t.Errorf("ticket id = %q, want 42", result.TicketID)
	}
	if tracker.statuses["42"] != StatusAssigned {
		t.Errorf("tracked status = %q, want assigned", tracker.statuses["42"])
	}

	gw.AssertExpectations(t)
}

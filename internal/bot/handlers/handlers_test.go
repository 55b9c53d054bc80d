package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/account"
	"github.com/ticketforge/foreman-bot/internal/i18n"
	"github.com/ticketforge/foreman-bot/internal/ledger"
	"github.com/ticketforge/foreman-bot/internal/platform"
)

type fakeContext struct {
	telebot.Context
	sender  *telebot.User
	message *telebot.Message
	args    []string
	sent    []string
}

func (c *fakeContext) Sender() *telebot.User     { return c.sender }
func (c *fakeContext) Message() *telebot.Message { return c.message }
func (c *fakeContext) Args() []string            { return c.args }

func (c *fakeContext) Chat() *telebot.Chat {
	if c.message != nil {
		return c.message.Chat
	}
	return &telebot.Chat{ID: 1}
}

func (c *fakeContext) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, fmt.Sprint(what))
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTranslator(t *testing.T) i18n.Translator {
	t.Helper()

	manager, err := i18n.LoadFromDir("../../i18n", "en")
	require.NoError(t, err)

	return manager.Translator("en")
}

func testAccounts(opts ...account.Option) *account.Service {
	return account.NewService(ledger.NewMemoryStore(), nil, testLogger(), opts...)
}

func TestProfileHandlerShowsLedgerFields(t *testing.T) {
	accounts := testAccounts()
	handler := NewProfileHandler(accounts, testTranslator(t), testLogger())

	ctx := &fakeContext{sender: &telebot.User{ID: 42, Username: "buyer"}}

	require.NoError(t, handler(ctx))
	require.Len(t, ctx.sent, 1)
	assert.Contains(t, ctx.sent[0], "Total spent: 0")
	assert.Contains(t, ctx.sent[0], "Loyalty points: 0")
	assert.Contains(t, ctx.sent[0], "Bank balance: 0")
	assert.Contains(t, ctx.sent[0], "never")
}

func TestProfileHandlerShowsReplyTarget(t *testing.T) {
	accounts := testAccounts()
	_, err := accounts.AddBank(context.Background(), "77", "5k")
	require.NoError(t, err)

	handler := NewProfileHandler(accounts, testTranslator(t), testLogger())

	ctx := &fakeContext{
		sender: &telebot.User{ID: 42, Username: "admin"},
		message: &telebot.Message{
			ReplyTo: &telebot.Message{Sender: &telebot.User{ID: 77, Username: "buyer"}},
		},
	}

	require.NoError(t, handler(ctx))
	require.Len(t, ctx.sent, 1)
	assert.Contains(t, ctx.sent[0], "Bank balance: 5k")
}

func TestDailyHandlerClaimsAndThenWaits(t *testing.T) {
	now := time.Date(2024, 6, 1, 21, 30, 0, 0, time.UTC)
	accounts := testAccounts(
		account.WithClock(func() time.Time { return now }),
		account.WithRewardRoll(func(min, max int64) int64 { return 50000 }),
	)
	handler := NewDailyHandler(accounts, testTranslator(t), testLogger())

	first := &fakeContext{sender: &telebot.User{ID: 7}}
	require.NoError(t, handler(first))
	require.Len(t, first.sent, 1)
	assert.Contains(t, first.sent[0], "50k")

	second := &fakeContext{sender: &telebot.User{ID: 7}}
	require.NoError(t, handler(second))
	require.Len(t, second.sent, 1)
	assert.Contains(t, second.sent[0], "2h30m")
}

func TestLoyaltyHandlerAdjustsBalance(t *testing.T) {
	accounts := testAccounts()
	handler := NewLoyaltyHandler(accounts, nil, testTranslator(t), testLogger(), "/addlp", 1)

	ctx := &fakeContext{
		sender: &telebot.User{ID: 1, Username: "admin"},
		args:   []string{"901", "250"},
	}

	require.NoError(t, handler(ctx))
	require.Len(t, ctx.sent, 1)
	assert.Contains(t, ctx.sent[0], "901")
	assert.Contains(t, ctx.sent[0], "250")
}

func TestLoyaltyHandlerRejectsBadAmount(t *testing.T) {
	accounts := testAccounts()
	handler := NewLoyaltyHandler(accounts, nil, testTranslator(t), testLogger(), "/addlp", 1)

	ctx := &fakeContext{
		sender: &telebot.User{ID: 1},
		args:   []string{"901", "abc"},
	}

	require.NoError(t, handler(ctx))
	require.Len(t, ctx.sent, 1)
	assert.Contains(t, ctx.sent[0], "amount")
}

func TestBankHandlerSubtracts(t *testing.T) {
	accounts := testAccounts()

	add := NewBankHandler(accounts, nil, testTranslator(t), testLogger(), "/bankadd", false)
	require.NoError(t, add(&fakeContext{
		sender: &telebot.User{ID: 1},
		args:   []string{"901", "5k"},
	}))

	sub := NewBankHandler(accounts, nil, testTranslator(t), testLogger(), "/banksub", true)
	ctx := &fakeContext{
		sender: &telebot.User{ID: 1},
		args:   []string{"901", "2k"},
	}
	require.NoError(t, sub(ctx))
	require.Len(t, ctx.sent, 1)
	assert.Contains(t, ctx.sent[0], "3k")
}

func TestAdjustArgsUsageMessage(t *testing.T) {
	accounts := testAccounts()
	handler := NewBankHandler(accounts, nil, testTranslator(t), testLogger(), "/bankadd", false)

	ctx := &fakeContext{
		sender: &telebot.User{ID: 1},
		args:   []string{"901"},
	}

	require.NoError(t, handler(ctx))
	require.Len(t, ctx.sent, 1)
	assert.Contains(t, ctx.sent[0], "Usage")
}

func TestAdjustArgsRejectsUsernameTarget(t *testing.T) {
	accounts := testAccounts()
	handler := NewLoyaltyHandler(accounts, nil, testTranslator(t), testLogger(), "/addlp", 1)

	ctx := &fakeContext{
		sender: &telebot.User{ID: 1},
		args:   []string{"@alice", "5"},
	}

	require.NoError(t, handler(ctx))
	require.Len(t, ctx.sent, 1)
	assert.Contains(t, ctx.sent[0], "Usage")
}

func TestAdjustArgsTakesReplyTarget(t *testing.T) {
	accounts := testAccounts()
	handler := NewBankHandler(accounts, nil, testTranslator(t), testLogger(), "/bankadd", false)

	ctx := &fakeContext{
		sender: &telebot.User{ID: 1},
		message: &telebot.Message{
			ReplyTo: &telebot.Message{Sender: &telebot.User{ID: 88, Username: "buyer"}},
		},
		args: []string{"7k"},
	}

	require.NoError(t, handler(ctx))
	require.Len(t, ctx.sent, 1)
	assert.Contains(t, ctx.sent[0], "88")
	assert.Contains(t, ctx.sent[0], "7k")
}

type fakeRegistrar struct {
	registered []platform.Channel
	err        error
}

func (r *fakeRegistrar) Register(_ context.Context, ch platform.Channel) error {
	if r.err != nil {
		return r.err
	}
	r.registered = append(r.registered, ch)
	return nil
}

func TestTopicCreatedHandlerRegistersChannel(t *testing.T) {
	registrar := &fakeRegistrar{}
	handler := NewTopicCreatedHandler(registrar, testLogger())

	ctx := &fakeContext{
		message: &telebot.Message{
			Chat:         &telebot.Chat{ID: -100},
			ThreadID:     31,
			TopicCreated: &telebot.Topic{Name: "ticket-9"},
		},
	}

	require.NoError(t, handler(ctx))
	require.Len(t, registrar.registered, 1)
	assert.Equal(t, platform.Channel{ChatID: -100, ThreadID: 31, Name: "ticket-9"}, registrar.registered[0])
}

func TestTopicCreatedHandlerIgnoresOtherMessages(t *testing.T) {
	registrar := &fakeRegistrar{}
	handler := NewTopicCreatedHandler(registrar, testLogger())

	require.NoError(t, handler(&fakeContext{
		message: &telebot.Message{Chat: &telebot.Chat{ID: -100}, ThreadID: 31},
	}))
	assert.Empty(t, registrar.registered)
}

func TestShutdownHandlerIgnoresNonOwner(t *testing.T) {
	called := make(chan struct{}, 1)
	handler := NewShutdownHandler(100, func() { called <- struct{}{} }, testTranslator(t), testLogger())

	stranger := &fakeContext{sender: &telebot.User{ID: 7}}
	require.NoError(t, handler(stranger))
	assert.Empty(t, stranger.sent)

	owner := &fakeContext{sender: &telebot.User{ID: 100}}
	require.NoError(t, handler(owner))
	require.Len(t, owner.sent, 1)

	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("shutdown func was not invoked")
	}
}

func TestActorFromUserPrefersUsername(t *testing.T) {
	actor := ActorFromUser(&telebot.User{ID: 42, Username: "buyer", FirstName: "Bo"})
	assert.Equal(t, "42", actor.ID)
	assert.Equal(t, "buyer", actor.DisplayName)

	actor = ActorFromUser(&telebot.User{ID: 43, FirstName: "Ann", LastName: "Lee"})
	assert.Equal(t, "Ann Lee", actor.DisplayName)

	actor = ActorFromUser(&telebot.User{ID: 44})
	assert.Equal(t, "44", actor.DisplayName)
}

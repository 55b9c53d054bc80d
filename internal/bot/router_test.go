package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/ticketforge/foreman-bot/internal/bot/handlers"
)

type stubContext struct {
	telebot.Context
	text string
}

func (c *stubContext) Text() string { return c.text }

func TestCommandToken(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"bare command", "/daily", "/daily"},
		{"command with args", "/paid 5k rush order", "/paid"},
		{"group chat suffix", "/profile@foreman_bot", "/profile"},
		{"suffix and args", "/paid@foreman_bot 2m", "/paid"},
		{"newline separated", "/paid\n5k", "/paid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, commandToken(tt.text))
		})
	}
}

func TestRouterDispatchesRegisteredCommand(t *testing.T) {
	router := NewRouter(testLogger())

	var handled []string
	router.RegisterCommand("/daily", func(c telebot.Context) error {
		handled = append(handled, c.Text())
		return nil
	})

	err := router.Route(&stubContext{text: "/daily"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/daily"}, handled)

	err = router.Route(&stubContext{text: "/unknown"})
	require.NoError(t, err)
	assert.Len(t, handled, 1)
}

func TestRouterIgnoresArgumentsWhenMatching(t *testing.T) {
	router := NewRouter(testLogger())

	called := 0
	router.RegisterCommand("/paid", func(c telebot.Context) error {
		called++
		return nil
	})

	require.NoError(t, router.Route(&stubContext{text: "/paid 5k for widgets"}))
	assert.Equal(t, 1, called)
}

func TestRouterAppliesMiddlewaresInOrder(t *testing.T) {
	router := NewRouter(testLogger())

	var order []string
	mw := func(name string) handlers.Middleware {
		return func(next handlers.Handler) handlers.Handler {
			return func(c telebot.Context) error {
				order = append(order, name)
				return next(c)
			}
		}
	}

	router.Use(mw("outer"))
	router.Use(mw("inner"))
	router.RegisterCommand("/profile", func(c telebot.Context) error {
		order = append(order, "handler")
		return nil
	})

	require.NoError(t, router.Route(&stubContext{text: "/profile"}))
	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRouterFallsBackToDefaultHandler(t *testing.T) {
	router := NewRouter(testLogger())

	fallback := 0
	router.SetDefault(func(c telebot.Context) error {
		fallback++
		return nil
	})

	require.NoError(t, router.Route(&stubContext{text: "just chatting"}))
	assert.Equal(t, 1, fallback)
}

package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackbot/internal/chat"
)

func TestReadsLinesAsPlayer(t *testing.T) {
	in := strings.NewReader("!startgame 100\n\n  !hit  \n")
	c := New("you", in, &bytes.Buffer{})

	var got []chat.Event
	for ev := range c.Events() {
		got = append(got, ev)
	}

	assert.Equal(t, []chat.Event{
		{Player: "you", Text: "!startgame 100"},
		{Player: "you", Text: "!hit"},
	}, got)
}

func TestSendWritesPlainTextWithoutTerminal(t *testing.T) {
	var out bytes.Buffer
	c := New("you", strings.NewReader(""), &out)

	require.NoError(t, c.Send(context.Background(), "you wins! You win 100 chips."))
	require.NoError(t, c.Send(context.Background(), "Dealer's up card: 9 of Spades."))

	assert.Equal(t, "you wins! You win 100 chips.\nDealer's up card: 9 of Spades.\n", out.String())
}

func TestSendHonoursCancelledContext(t *testing.T) {
	var out bytes.Buffer
	c := New("you", strings.NewReader(""), &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.Send(ctx, "hello"))
	assert.Empty(t, out.String())
}

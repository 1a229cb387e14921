package bot

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackbot/internal/chat"
	"github.com/lox/blackjackbot/internal/deck"
	"github.com/lox/blackjackbot/internal/game"
	"github.com/lox/blackjackbot/internal/ledger"
)

type fakeTransport struct {
	in    chan chat.Event
	mu    sync.Mutex
	lines []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{in: make(chan chat.Event, 16)}
}

func (f *fakeTransport) Events() <-chan chat.Event { return f.in }

func (f *fakeTransport) Send(_ context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lines = append(f.lines, text)
	return nil
}

func (f *fakeTransport) say(player, text string) {
	f.in <- chat.Event{Player: player, Text: text}
}

func (f *fakeTransport) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.lines)
}

// riggedShoe deals a fixed sequence
type riggedShoe struct {
	mu    sync.Mutex
	cards []deck.Card
}

func (s *riggedShoe) Draw() deck.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.cards[0]
	s.cards = s.cards[1:]
	return c
}

type harness struct {
	transport *fakeTransport
	store     *ledger.MemoryStore
	ledger    *ledger.Ledger
	clock     *quartz.Mock
	table     *game.Table
	errCh     chan error
	cancel    context.CancelFunc
}

func startBot(t *testing.T, cards string) *harness {
	t.Helper()

	logger := log.New(io.Discard)
	store := ledger.NewMemoryStore(nil)
	l, err := ledger.Open(context.Background(), store, 10000, logger)
	require.NoError(t, err)

	clock := quartz.NewMock(t)
	transport := newFakeTransport()

	var b *Bot
	table := game.NewTable(l, &riggedShoe{cards: deck.MustParseCards(cards)}, logger,
		game.WithClock(clock),
		game.WithTimeoutHandler(func(events []game.Event, err error) {
			b.HandleTimeout(events, err)
		}),
	)
	b = New(table, transport, "!", logger)

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		transport: transport,
		store:     store,
		ledger:    l,
		clock:     clock,
		table:     table,
		errCh:     make(chan error, 1),
		cancel:    cancel,
	}
	go func() { h.errCh <- b.Run(ctx) }()
	t.Cleanup(cancel)
	return h
}

func (h *harness) waitFor(t *testing.T, line string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return slices.Contains(h.transport.sent(), line)
	}, 2*time.Second, 5*time.Millisecond, "never sent %q; got %q", line, h.transport.sent())
}

func (h *harness) stop(t *testing.T) error {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("bot did not stop")
		return nil
	}
}

func TestRoundPlayedOverChat(t *testing.T) {
	h := startBot(t, "Th7c9sTd")

	h.transport.say("alice", "!startgame 500")
	h.waitFor(t, "alice, do you want to `!hit` or `!stand`?")

	h.transport.say("alice", "!stand")
	h.waitFor(t, "alice's new balance is 9500 chips.")

	assert.Contains(t, h.transport.sent(), "Game started! alice's hand: 10 of Hearts, 7 of Clubs (Value: 17).")
	assert.Contains(t, h.transport.sent(), "Dealer's up card: 9 of Spades.")
	assert.Contains(t, h.transport.sent(), "Dealer wins! alice loses 500 chips.")
	assert.Equal(t, int64(9500), h.ledger.Snapshot()["alice"])
	require.NoError(t, h.stop(t))
}

func TestPlayerErrorsAreReported(t *testing.T) {
	h := startBot(t, "Th7c9sTd")

	h.transport.say("alice", "!startgame lots")
	h.waitFor(t, "Invalid bet amount. Usage: `!startgame [amount]`")

	h.transport.say("alice", "!hit")
	h.waitFor(t, "alice, you are not in the current game. Use `!startgame` to play.")

	h.transport.say("bob", "!startgame 20000")
	h.waitFor(t, "bob, you don't have enough chips. Balance: 10000")

	require.NoError(t, h.stop(t))
}

func TestChatterIsIgnored(t *testing.T) {
	h := startBot(t, "Th7c9sTd")

	h.transport.say("alice", "hello everyone")
	h.transport.say("alice", "!balance")
	h.waitFor(t, "alice, you have 10000 chips.")

	for _, line := range h.transport.sent() {
		assert.NotContains(t, line, "hello everyone")
	}
	require.NoError(t, h.stop(t))
}

func TestCommandWordsInChatDoNotPlay(t *testing.T) {
	h := startBot(t, "Th7c9sTd")

	h.transport.say("alice", "!startgame 500")
	h.waitFor(t, "alice, do you want to `!hit` or `!stand`?")

	h.transport.say("alice", "stand by me")
	h.transport.say("alice", "hit the road")
	h.transport.say("bob", "start the movie")
	h.transport.say("alice", "!balance")
	h.waitFor(t, "alice, you have 9500 chips.")

	round, ok := h.table.Snapshot("alice")
	require.True(t, ok)
	assert.Equal(t, game.AwaitingPlayerAction, round.Status)
	assert.Len(t, round.PlayerCards, 2)
	assert.NotContains(t, h.transport.sent(), "Invalid bet amount. Usage: `!startgame [amount]`")
	require.NoError(t, h.stop(t))
}

func TestBusySeatReportedBeforeBadBet(t *testing.T) {
	h := startBot(t, "Th7c9sTd")

	h.transport.say("alice", "!startgame 500")
	h.waitFor(t, "alice, do you want to `!hit` or `!stand`?")

	h.transport.say("alice", "!startgame 0")
	h.waitFor(t, "alice, your game is already in progress.")
	assert.NotContains(t, h.transport.sent(), "Invalid bet amount. Usage: `!startgame [amount]`")
	require.NoError(t, h.stop(t))
}

func TestTimeoutForfeitIsAnnounced(t *testing.T) {
	h := startBot(t, "Th7c9sTd")

	h.transport.say("alice", "!startgame 500")
	h.waitFor(t, "alice, do you want to `!hit` or `!stand`?")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	h.clock.Advance(game.DefaultActionTimeout).MustWait(ctx)

	h.waitFor(t, "alice timed out. Game forfeited and bet lost.")
	h.waitFor(t, "alice's new balance is 9500 chips.")
	require.NoError(t, h.stop(t))
}

func TestPersistenceFailureStopsBot(t *testing.T) {
	h := startBot(t, "Th7c9sTd")
	h.store.FailSaves(errors.New("disk full"))

	h.transport.say("alice", "!startgame 100")

	select {
	case err := <-h.errCh:
		require.Error(t, err)
		assert.ErrorIs(t, err, ledger.ErrPersistence)
	case <-time.After(2 * time.Second):
		t.Fatal("bot kept running after a persistence failure")
	}
}

func TestTransportCloseStopsBot(t *testing.T) {
	h := startBot(t, "Th7c9sTd")
	close(h.transport.in)

	select {
	case err := <-h.errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("bot did not stop when the transport closed")
	}
	assert.True(t, strings.HasPrefix(h.transport.sent()[0], "Blackjack bot is online."))
}

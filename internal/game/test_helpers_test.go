package game

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackbot/internal/deck"
	"github.com/lox/blackjackbot/internal/ledger"
	"github.com/lox/blackjackbot/internal/randutil"
)

// stackedShoe deals the given cards in order, then falls back to a seeded shoe
type stackedShoe struct {
	cards    []deck.Card
	fallback *deck.Shoe
}

func newStackedShoe(cards string) *stackedShoe {
	return &stackedShoe{
		cards:    deck.MustParseCards(cards),
		fallback: deck.NewShoe(1, randutil.New(42)),
	}
}

func (s *stackedShoe) Draw() deck.Card {
	if len(s.cards) == 0 {
		return s.fallback.Draw()
	}
	c := s.cards[0]
	s.cards = s.cards[1:]
	return c
}

// push queues more cards after the ones already stacked
func (s *stackedShoe) push(cards string) {
	s.cards = append(s.cards, deck.MustParseCards(cards)...)
}

// timeoutRecorder collects forfeits delivered by the table
type timeoutRecorder struct {
	mu     sync.Mutex
	events [][]Event
	errs   []error
}

func (r *timeoutRecorder) handle(events []Event, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events)
	r.errs = append(r.errs, err)
}

func (r *timeoutRecorder) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

type testTable struct {
	*Table
	shoe     *stackedShoe
	ledger   *ledger.Ledger
	store    *ledger.MemoryStore
	clock    *quartz.Mock
	timeouts *timeoutRecorder
}

func newTestTable(t *testing.T, cards string, balances map[string]int64) *testTable {
	t.Helper()

	logger := log.New(io.Discard)
	store := ledger.NewMemoryStore(balances)
	l, err := ledger.Open(context.Background(), store, 0, logger)
	require.NoError(t, err)

	shoe := newStackedShoe(cards)
	clock := quartz.NewMock(t)
	rec := &timeoutRecorder{}

	n := 0
	table := NewTable(l, shoe, logger,
		WithClock(clock),
		WithTimeoutHandler(rec.handle),
		WithRoundIDs(func() string {
			n++
			return fmt.Sprintf("round-%d", n)
		}),
	)
	t.Cleanup(table.Close)

	return &testTable{
		Table:    table,
		shoe:     shoe,
		ledger:   l,
		store:    store,
		clock:    clock,
		timeouts: rec,
	}
}

func (tt *testTable) balance(t *testing.T, player string) int64 {
	t.Helper()
	return tt.ledger.Snapshot()[player]
}

func lastResult(t *testing.T, events []Event) Result {
	t.Helper()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	require.Equal(t, EventResolved, last.Type)
	require.NotNil(t, last.Result)
	return *last.Result
}

func eventTypes(events []Event) []EventType {
	types := make([]EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjackbot/internal/deck"
	"github.com/lox/blackjackbot/internal/gameid"
)

// DealerStandTotal is the total the dealer stops drawing at. Soft and hard
// 17 are treated alike.
const DealerStandTotal = 17

// Shoe is the card source a table deals from
type Shoe interface {
	Draw() deck.Card
}

// Bank holds player chip balances. Every mutating call must have persisted
// the new balances before it returns.
type Bank interface {
	Balance(ctx context.Context, player string) (int64, error)
	Debit(ctx context.Context, player string, amount int64) (int64, error)
	Credit(ctx context.Context, player string, amount int64) (int64, error)
	Flush(ctx context.Context) error
}

// TimeoutHandler receives the events of a round forfeited by its action
// timer. A non-nil err means settlement failed and is fatal.
type TimeoutHandler func(events []Event, err error)

// Option configures a Table
type Option func(*Table)

// WithClock sets the clock used for action timers
func WithClock(clock quartz.Clock) Option {
	return func(t *Table) { t.clock = clock }
}

// WithActionTimeout sets how long a player has to act
func WithActionTimeout(d time.Duration) Option {
	return func(t *Table) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithTimeoutHandler sets the receiver of forfeit events
func WithTimeoutHandler(h TimeoutHandler) Option {
	return func(t *Table) { t.onTimeout = h }
}

// WithRoundIDs sets the round ID generator
func WithRoundIDs(next func() string) Option {
	return func(t *Table) { t.nextID = next }
}

// Table hosts at most one session per player over a shared shoe. Commands and
// timer callbacks are serialised by a single lock.
type Table struct {
	mu         sync.Mutex
	bank       Bank
	shoe       Shoe
	clock      quartz.Clock
	timeout    time.Duration
	onTimeout  TimeoutHandler
	nextID     func() string
	logger     *log.Logger
	sessions   map[string]*Session
	generation uint64
	closed     bool
}

// NewTable creates a table dealing from shoe and settling against bank
func NewTable(bank Bank, shoe Shoe, logger *log.Logger, opts ...Option) *Table {
	t := &Table{
		bank:     bank,
		shoe:     shoe,
		clock:    quartz.NewReal(),
		timeout:  DefaultActionTimeout,
		nextID:   gameid.Generate,
		logger:   logger.WithPrefix("table"),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Handle dispatches a parsed command for player
func (t *Table) Handle(ctx context.Context, player string, cmd Command) ([]Event, error) {
	switch cmd.Kind {
	case CommandStart:
		return t.Start(ctx, player, cmd.Bet)
	case CommandHit:
		return t.Hit(ctx, player)
	case CommandStand:
		return t.Stand(ctx, player)
	case CommandBalance:
		return t.Balance(ctx, player)
	default:
		return nil, nil
	}
}

// Start opens a round for player, debiting bet and dealing two cards each to
// the player and the dealer. A natural blackjack settles immediately.
func (t *Table) Start(ctx context.Context, player string, bet int64) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A busy seat is reported ahead of a bad bet.
	if s, ok := t.sessions[player]; ok {
		return nil, fmt.Errorf("%w: round %s is %s", ErrSessionBusy, s.ID, s.Status)
	}
	if bet <= 0 {
		return nil, fmt.Errorf("%w: must be positive, got %d", ErrInvalidBet, bet)
	}

	s := &Session{
		ID:     t.nextID(),
		Player: player,
		Bet:    bet,
		Status: AwaitingBet,
	}

	balance, err := t.bank.Balance(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("read balance for %s: %w", player, err)
	}
	if bet > balance {
		return nil, &FundsError{Bet: bet, Balance: balance}
	}
	if _, err := t.bank.Debit(ctx, player, bet); err != nil {
		return nil, fmt.Errorf("debit bet for %s: %w", player, err)
	}

	s.PlayerHand.Add(t.shoe.Draw())
	s.PlayerHand.Add(t.shoe.Draw())
	s.DealerHand.Add(t.shoe.Draw())
	s.DealerHand.Add(t.shoe.Draw())
	t.sessions[player] = s

	t.logger.Info("Round started",
		"round", s.ID,
		"player", player,
		"bet", bet,
		"player_total", s.PlayerHand.Total())

	events := []Event{dealtEvent(s)}
	if s.PlayerHand.IsBlackjack() {
		s.Status = ResolvingDealer
		return t.settle(ctx, s, events, false, true)
	}

	s.Status = AwaitingPlayerAction
	s.guard = NewTimeoutGuard(t.clock, t.timeout, func(generation uint64) {
		t.expire(player, generation)
	})
	t.arm(s)
	return append(events, awaitingEvent(s)), nil
}

// Hit draws a card for player. A bust settles the round, 21 stands
// automatically, anything else restarts the action timer.
func (t *Table) Hit(ctx context.Context, player string) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.active(player)
	if err != nil {
		return nil, err
	}
	t.disarm(s)

	s.PlayerHand.Add(t.shoe.Draw())
	events := []Event{{
		Type:        EventPlayerHit,
		RoundID:     s.ID,
		Player:      s.Player,
		PlayerCards: s.PlayerHand.Cards(),
		PlayerTotal: s.PlayerHand.Total(),
	}}

	switch {
	case s.PlayerHand.IsBust():
		return t.settle(ctx, s, events, true, false)
	case s.PlayerHand.Total() == blackjackTotal:
		return t.stand(ctx, s, events)
	default:
		t.arm(s)
		return append(events, awaitingEvent(s)), nil
	}
}

// Stand ends the player's turn, plays the dealer and settles the round
func (t *Table) Stand(ctx context.Context, player string) ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, err := t.active(player)
	if err != nil {
		return nil, err
	}
	t.disarm(s)
	return t.stand(ctx, s, nil)
}

// Balance reports player's chips without touching any round
func (t *Table) Balance(ctx context.Context, player string) ([]Event, error) {
	balance, err := t.bank.Balance(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("read balance for %s: %w", player, err)
	}
	return []Event{{Type: EventBalance, Player: player, Balance: balance}}, nil
}

// Snapshot returns a copy of player's live session
func (t *Table) Snapshot(player string) (SessionSnapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[player]
	if !ok {
		return SessionSnapshot{}, false
	}
	return s.snapshot(), true
}

// ActiveSessions returns the number of rounds in progress
func (t *Table) ActiveSessions() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Close stops every action timer. Rounds still in progress keep their
// debited bets.
func (t *Table) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for _, s := range t.sessions {
		t.disarm(s)
	}
	if n := len(t.sessions); n > 0 {
		t.logger.Warn("Table closed with rounds in progress", "sessions", n)
	}
}

func (t *Table) active(player string) (*Session, error) {
	s, ok := t.sessions[player]
	if !ok || s.Status != AwaitingPlayerAction {
		return nil, fmt.Errorf("%w: %s", ErrNotInSession, player)
	}
	return s, nil
}

// arm stamps the session with a fresh generation and schedules its timer
func (t *Table) arm(s *Session) {
	t.generation++
	s.generation = t.generation
	s.Deadline = s.guard.Arm(s.generation)
}

// disarm stops the timer and clears the generation so a callback that is
// already in flight no longer matches.
func (t *Table) disarm(s *Session) {
	if s.guard != nil {
		s.guard.Cancel()
	}
	s.generation = 0
}

func (t *Table) stand(ctx context.Context, s *Session, events []Event) ([]Event, error) {
	s.Status = ResolvingDealer
	events = append(events, cardsEvent(EventStand, s))

	for s.DealerHand.Total() < DealerStandTotal {
		s.DealerHand.Add(t.shoe.Draw())
		events = append(events, cardsEvent(EventDealerHit, s))
	}
	return t.settle(ctx, s, events, false, false)
}

func (t *Table) settle(ctx context.Context, s *Session, events []Event, busted, blackjack bool) ([]Event, error) {
	outcome := Resolve(s.PlayerHand, s.DealerHand, s.Bet, busted, blackjack)
	return t.finish(ctx, s, events, outcome)
}

// finish removes the session and pays out. The session is gone even when
// payout fails; that error is fatal to the caller.
func (t *Table) finish(ctx context.Context, s *Session, events []Event, outcome Outcome) ([]Event, error) {
	s.Status = Resolved
	t.disarm(s)
	delete(t.sessions, s.Player)

	balance, err := t.payout(ctx, s.Player, outcome.Delta)
	if err != nil {
		t.logger.Error("Failed to settle round", "round", s.ID, "player", s.Player, "error", err)
		return events, fmt.Errorf("settle round %s: %w", s.ID, err)
	}

	result := s.result(outcome.Kind, outcome.Delta, balance)
	t.logger.Info("Round resolved",
		"round", s.ID,
		"player", s.Player,
		"result", outcome.Kind,
		"bet", s.Bet,
		"credit", outcome.Delta,
		"balance", balance,
		"player_total", result.PlayerTotal,
		"dealer_total", result.DealerTotal)

	return append(events, resolvedEvent(result)), nil
}

func (t *Table) payout(ctx context.Context, player string, delta int64) (int64, error) {
	if delta > 0 {
		return t.bank.Credit(ctx, player, delta)
	}
	if err := t.bank.Flush(ctx); err != nil {
		return 0, err
	}
	return t.bank.Balance(ctx, player)
}

// expire forfeits player's round if generation is still the armed one
func (t *Table) expire(player string, generation uint64) {
	t.mu.Lock()
	s, ok := t.sessions[player]
	if t.closed || !ok || s.generation != generation || s.Status != AwaitingPlayerAction {
		t.mu.Unlock()
		t.logger.Debug("Ignoring stale action timeout", "player", player, "generation", generation)
		return
	}

	t.logger.Warn("Action timeout, forfeiting round", "round", s.ID, "player", player, "bet", s.Bet)
	events, err := t.finish(context.Background(), s, nil, Outcome{Kind: Forfeit})
	handler := t.onTimeout
	t.mu.Unlock()

	if handler != nil {
		handler(events, err)
	}
}

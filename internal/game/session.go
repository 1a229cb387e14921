package game

import (
	"time"

	"github.com/lox/blackjackbot/internal/deck"
)

// Status is where a session is in the round lifecycle
type Status int

const (
	Idle Status = iota
	AwaitingBet
	AwaitingPlayerAction
	ResolvingDealer
	Resolved
)

// String returns the string representation of a status
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingBet:
		return "awaiting_bet"
	case AwaitingPlayerAction:
		return "awaiting_player_action"
	case ResolvingDealer:
		return "resolving_dealer"
	case Resolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Session is one player's round at the table. It is owned by the Table and
// only touched with the table lock held.
type Session struct {
	ID         string
	Player     string
	Bet        int64
	PlayerHand Hand
	DealerHand Hand
	Status     Status
	Deadline   time.Time

	generation uint64
	guard      *TimeoutGuard
}

// SessionSnapshot is a read-only copy of a live session
type SessionSnapshot struct {
	ID          string
	Player      string
	Bet         int64
	Status      Status
	PlayerCards []deck.Card
	PlayerTotal int
	DealerCards []deck.Card
	Deadline    time.Time
	Generation  uint64
}

func (s *Session) snapshot() SessionSnapshot {
	return SessionSnapshot{
		ID:          s.ID,
		Player:      s.Player,
		Bet:         s.Bet,
		Status:      s.Status,
		PlayerCards: s.PlayerHand.Cards(),
		PlayerTotal: s.PlayerHand.Total(),
		DealerCards: s.DealerHand.Cards(),
		Deadline:    s.Deadline,
		Generation:  s.generation,
	}
}

// result builds the settlement record for the session
func (s *Session) result(kind ResultKind, credit, balance int64) Result {
	return Result{
		RoundID:     s.ID,
		Player:      s.Player,
		Kind:        kind,
		Bet:         s.Bet,
		Credit:      credit,
		Balance:     balance,
		PlayerCards: s.PlayerHand.Cards(),
		DealerCards: s.DealerHand.Cards(),
		PlayerTotal: s.PlayerHand.Total(),
		DealerTotal: s.DealerHand.Total(),
	}
}

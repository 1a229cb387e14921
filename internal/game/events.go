package game

import (
	"time"

	"github.com/lox/blackjackbot/internal/deck"
)

// EventType represents a table event type with type safety
type EventType string

// EventType constants for table events
const (
	EventDealt          EventType = "dealt"
	EventPlayerHit      EventType = "player_hit"
	EventAwaitingAction EventType = "awaiting_action"
	EventStand          EventType = "stand"
	EventDealerHit      EventType = "dealer_hit"
	EventResolved       EventType = "resolved"
	EventBalance        EventType = "balance"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event is one structured step of a round, in the order it happened.
// Fields not relevant to the Type are left zero.
type Event struct {
	Type        EventType
	RoundID     string
	Player      string
	PlayerCards []deck.Card
	PlayerTotal int
	DealerCards []deck.Card // only the up card for EventDealt
	DealerTotal int
	Deadline    time.Time
	Balance     int64
	Result      *Result
}

func cardsEvent(et EventType, s *Session) Event {
	return Event{
		Type:        et,
		RoundID:     s.ID,
		Player:      s.Player,
		PlayerCards: s.PlayerHand.Cards(),
		PlayerTotal: s.PlayerHand.Total(),
		DealerCards: s.DealerHand.Cards(),
		DealerTotal: s.DealerHand.Total(),
	}
}

func dealtEvent(s *Session) Event {
	ev := cardsEvent(EventDealt, s)
	ev.DealerCards = ev.DealerCards[:1]
	ev.DealerTotal = ev.DealerCards[0].Value()
	return ev
}

func awaitingEvent(s *Session) Event {
	return Event{
		Type:        EventAwaitingAction,
		RoundID:     s.ID,
		Player:      s.Player,
		PlayerTotal: s.PlayerHand.Total(),
		Deadline:    s.Deadline,
	}
}

func resolvedEvent(r Result) Event {
	return Event{
		Type:        EventResolved,
		RoundID:     r.RoundID,
		Player:      r.Player,
		PlayerCards: r.PlayerCards,
		PlayerTotal: r.PlayerTotal,
		DealerCards: r.DealerCards,
		DealerTotal: r.DealerTotal,
		Balance:     r.Balance,
		Result:      &r,
	}
}

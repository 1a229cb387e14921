package game

import "github.com/lox/blackjackbot/internal/deck"

// ResultKind is how a round ended
type ResultKind int

const (
	Bust ResultKind = iota
	Blackjack
	DealerBust
	Win
	Lose
	Push
	Forfeit
)

// String returns the lower-case name of the result
func (k ResultKind) String() string {
	switch k {
	case Bust:
		return "bust"
	case Blackjack:
		return "blackjack"
	case DealerBust:
		return "dealer_bust"
	case Win:
		return "win"
	case Lose:
		return "lose"
	case Push:
		return "push"
	case Forfeit:
		return "forfeit"
	default:
		return "unknown"
	}
}

// PlayerWins reports whether the result pays the player more than the bet back
func (k ResultKind) PlayerWins() bool {
	return k == Blackjack || k == DealerBust || k == Win
}

// Outcome is the settlement of a round. Delta is credited to the balance that
// already had the bet taken off.
type Outcome struct {
	Kind  ResultKind
	Delta int64
}

// Resolve settles a finished round. Conditions are checked in order: player
// bust, player blackjack, dealer bust, higher total, lower total, tie.
func Resolve(player, dealer Hand, bet int64, busted, blackjack bool) Outcome {
	switch {
	case busted:
		return Outcome{Kind: Bust}
	case blackjack:
		return Outcome{Kind: Blackjack, Delta: bet + blackjackWinnings(bet)}
	case dealer.Total() > blackjackTotal:
		return Outcome{Kind: DealerBust, Delta: bet + bet}
	case player.Total() > dealer.Total():
		return Outcome{Kind: Win, Delta: bet + bet}
	case dealer.Total() > player.Total():
		return Outcome{Kind: Lose}
	default:
		return Outcome{Kind: Push, Delta: bet}
	}
}

// blackjackWinnings pays 3:2 rounded down
func blackjackWinnings(bet int64) int64 {
	return bet + bet/2
}

// Result is the structured record of a resolved round
type Result struct {
	RoundID     string
	Player      string
	Kind        ResultKind
	Bet         int64
	Credit      int64 // amount returned to the balance at settlement
	Balance     int64 // balance after settlement
	PlayerCards []deck.Card
	DealerCards []deck.Card
	PlayerTotal int
	DealerTotal int
}

// Net returns the player's gain (or loss, when negative) for the round
func (r Result) Net() int64 {
	return r.Credit - r.Bet
}

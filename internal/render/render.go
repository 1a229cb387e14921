// Package render turns table events and errors into chat lines.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lox/blackjackbot/internal/deck"
	"github.com/lox/blackjackbot/internal/game"
)

// Formatter renders lines for one channel
type Formatter struct {
	// Prefix is shown in usage hints, e.g. "!"
	Prefix string
}

// New returns a formatter that advertises commands with prefix
func New(prefix string) *Formatter {
	return &Formatter{Prefix: prefix}
}

// Welcome is announced when the bot joins the channel
func (f *Formatter) Welcome() string {
	return fmt.Sprintf("Blackjack bot is online. Type `%sstartgame [bet]` to play.", f.Prefix)
}

// Events renders events in order
func (f *Formatter) Events(events []game.Event) []string {
	var lines []string
	for _, ev := range events {
		lines = append(lines, f.Event(ev)...)
	}
	return lines
}

// Event renders a single event
func (f *Formatter) Event(ev game.Event) []string {
	switch ev.Type {
	case game.EventDealt:
		return []string{
			fmt.Sprintf("Game started! %s's hand: %s.", ev.Player, hand(ev.PlayerCards, ev.PlayerTotal)),
			fmt.Sprintf("Dealer's up card: %s.", upCard(ev.DealerCards)),
		}
	case game.EventPlayerHit:
		return []string{fmt.Sprintf("%s's hand: %s.", ev.Player, hand(ev.PlayerCards, ev.PlayerTotal))}
	case game.EventAwaitingAction:
		return []string{fmt.Sprintf("%s, do you want to `%shit` or `%sstand`?", ev.Player, f.Prefix, f.Prefix)}
	case game.EventStand:
		return []string{fmt.Sprintf("%s stands. Dealer's turn.", ev.Player)}
	case game.EventDealerHit:
		return []string{fmt.Sprintf("Dealer hits. Dealer's hand: %s", hand(ev.DealerCards, ev.DealerTotal))}
	case game.EventBalance:
		return []string{fmt.Sprintf("%s, you have %d chips.", ev.Player, ev.Balance)}
	case game.EventResolved:
		if ev.Result == nil {
			return nil
		}
		return f.Result(*ev.Result)
	default:
		return nil
	}
}

// Result renders the closing lines of a round
func (f *Formatter) Result(r game.Result) []string {
	if r.Kind == game.Forfeit {
		return []string{
			fmt.Sprintf("%s timed out. Game forfeited and bet lost.", r.Player),
			balanceLine(r),
		}
	}
	return []string{
		fmt.Sprintf("Final hands -> %s: %s | Dealer: %s",
			r.Player, hand(r.PlayerCards, r.PlayerTotal), hand(r.DealerCards, r.DealerTotal)),
		Outcome(r),
		balanceLine(r),
	}
}

// Outcome describes who won a round and what it paid
func Outcome(r game.Result) string {
	switch r.Kind {
	case game.Bust:
		return fmt.Sprintf("%s busted! Dealer wins. You lose %d chips.", r.Player, r.Bet)
	case game.Blackjack:
		return fmt.Sprintf("%s has Blackjack! You win %d chips.", r.Player, r.Net())
	case game.DealerBust:
		return fmt.Sprintf("Dealer busted! %s wins %d chips.", r.Player, r.Net())
	case game.Win:
		return fmt.Sprintf("%s wins! You win %d chips.", r.Player, r.Net())
	case game.Lose:
		return fmt.Sprintf("Dealer wins! %s loses %d chips.", r.Player, r.Bet)
	case game.Push:
		return fmt.Sprintf("It's a push (tie). Your bet of %d chips is returned.", r.Bet)
	case game.Forfeit:
		return fmt.Sprintf("%s forfeited %d chips.", r.Player, r.Bet)
	default:
		return fmt.Sprintf("Round %s ended.", r.RoundID)
	}
}

// Error renders a player-facing failure. It returns "" for errors that are
// not meant for the channel.
func (f *Formatter) Error(player string, err error) string {
	var funds *game.FundsError
	switch {
	case errors.As(err, &funds):
		return fmt.Sprintf("%s, you don't have enough chips. Balance: %d", player, funds.Balance)
	case errors.Is(err, game.ErrInvalidBet):
		return fmt.Sprintf("Invalid bet amount. Usage: `%sstartgame [amount]`", f.Prefix)
	case errors.Is(err, game.ErrInsufficientFunds):
		return fmt.Sprintf("%s, you don't have enough chips for that bet.", player)
	case errors.Is(err, game.ErrSessionBusy):
		return fmt.Sprintf("%s, your game is already in progress.", player)
	case errors.Is(err, game.ErrNotInSession):
		return fmt.Sprintf("%s, you are not in the current game. Use `%sstartgame` to play.", player, f.Prefix)
	default:
		return ""
	}
}

func balanceLine(r game.Result) string {
	return fmt.Sprintf("%s's new balance is %d chips.", r.Player, r.Balance)
}

func hand(cards []deck.Card, total int) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%s (Value: %d)", strings.Join(parts, ", "), total)
}

func upCard(cards []deck.Card) string {
	if len(cards) == 0 {
		return "?"
	}
	return cards[0].String()
}

package game

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultCommandPrefix is the marker chat commands start with
const DefaultCommandPrefix = "!"

// CommandKind identifies a recognised chat command
type CommandKind int

const (
	CommandNone CommandKind = iota
	CommandStart
	CommandHit
	CommandStand
	CommandBalance
)

// String returns the canonical command word
func (k CommandKind) String() string {
	switch k {
	case CommandStart:
		return "start"
	case CommandHit:
		return "hit"
	case CommandStand:
		return "stand"
	case CommandBalance:
		return "balance"
	default:
		return "none"
	}
}

// Command is a parsed chat line
type Command struct {
	Kind CommandKind
	Bet  int64
}

var commandWords = map[string]CommandKind{
	"start":     CommandStart,
	"startgame": CommandStart,
	"bj":        CommandStart,
	"hit":       CommandHit,
	"stand":     CommandStand,
	"balance":   CommandBalance,
}

// ParseCommand turns a chat line into a Command. The first word must carry
// prefix unless prefix is empty. Unrecognised text yields CommandNone and no
// error so the caller can ignore it; a start with a missing, malformed or
// non-positive bet yields CommandStart and an error wrapping ErrInvalidBet.
func ParseCommand(text, prefix string) (Command, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) == 0 {
		return Command{}, nil
	}

	word, ok := strings.CutPrefix(fields[0], strings.ToLower(prefix))
	if !ok {
		return Command{}, nil
	}

	kind, ok := commandWords[word]
	if !ok {
		return Command{}, nil
	}

	cmd := Command{Kind: kind}
	if kind != CommandStart {
		return cmd, nil
	}

	if len(fields) < 2 {
		return cmd, fmt.Errorf("%w: missing amount", ErrInvalidBet)
	}
	bet, err := ParseBet(fields[1])
	if err != nil {
		return cmd, err
	}
	cmd.Bet = bet
	return cmd, nil
}

// ParseBet parses a wager, which must be a positive integer
func ParseBet(s string) (int64, error) {
	bet, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidBet, s)
	}
	if bet <= 0 {
		return 0, fmt.Errorf("%w: must be positive, got %d", ErrInvalidBet, bet)
	}
	return bet, nil
}

package game

import (
	"errors"
	"fmt"
)

// Player-facing failures. None of them change table or balance state.
var (
	ErrInvalidBet        = errors.New("invalid bet")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSessionBusy       = errors.New("round already in progress")
	ErrNotInSession      = errors.New("not in a round")
)

// IsPlayerError reports whether err is one of the player-facing failures
// above. Anything else coming out of a Table is fatal to the round.
func IsPlayerError(err error) bool {
	return errors.Is(err, ErrInvalidBet) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrSessionBusy) ||
		errors.Is(err, ErrNotInSession)
}

// FundsError is returned when a bet is larger than the player's balance. It
// matches ErrInsufficientFunds.
type FundsError struct {
	Bet     int64
	Balance int64
}

func (e *FundsError) Error() string {
	return fmt.Sprintf("%s: bet %d exceeds balance %d", ErrInsufficientFunds, e.Bet, e.Balance)
}

func (e *FundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// Package ledger keeps player chip balances and persists them after every
// mutation.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/charmbracelet/log"
)

// DefaultStartingBalance is credited to a player the first time they are seen
const DefaultStartingBalance int64 = 10000

var (
	// ErrPersistence marks a failed load or save. Once a save fails the
	// ledger refuses all further work.
	ErrPersistence = errors.New("balance persistence failed")

	// ErrInsufficientFunds is returned by Debit when the balance is too low
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAmount is returned for negative or zero mutations
	ErrInvalidAmount = errors.New("amount must be positive")
)

// Store loads and saves the full identity to balance mapping
type Store interface {
	Load(ctx context.Context) (map[string]int64, error)
	Save(ctx context.Context, balances map[string]int64) error
	Close() error
}

// Ledger is a concurrency-safe balance book backed by a Store
type Ledger struct {
	mu       sync.Mutex
	store    Store
	balances map[string]int64
	starting int64
	failed   error
	logger   *log.Logger
}

// Open loads the store's snapshot. A non-positive startingBalance uses
// DefaultStartingBalance.
func Open(ctx context.Context, store Store, startingBalance int64, logger *log.Logger) (*Ledger, error) {
	if startingBalance <= 0 {
		startingBalance = DefaultStartingBalance
	}

	balances, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrPersistence, err)
	}
	if balances == nil {
		balances = make(map[string]int64)
	}

	l := &Ledger{
		store:    store,
		balances: balances,
		starting: startingBalance,
		logger:   logger.WithPrefix("ledger"),
	}
	l.logger.Debug("Loaded balances", "players", len(balances))
	return l, nil
}

// Balance returns player's chips, opening an account with the starting
// balance on first reference.
func (l *Ledger) Balance(ctx context.Context, player string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failed != nil {
		return 0, l.failed
	}
	if balance, ok := l.balances[player]; ok {
		return balance, nil
	}

	l.balances[player] = l.starting
	l.logger.Info("Opened account", "player", player, "balance", l.starting)
	if err := l.save(ctx); err != nil {
		return 0, err
	}
	return l.starting, nil
}

// Debit removes amount from player's balance
func (l *Ledger) Debit(ctx context.Context, player string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: debit %d", ErrInvalidAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failed != nil {
		return 0, l.failed
	}
	balance := l.account(player)
	if amount > balance {
		return balance, fmt.Errorf("%w: debit %d from %d", ErrInsufficientFunds, amount, balance)
	}

	l.balances[player] = balance - amount
	if err := l.save(ctx); err != nil {
		return 0, err
	}
	return l.balances[player], nil
}

// Credit adds amount to player's balance
func (l *Ledger) Credit(ctx context.Context, player string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: credit %d", ErrInvalidAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failed != nil {
		return 0, l.failed
	}
	l.balances[player] = l.account(player) + amount
	if err := l.save(ctx); err != nil {
		return 0, err
	}
	return l.balances[player], nil
}

// Flush writes the current balances to the store
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failed != nil {
		return l.failed
	}
	return l.save(ctx)
}

// Snapshot returns a copy of every balance
func (l *Ledger) Snapshot() map[string]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return maps.Clone(l.balances)
}

// Err returns the persistence failure that stopped the ledger, if any
func (l *Ledger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failed
}

// Close flushes and releases the store. The store is closed even if the
// final flush fails.
func (l *Ledger) Close(ctx context.Context) error {
	flushErr := l.Flush(ctx)
	if err := l.store.Close(); err != nil {
		return errors.Join(flushErr, fmt.Errorf("close store: %w", err))
	}
	return flushErr
}

func (l *Ledger) account(player string) int64 {
	balance, ok := l.balances[player]
	if !ok {
		balance = l.starting
		l.balances[player] = balance
	}
	return balance
}

// save persists a copy of the balances; a failure is sticky
func (l *Ledger) save(ctx context.Context) error {
	if err := l.store.Save(ctx, maps.Clone(l.balances)); err != nil {
		l.failed = fmt.Errorf("%w: save: %v", ErrPersistence, err)
		l.logger.Error("Failed to persist balances", "error", err)
		return l.failed
	}
	return nil
}

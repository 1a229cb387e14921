package ledger

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLedger(t *testing.T, initial map[string]int64) (*Ledger, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore(initial)
	l, err := Open(context.Background(), store, 0, log.New(io.Discard))
	require.NoError(t, err)
	return l, store
}

func TestBalanceOpensAccount(t *testing.T) {
	ctx := context.Background()
	l, store := openTestLedger(t, nil)

	balance, err := l.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, DefaultStartingBalance, balance)
	assert.Equal(t, 1, store.Saves(), "new account is persisted")

	_, err = l.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, store.Saves(), "reading an existing account does not save")
}

func TestDebitAndCredit(t *testing.T) {
	ctx := context.Background()
	l, store := openTestLedger(t, map[string]int64{"bob": 1000})

	balance, err := l.Debit(ctx, "bob", 400)
	require.NoError(t, err)
	assert.Equal(t, int64(600), balance)

	balance, err = l.Credit(ctx, "bob", 800)
	require.NoError(t, err)
	assert.Equal(t, int64(1400), balance)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1400), loaded["bob"])
}

func TestDebitRejectsOverdraw(t *testing.T) {
	ctx := context.Background()
	l, store := openTestLedger(t, map[string]int64{"bob": 100})

	_, err := l.Debit(ctx, "bob", 101)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(100), l.Snapshot()["bob"])
	assert.Zero(t, store.Saves())
}

func TestRejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	l, _ := openTestLedger(t, nil)

	_, err := l.Debit(ctx, "carol", 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = l.Credit(ctx, "carol", -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSaveFailureIsSticky(t *testing.T) {
	ctx := context.Background()
	l, store := openTestLedger(t, map[string]int64{"dave": 500})

	store.FailSaves(errors.New("disk full"))
	_, err := l.Debit(ctx, "dave", 100)
	require.ErrorIs(t, err, ErrPersistence)

	// Recovery of the store does not revive the ledger.
	store.FailSaves(nil)
	_, err = l.Balance(ctx, "dave")
	assert.ErrorIs(t, err, ErrPersistence)
	_, err = l.Credit(ctx, "dave", 1)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, l.Flush(ctx), ErrPersistence)
	assert.ErrorIs(t, l.Err(), ErrPersistence)
}

type failingLoadStore struct{ MemoryStore }

func (f *failingLoadStore) Load(context.Context) (map[string]int64, error) {
	return nil, errors.New("corrupt")
}

func TestOpenLoadFailure(t *testing.T) {
	_, err := Open(context.Background(), &failingLoadStore{}, 0, log.New(io.Discard))
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestCloseFlushes(t *testing.T) {
	ctx := context.Background()
	l, store := openTestLedger(t, map[string]int64{"erin": 10})

	require.NoError(t, l.Close(ctx))
	assert.Equal(t, 1, store.Saves())
}

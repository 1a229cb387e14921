package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjackbot/internal/config"
	"github.com/lox/blackjackbot/internal/deck"
	"github.com/lox/blackjackbot/internal/game"
	"github.com/lox/blackjackbot/internal/ledger"
	"github.com/lox/blackjackbot/internal/randutil"
	"github.com/lox/blackjackbot/internal/storage/jsonstore"
	"github.com/lox/blackjackbot/internal/storage/sqlitestore"
)

// loadConfig reads the config file and applies global flag overrides
func (g *Globals) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.Debug {
		cfg.Log.Level = "debug"
	}
	if g.Seed != nil {
		cfg.Game.Seed = g.Seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger builds the root logger. When the config names a file, or the
// terminal belongs to a UI, logs go there instead of stderr.
func setupLogger(cfg config.LogConfig, fallback io.Writer) (*log.Logger, func(), error) {
	out := fallback
	closer := func() {}

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = func() { _ = f.Close() }
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("parse log level: %w", err)
	}

	opts := log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}
	switch cfg.Format {
	case "json":
		opts.Formatter = log.JSONFormatter
	case "logfmt":
		opts.Formatter = log.LogfmtFormatter
	}

	return log.NewWithOptions(out, opts), closer, nil
}

// signalContext is cancelled on interrupt signals
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// openStore opens the configured balance store
func openStore(cfg config.StorageConfig) (ledger.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := sqlitestore.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverJSON:
		store, err := jsonstore.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// openLedger opens the store and loads balances from it
func openLedger(ctx context.Context, cfg *config.Config, logger *log.Logger) (*ledger.Ledger, error) {
	store, err := openStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	l, err := ledger.Open(ctx, store, cfg.Game.StartingBalance, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	logger.Info("Opened balances", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)
	return l, nil
}

// newTable builds a table over a freshly shuffled shoe
func newTable(cfg *config.Config, bank game.Bank, logger *log.Logger, onTimeout game.TimeoutHandler) (*game.Table, error) {
	timeout, err := cfg.Game.Timeout()
	if err != nil {
		return nil, err
	}

	seed := randutil.Seed(cfg.Game.Seed)
	logger.Info("Shuffling shoe", "decks", cfg.Game.Decks, "seed", seed)
	shoe := deck.NewShoe(cfg.Game.Decks, randutil.New(seed))

	return game.NewTable(bank, shoe, logger,
		game.WithActionTimeout(timeout),
		game.WithTimeoutHandler(onTimeout),
	), nil
}

// closeLedger flushes balances on the way out
func closeLedger(l *ledger.Ledger, logger *log.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Close(ctx); err != nil {
		logger.Error("Failed to close balances", "error", err)
		return err
	}
	return nil
}

func defaultNick() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "player"
}

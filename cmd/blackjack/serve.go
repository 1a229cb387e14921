package main

import (
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjackbot/internal/bot"
	"github.com/lox/blackjackbot/internal/game"
	"github.com/lox/blackjackbot/internal/server"
)

// ServeCmd hosts the WebSocket room and runs the bot in it
type ServeCmd struct {
	Addr string `short:"a" help:"Server address to bind to (overrides config)"`
	Port int    `short:"p" help:"Server port (overrides config)"`
}

func (c *ServeCmd) Run(g *Globals) (err error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}

	logger, closeLog, err := setupLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext(logger)
	defer cancel()

	balances, err := openLedger(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, closeLedger(balances, logger))
	}()

	room := server.NewServer(cfg.ServerAddress(), cfg.Bot.Nick, logger)

	var b *bot.Bot
	table, err := newTable(cfg, balances, logger, func(events []game.Event, err error) {
		b.HandleTimeout(events, err)
	})
	if err != nil {
		return err
	}
	b = bot.New(table, room, cfg.Bot.Prefix, logger)

	logger.Info("Starting blackjack room",
		"addr", cfg.ServerAddress(),
		"nick", cfg.Bot.Nick,
		"prefix", cfg.Bot.Prefix,
		"storage", cfg.Storage.Driver)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return room.ListenAndServe(gctx)
	})
	group.Go(func() error {
		defer room.Stop()
		return b.Run(gctx)
	})

	return group.Wait()
}

package main

import (
	"errors"
	"os"

	"github.com/lox/blackjackbot/internal/bot"
	"github.com/lox/blackjackbot/internal/chat"
	"github.com/lox/blackjackbot/internal/console"
	"github.com/lox/blackjackbot/internal/game"
)

// PlayCmd plays a local game over stdin and stdout
type PlayCmd struct {
	Nick string `short:"n" help:"Player name (defaults to $USER)"`
}

func (c *PlayCmd) Run(g *Globals) (err error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	nick := c.Nick
	if nick == "" {
		nick = defaultNick()
	}
	if err := chat.ValidateNick(nick); err != nil {
		return err
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

	var b *bot.Bot
	table, err := newTable(cfg, balances, logger, func(events []game.Event, err error) {
		b.HandleTimeout(events, err)
	})
	if err != nil {
		return err
	}

	term := console.New(nick, os.Stdin, os.Stdout)
	b = bot.New(table, term, cfg.Bot.Prefix, logger)
	return b.Run(ctx)
}

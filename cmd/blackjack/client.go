package main

import (
	"io"
	"strings"

	"github.com/lox/blackjackbot/internal/chat"
	"github.com/lox/blackjackbot/internal/client"
)

// ClientCmd joins a room in a terminal UI
type ClientCmd struct {
	Server string `default:"http://localhost:8080" help:"Room server URL"`
	Nick   string `short:"n" help:"Display name (defaults to $USER)"`
}

func (c *ClientCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	nick := strings.TrimSpace(c.Nick)
	if nick == "" {
		nick = defaultNick()
	}
	if err := chat.ValidateNick(nick); err != nil {
		return err
	}

	// The UI owns the terminal; logs only go to a configured file.
	logger, closeLog, err := setupLogger(cfg.Log, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, cancel := signalContext(logger)
	defer cancel()

	return client.Run(ctx, client.NewClient(strings.TrimSpace(c.Server), nick, logger), logger)
}

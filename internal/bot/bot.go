// Package bot plays blackjack in a chat channel: it reads player lines from a
// transport, drives the table and sends the rendered results back.
package bot

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjackbot/internal/chat"
	"github.com/lox/blackjackbot/internal/game"
	"github.com/lox/blackjackbot/internal/render"
)

// Transport is a chat channel
type Transport interface {
	Events() <-chan chat.Event
	Send(ctx context.Context, text string) error
}

// Table is the game the bot drives
type Table interface {
	Handle(ctx context.Context, player string, cmd game.Command) ([]game.Event, error)
	Close()
}

type forfeit struct {
	events []game.Event
	err    error
}

// Bot serialises chat commands onto a table
type Bot struct {
	table     Table
	transport Transport
	format    *render.Formatter
	prefix    string
	logger    *log.Logger
	forfeits  chan forfeit
	done      chan struct{}
}

// New creates a bot. prefix is the command marker, e.g. "!".
func New(table Table, transport Transport, prefix string, logger *log.Logger) *Bot {
	return &Bot{
		table:     table,
		transport: transport,
		format:    render.New(prefix),
		prefix:    prefix,
		logger:    logger.WithPrefix("bot"),
		forfeits:  make(chan forfeit, 16),
		done:      make(chan struct{}),
	}
}

// HandleTimeout queues the events of a round forfeited by its action timer.
// It is meant to be passed to game.WithTimeoutHandler.
func (b *Bot) HandleTimeout(events []game.Event, err error) {
	select {
	case b.forfeits <- forfeit{events: events, err: err}:
	case <-b.done:
		b.logger.Warn("Dropping forfeit after shutdown", "error", err)
	}
}

// Run processes chat lines until ctx is cancelled or the transport closes.
// A failure to persist balances stops Run with that error.
func (b *Bot) Run(ctx context.Context) error {
	defer close(b.done)
	defer b.table.Close()

	b.say(ctx, b.format.Welcome())
	b.logger.Info("Bot is running", "prefix", b.prefix)

	events := b.transport.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				b.logger.Info("Transport closed")
				return nil
			}
			if err := b.handle(ctx, ev); err != nil {
				return err
			}

		case f := <-b.forfeits:
			b.sayAll(ctx, b.format.Events(f.events))
			if f.err != nil {
				return fmt.Errorf("forfeit: %w", f.err)
			}

		case <-ctx.Done():
			return nil
		}
	}
}

func (b *Bot) handle(ctx context.Context, ev chat.Event) error {
	cmd, err := game.ParseCommand(ev.Text, b.prefix)
	if cmd.Kind == game.CommandNone {
		return nil
	}

	logger := b.logger.With("player", ev.Player, "command", cmd.Kind)
	if err != nil {
		// The table rejects the zero bet, after checking for a round in progress.
		logger.Debug("Malformed bet", "error", err)
	}
	logger.Debug("Handling command", "bet", cmd.Bet)

	events, err := b.table.Handle(ctx, ev.Player, cmd)
	b.sayAll(ctx, b.format.Events(events))
	if err == nil {
		return nil
	}
	if game.IsPlayerError(err) {
		logger.Debug("Command rejected", "error", err)
		b.say(ctx, b.format.Error(ev.Player, err))
		return nil
	}

	logger.Error("Command failed", "error", err)
	return fmt.Errorf("%s for %s: %w", cmd.Kind, ev.Player, err)
}

func (b *Bot) sayAll(ctx context.Context, lines []string) {
	for _, line := range lines {
		b.say(ctx, line)
	}
}

func (b *Bot) say(ctx context.Context, line string) {
	if line == "" {
		return
	}
	if err := b.transport.Send(ctx, line); err != nil {
		b.logger.Warn("Failed to send line", "error", err)
	}
}

// Package console is a single-player transport over a terminal: lines typed
// on stdin are commands, bot replies are printed with colour.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/blackjackbot/internal/chat"
)

// Console reads one player's lines and prints bot lines
type Console struct {
	player string
	out    io.Writer
	events chan chat.Event
	mu     sync.Mutex

	botStyle    lipgloss.Style
	winStyle    lipgloss.Style
	loseStyle   lipgloss.Style
	promptStyle lipgloss.Style
}

// New creates a console for player. Colours are chosen for out's terminal
// profile and dropped entirely when out is not a terminal.
func New(player string, in io.Reader, out io.Writer) *Console {
	r := lipgloss.NewRenderer(out, termenv.WithColorCache(true))

	c := &Console{
		player: player,
		out:    out,
		events: make(chan chat.Event),

		botStyle:    r.NewStyle().Foreground(lipgloss.Color("#FAFAFA")),
		winStyle:    r.NewStyle().Foreground(lipgloss.Color("#96CEB4")).Bold(true),
		loseStyle:   r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		promptStyle: r.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
	}
	go c.read(in)
	return c
}

// Events delivers typed lines; it is closed at end of input
func (c *Console) Events() <-chan chat.Event {
	return c.events
}

// Send prints a bot line
func (c *Console) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, c.style(text).Render(text))
	return err
}

func (c *Console) read(in io.Reader) {
	defer close(c.events)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		c.events <- chat.Event{Player: c.player, Text: line}
	}
}

func (c *Console) style(text string) lipgloss.Style {
	switch {
	case strings.Contains(text, "do you want to"):
		return c.promptStyle
	case strings.Contains(text, " wins!"),
		strings.Contains(text, "has Blackjack!"),
		strings.Contains(text, "Dealer busted!"):
		return c.winStyle
	case strings.Contains(text, "busted! Dealer wins"),
		strings.HasPrefix(text, "Dealer wins!"),
		strings.Contains(text, "timed out"):
		return c.loseStyle
	default:
		return c.botStyle
	}
}

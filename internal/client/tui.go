package client

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjackbot/internal/chat"
)

const sidebarWidth = 24

// Sender delivers a typed line to the room
type Sender interface {
	Say(text string) error
}

type incomingMsg struct{ msg *chat.Message }

type disconnectedMsg struct{}

// Model is the Bubble Tea model for the chat room
type Model struct {
	nick     string
	sender   Sender
	incoming <-chan *chat.Message
	logger   *log.Logger

	logViewport viewport.Model
	input       textinput.Model

	lines        []string
	players      map[string]bool
	balance      int64
	balanceKnown bool
	disconnected bool
	quitting     bool

	width  int
	height int
}

// NewModel creates a model for nick reading frames from incoming
func NewModel(nick string, sender Sender, incoming <-chan *chat.Message, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "!startgame 100, !hit, !stand, !balance"
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 80
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		nick:        nick,
		sender:      sender,
		incoming:    incoming,
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		input:       ti,
		players:     map[string]bool{nick: true},
	}
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForMessage())
}

func (m *Model) waitForMessage() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.incoming
		if !ok {
			return disconnectedMsg{}
		}
		return incomingMsg{msg: msg}
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case incomingMsg:
		m.receive(msg.msg)
		cmds = append(cmds, m.waitForMessage())

	case disconnectedMsg:
		m.disconnected = true
		m.appendLine(ErrorStyle.Render("Disconnected from server."))

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if text == "/quit" {
				m.quitting = true
				return m, tea.Quit
			}
			m.submit(text)
			return m, nil
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.logViewport, cmd = m.logViewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) submit(text string) {
	if text == "" {
		return
	}
	if m.disconnected {
		m.appendLine(ErrorStyle.Render("Not connected."))
		return
	}
	if err := m.sender.Say(text); err != nil {
		m.logger.Warn("Failed to send line", "error", err)
		m.appendLine(ErrorStyle.Render("Failed to send: " + err.Error()))
	}
}

var (
	newBalanceRe = regexp.MustCompile(`^(\S+)'s new balance is (\d+) chips\.$`)
	haveChipsRe  = regexp.MustCompile(`^(\S+), you have (\d+) chips\.$`)
)

func (m *Model) receive(msg *chat.Message) {
	switch msg.Type {
	case chat.MessageTypeJoin:
		m.players[msg.Nick] = true
		m.appendLine(InfoStyle.Render(fmt.Sprintf("* %s joined", msg.Nick)))

	case chat.MessageTypeLeave:
		delete(m.players, msg.Nick)
		m.appendLine(InfoStyle.Render(fmt.Sprintf("* %s left", msg.Nick)))

	case chat.MessageTypeError:
		m.appendLine(ErrorStyle.Render(msg.Text))

	case chat.MessageTypeSay:
		m.players[msg.Nick] = true
		m.trackBalance(msg.Text)

		nickStyle := NickStyle
		if msg.Nick == m.nick {
			nickStyle = SelfStyle
		}
		m.appendLine(nickStyle.Render(msg.Nick+":") + " " + BotStyle.Render(msg.Text))

	default:
		m.logger.Debug("Ignoring message", "type", msg.Type)
	}
}

// trackBalance picks our chip count out of bot announcements
func (m *Model) trackBalance(text string) {
	for _, re := range []*regexp.Regexp{newBalanceRe, haveChipsRe} {
		match := re.FindStringSubmatch(text)
		if match == nil || match[1] != m.nick {
			continue
		}
		if chips, err := strconv.ParseInt(match[2], 10, 64); err == nil {
			m.balance = chips
			m.balanceKnown = true
		}
		return
	}
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.logViewport.SetContent(strings.Join(m.lines, "\n"))
	m.logViewport.GotoBottom()
}

func (m *Model) resize() {
	w := m.width - sidebarWidth - 4
	h := m.height - 6
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	m.logViewport.Width = w
	m.logViewport.Height = h
	m.input.Width = max(m.width-6, 1)
	m.logViewport.GotoBottom()
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := HeaderStyle.Render(fmt.Sprintf(" Blackjack | %s ", m.nick))

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(m.logViewport.Width).
		Height(m.logViewport.Height).
		Render(m.logViewport.View())

	sidebar := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(m.logViewport.Height).
		Render(m.renderSidebar())

	inputPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(max(m.width-2, 1)).
		Render(m.input.View())

	top := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebar)
	return lipgloss.JoinVertical(lipgloss.Left, header, top, inputPane)
}

func (m *Model) renderSidebar() string {
	var b strings.Builder

	if m.balanceKnown {
		b.WriteString(SelfStyle.Render(fmt.Sprintf("Chips: %d", m.balance)))
	} else {
		b.WriteString(InfoStyle.Render("Chips: type !balance"))
	}
	b.WriteString("\n\n")
	b.WriteString(InfoStyle.Render("In the room:"))
	b.WriteString("\n")
	for _, nick := range m.Players() {
		b.WriteString("  " + nick + "\n")
	}
	return b.String()
}

// Players returns the nicks seen in the room, sorted
func (m *Model) Players() []string {
	nicks := make([]string, 0, len(m.players))
	for nick := range m.players {
		nicks = append(nicks, nick)
	}
	slices.Sort(nicks)
	return nicks
}

// Balance returns our last announced chip count
func (m *Model) Balance() (int64, bool) {
	return m.balance, m.balanceKnown
}

// Run connects c to its room and runs the TUI until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, c *Client, logger *log.Logger) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = c.Disconnect() }()

	model := NewModel(c.Nick(), c, c.Messages(), logger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

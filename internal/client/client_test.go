package client

import (
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackbot/internal/chat"
)

type fakeSender struct {
	said []string
	err  error
}

func (f *fakeSender) Say(text string) error {
	if f.err != nil {
		return f.err
	}
	f.said = append(f.said, text)
	return nil
}

func newTestModel(t *testing.T) (*Model, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	m := NewModel("alice", sender, make(chan *chat.Message), log.New(io.Discard))
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, sender
}

func (m *Model) transcript() string {
	return strings.Join(m.lines, "\n")
}

func TestRoomURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:8080", "ws://localhost:8080/ws?nick=alice"},
		{"https://example.com/some/path", "wss://example.com/ws?nick=alice"},
		{"ws://10.0.0.1:9000", "ws://10.0.0.1:9000/ws?nick=alice"},
	}
	for _, tt := range tests {
		got, err := RoomURL(tt.in, "alice")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := RoomURL("ftp://example.com", "alice")
	assert.Error(t, err)
	_, err = RoomURL("localhost:8080", "alice")
	assert.Error(t, err)
}

func TestEnterSendsLine(t *testing.T) {
	m, sender := newTestModel(t)

	m.input.SetValue("  !startgame 100 ")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"!startgame 100"}, sender.said)
	assert.Empty(t, m.input.Value())

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Len(t, sender.said, 1, "blank lines are not sent")
}

func TestSendFailureIsShown(t *testing.T) {
	m, sender := newTestModel(t)
	sender.err = errors.New("send buffer full")

	m.input.SetValue("!hit")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Contains(t, m.transcript(), "Failed to send: send buffer full")
}

func TestIncomingMessagesUpdateRoom(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := m.Update(incomingMsg{msg: chat.NewMessage(chat.MessageTypeJoin, "bob", "")})
	assert.NotNil(t, cmd, "keeps listening")
	m.Update(incomingMsg{msg: chat.NewMessage(chat.MessageTypeSay, "dealer", "bob, you have 10000 chips.")})
	m.Update(incomingMsg{msg: chat.NewMessage(chat.MessageTypeSay, "dealer", "alice's new balance is 9500 chips.")})
	m.Update(incomingMsg{msg: chat.NewMessage(chat.MessageTypeLeave, "bob", "")})

	assert.Equal(t, []string{"alice", "dealer"}, m.Players())
	balance, ok := m.Balance()
	assert.True(t, ok)
	assert.Equal(t, int64(9500), balance, "only our own balance is tracked")

	transcript := m.transcript()
	assert.Contains(t, transcript, "bob joined")
	assert.Contains(t, transcript, "alice's new balance is 9500 chips.")
	assert.Contains(t, transcript, "bob left")
}

func TestDisconnectBlocksInput(t *testing.T) {
	m, sender := newTestModel(t)

	m.Update(disconnectedMsg{})
	m.input.SetValue("!hit")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Empty(t, sender.said)
	assert.Contains(t, m.transcript(), "Disconnected from server.")
	assert.Contains(t, m.transcript(), "Not connected.")
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestViewShowsSidebar(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	assert.Contains(t, view, "Blackjack | alice")
	assert.Contains(t, view, "Chips: type !balance")
}

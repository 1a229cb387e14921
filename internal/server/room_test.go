package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjackbot/internal/chat"
)

func newTestRoom(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	room := NewServer("", "dealer", log.New(io.Discard))
	ts := httptest.NewServer(room.Handler())
	t.Cleanup(func() {
		room.Stop()
		ts.Close()
	})
	return room, ts
}

func dial(t *testing.T, ts *httptest.Server, nick string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?nick=" + nick
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads frames until one matches
func readUntil(t *testing.T, conn *websocket.Conn, match func(chat.Message) bool) chat.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg chat.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func isSay(nick, text string) func(chat.Message) bool {
	return func(m chat.Message) bool {
		return m.Type == chat.MessageTypeSay && m.Nick == nick && m.Text == text
	}
}

func waitForNicks(t *testing.T, room *Server, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(room.Nicks()) == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHealth(t *testing.T) {
	_, ts := newTestRoom(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestSayIsBroadcastAndDelivered(t *testing.T) {
	room, ts := newTestRoom(t)
	alice := dial(t, ts, "alice")
	bob := dial(t, ts, "bob")
	waitForNicks(t, room, 2)

	require.NoError(t, alice.WriteJSON(chat.Message{Type: chat.MessageTypeSay, Nick: "mallory", Text: "  !startgame 100 "}))

	select {
	case ev := <-room.Events():
		assert.Equal(t, chat.Event{Player: "alice", Text: "!startgame 100"}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("line was not delivered to the bot")
	}

	readUntil(t, bob, isSay("alice", "!startgame 100"))
}

func TestSendBroadcastsAsBot(t *testing.T) {
	room, ts := newTestRoom(t)
	alice := dial(t, ts, "alice")
	waitForNicks(t, room, 1)

	require.NoError(t, room.Send(context.Background(), "Game started!"))
	readUntil(t, alice, isSay("dealer", "Game started!"))
}

func TestNickRules(t *testing.T) {
	room, ts := newTestRoom(t)
	dial(t, ts, "alice")
	waitForNicks(t, room, 1)

	base := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	tests := map[string]struct {
		query  string
		status int
	}{
		"missing":   {"", http.StatusBadRequest},
		"duplicate": {"?nick=alice", http.StatusConflict},
		"bot nick":  {"?nick=dealer", http.StatusConflict},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(base+tt.query, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestDisconnectAnnouncesLeave(t *testing.T) {
	room, ts := newTestRoom(t)
	alice := dial(t, ts, "alice")
	bob := dial(t, ts, "bob")
	waitForNicks(t, room, 2)

	require.NoError(t, bob.Close())
	waitForNicks(t, room, 1)

	readUntil(t, alice, func(m chat.Message) bool {
		return m.Type == chat.MessageTypeLeave && m.Nick == "bob"
	})
}

func TestStopClosesEvents(t *testing.T) {
	room, _ := newTestRoom(t)
	room.Stop()

	_, ok := <-room.Events()
	assert.False(t, ok)
	assert.ErrorIs(t, room.Send(context.Background(), "hello"), ErrClosed)
}

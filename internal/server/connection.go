package server

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjackbot/internal/chat"
)

// Connection represents a WebSocket connection to one player
type Connection struct {
	conn      *websocket.Conn
	send      chan *chat.Message
	nick      string
	room      *Server
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	sendMu    sync.RWMutex
	closed    bool
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, nick string, room *Server, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *chat.Message, 256),
		nick:   nick,
		room:   room,
		logger: logger.WithPrefix("conn").With("nick", nick),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Nick returns the player's name
func (c *Connection) Nick() string {
	return c.nick
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// SendMessage queues msg for the client
func (c *Connection) SendMessage(msg *chat.Message) error {
	c.sendMu.RLock()
	if c.closed {
		c.sendMu.RUnlock()
		return ErrConnectionClosed
	}

	select {
	case c.send <- msg:
		c.sendMu.RUnlock()
		return nil
	default:
		c.sendMu.RUnlock()
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg chat.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *chat.Message) {
	c.logger.Debug("Received message", "type", msg.Type)

	switch msg.Type {
	case chat.MessageTypeSay:
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return
		}
		// The sender's nick is whatever the connection registered with.
		c.room.Broadcast(chat.NewMessage(chat.MessageTypeSay, c.nick, text))
		c.room.deliver(chat.Event{Player: c.nick, Text: text})

	default:
		c.sendError("Unknown message type: " + msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(text string) {
	_ = c.SendMessage(chat.NewMessage(chat.MessageTypeError, "", text))
}

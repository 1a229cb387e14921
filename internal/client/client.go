// Package client connects to a chat room and renders it in a terminal UI.
package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjackbot/internal/chat"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
)

// Client represents a WebSocket connection to a room
type Client struct {
	serverURL string
	nick      string
	conn      *websocket.Conn
	send      chan *chat.Message
	receive   chan *chat.Message
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewClient creates a client that joins serverURL as nick
func NewClient(serverURL, nick string, logger *log.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		serverURL: serverURL,
		nick:      nick,
		send:      make(chan *chat.Message, 256),
		receive:   make(chan *chat.Message, 256),
		logger:    logger.WithPrefix("client"),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Nick returns the name the client joined as
func (c *Client) Nick() string {
	return c.nick
}

// Connect establishes the WebSocket connection
func (c *Client) Connect(ctx context.Context) error {
	u, err := RoomURL(c.serverURL, c.nick)
	if err != nil {
		return err
	}
	c.logger.Info("Connecting to server", "url", u)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("failed to connect: %s: %w", resp.Status, err)
		}
		return fmt.Errorf("failed to connect: %w", err)
	}
	c.conn = conn

	go c.readPump()
	go c.writePump()

	c.logger.Info("Connected to server")
	return nil
}

// RoomURL turns an http(s) or ws(s) base URL into the room endpoint for nick
func RoomURL(serverURL, nick string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "http", "":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server URL %q has no host", serverURL)
	}

	u.Path = "/ws"
	u.RawQuery = url.Values{"nick": {nick}}.Encode()
	return u.String(), nil
}

// Messages delivers frames from the room; it is closed on disconnect
func (c *Client) Messages() <-chan *chat.Message {
	return c.receive
}

// Say sends a line to the room
func (c *Client) Say(text string) error {
	msg := chat.NewMessage(chat.MessageTypeSay, c.nick, text)
	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		return fmt.Errorf("send buffer full")
	}
}

// Disconnect closes the WebSocket connection. The write pump sends a close
// frame and tears down the socket, which ends the read pump.
func (c *Client) Disconnect() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.logger.Info("Disconnected from server")
	})
	return nil
}

// readPump handles incoming messages from the server
func (c *Client) readPump() {
	defer close(c.receive)
	defer func() { _ = c.Disconnect() }()

	for {
		var msg chat.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			return
		}

		c.logger.Debug("Received message", "type", msg.Type, "nick", msg.Nick)

		select {
		case c.receive <- &msg:
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump handles outgoing messages to the server
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
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
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Package server hosts a WebSocket chat room the bot plays in.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/blackjackbot/internal/chat"
)

var (
	ErrNickTaken = errors.New("nick already in use")
	ErrClosed    = errors.New("server closed")
)

const shutdownTimeout = 5 * time.Second

// Server is a single chat room. Every line a player says is broadcast to the
// room and delivered on Events; lines passed to Send are broadcast under the
// bot's nick.
type Server struct {
	addr        string
	botNick     string
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	unregister  chan *Connection
	events      chan chat.Event
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	closeOnce   sync.Once
}

// NewServer creates a room listening on addr
func NewServer(addr, botNick string, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr:    addr,
		botNick: botNick,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		unregister:  make(chan *Connection),
		events:      make(chan chat.Event, 64),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
	go s.run()
	return s
}

// Handler returns the room's HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// ListenAndServe serves the room until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting WebSocket server", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	case <-ctx.Done():
	}

	s.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Stop disconnects every client and closes Events
func (s *Server) Stop() {
	s.closeOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		for conn := range s.connections {
			_ = conn.Close()
			delete(s.connections, conn)
		}
		s.mu.Unlock()

		close(s.events)
	})
}

// Events delivers lines said by players
func (s *Server) Events() <-chan chat.Event {
	return s.events
}

// Send broadcasts text as the bot
func (s *Server) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.ctx.Err() != nil {
		return ErrClosed
	}
	s.Broadcast(chat.NewMessage(chat.MessageTypeSay, s.botNick, text))
	return nil
}

// Broadcast sends msg to every connection in the room
func (s *Server) Broadcast(msg *chat.Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for conn := range s.connections {
		if err := conn.SendMessage(msg); err != nil {
			s.logger.Error("Failed to send message to client", "error", err, "nick", conn.Nick())
		} else {
			count++
		}
	}

	s.logger.Debug("Broadcasted message", "type", msg.Type, "nick", msg.Nick, "recipients", count)
}

// Nicks returns the nicks of connected players
func (s *Server) Nicks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nicks := make([]string, 0, len(s.connections))
	for conn := range s.connections {
		nicks = append(nicks, conn.Nick())
	}
	return nicks
}

// run handles connection teardown
func (s *Server) run() {
	for {
		select {
		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			if ok {
				delete(s.connections, conn)
			}
			total := len(s.connections)
			s.mu.Unlock()

			if ok {
				_ = conn.Close()
				s.logger.Info("Client disconnected", "nick", conn.Nick(), "total", total)
				s.Broadcast(chat.NewMessage(chat.MessageTypeLeave, conn.Nick(), ""))
			}

		case <-s.ctx.Done():
			return
		}
	}
}

// register adds conn unless its nick is taken
func (s *Server) register(conn *Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return ErrClosed
	}
	if conn.Nick() == s.botNick {
		return ErrNickTaken
	}
	for other := range s.connections {
		if other.Nick() == conn.Nick() {
			return ErrNickTaken
		}
	}
	s.connections[conn] = true
	s.logger.Info("Client connected", "nick", conn.Nick(), "total", len(s.connections))
	return nil
}

// deliver hands a player's line to the bot
func (s *Server) deliver(ev chat.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Stop closes events under the write lock.
	if s.ctx.Err() != nil {
		return
	}
	select {
	case s.events <- ev:
	default:
		s.logger.Warn("Bot event buffer full, dropping line", "nick", ev.Player)
	}
}

// handleWebSocket upgrades /ws?nick=NAME requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	nick := r.URL.Query().Get("nick")
	if err := chat.ValidateNick(nick); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if s.hasNick(nick) {
		http.Error(w, ErrNickTaken.Error(), http.StatusConflict)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(ws, nick, s, s.logger)
	if err := s.register(client); err != nil {
		s.logger.Warn("Rejected connection", "nick", nick, "error", err)
		_ = ws.WriteJSON(chat.NewMessage(chat.MessageTypeError, "", err.Error()))
		_ = ws.Close()
		return
	}
	client.Start()
	s.Broadcast(chat.NewMessage(chat.MessageTypeJoin, nick, ""))

	go func() {
		<-client.ctx.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

func (s *Server) hasNick(nick string) bool {
	if nick == s.botNick {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.connections {
		if conn.Nick() == nick {
			return true
		}
	}
	return false
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

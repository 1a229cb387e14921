// Package chat defines the line-oriented chat protocol spoken between the
// room server, its clients and the bot.
package chat

import (
	"fmt"
	"strings"
	"time"
)

// MessageType represents a chat message type with type safety
type MessageType string

// Chat message type constants
const (
	MessageTypeSay   MessageType = "say"
	MessageTypeJoin  MessageType = "join"
	MessageTypeLeave MessageType = "leave"
	MessageTypeError MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message is the JSON frame exchanged over the WebSocket room
type Message struct {
	Type MessageType `json:"type"`
	Nick string      `json:"nick,omitempty"`
	Text string      `json:"text,omitempty"`
	Time time.Time   `json:"time"`
}

// NewMessage creates a message stamped with the current time
func NewMessage(mt MessageType, nick, text string) *Message {
	return &Message{
		Type: mt,
		Nick: nick,
		Text: text,
		Time: time.Now(),
	}
}

// Event is a line said by a player, as seen by the bot
type Event struct {
	Player string
	Text   string
}

// MaxNickLength bounds player names
const MaxNickLength = 32

// ValidateNick checks that nick can identify a player
func ValidateNick(nick string) error {
	switch {
	case nick == "":
		return fmt.Errorf("nick is required")
	case len(nick) > MaxNickLength:
		return fmt.Errorf("nick %q is longer than %d characters", nick, MaxNickLength)
	case strings.ContainsAny(nick, " \t\r\n"):
		return fmt.Errorf("nick %q contains whitespace", nick)
	}
	return nil
}

package game

import (
	"strings"

	"github.com/lox/blackjackbot/internal/deck"
)

const blackjackTotal = 21

// Hand is the cards held by one party. The total is recomputed from the cards
// on every Add so it can never drift from them. The zero value is an empty hand.
type Hand struct {
	cards    []deck.Card
	total    int
	softAces int
}

// NewHand returns a hand holding cards in order
func NewHand(cards ...deck.Card) Hand {
	var h Hand
	for _, c := range cards {
		h.Add(c)
	}
	return h
}

// Add appends a card and recomputes the total
func (h *Hand) Add(card deck.Card) {
	h.cards = append(h.cards, card)
	h.recompute()
}

// recompute counts every Ace as 11, then demotes them to 1 one at a time
// while the hand is over 21.
func (h *Hand) recompute() {
	total, soft := 0, 0
	for _, c := range h.cards {
		total += c.Value()
		if c.IsAce() {
			soft++
		}
	}
	for total > blackjackTotal && soft > 0 {
		total -= 10
		soft--
	}
	h.total = total
	h.softAces = soft
}

// Total returns the ace-adjusted total. It exceeds 21 only when the hand is bust.
func (h Hand) Total() int {
	return h.total
}

// SoftAces returns how many Aces are still counted as 11
func (h Hand) SoftAces() int {
	return h.softAces
}

// IsSoft reports whether at least one Ace is counted as 11
func (h Hand) IsSoft() bool {
	return h.softAces > 0
}

// IsBlackjack reports a two-card 21
func (h Hand) IsBlackjack() bool {
	return len(h.cards) == 2 && h.total == blackjackTotal
}

// IsBust reports a total over 21
func (h Hand) IsBust() bool {
	return h.total > blackjackTotal
}

// Len returns the number of cards in the hand
func (h Hand) Len() int {
	return len(h.cards)
}

// Cards returns a copy of the cards in deal order
func (h Hand) Cards() []deck.Card {
	cards := make([]deck.Card, len(h.cards))
	copy(cards, h.cards)
	return cards
}

// String lists the cards in long form, e.g. "Ace of Spades, 9 of Hearts"
func (h Hand) String() string {
	parts := make([]string, len(h.cards))
	for i, c := range h.cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}

package deck

import (
	rand "math/rand/v2"
)

const (
	// CardsPerDeck is the size of one standard deck
	CardsPerDeck = 52

	// DefaultDecks is the number of decks shuffled into a shoe by default
	DefaultDecks = 8

	// minCardsBeforeDraw is the low-water mark that triggers a fresh shuffle
	minCardsBeforeDraw = 2
)

// Shoe is a multi-deck stack of cards that reshuffles itself when it runs low.
// Cards are drawn from the end of the slice. A Shoe is not safe for concurrent use.
type Shoe struct {
	cards      []Card
	numDecks   int
	rng        *rand.Rand
	reshuffles int
}

// NewShoe builds numDecks full decks and shuffles them with rng.
// numDecks below 1 is treated as 1.
func NewShoe(numDecks int, rng *rand.Rand) *Shoe {
	if numDecks < 1 {
		numDecks = 1
	}
	if rng == nil {
		panic("rng is required for shoe creation")
	}

	s := &Shoe{
		cards:    make([]Card, 0, numDecks*CardsPerDeck),
		numDecks: numDecks,
		rng:      rng,
	}
	s.fill()
	return s
}

// fill rebuilds the full shoe and shuffles it
func (s *Shoe) fill() {
	s.cards = s.cards[:0] // Clear the slice but keep capacity
	for range s.numDecks {
		for _, suit := range Suits {
			for rank := Two; rank <= Ace; rank++ {
				s.cards = append(s.cards, NewCard(suit, rank))
			}
		}
	}
	s.shuffle()
}

// shuffle randomizes card order with Fisher-Yates
func (s *Shoe) shuffle() {
	for i := len(s.cards) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
}

// Draw removes and returns the top card. When fewer than two cards remain the
// shoe is rebuilt and reshuffled first, so Draw always returns a card.
func (s *Shoe) Draw() Card {
	if len(s.cards) < minCardsBeforeDraw {
		s.fill()
		s.reshuffles++
	}

	last := len(s.cards) - 1
	card := s.cards[last]
	s.cards = s.cards[:last]
	return card
}

// Remaining returns the number of cards left before the next reshuffle check
func (s *Shoe) Remaining() int {
	return len(s.cards)
}

// Size returns the number of cards in a freshly filled shoe
func (s *Shoe) Size() int {
	return s.numDecks * CardsPerDeck
}

// Reshuffles returns how many times the shoe has been rebuilt after running low
func (s *Shoe) Reshuffles() int {
	return s.reshuffles
}

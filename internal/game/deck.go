package game

import (
	"fmt"
	"math/rand"
)

// Deck is an ordered pile of cards. Index 0 is the top.
type Deck struct {
	cards []*Card
}

func NewDeck(cards ...*Card) *Deck {
	return &Deck{cards: append([]*Card(nil), cards...)}
}

func (d *Deck) Len() int { return len(d.cards) }

// Cards returns a copy of the pile, top first.
func (d *Deck) Cards() []*Card {
	return append([]*Card(nil), d.cards...)
}

// Add appends a card to the bottom.
func (d *Deck) Add(c *Card) {
	d.cards = append(d.cards, c)
}

// AddAll appends cards to the bottom in order.
func (d *Deck) AddAll(cards []*Card) {
	d.cards = append(d.cards, cards...)
}

// AddTop puts a card on top.
func (d *Deck) AddTop(c *Card) {
	d.cards = append([]*Card{c}, d.cards...)
}

// Draw removes and returns the top n cards. Drawing more than Len is a
// precondition violation.
func (d *Deck) Draw(n int) ([]*Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("%w: draw %d from a deck of %d", ErrInvalidOperation, n, len(d.cards))
	}
	out := append([]*Card(nil), d.cards[:n]...)
	d.cards = append(d.cards[:0:0], d.cards[n:]...)
	return out, nil
}

// Peek returns the top card without removing it, or nil.
func (d *Deck) Peek() *Card {
	if len(d.cards) == 0 {
		return nil
	}
	return d.cards[0]
}

// RemoveFirst removes and returns the first card of the given type.
func (d *Deck) RemoveFirst(t CardType) (*Card, bool) {
	for i, c := range d.cards {
		if c.Type == t {
			d.cards = append(d.cards[:i], d.cards[i+1:]...)
			return c, true
		}
	}
	return nil, false
}

// RemoveAt removes and returns the card at index i.
func (d *Deck) RemoveAt(i int) (*Card, error) {
	if i < 0 || i >= len(d.cards) {
		return nil, fmt.Errorf("%w: index %d out of range [0,%d)", ErrInvalidOperation, i, len(d.cards))
	}
	c := d.cards[i]
	d.cards = append(d.cards[:i], d.cards[i+1:]...)
	return c, nil
}

// Shuffle applies a uniform random permutation.
func (d *Deck) Shuffle(rng *rand.Rand) {
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Reset replaces the contents with cards.
func (d *Deck) Reset(cards []*Card) {
	d.cards = append([]*Card(nil), cards...)
}

// Clear empties the deck and returns what it held.
func (d *Deck) Clear() []*Card {
	out := d.cards
	d.cards = nil
	return out
}

// Count returns the number of cards of type t.
func (d *Deck) Count(t CardType) int {
	n := 0
	for _, c := range d.cards {
		if c.Type == t {
			n++
		}
	}
	return n
}

// Contains reports whether the deck holds a card of type t.
func (d *Deck) Contains(t CardType) bool {
	return d.Count(t) > 0
}

// Names lists the card names, top first.
func (d *Deck) Names() []string {
	names := make([]string, len(d.cards))
	for i, c := range d.cards {
		names[i] = c.Name
	}
	return names
}

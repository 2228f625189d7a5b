package game

import (
	"fmt"
	"math/rand"
)

// CardManager holds one player's draw deck, hand and discard pile.
//
// Cards only move between the three piles here; cards entering or leaving the
// player (damage, spent upgrades) go through the SharedDeck.
type CardManager struct {
	draw    *Deck
	hand    *Deck
	discard *Deck
	rng     *rand.Rand // nil keeps piles in order (deterministic tests)

	// OnReshuffle is called whenever the discard pile is shuffled into the draw deck.
	OnReshuffle func()
}

// NewCardManager creates a manager whose draw deck holds cards (top first).
// The deck is shuffled when rng is non-nil.
func NewCardManager(cards []*Card, rng *rand.Rand) *CardManager {
	cm := &CardManager{
		draw:    NewDeck(cards...),
		hand:    NewDeck(),
		discard: NewDeck(),
		rng:     rng,
	}
	if rng != nil {
		cm.draw.Shuffle(rng)
	}
	return cm
}

func (cm *CardManager) DrawPile() *Deck    { return cm.draw }
func (cm *CardManager) Hand() *Deck        { return cm.hand }
func (cm *CardManager) DiscardPile() *Deck { return cm.discard }

// Total returns draw + hand + discard.
func (cm *CardManager) Total() int {
	return cm.draw.Len() + cm.hand.Len() + cm.discard.Len()
}

// Count returns how many cards of type t the three piles hold together.
func (cm *CardManager) Count(t CardType) int {
	return cm.draw.Count(t) + cm.hand.Count(t) + cm.discard.Count(t)
}

// ReshuffleDiscard moves the discard pile under the draw deck and shuffles the result.
func (cm *CardManager) ReshuffleDiscard() {
	if cm.discard.Len() == 0 {
		return
	}
	cm.draw.AddAll(cm.discard.Clear())
	if cm.rng != nil {
		cm.draw.Shuffle(cm.rng)
	}
	if cm.OnReshuffle != nil {
		cm.OnReshuffle()
	}
}

// take removes n cards from the draw deck, reshuffling the discard pile in
// when the draw deck runs out. State is unchanged on error.
func (cm *CardManager) take(n int) ([]*Card, error) {
	if n < 0 || n > cm.draw.Len()+cm.discard.Len() {
		return nil, fmt.Errorf("%w: need %d cards, draw deck %d + discard %d",
			ErrInvalidOperation, n, cm.draw.Len(), cm.discard.Len())
	}
	if n <= cm.draw.Len() {
		return cm.draw.Draw(n)
	}
	first, _ := cm.draw.Draw(cm.draw.Len())
	cm.ReshuffleDiscard()
	rest, err := cm.draw.Draw(n - len(first))
	if err != nil {
		return nil, err
	}
	return append(first, rest...), nil
}

// DrawCards moves n cards from the draw deck into the hand.
func (cm *CardManager) DrawCards(n int) ([]*Card, error) {
	cards, err := cm.take(n)
	if err != nil {
		return nil, err
	}
	cm.hand.AddAll(cards)
	return cards, nil
}

// PopCardFromDrawDeck removes exactly one card from the draw deck without
// putting it in the hand.
func (cm *CardManager) PopCardFromDrawDeck() (*Card, error) {
	cards, err := cm.take(1)
	if err != nil {
		return nil, err
	}
	return cards[0], nil
}

// DiscardHand moves every hand card to the discard pile.
func (cm *CardManager) DiscardHand() []*Card {
	cards := cm.hand.Clear()
	cm.discard.AddAll(cards)
	return cards
}

// Discard puts a card on the discard pile.
func (cm *CardManager) Discard(c *Card) {
	cm.discard.Add(c)
}

// AddToHand puts a card into the hand.
func (cm *CardManager) AddToHand(c *Card) {
	cm.hand.Add(c)
}

// RetrieveCardFromHandByType removes the first hand card of type t.
// Only the hand is searched.
func (cm *CardManager) RetrieveCardFromHandByType(t CardType) (*Card, error) {
	c, ok := cm.hand.RemoveFirst(t)
	if !ok {
		return nil, fmt.Errorf("%w: no %s in hand", ErrNotFound, t)
	}
	return c, nil
}

// RemoveFromDiscardByType removes the first discard-pile card of type t.
func (cm *CardManager) RemoveFromDiscardByType(t CardType) (*Card, error) {
	c, ok := cm.discard.RemoveFirst(t)
	if !ok {
		return nil, fmt.Errorf("%w: no %s in discard pile", ErrNotFound, t)
	}
	return c, nil
}

// Reset discards the current piles and starts over with cards in the draw deck.
func (cm *CardManager) Reset(cards []*Card) {
	cm.draw.Reset(cards)
	cm.hand.Reset(nil)
	cm.discard.Reset(nil)
	if cm.rng != nil {
		cm.draw.Shuffle(cm.rng)
	}
}

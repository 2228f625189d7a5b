package game

import (
	"fmt"
	"math/rand"
)

// Pool names one of the shared card pools.
type Pool int

const (
	PoolSpam Pool = iota
	PoolTrojan
	PoolWorm
	PoolVirus
	PoolUpgrade
)

func (p Pool) String() string {
	switch p {
	case PoolSpam:
		return "Spam"
	case PoolTrojan:
		return "Trojan"
	case PoolWorm:
		return "Worm"
	case PoolVirus:
		return "Virus"
	case PoolUpgrade:
		return "Upgrade"
	default:
		return "Unknown"
	}
}

// DamagePools lists the damage pools in draw-preference order.
var DamagePools = []Pool{PoolSpam, PoolTrojan, PoolWorm, PoolVirus}

// ParsePool maps a pool name ("spam", "Trojan", ...) to a Pool.
func ParsePool(s string) (Pool, error) {
	for p := PoolSpam; p <= PoolUpgrade; p++ {
		if normalizeCardName(p.String()) == normalizeCardName(s) {
			return p, nil
		}
	}
	return PoolSpam, fmt.Errorf("%w: unknown pool %q", ErrNotFound, s)
}

// DamagePoolSizes is the fixed damage supply of a game.
var DamagePoolSizes = map[Pool]int{
	PoolSpam:   38,
	PoolTrojan: 12,
	PoolWorm:   6,
	PoolVirus:  18,
}

var damageCardTypes = map[Pool]CardType{
	PoolSpam:   CardSpam,
	PoolTrojan: CardTrojan,
	PoolWorm:   CardWorm,
	PoolVirus:  CardVirus,
}

// PoolOf returns the pool a card belongs to. Programming and special cards have none.
func PoolOf(c *Card) (Pool, bool) {
	switch c.Type {
	case CardSpam:
		return PoolSpam, true
	case CardTrojan:
		return PoolTrojan, true
	case CardWorm:
		return PoolWorm, true
	case CardVirus:
		return PoolVirus, true
	}
	if c.IsUpgrade() {
		return PoolUpgrade, true
	}
	return PoolSpam, false
}

// DamageCardOf returns the card type a damage pool hands out.
func DamageCardOf(p Pool) (CardType, bool) {
	t, ok := damageCardTypes[p]
	return t, ok
}

// SharedDeck holds the game-wide damage and upgrade pools. Every card drawn from
// a pool is either held by a player or returned; the per-pool totals never change
// between resets.
type SharedDeck struct {
	pools   map[Pool]*Deck
	initial map[Pool][]*Card
	rng     *rand.Rand
}

// NewSharedDeck builds the damage pools at their fixed sizes and the upgrade pool
// from upgrades, shuffled with rng (in order when rng is nil).
func NewSharedDeck(upgrades []*Card, rng *rand.Rand) *SharedDeck {
	sd := &SharedDeck{
		pools:   make(map[Pool]*Deck),
		initial: make(map[Pool][]*Card),
		rng:     rng,
	}
	for _, p := range DamagePools {
		card := CardFor(damageCardTypes[p])
		cards := make([]*Card, DamagePoolSizes[p])
		for i := range cards {
			cards[i] = card
		}
		sd.initial[p] = cards
	}
	sd.initial[PoolUpgrade] = append([]*Card(nil), upgrades...)
	sd.ResetDecks()
	return sd
}

// DefaultUpgradePool is Admin Privilege, Rear Laser, Memory Swap and Spam Blocker ×10 each.
func DefaultUpgradePool() []*Card {
	var cards []*Card
	for _, t := range []CardType{CardAdminPrivilege, CardRearLaser, CardMemorySwap, CardSpamBlocker} {
		for i := 0; i < 10; i++ {
			cards = append(cards, CardFor(t))
		}
	}
	return cards
}

// ResetDecks restores every pool to its initial composition and reshuffles the
// upgrade pool. Only valid at a full game reset.
func (sd *SharedDeck) ResetDecks() {
	for p, cards := range sd.initial {
		if sd.pools[p] == nil {
			sd.pools[p] = NewDeck()
		}
		sd.pools[p].Reset(cards)
	}
	if sd.rng != nil {
		sd.pools[PoolUpgrade].Shuffle(sd.rng)
	}
}

func (sd *SharedDeck) Size(p Pool) int {
	if d := sd.pools[p]; d != nil {
		return d.Len()
	}
	return 0
}

// Initial returns the pool's fixed total.
func (sd *SharedDeck) Initial(p Pool) int {
	return len(sd.initial[p])
}

// Cards returns a copy of a pool, top first.
func (sd *SharedDeck) Cards(p Pool) []*Card {
	if d := sd.pools[p]; d != nil {
		return d.Cards()
	}
	return nil
}

// DrawDamageCard removes one card of damage type t from its pool.
func (sd *SharedDeck) DrawDamageCard(t CardType) (*Card, error) {
	c := CardFor(t)
	if c == nil || !c.IsDamage() {
		return nil, fmt.Errorf("%w: %s is not a damage card", ErrInvalidOperation, t)
	}
	p, _ := PoolOf(c)
	card, ok := sd.pools[p].RemoveFirst(t)
	if !ok {
		return nil, fmt.Errorf("%w: no cards available in the %s pool", ErrSharedDeckExhausted, p)
	}
	return card, nil
}

// ReturnCard puts a damage or upgrade card back into its pool.
func (sd *SharedDeck) ReturnCard(c *Card) error {
	p, ok := PoolOf(c)
	if !ok {
		return fmt.Errorf("%w: %s does not belong to a shared pool", ErrInvalidOperation, c.Name)
	}
	if sd.pools[p].Len() >= len(sd.initial[p]) {
		return fmt.Errorf("%w: %s pool is already full", ErrInvalidOperation, p)
	}
	sd.pools[p].Add(c)
	return nil
}

// DrawCards removes count cards from the top of a pool. It is all or nothing:
// an empty result is returned when the pool holds fewer than count.
func (sd *SharedDeck) DrawCards(p Pool, count int) []*Card {
	d := sd.pools[p]
	if d == nil || count <= 0 || d.Len() < count {
		return nil
	}
	cards, _ := d.Draw(count)
	return cards
}

// AssertSharedDeckSizes returns the damage pools holding at least min cards.
// When none qualifies the shared deck is exhausted and the game cannot go on.
func (sd *SharedDeck) AssertSharedDeckSizes(min int) ([]Pool, error) {
	var ok []Pool
	for _, p := range DamagePools {
		if sd.Size(p) >= min {
			ok = append(ok, p)
		}
	}
	if len(ok) == 0 {
		return nil, fmt.Errorf("%w: no damage pool holds %d card(s)", ErrSharedDeckExhausted, min)
	}
	return ok, nil
}

package game

import (
	"fmt"
	"sort"
	"strings"
)

type CardType int

const (
	// Programming
	CardMoveI CardType = iota
	CardMoveII
	CardMoveIII
	CardTurnRight
	CardTurnLeft
	CardUTurn
	CardBackUp
	CardPowerUp
	CardAgain

	// Damage
	CardSpam
	CardTrojan
	CardWorm
	CardVirus

	// Special programming
	CardEnergyRoutine
	CardSandboxRoutine
	CardWeaselRoutine
	CardSpeedRoutine
	CardSpamFolder
	CardRepeatRoutine

	// Upgrades
	CardAdminPrivilege
	CardRearLaser
	CardMemorySwap
	CardSpamBlocker
	CardRecharge
	CardFirewall
	CardDoubleBarrelLaser
	CardRecompile

	cardTypeCount
)

func (ct CardType) String() string {
	if c := CardFor(ct); c != nil {
		return c.Name
	}
	return "Unknown"
}

// Card is an immutable card definition. One instance exists per CardType and is
// shared by every deck holding a card of that type.
type Card struct {
	Type        CardType
	Name        string
	Family      Family
	Priority    int  // higher acts first within a register
	Cost        int  // energy price in the upgrade shop
	Permanent   bool // permanent upgrades stay installed; temporary ones are spent on use
	Description string
}

func (c *Card) String() string { return c.Name }

func (c *Card) IsDamage() bool  { return c.Family == FamilyDamage }
func (c *Card) IsUpgrade() bool { return c.Family == FamilyUpgrade }

// Programmable reports whether the card may be placed in a register.
func (c *Card) Programmable() bool { return c.Family != FamilyUpgrade }

// RepeatsPrevious reports whether c replays the previous register, which
// rules it out of the first one.
func (c *Card) RepeatsPrevious() bool {
	return c.Type == CardAgain || c.Type == CardRepeatRoutine
}

var cardCatalog = [cardTypeCount]Card{
	CardMoveI:     {Name: "Move I", Family: FamilyProgramming, Priority: 500, Description: "Move forward 1 space."},
	CardMoveII:    {Name: "Move II", Family: FamilyProgramming, Priority: 670, Description: "Move forward 2 spaces."},
	CardMoveIII:   {Name: "Move III", Family: FamilyProgramming, Priority: 790, Description: "Move forward 3 spaces."},
	CardTurnRight: {Name: "Turn Right", Family: FamilyProgramming, Priority: 90, Description: "Turn 90° clockwise."},
	CardTurnLeft:  {Name: "Turn Left", Family: FamilyProgramming, Priority: 80, Description: "Turn 90° counter-clockwise."},
	CardUTurn:     {Name: "U-Turn", Family: FamilyProgramming, Priority: 60, Description: "Turn 180°."},
	CardBackUp:    {Name: "Back Up", Family: FamilyProgramming, Priority: 430, Description: "Move back 1 space without turning."},
	CardPowerUp:   {Name: "Power Up", Family: FamilyProgramming, Description: "Gain 1 energy."},
	CardAgain:     {Name: "Again", Family: FamilyProgramming, Description: "Repeat the programming of the previous register."},

	CardSpam:   {Name: "Spam", Family: FamilyDamage, Description: "Play the top card of your draw deck."},
	CardTrojan: {Name: "Trojan Horse", Family: FamilyDamage, Description: "Take 2 Spam, then play the top card of your draw deck."},
	CardWorm:   {Name: "Worm", Family: FamilyDamage, Description: "Reboot your robot."},
	CardVirus:  {Name: "Virus", Family: FamilyDamage, Description: "Every robot within 6 spaces takes a Virus, then play the top card of your draw deck."},

	CardEnergyRoutine:  {Name: "Energy Routine", Family: FamilySpecial, Description: "Gain 1 energy."},
	CardSandboxRoutine: {Name: "Sandbox Routine", Family: FamilySpecial, Priority: 500, Description: "Move 1-3 forward, back up, or turn."},
	CardWeaselRoutine:  {Name: "Weasel Routine", Family: FamilySpecial, Priority: 90, Description: "Turn left, turn right, or U-turn."},
	CardSpeedRoutine:   {Name: "Speed Routine", Family: FamilySpecial, Priority: 780, Description: "Move forward 3 spaces."},
	CardSpamFolder:     {Name: "Spam Folder", Family: FamilySpecial, Description: "Return one Spam from your discard pile to the pool."},
	CardRepeatRoutine:  {Name: "Repeat Routine", Family: FamilySpecial, Description: "Repeat the programming of the previous register."},

	CardAdminPrivilege:    {Name: "Admin Privilege", Family: FamilyUpgrade, Cost: 3, Permanent: true, Description: "Your robot acts first in every register."},
	CardRearLaser:         {Name: "Rear Laser", Family: FamilyUpgrade, Cost: 2, Permanent: true, Description: "Your robot also shoots backward."},
	CardMemorySwap:        {Name: "Memory Swap", Family: FamilyUpgrade, Cost: 1, Description: "Draw 3 cards, then put 3 cards from your hand on top of your draw deck."},
	CardSpamBlocker:       {Name: "Spam Blocker", Family: FamilyUpgrade, Cost: 3, Description: "Replace each Spam in your hand with the top card of your draw deck."},
	CardRecharge:          {Name: "Recharge", Family: FamilyUpgrade, Cost: 0, Description: "Gain 3 energy."},
	CardFirewall:          {Name: "Firewall", Family: FamilyUpgrade, Cost: 3, Permanent: true, Description: "Take no Spam when rebooting."},
	CardDoubleBarrelLaser: {Name: "Double-Barrel Laser", Family: FamilyUpgrade, Cost: 2, Permanent: true, Description: "Your robot laser deals 2 damage."},
	CardRecompile:         {Name: "Recompile", Family: FamilyUpgrade, Cost: 1, Description: "Discard your hand and draw a new one."},
}

func init() {
	for i := range cardCatalog {
		cardCatalog[i].Type = CardType(i)
	}
}

// CardFor returns the shared definition for a card type, or nil if out of range.
func CardFor(t CardType) *Card {
	if t < 0 || t >= cardTypeCount {
		return nil
	}
	return &cardCatalog[t]
}

// AllCards returns every card definition in CardType order.
func AllCards() []*Card {
	out := make([]*Card, 0, cardTypeCount)
	for i := range cardCatalog {
		out = append(out, &cardCatalog[i])
	}
	return out
}

// CardsOfFamily returns the definitions of one family, sorted by name.
func CardsOfFamily(f Family) []*Card {
	var out []*Card
	for i := range cardCatalog {
		if cardCatalog[i].Family == f {
			out = append(out, &cardCatalog[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func normalizeCardName(s string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s))
}

var cardsByName = func() map[string]CardType {
	m := make(map[string]CardType)
	for i := range cardCatalog {
		m[normalizeCardName(cardCatalog[i].Name)] = CardType(i)
	}
	// Aliases seen in rule files.
	m["move1"] = CardMoveI
	m["move2"] = CardMoveII
	m["move3"] = CardMoveIII
	m["trojan"] = CardTrojan
	m["doublebarrel"] = CardDoubleBarrelLaser
	return m
}()

// LookupCard looks up a card by name ("Move II", "move-2", "u_turn" all work).
func LookupCard(name string) (*Card, error) {
	t, ok := cardsByName[normalizeCardName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown card %q", ErrNotFound, name)
	}
	return CardFor(t), nil
}

// MustLookupCard is LookupCard for built-in names. Panics if the card is not found.
func MustLookupCard(name string) *Card {
	c, err := LookupCard(name)
	if err != nil {
		panic(err)
	}
	return c
}

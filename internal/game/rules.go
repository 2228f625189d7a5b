package game

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CardEntry represents a card and its count in a card list.
type CardEntry struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

// Rules are the tunable constants of a game, loaded from a rules YAML file.
type Rules struct {
	HandSize             int            `yaml:"hand_size"`
	StartingEnergy       int            `yaml:"starting_energy"`
	RebootSpam           int            `yaml:"reboot_spam"`
	RebootEnergyPenalty  int            `yaml:"reboot_energy_penalty"`
	LaserDamage          int            `yaml:"laser_damage"`
	UpgradePhase         bool           `yaml:"upgrade_phase"`
	UpgradeCosts         map[string]int `yaml:"upgrade_costs"`
	UpgradePool          []CardEntry    `yaml:"upgrade_pool"`
	StartingDeck         []CardEntry    `yaml:"starting_deck"`
	RechargeEnergySpaces bool           `yaml:"recharge_energy_spaces"`
	ProgrammingTimeout   time.Duration  `yaml:"programming_timeout"`
	MaxRounds            int            `yaml:"max_rounds"`
}

// DefaultStartingDeck is the 20-card programming deck every robot starts with.
var DefaultStartingDeck = []CardEntry{
	{Name: "Move I", Count: 5},
	{Name: "Move II", Count: 3},
	{Name: "Move III", Count: 1},
	{Name: "Turn Right", Count: 3},
	{Name: "Turn Left", Count: 3},
	{Name: "U-Turn", Count: 1},
	{Name: "Back Up", Count: 1},
	{Name: "Power Up", Count: 1},
	{Name: "Again", Count: 2},
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		HandSize:             9,
		StartingEnergy:       5,
		RebootSpam:           2,
		RebootEnergyPenalty:  0,
		LaserDamage:          1,
		UpgradePhase:         true,
		StartingDeck:         append([]CardEntry(nil), DefaultStartingDeck...),
		RechargeEnergySpaces: true,
		ProgrammingTimeout:   2 * time.Minute,
		MaxRounds:            100,
	}
}

// LoadRules reads a rules file. Keys absent from the file keep their default.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, err
	}
	return ParseRules(data)
}

// ParseRules decodes rules YAML over DefaultRules and validates the result.
func ParseRules(data []byte) (Rules, error) {
	r := DefaultRules()
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("%w: parse rules YAML: %v", ErrInvalidRules, err)
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// Validate checks the rule set for values the engine cannot run with.
func (r Rules) Validate() error {
	if r.HandSize < RegisterCount {
		return fmt.Errorf("%w: hand_size %d is smaller than the %d registers", ErrInvalidRules, r.HandSize, RegisterCount)
	}
	if r.StartingEnergy < 0 || r.RebootSpam < 0 || r.RebootEnergyPenalty < 0 || r.LaserDamage < 0 {
		return fmt.Errorf("%w: energy and damage values must not be negative", ErrInvalidRules)
	}
	if r.ProgrammingTimeout < 0 {
		return fmt.Errorf("%w: programming_timeout must not be negative", ErrInvalidRules)
	}
	deck, err := r.StartingCards()
	if err != nil {
		return err
	}
	if len(deck) < r.HandSize {
		return fmt.Errorf("%w: starting deck of %d cards cannot fill a hand of %d", ErrInvalidRules, len(deck), r.HandSize)
	}
	if _, err := r.UpgradeCards(); err != nil {
		return err
	}
	for name, cost := range r.UpgradeCosts {
		c, err := LookupCard(name)
		if err != nil {
			return fmt.Errorf("%w: upgrade_costs: %v", ErrInvalidRules, err)
		}
		if !c.IsUpgrade() || cost < 0 {
			return fmt.Errorf("%w: upgrade_costs: bad entry %s=%d", ErrInvalidRules, name, cost)
		}
	}
	return nil
}

func expandEntries(field string, entries []CardEntry, ok func(*Card) bool) ([]*Card, error) {
	var cards []*Card
	for _, entry := range entries {
		c, err := LookupCard(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRules, field, err)
		}
		if !ok(c) || entry.Count < 0 {
			return nil, fmt.Errorf("%w: %s: %s ×%d not allowed", ErrInvalidRules, field, c.Name, entry.Count)
		}
		for i := 0; i < entry.Count; i++ {
			cards = append(cards, c)
		}
	}
	return cards, nil
}

// StartingCards expands StartingDeck into cards. Damage and upgrade cards are not allowed.
func (r Rules) StartingCards() ([]*Card, error) {
	return expandEntries("starting_deck", r.StartingDeck, func(c *Card) bool {
		return c.Family == FamilyProgramming || c.Family == FamilySpecial
	})
}

// UpgradeCards expands UpgradePool, falling back to DefaultUpgradePool when empty.
func (r Rules) UpgradeCards() ([]*Card, error) {
	if len(r.UpgradePool) == 0 {
		return DefaultUpgradePool(), nil
	}
	return expandEntries("upgrade_pool", r.UpgradePool, (*Card).IsUpgrade)
}

// Cost returns the energy price of an upgrade card under these rules.
func (r Rules) Cost(c *Card) int {
	for name, cost := range r.UpgradeCosts {
		if lc, err := LookupCard(name); err == nil && lc.Type == c.Type {
			return cost
		}
	}
	return c.Cost
}

package game

import "fmt"

// Player aggregates everything one participant owns in a game.
type Player struct {
	clientID int

	Name     string
	Robot    *Robot
	Cards    *CardManager
	Register ProgrammingRegister
	Upgrades *Deck // installed upgrades

	// Status flags, reset as the round advances.
	AI                      bool
	SelectingMap            bool
	Rebooting               bool
	StartPointSet           bool
	DecidedUpgrade          bool
	PlayedRegister          bool
	SelectionFinished       bool
	AwaitingUpgrade         bool
	AwaitingDamageSelection bool
}

func NewPlayer(clientID int, name string, cards *CardManager, energy int) *Player {
	if name == "" {
		name = fmt.Sprintf("P%d", clientID)
	}
	return &Player{
		clientID: clientID,
		Name:     name,
		Robot:    NewRobot(energy),
		Cards:    cards,
		Upgrades: NewDeck(),
	}
}

// ClientID is the player's identity, fixed for the game session.
func (p *Player) ClientID() int { return p.clientID }

// HasUpgrade reports whether the player has installed an upgrade of type t.
func (p *Player) HasUpgrade(t CardType) bool {
	return p.Upgrades.Contains(t)
}

// HeldCount counts the cards of type t the player holds anywhere: piles,
// registers and installed upgrades.
func (p *Player) HeldCount(t CardType) int {
	n := p.Cards.Count(t) + p.Upgrades.Count(t)
	for _, c := range p.Register.Cards() {
		if c != nil && c.Type == t {
			n++
		}
	}
	return n
}

// Active reports whether the robot takes part in the current register.
func (p *Player) Active() bool {
	return p.Robot.Placed() && !p.Rebooting
}

// resetRoundFlags clears the per-round status flags.
func (p *Player) resetRoundFlags() {
	p.Rebooting = false
	p.DecidedUpgrade = false
	p.PlayedRegister = false
	p.SelectionFinished = false
	p.AwaitingUpgrade = false
	p.AwaitingDamageSelection = false
}

// String returns the player's display name.
func (p *Player) String() string {
	return p.Name
}

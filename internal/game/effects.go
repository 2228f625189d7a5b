package game

import (
	"github.com/peterkuimelis/rallyx/internal/geom"
	"github.com/peterkuimelis/rallyx/internal/log"
)

// effectFunc resolves a card played from register reg of player p.
type effectFunc func(g *Game, p *Player, reg int) error

var effectTable map[CardType]effectFunc

func init() {
	effectTable = map[CardType]effectFunc{
		CardMoveI:     moveForward(1),
		CardMoveII:    moveForward(2),
		CardMoveIII:   moveForward(3),
		CardTurnRight: turn(geom.TurnRight),
		CardTurnLeft:  turn(geom.TurnLeft),
		CardUTurn:     turn(geom.UTurn),
		CardBackUp: func(g *Game, p *Player, _ int) error {
			return g.moveRobot(p, p.Robot.Orientation.UTurn(), 1)
		},
		CardPowerUp:       gainEnergy(1),
		CardAgain:         repeatPrevious,
		CardRepeatRoutine: repeatPrevious,

		CardSpam:   spamEffect,
		CardTrojan: trojanEffect,
		CardWorm:   wormEffect,
		CardVirus:  virusEffect,

		CardEnergyRoutine:  gainEnergy(1),
		CardSpeedRoutine:   moveForward(3),
		CardSandboxRoutine: chooseEffect("Sandbox Routine", CardMoveI, CardMoveII, CardMoveIII, CardBackUp, CardTurnRight, CardTurnLeft, CardUTurn),
		CardWeaselRoutine:  chooseEffect("Weasel Routine", CardTurnLeft, CardTurnRight, CardUTurn),
		CardSpamFolder:     spamFolderEffect,
	}
}

// Execute resolves the card's effect for player p, played from register reg.
// Cards without a register effect (upgrades) do nothing.
func (c *Card) Execute(g *Game, p *Player, reg int) error {
	f, ok := effectTable[c.Type]
	if !ok {
		return nil
	}
	return f(g, p, reg)
}

func moveForward(steps int) effectFunc {
	return func(g *Game, p *Player, _ int) error {
		return g.moveRobot(p, p.Robot.Orientation, steps)
	}
}

func turn(r geom.Rotation) effectFunc {
	return func(g *Game, p *Player, _ int) error {
		g.rotateRobot(p, r)
		return nil
	}
}

func gainEnergy(n int) effectFunc {
	return func(g *Game, p *Player, reg int) error {
		c, _ := p.Register.Get(reg)
		reason := "card"
		if c != nil {
			reason = c.Name
		}
		g.adjustEnergy(p, n, reason)
		return nil
	}
}

// repeatPrevious re-runs the card of the previous register. A damage card there
// is not repeated; the top card of the draw deck is played instead.
func repeatPrevious(g *Game, p *Player, reg int) error {
	for prev := reg - 1; prev >= 0; prev-- {
		c, _ := p.Register.Get(prev)
		if c == nil {
			return nil
		}
		if c.IsDamage() {
			return g.replaceWithTop(p, reg)
		}
		if c.RepeatsPrevious() {
			continue
		}
		g.log(log.NewCardPlayedEvent(p.ClientID(), c.Name))
		return c.Execute(g, p, prev)
	}
	return nil
}

func chooseEffect(name string, options ...CardType) effectFunc {
	return func(g *Game, p *Player, reg int) error {
		names := make([]string, len(options))
		for i, t := range options {
			names[i] = t.String()
		}
		idx := 0
		g.ask(p, func(ctrl PlayerController, state *GameState) {
			if i, err := ctrl.ChooseOption(g.ctx, state, name+": choose an action", names); err == nil {
				idx = i
			}
		})
		if idx < 0 || idx >= len(options) {
			idx = 0
		}
		c := CardFor(options[idx])
		g.log(log.NewCardPlayedEvent(p.ClientID(), c.Name))
		return c.Execute(g, p, reg)
	}
}

func spamEffect(g *Game, p *Player, reg int) error {
	return g.replaceWithTop(p, reg)
}

func trojanEffect(g *Game, p *Player, reg int) error {
	if err := g.dealDamage(p, CardSpam, 2, "Trojan Horse"); err != nil {
		return err
	}
	return g.replaceWithTop(p, reg)
}

func wormEffect(g *Game, p *Player, reg int) error {
	if c, _ := p.Register.Remove(reg); c != nil {
		g.discardPlayed(p, c)
	}
	return g.reboot(p, "Worm")
}

func virusEffect(g *Game, p *Player, reg int) error {
	if pos, ok := p.Robot.Pos(); ok {
		for _, q := range g.players {
			if q == p {
				continue
			}
			qpos, placed := q.Robot.Pos()
			if !placed || geom.Manhattan(pos, qpos) > VirusRadius {
				continue
			}
			if err := g.dealDamage(q, CardVirus, 1, "Virus"); err != nil {
				return err
			}
		}
	}
	return g.replaceWithTop(p, reg)
}

func spamFolderEffect(g *Game, p *Player, _ int) error {
	c, err := p.Cards.RemoveFromDiscardByType(CardSpam)
	if err != nil {
		return nil
	}
	return g.Shared.ReturnCard(c)
}

// replaceWithTop takes the card out of register reg, puts it away and plays
// the top card of the draw deck from that register instead.
func (g *Game) replaceWithTop(p *Player, reg int) error {
	if old, _ := p.Register.Remove(reg); old != nil {
		g.discardPlayed(p, old)
	}
	top, err := p.Cards.PopCardFromDrawDeck()
	if err != nil {
		// Nothing left to play.
		return nil
	}
	_ = p.Register.Lock(reg, top)
	g.log(log.NewCardPlayedEvent(p.ClientID(), top.Name))
	return top.Execute(g, p, reg)
}

// dealDamage gives p count damage cards of type t, straight to the discard
// pile. When that pool is empty the player picks another pool that still has
// cards; when none has any, the shared deck is exhausted.
func (g *Game) dealDamage(p *Player, t CardType, count int, reason string) error {
	for i := 0; i < count; i++ {
		want := t
		pool, _ := PoolOf(CardFor(want))
		if g.Shared.Size(pool) == 0 {
			pools, err := g.Shared.AssertSharedDeckSizes(1)
			if err != nil {
				return err
			}
			chosen := pools[0]
			if len(pools) > 1 {
				names := make([]string, len(pools))
				for j, pl := range pools {
					names[j] = pl.String()
				}
				p.AwaitingDamageSelection = true
				g.ask(p, func(ctrl PlayerController, state *GameState) {
					idx, err := ctrl.ChooseOption(g.ctx, state, pool.String()+" pool is empty: choose the damage to take", names)
					if err == nil && idx >= 0 && idx < len(pools) {
						chosen = pools[idx]
					}
				})
				p.AwaitingDamageSelection = false
			}
			want, _ = DamageCardOf(chosen)
		}
		c, err := g.Shared.DrawDamageCard(want)
		if err != nil {
			return err
		}
		p.Cards.Discard(c)
		g.log(log.NewDamageEvent(p.ClientID(), c.Name, 1, reason))
	}
	return nil
}

func (g *Game) adjustEnergy(p *Player, delta int, reason string) {
	before := p.Robot.Energy
	p.Robot.AdjustEnergy(delta)
	if p.Robot.Energy != before {
		g.log(log.NewEnergyChangeEvent(p.ClientID(), before, p.Robot.Energy, reason))
	}
}

func (g *Game) rotateRobot(p *Player, r geom.Rotation) {
	before := p.Robot.Orientation
	p.Robot.Rotate(r)
	if p.Robot.Orientation != before {
		g.log(log.NewRotateEvent(p.ClientID(), before, p.Robot.Orientation))
	}
}

package game

import (
	"context"

	"github.com/peterkuimelis/rallyx/internal/log"
)

// executionPhase runs the five registers, each followed by the board phase.
func (g *Game) executionPhase(ctx context.Context) error {
	g.setPhase(PhaseExecution)
	defer func() { g.register = -1 }()

	for reg := 0; reg < RegisterCount; reg++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.register = reg
		g.log(log.NewRegisterStartEvent(reg))

		// Reveal
		cards := make(map[*Player]*Card)
		var revealed []*Player
		for _, p := range g.ranked() {
			if !p.Active() {
				continue
			}
			c, _ := p.Register.Get(reg)
			if c == nil {
				continue
			}
			cards[p] = c
			revealed = append(revealed, p)
		}
		order := orderForRegister(revealed, cards)
		for _, p := range order {
			g.log(log.NewRevealEvent(p.ClientID(), cards[p].Name, cards[p].Priority))
		}

		for _, p := range order {
			// A robot rebooted earlier in this register sits out.
			if !p.Active() {
				continue
			}
			c, _ := p.Register.Get(reg)
			if c == nil {
				continue
			}
			g.log(log.NewCardPlayedEvent(p.ClientID(), c.Name))
			if err := c.Execute(g, p, reg); err != nil {
				return err
			}
			p.PlayedRegister = true
		}

		if err := g.boardPhase(reg); err != nil {
			return err
		}
		g.log(log.NewRegisterEndEvent(reg))

		if len(g.claimOrder) > 0 {
			g.winners = append([]int(nil), g.claimOrder...)
			g.finish("reached the final checkpoint")
			return nil
		}
	}
	return nil
}

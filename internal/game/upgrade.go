package game

import (
	"context"
	"fmt"

	"github.com/peterkuimelis/rallyx/internal/log"
)

// upgradePhase opens the upgrade shop: one card per player is revealed and the
// players, in rank order, may buy one of them with energy.
func (g *Game) upgradePhase(ctx context.Context) error {
	g.setPhase(PhaseUpgrade)
	ranked := g.ranked()
	if len(ranked) == 0 {
		return nil
	}
	shop := g.Shared.DrawCards(PoolUpgrade, len(ranked))
	if shop == nil {
		// Not enough upgrades left for a full shop.
		return nil
	}
	g.log(log.NewUpgradeOfferedEvent(NewDeck(shop...).Names()))

	for _, p := range ranked {
		if err := ctx.Err(); err != nil {
			g.returnUpgrades(shop)
			return err
		}
		if len(shop) == 0 {
			break
		}
		options := []string{"Pass"}
		for _, c := range shop {
			options = append(options, fmt.Sprintf("%s (%d energy)", c.Name, g.Rules.Cost(c)))
		}
		idx := 0
		p.AwaitingUpgrade = true
		g.ask(p, func(ctrl PlayerController, state *GameState) {
			if i, err := ctrl.ChooseOption(ctx, state, "Buy an upgrade", options); err == nil {
				idx = i
			}
		})
		p.AwaitingUpgrade = false
		p.DecidedUpgrade = true
		if idx <= 0 || idx > len(shop) {
			continue
		}

		c := shop[idx-1]
		cost := g.Rules.Cost(c)
		switch {
		case p.Robot.Energy < cost:
			g.notify(p, fmt.Sprintf("%s costs %d energy, you have %d", c.Name, cost, p.Robot.Energy))
			continue
		case p.Upgrades.Len() >= MaxUpgrades:
			g.notify(p, fmt.Sprintf("no room for more than %d upgrades", MaxUpgrades))
			continue
		}
		shop = append(shop[:idx-1], shop[idx:]...)
		p.Upgrades.Add(c)
		g.adjustEnergy(p, -cost, "bought "+c.Name)
		g.log(log.NewUpgradeBoughtEvent(p.ClientID(), c.Name, cost))
	}
	g.returnUpgrades(shop)
	return nil
}

func (g *Game) returnUpgrades(cards []*Card) {
	for _, c := range cards {
		g.returnShared(-1, c)
	}
}

// useUpgrade plays one of p's temporary upgrades. The card goes back to the
// upgrade pool afterwards. picks selects the hand cards MemorySwap puts back.
func (g *Game) useUpgrade(p *Player, t CardType, picks []int) error {
	c := CardFor(t)
	if !c.IsUpgrade() {
		return reject("%s is not an upgrade", c.Name)
	}
	if !p.HasUpgrade(t) {
		return reject("%s does not own %s", p.Name, c.Name)
	}
	if c.Permanent {
		return reject("%s is permanent and always active", c.Name)
	}
	if p.SelectionFinished {
		return reject("%s has already programmed this round", p.Name)
	}

	switch t {
	case CardMemorySwap:
		if err := g.memorySwap(p, picks); err != nil {
			return err
		}
	case CardSpamBlocker:
		for {
			spam, err := p.Cards.RetrieveCardFromHandByType(CardSpam)
			if err != nil {
				break
			}
			g.returnShared(p.ClientID(), spam)
			if top, err := p.Cards.PopCardFromDrawDeck(); err == nil {
				p.Cards.AddToHand(top)
			}
		}
	case CardRecharge:
		g.adjustEnergy(p, 3, c.Name)
	case CardRecompile:
		for _, d := range p.Cards.DiscardHand() {
			g.log(log.NewDiscardEvent(p.ClientID(), d.Name))
		}
		if err := g.drawHand(p); err != nil {
			return err
		}
	}

	used, _ := p.Upgrades.RemoveFirst(t)
	g.returnShared(p.ClientID(), used)
	g.log(log.NewUpgradeUsedEvent(p.ClientID(), c.Name))
	return nil
}

// memorySwap draws three cards, then puts the three picked hand cards back on
// top of the draw deck. Without valid picks the first three hand cards go back.
func (g *Game) memorySwap(p *Player, picks []int) error {
	const n = 3
	if p.Cards.DrawPile().Len()+p.Cards.DiscardPile().Len() < n {
		return reject("not enough cards to draw %d", n)
	}
	if _, err := p.Cards.DrawCards(n); err != nil {
		return err
	}
	g.log(log.NewDrawEvent(p.ClientID(), n))

	hand := p.Cards.Hand()
	if !validPicks(picks, n, hand.Len()) {
		picks = []int{0, 1, 2}
	}
	selected := make([]*Card, 0, n)
	for _, i := range picks {
		selected = append(selected, hand.Cards()[i])
	}
	for _, c := range selected {
		if _, err := p.Cards.RetrieveCardFromHandByType(c.Type); err != nil {
			return err
		}
	}
	for i := len(selected) - 1; i >= 0; i-- {
		p.Cards.DrawPile().AddTop(selected[i])
	}
	return nil
}

func validPicks(picks []int, n, size int) bool {
	if len(picks) != n {
		return false
	}
	seen := make(map[int]bool, n)
	for _, i := range picks {
		if i < 0 || i >= size || seen[i] {
			return false
		}
		seen[i] = true
	}
	return true
}

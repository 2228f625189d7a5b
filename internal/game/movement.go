package game

import (
	"fmt"
	"sort"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/geom"
	"github.com/peterkuimelis/rallyx/internal/log"
)

// moveRobot moves p up to steps cells towards dir, pushing robots in the way.
// Movement stops at the first blocked step or when the robot reboots.
func (g *Game) moveRobot(p *Player, dir geom.Orientation, steps int) error {
	for i := 0; i < steps; i++ {
		if !p.Active() {
			return nil
		}
		moved, err := g.step(p, dir, true)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}
	}
	return nil
}

// pushChain returns the robots that move when p steps towards dir: p first,
// then every robot it pushes. ok is false when the terrain or the board edge
// stops the chain, or when a robot is in the way and pushing is off. A robot
// with nobody in front of it may still walk off the edge.
func (g *Game) pushChain(p *Player, dir geom.Orientation, pushing bool) (chain []*Player, ok bool) {
	cur, placed := p.Robot.Pos()
	if !placed {
		return nil, false
	}
	chain = []*Player{p}
	for {
		if g.Board.Blocked(cur, dir) {
			return nil, false
		}
		next := cur.Add(dir.ToVector())
		if !g.Board.InBounds(next) {
			if len(chain) > 1 {
				return nil, false
			}
			return chain, true
		}
		other := g.robotAt(next)
		if other == nil {
			return chain, true
		}
		if !pushing {
			return nil, false
		}
		chain = append(chain, other)
		cur = next
	}
}

// step moves p one cell towards dir. Either the whole push chain moves or nothing does.
func (g *Game) step(p *Player, dir geom.Orientation, pushing bool) (bool, error) {
	chain, ok := g.pushChain(p, dir, pushing)
	if !ok {
		return false, nil
	}

	from := make([]geom.Vector, len(chain))
	for i, q := range chain {
		from[i], _ = q.Robot.Pos()
	}
	for i := len(chain) - 1; i >= 0; i-- {
		chain[i].Robot.Move(dir)
	}
	for i := 1; i < len(chain); i++ {
		g.log(log.NewPushEvent(chain[i-1].ClientID(), chain[i].ClientID(), dir))
	}
	for i, q := range chain {
		to, _ := q.Robot.Pos()
		g.log(log.NewMoveEvent(q.ClientID(), from[i], to))
	}

	for i, q := range chain {
		to, _ := q.Robot.Pos()
		if g.Board.IsHazard(to) {
			reason := "fell into a pit"
			if !g.Board.InBounds(to) {
				reason = "fell off the board"
			}
			if err := g.rebootFrom(q, from[i], reason); err != nil {
				return true, err
			}
			continue
		}
		g.activateEntry(q)
	}
	return true, nil
}

// activateEntry applies the on-entry tiles under p's robot and records a
// claim on the final checkpoint.
func (g *Game) activateEntry(p *Player) {
	pos, ok := p.Robot.Pos()
	if !ok {
		return
	}
	energy := p.Robot.Energy
	for _, t := range g.Board.ActivateEntry(pos, p.Robot) {
		switch t.Kind {
		case board.KindEnergySpace:
			g.log(log.NewEnergyChangeEvent(p.ClientID(), energy, p.Robot.Energy, "energy space"))
			energy = p.Robot.Energy
		case board.KindCheckpoint:
			g.log(log.NewCheckpointEvent(p.ClientID(), t.Number, g.checkpointTotal))
		}
	}
	g.checkFinalCheckpoint(p)
}

func (g *Game) checkFinalCheckpoint(p *Player) {
	if p.Robot.Checkpoints < g.checkpointTotal {
		return
	}
	for _, id := range g.claimOrder {
		if id == p.ClientID() {
			return
		}
	}
	g.claimOrder = append(g.claimOrder, p.ClientID())
}

// --- Reboot ---

// reboot destroys p's robot where it stands and brings it back at its restart location.
func (g *Game) reboot(p *Player, reason string) error {
	pos, ok := p.Robot.Pos()
	if !ok {
		return fmt.Errorf("%w: %s has no robot on the board", ErrInvalidOperation, p.Name)
	}
	return g.rebootFrom(p, pos, reason)
}

// rebootFrom reboots p's robot, whose last position on the course was from.
func (g *Game) rebootFrom(p *Player, from geom.Vector, reason string) error {
	p.Robot.Remove()
	target, facing := g.rebootTarget(p, from)

	if other := g.robotAt(target); other != nil {
		moved, err := g.step(other, facing, true)
		if err != nil {
			return err
		}
		if !moved || g.robotAt(target) != nil {
			if alt, ok := g.nearestFreeCell(target); ok {
				target = alt
			}
		}
	}

	p.Robot.Place(target)
	p.Robot.SetOrientation(facing)
	p.Rebooting = true
	g.log(log.NewRebootEvent(p.ClientID(), target, facing, reason))

	if g.register >= 0 {
		for _, c := range p.Register.DrainFrom(g.register + 1) {
			g.discardPlayed(p, c)
		}
	}
	if !p.HasUpgrade(CardFirewall) && g.Rules.RebootSpam > 0 {
		if err := g.dealDamage(p, CardSpam, g.Rules.RebootSpam, "reboot"); err != nil {
			return err
		}
	}
	if g.Rules.RebootEnergyPenalty > 0 {
		g.adjustEnergy(p, -g.Rules.RebootEnergyPenalty, "reboot")
	}
	return nil
}

// rebootTarget picks where a robot destroyed at from comes back: its start point
// while it is still in the starting area, otherwise the nearest restart point.
func (g *Game) rebootTarget(p *Player, from geom.Vector) (geom.Vector, geom.Orientation) {
	restarts := g.Board.RestartPoints()
	if p.Robot.Start != nil && (g.Board.StartingArea(from) || len(restarts) == 0) {
		return *p.Robot.Start, g.startFacing
	}
	if len(restarts) == 0 {
		return g.Board.StartPoints()[0], g.startFacing
	}
	sort.SliceStable(restarts, func(i, j int) bool {
		return geom.Manhattan(from, restarts[i]) < geom.Manhattan(from, restarts[j])
	})
	target := restarts[0]
	return target, g.Board.Find(target, board.KindRestartPoint).Facing()
}

// nearestFreeCell returns the closest cell to v a robot can stand on.
func (g *Game) nearestFreeCell(v geom.Vector) (geom.Vector, bool) {
	var best geom.Vector
	bestDist := -1
	for x := 0; x < g.Board.Width(); x++ {
		for y := 0; y < g.Board.Height(); y++ {
			c := geom.Vector{X: x, Y: y}
			if g.Board.IsHazard(c) || g.Board.HasKind(c, board.KindAntenna) || g.robotAt(c) != nil {
				continue
			}
			if d := geom.Manhattan(v, c); bestDist < 0 || d < bestDist {
				best, bestDist = c, d
			}
		}
	}
	return best, bestDist >= 0
}

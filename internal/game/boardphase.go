package game

import (
	"fmt"
	"slices"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/geom"
	"github.com/peterkuimelis/rallyx/internal/log"
)

// boardPhase activates the course after every robot has played register reg.
func (g *Game) boardPhase(reg int) error {
	// Double belts move first, then every belt moves together.
	if err := g.moveBelts(board.SpeedDouble); err != nil {
		return err
	}
	if err := g.moveBelts(board.SpeedSingle, board.SpeedDouble); err != nil {
		return err
	}
	g.turnGears()
	if err := g.firePushPanels(reg); err != nil {
		return err
	}
	if err := g.fireBoardLasers(); err != nil {
		return err
	}
	if err := g.fireRobotLasers(); err != nil {
		return err
	}
	for _, p := range g.players {
		if p.Active() {
			g.activateEntry(p)
		}
	}
	return nil
}

func (g *Game) activeRobotAt(v geom.Vector) *Player {
	if p := g.robotAt(v); p != nil && p.Active() {
		return p
	}
	return nil
}

type beltMove struct {
	p    *Player
	from geom.Vector
	to   geom.Vector
	dir  geom.Orientation
}

// moveBelts carries every active robot standing on a belt of the given speeds one
// cell. Belts never push: a move into a robot that stays put, two moves into the
// same cell and head-on swaps are all cancelled, until the set of moves is stable.
func (g *Game) moveBelts(speeds ...int) error {
	var moves []*beltMove
	for _, p := range g.players {
		if !p.Active() {
			continue
		}
		pos, _ := p.Robot.Pos()
		belt := g.Board.Find(pos, board.KindConveyorBelt)
		if belt == nil || !slices.Contains(speeds, belt.Speed) {
			continue
		}
		dir := belt.Facing()
		if g.Board.Blocked(pos, dir) {
			continue
		}
		moves = append(moves, &beltMove{p: p, from: pos, to: pos.Add(dir.ToVector()), dir: dir})
	}

	for changed := true; changed; {
		changed = false
		moving := make(map[*Player]*beltMove, len(moves))
		targets := make(map[geom.Vector]int, len(moves))
		for _, m := range moves {
			moving[m.p] = m
			targets[m.to]++
		}
		kept := moves[:0:0]
		for _, m := range moves {
			ok := targets[m.to] == 1
			if other := g.robotAt(m.to); ok && other != nil {
				om, ok2 := moving[other]
				ok = ok2 && om.to != m.from
			}
			if ok {
				kept = append(kept, m)
			} else {
				changed = true
			}
		}
		moves = kept
	}

	for _, m := range moves {
		m.p.Robot.Place(m.to)
		g.log(log.NewMoveEvent(m.p.ClientID(), m.from, m.to))
	}
	for _, m := range moves {
		if g.Board.IsHazard(m.to) {
			reason := "carried into a pit"
			if !g.Board.InBounds(m.to) {
				reason = "carried off the board"
			}
			if err := g.rebootFrom(m.p, m.from, reason); err != nil {
				return err
			}
			continue
		}
		next := g.Board.Find(m.to, board.KindConveyorBelt)
		if next == nil {
			continue
		}
		side := m.dir.UTurn()
		if slices.Contains(next.Entries(), side) {
			if r := geom.ConveyorTurn(side, next.Facing()); r != geom.NoTurn {
				g.rotateRobot(m.p, r)
			}
		}
	}
	return nil
}

func (g *Game) turnGears() {
	for _, p := range g.players {
		if !p.Active() {
			continue
		}
		pos, _ := p.Robot.Pos()
		if gear := g.Board.Find(pos, board.KindGear); gear != nil && gear.Rotation != geom.NoTurn {
			g.rotateRobot(p, gear.Rotation)
		}
	}
}

func (g *Game) firePushPanels(reg int) error {
	for _, p := range g.players {
		if !p.Active() {
			continue
		}
		pos, _ := p.Robot.Pos()
		panel := g.Board.Find(pos, board.KindPushPanel)
		if panel == nil || !panel.IsActiveIn(reg) {
			continue
		}
		if _, err := g.step(p, panel.Facing(), true); err != nil {
			return err
		}
	}
	return nil
}

type laserHit struct {
	target *Player
	damage int
	source string
}

// traceBeam follows a beam from start towards dir and returns the first active
// robot it meets. The start cell is included when includeStart is set.
func (g *Game) traceBeam(start geom.Vector, dir geom.Orientation, includeStart bool) *Player {
	cur := start
	if includeStart {
		if p := g.activeRobotAt(cur); p != nil {
			return p
		}
	}
	for g.Board.CanCross(cur, dir) {
		cur = cur.Add(dir.ToVector())
		if p := g.activeRobotAt(cur); p != nil {
			return p
		}
	}
	return nil
}

func (g *Game) fireBoardLasers() error {
	var hits []laserHit
	for _, v := range g.Board.Positions(board.KindLaser) {
		for _, t := range g.Board.Stack(v) {
			if t.Kind != board.KindLaser {
				continue
			}
			if target := g.traceBeam(v, t.Facing(), true); target != nil {
				hits = append(hits, laserHit{
					target: target,
					damage: g.Rules.LaserDamage * max(t.Count, 1),
					source: fmt.Sprintf("board laser at %s", v),
				})
			}
		}
	}
	return g.applyLaserHits(hits)
}

func (g *Game) fireRobotLasers() error {
	var hits []laserHit
	for _, p := range g.players {
		if !p.Active() {
			continue
		}
		pos, _ := p.Robot.Pos()
		damage := g.Rules.LaserDamage
		if p.HasUpgrade(CardDoubleBarrelLaser) {
			damage *= 2
		}
		dirs := []geom.Orientation{p.Robot.Orientation}
		if p.HasUpgrade(CardRearLaser) {
			dirs = append(dirs, p.Robot.Orientation.UTurn())
		}
		for _, dir := range dirs {
			if target := g.traceBeam(pos, dir, false); target != nil {
				hits = append(hits, laserHit{
					target: target,
					damage: damage,
					source: fmt.Sprintf("%s's laser", p.Name),
				})
			}
		}
	}
	return g.applyLaserHits(hits)
}

func (g *Game) applyLaserHits(hits []laserHit) error {
	for _, h := range hits {
		g.log(log.NewLaserHitEvent(h.target.ClientID(), h.source))
		if err := g.dealDamage(h.target, CardSpam, h.damage, "laser"); err != nil {
			return err
		}
	}
	return nil
}

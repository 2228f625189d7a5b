package game

import (
	"errors"
	"fmt"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/geom"
	"github.com/peterkuimelis/rallyx/internal/log"
)

// Operations in this file are safe to call from any goroutine. The engine holds
// the game lock while it works, so most of them only get through while Run is
// waiting on a controller.

// Phase returns the current phase.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// Round returns the current round number (0 before the first round).
func (g *Game) Round() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.round
}

// State returns a snapshot of the game.
func (g *Game) State() *GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

// Winners returns the clients that reached the final checkpoint, in order.
func (g *Game) Winners() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]int(nil), g.winners...)
}

// ClientIDs returns the seated clients in id order.
func (g *Game) ClientIDs() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]int, len(g.players))
	for i, p := range g.players {
		ids[i] = p.ClientID()
	}
	return ids
}

// Err returns the fatal error that stopped the game, if any.
func (g *Game) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fatal
}

// withPlayer runs fn for a client under the lock when the game is in one of phases.
func (g *Game) withPlayer(op string, clientID int, fn func(p *Player) error, phases ...Phase) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.inPhase(phases...) {
		return wrongPhase(op, g.phase)
	}
	p, err := g.player(clientID)
	if err != nil {
		return err
	}
	err = fn(p)
	if errors.Is(err, ErrSharedDeckExhausted) {
		g.fatal = err
		if g.cancelRun != nil {
			g.cancelRun()
		}
	}
	return err
}

func (g *Game) inPhase(phases ...Phase) bool {
	for _, ph := range phases {
		if g.phase == ph {
			return true
		}
	}
	return false
}

func placedRobot(p *Player) error {
	if !p.Robot.Placed() {
		return reject("%s has no robot on the board", p.Name)
	}
	return nil
}

// MoveRobot moves a client's robot steps cells towards dir, pushing robots in the way.
func (g *Game) MoveRobot(clientID int, dir geom.Orientation, steps int) error {
	return g.withPlayer("move", clientID, func(p *Player) error {
		if err := placedRobot(p); err != nil {
			return err
		}
		if steps < 1 {
			return reject("steps must be positive, got %d", steps)
		}
		return g.moveRobot(p, dir, steps)
	}, PhaseProgramming)
}

// Teleport puts a client's robot on a free cell, ignoring walls.
func (g *Game) Teleport(clientID int, v geom.Vector) error {
	return g.withPlayer("teleport", clientID, func(p *Player) error {
		if err := placedRobot(p); err != nil {
			return err
		}
		if g.Board.IsHazard(v) || g.Board.HasKind(v, board.KindAntenna) {
			return fmt.Errorf("%w: %s cannot hold a robot", ErrIllegalMove, v)
		}
		if other := g.robotAt(v); other != nil && other != p {
			return fmt.Errorf("%w: %s is occupied by %s", ErrIllegalMove, v, other.Name)
		}
		from, _ := p.Robot.Pos()
		p.Robot.Place(v)
		g.log(log.NewMoveEvent(p.ClientID(), from, v))
		return nil
	}, PhaseProgramming)
}

// RotateRobot turns a client's robot in place.
func (g *Game) RotateRobot(clientID int, r geom.Rotation) error {
	return g.withPlayer("rotate", clientID, func(p *Player) error {
		if err := placedRobot(p); err != nil {
			return err
		}
		g.rotateRobot(p, r)
		return nil
	}, PhaseProgramming)
}

// DrawDamage deals count damage cards from pool to a client.
func (g *Game) DrawDamage(clientID int, pool Pool, count int) error {
	return g.withPlayer("draw-damage", clientID, func(p *Player) error {
		t, ok := DamageCardOf(pool)
		if !ok {
			return reject("%s is not a damage pool", pool)
		}
		if count < 1 {
			return reject("count must be positive, got %d", count)
		}
		return g.dealDamage(p, t, count, "command")
	}, PhaseProgramming)
}

// ShuffleDiscard shuffles a client's discard pile back into the draw deck.
func (g *Game) ShuffleDiscard(clientID int) error {
	return g.withPlayer("shuffle-discard", clientID, func(p *Player) error {
		if p.Cards.DiscardPile().Len() == 0 {
			return reject("%s's discard pile is empty", p.Name)
		}
		p.Cards.ReshuffleDiscard()
		return nil
	}, PhaseProgramming)
}

// AdjustEnergy changes a client's energy by delta, never below zero.
func (g *Game) AdjustEnergy(clientID int, delta int) error {
	return g.withPlayer("adjust-energy", clientID, func(p *Player) error {
		g.adjustEnergy(p, delta, "command")
		return nil
	}, PhaseProgramming)
}

// AdvanceCheckpoint credits a client with the next checkpoint.
func (g *Game) AdvanceCheckpoint(clientID int) error {
	return g.withPlayer("advance-checkpoint", clientID, func(p *Player) error {
		if p.Robot.Checkpoints >= g.checkpointTotal {
			return reject("%s already reached every checkpoint", p.Name)
		}
		p.Robot.IncrementCheckpoint()
		g.log(log.NewCheckpointEvent(p.ClientID(), p.Robot.Checkpoints, g.checkpointTotal))
		g.checkFinalCheckpoint(p)
		return nil
	}, PhaseProgramming)
}

// RebootRobot reboots a client's robot.
func (g *Game) RebootRobot(clientID int) error {
	return g.withPlayer("reboot", clientID, func(p *Player) error {
		if err := placedRobot(p); err != nil {
			return err
		}
		return g.reboot(p, "manual reboot")
	}, PhaseProgramming)
}

// UseUpgrade plays a temporary upgrade of a client. For MemorySwap, picks are
// the hand indices (after drawing) of the three cards to put back.
func (g *Game) UseUpgrade(clientID int, t CardType, picks ...int) error {
	return g.withPlayer("use-upgrade", clientID, func(p *Player) error {
		return g.useUpgrade(p, t, picks)
	}, PhaseProgramming)
}

// ForceComplete stops waiting for programs; players that have not submitted are auto-programmed.
func (g *Game) ForceComplete() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseProgramming || g.cancelProgramming == nil {
		return wrongPhase("force-complete", g.phase)
	}
	g.cancelProgramming()
	return nil
}

// Abort stops the game. A running game aborts at its next checkpoint; an idle
// one is finished immediately.
func (g *Game) Abort() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelRun != nil {
		g.cancelRun()
		return
	}
	g.abort("aborted")
}

// Reset returns a game that has not started or has finished to its initial
// setup: fresh decks, new robots, round zero.
func (g *Game) Reset() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running || !g.inPhase(PhaseSetup, PhaseFinished) {
		return wrongPhase("reset-game", g.phase)
	}
	starting, err := g.Rules.StartingCards()
	if err != nil {
		return err
	}
	g.Shared.ResetDecks()
	for _, p := range g.players {
		p.Cards.Reset(starting)
		p.Register.ClearAll()
		p.Upgrades.Clear()
		p.Robot = NewRobot(g.Rules.StartingEnergy)
		p.SelectingMap = false
		p.StartPointSet = false
		p.resetRoundFlags()
	}
	g.Board.RechargeEnergySpaces()
	g.round = 0
	g.register = -1
	g.winners = nil
	g.claimOrder = nil
	g.fatal = nil
	g.setPhase(PhaseSetup)
	return nil
}

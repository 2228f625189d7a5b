package game

import (
	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/geom"
)

// GameState is an immutable snapshot of a game, handed to controllers and transports.
type GameState struct {
	ID          string
	Round       int
	Register    int // -1 outside execution
	Phase       Phase
	Checkpoints int // checkpoints on the course
	Players     []PlayerState
	Pools       map[Pool]int
	Winners     []int
	Board       *board.Board // read-only
}

// PlayerState is a snapshot of one player.
type PlayerState struct {
	ClientID    int
	Name        string
	AI          bool
	Position    *geom.Vector
	Orientation geom.Orientation
	Checkpoints int
	Energy      int
	Rebooting   bool

	Hand        []*Card
	Registers   Program
	Locked      [RegisterCount]bool
	Upgrades    []*Card
	DrawSize    int
	DiscardSize int
}

// Player returns the snapshot of a client, or nil.
func (s *GameState) Player(clientID int) *PlayerState {
	for i := range s.Players {
		if s.Players[i].ClientID == clientID {
			return &s.Players[i]
		}
	}
	return nil
}

// RobotAt returns the client whose robot stands on v, or -1.
func (s *GameState) RobotAt(v geom.Vector) int {
	for _, p := range s.Players {
		if p.Position != nil && *p.Position == v {
			return p.ClientID
		}
	}
	return -1
}

// snapshot builds a GameState. Caller must hold g.mu.
func (g *Game) snapshot() *GameState {
	s := &GameState{
		ID:          g.ID.String(),
		Round:       g.round,
		Register:    g.register,
		Phase:       g.phase,
		Checkpoints: g.checkpointTotal,
		Pools:       make(map[Pool]int),
		Winners:     append([]int(nil), g.winners...),
		Board:       g.Board,
	}
	for p := PoolSpam; p <= PoolUpgrade; p++ {
		s.Pools[p] = g.Shared.Size(p)
	}
	for _, p := range g.players {
		ps := PlayerState{
			ClientID:    p.ClientID(),
			Name:        p.Name,
			AI:          p.AI,
			Orientation: p.Robot.Orientation,
			Checkpoints: p.Robot.Checkpoints,
			Energy:      p.Robot.Energy,
			Rebooting:   p.Rebooting,
			Hand:        p.Cards.Hand().Cards(),
			Registers:   Program(p.Register.Cards()),
			Upgrades:    p.Upgrades.Cards(),
			DrawSize:    p.Cards.DrawPile().Len(),
			DiscardSize: p.Cards.DiscardPile().Len(),
		}
		if pos, ok := p.Robot.Pos(); ok {
			ps.Position = &pos
		}
		for i := 0; i < RegisterCount; i++ {
			ps.Locked[i] = p.Register.IsLocked(i)
		}
		s.Players = append(s.Players, ps)
	}
	return s
}

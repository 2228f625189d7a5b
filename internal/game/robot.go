package game

import (
	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/geom"
)

// Robot is a player's piece on the board.
type Robot struct {
	Position    *geom.Vector // nil until placed
	Start       *geom.Vector // set once, when the start point is chosen
	Orientation geom.Orientation
	Checkpoints int
	Energy      int
}

var _ board.Occupant = (*Robot)(nil)

func NewRobot(energy int) *Robot {
	return &Robot{Orientation: geom.Top, Energy: energy}
}

// Placed reports whether the robot is on the board.
func (r *Robot) Placed() bool { return r.Position != nil }

// Pos returns the current position; ok is false if the robot is not placed.
func (r *Robot) Pos() (geom.Vector, bool) {
	if r.Position == nil {
		return geom.Vector{}, false
	}
	return *r.Position, true
}

// Place puts the robot at v.
func (r *Robot) Place(v geom.Vector) {
	r.Position = &v
}

// Remove takes the robot off the board.
func (r *Robot) Remove() {
	r.Position = nil
}

// SetStart records the starting position. Only the first call has an effect.
func (r *Robot) SetStart(v geom.Vector) {
	if r.Start == nil {
		r.Start = &v
	}
}

// Move adds the unit vector of o to the position.
func (r *Robot) Move(o geom.Orientation) {
	if r.Position == nil {
		return
	}
	next := r.Position.Add(o.ToVector())
	r.Position = &next
}

func (r *Robot) SetOrientation(o geom.Orientation) {
	r.Orientation = o
}

// Rotate turns the robot in place.
func (r *Robot) Rotate(rot geom.Rotation) {
	r.Orientation = rot.Apply(r.Orientation)
}

// AdjustEnergy adds delta to the energy reserve, flooring at zero.
func (r *Robot) AdjustEnergy(delta int) {
	r.Energy = max(r.Energy+delta, 0)
}

func (r *Robot) IncrementCheckpoint() {
	r.Checkpoints++
}

// ClaimCheckpoint advances the counter only when number is the next checkpoint.
func (r *Robot) ClaimCheckpoint(number int) bool {
	if r.Checkpoints != number-1 {
		return false
	}
	r.IncrementCheckpoint()
	return true
}

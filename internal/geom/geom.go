package geom

import (
	"fmt"
	"strings"
)

// Vector is an integer board coordinate. X grows to the right, Y grows downwards.
type Vector struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns the component-wise sum.
func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns the component-wise difference.
func (v Vector) Sub(o Vector) Vector {
	return Vector{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vector) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

// Manhattan returns the grid distance between two cells.
func Manhattan(a, b Vector) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// Orientation is one of the four compass sides, ordered clockwise.
type Orientation int

const (
	Top Orientation = iota
	Right
	Bottom
	Left
)

// Orientations lists every orientation in clockwise order.
var Orientations = []Orientation{Top, Right, Bottom, Left}

func (o Orientation) String() string {
	switch o {
	case Top:
		return "TOP"
	case Right:
		return "RIGHT"
	case Bottom:
		return "BOTTOM"
	case Left:
		return "LEFT"
	default:
		return "UNKNOWN"
	}
}

// ParseOrientation accepts the names produced by String, case-insensitively.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TOP", "UP", "NORTH":
		return Top, nil
	case "RIGHT", "EAST":
		return Right, nil
	case "BOTTOM", "DOWN", "SOUTH":
		return Bottom, nil
	case "LEFT", "WEST":
		return Left, nil
	}
	return Top, fmt.Errorf("unknown orientation %q", s)
}

func (o Orientation) norm() Orientation {
	return Orientation(((int(o) % 4) + 4) % 4)
}

// TurnRight rotates 90° clockwise.
func (o Orientation) TurnRight() Orientation { return (o + 1).norm() }

// TurnLeft rotates 90° counter-clockwise.
func (o Orientation) TurnLeft() Orientation { return (o + 3).norm() }

// UTurn rotates 180°.
func (o Orientation) UTurn() Orientation { return (o + 2).norm() }

// ToVector returns the unit step for this orientation.
func (o Orientation) ToVector() Vector {
	switch o.norm() {
	case Top:
		return Vector{0, -1}
	case Right:
		return Vector{1, 0}
	case Bottom:
		return Vector{0, 1}
	default:
		return Vector{-1, 0}
	}
}

// StepsTo returns the clockwise distance (0-3) from o to other.
func (o Orientation) StepsTo(other Orientation) int {
	return int((other - o + 4).norm())
}

// Rotation is a change of orientation.
type Rotation int

const (
	NoTurn Rotation = iota
	TurnRight
	TurnLeft
	UTurn
)

func (r Rotation) String() string {
	switch r {
	case TurnRight:
		return "RIGHT"
	case TurnLeft:
		return "LEFT"
	case UTurn:
		return "U-TURN"
	default:
		return "NONE"
	}
}

// ParseRotation accepts LEFT, RIGHT, UTURN or NONE.
func ParseRotation(s string) (Rotation, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RIGHT", "CLOCKWISE", "CW":
		return TurnRight, nil
	case "LEFT", "COUNTERCLOCKWISE", "CCW":
		return TurnLeft, nil
	case "UTURN", "U-TURN":
		return UTurn, nil
	case "", "NONE":
		return NoTurn, nil
	}
	return NoTurn, fmt.Errorf("unknown rotation %q", s)
}

// Apply returns o rotated by r.
func (r Rotation) Apply(o Orientation) Orientation {
	switch r {
	case TurnRight:
		return o.TurnRight()
	case TurnLeft:
		return o.TurnLeft()
	case UTurn:
		return o.UTurn()
	default:
		return o
	}
}

// ConveyorTurn returns the rotation a robot receives while riding a belt segment
// that it enters through side from and leaves through side to. Straight-through
// segments (from and to opposite) yield NoTurn.
func ConveyorTurn(from, to Orientation) Rotation {
	travel := from.UTurn()
	switch to {
	case travel.TurnRight():
		return TurnRight
	case travel.TurnLeft():
		return TurnLeft
	default:
		return NoTurn
	}
}

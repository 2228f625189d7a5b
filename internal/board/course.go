package board

import (
	"errors"
	"fmt"

	"github.com/peterkuimelis/rallyx/internal/geom"
)

var ErrInvalidCourse = errors.New("invalid course")

// Piece is a board placed into a course at an offset, rotated counter-clockwise
// Rotations times before placement.
type Piece struct {
	Board     *Board
	Offset    geom.Vector
	Rotations int
}

// Special is a tile put on top of an assembled course cell (antenna, restart points,
// checkpoints).
type Special struct {
	Pos  geom.Vector
	Tile *Tile
}

// RotateBoard returns a copy of b rotated 90° counter-clockwise.
func RotateBoard(b *Board) *Board {
	w, h := b.Width(), b.Height()
	out := New(b.Name, h, w)
	out.StartingBoard = b.StartingBoard
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			src := geom.Vector{X: x, Y: y}
			dst := geom.Vector{X: y, Y: w - 1 - x}
			var stack []*Tile
			for _, t := range b.Stack(src) {
				stack = append(stack, Rotate(t))
			}
			out.Place(dst, stack...)
			out.MarkStarting(dst, b.starting[x][y])
		}
	}
	return out
}

// Assemble composes pieces and special tiles into one course board.
func Assemble(name string, pieces []Piece, specials []Special) (*Board, error) {
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: course %q has no boards", ErrInvalidCourse, name)
	}

	rotated := make([]*Board, len(pieces))
	width, height := 0, 0
	for i, p := range pieces {
		if p.Offset.X < 0 || p.Offset.Y < 0 {
			return nil, fmt.Errorf("%w: board %q has negative offset %s", ErrInvalidCourse, p.Board.Name, p.Offset)
		}
		rb := p.Board
		for r := 0; r < ((p.Rotations%4)+4)%4; r++ {
			rb = RotateBoard(rb)
		}
		rotated[i] = rb
		width = max(width, p.Offset.X+rb.Width())
		height = max(height, p.Offset.Y+rb.Height())
	}

	// Cells no piece covers are holes in the course.
	course := New(name, width, height)
	covered := make(map[geom.Vector]string)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			course.Place(geom.Vector{X: x, Y: y}, NewPit())
		}
	}

	for i, rb := range rotated {
		off := pieces[i].Offset
		for x := 0; x < rb.Width(); x++ {
			for y := 0; y < rb.Height(); y++ {
				dst := off.Add(geom.Vector{X: x, Y: y})
				if other, ok := covered[dst]; ok {
					return nil, fmt.Errorf("%w: boards %q and %q overlap at %s", ErrInvalidCourse, other, rb.Name, dst)
				}
				covered[dst] = rb.Name
				src := rb.Stack(geom.Vector{X: x, Y: y})
				stack := make([]*Tile, len(src))
				for j, t := range src {
					stack[j] = t.Clone()
				}
				course.Place(dst, stack...)
				course.MarkStarting(dst, rb.StartingArea(geom.Vector{X: x, Y: y}))
			}
		}
	}

	for _, s := range specials {
		if _, ok := covered[s.Pos]; !ok {
			return nil, fmt.Errorf("%w: %s placed off the course at %s", ErrInvalidCourse, s.Tile.Kind, s.Pos)
		}
		t := s.Tile.Clone()
		t.Placement = Placed
		course.Push(s.Pos, t)
	}
	return course, nil
}

// ValidateCourse checks the special-tile requirements of a playable course: one
// antenna, at least one start point, checkpoints numbered 1..M without gaps.
func ValidateCourse(b *Board) error {
	if n := len(b.Positions(KindAntenna)); n != 1 {
		return fmt.Errorf("%w: course %q needs exactly one antenna, found %d", ErrInvalidCourse, b.Name, n)
	}
	if len(b.StartPoints()) == 0 {
		return fmt.Errorf("%w: course %q has no start points", ErrInvalidCourse, b.Name)
	}
	cps := b.Checkpoints()
	if len(cps) == 0 {
		return fmt.Errorf("%w: course %q has no checkpoints", ErrInvalidCourse, b.Name)
	}
	for i, cp := range cps {
		if cp.Number != i+1 {
			return fmt.Errorf("%w: course %q checkpoints must be numbered 1..%d, found %d", ErrInvalidCourse, b.Name, len(cps), cp.Number)
		}
	}
	return nil
}

package board

import (
	"sort"

	"github.com/peterkuimelis/rallyx/internal/geom"
)

// Board is a grid of tile stacks, indexed cells[x][y][layer].
type Board struct {
	Name          string
	StartingBoard bool

	cells    [][][]*Tile
	starting [][]bool // cells that belong to a starting board piece
}

// New creates a width×height board where every cell holds one Empty tile.
func New(name string, width, height int) *Board {
	b := &Board{Name: name}
	b.cells = make([][][]*Tile, width)
	b.starting = make([][]bool, width)
	for x := range b.cells {
		b.cells[x] = make([][]*Tile, height)
		b.starting[x] = make([]bool, height)
		for y := range b.cells[x] {
			b.cells[x][y] = []*Tile{NewEmpty()}
		}
	}
	return b
}

// Clone returns a deep copy, so several games can share one loaded course.
func (b *Board) Clone() *Board {
	c := &Board{Name: b.Name, StartingBoard: b.StartingBoard}
	c.cells = make([][][]*Tile, len(b.cells))
	c.starting = make([][]bool, len(b.starting))
	for x := range b.cells {
		c.cells[x] = make([][]*Tile, len(b.cells[x]))
		c.starting[x] = append([]bool(nil), b.starting[x]...)
		for y, stack := range b.cells[x] {
			c.cells[x][y] = make([]*Tile, len(stack))
			for i, t := range stack {
				c.cells[x][y][i] = t.Clone()
			}
		}
	}
	return c
}

func (b *Board) Width() int { return len(b.cells) }

func (b *Board) Height() int {
	if len(b.cells) == 0 {
		return 0
	}
	return len(b.cells[0])
}

// InBounds checks if the coordinates lie on the board.
func (b *Board) InBounds(v geom.Vector) bool {
	return v.X >= 0 && v.X < b.Width() && v.Y >= 0 && v.Y < b.Height()
}

// Stack returns the tiles of a cell in insertion order, or nil when out of bounds.
func (b *Board) Stack(v geom.Vector) []*Tile {
	if !b.InBounds(v) {
		return nil
	}
	return b.cells[v.X][v.Y]
}

// Push appends a tile on top of the cell's stack. Out-of-bounds positions are ignored.
func (b *Board) Push(v geom.Vector, t *Tile) {
	if !b.InBounds(v) {
		return
	}
	b.cells[v.X][v.Y] = append(b.cells[v.X][v.Y], t)
}

// Place replaces the cell's stack.
func (b *Board) Place(v geom.Vector, tiles ...*Tile) {
	if !b.InBounds(v) {
		return
	}
	b.cells[v.X][v.Y] = append([]*Tile(nil), tiles...)
}

// MarkStarting flags a cell as part of a starting board.
func (b *Board) MarkStarting(v geom.Vector, starting bool) {
	if b.InBounds(v) {
		b.starting[v.X][v.Y] = starting
	}
}

// StartingArea reports whether the cell belongs to a starting board piece.
func (b *Board) StartingArea(v geom.Vector) bool {
	if !b.InBounds(v) {
		return false
	}
	return b.StartingBoard || b.starting[v.X][v.Y]
}

// Depth returns the tallest stack on the board.
func (b *Board) Depth() int {
	depth := 0
	for x := range b.cells {
		for y := range b.cells[x] {
			if n := len(b.cells[x][y]); n > depth {
				depth = n
			}
		}
	}
	return depth
}

// Normalize pads every stack with Null tiles so all stacks share the same depth.
func (b *Board) Normalize() {
	depth := b.Depth()
	for x := range b.cells {
		for y := range b.cells[x] {
			for len(b.cells[x][y]) < depth {
				b.cells[x][y] = append(b.cells[x][y], NewNull())
			}
		}
	}
}

// Find returns the first tile of the given kind in the cell, or nil.
func (b *Board) Find(v geom.Vector, kind TileKind) *Tile {
	for _, t := range b.Stack(v) {
		if t.Kind == kind {
			return t
		}
	}
	return nil
}

// HasKind reports whether the cell holds a tile of the given kind.
func (b *Board) HasKind(v geom.Vector, kind TileKind) bool {
	return b.Find(v, kind) != nil
}

// Positions lists every cell holding a tile of the given kind, column by column.
func (b *Board) Positions(kind TileKind) []geom.Vector {
	var out []geom.Vector
	for x := range b.cells {
		for y := range b.cells[x] {
			v := geom.Vector{X: x, Y: y}
			if b.HasKind(v, kind) {
				out = append(out, v)
			}
		}
	}
	return out
}

// CheckpointPos pairs a checkpoint tile with its cell.
type CheckpointPos struct {
	Pos    geom.Vector
	Number int
}

// Checkpoints returns every checkpoint sorted by sequence number.
func (b *Board) Checkpoints() []CheckpointPos {
	var out []CheckpointPos
	for _, v := range b.Positions(KindCheckpoint) {
		out = append(out, CheckpointPos{Pos: v, Number: b.Find(v, KindCheckpoint).Number})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Antenna returns the antenna cell and tile. ok is false when the board has none.
func (b *Board) Antenna() (geom.Vector, *Tile, bool) {
	pos := b.Positions(KindAntenna)
	if len(pos) == 0 {
		return geom.Vector{}, nil, false
	}
	return pos[0], b.Find(pos[0], KindAntenna), true
}

func (b *Board) StartPoints() []geom.Vector   { return b.Positions(KindStartPoint) }
func (b *Board) RestartPoints() []geom.Vector { return b.Positions(KindRestartPoint) }

// CanLeave reports whether every tile of the cell permits exit towards dir.
func (b *Board) CanLeave(v geom.Vector, dir geom.Orientation) bool {
	for _, t := range b.Stack(v) {
		if !t.CanMoveOutOf(dir) {
			return false
		}
	}
	return true
}

// CanEnter reports whether every tile of the cell permits entry travelling in dir.
func (b *Board) CanEnter(v geom.Vector, dir geom.Orientation) bool {
	for _, t := range b.Stack(v) {
		if !t.CanMoveInto(dir) {
			return false
		}
	}
	return true
}

// Blocked reports whether a step from v towards dir is stopped by the terrain.
// Leaving the board is not blocked: the robot falls off.
func (b *Board) Blocked(v geom.Vector, dir geom.Orientation) bool {
	if !b.CanLeave(v, dir) {
		return true
	}
	next := v.Add(dir.ToVector())
	if !b.InBounds(next) {
		return false
	}
	return !b.CanEnter(next, dir)
}

// CanCross reports whether something travelling from v towards dir reaches the
// neighbouring cell on the board.
func (b *Board) CanCross(v geom.Vector, dir geom.Orientation) bool {
	return b.InBounds(v.Add(dir.ToVector())) && !b.Blocked(v, dir)
}

// IsHazard reports whether a robot ending up on v is destroyed.
func (b *Board) IsHazard(v geom.Vector) bool {
	return !b.InBounds(v) || b.HasKind(v, KindPit)
}

// RechargeEnergySpaces restores every drained energy space.
func (b *Board) RechargeEnergySpaces() {
	for _, v := range b.Positions(KindEnergySpace) {
		for _, t := range b.Stack(v) {
			if t.Kind == KindEnergySpace {
				t.Recharge()
			}
		}
	}
}

// ActivateEntry runs the immediate-on-entry effects of the cell in stack order.
func (b *Board) ActivateEntry(v geom.Vector, o Occupant) []*Tile {
	var fired []*Tile
	for _, t := range b.Stack(v) {
		if t.ActivatesOnEntry() && t.Activate(o) {
			fired = append(fired, t)
		}
	}
	return fired
}

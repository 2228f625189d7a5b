package board

import (
	"fmt"
	"slices"
	"strings"

	"github.com/peterkuimelis/rallyx/internal/geom"
)

// --- Enums ---

type TileKind int

const (
	KindEmpty TileKind = iota
	KindPit
	KindWall
	KindStartPoint
	KindEnergySpace
	KindGear
	KindConveyorBelt
	KindPushPanel
	KindLaser
	KindAntenna
	KindRestartPoint
	KindCheckpoint
	KindNull
)

func (k TileKind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindPit:
		return "Pit"
	case KindWall:
		return "Wall"
	case KindStartPoint:
		return "StartPoint"
	case KindEnergySpace:
		return "EnergySpace"
	case KindGear:
		return "Gear"
	case KindConveyorBelt:
		return "ConveyorBelt"
	case KindPushPanel:
		return "PushPanel"
	case KindLaser:
		return "Laser"
	case KindAntenna:
		return "Antenna"
	case KindRestartPoint:
		return "RestartPoint"
	case KindCheckpoint:
		return "Checkpoint"
	case KindNull:
		return "Null"
	default:
		return "Unknown"
	}
}

// ParseTileKind maps a course-file kind name to a TileKind.
func ParseTileKind(s string) (TileKind, error) {
	name := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	for k := KindEmpty; k <= KindNull; k++ {
		if strings.ToLower(k.String()) == name {
			return k, nil
		}
	}
	return KindNull, fmt.Errorf("unknown tile kind %q", s)
}

// Placement records where a tile came from.
type Placement int

const (
	OffBoard Placement = iota
	Placed             // put on the course by assembly (special tiles, course overlays)
	Native             // part of a board piece
)

const (
	SpeedSingle = 1
	SpeedDouble = 2
)

// Occupant is what a tile can act upon when activated.
type Occupant interface {
	AdjustEnergy(delta int)
	Rotate(r geom.Rotation)
	ClaimCheckpoint(number int) bool
}

// Tile is one layer of a board cell. Kind selects which payload fields apply.
type Tile struct {
	Kind         TileKind
	Placement    Placement
	Orientations []geom.Orientation

	Speed     int           // conveyor belt
	Count     int           // laser beams
	Registers []int         // push panel active registers (0-4)
	Rotation  geom.Rotation // gear
	Number    int           // checkpoint

	// EnergySpace: spent until recharged.
	spent bool
}

func (t *Tile) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindCheckpoint:
		return fmt.Sprintf("Checkpoint %d", t.Number)
	case KindConveyorBelt:
		return fmt.Sprintf("ConveyorBelt(x%d %v)", t.Speed, t.Orientations)
	case KindLaser:
		return fmt.Sprintf("Laser(%d %v)", t.Count, t.Orientations)
	case KindGear:
		return fmt.Sprintf("Gear(%s)", t.Rotation)
	case KindPushPanel:
		return fmt.Sprintf("PushPanel(%v %v)", t.Orientations, t.Registers)
	}
	if len(t.Orientations) > 0 {
		return fmt.Sprintf("%s%v", t.Kind, t.Orientations)
	}
	return t.Kind.String()
}

// --- Constructors ---

func NewEmpty() *Tile       { return &Tile{Kind: KindEmpty, Placement: Native} }
func NewPit() *Tile         { return &Tile{Kind: KindPit, Placement: Native} }
func NewNull() *Tile        { return &Tile{Kind: KindNull, Placement: OffBoard} }
func NewStartPoint() *Tile  { return &Tile{Kind: KindStartPoint, Placement: Native} }
func NewEnergySpace() *Tile { return &Tile{Kind: KindEnergySpace, Placement: Native} }

func NewWall(sides ...geom.Orientation) *Tile {
	return &Tile{Kind: KindWall, Placement: Native, Orientations: sides}
}

func NewGear(r geom.Rotation) *Tile {
	return &Tile{Kind: KindGear, Placement: Native, Rotation: r}
}

// NewConveyor builds a belt leaving through exit and fed through the entry sides.
func NewConveyor(speed int, exit geom.Orientation, entries ...geom.Orientation) *Tile {
	o := append([]geom.Orientation{exit}, entries...)
	if len(entries) == 0 {
		o = append(o, exit.UTurn())
	}
	return &Tile{Kind: KindConveyorBelt, Placement: Native, Orientations: o, Speed: speed}
}

func NewPushPanel(push geom.Orientation, registers ...int) *Tile {
	return &Tile{Kind: KindPushPanel, Placement: Native, Orientations: []geom.Orientation{push}, Registers: registers}
}

func NewLaser(fire geom.Orientation, count int) *Tile {
	return &Tile{Kind: KindLaser, Placement: Native, Orientations: []geom.Orientation{fire}, Count: count}
}

func NewAntenna(facing geom.Orientation) *Tile {
	return &Tile{Kind: KindAntenna, Placement: Placed, Orientations: []geom.Orientation{facing}}
}

func NewRestartPoint(facing geom.Orientation) *Tile {
	return &Tile{Kind: KindRestartPoint, Placement: Placed, Orientations: []geom.Orientation{facing}}
}

func NewCheckpoint(number int) *Tile {
	return &Tile{Kind: KindCheckpoint, Placement: Placed, Number: number}
}

// --- Capabilities ---

// Facing returns the primary orientation: fire axis, push or exit direction, or facing.
func (t *Tile) Facing() geom.Orientation {
	if len(t.Orientations) == 0 {
		return geom.Top
	}
	return t.Orientations[0]
}

// Entries returns the sides a conveyor belt is fed through.
func (t *Tile) Entries() []geom.Orientation {
	if t.Kind != KindConveyorBelt || len(t.Orientations) < 2 {
		return nil
	}
	return t.Orientations[1:]
}

func (t *Tile) hasSide(o geom.Orientation) bool {
	return slices.Contains(t.Orientations, o)
}

// CanMoveInto reports whether a robot travelling in direction dir may enter this tile.
func (t *Tile) CanMoveInto(dir geom.Orientation) bool {
	switch t.Kind {
	case KindAntenna:
		return false
	case KindWall:
		return !t.hasSide(dir.UTurn())
	case KindLaser:
		return dir != t.Facing()
	default:
		return true
	}
}

// CanMoveOutOf reports whether a robot on this tile may leave towards dir.
func (t *Tile) CanMoveOutOf(dir geom.Orientation) bool {
	switch t.Kind {
	case KindWall:
		return !t.hasSide(dir)
	case KindLaser:
		return dir != t.Facing().UTurn()
	default:
		return true
	}
}

// BlocksBeam reports whether a beam travelling in dir stops before leaving this tile.
func (t *Tile) BlocksBeam(dir geom.Orientation) bool {
	return t.Kind == KindAntenna || !t.CanMoveOutOf(dir)
}

// ActivatesOnEntry reports whether moving onto the tile triggers Activate immediately.
// Belts, gears, push panels and lasers only act during their board phase.
func (t *Tile) ActivatesOnEntry() bool {
	return t.Kind == KindEnergySpace || t.Kind == KindCheckpoint
}

// IsActiveIn reports whether a push panel fires during the given register (0-4).
func (t *Tile) IsActiveIn(register int) bool {
	return t.Kind == KindPushPanel && slices.Contains(t.Registers, register)
}

// Activate applies the tile's end-of-movement effect. It returns true if anything changed.
func (t *Tile) Activate(o Occupant) bool {
	switch t.Kind {
	case KindEnergySpace:
		if t.spent {
			return false
		}
		t.spent = true
		o.AdjustEnergy(1)
		return true
	case KindGear:
		if t.Rotation == geom.NoTurn {
			return false
		}
		o.Rotate(t.Rotation)
		return true
	case KindCheckpoint:
		return o.ClaimCheckpoint(t.Number)
	default:
		return false
	}
}

// Spent reports whether an energy space has been drained.
func (t *Tile) Spent() bool { return t.spent }

// Recharge restores a drained energy space.
func (t *Tile) Recharge() { t.spent = false }

// Clone returns a deep copy.
func (t *Tile) Clone() *Tile {
	c := *t
	c.Orientations = slices.Clone(t.Orientations)
	c.Registers = slices.Clone(t.Registers)
	return &c
}

// Rotate returns a copy of t with every orientation turned 90° counter-clockwise.
// The input tile is never modified.
func Rotate(t *Tile) *Tile {
	c := t.Clone()
	for i, o := range c.Orientations {
		c.Orientations[i] = o.TurnLeft()
	}
	return c
}

package board

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/peterkuimelis/rallyx/internal/geom"
)

//go:embed course.schema.json
var courseSchemaJSON []byte

var (
	courseSchemaOnce sync.Once
	courseSchema     *jsonschema.Schema
	courseSchemaErr  error
)

// CourseFile is the top-level YAML structure of a course.
type CourseFile struct {
	Name     string        `yaml:"name"`
	Boards   []BoardEntry  `yaml:"boards"`
	Specials []PlacedEntry `yaml:"specials"`
}

// BoardEntry is one board piece of a course.
type BoardEntry struct {
	Name      string      `yaml:"name"`
	Starting  bool        `yaml:"starting"`
	Width     int         `yaml:"width"`
	Height    int         `yaml:"height"`
	Offset    geom.Vector `yaml:"offset"`
	Rotations int         `yaml:"rotations"`
	Tiles     []CellEntry `yaml:"tiles"`
}

// CellEntry lists the stack of one cell, bottom first.
type CellEntry struct {
	X     int         `yaml:"x"`
	Y     int         `yaml:"y"`
	Stack []TileEntry `yaml:"stack"`
}

// PlacedEntry is a course-level special tile.
type PlacedEntry struct {
	X    int       `yaml:"x"`
	Y    int       `yaml:"y"`
	Tile TileEntry `yaml:"tile"`
}

// TileEntry describes a single tile.
type TileEntry struct {
	Kind         string   `yaml:"kind"`
	Orientations []string `yaml:"orientations"`
	Speed        int      `yaml:"speed"`
	Count        int      `yaml:"count"`
	Registers    []int    `yaml:"registers"`
	Rotation     string   `yaml:"rotation"`
	Number       int      `yaml:"number"`
}

func compiledCourseSchema() (*jsonschema.Schema, error) {
	courseSchemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("course.schema.json", bytes.NewReader(courseSchemaJSON)); err != nil {
			courseSchemaErr = err
			return
		}
		courseSchema, courseSchemaErr = c.Compile("course.schema.json")
	})
	return courseSchema, courseSchemaErr
}

// LoadCourse reads, validates and assembles a course file.
func LoadCourse(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCourse(data)
}

// ParseCourse validates raw course YAML against the course schema, builds every
// board piece and assembles them. Every failure wraps ErrInvalidCourse.
func ParseCourse(data []byte) (*Board, error) {
	if err := validateCourseDocument(data); err != nil {
		return nil, err
	}

	var cf CourseFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("%w: parse course YAML: %v", ErrInvalidCourse, err)
	}

	course, err := cf.Build()
	if err != nil {
		return nil, err
	}
	if err := ValidateCourse(course); err != nil {
		return nil, err
	}
	return course, nil
}

func validateCourseDocument(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: parse course YAML: %v", ErrInvalidCourse, err)
	}
	// Round-trip through JSON so the validator sees plain JSON values.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCourse, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var jdoc any
	if err := dec.Decode(&jdoc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCourse, err)
	}

	schema, err := compiledCourseSchema()
	if err != nil {
		return fmt.Errorf("compile course schema: %w", err)
	}
	if err := schema.Validate(jdoc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCourse, err)
	}
	return nil
}

// Build constructs the tiles of every piece and assembles the course.
func (cf *CourseFile) Build() (*Board, error) {
	var pieces []Piece
	for _, be := range cf.Boards {
		b := New(be.Name, be.Width, be.Height)
		b.StartingBoard = be.Starting
		for _, ce := range be.Tiles {
			v := geom.Vector{X: ce.X, Y: ce.Y}
			if !b.InBounds(v) {
				return nil, fmt.Errorf("%w: board %q cell %s outside %dx%d", ErrInvalidCourse, be.Name, v, be.Width, be.Height)
			}
			var stack []*Tile
			for _, te := range ce.Stack {
				t, err := te.Tile()
				if err != nil {
					return nil, fmt.Errorf("%w: board %q cell %s: %v", ErrInvalidCourse, be.Name, v, err)
				}
				stack = append(stack, t)
			}
			b.Place(v, stack...)
		}
		pieces = append(pieces, Piece{Board: b, Offset: be.Offset, Rotations: be.Rotations})
	}

	var specials []Special
	for _, pe := range cf.Specials {
		t, err := pe.Tile.Tile()
		if err != nil {
			return nil, fmt.Errorf("%w: special at (%d,%d): %v", ErrInvalidCourse, pe.X, pe.Y, err)
		}
		specials = append(specials, Special{Pos: geom.Vector{X: pe.X, Y: pe.Y}, Tile: t})
	}

	return Assemble(cf.Name, pieces, specials)
}

// Tile converts the entry into a tile, checking the payload each kind requires.
func (te TileEntry) Tile() (*Tile, error) {
	kind, err := ParseTileKind(te.Kind)
	if err != nil {
		return nil, err
	}
	var orients []geom.Orientation
	for _, s := range te.Orientations {
		o, err := geom.ParseOrientation(s)
		if err != nil {
			return nil, err
		}
		orients = append(orients, o)
	}
	need := func(n int) error {
		if len(orients) < n {
			return fmt.Errorf("%s needs at least %d orientation(s), got %d", kind, n, len(orients))
		}
		return nil
	}

	switch kind {
	case KindWall:
		if err := need(1); err != nil {
			return nil, err
		}
		return NewWall(orients...), nil
	case KindLaser:
		if err := need(1); err != nil {
			return nil, err
		}
		count := te.Count
		if count == 0 {
			count = 1
		}
		return NewLaser(orients[0], count), nil
	case KindConveyorBelt:
		if err := need(1); err != nil {
			return nil, err
		}
		speed := te.Speed
		if speed == 0 {
			speed = SpeedSingle
		}
		return NewConveyor(speed, orients[0], orients[1:]...), nil
	case KindPushPanel:
		if err := need(1); err != nil {
			return nil, err
		}
		if len(te.Registers) == 0 {
			return nil, fmt.Errorf("push panel needs at least one register")
		}
		return NewPushPanel(orients[0], te.Registers...), nil
	case KindGear:
		r, err := geom.ParseRotation(te.Rotation)
		if err != nil {
			return nil, err
		}
		if r != geom.TurnLeft && r != geom.TurnRight {
			return nil, fmt.Errorf("gear rotation must be LEFT or RIGHT, got %q", te.Rotation)
		}
		return NewGear(r), nil
	case KindCheckpoint:
		if te.Number < 1 {
			return nil, fmt.Errorf("checkpoint needs a number >= 1")
		}
		return NewCheckpoint(te.Number), nil
	case KindAntenna:
		if err := need(1); err != nil {
			return nil, err
		}
		return NewAntenna(orients[0]), nil
	case KindRestartPoint:
		facing := geom.Top
		if len(orients) > 0 {
			facing = orients[0]
		}
		return NewRestartPoint(facing), nil
	case KindStartPoint:
		return NewStartPoint(), nil
	case KindEnergySpace:
		return NewEnergySpace(), nil
	case KindPit:
		return NewPit(), nil
	case KindNull:
		return NewNull(), nil
	default:
		return NewEmpty(), nil
	}
}

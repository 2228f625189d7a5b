package web

import (
	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/geom"
)

// TileView is the JSON representation of one tile layer.
type TileView struct {
	Kind         string   `json:"kind"`
	Orientations []string `json:"orientations,omitempty"`
	Speed        int      `json:"speed,omitempty"`
	Count        int      `json:"count,omitempty"`
	Registers    []int    `json:"registers,omitempty"`
	Rotation     string   `json:"rotation,omitempty"`
	Number       int      `json:"number,omitempty"`
}

// CellView is a non-empty cell with its stack, bottom first.
type CellView struct {
	X        int        `json:"x"`
	Y        int        `json:"y"`
	Starting bool       `json:"starting,omitempty"`
	Stack    []TileView `json:"stack"`
}

// CourseView is the JSON representation of a course for the /api/course endpoint.
type CourseView struct {
	Name        string     `json:"name"`
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Checkpoints int        `json:"checkpoints"`
	Cells       []CellView `json:"cells"`
}

// CourseViewOf renders b. Empty and Null layers are left out, as are cells
// holding nothing else.
func CourseViewOf(b *board.Board) CourseView {
	cv := CourseView{
		Name:        b.Name,
		Width:       b.Width(),
		Height:      b.Height(),
		Checkpoints: len(b.Checkpoints()),
	}
	for y := 0; y < b.Height(); y++ {
		for x := 0; x < b.Width(); x++ {
			v := geom.Vector{X: x, Y: y}
			var stack []TileView
			for _, t := range b.Stack(v) {
				if t.Kind == board.KindEmpty || t.Kind == board.KindNull {
					continue
				}
				stack = append(stack, tileView(t))
			}
			if len(stack) == 0 {
				continue
			}
			cv.Cells = append(cv.Cells, CellView{X: x, Y: y, Starting: b.StartingArea(v), Stack: stack})
		}
	}
	return cv
}

func tileView(t *board.Tile) TileView {
	tv := TileView{
		Kind:      t.Kind.String(),
		Speed:     t.Speed,
		Count:     t.Count,
		Registers: t.Registers,
		Number:    t.Number,
	}
	for _, o := range t.Orientations {
		tv.Orientations = append(tv.Orientations, o.String())
	}
	if t.Kind == board.KindGear {
		tv.Rotation = t.Rotation.String()
	}
	return tv
}

// Package grid translates between pitches and pad coordinates on the 8x8 controller.
package grid

import (
	"errors"
	"fmt"
	"math"
)

// Grid dimensions. The controller is always 8x8.
const (
	Rows = 8
	Cols = 8
)

// ErrInvalidMapping is returned when a pitch mapping does not describe an 8x8 grid.
var ErrInvalidMapping = errors.New("invalid pitch mapping")

// GridPos is a pad coordinate. Row 0 is the bottom row, column 0 the leftmost column.
type GridPos struct {
	Row int `json:"row" yaml:"row" koanf:"row"`
	Col int `json:"col" yaml:"col" koanf:"col"`
}

// InBounds reports whether p addresses a pad on the grid.
func (p GridPos) InBounds() bool {
	return p.Row >= 0 && p.Row < Rows && p.Col >= 0 && p.Col < Cols
}

// Point converts p to continuous coordinates.
func (p GridPos) Point() Point {
	return Point{Row: float64(p.Row), Col: float64(p.Col)}
}

// Clamp moves p onto the nearest pad of the grid.
func (p GridPos) Clamp() GridPos {
	return GridPos{Row: clampInt(p.Row, 0, Rows-1), Col: clampInt(p.Col, 0, Cols-1)}
}

func (p GridPos) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Point is a continuous grid coordinate, used for derived positions such as a
// hand's centre of gravity.
type Point struct {
	Row float64 `json:"row"`
	Col float64 `json:"col"`
}

// Distance returns the Euclidean distance between a and b in pad units.
func Distance(a, b Point) float64 {
	return math.Hypot(a.Row-b.Row, a.Col-b.Col)
}

// PitchMapping maps pitches onto the grid row by row starting at OriginPitch.
type PitchMapping struct {
	Rows        int `json:"rows" yaml:"rows"`
	Cols        int `json:"cols" yaml:"cols"`
	OriginPitch int `json:"originPitch" yaml:"originPitch"`
}

// NewPitchMapping returns an 8x8 mapping whose bottom-left pad plays origin.
func NewPitchMapping(origin int) PitchMapping {
	return PitchMapping{Rows: Rows, Cols: Cols, OriginPitch: origin}
}

// Normalize fills zero dimensions with the grid defaults and rejects anything
// that is not 8x8.
func (m PitchMapping) Normalize() (PitchMapping, error) {
	if m.Rows == 0 {
		m.Rows = Rows
	}
	if m.Cols == 0 {
		m.Cols = Cols
	}
	if m.Rows != Rows || m.Cols != Cols {
		return m, fmt.Errorf("%w: %dx%d grid, want %dx%d", ErrInvalidMapping, m.Rows, m.Cols, Rows, Cols)
	}
	return m, nil
}

// NoteToGrid returns the pad for pitch, or false when the pitch falls outside the grid.
func NoteToGrid(pitch int, m PitchMapping) (GridPos, bool) {
	rows, cols := dims(m)
	offset := pitch - m.OriginPitch
	if offset < 0 {
		return GridPos{}, false
	}
	pos := GridPos{Row: offset / cols, Col: offset % cols}
	if pos.Row >= rows {
		return GridPos{}, false
	}
	return pos, true
}

// GridToNote is the inverse of NoteToGrid.
func GridToNote(row, col int, m PitchMapping) int {
	_, cols := dims(m)
	return m.OriginPitch + row*cols + col
}

func dims(m PitchMapping) (int, int) {
	rows, cols := m.Rows, m.Cols
	if rows <= 0 {
		rows = Rows
	}
	if cols <= 0 {
		cols = Cols
	}
	return rows, cols
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package state

import "fmt"

// Point is a position on the infinite board, in world units unless noted otherwise.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale multiplies both coordinates by f.
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }

// CompositeMode decides how a line is blended with the lines beneath it.
type CompositeMode string

const (
	CompositeDraw  CompositeMode = "draw"
	CompositeErase CompositeMode = "erase"
)

// Line is a single committed freehand stroke.
type Line struct {
	ID            string        `json:"id"`
	StrokeColor   string        `json:"stroke"`
	StrokeWidth   float64       `json:"strokeWidth"`
	CompositeMode CompositeMode `json:"compositeMode"`
	Points        []Point       `json:"points"`
	Smoothed      bool          `json:"smoothed"`
}

// Validate reports whether the line can be committed to a board.
func (l Line) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("line has no id")
	}
	if l.StrokeWidth <= 0 {
		return fmt.Errorf("line %s: stroke width %v must be positive", l.ID, l.StrokeWidth)
	}
	if l.CompositeMode != CompositeDraw && l.CompositeMode != CompositeErase {
		return fmt.Errorf("line %s: unknown composite mode %q", l.ID, l.CompositeMode)
	}
	if len(l.Points) == 0 {
		return fmt.Errorf("line %s has no points", l.ID)
	}
	return nil
}

// Clone returns a deep copy so callers can hand lines across component boundaries
// without sharing the point slice.
func (l Line) Clone() Line {
	c := l
	c.Points = append([]Point(nil), l.Points...)
	return c
}

// LinesKey is the document field holding the ordered line collection.
const LinesKey = "drawing"

// Document is the shared state of one board. Later lines render on top.
type Document struct {
	Lines []Line `json:"drawing"`
}

// NewDocument returns the initial shape of a freshly created board.
func NewDocument() Document {
	return Document{Lines: []Line{}}
}

// CloneLines copies a line slice, including every point slice.
func CloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}

// IndexOf returns the position of the line with the given id, or -1.
func IndexOf(lines []Line, id string) int {
	for i, l := range lines {
		if l.ID == id {
			return i
		}
	}
	return -1
}

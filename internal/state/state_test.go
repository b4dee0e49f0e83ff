package state

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyKeepsShortStrokes(t *testing.T) {
	pts := []Point{{X: 0, Y: 0}, {X: 1, Y: 1}}
	assert.Equal(t, pts, Simplify(pts, 0.5))
	assert.Len(t, Simplify([]Point{{X: 0, Y: 0}, {X: 1, Y: 0.1}, {X: 2, Y: 0}}, 0), 3)
}

func TestSimplifyDropsCollinearPoints(t *testing.T) {
	pts := []Point{{X: 0, Y: 0}, {X: 1, Y: 0.1}, {X: 2, Y: -0.1}, {X: 3, Y: 0}}
	assert.Equal(t, []Point{{X: 0, Y: 0}, {X: 3, Y: 0}}, Simplify(pts, 0.5))
}

func TestSimplifyKeepsCorners(t *testing.T) {
	pts := []Point{{X: 0, Y: 0}, {X: 5, Y: 0.2}, {X: 10, Y: 0}, {X: 10, Y: 5}, {X: 10, Y: 10}}
	assert.Equal(t, []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}, Simplify(pts, 0.5))
}

func TestLineBoundsIncludesStrokeWidth(t *testing.T) {
	l := Line{StrokeWidth: 4, Points: []Point{{X: 0, Y: 0}, {X: 10, Y: 5}}}
	assert.Equal(t, Area{X: -2, Y: -2, Width: 14, Height: 9}, LineBounds(l))
}

func TestBoardBoundsSkipsErase(t *testing.T) {
	lines := []Line{
		{StrokeWidth: 2, CompositeMode: CompositeDraw, Points: []Point{{X: 0, Y: 0}}},
		{StrokeWidth: 2, CompositeMode: CompositeErase, Points: []Point{{X: 100, Y: 100}}},
		{StrokeWidth: 2, CompositeMode: CompositeDraw, Points: []Point{{X: 10, Y: 10}}},
	}
	b, ok := BoardBounds(lines)
	require.True(t, ok)
	assert.Equal(t, Area{X: -1, Y: -1, Width: 12, Height: 12}, b)

	_, ok = BoardBounds(lines[1:2])
	assert.False(t, ok)
}

func TestAreaOverlaps(t *testing.T) {
	a := Area{X: 0, Y: 0, Width: 10, Height: 10}
	assert.True(t, a.Overlaps(Area{X: 5, Y: 5, Width: 10, Height: 10}))
	assert.False(t, a.Overlaps(Area{X: 11, Y: 0, Width: 1, Height: 1}))
}

func TestLineValidate(t *testing.T) {
	good := Line{ID: "a", StrokeWidth: 1, CompositeMode: CompositeDraw, Points: []Point{{}}}
	assert.NoError(t, good.Validate())

	for name, mutate := range map[string]func(*Line){
		"no id":     func(l *Line) { l.ID = "" },
		"width":     func(l *Line) { l.StrokeWidth = 0 },
		"mode":      func(l *Line) { l.CompositeMode = "multiply" },
		"no points": func(l *Line) { l.Points = nil },
	} {
		l := good.Clone()
		mutate(&l)
		assert.Error(t, l.Validate(), name)
	}
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	l := Line{Points: []Point{{X: 1}}}
	c := l.Clone()
	c.Points[0].X = 9
	assert.Equal(t, 1.0, l.Points[0].X)
}

func TestDocumentJSON(t *testing.T) {
	data, err := json.Marshal(NewDocument())
	require.NoError(t, err)
	assert.JSONEq(t, `{"drawing":[]}`, string(data))
}

func TestNewLineIDUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewLineID()
		require.False(t, seen[id])
		seen[id] = true
	}
	assert.True(t, strings.HasPrefix(NewLineID(), siteID+"-"))
}

package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"SyncBoard/internal/state"
	"SyncBoard/internal/viewport"
)

// centred puts the board origin in the middle of a 100x100 surface.
var centred = viewport.Viewport{PanX: 50, PanY: 50, Zoom: 1, Width: 100, Height: 100}

func line(mode state.CompositeMode, width float64, pts ...state.Point) state.Line {
	return state.Line{
		ID:            "l",
		StrokeColor:   "#ff0000",
		StrokeWidth:   width,
		CompositeMode: mode,
		Points:        pts,
	}
}

func near(t *testing.T, want color.RGBA, got color.Color, msg string) {
	t.Helper()
	g := color.RGBAModel.Convert(got).(color.RGBA)
	diff := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	assert.True(t, diff(want.R, g.R) < 16 && diff(want.G, g.G) < 16 && diff(want.B, g.B) < 16 && diff(want.A, g.A) < 16,
		"%s: want %v, got %v", msg, want, g)
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0x12, G: 0x34, B: 0xab, A: 0xff}, ParseColor("#1234ab"))
	assert.Equal(t, color.RGBA{A: 0xff}, ParseColor("red"))
	assert.Equal(t, color.RGBA{A: 0xff}, ParseColor("#12345g"))
}

func TestBoardDrawsLines(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Board(dst, []state.Line{
		line(state.CompositeDraw, 6, state.Point{X: -40, Y: -20}, state.Point{X: 40, Y: -20}),
	}, centred, false)

	near(t, color.RGBA{R: 0xff, A: 0xff}, dst.At(70, 30), "on the line")
	near(t, Background, dst.At(70, 70), "off the line")
}

func TestEraseRemovesInkNotGrid(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Board(dst, []state.Line{
		line(state.CompositeDraw, 6, state.Point{X: -40, Y: -20}, state.Point{X: 40, Y: -20}),
		line(state.CompositeErase, 10, state.Point{X: -40, Y: -20}, state.Point{X: 40, Y: -20}),
	}, centred, true)

	near(t, Background, dst.At(70, 30), "erased ink")
	near(t, gridMajor, dst.At(50, 30), "grid under erased ink")
}

func TestLaterLinesPaintOver(t *testing.T) {
	blue := line(state.CompositeDraw, 6, state.Point{X: 0, Y: -40}, state.Point{X: 0, Y: 40})
	blue.StrokeColor = "#0000ff"
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Board(dst, []state.Line{
		line(state.CompositeDraw, 6, state.Point{X: -40, Y: 0}, state.Point{X: 40, Y: 0}),
		blue,
	}, centred, false)

	near(t, color.RGBA{B: 0xff, A: 0xff}, dst.At(50, 50), "crossing")
	near(t, color.RGBA{R: 0xff, A: 0xff}, dst.At(20, 50), "red only")
}

func TestDotIsADisc(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Lines(dst, []state.Line{line(state.CompositeDraw, 10, state.Point{})}, centred)

	near(t, color.RGBA{R: 0xff, A: 0xff}, dst.At(50, 50), "centre")
	near(t, color.RGBA{R: 0xff, A: 0xff}, dst.At(52, 52), "inside radius")
	assert.Equal(t, uint8(0), dst.RGBAAt(58, 50).A, "outside radius")
}

func TestZoomScalesStrokes(t *testing.T) {
	vp := centred
	vp.Zoom = 4
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Lines(dst, []state.Line{line(state.CompositeDraw, 4, state.Point{X: -5, Y: 0}, state.Point{X: 5, Y: 0})}, vp)

	// 4 units wide at zoom 4 covers 8px either side of the centre line
	near(t, color.RGBA{R: 0xff, A: 0xff}, dst.At(50, 56), "inside zoomed width")
	near(t, color.RGBA{R: 0xff, A: 0xff}, dst.At(68, 50), "end at x=5")
	assert.Equal(t, uint8(0), dst.RGBAAt(50, 62).A)
}

func TestOffscreenLinesAreSkipped(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Lines(dst, []state.Line{line(state.CompositeDraw, 6, state.Point{X: 500, Y: 500}, state.Point{X: 600, Y: 500})}, centred)
	for _, px := range dst.Pix {
		if px != 0 {
			t.Fatal("offscreen line touched the surface")
		}
	}
}

func TestScale(t *testing.T) {
	vp := Scale(centred, 2)
	assert.Equal(t, viewport.Viewport{PanX: 100, PanY: 100, Zoom: 2, Width: 200, Height: 200}, vp)
	assert.Equal(t, state.Point{X: 120, Y: 100}, vp.ToScreen(state.Point{X: 10}))
}

func TestSmoothKeepsEndpoints(t *testing.T) {
	pts := []state.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	out := smooth(pts)
	assert.Equal(t, pts[0], out[0])
	assert.Equal(t, pts[2], out[len(out)-1])
	assert.Len(t, out, smoothSteps+2)

	short := pts[:2]
	assert.Equal(t, short, smooth(short))
}

func TestGridHiddenWhenZoomedOut(t *testing.T) {
	vp := centred
	vp.Zoom = 0.05
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	Grid(dst, vp)
	for _, px := range dst.Pix {
		if px != 0 {
			t.Fatal("grid drawn below the minimum spacing")
		}
	}
}

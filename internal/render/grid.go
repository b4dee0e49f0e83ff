package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"SyncBoard/internal/state"
	"SyncBoard/internal/viewport"
)

// GridSize is the spacing of grid lines in board units.
const GridSize = 40

const (
	gridMajorEvery = 5
	gridMinorWidth = 2
	gridMajorWidth = 4
	// below this many pixels between lines the grid is noise
	gridMinStep = 4
)

var (
	gridMinor = color.RGBA{R: 0xc7, G: 0xc7, B: 0xc7, A: 0xff}
	gridMajor = color.RGBA{R: 0xaa, G: 0xaa, B: 0xaa, A: 0xff}
)

// Grid draws the board grid. Every fifth line, counted from the board origin,
// is heavier.
func Grid(dst *image.RGBA, vp viewport.Viewport) {
	if GridSize*vp.Zoom < gridMinStep {
		return
	}
	area := vp.VisibleArea()
	firstX, lastX := gridRange(area.X, area.Width)
	firstY, lastY := gridRange(area.Y, area.Height)

	for _, major := range []bool{false, true} {
		c, w := gridMinor, gridMinorWidth
		if major {
			c, w = gridMajor, gridMajorWidth
		}
		t := int(math.Max(1, math.Round(float64(w)*vp.Zoom)))
		src := image.NewUniform(c)

		for i := firstX; i <= lastX; i++ {
			if (i%gridMajorEvery == 0) != major {
				continue
			}
			x := int(math.Round(vp.ToScreen(state.Point{X: float64(i * GridSize)}).X)) - t/2
			draw.Draw(dst, image.Rect(x, 0, x+t, dst.Bounds().Dy()).Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
		}
		for i := firstY; i <= lastY; i++ {
			if (i%gridMajorEvery == 0) != major {
				continue
			}
			y := int(math.Round(vp.ToScreen(state.Point{Y: float64(i * GridSize)}).Y)) - t/2
			draw.Draw(dst, image.Rect(0, y, dst.Bounds().Dx(), y+t).Intersect(dst.Bounds()), src, image.Point{}, draw.Src)
		}
	}
}

func gridRange(start, size float64) (int, int) {
	return int(math.Floor(start / GridSize)), int(math.Ceil((start + size) / GridSize))
}

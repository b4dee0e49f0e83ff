// Package export writes boards out as printable images.
package export

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"

	"SyncBoard/internal/render"
	"SyncBoard/internal/state"
	"SyncBoard/internal/viewport"
)

// maxZoom keeps a handful of strokes from being blown up to fill the page.
const maxZoom = 4

// Fit returns the viewport that centres every drawn line on a width x height
// surface, leaving margin pixels free on each side.
func Fit(lines []state.Line, width, height, margin int) viewport.Viewport {
	vp := viewport.Viewport{
		PanX:   float64(width) / 2,
		PanY:   float64(height) / 2,
		Zoom:   1,
		Width:  float64(width),
		Height: float64(height),
	}
	bounds, ok := state.BoardBounds(lines)
	if !ok {
		return vp
	}
	availW := math.Max(float64(width-2*margin), 1)
	availH := math.Max(float64(height-2*margin), 1)
	vp.Zoom = maxZoom
	if bounds.Width > 0 {
		vp.Zoom = math.Min(vp.Zoom, availW/bounds.Width)
	}
	if bounds.Height > 0 {
		vp.Zoom = math.Min(vp.Zoom, availH/bounds.Height)
	}
	vp.PanX -= (bounds.X + bounds.Width/2) * vp.Zoom
	vp.PanY -= (bounds.Y + bounds.Height/2) * vp.Zoom
	return vp
}

// Image renders lines fitted onto a width x height image without the grid.
func Image(lines []state.Line, width, height, margin int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	render.Board(img, lines, Fit(lines, width, height, margin), false)
	return img
}

// WritePNG encodes lines as a width x height PNG.
func WritePNG(w io.Writer, lines []state.Line, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("png size %dx%d", width, height)
	}
	margin := min(width, height) / 20
	if err := png.Encode(w, Image(lines, width, height, margin)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

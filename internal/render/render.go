// Package render rasterizes boards, both for the canvas widget and for export.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strconv"

	"golang.org/x/image/vector"

	"SyncBoard/internal/state"
	"SyncBoard/internal/viewport"
)

// Background is the paper colour behind every board.
var Background = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// smoothSteps is how many segments each curve of a smoothed line is flattened into.
const smoothSteps = 8

// ParseColor converts a #rrggbb stroke colour. Anything else renders black.
func ParseColor(hex string) color.RGBA {
	black := color.RGBA{A: 0xff}
	if len(hex) != 7 || hex[0] != '#' {
		return black
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// Scale maps vp onto a surface with s device pixels per screen unit.
func Scale(vp viewport.Viewport, s float64) viewport.Viewport {
	return viewport.Viewport{
		PanX:   vp.PanX * s,
		PanY:   vp.PanY * s,
		Zoom:   vp.Zoom * s,
		Width:  vp.Width * s,
		Height: vp.Height * s,
	}
}

// Board paints the paper, the grid when asked for, and every line as seen
// through vp. Erase strokes only remove ink, never the grid.
func Board(dst *image.RGBA, lines []state.Line, vp viewport.Viewport, grid bool) {
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(Background), image.Point{}, draw.Src)
	if grid {
		Grid(dst, vp)
	}
	ink := image.NewRGBA(b)
	Lines(ink, lines, vp)
	draw.Draw(dst, b, ink, b.Min, draw.Over)
}

// Lines draws lines in order onto dst, whose origin must be (0, 0). Erase
// strokes clear whatever dst already holds beneath them.
func Lines(dst *image.RGBA, lines []state.Line, vp viewport.Viewport) {
	b := dst.Bounds()
	visible := vp.VisibleArea()

	var (
		r    vector.Rasterizer
		mask *image.Alpha
	)
	for _, l := range lines {
		if len(l.Points) == 0 || !state.LineBounds(l).Overlaps(visible) {
			continue
		}
		pts := make([]state.Point, len(l.Points))
		for i, p := range l.Points {
			pts[i] = vp.ToScreen(p)
		}
		if l.Smoothed {
			pts = smooth(pts)
		}
		hw := l.StrokeWidth * vp.Zoom / 2

		r.Reset(b.Dx(), b.Dy())
		stroke(&r, pts, hw)

		if l.CompositeMode != state.CompositeErase {
			r.DrawOp = draw.Over
			r.Draw(dst, b, image.NewUniform(ParseColor(l.StrokeColor)), image.Point{})
			continue
		}
		if mask == nil {
			mask = image.NewAlpha(b)
		}
		r.DrawOp = draw.Src
		r.Draw(mask, b, image.Opaque, image.Point{})
		erase(dst, mask, screenRect(pts, hw).Intersect(b))
	}
}

// erase scales every pixel of dst inside area by the inverse of mask.
func erase(dst *image.RGBA, mask *image.Alpha, area image.Rectangle) {
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			a := mask.AlphaAt(x, y).A
			if a == 0 {
				continue
			}
			keep := 0xff - uint32(a)
			i := dst.PixOffset(x, y)
			for c := 0; c < 4; c++ {
				dst.Pix[i+c] = uint8(uint32(dst.Pix[i+c]) * keep / 0xff)
			}
		}
	}
}

func screenRect(pts []state.Point, hw float64) image.Rectangle {
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return image.Rect(
		int(math.Floor(minX-hw))-1, int(math.Floor(minY-hw))-1,
		int(math.Ceil(maxX+hw))+1, int(math.Ceil(maxY+hw))+1,
	)
}

// stroke adds a polyline with round caps and joins. Every shape winds the same
// way so overlaps merge instead of cancelling.
func stroke(r *vector.Rasterizer, pts []state.Point, hw float64) {
	if hw <= 0 {
		return
	}
	for i, p := range pts {
		disc(r, p, hw)
		if i > 0 {
			segment(r, pts[i-1], p, hw)
		}
	}
}

func segment(r *vector.Rasterizer, p, q state.Point, hw float64) {
	d := q.Sub(p)
	length := math.Hypot(d.X, d.Y)
	if length == 0 {
		return
	}
	n := state.Point{X: -d.Y, Y: d.X}.Scale(hw / length)
	corners := []state.Point{p.Sub(n), q.Sub(n), q.Add(n), p.Add(n)}
	r.MoveTo(float32(corners[0].X), float32(corners[0].Y))
	for _, c := range corners[1:] {
		r.LineTo(float32(c.X), float32(c.Y))
	}
	r.ClosePath()
}

func disc(r *vector.Rasterizer, c state.Point, radius float64) {
	n := int(math.Min(math.Max(radius*2, 8), 64))
	r.MoveTo(float32(c.X+radius), float32(c.Y))
	for i := 1; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		r.LineTo(float32(c.X+radius*math.Cos(a)), float32(c.Y+radius*math.Sin(a)))
	}
	r.ClosePath()
}

// smooth rounds off the corners of a polyline with quadratic curves through
// the segment midpoints. The end points stay where they are.
func smooth(pts []state.Point) []state.Point {
	if len(pts) < 3 {
		return pts
	}
	out := make([]state.Point, 0, (len(pts)-2)*smoothSteps+2)
	out = append(out, pts[0])
	from := pts[0]
	for i := 1; i < len(pts)-1; i++ {
		ctrl := pts[i]
		to := pts[i].Add(pts[i+1]).Scale(0.5)
		for s := 1; s <= smoothSteps; s++ {
			t := float64(s) / smoothSteps
			a := from.Scale((1 - t) * (1 - t))
			b := ctrl.Scale(2 * (1 - t) * t)
			c := to.Scale(t * t)
			out = append(out, a.Add(b).Add(c))
		}
		from = to
	}
	return append(out, pts[len(pts)-1])
}

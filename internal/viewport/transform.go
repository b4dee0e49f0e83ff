package viewport

import "SyncBoard/internal/state"

// Viewport maps screen pixels onto the infinite board.
type Viewport struct {
	PanX   float64
	PanY   float64
	Zoom   float64
	Width  float64
	Height float64
}

// ToWorld converts a screen position into board coordinates.
func ToWorld(p state.Point, v Viewport) state.Point {
	return state.Point{
		X: (p.X - v.PanX) / v.Zoom,
		Y: (p.Y - v.PanY) / v.Zoom,
	}
}

// ToScreen converts a board position into screen coordinates.
func ToScreen(p state.Point, v Viewport) state.Point {
	return state.Point{
		X: p.X*v.Zoom + v.PanX,
		Y: p.Y*v.Zoom + v.PanY,
	}
}

// ToWorld is a shorthand for ToWorld(p, v).
func (v Viewport) ToWorld(p state.Point) state.Point { return ToWorld(p, v) }

// ToScreen is a shorthand for ToScreen(p, v).
func (v Viewport) ToScreen(p state.Point) state.Point { return ToScreen(p, v) }

// VisibleArea is the part of the board currently on screen.
func (v Viewport) VisibleArea() state.Area {
	tl := v.ToWorld(state.Point{})
	return state.Area{X: tl.X, Y: tl.Y, Width: v.Width / v.Zoom, Height: v.Height / v.Zoom}
}

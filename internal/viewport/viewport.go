// Package viewport owns the pan offset, zoom factor and canvas size of a session.
package viewport

import (
	"math"
	"time"

	"SyncBoard/internal/event"
	"SyncBoard/internal/loop"
	"SyncBoard/internal/state"
)

// Config holds the tunables of the controller.
type Config struct {
	MinZoom        float64
	MaxZoom        float64
	WheelFactor    float64
	ResizeDebounce time.Duration
}

// DefaultConfig mirrors the behaviour users are used to.
func DefaultConfig() Config {
	return Config{
		MinZoom:        0.1,
		MaxZoom:        10,
		WheelFactor:    1.05,
		ResizeDebounce: 250 * time.Millisecond,
	}
}

// ZoomChange describes one zoom step so dependents can rescale in lockstep.
type ZoomChange struct {
	Old   float64
	New   float64
	Focal state.Point
}

// RedrawMode selects how a redraw request is scheduled.
type RedrawMode int

const (
	// Deferred coalesces requests into at most one redraw per animation frame.
	Deferred RedrawMode = iota
	// Immediate redraws synchronously and drops any pending deferred redraw.
	Immediate
)

// Controller is the only writer of the session Viewport.
type Controller struct {
	cfg   Config
	sched loop.Scheduler
	vp    Viewport

	resize        *loop.Debounce
	pendingWidth  float64
	pendingHeight float64
	frame         loop.Timer

	// Changed fires after every pan, zoom or resize.
	Changed event.Emitter[Viewport]
	// Zoomed fires after the zoom factor actually changed.
	Zoomed event.Emitter[ZoomChange]
	// Resized fires once per coalesced resize burst.
	Resized event.Emitter[Viewport]
	// Draw is where renderers hook in; it fires whenever a redraw is due.
	Draw event.Emitter[Viewport]
}

// New creates a controller for a canvas of the given size. The board origin
// starts at the centre of the screen.
func New(cfg Config, sched loop.Scheduler, width, height float64) *Controller {
	c := &Controller{
		cfg:   cfg,
		sched: sched,
		vp: Viewport{
			PanX:   width / 2,
			PanY:   height / 2,
			Zoom:   clamp(1, cfg.MinZoom, cfg.MaxZoom),
			Width:  width,
			Height: height,
		},
	}
	c.resize = loop.NewDebounce(sched, cfg.ResizeDebounce, c.applyResize)
	return c
}

// Viewport returns the current state.
func (c *Controller) Viewport() Viewport { return c.vp }

// Zoom returns the current zoom factor.
func (c *Controller) Zoom() float64 { return c.vp.Zoom }

// ToWorld converts a screen point with the current viewport.
func (c *Controller) ToWorld(p state.Point) state.Point { return ToWorld(p, c.vp) }

// Resize records a new canvas size. Bursts are coalesced and applied once
// ResizeDebounce has passed without another call.
func (c *Controller) Resize(width, height float64) {
	if !finite(width) || !finite(height) || width < 0 || height < 0 {
		return
	}
	c.pendingWidth, c.pendingHeight = width, height
	c.resize.Call()
}

func (c *Controller) applyResize() {
	c.vp.Width, c.vp.Height = c.pendingWidth, c.pendingHeight
	c.Resized.Emit(c.vp)
	c.Changed.Emit(c.vp)
	c.RequestRedraw(Immediate)
}

// SetZoom clamps zoom into range and keeps the board point under focal fixed
// on screen. It reports whether the zoom factor changed.
func (c *Controller) SetZoom(zoom float64, focal state.Point) bool {
	if !finite(zoom) || zoom <= 0 || !finite(focal.X) || !finite(focal.Y) {
		return false
	}

	oldZoom := c.vp.Zoom
	newZoom := clamp(zoom, c.cfg.MinZoom, c.cfg.MaxZoom)
	if newZoom == oldZoom {
		return false
	}

	ratio := newZoom / oldZoom
	c.vp.PanX = focal.X - (focal.X-c.vp.PanX)*ratio
	c.vp.PanY = focal.Y - (focal.Y-c.vp.PanY)*ratio
	c.vp.Zoom = newZoom

	c.Zoomed.Emit(ZoomChange{Old: oldZoom, New: newZoom, Focal: focal})
	c.Changed.Emit(c.vp)
	c.RequestRedraw(Deferred)
	return true
}

// Wheel zooms one step in (deltaY < 0) or out (deltaY > 0) around the pointer.
func (c *Controller) Wheel(deltaY float64, pointer state.Point) {
	switch {
	case deltaY < 0:
		c.SetZoom(c.vp.Zoom*c.cfg.WheelFactor, pointer)
	case deltaY > 0:
		c.SetZoom(c.vp.Zoom/c.cfg.WheelFactor, pointer)
	}
}

// ZoomBy multiplies the zoom around the centre of the canvas.
func (c *Controller) ZoomBy(factor float64) {
	c.SetZoom(c.vp.Zoom*factor, state.Point{X: c.vp.Width / 2, Y: c.vp.Height / 2})
}

// Pan translates the board by a screen-space delta. The board is unbounded.
func (c *Controller) Pan(dx, dy float64) {
	if !finite(dx) || !finite(dy) || (dx == 0 && dy == 0) {
		return
	}
	c.vp.PanX += dx
	c.vp.PanY += dy
	c.Changed.Emit(c.vp)
	c.RequestRedraw(Deferred)
}

// Reset returns to zoom 1 with the board origin centred.
func (c *Controller) Reset() {
	c.vp.PanX, c.vp.PanY = c.vp.Width/2, c.vp.Height/2
	old := c.vp.Zoom
	c.vp.Zoom = clamp(1, c.cfg.MinZoom, c.cfg.MaxZoom)
	if old != c.vp.Zoom {
		c.Zoomed.Emit(ZoomChange{Old: old, New: c.vp.Zoom, Focal: state.Point{X: c.vp.PanX, Y: c.vp.PanY}})
	}
	c.Changed.Emit(c.vp)
	c.RequestRedraw(Immediate)
}

// RequestRedraw asks renderers to draw. High frequency callers use Deferred so at
// most one redraw happens per frame.
func (c *Controller) RequestRedraw(mode RedrawMode) {
	if mode == Immediate {
		if c.frame != nil {
			c.frame.Stop()
			c.frame = nil
		}
		c.Draw.Emit(c.vp)
		return
	}

	if c.frame != nil {
		return
	}
	c.frame = c.sched.RequestFrame(func() {
		c.frame = nil
		c.Draw.Emit(c.vp)
	})
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

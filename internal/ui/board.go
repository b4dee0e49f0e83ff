package ui

import (
	"SyncBoard/internal/event"
	"SyncBoard/internal/session"
	"SyncBoard/internal/state"
	"SyncBoard/internal/store"
	"SyncBoard/internal/viewport"
)

// Lines is the read side of the synced store that the canvas shows.
type Lines interface {
	Lines() []state.Line
	OnLoaded(fn func([]state.Line)) event.Handle
	OnError(fn func(error)) event.Handle
	OnChange(fn func(store.Change)) event.Handle
}

// boardView feeds a BoardWidget from the session thread: every redraw the
// viewport schedules becomes one frame of committed lines plus the stroke
// still being drawn.
type boardView struct {
	widget  *BoardWidget
	sess    *session.Session
	lines   Lines
	preview *state.Line
	handles []event.Handle
}

// bindBoard must run on the session thread.
func bindBoard(w *BoardWidget, sess *session.Session, lines Lines) *boardView {
	v := &boardView{widget: w, sess: sess, lines: lines}
	vp := sess.Viewport()
	redraw := func() { vp.RequestRedraw(viewport.Deferred) }

	v.handles = append(v.handles,
		vp.Draw.On(v.draw),
		lines.OnLoaded(func([]state.Line) { redraw() }),
		// the raster is repainted whole each frame, so the change kind does not matter here
		lines.OnChange(func(store.Change) { redraw() }),
		sess.StrokePreview.On(func(s session.Stroke) {
			if s.Active {
				line := s.Line
				v.preview = &line
			} else {
				v.preview = nil
			}
			redraw()
		}),
		sess.CursorScaled.On(func(c session.CursorScale) {
			w.setCursor(c.Diameter, sess.Toolbar().Tool().Drawing())
		}),
	)

	tb := sess.Toolbar()
	w.setCursor(float64(tb.ActiveSize())*vp.Zoom(), tb.Tool().Drawing())
	vp.RequestRedraw(viewport.Immediate)
	return v
}

func (v *boardView) draw(vp viewport.Viewport) {
	v.widget.setFrame(v.lines.Lines(), v.preview, vp)
}

func (v *boardView) close() {
	for _, h := range v.handles {
		h.Remove()
	}
	v.handles = nil
}

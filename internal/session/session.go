// Package session wires the viewport, gesture machine, synced store, undo
// history and toolbar of one open board together.
package session

import (
	"io"
	"log"
	"time"

	"SyncBoard/internal/event"
	"SyncBoard/internal/gesture"
	"SyncBoard/internal/loop"
	"SyncBoard/internal/state"
	"SyncBoard/internal/undo"
	"SyncBoard/internal/viewport"
)

// dotEpsilon offsets the second point of a tap so it renders as a dot.
const dotEpsilon = 0.0000001

// Lines is the part of the synced line store a session edits.
type Lines interface {
	AddLine(line state.Line) error
	ClearAll() error
	OnLoaded(fn func([]state.Line)) event.Handle
	OnError(fn func(error)) event.Handle
}

// Config tunes stroke capture.
type Config struct {
	SimplifyTolerance float64
	InputThrottle     time.Duration
	StrokeThrottle    time.Duration
}

// DefaultConfig returns the stock capture settings.
func DefaultConfig() Config {
	return Config{
		SimplifyTolerance: 0.5,
		InputThrottle:     10 * time.Millisecond,
		StrokeThrottle:    20 * time.Millisecond,
	}
}

// Stroke is the in-progress line. Active is false once the stroke was committed
// or discarded and the preview should go away.
type Stroke struct {
	Line   state.Line
	Active bool
}

// CursorScale sizes the brush cursor indicator: Diameter is in screen pixels.
type CursorScale struct {
	Size     int
	Zoom     float64
	Diameter float64
}

// Session is one open board. Everything runs on the session thread.
type Session struct {
	cfg      Config
	vp       *viewport.Controller
	gestures *gesture.Machine
	lines    Lines
	history  *undo.Manager
	toolbar  *Toolbar
	logger   *log.Logger

	loaded  bool
	enabled bool
	current *state.Line
	preview *loop.Throttle[state.Line]
	handles []event.Handle

	StrokePreview  event.Emitter[Stroke]
	CursorScaled   event.Emitter[CursorScale]
	EnabledChanged event.Emitter[bool]
}

// New wires a session. Drawing stays disabled until lines reports the board loaded.
func New(cfg Config, sched loop.Scheduler, vp *viewport.Controller, lines Lines, history *undo.Manager, toolbar *Toolbar, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Session{
		cfg:      cfg,
		vp:       vp,
		gestures: gesture.NewMachine(vp, sched, cfg.InputThrottle),
		lines:    lines,
		history:  history,
		toolbar:  toolbar,
		logger:   logger,
	}
	s.preview = loop.NewThrottle(sched, cfg.StrokeThrottle, func(l state.Line) {
		s.StrokePreview.Emit(Stroke{Line: l, Active: true})
	})
	s.gestures.SetPanTool(toolbar.Tool() == ToolPan)

	s.handles = append(s.handles,
		s.gestures.Events.On(s.onGesture),
		toolbar.ToolChanged.On(s.onTool),
		toolbar.BrushSizeChanged.On(func(int) { s.emitCursor() }),
		toolbar.EraserSizeChanged.On(func(int) { s.emitCursor() }),
		vp.Zoomed.On(func(viewport.ZoomChange) { s.emitCursor() }),
		lines.OnError(s.onError),
		lines.OnLoaded(s.onLoaded),
	)
	return s
}

func (s *Session) Viewport() *viewport.Controller { return s.vp }
func (s *Session) Gestures() *gesture.Machine { return s.gestures }
func (s *Session) Toolbar() *Toolbar { return s.toolbar }
func (s *Session) History() *undo.Manager { return s.history }

// Enabled reports whether pointer gestures currently draw.
func (s *Session) Enabled() bool { return s.enabled }

// Handle feeds raw input to the gesture machine.
func (s *Session) Handle(in gesture.Input) { s.gestures.Handle(in) }

// Wheel zooms around the pointer.
func (s *Session) Wheel(deltaY float64, pointer state.Point) { s.vp.Wheel(deltaY, pointer) }

// Resize reports a new canvas size.
func (s *Session) Resize(width, height float64) { s.vp.Resize(width, height) }

func (s *Session) Undo() { s.history.Undo() }
func (s *Session) Redo() { s.history.Redo() }

// Clear removes every line from the board.
func (s *Session) Clear() {
	if err := s.lines.ClearAll(); err != nil {
		s.logger.Printf("clear board: %v", err)
	}
}

// Close detaches the session from its collaborators.
func (s *Session) Close() {
	for _, h := range s.handles {
		h.Remove()
	}
	s.handles = nil
	s.gestures.CancelActive()
	s.preview.Cancel()
}

func (s *Session) onGesture(evt gesture.Event) {
	if evt.Kind != gesture.Pointer {
		return
	}
	switch evt.Phase {
	case gesture.Start:
		if s.enabled {
			s.begin(evt.World)
		}
	case gesture.Move:
		if s.current == nil {
			return
		}
		s.current.Points = append(s.current.Points, evt.World)
		s.preview.Call(s.current.Clone())
	case gesture.End:
		if s.current != nil {
			s.commit(evt.World)
		}
	case gesture.Cancel:
		s.discard()
	}
}

func (s *Session) begin(at state.Point) {
	mode := state.CompositeDraw
	if s.toolbar.Tool() == ToolEraser {
		mode = state.CompositeErase
	}
	s.current = &state.Line{
		ID:            state.NewLineID(),
		StrokeColor:   s.toolbar.Color(),
		StrokeWidth:   float64(s.toolbar.ActiveSize()),
		CompositeMode: mode,
		Points:        []state.Point{at},
		Smoothed:      true,
	}
	s.preview.Call(s.current.Clone())
}

func (s *Session) commit(at state.Point) {
	line := *s.current
	s.current = nil
	s.preview.Cancel()

	if len(line.Points) < 2 {
		line.Points = append(line.Points, state.Point{X: at.X + dotEpsilon, Y: at.Y + dotEpsilon})
		line.Smoothed = false
	} else {
		line.Points = state.Simplify(line.Points, s.cfg.SimplifyTolerance)
	}

	if err := s.lines.AddLine(line); err != nil {
		s.logger.Printf("stroke %s dropped: %v", line.ID, err)
	}
	s.StrokePreview.Emit(Stroke{Line: line})
}

func (s *Session) discard() {
	if s.current == nil {
		return
	}
	line := *s.current
	s.current = nil
	s.preview.Cancel()
	s.StrokePreview.Emit(Stroke{Line: line})
}

func (s *Session) onTool(tool Tool) {
	s.gestures.SetPanTool(tool == ToolPan)
	if !tool.Drawing() {
		if _, drawing := s.gestures.Current().(*gesture.PointerGesture); drawing {
			s.gestures.CancelActive()
		}
		s.discard()
	}
	s.refresh()
	s.emitCursor()
}

func (s *Session) onLoaded([]state.Line) {
	s.loaded = true
	s.refresh()
}

func (s *Session) onError(err error) {
	s.logger.Printf("drawing disabled until the board reloads: %v", err)
	if _, drawing := s.gestures.Current().(*gesture.PointerGesture); drawing {
		s.gestures.CancelActive()
	}
	s.discard()
	s.loaded = false
	s.refresh()
}

func (s *Session) refresh() {
	enabled := s.loaded && s.toolbar.Tool().Drawing()
	if enabled == s.enabled {
		return
	}
	s.enabled = enabled
	s.EnabledChanged.Emit(enabled)
}

func (s *Session) emitCursor() {
	size := s.toolbar.ActiveSize()
	zoom := s.vp.Zoom()
	s.CursorScaled.Emit(CursorScale{Size: size, Zoom: zoom, Diameter: float64(size) * zoom})
}

// Package gesture turns raw mouse and touch input into exactly one active
// gesture at a time: a pointer stroke, a pan drag or a pinch zoom.
package gesture

import (
	"time"

	"SyncBoard/internal/event"
	"SyncBoard/internal/loop"
	"SyncBoard/internal/state"
)

// Kind names a gesture family.
type Kind int

const (
	None Kind = iota
	Pointer
	Drag
	Pinch
)

func (k Kind) String() string {
	switch k {
	case Pointer:
		return "pointer"
	case Drag:
		return "drag"
	case Pinch:
		return "pinch"
	default:
		return "none"
	}
}

// Phase is the lifecycle step an Event reports.
type Phase int

const (
	Start Phase = iota
	Move
	// End commits the gesture's result.
	End
	// Cancel discards it.
	Cancel
)

func (p Phase) String() string {
	switch p {
	case Start:
		return "start"
	case Move:
		return "move"
	case End:
		return "end"
	default:
		return "cancel"
	}
}

// Event is a normalized gesture step. Screen is in pixels, World in board units.
// Delta is the screen movement since the previous sample of the same gesture.
// Center and Distance are only set for pinches.
type Event struct {
	Kind     Kind
	Phase    Phase
	Screen   state.Point
	World    state.Point
	Delta    state.Point
	Center   state.Point
	Distance float64
}

// Gesture is the sum type of machine states: Idle, *PointerGesture,
// *DragGesture or *PinchGesture.
type Gesture interface {
	Kind() Kind
}

// Idle means no gesture is active.
type Idle struct{}

func (Idle) Kind() Kind { return None }

// PointerGesture is a stroke being drawn.
type PointerGesture struct{ Origin, Last Event }

func (*PointerGesture) Kind() Kind { return Pointer }

// DragGesture pans the board.
type DragGesture struct{ Origin, Last Event }

func (*DragGesture) Kind() Kind { return Drag }

// PinchGesture zooms the board around the contacts' centre.
type PinchGesture struct{ Origin, Last Event }

func (*PinchGesture) Kind() Kind { return Pinch }

// Viewport is the part of the viewport controller the machine drives.
type Viewport interface {
	ToWorld(p state.Point) state.Point
	Zoom() float64
	SetZoom(zoom float64, focal state.Point) bool
	Pan(dx, dy float64)
}

// Machine classifies input. It must only be used from the session thread.
type Machine struct {
	vp      Viewport
	panTool bool
	current Gesture

	mouseMove *loop.Throttle[Input]
	touchMove *loop.Throttle[Input]

	// Events receives every gesture step, in order.
	Events event.Emitter[Event]
}

// NewMachine creates an idle machine. Move input is throttled to one sample per
// throttle interval; drag and pinch math only ever sees throttled samples.
func NewMachine(vp Viewport, sched loop.Scheduler, throttle time.Duration) *Machine {
	m := &Machine{vp: vp, current: Idle{}}
	m.mouseMove = loop.NewThrottle(sched, throttle, m.step)
	m.touchMove = loop.NewThrottle(sched, throttle, m.step)
	return m
}

// Current returns the active gesture.
func (m *Machine) Current() Gesture { return m.current }

// SetPanTool selects whether single-contact input pans (true) or draws.
// Leaving the pan tool in the middle of a drag cancels the drag.
func (m *Machine) SetPanTool(on bool) {
	m.panTool = on
	if _, dragging := m.current.(*DragGesture); dragging && !on {
		m.cancelMoves()
		m.cancel()
	}
}

// CancelActive discards whatever gesture is running.
func (m *Machine) CancelActive() {
	m.cancelMoves()
	m.cancel()
}

// Handle feeds one raw input event to the machine.
func (m *Machine) Handle(in Input) {
	switch in.Kind {
	case MouseMove:
		m.mouseMove.Call(in)
		return
	case TouchMove:
		m.touchMove.Call(in)
		return
	case TouchCancel, Blur:
		m.cancelMoves()
	default:
		m.flushMoves()
	}
	m.step(in)
}

func (m *Machine) flushMoves() {
	m.mouseMove.Flush()
	m.touchMove.Flush()
}

func (m *Machine) cancelMoves() {
	m.mouseMove.Cancel()
	m.touchMove.Cancel()
}

// step is the total transition function: every state accepts every input.
func (m *Machine) step(in Input) {
	switch g := m.current.(type) {
	case Idle:
		m.fromIdle(in)
	case *PointerGesture:
		m.fromSingle(in, Pointer, &g.Last)
	case *DragGesture:
		m.fromSingle(in, Drag, &g.Last)
	case *PinchGesture:
		m.fromPinch(in, g)
	}
}

func (m *Machine) fromIdle(in Input) {
	switch in.Kind {
	case MouseDown:
		m.startSingle(in.Pos)
	case TouchStart:
		switch {
		case len(in.Touches) >= 2:
			m.startPinch(in.Touches)
		case len(in.Touches) == 1:
			m.startSingle(in.Touches[0])
		}
	}
}

func (m *Machine) startSingle(screen state.Point) {
	kind := Pointer
	if m.panTool {
		kind = Drag
	}
	evt := Event{Kind: kind, Phase: Start, Screen: screen, World: m.vp.ToWorld(screen)}
	if kind == Drag {
		m.current = &DragGesture{Origin: evt, Last: evt}
	} else {
		m.current = &PointerGesture{Origin: evt, Last: evt}
	}
	m.Events.Emit(evt)
}

func (m *Machine) fromSingle(in Input, kind Kind, last *Event) {
	switch in.Kind {
	case TouchStart, TouchMove:
		if len(in.Touches) >= 2 {
			m.cancel()
			m.startPinch(in.Touches)
			return
		}
		if in.Kind == TouchMove {
			m.moveSingle(in, kind, last)
		}
	case MouseMove:
		m.moveSingle(in, kind, last)
	case MouseUp, MouseLeave, TouchEnd:
		m.end(Event{Kind: kind, Phase: End, Screen: last.Screen, World: last.World})
	case TouchCancel, Blur:
		m.cancel()
	}
}

func (m *Machine) moveSingle(in Input, kind Kind, last *Event) {
	screen, ok := in.primary()
	if !ok {
		return
	}
	delta := screen.Sub(last.Screen)
	if kind == Drag {
		m.vp.Pan(delta.X, delta.Y)
	}
	evt := Event{Kind: kind, Phase: Move, Screen: screen, World: m.vp.ToWorld(screen), Delta: delta}
	*last = evt
	m.Events.Emit(evt)
}

func (m *Machine) startPinch(touches []state.Point) {
	center := state.Center(touches[0], touches[1])
	evt := Event{
		Kind:     Pinch,
		Phase:    Start,
		Screen:   center,
		World:    m.vp.ToWorld(center),
		Center:   center,
		Distance: state.Distance(touches[0], touches[1]),
	}
	m.current = &PinchGesture{Origin: evt, Last: evt}
	m.Events.Emit(evt)
}

func (m *Machine) fromPinch(in Input, g *PinchGesture) {
	switch in.Kind {
	case TouchMove:
		if len(in.Touches) < 2 {
			m.end(Event{Kind: Pinch, Phase: End, Screen: g.Last.Center, World: g.Last.World, Center: g.Last.Center})
			return
		}
		m.movePinch(in.Touches, g)
	case TouchEnd:
		if len(in.Touches) < 2 {
			m.end(Event{Kind: Pinch, Phase: End, Screen: g.Last.Center, World: g.Last.World, Center: g.Last.Center})
		}
	case TouchCancel, Blur:
		m.cancel()
	}
}

func (m *Machine) movePinch(touches []state.Point, g *PinchGesture) {
	center := state.Center(touches[0], touches[1])
	distance := state.Distance(touches[0], touches[1])

	if prev := g.Last.Distance; prev > 0 && distance > 0 {
		m.vp.SetZoom(m.vp.Zoom()*distance/prev, center)
	}

	evt := Event{
		Kind:     Pinch,
		Phase:    Move,
		Screen:   center,
		World:    m.vp.ToWorld(center),
		Delta:    center.Sub(g.Last.Center),
		Center:   center,
		Distance: distance,
	}
	g.Last = evt
	m.Events.Emit(evt)
}

func (m *Machine) end(evt Event) {
	m.current = Idle{}
	m.Events.Emit(evt)
}

func (m *Machine) cancel() {
	kind := m.current.Kind()
	if kind == None {
		return
	}
	m.current = Idle{}
	m.Events.Emit(Event{Kind: kind, Phase: Cancel})
}

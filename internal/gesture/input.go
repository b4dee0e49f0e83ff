package gesture

import "SyncBoard/internal/state"

// InputKind enumerates the raw pointer, mouse and touch events the machine consumes.
type InputKind int

const (
	MouseDown InputKind = iota
	MouseMove
	MouseUp
	// MouseLeave is the pointer leaving the canvas; it ends a gesture like MouseUp.
	MouseLeave
	TouchStart
	TouchMove
	TouchEnd
	TouchCancel
	// Blur is the window losing focus; it cancels whatever is active.
	Blur
)

func (k InputKind) String() string {
	switch k {
	case MouseDown:
		return "mousedown"
	case MouseMove:
		return "mousemove"
	case MouseUp:
		return "mouseup"
	case MouseLeave:
		return "mouseleave"
	case TouchStart:
		return "touchstart"
	case TouchMove:
		return "touchmove"
	case TouchEnd:
		return "touchend"
	case TouchCancel:
		return "touchcancel"
	case Blur:
		return "blur"
	default:
		return "unknown"
	}
}

// Input is one raw event in screen coordinates. Mouse events use Pos, touch
// events list every contact still on the surface in Touches.
type Input struct {
	Kind    InputKind
	Pos     state.Point
	Touches []state.Point
}

func (in Input) isTouch() bool {
	switch in.Kind {
	case TouchStart, TouchMove, TouchEnd, TouchCancel:
		return true
	}
	return false
}

// primary returns the position that drives a single-contact gesture.
func (in Input) primary() (state.Point, bool) {
	if in.isTouch() {
		if len(in.Touches) == 0 {
			return state.Point{}, false
		}
		return in.Touches[0], true
	}
	return in.Pos, true
}

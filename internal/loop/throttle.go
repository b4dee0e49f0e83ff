package loop

import "time"

// Debounce coalesces a burst of calls into one trailing call, wait after the last one.
type Debounce struct {
	s     Scheduler
	wait  time.Duration
	fn    func()
	timer Timer
}

// NewDebounce wraps fn.
func NewDebounce(s Scheduler, wait time.Duration, fn func()) *Debounce {
	return &Debounce{s: s, wait: wait, fn: fn}
}

// Call restarts the quiet period.
func (d *Debounce) Call() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.s.AfterFunc(d.wait, func() {
		d.timer = nil
		d.fn()
	})
}

// Cancel drops a pending call.
func (d *Debounce) Cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Throttle limits fn to one call per wait. The first call of a window runs
// immediately, the latest call made during the window runs when it closes.
type Throttle[T any] struct {
	s    Scheduler
	wait time.Duration
	fn   func(T)

	last    time.Time
	called  bool
	pending bool
	arg     T
	timer   Timer
}

// NewThrottle wraps fn. A zero wait disables throttling.
func NewThrottle[T any](s Scheduler, wait time.Duration, fn func(T)) *Throttle[T] {
	return &Throttle[T]{s: s, wait: wait, fn: fn}
}

// Call invokes fn now or schedules it for the end of the current window.
func (t *Throttle[T]) Call(v T) {
	now := t.s.Now()
	if !t.called || now.Sub(t.last) >= t.wait {
		t.stopTimer()
		t.pending = false
		t.invoke(v)
		return
	}

	t.arg, t.pending = v, true
	if t.timer == nil {
		t.timer = t.s.AfterFunc(t.wait-now.Sub(t.last), t.trailing)
	}
}

// Flush runs the pending trailing call, if any, right away.
func (t *Throttle[T]) Flush() {
	t.stopTimer()
	if t.pending {
		t.pending = false
		t.invoke(t.arg)
	}
}

// Cancel drops the pending trailing call.
func (t *Throttle[T]) Cancel() {
	t.stopTimer()
	var zero T
	t.arg, t.pending = zero, false
}

func (t *Throttle[T]) trailing() {
	t.timer = nil
	if t.pending {
		t.pending = false
		t.invoke(t.arg)
	}
}

func (t *Throttle[T]) invoke(v T) {
	t.last, t.called = t.s.Now(), true
	t.fn(v)
}

func (t *Throttle[T]) stopTimer() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

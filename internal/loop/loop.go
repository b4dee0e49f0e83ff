// Package loop runs a drawing session on one logical thread. Input, network
// callbacks and redraws are all posted to the same queue so no component state
// is ever mutated concurrently.
package loop

import (
	"context"
	"sync"
	"time"
)

// Timer cancels a callback scheduled with AfterFunc or RequestFrame.
type Timer interface {
	// Stop prevents the callback from running and reports whether it was still pending.
	Stop() bool
}

// Scheduler is what components use to defer work onto the session thread.
type Scheduler interface {
	Now() time.Time
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) Timer
	RequestFrame(fn func()) Timer
}

// Loop is the production Scheduler: a single goroutine draining a FIFO queue.
type Loop struct {
	frame time.Duration

	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

// New returns a loop whose animation frames are spaced by frame.
func New(frame time.Duration) *Loop {
	if frame <= 0 {
		frame = 16 * time.Millisecond
	}
	return &Loop{
		frame: frame,
		wake:  make(chan struct{}, 1),
	}
}

// Now returns the wall clock.
func (l *Loop) Now() time.Time { return time.Now() }

// Post queues fn to run on the loop goroutine. It is safe to call from any goroutine,
// including the loop itself. Posts after Run returns are dropped.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// AfterFunc runs fn on the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.fire() {
				fn()
			}
		})
	})
	return t
}

// RequestFrame runs fn at the next frame boundary.
func (l *Loop) RequestFrame(fn func()) Timer {
	return l.AfterFunc(l.frame, fn)
}

// Run drains the queue until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.closed = true
		l.queue = nil
		l.mu.Unlock()
	}()

	for {
		for {
			l.mu.Lock()
			if len(l.queue) == 0 {
				l.mu.Unlock()
				break
			}
			fn := l.queue[0]
			l.queue[0] = nil
			l.queue = l.queue[1:]
			l.mu.Unlock()
			fn()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

type loopTimer struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	fired   bool
}

func (t *loopTimer) fire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.fired = true
	return true
}

func (t *loopTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}

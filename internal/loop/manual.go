package loop

import (
	"sort"
	"time"
)

// Manual is a deterministic Scheduler driven by tests: time only moves on Advance
// and frames only run on Frame.
type Manual struct {
	now    time.Time
	seq    int
	posted []func()
	timers []*manualTimer
	frames []*manualTimer
}

// NewManual starts a virtual clock at a fixed instant.
func NewManual() *Manual {
	return &Manual{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

type manualTimer struct {
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (m *Manual) Now() time.Time { return m.now }

// Post queues fn until the next Drain, Advance or Frame.
func (m *Manual) Post(fn func()) { m.posted = append(m.posted, fn) }

func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.seq++
	t := &manualTimer{at: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return t
}

func (m *Manual) RequestFrame(fn func()) Timer {
	m.seq++
	t := &manualTimer{at: m.now, seq: m.seq, fn: fn}
	m.frames = append(m.frames, t)
	return t
}

// Drain runs posted functions, including ones posted while draining.
func (m *Manual) Drain() {
	for len(m.posted) > 0 {
		fn := m.posted[0]
		m.posted = m.posted[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in deadline order.
func (m *Manual) Advance(d time.Duration) {
	m.Drain()
	end := m.now.Add(d)
	for {
		next := m.nextTimer(end)
		if next == nil {
			break
		}
		m.now = next.at
		next.fired = true
		next.fn()
		m.Drain()
	}
	m.now = end
}

func (m *Manual) nextTimer(end time.Time) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at.Equal(m.timers[j].at) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].at.Before(m.timers[j].at)
	})
	if len(m.timers) == 0 || m.timers[0].at.After(end) {
		return nil
	}
	return m.timers[0]
}

// Frame runs every frame callback requested so far and reports how many ran.
func (m *Manual) Frame() int {
	m.Drain()
	frames := m.frames
	m.frames = nil
	ran := 0
	for _, t := range frames {
		if t.stopped {
			continue
		}
		t.fired = true
		t.fn()
		ran++
	}
	m.Drain()
	return ran
}

// PendingFrames counts frame callbacks that are still waiting.
func (m *Manual) PendingFrames() int {
	n := 0
	for _, t := range m.frames {
		if !t.stopped {
			n++
		}
	}
	return n
}

package session

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SyncBoard/internal/event"
	"SyncBoard/internal/gesture"
	"SyncBoard/internal/loop"
	"SyncBoard/internal/state"
	"SyncBoard/internal/undo"
	"SyncBoard/internal/viewport"
)

type fakeLines struct {
	added   []state.Line
	cleared int
	ready   bool
	loaded  event.Emitter[[]state.Line]
	errs    event.Emitter[error]
}

func (f *fakeLines) AddLine(line state.Line) error {
	f.added = append(f.added, line)
	return nil
}

func (f *fakeLines) ClearAll() error {
	f.cleared++
	return nil
}

// load marks the board loaded; like the store, later OnLoaded callers get the lines right away.
func (f *fakeLines) load() {
	f.ready = true
	f.loaded.Emit(state.CloneLines(f.added))
}

func (f *fakeLines) OnLoaded(fn func([]state.Line)) event.Handle {
	if f.ready {
		fn(state.CloneLines(f.added))
	}
	return f.loaded.On(fn)
}
func (f *fakeLines) OnError(fn func(error)) event.Handle { return f.errs.On(fn) }

type fixture struct {
	sched   *loop.Manual
	lines   *fakeLines
	session *Session
	toolbar *Toolbar
}

func newFixture(t *testing.T, loaded bool) *fixture {
	t.Helper()
	sched := loop.NewManual()
	lines := &fakeLines{}
	if loaded {
		lines.load()
	}
	vp := viewport.New(viewport.DefaultConfig(), sched, 800, 600)
	toolbar := NewToolbar(DefaultLimits(), nil, sched)
	s := New(DefaultConfig(), sched, vp, lines, undo.New(), toolbar, nil)
	t.Cleanup(s.Close)
	return &fixture{sched: sched, lines: lines, session: s, toolbar: toolbar}
}

func (f *fixture) mouse(kind gesture.InputKind, x, y float64) {
	f.session.Handle(gesture.Input{Kind: kind, Pos: state.Point{X: x, Y: y}})
}

func TestDrawingWaitsForLoad(t *testing.T) {
	f := newFixture(t, false)
	assert.False(t, f.session.Enabled())

	f.mouse(gesture.MouseDown, 400, 300)
	f.mouse(gesture.MouseUp, 400, 300)
	assert.Empty(t, f.lines.added)

	var enabled []bool
	f.session.EnabledChanged.On(func(v bool) { enabled = append(enabled, v) })
	f.lines.load()
	assert.True(t, f.session.Enabled())
	assert.Equal(t, []bool{true}, enabled)

	f.mouse(gesture.MouseDown, 400, 300)
	f.mouse(gesture.MouseUp, 400, 300)
	assert.Len(t, f.lines.added, 1)
}

func TestTapCommitsDot(t *testing.T) {
	f := newFixture(t, true)

	f.mouse(gesture.MouseDown, 410, 310)
	f.mouse(gesture.MouseUp, 410, 310)

	require.Len(t, f.lines.added, 1)
	line := f.lines.added[0]
	require.Len(t, line.Points, 2)
	assert.Equal(t, state.Point{X: 10, Y: 10}, line.Points[0])
	assert.InDelta(t, 10, line.Points[1].X, 1e-6)
	assert.InDelta(t, 10, line.Points[1].Y, 1e-6)
	assert.NotEqual(t, line.Points[0], line.Points[1])
	assert.False(t, line.Smoothed)
	assert.Equal(t, state.CompositeDraw, line.CompositeMode)
	assert.Equal(t, 5.0, line.StrokeWidth)
	assert.Equal(t, "#000000", line.StrokeColor)
	assert.NoError(t, line.Validate())
}

func TestStrokeIsSimplified(t *testing.T) {
	f := newFixture(t, true)

	f.mouse(gesture.MouseDown, 400, 300)
	for _, p := range []state.Point{{X: 410, Y: 300}, {X: 420, Y: 300.1}, {X: 430, Y: 300}} {
		f.sched.Advance(20 * time.Millisecond)
		f.mouse(gesture.MouseMove, p.X, p.Y)
	}
	f.mouse(gesture.MouseUp, 430, 300)

	require.Len(t, f.lines.added, 1)
	line := f.lines.added[0]
	assert.Equal(t, []state.Point{{X: 0, Y: 0}, {X: 30, Y: 0}}, line.Points)
	assert.True(t, line.Smoothed)
}

func TestStrokeFollowsZoom(t *testing.T) {
	f := newFixture(t, true)
	f.session.Viewport().SetZoom(2, state.Point{X: 400, Y: 300})

	f.mouse(gesture.MouseDown, 420, 300)
	f.mouse(gesture.MouseUp, 420, 300)

	require.Len(t, f.lines.added, 1)
	assert.Equal(t, state.Point{X: 10, Y: 0}, f.lines.added[0].Points[0])
}

func TestCancelDiscardsStroke(t *testing.T) {
	f := newFixture(t, true)

	var previews []Stroke
	f.session.StrokePreview.On(func(s Stroke) { previews = append(previews, s) })

	f.mouse(gesture.MouseDown, 400, 300)
	f.sched.Advance(20 * time.Millisecond)
	f.mouse(gesture.MouseMove, 420, 320)
	f.session.Handle(gesture.Input{Kind: gesture.Blur})

	assert.Empty(t, f.lines.added)
	require.NotEmpty(t, previews)
	assert.True(t, previews[0].Active)
	assert.False(t, previews[len(previews)-1].Active)
	assert.False(t, f.session.History().CanUndo())
}

func TestPreviewIsThrottled(t *testing.T) {
	f := newFixture(t, true)

	var previews []Stroke
	f.session.StrokePreview.On(func(s Stroke) { previews = append(previews, s) })

	f.mouse(gesture.MouseDown, 400, 300)
	require.Len(t, previews, 1)

	f.sched.Advance(10 * time.Millisecond)
	f.mouse(gesture.MouseMove, 410, 300)
	assert.Len(t, previews, 1, "second sample within the stroke throttle window waits")

	f.sched.Advance(10 * time.Millisecond)
	require.Len(t, previews, 2)
	assert.Len(t, previews[1].Line.Points, 2)
}

func TestEraserStrokes(t *testing.T) {
	f := newFixture(t, true)
	f.toolbar.SetTool(ToolEraser)

	f.mouse(gesture.MouseDown, 400, 300)
	f.mouse(gesture.MouseUp, 400, 300)

	require.Len(t, f.lines.added, 1)
	assert.Equal(t, state.CompositeErase, f.lines.added[0].CompositeMode)
	assert.Equal(t, 20.0, f.lines.added[0].StrokeWidth)
}

func TestPanToolDoesNotDraw(t *testing.T) {
	f := newFixture(t, true)
	f.toolbar.SetTool(ToolPan)
	assert.False(t, f.session.Enabled())

	f.mouse(gesture.MouseDown, 400, 300)
	f.sched.Advance(20 * time.Millisecond)
	f.mouse(gesture.MouseMove, 450, 320)
	f.mouse(gesture.MouseUp, 450, 320)

	assert.Empty(t, f.lines.added)
	vp := f.session.Viewport().Viewport()
	assert.Equal(t, 450.0, vp.PanX)
	assert.Equal(t, 320.0, vp.PanY)
}

func TestSwitchingToPanDiscardsStroke(t *testing.T) {
	f := newFixture(t, true)

	f.mouse(gesture.MouseDown, 400, 300)
	f.toolbar.SetTool(ToolPan)
	f.mouse(gesture.MouseUp, 400, 300)

	assert.Empty(t, f.lines.added)
	assert.IsType(t, gesture.Idle{}, f.session.Gestures().Current())
}

func TestErrorDisablesUntilReload(t *testing.T) {
	f := newFixture(t, true)

	var enabled []bool
	f.session.EnabledChanged.On(func(v bool) { enabled = append(enabled, v) })

	f.mouse(gesture.MouseDown, 400, 300)
	f.lines.errs.Emit(errors.New("rejected"))
	f.mouse(gesture.MouseUp, 400, 300)
	assert.Empty(t, f.lines.added)
	assert.False(t, f.session.Enabled())

	f.mouse(gesture.MouseDown, 400, 300)
	f.mouse(gesture.MouseUp, 400, 300)
	assert.Empty(t, f.lines.added)

	f.lines.load()
	f.mouse(gesture.MouseDown, 400, 300)
	f.mouse(gesture.MouseUp, 400, 300)
	assert.Len(t, f.lines.added, 1)
	assert.Equal(t, []bool{false, true}, enabled)
}

func TestCursorScale(t *testing.T) {
	f := newFixture(t, true)

	var last CursorScale
	f.session.CursorScaled.On(func(c CursorScale) { last = c })

	f.toolbar.SetBrushSize(10)
	assert.Equal(t, 10.0, last.Diameter)

	f.session.Viewport().SetZoom(2, state.Point{X: 400, Y: 300})
	assert.Equal(t, 20.0, last.Diameter)

	f.toolbar.SetTool(ToolEraser)
	assert.Equal(t, 40.0, last.Diameter)
}

func TestClearDelegatesToStore(t *testing.T) {
	f := newFixture(t, true)
	f.session.Clear()
	assert.Equal(t, 1, f.lines.cleared)
}

package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"SyncBoard/internal/loop"
)

type mapPrefs struct {
	values map[string]int
	sets   int
}

func (p *mapPrefs) IntWithFallback(key string, fallback int) int {
	if v, ok := p.values[key]; ok {
		return v
	}
	return fallback
}

func (p *mapPrefs) SetInt(key string, value int) {
	p.values[key] = value
	p.sets++
}

func TestToolbarDefaults(t *testing.T) {
	tb := NewToolbar(DefaultLimits(), nil, loop.NewManual())
	assert.Equal(t, ToolBrush, tb.Tool())
	assert.Equal(t, 5, tb.BrushSize())
	assert.Equal(t, 20, tb.EraserSize())
	assert.Equal(t, "#000000", tb.Color())
}

func TestToolbarColor(t *testing.T) {
	tb := NewToolbar(DefaultLimits(), nil, loop.NewManual())

	var got []string
	tb.ColorChanged.On(func(c string) { got = append(got, c) })

	assert.True(t, tb.SetColor("#FFaa00"))
	assert.False(t, tb.SetColor("red"))
	assert.False(t, tb.SetColor("#12345"))
	assert.Equal(t, "#FFaa00", tb.Color())
	assert.Equal(t, []string{"#FFaa00"}, got)
}

func TestToolbarSizesClamp(t *testing.T) {
	tb := NewToolbar(DefaultLimits(), nil, loop.NewManual())

	tb.SetBrushSize(0)
	assert.Equal(t, 1, tb.BrushSize())
	tb.SetBrushSize(99)
	assert.Equal(t, 30, tb.BrushSize())
	tb.SetEraserSize(500)
	assert.Equal(t, 200, tb.EraserSize())
}

func TestToolbarRejectsNonNumericText(t *testing.T) {
	tb := NewToolbar(DefaultLimits(), nil, loop.NewManual())

	calls := 0
	tb.BrushSizeChanged.On(func(int) { calls++ })

	assert.False(t, tb.SetBrushSizeText("abc"))
	assert.False(t, tb.SetBrushSizeText(""))
	assert.Equal(t, 5, tb.BrushSize())
	assert.Zero(t, calls)

	assert.True(t, tb.SetBrushSizeText("12px"))
	assert.Equal(t, 12, tb.BrushSize())
	assert.True(t, tb.SetEraserSizeText(" 40 "))
	assert.Equal(t, 40, tb.EraserSize())
}

func TestToolbarPersistsWhenIdle(t *testing.T) {
	sched := loop.NewManual()
	prefs := &mapPrefs{values: map[string]int{}}
	tb := NewToolbar(DefaultLimits(), prefs, sched)

	tb.SetBrushSize(6)
	sched.Advance(100 * time.Millisecond)
	tb.SetBrushSize(7)
	sched.Advance(100 * time.Millisecond)
	assert.Zero(t, prefs.sets)

	sched.Advance(200 * time.Millisecond)
	assert.Equal(t, 1, prefs.sets)
	assert.Equal(t, 7, prefs.values[brushSizeKey])
}

func TestToolbarRestoresPrefs(t *testing.T) {
	prefs := &mapPrefs{values: map[string]int{brushSizeKey: 12, eraserSizeKey: 999}}
	tb := NewToolbar(DefaultLimits(), prefs, loop.NewManual())
	assert.Equal(t, 12, tb.BrushSize())
	assert.Equal(t, 200, tb.EraserSize())
}

func TestToolDrawing(t *testing.T) {
	assert.True(t, ToolBrush.Drawing())
	assert.True(t, ToolEraser.Drawing())
	assert.False(t, ToolPan.Drawing())
	assert.Equal(t, "eraser", ToolEraser.String())
}

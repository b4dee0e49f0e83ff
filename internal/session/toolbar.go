package session

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"SyncBoard/internal/event"
	"SyncBoard/internal/loop"
)

// Tool is the active toolbar tool.
type Tool int

const (
	ToolBrush Tool = iota
	ToolEraser
	ToolPan
)

func (t Tool) String() string {
	switch t {
	case ToolBrush:
		return "brush"
	case ToolEraser:
		return "eraser"
	default:
		return "pan"
	}
}

// Drawing reports whether the tool lays down strokes.
func (t Tool) Drawing() bool { return t == ToolBrush || t == ToolEraser }

// Prefs persists toolbar settings between runs. fyne.Preferences satisfies it.
type Prefs interface {
	IntWithFallback(key string, fallback int) int
	SetInt(key string, value int)
}

const (
	brushSizeKey  = "brush-size"
	eraserSizeKey = "eraser-size"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Limits bounds the toolbar's sizes and sets its defaults.
type Limits struct {
	BrushMin      int
	BrushMax      int
	BrushDefault  int
	EraserMin     int
	EraserMax     int
	EraserDefault int
	Color         string
	// IdlePersist is how long a size must stay unchanged before it is saved.
	IdlePersist time.Duration
}

// DefaultLimits returns the stock brush and eraser settings.
func DefaultLimits() Limits {
	return Limits{
		BrushMin:      1,
		BrushMax:      30,
		BrushDefault:  5,
		EraserMin:     1,
		EraserMax:     200,
		EraserDefault: 20,
		Color:         "#000000",
		IdlePersist:   250 * time.Millisecond,
	}
}

// Toolbar holds the tool selection and stroke settings.
type Toolbar struct {
	limits Limits
	prefs  Prefs

	tool       Tool
	color      string
	brushSize  int
	eraserSize int

	saveBrush  *loop.Debounce
	saveEraser *loop.Debounce

	ToolChanged       event.Emitter[Tool]
	ColorChanged      event.Emitter[string]
	BrushSizeChanged  event.Emitter[int]
	EraserSizeChanged event.Emitter[int]
}

// NewToolbar restores saved sizes from prefs, which may be nil.
func NewToolbar(limits Limits, prefs Prefs, sched loop.Scheduler) *Toolbar {
	t := &Toolbar{
		limits:     limits,
		prefs:      prefs,
		tool:       ToolBrush,
		color:      limits.Color,
		brushSize:  clampInt(limits.BrushDefault, limits.BrushMin, limits.BrushMax),
		eraserSize: clampInt(limits.EraserDefault, limits.EraserMin, limits.EraserMax),
	}
	if !colorPattern.MatchString(t.color) {
		t.color = DefaultLimits().Color
	}

	if prefs != nil {
		t.brushSize = clampInt(prefs.IntWithFallback(brushSizeKey, t.brushSize), limits.BrushMin, limits.BrushMax)
		t.eraserSize = clampInt(prefs.IntWithFallback(eraserSizeKey, t.eraserSize), limits.EraserMin, limits.EraserMax)
	}

	t.saveBrush = loop.NewDebounce(sched, limits.IdlePersist, func() { t.save(brushSizeKey, t.brushSize) })
	t.saveEraser = loop.NewDebounce(sched, limits.IdlePersist, func() { t.save(eraserSizeKey, t.eraserSize) })
	return t
}

func (t *Toolbar) save(key string, v int) {
	if t.prefs != nil {
		t.prefs.SetInt(key, v)
	}
}

func (t *Toolbar) Tool() Tool { return t.tool }
func (t *Toolbar) Color() string { return t.color }
func (t *Toolbar) BrushSize() int { return t.brushSize }
func (t *Toolbar) EraserSize() int { return t.eraserSize }
func (t *Toolbar) Limits() Limits { return t.limits }

// ActiveSize is the stroke width of the current tool. Pan uses the brush size
// so the cursor indicator keeps a sensible size.
func (t *Toolbar) ActiveSize() int {
	if t.tool == ToolEraser {
		return t.eraserSize
	}
	return t.brushSize
}

// SetTool selects a tool.
func (t *Toolbar) SetTool(tool Tool) {
	if tool < ToolBrush || tool > ToolPan {
		return
	}
	t.tool = tool
	t.ToolChanged.Emit(tool)
}

// SetColor accepts #RRGGBB colors only and reports whether the color was taken.
func (t *Toolbar) SetColor(color string) bool {
	if !colorPattern.MatchString(color) {
		return false
	}
	t.color = color
	t.ColorChanged.Emit(color)
	return true
}

// SetBrushSize clamps size into the brush range. It reports whether anything was set.
func (t *Toolbar) SetBrushSize(size int) bool {
	t.brushSize = clampInt(size, t.limits.BrushMin, t.limits.BrushMax)
	t.BrushSizeChanged.Emit(t.brushSize)
	t.saveBrush.Call()
	return true
}

// SetEraserSize clamps size into the eraser range.
func (t *Toolbar) SetEraserSize(size int) bool {
	t.eraserSize = clampInt(size, t.limits.EraserMin, t.limits.EraserMax)
	t.EraserSizeChanged.Emit(t.eraserSize)
	t.saveEraser.Call()
	return true
}

// SetBrushSizeText parses a size typed into a text field. Input that is not a
// number leaves the size alone and notifies nobody.
func (t *Toolbar) SetBrushSizeText(text string) bool {
	n, ok := parseSize(text)
	if !ok {
		return false
	}
	return t.SetBrushSize(n)
}

// SetEraserSizeText is SetBrushSizeText for the eraser.
func (t *Toolbar) SetEraserSizeText(text string) bool {
	n, ok := parseSize(text)
	if !ok {
		return false
	}
	return t.SetEraserSize(n)
}

// parseSize reads a leading integer the way a lenient number field does:
// "12px" is 12, "abc" is rejected.
func parseSize(text string) (int, bool) {
	text = strings.TrimSpace(text)
	end := 0
	for end < len(text) && (text[end] >= '0' && text[end] <= '9' || end == 0 && (text[end] == '-' || text[end] == '+')) {
		end++
	}
	n, err := strconv.Atoi(text[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package ui

import (
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"SyncBoard/internal/event"
	"SyncBoard/internal/loop"
	"SyncBoard/internal/render"
	"SyncBoard/internal/session"
)

// palette is the row of quick colours next to the colour field.
var palette = []string{"#000000", "#e53935", "#43a047", "#1e88e5", "#fdd835", "#8e24aa"}

var toolNames = []string{"Brush", "Eraser", "Pan"}

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    string
	OnTapped func(string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Color: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(render.ParseColor(s.Color))
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// toolbarView mirrors the session toolbar into fyne widgets. The mirror fields
// belong to the fyne thread; the session toolbar is only touched through sched.
type toolbarView struct {
	sched   loop.Scheduler
	tb      *session.Toolbar
	handles []event.Handle

	tool       session.Tool
	color      string
	brushSize  int
	eraserSize int
	limits     session.Limits
	updating   bool

	tools    *widget.RadioGroup
	colorBox *widget.Entry
	swatch   *canvas.Rectangle
	size     *widget.Slider
	sizeText *widget.Entry
	undo     *widget.Button
	redo     *widget.Button
}

// newToolbarView builds the toolbar. Like bindBoard it must run before the
// scheduler starts, or on its thread.
func newToolbarView(sched loop.Scheduler, sess *session.Session, onExport func()) (*toolbarView, fyne.CanvasObject) {
	tb := sess.Toolbar()
	v := &toolbarView{
		sched:      sched,
		tb:         tb,
		tool:       tb.Tool(),
		color:      tb.Color(),
		brushSize:  tb.BrushSize(),
		eraserSize: tb.EraserSize(),
		limits:     tb.Limits(),
	}

	v.tools = widget.NewRadioGroup(toolNames, v.onToolPicked)
	v.tools.Horizontal = true
	v.tools.Required = true
	v.tools.SetSelected(toolNames[v.tool])

	v.swatch = canvas.NewRectangle(render.ParseColor(v.color))
	v.swatch.SetMinSize(fyne.NewSize(28, 28))
	v.colorBox = widget.NewEntry()
	v.colorBox.SetText(v.color)
	v.colorBox.OnSubmitted = v.onColorTyped
	colorField := container.New(layout.NewGridWrapLayout(fyne.NewSize(90, 36)), v.colorBox)

	swatches := container.NewHBox()
	for _, hex := range palette {
		swatches.Add(newColorSwatch(hex, v.pickColor))
	}

	v.size = widget.NewSlider(0, 1)
	v.size.Step = 1
	v.size.OnChanged = v.onSlide
	v.sizeText = widget.NewEntry()
	v.sizeText.OnSubmitted = v.onSizeTyped
	v.showSize()
	sliderField := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 36)), v.size)
	sizeField := container.New(layout.NewGridWrapLayout(fyne.NewSize(60, 36)), v.sizeText)

	hist := sess.History()
	v.undo = widget.NewButtonWithIcon("", theme.ContentUndoIcon(), func() { sched.Post(sess.Undo) })
	v.redo = widget.NewButtonWithIcon("", theme.ContentRedoIcon(), func() { sched.Post(sess.Redo) })
	setEnabled(v.undo, hist.CanUndo())
	setEnabled(v.redo, hist.CanRedo())

	vp := sess.Viewport()
	actions := widget.NewToolbar(
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { sched.Post(func() { vp.ZoomBy(1.25) }) }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { sched.Post(func() { vp.ZoomBy(0.8) }) }),
		widget.NewToolbarAction(theme.ViewRestoreIcon(), func() { sched.Post(vp.Reset) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { sched.Post(sess.Clear) }),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), onExport),
	)

	v.handles = append(v.handles,
		tb.ToolChanged.On(func(t session.Tool) { fyne.Do(func() { v.toolChanged(t) }) }),
		tb.ColorChanged.On(func(c string) { fyne.Do(func() { v.colorChanged(c) }) }),
		tb.BrushSizeChanged.On(func(n int) {
			fyne.Do(func() {
				v.brushSize = n
				v.showSize()
			})
		}),
		tb.EraserSizeChanged.On(func(n int) {
			fyne.Do(func() {
				v.eraserSize = n
				v.showSize()
			})
		}),
		hist.CanUndoChanged.On(func(ok bool) { fyne.Do(func() { setEnabled(v.undo, ok) }) }),
		hist.CanRedoChanged.On(func(ok bool) { fyne.Do(func() { setEnabled(v.redo, ok) }) }),
	)

	return v, container.NewHBox(
		v.tools,
		widget.NewSeparator(),
		v.swatch,
		colorField,
		swatches,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderField,
		sizeField,
		widget.NewSeparator(),
		v.undo,
		v.redo,
		actions,
		layout.NewSpacer(),
	)
}

func setEnabled(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

func (v *toolbarView) onToolPicked(name string) {
	for i, n := range toolNames {
		if n == name && session.Tool(i) != v.tool {
			tool := session.Tool(i)
			v.sched.Post(func() { v.tb.SetTool(tool) })
		}
	}
}

func (v *toolbarView) toolChanged(t session.Tool) {
	v.tool = t
	if v.tools.Selected != toolNames[t] {
		v.tools.SetSelected(toolNames[t])
	}
	v.showSize()
}

func (v *toolbarView) pickColor(hex string) {
	v.sched.Post(func() { v.tb.SetColor(hex) })
}

func (v *toolbarView) onColorTyped(text string) {
	v.sched.Post(func() {
		if !v.tb.SetColor(text) {
			// rejected: put the current colour back
			c := v.tb.Color()
			fyne.Do(func() { v.colorChanged(c) })
		}
	})
}

func (v *toolbarView) colorChanged(c string) {
	v.color = c
	v.colorBox.SetText(c)
	v.swatch.FillColor = render.ParseColor(c)
	v.swatch.Refresh()
}

// showSize points the size controls at the active tool.
func (v *toolbarView) showSize() {
	v.updating = true
	defer func() { v.updating = false }()

	lo, hi, n := v.limits.BrushMin, v.limits.BrushMax, v.brushSize
	if v.tool == session.ToolEraser {
		lo, hi, n = v.limits.EraserMin, v.limits.EraserMax, v.eraserSize
	}
	v.size.Min, v.size.Max = float64(lo), float64(hi)
	v.size.SetValue(float64(n))
	v.sizeText.SetText(strconv.Itoa(n))
}

func (v *toolbarView) onSlide(f float64) {
	if v.updating {
		return
	}
	n := int(f)
	if v.tool == session.ToolEraser {
		if n != v.eraserSize {
			v.sched.Post(func() { v.tb.SetEraserSize(n) })
		}
		return
	}
	if n != v.brushSize {
		v.sched.Post(func() { v.tb.SetBrushSize(n) })
	}
}

func (v *toolbarView) onSizeTyped(text string) {
	eraser := v.tool == session.ToolEraser
	v.sched.Post(func() {
		var ok bool
		if eraser {
			ok = v.tb.SetEraserSizeText(text)
		} else {
			ok = v.tb.SetBrushSizeText(text)
		}
		if !ok {
			fyne.Do(v.showSize)
		}
	})
}

func (v *toolbarView) close() {
	for _, h := range v.handles {
		h.Remove()
	}
	v.handles = nil
}

package ui

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/widget"

	"SyncBoard/internal/gesture"
	"SyncBoard/internal/loop"
	"SyncBoard/internal/render"
	"SyncBoard/internal/session"
	"SyncBoard/internal/state"
	"SyncBoard/internal/viewport"
)

var cursorColor = color.NRGBA{R: 0x40, G: 0x40, B: 0x40, A: 0xc0}

// BoardWidget is the drawing surface. Input is forwarded to the session
// thread; frames prepared there are rasterized on the fyne thread.
type BoardWidget struct {
	widget.BaseWidget

	sched loop.Scheduler
	sess  *session.Session

	mu      sync.Mutex
	lines   []state.Line
	preview *state.Line
	vp      viewport.Viewport

	// fyne thread only
	raster     *canvas.Raster
	cursor     *canvas.Circle
	diameter   float32
	showCursor bool
	hovering   bool
	pointer    fyne.Position
	touching   bool
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Scrollable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)
var _ mobile.Touchable = (*BoardWidget)(nil)

func NewBoardWidget(sched loop.Scheduler, sess *session.Session) *BoardWidget {
	b := &BoardWidget{
		sched: sched,
		sess:  sess,
		vp:    sess.Viewport().Viewport(),
	}
	b.raster = canvas.NewRaster(b.draw)
	b.cursor = canvas.NewCircle(color.Transparent)
	b.cursor.StrokeColor = cursorColor
	b.cursor.StrokeWidth = 1
	b.cursor.Hide()
	b.ExtendBaseWidget(b)
	return b
}

// setFrame stores what the next draw shows. Called on the session thread.
func (b *BoardWidget) setFrame(lines []state.Line, preview *state.Line, vp viewport.Viewport) {
	b.mu.Lock()
	b.lines, b.preview, b.vp = lines, preview, vp
	b.mu.Unlock()
	fyne.Do(b.raster.Refresh)
}

// setCursor resizes the brush indicator. Called on the session thread.
func (b *BoardWidget) setCursor(diameter float64, visible bool) {
	fyne.Do(func() {
		b.diameter = float32(diameter)
		b.showCursor = visible
		b.placeCursor()
	})
}

func (b *BoardWidget) draw(w, h int) image.Image {
	b.mu.Lock()
	lines, vp := b.lines, b.vp
	if b.preview != nil {
		lines = append(lines[:len(lines):len(lines)], *b.preview)
	}
	b.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	scale := 1.0
	if vp.Width > 0 {
		scale = float64(w) / vp.Width
	}
	render.Board(img, lines, render.Scale(vp, scale), true)
	return img
}

func (b *BoardWidget) placeCursor() {
	if !b.showCursor || !b.hovering || b.diameter <= 0 {
		b.cursor.Hide()
		return
	}
	d := b.diameter
	b.cursor.Resize(fyne.NewSize(d, d))
	b.cursor.Move(fyne.NewPos(b.pointer.X-d/2, b.pointer.Y-d/2))
	b.cursor.Show()
}

func (b *BoardWidget) input(in gesture.Input) {
	b.sched.Post(func() { b.sess.Handle(in) })
}

func toPoint(p fyne.Position) state.Point {
	return state.Point{X: float64(p.X), Y: float64(p.Y)}
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.input(gesture.Input{Kind: gesture.MouseDown, Pos: toPoint(e.Position)})
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.input(gesture.Input{Kind: gesture.MouseUp, Pos: toPoint(e.Position)})
}

func (b *BoardWidget) MouseIn(e *desktop.MouseEvent) {
	b.hovering = true
	b.pointer = e.Position
	b.placeCursor()
}

func (b *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	b.pointer = e.Position
	b.placeCursor()
	b.input(gesture.Input{Kind: gesture.MouseMove, Pos: toPoint(e.Position)})
}

func (b *BoardWidget) MouseOut() {
	b.hovering = false
	b.placeCursor()
	b.input(gesture.Input{Kind: gesture.MouseLeave, Pos: toPoint(b.pointer)})
}

// Dragged reports moves while a button or finger is down.
func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.pointer = e.Position
	b.placeCursor()
	if b.touching {
		b.input(gesture.Input{Kind: gesture.TouchMove, Touches: []state.Point{toPoint(e.Position)}})
		return
	}
	b.input(gesture.Input{Kind: gesture.MouseMove, Pos: toPoint(e.Position)})
}

func (b *BoardWidget) DragEnd() {}

func (b *BoardWidget) TouchDown(e *mobile.TouchEvent) {
	b.touching = true
	b.input(gesture.Input{Kind: gesture.TouchStart, Touches: []state.Point{toPoint(e.Position)}})
}

func (b *BoardWidget) TouchUp(*mobile.TouchEvent) {
	b.touching = false
	b.input(gesture.Input{Kind: gesture.TouchEnd})
}

func (b *BoardWidget) TouchCancel(*mobile.TouchEvent) {
	b.touching = false
	b.input(gesture.Input{Kind: gesture.TouchCancel})
}

// Scrolled zooms around the pointer. fyne reports wheel-up as a positive DY.
func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	delta, at := -float64(e.Scrolled.DY), toPoint(e.Position)
	b.sched.Post(func() { b.sess.Wheel(delta, at) })
}

func (b *BoardWidget) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return &boardWidgetRenderer{board: b}
}

type boardWidgetRenderer struct {
	board *BoardWidget
	size  fyne.Size
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.board.raster, r.board.cursor}
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.board.raster.Resize(size)
	if size == r.size {
		return
	}
	r.size = size
	sess := r.board.sess
	w, h := float64(size.Width), float64(size.Height)
	r.board.sched.Post(func() { sess.Resize(w, h) })
}

func (r *boardWidgetRenderer) MinSize() fyne.Size { return r.board.MinSize() }

func (r *boardWidgetRenderer) Refresh() {
	r.board.raster.Refresh()
	r.board.placeCursor()
}

func (r *boardWidgetRenderer) Destroy() {}

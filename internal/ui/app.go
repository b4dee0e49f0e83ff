package ui

import (
	"io"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"SyncBoard/internal/event"
	"SyncBoard/internal/gesture"
	"SyncBoard/internal/loop"
	"SyncBoard/internal/session"
	"SyncBoard/internal/state"
)

// Options describes the board a window shows.
type Options struct {
	Title     string
	BoardID   string
	// ShareLink is shown with a copy button when set.
	ShareLink string
	Sched     loop.Scheduler
	Session   *session.Session
	Lines     Lines
	// Status reports the connection to the host going up and down.
	Status    *event.Emitter[bool]
	Logger    *log.Logger
}

// Window is the main board window.
type Window struct {
	win     fyne.Window
	opts    Options
	board   *boardView
	toolbar *toolbarView
	status  *widget.Label
	handles []event.Handle

	// fyne thread only
	connected bool
	loaded    bool
}

// NewWindow builds the window and binds it to the session. It must be called
// before the scheduler starts running.
func NewWindow(a fyne.App, opts Options) *Window {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	w := &Window{
		win:    a.NewWindow(opts.Title),
		opts:   opts,
		status: widget.NewLabel("Connecting..."),
	}
	w.win.Resize(fyne.NewSize(1024, 768))

	sess, sched := opts.Session, opts.Sched
	canvas := NewBoardWidget(sched, sess)
	w.board = bindBoard(canvas, sess, opts.Lines)

	var bar fyne.CanvasObject
	w.toolbar, bar = newToolbarView(sched, sess, func() {
		showExport(w.win, sched, opts.Lines, opts.BoardID, opts.Logger)
	})

	statusBar := container.NewHBox(w.status)
	if opts.ShareLink != "" {
		link := opts.ShareLink
		statusBar.Add(widget.NewLabel("Share: " + link))
		statusBar.Add(widget.NewButtonWithIcon("", theme.ContentCopyIcon(), func() {
			w.win.Clipboard().SetContent(link)
		}))
	}

	setLoaded := func(loaded bool) {
		fyne.Do(func() {
			w.loaded = loaded
			w.showStatus()
		})
	}
	w.handles = append(w.handles,
		opts.Lines.OnLoaded(func([]state.Line) { setLoaded(true) }),
		opts.Lines.OnError(func(error) { setLoaded(false) }),
	)
	if opts.Status != nil {
		w.handles = append(w.handles, opts.Status.On(func(up bool) {
			fyne.Do(func() {
				w.connected = up
				w.showStatus()
			})
		}))
	}

	w.shortcuts(sess, sched)
	a.Lifecycle().SetOnExitedForeground(func() {
		sched.Post(func() { sess.Handle(gesture.Input{Kind: gesture.Blur}) })
	})
	w.win.SetOnClosed(func() {
		sched.Post(w.unbind)
	})

	w.win.SetContent(container.NewBorder(bar, statusBar, nil, nil, canvas))
	return w
}

func (w *Window) shortcuts(sess *session.Session, sched loop.Scheduler) {
	c := w.win.Canvas()
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		sched.Post(sess.Undo)
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift}, func(fyne.Shortcut) {
		sched.Post(sess.Redo)
	})
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
		sched.Post(sess.Redo)
	})
	tb := sess.Toolbar()
	for key, tool := range map[fyne.KeyName]session.Tool{fyne.KeyB: session.ToolBrush, fyne.KeyE: session.ToolEraser, fyne.KeySpace: session.ToolPan} {
		c.AddShortcut(&desktop.CustomShortcut{KeyName: key, Modifier: fyne.KeyModifierAlt}, func(fyne.Shortcut) {
			sched.Post(func() { tb.SetTool(tool) })
		})
	}
}

func (w *Window) showStatus() {
	switch {
	case !w.connected:
		w.status.SetText("Not connected to the host, retrying...")
	case !w.loaded:
		w.status.SetText("Loading board " + w.opts.BoardID + "...")
	default:
		w.status.SetText("Board " + w.opts.BoardID)
	}
}

// unbind runs on the session thread once the window is gone.
func (w *Window) unbind() {
	for _, h := range w.handles {
		h.Remove()
	}
	w.handles = nil
	w.board.close()
	w.toolbar.close()
}

// ShowAndRun shows the window and runs the app until it quits.
func (w *Window) ShowAndRun() {
	w.win.ShowAndRun()
}

package cli

import (
	"context"
	"errors"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"golang.org/x/sync/errgroup"

	"SyncBoard/internal/config"
	"SyncBoard/internal/loop"
	"SyncBoard/internal/net"
	"SyncBoard/internal/session"
	"SyncBoard/internal/store"
	"SyncBoard/internal/ui"
	"SyncBoard/internal/undo"
	"SyncBoard/internal/viewport"
)

const appID = "io.syncboard.app"

// openBoard shows the board served at addr in a window and blocks until the
// window closes or ctx ends.
func openBoard(ctx context.Context, app *App, cfg config.Config, addr, board, shareLink string) error {
	a := fyneapp.NewWithID(appID)
	sched := loop.New(cfg.Timing.FrameInterval)

	conn := net.Connect(addr, sched, app.logger("NET"))
	defer conn.Close()

	history := undo.New()
	lines := store.New(conn, board, history, app.logger("STORE"))
	toolbar := session.NewToolbar(cfg.Limits(), a.Preferences(), sched)
	vp := viewport.New(cfg.Viewport(), sched, 1024, 768)
	sess := session.New(cfg.Session(), sched, vp, lines, history, toolbar, app.logger("SESSION"))

	// The window binds to the session before the loop owns it.
	win := ui.NewWindow(a, ui.Options{
		Title:     "SyncBoard - " + board,
		BoardID:   board,
		ShareLink: shareLink,
		Sched:     sched,
		Session:   sess,
		Lines:     lines,
		Status:    &conn.Status,
		Logger:    app.logger("UI"),
	})
	sched.Post(lines.Load)

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := sched.Run(gctx)
		sess.Close()
		lines.Close()
		return err
	})
	closed := make(chan struct{})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			fyne.Do(a.Quit)
		case <-closed:
		}
		return nil
	})

	win.ShowAndRun()
	close(closed)
	cancel()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

package ui

import (
	"fmt"
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"SyncBoard/internal/export"
	"SyncBoard/internal/loop"
	"SyncBoard/internal/state"
)

// PNG exports from the window are full HD.
const (
	exportPNGWidth  = 1920
	exportPNGHeight = 1080
)

// showExport snapshots the board on the session thread and asks where to save it.
// The file type follows the chosen extension: .png or, by default, PDF.
func showExport(win fyne.Window, sched loop.Scheduler, lines Lines, title string, logger *log.Logger) {
	sched.Post(func() {
		snapshot := lines.Lines()
		fyne.Do(func() {
			save := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
				if err != nil {
					dialog.ShowError(err, win)
					return
				}
				if w == nil {
					return
				}
				if err := writeExport(w, snapshot, title); err != nil {
					logger.Printf("export: %v", err)
					dialog.ShowError(err, win)
					return
				}
				logger.Printf("exported %d lines to %s", len(snapshot), w.URI())
			}, win)
			save.SetFileName(title + ".pdf")
			save.SetFilter(storage.NewExtensionFileFilter([]string{".pdf", ".png"}))
			save.Show()
		})
	})
}

func writeExport(w fyne.URIWriteCloser, lines []state.Line, title string) error {
	var err error
	if strings.EqualFold(w.URI().Extension(), ".png") {
		err = export.WritePNG(w, lines, exportPNGWidth, exportPNGHeight)
	} else {
		err = export.WritePDF(w, lines, title)
	}
	if cerr := w.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", w.URI().Name(), err)
	}
	return nil
}

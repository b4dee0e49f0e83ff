package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"SyncBoard/internal/export"
	"SyncBoard/internal/net"
	"SyncBoard/internal/state"
)

type exportFlags struct {
	out     string
	width   int
	height  int
	timeout time.Duration
}

func newExportCmd(app *App) *cobra.Command {
	var f exportFlags
	cmd := &cobra.Command{
		Use:   "export <link>",
		Short: "Save a hosted board as PDF or PNG",
		Long:  "Fetch the current lines of a hosted board and write them to --out.\nThe file type follows the extension: .png, anything else is PDF.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return err
			}
			addr, board, err := net.ParseShareLink(args[0])
			if err != nil {
				return err
			}
			if board == "" {
				board = cfg.Host.Board
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
			defer cancel()
			doc, version, err := net.FetchSnapshot(ctx, addr, board)
			if err != nil {
				return err
			}

			out := f.out
			if out == "" {
				out = board + ".pdf"
			}
			if err := writeBoard(out, doc.Lines, board, f); err != nil {
				return err
			}
			app.logger("EXPORT").Printf("wrote %d lines of %s (version %d) to %s", len(doc.Lines), board, version, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output file (default <board>.pdf)")
	cmd.Flags().IntVar(&f.width, "width", 1920, "PNG width in pixels")
	cmd.Flags().IntVar(&f.height, "height", 1080, "PNG height in pixels")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "give up on the host after this long")
	return cmd
}

func writeBoard(path string, lines []state.Line, title string, f exportFlags) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	if strings.EqualFold(filepath.Ext(path), ".png") {
		err = export.WritePNG(file, lines, f.width, f.height)
	} else {
		err = export.WritePDF(file, lines, title)
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}

// Package cli holds the syncboard commands: host a board, join one, or export it.
package cli

import (
	"context"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"SyncBoard/internal/config"
	"SyncBoard/internal/net"
	"SyncBoard/internal/persist"
)

// App carries the flags shared by every command.
type App struct {
	ConfigPath string
	Quiet      bool

	// Stderr receives the tagged logs. Tests point it elsewhere.
	Stderr io.Writer
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	app := &App{Stderr: os.Stderr}

	cmd := &cobra.Command{
		Use:          "syncboard",
		Short:        "A shared whiteboard for the local network",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "TOML settings file")
	cmd.PersistentFlags().BoolVarP(&app.Quiet, "quiet", "q", false, "no logging")

	cmd.AddCommand(
		newHostCmd(app),
		newJoinCmd(app),
		newExportCmd(app),
	)
	return cmd
}

// logger returns a logger whose lines start with [TAG].
func (a *App) logger(tag string) *log.Logger {
	if a.Quiet || a.Stderr == nil {
		return log.New(io.Discard, "", 0)
	}
	return log.New(a.Stderr, "["+tag+"] ", log.LstdFlags)
}

func (a *App) config() (config.Config, error) {
	return config.Load(a.ConfigPath)
}

// storage is what the hub persists boards to.
type storage interface {
	net.Storage
	Close() error
}

// openStorage keeps boards in the database at path, or in memory when path is empty.
func openStorage(ctx context.Context, path string, logger *log.Logger) (storage, error) {
	if path == "" {
		logger.Printf("no db_path set, boards live in memory until the host exits")
		return persist.NewMemory(), nil
	}
	db, err := persist.OpenSQLite(ctx, path)
	if err != nil {
		return nil, err
	}
	logger.Printf("boards are saved to %s", path)
	return db, nil
}

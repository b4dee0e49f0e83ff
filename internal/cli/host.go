package cli

import (
	"context"
	"errors"
	"fmt"
	stdnet "net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"SyncBoard/internal/config"
	"SyncBoard/internal/net"
)

const shutdownTimeout = 5 * time.Second

type hostFlags struct {
	port     int
	board    string
	db       string
	noMDNS   bool
	headless bool
}

func newHostCmd(app *App) *cobra.Command {
	var f hostFlags
	cmd := &cobra.Command{
		Use:   "host",
		Short: "Serve a board on this machine and open it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return err
			}
			f.apply(cmd, &cfg)
			return runHost(cmd.Context(), app, cfg, f)
		},
	}
	cmd.Flags().IntVar(&f.port, "port", 0, "listen port (default from config)")
	cmd.Flags().StringVar(&f.board, "board", "", "board to open (default from config)")
	cmd.Flags().StringVar(&f.db, "db", "", "SQLite file boards are saved to")
	cmd.Flags().BoolVar(&f.noMDNS, "no-mdns", false, "do not advertise on the local network")
	cmd.Flags().BoolVar(&f.headless, "headless", false, "serve without opening a window")
	return cmd
}

// apply lets explicitly set flags override the config file.
func (f hostFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Host.Port = f.port
	}
	if cmd.Flags().Changed("board") {
		cfg.Host.Board = f.board
	}
	if cmd.Flags().Changed("db") {
		cfg.Host.DBPath = f.db
	}
}

func runHost(ctx context.Context, app *App, cfg config.Config, f hostFlags) error {
	logger := app.logger("HOST")
	logger.Println("Starting as HOST")

	storage, err := openStorage(ctx, cfg.Host.DBPath, logger)
	if err != nil {
		return err
	}
	defer storage.Close()

	ln, err := stdnet.Listen("tcp", fmt.Sprintf(":%d", cfg.Host.Port))
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	port := ln.Addr().(*stdnet.TCPAddr).Port

	hub := net.NewHub(storage, app.logger("HUB"))
	srv := &http.Server{Handler: hub.Handler(), ReadHeaderTimeout: 5 * time.Second}
	shareLink := net.ShareLink(net.OutgoingIP(logger), port, cfg.Host.Board)
	logger.Printf("Host server listening on port %d, share %s", port, shareLink)

	if !f.noMDNS {
		mdnsServer, err := net.Advertise(cfg.Host.Name, port, cfg.Host.Board)
		if err != nil {
			logger.Printf("not advertising: %v", err)
		} else {
			defer mdnsServer.Shutdown()
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		hub.Close()
		return srv.Shutdown(sctx)
	})

	if !f.headless {
		addr := fmt.Sprintf("127.0.0.1:%d", port)
		if err := openBoard(gctx, app, cfg, addr, cfg.Host.Board, shareLink); err != nil {
			logger.Printf("board window: %v", err)
		}
		cancel()
	}
	return g.Wait()
}

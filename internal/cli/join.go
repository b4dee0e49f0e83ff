package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"SyncBoard/internal/net"
)

var errNoHost = errors.New("no host found on the local network")

func newJoinCmd(app *App) *cobra.Command {
	var browse time.Duration
	cmd := &cobra.Command{
		Use:   "join [link]",
		Short: "Open a board someone else is hosting",
		Long: "Open the board behind a share link such as localboard://192.168.1.4:8888/default.\n" +
			"Without a link the first host found on the local network is joined.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.config()
			if err != nil {
				return err
			}
			logger := app.logger("CLIENT")
			logger.Println("Starting as CLIENT")

			link := ""
			if len(args) == 1 {
				link = args[0]
			}
			addr, board, err := resolveHost(link, browse, app)
			if err != nil {
				return err
			}
			if board == "" {
				board = cfg.Host.Board
			}
			logger.Printf("joining board %s at %s", board, addr)
			// joiners pass on the same link
			shareLink := net.CustomURLScheme + addr + "/" + board
			return openBoard(cmd.Context(), app, cfg, addr, board, shareLink)
		},
	}
	cmd.Flags().DurationVar(&browse, "browse", 3*time.Second, "how long to look for hosts when no link is given")
	return cmd
}

// resolveHost turns a share link into an address, browsing mDNS when link is empty.
func resolveHost(link string, browse time.Duration, app *App) (addr, board string, err error) {
	if link != "" {
		return net.ParseShareLink(link)
	}
	found, err := net.Browse(browse, app.logger("MDNS"))
	if len(found) == 0 {
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", errNoHost, err)
		}
		return "", "", errNoHost
	}
	return found[0], "", nil
}

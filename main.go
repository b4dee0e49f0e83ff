package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"SyncBoard/internal/cli"
	"SyncBoard/internal/net"
)

// launchArgs maps the ways the app gets started onto commands: no arguments
// hosts a board, a share link (as passed by the OS URL handler) joins one.
func launchArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"host"}
	}
	if strings.HasPrefix(args[0], net.CustomURLScheme) {
		return append([]string{"join"}, args...)
	}
	return args
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cmd := cli.NewRootCmd()
	cmd.SetArgs(launchArgs(os.Args[1:]))
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

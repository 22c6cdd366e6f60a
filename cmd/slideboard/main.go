// Command slideboard manages whiteboard presentations.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/slideboard/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(cli.GetExitCode(err))
}

// Command commentctl drives the comment thread from a terminal, using the
// same configuration and storage as the comments service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(openFromConfig).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

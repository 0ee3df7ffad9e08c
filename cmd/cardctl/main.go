// Command cardctl reads the trading card catalog through the SDK.
//
//	cardctl get cards 1 --include set,card-images
//	cardctl list sets --filter year_id=1 --sort -name --all
//	cardctl health
//
// Configuration comes from configs/*.yaml and CARDSDK_ environment
// variables; --profile selects configs/<profile>.yaml.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// Build-time variables, injected via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(loadConfig).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

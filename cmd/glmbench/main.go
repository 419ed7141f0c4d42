// Command glmbench runs the GLM benchmark adapters and the cross-validated
// elastic-net GLM on synthetic data.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/YuminosukeSato/glmbench/pkg/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("glmbench failed", log.ErrAttr(err))
		stop()
		os.Exit(1)
	}
}

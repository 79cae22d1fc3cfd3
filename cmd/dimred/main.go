// Command dimred fits low-dimensional embeddings of numeric tables.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/objones25/dimred/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.New().ExecuteContext(ctx)
	stop()
	os.Exit(code)
}

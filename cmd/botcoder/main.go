package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/GeneralBots/botcoder/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/yndnr/kvmesh-go/internal/cli/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := command.App().RunContext(ctx, os.Args); err != nil {
		command.PrintError("%v", err)
		os.Exit(1)
	}
}

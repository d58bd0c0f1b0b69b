package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"AgentKit-Chain/internal/cli"
)

// Set via ldflags at build time.
var version = "dev"

// main 是 agentkitd 的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(version, cli.Options{}).ExecuteContext(ctx); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

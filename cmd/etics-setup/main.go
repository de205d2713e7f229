package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		reportFailure(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// reportFailure records err in the log, including the log file when one is
// configured, and prints it for the user.
func reportFailure(stderr io.Writer, err error) {
	slog.Error("Setup failed", "error", err)
	fmt.Fprintln(stderr, "Error:", err)
}

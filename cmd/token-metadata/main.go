// Package main provides the token-metadata CLI.
// Creates or updates the Metaplex metadata account of a token mint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Create context with cancellation on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var home *string
	if h, ok := os.LookupEnv("HOME"); ok {
		home = &h
	}

	root := newRootCmd(home)
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprint(os.Stderr, formatError(err))
		stop()
		os.Exit(1)
	}
}

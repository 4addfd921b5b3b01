// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package main contains the tracewatch command-line interface (CLI).
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/matt-FFFFFF/tracewatch"
	"github.com/matt-FFFFFF/tracewatch/cmd/tracewatch/serve"
	"github.com/matt-FFFFFF/tracewatch/cmd/tracewatch/show"
	"github.com/matt-FFFFFF/tracewatch/cmd/tracewatch/watch"
	"github.com/matt-FFFFFF/tracewatch/internal/ctxlog"
	"github.com/matt-FFFFFF/tracewatch/internal/signalbroker"
)

// rootCmd is the root command for the CLI.
var rootCmd = &cli.Command{
	Commands: []*cli.Command{
		watch.WatchCmd,
		serve.ServeCmd,
		show.ShowCmd,
	},
	Writer:    os.Stdout,
	ErrWriter: os.Stderr,
	Name:      "tracewatch",
	Description: `tracewatch follows the progress of a TracEX extraction run.
It polls the extraction status endpoint once per interval, renders the reported
percentage and running module as a colour-coded progress bar, and stops when the
server reports completion or when a poll fails.

A simulated extraction server is included for local use and testing.`,
	Usage:     "tracewatch watch --server http://localhost:8000 --execute",
	Copyright: "Copyright (c) matt-FFFFFF 2025. All rights reserved.",
	Authors: []any{
		"Matt White (matt-FFFFFF)",
	},
	EnableShellCompletion: true,
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = ctxlog.New(ctx, ctxlog.DefaultLogger)
	defer cancel()

	sigCh := signalbroker.New(ctx)

	go signalbroker.Watch(ctx, sigCh, cancel)

	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", tracewatch.Version, tracewatch.Commit)

	err := rootCmd.Run(ctx, os.Args) // Err is handled by cli framework

	// Check if the context was cancelled (e.g., due to signals)
	if ctx.Err() != nil {
		ctxlog.Logger(ctx).Error("command terminated due to cancellation", "error", ctx.Err())
		os.Exit(1)
	}

	if err != nil {
		ctxlog.Logger(ctx).Error("command execution failed", "error", err)
		os.Exit(1)
	}

	ctxlog.Logger(ctx).Debug("command completed successfully")
}

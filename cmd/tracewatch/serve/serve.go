// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package serve implements the serve command, which runs the simulated
// extraction server.
package serve

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/matt-FFFFFF/tracewatch/cmd/tracewatch/cliconfig"
	"github.com/matt-FFFFFF/tracewatch/internal/config"
	"github.com/matt-FFFFFF/tracewatch/internal/ctxlog"
	"github.com/matt-FFFFFF/tracewatch/internal/statusserver"
)

const cliExitStr = ""

// ServeCmd is the command that runs the simulated extraction server.
var ServeCmd = newCommand()

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run a simulated extraction server",
		Description: `Serve answers the extraction status endpoint the way the TracEX server does.
Loading the page resets the session to 0%. Submitting the form runs the selected
modules one after another, each taking --step-delay, and the status endpoint
reports the percentage and running module for AJAX requests.

Prometheus metrics are available on /metrics and a health check on /healthz.`,
		Flags: []cli.Flag{
			cliconfig.NewConfigFlag(),
			&cli.StringFlag{
				Name:        cliconfig.ListenFlag,
				Aliases:     []string{"l"},
				Usage:       "Address to listen on",
				DefaultText: config.DefaultListen,
				OnlyOnce:    true,
			},
			cliconfig.NewStatusPathFlag(),
			&cli.DurationFlag{
				Name:        cliconfig.StepDelayFlag,
				Usage:       "How long each simulated module runs",
				DefaultText: config.DefaultStepDelay,
				OnlyOnce:    true,
			},
		},
		Action: actionFunc,
	}
}

func actionFunc(ctx context.Context, cmd *cli.Command) error {
	logger := ctxlog.Logger(ctx).With("command", cmd.Name)

	cfg, err := cliconfig.Load(ctx, cmd)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	srv := statusserver.New(ctxlog.New(ctx, logger),
		statusserver.WithStatusPath(cfg.StatusPath),
		statusserver.WithStepDelay(cfg.StepDelayDuration()),
	)

	if err := srv.ListenAndServe(ctx, cfg.Serve.Listen); err != nil {
		logger.Error("server failed", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	return nil
}

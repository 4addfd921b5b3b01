// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package watch implements the watch command, which polls an extraction server
// and displays its progress until the run completes or a poll fails.
package watch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v3"

	"github.com/matt-FFFFFF/tracewatch/cmd/tracewatch/cliconfig"
	"github.com/matt-FFFFFF/tracewatch/internal/color"
	"github.com/matt-FFFFFF/tracewatch/internal/config"
	"github.com/matt-FFFFFF/tracewatch/internal/ctxlog"
	"github.com/matt-FFFFFF/tracewatch/internal/lineview"
	"github.com/matt-FFFFFF/tracewatch/internal/metrics"
	"github.com/matt-FFFFFF/tracewatch/internal/poller"
	"github.com/matt-FFFFFF/tracewatch/internal/progress"
	"github.com/matt-FFFFFF/tracewatch/internal/prompt"
	"github.com/matt-FFFFFF/tracewatch/internal/statusclient"
	"github.com/matt-FFFFFF/tracewatch/internal/tui"
)

const (
	yesFlag            = "yes"
	cliExitStr         = ""
	eventBufferSize    = 16
	metricsReadTimeout = 5 * time.Second
)

// ErrExecute is returned when the server rejects the execute request.
var ErrExecute = errors.New("failed to start extraction")

// WatchCmd is the command that follows an extraction run.
var WatchCmd = newCommand()

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Poll the extraction status endpoint and show progress",
		Description: `Watch polls the extraction status endpoint once per interval and shows the
reported percentage and running module. Polling stops when the server reports
100%, or after the first failed poll, in which case a generic loading indicator
replaces the progress bar.

With --execute the extraction form is submitted first, after confirmation
unless --yes is given. Optional modules are chosen with --module.

The exit status is 0 when the run completed and 1 otherwise.`,
		Flags: []cli.Flag{
			cliconfig.NewConfigFlag(),
			&cli.StringFlag{
				Name:        cliconfig.ServerFlag,
				Aliases:     []string{"s"},
				Usage:       "Base URL of the extraction server",
				DefaultText: config.DefaultServer,
				OnlyOnce:    true,
			},
			cliconfig.NewStatusPathFlag(),
			&cli.StringFlag{
				Name:        cliconfig.ResultPathFlag,
				Usage:       "Path of the result page linked on completion",
				DefaultText: config.DefaultResultPath,
				OnlyOnce:    true,
			},
			&cli.DurationFlag{
				Name:        cliconfig.IntervalFlag,
				Aliases:     []string{"i"},
				Usage:       "Delay between two polls",
				DefaultText: config.DefaultInterval,
				OnlyOnce:    true,
			},
			&cli.DurationFlag{
				Name:        cliconfig.RequestTimeoutFlag,
				Usage:       "Timeout for each HTTP request, 0 for none",
				DefaultText: config.DefaultRequestTimeout,
				OnlyOnce:    true,
			},
			&cli.BoolFlag{
				Name:    cliconfig.TUIFlag,
				Aliases: []string{"t"},
				Usage:   "Show progress in the interactive terminal UI",
			},
			&cli.BoolFlag{
				Name:  cliconfig.LineFlag,
				Usage: "Print progress as plain lines",
			},
			&cli.BoolFlag{
				Name:    cliconfig.ExecuteFlag,
				Aliases: []string{"x"},
				Usage:   "Submit the extraction form before watching",
			},
			&cli.BoolFlag{
				Name:    yesFlag,
				Aliases: []string{"y"},
				Usage:   "Do not ask for confirmation before executing",
			},
			&cli.StringSliceFlag{
				Name:    cliconfig.ModuleFlag,
				Aliases: []string{"m"},
				Usage:   "Optional module to run with --execute. Specify multiple times for multiple modules.",
			},
			&cli.StringFlag{
				Name:     cliconfig.MetricsListenFlag,
				Usage:    "Serve Prometheus metrics on this address while watching, e.g. :9090",
				OnlyOnce: true,
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

	client, err := statusclient.New(cfg.Server,
		statusclient.WithStatusPath(cfg.StatusPath),
		statusclient.WithRequestTimeout(cfg.RequestTimeoutDuration()),
	)
	if err != nil {
		logger.Error("failed to create status client", "error", err)
		return cli.Exit(cliExitStr, 1)
	}

	if cfg.MetricsListen != "" {
		stop := serveMetrics(ctx, cfg.MetricsListen)
		defer stop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cfg.Execute {
		ok, err := confirm(ctx, cmd)
		if err != nil {
			logger.Error("failed to read confirmation", "error", err)
			return cli.Exit(cliExitStr, 1)
		}

		if !ok {
			_, _ = fmt.Fprintln(cmd.Root().Writer, "Extraction not started.")
			return nil
		}

		if err := client.Open(ctx); err != nil {
			logger.Error("failed to open extraction page", "error", err)
			return cli.Exit(cliExitStr, 1)
		}

		// The execute request may block until the pipeline has finished, so it
		// runs alongside the poller. A rejected request stops the watch.
		go func() {
			if err := client.Execute(ctx, cfg.Modules); err != nil && ctx.Err() == nil {
				ctxlog.Error(ctx, "extraction request failed", "error", errors.Join(ErrExecute, err))
				cancel()
			}
		}()
	}

	resultURL := client.ResolvePath(cfg.ResultPath)
	interval := poller.WithInterval(cfg.IntervalDuration())

	job := func(view *progress.View) func(context.Context) error {
		return func(ctx context.Context) error {
			view.Started(client.Endpoint())

			p := poller.New(client, view, interval)
			if err := p.Start(ctx); err != nil {
				return err
			}

			return p.Wait(context.WithoutCancel(ctx))
		}
	}

	switch selectView(cfg.View) {
	case config.ViewTUI:
		err = runTUI(ctx, cmd.Root().ErrWriter, resultURL, job)
	default:
		err = runLines(ctx, cmd.Root().Writer, resultURL, job)
	}

	switch {
	case err == nil:
		logger.Debug("extraction complete")
		return nil
	case errors.Is(err, poller.ErrPollFailed):
		logger.Error("progress unavailable", "error", err)
	default:
		logger.Warn("watch stopped before completion", "error", err)
	}

	return cli.Exit(cliExitStr, 1)
}

func confirm(ctx context.Context, cmd *cli.Command) (bool, error) {
	if cmd.Bool(yesFlag) {
		return true, nil
	}

	return prompt.Confirm(ctx, prompt.ExecuteQuestion)
}

// selectView resolves ViewAuto: the TUI needs a terminal on stdout.
func selectView(v config.View) config.View {
	if v != config.ViewAuto {
		return v
	}

	if color.IsTerminal() {
		return config.ViewTUI
	}

	return config.ViewLine
}

func runTUI(ctx context.Context, logOut io.Writer, resultURL string, job func(*progress.View) func(context.Context) error) error {
	// Log output would corrupt the TUI, so it is buffered and written afterwards.
	buf := new(bytes.Buffer)
	tuiCtx := ctxlog.NewForTUI(ctx, buf)

	runner := tui.NewRunner(tuiCtx, resultURL)
	view := progress.NewView(runner.Reporter())

	err := runner.Run(tuiCtx, job(view))

	if buf.Len() > 0 {
		_, _ = buf.WriteTo(logOut)
	}

	return err
}

func runLines(ctx context.Context, out io.Writer, resultURL string, job func(*progress.View) func(context.Context) error) error {
	reporter := progress.NewChannelReporter(ctx, eventBufferSize)
	printer := lineview.New(out, lineview.WithResultURL(resultURL))
	reporter.Listen(printer)

	err := job(progress.NewView(reporter))(ctx)

	reporter.Close()

	if perr := printer.Err(); perr != nil {
		ctxlog.Warn(ctx, "failed to write progress", "error", perr)
	}

	return err
}

func metricsRouter() chi.Router {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

// serveMetrics exposes the Prometheus registry on addr until the returned func is called.
func serveMetrics(ctx context.Context, addr string) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsRouter(),
		ReadHeaderTimeout: metricsReadTimeout,
	}

	go func() {
		ctxlog.Debug(ctx, "serving metrics", "addr", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ctxlog.Warn(ctx, "metrics server failed", "error", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsReadTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}
}

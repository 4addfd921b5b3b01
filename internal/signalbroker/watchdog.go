// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package signalbroker

import (
	"context"
	"os"

	"github.com/matt-FFFFFF/tracewatch/internal/ctxlog"
)

// ForcedExitCode is the exit status used when a second signal arrives.
const ForcedExitCode = 130

// exitFunc is replaced in tests.
var exitFunc = os.Exit

// Watch monitors the signal channel. The first signal cancels the context;
// the second terminates the process. Watch returns when sigCh is closed.
func Watch(ctx context.Context, sigCh chan os.Signal, cancel context.CancelFunc) {
	received := false

	for sig := range sigCh {
		if received {
			ctxlog.Logger(ctx).Warn("watchdog", "detail", "received second signal, forcefully terminating", "signal", sig.String())
			exitFunc(ForcedExitCode)

			return
		}

		ctxlog.Logger(ctx).Warn("watchdog", "detail", "received signal, stopping; send again to force", "signal", sig.String())

		received = true

		cancel()
	}
}

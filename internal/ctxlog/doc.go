// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package ctxlog carries a *slog.Logger in a context.Context.
//
// The default logger uses a pretty console handler. Its level is read from an
// environment variable derived from the executable name: for a binary called
// "tracewatch" the variable is TRACEWATCH_LOG_LEVEL. Accepted values are DEBUG,
// INFO, WARN and ERROR; anything else means WARN.
package ctxlog

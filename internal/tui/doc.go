// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui provides a Terminal User Interface (TUI) for watching an
// extraction run. It draws a progress bar coloured by severity tier, the
// running stage, and a spinner while no report is available or after polling
// has fallen back.
//
// The TUI consumes progress events, so the poller never talks to it directly.
package tui

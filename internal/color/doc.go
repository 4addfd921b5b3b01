// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package color wraps strings in ANSI escape codes.
//
// Whether color is used by default follows the NO_COLOR and FORCE_COLOR
// environment variables, falling back to terminal detection on stdout via
// golang.org/x/term.
package color

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package progress carries poller output to whatever is displaying it.
// The View type turns render calls into Events on a Reporter, and listeners such
// as the terminal UI or the line printer consume those events.
package progress

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package poller implements the progress polling loop.
//
// A Poller fetches a report, renders it through a View and schedules the next
// fetch until the server reports 100% progress. Any fetch failure is logged once,
// the View is switched to its fallback indicator and polling stops. A Poller runs
// at most once; a new run needs a new Poller.
//
//	Idle -> Polling -> Polling | Done | Failed | Stopped
package poller

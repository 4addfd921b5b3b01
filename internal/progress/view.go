// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"sync"
	"time"

	"github.com/matt-FFFFFF/tracewatch/internal/report"
)

// View implements the poller's display contract by reporting events.
type View struct {
	reporter Reporter
	now      func() time.Time

	mu   sync.Mutex
	last report.Snapshot
}

// NewView creates a View that reports to r.
func NewView(r Reporter) *View {
	return &View{
		reporter: r,
		now:      time.Now,
	}
}

// Started reports that polling of endpoint has begun.
func (v *View) Started(endpoint string) {
	v.reporter.Report(Event{
		Type:      EventStarted,
		Message:   endpoint,
		Timestamp: v.now(),
	})
}

// Render reports a new snapshot.
func (v *View) Render(s report.Snapshot) {
	v.mu.Lock()
	v.last = s
	v.mu.Unlock()

	v.reporter.Report(Event{
		Type:      EventProgress,
		Snapshot:  s,
		Timestamp: v.now(),
	})
}

// ShowDone reports completion, carrying the last rendered snapshot.
func (v *View) ShowDone() {
	v.reporter.Report(Event{
		Type:      EventCompleted,
		Snapshot:  v.Last(),
		Timestamp: v.now(),
	})
}

// ShowFallback reports that the fallback indicator should replace the progress display.
func (v *View) ShowFallback() {
	v.reporter.Report(Event{
		Type:      EventFallback,
		Snapshot:  v.Last(),
		Timestamp: v.now(),
	})
}

// Last returns the most recently rendered snapshot.
func (v *View) Last() report.Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.last
}

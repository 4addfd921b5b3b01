// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"time"

	"github.com/matt-FFFFFF/tracewatch/internal/report"
)

// Event is a single display update.
type Event struct {
	Type      EventType       // What happened
	Snapshot  report.Snapshot // Latest rendered report, zero for EventStarted
	Message   string          // Human-readable detail, e.g. the status endpoint
	Timestamp time.Time       // When the event occurred
}

// EventType represents the type of progress event.
type EventType int

const (
	// EventStarted indicates polling has begun.
	EventStarted EventType = iota
	// EventProgress carries a freshly rendered report.
	EventProgress
	// EventCompleted indicates the server reported completion.
	EventCompleted
	// EventFallback indicates polling failed and the fallback indicator is shown.
	EventFallback
)

// String implements the Stringer interface for EventType.
func (et EventType) String() string {
	switch et {
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventCompleted:
		return "completed"
	case EventFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Terminal reports whether no event follows this one.
func (et EventType) Terminal() bool {
	return et == EventCompleted || et == EventFallback
}

// Reporter is the interface for sending progress events.
type Reporter interface {
	// Report sends a progress event.
	Report(event Event)
	// Close signals that no more events will be sent and cleans up resources.
	Close()
}

// Listener receives progress events.
type Listener interface {
	// OnEvent is called for every event, in order.
	OnEvent(event Event)
}

// ListenerFunc adapts a function to the Listener interface.
type ListenerFunc func(Event)

// OnEvent implements Listener.
func (f ListenerFunc) OnEvent(event Event) {
	f(event)
}

// NullReporter is a no-op implementation of Reporter.
type NullReporter struct{}

// Report implements Reporter.Report by doing nothing.
func (nr *NullReporter) Report(_ Event) {}

// Close implements Reporter.Close by doing nothing.
func (nr *NullReporter) Close() {}

// NewNullReporter creates a new NullReporter.
func NewNullReporter() Reporter {
	return &NullReporter{}
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/matt-FFFFFF/tracewatch/internal/report"
)

func TestEventType_String(t *testing.T) {
	tests := []struct {
		name      string
		eventType EventType
		expected  string
		terminal  bool
	}{
		{name: "EventStarted", eventType: EventStarted, expected: "started"},
		{name: "EventProgress", eventType: EventProgress, expected: "progress"},
		{name: "EventCompleted", eventType: EventCompleted, expected: "completed", terminal: true},
		{name: "EventFallback", eventType: EventFallback, expected: "fallback", terminal: true},
		{name: "Unknown event type", eventType: EventType(999), expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.eventType.String())
			assert.Equal(t, tt.terminal, tt.eventType.Terminal())
		})
	}
}

func TestNullReporter(t *testing.T) {
	reporter := NewNullReporter()
	require.NotNil(t, reporter)

	// These should not panic
	reporter.Report(Event{
		Type:      EventStarted,
		Message:   "http://localhost:8000/extraction/filter/",
		Timestamp: time.Now(),
	})

	reporter.Close()
}

func TestChannelReporter(t *testing.T) {
	defer goleak.VerifyNone(t)

	reporter := NewChannelReporter(context.Background(), 10)
	require.NotNil(t, reporter)

	event := Event{
		Type:     EventProgress,
		Snapshot: report.NewSnapshot(report.New(10, "Parsing")),
	}

	reporter.Report(event)

	select {
	case received := <-reporter.Events():
		assert.Equal(t, event.Type, received.Type)
		assert.Equal(t, "10%", received.Snapshot.Percentage)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Event not received within timeout")
	}

	reporter.Close()
	assert.Error(t, reporter.Context().Err())

	// Closed reporters drop events without panicking.
	reporter.Report(Event{Type: EventCompleted})
	reporter.Close()
}

func TestChannelReporter_CancelledParentUnblocks(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	reporter := NewChannelReporter(ctx, 1)

	reporter.Report(Event{Type: EventStarted})

	sent := make(chan struct{})

	go func() {
		defer close(sent)
		reporter.Report(Event{Type: EventProgress})
	}()

	cancel()

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("Report blocked after the parent context was cancelled")
	}

	reporter.Close()
}

type mockListener struct {
	mu     sync.Mutex
	events []Event
}

func (ml *mockListener) OnEvent(event Event) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.events = append(ml.events, event)
}

func TestChannelReporter_ListenDeliversEverything(t *testing.T) {
	defer goleak.VerifyNone(t)

	// A buffer smaller than the number of events must not lose any of them.
	reporter := NewChannelReporter(context.Background(), 1)
	listener := &mockListener{}
	reporter.Listen(listener)

	events := []Event{{Type: EventStarted}}
	for _, v := range []float64{10, 25, 50, 75} {
		events = append(events, Event{Type: EventProgress, Snapshot: report.NewSnapshot(report.New(v, "Cohort Tagger"))})
	}

	events = append(events, Event{Type: EventCompleted})

	for _, event := range events {
		reporter.Report(event)
	}

	reporter.Close()

	require.Len(t, listener.events, len(events))

	for i, expected := range events {
		assert.Equal(t, expected.Type, listener.events[i].Type)
		assert.Equal(t, expected.Snapshot.Percentage, listener.events[i].Snapshot.Percentage)
	}
}

func TestListenerFunc(t *testing.T) {
	var got EventType = -1

	ListenerFunc(func(e Event) { got = e.Type }).OnEvent(Event{Type: EventFallback})

	assert.Equal(t, EventFallback, got)
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matt-FFFFFF/tracewatch/internal/poller"
	"github.com/matt-FFFFFF/tracewatch/internal/report"
)

var _ poller.View = (*View)(nil)

type sliceReporter struct {
	events []Event
	closed bool
}

func (r *sliceReporter) Report(e Event) { r.events = append(r.events, e) }
func (r *sliceReporter) Close()         { r.closed = true }

func TestView(t *testing.T) {
	r := &sliceReporter{}
	v := NewView(r)

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v.now = func() time.Time { return fixed }

	v.Started("http://localhost:8000/extraction/filter/")
	v.Render(report.NewSnapshot(report.New(42, "Time Extractor")))
	v.Render(report.NewSnapshot(report.New(100, "")))
	v.ShowDone()

	require.Len(t, r.events, 4)

	assert.Equal(t, EventStarted, r.events[0].Type)
	assert.Equal(t, "http://localhost:8000/extraction/filter/", r.events[0].Message)

	assert.Equal(t, EventProgress, r.events[1].Type)
	assert.Equal(t, report.TierInfo, r.events[1].Snapshot.Tier)
	assert.Equal(t, "Time Extractor is currently running", r.events[1].Snapshot.StatusLine)

	assert.Equal(t, EventCompleted, r.events[3].Type)
	assert.Equal(t, "100%", r.events[3].Snapshot.Percentage)

	for _, e := range r.events {
		assert.Equal(t, fixed, e.Timestamp)
	}
}

func TestView_FallbackCarriesLastSnapshot(t *testing.T) {
	r := &sliceReporter{}
	v := NewView(r)

	v.ShowFallback()
	assert.Equal(t, "", r.events[0].Snapshot.Percentage, "nothing rendered yet")

	v.Render(report.NewSnapshot(report.New(60, "Location Extractor")))
	v.ShowFallback()

	last := r.events[len(r.events)-1]
	assert.Equal(t, EventFallback, last.Type)
	assert.Equal(t, "60%", last.Snapshot.Percentage)
	assert.Equal(t, "60%", v.Last().Percentage)
}

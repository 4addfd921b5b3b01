// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package poller

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/matt-FFFFFF/tracewatch/internal/ctxlog"
	"github.com/matt-FFFFFF/tracewatch/internal/report"
	"github.com/matt-FFFFFF/tracewatch/internal/schedule"
)

type reply struct {
	rep report.Report
	err error
}

// scriptedFetcher returns its replies in order and repeats the last one.
type scriptedFetcher struct {
	mu      sync.Mutex
	replies []reply
	calls   int
}

func (f *scriptedFetcher) Fetch(_ context.Context) (report.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := min(f.calls, len(f.replies)-1)
	f.calls++

	return f.replies[i].rep, f.replies[i].err
}

func (f *scriptedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type recordingView struct {
	mu        sync.Mutex
	snapshots []report.Snapshot
	done      int
	fallback  int
}

func (v *recordingView) Render(s report.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.snapshots = append(v.snapshots, s)
}

func (v *recordingView) ShowDone() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.done++
}

func (v *recordingView) ShowFallback() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.fallback++
}

func ptr[T any](v T) *T {
	return &v
}

func logCapture() (context.Context, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return ctxlog.New(context.Background(), logger), buf
}

func TestPoller_ParsingScenario(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &scriptedFetcher{replies: []reply{{rep: report.New(10, "Parsing")}}}
	v := &recordingView{}
	m := schedule.NewManual()
	p := New(f, v, WithScheduler(m))

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, Polling, p.State())
	require.True(t, m.RunNext())

	require.Len(t, v.snapshots, 1)
	s := v.snapshots[0]
	assert.Equal(t, "10%", s.Percentage)
	assert.Equal(t, report.TierDanger, s.Tier)
	assert.Equal(t, "Parsing is currently running", s.StatusLine)
	assert.Equal(t, 0, v.done)

	assert.Equal(t, []time.Duration{0, DefaultInterval}, m.Delays())
	assert.Equal(t, 1, m.Pending())
	assert.Equal(t, Polling, p.State())

	p.Stop()
	assert.Equal(t, 0, m.Pending())
}

func TestPoller_CompletesAtHundred(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &scriptedFetcher{replies: []reply{
		{rep: report.New(25, "Cohort Tagger")},
		{rep: report.New(50, "Activity Labeler")},
		{rep: report.Report{Progress: ptr(100.0)}},
	}}
	v := &recordingView{}
	m := schedule.NewManual()
	p := New(f, v, WithScheduler(m), WithInterval(250*time.Millisecond))

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, 3, m.RunAll(10))

	assert.Equal(t, Done, p.State())
	assert.Equal(t, 1, v.done)
	assert.Equal(t, 0, v.fallback)
	require.Len(t, v.snapshots, 3)
	assert.Equal(t, "100%", v.snapshots[2].Percentage)
	assert.Equal(t, report.IdleMessage, v.snapshots[2].StatusLine)
	assert.Equal(t, []time.Duration{0, 250 * time.Millisecond, 250 * time.Millisecond}, m.Delays())

	// Done is terminal: nothing is scheduled and Stop is ignored.
	assert.Equal(t, 0, m.Pending())
	p.Stop()
	assert.Equal(t, Done, p.State())
	assert.Equal(t, 3, f.Calls())
	require.NoError(t, p.Wait(context.Background()))
}

func TestPoller_NullProgress(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &scriptedFetcher{replies: []reply{{rep: report.Report{}}}}
	v := &recordingView{}
	m := schedule.NewManual()
	p := New(f, v, WithScheduler(m))

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, 2, m.RunAll(2))

	require.Len(t, v.snapshots, 2)
	assert.Equal(t, "0%", v.snapshots[0].Percentage)
	assert.Equal(t, report.TierDanger, v.snapshots[0].Tier)
	assert.Equal(t, report.IdleMessage, v.snapshots[0].StatusLine)
	assert.Equal(t, 0, v.done)
	assert.Equal(t, Polling, p.State())

	p.Stop()
}

func TestPoller_FetchErrorShowsFallback(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, logs := logCapture()
	boom := errors.New("connection refused")
	f := &scriptedFetcher{replies: []reply{{err: boom}}}
	v := &recordingView{}
	m := schedule.NewManual()
	p := New(f, v, WithScheduler(m))

	require.NoError(t, p.Start(ctx))
	require.True(t, m.RunNext())

	assert.Equal(t, Failed, p.State())
	assert.Equal(t, 1, v.fallback)
	assert.Empty(t, v.snapshots)
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, []time.Duration{0}, m.Delays())
	assert.Equal(t, 1, strings.Count(logs.String(), "level=WARN"))
	assert.Contains(t, logs.String(), "connection refused")

	err := p.Wait(context.Background())
	require.ErrorIs(t, err, ErrPollFailed)
	assert.ErrorIs(t, err, boom)
}

func TestPoller_FailureAfterProgress(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &scriptedFetcher{replies: []reply{
		{rep: report.New(30, "Time Extractor")},
		{err: errors.New("502 Bad Gateway")},
	}}
	v := &recordingView{}
	m := schedule.NewManual()
	p := New(f, v, WithScheduler(m))

	require.NoError(t, p.Start(context.Background()))
	assert.Equal(t, 2, m.RunAll(10))

	assert.Equal(t, Failed, p.State())
	assert.Len(t, v.snapshots, 1)
	assert.Equal(t, 1, v.fallback)
	assert.Equal(t, 2, f.Calls())
}

func TestPoller_StartTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &scriptedFetcher{replies: []reply{{rep: report.New(100, "")}}}
	m := schedule.NewManual()
	p := New(f, &recordingView{}, WithScheduler(m))

	require.NoError(t, p.Start(context.Background()))
	require.ErrorIs(t, p.Start(context.Background()), ErrAlreadyStarted)

	m.RunAll(10)
	assert.Equal(t, Done, p.State())
	require.ErrorIs(t, p.Start(context.Background()), ErrAlreadyStarted)
	assert.Equal(t, 1, f.Calls())
}

func TestPoller_Stop(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &scriptedFetcher{replies: []reply{{rep: report.New(5, "Preprocessing")}}}
	v := &recordingView{}
	m := schedule.NewManual()
	p := New(f, v, WithScheduler(m))

	p.Stop()
	assert.Equal(t, Idle, p.State(), "stop before start has no effect")

	require.NoError(t, p.Start(context.Background()))
	m.RunNext()
	p.Stop()

	assert.Equal(t, Stopped, p.State())
	assert.False(t, m.RunNext(), "pending poll was cancelled")
	require.ErrorIs(t, p.Wait(context.Background()), ErrStopped)
	assert.Equal(t, 0, v.done)
	assert.Equal(t, 0, v.fallback)
}

func TestPoller_ContextCancelStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &scriptedFetcher{replies: []reply{{rep: report.New(60, "Location Extractor")}}}
	m := schedule.NewManual()
	p := New(f, &recordingView{}, WithScheduler(m))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Start(ctx))
	m.RunNext()

	cancel()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after context cancellation")
	}

	assert.Equal(t, Stopped, p.State())
	assert.Equal(t, 0, m.Pending())
}

func TestPoller_StopDuringFetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	var p *Poller

	v := &recordingView{}
	m := schedule.NewManual()
	f := FetcherFunc(func(_ context.Context) (report.Report, error) {
		p.Stop()
		return report.New(100, ""), nil
	})
	p = New(f, v, WithScheduler(m))

	require.NoError(t, p.Start(context.Background()))
	m.RunNext()

	assert.Equal(t, Stopped, p.State())
	assert.Empty(t, v.snapshots)
	assert.Equal(t, 0, v.done)
}

func TestPoller_ParentCancelDuringFetch(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, logs := logCapture()
	ctx, cancel := context.WithCancel(ctx)

	defer cancel()

	entered := make(chan struct{})
	f := FetcherFunc(func(fctx context.Context) (report.Report, error) {
		close(entered)
		<-fctx.Done()

		return report.Report{}, fctx.Err()
	})
	v := &recordingView{}
	m := schedule.NewManual()
	p := New(f, v, WithScheduler(m))

	require.NoError(t, p.Start(ctx))

	ran := make(chan struct{})

	go func() {
		defer close(ran)
		m.RunNext()
	}()

	<-entered
	cancel()
	<-p.Done()
	<-ran

	assert.Equal(t, Stopped, p.State())
	require.ErrorIs(t, p.Wait(context.Background()), ErrStopped)

	v.mu.Lock()
	defer v.mu.Unlock()

	assert.Equal(t, 0, v.fallback)
	assert.NotContains(t, logs.String(), "status poll failed")
}

func TestPoller_LegacyFieldWarnsOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, logs := logCapture()
	legacy := report.Report{Progress: ptr(40.0), Status: ptr("Event Type Classifier"), LegacyField: true}
	f := &scriptedFetcher{replies: []reply{{rep: legacy}, {rep: legacy}, {rep: report.New(100, "")}}}
	v := &recordingView{}
	m := schedule.NewManual()
	p := New(f, v, WithScheduler(m))

	require.NoError(t, p.Start(ctx))
	m.RunAll(10)

	assert.Equal(t, Done, p.State())
	assert.Equal(t, 1, strings.Count(logs.String(), "current_module"))
	assert.Equal(t, "Event Type Classifier is currently running", v.snapshots[0].StatusLine)
}

func TestPoller_RealTimer(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := &scriptedFetcher{replies: []reply{
		{rep: report.New(20, "Cohort Tagger")},
		{rep: report.New(80, "Metrics Analyzer")},
		{rep: report.New(100, "")},
	}}
	v := &recordingView{}
	p := New(f, v, WithInterval(time.Millisecond))

	require.NoError(t, p.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, p.Wait(ctx))
	assert.Equal(t, 3, f.Calls())
	assert.Equal(t, 1, v.done)
}

func TestPoller_WaitContext(t *testing.T) {
	p := New(&scriptedFetcher{replies: []reply{{}}}, &recordingView{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state    State
		expected string
		terminal bool
	}{
		{Idle, "idle", false},
		{Polling, "polling", false},
		{Done, "done", true},
		{Failed, "failed", true},
		{Stopped, "stopped", true},
		{State(42), "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.state.String())
			assert.Equal(t, tt.terminal, tt.state.Terminal())
		})
	}
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/matt-FFFFFF/tracewatch/internal/ctxlog"
	"github.com/matt-FFFFFF/tracewatch/internal/report"
	"github.com/matt-FFFFFF/tracewatch/internal/schedule"
)

// DefaultInterval is the delay between two polls.
const DefaultInterval = time.Second

var (
	// ErrAlreadyStarted is returned when Start is called on a poller that is not idle.
	ErrAlreadyStarted = errors.New("poller already started")
	// ErrPollFailed is returned by Wait when a fetch failed.
	ErrPollFailed = errors.New("status poll failed")
	// ErrStopped is returned by Wait when the poller was stopped before completion.
	ErrStopped = errors.New("poller stopped")
)

// Fetcher performs a single status request.
type Fetcher interface {
	Fetch(ctx context.Context) (report.Report, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) (report.Report, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context) (report.Report, error) {
	return f(ctx)
}

// View displays the poller's progress.
type View interface {
	// Render shows the latest report.
	Render(s report.Snapshot)
	// ShowDone reveals the completion affordance.
	ShowDone()
	// ShowFallback replaces the progress display with a generic loading indicator.
	ShowFallback()
}

// State is the lifecycle state of a Poller.
type State int

const (
	// Idle means Start has not been called.
	Idle State = iota
	// Polling means a fetch is in flight or scheduled.
	Polling
	// Done means the server reported completion.
	Done
	// Failed means a fetch failed and polling stopped.
	Failed
	// Stopped means Stop was called or the context was cancelled.
	Stopped
)

// String implements the Stringer interface for State.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Polling:
		return "polling"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	return s == Done || s == Failed || s == Stopped
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval sets the delay between polls.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithScheduler replaces the runtime timer.
func WithScheduler(s schedule.Scheduler) Option {
	return func(p *Poller) {
		if s != nil {
			p.sched = s
		}
	}
}

// Poller is a single-use polling loop.
type Poller struct {
	fetcher  Fetcher
	view     View
	interval time.Duration
	sched    schedule.Scheduler

	mu           sync.Mutex
	state        State
	task         schedule.Task
	ctx          context.Context
	cancel       context.CancelFunc
	stopAfter    func() bool
	err          error
	done         chan struct{}
	warnedLegacy bool
}

// New creates an idle poller.
func New(f Fetcher, v View, opts ...Option) *Poller {
	p := &Poller{
		fetcher:  f,
		view:     v,
		interval: DefaultInterval,
		sched:    schedule.Timer{},
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start schedules the first poll immediately. Cancelling ctx stops the poller.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Idle {
		return ErrAlreadyStarted
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.stopAfter = context.AfterFunc(ctx, p.Stop)
	p.state = Polling
	p.task = p.sched.AfterFunc(0, p.poll)

	ctxlog.Debug(ctx, "poller started", "interval", p.interval)

	return nil
}

// Stop cancels the pending poll. It has no effect unless the poller is polling.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Polling {
		return
	}

	if p.task != nil {
		p.task.Stop()
	}

	p.finish(Stopped, ErrStopped)
}

// State returns the current state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Wait blocks until the poller reaches a terminal state or ctx is done. It
// returns nil when the run completed.
func (p *Poller) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()

		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel that is closed once the poller reaches a terminal state.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) poll() {
	ctx, ok := p.active()
	if !ok {
		return
	}

	rep, err := p.fetcher.Fetch(ctx)
	if err != nil {
		if _, ok := p.active(); !ok {
			return
		}

		// The fetch can observe a cancelled parent before the AfterFunc stop runs.
		if ctx.Err() != nil {
			p.settle(Stopped, ErrStopped)
			return
		}

		ctxlog.Warn(ctx, "status poll failed, showing fallback", "error", err)
		p.view.ShowFallback()
		p.settle(Failed, errors.Join(ErrPollFailed, err))

		return
	}

	p.warnLegacy(ctx, rep)

	snap := report.NewSnapshot(rep)

	ctxlog.Debug(ctx, "progress report",
		"progress", snap.Percentage,
		"tier", snap.Tier.String(),
		"status", snap.StatusLine,
	)

	if _, ok := p.active(); !ok {
		return
	}

	p.view.Render(snap)

	if snap.Complete {
		p.view.ShowDone()
		p.settle(Done, nil)

		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Polling {
		return
	}

	p.task = p.sched.AfterFunc(p.interval, p.poll)
}

func (p *Poller) active() (context.Context, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ctx, p.state == Polling
}

func (p *Poller) warnLegacy(ctx context.Context, rep report.Report) {
	if !rep.LegacyField {
		return
	}

	p.mu.Lock()
	warned := p.warnedLegacy
	p.warnedLegacy = true
	p.mu.Unlock()

	if !warned {
		ctxlog.Warn(ctx, "server sent the legacy \"current_module\" field, expected \"status\"")
	}
}

func (p *Poller) settle(s State, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Polling {
		return
	}

	p.finish(s, err)
}

// finish must be called with mu held and state == Polling.
func (p *Poller) finish(s State, err error) {
	p.state = s
	p.err = err
	p.task = nil

	if p.stopAfter != nil {
		p.stopAfter()
	}

	if p.cancel != nil {
		p.cancel()
	}

	close(p.done)
}

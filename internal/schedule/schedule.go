// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schedule provides one-shot delayed tasks that can be stopped before
// they fire. Timer is backed by the runtime timer; Manual holds tasks until the
// caller runs them, which makes polling loops deterministic in tests.
package schedule

import (
	"sync"
	"time"
)

// Task is a handle to a scheduled function.
type Task interface {
	// Stop prevents the function from running. It returns false if the
	// function already ran or the task was already stopped.
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Task
}

// Timer schedules on the runtime timer.
type Timer struct{}

// AfterFunc implements Scheduler.
func (Timer) AfterFunc(d time.Duration, f func()) Task {
	return time.AfterFunc(d, f)
}

// Manual queues tasks until RunNext or RunAll is called.
type Manual struct {
	mu      sync.Mutex
	pending []*manualTask
	delays  []time.Duration
}

type manualTask struct {
	m       *Manual
	f       func()
	delay   time.Duration
	stopped bool
	ran     bool
}

// NewManual creates an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{}
}

// AfterFunc implements Scheduler. The delay is recorded but not waited on.
func (m *Manual) AfterFunc(d time.Duration, f func()) Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTask{m: m, f: f, delay: d}
	m.pending = append(m.pending, t)
	m.delays = append(m.delays, d)

	return t
}

// Stop implements Task.
func (t *manualTask) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()

	if t.stopped || t.ran {
		return false
	}

	t.stopped = true

	return true
}

// RunNext runs the oldest pending task on the calling goroutine. It returns
// false when nothing was pending.
func (m *Manual) RunNext() bool {
	m.mu.Lock()

	for len(m.pending) > 0 {
		t := m.pending[0]
		m.pending = m.pending[1:]

		if t.stopped {
			continue
		}

		t.ran = true
		m.mu.Unlock()
		t.f()

		return true
	}

	m.mu.Unlock()

	return false
}

// RunAll runs pending tasks, including ones scheduled by the tasks themselves,
// until none remain or limit tasks have run. It returns the number run.
func (m *Manual) RunAll(limit int) int {
	n := 0
	for n < limit && m.RunNext() {
		n++
	}

	return n
}

// Pending returns the number of tasks that are queued and not stopped.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0

	for _, t := range m.pending {
		if !t.stopped {
			n++
		}
	}

	return n
}

// Delays returns every delay passed to AfterFunc, in call order.
func (m *Manual) Delays() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]time.Duration, len(m.delays))
	copy(out, m.delays)

	return out
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matt-FFFFFF/tracewatch/internal/progress"
)

// Runner manages the TUI application and progress event integration.
type Runner struct {
	model    *Model
	program  *tea.Program
	reporter *TUIReporter
	mutex    sync.Mutex
}

// TUIReporter implements progress.Reporter and forwards events to the TUI.
type TUIReporter struct {
	program *tea.Program
	closed  bool
	mutex   sync.RWMutex
}

// NewTUIReporter creates a new TUI progress reporter.
func NewTUIReporter(program *tea.Program) *TUIReporter {
	return &TUIReporter{
		program: program,
	}
}

// Report implements progress.Reporter.Report.
// It blocks until the TUI has received the event or has exited.
func (tr *TUIReporter) Report(event progress.Event) {
	tr.mutex.RLock()
	defer tr.mutex.RUnlock()

	if tr.closed || tr.program == nil {
		return
	}

	tr.program.Send(ProgressEventMsg{Event: event})
}

// Close implements progress.Reporter.Close.
func (tr *TUIReporter) Close() {
	tr.mutex.Lock()
	defer tr.mutex.Unlock()
	tr.closed = true
}

// NewRunner creates a new TUI runner. Program options are passed to bubbletea.
func NewRunner(ctx context.Context, resultURL string, opts ...tea.ProgramOption) *Runner {
	model := NewModel(ctx, resultURL)
	program := tea.NewProgram(model, opts...)
	reporter := NewTUIReporter(program)

	return &Runner{
		model:    model,
		program:  program,
		reporter: reporter,
	}
}

// Reporter returns the progress reporter for this TUI runner.
func (r *Runner) Reporter() progress.Reporter {
	return r.reporter
}

// Model returns the TUI model.
func (r *Runner) Model() *Model {
	return r.model
}

// Run starts the TUI and runs job alongside it. job is expected to block until
// polling reaches a terminal state. If the user quits the TUI first, the context
// passed to job is cancelled and Run waits for job to return.
func (r *Runner) Run(ctx context.Context, job func(context.Context) error) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobDone := make(chan error, 1)
	tuiDone := make(chan error, 1)

	go func() {
		_, err := r.program.Run()
		tuiDone <- err
	}()

	go func() {
		jobDone <- job(jobCtx)
	}()

	select {
	case err := <-jobDone:
		// Terminal events already asked the TUI to quit; a stopped job has
		// not, so ask again.
		r.program.Quit()

		tuiErr := <-tuiDone

		r.reporter.Close()

		return errors.Join(err, tuiErr)

	case tuiErr := <-tuiDone:
		// The user quit, or the program failed.
		r.reporter.Close()
		cancel()

		err := <-jobDone

		return errors.Join(err, tuiErr)
	}
}

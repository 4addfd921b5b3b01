// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package statusserver

import (
	"github.com/matt-FFFFFF/tracewatch/internal/extraction"
	"github.com/matt-FFFFFF/tracewatch/internal/metrics"
	"github.com/matt-FFFFFF/tracewatch/internal/report"
	"github.com/matt-FFFFFF/tracewatch/internal/schedule"
)

// session holds one browser session's progress. Fields are guarded by Server.mu.
type session struct {
	report  report.Report
	running bool
	run     int // incremented per pipeline so stale steps are ignored
	task    schedule.Task
}

// cancel stops the running pipeline, if any.
func (sess *session) cancel() {
	if sess.task != nil {
		sess.task.Stop()
		sess.task = nil
	}

	if sess.running {
		sess.running = false
		metrics.RunCancelled()
	}
}

func (s *Server) snapshot(id string) report.Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		return sess.report
	}

	return report.Report{}
}

// reset sets the session back to 0% with no stage, cancelling any pipeline.
func (s *Server) reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return
	}

	sess.cancel()
	sess.report = report.New(0, "")
}

// start begins a pipeline. It returns false if one is already running.
func (s *Server) start(id string, mods []extraction.Module) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || sess.running {
		return false
	}

	sess.running = true
	sess.run++
	metrics.RunStarted()

	s.logger.Info("extraction started", "session", id, "modules", len(mods))
	s.advance(sess, sess.run, mods, 1)

	return true
}

// advance reports step (1-based) and schedules the next one. After the last
// step the session reports 100% with no stage. Caller holds s.mu.
func (s *Server) advance(sess *session, run int, mods []extraction.Module, step int) {
	if !sess.running || sess.run != run {
		return
	}

	if step > len(mods) {
		sess.report = report.New(report.Complete, "")
		sess.task = nil
		sess.running = false
		metrics.RunCompleted()

		return
	}

	sess.report = report.New(extraction.StepProgress(step, len(mods)), mods[step-1].Name)
	sess.task = s.sched.AfterFunc(s.stepDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.advance(sess, run, mods, step+1)
	})
}

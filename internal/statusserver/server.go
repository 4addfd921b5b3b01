// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package statusserver simulates the extraction view of a TracEX server: the
// filter page, the execute form and the AJAX progress endpoint. Each browser
// session runs its own pipeline whose progress advances one module per step.
package statusserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matt-FFFFFF/tracewatch/internal/ctxlog"
	"github.com/matt-FFFFFF/tracewatch/internal/extraction"
	"github.com/matt-FFFFFF/tracewatch/internal/metrics"
	"github.com/matt-FFFFFF/tracewatch/internal/schedule"
)

const (
	// DefaultStatusPath is where the extraction view is mounted.
	DefaultStatusPath = "/extraction/filter/"
	// DefaultStepDelay is how long each module runs.
	DefaultStepDelay = 2 * time.Second
	// SessionCookie names the session cookie.
	SessionCookie = "sessionid"
	// ModulesField is the form field listing the optional modules to run.
	ModulesField = "modules_optional"

	ajaxHeader        = "X-Requested-With"
	ajaxValue         = "XMLHttpRequest"
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	filterPage        = "TracEX extraction: select modules and execute.\n"
)

// Server serves the simulated extraction view.
type Server struct {
	router     chi.Router
	logger     *slog.Logger
	statusPath string
	stepDelay  time.Duration
	sched      schedule.Scheduler

	mu       sync.Mutex
	sessions map[string]*session
}

// Option configures a Server.
type Option func(*Server)

// WithStatusPath mounts the extraction view at p.
func WithStatusPath(p string) Option {
	return func(s *Server) {
		if p != "" {
			s.statusPath = p
		}
	}
}

// WithStepDelay sets how long each module runs.
func WithStepDelay(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.stepDelay = d
		}
	}
}

// WithScheduler replaces the runtime timer that advances pipelines.
func WithScheduler(sc schedule.Scheduler) Option {
	return func(s *Server) {
		if sc != nil {
			s.sched = sc
		}
	}
}

// New constructs a Server. Request logs go to the logger carried by ctx.
func New(ctx context.Context, opts ...Option) *Server {
	s := &Server{
		logger:     ctxlog.Logger(ctx),
		statusPath: DefaultStatusPath,
		stepDelay:  DefaultStepDelay,
		sched:      schedule.Timer{},
		sessions:   make(map[string]*session),
	}

	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Get(s.statusPath, s.getStatus)
	r.Post(s.statusPath, s.execute)

	s.router = r

	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// StatusPath returns the path of the extraction view.
func (s *Server) StatusPath() string {
	return s.statusPath
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		ctxlog.Info(ctx, "status server listening", "addr", addr, "path", s.statusPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()

		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)

		<-errCh
		s.Close()

		return err
	}
}

// Close stops every running pipeline.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		sess.cancel()
	}
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")

	if _, err := w.Write([]byte("ok")); err != nil {
		s.logger.Error("healthz write failed", "error", err)
	}
}

// getStatus answers AJAX requests with the session's progress and resets the
// session for plain page loads.
func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(ajaxHeader) == ajaxValue {
		// Polls never create a session: an unknown caller sees the null report.
		id, _ := s.knownSession(r)
		s.writeJSON(w, http.StatusOK, s.snapshot(id))

		return
	}

	id := s.sessionID(w, r)
	s.reset(id)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if _, err := w.Write([]byte(filterPage)); err != nil {
		s.logger.Error("page write failed", "error", err)
	}
}

// execute starts the pipeline for the chosen modules.
func (s *Server) execute(w http.ResponseWriter, r *http.Request) {
	id := s.sessionID(w, r)

	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	mods, err := extraction.Select(r.PostForm[ModulesField])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.start(id, mods) {
		s.writeError(w, http.StatusConflict, "extraction already running")
		return
	}

	names := make([]string, len(mods))
	for i, m := range mods {
		names[i] = m.Name
	}

	s.writeJSON(w, http.StatusAccepted, map[string][]string{"modules": names})
}

// sessionID returns the caller's session, creating one and setting the cookie
// when the request has none or an unknown one.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if id, ok := s.knownSession(r); ok {
		return id
	}

	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = &session{}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// knownSession returns the session named by the request cookie, if the server
// holds it.
func (s *Server) knownSession(r *http.Request) (string, bool) {
	ck, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.sessions[ck.Value]

	return ck.Value, ok
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("write JSON failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

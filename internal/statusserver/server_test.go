// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package statusserver

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/matt-FFFFFF/tracewatch/internal/report"
	"github.com/matt-FFFFFF/tracewatch/internal/schedule"
	"github.com/matt-FFFFFF/tracewatch/internal/statusclient"
)

type browser struct {
	t    *testing.T
	http *http.Client
	base string
}

func newBrowser(t *testing.T, base string) *browser {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &browser{t: t, http: &http.Client{Jar: jar}, base: base}
}

func (b *browser) do(req *http.Request) (int, string) {
	b.t.Helper()

	resp, err := b.http.Do(req)
	require.NoError(b.t, err)

	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)

	return resp.StatusCode, string(body)
}

func (b *browser) ajax() (int, string) {
	b.t.Helper()

	req, err := http.NewRequest(http.MethodGet, b.base+DefaultStatusPath, nil)
	require.NoError(b.t, err)
	req.Header.Set(ajaxHeader, ajaxValue)

	return b.do(req)
}

func (b *browser) page() (int, string) {
	b.t.Helper()

	req, err := http.NewRequest(http.MethodGet, b.base+DefaultStatusPath, nil)
	require.NoError(b.t, err)

	return b.do(req)
}

func (b *browser) execute(modules ...string) (int, string) {
	b.t.Helper()

	form := url.Values{ModulesField: modules}
	req, err := http.NewRequest(http.MethodPost, b.base+DefaultStatusPath, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return b.do(req)
}

func newTestServer(t *testing.T) (*Server, *schedule.Manual, *httptest.Server) {
	t.Helper()

	m := schedule.NewManual()
	s := New(context.Background(), WithScheduler(m), WithStepDelay(time.Second))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})

	return s, m, srv
}

func TestFreshSessionReportsNulls(t *testing.T) {
	_, _, srv := newTestServer(t)
	b := newBrowser(t, srv.URL)

	code, body := b.ajax()
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"progress": null, "status": null}`, body)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	assert.Empty(t, b.http.Jar.Cookies(u))

	b.page()
	require.Len(t, b.http.Jar.Cookies(u), 1)
	assert.Equal(t, SessionCookie, b.http.Jar.Cookies(u)[0].Name)
}

func TestCookielessPollsDoNotAllocateSessions(t *testing.T) {
	s, _, srv := newTestServer(t)

	for range 1000 {
		req, err := http.NewRequest(http.MethodGet, srv.URL+DefaultStatusPath, nil)
		require.NoError(t, err)
		req.Header.Set(ajaxHeader, ajaxValue)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "stale"})

		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		assert.Empty(t, resp.Cookies())
		resp.Body.Close() //nolint:errcheck
	}

	_, body := newBrowser(t, srv.URL).ajax()
	assert.JSONEq(t, `{"progress": null, "status": null}`, body)

	s.mu.Lock()
	defer s.mu.Unlock()

	assert.Empty(t, s.sessions)
}

func TestPageLoadResetsProgress(t *testing.T) {
	_, _, srv := newTestServer(t)
	b := newBrowser(t, srv.URL)

	code, body := b.page()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, filterPage, body)

	_, body = b.ajax()
	assert.JSONEq(t, `{"progress": 0, "status": null}`, body)
}

func TestSessionsAreIsolated(t *testing.T) {
	_, _, srv := newTestServer(t)

	a := newBrowser(t, srv.URL)
	a.page()

	code, _ := a.execute()
	require.Equal(t, http.StatusAccepted, code)

	_, body := newBrowser(t, srv.URL).ajax()
	assert.JSONEq(t, `{"progress": null, "status": null}`, body)
}

func TestPipelineProgress(t *testing.T) {
	_, m, srv := newTestServer(t)

	c, err := statusclient.New(srv.URL)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Open(ctx))
	require.NoError(t, c.Execute(ctx, []string{"time_extraction"}))

	type step struct {
		progress float64
		status   string
	}

	want := []step{
		{25, "Cohort Tagger"},
		{50, "Activity Labeler"},
		{75, "Time Extractor"},
	}

	for i, w := range want {
		rep, err := c.Fetch(ctx)
		require.NoError(t, err)
		assert.Equal(t, w.progress, rep.Value(), "step %d", i+1)
		assert.Equal(t, w.status, rep.Stage(), "step %d", i+1)
		assert.False(t, rep.LegacyField)

		require.True(t, m.RunNext())
	}

	rep, err := c.Fetch(ctx)
	require.NoError(t, err)
	assert.True(t, rep.IsComplete())
	assert.Nil(t, rep.Status)
	assert.Equal(t, 0, m.Pending())

	for _, d := range m.Delays() {
		assert.Equal(t, time.Second, d)
	}

	// A finished session can run again.
	require.NoError(t, c.Execute(ctx, nil))
}

func TestExecuteWhileRunning(t *testing.T) {
	_, _, srv := newTestServer(t)
	b := newBrowser(t, srv.URL)
	b.page()

	code, body := b.execute("preprocessing", "metrics_analyzer")
	require.Equal(t, http.StatusAccepted, code)
	assert.JSONEq(t, `{"modules": ["Preprocessing", "Cohort Tagger", "Activity Labeler", "Metrics Analyzer"]}`, body)

	_, body = b.ajax()
	assert.JSONEq(t, `{"progress": 20, "status": "Preprocessing"}`, body)

	code, _ = b.execute()
	assert.Equal(t, http.StatusConflict, code)
}

func TestExecuteUnknownModule(t *testing.T) {
	_, m, srv := newTestServer(t)
	b := newBrowser(t, srv.URL)

	code, body := b.execute("translation")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body, "translation")
	assert.Equal(t, 0, m.Pending())
}

func TestPageLoadCancelsRunningPipeline(t *testing.T) {
	_, m, srv := newTestServer(t)
	b := newBrowser(t, srv.URL)
	b.page()

	code, _ := b.execute()
	require.Equal(t, http.StatusAccepted, code)
	require.Equal(t, 1, m.Pending())

	b.page()
	assert.Equal(t, 0, m.Pending())

	_, body := b.ajax()
	assert.JSONEq(t, `{"progress": 0, "status": null}`, body)

	code, _ = b.execute()
	assert.Equal(t, http.StatusAccepted, code)
}

func TestHealthzAndMetrics(t *testing.T) {
	_, _, srv := newTestServer(t)
	b := newBrowser(t, srv.URL)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)

	code, body := b.do(req)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	b.execute()

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/metrics", nil)
	require.NoError(t, err)

	code, body = b.do(req)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "tracewatch_extraction_runs_total")
}

func TestWithStatusPath(t *testing.T) {
	s := New(context.Background(), WithStatusPath("/jobs/progress"), WithScheduler(schedule.NewManual()))
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	assert.Equal(t, "/jobs/progress", s.StatusPath())

	c, err := statusclient.New(srv.URL, statusclient.WithStatusPath(s.StatusPath()))
	require.NoError(t, err)

	rep, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.Report{}, rep)
}

func TestListenAndServe(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := New(context.Background(), WithScheduler(schedule.NewManual()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- s.ListenAndServe(ctx, "127.0.0.1:0")
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package report

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

const (
	// Complete is the progress value that ends a run.
	Complete = 100.0
	// IdleMessage is shown when the server reports no running stage.
	IdleMessage = "Execute Extraction Pipeline"

	runningSuffix = " is currently running"
)

// ErrDecode is returned when a server reply cannot be decoded.
var ErrDecode = errors.New("failed to decode progress report")

// Report is a single progress snapshot as sent by the server.
type Report struct {
	// Progress is the completion percentage, nil when the server has none.
	Progress *float64
	// Status is the name of the running stage, nil when idle.
	Status *string
	// LegacyField is true when the stage name came from "current_module".
	LegacyField bool
}

type wireReport struct {
	Progress      *float64 `json:"progress"`
	Status        *string  `json:"status"`
	CurrentModule *string  `json:"current_module"`
}

// Decode reads one JSON report from r.
func Decode(r io.Reader) (Report, error) {
	var w wireReport
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return Report{}, errors.Join(ErrDecode, err)
	}

	rep := Report{
		Progress: w.Progress,
		Status:   w.Status,
	}

	if rep.Status == nil && w.CurrentModule != nil {
		rep.Status = w.CurrentModule
		rep.LegacyField = true
	}

	return rep, nil
}

// MarshalJSON writes the canonical wire form. The legacy field is never emitted.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Progress *float64 `json:"progress"`
		Status   *string  `json:"status"`
	}{
		Progress: r.Progress,
		Status:   r.Status,
	})
}

// New builds a report from plain values. An empty status means idle.
func New(progress float64, status string) Report {
	r := Report{Progress: &progress}
	if status != "" {
		r.Status = &status
	}

	return r
}

// IsComplete reports whether the progress is exactly 100.
func (r Report) IsComplete() bool {
	return r.Progress != nil && *r.Progress == Complete
}

// Value returns the progress, or 0 when absent.
func (r Report) Value() float64 {
	if r.Progress == nil {
		return 0
	}

	return *r.Progress
}

// Stage returns the running stage name, or "" when idle.
func (r Report) Stage() string {
	if r.Status == nil {
		return ""
	}

	return *r.Status
}

// Percentage formats the progress as "<n>%", or "0%" when absent.
func Percentage(progress *float64) string {
	if progress == nil {
		return "0%"
	}

	return strconv.FormatFloat(*progress, 'f', -1, 64) + "%"
}

// StatusLine names the running stage, or returns IdleMessage.
func StatusLine(stage string) string {
	if stage == "" {
		return IdleMessage
	}

	return stage + runningSuffix
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"context"
	"sync"

	bubblesprogress "github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/matt-FFFFFF/tracewatch/internal/progress"
	"github.com/matt-FFFFFF/tracewatch/internal/report"
)

const (
	defaultBarWidth = 40
	maxBarWidth     = 80
	barPadding      = 12 // room for the percentage label
)

// Phase is what the TUI is currently showing.
type Phase int

const (
	// PhaseWaiting is shown before the first report arrives.
	PhaseWaiting Phase = iota
	// PhasePolling shows the progress bar.
	PhasePolling
	// PhaseDone shows the completed bar and the result link.
	PhaseDone
	// PhaseFallback replaces the bar with the loading spinner.
	PhaseFallback
)

// String returns a string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhasePolling:
		return "polling"
	case PhaseDone:
		return "done"
	case PhaseFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	endpoint  string
	resultURL string
	phase     Phase
	snapshot  report.Snapshot
	width     int
	quitting  bool
	mutex     sync.RWMutex

	bar     bubblesprogress.Model
	spinner spinner.Model

	// Style definitions
	styles *Styles
}

// Styles contains all the styling for the TUI.
type Styles struct {
	Title    lipgloss.Style
	Endpoint lipgloss.Style
	Status   lipgloss.Style
	Success  lipgloss.Style
	Failed   lipgloss.Style
	Spinner  lipgloss.Style
	Help     lipgloss.Style
	Tiers    map[report.Tier]lipgloss.Style
}

// TierColors maps severity tiers to ANSI colours.
var TierColors = map[report.Tier]lipgloss.Color{
	report.TierDanger:  lipgloss.Color("9"),
	report.TierWarning: lipgloss.Color("11"),
	report.TierInfo:    lipgloss.Color("14"),
	report.TierPrimary: lipgloss.Color("12"),
	report.TierSuccess: lipgloss.Color("10"),
}

// NewStyles creates the default styling for the TUI.
func NewStyles() *Styles {
	tiers := make(map[report.Tier]lipgloss.Style, len(TierColors))
	for tier, c := range TierColors {
		tiers[tier] = lipgloss.NewStyle().Foreground(c).Bold(true)
	}

	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")),
		Endpoint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Italic(true),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")),
		Failed: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		Spinner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			MarginTop(1),
		Tiers: tiers,
	}
}

// Tier returns the style for a tier.
func (s *Styles) Tier(t report.Tier) lipgloss.Style {
	if st, ok := s.Tiers[t]; ok {
		return st
	}

	return s.Status
}

// NewModel creates a new TUI model. resultURL is shown once the run completes.
func NewModel(ctx context.Context, resultURL string) *Model {
	styles := NewStyles()

	bar := bubblesprogress.New(
		bubblesprogress.WithSolidFill(string(TierColors[report.TierDanger])),
		bubblesprogress.WithWidth(defaultBarWidth),
		bubblesprogress.WithoutPercentage(),
	)

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(styles.Spinner),
	)

	return &Model{
		ctx:       ctx,
		resultURL: resultURL,
		bar:       bar,
		spinner:   sp,
		styles:    styles,
	}
}

// Phase returns the current phase.
func (m *Model) Phase() Phase {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.phase
}

// Snapshot returns the last rendered snapshot.
func (m *Model) Snapshot() report.Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.snapshot
}

// setWidth sizes the bar to the terminal. Caller holds the lock.
func (m *Model) setWidth(w int) {
	m.width = w

	bw := w - barPadding
	if bw > maxBarWidth {
		bw = maxBarWidth
	}

	if bw < 10 { //nolint:mnd
		bw = 10
	}

	m.bar.Width = bw
}

// processProgressEvent applies an event and reports whether the TUI should quit.
func (m *Model) processProgressEvent(event progress.Event) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch event.Type {
	case progress.EventStarted:
		m.endpoint = event.Message

	case progress.EventProgress:
		m.phase = PhasePolling
		m.snapshot = event.Snapshot
		m.bar.FullColor = string(TierColors[event.Snapshot.Tier])

	case progress.EventCompleted:
		m.phase = PhaseDone
		m.snapshot = event.Snapshot
		m.bar.FullColor = string(TierColors[event.Snapshot.Tier])

		return true

	case progress.EventFallback:
		m.phase = PhaseFallback

		return true
	}

	return false
}

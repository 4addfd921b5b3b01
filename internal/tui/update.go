// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/matt-FFFFFF/tracewatch/internal/progress"
)

// Init implements bubbletea.Model.Init.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements bubbletea.Model.Update.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.mutex.Lock()
		m.setWidth(msg.Width)
		m.mutex.Unlock()

		return m, nil

	case spinner.TickMsg:
		m.mutex.Lock()
		defer m.mutex.Unlock()

		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case ProgressEventMsg:
		if m.processProgressEvent(msg.Event) {
			return m, tea.Quit
		}

		return m, nil

	case tea.QuitMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// ProgressEventMsg wraps a progress event for the tea framework.
type ProgressEventMsg struct {
	Event progress.Event
}

// handleKeyPress processes keyboard input.
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View implements bubbletea.Model.View.
func (m *Model) View() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var view strings.Builder

	view.WriteString(m.styles.Title.Render("tracewatch"))

	if m.endpoint != "" {
		view.WriteString(" ")
		view.WriteString(m.styles.Endpoint.Render(m.endpoint))
	}

	view.WriteString("\n\n")

	switch m.phase {
	case PhaseWaiting:
		view.WriteString(m.spinner.View())
		view.WriteString(" ")
		view.WriteString(m.styles.Status.Render("Waiting for the first progress report..."))
		view.WriteString("\n")

	case PhasePolling, PhaseDone:
		m.renderBar(&view)

	case PhaseFallback:
		view.WriteString(m.spinner.View())
		view.WriteString(" ")
		view.WriteString(m.styles.Status.Render("Loading..."))
		view.WriteString("\n")
		view.WriteString(m.styles.Failed.Render("Progress is unavailable, polling stopped."))
		view.WriteString("\n")
	}

	if m.phase == PhaseDone {
		view.WriteString("\n")
		view.WriteString(m.styles.Success.Render("✅ Extraction complete"))
		view.WriteString("\n")

		if m.resultURL != "" {
			view.WriteString("Result: ")
			view.WriteString(m.resultURL)
			view.WriteString("\n")
		}
	}

	if !m.quitting && m.phase != PhaseDone && m.phase != PhaseFallback {
		view.WriteString(m.styles.Help.Render("'q' to stop watching"))
		view.WriteString("\n")
	}

	return view.String()
}

// renderBar draws the bar, the percentage and the status line.
func (m *Model) renderBar(b *strings.Builder) {
	s := m.snapshot

	b.WriteString(m.bar.ViewAs(s.Ratio))
	b.WriteString(" ")
	b.WriteString(m.styles.Tier(s.Tier).Render(s.Percentage))
	b.WriteString("\n")
	b.WriteString(m.styles.Status.Render(s.StatusLine))
	b.WriteString("\n")
}

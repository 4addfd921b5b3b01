// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lineview prints progress events as plain lines, for terminals that
// cannot host the TUI and for redirected output.
package lineview

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/matt-FFFFFF/tracewatch/internal/color"
	"github.com/matt-FFFFFF/tracewatch/internal/progress"
	"github.com/matt-FFFFFF/tracewatch/internal/report"
)

const barWidth = 20

// TierCodes maps severity tiers to ANSI colours.
var TierCodes = map[report.Tier]color.Code{
	report.TierDanger:  color.FgRed,
	report.TierWarning: color.FgYellow,
	report.TierInfo:    color.FgCyan,
	report.TierPrimary: color.FgBlue,
	report.TierSuccess: color.FgGreen,
}

// Printer is a progress.Listener that writes one line per visible change.
type Printer struct {
	w         io.Writer
	resultURL string
	colour    bool

	mu   sync.Mutex
	last string
	err  error
}

// Option configures a Printer.
type Option func(*Printer)

// WithColour forces colour output on or off.
func WithColour(on bool) Option {
	return func(p *Printer) {
		p.colour = on
	}
}

// WithResultURL sets the link printed on completion.
func WithResultURL(u string) Option {
	return func(p *Printer) {
		p.resultURL = u
	}
}

// New creates a Printer writing to w. Colour follows the process default.
func New(w io.Writer, opts ...Option) *Printer {
	p := &Printer{
		w:      w,
		colour: color.Enabled(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// OnEvent implements progress.Listener.
func (p *Printer) OnEvent(e progress.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Type {
	case progress.EventStarted:
		p.println("Watching " + e.Message)

	case progress.EventProgress:
		line := p.progressLine(e.Snapshot)
		if line == p.last {
			return
		}

		p.println(line)

	case progress.EventCompleted:
		p.println(p.paint("Extraction complete", color.FgGreen, color.Bold))

		if p.resultURL != "" {
			p.println("Result: " + p.resultURL)
		}

	case progress.EventFallback:
		p.println(p.paint("Loading... progress is unavailable, polling stopped", color.FgRed))
	}
}

// Err returns the first write error, if any.
func (p *Printer) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.err
}

// Bar draws a text progress bar for a ratio in [0, 1].
func Bar(ratio float64) string {
	filled := int(math.Round(ratio * barWidth))
	filled = max(0, min(barWidth, filled))

	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

func (p *Printer) progressLine(s report.Snapshot) string {
	code := TierCodes[s.Tier]

	return fmt.Sprintf("%s %s %s",
		p.paint(Bar(s.Ratio), code),
		p.paint(fmt.Sprintf("%4s", s.Percentage), code, color.Bold),
		s.StatusLine,
	)
}

func (p *Printer) paint(s string, codes ...color.Code) string {
	if !p.colour {
		return s
	}

	return color.Wrap(s, codes...)
}

// println writes one line. Caller holds the lock.
func (p *Printer) println(line string) {
	p.last = line

	if p.err != nil {
		return
	}

	if _, err := fmt.Fprintln(p.w, line); err != nil {
		p.err = err
	}
}

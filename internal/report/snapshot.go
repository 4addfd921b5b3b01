// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package report

// Snapshot is a report prepared for display.
type Snapshot struct {
	Report     Report
	Percentage string
	Ratio      float64 // progress in [0, 1] for bar widgets
	Tier       Tier
	StatusLine string
	Complete   bool
}

// NewSnapshot renders r.
func NewSnapshot(r Report) Snapshot {
	v := r.Value()

	ratio := v / Complete
	if ratio < 0 {
		ratio = 0
	}

	if ratio > 1 {
		ratio = 1
	}

	return Snapshot{
		Report:     r,
		Percentage: Percentage(r.Progress),
		Ratio:      ratio,
		Tier:       TierFor(v),
		StatusLine: StatusLine(r.Stage()),
		Complete:   r.IsComplete(),
	}
}

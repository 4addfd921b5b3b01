// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package report

// Tier is the visual severity bucket of a progress value.
type Tier int

const (
	// TierDanger covers progress <= 10, and absent progress.
	TierDanger Tier = iota
	// TierWarning covers (10, 25].
	TierWarning
	// TierInfo covers (25, 50].
	TierInfo
	// TierPrimary covers (50, 75].
	TierPrimary
	// TierSuccess covers everything above 75.
	TierSuccess
)

// Tiers lists every tier from most to least severe.
var Tiers = []Tier{TierDanger, TierWarning, TierInfo, TierPrimary, TierSuccess}

// TierFor classifies a progress value.
func TierFor(progress float64) Tier {
	switch {
	case progress <= 10: //nolint:mnd
		return TierDanger
	case progress <= 25: //nolint:mnd
		return TierWarning
	case progress <= 50: //nolint:mnd
		return TierInfo
	case progress <= 75: //nolint:mnd
		return TierPrimary
	default:
		return TierSuccess
	}
}

// String implements the Stringer interface for Tier.
func (t Tier) String() string {
	switch t {
	case TierDanger:
		return "danger"
	case TierWarning:
		return "warning"
	case TierInfo:
		return "info"
	case TierPrimary:
		return "primary"
	case TierSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// Range returns a human readable description of the values in the tier.
func (t Tier) Range() string {
	switch t {
	case TierDanger:
		return "<= 10"
	case TierWarning:
		return "11-25"
	case TierInfo:
		return "26-50"
	case TierPrimary:
		return "51-75"
	case TierSuccess:
		return "76-100"
	default:
		return ""
	}
}

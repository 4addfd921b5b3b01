// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	m, ok := Lookup("location_extraction")
	require.True(t, ok)
	assert.Equal(t, "Location Extractor", m.Name)
	assert.True(t, m.Optional)

	_, ok = Lookup("translation")
	assert.False(t, ok)
}

func TestOptionalKeys(t *testing.T) {
	assert.Equal(t, []string{
		"preprocessing",
		"time_extraction",
		"event_type_classification",
		"location_extraction",
		"metrics_analyzer",
	}, OptionalKeys())
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		chosen  []string
		want    []string
		wantErr bool
	}{
		{
			name: "required only",
			want: []string{"Cohort Tagger", "Activity Labeler"},
		},
		{
			name:   "catalogue order wins",
			chosen: []string{"metrics_analyzer", "preprocessing"},
			want:   []string{"Preprocessing", "Cohort Tagger", "Activity Labeler", "Metrics Analyzer"},
		},
		{
			name:   "required key is harmless",
			chosen: []string{"cohort_tagging", "cohort_tagging"},
			want:   []string{"Cohort Tagger", "Activity Labeler"},
		},
		{
			name:    "unknown key",
			chosen:  []string{"time_extraction", "translation"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mods, err := Select(tt.chosen)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownModule)
				assert.Contains(t, err.Error(), "translation")

				return
			}

			require.NoError(t, err)

			names := make([]string, len(mods))
			for i, m := range mods {
				names[i] = m.Name
			}

			assert.Equal(t, tt.want, names)
		})
	}
}

func TestStepProgress(t *testing.T) {
	tests := []struct {
		step, total int
		expected    float64
	}{
		{1, 2, 33},
		{2, 2, 67},
		{1, 7, 12}, // 12.5 rounds to even
		{3, 7, 38}, // 37.5 rounds to even
		{5, 7, 62}, // 62.5 rounds to even
		{7, 7, 88}, // 87.5 rounds to even
		{1, 3, 25},
		{1, 0, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, StepProgress(tt.step, tt.total), "step %d of %d", tt.step, tt.total)
	}
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package extraction describes the modules of the extraction pipeline and how
// a run of them maps onto progress values.
package extraction

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownModule is returned for a module key that is not in the catalogue.
var ErrUnknownModule = errors.New("unknown extraction module")

// Module is one stage of the pipeline.
type Module struct {
	Key      string // form value, e.g. "time_extraction"
	Name     string // reported as the status while the module runs
	Optional bool
}

// Catalogue lists every module in execution order.
var Catalogue = []Module{
	{Key: "preprocessing", Name: "Preprocessing", Optional: true},
	{Key: "cohort_tagging", Name: "Cohort Tagger"},
	{Key: "activity_labeling", Name: "Activity Labeler"},
	{Key: "time_extraction", Name: "Time Extractor", Optional: true},
	{Key: "event_type_classification", Name: "Event Type Classifier", Optional: true},
	{Key: "location_extraction", Name: "Location Extractor", Optional: true},
	{Key: "metrics_analyzer", Name: "Metrics Analyzer", Optional: true},
}

// Lookup finds a module by key.
func Lookup(key string) (Module, bool) {
	for _, m := range Catalogue {
		if m.Key == key {
			return m, true
		}
	}

	return Module{}, false
}

// OptionalKeys returns the keys that may be chosen by the user.
func OptionalKeys() []string {
	keys := make([]string, 0, len(Catalogue))

	for _, m := range Catalogue {
		if m.Optional {
			keys = append(keys, m.Key)
		}
	}

	return keys
}

// Validate checks that every key exists in the catalogue.
func Validate(keys []string) error {
	var unknown []string

	for _, k := range keys {
		if _, ok := Lookup(k); !ok {
			unknown = append(unknown, k)
		}
	}

	if len(unknown) > 0 {
		return fmt.Errorf("%w: %s (known: %s)",
			ErrUnknownModule, strings.Join(unknown, ", "), strings.Join(OptionalKeys(), ", "))
	}

	return nil
}

// Select returns the modules to run: every required module plus the chosen
// optional ones, in catalogue order.
func Select(chosen []string) ([]Module, error) {
	if err := Validate(chosen); err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(chosen))
	for _, k := range chosen {
		want[k] = true
	}

	out := make([]Module, 0, len(Catalogue))

	for _, m := range Catalogue {
		if !m.Optional || want[m.Key] {
			out = append(out, m)
		}
	}

	return out, nil
}

// StepProgress is the progress reported while step (1-based) of total runs.
// The final slot is reserved for completion, and halves round to even.
func StepProgress(step, total int) float64 {
	if total <= 0 {
		return 0
	}

	return math.RoundToEven(float64(step) / float64(total+1) * 100) //nolint:mnd
}

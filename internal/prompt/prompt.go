// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package prompt asks the user for confirmation on the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"

	"github.com/matt-FFFFFF/tracewatch/internal/ctxlog"
)

// ExecuteQuestion is asked before an extraction is started.
const ExecuteQuestion = "Execute extraction pipeline?"

// ErrAborted is returned when the user presses Ctrl+C at the prompt.
var ErrAborted = errors.New("prompt aborted")

// Liner is the subset of *liner.State used here.
type Liner interface {
	Prompt(p string) (string, error)
	SetCtrlCAborts(aborts bool)
	Close() error
}

// Factory opens the line editor. Tests replace it.
var Factory = func() Liner {
	return liner.NewLiner()
}

// Confirm asks question with a [y/N] suffix until it gets a yes or no answer.
// An empty answer or end of input means no.
func Confirm(ctx context.Context, question string) (bool, error) {
	line := Factory()
	defer func() {
		_ = line.Close()
	}()

	line.SetCtrlCAborts(true)

	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		input, err := line.Prompt(question + " [y/N] ")

		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			return false, ErrAborted
		case errors.Is(err, io.EOF):
			return false, nil
		case err != nil:
			return false, fmt.Errorf("reading answer: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(input)) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		default:
			ctxlog.Debug(ctx, "unrecognised answer", "input", input)
		}
	}
}

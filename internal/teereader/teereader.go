// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package teereader

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

// maxPartial bounds the unterminated tail kept between reads.
const maxPartial = 4096

// LastLineReader wraps an io.Reader and tracks the last non-empty line read.
// It is safe for concurrent use.
type LastLineReader struct {
	reader  io.Reader
	mu      sync.RWMutex
	last    string
	partial []byte
}

// New creates a LastLineReader that wraps r.
func New(r io.Reader) *LastLineReader {
	return &LastLineReader{reader: r}
}

// Read implements io.Reader.
func (lr *LastLineReader) Read(p []byte) (int, error) {
	n, err := lr.reader.Read(p)
	if n > 0 {
		lr.mu.Lock()
		lr.consume(p[:n])
		lr.mu.Unlock()
	}

	return n, err //nolint:wrapcheck
}

// consume must be called with the write lock held.
func (lr *LastLineReader) consume(data []byte) {
	lr.partial = append(lr.partial, data...)

	for {
		i := bytes.IndexByte(lr.partial, '\n')
		if i < 0 {
			break
		}

		if line := strings.TrimSpace(string(lr.partial[:i])); line != "" {
			lr.last = line
		}

		lr.partial = lr.partial[i+1:]
	}

	if len(lr.partial) > maxPartial {
		start := len(lr.partial) - maxPartial
		for start < len(lr.partial) && !utf8.RuneStart(lr.partial[start]) {
			start++
		}

		lr.partial = lr.partial[start:]
	}
}

// LastLine returns the last non-empty line, counting an unterminated tail as a
// line. If maxLength > 0 the result is truncated to that length with "...".
func (lr *LastLineReader) LastLine(maxLength int) string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()

	result := lr.last
	if tail := strings.TrimSpace(string(lr.partial)); tail != "" {
		result = tail
	}

	if maxLength > 3 && len(result) > maxLength {
		cut := maxLength - 3
		for cut > 0 && !utf8.RuneStart(result[cut]) {
			cut--
		}

		result = result[:cut] + "..."
	}

	return result
}

// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package teereader provides a reader that passes data through unchanged while
// remembering the last non-empty line. The status client uses it to quote the
// server's response in error messages without buffering whole bodies.
package teereader

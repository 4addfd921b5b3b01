// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package report models the progress snapshot returned by an extraction server
// and the pure helpers used to display it: percentage formatting, the five
// severity tiers and the stage line.
//
// A server reply looks like this:
//
//	{"progress": 42, "status": "Time Extractor"}
//
// Both fields may be null. The stage field is canonically named "status";
// older dashboard scripts read "current_module" instead, which is still
// accepted when "status" is missing and is flagged on the decoded Report.
package report

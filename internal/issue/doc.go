// SPDX-License-Identifier: MPL-2.0

// Package issue provides the warning/error code catalog surfaced to callers
// of a packaging run, and actionable errors with user-friendly messages.
//
// Every advisory or fatal condition has a short, stable Code (OCTNOENT,
// OCTNONROOT, ...). Hosts filter on codes, never on message text. Each code
// also carries Markdown guidance rendered by 'octopack explain <code>'.
package issue

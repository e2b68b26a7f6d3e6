// SPDX-License-Identifier: MPL-2.0

// Package fileops provides the retrying file system primitives used while
// staging a package: delete and copy with backoff, directory purge, and a
// free-space preflight check.
//
// Build output is frequently locked for a moment by antivirus scanners,
// indexers, or a process that has not fully exited, so deletes and copies
// are retried on the calling goroutine before an error is surfaced.
package fileops

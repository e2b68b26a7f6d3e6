// SPDX-License-Identifier: MPL-2.0

// Package classify turns the candidate files reported by the build into the
// (source, target) entries written to the package manifest.
//
// For every candidate the classifier computes the in-package target path
// (preferring the link alias), drops files that are missing, excluded, or
// already resolved in this run, and applies the special cases for app.config
// overrides, deployment scripts, and TypeScript sources.
package classify

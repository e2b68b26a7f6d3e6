// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the octopack CLI.
//
// The root command carries the global flags (--config, --env-file,
// --verbose) and the subcommands: pack assembles a package from an inputs
// file, zip archives a directory without NuGet, explain prints the guidance
// for a warning or error code, and config inspects or writes configuration.
package cmd

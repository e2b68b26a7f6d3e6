// SPDX-License-Identifier: MPL-2.0

// Package config loads octopack settings using Viper with CUE as the file format.
//
// Settings come from, in increasing precedence: built-in defaults, the user
// config file (~/.config/octopack/config.cue or the platform equivalent), a
// project file (<project>/octopack.cue), an explicit --config file which
// replaces both lookups, and OCTOPACK_* environment variables such as
// OCTOPACK_ARCHIVER_PATH. Files are validated against the embedded
// config_schema.cue before they are merged.
package config

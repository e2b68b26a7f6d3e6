// SPDX-License-Identifier: MPL-2.0

// Package inputs reads the candidate file lists a build hands to octopack.
//
// The lists are stored in a TOML (.toml) or CUE (.cue) file:
//
//	project_type = "web"
//
//	[[content]]
//	item = "Views/Home/Index.cshtml"
//
//	[[binaries]]
//	item = "bin/Sample.WebApp.dll"
//
// CUE files are validated against the embedded #Inputs schema.
package inputs

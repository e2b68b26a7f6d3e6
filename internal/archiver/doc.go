// SPDX-License-Identifier: MPL-2.0

// Package archiver turns a saved manifest into a package artifact.
//
// The NuGet archiver builds the `pack` command line for a NuGet-compatible
// executable and runs it through a Runner, relaying each output line to a
// logsink.Sink as it arrives. The Zip archiver writes a plain zip of a
// directory named <id>.<version>.zip.
package archiver

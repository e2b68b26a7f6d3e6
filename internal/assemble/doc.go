// SPDX-License-Identifier: MPL-2.0

// Package assemble drives one package build from start to finish.
//
// A run moves through a fixed sequence of states: staging directories are
// recreated, the manifest is loaded or synthesized, candidate files are
// classified into manifest entries, the manifest is saved, the archiver is
// invoked, and the produced artifacts are copied to the output directory.
// Any failure stops the run and is reported once, with the last state the
// run reached.
package assemble

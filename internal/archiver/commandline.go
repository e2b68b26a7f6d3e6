// SPDX-License-Identifier: MPL-2.0

package archiver

import (
	"maps"
	"slices"
	"strings"
)

type (
	// Request describes one pack operation.
	Request struct {
		// ManifestPath is the saved .nuspec file.
		ManifestPath string
		// BasePath is the directory relative manifest sources resolve against.
		BasePath string
		// OutputDir receives the produced artifacts.
		OutputDir string
		// WorkDir is the working directory of the archiver process.
		WorkDir string
		// Version overrides the manifest version when set.
		Version string
		// Properties are passed as -Properties k=v;k=v in key order.
		Properties map[string]string
		// ExtraArgs are appended verbatim.
		ExtraArgs []string
	}

	// Invocation is a fully resolved process to start.
	Invocation struct {
		Executable string
		Args       []string
		Dir        string
	}
)

// CommandLine returns the archiver arguments for req.
func CommandLine(req Request) []string {
	args := []string{
		"pack", req.ManifestPath,
		"-NoPackageAnalysis",
		"-BasePath", req.BasePath,
		"-OutputDirectory", req.OutputDir,
	}
	if v := strings.TrimSpace(req.Version); v != "" {
		args = append(args, "-Version", v)
	}
	if props := joinProperties(req.Properties); props != "" {
		args = append(args, "-Properties", props)
	}
	for _, a := range req.ExtraArgs {
		if strings.TrimSpace(a) != "" {
			args = append(args, a)
		}
	}
	return args
}

// String renders the invocation the way it would be typed in a shell, with
// arguments containing spaces or path separators quoted.
func (i Invocation) String() string {
	var sb strings.Builder
	sb.WriteString(quote(i.Executable))
	for _, a := range i.Args {
		sb.WriteByte(' ')
		sb.WriteString(quote(a))
	}
	return sb.String()
}

func joinProperties(props map[string]string) string {
	if len(props) == 0 {
		return ""
	}
	keys := slices.Sorted(maps.Keys(props))
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.TrimSpace(k) == "" {
			continue
		}
		pairs = append(pairs, k+"="+props[k])
	}
	return strings.Join(pairs, ";")
}

func quote(s string) string {
	if s == "" {
		return `""`
	}
	if !strings.ContainsAny(s, " \t/\\\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

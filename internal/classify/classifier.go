// SPDX-License-Identifier: MPL-2.0

package classify

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/octopack/octopack/internal/issue"
	"github.com/octopack/octopack/internal/logsink"
	"github.com/octopack/octopack/pkg/fspath"
	"github.com/octopack/octopack/pkg/types"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// DefaultContentExclusions are content files never packaged.
	DefaultContentExclusions = []string{"packages.config", "web.debug.config"}

	// DefaultBinaryExclusions are build outputs never packaged.
	DefaultBinaryExclusions = []string{"*.nupkg", "*.vshost.exe", "*.vshost.exe.config", "*.vshost.pdb"}

	deployScripts = []string{"deploy.ps1", "deployfailed.ps1", "predeploy.ps1", "postdeploy.ps1"}
)

type (
	// FileChecker reports whether a regular file exists.
	FileChecker interface {
		FileExists(path string) bool
	}

	// Classifier resolves candidates into manifest entries.
	Classifier struct {
		fs   FileChecker
		sink logsink.Sink
	}

	// ClassifyContext holds the per-list settings of one Classify call.
	ClassifyContext struct {
		// SourceBase is the absolute directory relative item specs and links
		// are resolved against.
		SourceBase types.FilesystemPath
		// RelativeTo is stripped from the start of targets (case-insensitive).
		// It is the build output directory expressed relative to SourceBase.
		RelativeTo string
		// TargetPrefix is prepended to every target ("bin" for web binaries).
		TargetPrefix string
		// AppConfigOverride replaces app.config when it names an existing file.
		AppConfigOverride types.FilesystemPath
		// Exclude holds doublestar patterns matched case-insensitively against
		// the candidate's file name and its forward-slash item spec.
		Exclude                  []string
		IncludeTypeScriptSources bool
		IgnoreNonRootScripts     bool
	}
)

// New creates a Classifier. A nil sink discards messages.
func New(fs FileChecker, sink logsink.Sink) *Classifier {
	if sink == nil {
		sink = logsink.Discard
	}
	return &Classifier{fs: fs, sink: sink}
}

// Classify resolves candidates in input order. seen carries the sources
// resolved earlier in the same run; it is updated in place. Missing files
// are reported as warnings and skipped, never returned as errors.
func (c *Classifier) Classify(ctx ClassifyContext, candidates []CandidateFile, seen SeenSet) []ResolvedEntry {
	var entries []ResolvedEntry
	for _, cand := range candidates {
		entries = append(entries, c.classifyOne(ctx, cand, seen)...)
	}
	return entries
}

func (c *Classifier) classifyOne(ctx ClassifyContext, cand CandidateFile, seen SeenSet) []ResolvedEntry {
	if strings.TrimSpace(cand.ItemSpec) == "" {
		return nil
	}

	if isExcluded(ctx.Exclude, cand.ItemSpec) {
		c.sink.Detail(fmt.Sprintf("Excluded file: %s", cand.ItemSpec))
		return nil
	}

	target := c.destination(ctx, cand)
	source := c.rooted(ctx, cand.ItemSpec)

	if !c.fs.FileExists(source.String()) {
		c.sink.Warn(issue.CodeMissingSource, fmt.Sprintf(
			"The source file '%s' does not exist, so it will not be included in the package", source))
		return nil
	}

	if !seen.Add(source) {
		return nil
	}

	fileName := filepath.Base(target.String())

	if strings.EqualFold(fileName, "app.config") {
		return c.appConfig(ctx, target, seen)
	}

	tag := TagNormal
	if slices.Contains(deployScripts, strings.ToLower(fileName)) {
		tag = TagDeployScript
		if isNonRoot(target) && !ctx.IgnoreNonRootScripts {
			c.sink.Warn(issue.CodeNonRootScript, fmt.Sprintf(
				"PowerShell scripts that are not at the root of the package will not be executed. "+
					"The script '%s' lives in the path '%s' which is not at the root of the package. "+
					"Move the script to the root of the project, or pass --ignore-non-root-scripts if the placement is intentional.",
				fileName, fspath.ToPosix(target)))
		}
	}

	if strings.EqualFold(source.Ext(), ".ts") {
		return c.typeScript(ctx, source, target, seen)
	}

	c.sink.Detail("Added file: " + fspath.ToPosix(target))
	return []ResolvedEntry{{Source: source, Target: fspath.ToPosix(target), Tag: tag}}
}

// destination computes the package-relative target in platform form.
func (c *Classifier) destination(ctx ClassifyContext, cand CandidateFile) types.FilesystemPath {
	spec := cand.ItemSpec
	if strings.TrimSpace(cand.Link) != "" {
		spec = cand.Link
	}

	abs := c.rooted(ctx, spec)
	dest, err := fspath.Relativize(abs, ctx.SourceBase)
	if err != nil {
		c.sink.Detail(fmt.Sprintf("Cannot relativize %s against %s (%v); using its file name", abs, ctx.SourceBase, err))
		dest = types.FilesystemPath(abs.Base())
	}

	if prefix := normalizedPrefix(ctx.RelativeTo); prefix != "" && fspath.HasPrefixFold(dest.String(), prefix) {
		dest = dest[len(prefix):]
	}

	if ctx.TargetPrefix != "" {
		dest = fspath.Join(fspath.FromSlash(types.FilesystemPath(ctx.TargetPrefix)), dest)
	}
	return dest
}

// rooted resolves spec against the source base and cleans it.
func (c *Classifier) rooted(ctx ClassifyContext, spec string) types.FilesystemPath {
	p := fspath.FromSlash(types.FilesystemPath(spec))
	if !p.IsAbs() {
		p = fspath.Join(ctx.SourceBase, p)
	}
	return fspath.Clean(p)
}

// appConfig substitutes the configured override, keeping the target
// directory. Without an existing override nothing is packaged.
func (c *Classifier) appConfig(ctx ClassifyContext, target types.FilesystemPath, seen SeenSet) []ResolvedEntry {
	if strings.TrimSpace(ctx.AppConfigOverride.String()) == "" {
		return nil
	}

	override := c.rooted(ctx, ctx.AppConfigOverride.String())
	if !c.fs.FileExists(override.String()) {
		return nil
	}

	dir := filepath.Dir(target.String())
	renamed := types.FilesystemPath(override.Base())
	if dir != "." {
		renamed = fspath.JoinStr(types.FilesystemPath(dir), override.Base())
	}

	seen.Add(override)
	c.sink.Detail("Added file: " + fspath.ToPosix(renamed))
	return []ResolvedEntry{{Source: override, Target: fspath.ToPosix(renamed), Tag: TagAppConfig}}
}

// typeScript emits the source when requested and the compiled sibling
// whenever it exists.
func (c *Classifier) typeScript(ctx ClassifyContext, source, target types.FilesystemPath, seen SeenSet) []ResolvedEntry {
	var out []ResolvedEntry
	if ctx.IncludeTypeScriptSources {
		c.sink.Detail("Added file: " + fspath.ToPosix(target))
		out = append(out, ResolvedEntry{Source: source, Target: fspath.ToPosix(target), Tag: TagTypeScriptSource})
	}

	compiled := fspath.ChangeExt(source, ".js")
	if c.fs.FileExists(compiled.String()) && seen.Add(compiled) {
		compiledTarget := fspath.ToPosix(fspath.ChangeExt(target, ".js"))
		c.sink.Detail("Added file: " + compiledTarget)
		out = append(out, ResolvedEntry{Source: compiled, Target: compiledTarget, Tag: TagTypeScriptCompiled})
	}
	return out
}

// normalizedPrefix converts relativeTo to platform form with a trailing
// separator so it only ever matches whole directory names.
func normalizedPrefix(relativeTo string) string {
	p := strings.TrimSpace(relativeTo)
	if p == "" {
		return ""
	}
	p = fspath.FromSlash(types.FilesystemPath(p)).String()
	p = strings.TrimPrefix(filepath.Clean(p), "."+string(filepath.Separator))
	if p == "." || p == "" {
		return ""
	}
	return p + string(filepath.Separator)
}

func isNonRoot(target types.FilesystemPath) bool {
	return strings.ContainsAny(target.String(), `/\`)
}

func isExcluded(patterns []string, itemSpec string) bool {
	if len(patterns) == 0 {
		return false
	}
	slashed := strings.ToLower(strings.ReplaceAll(itemSpec, `\`, "/"))
	name := slashed
	if i := strings.LastIndex(slashed, "/"); i >= 0 {
		name = slashed[i+1:]
	}
	for _, pattern := range patterns {
		pattern = strings.ToLower(pattern)
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, slashed); ok {
			return true
		}
	}
	return false
}

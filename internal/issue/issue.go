// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Code is the short, stable identifier attached to every warning or error a
// packaging run reports.
type Code string

const (
	CodeNoManifest       Code = "OCT001"
	CodeNoReleaseNotes   Code = "OCT002"
	CodeMissingSource    Code = "OCTNOENT"
	CodeNonRootScript    Code = "OCTNONROOT"
	CodeArchiver         Code = "OCTONUGET"
	CodeFilesAlready     Code = "OCTFILES"
	CodeDiskSpace        Code = "OCTDISK"
	CodeManifest         Code = "OCTMANIFEST"
	CodeFailure          Code = "OCTFAIL"
	CodeInvalidArguments Code = "OCTARGS"
)

type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	code     Code        // code used to lookup the issue
	severity Severity    // how the code is reported to the sink
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	extLinks []HttpLink  // external links that might be useful for the user
}

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

func (c Code) String() string {
	return string(c)
}

func (i *Issue) Code() Code {
	return i.code
}

func (i *Issue) Severity() Severity {
	return i.severity
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue guidance with glamour using the given style
// ("dark", "light", "notty", or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.extLinks {
			md.WriteString("\n- <" + string(link) + ">")
		}
		md.WriteString("\n")
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	noManifestIssue = &Issue{
		code:     CodeNoManifest,
		severity: SeverityWarning,
		mdMsg: `
# OCT001: no manifest found, one was generated

No ` + "`<PackageId>.nuspec`" + ` file was found next to the project, so a minimal
manifest was synthesized in the staging directory.

The generated manifest uses placeholder license and project URLs and a
generated description. To control the package metadata:

- Add a ` + "`.nuspec`" + ` file named after the package id to the project directory.
- Or pass ` + "`--nuspec <file>`" + ` to point at an existing manifest.
`,
	}

	noReleaseNotesIssue = &Issue{
		code:     CodeNoReleaseNotes,
		severity: SeverityWarning,
		mdMsg: `
# OCT002: release notes file not found

A release notes file was configured but does not exist. The package is built
without release notes.

- Check the path passed with ` + "`--release-notes`" + `.
- Relative paths are resolved against the project directory.
`,
	}

	missingSourceIssue = &Issue{
		code:     CodeMissingSource,
		severity: SeverityWarning,
		mdMsg: `
# OCTNOENT: source file does not exist

The build reported a file that is not on disk, so it was left out of the
package. This is expected when another build step excluded the file on
purpose.

If the file should be in the package:

- Make sure the build produced it before packaging runs.
- Check the item path and its link alias in the inputs file.
`,
	}

	nonRootScriptIssue = &Issue{
		code:     CodeNonRootScript,
		severity: SeverityWarning,
		mdMsg: `
# OCTNONROOT: deployment script below the package root

A ` + "`Deploy.ps1`, `PreDeploy.ps1`, `PostDeploy.ps1` or `DeployFailed.ps1`" + `
script was resolved into a subdirectory of the package. It is packaged, but the
deployment runtime only runs these scripts from the package root.

- Move the script to the root of the project.
- Or add it as a link whose alias has no directory component.
- If the placement is intentional, pass ` + "`--ignore-non-root-scripts`" + `.
`,
	}

	archiverIssue = &Issue{
		code:     CodeArchiver,
		severity: SeverityError,
		mdMsg: `
# OCTONUGET: the archiver reported an error

The external ` + "`pack`" + ` command wrote to standard error or exited with a
non-zero code. A non-zero exit fails the whole run.

- Read the archiver output above for the underlying cause.
- Check ` + "`archiver.path`" + ` in your configuration.
- Check the generated manifest in ` + "`obj/octopacking`" + `.
`,
		extLinks: []HttpLink{"https://learn.microsoft.com/nuget/reference/nuget-exe-cli-reference"},
	}

	filesAlreadyIssue = &Issue{
		code:     CodeFilesAlready,
		severity: SeverityInfo,
		mdMsg: `
# OCTFILES: manifest already declares files

The manifest has a non-empty ` + "`<files>`" + ` block, so automatic file selection
was skipped and only the files listed by the author are packaged.

To add the build output as well, pass ` + "`--enforce-adding-files`" + `.
`,
	}

	diskSpaceIssue = &Issue{
		code:     CodeDiskSpace,
		severity: SeverityError,
		mdMsg: `
# OCTDISK: not enough free disk space

The volume holding the staging directory has less free space than required
(at least 500 MB). Nothing was staged.

- Free up space on the build agent.
- Clean old build output directories.
`,
	}

	manifestIssue = &Issue{
		code:     CodeManifest,
		severity: SeverityError,
		mdMsg: `
# OCTMANIFEST: invalid manifest

The manifest could not be read or is missing its ` + "`<package>`" + ` root or its
` + "`<metadata>`" + ` element.

A minimal valid manifest looks like:

` + "```xml" + `
<?xml version="1.0"?>
<package>
  <metadata>
    <id>Sample.WebApp</id>
    <version>1.0.0</version>
    <authors>you</authors>
    <description>Sample</description>
  </metadata>
</package>
` + "```" + `
`,
		extLinks: []HttpLink{"https://learn.microsoft.com/nuget/reference/nuspec"},
	}

	failureIssue = &Issue{
		code:     CodeFailure,
		severity: SeverityError,
		mdMsg: `
# OCTFAIL: packaging failed

An unexpected error stopped the run. The full error chain is logged with the
failure.

- Re-run with ` + "`--verbose`" + ` for low-importance detail messages.
- A failed run leaves its staging directories in place; they are purged by
  the next run.
`,
	}

	invalidArgumentsIssue = &Issue{
		code:     CodeInvalidArguments,
		severity: SeverityError,
		mdMsg: `
# OCTARGS: invalid arguments

The project settings failed validation before any work started.

- The project directory, output directory and project name are required.
- The project type must be one of ` + "`web`, `database`, `executable`" + `.
- The version, when set, must be a SemVer or four-part version.
- Configuration files (` + "`octopack.cue`" + `) must match the configuration
  schema; run ` + "`octopack config init`" + ` to see every key.
- The inputs file passed to ` + "`octopack pack --inputs`" + ` must be TOML or CUE
  with ` + "`content`" + ` and ` + "`binaries`" + ` lists of ` + "`item`" + `/` + "`link`" + ` entries:

` + "```toml" + `
project_type = "web"

[[content]]
item = "Views/Home/Index.cshtml"

[[binaries]]
item = "bin/Sample.WebApp.dll"
` + "```" + `
`,
	}

	issues = map[Code]*Issue{
		noManifestIssue.Code():       noManifestIssue,
		noReleaseNotesIssue.Code():   noReleaseNotesIssue,
		missingSourceIssue.Code():    missingSourceIssue,
		nonRootScriptIssue.Code():    nonRootScriptIssue,
		archiverIssue.Code():         archiverIssue,
		filesAlreadyIssue.Code():     filesAlreadyIssue,
		diskSpaceIssue.Code():        diskSpaceIssue,
		manifestIssue.Code():         manifestIssue,
		failureIssue.Code():          failureIssue,
		invalidArgumentsIssue.Code(): invalidArgumentsIssue,
	}
)

// Codes returns every catalog code in sorted order.
func Codes() []Code {
	keys := maps.Keys(issues)
	slices.Sort(keys)
	return keys
}

// Values returns every catalog entry ordered by code.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, code := range Codes() {
		out = append(out, issues[code])
	}
	return out
}

// Get looks up a code. Lookup is case-insensitive, so "octnoent" works.
func Get(code Code) *Issue {
	return issues[Code(strings.ToUpper(strings.TrimSpace(string(code))))]
}

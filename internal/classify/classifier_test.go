// SPDX-License-Identifier: MPL-2.0

package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/octopack/octopack/internal/fileops"
	"github.com/octopack/octopack/internal/issue"
	"github.com/octopack/octopack/internal/logsink"
	"github.com/octopack/octopack/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// project lays out files below a temporary project directory.
type project struct {
	t   *testing.T
	dir string
}

func newProject(t *testing.T, files ...string) *project {
	t.Helper()
	p := &project{t: t, dir: filepath.Join(t.TempDir(), "src", "Sample.WebApp")}
	require.NoError(t, os.MkdirAll(p.dir, 0o755))
	for _, f := range files {
		p.touch(f)
	}
	return p
}

func (p *project) touch(rel string) string {
	p.t.Helper()
	full := filepath.Join(p.dir, filepath.FromSlash(rel))
	require.NoError(p.t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(p.t, os.WriteFile(full, []byte(rel), 0o644))
	return full
}

func (p *project) abs(rel string) types.FilesystemPath {
	return types.FilesystemPath(filepath.Clean(filepath.Join(p.dir, filepath.FromSlash(rel))))
}

func (p *project) ctx() ClassifyContext {
	return ClassifyContext{SourceBase: types.FilesystemPath(p.dir)}
}

func newClassifier() (*Classifier, *logsink.Recorder) {
	rec := logsink.NewRecorder()
	return New(fileops.NewPhysical(), rec), rec
}

func content(specs ...string) []CandidateFile {
	out := make([]CandidateFile, 0, len(specs))
	for _, s := range specs {
		out = append(out, CandidateFile{ItemSpec: s, Kind: KindContent})
	}
	return out
}

func targets(entries []ResolvedEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Target)
	}
	return out
}

func TestClassify_WebProject(t *testing.T) {
	t.Parallel()

	p := newProject(t, "Web.config", "Views/Home/Index.cshtml", "bin/App.dll", "bin/App.pdb")
	c, rec := newClassifier()
	seen := NewSeenSet()

	got := c.Classify(p.ctx(), content("Web.config", `Views\Home\Index.cshtml`), seen)
	assert.Equal(t, []string{"Web.config", "Views/Home/Index.cshtml"}, targets(got))

	binCtx := p.ctx()
	binCtx.RelativeTo = "bin"
	binCtx.TargetPrefix = "bin"
	bins := c.Classify(binCtx, []CandidateFile{
		{ItemSpec: "bin/App.dll", Kind: KindBinary},
		{ItemSpec: "bin/App.pdb", Kind: KindBinary},
	}, seen)
	assert.Equal(t, []string{"bin/App.dll", "bin/App.pdb"}, targets(bins))
	assert.Equal(t, p.abs("bin/App.dll"), bins[0].Source)
	assert.Empty(t, rec.AtLevel(logsink.LevelWarn))
}

func TestClassify_RelativeToIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	p := newProject(t, "bin/Release/net8.0/Service.exe", "bin/Release/net8.0/sub/Helper.dll")
	c, _ := newClassifier()

	ctx := p.ctx()
	ctx.RelativeTo = `BIN\release\NET8.0\`
	got := c.Classify(ctx, content("bin/Release/net8.0/Service.exe", "bin/Release/net8.0/sub/Helper.dll"), NewSeenSet())
	assert.Equal(t, []string{"Service.exe", "sub/Helper.dll"}, targets(got))
}

func TestClassify_RelativeToMatchesWholeSegments(t *testing.T) {
	t.Parallel()

	p := newProject(t, "binaries/App.dll")
	c, _ := newClassifier()

	ctx := p.ctx()
	ctx.RelativeTo = "bin"
	got := c.Classify(ctx, content("binaries/App.dll"), NewSeenSet())
	assert.Equal(t, []string{"binaries/App.dll"}, targets(got))
}

func TestClassify_PrefersLink(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	shared := filepath.Join(filepath.Dir(p.dir), "Configs", "Global", "GlobalAppSettings.config")
	require.NoError(t, os.MkdirAll(filepath.Dir(shared), 0o755))
	require.NoError(t, os.WriteFile(shared, []byte("x"), 0o644))

	c, _ := newClassifier()
	got := c.Classify(p.ctx(), []CandidateFile{{
		ItemSpec: `..\Configs\Global\GlobalAppSettings.config`,
		Link:     `Content\LinkedFile.config`,
	}}, NewSeenSet())

	require.Len(t, got, 1)
	assert.Equal(t, "Content/LinkedFile.config", got[0].Target)
	assert.Equal(t, types.FilesystemPath(shared), got[0].Source)
}

func TestClassify_OutsideBaseIsFlattened(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	shared := filepath.Join(filepath.Dir(p.dir), "Configs", "Global", "GlobalAppSettings.config")
	require.NoError(t, os.MkdirAll(filepath.Dir(shared), 0o755))
	require.NoError(t, os.WriteFile(shared, []byte("x"), 0o644))

	c, _ := newClassifier()
	got := c.Classify(p.ctx(), content("../Configs/Global/GlobalAppSettings.config"), NewSeenSet())

	require.Len(t, got, 1)
	assert.Equal(t, "Configs/Global/GlobalAppSettings.config", got[0].Target)
	assert.NotContains(t, got[0].Target, "..")
}

func TestClassify_MissingSourceWarns(t *testing.T) {
	t.Parallel()

	p := newProject(t, "Web.config")
	c, rec := newClassifier()

	got := c.Classify(p.ctx(), content("Web.config", "NonExistant/LinkedFile.txt"), NewSeenSet())
	assert.Equal(t, []string{"Web.config"}, targets(got))

	warnings := rec.WithCode(issue.CodeMissingSource)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Msg, filepath.Join("NonExistant", "LinkedFile.txt"))
	assert.Contains(t, warnings[0].Msg, "does not exist, so it will not be included in the package")
}

func TestClassify_DuplicateSourceYieldsOneEntry(t *testing.T) {
	t.Parallel()

	p := newProject(t, "Global.asax")
	c, rec := newClassifier()
	seen := NewSeenSet()

	got := c.Classify(p.ctx(), []CandidateFile{
		{ItemSpec: "Global.asax"},
		{ItemSpec: "./Global.asax"},
		{ItemSpec: "Global.asax", Link: "Other/Global.asax"},
	}, seen)
	require.Len(t, got, 1)
	assert.Equal(t, "Global.asax", got[0].Target)

	// The set carries across calls of the same run.
	again := c.Classify(p.ctx(), content(string(p.abs("Global.asax"))), seen)
	assert.Empty(t, again)
	assert.Empty(t, rec.AtLevel(logsink.LevelWarn), "duplicates are dropped silently")
}

func TestClassify_TypeScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		files         []string
		includeSource bool
		want          []string
		tags          []Tag
	}{
		{
			name:  "compiled only",
			files: []string{"Scripts/App.ts", "Scripts/App.js"},
			want:  []string{"Scripts/App.js"},
			tags:  []Tag{TagTypeScriptCompiled},
		},
		{
			name:          "source and compiled",
			files:         []string{"Scripts/App.ts", "Scripts/App.js"},
			includeSource: true,
			want:          []string{"Scripts/App.ts", "Scripts/App.js"},
			tags:          []Tag{TagTypeScriptSource, TagTypeScriptCompiled},
		},
		{
			name:  "no compiled sibling",
			files: []string{"Scripts/App.ts"},
			want:  []string{},
		},
		{
			name:          "source without compiled sibling",
			files:         []string{"Scripts/App.ts"},
			includeSource: true,
			want:          []string{"Scripts/App.ts"},
			tags:          []Tag{TagTypeScriptSource},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newProject(t, tt.files...)
			c, _ := newClassifier()
			ctx := p.ctx()
			ctx.IncludeTypeScriptSources = tt.includeSource

			got := c.Classify(ctx, content("Scripts/App.ts"), NewSeenSet())
			assert.Equal(t, tt.want, targets(got))
			for i, tag := range tt.tags {
				assert.Equal(t, tag, got[i].Tag)
			}
		})
	}
}

func TestClassify_TypeScriptCompiledNotDuplicated(t *testing.T) {
	t.Parallel()

	p := newProject(t, "Scripts/App.ts", "Scripts/App.js")
	c, _ := newClassifier()

	got := c.Classify(p.ctx(), content("Scripts/App.ts", "Scripts/App.js"), NewSeenSet())
	assert.Equal(t, []string{"Scripts/App.js"}, targets(got))
}

func TestClassify_AppConfig(t *testing.T) {
	t.Parallel()

	t.Run("no override", func(t *testing.T) {
		t.Parallel()
		p := newProject(t, "app.config")
		c, rec := newClassifier()
		got := c.Classify(p.ctx(), content("app.config"), NewSeenSet())
		assert.Empty(t, got)
		assert.Empty(t, rec.AtLevel(logsink.LevelWarn))
	})

	t.Run("override exists", func(t *testing.T) {
		t.Parallel()
		p := newProject(t, "App.config", "bin/Release/Sample.ConsoleApp.exe.config")
		c, _ := newClassifier()
		ctx := p.ctx()
		ctx.AppConfigOverride = "bin/Release/Sample.ConsoleApp.exe.config"

		got := c.Classify(ctx, content("App.config"), NewSeenSet())
		require.Len(t, got, 1)
		assert.Equal(t, p.abs("bin/Release/Sample.ConsoleApp.exe.config"), got[0].Source)
		assert.Equal(t, "Sample.ConsoleApp.exe.config", got[0].Target)
		assert.Equal(t, TagAppConfig, got[0].Tag)
	})

	t.Run("override keeps target directory", func(t *testing.T) {
		t.Parallel()
		p := newProject(t, "Config/app.config", "Override.config")
		c, _ := newClassifier()
		ctx := p.ctx()
		ctx.AppConfigOverride = types.FilesystemPath(p.abs("Override.config"))

		got := c.Classify(ctx, content("Config/app.config"), NewSeenSet())
		assert.Equal(t, []string{"Config/Override.config"}, targets(got))
	})

	t.Run("override missing is dropped silently", func(t *testing.T) {
		t.Parallel()
		p := newProject(t, "app.config")
		c, rec := newClassifier()
		ctx := p.ctx()
		ctx.AppConfigOverride = "does-not-exist.config"

		got := c.Classify(ctx, content("app.config"), NewSeenSet())
		assert.Empty(t, got)
		assert.Empty(t, rec.AtLevel(logsink.LevelWarn))
	})
}

func TestClassify_DeployScripts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		file      string
		ignore    bool
		wantWarns int
	}{
		{"non-root warns", "Views/Deploy.ps1", false, 1},
		{"non-root suppressed", "Views/Deploy.ps1", true, 0},
		{"root never warns", "Deploy.ps1", false, 0},
		{"root never warns when suppressed", "PostDeploy.ps1", true, 0},
		{"case-insensitive name", "Scripts/predeploy.PS1", false, 1},
		{"other scripts ignored", "Scripts/Setup.ps1", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newProject(t, tt.file)
			c, rec := newClassifier()
			ctx := p.ctx()
			ctx.IgnoreNonRootScripts = tt.ignore

			got := c.Classify(ctx, content(tt.file), NewSeenSet())
			require.Len(t, got, 1, "the script is still packaged")
			assert.Len(t, rec.WithCode(issue.CodeNonRootScript), tt.wantWarns)
		})
	}
}

func TestClassify_DeployScriptUnderBinPrefix(t *testing.T) {
	t.Parallel()

	p := newProject(t, "bin/Deploy.ps1")
	c, rec := newClassifier()
	ctx := p.ctx()
	ctx.RelativeTo = "bin"
	ctx.TargetPrefix = "bin"

	got := c.Classify(ctx, content("bin/Deploy.ps1"), NewSeenSet())
	require.Len(t, got, 1)
	assert.Equal(t, TagDeployScript, got[0].Tag)
	require.Len(t, rec.WithCode(issue.CodeNonRootScript), 1)
	assert.Contains(t, rec.WithCode(issue.CodeNonRootScript)[0].Msg, "bin/Deploy.ps1")
}

func TestClassify_Exclusions(t *testing.T) {
	t.Parallel()

	p := newProject(t, "packages.config", "Web.Debug.config", "Web.config",
		"bin/App.dll", "bin/App.vshost.exe", "bin/Old.1.0.0.nupkg", "bin/App.vshost.exe.config")
	c, _ := newClassifier()

	ctx := p.ctx()
	ctx.Exclude = DefaultContentExclusions
	got := c.Classify(ctx, content("packages.config", "Web.Debug.config", "Web.config"), NewSeenSet())
	assert.Equal(t, []string{"Web.config"}, targets(got))

	ctx.Exclude = DefaultBinaryExclusions
	got = c.Classify(ctx, content("bin/App.dll", "bin/App.vshost.exe", "bin/Old.1.0.0.nupkg", "bin/App.vshost.exe.config"), NewSeenSet())
	assert.Equal(t, []string{"bin/App.dll"}, targets(got))

	ctx.Exclude = []string{"bin/**"}
	got = c.Classify(ctx, content("bin/App.dll", "Web.config"), NewSeenSet())
	assert.Equal(t, []string{"Web.config"}, targets(got))
}

func TestClassify_PreservesInputOrder(t *testing.T) {
	t.Parallel()

	files := []string{"z.txt", "a.txt", "m/b.txt", "c.txt"}
	p := newProject(t, files...)
	c, _ := newClassifier()

	got := c.Classify(p.ctx(), content(files...), NewSeenSet())
	assert.Equal(t, []string{"z.txt", "a.txt", "m/b.txt", "c.txt"}, targets(got))
}

func TestClassify_TargetsNeverTraverse(t *testing.T) {
	t.Parallel()

	p := newProject(t)
	outside := filepath.Join(filepath.Dir(filepath.Dir(p.dir)), "deep", "x.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(outside), 0o755))
	require.NoError(t, os.WriteFile(outside, nil, 0o644))

	c, _ := newClassifier()
	got := c.Classify(p.ctx(), []CandidateFile{
		{ItemSpec: outside},
		{ItemSpec: "../../deep/x.txt", Link: "../../../../linked/x.txt"},
	}, NewSeenSet())

	require.Len(t, got, 1)
	for _, e := range got {
		assert.NotContains(t, e.Target, "..")
		assert.False(t, filepath.IsAbs(e.Target))
	}
}

func TestDetectProjectType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ProjectTypeWeb, DetectProjectType("Sample.WebApp.csproj", content("Global.asax", "web.config")))
	assert.Equal(t, ProjectTypeWeb, DetectProjectType("Linked.csproj", []CandidateFile{{ItemSpec: `..\Shared\Web.config`, Link: "Web.config"}}))
	assert.Equal(t, ProjectTypeExecutable, DetectProjectType("Sub.csproj", []CandidateFile{{ItemSpec: `..\Shared\Web.config`, Link: `Config\Web.config`}}))
	assert.Equal(t, ProjectTypeExecutable, DetectProjectType("Sample.ConsoleApp.csproj", content("App.config")))
	assert.Equal(t, ProjectTypeDatabase, DetectProjectType("Sample.Db.SQLPROJ", nil))
}

func TestParseProjectType(t *testing.T) {
	t.Parallel()

	pt, err := ParseProjectType(" Web ")
	require.NoError(t, err)
	assert.Equal(t, ProjectTypeWeb, pt)
	assert.True(t, pt.PackagesContent())
	assert.Equal(t, "bin", pt.BinaryPrefix())

	pt, err = ParseProjectType("database")
	require.NoError(t, err)
	assert.False(t, pt.PackagesContent())
	assert.Empty(t, pt.BinaryPrefix())

	_, err = ParseProjectType("library")
	assert.Error(t, err)
}

func TestSeenSet(t *testing.T) {
	t.Parallel()

	s := NewSeenSet()
	assert.True(t, s.Add("/a/b/../c.txt"))
	assert.False(t, s.Add("/a/c.txt"))
	assert.True(t, s.Contains("/a/./c.txt"))
	assert.False(t, s.Contains("/a/d.txt"))
}

// SPDX-License-Identifier: MPL-2.0

package inputs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/octopack/octopack/internal/classify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
project_type = "web"

[[content]]
item = "Views/Home/Index.cshtml"

[[content]]
item = "..\\Shared\\site.css"
link = "Content\\site.css"

[[binaries]]
item = "bin/Sample.WebApp.dll"
`

const sampleCUE = `
project_name: "Sample.WebApp"
content: [
	{item: "Views/Home/Index.cshtml"},
	{item: "../Shared/site.css", link: "Content/site.css"},
]
binaries: [{item: "bin/Sample.WebApp.dll"}]
`

func writeInputs(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_TOML(t *testing.T) {
	t.Parallel()

	f, err := Load(writeInputs(t, "inputs.toml", sampleTOML))
	require.NoError(t, err)

	require.Len(t, f.Content, 2)
	require.Len(t, f.Binaries, 1)
	assert.Equal(t, "web", f.ProjectType)
	assert.Equal(t, `..\Shared\site.css`, f.Content[1].ItemSpec)
	assert.Equal(t, `Content\site.css`, f.Content[1].Link)
	assert.Equal(t, classify.KindContent, f.Content[0].Kind)
	assert.Equal(t, classify.KindBinary, f.Binaries[0].Kind)
}

func TestLoad_CUE(t *testing.T) {
	t.Parallel()

	f, err := Load(writeInputs(t, "inputs.cue", sampleCUE))
	require.NoError(t, err)

	assert.Equal(t, "Sample.WebApp", f.ProjectName)
	require.Len(t, f.Content, 2)
	assert.Equal(t, "Content/site.css", f.Content[1].Link)
	assert.Empty(t, f.Content[0].Link)
	assert.Equal(t, classify.KindBinary, f.Binaries[0].Kind)

	c := f.Candidates()
	assert.Len(t, c.Content, 2)
	assert.Len(t, c.Binaries, 1)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	t.Parallel()

	_, err := Load(writeInputs(t, "inputs.json", "{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseTOML_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "bogus = 1\n"},
		{"bad syntax", "[[content]\n"},
		{"empty item", "[[binaries]]\nitem = \" \"\n"},
		{"bad project type", "project_type = \"library\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseTOML([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseTOML_EmptyItemReportsIndex(t *testing.T) {
	t.Parallel()

	_, err := ParseTOML([]byte("[[content]]\nitem = \"a\"\n[[content]]\nitem = \"\"\n"))
	var ie *ItemError
	require.True(t, errors.As(err, &ie), "got %v", err)
	assert.Equal(t, "content", ie.List)
	assert.Equal(t, 1, ie.Index)
	assert.ErrorIs(t, err, ErrEmptyItem)
}

func TestParseCUE_SchemaViolations(t *testing.T) {
	t.Parallel()

	for name, data := range map[string]string{
		"empty item":    `content: [{item: ""}]`,
		"unknown field": `content: [{item: "a", kind: 1}]`,
		"bad type":      `project_type: "library"`,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCUE([]byte(data), "inputs.cue")
			assert.Error(t, err)
		})
	}
}

func TestResolveProjectType(t *testing.T) {
	t.Parallel()

	declared := &File{ProjectType: "Database"}
	assert.Equal(t, classify.ProjectTypeDatabase, declared.ResolveProjectType("Sample.App"))

	detected := &File{Content: []classify.CandidateFile{{ItemSpec: "Web.config"}}}
	assert.Equal(t, classify.ProjectTypeWeb, detected.ResolveProjectType("Sample.WebApp"))

	assert.Equal(t, classify.ProjectTypeExecutable, (&File{}).ResolveProjectType("Tool"))
}

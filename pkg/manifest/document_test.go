// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const namespacedSpec = `<?xml version="1.0"?>
<package xmlns="http://schemas.microsoft.com/packaging/2010/07/nuspec.xsd">
  <metadata>
    <id>Sample.WebAppWithSpec</id>
    <version>1.0.13-demo</version>
    <title>Sample application</title>
    <authors>AM</authors>
    <owners>AM</owners>
    <requireLicenseAcceptance>false</requireLicenseAcceptance>
    <description>A sample project</description>
  </metadata>
</package>
`

const specWithFiles = `<?xml version="1.0"?>
<package>
  <metadata>
    <id>Sample.WebAppWithSpecAndCustomContent</id>
    <version>1.0.0</version>
    <authors>AM</authors>
    <description>Custom content</description>
  </metadata>
  <files>
    <file src="bin\Sample.WebAppWithSpecAndCustomContent.dll" target="bin" />
    <file src="SomeFiles\Foo.css" target="SomeFiles" />
  </files>
</package>
`

func parse(t *testing.T, src string) *Document {
	t.Helper()
	d, err := Parse(strings.NewReader(src), "test.nuspec")
	require.NoError(t, err)
	return d
}

func TestParse_NamespaceTolerant(t *testing.T) {
	t.Parallel()

	d := parse(t, namespacedSpec)
	require.NoError(t, d.Validate())
	assert.Equal(t, "Sample.WebAppWithSpec", d.ID())
	assert.Equal(t, "1.0.13-demo", d.Version())
	assert.False(t, d.HasFilesAlready())

	owners := d.Root.FindDescendantIgnoringNamespace("owners")
	require.NotNil(t, owners)
	assert.Equal(t, "owners", owners.Name.Local)
}

func TestParse_PrefixedRoot(t *testing.T) {
	t.Parallel()

	src := `<nu:package xmlns:nu="urn:nuspec"><nu:metadata><nu:id>Prefixed</nu:id><nu:version>2.0.0</nu:version></nu:metadata></nu:package>`
	d := parse(t, src)
	require.NoError(t, d.Validate())
	assert.Equal(t, "Prefixed", d.ID())

	out, err := d.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), `<nu:package xmlns:nu="urn:nuspec">`)
	assert.Contains(t, string(out), `<nu:id>Prefixed</nu:id>`)
}

func TestParse_ByteOrderMark(t *testing.T) {
	t.Parallel()

	d := parse(t, "\uFEFF"+namespacedSpec)
	assert.Equal(t, "Sample.WebAppWithSpec", d.ID())
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"unclosed", "<package><metadata></package>"},
		{"garbage", "not xml at all <"},
		{"two roots", "<package/><package/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse(strings.NewReader(tt.src), "bad.nuspec")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidManifest)
		})
	}
}

func TestValidate_Structure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{"valid", specWithFiles, false},
		{"wrong root", "<nuspec><metadata/></nuspec>", true},
		{"no metadata", "<package><files/></package>", true},
		{"two metadata", "<package><metadata/><metadata/></package>", true},
		{"two files", "<package><metadata/><files/><files/></package>", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := parse(t, tt.src).Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidManifest)
				var ime *InvalidManifestError
				assert.True(t, errors.As(err, &ime))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetReleaseNotes(t *testing.T) {
	t.Parallel()

	t.Run("adds field when missing", func(t *testing.T) {
		t.Parallel()
		d := parse(t, namespacedSpec)
		require.NoError(t, d.SetReleaseNotes("Hello world!"))
		assert.Equal(t, "Hello world!", d.ReleaseNotes())
	})

	t.Run("overwrites existing field", func(t *testing.T) {
		t.Parallel()
		d := CreateDefault(DefaultOptions{ID: "A", Version: "1.0.0", Author: "me"})
		require.NoError(t, d.SetReleaseNotes("first"))
		require.NoError(t, d.SetReleaseNotes("second"))
		assert.Equal(t, "second", d.ReleaseNotes())
		md := d.Root.FindChildIgnoringNamespace("metadata")
		assert.Len(t, md.ChildrenIgnoringNamespace("releaseNotes"), 1)
	})

	t.Run("blank is a no-op", func(t *testing.T) {
		t.Parallel()
		d := parse(t, "<package/>")
		assert.NoError(t, d.SetReleaseNotes("   "))
	})

	t.Run("missing metadata fails", func(t *testing.T) {
		t.Parallel()
		d := parse(t, "<package><files/></package>")
		assert.ErrorIs(t, d.SetReleaseNotes("notes"), ErrInvalidManifest)
	})

	t.Run("missing package fails", func(t *testing.T) {
		t.Parallel()
		d := parse(t, "<other><metadata/></other>")
		assert.ErrorIs(t, d.SetReleaseNotes("notes"), ErrInvalidManifest)
	})
}

func TestRewritePackageID(t *testing.T) {
	t.Parallel()

	d := parse(t, namespacedSpec)
	require.NoError(t, d.RewritePackageID(" Foo "))
	assert.Equal(t, "Sample.WebAppWithSpec.Foo", d.ID())

	require.NoError(t, d.RewritePackageID(""))
	assert.Equal(t, "Sample.WebAppWithSpec.Foo", d.ID())

	noID := parse(t, "<package><metadata/></package>")
	assert.ErrorIs(t, noID.RewritePackageID("Foo"), ErrInvalidManifest)
}

func TestHasFilesAlready(t *testing.T) {
	t.Parallel()

	assert.True(t, parse(t, specWithFiles).HasFilesAlready())
	assert.False(t, parse(t, "<package><metadata/><files></files></package>").HasFilesAlready())
	assert.False(t, parse(t, "<package><metadata/></package>").HasFilesAlready())
}

func TestAppendFile_SingleFilesBlock(t *testing.T) {
	t.Parallel()

	d := parse(t, namespacedSpec)
	require.NoError(t, d.AppendFile(`Web.config`, `Web.config`))
	require.NoError(t, d.AppendFile(`bin\App.dll`, `bin\App.dll`))
	require.NoError(t, d.AppendFile(`bin\App.dll`, `bin\App.dll`))

	assert.Len(t, d.Root.ChildrenIgnoringNamespace("files"), 1)
	assert.Equal(t, []FileEntry{
		{Src: `Web.config`, Target: `Web.config`},
		{Src: `bin\App.dll`, Target: `bin\App.dll`},
		{Src: `bin\App.dll`, Target: `bin\App.dll`},
	}, d.Files())
	assert.True(t, d.HasFilesAlready())
	assert.NoError(t, d.Validate())
}

func TestCreateDefault(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 7, 10, 0, 0, 0, time.UTC)
	d := CreateDefault(DefaultOptions{ID: "Sample.ConsoleApp", Version: "1.0.9", Author: "builder", Now: now})
	require.NoError(t, d.Validate())

	md := d.Root.FindChildIgnoringNamespace("metadata")
	want := map[string]string{
		"id":                       "Sample.ConsoleApp",
		"version":                  "1.0.9",
		"authors":                  "builder",
		"owners":                   "builder",
		"licenseUrl":               "http://example.com",
		"projectUrl":               "http://example.com",
		"requireLicenseAcceptance": "false",
		"description":              "The Sample.ConsoleApp deployment package, built on 3/7/2024",
		"releaseNotes":             "",
	}
	for field, value := range want {
		el := md.FindChildIgnoringNamespace(field)
		if assert.NotNil(t, el, field) {
			assert.Equal(t, value, el.Value(), field)
		}
	}
	assert.False(t, d.HasFilesAlready())
}

func TestCreateDefault_AuthorFromUser(t *testing.T) {
	t.Parallel()

	d := CreateDefault(DefaultOptions{ID: "A", Version: "1.0.0"})
	assert.Equal(t, CurrentUserName(), d.Root.FindDescendantIgnoringNamespace("authors").Value())
}

func TestSetVersion(t *testing.T) {
	t.Parallel()

	d := parse(t, namespacedSpec)
	require.NoError(t, d.SetVersion("2.0.0-Foo"))
	assert.Equal(t, "2.0.0-Foo", d.Version())

	noVersion := parse(t, "<package><metadata><id>X</id></metadata></package>")
	require.NoError(t, noVersion.SetVersion("1.0.0"))
	assert.Equal(t, "1.0.0", noVersion.Version())
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	d := parse(t, namespacedSpec)
	require.NoError(t, d.SetReleaseNotes("Fixes & improvements:\n- <none>"))
	require.NoError(t, d.AppendFile(`C:\work\Web.config`, `Web.config`))

	path := filepath.Join(t.TempDir(), "Sample.nuspec")
	require.NoError(t, d.Save(path))
	assert.Equal(t, path, d.Path)

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, d.ID(), reopened.ID())
	assert.Equal(t, "Fixes & improvements:\n- <none>", reopened.ReleaseNotes())
	assert.Equal(t, d.Files(), reopened.Files())

	out, err := reopened.Bytes()
	require.NoError(t, err)
	assert.Contains(t, string(out), `xmlns="http://schemas.microsoft.com/packaging/2010/07/nuspec.xsd"`)
	assert.True(t, strings.HasPrefix(string(out), `<?xml version="1.0"?>`))
}

func TestSave_PreservesAuthorFiles(t *testing.T) {
	t.Parallel()

	d := parse(t, specWithFiles)
	before := d.Files()

	path := filepath.Join(t.TempDir(), "custom.nuspec")
	require.NoError(t, d.Save(path))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, before, reopened.Files())
}

func TestSave_PreservesCommentsAndCDATA(t *testing.T) {
	t.Parallel()

	src := `<?xml version="1.0"?>
<!-- maintained by the release team -->
<package>
  <metadata>
    <!-- keep the id stable -->
    <id>Sample</id>
    <version>1.0.0</version>
    <description>
      <![CDATA[Ships <b>everything</b> & more]]>
    </description>
    <releaseNotes><![CDATA[old]]></releaseNotes>
  </metadata>
</package>
<!-- end -->
`
	d := parse(t, src)
	assert.Equal(t, "Sample", d.ID(), "comments are not elements")
	require.NoError(t, d.SetReleaseNotes("Fixed <input> handling"))

	out, err := d.Bytes()
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "<!-- maintained by the release team -->\n<package>")
	assert.Contains(t, text, "    <!-- keep the id stable -->\n")
	assert.Contains(t, text, "<![CDATA[Ships <b>everything</b> & more]]>")
	assert.Contains(t, text, "<releaseNotes><![CDATA[Fixed <input> handling]]></releaseNotes>")
	assert.True(t, strings.HasSuffix(text, "</package>\n<!-- end -->\n"))

	reopened := parse(t, text)
	assert.Equal(t, "Ships <b>everything</b> & more", reopened.metadataValue("description"))
	assert.Equal(t, "Fixed <input> handling", reopened.ReleaseNotes())

	again, err := reopened.Bytes()
	require.NoError(t, err)
	assert.Equal(t, text, string(again), "saving is stable")
}

func TestOpen_Missing(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "absent.nuspec"))
	assert.Error(t, err)
}

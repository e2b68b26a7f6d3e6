// SPDX-License-Identifier: MPL-2.0

package archiver

import (
	"slices"
	"testing"
)

func TestCommandLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  Request
		want []string
	}{
		{
			name: "minimal",
			req:  Request{ManifestPath: "/p/obj/octopacking/App.nuspec", BasePath: "/p", OutputDir: "/p/obj/octopacked"},
			want: []string{"pack", "/p/obj/octopacking/App.nuspec", "-NoPackageAnalysis", "-BasePath", "/p", "-OutputDirectory", "/p/obj/octopacked"},
		},
		{
			name: "version and properties",
			req: Request{
				ManifestPath: "App.nuspec", BasePath: "b", OutputDir: "o",
				Version:    " 1.0.9 ",
				Properties: map[string]string{"Configuration": "Release", "Author": "Ops", "": "skipped"},
			},
			want: []string{"pack", "App.nuspec", "-NoPackageAnalysis", "-BasePath", "b", "-OutputDirectory", "o",
				"-Version", "1.0.9", "-Properties", "Author=Ops;Configuration=Release"},
		},
		{
			name: "extra args appended",
			req:  Request{ManifestPath: "a", BasePath: "b", OutputDir: "o", ExtraArgs: []string{"-Verbosity", "", "detailed"}},
			want: []string{"pack", "a", "-NoPackageAnalysis", "-BasePath", "b", "-OutputDirectory", "o", "-Verbosity", "detailed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CommandLine(tt.req); !slices.Equal(got, tt.want) {
				t.Errorf("CommandLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvocation_String(t *testing.T) {
	t.Parallel()

	inv := Invocation{
		Executable: "/opt/tools/NuGet.exe",
		Args:       []string{"pack", "/my dir/App.nuspec", "-NoPackageAnalysis", "-Version", "1.0.0", "-X", ""},
	}
	want := `"/opt/tools/NuGet.exe" pack "/my dir/App.nuspec" -NoPackageAnalysis -Version 1.0.0 -X ""`
	if got := inv.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}

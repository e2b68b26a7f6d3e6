// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestFilesystemPath_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    FilesystemPath
		wantErr bool
	}{
		{"absolute path", FilesystemPath("/src/App/Web.config"), false},
		{"relative path", FilesystemPath("bin/App.dll"), false},
		{"windows style", FilesystemPath("C:\\BuildAgent\\work\\Root\\Web.config"), false},
		{"dot path", FilesystemPath("."), false},
		{"empty is invalid", FilesystemPath(""), true},
		{"whitespace only is invalid", FilesystemPath("   "), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.path.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("FilesystemPath(%q).Validate() error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if err == nil {
				return
			}
			if !errors.Is(err, ErrInvalidFilesystemPath) {
				t.Errorf("error should wrap ErrInvalidFilesystemPath, got: %v", err)
			}
			var fpErr *InvalidFilesystemPathError
			if !errors.As(err, &fpErr) {
				t.Errorf("error should be *InvalidFilesystemPathError, got: %T", err)
			}
		})
	}
}

func TestFilesystemPath_BaseAndExt(t *testing.T) {
	t.Parallel()

	p := FilesystemPath("/src/App/Scripts/app.ts")
	if got := p.Base(); got != "app.ts" {
		t.Errorf("Base() = %q, want %q", got, "app.ts")
	}
	if got := p.Ext(); got != ".ts" {
		t.Errorf("Ext() = %q, want %q", got, ".ts")
	}
	if !p.IsAbs() {
		t.Error("IsAbs() = false, want true")
	}
}

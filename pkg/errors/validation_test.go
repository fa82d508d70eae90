package errors

import (
	"strings"
	"testing"
)

func TestValidators(t *testing.T) {
	nodeID := func(s string) error { return ValidateNodeID(s) }
	relPath := func(s string) error { return ValidatePath(s) }
	store := func(s string) error { return ValidateStoreURL(s) }

	tests := []struct {
		name     string
		validate func(string) error
		input    string
		wantCode Code // empty means valid
	}{
		{"id: file path", nodeID, "src/app/main.go", ""},
		{"id: directory", nodeID, "dir:pkg/server", ""},
		{"id: external", nodeID, "ext:github.com/go-chi/chi", ""},
		{"id: unicode", nodeID, "docs/überblick.md", ""},
		{"id: empty", nodeID, "", ErrCodeInvalidInput},
		{"id: too long", nodeID, strings.Repeat("a", MaxNodeIDLength+1), ErrCodeInvalidInput},
		{"id: newline", nodeID, "a\nb", ErrCodeInvalidInput},
		{"id: null byte", nodeID, "a\x00b", ErrCodeInvalidInput},

		{"path: nested", relPath, "pkg/server/ws.go", ""},
		{"path: dotted version dir", relPath, "v1.2.3/package.json", ""},
		{"path: double dot in name", relPath, "notes..txt", ""},
		{"path: empty", relPath, "", ErrCodeInvalidInput},
		{"path: absolute", relPath, "/etc/passwd", ErrCodeInvalidInput},
		{"path: leading traversal", relPath, "../secrets.env", ErrCodeInvalidInput},
		{"path: inner traversal", relPath, "pkg/../../etc", ErrCodeInvalidInput},
		{"path: backslash", relPath, `pkg\server.go`, ErrCodeInvalidInput},
		{"path: control char", relPath, "pkg/\x01.go", ErrCodeInvalidInput},
		{"path: too long", relPath, strings.Repeat("d/", 300), ErrCodeInvalidInput},

		{"store: default", store, "", ""},
		{"store: none", store, "none", ""},
		{"store: file", store, "file:///tmp/layout.json", ""},
		{"store: redis", store, "redis://localhost:6379/0", ""},
		{"store: redis tls", store, "rediss://cache.example.net:6380", ""},
		{"store: mongo srv", store, "mongodb+srv://cluster.example.net/codemap", ""},
		{"store: bare scheme", store, "redis://", ErrCodeInvalidConfig},
		{"store: postgres", store, "postgres://localhost/db", ErrCodeInvalidConfig},
		{"store: bare file name", store, "layout.json", ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate(tt.input)
			if tt.wantCode == "" {
				if err != nil {
					t.Errorf("validate(%q) = %v, want nil", tt.input, err)
				}
				return
			}
			if !Is(err, tt.wantCode) {
				t.Errorf("validate(%q) = %v, want code %s", tt.input, err, tt.wantCode)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	seen := make(map[Code]bool)
	for _, code := range []Code{
		ErrCodeInvalidInput, ErrCodeInvalidGraph, ErrCodeInvalidConfig, ErrCodeInvalidFormat,
		ErrCodeNotFound, ErrCodeNodeNotFound,
		ErrCodeStore, ErrCodeIndex,
		ErrCodeInternal, ErrCodeUnsupported,
	} {
		if seen[code] {
			t.Errorf("duplicate error code: %s", code)
		}
		seen[code] = true
	}
}

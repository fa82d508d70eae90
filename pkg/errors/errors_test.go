package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"
)

func TestNewAndWrap(t *testing.T) {
	err := New(ErrCodeNodeNotFound, "no node %q", "src/main.go")
	if err.Error() != `NODE_NOT_FOUND: no node "src/main.go"` {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("Unwrap() = %v, want nil", err.Unwrap())
	}

	wrapped := Wrap(ErrCodeStore, fs.ErrPermission, "save position %s", "dir:api")
	if want := "STORE_ERROR: save position dir:api: permission denied"; wrapped.Error() != want {
		t.Errorf("Error() = %q, want %q", wrapped.Error(), want)
	}
	if !errors.Is(wrapped, fs.ErrPermission) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestCodeThroughChains(t *testing.T) {
	index := Wrap(ErrCodeIndex, errors.New("database is locked"), "list files")
	outer := Wrap(ErrCodeInvalidGraph, index, "reload")

	tests := []struct {
		name     string
		err      error
		code     Code
		wantIs   bool
		wantCode Code
		wantMsg  string
	}{
		{"direct", index, ErrCodeIndex, true, ErrCodeIndex, "list files"},
		{"fmt wrapped", fmt.Errorf("serve: %w", index), ErrCodeIndex, true, ErrCodeIndex, "list files"},
		{"outermost wins", outer, ErrCodeIndex, false, ErrCodeInvalidGraph, "reload"},
		{"foreign error", errors.New("boom"), ErrCodeInternal, false, "", "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.wantIs {
				t.Errorf("Is(%v) = %v, want %v", tt.code, got, tt.wantIs)
			}
			if got := GetCode(tt.err); got != tt.wantCode {
				t.Errorf("GetCode() = %q, want %q", got, tt.wantCode)
			}
			if got := UserMessage(tt.err); got != tt.wantMsg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
	if Is(nil, ErrCodeInternal) || GetCode(nil) != "" {
		t.Error("nil error should carry no code")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidGraph, http.StatusBadRequest},
		{ErrCodeInvalidFormat, http.StatusBadRequest},
		{ErrCodeInvalidConfig, http.StatusInternalServerError},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeNodeNotFound, http.StatusNotFound},
		{ErrCodeUnsupported, http.StatusNotImplemented},
		{ErrCodeStore, http.StatusBadGateway},
		{ErrCodeIndex, http.StatusBadGateway},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(New(tt.code, "x")); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
	if got := HTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatus(plain) = %d, want 500", got)
	}
}

package errors

import (
	"strings"
	"unicode"
)

// MaxNodeIDLength bounds node IDs accepted from snapshots and HTTP requests.
const MaxNodeIDLength = 1024

// ValidateNodeID rejects IDs that cannot be used as map keys in position
// stores or URL parameters: empty, overlong, or containing control characters.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}
	if len(id) > MaxNodeIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", MaxNodeIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains control characters")
		}
	}
	return nil
}

// ValidatePath validates a repository-relative file path, as resolved by
// node clicks:
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "path must be relative (cannot start with /)")
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
		}
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidInput, "path cannot contain backslashes")
	}
	return nil
}

// storeSchemes lists the URL schemes accepted for position stores.
var storeSchemes = []string{"file://", "redis://", "rediss://", "mongodb://", "mongodb+srv://"}

// ValidateStoreURL checks that a position store URL names a supported backend.
// The literal "none" selects the null store.
func ValidateStoreURL(raw string) error {
	if raw == "" || raw == "none" {
		return nil
	}
	for _, s := range storeSchemes {
		if strings.HasPrefix(raw, s) {
			if len(raw) == len(s) {
				return New(ErrCodeInvalidConfig, "store URL %q has no location", raw)
			}
			return nil
		}
	}
	return New(ErrCodeInvalidConfig, "unsupported store URL %q (want file://, redis:// or mongodb://)", raw)
}

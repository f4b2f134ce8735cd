// Package pathutil provides utilities for safe path handling.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyPath is returned for an empty path.
	ErrEmptyPath = errors.New("path cannot be empty")
	// ErrNullBytes is returned for a path containing null bytes.
	ErrNullBytes = errors.New("path contains null bytes")
)

// ValidatePath cleans a path and resolves symlinks.
// A path that does not exist yet is returned cleaned.
func ValidatePath(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	cleaned := filepath.Clean(path)
	if strings.Contains(cleaned, "\x00") {
		return "", ErrNullBytes
	}

	realPath, err := filepath.EvalSymlinks(cleaned)
	if err != nil {
		return cleaned, nil
	}
	return realPath, nil
}

// ReadText validates path and returns the file contents as a string.
// The path "-" is not special here; callers handle stdin themselves.
func ReadText(path string) (string, error) {
	cleanPath, err := ValidatePath(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	raw, err := os.ReadFile(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveStorageDir resolves the directory received files are written into.
// An existing directory is returned as an absolute path; a missing directory
// is accepted when its parent exists and is created on demand.
func ResolveStorageDir(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("cannot resolve storage directory '%s': %w", dir, err)
	}

	if info, err := os.Stat(abs); err == nil {
		if !info.IsDir() {
			return "", fmt.Errorf("storage path '%s' exists but is not a directory", abs)
		}
		return abs, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("cannot access storage directory: %w", err)
	}

	parent := filepath.Dir(abs)
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return "", fmt.Errorf("parent directory does not exist: %s", parent)
	}

	if err := os.Mkdir(abs, 0755); err != nil && !os.IsExist(err) {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}
	return abs, nil
}

// IsWithinDir reports whether path lies inside dir after both are cleaned
func IsWithinDir(dir, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." || filepath.IsAbs(rel) {
		return false
	}
	return len(rel) < 3 || rel[:3] != ".."+string(filepath.Separator)
}

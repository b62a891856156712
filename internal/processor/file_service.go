package processor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"filedrop/pkg/utils"
)

// Store creates received files inside a single storage directory
type Store struct {
	dir string
}

// NewStore resolves dir, creating it if its parent exists
func NewStore(dir string) (*Store, error) {
	resolved, err := utils.ResolveStorageDir(dir)
	if err != nil {
		return nil, err
	}
	return &Store{dir: resolved}, nil
}

// Dir returns the absolute storage directory
func (s *Store) Dir() string { return s.dir }

// SanitizeName checks that a peer-supplied name is a bare file name.
// Separators of either platform, NUL bytes, and the "." and ".." entries are rejected.
func SanitizeName(name string) (string, error) {
	switch {
	case name == "", name == ".", name == "..":
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	case strings.ContainsAny(name, `/\`):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrInvalidFileName, name)
	case strings.ContainsRune(name, 0):
		return "", fmt.Errorf("%w: %q contains a NUL byte", ErrInvalidFileName, name)
	case filepath.VolumeName(name) != "":
		return "", fmt.Errorf("%w: %q names a volume", ErrInvalidFileName, name)
	}
	return name, nil
}

// Resolve returns the destination path for name, guaranteed to lie inside the store
func (s *Store) Resolve(name string) (string, error) {
	clean, err := SanitizeName(name)
	if err != nil {
		return "", err
	}

	destPath := filepath.Join(s.dir, clean)
	if !utils.IsWithinDir(s.dir, destPath) {
		return "", fmt.Errorf("%w: %q escapes %s", ErrInvalidFileName, name, s.dir)
	}
	return destPath, nil
}

// Create opens (creating or truncating) the destination for name
func (s *Store) Create(name string) (*Destination, error) {
	destPath, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}

	// An existing symlink or special file would redirect the write
	if info, err := os.Lstat(destPath); err == nil && !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: destination %s", ErrNotRegularFile, destPath)
	}

	file, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Create",
		"dest_path": destPath,
		"original":  name,
	}).Debug("File prepared for writing")

	return &Destination{file: file, path: destPath}, nil
}

package processor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"filedrop/pkg/types"
	"filedrop/pkg/utils"
)

// Source is a local file opened for sending. The size is fixed at open time
// and reads never go past it.
type Source struct {
	file   *os.File
	path   string
	name   string
	size   uint64
	reader io.Reader
}

// OpenSource validates and opens filePath for sending. Failures are classified
// as ErrFileNotFound, ErrPermission or ErrNotRegularFile so callers can report
// them before any network I/O happens.
func OpenSource(filePath string) (*Source, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, classifyOpenError(filePath, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	if !stat.Mode().IsRegular() {
		file.Close()
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, filePath)
	}

	size := uint64(stat.Size())
	src := &Source{
		file:   file,
		path:   filePath,
		name:   filepath.Base(filePath),
		size:   size,
		reader: io.LimitReader(file, stat.Size()),
	}

	logrus.WithFields(logrus.Fields{
		"function": "OpenSource",
		"path":     filePath,
		"size":     size,
		"human":    utils.FormatFileSize(size),
	}).Debug("File prepared for reading")

	return src, nil
}

func classifyOpenError(filePath string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermission, filePath)
	default:
		return fmt.Errorf("failed to open file: %w", err)
	}
}

// Metadata returns the frame announcing this file
func (s *Source) Metadata() types.TransferMetadata {
	return types.TransferMetadata{Name: s.name, Size: s.size}
}

// Read reads the next chunk. It returns io.EOF once Size bytes have been read,
// even if the file has grown since it was opened.
func (s *Source) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Path returns the path the source was opened from
func (s *Source) Path() string { return s.path }

// Name returns the base file name announced to the peer
func (s *Source) Name() string { return s.name }

// Size returns the file size captured at open time
func (s *Source) Size() uint64 { return s.size }

// Close releases the file handle
func (s *Source) Close() error {
	return s.file.Close()
}

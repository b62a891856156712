package processor

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Destination is a file being reconstructed from received chunks
type Destination struct {
	file    *os.File
	path    string
	written uint64
	closed  bool
}

// Write appends a chunk to the file
func (d *Destination) Write(data []byte) (int, error) {
	n, err := d.file.Write(data)
	d.written += uint64(n)
	if err != nil {
		return n, fmt.Errorf("failed to write data: %w", err)
	}
	if n != len(data) {
		return n, ErrShortWrite
	}
	return n, nil
}

// Path returns the destination path
func (d *Destination) Path() string { return d.path }

// Written returns the number of bytes stored so far
func (d *Destination) Written() uint64 { return d.written }

// Finish flushes and closes the file, returning the total bytes written
func (d *Destination) Finish() (uint64, error) {
	if d.closed {
		return d.written, errors.New("destination already closed")
	}

	syncErr := d.file.Sync()
	closeErr := d.close()
	if err := errors.Join(syncErr, closeErr); err != nil {
		return d.written, fmt.Errorf("failed to finalize file: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Finish",
		"dest_path": d.path,
		"bytes":     d.written,
	}).Debug("File writing completed")

	return d.written, nil
}

// Discard closes the file and removes it unless keep is set.
// It is safe to call after Finish.
func (d *Destination) Discard(keep bool) error {
	err := d.close()
	if keep {
		return err
	}

	if removeErr := os.Remove(d.path); removeErr != nil && !os.IsNotExist(removeErr) {
		return errors.Join(err, fmt.Errorf("failed to remove partial file: %w", removeErr))
	}
	return err
}

func (d *Destination) close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.file.Close()
}

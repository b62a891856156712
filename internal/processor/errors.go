package processor

import "errors"

var (
	// ErrFileNotFound indicates the source path does not exist
	ErrFileNotFound = errors.New("file not found")

	// ErrPermission indicates the source cannot be read by this process
	ErrPermission = errors.New("permission denied")

	// ErrNotRegularFile indicates the source is a directory or special file
	ErrNotRegularFile = errors.New("not a regular file")

	// ErrInvalidFileName indicates a received name that is not a bare file name
	ErrInvalidFileName = errors.New("invalid file name")

	// ErrShortWrite indicates the destination accepted fewer bytes than given
	ErrShortWrite = errors.New("short write")
)

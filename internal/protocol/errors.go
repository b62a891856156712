package protocol

import "errors"

var (
	// ErrProtocol indicates a malformed or truncated frame
	ErrProtocol = errors.New("protocol error")

	// ErrEmptyName indicates metadata without a file name
	ErrEmptyName = errors.New("file name is empty")

	// ErrNameTooLong indicates a file name that does not fit the 2-byte length prefix
	ErrNameTooLong = errors.New("file name too long")

	// ErrInvalidName indicates a file name that is not valid UTF-8
	ErrInvalidName = errors.New("file name is not valid UTF-8")
)

package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf8"

	"filedrop/pkg/types"
)

const (
	nameLengthSize = 2
	fileSizeSize   = 8

	// MaxNameLength is the largest name the length prefix can describe
	MaxNameLength = 1<<16 - 1
)

// Metadata frame
//
// Byte layout:
//
//	+--+--+------------------+--+--+--+--+--+--+--+--+
//	|NameLen|  Name (UTF-8)  |      Size (uint64)    |
//	+--+--+------------------+--+--+--+--+--+--+--+--+
//
// Both integers are big-endian. The payload follows immediately and is
// exactly Size raw bytes with no further framing.

// EncodeMetadata builds the metadata frame announcing a file
func EncodeMetadata(meta types.TransferMetadata) ([]byte, error) {
	if err := validateName(meta.Name); err != nil {
		return nil, err
	}

	buf := make([]byte, nameLengthSize+len(meta.Name)+fileSizeSize)
	binary.BigEndian.PutUint16(buf[0:nameLengthSize], uint16(len(meta.Name)))
	copy(buf[nameLengthSize:], meta.Name)
	binary.BigEndian.PutUint64(buf[nameLengthSize+len(meta.Name):], meta.Size)

	return buf, nil
}

// WriteMetadata encodes meta and writes the whole frame to w
func WriteMetadata(w io.Writer, meta types.TransferMetadata) error {
	frame, err := EncodeMetadata(meta)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("failed to write metadata frame: %w", err)
	}
	return nil
}

// DecodeMetadata blocks until a complete metadata frame has been read from r.
// A stream that ends early or carries an unusable name yields an error wrapping ErrProtocol.
func DecodeMetadata(r io.Reader) (types.TransferMetadata, error) {
	var lenBuf [nameLengthSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return types.TransferMetadata{}, fmt.Errorf("%w: reading name length: %w", ErrProtocol, err)
	}

	nameLen := binary.BigEndian.Uint16(lenBuf[:])
	if nameLen == 0 {
		return types.TransferMetadata{}, fmt.Errorf("%w: %w", ErrProtocol, ErrEmptyName)
	}

	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return types.TransferMetadata{}, fmt.Errorf("%w: reading name (%d bytes): %w", ErrProtocol, nameLen, err)
	}
	if !utf8.Valid(name) {
		return types.TransferMetadata{}, fmt.Errorf("%w: %w", ErrProtocol, ErrInvalidName)
	}

	var sizeBuf [fileSizeSize]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return types.TransferMetadata{}, fmt.Errorf("%w: reading file size: %w", ErrProtocol, err)
	}

	return types.TransferMetadata{
		Name: string(name),
		Size: binary.BigEndian.Uint64(sizeBuf[:]),
	}, nil
}

func validateName(name string) error {
	switch {
	case name == "":
		return ErrEmptyName
	case len(name) > MaxNameLength:
		return fmt.Errorf("%w: %d bytes (max %d)", ErrNameTooLong, len(name), MaxNameLength)
	case !utf8.ValidString(name):
		return ErrInvalidName
	}
	return nil
}

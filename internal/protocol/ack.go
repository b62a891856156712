package protocol

import (
	"fmt"
	"io"
)

// AckStatus is the single byte a receiver sends back once the payload has been handled
type AckStatus byte

const (
	// AckOK confirms the file was stored completely
	AckOK AckStatus = 0x00
	// AckFailed reports that the receiver could not store the file
	AckFailed AckStatus = 0x01
)

func (s AckStatus) String() string {
	switch s {
	case AckOK:
		return "ok"
	case AckFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", byte(s))
	}
}

// WriteAck sends status to the peer
func WriteAck(w io.Writer, status AckStatus) error {
	if _, err := w.Write([]byte{byte(status)}); err != nil {
		return fmt.Errorf("failed to write ack: %w", err)
	}
	return nil
}

// ReadAck blocks for the receiver's status byte
func ReadAck(r io.Reader) (AckStatus, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("failed to read ack: %w", err)
	}

	status := AckStatus(buf[0])
	switch status {
	case AckOK, AckFailed:
		return status, nil
	default:
		return 0, fmt.Errorf("%w: unexpected ack %s", ErrProtocol, status)
	}
}

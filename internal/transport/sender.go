package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"filedrop/internal/config"
	"filedrop/internal/processor"
	"filedrop/internal/protocol"
	"filedrop/pkg/utils"
)

// Sender transmits one local file over an established connection
type Sender struct {
	bufferSize int
	awaitAck   bool
	ioTimeout  time.Duration
}

// NewSender creates a sender using the transfer settings from cfg
func NewSender(cfg *config.Config) *Sender {
	return &Sender{
		bufferSize: cfg.Transfer.BufferSize,
		awaitAck:   cfg.Transfer.Ack,
		ioTimeout:  cfg.Transfer.IOTimeout,
	}
}

// Send writes the metadata frame and then exactly src.Size() payload bytes to conn.
// conn and src are closed before Send returns, whatever the outcome.
func (s *Sender) Send(ctx context.Context, conn net.Conn, src *processor.Source, observer ProgressObserver) (*Result, error) {
	sess := newSession(RoleSender, conn, s.ioTimeout, observer)
	sess.meta = src.Metadata()
	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			sess.log.WithError(err).Debug("Error closing connection")
		}
		if err := src.Close(); err != nil {
			sess.log.WithError(err).Warn("Error closing source file")
		}
	}()
	stop := sess.watch(ctx)
	defer stop()

	sess.log.WithFields(logrus.Fields{
		"function":  "Send",
		"file_name": sess.meta.Name,
		"file_size": sess.meta.Size,
		"human":     utils.FormatFileSize(sess.meta.Size),
	}).Info("Starting file transfer")

	sess.setState(StateMetadata)
	frame, err := protocol.EncodeMetadata(sess.meta)
	if err != nil {
		return nil, sess.fail(ctx, PhaseMetadata, protocol.ErrProtocol, err)
	}
	sess.arm()
	if _, err := conn.Write(frame); err != nil {
		return nil, sess.fail(ctx, PhaseMetadata, ErrConnection, err)
	}

	sess.setState(StatePayload)
	if err := s.sendPayload(ctx, sess, src); err != nil {
		return nil, err
	}

	if s.awaitAck {
		if err := s.waitForAck(ctx, sess); err != nil {
			return nil, err
		}
	}

	sess.setState(StateCompleted)
	result := sess.result(src.Path())
	sess.log.WithFields(logrus.Fields{
		"function": "Send",
		"bytes":    result.Transferred,
		"duration": result.Duration,
	}).Info("File sent successfully")

	return result, nil
}

// sendPayload copies the file in bufferSize chunks, reporting after each write
func (s *Sender) sendPayload(ctx context.Context, sess *session, src *processor.Source) error {
	if sess.meta.Size == 0 {
		sess.report()
		return nil
	}

	buf := make([]byte, s.bufferSize)
	for sess.transferred < sess.meta.Size {
		if err := ctx.Err(); err != nil {
			return sess.fail(ctx, PhasePayload, ErrConnection, err)
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			sess.arm()
			if _, err := sess.conn.Write(buf[:n]); err != nil {
				return sess.fail(ctx, PhasePayload, ErrConnection, err)
			}
			sess.advance(n)
		}

		if readErr == io.EOF {
			if sess.transferred < sess.meta.Size {
				// File shrank after it was opened
				return sess.fail(ctx, PhasePayload, ErrIO, io.ErrUnexpectedEOF)
			}
			break
		}
		if readErr != nil {
			return sess.fail(ctx, PhasePayload, ErrIO, readErr)
		}
	}
	return nil
}

func (s *Sender) waitForAck(ctx context.Context, sess *session) error {
	sess.arm()
	status, err := protocol.ReadAck(sess.conn)
	if err != nil {
		// A receiver without ack support closes once it has the declared bytes
		if errors.Is(err, io.EOF) && sess.transferred == sess.meta.Size {
			sess.log.Debug("Receiver closed without ack after full payload")
			return nil
		}
		if errors.Is(err, protocol.ErrProtocol) {
			return sess.fail(ctx, PhaseComplete, protocol.ErrProtocol, err)
		}
		return sess.fail(ctx, PhaseComplete, ErrConnection, err)
	}
	if status != protocol.AckOK {
		return sess.fail(ctx, PhaseComplete, ErrRejected, nil)
	}
	return nil
}

package transport

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"filedrop/internal/config"
	"filedrop/internal/processor"
	"filedrop/internal/protocol"
	"filedrop/pkg/utils"
)

// Receiver reconstructs one file per connection inside a Store
type Receiver struct {
	store       *processor.Store
	bufferSize  int
	sendAck     bool
	keepPartial bool
	ioTimeout   time.Duration
}

// NewReceiver creates a receiver writing into store
func NewReceiver(cfg *config.Config, store *processor.Store) *Receiver {
	return &Receiver{
		store:       store,
		bufferSize:  cfg.Transfer.BufferSize,
		sendAck:     cfg.Transfer.Ack,
		keepPartial: cfg.Transfer.KeepPartial,
		ioTimeout:   cfg.Transfer.IOTimeout,
	}
}

// Receive reads the metadata frame and exactly the declared number of payload
// bytes from conn. It never treats end of stream as completion. conn is closed
// before Receive returns.
func (r *Receiver) Receive(ctx context.Context, conn net.Conn, observer ProgressObserver) (*Result, error) {
	sess := newSession(RoleReceiver, conn, r.ioTimeout, observer)
	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			sess.log.WithError(err).Debug("Error closing connection")
		}
	}()
	stop := sess.watch(ctx)
	defer stop()

	sess.setState(StateMetadata)
	sess.arm()
	meta, err := protocol.DecodeMetadata(conn)
	if err != nil {
		return nil, sess.fail(ctx, PhaseMetadata, protocol.ErrProtocol, err)
	}
	sess.meta = meta

	sess.log.WithFields(logrus.Fields{
		"function":  "Receive",
		"file_name": meta.Name,
		"file_size": meta.Size,
		"human":     utils.FormatFileSize(meta.Size),
	}).Info("Receiving file")

	dest, err := r.store.Create(meta.Name)
	if err != nil {
		r.nack(sess)
		if errors.Is(err, processor.ErrInvalidFileName) {
			return nil, sess.fail(ctx, PhaseMetadata, protocol.ErrProtocol, err)
		}
		return nil, sess.fail(ctx, PhaseMetadata, ErrIO, err)
	}

	completed := false
	defer func() {
		if completed {
			return
		}
		if err := dest.Discard(r.keepPartial); err != nil {
			sess.log.WithError(err).Warn("Failed to clean up partial file")
		}
		sess.log.WithFields(logrus.Fields{
			"dest_path": dest.Path(),
			"kept":      r.keepPartial,
		}).Warn("Partial file not reported as received")
	}()

	sess.setState(StatePayload)
	if err := r.receivePayload(ctx, sess, dest); err != nil {
		return nil, err
	}

	if _, err := dest.Finish(); err != nil {
		r.nack(sess)
		return nil, sess.fail(ctx, PhaseComplete, ErrIO, err)
	}
	completed = true
	sess.setState(StateCompleted)

	if r.sendAck {
		sess.arm()
		if err := protocol.WriteAck(conn, protocol.AckOK); err != nil {
			// The file is complete on disk; only the sender's confirmation is lost
			sess.log.WithError(err).Warn("Failed to acknowledge completed transfer")
		}
	}

	result := sess.result(dest.Path())
	sess.log.WithFields(logrus.Fields{
		"function":  "Receive",
		"dest_path": result.Path,
		"bytes":     result.Transferred,
		"duration":  result.Duration,
	}).Info("File received successfully")

	return result, nil
}

// receivePayload reads at most bufferSize bytes at a time and stops exactly at the declared size
func (r *Receiver) receivePayload(ctx context.Context, sess *session, dest *processor.Destination) error {
	if sess.meta.Size == 0 {
		sess.report()
		return nil
	}

	buf := make([]byte, r.bufferSize)
	for sess.transferred < sess.meta.Size {
		want := sess.meta.Size - sess.transferred
		if want > uint64(len(buf)) {
			want = uint64(len(buf))
		}

		sess.arm()
		n, readErr := sess.conn.Read(buf[:want])
		if n > 0 {
			if _, err := dest.Write(buf[:n]); err != nil {
				r.nack(sess)
				return sess.fail(ctx, PhasePayload, ErrIO, err)
			}
			sess.advance(n)
		}

		if readErr != nil {
			if sess.transferred == sess.meta.Size {
				break
			}
			if isPeerClosed(readErr) {
				return sess.fail(ctx, PhasePayload, ErrIncompleteTransfer, readErr)
			}
			return sess.fail(ctx, PhasePayload, ErrConnection, readErr)
		}
	}
	return nil
}

// nack tells an ack-aware sender that the file was not stored. Best effort only.
func (r *Receiver) nack(sess *session) {
	if !r.sendAck {
		return
	}
	sess.arm()
	if err := protocol.WriteAck(sess.conn, protocol.AckFailed); err != nil {
		sess.log.WithError(err).Debug("Failed to send failure ack")
	}
}

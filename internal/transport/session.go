package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"filedrop/pkg/types"
)

// Role identifies which end of a transfer a session plays
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

// SessionState tracks where a session is in its lifecycle
type SessionState uint8

const (
	StateConnected SessionState = iota
	StateMetadata
	StatePayload
	StateCompleted
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateMetadata:
		return "metadata"
	case StatePayload:
		return "payload"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes a finished transfer
type Result struct {
	SessionID   string
	Name        string // announced file name
	Path        string // source path for a sender, saved path for a receiver
	Size        uint64
	Transferred uint64
	Duration    time.Duration
	RemoteAddr  string
}

// session is the per-connection state of one transfer. It is owned by a single
// goroutine and never shared.
type session struct {
	id          string
	role        Role
	conn        net.Conn
	ioTimeout   time.Duration
	observer    ProgressObserver
	meta        types.TransferMetadata
	transferred uint64
	state       SessionState
	start       time.Time
	log         *logrus.Entry
}

func newSession(role Role, conn net.Conn, ioTimeout time.Duration, observer ProgressObserver) *session {
	id := uuid.NewString()
	return &session{
		id:        id,
		role:      role,
		conn:      conn,
		ioTimeout: ioTimeout,
		observer:  observer,
		state:     StateConnected,
		start:     time.Now(),
		log: logrus.WithFields(logrus.Fields{
			"session_id":  id,
			"role":        role,
			"remote_addr": remoteAddr(conn),
		}),
	}
}

// watch closes the connection when ctx is cancelled so blocked reads and
// writes return. The returned func detaches the watcher.
func (s *session) watch(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() {
		s.log.Debug("Context cancelled, closing connection")
		_ = s.conn.Close()
	})
}

// arm refreshes the idle deadline before a blocking network operation
func (s *session) arm() {
	if s.ioTimeout <= 0 {
		return
	}
	if err := s.conn.SetDeadline(time.Now().Add(s.ioTimeout)); err != nil {
		s.log.WithError(err).Debug("Failed to set connection deadline")
	}
}

func (s *session) setState(state SessionState) {
	s.log.WithFields(logrus.Fields{
		"from": s.state,
		"to":   state,
	}).Trace("Session state change")
	s.state = state
}

// advance records n more bytes and reports progress
func (s *session) advance(n int) {
	s.transferred += uint64(n)
	s.report()
}

func (s *session) report() {
	if s.observer == nil {
		return
	}
	s.observer.OnProgress(types.ProgressUpdate{
		SessionID:   s.id,
		Name:        s.meta.Name,
		Transferred: s.transferred,
		Total:       s.meta.Size,
		Elapsed:     time.Since(s.start),
	})
}

// fail marks the session failed and builds its terminal error. A cancelled
// context takes precedence over whatever I/O error the cancellation caused.
func (s *session) fail(ctx context.Context, phase Phase, kind, err error) *TransferError {
	if ctxErr := ctx.Err(); ctxErr != nil {
		kind, err = ErrConnection, ctxErr
	}
	s.setState(StateFailed)

	te := newTransferError(phase, s.transferred, s.meta.Size, kind, err)
	s.log.WithFields(logrus.Fields{
		"phase":  phase,
		"offset": s.transferred,
		"size":   s.meta.Size,
		"error":  te.Error(),
	}).Error("Transfer failed")
	return te
}

func (s *session) result(path string) *Result {
	return &Result{
		SessionID:   s.id,
		Name:        s.meta.Name,
		Path:        path,
		Size:        s.meta.Size,
		Transferred: s.transferred,
		Duration:    time.Since(s.start),
		RemoteAddr:  remoteAddr(s.conn),
	}
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// isPeerClosed reports whether err means the peer went away rather than a local
// timeout or other socket failure
func isPeerClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE)
}

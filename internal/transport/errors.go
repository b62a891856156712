package transport

import (
	"errors"
	"fmt"
)

// Transfer failure kinds, matched with errors.Is
var (
	// ErrNetwork indicates a bind, accept or connect failure
	ErrNetwork = errors.New("network error")

	// ErrConnection indicates the connection failed mid-transfer
	ErrConnection = errors.New("connection error")

	// ErrIncompleteTransfer indicates the peer closed before the declared size arrived
	ErrIncompleteTransfer = errors.New("incomplete transfer")

	// ErrIO indicates a local disk read or write failure during a transfer
	ErrIO = errors.New("local I/O error")

	// ErrRejected indicates the receiver acknowledged the payload with a failure status
	ErrRejected = errors.New("receiver reported failure")
)

// Phase names the step of a transfer in which an error happened
type Phase string

const (
	PhasePreflight Phase = "preflight"
	PhaseConnect   Phase = "connect"
	PhaseMetadata  Phase = "metadata"
	PhasePayload   Phase = "payload"
	PhaseComplete  Phase = "complete"
)

// TransferError is the terminal error of one transfer. It carries the phase and
// byte offset reached so the caller can decide whether to restart the transfer.
type TransferError struct {
	Phase  Phase
	Offset uint64 // bytes moved before the failure
	Total  uint64 // declared size, 0 when not yet known
	Kind   error  // one of the sentinels above, may be nil
	Err    error  // underlying cause
}

func (e *TransferError) Error() string {
	msg := fmt.Sprintf("%s failed at byte %d", e.Phase, e.Offset)
	if e.Total > 0 {
		msg = fmt.Sprintf("%s of %d", msg, e.Total)
	}
	if e.Kind != nil && !errors.Is(e.Err, e.Kind) {
		msg += ": " + e.Kind.Error()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransferError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func newTransferError(phase Phase, offset, total uint64, kind, err error) *TransferError {
	return &TransferError{
		Phase:  phase,
		Offset: offset,
		Total:  total,
		Kind:   kind,
		Err:    err,
	}
}

// PhaseOf returns the phase of a *TransferError anywhere in err's chain
func PhaseOf(err error) (Phase, bool) {
	var te *TransferError
	if errors.As(err, &te) {
		return te.Phase, true
	}
	return "", false
}

// PreflightError reports a failure detected before any connection was opened
func PreflightError(err error) *TransferError {
	return newTransferError(PhasePreflight, 0, 0, nil, err)
}

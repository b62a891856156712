package ui

import (
	"errors"
	"fmt"
	"io"
	"time"

	"filedrop/internal/transport"
	"filedrop/pkg/utils"
)

// ConsoleUI prints user-facing messages for the CLI
type ConsoleUI struct {
	w io.Writer
}

// NewConsoleUI creates a console UI writing to w
func NewConsoleUI(w io.Writer) *ConsoleUI {
	return &ConsoleUI{w: w}
}

// ShowMessage displays a message to the user
func (c *ConsoleUI) ShowMessage(format string, args ...any) {
	fmt.Fprintf(c.w, format+"\n", args...)
}

// ShowSummary displays a summary of a completed transfer
func (c *ConsoleUI) ShowSummary(result *transport.Result) {
	throughput := 0.0
	if secs := result.Duration.Seconds(); secs > 0 {
		throughput = float64(result.Transferred) / secs
	}

	fmt.Fprintf(c.w, "=============================================\n")
	fmt.Fprintf(c.w, "File '%s' sent successfully!\n", result.Name)
	fmt.Fprintf(c.w, "+ Total bytes sent: %s (%d bytes)\n", utils.FormatFileSize(result.Transferred), result.Transferred)
	fmt.Fprintf(c.w, "+ Transfer time: %s\n", result.Duration.Round(time.Millisecond))
	fmt.Fprintf(c.w, "+ Average throughput: %s/s\n", utils.FormatFileSize(uint64(throughput)))
	fmt.Fprintf(c.w, "+ Peer: %s\n", result.RemoteAddr)
	fmt.Fprintf(c.w, "=============================================\n")
}

// ShowError explains a failed transfer, naming the phase and offset reached
func (c *ConsoleUI) ShowError(err error) {
	var te *transport.TransferError
	if !errors.As(err, &te) {
		fmt.Fprintf(c.w, "Transfer failed: %v\n", err)
		return
	}

	if te.Phase == transport.PhasePreflight || te.Phase == transport.PhaseConnect {
		fmt.Fprintf(c.w, "Transfer failed during %s: %v\n", DescribePhase(te.Phase), te.Err)
		return
	}

	fmt.Fprintf(c.w, "Transfer failed during %s after %d of %d bytes: %v\n",
		DescribePhase(te.Phase), te.Offset, te.Total, err)
}

// DescribePhase returns a human readable name for a transfer phase
func DescribePhase(phase transport.Phase) string {
	switch phase {
	case transport.PhasePreflight:
		return "pre-flight validation"
	case transport.PhaseConnect:
		return "connection setup"
	case transport.PhaseMetadata:
		return "metadata exchange"
	case transport.PhasePayload:
		return "payload transfer"
	case transport.PhaseComplete:
		return "completion"
	default:
		return string(phase)
	}
}

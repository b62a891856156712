package types

import (
	"math"
	"time"
)

// TransferMetadata describes the file announced ahead of the payload
type TransferMetadata struct {
	Name string // Original base file name
	Size uint64 // Payload length in bytes
}

// ProgressUpdate is a snapshot of one transfer's progress, emitted after each chunk
type ProgressUpdate struct {
	SessionID   string
	Name        string
	Transferred uint64 // Bytes moved so far
	Total       uint64 // Declared size
	Elapsed     time.Duration
}

// Percentage returns the completed share in [0, 100]. An empty file is complete by definition.
func (p ProgressUpdate) Percentage() float64 {
	if p.Total == 0 {
		return 100
	}
	if p.Transferred >= p.Total {
		return 100
	}
	// Never round up to 100 before the last byte
	return math.Min(float64(p.Transferred)/float64(p.Total)*100, math.Nextafter(100, 0))
}

// Done reports whether every declared byte has been moved
func (p ProgressUpdate) Done() bool {
	return p.Transferred >= p.Total
}

// Throughput returns the average rate in bytes per second
func (p ProgressUpdate) Throughput() float64 {
	if p.Elapsed <= 0 {
		return 0
	}
	return float64(p.Transferred) / p.Elapsed.Seconds()
}

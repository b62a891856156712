package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"filedrop/pkg/types"
)

// ProgressUI renders one transfer as a progress bar. It implements
// transport.ProgressObserver.
type ProgressUI struct {
	w         io.Writer
	operation string // "Sending" or "Receiving"
	bar       *progressbar.ProgressBar
	empty     bool
}

// NewProgressUI creates a progress UI writing to w
func NewProgressUI(w io.Writer, operation string) *ProgressUI {
	return &ProgressUI{w: w, operation: operation}
}

// start initializes the bar once the first update reveals name and size
func (p *ProgressUI) start(filename string, totalBytes uint64) {
	steps := int64(totalBytes)
	if totalBytes == 0 {
		// a zero max never renders as complete; an empty file is one step
		steps, p.empty = 1, true
	}

	p.bar = progressbar.NewOptions64(steps,
		progressbar.OptionSetDescription(fmt.Sprintf("%s %s", p.operation, filename)),
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionShowBytes(!p.empty),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(p.w) }),
	)
}

// OnProgress updates the bar with the current transfer state
func (p *ProgressUI) OnProgress(update types.ProgressUpdate) {
	if p.bar == nil {
		p.start(update.Name, update.Total)
	}

	current := int64(update.Transferred)
	if p.empty {
		current = 1
	}
	_ = p.bar.Set64(current)

	if update.Done() {
		_ = p.bar.Finish()
	}
}

// Abort stops rendering after a failed transfer, leaving the last state visible
func (p *ProgressUI) Abort() {
	if p.bar == nil || p.bar.IsFinished() {
		return
	}
	_ = p.bar.Exit()
	fmt.Fprintln(p.w)
}

package reporter

import (
	"time"

	"github.com/sirupsen/logrus"

	"filedrop/pkg/types"
	"filedrop/pkg/utils"
)

// DefaultStep is the percentage interval between logged progress lines
const DefaultStep = 10

// ProgressReporter logs transfer progress for a headless receiver.
// One reporter serves one session.
type ProgressReporter struct {
	log      *logrus.Entry
	step     int
	nextMark int
	started  bool
}

// NewProgressReporter creates a reporter that logs every step percent
func NewProgressReporter(log *logrus.Entry, step int) *ProgressReporter {
	if step <= 0 || step > 100 {
		step = DefaultStep
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &ProgressReporter{log: log, step: step, nextMark: step}
}

// OnProgress logs the first update, each crossed step boundary and completion
func (pr *ProgressReporter) OnProgress(update types.ProgressUpdate) {
	fields := logrus.Fields{
		"session_id": update.SessionID,
		"file_name":  update.Name,
	}

	if !pr.started {
		pr.started = true
		pr.log.WithFields(fields).WithField("size", utils.FormatFileSize(update.Total)).Info("Starting transfer")
	}

	if update.Done() {
		pr.log.WithFields(fields).WithFields(logrus.Fields{
			"bytes":      update.Transferred,
			"duration":   update.Elapsed.Round(time.Millisecond),
			"throughput": utils.FormatFileSize(uint64(update.Throughput())) + "/s",
		}).Info("Transfer payload complete")
		pr.nextMark = 100 + pr.step
		return
	}

	pct := update.Percentage()
	if int(pct) < pr.nextMark {
		return
	}
	for pr.nextMark <= int(pct) {
		pr.nextMark += pr.step
	}

	pr.log.WithFields(fields).WithFields(logrus.Fields{
		"bytes":   update.Transferred,
		"total":   update.Total,
		"percent": int(pct),
	}).Info("Progress")
}

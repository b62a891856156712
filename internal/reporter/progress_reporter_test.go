package reporter

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"filedrop/pkg/types"
)

func TestProgressReporterLogsAtSteps(t *testing.T) {
	logger, hook := test.NewNullLogger()
	pr := NewProgressReporter(logrus.NewEntry(logger), 25)

	const total = 1000
	for sent := uint64(100); sent <= total; sent += 100 {
		pr.OnProgress(types.ProgressUpdate{
			SessionID:   "s1",
			Name:        "f.bin",
			Transferred: sent,
			Total:       total,
			Elapsed:     time.Second,
		})
	}

	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
	}
	// start, 30% (crosses 25), 50%, 80% (crosses 75), done
	assert.Equal(t, []string{"Starting transfer", "Progress", "Progress", "Progress", "Transfer payload complete"}, messages)
	assert.Equal(t, 30, hook.AllEntries()[1].Data["percent"])
	assert.Equal(t, uint64(total), hook.LastEntry().Data["bytes"])
}

func TestProgressReporterEmptyFile(t *testing.T) {
	logger, hook := test.NewNullLogger()
	pr := NewProgressReporter(logrus.NewEntry(logger), 0)

	pr.OnProgress(types.ProgressUpdate{Name: "empty.txt"})

	assert.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, "Transfer payload complete", hook.LastEntry().Message)
}

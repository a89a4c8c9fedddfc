package progress

import (
	"bytes"
	"testing"
	"time"

	"github.com/redpwn/timelock/puzzle"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestTerminalLine(t *testing.T) {
	var buf bytes.Buffer
	r := &Reporter{w: &buf, tty: true, now: time.Now}
	r.Report(puzzle.Status{Speed: 1.5, Remaining: 42, ETA: "3 seconds"})
	assert.Equal(t, "\r1.500000 squares/s, 42 remaining, eta 3 seconds \r", buf.String())
	r.Done()
	assert.Equal(t, byte('\n'), buf.Bytes()[buf.Len()-1])
	buf.Reset()
	r.Done()
	assert.Empty(t, buf.String())
}

func TestLogThrottled(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()
	logrus.SetLevel(logrus.InfoLevel)

	var buf bytes.Buffer
	clock := time.Unix(0, 0)
	r := &Reporter{w: &buf, LogEvery: time.Minute, now: func() time.Time { return clock }}
	r.Report(puzzle.Status{Remaining: 10})
	clock = clock.Add(30 * time.Second)
	r.Report(puzzle.Status{Remaining: 9})
	clock = clock.Add(31 * time.Second)
	r.Report(puzzle.Status{Remaining: 8})

	assert.Empty(t, buf.String())
	entries := hook.AllEntries()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, uint64(10), entries[0].Data["remaining"])
		assert.Equal(t, uint64(8), entries[1].Data["remaining"])
	}
	r.Done()
	assert.Empty(t, buf.String())
}

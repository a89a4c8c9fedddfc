// Package progress renders solver status on the diagnostic stream.
package progress

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/redpwn/timelock/puzzle"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

const DefaultLogEvery = time.Minute

// Reporter overwrites a single status line on terminals and falls back to
// throttled log entries otherwise.
type Reporter struct {
	w        io.Writer
	tty      bool
	LogEvery time.Duration

	now     func() time.Time
	last    time.Time
	written bool
}

func New(f *os.File) *Reporter {
	return NewWriter(f, term.IsTerminal(int(f.Fd())))
}

func NewWriter(w io.Writer, tty bool) *Reporter {
	return &Reporter{
		w:        w,
		tty:      tty,
		LogEvery: DefaultLogEvery,
		now:      time.Now,
	}
}

func (r *Reporter) Report(s puzzle.Status) {
	if r.tty {
		fmt.Fprintf(r.w, "\r%f squares/s, %d remaining, eta %s \r", s.Speed, s.Remaining, s.ETA)
		r.written = true
		return
	}
	now := r.now()
	if !r.last.IsZero() && now.Sub(r.last) < r.LogEvery {
		return
	}
	r.last = now
	logrus.WithFields(logrus.Fields{
		"speed":     fmt.Sprintf("%.0f/s", s.Speed),
		"remaining": s.Remaining,
		"eta":       s.ETA,
	}).Info("solving")
}

// Done ends the status line, if one was drawn.
func (r *Reporter) Done() {
	if r.written {
		fmt.Fprintln(r.w)
		r.written = false
	}
}

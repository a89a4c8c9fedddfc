package puzzle

import (
	"context"
	"fmt"
	"time"

	"github.com/ncw/gmp"
	"github.com/sirupsen/logrus"
)

const DefaultReportEvery = 12345

// Checkpointer persists intermediate solver state.
type Checkpointer interface {
	Save(snapshot *Puzzle) (string, error)
}

// Status is a progress sample taken by the solver.
type Status struct {
	Speed     float64
	Remaining uint64
	ETA       string
}

// Progress receives best-effort status reports; it must not block for long.
type Progress interface {
	Report(Status)
}

type Solver struct {
	// SaveInterval is the number of squarings between checkpoints. Zero
	// disables checkpointing.
	SaveInterval uint64
	Checkpointer Checkpointer
	ReportEvery  uint64
	Progress     Progress

	now    func() time.Time
	square func()
}

func (s *Solver) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// Solve squares p.Base exactly p.Steps times modulo p.Modulus and unmasks
// the key. p is never modified; checkpoints are copies.
//
// The context is only consulted between progress reports, so cancellation
// takes effect within ReportEvery squarings.
func (s *Solver) Solve(ctx context.Context, p *Puzzle) (*gmp.Int, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid puzzle: %w", err)
	}
	n, t := p.Modulus, p.Steps
	tmp := new(gmp.Int).Set(p.Base)
	reportEvery := s.ReportEvery
	if reportEvery == 0 {
		reportEvery = DefaultReportEvery
	}

	logrus.WithFields(logrus.Fields{
		"steps":         t,
		"save_interval": s.SaveInterval,
	}).Debug("solving puzzle")

	lastAt, lastI := s.clock(), uint64(0)
	for i := uint64(0); i < t; i++ {
		if i > 0 && s.SaveInterval > 0 && s.Checkpointer != nil && i%s.SaveInterval == 0 {
			snap := p.Clone()
			snap.Base.Set(tmp)
			snap.Steps = t - i
			if _, err := s.Checkpointer.Save(snap); err != nil {
				return nil, fmt.Errorf("save checkpoint: %w", err)
			}
		}
		tmp.Mul(tmp, tmp)
		tmp.Mod(tmp, n)
		if s.square != nil {
			s.square()
		}
		if (i+1)%reportEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			now := s.clock()
			if s.Progress != nil {
				speed := 0.0
				if elapsed := now.Sub(lastAt).Seconds(); elapsed > 0 {
					speed = float64(i+1-lastI) / elapsed
				}
				remaining := t - i - 1
				s.Progress.Report(Status{
					Speed:     speed,
					Remaining: remaining,
					ETA:       ETA(remaining, speed),
				})
			}
			lastAt, lastI = now, i+1
		}
	}

	key := new(gmp.Int).Sub(p.MaskedKey, tmp)
	key.Mod(key, n)
	if key.Sign() < 0 {
		key.Add(key, n)
	}
	return key, nil
}

package puzzle

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultTrials = 100

// Calibration is the squaring throughput measured (or assumed) for this
// machine. It is computed once at startup and passed to whatever needs it.
type Calibration struct {
	Speed   uint64
	ModBits int
}

// Steps converts a wall-clock delay into an iteration count.
func (c Calibration) Steps(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return uint64(d.Seconds() * float64(c.Speed))
}

// SaveInterval is the number of squarings done in d, never less than one.
func (c Calibration) SaveInterval(d time.Duration) uint64 {
	if n := c.Steps(d); n > 0 {
		return n
	}
	return 1
}

type CalibrationOptions struct {
	Calibrate   bool
	PresetSpeed uint64
	ModBits     int
	Trials      int
	Rand        io.Reader
}

// NewCalibration measures the speed, or returns the preset when measuring
// is disabled.
func NewCalibration(opts CalibrationOptions) (Calibration, error) {
	if !opts.Calibrate {
		if opts.PresetSpeed == 0 {
			return Calibration{}, errors.New("preset speed must be positive when calibration is disabled")
		}
		return Calibration{Speed: opts.PresetSpeed, ModBits: opts.ModBits}, nil
	}
	r := opts.Rand
	if r == nil {
		r = rand.Reader
	}
	speed, err := calibrate(r, opts.ModBits, opts.Trials, time.Now)
	if err != nil {
		return Calibration{}, err
	}
	logrus.WithFields(logrus.Fields{
		"speed":        speed,
		"modulus_bits": opts.ModBits,
	}).Debug("calibrated")
	return Calibration{Speed: speed, ModBits: opts.ModBits}, nil
}

func calibrate(r io.Reader, modBits, trials int, now func() time.Time) (uint64, error) {
	if trials <= 0 {
		trials = DefaultTrials
	}
	n, _, err := newModulus(r, modBits)
	if err != nil {
		return 0, fmt.Errorf("calibrate: %w", err)
	}
	x, err := randBelow(r, n)
	if err != nil {
		return 0, fmt.Errorf("calibrate: %w", err)
	}
	start := now()
	for i := 0; i < trials; i++ {
		x.Mul(x, x)
		x.Mod(x, n)
	}
	elapsed := now().Sub(start)
	// coarse clocks can report no elapsed time at all
	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	speed := uint64(float64(trials) / elapsed.Seconds())
	if speed == 0 {
		speed = 1
	}
	return speed, nil
}

// Calibrate measures how many modBits-bit modular squarings this machine
// does per second.
func Calibrate(modBits int) (uint64, error) {
	return calibrate(rand.Reader, modBits, DefaultTrials, time.Now)
}

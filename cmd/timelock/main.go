package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docker/go-units"
	"github.com/ncw/gmp"
	"github.com/redpwn/timelock/internal/checkpoint"
	"github.com/redpwn/timelock/internal/codec"
	"github.com/redpwn/timelock/internal/config"
	"github.com/redpwn/timelock/internal/privs"
	"github.com/redpwn/timelock/internal/progress"
	"github.com/redpwn/timelock/internal/source"
	"github.com/redpwn/timelock/puzzle"
	"github.com/sirupsen/logrus"
)

// embeddedPuzzle holds a puzzle compiled into the binary with
// -ldflags "-X main.embeddedPuzzle=...".
var embeddedPuzzle string

type app struct {
	cfg      *config.Config
	calib    puzzle.Calibration
	stdout   io.Writer
	stderr   io.Writer
	progress *progress.Reporter
}

func (a *app) store() *checkpoint.Store {
	return checkpoint.NewStore(a.cfg.Dir, a.calib.SaveInterval(a.cfg.SaveEvery), a.calib.Speed)
}

func (a *app) generate(delay time.Duration) (*gmp.Int, *puzzle.Puzzle, error) {
	steps := a.calib.Steps(delay)
	logrus.WithFields(logrus.Fields{
		"delay": units.HumanDuration(delay),
		"steps": steps,
		"eta":   puzzle.ETA(steps, float64(a.calib.Speed)),
	}).Info("creating puzzle")
	key, p, err := puzzle.NewGenerator(a.cfg.ModBits, a.cfg.KeyBits).Generate(steps)
	if err != nil {
		return nil, nil, fmt.Errorf("generate puzzle: %w", err)
	}
	return key, p, nil
}

func (a *app) newPuzzle(cmd command) error {
	key, p, err := a.generate(cmd.delay)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "key: %s\n", key)
	path, err := a.store().Save(p)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}

func (a *app) readPayload(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.Size() > int64(a.cfg.MaxPayload) {
		return nil, fmt.Errorf("%s is %s, over the %s limit", path, units.HumanSize(float64(fi.Size())), a.cfg.MaxPayload)
	}
	return os.ReadFile(path)
}

func (a *app) encrypt(cmd command) error {
	msg, err := a.readPayload(cmd.file)
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}
	c, err := codec.New(a.cfg.KeyBits)
	if err != nil {
		return err
	}
	key, p, err := a.generate(cmd.delay)
	if err != nil {
		return err
	}
	if p.Ciphertext, err = c.Encrypt(msg, key); err != nil {
		return fmt.Errorf("encrypt payload: %w", err)
	}
	p.KeyBits = uint32(c.KeyBits)
	logrus.WithFields(logrus.Fields{
		"file": cmd.file,
		"size": units.HumanSize(float64(len(msg))),
	}).Info("locked payload")
	path, err := a.store().Save(p)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}

func (a *app) benchmark() error {
	fmt.Fprintf(a.stdout, "%d %d-bit modular squarings per second\n", a.calib.Speed, a.calib.ModBits)
	return nil
}

func (a *app) solve(ctx context.Context, src source.Source) error {
	p, err := src.Load()
	if err != nil {
		return err
	}
	var c *codec.Codec
	if p.HasPayload() {
		// the width travels with the puzzle, not the local config
		if c, err = codec.New(int(p.KeyBits)); err != nil {
			return err
		}
	}
	store := a.store()
	logrus.WithFields(logrus.Fields{
		"source":        src,
		"steps":         p.Steps,
		"eta":           puzzle.ETA(p.Steps, float64(a.calib.Speed)),
		"save_interval": units.HumanDuration(a.cfg.SaveEvery),
	}).Info("solving puzzle")
	if a.cfg.Sandbox {
		if err := privs.Sandbox(); err != nil {
			return err
		}
	}
	s := &puzzle.Solver{
		SaveInterval: store.Interval,
		Checkpointer: store,
		ReportEvery:  a.cfg.ReportEvery,
		Progress:     a.progress,
	}
	key, err := s.Solve(ctx, p)
	a.progress.Done()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("interrupted, resume from the last saved state")
		}
		return err
	}
	fmt.Fprintf(a.stderr, "solution = %s\n", key)
	if c == nil {
		return nil
	}
	msg, err := c.Decrypt(p.Ciphertext, key)
	if err != nil {
		return fmt.Errorf("decrypt payload: %w", err)
	}
	_, err = a.stdout.Write(bytes.TrimRight(msg, "\x00"))
	return err
}

func (a *app) run(ctx context.Context, cmd command) error {
	var src source.Source
	if cmd.kind == cmdSolve {
		src = source.Resolve(embeddedPuzzle, cmd.file)
		if src.Kind == source.None {
			return errUsage
		}
	}
	calib, err := puzzle.NewCalibration(a.cfg.CalibrationOptions())
	if err != nil {
		return err
	}
	a.calib = calib
	switch cmd.kind {
	case cmdNew:
		return a.newPuzzle(cmd)
	case cmdEncrypt:
		return a.encrypt(cmd)
	case cmdBenchmark:
		return a.benchmark()
	}
	return a.solve(ctx, src)
}

func setupLogging(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

func run() error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.LogLevel); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}
	cmd, err := parseArgs(os.Args[1:], cfg.DefaultDelay)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a := &app{
		cfg:      cfg,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		progress: progress.New(os.Stderr),
	}
	return a.run(ctx, cmd)
}

func main() {
	if err := run(); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// Package checkpoint stores puzzles and intermediate solver state on disk.
package checkpoint

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/docker/go-units"
	"github.com/redpwn/timelock/puzzle"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sys/unix"
)

// ErrCollision is returned when a snapshot already exists at the derived
// location.
var ErrCollision = errors.New("checkpoint already exists")

const idSize = 16

// Store writes one file per snapshot. Interval is the solver's save
// interval in squarings and determines the coarse index in file names.
type Store struct {
	Dir      string
	Interval uint64
	// Speed is used for the estimated time comment; zero omits it.
	Speed uint64
}

func NewStore(dir string, interval, speed uint64) *Store {
	if interval == 0 {
		interval = 1
	}
	return &Store{Dir: dir, Interval: interval, Speed: speed}
}

// Name derives the file name for p from a BLAKE2b digest of the masked key
// and the number of save intervals left.
func (s *Store) Name(p *puzzle.Puzzle) string {
	h, err := blake2b.New(idSize, nil)
	if err != nil {
		panic(err)
	}
	h.Write(p.MaskedKey.Bytes())
	interval := s.Interval
	if interval == 0 {
		interval = 1
	}
	return fmt.Sprintf("puzzle_%s-%d", hex.EncodeToString(h.Sum(nil)), p.Steps/interval)
}

func (s *Store) comments(p *puzzle.Puzzle) []string {
	c := []string{"Run ./timelock FILENAME > OUTFILE to decode"}
	if s.Speed > 0 {
		c = append(c, "Estimated time to solve: "+puzzle.ETA(p.Steps, float64(s.Speed)))
	}
	return c
}

// Save writes p and returns its path. The file appears atomically and an
// existing file is never replaced.
func (s *Store) Save(p *puzzle.Puzzle) (string, error) {
	data, err := puzzle.Marshal(p, s.comments(p)...)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir, s.Name(p))
	if _, err := os.Lstat(path); err == nil {
		return "", fmt.Errorf("%s: %w", path, ErrCollision)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := writeNew(s.Dir, path, data); err != nil {
		return "", err
	}
	logrus.WithFields(logrus.Fields{
		"path":  path,
		"steps": p.Steps,
		"size":  units.HumanSize(float64(len(data))),
	}).Info("saved state")
	return path, nil
}

func writeNew(dir, path string, data []byte) error {
	f, err := os.CreateTemp(dir, ".puzzle-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := publish(tmp, path); err != nil {
		return err
	}
	// the file is in place; a failed directory sync only weakens durability
	if err := syncDir(dir); err != nil {
		logrus.WithError(err).WithField("dir", dir).Warn("sync directory")
	}
	return nil
}

// publish moves tmp to path unless path exists.
func publish(tmp, path string) error {
	err := unix.Renameat2(unix.AT_FDCWD, tmp, unix.AT_FDCWD, path, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EEXIST):
		return fmt.Errorf("%s: %w", path, ErrCollision)
	case !errors.Is(err, unix.EINVAL) && !errors.Is(err, unix.ENOSYS):
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	// filesystem without RENAME_NOREPLACE; link also refuses to replace
	if err := os.Link(tmp, path); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", path, ErrCollision)
		}
		return fmt.Errorf("link %s: %w", tmp, err)
	}
	return nil
}

var syncDir = syncDirectory

func syncDirectory(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.Sync(); err != nil && !errors.Is(err, unix.EINVAL) {
		return fmt.Errorf("sync %s: %w", dir, err)
	}
	return nil
}

// Load reads a puzzle or snapshot. Malformed content yields an error
// matching puzzle.ErrMalformed.
func Load(path string) (*puzzle.Puzzle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := puzzle.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Load is Store's counterpart to Save.
func (s *Store) Load(path string) (*puzzle.Puzzle, error) {
	return Load(path)
}

// Package source resolves where the puzzle to solve comes from.
package source

import (
	"errors"
	"fmt"

	"github.com/redpwn/timelock/internal/checkpoint"
	"github.com/redpwn/timelock/puzzle"
)

type Kind int

const (
	None Kind = iota
	Embedded
	File
)

func (k Kind) String() string {
	switch k {
	case Embedded:
		return "embedded"
	case File:
		return "file"
	}
	return "none"
}

type Source struct {
	Kind Kind
	Data []byte
	Path string
}

var ErrNoPuzzle = errors.New("no puzzle given")

// Resolve picks an explicit path over a puzzle compiled into the binary.
func Resolve(embedded, path string) Source {
	switch {
	case path != "":
		return Source{Kind: File, Path: path}
	case embedded != "":
		return Source{Kind: Embedded, Data: []byte(embedded)}
	}
	return Source{Kind: None}
}

func (s Source) String() string {
	if s.Kind == File {
		return s.Path
	}
	return s.Kind.String()
}

func (s Source) Load() (*puzzle.Puzzle, error) {
	switch s.Kind {
	case File:
		return checkpoint.Load(s.Path)
	case Embedded:
		p, err := puzzle.Unmarshal(s.Data)
		if err != nil {
			return nil, fmt.Errorf("embedded puzzle: %w", err)
		}
		return p, nil
	}
	return nil, ErrNoPuzzle
}

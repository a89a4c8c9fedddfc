// Package puzzle implements Rivest-Shamir-Wagner time-lock puzzles.
//
// A puzzle hides a secret key behind t sequential modular squarings. The
// setter uses the factorization of the modulus to skip the work; a solver
// without it has to square t times, one after the other.
package puzzle

import (
	"errors"
	"fmt"

	"github.com/ncw/gmp"
)

var (
	one = gmp.NewInt(1)
	two = gmp.NewInt(2)
)

// Puzzle is both the unit of work and the unit of persistence. A checkpoint
// is a Puzzle whose Base and Steps reflect a partially completed solve.
type Puzzle struct {
	Modulus   *gmp.Int
	Base      *gmp.Int
	Steps     uint64
	MaskedKey *gmp.Int
	// Ciphertext is nil for bare puzzles.
	Ciphertext []byte
	// KeyBits is the AES key width the payload was encrypted with.
	KeyBits uint32
}

// Clone returns a deep copy of p.
func (p *Puzzle) Clone() *Puzzle {
	c := &Puzzle{
		Modulus:   new(gmp.Int).Set(p.Modulus),
		Base:      new(gmp.Int).Set(p.Base),
		Steps:     p.Steps,
		MaskedKey: new(gmp.Int).Set(p.MaskedKey),
		KeyBits:   p.KeyBits,
	}
	if p.Ciphertext != nil {
		c.Ciphertext = append([]byte{}, p.Ciphertext...)
	}
	return c
}

// HasPayload reports whether the puzzle wraps an encrypted message.
func (p *Puzzle) HasPayload() bool {
	return len(p.Ciphertext) > 0
}

// Validate checks the structural invariants of a puzzle.
func (p *Puzzle) Validate() error {
	if p.Modulus == nil || p.Base == nil || p.MaskedKey == nil {
		return errors.New("missing field")
	}
	if p.Modulus.Cmp(one) <= 0 {
		return errors.New("modulus must be greater than one")
	}
	if p.Base.Sign() < 0 || p.Base.Cmp(p.Modulus) >= 0 {
		return errors.New("base out of range")
	}
	if p.MaskedKey.Sign() < 0 || p.MaskedKey.Cmp(p.Modulus) >= 0 {
		return errors.New("masked key out of range")
	}
	if p.HasPayload() {
		switch p.KeyBits {
		case 128, 192, 256:
		case 0:
			return errors.New("payload without key size")
		default:
			return fmt.Errorf("unsupported payload key size %d", p.KeyBits)
		}
	}
	return nil
}

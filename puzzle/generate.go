package puzzle

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/ncw/gmp"
	"github.com/sirupsen/logrus"
)

const (
	DefaultModBits = 2048
	DefaultKeyBits = 192
)

type Generator struct {
	ModBits int
	KeyBits int
	// Rand defaults to crypto/rand.Reader.
	Rand io.Reader
}

func NewGenerator(modBits, keyBits int) *Generator {
	return &Generator{ModBits: modBits, KeyBits: keyBits, Rand: rand.Reader}
}

func (g *Generator) reader() io.Reader {
	if g.Rand == nil {
		return rand.Reader
	}
	return g.Rand
}

// newModulus draws two distinct primes of half the modulus length and
// returns their product together with the totient.
func newModulus(r io.Reader, bits int) (n, totient *gmp.Int, err error) {
	if bits < 16 || bits%2 != 0 {
		return nil, nil, fmt.Errorf("invalid modulus size %d", bits)
	}
	for {
		// rand.Prime keeps drawing candidates until one passes the
		// primality tests; it only fails when the reader does.
		p, err := rand.Prime(r, bits/2)
		if err != nil {
			return nil, nil, fmt.Errorf("generate prime: %w", err)
		}
		q, err := rand.Prime(r, bits/2)
		if err != nil {
			return nil, nil, fmt.Errorf("generate prime: %w", err)
		}
		if p.Cmp(q) == 0 {
			continue
		}
		gp := new(gmp.Int).SetBytes(p.Bytes())
		gq := new(gmp.Int).SetBytes(q.Bytes())
		n = new(gmp.Int).Mul(gp, gq)
		gp.Sub(gp, one)
		gq.Sub(gq, one)
		totient = new(gmp.Int).Mul(gp, gq)
		return n, totient, nil
	}
}

// randBelow returns a uniform integer in [0, max).
func randBelow(r io.Reader, max *gmp.Int) (*gmp.Int, error) {
	v, err := rand.Int(r, new(big.Int).SetBytes(max.Bytes()))
	if err != nil {
		return nil, err
	}
	return new(gmp.Int).SetBytes(v.Bytes()), nil
}

// Generate builds a puzzle that takes t sequential squarings to open and
// returns it together with the key it hides.
func (g *Generator) Generate(t uint64) (*gmp.Int, *Puzzle, error) {
	if g.KeyBits <= 0 || g.KeyBits >= g.ModBits {
		return nil, nil, errors.New("key size must be positive and smaller than the modulus")
	}
	r := g.reader()
	n, totient, err := newModulus(r, g.ModBits)
	if err != nil {
		return nil, nil, err
	}
	key, err := randBelow(r, new(gmp.Int).Lsh(one, uint(g.KeyBits)))
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}
	a, err := randBelow(r, n)
	if err != nil {
		return nil, nil, fmt.Errorf("generate base: %w", err)
	}

	e := new(gmp.Int).Exp(two, new(gmp.Int).SetUint64(t), totient)
	b := new(gmp.Int).Exp(a, e, n)
	masked := new(gmp.Int).Add(key, b)
	masked.Mod(masked, n)

	logrus.WithFields(logrus.Fields{
		"modulus_bits": n.BitLen(),
		"steps":        t,
	}).Debug("generated puzzle")
	return key, &Puzzle{
		Modulus:   n,
		Base:      a,
		Steps:     t,
		MaskedKey: masked,
	}, nil
}

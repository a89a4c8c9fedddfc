package puzzle

import (
	"strings"
	"testing"

	"github.com/ncw/gmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePuzzle() *Puzzle {
	return &Puzzle{
		Modulus:   gmp.NewInt(3233),
		Base:      gmp.NewInt(42),
		Steps:     1234,
		MaskedKey: gmp.NewInt(999),
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, ct := range [][]byte{nil, {0, 1, 2, 0xff, '"', '\n'}} {
		p := samplePuzzle()
		p.Ciphertext = ct
		if len(ct) > 0 {
			p.KeyBits = 256
		}
		data, err := Marshal(p, "Run ./timelock FILENAME > OUTFILE to decode", "Estimated time to solve: 2 minutes")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "# Run ./timelock"))
		assert.Contains(t, string(data), "# Estimated time to solve: 2 minutes\n")

		got, err := Unmarshal(data)
		require.NoError(t, err)
		assert.Equal(t, 0, p.Modulus.Cmp(got.Modulus))
		assert.Equal(t, 0, p.Base.Cmp(got.Base))
		assert.Equal(t, 0, p.MaskedKey.Cmp(got.MaskedKey))
		assert.Equal(t, p.Steps, got.Steps)
		assert.Equal(t, len(ct) > 0, got.HasPayload())
		if len(ct) > 0 {
			assert.Equal(t, ct, got.Ciphertext)
		}
		assert.Equal(t, p.KeyBits, got.KeyBits)
	}
}

func TestMarshalGeneratedPuzzle(t *testing.T) {
	_, p := newTestPuzzle(t, 77)
	data, err := Marshal(p)
	require.NoError(t, err)
	got, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Modulus.Cmp(got.Modulus))
	assert.Equal(t, p.Steps, got.Steps)
}

func TestMarshalRejectsInvalid(t *testing.T) {
	p := samplePuzzle()
	p.Base = gmp.NewInt(5000)
	_, err := Marshal(p)
	assert.Error(t, err)
}

func TestUnmarshalMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":             ``,
		"garbage":           `__import__('os').system('true')`,
		"python dict":       `{'N': 3233, 'a': 42, 'steps': 10, 'cipher_key': 7}`,
		"missing field":     `modulus: "3233" base: "42" remaining_steps: 10`,
		"unknown field":     `modulus: "3233" base: "42" remaining_steps: 10 masked_key: "7" totient: "3120"`,
		"wrong type":        `modulus: "3233" base: "42" remaining_steps: "ten" masked_key: "7"`,
		"negative steps":    `modulus: "3233" base: "42" remaining_steps: -1 masked_key: "7"`,
		"not decimal":       `modulus: "0xca1" base: "42" remaining_steps: 10 masked_key: "7"`,
		"base too large":    `modulus: "3233" base: "3233" remaining_steps: 10 masked_key: "7"`,
		"negative key":      `modulus: "3233" base: "42" remaining_steps: 10 masked_key: "-7"`,
		"trivial modulus":   `modulus: "1" base: "0" remaining_steps: 10 masked_key: "0"`,
		"repeated field":    `modulus: "3233" modulus: "3233" base: "42" remaining_steps: 10 masked_key: "7"`,
		"payload no width":  `modulus: "3233" base: "42" remaining_steps: 10 masked_key: "7" ciphertext: "0123456789abcdef"`,
		"payload bad width": `modulus: "3233" base: "42" remaining_steps: 10 masked_key: "7" ciphertext: "0123456789abcdef" key_bits: 100`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Unmarshal([]byte(in))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
			var pe *ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestUnmarshalHandWritten(t *testing.T) {
	in := "# a comment\n\nmodulus: \"3233\"\nbase: \"42\"\nremaining_steps: 3\nmasked_key: \"7\"\n"
	p, err := Unmarshal([]byte(in))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), p.Steps)
	assert.False(t, p.HasPayload())
}

func TestMarshalRejectsPayloadWithoutWidth(t *testing.T) {
	p := samplePuzzle()
	p.Ciphertext = make([]byte, 16)
	_, err := Marshal(p)
	assert.Error(t, err)

	p.KeyBits = 128
	data, err := Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "key_bits: 128")
}

func TestCloneKeepsKeyBits(t *testing.T) {
	p := samplePuzzle()
	p.Ciphertext = []byte{1}
	p.KeyBits = 192
	c := p.Clone()
	assert.Equal(t, uint32(192), c.KeyBits)
	assert.NoError(t, c.Validate())
}

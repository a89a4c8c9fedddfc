// Package codec encrypts payloads under a time-lock secret.
//
// Plaintext is zero padded up to the AES block size and encrypted block by
// block (ECB). An empty message still yields one block so the payload
// survives. Decrypt returns the padded buffer; a message that really ends
// in zero bytes cannot be told apart from its padding. Equal inputs give
// equal ciphertexts.
package codec

import (
	"crypto/aes"
	"errors"
	"fmt"

	"github.com/ncw/gmp"
)

var (
	ErrKeyWidth  = errors.New("key does not fit the key width")
	ErrBlockSize = errors.New("ciphertext is not a multiple of the block size")
)

type Codec struct {
	KeyBits int
}

func New(keyBits int) (*Codec, error) {
	switch keyBits {
	case 128, 192, 256:
		return &Codec{KeyBits: keyBits}, nil
	}
	return nil, fmt.Errorf("unsupported key size %d", keyBits)
}

// keyBytes renders key big-endian, left padded to the codec's key width.
func (c *Codec) keyBytes(key *gmp.Int) ([]byte, error) {
	width := c.KeyBits / 8
	if key.Sign() < 0 {
		return nil, ErrKeyWidth
	}
	b := key.Bytes()
	if len(b) > width {
		return nil, ErrKeyWidth
	}
	out := make([]byte, width)
	copy(out[width-len(b):], b)
	return out, nil
}

func Pad(msg []byte) []byte {
	n := len(msg)
	if n == 0 {
		n = aes.BlockSize
	}
	if r := n % aes.BlockSize; r != 0 {
		n += aes.BlockSize - r
	}
	out := make([]byte, n)
	copy(out, msg)
	return out
}

func (c *Codec) Encrypt(msg []byte, key *gmp.Int) ([]byte, error) {
	k, err := c.keyBytes(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	buf := Pad(msg)
	for i := 0; i < len(buf); i += aes.BlockSize {
		block.Encrypt(buf[i:i+aes.BlockSize], buf[i:i+aes.BlockSize])
	}
	return buf, nil
}

func (c *Codec) Decrypt(ciphertext []byte, key *gmp.Int) ([]byte, error) {
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrBlockSize
	}
	k, err := c.keyBytes(key)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(k)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	buf := make([]byte, len(ciphertext))
	for i := 0; i < len(buf); i += aes.BlockSize {
		block.Decrypt(buf[i:i+aes.BlockSize], ciphertext[i:i+aes.BlockSize])
	}
	return buf, nil
}

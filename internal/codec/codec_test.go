package codec

import (
	"bytes"
	"testing"

	"github.com/ncw/gmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() *gmp.Int {
	k, _ := new(gmp.Int).SetString("4951760157141521099596496895123456789", 10)
	return k
}

func TestRoundTrip(t *testing.T) {
	c, err := New(192)
	require.NoError(t, err)
	msgs := [][]byte{
		[]byte("0123456789abcdef"),
		bytes.Repeat([]byte("time-lock puzzle"), 4),
	}
	for _, msg := range msgs {
		ct, err := c.Encrypt(msg, testKey())
		require.NoError(t, err)
		assert.Len(t, ct, len(msg))
		assert.NotEqual(t, msg, ct)
		pt, err := c.Decrypt(ct, testKey())
		require.NoError(t, err)
		assert.Equal(t, msg, pt)
	}
}

func TestPaddingKeptOnDecrypt(t *testing.T) {
	c, err := New(128)
	require.NoError(t, err)
	msg := []byte("hello")
	ct, err := c.Encrypt(msg, gmp.NewInt(7))
	require.NoError(t, err)
	assert.Len(t, ct, 16)
	pt, err := c.Decrypt(ct, gmp.NewInt(7))
	require.NoError(t, err)
	assert.Equal(t, append([]byte("hello"), make([]byte, 11)...), pt)
}

func TestDeterministic(t *testing.T) {
	c, err := New(256)
	require.NoError(t, err)
	a, err := c.Encrypt([]byte("same message"), testKey())
	require.NoError(t, err)
	b, err := c.Encrypt([]byte("same message"), testKey())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWrongKey(t *testing.T) {
	c, err := New(192)
	require.NoError(t, err)
	msg := []byte("0123456789abcdef")
	ct, err := c.Encrypt(msg, testKey())
	require.NoError(t, err)
	pt, err := c.Decrypt(ct, gmp.NewInt(1))
	require.NoError(t, err)
	assert.NotEqual(t, msg, pt)
}

func TestErrors(t *testing.T) {
	_, err := New(100)
	assert.Error(t, err)

	c, err := New(128)
	require.NoError(t, err)
	tooBig := new(gmp.Int).Lsh(gmp.NewInt(1), 128)
	_, err = c.Encrypt([]byte("x"), tooBig)
	assert.ErrorIs(t, err, ErrKeyWidth)
	_, err = c.Decrypt(make([]byte, 15), gmp.NewInt(1))
	assert.ErrorIs(t, err, ErrBlockSize)
}

func TestEmpty(t *testing.T) {
	c, err := New(192)
	require.NoError(t, err)
	ct, err := c.Encrypt(nil, testKey())
	require.NoError(t, err)
	assert.Len(t, ct, 16)
	pt, err := c.Decrypt(ct, testKey())
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 16), pt)
}

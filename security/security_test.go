package security

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlowfishRoundTrip(t *testing.T) {
	c, err := NewBlowfish([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)

	plain := []byte("sixteen byte msg")
	buf := append([]byte(nil), plain...)
	require.NoError(t, c.Encrypt(buf))
	assert.False(t, bytes.Equal(plain, buf))
	require.NoError(t, c.Decrypt(buf))
	assert.Equal(t, plain, buf)
}

func TestBlowfishBlockSize(t *testing.T) {
	c, err := NewBlowfish([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, err)
	assert.Equal(t, 0, c.OutputLength(0))
	assert.Equal(t, 8, c.OutputLength(1))
	assert.Equal(t, 8, c.OutputLength(8))
	assert.Equal(t, 16, c.OutputLength(9))
	assert.True(t, errors.Is(c.Encrypt(make([]byte, 7)), ErrBlockSize))
}

func TestBlowfishKeyIsCopied(t *testing.T) {
	key := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	c, err := NewBlowfish(key)
	require.NoError(t, err)
	key[0] = 0xFF
	assert.Equal(t, byte(1), c.(*Blowfish).Key()[0])

	_, err = NewBlowfish(nil)
	assert.True(t, errors.Is(err, ErrKeySize))
}

func TestBlowfishDifferentKeys(t *testing.T) {
	a, _ := NewBlowfish([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	b, _ := NewBlowfish([]byte{8, 7, 6, 5, 4, 3, 2, 1})
	x := make([]byte, 8)
	y := make([]byte, 8)
	require.NoError(t, a.Encrypt(x))
	require.NoError(t, b.Encrypt(y))
	assert.NotEqual(t, x, y)
}

func TestChecksumDetectsSingleByteChange(t *testing.T) {
	crc := NewChecksum(0x1234)
	buf := []byte("the quick brown fox jumps")
	sum := crc.Compute(buf)
	for i := range buf {
		for _, flip := range []byte{0x01, 0x80, 0xFF} {
			buf[i] ^= flip
			assert.NotEqual(t, sum, crc.Compute(buf), "byte %d flip %02x", i, flip)
			buf[i] ^= flip
		}
	}
	assert.Equal(t, sum, crc.Compute(buf))
}

func TestChecksumSeeded(t *testing.T) {
	buf := []byte{1, 2, 3}
	assert.Equal(t, NewChecksum(7).Compute(buf), NewChecksum(7).Compute(buf))
	assert.NotEqual(t, NewChecksum(1).Compute(buf), NewChecksum(2).Compute(buf))
}

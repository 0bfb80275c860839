package security

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/blowfish"
)

var (
	ErrBlockSize = errors.New("sronet: cipher input is not a multiple of the block size")
	ErrKeySize   = errors.New("sronet: invalid cipher key size")
)

// Cipher transforms frames in place.
type Cipher interface {
	Encrypt(buf []byte) error
	Decrypt(buf []byte) error
	// OutputLength returns the size of n bytes once encrypted.
	OutputLength(n int) int
}

// CipherFactory builds the cipher installed by the handshake.
type CipherFactory func(key []byte) (Cipher, error)

const blowfishBlockSize = blowfish.BlockSize

// Blowfish is ECB blowfish reading each block as two little-endian words.
type Blowfish struct {
	key    []byte
	cipher *blowfish.Cipher
}

func NewBlowfish(key []byte) (Cipher, error) {
	c, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, errors.Wrapf(ErrKeySize, "%v", err)
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Blowfish{key: k, cipher: c}, nil
}

// Key returns a copy of the key the cipher was built with.
func (b *Blowfish) Key() []byte {
	k := make([]byte, len(b.key))
	copy(k, b.key)
	return k
}

func (b *Blowfish) OutputLength(n int) int {
	return (n + blowfishBlockSize - 1) / blowfishBlockSize * blowfishBlockSize
}

func (b *Blowfish) Encrypt(buf []byte) error {
	return b.crypt(buf, b.cipher.Encrypt)
}

func (b *Blowfish) Decrypt(buf []byte) error {
	return b.crypt(buf, b.cipher.Decrypt)
}

func (b *Blowfish) crypt(buf []byte, fn func(dst, src []byte)) error {
	if len(buf)%blowfishBlockSize != 0 {
		return errors.Wrapf(ErrBlockSize, "length %d", len(buf))
	}
	for i := 0; i < len(buf); i += blowfishBlockSize {
		block := buf[i : i+blowfishBlockSize]
		swapWords(block)
		fn(block, block)
		swapWords(block)
	}
	return nil
}

func swapWords(block []byte) {
	block[0], block[1], block[2], block[3] = block[3], block[2], block[1], block[0]
	block[4], block[5], block[6], block[7] = block[7], block[6], block[5], block[4]
}

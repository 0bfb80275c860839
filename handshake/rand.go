package handshake

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

func randBytes(r io.Reader, p []byte) error {
	if _, err := io.ReadFull(r, p); err != nil {
		return errors.Wrap(err, "sronet: read handshake randomness")
	}
	return nil
}

// randRange returns a value in [lo, hi).
func randRange(r io.Reader, lo, hi uint32) (uint32, error) {
	var b [4]byte
	if err := randBytes(r, b[:]); err != nil {
		return 0, err
	}
	return lo + binary.LittleEndian.Uint32(b[:])%(hi-lo), nil
}

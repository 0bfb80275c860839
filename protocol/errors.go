package protocol

import "github.com/pkg/errors"

var (
	ErrDistortedHandshake = errors.New("sronet: handshake message received out of order")
	ErrInvalidHandshake   = errors.New("sronet: remote handshake signature mismatch")
	ErrInvalidSequence    = errors.New("sronet: invalid message sequence")
	ErrInvalidCRC         = errors.New("sronet: invalid message checksum")
	ErrNoCipher           = errors.New("sronet: encryption enabled without key")
	ErrNoChecksum         = errors.New("sronet: checksum enabled without seeds")
)

// IsFatal reports whether err must tear the connection down.
func IsFatal(err error) bool {
	switch {
	case errors.Is(err, ErrDistortedHandshake),
		errors.Is(err, ErrInvalidHandshake),
		errors.Is(err, ErrInvalidSequence),
		errors.Is(err, ErrInvalidCRC),
		errors.Is(err, ErrNoCipher),
		errors.Is(err, ErrNoChecksum):
		return true
	}
	return false
}

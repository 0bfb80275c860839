package packet

import "github.com/pkg/errors"

var (
	ErrEncryptedMassive = errors.New("sronet: message cannot be both encrypted and massive")
	ErrReadOutOfRange   = errors.New("sronet: read out of message range")
	ErrInvalidPosition  = errors.New("sronet: invalid message position")
	ErrFrameTruncated   = errors.New("sronet: frame shorter than its size field")
	ErrStringTooLong    = errors.New("sronet: string length exceeds 65535")
	ErrResizeTooSmall   = errors.New("sronet: message resize smaller than header")
)

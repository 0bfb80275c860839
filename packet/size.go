package packet

import "fmt"

// (MSB)                                                                      (LSB)
// | 15 | 14 | 13 | 12 | 11 | 10 | 09 | 08 | 07 | 06 | 05 | 04 | 03 | 02 | 01 | 00 |
// | E* |                                   SIZE                                   |
const (
	sizeSize   = 15
	sizeOffset = 0
	sizeMask   = ((1 << sizeSize) - 1) << sizeOffset

	encryptedSize   = 1
	encryptedOffset = sizeOffset + sizeSize
	encryptedMask   = ((1 << encryptedSize) - 1) << encryptedOffset
)

// Size is the masked size field leading every frame.
type Size uint16

func NewSize(dataSize uint16, encrypted bool) Size {
	return Size(0).WithDataSize(dataSize).WithEncrypted(encrypted)
}

func (s Size) DataSize() uint16 {
	return (uint16(s) & sizeMask) >> sizeOffset
}

func (s Size) Encrypted() bool {
	return (uint16(s)&encryptedMask)>>encryptedOffset != 0
}

func (s Size) WithDataSize(dataSize uint16) Size {
	return Size(uint16(s)&^sizeMask | (dataSize<<sizeOffset)&sizeMask)
}

func (s Size) WithEncrypted(encrypted bool) Size {
	var e uint16
	if encrypted {
		e = 1
	}
	return Size(uint16(s)&^encryptedMask | (e<<encryptedOffset)&encryptedMask)
}

func (s Size) String() string {
	if s.Encrypted() {
		return fmt.Sprintf("[%d bytes] [Encrypted]", s.DataSize())
	}
	return fmt.Sprintf("[%d bytes]", s.DataSize())
}

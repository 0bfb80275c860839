package security

// Checksum computes the one byte integrity value of a frame.
type Checksum interface {
	Compute(buf []byte) byte
}

// ChecksumFactory builds the checksum installed by the handshake.
type ChecksumFactory func(seed uint32) Checksum

const crc8Poly = 0x07

var crc8Table = func() (t [256]byte) {
	for i := 0; i < 256; i++ {
		c := byte(i)
		for j := 0; j < 8; j++ {
			if c&0x80 != 0 {
				c = c<<1 ^ crc8Poly
			} else {
				c <<= 1
			}
		}
		t[i] = c
	}
	return
}()

// CRC8 is a CRC-8 whose initial register is derived from a seed.
type CRC8 struct {
	init byte
}

func NewChecksum(seed uint32) Checksum {
	return &CRC8{init: byte(seed) ^ byte(seed>>8) ^ byte(seed>>16) ^ byte(seed>>24)}
}

func (c *CRC8) Compute(buf []byte) byte {
	crc := c.init
	for _, b := range buf {
		crc = crc8Table[crc^b]
	}
	return crc
}

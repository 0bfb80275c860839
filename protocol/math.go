package protocol

import "encoding/binary"

// PowMod returns g^x mod p, p must not be zero. x == 0 always yields 1.
func PowMod(g, x, p uint32) uint32 {
	if x == 0 {
		return 1
	}
	result := uint64(1)
	base := uint64(g) % uint64(p)
	for x > 0 {
		if x&1 == 1 {
			result = result * base % uint64(p)
		}
		base = base * base % uint64(p)
		x >>= 1
	}
	return uint32(result)
}

// TransformKey scrambles the first 8 bytes of buf with the shared secret.
func TransformKey(buf []byte, secret uint32, selector byte) {
	for i := 0; i < 8; i++ {
		buf[i] ^= buf[i] + byte(secret>>(8*(i%4))) + selector
	}
}

// KeyMaterial packs two public values into the 8 byte block the keys are derived from.
func KeyMaterial(a, b uint32) [8]byte {
	var k [8]byte
	binary.LittleEndian.PutUint64(k[:], uint64(b)<<32|uint64(a))
	return k
}

package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizePacking(t *testing.T) {
	for n := uint16(0); n <= MaxDataSize; n++ {
		for _, enc := range []bool{false, true} {
			s := NewSize(n, enc)
			if s.DataSize() != n || s.Encrypted() != enc {
				t.Fatalf("NewSize(%d, %v) unpacked to %v", n, enc, s)
			}
			if enc && uint16(s)&0x8000 == 0 {
				t.Fatalf("NewSize(%d, true) has no bit 15", n)
			}
		}
	}
}

func TestSizeMasksOverflow(t *testing.T) {
	s := NewSize(0xFFFF, false)
	assert.Equal(t, uint16(MaxDataSize), s.DataSize())
	assert.False(t, s.Encrypted())

	s = s.WithEncrypted(true).WithDataSize(10)
	assert.Equal(t, uint16(10), s.DataSize())
	assert.True(t, s.Encrypted())
	assert.Equal(t, "[10 bytes] [Encrypted]", s.String())
}

package protocol

const defaultSequenceSeed uint32 = 0x9ABFB3B6

// Sequence produces the byte counter a client stamps on every frame.
type Sequence struct {
	b0, b1, b2 byte
}

func NewSequence(seed uint32) *Sequence {
	m0 := seed
	if m0 == 0 {
		m0 = defaultSequenceSeed
	}
	m1 := mix(&m0)
	m2 := mix(&m0)
	m3 := mix(&m0)
	mix(&m0)

	s := &Sequence{
		b1: byte(m1) ^ byte(m2),
		b2: byte(m0) ^ byte(m3),
	}
	if s.b1 == 0 {
		s.b1 = 1
	}
	if s.b2 == 0 {
		s.b2 = 1
	}
	s.b0 = s.b2 ^ s.b1
	return s
}

func (s *Sequence) Next() byte {
	v := s.b2 * (^s.b0 + s.b1)
	s.b0 = v ^ (v >> 4)
	return s.b0
}

func mix(value *uint32) uint32 {
	for i := 0; i < 32; i++ {
		v := *value
		v = (v >> 2) ^ *value
		v = (v >> 2) ^ *value
		v = (v >> 1) ^ *value
		v = (v >> 1) ^ *value
		v = (v >> 1) ^ *value
		*value = (((*value >> 1) | (*value << 31)) &^ 1) | (v & 1)
	}
	return *value
}

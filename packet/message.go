package packet

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/pkg/errors"
)

// Sizes and offsets of the frame layout.
const (
	BufferSize  = 4096                    // fixed frame capacity
	HeaderSize  = 6                       // size:2 id:2 sequence:1 checksum:1
	DataSize    = BufferSize - HeaderSize // usable payload of one frame
	MaxDataSize = sizeMask                // largest value the size field can carry
	ChunkSize   = DataSize - 1            // payload of one massive chunk, after its isHeader flag

	HeaderOffset   = 0
	SizeOffset     = HeaderOffset + 0
	IDOffset       = HeaderOffset + 2
	SequenceOffset = HeaderOffset + 4
	ChecksumOffset = HeaderOffset + 5
	DataOffset     = HeaderOffset + HeaderSize

	EncryptOffset = HeaderOffset + 2 // the size field is never encrypted
	EncryptSize   = HeaderSize - EncryptOffset
)

// Message is a frame buffer with a read/write cursor. A message has a single owner,
// it is not safe for concurrent use.
type Message struct {
	buf     []byte
	pos     int
	massive bool
}

// NewMessage creates a message, capacity only preallocates and does not change the data size.
func NewMessage(id ID, encrypted, massive bool, capacity int) (*Message, error) {
	if encrypted && massive {
		return nil, ErrEncryptedMassive
	}
	if capacity < 0 {
		capacity = 0
	}
	m := &Message{
		buf:     make([]byte, HeaderSize, HeaderSize+capacity),
		pos:     DataOffset,
		massive: massive,
	}
	m.SetID(id)
	m.setEncrypted(encrypted)
	return m, nil
}

func New(id ID) *Message {
	m, _ := NewMessage(id, false, false, 0)
	return m
}

func NewWithCapacity(id ID, capacity int) *Message {
	m, _ := NewMessage(id, false, false, capacity)
	return m
}

func NewEncrypted(id ID) *Message {
	m, _ := NewMessage(id, true, false, 0)
	return m
}

func NewMassive(id ID) *Message {
	m, _ := NewMessage(id, false, true, 0)
	return m
}

// FromFrame rebuilds a message from a decoded frame, body starts at the id field.
func FromFrame(size Size, body []byte) (*Message, error) {
	n := EncryptSize + int(size.DataSize())
	if len(body) < n {
		return nil, errors.Wrapf(ErrFrameTruncated, "need %d bytes, got %d", n, len(body))
	}
	m := &Message{
		buf: make([]byte, HeaderSize+int(size.DataSize())),
		pos: DataOffset,
	}
	binary.LittleEndian.PutUint16(m.buf[SizeOffset:], uint16(size))
	copy(m.buf[EncryptOffset:], body[:n])
	return m, nil
}

func (m *Message) ID() ID {
	return ID(binary.LittleEndian.Uint16(m.buf[IDOffset:]))
}

func (m *Message) SetID(id ID) {
	binary.LittleEndian.PutUint16(m.buf[IDOffset:], uint16(id))
}

func (m *Message) size() Size {
	return Size(binary.LittleEndian.Uint16(m.buf[SizeOffset:]))
}

func (m *Message) setSize(s Size) {
	binary.LittleEndian.PutUint16(m.buf[SizeOffset:], uint16(s))
}

// Size returns the data size stored in the header. A massive message longer
// than MaxDataSize reports MaxDataSize, use Len for its real length.
func (m *Message) Size() uint16 {
	return m.size().DataSize()
}

// Len returns the real payload length, it differs from Size only when a
// massive message grows past the 15 bits of the size field.
func (m *Message) Len() int {
	return len(m.buf) - HeaderSize
}

func (m *Message) Encrypted() bool {
	return m.size().Encrypted()
}

func (m *Message) setEncrypted(encrypted bool) {
	m.setSize(m.size().WithEncrypted(encrypted))
}

// Massive reports whether the message is sent as a header chunk plus payload chunks.
func (m *Message) Massive() bool {
	return m.massive
}

func (m *Message) Sequence() byte {
	return m.buf[SequenceOffset]
}

func (m *Message) SetSequence(seq byte) {
	m.buf[SequenceOffset] = seq
}

func (m *Message) Checksum() byte {
	return m.buf[ChecksumOffset]
}

func (m *Message) SetChecksum(crc byte) {
	m.buf[ChecksumOffset] = crc
}

// Bytes returns the whole frame including the header, the slice aliases the message.
func (m *Message) Bytes() []byte {
	return m.buf
}

// Data returns the payload without the header, the slice aliases the message.
func (m *Message) Data() []byte {
	return m.buf[DataOffset:]
}

func (m *Message) Position() int {
	return m.pos
}

// SetPosition moves the cursor, pos is absolute and counts the header.
func (m *Message) SetPosition(pos int) error {
	if pos < 0 || pos > len(m.buf) {
		return errors.Wrapf(ErrInvalidPosition, "position %d, length %d", pos, len(m.buf))
	}
	m.pos = pos
	return nil
}

// Rewind moves the cursor back to the first payload byte.
func (m *Message) Rewind() {
	m.pos = DataOffset
}

func (m *Message) Remaining() int {
	if m.pos >= len(m.buf) {
		return 0
	}
	return len(m.buf) - m.pos
}

// Resize changes the frame length, used by the encoder to make room for the cipher output.
// The size field is left untouched.
func (m *Message) Resize(n int) error {
	if n < HeaderSize {
		return ErrResizeTooSmall
	}
	if n <= cap(m.buf) {
		tail := m.buf[len(m.buf):n]
		for i := range tail {
			tail[i] = 0
		}
		m.buf = m.buf[:n]
	} else {
		buf := make([]byte, n)
		copy(buf, m.buf)
		m.buf = buf
	}
	if m.pos > n {
		m.pos = n
	}
	return nil
}

func (m *Message) Clone() *Message {
	buf := make([]byte, len(m.buf))
	copy(buf, m.buf)
	return &Message{buf: buf, pos: m.pos, massive: m.massive}
}

func (m *Message) next(n int) ([]byte, error) {
	if n < 0 || m.pos < 0 || m.pos+n > len(m.buf) {
		return nil, errors.Wrapf(ErrReadOutOfRange, "read %d bytes at %d, length %d", n, m.pos, len(m.buf))
	}
	b := m.buf[m.pos : m.pos+n]
	m.pos += n
	return b, nil
}

func (m *Message) ReadUint8() (uint8, error) {
	b, err := m.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (m *Message) ReadUint16() (uint16, error) {
	b, err := m.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (m *Message) ReadUint32() (uint32, error) {
	b, err := m.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (m *Message) ReadUint64() (uint64, error) {
	b, err := m.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (m *Message) ReadInt8() (int8, error) {
	v, err := m.ReadUint8()
	return int8(v), err
}

func (m *Message) ReadInt16() (int16, error) {
	v, err := m.ReadUint16()
	return int16(v), err
}

func (m *Message) ReadInt32() (int32, error) {
	v, err := m.ReadUint32()
	return int32(v), err
}

func (m *Message) ReadInt64() (int64, error) {
	v, err := m.ReadUint64()
	return int64(v), err
}

func (m *Message) ReadFloat32() (float32, error) {
	v, err := m.ReadUint32()
	return math.Float32frombits(v), err
}

func (m *Message) ReadFloat64() (float64, error) {
	v, err := m.ReadUint64()
	return math.Float64frombits(v), err
}

func (m *Message) ReadBool() (bool, error) {
	v, err := m.ReadUint8()
	return v != 0, err
}

// ReadBytes returns a copy of the next n bytes.
func (m *Message) ReadBytes(n int) ([]byte, error) {
	b, err := m.next(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// ReadBytesTo fills p entirely.
func (m *Message) ReadBytesTo(p []byte) error {
	b, err := m.next(len(p))
	if err != nil {
		return err
	}
	copy(p, b)
	return nil
}

// ReadString reads a u16 length prefixed byte string.
func (m *Message) ReadString() (string, error) {
	n, err := m.ReadUint16()
	if err != nil {
		return "", err
	}
	b, err := m.next(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadUnicode reads a u16 char count followed by UTF-16LE units.
func (m *Message) ReadUnicode() (string, error) {
	n, err := m.ReadUint16()
	if err != nil {
		return "", err
	}
	b, err := m.next(int(n) * 2)
	if err != nil {
		return "", err
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(units)), nil
}

// reserve grows the buffer forward so that n bytes fit at the cursor and returns them.
func (m *Message) reserve(n int) []byte {
	end := m.pos + n
	if end > len(m.buf) {
		if end <= cap(m.buf) {
			m.buf = m.buf[:end]
		} else {
			newCap := 2 * cap(m.buf)
			if newCap < end {
				newCap = end
			}
			buf := make([]byte, end, newCap)
			copy(buf, m.buf)
			m.buf = buf
		}
	}
	b := m.buf[m.pos:end]
	m.pos = end
	return b
}

// updateSize stores Len, saturated at MaxDataSize
func (m *Message) updateSize() {
	m.setSize(m.size().WithDataSize(uint16(min(m.Len(), MaxDataSize))))
}

func (m *Message) WriteUint8(v uint8) {
	m.reserve(1)[0] = v
	m.updateSize()
}

func (m *Message) WriteUint16(v uint16) {
	binary.LittleEndian.PutUint16(m.reserve(2), v)
	m.updateSize()
}

func (m *Message) WriteUint32(v uint32) {
	binary.LittleEndian.PutUint32(m.reserve(4), v)
	m.updateSize()
}

func (m *Message) WriteUint64(v uint64) {
	binary.LittleEndian.PutUint64(m.reserve(8), v)
	m.updateSize()
}

func (m *Message) WriteInt8(v int8) {
	m.WriteUint8(uint8(v))
}

func (m *Message) WriteInt16(v int16) {
	m.WriteUint16(uint16(v))
}

func (m *Message) WriteInt32(v int32) {
	m.WriteUint32(uint32(v))
}

func (m *Message) WriteInt64(v int64) {
	m.WriteUint64(uint64(v))
}

func (m *Message) WriteFloat32(v float32) {
	m.WriteUint32(math.Float32bits(v))
}

func (m *Message) WriteFloat64(v float64) {
	m.WriteUint64(math.Float64bits(v))
}

func (m *Message) WriteBool(v bool) {
	if v {
		m.WriteUint8(1)
	} else {
		m.WriteUint8(0)
	}
}

func (m *Message) WriteBytes(p []byte) {
	copy(m.reserve(len(p)), p)
	m.updateSize()
}

func (m *Message) WriteString(s string) error {
	if len(s) > math.MaxUint16 {
		return errors.Wrapf(ErrStringTooLong, "length %d", len(s))
	}
	m.WriteUint16(uint16(len(s)))
	copy(m.reserve(len(s)), s)
	m.updateSize()
	return nil
}

func (m *Message) WriteUnicode(s string) error {
	units := utf16.Encode([]rune(s))
	if len(units) > math.MaxUint16 {
		return errors.Wrapf(ErrStringTooLong, "length %d", len(units))
	}
	m.WriteUint16(uint16(len(units)))
	b := m.reserve(len(units) * 2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[i*2:], u)
	}
	m.updateSize()
	return nil
}

func (m *Message) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%v [%04d bytes]", m.ID(), m.Len())
	if m.Encrypted() {
		sb.WriteString(" [Encrypted]")
	}
	if m.massive {
		sb.WriteString(" [Massive]")
	}
	sb.WriteString("\n")
	sb.WriteString(hex.Dump(m.Data()))
	return sb.String()
}

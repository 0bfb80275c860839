package protocol

import (
	"github.com/huoshan017/sronet/packet"
	"github.com/huoshan017/sronet/security"
	"github.com/pkg/errors"
)

// Protocol holds the per connection cryptographic state and turns messages into frames.
// It is driven by a single session and is not safe for concurrent use on its own.
type Protocol struct {
	role     Role
	option   Option
	state    State
	cipher   security.Cipher
	sequence *Sequence
	checksum security.Checksum

	newCipher   security.CipherFactory
	newChecksum security.ChecksumFactory
}

func newProtocol(role Role) *Protocol {
	p := &Protocol{
		role:        role,
		newCipher:   security.NewBlowfish,
		newChecksum: security.NewChecksum,
	}
	p.Reset()
	return p
}

func NewClient() *Protocol {
	return newProtocol(RoleClient)
}

func NewServer() *Protocol {
	return newProtocol(RoleServer)
}

func (p *Protocol) SetCipherFactory(f security.CipherFactory) {
	if f != nil {
		p.newCipher = f
	}
}

func (p *Protocol) SetChecksumFactory(f security.ChecksumFactory) {
	if f != nil {
		p.newChecksum = f
	}
}

// Reset puts the protocol back to its initial state, the collaborators are dropped.
func (p *Protocol) Reset() {
	switch p.role {
	case RoleServer:
		p.option = OptionDefault
		p.state = StateNone
	default:
		p.option = OptionNone
		p.state = StateWaitSetup
	}
	p.cipher = nil
	p.sequence = nil
	p.checksum = nil
}

func (p *Protocol) Role() Role {
	return p.role
}

func (p *Protocol) Option() Option {
	return p.option
}

func (p *Protocol) SetOption(o Option) {
	p.option = o
}

func (p *Protocol) State() State {
	return p.state
}

func (p *Protocol) SetState(s State) {
	p.state = s
}

func (p *Protocol) Ready() bool {
	return p.state == StateCompleted
}

// Cipher returns the active cipher, nil before a key is installed.
func (p *Protocol) Cipher() security.Cipher {
	return p.cipher
}

// InstallKey replaces the active cipher.
func (p *Protocol) InstallKey(key []byte) error {
	c, err := p.newCipher(key)
	if err != nil {
		return err
	}
	p.cipher = c
	return nil
}

func (p *Protocol) SetupChecksum(seqSeed, crcSeed uint32) {
	p.sequence = NewSequence(seqSeed)
	p.checksum = p.newChecksum(crcSeed)
}

func (p *Protocol) encrypting() bool {
	return p.option.Has(OptionEncryption)
}

func (p *Protocol) checksumming() bool {
	return p.option.Has(OptionChecksum)
}

// FrameLength returns how many bytes follow the size field of a frame.
func (p *Protocol) FrameLength(size packet.Size) (int, error) {
	n := packet.EncryptSize + int(size.DataSize())
	if size.Encrypted() && p.encrypting() {
		if p.cipher == nil {
			return 0, ErrNoCipher
		}
		n = p.cipher.OutputLength(n)
	}
	return n, nil
}

// Encode signs and encrypts a copy of m, m itself is left untouched.
func (p *Protocol) Encode(m *packet.Message) ([]byte, error) {
	out := m.Clone()
	if err := p.sign(out); err != nil {
		return nil, err
	}
	if out.Encrypted() && p.encrypting() {
		if p.cipher == nil {
			return nil, ErrNoCipher
		}
		if err := out.Resize(packet.EncryptOffset + p.cipher.OutputLength(packet.EncryptSize+out.Len())); err != nil {
			return nil, err
		}
		if err := p.cipher.Encrypt(out.Bytes()[packet.EncryptOffset:]); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

// Decode turns the body read after the size field into a validated message.
// body is decrypted in place.
func (p *Protocol) Decode(size packet.Size, body []byte) (*packet.Message, error) {
	if size.Encrypted() && p.encrypting() {
		if p.cipher == nil {
			return nil, ErrNoCipher
		}
		if err := p.cipher.Decrypt(body); err != nil {
			return nil, err
		}
	}
	m, err := packet.FromFrame(size, body)
	if err != nil {
		return nil, err
	}
	if err = p.validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Protocol) sign(m *packet.Message) error {
	if !p.checksumming() {
		return nil
	}
	if p.role == RoleServer {
		m.SetSequence(0)
		m.SetChecksum(0)
		return nil
	}
	if p.sequence == nil || p.checksum == nil {
		return ErrNoChecksum
	}
	m.SetSequence(p.sequence.Next())
	m.SetChecksum(0)
	m.SetChecksum(p.checksum.Compute(m.Bytes()))
	return nil
}

func (p *Protocol) validate(m *packet.Message) error {
	if !p.checksumming() {
		return nil
	}
	if p.role == RoleClient {
		if m.Sequence() != 0 {
			return errors.Wrapf(ErrInvalidSequence, "got %d, want 0", m.Sequence())
		}
		if m.Checksum() != 0 {
			return errors.Wrapf(ErrInvalidCRC, "got %d, want 0", m.Checksum())
		}
		return nil
	}
	if p.sequence == nil || p.checksum == nil {
		return ErrNoChecksum
	}
	if want := p.sequence.Next(); m.Sequence() != want {
		return errors.Wrapf(ErrInvalidSequence, "got %d, want %d", m.Sequence(), want)
	}
	crc := m.Checksum()
	m.SetChecksum(0)
	if want := p.checksum.Compute(m.Bytes()); crc != want {
		return errors.Wrapf(ErrInvalidCRC, "got %d, want %d", crc, want)
	}
	return nil
}

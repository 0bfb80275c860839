package handshake

import (
	"bytes"
	"context"
	"math"

	"github.com/huoshan017/sronet/common"
	"github.com/huoshan017/sronet/packet"
	"github.com/huoshan017/sronet/protocol"
	"github.com/pkg/errors"
)

// ServerService runs the server side of the key exchange for one session.
type ServerService struct {
	salt      [8]byte
	generator uint32
	prime     uint32
	private   uint32
	public    uint32
}

func NewServerService() *ServerService {
	return &ServerService{}
}

func (h *ServerService) Bindings() []common.Binding {
	return []common.Binding{
		common.NewBinding(packet.OpcodeHandshake, h.onHandshake),
		common.NewBinding(packet.OpcodeHandshakeAccept, h.onAccept),
	}
}

// Begin announces the protocol options and the server's half of the key exchange.
func (h *ServerService) Begin(ctx context.Context, s *common.Session) error {
	p := s.Protocol()
	if p.State() != protocol.StateNone {
		return errors.Wrapf(protocol.ErrDistortedHandshake, "begin in state %v", p.State())
	}
	rnd := s.Options().GetRandReader()
	opt := p.Option()

	m := packet.NewWithCapacity(packet.OpcodeHandshake, 37)
	m.WriteUint8(uint8(opt))

	if opt.Has(protocol.OptionEncryption) {
		var key [8]byte
		if err := randBytes(rnd, key[:]); err != nil {
			return err
		}
		if err := p.InstallKey(key[:]); err != nil {
			return err
		}
		m.WriteBytes(key[:])
	}

	if opt.Has(protocol.OptionChecksum) {
		seqSeed, err := randRange(rnd, 0, math.MaxUint8)
		if err != nil {
			return err
		}
		crcSeed, err := randRange(rnd, 0, math.MaxUint8)
		if err != nil {
			return err
		}
		p.SetupChecksum(seqSeed, crcSeed)
		m.WriteUint32(seqSeed)
		m.WriteUint32(crcSeed)
	}

	if opt.Has(protocol.OptionKeyExchange) {
		if err := h.generate(s); err != nil {
			return err
		}
		m.WriteBytes(h.salt[:])
		m.WriteUint32(h.generator)
		m.WriteUint32(h.prime)
		m.WriteUint32(h.public)
		p.SetState(protocol.StateWaitChallenge)
	} else {
		p.SetState(protocol.StateWaitAccept)
	}

	if opt.Has(protocol.OptionKeyChallenge) {
		p.SetState(protocol.StateWaitChallenge)
	}

	return s.Send(m)
}

func (h *ServerService) generate(s *common.Session) error {
	rnd := s.Options().GetRandReader()
	var err error
	if err = randBytes(rnd, h.salt[:]); err != nil {
		return err
	}
	if h.private, err = randRange(rnd, 0, math.MaxInt32); err != nil {
		return err
	}
	if h.generator, err = randRange(rnd, 1, math.MaxInt32); err != nil {
		return err
	}
	if h.prime, err = randRange(rnd, 1, math.MaxInt32); err != nil {
		return err
	}
	h.public = protocol.PowMod(h.generator, h.private, h.prime)
	return nil
}

// onHandshake checks the client's challenge and answers with the server's one.
func (h *ServerService) onHandshake(ctx context.Context, s *common.Session, m *packet.Message) error {
	p := s.Protocol()
	if p.State() != protocol.StateWaitChallenge {
		return errors.Wrapf(protocol.ErrDistortedHandshake, "handshake in state %v", p.State())
	}

	remote, err := m.ReadUint32()
	if err != nil {
		return err
	}
	var challenge [8]byte
	if err = m.ReadBytesTo(challenge[:]); err != nil {
		return err
	}

	secret := protocol.PowMod(remote, h.private, h.prime)

	key := protocol.KeyMaterial(h.public, remote)
	protocol.TransformKey(key[:], secret, byte(secret&3))
	if err = p.InstallKey(key[:]); err != nil {
		return err
	}
	if err = p.Cipher().Decrypt(challenge[:]); err != nil {
		return err
	}

	expected := protocol.KeyMaterial(remote, h.public)
	protocol.TransformKey(expected[:], secret, byte(remote&7))
	if !bytes.Equal(challenge[:], expected[:]) {
		return protocol.ErrInvalidHandshake
	}

	own := protocol.KeyMaterial(h.public, remote)
	protocol.TransformKey(own[:], secret, byte(h.public&7))
	if err = p.Cipher().Encrypt(own[:]); err != nil {
		return err
	}

	protocol.TransformKey(h.salt[:], secret, 3)
	if err = p.InstallKey(h.salt[:]); err != nil {
		return err
	}

	res := packet.NewWithCapacity(packet.OpcodeHandshake, 9)
	res.WriteUint8(uint8(protocol.OptionKeyChallenge))
	res.WriteBytes(own[:])
	p.SetState(protocol.StateWaitAccept)

	return s.Send(res)
}

func (h *ServerService) onAccept(ctx context.Context, s *common.Session, m *packet.Message) error {
	p := s.Protocol()
	if p.State() != protocol.StateWaitAccept {
		return errors.Wrapf(protocol.ErrDistortedHandshake, "accept in state %v", p.State())
	}
	p.SetState(protocol.StateCompleted)
	return nil
}

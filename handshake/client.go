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

// ClientService answers the server's handshake for one session.
type ClientService struct {
	salt         [8]byte
	secret       uint32
	serverPublic uint32
	public       uint32
}

func NewClientService() *ClientService {
	return &ClientService{}
}

func (h *ClientService) Bindings() []common.Binding {
	return []common.Binding{
		common.NewBinding(packet.OpcodeHandshake, h.onHandshake),
		common.NewBinding(packet.OpcodeHandshakeAccept, h.onAccept),
	}
}

func (h *ClientService) onHandshake(ctx context.Context, s *common.Session, m *packet.Message) error {
	p := s.Protocol()

	raw, err := m.ReadUint8()
	if err != nil {
		return err
	}
	opt := protocol.Option(raw)
	if p.Option() == protocol.OptionNone {
		p.SetOption(opt)
	}

	if opt.Has(protocol.OptionEncryption) {
		var key [8]byte
		if err = m.ReadBytesTo(key[:]); err != nil {
			return err
		}
		if err = p.InstallKey(key[:]); err != nil {
			return err
		}
	}

	if opt.Has(protocol.OptionChecksum) {
		seqSeed, err := m.ReadUint32()
		if err != nil {
			return err
		}
		crcSeed, err := m.ReadUint32()
		if err != nil {
			return err
		}
		p.SetupChecksum(seqSeed, crcSeed)
	}

	if opt.Has(protocol.OptionKeyExchange) {
		res, err := h.setup(s, m)
		if err != nil {
			return err
		}
		return s.Send(res)
	}

	if opt.Has(protocol.OptionKeyChallenge) {
		res, err := h.challenge(s, m)
		if err != nil {
			return err
		}
		return s.Send(res)
	}

	if p.State() != protocol.StateWaitSetup {
		return errors.Wrapf(protocol.ErrDistortedHandshake, "plain handshake in state %v", p.State())
	}
	p.SetState(protocol.StateCompleted)
	return s.Send(packet.New(packet.OpcodeHandshakeAccept))
}

func (h *ClientService) setup(s *common.Session, m *packet.Message) (*packet.Message, error) {
	p := s.Protocol()
	if p.State() != protocol.StateWaitSetup {
		return nil, errors.Wrapf(protocol.ErrDistortedHandshake, "setup in state %v", p.State())
	}

	if err := m.ReadBytesTo(h.salt[:]); err != nil {
		return nil, err
	}
	generator, err := m.ReadUint32()
	if err != nil {
		return nil, err
	}
	prime, err := m.ReadUint32()
	if err != nil {
		return nil, err
	}
	if h.serverPublic, err = m.ReadUint32(); err != nil {
		return nil, err
	}
	if prime == 0 {
		return nil, errors.Wrap(protocol.ErrDistortedHandshake, "zero modulus")
	}

	private, err := randRange(s.Options().GetRandReader(), 1, math.MaxInt32)
	if err != nil {
		return nil, err
	}
	h.public = protocol.PowMod(generator, private, prime)
	h.secret = protocol.PowMod(h.serverPublic, private, prime)

	key := protocol.KeyMaterial(h.serverPublic, h.public)
	protocol.TransformKey(key[:], h.secret, byte(h.secret&3))
	if err = p.InstallKey(key[:]); err != nil {
		return nil, err
	}

	challenge := protocol.KeyMaterial(h.public, h.serverPublic)
	protocol.TransformKey(challenge[:], h.secret, byte(h.public&7))
	if err = p.Cipher().Encrypt(challenge[:]); err != nil {
		return nil, err
	}

	res := packet.NewWithCapacity(packet.OpcodeHandshake, 12)
	res.WriteUint32(h.public)
	res.WriteBytes(challenge[:])

	p.SetState(protocol.StateWaitChallenge)
	return res, nil
}

func (h *ClientService) challenge(s *common.Session, m *packet.Message) (*packet.Message, error) {
	p := s.Protocol()
	if p.State() != protocol.StateWaitChallenge {
		return nil, errors.Wrapf(protocol.ErrDistortedHandshake, "challenge in state %v", p.State())
	}

	var remote [8]byte
	if err := m.ReadBytesTo(remote[:]); err != nil {
		return nil, err
	}

	expected := protocol.KeyMaterial(h.serverPublic, h.public)
	protocol.TransformKey(expected[:], h.secret, byte(h.serverPublic&7))
	if err := p.Cipher().Encrypt(expected[:]); err != nil {
		return nil, err
	}
	if !bytes.Equal(remote[:], expected[:]) {
		return nil, protocol.ErrInvalidHandshake
	}

	protocol.TransformKey(h.salt[:], h.secret, 3)
	if err := p.InstallKey(h.salt[:]); err != nil {
		return nil, err
	}

	p.SetState(protocol.StateCompleted)
	return packet.New(packet.OpcodeHandshakeAccept), nil
}

// onAccept never legitimately reaches a client.
func (h *ClientService) onAccept(ctx context.Context, s *common.Session, m *packet.Message) error {
	return errors.Wrap(protocol.ErrDistortedHandshake, "accept sent to client")
}

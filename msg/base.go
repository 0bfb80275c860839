package msg

import (
	"github.com/huoshan017/sronet/common"
	"github.com/huoshan017/sronet/msg/codec"
	"github.com/huoshan017/sronet/packet"
	"github.com/pkg/errors"
)

type IMsgCodec = codec.Codec

var (
	ErrMsgDecode = errors.New("sronet: message payload decode failed")
)

func init() {
	// a bad payload is the application's problem, the connection itself is fine
	common.RegisterNoDisconnectError(ErrMsgDecode)
}

// Pack encodes obj into a message with id. Unencrypted payloads larger than
// one frame become massive, encrypted ones have to fit a frame.
func Pack(c IMsgCodec, id packet.ID, obj any, encrypted bool) (*packet.Message, error) {
	data, err := c.Encode(obj)
	if err != nil {
		return nil, err
	}
	massive := len(data) > packet.DataSize
	if massive && encrypted {
		return nil, errors.Wrapf(common.ErrMessageTooLarge, "encrypted payload of %d bytes", len(data))
	}
	m, err := packet.NewMessage(id, encrypted, massive, len(data))
	if err != nil {
		return nil, err
	}
	m.WriteBytes(data)
	return m, nil
}

// Unpack decodes the bytes after the message cursor into obj.
func Unpack(c IMsgCodec, m *packet.Message, obj any) error {
	data := m.Bytes()[m.Position():]
	if err := c.Decode(data, obj); err != nil {
		return errors.Wrapf(ErrMsgDecode, "%v: %v", m.ID(), err)
	}
	return nil
}

package codec

import (
	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
)

type ProtobufCodec struct{}

func NewProtobufCodec() *ProtobufCodec {
	return &ProtobufCodec{}
}

func (c *ProtobufCodec) Encode(i any) ([]byte, error) {
	m, ok := i.(proto.Message)
	if !ok {
		return nil, errors.Wrapf(ErrNotProtoMessage, "%T", i)
	}
	return proto.Marshal(m)
}

func (c *ProtobufCodec) Decode(d []byte, i any) error {
	m, ok := i.(proto.Message)
	if !ok {
		return errors.Wrapf(ErrNotProtoMessage, "%T", i)
	}
	return proto.Unmarshal(d, m)
}

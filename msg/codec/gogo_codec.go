package codec

import (
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
)

// GogoProtobufCodec serves messages generated by gogo/protobuf.
type GogoProtobufCodec struct{}

func NewGogoProtobufCodec() *GogoProtobufCodec {
	return &GogoProtobufCodec{}
}

func (c *GogoProtobufCodec) Encode(i any) ([]byte, error) {
	m, ok := i.(proto.Message)
	if !ok {
		return nil, errors.Wrapf(ErrNotProtoMessage, "%T", i)
	}
	return proto.Marshal(m)
}

func (c *GogoProtobufCodec) Decode(d []byte, i any) error {
	m, ok := i.(proto.Message)
	if !ok {
		return errors.Wrapf(ErrNotProtoMessage, "%T", i)
	}
	return proto.Unmarshal(d, m)
}

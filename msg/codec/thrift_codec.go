package codec

import (
	thrifter "github.com/thrift-iterator/go"
)

// ThriftCodec encodes structs tagged `thrift:"name,id"` with the binary protocol.
type ThriftCodec struct {
}

func NewThriftCodec() *ThriftCodec {
	return &ThriftCodec{}
}

func (c *ThriftCodec) Encode(i any) ([]byte, error) {
	return thrifter.Marshal(i)
}

func (c *ThriftCodec) Decode(d []byte, i any) error {
	return thrifter.Unmarshal(d, i)
}

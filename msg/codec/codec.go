package codec

import (
	"github.com/pkg/errors"
)

var (
	ErrNotProtoMessage = errors.New("sronet: value is not a protobuf message")
	ErrUnknownCodec    = errors.New("sronet: unknown codec")
)

// Codec turns application values into message payloads and back.
type Codec interface {
	Encode(any) ([]byte, error)
	Decode([]byte, any) error
}

var codecs = map[string]func() Codec{
	"json":     func() Codec { return NewJsonCodec() },
	"gob":      func() Codec { return NewGobCodec() },
	"msgpack":  func() Codec { return NewMsgpackCodec() },
	"protobuf": func() Codec { return NewProtobufCodec() },
	"gogo":     func() Codec { return NewGogoProtobufCodec() },
	"thrift":   func() Codec { return NewThriftCodec() },
}

// ByName returns a codec by name. A "zlib+", "gzip+" or "snappy+" prefix
// compresses the inner codec's output, e.g. "snappy+msgpack".
func ByName(name string) (Codec, error) {
	if typ, inner, ok := splitCompress(name); ok {
		c, err := ByName(inner)
		if err != nil {
			return nil, err
		}
		return NewCompressCodec(typ, c), nil
	}
	f, ok := codecs[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownCodec, "%q", name)
	}
	return f(), nil
}

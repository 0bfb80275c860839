package codec

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/pkg/errors"
)

type CompressType int8

const (
	CompressNone   CompressType = iota
	CompressZlib   CompressType = 1
	CompressGzip   CompressType = 2
	CompressSnappy CompressType = 3
	CompressMax    CompressType = 4
)

var compressNames = map[string]CompressType{
	"zlib":   CompressZlib,
	"gzip":   CompressGzip,
	"snappy": CompressSnappy,
}

func IsValidCompressType(typ CompressType) bool {
	return typ >= CompressNone && typ < CompressMax
}

func (t CompressType) String() string {
	for name, typ := range compressNames {
		if typ == t {
			return name
		}
	}
	return "none"
}

// CompressCodec compresses what its inner codec produces. It keeps no state
// between calls, so one instance may serve every session.
type CompressCodec struct {
	inner Codec
	typ   CompressType
}

func NewCompressCodec(typ CompressType, inner Codec) *CompressCodec {
	return &CompressCodec{inner: inner, typ: typ}
}

func NewSnappyCodec(inner Codec) *CompressCodec {
	return NewCompressCodec(CompressSnappy, inner)
}

func (c *CompressCodec) Type() CompressType {
	return c.typ
}

func (c *CompressCodec) Encode(i any) ([]byte, error) {
	d, err := c.inner.Encode(i)
	if err != nil {
		return nil, err
	}
	return compress(c.typ, d)
}

func (c *CompressCodec) Decode(d []byte, i any) error {
	raw, err := decompress(c.typ, d)
	if err != nil {
		return err
	}
	return c.inner.Decode(raw, i)
}

// splitCompress cuts a "zlib+", "gzip+" or "snappy+" prefix from name
func splitCompress(name string) (CompressType, string, bool) {
	prefix, inner, ok := strings.Cut(name, "+")
	if !ok {
		return CompressNone, name, false
	}
	typ, ok := compressNames[prefix]
	return typ, inner, ok
}

func compress(typ CompressType, data []byte) ([]byte, error) {
	var (
		buf bytes.Buffer
		w   io.WriteCloser
	)
	switch typ {
	case CompressNone:
		return data, nil
	case CompressSnappy:
		return snappy.Encode(nil, data), nil
	case CompressZlib:
		w = zlib.NewWriter(&buf)
	case CompressGzip:
		w = gzip.NewWriter(&buf)
	default:
		return nil, errors.Errorf("sronet: invalid compress type %d", typ)
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

func decompress(typ CompressType, data []byte) ([]byte, error) {
	var (
		r   io.ReadCloser
		err error
	)
	switch typ {
	case CompressNone:
		return data, nil
	case CompressSnappy:
		return snappy.Decode(nil, data)
	case CompressZlib:
		r, err = zlib.NewReader(bytes.NewReader(data))
	case CompressGzip:
		r, err = gzip.NewReader(bytes.NewReader(data))
	default:
		return nil, errors.Errorf("sronet: invalid compress type %d", typ)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer r.Close()
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return raw, nil
}

package codec

import (
	"bytes"
	"encoding/gob"
)

type GobCodec struct{}

func NewGobCodec() *GobCodec {
	return &GobCodec{}
}

func (c GobCodec) Encode(i any) ([]byte, error) {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(i); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func (c GobCodec) Decode(d []byte, i any) error {
	return gob.NewDecoder(bytes.NewReader(d)).Decode(i)
}

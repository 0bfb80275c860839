package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDPacking(t *testing.T) {
	for dir := Direction(0); dir < 4; dir++ {
		for typ := Type(0); typ < 4; typ++ {
			for op := uint16(0); op <= 0xFFF; op++ {
				id := NewID(dir, typ, op)
				if id.Direction() != dir || id.Type() != typ || id.Operation() != op {
					t.Fatalf("NewID(%v, %v, %#x) unpacked to %v", dir, typ, op, id)
				}
			}
		}
	}
}

func TestIDRawRoundTrip(t *testing.T) {
	for raw := 0; raw <= 0xFFFF; raw++ {
		id := ID(raw)
		if back := NewID(id.Direction(), id.Type(), id.Operation()); back != id {
			t.Fatalf("%#04x repacked to %#04x", raw, uint16(back))
		}
	}
}

func TestIDWithKeepsOtherFields(t *testing.T) {
	id := NewID(DirectionAck, TypeGameWorld, 0xABC)

	d := id.WithDirection(DirectionReq)
	assert.Equal(t, DirectionReq, d.Direction())
	assert.Equal(t, TypeGameWorld, d.Type())
	assert.Equal(t, uint16(0xABC), d.Operation())

	ty := id.WithType(TypeFramework)
	assert.Equal(t, DirectionAck, ty.Direction())
	assert.Equal(t, TypeFramework, ty.Type())

	op := id.WithOperation(0xFFFF)
	assert.Equal(t, uint16(0xFFF), op.Operation())
	assert.Equal(t, DirectionAck, op.Direction())
}

func TestReservedOpcodes(t *testing.T) {
	assert.Equal(t, DirectionReq, OpcodeHandshake.Direction())
	assert.Equal(t, TypeNetEngine, OpcodeHandshake.Type())
	assert.Equal(t, DirectionAck, OpcodeHandshakeAccept.Direction())
	assert.Equal(t, TypeNetEngine, OpcodeHandshakeAccept.Type())
	assert.True(t, OpcodeMassive.IsReserved())
	assert.False(t, NewID(DirectionReq, TypeGameWorld, 1).IsReserved())
	assert.Equal(t, "[5000] [Req] [NetEngine] [0000]", OpcodeHandshake.String())
}

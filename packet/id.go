package packet

import "fmt"

// Direction is the part of an ID telling who sends the message.
type Direction uint8

const (
	DirectionNone Direction = iota // one way message
	DirectionReq  Direction = 1    // client request
	DirectionAck  Direction = 2    // server acknowledge
)

func (d Direction) String() string {
	switch d {
	case DirectionNone:
		return "NuN"
	case DirectionReq:
		return "Req"
	case DirectionAck:
		return "Ack"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Type is the part of an ID telling what the message is used for.
type Type uint8

const (
	TypeNone      Type = iota
	TypeNetEngine Type = 1 // protocol messages (handshake, accept)
	TypeFramework Type = 2 // gateway and framework messages
	TypeGameWorld Type = 3 // game messages (movement, action ...)
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "None"
	case TypeNetEngine:
		return "NetEngine"
	case TypeFramework:
		return "Framework"
	case TypeGameWorld:
		return "GameWorld"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// (MSB)                                                                       (LSB)
// | 15 | 14 | 13 | 12 | 11 | 10 | 09 | 08 | 07 | 06 | 05 | 04 | 03 | 02 | 01 | 00 |
// |   DIR   |   TYPE  |                       OPERATION                           |
const (
	operationSize   = 12
	operationOffset = 0
	operationMask   = ((1 << operationSize) - 1) << operationOffset

	typeSize   = 2
	typeOffset = operationOffset + operationSize
	typeMask   = ((1 << typeSize) - 1) << typeOffset

	directionSize   = 2
	directionOffset = typeOffset + typeSize
	directionMask   = ((1 << directionSize) - 1) << directionOffset
)

// ID identifies a message, it is also called the opcode. Two IDs are equal when their raw values are.
type ID uint16

// Reserved opcodes.
const (
	OpcodeHandshake       ID = 0x5000
	OpcodeHandshakeAccept ID = 0x9000
	OpcodeMassive         ID = 0x600D
)

func NewID(dir Direction, typ Type, op uint16) ID {
	return ID(0).WithDirection(dir).WithType(typ).WithOperation(op)
}

func (id ID) Direction() Direction {
	return Direction((uint16(id) & directionMask) >> directionOffset)
}

func (id ID) Type() Type {
	return Type((uint16(id) & typeMask) >> typeOffset)
}

func (id ID) Operation() uint16 {
	return (uint16(id) & operationMask) >> operationOffset
}

func (id ID) WithDirection(dir Direction) ID {
	return ID(uint16(id)&^directionMask | (uint16(dir)<<directionOffset)&directionMask)
}

func (id ID) WithType(typ Type) ID {
	return ID(uint16(id)&^typeMask | (uint16(typ)<<typeOffset)&typeMask)
}

func (id ID) WithOperation(op uint16) ID {
	return ID(uint16(id)&^operationMask | (op<<operationOffset)&operationMask)
}

// IsReserved reports whether the id is one of the protocol's own opcodes.
func (id ID) IsReserved() bool {
	return id == OpcodeHandshake || id == OpcodeHandshakeAccept || id == OpcodeMassive
}

func (id ID) String() string {
	return fmt.Sprintf("[%04X] [%v] [%v] [%04X]", uint16(id), id.Direction(), id.Type(), id.Operation())
}

package wasm

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ConstExpr is one of the handful of instructions legal in an init
// expression: a numeric const or a get of an imported immutable global.
type ConstExpr struct {
	Opcode Opcode
	I32    int32
	I64    int64
	F32    float32
	F64    float64
	Index  uint32 // global index, for OpGlobalGet
}

func readConstExpr(r byteReader) (ConstExpr, error) {
	opByte, err := r.ReadByte()
	if err != nil {
		return ConstExpr{}, fmt.Errorf("read const expr opcode: %w", err)
	}
	op := Opcode(opByte)
	var ce ConstExpr
	ce.Opcode = op
	switch op {
	case OpI32Const:
		v, _, err := readVarInt32(r)
		if err != nil {
			return ConstExpr{}, fmt.Errorf("read i32.const operand: %w", err)
		}
		ce.I32 = v
	case OpI64Const:
		v, _, err := readVarInt64(r)
		if err != nil {
			return ConstExpr{}, fmt.Errorf("read i64.const operand: %w", err)
		}
		ce.I64 = v
	case OpF32Const:
		v, err := readFloat32(r)
		if err != nil {
			return ConstExpr{}, err
		}
		ce.F32 = v
	case OpF64Const:
		v, err := readFloat64(r)
		if err != nil {
			return ConstExpr{}, err
		}
		ce.F64 = v
	case OpGlobalGet:
		idx, _, err := readVarUint32(r)
		if err != nil {
			return ConstExpr{}, fmt.Errorf("read global.get index: %w", err)
		}
		ce.Index = idx
	default:
		return ConstExpr{}, &DecodeError{Reason: fmt.Sprintf("opcode 0x%x is not legal in a constant expression", opByte)}
	}
	end, err := r.ReadByte()
	if err != nil {
		return ConstExpr{}, fmt.Errorf("read const expr terminator: %w", err)
	}
	if Opcode(end) != OpEnd {
		return ConstExpr{}, &DecodeError{Reason: "constant expression must be a single instruction terminated by end"}
	}
	return ce, nil
}

func readFloat32(r byteReader) (float32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("read f32 bytes: %w", err)
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[:])), nil
}

func readFloat64(r byteReader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("read f64 bytes: %w", err)
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

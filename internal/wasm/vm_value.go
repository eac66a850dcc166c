package wasm

import "math"

// Value is a single typed Wasm value at the embedder boundary. Internally
// the interpreter works with raw uint64 bit patterns on the operand stack;
// Value exists only for the Host Interface and the embedder API (§4.5, §6),
// where callers need to know a result's type rather than just its bits.
type Value struct {
	Type ValueType
	bits uint64
}

func I32Value(v int32) Value  { return Value{Type: ValueTypeI32, bits: uint64(uint32(v))} }
func I64Value(v int64) Value  { return Value{Type: ValueTypeI64, bits: uint64(v)} }
func F32Value(v float32) Value { return Value{Type: ValueTypeF32, bits: uint64(f32bits(v))} }
func F64Value(v float64) Value { return Value{Type: ValueTypeF64, bits: f64bits(v)} }

func (v Value) I32() int32     { return int32(uint32(v.bits)) }
func (v Value) I64() int64     { return int64(v.bits) }
func (v Value) F32() float32   { return f32frombits(uint32(v.bits)) }
func (v Value) F64() float64   { return f64frombits(v.bits) }
func (v Value) Bits() uint64   { return v.bits }

func valueFromBits(t ValueType, bits uint64) Value { return Value{Type: t, bits: bits} }

// ValueFromBits is the embedder-facing form of valueFromBits, used by
// callers (e.g. the CLI) that have a raw result bit pattern and the export's
// declared result type and need to print or inspect it as a Value.
func ValueFromBits(t ValueType, bits uint64) Value { return valueFromBits(t, bits) }

func f32bits(v float32) uint32      { return math.Float32bits(v) }
func f32frombits(b uint32) float32  { return math.Float32frombits(b) }
func f64bits(v float64) uint64      { return math.Float64bits(v) }
func f64frombits(b uint64) float64  { return math.Float64frombits(b) }

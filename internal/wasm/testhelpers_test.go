package wasm

import (
	"encoding/binary"
	"math"
)

// The helpers in this file hand-assemble minimal Wasm binaries byte by byte,
// the same way the decoder consumes them, so the decoder/validator/
// interpreter can be exercised end to end without a textual-format
// front end.

func uleb(n uint64) []byte {
	var out []byte
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

func sleb(n int64) []byte {
	var out []byte
	more := true
	for more {
		b := byte(n & 0x7f)
		n >>= 7
		if (n == 0 && b&0x40 == 0) || (n == -1 && b&0x40 != 0) {
			more = false
		} else {
			b |= 0x80
		}
		out = append(out, b)
	}
	return out
}

func f32bytes(v float32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
	return buf[:]
}

func f64bytes(v float64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return buf[:]
}

func encName(s string) []byte {
	return append(uleb(uint64(len(s))), s...)
}

func encSection(id SectionID, body []byte) []byte {
	out := []byte{byte(id)}
	out = append(out, uleb(uint64(len(body)))...)
	out = append(out, body...)
	return out
}

func encVec(n int) []byte { return uleb(uint64(n)) }

func encFuncType(params, results []ValueType) []byte {
	b := []byte{funcTypeTag}
	b = append(b, encVec(len(params))...)
	for _, p := range params {
		b = append(b, byte(p))
	}
	b = append(b, encVec(len(results))...)
	for _, r := range results {
		b = append(b, byte(r))
	}
	return b
}

// typeSection encodes the SectionType body for a vector of function types.
func typeSection(types ...*FuncType) []byte {
	body := encVec(len(types))
	for _, t := range types {
		body = append(body, encFuncType(t.Params, t.Results)...)
	}
	return encSection(SectionType, body)
}

func functionSection(typeIdx ...uint32) []byte {
	body := encVec(len(typeIdx))
	for _, idx := range typeIdx {
		body = append(body, uleb(uint64(idx))...)
	}
	return encSection(SectionFunction, body)
}

// encFunc builds one code-section entry: declared locals (no grouping, one
// group per local for simplicity) followed by the body instructions as
// given; instrs must include the body's terminating `end`.
func encFunc(locals []ValueType, instrs ...byte) []byte {
	var body []byte
	body = append(body, encVec(len(locals))...)
	for _, t := range locals {
		body = append(body, uleb(1)...)
		body = append(body, byte(t))
	}
	body = append(body, instrs...)

	out := uleb(uint64(len(body)))
	return append(out, body...)
}

func codeSection(funcs ...[]byte) []byte {
	body := encVec(len(funcs))
	for _, f := range funcs {
		body = append(body, f...)
	}
	return encSection(SectionCode, body)
}

const (
	exportKindFunc   = byte(ExportKindFunc)
	exportKindTable  = byte(ExportKindTable)
	exportKindMem    = byte(ExportKindMem)
	exportKindGlobal = byte(ExportKindGlobal)
)

func exportSection(entries ...struct {
	Name string
	Kind byte
	Idx  uint32
}) []byte {
	body := encVec(len(entries))
	for _, e := range entries {
		body = append(body, encName(e.Name)...)
		body = append(body, e.Kind)
		body = append(body, uleb(uint64(e.Idx))...)
	}
	return encSection(SectionExport, body)
}

func exportFunc(name string, idx uint32) struct {
	Name string
	Kind byte
	Idx  uint32
} {
	return struct {
		Name string
		Kind byte
		Idx  uint32
	}{Name: name, Kind: exportKindFunc, Idx: idx}
}

func memorySection(min uint32, max *uint32) []byte {
	var body []byte
	body = append(body, encVec(1)...)
	if max == nil {
		body = append(body, 0x00)
		body = append(body, uleb(uint64(min))...)
	} else {
		body = append(body, 0x01)
		body = append(body, uleb(uint64(min))...)
		body = append(body, uleb(uint64(*max))...)
	}
	return encSection(SectionMemory, body)
}

func tableSection(min uint32, max *uint32) []byte {
	var body []byte
	body = append(body, encVec(1)...)
	body = append(body, funcRefTag)
	if max == nil {
		body = append(body, 0x00)
		body = append(body, uleb(uint64(min))...)
	} else {
		body = append(body, 0x01)
		body = append(body, uleb(uint64(min))...)
		body = append(body, uleb(uint64(*max))...)
	}
	return encSection(SectionTable, body)
}

// elementSection encodes a single active element segment targeting table 0,
// with an i32.const offset initializer expression.
func elementSection(offset int32, funcIdxs ...uint32) []byte {
	var body []byte
	body = append(body, encVec(1)...)
	body = append(body, uleb(0)...) // table index 0
	body = append(body, byte(OpI32Const))
	body = append(body, sleb(int64(offset))...)
	body = append(body, byte(OpEnd))
	body = append(body, encVec(len(funcIdxs))...)
	for _, idx := range funcIdxs {
		body = append(body, uleb(uint64(idx))...)
	}
	return encSection(SectionElement, body)
}

func buildModule(sections ...[]byte) []byte {
	out := append([]byte{}, magicNumber[:]...)
	out = append(out, version[:]...)
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

// --- common instruction fragments ---

func encI32Const(v int32) []byte { return append([]byte{byte(OpI32Const)}, sleb(int64(v))...) }
func encI64Const(v int64) []byte { return append([]byte{byte(OpI64Const)}, sleb(v)...) }
func encF32Const(v float32) []byte {
	return append([]byte{byte(OpF32Const)}, f32bytes(v)...)
}
func encF64Const(v float64) []byte {
	return append([]byte{byte(OpF64Const)}, f64bytes(v)...)
}
func encLocalGet(idx uint32) []byte { return append([]byte{byte(OpLocalGet)}, uleb(uint64(idx))...) }
func encLocalSet(idx uint32) []byte { return append([]byte{byte(OpLocalSet)}, uleb(uint64(idx))...) }
func encCall(idx uint32) []byte     { return append([]byte{byte(OpCall)}, uleb(uint64(idx))...) }
func encCallIndirect(typeIdx uint32) []byte {
	b := append([]byte{byte(OpCallIndirect)}, uleb(uint64(typeIdx))...)
	return append(b, 0x00) // reserved table index
}
func encBr(depth uint32) []byte   { return append([]byte{byte(OpBr)}, uleb(uint64(depth))...) }
func encBrIf(depth uint32) []byte { return append([]byte{byte(OpBrIf)}, uleb(uint64(depth))...) }

// opBlock/opLoop/opIf open a block with the given single-value result type
// (pass 0 for the empty block type).
func opBlockWithResult(op Opcode, result ValueType) []byte {
	if result == 0 {
		return []byte{byte(op), 0x40}
	}
	return []byte{byte(op), byte(result)}
}

func concatBytes(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

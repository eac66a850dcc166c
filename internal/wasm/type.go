package wasm

import (
	"fmt"
	"strings"
)

const funcTypeTag = 0x60

// FuncType is the signature of a function: an ordered parameter list and an
// ordered result list (at most one result in core 1.0).
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

func (t *FuncType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range t.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(") -> (")
	for i, r := range t.Results {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(r.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (t *FuncType) equals(o *FuncType) bool {
	return sameSignature(t.Params, o.Params) && sameSignature(t.Results, o.Results)
}

func readFuncType(r byteReader) (*FuncType, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read func type tag: %w", err)
	}
	if tag != funcTypeTag {
		return nil, &DecodeError{Section: "type", Reason: fmt.Sprintf("expected func type tag 0x60, got 0x%x", tag)}
	}
	params, err := readValueTypes(r)
	if err != nil {
		return nil, fmt.Errorf("read func type params: %w", err)
	}
	results, err := readValueTypes(r)
	if err != nil {
		return nil, fmt.Errorf("read func type results: %w", err)
	}
	if len(results) > 1 {
		return nil, &DecodeError{Section: "type", Reason: "multi-value results are not supported in core 1.0"}
	}
	return &FuncType{Params: params, Results: results}, nil
}

// Limits bounds the size of a table or memory: Min is mandatory, Max is
// optional (nil means unbounded, subject to the implementation ceiling).
type Limits struct {
	Min uint32
	Max *uint32
}

func readLimits(r byteReader) (Limits, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return Limits{}, fmt.Errorf("read limits kind: %w", err)
	}
	min, _, err := readVarUint32(r)
	if err != nil {
		return Limits{}, fmt.Errorf("read limits min: %w", err)
	}
	switch kind {
	case 0x00:
		return Limits{Min: min}, nil
	case 0x01:
		max, _, err := readVarUint32(r)
		if err != nil {
			return Limits{}, fmt.Errorf("read limits max: %w", err)
		}
		return Limits{Min: min, Max: &max}, nil
	default:
		return Limits{}, &DecodeError{Reason: fmt.Sprintf("invalid limits kind 0x%x", kind)}
	}
}

const funcRefTag = 0x70

// TableType describes a table: element type (always funcref in core 1.0)
// and size limits, measured in elements.
type TableType struct {
	ElemType byte
	Limits   Limits
}

func readTableType(r byteReader) (TableType, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return TableType{}, fmt.Errorf("read table elem type: %w", err)
	}
	if tag != funcRefTag {
		return TableType{}, &DecodeError{Reason: fmt.Sprintf("unsupported table element type 0x%x", tag)}
	}
	lim, err := readLimits(r)
	if err != nil {
		return TableType{}, err
	}
	return TableType{ElemType: tag, Limits: lim}, nil
}

// MemoryType describes a linear memory's size limits, measured in 64 KiB
// pages.
type MemoryType = Limits

func readMemoryType(r byteReader) (MemoryType, error) {
	lim, err := readLimits(r)
	if err != nil {
		return Limits{}, err
	}
	if lim.Min > MaxPages || (lim.Max != nil && *lim.Max > MaxPages) {
		return Limits{}, &DecodeError{Reason: "memory limits exceed the maximum of 65536 pages"}
	}
	return lim, nil
}

// GlobalType describes a global variable's value type and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

func readGlobalType(r byteReader) (GlobalType, error) {
	vt, err := readValueType(r)
	if err != nil {
		return GlobalType{}, err
	}
	m, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, fmt.Errorf("read global mutability: %w", err)
	}
	switch m {
	case 0x00:
		return GlobalType{ValType: vt, Mutable: false}, nil
	case 0x01:
		return GlobalType{ValType: vt, Mutable: true}, nil
	default:
		return GlobalType{}, &DecodeError{Reason: fmt.Sprintf("invalid global mutability byte 0x%x", m)}
	}
}

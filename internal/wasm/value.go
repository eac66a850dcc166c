package wasm

import "fmt"

// ValueType is one of the four numeric types Wasm core 1.0 operates on.
type ValueType byte

const (
	ValueTypeI32 ValueType = 0x7f
	ValueTypeI64 ValueType = 0x7e
	ValueTypeF32 ValueType = 0x7d
	ValueTypeF64 ValueType = 0x7c
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	default:
		return fmt.Sprintf("unknown(0x%x)", byte(v))
	}
}

func readValueType(r byteReader) (ValueType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("read value type: %w", err)
	}
	switch ValueType(b) {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return ValueType(b), nil
	default:
		return 0, &DecodeError{Reason: fmt.Sprintf("invalid value type byte 0x%x", b)}
	}
}

func readValueTypes(r byteReader) ([]ValueType, error) {
	n, _, err := readVarUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read value types count: %w", err)
	}
	types := make([]ValueType, n)
	for i := range types {
		vt, err := readValueType(r)
		if err != nil {
			return nil, err
		}
		types[i] = vt
	}
	return types, nil
}

func sameSignature(a, b []ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

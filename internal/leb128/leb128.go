// Package leb128 implements the LEB128 variable-length integer encoding used
// throughout the Wasm binary format, rejecting encodings that do not fit the
// declared bit width (the canonical-encoding rule required by validation).
package leb128

import (
	"fmt"
	"io"
)

// DecodeUint32 reads an unsigned LEB128 value encoding at most 32 bits.
func DecodeUint32(r io.ByteReader) (uint32, uint64, error) {
	v, n, err := decodeUint(r, 32)
	return uint32(v), n, err
}

// DecodeUint64 reads an unsigned LEB128 value encoding at most 64 bits.
func DecodeUint64(r io.ByteReader) (uint64, uint64, error) {
	return decodeUint(r, 64)
}

// DecodeInt32 reads a signed LEB128 value encoding at most 32 bits.
func DecodeInt32(r io.ByteReader) (int32, uint64, error) {
	v, n, err := decodeInt(r, 32)
	return int32(v), n, err
}

// DecodeInt64 reads a signed LEB128 value encoding at most 64 bits.
func DecodeInt64(r io.ByteReader) (int64, uint64, error) {
	return decodeInt(r, 64)
}

// DecodeInt33AsInt64 reads a signed LEB128 value encoding at most 33 bits,
// the width used by block-type immediates (s33).
func DecodeInt33AsInt64(r io.ByteReader) (int64, uint64, error) {
	return decodeInt(r, 33)
}

func decodeUint(r io.ByteReader, width uint) (uint64, uint64, error) {
	var result uint64
	var shift uint
	var n uint64
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, n, fmt.Errorf("leb128: unexpected EOF reading unsigned integer: %w", err)
		}
		n++
		if n > uint64((width+6)/7) {
			return 0, n, fmt.Errorf("leb128: %d-bit unsigned integer encoding longer than %d bytes", width, (width+6)/7)
		}
		low := uint64(b & 0x7f)
		if shift < 64 {
			result |= low << shift
		}
		shift += 7
		if b&0x80 == 0 {
			// the final byte may not set bits at or above the declared
			// width (checked for widths below 64).
			if width < 64 && (result>>width) != 0 {
				return 0, n, fmt.Errorf("leb128: %d-bit unsigned value overflows declared width", width)
			}
			break
		}
	}
	if width < 64 {
		result &= (uint64(1) << width) - 1
	}
	return result, n, nil
}

func decodeInt(r io.ByteReader, width uint) (int64, uint64, error) {
	var result int64
	var shift uint
	var n uint64
	var b byte
	for {
		var err error
		b, err = r.ReadByte()
		if err != nil {
			return 0, n, fmt.Errorf("leb128: unexpected EOF reading signed integer: %w", err)
		}
		n++
		if n > uint64((width+6)/7) {
			return 0, n, fmt.Errorf("leb128: %d-bit signed integer encoding longer than %d bytes", width, (width+6)/7)
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && (b&0x40) != 0 {
		result |= -1 << shift
	}
	if width < 64 {
		top := int64(1) << (width - 1)
		if result >= top || result < -top {
			return 0, n, fmt.Errorf("leb128: %d-bit signed value %d out of range", width, result)
		}
	}
	return result, n, nil
}

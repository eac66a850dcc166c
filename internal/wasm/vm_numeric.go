package wasm

import (
	"math"
	"math/bits"

	"github.com/skanehira/chibiwasm/internal/moremath"
)

func registerNumericOps() {
	dispatch[OpI32Const] = opI32Const
	dispatch[OpI64Const] = opI64Const
	dispatch[OpF32Const] = opF32Const
	dispatch[OpF64Const] = opF64Const

	registerIntOps()
	registerFloatOps()
	registerConversionOps()
}

func opI32Const(m *vm) error {
	v, _, err := readVarInt32(m.top().code)
	if err != nil {
		return err
	}
	m.push(uint64(uint32(v)))
	return nil
}

func opI64Const(m *vm) error {
	v, _, err := readVarInt64(m.top().code)
	if err != nil {
		return err
	}
	m.push(uint64(v))
	return nil
}

func opF32Const(m *vm) error {
	v, err := readFloat32(m.top().code)
	if err != nil {
		return err
	}
	m.push(uint64(f32bits(v)))
	return nil
}

func opF64Const(m *vm) error {
	v, err := readFloat64(m.top().code)
	if err != nil {
		return err
	}
	m.push(f64bits(v))
	return nil
}

// --- stack helpers for the typed arithmetic below ---

func popI32(m *vm) int32   { return int32(uint32(m.pop())) }
func popU32(m *vm) uint32  { return uint32(m.pop()) }
func popI64(m *vm) int64   { return int64(m.pop()) }
func popU64(m *vm) uint64  { return m.pop() }
func popF32(m *vm) float32 { return f32frombits(uint32(m.pop())) }
func popF64(m *vm) float64 { return f64frombits(m.pop()) }

func pushI32(m *vm, v int32)   { m.push(uint64(uint32(v))) }
func pushU32(m *vm, v uint32)  { m.push(uint64(v)) }
func pushI64(m *vm, v int64)   { m.push(uint64(v)) }
func pushU64(m *vm, v uint64)  { m.push(v) }
func pushF32(m *vm, v float32) { m.push(uint64(f32bits(v))) }
func pushF64(m *vm, v float64) { m.push(f64bits(v)) }
func pushBool(m *vm, b bool) {
	if b {
		m.push(1)
	} else {
		m.push(0)
	}
}

func registerIntOps() {
	// i32 comparisons
	dispatch[OpI32Eqz] = func(m *vm) error { pushBool(m, popI32(m) == 0); return nil }
	dispatch[OpI32Eq] = func(m *vm) error { b, a := popI32(m), popI32(m); pushBool(m, a == b); return nil }
	dispatch[OpI32Ne] = func(m *vm) error { b, a := popI32(m), popI32(m); pushBool(m, a != b); return nil }
	dispatch[OpI32LtS] = func(m *vm) error { b, a := popI32(m), popI32(m); pushBool(m, a < b); return nil }
	dispatch[OpI32LtU] = func(m *vm) error { b, a := popU32(m), popU32(m); pushBool(m, a < b); return nil }
	dispatch[OpI32GtS] = func(m *vm) error { b, a := popI32(m), popI32(m); pushBool(m, a > b); return nil }
	dispatch[OpI32GtU] = func(m *vm) error { b, a := popU32(m), popU32(m); pushBool(m, a > b); return nil }
	dispatch[OpI32LeS] = func(m *vm) error { b, a := popI32(m), popI32(m); pushBool(m, a <= b); return nil }
	dispatch[OpI32LeU] = func(m *vm) error { b, a := popU32(m), popU32(m); pushBool(m, a <= b); return nil }
	dispatch[OpI32GeS] = func(m *vm) error { b, a := popI32(m), popI32(m); pushBool(m, a >= b); return nil }
	dispatch[OpI32GeU] = func(m *vm) error { b, a := popU32(m), popU32(m); pushBool(m, a >= b); return nil }

	// i64 comparisons
	dispatch[OpI64Eqz] = func(m *vm) error { pushBool(m, popI64(m) == 0); return nil }
	dispatch[OpI64Eq] = func(m *vm) error { b, a := popI64(m), popI64(m); pushBool(m, a == b); return nil }
	dispatch[OpI64Ne] = func(m *vm) error { b, a := popI64(m), popI64(m); pushBool(m, a != b); return nil }
	dispatch[OpI64LtS] = func(m *vm) error { b, a := popI64(m), popI64(m); pushBool(m, a < b); return nil }
	dispatch[OpI64LtU] = func(m *vm) error { b, a := popU64(m), popU64(m); pushBool(m, a < b); return nil }
	dispatch[OpI64GtS] = func(m *vm) error { b, a := popI64(m), popI64(m); pushBool(m, a > b); return nil }
	dispatch[OpI64GtU] = func(m *vm) error { b, a := popU64(m), popU64(m); pushBool(m, a > b); return nil }
	dispatch[OpI64LeS] = func(m *vm) error { b, a := popI64(m), popI64(m); pushBool(m, a <= b); return nil }
	dispatch[OpI64LeU] = func(m *vm) error { b, a := popU64(m), popU64(m); pushBool(m, a <= b); return nil }
	dispatch[OpI64GeS] = func(m *vm) error { b, a := popI64(m), popI64(m); pushBool(m, a >= b); return nil }
	dispatch[OpI64GeU] = func(m *vm) error { b, a := popU64(m), popU64(m); pushBool(m, a >= b); return nil }

	// i32 arithmetic
	dispatch[OpI32Clz] = func(m *vm) error { pushI32(m, int32(bits.LeadingZeros32(uint32(popI32(m))))); return nil }
	dispatch[OpI32Ctz] = func(m *vm) error { pushI32(m, int32(bits.TrailingZeros32(uint32(popI32(m))))); return nil }
	dispatch[OpI32Popcnt] = func(m *vm) error { pushI32(m, int32(bits.OnesCount32(uint32(popI32(m))))); return nil }
	dispatch[OpI32Add] = func(m *vm) error { b, a := popU32(m), popU32(m); pushU32(m, a+b); return nil }
	dispatch[OpI32Sub] = func(m *vm) error { b, a := popU32(m), popU32(m); pushU32(m, a-b); return nil }
	dispatch[OpI32Mul] = func(m *vm) error { b, a := popU32(m), popU32(m); pushU32(m, a*b); return nil }
	dispatch[OpI32DivS] = opI32DivS
	dispatch[OpI32DivU] = opI32DivU
	dispatch[OpI32RemS] = opI32RemS
	dispatch[OpI32RemU] = opI32RemU
	dispatch[OpI32And] = func(m *vm) error { b, a := popU32(m), popU32(m); pushU32(m, a&b); return nil }
	dispatch[OpI32Or] = func(m *vm) error { b, a := popU32(m), popU32(m); pushU32(m, a|b); return nil }
	dispatch[OpI32Xor] = func(m *vm) error { b, a := popU32(m), popU32(m); pushU32(m, a^b); return nil }
	dispatch[OpI32Shl] = func(m *vm) error { b, a := popU32(m), popU32(m); pushU32(m, a<<(b%32)); return nil }
	dispatch[OpI32ShrS] = func(m *vm) error { b, a := popU32(m), popI32(m); pushI32(m, a>>(b%32)); return nil }
	dispatch[OpI32ShrU] = func(m *vm) error { b, a := popU32(m), popU32(m); pushU32(m, a>>(b%32)); return nil }
	dispatch[OpI32Rotl] = func(m *vm) error { b, a := popU32(m), popU32(m); pushU32(m, bits.RotateLeft32(a, int(b))); return nil }
	dispatch[OpI32Rotr] = func(m *vm) error { b, a := popU32(m), popU32(m); pushU32(m, bits.RotateLeft32(a, -int(b))); return nil }

	// i64 arithmetic
	dispatch[OpI64Clz] = func(m *vm) error { pushI64(m, int64(bits.LeadingZeros64(uint64(popI64(m))))); return nil }
	dispatch[OpI64Ctz] = func(m *vm) error { pushI64(m, int64(bits.TrailingZeros64(uint64(popI64(m))))); return nil }
	dispatch[OpI64Popcnt] = func(m *vm) error { pushI64(m, int64(bits.OnesCount64(uint64(popI64(m))))); return nil }
	dispatch[OpI64Add] = func(m *vm) error { b, a := popU64(m), popU64(m); pushU64(m, a+b); return nil }
	dispatch[OpI64Sub] = func(m *vm) error { b, a := popU64(m), popU64(m); pushU64(m, a-b); return nil }
	dispatch[OpI64Mul] = func(m *vm) error { b, a := popU64(m), popU64(m); pushU64(m, a*b); return nil }
	dispatch[OpI64DivS] = opI64DivS
	dispatch[OpI64DivU] = opI64DivU
	dispatch[OpI64RemS] = opI64RemS
	dispatch[OpI64RemU] = opI64RemU
	dispatch[OpI64And] = func(m *vm) error { b, a := popU64(m), popU64(m); pushU64(m, a&b); return nil }
	dispatch[OpI64Or] = func(m *vm) error { b, a := popU64(m), popU64(m); pushU64(m, a|b); return nil }
	dispatch[OpI64Xor] = func(m *vm) error { b, a := popU64(m), popU64(m); pushU64(m, a^b); return nil }
	dispatch[OpI64Shl] = func(m *vm) error { b, a := popU64(m), popU64(m); pushU64(m, a<<(b%64)); return nil }
	dispatch[OpI64ShrS] = func(m *vm) error { b, a := popU64(m), popI64(m); pushI64(m, a>>(b%64)); return nil }
	dispatch[OpI64ShrU] = func(m *vm) error { b, a := popU64(m), popU64(m); pushU64(m, a>>(b%64)); return nil }
	dispatch[OpI64Rotl] = func(m *vm) error { b, a := popU64(m), popU64(m); pushU64(m, bits.RotateLeft64(a, int(b))); return nil }
	dispatch[OpI64Rotr] = func(m *vm) error { b, a := popU64(m), popU64(m); pushU64(m, bits.RotateLeft64(a, -int(b))); return nil }
}

func opI32DivS(m *vm) error {
	b, a := popI32(m), popI32(m)
	if b == 0 {
		return newTrap(TrapIntegerDivideByZero, "i32.div_s by zero")
	}
	if a == math.MinInt32 && b == -1 {
		return newTrap(TrapIntegerOverflow, "i32.div_s overflow")
	}
	pushI32(m, a/b)
	return nil
}

func opI32DivU(m *vm) error {
	b, a := popU32(m), popU32(m)
	if b == 0 {
		return newTrap(TrapIntegerDivideByZero, "i32.div_u by zero")
	}
	pushU32(m, a/b)
	return nil
}

func opI32RemS(m *vm) error {
	b, a := popI32(m), popI32(m)
	if b == 0 {
		return newTrap(TrapIntegerDivideByZero, "i32.rem_s by zero")
	}
	if a == math.MinInt32 && b == -1 {
		pushI32(m, 0) // INT_MIN % -1 does not overflow-trap; result is 0
		return nil
	}
	pushI32(m, a%b)
	return nil
}

func opI32RemU(m *vm) error {
	b, a := popU32(m), popU32(m)
	if b == 0 {
		return newTrap(TrapIntegerDivideByZero, "i32.rem_u by zero")
	}
	pushU32(m, a%b)
	return nil
}

func opI64DivS(m *vm) error {
	b, a := popI64(m), popI64(m)
	if b == 0 {
		return newTrap(TrapIntegerDivideByZero, "i64.div_s by zero")
	}
	if a == math.MinInt64 && b == -1 {
		return newTrap(TrapIntegerOverflow, "i64.div_s overflow")
	}
	pushI64(m, a/b)
	return nil
}

func opI64DivU(m *vm) error {
	b, a := popU64(m), popU64(m)
	if b == 0 {
		return newTrap(TrapIntegerDivideByZero, "i64.div_u by zero")
	}
	pushU64(m, a/b)
	return nil
}

func opI64RemS(m *vm) error {
	b, a := popI64(m), popI64(m)
	if b == 0 {
		return newTrap(TrapIntegerDivideByZero, "i64.rem_s by zero")
	}
	if a == math.MinInt64 && b == -1 {
		pushI64(m, 0)
		return nil
	}
	pushI64(m, a%b)
	return nil
}

func opI64RemU(m *vm) error {
	b, a := popU64(m), popU64(m)
	if b == 0 {
		return newTrap(TrapIntegerDivideByZero, "i64.rem_u by zero")
	}
	pushU64(m, a%b)
	return nil
}

func registerFloatOps() {
	// f32 comparisons (any NaN operand => false, except ne => true)
	dispatch[OpF32Eq] = func(m *vm) error { b, a := popF32(m), popF32(m); pushBool(m, a == b); return nil }
	dispatch[OpF32Ne] = func(m *vm) error { b, a := popF32(m), popF32(m); pushBool(m, a != b); return nil }
	dispatch[OpF32Lt] = func(m *vm) error { b, a := popF32(m), popF32(m); pushBool(m, a < b); return nil }
	dispatch[OpF32Gt] = func(m *vm) error { b, a := popF32(m), popF32(m); pushBool(m, a > b); return nil }
	dispatch[OpF32Le] = func(m *vm) error { b, a := popF32(m), popF32(m); pushBool(m, a <= b); return nil }
	dispatch[OpF32Ge] = func(m *vm) error { b, a := popF32(m), popF32(m); pushBool(m, a >= b); return nil }

	dispatch[OpF64Eq] = func(m *vm) error { b, a := popF64(m), popF64(m); pushBool(m, a == b); return nil }
	dispatch[OpF64Ne] = func(m *vm) error { b, a := popF64(m), popF64(m); pushBool(m, a != b); return nil }
	dispatch[OpF64Lt] = func(m *vm) error { b, a := popF64(m), popF64(m); pushBool(m, a < b); return nil }
	dispatch[OpF64Gt] = func(m *vm) error { b, a := popF64(m), popF64(m); pushBool(m, a > b); return nil }
	dispatch[OpF64Le] = func(m *vm) error { b, a := popF64(m), popF64(m); pushBool(m, a <= b); return nil }
	dispatch[OpF64Ge] = func(m *vm) error { b, a := popF64(m), popF64(m); pushBool(m, a >= b); return nil }

	dispatch[OpF32Abs] = func(m *vm) error { pushF32(m, float32(math.Abs(float64(popF32(m))))); return nil }
	dispatch[OpF32Neg] = func(m *vm) error { pushF32(m, -popF32(m)); return nil }
	dispatch[OpF32Ceil] = func(m *vm) error { pushF32(m, float32(math.Ceil(float64(popF32(m))))); return nil }
	dispatch[OpF32Floor] = func(m *vm) error { pushF32(m, float32(math.Floor(float64(popF32(m))))); return nil }
	dispatch[OpF32Trunc] = func(m *vm) error { pushF32(m, float32(math.Trunc(float64(popF32(m))))); return nil }
	dispatch[OpF32Nearest] = func(m *vm) error { pushF32(m, moremath.WasmCompatNearestF32(popF32(m))); return nil }
	dispatch[OpF32Sqrt] = func(m *vm) error { pushF32(m, float32(math.Sqrt(float64(popF32(m))))); return nil }
	dispatch[OpF32Add] = func(m *vm) error { b, a := popF32(m), popF32(m); pushF32(m, a+b); return nil }
	dispatch[OpF32Sub] = func(m *vm) error { b, a := popF32(m), popF32(m); pushF32(m, a-b); return nil }
	dispatch[OpF32Mul] = func(m *vm) error { b, a := popF32(m), popF32(m); pushF32(m, a*b); return nil }
	dispatch[OpF32Div] = func(m *vm) error { b, a := popF32(m), popF32(m); pushF32(m, a/b); return nil }
	dispatch[OpF32Min] = func(m *vm) error {
		b, a := popF32(m), popF32(m)
		pushF32(m, float32(moremath.WasmCompatMin(float64(a), float64(b))))
		return nil
	}
	dispatch[OpF32Max] = func(m *vm) error {
		b, a := popF32(m), popF32(m)
		pushF32(m, float32(moremath.WasmCompatMax(float64(a), float64(b))))
		return nil
	}
	dispatch[OpF32Copysign] = func(m *vm) error {
		b, a := popF32(m), popF32(m)
		pushF32(m, float32(math.Copysign(float64(a), float64(b))))
		return nil
	}

	dispatch[OpF64Abs] = func(m *vm) error { pushF64(m, math.Abs(popF64(m))); return nil }
	dispatch[OpF64Neg] = func(m *vm) error { pushF64(m, -popF64(m)); return nil }
	dispatch[OpF64Ceil] = func(m *vm) error { pushF64(m, math.Ceil(popF64(m))); return nil }
	dispatch[OpF64Floor] = func(m *vm) error { pushF64(m, math.Floor(popF64(m))); return nil }
	dispatch[OpF64Trunc] = func(m *vm) error { pushF64(m, math.Trunc(popF64(m))); return nil }
	dispatch[OpF64Nearest] = func(m *vm) error { pushF64(m, moremath.WasmCompatNearestF64(popF64(m))); return nil }
	dispatch[OpF64Sqrt] = func(m *vm) error { pushF64(m, math.Sqrt(popF64(m))); return nil }
	dispatch[OpF64Add] = func(m *vm) error { b, a := popF64(m), popF64(m); pushF64(m, a+b); return nil }
	dispatch[OpF64Sub] = func(m *vm) error { b, a := popF64(m), popF64(m); pushF64(m, a-b); return nil }
	dispatch[OpF64Mul] = func(m *vm) error { b, a := popF64(m), popF64(m); pushF64(m, a*b); return nil }
	dispatch[OpF64Div] = func(m *vm) error { b, a := popF64(m), popF64(m); pushF64(m, a/b); return nil }
	dispatch[OpF64Min] = func(m *vm) error { b, a := popF64(m), popF64(m); pushF64(m, moremath.WasmCompatMin(a, b)); return nil }
	dispatch[OpF64Max] = func(m *vm) error { b, a := popF64(m), popF64(m); pushF64(m, moremath.WasmCompatMax(a, b)); return nil }
	dispatch[OpF64Copysign] = func(m *vm) error {
		b, a := popF64(m), popF64(m)
		pushF64(m, math.Copysign(a, b))
		return nil
	}
}

func registerConversionOps() {
	dispatch[OpI32WrapI64] = func(m *vm) error { pushI32(m, int32(uint32(popI64(m)))); return nil }

	dispatch[OpI32TruncF32S] = truncToInt(32, true, func(m *vm) float64 { return float64(popF32(m)) })
	dispatch[OpI32TruncF32U] = truncToInt(32, false, func(m *vm) float64 { return float64(popF32(m)) })
	dispatch[OpI32TruncF64S] = truncToInt(32, true, func(m *vm) float64 { return popF64(m) })
	dispatch[OpI32TruncF64U] = truncToInt(32, false, func(m *vm) float64 { return popF64(m) })
	dispatch[OpI64TruncF32S] = truncToInt(64, true, func(m *vm) float64 { return float64(popF32(m)) })
	dispatch[OpI64TruncF32U] = truncToInt(64, false, func(m *vm) float64 { return float64(popF32(m)) })
	dispatch[OpI64TruncF64S] = truncToInt(64, true, func(m *vm) float64 { return popF64(m) })
	dispatch[OpI64TruncF64U] = truncToInt(64, false, func(m *vm) float64 { return popF64(m) })

	dispatch[OpI64ExtendI32S] = func(m *vm) error { pushI64(m, int64(popI32(m))); return nil }
	dispatch[OpI64ExtendI32U] = func(m *vm) error { pushI64(m, int64(uint64(popU32(m)))); return nil }

	dispatch[OpF32ConvertI32S] = func(m *vm) error { pushF32(m, float32(popI32(m))); return nil }
	dispatch[OpF32ConvertI32U] = func(m *vm) error { pushF32(m, float32(popU32(m))); return nil }
	dispatch[OpF32ConvertI64S] = func(m *vm) error { pushF32(m, float32(popI64(m))); return nil }
	dispatch[OpF32ConvertI64U] = func(m *vm) error { pushF32(m, float32(popU64(m))); return nil }
	dispatch[OpF32DemoteF64] = func(m *vm) error { pushF32(m, float32(popF64(m))); return nil }

	dispatch[OpF64ConvertI32S] = func(m *vm) error { pushF64(m, float64(popI32(m))); return nil }
	dispatch[OpF64ConvertI32U] = func(m *vm) error { pushF64(m, float64(popU32(m))); return nil }
	dispatch[OpF64ConvertI64S] = func(m *vm) error { pushF64(m, float64(popI64(m))); return nil }
	dispatch[OpF64ConvertI64U] = func(m *vm) error { pushF64(m, float64(popU64(m))); return nil }
	dispatch[OpF64PromoteF32] = func(m *vm) error { pushF64(m, float64(popF32(m))); return nil }

	// reinterprets are bit-copies: the operand stack already stores raw
	// bits, so these opcodes are no-ops on the representation.
	dispatch[OpI32ReinterpretF32] = func(m *vm) error { return nil }
	dispatch[OpI64ReinterpretF64] = func(m *vm) error { return nil }
	dispatch[OpF32ReinterpretI32] = func(m *vm) error { return nil }
	dispatch[OpF64ReinterpretI64] = func(m *vm) error { return nil }
}

// truncToInt implements the iNN.trunc_fMM_{s,u} family: trap on NaN, trap on
// out-of-range (including values that round to exactly the bound but whose
// true mathematical value lies outside it), else truncate toward zero.
func truncToInt(bitsWidth int, signed bool, pop func(*vm) float64) func(*vm) error {
	return func(m *vm) error {
		f := pop(m)
		if math.IsNaN(f) {
			return newTrap(TrapInvalidConversionToInteger, "cannot truncate NaN to an integer")
		}
		if math.IsInf(f, 0) {
			return newTrap(TrapInvalidConversionToInteger, "cannot truncate infinity to an integer")
		}
		trunc := math.Trunc(f)
		switch {
		case bitsWidth == 32 && signed:
			if trunc < math.MinInt32 || trunc > math.MaxInt32 {
				return newTrap(TrapInvalidConversionToInteger, "i32.trunc out of range")
			}
			pushI32(m, int32(trunc))
		case bitsWidth == 32 && !signed:
			if trunc < 0 || trunc > math.MaxUint32 {
				return newTrap(TrapInvalidConversionToInteger, "i32.trunc_u out of range")
			}
			pushU32(m, uint32(trunc))
		case bitsWidth == 64 && signed:
			if trunc < math.MinInt64 || trunc >= 9223372036854775808.0 {
				return newTrap(TrapInvalidConversionToInteger, "i64.trunc out of range")
			}
			pushI64(m, int64(trunc))
		default: // 64, unsigned
			if trunc < 0 || trunc >= 18446744073709551616.0 {
				return newTrap(TrapInvalidConversionToInteger, "i64.trunc_u out of range")
			}
			pushU64(m, uint64(trunc))
		}
		return nil
	}
}

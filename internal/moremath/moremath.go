// Package moremath provides Wasm-spec-compliant floating point helpers that
// Go's math package does not provide directly: min/max with Wasm's NaN and
// signed-zero rules, and round-half-to-even ("nearest").
package moremath

import "math"

// canonicalNaN is the positive quiet NaN whose payload is only the top
// mantissa bit; converting it to float32 yields the float32 canonical NaN.
var canonicalNaN = math.Float64frombits(0x7ff8000000000000)

// WasmCompatMin implements the Wasm spec's fmin: the canonical NaN if either
// operand is NaN, -0 if both operands are zero and at least one is negative zero,
// otherwise the numerically smaller operand. math.Min instead propagates
// -0 only when both operands agree in sign, and diverges on NaN handling
// entirely (it treats NaN as merely "not less than anything").
func WasmCompatMin(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return canonicalNaN
	}
	if x == 0 && y == 0 {
		if math.Signbit(x) || math.Signbit(y) {
			return math.Copysign(0, -1)
		}
		return 0
	}
	if x < y {
		return x
	}
	return y
}

// WasmCompatMax is WasmCompatMin's dual: the canonical NaN if either operand
// is NaN, -0
// only when both operands are zero AND both are negative zero, otherwise
// the numerically larger operand.
func WasmCompatMax(x, y float64) float64 {
	if math.IsNaN(x) || math.IsNaN(y) {
		return canonicalNaN
	}
	if x == 0 && y == 0 {
		if math.Signbit(x) && math.Signbit(y) {
			return math.Copysign(0, -1)
		}
		return 0
	}
	if x > y {
		return x
	}
	return y
}

// WasmCompatNearestF64 implements Wasm's "nearest" rounding: round to the
// nearest integer, ties to even, preserving the sign of zero and passing
// NaN/Inf through unchanged. math.RoundToEven already documents exactly
// these special cases, so no hand-rolled tie-breaking is needed here.
func WasmCompatNearestF64(x float64) float64 {
	return math.RoundToEven(x)
}

// WasmCompatNearestF32 is the float32 counterpart of WasmCompatNearestF64.
func WasmCompatNearestF32(x float32) float32 {
	return float32(math.RoundToEven(float64(x)))
}

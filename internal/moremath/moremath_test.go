package moremath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWasmCompatMin(t *testing.T) {
	cases := []struct {
		name    string
		x, y    float64
		want    float64
		wantNaN bool
	}{
		{name: "ordinary", x: -1.1, y: 123, want: -1.1},
		{name: "positive infinity operand", x: -1.1, y: math.Inf(1), want: -1.1},
		{name: "negative infinity operand", x: math.Inf(-1), y: 123, want: math.Inf(-1)},
		{name: "both infinite, tie", x: math.Inf(-1), y: math.Inf(-1), want: math.Inf(-1)},
		{name: "nan left", x: math.NaN(), y: 1, wantNaN: true},
		{name: "nan right", x: 1, y: math.NaN(), wantNaN: true},
		{name: "nan and infinity", x: math.NaN(), y: math.Inf(-1), wantNaN: true},
		{name: "both nan", x: math.NaN(), y: math.NaN(), wantNaN: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := WasmCompatMin(c.x, c.y)
			if c.wantNaN {
				require.True(t, math.IsNaN(got))
				return
			}
			require.Equal(t, c.want, got)
		})
	}
}

func TestWasmCompatMax(t *testing.T) {
	cases := []struct {
		name    string
		x, y    float64
		want    float64
		wantNaN bool
	}{
		{name: "ordinary", x: -1.1, y: 123.1, want: 123.1},
		{name: "positive infinity operand", x: -1.1, y: math.Inf(1), want: math.Inf(1)},
		{name: "negative infinity operand", x: math.Inf(-1), y: 123.1, want: 123.1},
		{name: "both infinite, tie", x: math.Inf(1), y: math.Inf(1), want: math.Inf(1)},
		{name: "nan left", x: math.NaN(), y: 1, wantNaN: true},
		{name: "nan right", x: 1, y: math.NaN(), wantNaN: true},
		{name: "both nan", x: math.NaN(), y: math.NaN(), wantNaN: true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := WasmCompatMax(c.x, c.y)
			if c.wantNaN {
				require.True(t, math.IsNaN(got))
				return
			}
			require.Equal(t, c.want, got)
		})
	}
}

// TestWasmCompatMinMaxSignedZero covers the four sign combinations of a
// zero/zero pair: min favors -0 if either operand is negative zero, max
// favors -0 only when both operands are.
func TestWasmCompatMinMaxSignedZero(t *testing.T) {
	zero := float64(0)
	negZero := math.Copysign(0, -1)

	require.True(t, math.Signbit(WasmCompatMin(negZero, zero)))
	require.True(t, math.Signbit(WasmCompatMin(zero, negZero)))
	require.True(t, math.Signbit(WasmCompatMin(negZero, negZero)))
	require.False(t, math.Signbit(WasmCompatMin(zero, zero)))

	require.False(t, math.Signbit(WasmCompatMax(negZero, zero)))
	require.False(t, math.Signbit(WasmCompatMax(zero, negZero)))
	require.True(t, math.Signbit(WasmCompatMax(negZero, negZero)))
	require.False(t, math.Signbit(WasmCompatMax(zero, zero)))
}

func TestWasmCompatNearestF64(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "ties to even, rounds away from zero", in: -1.5, want: -2.0},
		{name: "ties to even, rounds toward zero", in: -4.5, want: -4.0},
		{name: "ties to even, positive", in: 4.5, want: 4.0},
		{name: "not a tie", in: 2.3, want: 2.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, WasmCompatNearestF64(c.in))
		})
	}

	require.True(t, math.IsNaN(WasmCompatNearestF64(math.NaN())))
	require.True(t, math.IsInf(WasmCompatNearestF64(math.Inf(1)), 1))

	require.False(t, math.Signbit(WasmCompatNearestF64(0)))
	require.True(t, math.Signbit(WasmCompatNearestF64(math.Copysign(0, -1))))
}

func TestWasmCompatNearestF32(t *testing.T) {
	cases := []struct {
		name string
		in   float32
		want float32
	}{
		{name: "ties to even, rounds away from zero", in: -1.5, want: -2.0},
		{name: "ties to even, rounds toward zero", in: -4.5, want: -4.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, WasmCompatNearestF32(c.in))
		})
	}

	zero := float32(0)
	negZero := -zero
	require.False(t, math.Signbit(float64(WasmCompatNearestF32(zero))))
	require.True(t, math.Signbit(float64(WasmCompatNearestF32(negZero))))
}

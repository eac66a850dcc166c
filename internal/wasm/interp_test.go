package wasm

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func i32i32FuncType() *FuncType {
	return &FuncType{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeI32}}
}

// loadAndInstantiate decodes, validates, and instantiates raw with an empty
// host registry, failing the test immediately on any error.
func loadAndInstantiate(t *testing.T, raw []byte) (*Store, *Instance) {
	t.Helper()
	mod, err := LoadModule(bytes.NewReader(raw))
	require.NoError(t, err)
	store := NewStore(nil)
	inst, err := store.Instantiate(mod, nil)
	require.NoError(t, err)
	return store, inst
}

func callExport(t *testing.T, store *Store, inst *Instance, name string, args ...uint64) []uint64 {
	t.Helper()
	exp, ok := inst.Export(name)
	require.True(t, ok, "missing export %q", name)
	addr := inst.FuncAddrs[exp.Index]
	results, err := store.CallFunc(inst, addr, args)
	require.NoError(t, err)
	return results
}

// TestFibRecursive builds a module whose sole function is a naive recursive
// Fibonacci: fib(n) = n if n<2 else fib(n-1)+fib(n-2).
func TestFibRecursive(t *testing.T) {
	body := concatBytes(
		encLocalGet(0),
		encI32Const(2),
		[]byte{byte(OpI32LtS)},
		opBlockWithResult(OpIf, ValueTypeI32),
		encLocalGet(0),
		[]byte{byte(OpElse)},
		encLocalGet(0),
		encI32Const(1),
		[]byte{byte(OpI32Sub)},
		encCall(0),
		encLocalGet(0),
		encI32Const(2),
		[]byte{byte(OpI32Sub)},
		encCall(0),
		[]byte{byte(OpI32Add)},
		[]byte{byte(OpEnd)}, // closes the if/else
		[]byte{byte(OpEnd)},
	)

	raw := buildModule(
		typeSection(i32i32FuncType()),
		functionSection(0),
		exportSection(exportFunc("fib", 0)),
		codeSection(encFunc(nil, body...)),
	)

	store, inst := loadAndInstantiate(t, raw)

	results := callExport(t, store, inst, "fib", I32Value(10).Bits())
	require.Equal(t, int32(55), ValueFromBits(ValueTypeI32, results[0]).I32())

	results = callExport(t, store, inst, "fib", I32Value(20).Bits())
	require.Equal(t, int32(6765), ValueFromBits(ValueTypeI32, results[0]).I32())
}

// TestAddWraparound exercises i32.add's natural wraparound semantics,
// including the INT32_MAX+1 = INT32_MIN edge case.
func TestAddWraparound(t *testing.T) {
	ft := &FuncType{Params: []ValueType{ValueTypeI32, ValueTypeI32}, Results: []ValueType{ValueTypeI32}}
	body := concatBytes(encLocalGet(0), encLocalGet(1), []byte{byte(OpI32Add)}, []byte{byte(OpEnd)})
	raw := buildModule(
		typeSection(ft),
		functionSection(0),
		exportSection(exportFunc("add", 0)),
		codeSection(encFunc(nil, body...)),
	)
	store, inst := loadAndInstantiate(t, raw)

	r := callExport(t, store, inst, "add", I32Value(2).Bits(), I32Value(3).Bits())
	require.Equal(t, int32(5), ValueFromBits(ValueTypeI32, r[0]).I32())

	r = callExport(t, store, inst, "add", I32Value(math.MaxInt32).Bits(), I32Value(1).Bits())
	require.Equal(t, int32(math.MinInt32), ValueFromBits(ValueTypeI32, r[0]).I32())
}

// TestDivTraps covers the integer division trap taxonomy: divide by zero
// always traps; INT_MIN/-1 traps div_s with overflow but rem_s silently
// returns 0, matching Go's native % on that exact pair of operands.
func TestDivTraps(t *testing.T) {
	ft := &FuncType{Params: []ValueType{ValueTypeI32, ValueTypeI32}, Results: []ValueType{ValueTypeI32}}
	divBody := concatBytes(encLocalGet(0), encLocalGet(1), []byte{byte(OpI32DivS)}, []byte{byte(OpEnd)})
	remBody := concatBytes(encLocalGet(0), encLocalGet(1), []byte{byte(OpI32RemS)}, []byte{byte(OpEnd)})
	raw := buildModule(
		typeSection(ft),
		functionSection(0, 0),
		exportSection(exportFunc("div_s", 0), exportFunc("rem_s", 1)),
		codeSection(encFunc(nil, divBody...), encFunc(nil, remBody...)),
	)
	store, inst := loadAndInstantiate(t, raw)

	exp, ok := inst.Export("div_s")
	require.True(t, ok)
	addr := inst.FuncAddrs[exp.Index]

	_, err := store.CallFunc(inst, addr, []uint64{I32Value(7).Bits(), I32Value(0).Bits()})
	require.Error(t, err)
	trap, ok := err.(*Trap)
	require.True(t, ok)
	require.Equal(t, TrapIntegerDivideByZero, trap.Kind)

	_, err = store.CallFunc(inst, addr, []uint64{I32Value(math.MinInt32).Bits(), I32Value(-1).Bits()})
	require.Error(t, err)
	trap, ok = err.(*Trap)
	require.True(t, ok)
	require.Equal(t, TrapIntegerOverflow, trap.Kind)

	r := callExport(t, store, inst, "rem_s", I32Value(math.MinInt32).Bits(), I32Value(-1).Bits())
	require.Equal(t, int32(0), ValueFromBits(ValueTypeI32, r[0]).I32())
}

// TestLoopValueSum builds a loop that sums 1..n via br_if, exercising
// multi-iteration control flow and the loop-arity-is-params rule (here,
// zero, since this loop carries no loop-carried value on the operand stack
// and instead threads its accumulator through locals).
func TestLoopValueSum(t *testing.T) {
	ft := &FuncType{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeI32}}
	// locals: [0]=n (param), [1]=acc, [2]=i
	body := concatBytes(
		encI32Const(0), encLocalSet(1), // acc = 0
		encI32Const(1), encLocalSet(2), // i = 1
		opBlockWithResult(OpLoop, 0),
		encLocalGet(1), encLocalGet(2), []byte{byte(OpI32Add)}, encLocalSet(1), // acc += i
		encLocalGet(2), encI32Const(1), []byte{byte(OpI32Add)}, encLocalSet(2), // i++
		encLocalGet(2), encLocalGet(0), []byte{byte(OpI32LeS)}, // i <= n
		encBrIf(0),
		[]byte{byte(OpEnd)}, // closes loop
		encLocalGet(1),
		[]byte{byte(OpEnd)},
	)
	raw := buildModule(
		typeSection(ft),
		functionSection(0),
		exportSection(exportFunc("sum", 0)),
		codeSection(encFunc([]ValueType{ValueTypeI32, ValueTypeI32}, body...)),
	)
	store, inst := loadAndInstantiate(t, raw)

	r := callExport(t, store, inst, "sum", I32Value(10).Bits())
	require.Equal(t, int32(55), ValueFromBits(ValueTypeI32, r[0]).I32())
}

// TestMemoryStoreLoadRoundtrip writes then reads back an i32 at a fixed
// offset, and separately confirms an out-of-bounds access traps.
func TestMemoryStoreLoadRoundtrip(t *testing.T) {
	ft := &FuncType{Params: []ValueType{ValueTypeI32, ValueTypeI32}, Results: []ValueType{ValueTypeI32}}
	// store(addr, val) -> reload(addr)
	body := concatBytes(
		encLocalGet(0), encLocalGet(1),
		[]byte{byte(OpI32Store), 0x02, 0x00}, // align=2 (4-byte natural), offset=0
		encLocalGet(0),
		[]byte{byte(OpI32Load), 0x02, 0x00},
		[]byte{byte(OpEnd)},
	)
	raw := buildModule(
		typeSection(ft),
		functionSection(0),
		memorySection(1, nil),
		exportSection(exportFunc("roundtrip", 0)),
		codeSection(encFunc(nil, body...)),
	)
	store, inst := loadAndInstantiate(t, raw)

	r := callExport(t, store, inst, "roundtrip", I32Value(100).Bits(), I32Value(424242).Bits())
	require.Equal(t, int32(424242), ValueFromBits(ValueTypeI32, r[0]).I32())

	exp, ok := inst.Export("roundtrip")
	require.True(t, ok)
	addr := inst.FuncAddrs[exp.Index]
	// one page is 65536 bytes; this offset plus a 4-byte access overruns it.
	_, err := store.CallFunc(inst, addr, []uint64{I32Value(65535).Bits(), I32Value(1).Bits()})
	require.Error(t, err)
	trap, ok := err.(*Trap)
	require.True(t, ok)
	require.Equal(t, TrapOutOfBoundsMemoryAccess, trap.Kind)
}

// TestCallIndirectTypeMismatch instantiates two functions of different
// signatures in a table, calling each indirectly: one matches the
// call_indirect site's declared type, the other doesn't.
func TestCallIndirectTypeMismatch(t *testing.T) {
	i32ToI32 := &FuncType{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeI32}}
	i64ToI64 := &FuncType{Params: []ValueType{ValueTypeI64}, Results: []ValueType{ValueTypeI64}}
	dispatcher := &FuncType{Params: []ValueType{ValueTypeI32, ValueTypeI32}, Results: []ValueType{ValueTypeI32}}

	// func 0 (type 0): double(x i32) -> i32
	double := concatBytes(encLocalGet(0), encLocalGet(0), []byte{byte(OpI32Add)}, []byte{byte(OpEnd)})
	// func 1 (type 1): identity(x i64) -> i64, wrong shape for the call site
	identity64 := concatBytes(encLocalGet(0), []byte{byte(OpEnd)})
	// func 2 (type 2): dispatch(tableIdx i32, x i32) -> i32, calls table[tableIdx](x)
	dispatch := concatBytes(
		encLocalGet(1),
		encLocalGet(0),
		encCallIndirect(0), // expects type 0: (i32)->i32
		[]byte{byte(OpEnd)},
	)

	raw := buildModule(
		typeSection(i32ToI32, i64ToI64, dispatcher),
		functionSection(0, 1, 2),
		tableSection(2, nil),
		exportSection(exportFunc("dispatch", 2)),
		elementSection(0, 0, 1), // table[0]=func 0 (double), table[1]=func 1 (identity64)
		codeSection(encFunc(nil, double...), encFunc(nil, identity64...), encFunc(nil, dispatch...)),
	)
	store, inst := loadAndInstantiate(t, raw)

	r := callExport(t, store, inst, "dispatch", I32Value(0).Bits(), I32Value(21).Bits())
	require.Equal(t, int32(42), ValueFromBits(ValueTypeI32, r[0]).I32())

	exp, ok := inst.Export("dispatch")
	require.True(t, ok)
	addr := inst.FuncAddrs[exp.Index]
	_, err := store.CallFunc(inst, addr, []uint64{I32Value(1).Bits(), I32Value(21).Bits()})
	require.Error(t, err)
	trap, ok := err.(*Trap)
	require.True(t, ok)
	require.Equal(t, TrapIndirectCallTypeMismatch, trap.Kind)
}

// TestPostInvocationStackEmpty confirms a successful call leaves the vm's
// operand stack holding exactly the function's declared result arity: the
// interpreter never leaks working-stack residue from inside the call.
func TestPostInvocationStackEmpty(t *testing.T) {
	ft := &FuncType{Results: []ValueType{ValueTypeI32}}
	body := concatBytes(encI32Const(1), encI32Const(2), []byte{byte(OpI32Add)}, []byte{byte(OpEnd)})
	raw := buildModule(
		typeSection(ft),
		functionSection(0),
		exportSection(exportFunc("three", 0)),
		codeSection(encFunc(nil, body...)),
	)
	store, inst := loadAndInstantiate(t, raw)
	r := callExport(t, store, inst, "three")
	require.Len(t, r, 1)
	require.Equal(t, int32(3), ValueFromBits(ValueTypeI32, r[0]).I32())
}

package wasm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidateAcceptsWellTypedFunction confirms a straightforward, correctly
// typed function body passes validation.
func TestValidateAcceptsWellTypedFunction(t *testing.T) {
	ft := &FuncType{Params: []ValueType{ValueTypeI32, ValueTypeI32}, Results: []ValueType{ValueTypeI32}}
	body := concatBytes(encLocalGet(0), encLocalGet(1), []byte{byte(OpI32Add)}, []byte{byte(OpEnd)})
	raw := buildModule(
		typeSection(ft),
		functionSection(0),
		exportSection(exportFunc("add", 0)),
		codeSection(encFunc(nil, body...)),
	)

	mod, err := DecodeModule(bytes.NewReader(raw))
	require.NoError(t, err)
	require.NoError(t, ValidateModule(mod))
}

// TestValidateRejectsTypeMismatch builds a function declared to return i32
// but whose body leaves an i64 on the stack, and confirms validation catches
// the mismatch rather than deferring to a runtime trap or silent bit-reuse.
func TestValidateRejectsTypeMismatch(t *testing.T) {
	ft := &FuncType{Results: []ValueType{ValueTypeI32}}
	body := concatBytes(encI64Const(1), []byte{byte(OpEnd)})
	raw := buildModule(
		typeSection(ft),
		functionSection(0),
		exportSection(exportFunc("bad", 0)),
		codeSection(encFunc(nil, body...)),
	)

	mod, err := DecodeModule(bytes.NewReader(raw))
	require.NoError(t, err)

	err = ValidateModule(mod)
	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

// TestValidateRejectsUnbalancedStack builds a function declared to return
// i32 that pops from an empty operand stack (an i32.add with nothing
// pushed), confirming the validator catches stack underflow statically.
func TestValidateRejectsUnbalancedStack(t *testing.T) {
	ft := &FuncType{Results: []ValueType{ValueTypeI32}}
	body := concatBytes([]byte{byte(OpI32Add)}, []byte{byte(OpEnd)})
	raw := buildModule(
		typeSection(ft),
		functionSection(0),
		exportSection(exportFunc("underflow", 0)),
		codeSection(encFunc(nil, body...)),
	)

	mod, err := DecodeModule(bytes.NewReader(raw))
	require.NoError(t, err)

	err = ValidateModule(mod)
	require.Error(t, err)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
}

// TestValidateAllowsPolymorphicUnreachableStack confirms code following an
// unconditional `unreachable` may push/pop values of any type without
// tripping the validator: the polymorphic-stack-typing rule.
func TestValidateAllowsPolymorphicUnreachableStack(t *testing.T) {
	ft := &FuncType{Results: []ValueType{ValueTypeI32}}
	// unreachable, then garbage i64 arithmetic that would mistype a reachable
	// function, followed by leaving nothing explicit: the frame stays
	// unreachable through to its end.
	body := concatBytes(
		[]byte{byte(OpUnreachable)},
		encI64Const(1), encI64Const(2), []byte{byte(OpI64Add)}, []byte{byte(OpDrop)},
		[]byte{byte(OpEnd)},
	)
	raw := buildModule(
		typeSection(ft),
		functionSection(0),
		exportSection(exportFunc("dead", 0)),
		codeSection(encFunc(nil, body...)),
	)

	mod, err := DecodeModule(bytes.NewReader(raw))
	require.NoError(t, err)
	require.NoError(t, ValidateModule(mod))
}

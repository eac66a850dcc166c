package wasm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestHostMemoryReadWriteRoundtrip confirms the embedder-facing MemoryInstance
// helpers see the same linear memory the interpreter's own load/store
// opcodes operate on.
func TestHostMemoryReadWriteRoundtrip(t *testing.T) {
	ft := &FuncType{Params: []ValueType{ValueTypeI32, ValueTypeI32}, Results: []ValueType{}}
	body := concatBytes(encLocalGet(0), encLocalGet(1), []byte{byte(OpI32Store), 0x02, 0x00}, []byte{byte(OpEnd)})
	raw := buildModule(
		typeSection(ft),
		functionSection(0),
		memorySection(1, nil),
		exportSection(exportFunc("poke", 0)),
		codeSection(encFunc(nil, body...)),
	)

	mod, err := LoadModule(bytes.NewReader(raw))
	require.NoError(t, err)
	store := NewStore(nil)
	inst, err := store.Instantiate(mod, nil)
	require.NoError(t, err)

	callExport(t, store, inst, "poke", I32Value(8).Bits(), I32Value(99).Bits())

	mem := store.Memory(inst)
	require.NotNil(t, mem)
	v, ok := mem.ReadUint32Le(8)
	require.True(t, ok)
	require.Equal(t, uint32(99), v)

	ok = mem.WriteUint32Le(8, 12345)
	require.True(t, ok)
	v, ok = mem.ReadUint32Le(8)
	require.True(t, ok)
	require.Equal(t, uint32(12345), v)

	_, ok = mem.ReadUint32Le(mem.Pages()*PageSize - 2)
	require.False(t, ok, "reading past the buffer end must report failure, not panic")
}

// TestHostFunctionBuilderRejectsDuplicateName confirms registering the same
// field name twice under one builder panics rather than silently shadowing
// the first registration.
func TestHostFunctionBuilderRejectsDuplicateName(t *testing.T) {
	ft := &FuncType{}
	b := NewHostModuleBuilder("env")
	b.ExportFunction("f", ft, func(s *Store, args []Value) ([]Value, error) { return nil, nil })

	require.Panics(t, func() {
		b.ExportFunction("f", ft, func(s *Store, args []Value) ([]Value, error) { return nil, nil })
	})
}

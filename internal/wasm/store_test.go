package wasm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestInstantiateMissingImportRollsBack confirms a module that imports a
// function no host registry entry satisfies fails cleanly, and leaves the
// Store exactly as it was (no orphaned function/table/memory/global
// entries from the partially-processed instantiation).
func TestInstantiateMissingImportRollsBack(t *testing.T) {
	ft := &FuncType{Results: []ValueType{ValueTypeI32}}

	var importSec bytes.Buffer
	importSec.Write(encVec(1))
	importSec.Write(encName("env"))
	importSec.Write(encName("missing"))
	importSec.WriteByte(byte(ImportKindFunc))
	importSec.Write(uleb(0))

	raw := buildModule(
		typeSection(ft),
		encSection(SectionImport, importSec.Bytes()),
		exportSection(exportFunc("f", 0)),
	)
	// note: no function/code section entries — func index 0 is the import.

	mod, err := LoadModule(bytes.NewReader(raw))
	require.NoError(t, err)

	store := NewStore(nil)
	before := len(store.Funcs)

	_, err = store.Instantiate(mod, nil)
	require.Error(t, err)
	var linkErr *LinkError
	require.ErrorAs(t, err, &linkErr)
	require.Equal(t, before, len(store.Funcs), "failed instantiation must not leave orphaned store entries")
}

// TestInstantiateWithHostFunction links a module against a host-provided
// import and confirms the imported function is callable from Wasm code.
func TestInstantiateWithHostFunction(t *testing.T) {
	hostFnType := &FuncType{Params: []ValueType{ValueTypeI32}, Results: []ValueType{ValueTypeI32}}

	var importSec bytes.Buffer
	importSec.Write(encVec(1))
	importSec.Write(encName("env"))
	importSec.Write(encName("double"))
	importSec.WriteByte(byte(ImportKindFunc))
	importSec.Write(uleb(0))

	// func index 0 is the import; func index 1 is defined, calling it.
	wrapperBody := concatBytes(encLocalGet(0), encCall(0), []byte{byte(OpEnd)})
	raw := buildModule(
		typeSection(hostFnType),
		encSection(SectionImport, importSec.Bytes()),
		functionSection(0),
		exportSection(exportFunc("wrapper", 1)),
		codeSection(encFunc(nil, wrapperBody...)),
	)

	mod, err := LoadModule(bytes.NewReader(raw))
	require.NoError(t, err)

	called := false
	registry := NewHostModuleBuilder("env").
		ExportFunction("double", hostFnType, func(s *Store, args []Value) ([]Value, error) {
			called = true
			return []Value{I32Value(args[0].I32() * 2)}, nil
		}).
		Build(nil)

	store := NewStore(nil)
	inst, err := store.Instantiate(mod, registry)
	require.NoError(t, err)

	r := callExport(t, store, inst, "wrapper", I32Value(21).Bits())
	require.True(t, called)
	require.Equal(t, int32(42), ValueFromBits(ValueTypeI32, r[0]).I32())
}

// TestInstantiateRunsStartFunction confirms a module's start function runs
// during instantiation, before the caller ever invokes an export.
func TestInstantiateRunsStartFunction(t *testing.T) {
	// start function stores 7 at address 0; export just reads it back.
	startBody := concatBytes(encI32Const(0), encI32Const(7), []byte{byte(OpI32Store), 0x02, 0x00}, []byte{byte(OpEnd)})
	readFt := &FuncType{Results: []ValueType{ValueTypeI32}}
	readBody := concatBytes(encI32Const(0), []byte{byte(OpI32Load), 0x02, 0x00}, []byte{byte(OpEnd)})

	raw := buildModule(
		typeSection(&FuncType{}, readFt),
		functionSection(0, 1),
		memorySection(1, nil),
		exportSection(exportFunc("read", 1)),
		encSection(SectionStart, uleb(0)),
		codeSection(encFunc(nil, startBody...), encFunc(nil, readBody...)),
	)

	store, inst := loadAndInstantiate(t, raw)
	r := callExport(t, store, inst, "read")
	require.Equal(t, int32(7), ValueFromBits(ValueTypeI32, r[0]).I32())
}

package wasm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestInspectSummarizesDecodedModule confirms Inspect reports accurate
// counts and shapes straight off a decoded module, without instantiating it
// (no host registry needed, despite the module declaring an import).
func TestInspectSummarizesDecodedModule(t *testing.T) {
	addFt := &FuncType{Params: []ValueType{ValueTypeI32, ValueTypeI32}, Results: []ValueType{ValueTypeI32}}

	var importSec bytes.Buffer
	importSec.Write(encVec(1))
	importSec.Write(encName("env"))
	importSec.Write(encName("log"))
	importSec.WriteByte(byte(ImportKindFunc))
	importSec.Write(uleb(0))

	body := concatBytes(encLocalGet(0), encLocalGet(1), []byte{byte(OpI32Add)}, []byte{byte(OpEnd)})
	raw := buildModule(
		typeSection(addFt),
		encSection(SectionImport, importSec.Bytes()),
		functionSection(0),
		memorySection(1, nil),
		exportSection(exportFunc("add", 1)),
		codeSection(encFunc(nil, body...)),
	)

	mod, err := DecodeModule(bytes.NewReader(raw))
	require.NoError(t, err)

	rep := Inspect(mod)
	require.Len(t, rep.Types, 1)
	require.Equal(t, 2, rep.Funcs) // 1 imported + 1 defined
	require.Equal(t, 1, rep.Memories)
	require.Equal(t, 0, rep.Tables)
	require.Nil(t, rep.Start)

	require.Len(t, rep.Imports, 1)
	require.Equal(t, "env", rep.Imports[0].Module)
	require.Equal(t, "log", rep.Imports[0].Field)
	require.Equal(t, "func", rep.Imports[0].Kind)

	require.Len(t, rep.Exports, 1)
	require.Equal(t, "add", rep.Exports[0].Name)
	require.Equal(t, "func", rep.Exports[0].Kind)
}

// TestFuncNameFallsBackToSynthetic confirms a module with no name custom
// section reports the func[N] placeholder rather than an empty string.
func TestFuncNameFallsBackToSynthetic(t *testing.T) {
	ft := &FuncType{}
	raw := buildModule(
		typeSection(ft),
		functionSection(0),
		codeSection(encFunc(nil, byte(OpEnd))),
	)
	mod, err := DecodeModule(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "func[0]", mod.FuncName(0))
}

// TestDisassembleListsOffsetsAndMnemonics exercises the flat opcode listing
// backing `chibiwasm inspect --disasm`.
func TestDisassembleListsOffsetsAndMnemonics(t *testing.T) {
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
	require.Len(t, mod.Code, 1)

	listing, err := Disassemble(mod.Code[0])
	require.NoError(t, err)
	require.Contains(t, listing, "local.get 0")
	require.Contains(t, listing, "local.get 1")
	require.Contains(t, listing, "i32.add")
	require.Contains(t, listing, "end")
}

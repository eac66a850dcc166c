package wasm

import (
	"bytes"
	"fmt"
	"io"
)

// MaxPages is the maximum linear memory size, in 64 KiB pages, permitted by
// core 1.0 (2^16 pages = 4 GiB of address space).
const MaxPages = 65536

// PageSize is the size in bytes of one linear memory page.
const PageSize = 65536

// SectionID identifies one of the eleven possible module sections plus the
// custom (0) section, in the canonical order they must appear.
type SectionID byte

const (
	SectionCustom   SectionID = 0
	SectionType     SectionID = 1
	SectionImport   SectionID = 2
	SectionFunction SectionID = 3
	SectionTable    SectionID = 4
	SectionMemory   SectionID = 5
	SectionGlobal   SectionID = 6
	SectionExport   SectionID = 7
	SectionStart    SectionID = 8
	SectionElement  SectionID = 9
	SectionCode     SectionID = 10
	SectionData     SectionID = 11
)

var magicNumber = [4]byte{0x00, 0x61, 0x73, 0x6d} // "\0asm"
var version = [4]byte{0x01, 0x00, 0x00, 0x00}

// Module is the decoded representation of a Wasm binary (DecodeModule does
// not validate it; LoadModule also runs ValidateModule). It is immutable; Instantiate (see store.go) produces an Instance
// from it and a host registry.
type Module struct {
	Types       []*FuncType
	Imports     []*ImportSegment
	FuncTypeIdx []uint32 // type index of each module-defined function, parallel to Code
	Tables      []TableType
	Memories    []MemoryType
	Globals     []*GlobalSegment
	Exports     []*ExportSegment
	StartFunc   *uint32
	Elements    []*ElementSegment
	Code        []*CodeSegment
	Data        []*DataSegment

	// FuncNames maps a function index (including imports) to its debug name,
	// decoded from the custom "name" section when present. Nil if absent.
	FuncNames map[uint32]string
}

// LoadModule decodes a Wasm binary from r and validates it, returning a
// Module ready to pass to Store.Instantiate. Most callers should use this
// rather than DecodeModule directly: instantiating an unvalidated module is
// unsafe, since the interpreter trusts a module's static type-correctness
// and does not re-check it at run time.
//
// LoadModule applies DefaultRuntimeConfig; use LoadModuleWithConfig to
// control decode-time knobs such as WithFuncNames.
func LoadModule(r io.Reader) (*Module, error) {
	return LoadModuleWithConfig(r, DefaultRuntimeConfig())
}

// LoadModuleWithConfig is LoadModule with an explicit RuntimeConfig. A nil
// cfg behaves like DefaultRuntimeConfig.
func LoadModuleWithConfig(r io.Reader, cfg *RuntimeConfig) (*Module, error) {
	mod, err := DecodeModuleWithConfig(r, cfg)
	if err != nil {
		return nil, err
	}
	if err := ValidateModule(mod); err != nil {
		return nil, err
	}
	return mod, nil
}

// DecodeModule parses a complete Wasm binary module from r, applying
// DefaultRuntimeConfig. Use DecodeModuleWithConfig to control decode-time
// knobs such as WithFuncNames.
func DecodeModule(r io.Reader) (*Module, error) {
	return DecodeModuleWithConfig(r, DefaultRuntimeConfig())
}

// DecodeModuleWithConfig is DecodeModule with an explicit RuntimeConfig. A
// nil cfg behaves like DefaultRuntimeConfig. cfg.keepFuncNames (see
// WithFuncNames) decides whether the "name" custom section's function names
// are retained on the returned Module.
func DecodeModuleWithConfig(r io.Reader, cfg *RuntimeConfig) (*Module, error) {
	if cfg == nil {
		cfg = DefaultRuntimeConfig()
	}
	br := newByteReader(r)

	var header [8]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, &DecodeError{Reason: fmt.Sprintf("failed to read module header: %v", err)}
	}
	if !bytes.Equal(header[0:4], magicNumber[:]) {
		return nil, &DecodeError{Reason: "invalid magic number, not a wasm binary"}
	}
	if !bytes.Equal(header[4:8], version[:]) {
		return nil, &DecodeError{Reason: "unsupported wasm version, only version 1 is supported"}
	}

	mod := &Module{}
	var lastSectionID SectionID = SectionCustom
	sawNonCustomIDs := map[SectionID]bool{}

	for {
		idByte, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &DecodeError{Reason: fmt.Sprintf("failed to read section id: %v", err)}
		}
		id := SectionID(idByte)
		size, _, err := readVarUint32(br)
		if err != nil {
			return nil, &DecodeError{Reason: fmt.Sprintf("failed to read section %d size: %v", id, err)}
		}
		body, err := readBytes(br, size)
		if err != nil {
			return nil, &DecodeError{Reason: fmt.Sprintf("failed to read section %d body: %v", id, err)}
		}
		sectionReader := newByteReader(bytes.NewReader(body))

		if id != SectionCustom {
			if sawNonCustomIDs[id] {
				return nil, &DecodeError{Reason: fmt.Sprintf("duplicate section id %d", id)}
			}
			if id < lastSectionID {
				return nil, &DecodeError{Reason: fmt.Sprintf("section %d out of canonical order (after %d)", id, lastSectionID)}
			}
			sawNonCustomIDs[id] = true
			lastSectionID = id
		}

		if err := decodeSection(mod, id, sectionReader, cfg); err != nil {
			return nil, err
		}
	}

	if len(mod.FuncTypeIdx) != len(mod.Code) {
		return nil, &DecodeError{Reason: fmt.Sprintf("function section declares %d functions but code section has %d bodies", len(mod.FuncTypeIdx), len(mod.Code))}
	}

	return mod, nil
}

func decodeSection(mod *Module, id SectionID, r byteReader, cfg *RuntimeConfig) error {
	switch id {
	case SectionCustom:
		return decodeCustomSection(mod, r, cfg)
	case SectionType:
		n, _, err := readVarUint32(r)
		if err != nil {
			return fmt.Errorf("read type section count: %w", err)
		}
		for i := uint32(0); i < n; i++ {
			ft, err := readFuncType(r)
			if err != nil {
				return fmt.Errorf("read type %d: %w", i, err)
			}
			mod.Types = append(mod.Types, ft)
		}
	case SectionImport:
		n, _, err := readVarUint32(r)
		if err != nil {
			return fmt.Errorf("read import section count: %w", err)
		}
		for i := uint32(0); i < n; i++ {
			seg, err := readImportSegment(r)
			if err != nil {
				return fmt.Errorf("read import %d: %w", i, err)
			}
			mod.Imports = append(mod.Imports, seg)
		}
	case SectionFunction:
		n, _, err := readVarUint32(r)
		if err != nil {
			return fmt.Errorf("read function section count: %w", err)
		}
		for i := uint32(0); i < n; i++ {
			idx, _, err := readVarUint32(r)
			if err != nil {
				return fmt.Errorf("read function %d type index: %w", i, err)
			}
			mod.FuncTypeIdx = append(mod.FuncTypeIdx, idx)
		}
	case SectionTable:
		n, _, err := readVarUint32(r)
		if err != nil {
			return fmt.Errorf("read table section count: %w", err)
		}
		if n > 1 {
			return &DecodeError{Section: "table", Reason: "only one table is supported"}
		}
		for i := uint32(0); i < n; i++ {
			tt, err := readTableType(r)
			if err != nil {
				return fmt.Errorf("read table %d: %w", i, err)
			}
			mod.Tables = append(mod.Tables, tt)
		}
	case SectionMemory:
		n, _, err := readVarUint32(r)
		if err != nil {
			return fmt.Errorf("read memory section count: %w", err)
		}
		if n > 1 {
			return &DecodeError{Section: "memory", Reason: "only one memory is supported"}
		}
		for i := uint32(0); i < n; i++ {
			mt, err := readMemoryType(r)
			if err != nil {
				return fmt.Errorf("read memory %d: %w", i, err)
			}
			mod.Memories = append(mod.Memories, mt)
		}
	case SectionGlobal:
		n, _, err := readVarUint32(r)
		if err != nil {
			return fmt.Errorf("read global section count: %w", err)
		}
		for i := uint32(0); i < n; i++ {
			seg, err := readGlobalSegment(r)
			if err != nil {
				return fmt.Errorf("read global %d: %w", i, err)
			}
			mod.Globals = append(mod.Globals, seg)
		}
	case SectionExport:
		n, _, err := readVarUint32(r)
		if err != nil {
			return fmt.Errorf("read export section count: %w", err)
		}
		seen := map[string]bool{}
		for i := uint32(0); i < n; i++ {
			seg, err := readExportSegment(r)
			if err != nil {
				return fmt.Errorf("read export %d: %w", i, err)
			}
			if seen[seg.Name] {
				return &DecodeError{Section: "export", Reason: fmt.Sprintf("duplicate export name %q", seg.Name)}
			}
			seen[seg.Name] = true
			mod.Exports = append(mod.Exports, seg)
		}
	case SectionStart:
		idx, _, err := readVarUint32(r)
		if err != nil {
			return fmt.Errorf("read start function index: %w", err)
		}
		mod.StartFunc = &idx
	case SectionElement:
		n, _, err := readVarUint32(r)
		if err != nil {
			return fmt.Errorf("read element section count: %w", err)
		}
		for i := uint32(0); i < n; i++ {
			seg, err := readElementSegment(r)
			if err != nil {
				return fmt.Errorf("read element %d: %w", i, err)
			}
			mod.Elements = append(mod.Elements, seg)
		}
	case SectionCode:
		n, _, err := readVarUint32(r)
		if err != nil {
			return fmt.Errorf("read code section count: %w", err)
		}
		for i := uint32(0); i < n; i++ {
			seg, err := readCodeSegment(r)
			if err != nil {
				return fmt.Errorf("read code %d: %w", i, err)
			}
			mod.Code = append(mod.Code, seg)
		}
	case SectionData:
		n, _, err := readVarUint32(r)
		if err != nil {
			return fmt.Errorf("read data section count: %w", err)
		}
		for i := uint32(0); i < n; i++ {
			seg, err := readDataSegment(r)
			if err != nil {
				return fmt.Errorf("read data %d: %w", i, err)
			}
			mod.Data = append(mod.Data, seg)
		}
	default:
		return &DecodeError{Reason: fmt.Sprintf("unknown section id %d", id)}
	}
	return nil
}

// decodeCustomSection only understands the "name" custom section (function
// names, subsection 1); any other custom section is skipped without error.
// When cfg.keepFuncNames is false (WithFuncNames(false)), the "name" section
// is skipped like any other custom section and mod.FuncNames stays nil.
func decodeCustomSection(mod *Module, r byteReader, cfg *RuntimeConfig) error {
	name, err := readName(r)
	if err != nil {
		return fmt.Errorf("read custom section name: %w", err)
	}
	if name != "name" || !cfg.keepFuncNames {
		return nil
	}
	for {
		subID, err := r.ReadByte()
		if err != nil {
			break // EOF: done with subsections
		}
		size, _, err := readVarUint32(r)
		if err != nil {
			return fmt.Errorf("read name subsection size: %w", err)
		}
		body, err := readBytes(r, size)
		if err != nil {
			return fmt.Errorf("read name subsection body: %w", err)
		}
		if subID != 1 { // function names subsection
			continue
		}
		sr := newByteReader(bytes.NewReader(body))
		count, _, err := readVarUint32(sr)
		if err != nil {
			return fmt.Errorf("read function name count: %w", err)
		}
		if mod.FuncNames == nil {
			mod.FuncNames = make(map[uint32]string, count)
		}
		for i := uint32(0); i < count; i++ {
			idx, _, err := readVarUint32(sr)
			if err != nil {
				return fmt.Errorf("read function name index %d: %w", i, err)
			}
			fname, err := readName(sr)
			if err != nil {
				return fmt.Errorf("read function name %d: %w", i, err)
			}
			mod.FuncNames[idx] = fname
		}
	}
	return nil
}

// NumImportedFuncs reports how many of Module's function-index slots are
// satisfied by imports (imported functions occupy indices [0, n) before any
// module-defined function).
func (m *Module) NumImportedFuncs() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == ImportKindFunc {
			n++
		}
	}
	return n
}

// FuncTypeAt returns the FuncType of the function at the given module-wide
// function index (imports first, then defined functions).
func (m *Module) FuncTypeAt(index uint32) (*FuncType, error) {
	i := uint32(0)
	for _, imp := range m.Imports {
		if imp.Desc.Kind != ImportKindFunc {
			continue
		}
		if i == index {
			if int(imp.Desc.TypeIndex) >= len(m.Types) {
				return nil, fmt.Errorf("import %s.%s references unknown type index %d", imp.Module, imp.Name, imp.Desc.TypeIndex)
			}
			return m.Types[imp.Desc.TypeIndex], nil
		}
		i++
	}
	defIdx := index - i
	if int(defIdx) >= len(m.FuncTypeIdx) {
		return nil, fmt.Errorf("function index %d out of range", index)
	}
	typeIdx := m.FuncTypeIdx[defIdx]
	if int(typeIdx) >= len(m.Types) {
		return nil, fmt.Errorf("function %d references unknown type index %d", index, typeIdx)
	}
	return m.Types[typeIdx], nil
}


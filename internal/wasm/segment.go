package wasm

import "fmt"

// ImportKind discriminates the four things a module may import.
type ImportKind byte

const (
	ImportKindFunc   ImportKind = 0x00
	ImportKindTable  ImportKind = 0x01
	ImportKindMem    ImportKind = 0x02
	ImportKindGlobal ImportKind = 0x03
)

// ImportDesc is the type-specific descriptor attached to an ImportSegment.
type ImportDesc struct {
	Kind       ImportKind
	TypeIndex  uint32
	TableType  TableType
	MemType    MemoryType
	GlobalType GlobalType
}

func readImportDesc(r byteReader) (ImportDesc, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return ImportDesc{}, fmt.Errorf("read import kind: %w", err)
	}
	switch ImportKind(kindByte) {
	case ImportKindFunc:
		idx, _, err := readVarUint32(r)
		if err != nil {
			return ImportDesc{}, fmt.Errorf("read import func type index: %w", err)
		}
		return ImportDesc{Kind: ImportKindFunc, TypeIndex: idx}, nil
	case ImportKindTable:
		tt, err := readTableType(r)
		if err != nil {
			return ImportDesc{}, err
		}
		return ImportDesc{Kind: ImportKindTable, TableType: tt}, nil
	case ImportKindMem:
		mt, err := readMemoryType(r)
		if err != nil {
			return ImportDesc{}, err
		}
		return ImportDesc{Kind: ImportKindMem, MemType: mt}, nil
	case ImportKindGlobal:
		gt, err := readGlobalType(r)
		if err != nil {
			return ImportDesc{}, err
		}
		return ImportDesc{Kind: ImportKindGlobal, GlobalType: gt}, nil
	default:
		return ImportDesc{}, &DecodeError{Section: "import", Reason: fmt.Sprintf("invalid import kind 0x%x", kindByte)}
	}
}

// ImportSegment names one import: the module/field it resolves against, and
// its descriptor.
type ImportSegment struct {
	Module string
	Name   string
	Desc   ImportDesc
}

func readImportSegment(r byteReader) (*ImportSegment, error) {
	mod, err := readName(r)
	if err != nil {
		return nil, fmt.Errorf("read import module name: %w", err)
	}
	name, err := readName(r)
	if err != nil {
		return nil, fmt.Errorf("read import field name: %w", err)
	}
	desc, err := readImportDesc(r)
	if err != nil {
		return nil, err
	}
	return &ImportSegment{Module: mod, Name: name, Desc: desc}, nil
}

// GlobalSegment is a module-defined global: its type and its constant
// initializer expression.
type GlobalSegment struct {
	Type GlobalType
	Init ConstExpr
}

func readGlobalSegment(r byteReader) (*GlobalSegment, error) {
	gt, err := readGlobalType(r)
	if err != nil {
		return nil, err
	}
	init, err := readConstExpr(r)
	if err != nil {
		return nil, fmt.Errorf("read global init expr: %w", err)
	}
	return &GlobalSegment{Type: gt, Init: init}, nil
}

// ExportKind discriminates the four things a module may export.
type ExportKind byte

const (
	ExportKindFunc   ExportKind = 0x00
	ExportKindTable  ExportKind = 0x01
	ExportKindMem    ExportKind = 0x02
	ExportKindGlobal ExportKind = 0x03
)

func (k ExportKind) String() string {
	switch k {
	case ExportKindFunc:
		return "func"
	case ExportKindTable:
		return "table"
	case ExportKindMem:
		return "memory"
	case ExportKindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// ExportDesc names the kind and index an export resolves to.
type ExportDesc struct {
	Kind  ExportKind
	Index uint32
}

func readExportDesc(r byteReader) (ExportDesc, error) {
	kindByte, err := r.ReadByte()
	if err != nil {
		return ExportDesc{}, fmt.Errorf("read export kind: %w", err)
	}
	if kindByte >= 0x04 {
		return ExportDesc{}, &DecodeError{Section: "export", Reason: fmt.Sprintf("invalid export kind 0x%x", kindByte)}
	}
	idx, _, err := readVarUint32(r)
	if err != nil {
		return ExportDesc{}, fmt.Errorf("read export index: %w", err)
	}
	return ExportDesc{Kind: ExportKind(kindByte), Index: idx}, nil
}

// ExportSegment is one named export.
type ExportSegment struct {
	Name string
	Desc ExportDesc
}

func readExportSegment(r byteReader) (*ExportSegment, error) {
	name, err := readName(r)
	if err != nil {
		return nil, fmt.Errorf("read export name: %w", err)
	}
	desc, err := readExportDesc(r)
	if err != nil {
		return nil, err
	}
	return &ExportSegment{Name: name, Desc: desc}, nil
}

// ElementSegment initializes a range of a table with function indices.
type ElementSegment struct {
	TableIndex uint32
	Offset     ConstExpr
	Init       []uint32
}

func readElementSegment(r byteReader) (*ElementSegment, error) {
	tableIdx, _, err := readVarUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read element table index: %w", err)
	}
	offset, err := readConstExpr(r)
	if err != nil {
		return nil, fmt.Errorf("read element offset expr: %w", err)
	}
	n, _, err := readVarUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read element init count: %w", err)
	}
	init := make([]uint32, n)
	for i := range init {
		v, _, err := readVarUint32(r)
		if err != nil {
			return nil, fmt.Errorf("read element init entry %d: %w", i, err)
		}
		init[i] = v
	}
	return &ElementSegment{TableIndex: tableIdx, Offset: offset, Init: init}, nil
}

// CodeSegment is one function's body: its declared locals and instruction
// bytes (the bytes include the terminating `end` opcode).
type CodeSegment struct {
	LocalTypes []ValueType
	Body       []byte
}

func readCodeSegment(r byteReader) (*CodeSegment, error) {
	size, _, err := readVarUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read code segment size: %w", err)
	}
	body, err := readBytes(r, size)
	if err != nil {
		return nil, fmt.Errorf("read code segment body: %w", err)
	}
	br := newByteReader(newBytesReader(body))

	localGroupCount, _, err := readVarUint32(br)
	if err != nil {
		return nil, fmt.Errorf("read local group count: %w", err)
	}
	var locals []ValueType
	for i := uint32(0); i < localGroupCount; i++ {
		count, _, err := readVarUint32(br)
		if err != nil {
			return nil, fmt.Errorf("read local group %d count: %w", i, err)
		}
		if uint64(len(locals))+uint64(count) > math1Uint32Max {
			return nil, &DecodeError{Section: "code", Reason: "too many locals declared"}
		}
		vt, err := readValueType(br)
		if err != nil {
			return nil, err
		}
		for j := uint32(0); j < count; j++ {
			locals = append(locals, vt)
		}
	}
	rest, err := readAll(br)
	if err != nil {
		return nil, fmt.Errorf("read function body instructions: %w", err)
	}
	if len(rest) == 0 || Opcode(rest[len(rest)-1]) != OpEnd {
		return nil, &DecodeError{Section: "code", Reason: "function body must end with the end opcode"}
	}
	return &CodeSegment{LocalTypes: locals, Body: rest}, nil
}

const math1Uint32Max = 1<<32 - 1

// DataSegment initializes a range of linear memory 0 with raw bytes.
type DataSegment struct {
	MemoryIndex uint32
	Offset      ConstExpr
	Init        []byte
}

func readDataSegment(r byteReader) (*DataSegment, error) {
	memIdx, _, err := readVarUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read data memory index: %w", err)
	}
	if memIdx != 0 {
		return nil, &DecodeError{Section: "data", Reason: "only memory index 0 is supported"}
	}
	offset, err := readConstExpr(r)
	if err != nil {
		return nil, fmt.Errorf("read data offset expr: %w", err)
	}
	n, _, err := readVarUint32(r)
	if err != nil {
		return nil, fmt.Errorf("read data length: %w", err)
	}
	init, err := readBytes(r, n)
	if err != nil {
		return nil, fmt.Errorf("read data bytes: %w", err)
	}
	return &DataSegment{MemoryIndex: memIdx, Offset: offset, Init: init}, nil
}

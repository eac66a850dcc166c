package wasm

import (
	"fmt"

	"go.uber.org/zap"
)

// FuncInstance is a function allocated in the Store: either a Wasm function
// backed by a decoded body, or a host function backed by a HostFunc handle.
type FuncInstance struct {
	Type       *FuncType
	ModuleName string
	Name       string

	// Wasm function fields; HostFunc is nil for these.
	Locals    []ValueType // declared locals only, not parameters
	Body      []byte
	Blocks    map[int]*BlockInfo
	OwnerInst *Instance // the instance this function is a member of

	// Host function field; Body/Blocks/OwnerInst are nil for these.
	HostFunc HostFunc
}

func (f *FuncInstance) IsHost() bool { return f.HostFunc != nil }

// TableInstance is a table allocated in the Store: a vector of optional
// function-store indices (nil entry = uninitialized slot).
type TableInstance struct {
	Elems []*uint32
	Max   *uint32
}

// MemoryInstance is a memory allocated in the Store: a byte buffer whose
// length is always a multiple of PageSize.
type MemoryInstance struct {
	Buffer []byte
	Max    *uint32
}

func (m *MemoryInstance) Pages() uint32 { return uint32(len(m.Buffer) / PageSize) }

// GlobalInstance is a global allocated in the Store.
type GlobalInstance struct {
	Type  GlobalType
	Value uint64 // raw bit pattern, interpreted per Type.ValType
}

// ExportInstance resolves one exported name to a store index of the
// appropriate kind.
type ExportInstance struct {
	Kind  ExportKind
	Index uint32
}

// Instance is a module after linking: indices into the owning Store's
// per-kind vectors, plus its own type table and export map (used by
// call_indirect's exact-type-match check and by name lookups).
type Instance struct {
	Module *Module

	FuncAddrs   []uint32
	TableAddr   *uint32
	MemoryAddr  *uint32
	GlobalAddrs []uint32

	Exports map[string]ExportInstance
}

// Store is the process-wide arena holding every allocated runtime entity,
// addressed by index ("address") rather than by pointer, so growth
// operations never invalidate a reference held elsewhere.
type Store struct {
	Funcs    []*FuncInstance
	Tables   []*TableInstance
	Memories []*MemoryInstance
	Globals  []*GlobalInstance

	logger *zap.Logger
	config *RuntimeConfig
}

// NewStore creates an empty Store. cfg may be nil, in which case
// DefaultRuntimeConfig() is used.
func NewStore(cfg *RuntimeConfig) *Store {
	if cfg == nil {
		cfg = DefaultRuntimeConfig()
	}
	return &Store{logger: cfg.logger(), config: cfg}
}

// HostFunc is the signature every host-registry handler must implement. It
// receives the already-typed argument vector and returns a typed result
// vector, or a *Trap to abort execution.
type HostFunc func(s *Store, args []Value) ([]Value, error)

// HostImport is one entry an embedder supplies to satisfy a module's import.
type HostImport struct {
	Type GlobalType // used only when Kind == ImportKindGlobal
	Func HostFunc
	FuncType *FuncType
	Table    *TableImport
	Memory   *MemoryImport
	Global   *uint64
}

// TableImport and MemoryImport let an embedder pre-seed a table/memory that
// a module will import rather than define itself.
type TableImport struct {
	Elems []*uint32
	Max   *uint32
}

type MemoryImport struct {
	Buffer []byte
	Max    *uint32
}

// HostRegistry maps (module, field) import names to what the embedder
// provides.
type HostRegistry map[string]map[string]*HostImport

// Instantiate links mod against registry, allocating store entries and
// running the start function if any. On any failure, the store entries this
// call appended are removed again (via the rollback closures collected
// below) before the error is returned. Each element or data segment is
// bounds-checked before any of its entries are written, but writes made by
// earlier segments or by a start function that traps are not undone: an
// imported table or memory keeps them.
func (s *Store) Instantiate(mod *Module, registry HostRegistry) (*Instance, error) {
	inst := &Instance{Module: mod, Exports: map[string]ExportInstance{}}
	var rollbacks []func()
	rollback := func() {
		for i := len(rollbacks) - 1; i >= 0; i-- {
			rollbacks[i]()
		}
	}

	if err := s.resolveImports(mod, registry, inst, &rollbacks); err != nil {
		rollback()
		s.logger.Warn("instantiate failed resolving imports", zap.Error(err))
		return nil, err
	}

	if err := s.buildFunctions(mod, inst, &rollbacks); err != nil {
		rollback()
		return nil, err
	}
	if err := s.buildTable(mod, inst, &rollbacks); err != nil {
		rollback()
		return nil, err
	}
	if err := s.buildMemory(mod, inst, &rollbacks); err != nil {
		rollback()
		return nil, err
	}
	if err := s.buildGlobals(mod, inst, &rollbacks); err != nil {
		rollback()
		return nil, err
	}
	s.buildExports(mod, inst)

	if err := s.initElements(mod, inst); err != nil {
		rollback()
		s.logger.Warn("instantiate failed initializing elements", zap.Error(err))
		return nil, err
	}
	if err := s.initData(mod, inst); err != nil {
		rollback()
		s.logger.Warn("instantiate failed initializing data", zap.Error(err))
		return nil, err
	}

	if mod.StartFunc != nil {
		if _, err := s.CallFunc(inst, inst.FuncAddrs[*mod.StartFunc], nil); err != nil {
			rollback()
			s.logger.Warn("start function trapped", zap.Error(err))
			return nil, err
		}
	}

	s.logger.Debug("instantiated module",
		zap.Int("imports", len(mod.Imports)),
		zap.Int("exports", len(mod.Exports)))
	return inst, nil
}

func (s *Store) resolveImports(mod *Module, registry HostRegistry, inst *Instance, rollbacks *[]func()) error {
	for _, imp := range mod.Imports {
		fields, ok := registry[imp.Module]
		if !ok {
			return &LinkError{Module: imp.Module, Field: imp.Name, Reason: "unknown import module"}
		}
		provided, ok := fields[imp.Name]
		if !ok {
			return &LinkError{Module: imp.Module, Field: imp.Name, Reason: "unknown import field"}
		}
		switch imp.Desc.Kind {
		case ImportKindFunc:
			if int(imp.Desc.TypeIndex) >= len(mod.Types) {
				return &LinkError{Module: imp.Module, Field: imp.Name, Reason: "unknown type index"}
			}
			want := mod.Types[imp.Desc.TypeIndex]
			if provided.FuncType == nil || provided.Func == nil {
				return &LinkError{Module: imp.Module, Field: imp.Name, Reason: "import is not a function"}
			}
			if !want.equals(provided.FuncType) {
				return &LinkError{Module: imp.Module, Field: imp.Name, Reason: fmt.Sprintf("function type mismatch: want %s, got %s", want, provided.FuncType)}
			}
			addr := uint32(len(s.Funcs))
			s.Funcs = append(s.Funcs, &FuncInstance{Type: want, ModuleName: imp.Module, Name: imp.Name, HostFunc: provided.Func})
			*rollbacks = append(*rollbacks, func() { s.Funcs = s.Funcs[:len(s.Funcs)-1] })
			inst.FuncAddrs = append(inst.FuncAddrs, addr)
		case ImportKindTable:
			if provided.Table == nil {
				return &LinkError{Module: imp.Module, Field: imp.Name, Reason: "import is not a table"}
			}
			if uint32(len(provided.Table.Elems)) < imp.Desc.TableType.Limits.Min {
				return &LinkError{Module: imp.Module, Field: imp.Name, Reason: "provided table smaller than declared minimum"}
			}
			if imp.Desc.TableType.Limits.Max != nil && (provided.Table.Max == nil || *provided.Table.Max > *imp.Desc.TableType.Limits.Max) {
				return &LinkError{Module: imp.Module, Field: imp.Name, Reason: "provided table maximum incompatible with declared maximum"}
			}
			addr := uint32(len(s.Tables))
			s.Tables = append(s.Tables, &TableInstance{Elems: provided.Table.Elems, Max: provided.Table.Max})
			*rollbacks = append(*rollbacks, func() { s.Tables = s.Tables[:len(s.Tables)-1] })
			inst.TableAddr = &addr
		case ImportKindMem:
			if provided.Memory == nil {
				return &LinkError{Module: imp.Module, Field: imp.Name, Reason: "import is not a memory"}
			}
			if provided.Memory.Buffer == nil || uint32(len(provided.Memory.Buffer)/PageSize) < imp.Desc.MemType.Min {
				return &LinkError{Module: imp.Module, Field: imp.Name, Reason: "provided memory smaller than declared minimum"}
			}
			if imp.Desc.MemType.Max != nil && (provided.Memory.Max == nil || *provided.Memory.Max > *imp.Desc.MemType.Max) {
				return &LinkError{Module: imp.Module, Field: imp.Name, Reason: "provided memory maximum incompatible with declared maximum"}
			}
			addr := uint32(len(s.Memories))
			s.Memories = append(s.Memories, &MemoryInstance{Buffer: provided.Memory.Buffer, Max: provided.Memory.Max})
			*rollbacks = append(*rollbacks, func() { s.Memories = s.Memories[:len(s.Memories)-1] })
			inst.MemoryAddr = &addr
		case ImportKindGlobal:
			if provided.Global == nil {
				return &LinkError{Module: imp.Module, Field: imp.Name, Reason: "import is not a global"}
			}
			if provided.Type.ValType != imp.Desc.GlobalType.ValType || provided.Type.Mutable != imp.Desc.GlobalType.Mutable {
				return &LinkError{Module: imp.Module, Field: imp.Name, Reason: "global type or mutability mismatch"}
			}
			addr := uint32(len(s.Globals))
			s.Globals = append(s.Globals, &GlobalInstance{Type: provided.Type, Value: *provided.Global})
			*rollbacks = append(*rollbacks, func() { s.Globals = s.Globals[:len(s.Globals)-1] })
			inst.GlobalAddrs = append(inst.GlobalAddrs, addr)
		}
	}
	return nil
}

func (s *Store) buildFunctions(mod *Module, inst *Instance, rollbacks *[]func()) error {
	start := len(s.Funcs)
	*rollbacks = append(*rollbacks, func() { s.Funcs = s.Funcs[:start] })
	for i, code := range mod.Code {
		typeIdx := mod.FuncTypeIdx[i]
		if int(typeIdx) >= len(mod.Types) {
			return &ValidationError{FuncIndex: i, Reason: fmt.Sprintf("unknown type index %d", typeIdx)}
		}
		blocks, err := computeBlocks(code.Body)
		if err != nil {
			return fmt.Errorf("function %d: %w", i, err)
		}
		name := ""
		if mod.FuncNames != nil {
			name = mod.FuncNames[uint32(inst.Module.NumImportedFuncs()+i)]
		}
		s.Funcs = append(s.Funcs, &FuncInstance{
			Type:      mod.Types[typeIdx],
			Name:      name,
			Locals:    code.LocalTypes,
			Body:      code.Body,
			Blocks:    blocks,
			OwnerInst: inst,
		})
		inst.FuncAddrs = append(inst.FuncAddrs, uint32(len(s.Funcs)-1))
	}
	return nil
}

func (s *Store) buildTable(mod *Module, inst *Instance, rollbacks *[]func()) error {
	if len(mod.Tables) == 0 {
		return nil
	}
	if inst.TableAddr != nil {
		return &ValidationError{Reason: "module both imports and defines a table"}
	}
	tt := mod.Tables[0]
	elems := make([]*uint32, tt.Limits.Min)
	addr := uint32(len(s.Tables))
	s.Tables = append(s.Tables, &TableInstance{Elems: elems, Max: tt.Limits.Max})
	*rollbacks = append(*rollbacks, func() { s.Tables = s.Tables[:len(s.Tables)-1] })
	inst.TableAddr = &addr
	return nil
}

func (s *Store) buildMemory(mod *Module, inst *Instance, rollbacks *[]func()) error {
	if len(mod.Memories) == 0 {
		return nil
	}
	if inst.MemoryAddr != nil {
		return &ValidationError{Reason: "module both imports and defines a memory"}
	}
	mt := mod.Memories[0]
	buf := make([]byte, uint64(mt.Min)*PageSize)
	addr := uint32(len(s.Memories))
	s.Memories = append(s.Memories, &MemoryInstance{Buffer: buf, Max: mt.Max})
	*rollbacks = append(*rollbacks, func() { s.Memories = s.Memories[:len(s.Memories)-1] })
	inst.MemoryAddr = &addr
	return nil
}

func (s *Store) buildGlobals(mod *Module, inst *Instance, rollbacks *[]func()) error {
	start := len(s.Globals)
	*rollbacks = append(*rollbacks, func() { s.Globals = s.Globals[:start] })
	for i, g := range mod.Globals {
		val, err := s.evalConstExpr(inst, g.Init, g.Type.ValType)
		if err != nil {
			return fmt.Errorf("global %d init: %w", i, err)
		}
		s.Globals = append(s.Globals, &GlobalInstance{Type: g.Type, Value: val})
		inst.GlobalAddrs = append(inst.GlobalAddrs, uint32(len(s.Globals)-1))
	}
	return nil
}

func (s *Store) evalConstExpr(inst *Instance, ce ConstExpr, want ValueType) (uint64, error) {
	switch ce.Opcode {
	case OpI32Const:
		if want != ValueTypeI32 {
			return 0, &ValidationError{Reason: "const expr type mismatch"}
		}
		return uint64(uint32(ce.I32)), nil
	case OpI64Const:
		if want != ValueTypeI64 {
			return 0, &ValidationError{Reason: "const expr type mismatch"}
		}
		return uint64(ce.I64), nil
	case OpF32Const:
		if want != ValueTypeF32 {
			return 0, &ValidationError{Reason: "const expr type mismatch"}
		}
		return uint64(f32bits(ce.F32)), nil
	case OpF64Const:
		if want != ValueTypeF64 {
			return 0, &ValidationError{Reason: "const expr type mismatch"}
		}
		return f64bits(ce.F64), nil
	case OpGlobalGet:
		imported := 0
		for _, imp := range inst.Module.Imports {
			if imp.Desc.Kind == ImportKindGlobal {
				imported++
			}
		}
		if int(ce.Index) >= imported {
			return 0, &ValidationError{FuncIndex: -1, Reason: fmt.Sprintf("const expr may only reference an imported global, not global %d", ce.Index)}
		}
		src := s.Globals[inst.GlobalAddrs[ce.Index]]
		if src.Type.Mutable {
			return 0, &ValidationError{Reason: "const expr may only reference an immutable global"}
		}
		if src.Type.ValType != want {
			return 0, &ValidationError{Reason: "const expr type mismatch"}
		}
		return src.Value, nil
	default:
		return 0, &ValidationError{Reason: "unsupported constant expression opcode"}
	}
}

func (s *Store) buildExports(mod *Module, inst *Instance) {
	for _, exp := range mod.Exports {
		inst.Exports[exp.Name] = ExportInstance{Kind: exp.Desc.Kind, Index: exp.Desc.Index}
	}
}

func (s *Store) initElements(mod *Module, inst *Instance) error {
	for i, elem := range mod.Elements {
		if inst.TableAddr == nil {
			return &LinkError{Reason: "element segment present but module has no table"}
		}
		offsetVal, err := s.evalConstExpr(inst, elem.Offset, ValueTypeI32)
		if err != nil {
			return fmt.Errorf("element %d offset: %w", i, err)
		}
		offset := int32(uint32(offsetVal))
		table := s.Tables[*inst.TableAddr]
		if offset < 0 || int(offset)+len(elem.Init) > len(table.Elems) {
			return newTrap(TrapOutOfBoundsTableAccess, fmt.Sprintf("element segment %d does not fit in table", i))
		}
		for j, funcIdx := range elem.Init {
			if int(funcIdx) >= len(inst.FuncAddrs) {
				return &LinkError{Reason: fmt.Sprintf("element segment %d references unknown function %d", i, funcIdx)}
			}
			addr := inst.FuncAddrs[funcIdx]
			table.Elems[int(offset)+j] = &addr
		}
	}
	return nil
}

func (s *Store) initData(mod *Module, inst *Instance) error {
	for i, data := range mod.Data {
		if inst.MemoryAddr == nil {
			return &LinkError{Reason: "data segment present but module has no memory"}
		}
		offsetVal, err := s.evalConstExpr(inst, data.Offset, ValueTypeI32)
		if err != nil {
			return fmt.Errorf("data %d offset: %w", i, err)
		}
		offset := int32(uint32(offsetVal))
		mem := s.Memories[*inst.MemoryAddr]
		if offset < 0 || int(offset)+len(data.Init) > len(mem.Buffer) {
			return newTrap(TrapOutOfBoundsMemoryAccess, fmt.Sprintf("data segment %d does not fit in memory", i))
		}
		copy(mem.Buffer[offset:], data.Init)
	}
	return nil
}

// Export looks up a module's export instance by name.
func (inst *Instance) Export(name string) (ExportInstance, bool) {
	e, ok := inst.Exports[name]
	return e, ok
}

package wasm

import (
	"encoding/binary"
	"fmt"
	"math"
)

// HostModuleBuilder accumulates host functions, tables, memories, and
// globals for a single module name, then produces the HostRegistry entry
// Store.Instantiate expects. It exists so an embedder registering several
// functions under the same module name doesn't have to hand-build the
// map[string]map[string]*HostImport nesting itself.
type HostModuleBuilder struct {
	moduleName string
	fields     map[string]*HostImport
}

// NewHostModuleBuilder starts a builder for the given import module name
// (the "module" half of a module.field import pair).
func NewHostModuleBuilder(moduleName string) *HostModuleBuilder {
	return &HostModuleBuilder{moduleName: moduleName, fields: map[string]*HostImport{}}
}

// ExportFunction registers fn under name with the given signature. Panics
// on a duplicate name within the same builder, mirroring the teacher's
// AddHostFunction rejection of a name collision, just caught earlier.
func (b *HostModuleBuilder) ExportFunction(name string, sig *FuncType, fn HostFunc) *HostModuleBuilder {
	if _, exists := b.fields[name]; exists {
		panic(fmt.Sprintf("chibiwasm: host function %s.%s already registered", b.moduleName, name))
	}
	b.fields[name] = &HostImport{Func: fn, FuncType: sig}
	return b
}

// ExportMemory registers a pre-seeded memory an importing module can bind to.
func (b *HostModuleBuilder) ExportMemory(name string, mem *MemoryImport) *HostModuleBuilder {
	b.fields[name] = &HostImport{Memory: mem}
	return b
}

// ExportTable registers a pre-seeded table an importing module can bind to.
func (b *HostModuleBuilder) ExportTable(name string, table *TableImport) *HostModuleBuilder {
	b.fields[name] = &HostImport{Table: table}
	return b
}

// ExportGlobal registers a host-owned global value.
func (b *HostModuleBuilder) ExportGlobal(name string, t GlobalType, value uint64) *HostModuleBuilder {
	b.fields[name] = &HostImport{Type: t, Global: &value}
	return b
}

// Build installs this builder's fields into registry under the builder's
// module name, merging with anything already registered there.
func (b *HostModuleBuilder) Build(registry HostRegistry) HostRegistry {
	if registry == nil {
		registry = HostRegistry{}
	}
	existing, ok := registry[b.moduleName]
	if !ok {
		existing = map[string]*HostImport{}
		registry[b.moduleName] = existing
	}
	for name, imp := range b.fields {
		existing[name] = imp
	}
	return registry
}

// hasLen reports whether the memory has sizeInBytes available starting at
// offset, computing in uint64 so the addition can never overflow uint32 and
// falsely pass. Mirrors the bounds check effectiveAddress performs for
// interpreter-driven loads and stores.
func (m *MemoryInstance) hasLen(offset, sizeInBytes uint32) bool {
	return uint64(offset)+uint64(sizeInBytes) <= uint64(len(m.Buffer))
}

// ReadUint32Le reads a little-endian u32 at offset, for host functions that
// need to inspect module memory (e.g. reading a pointer/length pair passed
// by a guest).
func (m *MemoryInstance) ReadUint32Le(offset uint32) (uint32, bool) {
	if !m.hasLen(offset, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.Buffer[offset : offset+4]), true
}

func (m *MemoryInstance) ReadUint64Le(offset uint32) (uint64, bool) {
	if !m.hasLen(offset, 8) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.Buffer[offset : offset+8]), true
}

func (m *MemoryInstance) ReadFloat32Le(offset uint32) (float32, bool) {
	v, ok := m.ReadUint32Le(offset)
	if !ok {
		return 0, false
	}
	return math.Float32frombits(v), true
}

func (m *MemoryInstance) ReadFloat64Le(offset uint32) (float64, bool) {
	v, ok := m.ReadUint64Le(offset)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(v), true
}

// Read returns a slice view (not a copy) of byteCount bytes starting at
// offset. Callers that retain it beyond the current host call risk
// observing a later memory.grow's reallocation.
func (m *MemoryInstance) Read(offset, byteCount uint32) ([]byte, bool) {
	if !m.hasLen(offset, byteCount) {
		return nil, false
	}
	return m.Buffer[offset : offset+byteCount], true
}

func (m *MemoryInstance) WriteUint32Le(offset, v uint32) bool {
	if !m.hasLen(offset, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.Buffer[offset:], v)
	return true
}

func (m *MemoryInstance) WriteUint64Le(offset uint32, v uint64) bool {
	if !m.hasLen(offset, 8) {
		return false
	}
	binary.LittleEndian.PutUint64(m.Buffer[offset:], v)
	return true
}

func (m *MemoryInstance) WriteFloat32Le(offset uint32, v float32) bool {
	return m.WriteUint32Le(offset, math.Float32bits(v))
}

func (m *MemoryInstance) WriteFloat64Le(offset uint32, v float64) bool {
	return m.WriteUint64Le(offset, math.Float64bits(v))
}

func (m *MemoryInstance) Write(offset uint32, val []byte) bool {
	if !m.hasLen(offset, uint32(len(val))) {
		return false
	}
	copy(m.Buffer[offset:], val)
	return true
}

// Memory returns the instance's single linear memory, or nil if it has
// none. Host functions commonly need this to read/write guest buffers
// named by a pointer+length pair in their Value arguments.
func (s *Store) Memory(inst *Instance) *MemoryInstance {
	if inst.MemoryAddr == nil {
		return nil
	}
	return s.Memories[*inst.MemoryAddr]
}

package wasm

import (
	"encoding/binary"
	"fmt"
)

func registerMemoryOps() {
	dispatch[OpI32Load] = memLoad(4, func(b []byte) uint64 { return uint64(binary.LittleEndian.Uint32(b)) })
	dispatch[OpI64Load] = memLoad(8, func(b []byte) uint64 { return binary.LittleEndian.Uint64(b) })
	dispatch[OpF32Load] = memLoad(4, func(b []byte) uint64 { return uint64(binary.LittleEndian.Uint32(b)) })
	dispatch[OpF64Load] = memLoad(8, func(b []byte) uint64 { return binary.LittleEndian.Uint64(b) })

	dispatch[OpI32Load8S] = memLoad(1, func(b []byte) uint64 { return uint64(uint32(int32(int8(b[0])))) })
	dispatch[OpI32Load8U] = memLoad(1, func(b []byte) uint64 { return uint64(b[0]) })
	dispatch[OpI32Load16S] = memLoad(2, func(b []byte) uint64 {
		return uint64(uint32(int32(int16(binary.LittleEndian.Uint16(b)))))
	})
	dispatch[OpI32Load16U] = memLoad(2, func(b []byte) uint64 { return uint64(binary.LittleEndian.Uint16(b)) })

	dispatch[OpI64Load8S] = memLoad(1, func(b []byte) uint64 { return uint64(int64(int8(b[0]))) })
	dispatch[OpI64Load8U] = memLoad(1, func(b []byte) uint64 { return uint64(b[0]) })
	dispatch[OpI64Load16S] = memLoad(2, func(b []byte) uint64 { return uint64(int64(int16(binary.LittleEndian.Uint16(b)))) })
	dispatch[OpI64Load16U] = memLoad(2, func(b []byte) uint64 { return uint64(binary.LittleEndian.Uint16(b)) })
	dispatch[OpI64Load32S] = memLoad(4, func(b []byte) uint64 { return uint64(int64(int32(binary.LittleEndian.Uint32(b)))) })
	dispatch[OpI64Load32U] = memLoad(4, func(b []byte) uint64 { return uint64(binary.LittleEndian.Uint32(b)) })

	dispatch[OpI32Store] = memStore(4, func(b []byte, v uint64) { binary.LittleEndian.PutUint32(b, uint32(v)) })
	dispatch[OpI64Store] = memStore(8, func(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) })
	dispatch[OpF32Store] = memStore(4, func(b []byte, v uint64) { binary.LittleEndian.PutUint32(b, uint32(v)) })
	dispatch[OpF64Store] = memStore(8, func(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) })
	dispatch[OpI32Store8] = memStore(1, func(b []byte, v uint64) { b[0] = byte(v) })
	dispatch[OpI32Store16] = memStore(2, func(b []byte, v uint64) { binary.LittleEndian.PutUint16(b, uint16(v)) })
	dispatch[OpI64Store8] = memStore(1, func(b []byte, v uint64) { b[0] = byte(v) })
	dispatch[OpI64Store16] = memStore(2, func(b []byte, v uint64) { binary.LittleEndian.PutUint16(b, uint16(v)) })
	dispatch[OpI64Store32] = memStore(4, func(b []byte, v uint64) { binary.LittleEndian.PutUint32(b, uint32(v)) })

	dispatch[OpMemorySize] = opMemorySize
	dispatch[OpMemoryGrow] = opMemoryGrow
}

// readMemArg consumes the align hint (discarded; it is advisory only) and
// the static offset immediate common to every load/store instruction.
func readMemArg(f *frame) (uint32, error) {
	if _, _, err := readVarUint32(f.code); err != nil { // align hint
		return 0, err
	}
	offset, _, err := readVarUint32(f.code)
	if err != nil {
		return 0, err
	}
	return offset, nil
}

func effectiveAddress(f *frame, dynamicAddr uint32, staticOffset uint32, size uint32, mem *MemoryInstance) (uint32, error) {
	addr := uint64(dynamicAddr) + uint64(staticOffset)
	if addr+uint64(size) > uint64(len(mem.Buffer)) {
		return 0, newTrap(TrapOutOfBoundsMemoryAccess, fmt.Sprintf("access at %d+%d exceeds memory of %d bytes", dynamicAddr, staticOffset, len(mem.Buffer)))
	}
	return uint32(addr), nil
}

func memLoad(size uint32, decode func([]byte) uint64) func(*vm) error {
	return func(m *vm) error {
		f := m.top()
		offset, err := readMemArg(f)
		if err != nil {
			return err
		}
		dyn := uint32(m.pop())
		mem := m.store.Memories[*f.inst.MemoryAddr]
		addr, err := effectiveAddress(f, dyn, offset, size, mem)
		if err != nil {
			return err
		}
		m.push(decode(mem.Buffer[addr : addr+size]))
		return nil
	}
}

func memStore(size uint32, encode func([]byte, uint64)) func(*vm) error {
	return func(m *vm) error {
		f := m.top()
		offset, err := readMemArg(f)
		if err != nil {
			return err
		}
		val := m.pop()
		dyn := uint32(m.pop())
		mem := m.store.Memories[*f.inst.MemoryAddr]
		addr, err := effectiveAddress(f, dyn, offset, size, mem)
		if err != nil {
			return err
		}
		encode(mem.Buffer[addr:addr+size], val)
		return nil
	}
}

func opMemorySize(m *vm) error {
	f := m.top()
	if _, err := f.code.ReadByte(); err != nil { // reserved
		return err
	}
	mem := m.store.Memories[*f.inst.MemoryAddr]
	m.push(uint64(uint32(mem.Pages())))
	return nil
}

func opMemoryGrow(m *vm) error {
	f := m.top()
	if _, err := f.code.ReadByte(); err != nil { // reserved
		return err
	}
	delta := uint32(m.pop())
	mem := m.store.Memories[*f.inst.MemoryAddr]
	prev := mem.Pages()
	next := prev + delta
	if delta > 0 && next < prev { // overflow
		m.push(uint64(^uint32(0)))
		return nil
	}
	if mem.Max != nil && next > *mem.Max {
		m.push(uint64(^uint32(0)))
		return nil
	}
	if next > MaxPages {
		m.push(uint64(^uint32(0)))
		return nil
	}
	mem.Buffer = append(mem.Buffer, make([]byte, uint64(delta)*PageSize)...)
	m.push(uint64(prev))
	return nil
}

package wasm

import (
	"fmt"
	"io"
)

func registerControlOps() {
	dispatch[OpUnreachable] = opUnreachable
	dispatch[OpNop] = opNop
	dispatch[OpBlock] = opBlock
	dispatch[OpLoop] = opLoop
	dispatch[OpIf] = opIf
	dispatch[OpElse] = opElse
	dispatch[OpEnd] = opEnd
	dispatch[OpBr] = opBr
	dispatch[OpBrIf] = opBrIf
	dispatch[OpBrTable] = opBrTable
	dispatch[OpReturn] = opReturn
	dispatch[OpCall] = opCall
	dispatch[OpCallIndirect] = opCallIndirect
}

func opUnreachable(m *vm) error {
	return newTrap(TrapUnreachable, "unreachable instruction executed")
}

func opNop(m *vm) error { return nil }

func blockInfoFor(m *vm, opPC int64) (*BlockInfo, error) {
	f := m.top()
	fn := m.store.Funcs[f.funcAddr]
	info, ok := fn.Blocks[int(opPC)]
	if !ok {
		return nil, fmt.Errorf("internal error: no precomputed block info at pc %d", opPC)
	}
	return info, nil
}

func opBlock(m *vm) error {
	f := m.top()
	opPC := f.pc() - 1
	if _, err := readBlockArity(f.code); err != nil {
		return err
	}
	info, err := blockInfoFor(m, opPC)
	if err != nil {
		return err
	}
	f.pushLabel(label{arity: info.Arity, stackBase: len(m.stack), continueAt: int64(info.EndPC), isLoop: false})
	return nil
}

func opLoop(m *vm) error {
	f := m.top()
	opPC := f.pc() - 1
	if _, err := readBlockArity(f.code); err != nil {
		return err
	}
	_, err := blockInfoFor(m, opPC)
	if err != nil {
		return err
	}
	// a loop's branch target is its own start (re-entry point), which is the
	// position right after the blocktype byte we just consumed.
	f.pushLabel(label{arity: 0, stackBase: len(m.stack), continueAt: f.pc(), isLoop: true})
	return nil
}

func opIf(m *vm) error {
	f := m.top()
	opPC := f.pc() - 1
	if _, err := readBlockArity(f.code); err != nil {
		return err
	}
	info, err := blockInfoFor(m, opPC)
	if err != nil {
		return err
	}
	cond := m.pop()
	if cond != 0 {
		f.pushLabel(label{arity: info.Arity, stackBase: len(m.stack), continueAt: int64(info.EndPC), isLoop: false})
		return nil
	}
	if info.ElsePC >= 0 {
		f.pushLabel(label{arity: info.Arity, stackBase: len(m.stack), continueAt: int64(info.EndPC), isLoop: false})
		_, err := f.code.Seek(int64(info.ElsePC), io.SeekStart)
		return err
	}
	_, err = f.code.Seek(int64(info.EndPC), io.SeekStart)
	return err
}

func opElse(m *vm) error {
	// reached only by falling off the end of a taken `then` branch: the
	// label pushed by `if` already carries the post-`end` continuation.
	f := m.top()
	l := f.popLabel()
	_, err := f.code.Seek(l.continueAt, io.SeekStart)
	return err
}

func opEnd(m *vm) error {
	f := m.top()
	if len(f.labels) == 0 {
		m.returnFromFrame(f.arity)
		return nil
	}
	f.popLabel()
	return nil
}

func branchTo(m *vm, index uint32) error {
	f := m.top()
	if int(index) >= len(f.labels) {
		m.returnFromFrame(f.arity)
		return nil
	}
	for i := uint32(0); i < index; i++ {
		f.popLabel()
	}
	l := f.popLabel()
	arity := l.arity
	if l.isLoop {
		arity = 0
	}
	preserved := append([]uint64(nil), m.stack[len(m.stack)-arity:]...)
	m.stack = m.stack[:l.stackBase]
	m.stack = append(m.stack, preserved...)
	if _, err := f.code.Seek(l.continueAt, io.SeekStart); err != nil {
		return err
	}
	if l.isLoop {
		f.pushLabel(l)
	}
	return nil
}

func opBr(m *vm) error {
	idx, _, err := readVarUint32(m.top().code)
	if err != nil {
		return err
	}
	return branchTo(m, idx)
}

func opBrIf(m *vm) error {
	idx, _, err := readVarUint32(m.top().code)
	if err != nil {
		return err
	}
	cond := m.pop()
	if cond == 0 {
		return nil
	}
	return branchTo(m, idx)
}

func opBrTable(m *vm) error {
	f := m.top()
	n, _, err := readVarUint32(f.code)
	if err != nil {
		return err
	}
	labels := make([]uint32, n)
	for i := range labels {
		labels[i], _, err = readVarUint32(f.code)
		if err != nil {
			return err
		}
	}
	defaultLabel, _, err := readVarUint32(f.code)
	if err != nil {
		return err
	}
	idx := uint32(int32(m.pop()))
	if idx < uint32(len(labels)) {
		return branchTo(m, labels[idx])
	}
	return branchTo(m, defaultLabel)
}

func opReturn(m *vm) error {
	f := m.top()
	m.returnFromFrame(f.arity)
	return nil
}

func opCall(m *vm) error {
	f := m.top()
	idx, _, err := readVarUint32(f.code)
	if err != nil {
		return err
	}
	if int(idx) >= len(f.inst.FuncAddrs) {
		return fmt.Errorf("call: function index %d out of range", idx)
	}
	return invoke(m, f.inst.FuncAddrs[idx])
}

func opCallIndirect(m *vm) error {
	f := m.top()
	typeIdx, _, err := readVarUint32(f.code)
	if err != nil {
		return err
	}
	if _, err := f.code.ReadByte(); err != nil { // reserved table index byte
		return err
	}
	if f.inst.TableAddr == nil {
		return newTrap(TrapUndefinedElement, "call_indirect with no table")
	}
	table := m.store.Tables[*f.inst.TableAddr]
	elemIdx := int32(uint32(m.pop()))
	if elemIdx < 0 || int(elemIdx) >= len(table.Elems) {
		return newTrap(TrapOutOfBoundsTableAccess, fmt.Sprintf("call_indirect index %d out of table bounds", elemIdx))
	}
	slot := table.Elems[elemIdx]
	if slot == nil {
		return newTrap(TrapUndefinedElement, fmt.Sprintf("call_indirect table slot %d is uninitialized", elemIdx))
	}
	if int(typeIdx) >= len(f.inst.Module.Types) {
		return fmt.Errorf("call_indirect: unknown type index %d", typeIdx)
	}
	want := f.inst.Module.Types[typeIdx]
	fn := m.store.Funcs[*slot]
	if !fn.Type.equals(want) {
		return newTrap(TrapIndirectCallTypeMismatch, fmt.Sprintf("want %s, table holds %s", want, fn.Type))
	}
	return invoke(m, *slot)
}

// invoke dispatches a call to either a Wasm function (pushing a new frame)
// or a host function (calling it synchronously in place).
func invoke(m *vm, addr uint32) error {
	fn := m.store.Funcs[addr]
	args := m.popN(len(fn.Type.Params))
	if fn.IsHost() {
		typed := make([]Value, len(args))
		for i, a := range args {
			typed[i] = valueFromBits(fn.Type.Params[i], a)
		}
		res, err := fn.HostFunc(m.store, typed)
		if err != nil {
			if t, ok := err.(*Trap); ok {
				return t
			}
			return &Trap{Kind: TrapHostTrap, Detail: err.Error(), Wrapped: err}
		}
		for _, r := range res {
			m.push(r.Bits())
		}
		return nil
	}
	return m.pushWasmFrame(addr, args)
}

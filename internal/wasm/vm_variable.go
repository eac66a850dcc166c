package wasm

func registerVariableOps() {
	dispatch[OpLocalGet] = opLocalGet
	dispatch[OpLocalSet] = opLocalSet
	dispatch[OpLocalTee] = opLocalTee
	dispatch[OpGlobalGet] = opGlobalGet
	dispatch[OpGlobalSet] = opGlobalSet
}

func opLocalGet(m *vm) error {
	f := m.top()
	idx, _, err := readVarUint32(f.code)
	if err != nil {
		return err
	}
	m.push(f.locals[idx])
	return nil
}

func opLocalSet(m *vm) error {
	f := m.top()
	idx, _, err := readVarUint32(f.code)
	if err != nil {
		return err
	}
	f.locals[idx] = m.pop()
	return nil
}

func opLocalTee(m *vm) error {
	f := m.top()
	idx, _, err := readVarUint32(f.code)
	if err != nil {
		return err
	}
	v := m.stack[len(m.stack)-1]
	f.locals[idx] = v
	return nil
}

func opGlobalGet(m *vm) error {
	f := m.top()
	idx, _, err := readVarUint32(f.code)
	if err != nil {
		return err
	}
	addr := f.inst.GlobalAddrs[idx]
	m.push(m.store.Globals[addr].Value)
	return nil
}

func opGlobalSet(m *vm) error {
	f := m.top()
	idx, _, err := readVarUint32(f.code)
	if err != nil {
		return err
	}
	addr := f.inst.GlobalAddrs[idx]
	g := m.store.Globals[addr]
	if !g.Type.Mutable {
		return newTrap(TrapHostTrap, "attempt to set an immutable global")
	}
	g.Value = m.pop()
	return nil
}

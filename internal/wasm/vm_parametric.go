package wasm

func registerParametricOps() {
	dispatch[OpDrop] = opDrop
	dispatch[OpSelect] = opSelect
}

func opDrop(m *vm) error {
	m.pop()
	return nil
}

func opSelect(m *vm) error {
	cond := m.pop()
	v2 := m.pop()
	v1 := m.pop()
	if cond != 0 {
		m.push(v1)
	} else {
		m.push(v2)
	}
	return nil
}

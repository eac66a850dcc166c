package wasm

import (
	"bytes"
	"context"
	"fmt"
)

// label is a control-flow continuation record for one active block, loop,
// or if within a frame.
type label struct {
	arity      int
	stackBase  int
	continueAt int64 // byte offset to seek Code to on branch
	isLoop     bool
}

// frame is one function activation record.
type frame struct {
	inst      *Instance
	funcAddr  uint32
	locals    []uint64
	code      *bytes.Reader
	labels    []label
	stackBase int
	arity     int
}

func (f *frame) pc() int64 { p, _ := f.code.Seek(0, 1); return p }

func (f *frame) pushLabel(l label) { f.labels = append(f.labels, l) }

func (f *frame) popLabel() label {
	l := f.labels[len(f.labels)-1]
	f.labels = f.labels[:len(f.labels)-1]
	return l
}

// vm is one invocation's execution state: the shared operand stack, the
// active call-frame stack, and the owning Store.
type vm struct {
	store  *Store
	stack  []uint64
	frames []*frame
	ctx    context.Context

	opcodesSinceCancelCheck int
}

const cancelCheckInterval = 4096

func (m *vm) push(v uint64)  { m.stack = append(m.stack, v) }
func (m *vm) pop() uint64 {
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}
func (m *vm) popN(n int) []uint64 {
	v := append([]uint64(nil), m.stack[len(m.stack)-n:]...)
	m.stack = m.stack[:len(m.stack)-n]
	return v
}
func (m *vm) top() *frame { return m.frames[len(m.frames)-1] }

// CallFunc invokes the function at the given store address with args (raw
// operand bits matching its parameter types) and returns its results.
func (s *Store) CallFunc(inst *Instance, addr uint32, args []uint64) ([]uint64, error) {
	return s.CallFuncCtx(context.Background(), inst, addr, args)
}

// CallFuncCtx is CallFunc with an explicit context for cooperative
// cancellation (§5 Concurrency & Resource Model).
func (s *Store) CallFuncCtx(ctx context.Context, inst *Instance, addr uint32, args []uint64) (results []uint64, err error) {
	fn := s.Funcs[addr]
	if fn.IsHost() {
		typed := make([]Value, len(args))
		for i, a := range args {
			typed[i] = valueFromBits(fn.Type.Params[i], a)
		}
		res, err := fn.HostFunc(s, typed)
		if err != nil {
			if _, ok := err.(*Trap); ok {
				return nil, err
			}
			return nil, &Trap{Kind: TrapHostTrap, Detail: err.Error(), Wrapped: err}
		}
		out := make([]uint64, len(res))
		for i, r := range res {
			out[i] = r.Bits()
		}
		return out, nil
	}

	m := &vm{store: s, ctx: ctx}
	if err := m.pushWasmFrame(addr, args); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			if t, ok := r.(*Trap); ok {
				err = t
				return
			}
			err = fmt.Errorf("internal interpreter error: %v", r)
		}
	}()

	for len(m.frames) > 0 {
		if err := m.step(); err != nil {
			return nil, err
		}
	}
	return m.stack, nil
}

func (m *vm) pushWasmFrame(addr uint32, args []uint64) error {
	if len(m.frames) >= m.store.config.maxCallStackDepth {
		return newTrap(TrapCallStackExhausted, "maximum call depth exceeded")
	}
	fn := m.store.Funcs[addr]
	locals := make([]uint64, len(fn.Type.Params)+len(fn.Locals))
	copy(locals, args)

	base := len(m.stack)
	f := &frame{
		inst:      fn.OwnerInst,
		funcAddr:  addr,
		locals:    locals,
		code:      bytes.NewReader(fn.Body),
		stackBase: base,
		arity:     len(fn.Type.Results),
	}
	m.frames = append(m.frames, f)
	return nil
}

// step executes exactly one opcode of the active frame, or performs a frame
// return/pop when the active frame's instruction stream is exhausted.
func (m *vm) step() error {
	f := m.top()
	opByte, err := f.code.ReadByte()
	if err != nil {
		// function body always ends with an explicit `end` opcode (enforced
		// at decode time), so reaching true EOF here is a frame with no
		// remaining labels: pop it, preserving its result values.
		m.returnFromFrame(f.arity)
		return nil
	}

	m.opcodesSinceCancelCheck++
	if m.opcodesSinceCancelCheck >= cancelCheckInterval {
		m.opcodesSinceCancelCheck = 0
		if m.ctx != nil {
			select {
			case <-m.ctx.Done():
				return &Trap{Kind: TrapHostTrap, Detail: "context cancelled", Wrapped: m.ctx.Err()}
			default:
			}
		}
	}

	return dispatch[Opcode(opByte)](m)
}

// returnFromFrame pops the active frame, keeping exactly the top `arity`
// operand stack values (the frame's results) and discarding the rest of the
// frame's working stack, matching the teacher's execFunction/return pattern.
func (m *vm) returnFromFrame(arity int) {
	f := m.top()
	results := m.stack[len(m.stack)-arity:]
	preserved := append([]uint64(nil), results...)
	m.stack = m.stack[:f.stackBase]
	m.stack = append(m.stack, preserved...)
	m.frames = m.frames[:len(m.frames)-1]
}

var dispatch [256]func(*vm) error

func init() {
	for i := range dispatch {
		dispatch[i] = opUnknown
	}
	registerControlOps()
	registerParametricOps()
	registerVariableOps()
	registerMemoryOps()
	registerNumericOps()
}

func opUnknown(m *vm) error {
	f := m.top()
	pc := f.pc() - 1
	return &DecodeError{Reason: fmt.Sprintf("unknown or unsupported opcode at pc %d", pc)}
}

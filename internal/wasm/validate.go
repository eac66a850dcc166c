package wasm

import (
	"bytes"
	"fmt"
)

// unknownType marks a stack slot whose type is irrelevant because it was
// pushed in unreachable code: once a block becomes unreachable, the abstract
// type stack is allowed to produce or consume values of any type until the
// current control frame ends, per the "polymorphic stack typing" rule of the
// spec's validation algorithm.
const unknownType ValueType = 0

// typeStack is the abstract operand-type stack the validator simulates in
// place of the real value stack the interpreter maintains.
type typeStack struct {
	types []ValueType
}

func (s *typeStack) push(t ValueType) { s.types = append(s.types, t) }

func (s *typeStack) height() int { return len(s.types) }

func (s *typeStack) truncate(h int) { s.types = s.types[:h] }

// controlFrame tracks one active block/loop/if/function body during
// validation: the type-stack height at entry, its declared result types,
// and whether the frame has gone unreachable (entered polymorphic typing).
type controlFrame struct {
	startHeight int
	blockType   *FuncType
	isLoop      bool
	unreachable bool
}

// validator holds the per-function state while walking one function body.
type validator struct {
	mod     *Module
	funcIdx int
	values  typeStack
	frames  []controlFrame
}

// ValidateModule performs the static checks the binary decoder does not
// already perform inline: every function body's instruction sequence must
// type-check against the operand-type-stack rules of the spec's validation
// algorithm, every branch must target an enclosing label of compatible
// arity, and every block/loop/if's declared type must resolve to a function
// type with at most one result (core 1.0, no multi-value). It also checks
// that every table and memory limit has min <= max and that the start
// function, if any, has type () -> ().
func ValidateModule(mod *Module) error {
	limits := append([]Limits(nil), mod.Memories...)
	for _, t := range mod.Tables {
		limits = append(limits, t.Limits)
	}
	for _, imp := range mod.Imports {
		limits = append(limits, imp.Desc.TableType.Limits, imp.Desc.MemType)
	}
	for _, l := range limits {
		if l.Max != nil && l.Min > *l.Max {
			return &ValidationError{FuncIndex: -1, Reason: fmt.Sprintf("limits minimum %d exceeds maximum %d", l.Min, *l.Max)}
		}
	}
	if mod.StartFunc != nil {
		ft, err := mod.FuncTypeAt(*mod.StartFunc)
		if err != nil {
			return &ValidationError{FuncIndex: -1, Reason: fmt.Sprintf("start function: %v", err)}
		}
		if len(ft.Params) != 0 || len(ft.Results) != 0 {
			return &ValidationError{FuncIndex: -1, Reason: fmt.Sprintf("start function must have type () -> (), has %s", ft)}
		}
	}
	for i := range mod.Code {
		if err := validateFunction(mod, i); err != nil {
			return err
		}
	}
	return nil
}

func validateFunction(mod *Module, idx int) error {
	typeIdx := mod.FuncTypeIdx[idx]
	if int(typeIdx) >= len(mod.Types) {
		return &ValidationError{FuncIndex: idx, Reason: fmt.Sprintf("unknown type index %d", typeIdx)}
	}
	ft := mod.Types[typeIdx]
	code := mod.Code[idx]

	v := &validator{mod: mod, funcIdx: idx}
	v.frames = append(v.frames, controlFrame{startHeight: 0, blockType: ft})

	r := bytes.NewReader(code.Body)
	for r.Len() > 0 {
		if len(v.frames) == 0 {
			return &ValidationError{FuncIndex: idx, Reason: "instructions after the function body's final end"}
		}
		if err := v.step(r); err != nil {
			return &ValidationError{FuncIndex: idx, Reason: err.Error()}
		}
	}
	if len(v.frames) != 0 {
		return &ValidationError{FuncIndex: idx, Reason: "function body ends with unterminated block"}
	}
	return nil
}

func (v *validator) top() *controlFrame { return &v.frames[len(v.frames)-1] }

// pop enforces that the top of the abstract stack is either the wanted type,
// or anything at all if the current frame is already unreachable (the
// post-unreachable polymorphic rule): trying to pop below the frame's
// start height is always an underflow, reachable or not.
func (v *validator) pop(want ValueType) error {
	f := v.top()
	if v.values.height() == f.startHeight {
		if f.unreachable {
			return nil // polymorphic: conjure a value of the right type
		}
		return fmt.Errorf("type mismatch: operand stack underflow wanting %s", want)
	}
	got := v.values.types[len(v.values.types)-1]
	v.values.truncate(v.values.height() - 1)
	if got != unknownType && want != unknownType && got != want {
		return fmt.Errorf("type mismatch: expected %s, got %s", want, got)
	}
	return nil
}

func (v *validator) push(t ValueType) { v.values.push(t) }

// popN pops an entire result/param vector in reverse declaration order.
func (v *validator) popN(types []ValueType) error {
	for i := len(types) - 1; i >= 0; i-- {
		if err := v.pop(types[i]); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) pushN(types []ValueType) {
	for _, t := range types {
		v.push(t)
	}
}

// setUnreachable discards everything above the current frame's start height
// and marks it polymorphic: the standard reaction to `unreachable`, `br`,
// `br_table`, and `return`, none of which can be followed by code that cares
// about a concrete prior stack shape.
func (v *validator) setUnreachable() {
	f := v.top()
	v.values.truncate(f.startHeight)
	f.unreachable = true
}

// labelTypes returns the types observable by a branch to the control frame
// f: a loop's branch target arity is its
// params (empty in core 1.0 without multi-value), everything else's is its
// declared results.
func labelTypes(f *controlFrame) []ValueType {
	if f.isLoop {
		return f.blockType.Params
	}
	return f.blockType.Results
}

func (v *validator) frameAt(depth uint32) (*controlFrame, error) {
	if int(depth) >= len(v.frames) {
		return nil, fmt.Errorf("branch depth %d exceeds enclosing block nesting", depth)
	}
	return &v.frames[len(v.frames)-1-int(depth)], nil
}

// readBlockResultType reads a block type byte the same way readBlockArity
// does, but returns the actual declared result type (rather than just its
// arity) since the validator needs it to type-check, not merely to know how
// many values to carry across a branch.
func readBlockResultType(r *bytes.Reader) ([]ValueType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("read block type: %w", err)
	}
	if b >= 0x80 {
		return nil, &DecodeError{Reason: "multi-value block types are not supported"}
	}
	switch b {
	case 0x40:
		return nil, nil
	case byte(ValueTypeI32), byte(ValueTypeI64), byte(ValueTypeF32), byte(ValueTypeF64):
		return []ValueType{ValueType(b)}, nil
	default:
		return nil, &DecodeError{Reason: fmt.Sprintf("invalid block type byte 0x%x", b)}
	}
}

func (v *validator) step(r *bytes.Reader) error {
	opByte, err := r.ReadByte()
	if err != nil {
		return err
	}
	op := Opcode(opByte)

	switch op {
	case OpUnreachable:
		v.setUnreachable()
		return nil
	case OpNop:
		return nil

	case OpBlock, OpLoop, OpIf:
		results, err := readBlockResultType(r)
		if err != nil {
			return err
		}
		if op == OpIf {
			if err := v.pop(ValueTypeI32); err != nil {
				return err
			}
		}
		v.frames = append(v.frames, controlFrame{
			startHeight: v.values.height(),
			blockType:   &FuncType{Results: results},
			isLoop:      op == OpLoop,
		})
		return nil

	case OpElse:
		f := v.frames[len(v.frames)-1]
		if err := v.popN(f.blockType.Results); err != nil {
			return err
		}
		v.values.truncate(f.startHeight)
		v.frames[len(v.frames)-1].unreachable = false
		return nil

	case OpEnd:
		f := v.top()
		if err := v.popN(f.blockType.Results); err != nil {
			return err
		}
		if v.values.height() != f.startHeight {
			return fmt.Errorf("block leaves extra values on the stack")
		}
		v.frames = v.frames[:len(v.frames)-1]
		if len(v.frames) > 0 {
			v.pushN(f.blockType.Results)
		}
		return nil

	case OpBr:
		idx, _, err := readVarUint32(r)
		if err != nil {
			return err
		}
		f, err := v.frameAt(idx)
		if err != nil {
			return err
		}
		if err := v.popN(labelTypes(f)); err != nil {
			return err
		}
		v.setUnreachable()
		return nil

	case OpBrIf:
		idx, _, err := readVarUint32(r)
		if err != nil {
			return err
		}
		if err := v.pop(ValueTypeI32); err != nil {
			return err
		}
		f, err := v.frameAt(idx)
		if err != nil {
			return err
		}
		want := labelTypes(f)
		if err := v.popN(want); err != nil {
			return err
		}
		v.pushN(want)
		return nil

	case OpBrTable:
		n, _, err := readVarUint32(r)
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			if _, _, err := readVarUint32(r); err != nil {
				return err
			}
		}
		defaultIdx, _, err := readVarUint32(r)
		if err != nil {
			return err
		}
		if err := v.pop(ValueTypeI32); err != nil {
			return err
		}
		f, err := v.frameAt(defaultIdx)
		if err != nil {
			return err
		}
		if err := v.popN(labelTypes(f)); err != nil {
			return err
		}
		v.setUnreachable()
		return nil

	case OpReturn:
		fn := v.frames[0]
		if err := v.popN(fn.blockType.Results); err != nil {
			return err
		}
		v.setUnreachable()
		return nil

	case OpCall:
		idx, _, err := readVarUint32(r)
		if err != nil {
			return err
		}
		ft, err := v.mod.FuncTypeAt(idx)
		if err != nil {
			return err
		}
		if err := v.popN(ft.Params); err != nil {
			return err
		}
		v.pushN(ft.Results)
		return nil

	case OpCallIndirect:
		typeIdx, _, err := readVarUint32(r)
		if err != nil {
			return err
		}
		if _, err := r.ReadByte(); err != nil {
			return err
		}
		if int(typeIdx) >= len(v.mod.Types) {
			return fmt.Errorf("call_indirect: unknown type index %d", typeIdx)
		}
		if err := v.pop(ValueTypeI32); err != nil {
			return err
		}
		ft := v.mod.Types[typeIdx]
		if err := v.popN(ft.Params); err != nil {
			return err
		}
		v.pushN(ft.Results)
		return nil

	case OpDrop:
		return v.pop(unknownType)

	case OpSelect:
		if err := v.pop(ValueTypeI32); err != nil {
			return err
		}
		f := v.top()
		if v.values.height() < f.startHeight+2 {
			if f.unreachable {
				return nil
			}
			return fmt.Errorf("select: operand stack underflow")
		}
		t2 := v.values.types[len(v.values.types)-1]
		t1 := v.values.types[len(v.values.types)-2]
		if err := v.pop(t2); err != nil {
			return err
		}
		if err := v.pop(t1); err != nil {
			return err
		}
		if t1 != unknownType {
			v.push(t1)
		} else {
			v.push(t2)
		}
		return nil

	case OpLocalGet, OpLocalSet, OpLocalTee:
		idx, _, err := readVarUint32(r)
		if err != nil {
			return err
		}
		t, err := v.localType(idx)
		if err != nil {
			return err
		}
		switch op {
		case OpLocalGet:
			v.push(t)
		case OpLocalSet:
			return v.pop(t)
		case OpLocalTee:
			if err := v.pop(t); err != nil {
				return err
			}
			v.push(t)
		}
		return nil

	case OpGlobalGet, OpGlobalSet:
		idx, _, err := readVarUint32(r)
		if err != nil {
			return err
		}
		gt, err := v.globalType(idx)
		if err != nil {
			return err
		}
		if op == OpGlobalGet {
			v.push(gt.ValType)
			return nil
		}
		if !gt.Mutable {
			return fmt.Errorf("global.set on immutable global %d", idx)
		}
		return v.pop(gt.ValType)

	case OpI32Const:
		if _, _, err := readVarInt32(r); err != nil {
			return err
		}
		v.push(ValueTypeI32)
		return nil
	case OpI64Const:
		if _, _, err := readVarInt64(r); err != nil {
			return err
		}
		v.push(ValueTypeI64)
		return nil
	case OpF32Const:
		if _, err := readFloat32(r); err != nil {
			return err
		}
		v.push(ValueTypeF32)
		return nil
	case OpF64Const:
		if _, err := readFloat64(r); err != nil {
			return err
		}
		v.push(ValueTypeF64)
		return nil

	default:
		return v.stepMemoryOrNumeric(op, r)
	}
}

func (v *validator) localType(idx uint32) (ValueType, error) {
	typeIdx := v.mod.FuncTypeIdx[v.funcIdx]
	ft := v.mod.Types[typeIdx]
	if int(idx) < len(ft.Params) {
		return ft.Params[idx], nil
	}
	li := int(idx) - len(ft.Params)
	locals := v.mod.Code[v.funcIdx].LocalTypes
	if li < 0 || li >= len(locals) {
		return 0, fmt.Errorf("unknown local index %d", idx)
	}
	return locals[li], nil
}

func (v *validator) globalType(idx uint32) (GlobalType, error) {
	n := -1
	for _, imp := range v.mod.Imports {
		if imp.Desc.Kind == ImportKindGlobal {
			n++
			if uint32(n) == idx {
				return imp.Desc.GlobalType, nil
			}
		}
	}
	localIdx := int(idx) - (n + 1)
	if localIdx < 0 || localIdx >= len(v.mod.Globals) {
		return GlobalType{}, fmt.Errorf("unknown global index %d", idx)
	}
	return v.mod.Globals[localIdx].Type, nil
}

// stepMemoryOrNumeric handles every load/store/arithmetic/conversion opcode:
// their type signatures are fixed and don't reference module tables, so
// they're driven by a static signature lookup rather than hand-written per
// opcode like the control-flow cases above.
func (v *validator) stepMemoryOrNumeric(op Opcode, r *bytes.Reader) error {
	if op >= OpI32Load && op <= OpI64Store32 {
		if len(v.mod.Memories) == 0 && !v.hasImportedMemory() {
			return fmt.Errorf("memory instruction 0x%x with no memory", byte(op))
		}
		if _, err := readMemArgValidate(r); err != nil {
			return err
		}
	}
	if op == OpMemorySize || op == OpMemoryGrow {
		if _, err := r.ReadByte(); err != nil {
			return err
		}
	}

	sig, ok := numericSignatures[op]
	if !ok {
		return fmt.Errorf("unsupported or unknown opcode 0x%x", byte(op))
	}
	if err := v.popN(sig.Params); err != nil {
		return err
	}
	v.pushN(sig.Results)
	return nil
}

func (v *validator) hasImportedMemory() bool {
	for _, imp := range v.mod.Imports {
		if imp.Desc.Kind == ImportKindMem {
			return true
		}
	}
	return false
}

func readMemArgValidate(r *bytes.Reader) (uint32, error) {
	if _, _, err := readVarUint32(r); err != nil {
		return 0, err
	}
	off, _, err := readVarUint32(r)
	return off, err
}

var (
	i32 = ValueTypeI32
	i64 = ValueTypeI64
	f32 = ValueTypeF32
	f64 = ValueTypeF64
)

func sig(params, results []ValueType) *FuncType { return &FuncType{Params: params, Results: results} }

// numericSignatures gives the fixed param/result shape of every memory,
// arithmetic, comparison, and conversion instruction: the same information
// the interpreter's opcode handlers encode implicitly in what they pop/push.
var numericSignatures = map[Opcode]*FuncType{
	OpI32Load: sig([]ValueType{i32}, []ValueType{i32}), OpI64Load: sig([]ValueType{i32}, []ValueType{i64}),
	OpF32Load: sig([]ValueType{i32}, []ValueType{f32}), OpF64Load: sig([]ValueType{i32}, []ValueType{f64}),
	OpI32Load8S: sig([]ValueType{i32}, []ValueType{i32}), OpI32Load8U: sig([]ValueType{i32}, []ValueType{i32}),
	OpI32Load16S: sig([]ValueType{i32}, []ValueType{i32}), OpI32Load16U: sig([]ValueType{i32}, []ValueType{i32}),
	OpI64Load8S: sig([]ValueType{i32}, []ValueType{i64}), OpI64Load8U: sig([]ValueType{i32}, []ValueType{i64}),
	OpI64Load16S: sig([]ValueType{i32}, []ValueType{i64}), OpI64Load16U: sig([]ValueType{i32}, []ValueType{i64}),
	OpI64Load32S: sig([]ValueType{i32}, []ValueType{i64}), OpI64Load32U: sig([]ValueType{i32}, []ValueType{i64}),
	OpI32Store: sig([]ValueType{i32, i32}, nil), OpI64Store: sig([]ValueType{i32, i64}, nil),
	OpF32Store: sig([]ValueType{i32, f32}, nil), OpF64Store: sig([]ValueType{i32, f64}, nil),
	OpI32Store8: sig([]ValueType{i32, i32}, nil), OpI32Store16: sig([]ValueType{i32, i32}, nil),
	OpI64Store8: sig([]ValueType{i32, i64}, nil), OpI64Store16: sig([]ValueType{i32, i64}, nil), OpI64Store32: sig([]ValueType{i32, i64}, nil),
	OpMemorySize: sig(nil, []ValueType{i32}), OpMemoryGrow: sig([]ValueType{i32}, []ValueType{i32}),

	OpI32Eqz: sig([]ValueType{i32}, []ValueType{i32}),
	OpI32Eq: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32Ne: sig([]ValueType{i32, i32}, []ValueType{i32}),
	OpI32LtS: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32LtU: sig([]ValueType{i32, i32}, []ValueType{i32}),
	OpI32GtS: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32GtU: sig([]ValueType{i32, i32}, []ValueType{i32}),
	OpI32LeS: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32LeU: sig([]ValueType{i32, i32}, []ValueType{i32}),
	OpI32GeS: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32GeU: sig([]ValueType{i32, i32}, []ValueType{i32}),

	OpI64Eqz: sig([]ValueType{i64}, []ValueType{i32}),
	OpI64Eq: sig([]ValueType{i64, i64}, []ValueType{i32}), OpI64Ne: sig([]ValueType{i64, i64}, []ValueType{i32}),
	OpI64LtS: sig([]ValueType{i64, i64}, []ValueType{i32}), OpI64LtU: sig([]ValueType{i64, i64}, []ValueType{i32}),
	OpI64GtS: sig([]ValueType{i64, i64}, []ValueType{i32}), OpI64GtU: sig([]ValueType{i64, i64}, []ValueType{i32}),
	OpI64LeS: sig([]ValueType{i64, i64}, []ValueType{i32}), OpI64LeU: sig([]ValueType{i64, i64}, []ValueType{i32}),
	OpI64GeS: sig([]ValueType{i64, i64}, []ValueType{i32}), OpI64GeU: sig([]ValueType{i64, i64}, []ValueType{i32}),

	OpF32Eq: sig([]ValueType{f32, f32}, []ValueType{i32}), OpF32Ne: sig([]ValueType{f32, f32}, []ValueType{i32}),
	OpF32Lt: sig([]ValueType{f32, f32}, []ValueType{i32}), OpF32Gt: sig([]ValueType{f32, f32}, []ValueType{i32}),
	OpF32Le: sig([]ValueType{f32, f32}, []ValueType{i32}), OpF32Ge: sig([]ValueType{f32, f32}, []ValueType{i32}),

	OpF64Eq: sig([]ValueType{f64, f64}, []ValueType{i32}), OpF64Ne: sig([]ValueType{f64, f64}, []ValueType{i32}),
	OpF64Lt: sig([]ValueType{f64, f64}, []ValueType{i32}), OpF64Gt: sig([]ValueType{f64, f64}, []ValueType{i32}),
	OpF64Le: sig([]ValueType{f64, f64}, []ValueType{i32}), OpF64Ge: sig([]ValueType{f64, f64}, []ValueType{i32}),

	OpI32Clz: sig([]ValueType{i32}, []ValueType{i32}), OpI32Ctz: sig([]ValueType{i32}, []ValueType{i32}), OpI32Popcnt: sig([]ValueType{i32}, []ValueType{i32}),
	OpI32Add: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32Sub: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32Mul: sig([]ValueType{i32, i32}, []ValueType{i32}),
	OpI32DivS: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32DivU: sig([]ValueType{i32, i32}, []ValueType{i32}),
	OpI32RemS: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32RemU: sig([]ValueType{i32, i32}, []ValueType{i32}),
	OpI32And: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32Or: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32Xor: sig([]ValueType{i32, i32}, []ValueType{i32}),
	OpI32Shl: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32ShrS: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32ShrU: sig([]ValueType{i32, i32}, []ValueType{i32}),
	OpI32Rotl: sig([]ValueType{i32, i32}, []ValueType{i32}), OpI32Rotr: sig([]ValueType{i32, i32}, []ValueType{i32}),

	OpI64Clz: sig([]ValueType{i64}, []ValueType{i64}), OpI64Ctz: sig([]ValueType{i64}, []ValueType{i64}), OpI64Popcnt: sig([]ValueType{i64}, []ValueType{i64}),
	OpI64Add: sig([]ValueType{i64, i64}, []ValueType{i64}), OpI64Sub: sig([]ValueType{i64, i64}, []ValueType{i64}), OpI64Mul: sig([]ValueType{i64, i64}, []ValueType{i64}),
	OpI64DivS: sig([]ValueType{i64, i64}, []ValueType{i64}), OpI64DivU: sig([]ValueType{i64, i64}, []ValueType{i64}),
	OpI64RemS: sig([]ValueType{i64, i64}, []ValueType{i64}), OpI64RemU: sig([]ValueType{i64, i64}, []ValueType{i64}),
	OpI64And: sig([]ValueType{i64, i64}, []ValueType{i64}), OpI64Or: sig([]ValueType{i64, i64}, []ValueType{i64}), OpI64Xor: sig([]ValueType{i64, i64}, []ValueType{i64}),
	OpI64Shl: sig([]ValueType{i64, i64}, []ValueType{i64}), OpI64ShrS: sig([]ValueType{i64, i64}, []ValueType{i64}), OpI64ShrU: sig([]ValueType{i64, i64}, []ValueType{i64}),
	OpI64Rotl: sig([]ValueType{i64, i64}, []ValueType{i64}), OpI64Rotr: sig([]ValueType{i64, i64}, []ValueType{i64}),

	OpF32Abs: sig([]ValueType{f32}, []ValueType{f32}), OpF32Neg: sig([]ValueType{f32}, []ValueType{f32}),
	OpF32Ceil: sig([]ValueType{f32}, []ValueType{f32}), OpF32Floor: sig([]ValueType{f32}, []ValueType{f32}),
	OpF32Trunc: sig([]ValueType{f32}, []ValueType{f32}), OpF32Nearest: sig([]ValueType{f32}, []ValueType{f32}), OpF32Sqrt: sig([]ValueType{f32}, []ValueType{f32}),
	OpF32Add: sig([]ValueType{f32, f32}, []ValueType{f32}), OpF32Sub: sig([]ValueType{f32, f32}, []ValueType{f32}),
	OpF32Mul: sig([]ValueType{f32, f32}, []ValueType{f32}), OpF32Div: sig([]ValueType{f32, f32}, []ValueType{f32}),
	OpF32Min: sig([]ValueType{f32, f32}, []ValueType{f32}), OpF32Max: sig([]ValueType{f32, f32}, []ValueType{f32}), OpF32Copysign: sig([]ValueType{f32, f32}, []ValueType{f32}),

	OpF64Abs: sig([]ValueType{f64}, []ValueType{f64}), OpF64Neg: sig([]ValueType{f64}, []ValueType{f64}),
	OpF64Ceil: sig([]ValueType{f64}, []ValueType{f64}), OpF64Floor: sig([]ValueType{f64}, []ValueType{f64}),
	OpF64Trunc: sig([]ValueType{f64}, []ValueType{f64}), OpF64Nearest: sig([]ValueType{f64}, []ValueType{f64}), OpF64Sqrt: sig([]ValueType{f64}, []ValueType{f64}),
	OpF64Add: sig([]ValueType{f64, f64}, []ValueType{f64}), OpF64Sub: sig([]ValueType{f64, f64}, []ValueType{f64}),
	OpF64Mul: sig([]ValueType{f64, f64}, []ValueType{f64}), OpF64Div: sig([]ValueType{f64, f64}, []ValueType{f64}),
	OpF64Min: sig([]ValueType{f64, f64}, []ValueType{f64}), OpF64Max: sig([]ValueType{f64, f64}, []ValueType{f64}), OpF64Copysign: sig([]ValueType{f64, f64}, []ValueType{f64}),

	OpI32WrapI64: sig([]ValueType{i64}, []ValueType{i32}),
	OpI32TruncF32S: sig([]ValueType{f32}, []ValueType{i32}), OpI32TruncF32U: sig([]ValueType{f32}, []ValueType{i32}),
	OpI32TruncF64S: sig([]ValueType{f64}, []ValueType{i32}), OpI32TruncF64U: sig([]ValueType{f64}, []ValueType{i32}),
	OpI64ExtendI32S: sig([]ValueType{i32}, []ValueType{i64}), OpI64ExtendI32U: sig([]ValueType{i32}, []ValueType{i64}),
	OpI64TruncF32S: sig([]ValueType{f32}, []ValueType{i64}), OpI64TruncF32U: sig([]ValueType{f32}, []ValueType{i64}),
	OpI64TruncF64S: sig([]ValueType{f64}, []ValueType{i64}), OpI64TruncF64U: sig([]ValueType{f64}, []ValueType{i64}),
	OpF32ConvertI32S: sig([]ValueType{i32}, []ValueType{f32}), OpF32ConvertI32U: sig([]ValueType{i32}, []ValueType{f32}),
	OpF32ConvertI64S: sig([]ValueType{i64}, []ValueType{f32}), OpF32ConvertI64U: sig([]ValueType{i64}, []ValueType{f32}),
	OpF32DemoteF64: sig([]ValueType{f64}, []ValueType{f32}),
	OpF64ConvertI32S: sig([]ValueType{i32}, []ValueType{f64}), OpF64ConvertI32U: sig([]ValueType{i32}, []ValueType{f64}),
	OpF64ConvertI64S: sig([]ValueType{i64}, []ValueType{f64}), OpF64ConvertI64U: sig([]ValueType{i64}, []ValueType{f64}),
	OpF64PromoteF32: sig([]ValueType{f32}, []ValueType{f64}),
	OpI32ReinterpretF32: sig([]ValueType{f32}, []ValueType{i32}), OpI64ReinterpretF64: sig([]ValueType{f64}, []ValueType{i64}),
	OpF32ReinterpretI32: sig([]ValueType{i32}, []ValueType{f32}), OpF64ReinterpretI64: sig([]ValueType{i64}, []ValueType{f64}),
}

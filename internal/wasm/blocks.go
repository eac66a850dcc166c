package wasm

import (
	"bytes"
	"fmt"
)

// BlockInfo records the pre-computed branch targets for one block/loop/if
// opening instruction, keyed by the byte offset of that opening instruction
// within its function body. Computing this once per function when
// Store.Instantiate builds it (rather than scanning for the matching else/end
// at branch time) makes every `br`/`br_if` dispatch an O(1) lookup.
type BlockInfo struct {
	IsLoop bool
	Arity  int // 0 or 1, the result arity of the block
	ElsePC int // offset just past the else opcode; -1 if the if has no else
	EndPC  int // offset just past the matching end opcode
}

// computeBlocks performs one linear scan of a function body and returns the
// BlockInfo for every block/loop/if it contains.
func computeBlocks(body []byte) (map[int]*BlockInfo, error) {
	blocks := make(map[int]*BlockInfo)

	type open struct {
		pc     int
		isLoop bool
		isIf   bool
		arity  int
	}
	var stack []open

	r := bytes.NewReader(body)
	pos := func() int { return len(body) - r.Len() }

	for pos() < len(body) {
		opPC := pos()
		opByte, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("compute branch targets: %w", err)
		}
		op := Opcode(opByte)
		switch op {
		case OpBlock, OpLoop, OpIf:
			arity, err := readBlockArity(r)
			if err != nil {
				return nil, err
			}
			stack = append(stack, open{pc: opPC, isLoop: op == OpLoop, isIf: op == OpIf, arity: arity})
		case OpElse:
			if len(stack) == 0 || !stack[len(stack)-1].isIf {
				return nil, &DecodeError{Reason: "else without matching if"}
			}
			top := stack[len(stack)-1]
			blocks[top.pc] = &BlockInfo{IsLoop: false, Arity: top.arity, ElsePC: pos(), EndPC: -1}
		case OpEnd:
			if len(stack) == 0 {
				continue // the function-body-terminating end
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			info := blocks[top.pc]
			if info == nil {
				info = &BlockInfo{IsLoop: top.isLoop, Arity: top.arity, ElsePC: -1}
				blocks[top.pc] = info
			}
			info.EndPC = pos()
		default:
			if err := skipImmediate(op, r); err != nil {
				return nil, err
			}
		}
	}
	if len(stack) != 0 {
		return nil, &DecodeError{Reason: "unterminated block in function body"}
	}
	return blocks, nil
}

func readBlockArity(r *bytes.Reader) (int, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, fmt.Errorf("read block type: %w", err)
	}
	if b >= 0x80 {
		return 0, &DecodeError{Reason: "multi-value block types are not supported"}
	}
	switch b {
	case 0x40:
		return 0, nil
	case byte(ValueTypeI32), byte(ValueTypeI64), byte(ValueTypeF32), byte(ValueTypeF64):
		return 1, nil
	default:
		return 0, &DecodeError{Reason: fmt.Sprintf("invalid block type byte 0x%x", b)}
	}
}

// skipImmediate advances r past the immediate operand(s) of op, for every
// opcode that is not itself block-structuring (those are handled by the
// caller). Used only during the block-target precompute pass.
func skipImmediate(op Opcode, r *bytes.Reader) error {
	switch op {
	case OpBr, OpBrIf, OpCall, OpLocalGet, OpLocalSet, OpLocalTee, OpGlobalGet, OpGlobalSet:
		_, _, err := readVarUint32(r)
		return err
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
		_, _, err = readVarUint32(r) // default label
		return err
	case OpCallIndirect:
		if _, _, err := readVarUint32(r); err != nil {
			return err
		}
		_, err := r.ReadByte() // reserved table-index byte
		return err
	case OpI32Load, OpI64Load, OpF32Load, OpF64Load,
		OpI32Load8S, OpI32Load8U, OpI32Load16S, OpI32Load16U,
		OpI64Load8S, OpI64Load8U, OpI64Load16S, OpI64Load16U, OpI64Load32S, OpI64Load32U,
		OpI32Store, OpI64Store, OpF32Store, OpF64Store,
		OpI32Store8, OpI32Store16, OpI64Store8, OpI64Store16, OpI64Store32:
		if _, _, err := readVarUint32(r); err != nil { // align
			return err
		}
		_, _, err := readVarUint32(r) // offset
		return err
	case OpMemorySize, OpMemoryGrow:
		_, err := r.ReadByte() // reserved
		return err
	case OpI32Const:
		_, _, err := readVarInt32(r)
		return err
	case OpI64Const:
		_, _, err := readVarInt64(r)
		return err
	case OpF32Const:
		var buf [4]byte
		_, err := r.Read(buf[:])
		return err
	case OpF64Const:
		var buf [8]byte
		_, err := r.Read(buf[:])
		return err
	default:
		return nil // no immediate operand
	}
}

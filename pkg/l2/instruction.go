package l2

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

// Instruction is an immutable (opcode, operands, source position) triple.
// The operand list always matches the opcode's declared signature; that is
// enforced at construction and nowhere else needs to re-check it.
type Instruction struct {
	Op       Opcode
	Operands []Operand

	// Source is the originating level-one byte offset, or -1.
	Source int
}

// NewInstruction builds an instruction, verifying that the operand count,
// kind sequence, register kinds, and edge purposes exactly match the
// opcode's declared signature. A mismatch is an internal error: it indicates
// a bug in the translator, not in the program being translated.
func NewInstruction(op Opcode, operands ...Operand) (*Instruction, error) {
	if op >= numOpcodes {
		return nil, internalf("unknown opcode %d", op)
	}
	info := &opcodeTable[op]
	if len(operands) != len(info.operands) {
		return nil, internalf("%s takes %d operands, got %d", op, len(info.operands), len(operands))
	}

	checked := make([]Operand, len(operands))
	for i, o := range operands {
		spec := info.operands[i]
		if err := o.checkKind(spec.kind); err != nil {
			return nil, internalf("%s operand %q: %v", op, spec.name, err)
		}
		if rk, ok := registerKindFor(spec.kind); ok && o.Register.Kind != rk {
			return nil, internalf("%s operand %q: register %s is not %s",
				op, spec.name, o.Register, rk)
		}
		if spec.kind == PCKind {
			if o.Edge == nil || o.Edge.Label == nil {
				return nil, internalf("%s operand %q: missing edge", op, spec.name)
			}
			if o.Edge.Purpose != spec.purpose {
				return nil, internalf("%s operand %q: edge purpose %q, want %q",
					op, spec.name, o.Edge.Purpose, spec.purpose)
			}
		}
		o.Name = spec.name
		checked[i] = o
	}
	return &Instruction{Op: op, Operands: checked, Source: -1}, nil
}

// mustInstruction is for call sites whose operands are statically correct by
// construction (the generator's own emission helpers).
func mustInstruction(op Opcode, operands ...Operand) *Instruction {
	ins, err := NewInstruction(op, operands...)
	if err != nil {
		panic(err)
	}
	return ins
}

// HasSideEffect reports whether the instruction must survive dead-code
// elimination even when its written registers are unused.
func (ins *Instruction) HasSideEffect() bool { return ins.Op.HasSideEffect() }

// EndsBlock reports whether control never falls through to the next
// instruction.
func (ins *Instruction) EndsBlock() bool { return ins.Op.EndsBlock() }

// Edges returns the instruction's outgoing control-flow edges in operand
// order.
func (ins *Instruction) Edges() []*Edge {
	var out []*Edge
	for i := range ins.Operands {
		if ins.Operands[i].Kind == PCKind {
			out = append(out, ins.Operands[i].Edge)
		}
	}
	return out
}

// ReadRegisters returns every register the instruction reads, vector
// elements included.
func (ins *Instruction) ReadRegisters() []Register {
	var out []Register
	for i := range ins.Operands {
		o := &ins.Operands[i]
		switch o.Kind {
		case ReadBoxedKind, ReadIntKind, ReadFloatKind:
			out = append(out, o.Register)
		case ReadVectorKind:
			for _, e := range o.Vector {
				out = append(out, e.Register)
			}
		}
	}
	return out
}

// WriteRegisters returns every register the instruction writes.
func (ins *Instruction) WriteRegisters() []Register {
	var out []Register
	for i := range ins.Operands {
		if ins.Operands[i].IsWrite() {
			out = append(out, ins.Operands[i].Register)
		}
	}
	return out
}

// Operand returns the operand with the given role name, or nil.
func (ins *Instruction) Operand(name string) *Operand {
	for i := range ins.Operands {
		if ins.Operands[i].Name == name {
			return &ins.Operands[i]
		}
	}
	return nil
}

func (ins *Instruction) String() string {
	parts := make([]string, len(ins.Operands))
	for i := range ins.Operands {
		parts[i] = ins.Operands[i].String()
	}
	return fmt.Sprintf("%s %s", ins.Op, strings.Join(parts, ", "))
}

package l1

import (
	"encoding/binary"
	"fmt"
)

// Instruction is one decoded level-one operation.
type Instruction struct {
	// Offset is the byte offset of the opcode within the code stream.
	Offset int

	Op       Opcode
	Operands []int
}

// Decode decodes a full code stream. Malformed code (unknown opcode,
// truncated operand) is a decode error, never a panic.
func Decode(code []byte) ([]Instruction, error) {
	var out []Instruction
	pc := 0
	for pc < len(code) {
		ins, next, err := DecodeAt(code, pc)
		if err != nil {
			return nil, err
		}
		out = append(out, ins)
		pc = next
	}
	return out, nil
}

// DecodeAt decodes the single instruction at pc and returns it along with
// the offset of the next instruction.
func DecodeAt(code []byte, pc int) (Instruction, int, error) {
	op := Opcode(code[pc])
	count := op.OperandCount()
	if count < 0 {
		return Instruction{}, 0, fmt.Errorf("unknown opcode 0x%02X at offset %d", code[pc], pc)
	}
	if pc+1+2*count > len(code) {
		return Instruction{}, 0, fmt.Errorf("truncated operands for %s at offset %d", op, pc)
	}

	ins := Instruction{Offset: pc, Op: op}
	if count > 0 {
		ins.Operands = make([]int, count)
		for i := 0; i < count; i++ {
			ins.Operands[i] = int(binary.BigEndian.Uint16(code[pc+1+2*i:]))
		}
	}
	return ins, pc + 1 + 2*count, nil
}

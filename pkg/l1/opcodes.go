// Package l1 defines the level-one instruction set: the naive, stack-based
// bytecode produced by a front end and consumed by the optimizing level-two
// translator. L1 code is expression-structured and has no jumps; all control
// flow appears at level two as explicit branch edges.
package l1

import "fmt"

// Opcode is a level-one bytecode instruction.
type Opcode byte

const (
	// OpPushLiteral pushes a literal from the pool: OpPushLiteral <index:u16>
	OpPushLiteral Opcode = 0x01

	// OpPushLocal pushes a local slot's value: OpPushLocal <slot:u16>
	OpPushLocal Opcode = 0x02

	// OpSetLocal pops and stores to a local slot: OpSetLocal <slot:u16>
	OpSetLocal Opcode = 0x03

	// OpPushOuter pushes a captured outer slot: OpPushOuter <slot:u16>
	OpPushOuter Opcode = 0x04

	// OpGetVariable pops a variable cell and pushes its current value.
	// Reading an unassigned cell is an expected failure, surfaced at level
	// two through the get-variable instruction's failure edge.
	OpGetVariable Opcode = 0x06

	// OpSetVariable pops a value, pops a variable cell, and stores the
	// value into the cell.
	OpSetVariable Opcode = 0x07

	// OpCall invokes a bundle by name-pool index with N arguments popped
	// from the stack (first argument deepest): OpCall <bundle:u16> <argc:u16>
	OpCall Opcode = 0x08

	// OpClose creates a function from a nested chunk, popping M captured
	// outer values: OpClose <function:u16> <captures:u16>
	OpClose Opcode = 0x09

	// OpPop discards the top of stack.
	OpPop Opcode = 0x0A

	// OpDup duplicates the top of stack.
	OpDup Opcode = 0x0B

	// OpReturn pops the result and terminates the chunk.
	OpReturn Opcode = 0x0F
)

// operandCounts maps each opcode to its number of u16 operands.
var operandCounts = map[Opcode]int{
	OpPushLiteral: 1,
	OpPushLocal:   1,
	OpSetLocal:    1,
	OpPushOuter:   1,
	OpGetVariable: 0,
	OpSetVariable: 0,
	OpCall:        2,
	OpClose:       2,
	OpPop:         0,
	OpDup:         0,
	OpReturn:      0,
}

// OperandCount returns the number of u16 operands op takes, or -1 for an
// unknown opcode.
func (op Opcode) OperandCount() int {
	n, ok := operandCounts[op]
	if !ok {
		return -1
	}
	return n
}

// String returns the mnemonic for the opcode.
func (op Opcode) String() string {
	switch op {
	case OpPushLiteral:
		return "push-literal"
	case OpPushLocal:
		return "push-local"
	case OpSetLocal:
		return "set-local"
	case OpPushOuter:
		return "push-outer"
	case OpGetVariable:
		return "get-variable"
	case OpSetVariable:
		return "set-variable"
	case OpCall:
		return "call"
	case OpClose:
		return "close"
	case OpPop:
		return "pop"
	case OpDup:
		return "dup"
	case OpReturn:
		return "return"
	default:
		return fmt.Sprintf("Opcode(0x%02X)", byte(op))
	}
}

package l2

import "fmt"

// ---------------------------------------------------------------------------
// The level-two instruction catalogue
// ---------------------------------------------------------------------------
//
// The operation set is fixed and finite, so it is a closed enum with a
// data-driven table rather than an open class hierarchy: one row per opcode
// declaring the mnemonic, the ordered named operand signature, and the
// side-effect flag. Exhaustive switches over Opcode elsewhere (evaluator,
// disassembler) get compile-time visibility of the whole set.

// Opcode is a level-two operation.
type Opcode uint8

const (
	// OpMoveConstant writes a boxed constant into a fresh register.
	OpMoveConstant Opcode = iota

	// OpMoveConstantInt writes an immediate int32 into an int register.
	OpMoveConstantInt

	// OpMoveConstantFloat writes an immediate double into a float register.
	OpMoveConstantFloat

	// OpMove copies between boxed registers.
	OpMove

	// OpMoveInt copies between int registers.
	OpMoveInt

	// OpMoveFloat copies between float registers.
	OpMoveFloat

	// OpBoxInt boxes an int register's value.
	OpBoxInt

	// OpBoxFloat boxes a float register's value.
	OpBoxFloat

	// OpUnboxInt extracts an int32 from a boxed value, branching to failure
	// when the value is not an integer in int32 range.
	OpUnboxInt

	// OpUnboxFloat extracts a double from a boxed value, branching to
	// failure when the value is not a float.
	OpUnboxFloat

	// OpAddIntToInt adds two int registers with a widened overflow check:
	// the sum is computed in 64 bits, the low 32 bits are written, and
	// control goes to "in range" iff the widened sum round-trips through
	// int32. The check is a side effect; it is never elided.
	OpAddIntToInt

	// OpSubtractIntFromInt subtracts with the same widened overflow check.
	OpSubtractIntFromInt

	// OpCreateVariable allocates a fresh unassigned variable cell.
	OpCreateVariable

	// OpGetVariable reads a cell, branching to failure when unassigned (the
	// destination is not written on that edge).
	OpGetVariable

	// OpSetVariable stores a value into a cell.
	OpSetVariable

	// OpClearVariable returns a cell to the unassigned state.
	OpClearVariable

	// OpMakeImmutable freezes a value. The instruction stays in the stream
	// even when the source might already be immutable: downstream code
	// relies on the destination register's post-condition, which must not
	// be assumed transitively through the source register.
	OpMakeImmutable

	// OpJump transfers control unconditionally.
	OpJump

	// OpJumpIfObjectsEqual branches on semantic equality of two boxed
	// values.
	OpJumpIfObjectsEqual

	// OpJumpIfSubtypeOf branches on whether a value is an instance of a
	// constant type.
	OpJumpIfSubtypeOf

	// OpGetCurrentContinuation reifies the current execution state. Always
	// side-effecting so it never moves across state transitions.
	OpGetCurrentContinuation

	// OpCreateFunction closes a constant code body over captured outers.
	OpCreateFunction

	// OpLookupByValues performs runtime multi-argument dispatch, writing
	// the resolved function on success or a failure code on failure.
	OpLookupByValues

	// OpInvoke calls a function value with an argument vector.
	OpInvoke

	// OpFail terminates the unit reporting a program-level failure code to
	// the caller.
	OpFail

	// OpReturn terminates the unit with a result.
	OpReturn

	numOpcodes
)

// operandSpec declares one slot of an opcode's signature: the operand kind
// plus the role name used in diagnostics, and for PC operands the edge
// purpose the site must carry.
type operandSpec struct {
	kind    OperandKind
	name    string
	purpose EdgePurpose
}

// opcodeInfo is one row of the catalogue.
type opcodeInfo struct {
	name string

	// hasSideEffect marks instructions dead-code elimination must never
	// remove even when their written registers are unused.
	hasSideEffect bool

	// endsBlock marks instructions control never falls through: jumps,
	// two-target branches, and unit exits.
	endsBlock bool

	operands []operandSpec
}

var opcodeTable = [numOpcodes]opcodeInfo{
	OpMoveConstant: {
		name: "move-constant",
		operands: []operandSpec{
			{kind: ConstantKind, name: "value"},
			{kind: WriteBoxedKind, name: "destination"},
		},
	},
	OpMoveConstantInt: {
		name: "move-constant-int",
		operands: []operandSpec{
			{kind: IntImmediateKind, name: "value"},
			{kind: WriteIntKind, name: "destination"},
		},
	},
	OpMoveConstantFloat: {
		name: "move-constant-float",
		operands: []operandSpec{
			{kind: FloatImmediateKind, name: "value"},
			{kind: WriteFloatKind, name: "destination"},
		},
	},
	OpMove: {
		name: "move",
		operands: []operandSpec{
			{kind: ReadBoxedKind, name: "source"},
			{kind: WriteBoxedKind, name: "destination"},
		},
	},
	OpMoveInt: {
		name: "move-int",
		operands: []operandSpec{
			{kind: ReadIntKind, name: "source"},
			{kind: WriteIntKind, name: "destination"},
		},
	},
	OpMoveFloat: {
		name: "move-float",
		operands: []operandSpec{
			{kind: ReadFloatKind, name: "source"},
			{kind: WriteFloatKind, name: "destination"},
		},
	},
	OpBoxInt: {
		name: "box-int",
		operands: []operandSpec{
			{kind: ReadIntKind, name: "source"},
			{kind: WriteBoxedKind, name: "destination"},
		},
	},
	OpBoxFloat: {
		name: "box-float",
		operands: []operandSpec{
			{kind: ReadFloatKind, name: "source"},
			{kind: WriteBoxedKind, name: "destination"},
		},
	},
	OpUnboxInt: {
		name:      "unbox-int",
		endsBlock: true,
		operands: []operandSpec{
			{kind: ReadBoxedKind, name: "source"},
			{kind: WriteIntKind, name: "destination"},
			{kind: PCKind, name: "unboxed", purpose: PurposeSuccess},
			{kind: PCKind, name: "not an int32", purpose: PurposeFailure},
		},
	},
	OpUnboxFloat: {
		name:      "unbox-float",
		endsBlock: true,
		operands: []operandSpec{
			{kind: ReadBoxedKind, name: "source"},
			{kind: WriteFloatKind, name: "destination"},
			{kind: PCKind, name: "unboxed", purpose: PurposeSuccess},
			{kind: PCKind, name: "not a float", purpose: PurposeFailure},
		},
	},
	OpAddIntToInt: {
		name:          "add-int-to-int",
		hasSideEffect: true,
		endsBlock:     true,
		operands: []operandSpec{
			{kind: ReadIntKind, name: "augend"},
			{kind: ReadIntKind, name: "addend"},
			{kind: WriteIntKind, name: "sum"},
			{kind: PCKind, name: "in range", purpose: PurposeSuccess},
			{kind: PCKind, name: "out of range", purpose: PurposeFailure},
		},
	},
	OpSubtractIntFromInt: {
		name:          "subtract-int-from-int",
		hasSideEffect: true,
		endsBlock:     true,
		operands: []operandSpec{
			{kind: ReadIntKind, name: "minuend"},
			{kind: ReadIntKind, name: "subtrahend"},
			{kind: WriteIntKind, name: "difference"},
			{kind: PCKind, name: "in range", purpose: PurposeSuccess},
			{kind: PCKind, name: "out of range", purpose: PurposeFailure},
		},
	},
	OpCreateVariable: {
		name: "create-variable",
		operands: []operandSpec{
			{kind: ConstantKind, name: "content type"},
			{kind: WriteBoxedKind, name: "variable"},
		},
	},
	OpGetVariable: {
		name:          "get-variable",
		hasSideEffect: true,
		endsBlock:     true,
		operands: []operandSpec{
			{kind: ReadBoxedKind, name: "variable"},
			{kind: WriteBoxedKind, name: "value"},
			{kind: PCKind, name: "succeeded", purpose: PurposeSuccess},
			{kind: PCKind, name: "failed", purpose: PurposeFailure},
		},
	},
	OpSetVariable: {
		name:          "set-variable",
		hasSideEffect: true,
		operands: []operandSpec{
			{kind: ReadBoxedKind, name: "variable"},
			{kind: ReadBoxedKind, name: "value"},
		},
	},
	OpClearVariable: {
		name:          "clear-variable",
		hasSideEffect: true,
		operands: []operandSpec{
			{kind: ReadBoxedKind, name: "variable"},
		},
	},
	OpMakeImmutable: {
		name:          "make-immutable",
		hasSideEffect: true,
		operands: []operandSpec{
			{kind: ReadBoxedKind, name: "source"},
			{kind: WriteBoxedKind, name: "destination"},
		},
	},
	OpJump: {
		name:      "jump",
		endsBlock: true,
		operands: []operandSpec{
			{kind: PCKind, name: "target"},
		},
	},
	OpJumpIfObjectsEqual: {
		name:      "jump-if-objects-equal",
		endsBlock: true,
		operands: []operandSpec{
			{kind: ReadBoxedKind, name: "first"},
			{kind: ReadBoxedKind, name: "second"},
			{kind: PCKind, name: "equal", purpose: PurposeSuccess},
			{kind: PCKind, name: "not equal", purpose: PurposeFailure},
		},
	},
	OpJumpIfSubtypeOf: {
		name:      "jump-if-subtype-of",
		endsBlock: true,
		operands: []operandSpec{
			{kind: ReadBoxedKind, name: "value"},
			{kind: ConstantKind, name: "type"},
			{kind: PCKind, name: "is instance", purpose: PurposeSuccess},
			{kind: PCKind, name: "not instance", purpose: PurposeFailure},
		},
	},
	OpGetCurrentContinuation: {
		name:          "get-current-continuation",
		hasSideEffect: true,
		operands: []operandSpec{
			{kind: WriteBoxedKind, name: "continuation"},
		},
	},
	OpCreateFunction: {
		name: "create-function",
		operands: []operandSpec{
			{kind: ConstantKind, name: "code"},
			{kind: ReadVectorKind, name: "outers"},
			{kind: WriteBoxedKind, name: "function"},
		},
	},
	OpLookupByValues: {
		name:          "lookup-by-values",
		hasSideEffect: true,
		endsBlock:     true,
		operands: []operandSpec{
			{kind: SelectorKind, name: "bundle"},
			{kind: ReadVectorKind, name: "arguments"},
			{kind: WriteBoxedKind, name: "function"},
			{kind: WriteIntKind, name: "error code"},
			{kind: PCKind, name: "found", purpose: PurposeSuccess},
			{kind: PCKind, name: "not found", purpose: PurposeFailure},
		},
	},
	OpInvoke: {
		name:          "invoke",
		hasSideEffect: true,
		operands: []operandSpec{
			{kind: ReadBoxedKind, name: "function"},
			{kind: ReadVectorKind, name: "arguments"},
			{kind: WriteBoxedKind, name: "result"},
		},
	},
	OpFail: {
		name:          "fail",
		hasSideEffect: true,
		endsBlock:     true,
		operands: []operandSpec{
			{kind: ReadIntKind, name: "error code"},
		},
	},
	OpReturn: {
		name:          "return",
		hasSideEffect: true,
		endsBlock:     true,
		operands: []operandSpec{
			{kind: ReadBoxedKind, name: "value"},
		},
	},
}

// String returns the opcode mnemonic.
func (op Opcode) String() string {
	if op < numOpcodes {
		return opcodeTable[op].name
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// HasSideEffect reports whether instances of this opcode must survive
// dead-code elimination unconditionally.
func (op Opcode) HasSideEffect() bool { return opcodeTable[op].hasSideEffect }

// EndsBlock reports whether control never falls through this opcode.
func (op Opcode) EndsBlock() bool { return opcodeTable[op].endsBlock }

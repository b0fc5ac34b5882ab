package l2

import (
	"fmt"
	"math"

	"github.com/chazu/optic/pkg/dispatch"
	"github.com/chazu/optic/pkg/object"
)

// ---------------------------------------------------------------------------
// Reference evaluator
// ---------------------------------------------------------------------------
//
// Run executes a chunk by direct interpretation. It exists as the executable
// definition of the instruction semantics: tests compare optimized
// translations against it, and it backs non-primitive function invocation
// until a machine-code backend is wired in. It is deliberately simple; any
// disagreement between Run and an optimizing backend is a bug in the
// backend.

// continuationValue is the reification produced by
// get-current-continuation: the chunk plus the position of the reifying
// instruction.
type continuationValue struct {
	chunk *Chunk
	pc    int
}

func (c *continuationValue) Kind() object.Type { return object.Continuation }
func (c *continuationValue) IsInstanceOf(t object.Type) bool {
	return object.Continuation.IsSubtypeOf(t)
}
func (c *continuationValue) Equals(other object.Value) bool { return c == other }
func (c *continuationValue) MakeImmutable() object.Value    { return c }
func (c *continuationValue) IsImmutable() bool              { return true }
func (c *continuationValue) String() string {
	return fmt.Sprintf("continuation %s@%d", c.chunk.Name, c.pc)
}

// Run executes the chunk with the given arguments and captured outers and
// returns its result. A unit ending at a fail instruction returns a
// *FailureError carrying the failure code.
func Run(c *Chunk, args, outers []object.Value) (object.Value, error) {
	if len(args) != c.NumArgs {
		return nil, fmt.Errorf("chunk %q takes %d arguments, got %d", c.Name, c.NumArgs, len(args))
	}
	if len(outers) != c.NumOuters {
		return nil, fmt.Errorf("chunk %q captures %d outers, got %d", c.Name, c.NumOuters, len(outers))
	}

	boxed := make([]object.Value, c.NumBoxed)
	ints := make([]int64, c.NumInt)
	floats := make([]float64, c.NumFloat)
	copy(boxed, args)
	copy(boxed[len(args):], outers)

	pc := 0
	for pc < len(c.Instructions) {
		ins := c.Instructions[pc]
		next := pc + 1

		switch ins.Op {
		case OpMoveConstant:
			boxed[reg(ins, "destination")] = ins.Operand("value").Constant
		case OpMoveConstantInt:
			ints[reg(ins, "destination")] = ins.Operand("value").IntImm
		case OpMoveConstantFloat:
			floats[reg(ins, "destination")] = ins.Operand("value").FloatImm
		case OpMove:
			boxed[reg(ins, "destination")] = boxed[reg(ins, "source")]
		case OpMoveInt:
			ints[reg(ins, "destination")] = ints[reg(ins, "source")]
		case OpMoveFloat:
			floats[reg(ins, "destination")] = floats[reg(ins, "source")]
		case OpBoxInt:
			boxed[reg(ins, "destination")] = object.IntValue(ints[reg(ins, "source")])
		case OpBoxFloat:
			boxed[reg(ins, "destination")] = object.FloatValue(floats[reg(ins, "source")])

		case OpUnboxInt:
			v, ok := boxed[reg(ins, "source")].(object.IntValue)
			if ok && int64(v) >= math.MinInt32 && int64(v) <= math.MaxInt32 {
				ints[reg(ins, "destination")] = int64(v)
				next = target(ins, "unboxed")
			} else {
				next = target(ins, "not an int32")
			}
		case OpUnboxFloat:
			if v, ok := boxed[reg(ins, "source")].(object.FloatValue); ok {
				floats[reg(ins, "destination")] = float64(v)
				next = target(ins, "unboxed")
			} else {
				next = target(ins, "not a float")
			}

		case OpAddIntToInt:
			wide := ints[reg(ins, "augend")] + ints[reg(ins, "addend")]
			truncated := int64(int32(wide))
			ints[reg(ins, "sum")] = truncated
			if truncated == wide {
				next = target(ins, "in range")
			} else {
				next = target(ins, "out of range")
			}
		case OpSubtractIntFromInt:
			wide := ints[reg(ins, "minuend")] - ints[reg(ins, "subtrahend")]
			truncated := int64(int32(wide))
			ints[reg(ins, "difference")] = truncated
			if truncated == wide {
				next = target(ins, "in range")
			} else {
				next = target(ins, "out of range")
			}

		case OpCreateVariable:
			content := ins.Operand("content type").Constant.(object.TypeValue).T
			boxed[reg(ins, "variable")] = object.NewVariable(content)
		case OpGetVariable:
			cell, err := asVariable(boxed[reg(ins, "variable")])
			if err != nil {
				return nil, err
			}
			if v, ok := cell.Get(); ok {
				boxed[reg(ins, "value")] = v
				next = target(ins, "succeeded")
			} else {
				next = target(ins, "failed")
			}
		case OpSetVariable:
			cell, err := asVariable(boxed[reg(ins, "variable")])
			if err != nil {
				return nil, err
			}
			if err := cell.Set(boxed[reg(ins, "value")]); err != nil {
				return nil, err
			}
		case OpClearVariable:
			cell, err := asVariable(boxed[reg(ins, "variable")])
			if err != nil {
				return nil, err
			}
			if err := cell.Clear(); err != nil {
				return nil, err
			}
		case OpMakeImmutable:
			boxed[reg(ins, "destination")] = boxed[reg(ins, "source")].MakeImmutable()

		case OpJump:
			next = target(ins, "target")
		case OpJumpIfObjectsEqual:
			if boxed[reg(ins, "first")].Equals(boxed[reg(ins, "second")]) {
				next = target(ins, "equal")
			} else {
				next = target(ins, "not equal")
			}
		case OpJumpIfSubtypeOf:
			t := ins.Operand("type").Constant.(object.TypeValue).T
			if boxed[reg(ins, "value")].IsInstanceOf(t) {
				next = target(ins, "is instance")
			} else {
				next = target(ins, "not instance")
			}

		case OpGetCurrentContinuation:
			boxed[reg(ins, "continuation")] = &continuationValue{chunk: c, pc: pc}

		case OpCreateFunction:
			template := ins.Operand("code").Constant.(*object.Function)
			boxed[reg(ins, "function")] = template.Close(vectorValues(ins, "outers", boxed, ints, floats))

		case OpLookupByValues:
			bundle := ins.Operand("bundle").Bundle
			def, lerr := bundle.LookupByValues(vectorValues(ins, "arguments", boxed, ints, floats))
			if lerr == dispatch.LookupOK {
				boxed[reg(ins, "function")] = def.BodyFunction()
				next = target(ins, "found")
			} else {
				ints[reg(ins, "error code")] = int64(lerr)
				next = target(ins, "not found")
			}

		case OpInvoke:
			fn, ok := boxed[reg(ins, "function")].(*object.Function)
			if !ok {
				return nil, fmt.Errorf("chunk %q: invoking non-function %s", c.Name, boxed[reg(ins, "function")])
			}
			result, err := invoke(fn, vectorValues(ins, "arguments", boxed, ints, floats))
			if err != nil {
				return nil, err
			}
			boxed[reg(ins, "result")] = result

		case OpFail:
			return nil, &FailureError{Code: ints[reg(ins, "error code")]}
		case OpReturn:
			return boxed[reg(ins, "value")], nil

		default:
			return nil, internalf("chunk %q: unexecutable opcode %s", c.Name, ins.Op)
		}
		pc = next
	}
	return nil, internalf("chunk %q: fell off the end of the instruction stream", c.Name)
}

// invoke calls a function value: primitives directly, translated code
// recursively.
func invoke(fn *object.Function, args []object.Value) (object.Value, error) {
	if fn.IsPrimitive() {
		return fn.Invoke(args)
	}
	code, ok := fn.Code.(*Chunk)
	if !ok {
		return nil, fmt.Errorf("function %q carries no runnable code", fn.Name())
	}
	return Run(code, args, fn.Outers)
}

func reg(ins *Instruction, name string) int {
	return ins.Operand(name).Register.Index
}

func target(ins *Instruction, name string) int {
	return ins.Operand(name).Edge.Label.PC()
}

// vectorValues reads the registers of a vector operand in order.
func vectorValues(ins *Instruction, name string, boxed []object.Value, ints []int64, floats []float64) []object.Value {
	vec := ins.Operand(name).Vector
	out := make([]object.Value, len(vec))
	for i, e := range vec {
		switch e.Kind {
		case ReadBoxedKind:
			out[i] = boxed[e.Register.Index]
		case ReadIntKind:
			out[i] = object.IntValue(ints[e.Register.Index])
		case ReadFloatKind:
			out[i] = object.FloatValue(floats[e.Register.Index])
		}
	}
	return out
}

func asVariable(v object.Value) (*object.Variable, error) {
	cell, ok := v.(*object.Variable)
	if !ok {
		return nil, fmt.Errorf("value %s is not a variable cell", v)
	}
	return cell, nil
}

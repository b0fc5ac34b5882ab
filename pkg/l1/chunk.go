package l1

import (
	"fmt"

	"github.com/chazu/optic/pkg/object"
)

// Chunk is one compilable unit of level-one bytecode: the body of a method
// or block, its literal pool, and the dispatch names it sends.
type Chunk struct {
	// Name identifies the unit in diagnostics.
	Name string

	// Code is the instruction stream.
	Code []byte

	// Literals referenced by OpPushLiteral.
	Literals []object.Value

	// Bundles holds the dispatch names referenced by OpCall.
	Bundles []string

	// Functions holds nested chunks referenced by OpClose.
	Functions []*Chunk

	// ParamTypes declares the static types of the arguments. Slots
	// [0, len(ParamTypes)) are the arguments; locals follow.
	ParamTypes []object.Type

	// NumLocals is the number of local slots beyond the arguments.
	NumLocals int

	// NumOuters is the number of captured outer slots.
	NumOuters int
}

// NewChunk creates an empty chunk.
func NewChunk(name string) *Chunk {
	return &Chunk{Name: name}
}

// NumArgs returns the declared argument count.
func (c *Chunk) NumArgs() int { return len(c.ParamTypes) }

// NumSlots returns the total number of local slots, arguments included.
func (c *Chunk) NumSlots() int { return len(c.ParamTypes) + c.NumLocals }

// AddLiteral adds a literal to the pool, reusing an existing equal entry,
// and returns its index.
func (c *Chunk) AddLiteral(v object.Value) int {
	for i, existing := range c.Literals {
		if existing.Equals(v) {
			return i
		}
	}
	c.Literals = append(c.Literals, v)
	return len(c.Literals) - 1
}

// AddBundle adds a dispatch name to the pool and returns its index.
func (c *Chunk) AddBundle(name string) int {
	for i, existing := range c.Bundles {
		if existing == name {
			return i
		}
	}
	c.Bundles = append(c.Bundles, name)
	return len(c.Bundles) - 1
}

// AddFunction adds a nested chunk and returns its index.
func (c *Chunk) AddFunction(fn *Chunk) int {
	c.Functions = append(c.Functions, fn)
	return len(c.Functions) - 1
}

// Emit appends an opcode with its u16 operands.
func (c *Chunk) Emit(op Opcode, operands ...int) {
	c.Code = append(c.Code, byte(op))
	for _, o := range operands {
		c.Code = append(c.Code, byte(o>>8), byte(o))
	}
}

// EmitPushLiteral adds v to the literal pool and emits a push of it.
func (c *Chunk) EmitPushLiteral(v object.Value) {
	c.Emit(OpPushLiteral, c.AddLiteral(v))
}

// EmitCall adds the bundle name to the pool and emits a call.
func (c *Chunk) EmitCall(bundle string, argc int) {
	c.Emit(OpCall, c.AddBundle(bundle), argc)
}

// Validate checks pool indices, slot indices, and stack discipline without
// executing the chunk. A chunk that fails validation must not reach the
// translator.
func (c *Chunk) Validate() error {
	instructions, err := Decode(c.Code)
	if err != nil {
		return err
	}
	depth := 0
	returned := false
	for _, ins := range instructions {
		if returned {
			return fmt.Errorf("chunk %q: code after return", c.Name)
		}
		// need is the depth the instruction consumes from; checked
		// before the net effect so a dup or call on a too-shallow
		// stack is caught here, not by the translator.
		need, net := 0, 0
		switch ins.Op {
		case OpPushLiteral:
			if ins.Operands[0] >= len(c.Literals) {
				return fmt.Errorf("chunk %q: literal index %d out of range", c.Name, ins.Operands[0])
			}
			net = 1
		case OpPushLocal:
			if ins.Operands[0] >= c.NumSlots() {
				return fmt.Errorf("chunk %q: local slot %d out of range", c.Name, ins.Operands[0])
			}
			net = 1
		case OpSetLocal:
			slot := ins.Operands[0]
			if slot >= c.NumSlots() {
				return fmt.Errorf("chunk %q: local slot %d out of range", c.Name, slot)
			}
			if slot < c.NumArgs() {
				return fmt.Errorf("chunk %q: set-local targets argument slot %d", c.Name, slot)
			}
			need, net = 1, -1
		case OpPushOuter:
			if ins.Operands[0] >= c.NumOuters {
				return fmt.Errorf("chunk %q: outer slot %d out of range", c.Name, ins.Operands[0])
			}
			net = 1
		case OpGetVariable:
			// Pops the cell, pushes the value.
			need = 1
		case OpSetVariable:
			need, net = 2, -2
		case OpCall:
			if ins.Operands[0] >= len(c.Bundles) {
				return fmt.Errorf("chunk %q: bundle index %d out of range", c.Name, ins.Operands[0])
			}
			argc := ins.Operands[1]
			need, net = argc, 1-argc
		case OpClose:
			fnIndex := ins.Operands[0]
			if fnIndex >= len(c.Functions) {
				return fmt.Errorf("chunk %q: function index %d out of range", c.Name, fnIndex)
			}
			captures := ins.Operands[1]
			if captures != c.Functions[fnIndex].NumOuters {
				return fmt.Errorf("chunk %q: close captures %d values, nested chunk expects %d",
					c.Name, captures, c.Functions[fnIndex].NumOuters)
			}
			need, net = captures, 1-captures
		case OpPop:
			need, net = 1, -1
		case OpDup:
			need, net = 1, 1
		case OpReturn:
			need, net = 1, -1
			returned = true
		}
		if depth < need {
			return fmt.Errorf("chunk %q: stack underflow at %s", c.Name, ins.Op)
		}
		depth += net
	}
	if !returned {
		return fmt.Errorf("chunk %q: missing return", c.Name)
	}
	if depth != 0 {
		return fmt.Errorf("chunk %q: %d values left on stack at return", c.Name, depth)
	}
	return nil
}

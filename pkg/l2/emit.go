package l2

// Backend consumes a finished chunk one instruction at a time, in stream
// order. Instruction indices are the branch targets: when Emit is called for
// instruction i, every edge label in earlier instructions whose PC is i has
// just been reached, which is all a machine-code emitter needs to patch
// forward jumps.
type Backend interface {
	// BeginUnit announces the unit and its register-file dimensions.
	BeginUnit(c *Chunk) error

	// Emit consumes one instruction at the given index.
	Emit(index int, ins *Instruction) error

	// FinishUnit completes the unit after the last instruction.
	FinishUnit() error
}

// LowerTo drives a backend over the chunk.
func (c *Chunk) LowerTo(b Backend) error {
	if err := b.BeginUnit(c); err != nil {
		return err
	}
	for i, ins := range c.Instructions {
		if err := b.Emit(i, ins); err != nil {
			return err
		}
	}
	return b.FinishUnit()
}

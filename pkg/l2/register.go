package l2

import "fmt"

// ---------------------------------------------------------------------------
// Registers
// ---------------------------------------------------------------------------

// RegisterKind distinguishes the three virtual register files. Registers of
// different kinds are never interchangeable without an explicit box or unbox
// instruction.
type RegisterKind uint8

const (
	// BoxedKind registers hold arbitrary heap-value references.
	BoxedKind RegisterKind = iota

	// IntKind registers hold native integers restricted to the int32 range.
	IntKind

	// FloatKind registers hold native doubles.
	FloatKind

	numRegisterKinds
)

// String returns the kind's short name.
func (k RegisterKind) String() string {
	switch k {
	case BoxedKind:
		return "boxed"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	default:
		return fmt.Sprintf("RegisterKind(%d)", uint8(k))
	}
}

// Register is one virtual register: a kind plus an index into that kind's
// register file. Registers are owned by a single translation and are pure
// value-flow bookkeeping; there is no explicit deallocation.
type Register struct {
	Kind  RegisterKind
	Index int
}

// String renders registers as r0/i0/f0 depending on kind.
func (r Register) String() string {
	switch r.Kind {
	case BoxedKind:
		return fmt.Sprintf("r%d", r.Index)
	case IntKind:
		return fmt.Sprintf("i%d", r.Index)
	case FloatKind:
		return fmt.Sprintf("f%d", r.Index)
	default:
		return fmt.Sprintf("?%d", r.Index)
	}
}

// RegisterAllocator hands out fresh registers per kind. One allocator is
// owned by each translation; indices are dense from zero so the backend can
// size its register files from the final counts.
type RegisterAllocator struct {
	next [numRegisterKinds]int
}

// Allocate returns a fresh register of the given kind.
func (a *RegisterAllocator) Allocate(k RegisterKind) Register {
	r := Register{Kind: k, Index: a.next[k]}
	a.next[k]++
	return r
}

// Counts returns the number of registers allocated per kind.
func (a *RegisterAllocator) Counts() (boxed, ints, floats int) {
	return a.next[BoxedKind], a.next[IntKind], a.next[FloatKind]
}

package l2

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Chunk is a finished, immutable level-two unit: the instruction graph plus
// the register-file dimensions a backend or evaluator needs to run it.
// Arguments occupy the first NumArgs boxed registers, captured outers the
// next NumOuters.
type Chunk struct {
	Name   string
	UnitID uuid.UUID

	Instructions []*Instruction

	NumArgs   int
	NumOuters int

	NumBoxed int
	NumInt   int
	NumFloat int
}

// CompiledUnit is the installation point for a unit's current translation.
// Executors load the chunk with a single atomic read; retranslation swaps in
// a complete replacement and never mutates a published chunk.
type CompiledUnit struct {
	chunk atomic.Pointer[Chunk]
}

// Publish atomically installs a new translation.
func (u *CompiledUnit) Publish(c *Chunk) { u.chunk.Store(c) }

// Current returns the installed translation, or nil before the first
// Publish.
func (u *CompiledUnit) Current() *Chunk { return u.chunk.Load() }

package object

import (
	"errors"
	"fmt"
	"sync"
)

// ---------------------------------------------------------------------------
// Variable: mutable cells
// ---------------------------------------------------------------------------

// ErrFrozenVariable is returned when writing or clearing a variable that has
// been made immutable.
var ErrFrozenVariable = errors.New("variable has been made immutable")

// ErrBadVariableContent is returned when a stored value is outside the
// variable's declared content type.
var ErrBadVariableContent = errors.New("value outside variable content type")

// Variable is a mutable cell. A cell starts unassigned; reading an
// unassigned cell is an expected, recoverable failure surfaced through the
// get-variable instruction's failure edge, never an exception.
type Variable struct {
	mu       sync.Mutex
	kind     *VariableType
	content  Value
	assigned bool
	frozen   bool
}

// NewVariable creates an unassigned cell constrained to the given content type.
func NewVariable(content Type) *Variable {
	return &Variable{kind: NewVariableType(content)}
}

// Get returns the current value and true, or (nil, false) when unassigned.
func (v *Variable) Get() (Value, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.assigned {
		return nil, false
	}
	return v.content, true
}

// Set stores a value in the cell.
func (v *Variable) Set(val Value) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.frozen {
		return ErrFrozenVariable
	}
	if !val.IsInstanceOf(v.kind.Content) {
		return fmt.Errorf("%w: %s is not a %s", ErrBadVariableContent, val, v.kind.Content)
	}
	v.content = val
	v.assigned = true
	return nil
}

// Clear returns the cell to the unassigned state.
func (v *Variable) Clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.frozen {
		return ErrFrozenVariable
	}
	v.content = nil
	v.assigned = false
	return nil
}

func (v *Variable) Kind() Type               { return v.kind }
func (v *Variable) IsInstanceOf(t Type) bool { return isInstance(v, t) }
func (v *Variable) Equals(other Value) bool  { return v == other }

func (v *Variable) MakeImmutable() Value {
	v.mu.Lock()
	v.frozen = true
	v.mu.Unlock()
	return v
}

func (v *Variable) IsImmutable() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frozen
}

func (v *Variable) String() string {
	if val, ok := v.Get(); ok {
		return fmt.Sprintf("variable(%s)", val)
	}
	return "variable(unassigned)"
}

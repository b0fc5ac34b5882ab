package object

import "fmt"

// ---------------------------------------------------------------------------
// Types as values
// ---------------------------------------------------------------------------

// Meta is the kind of type values.
var Meta = NewType("type", nil)

// TypeValue wraps a Type so it can flow through instruction operands and
// literal pools like any other value (the subtype-test instruction takes its
// target type as a constant operand).
type TypeValue struct {
	T Type
}

// AsValue wraps a type as a value.
func AsValue(t Type) TypeValue { return TypeValue{T: t} }

func (v TypeValue) Kind() Type               { return Meta }
func (v TypeValue) IsInstanceOf(t Type) bool { return isInstance(v, t) }
func (v TypeValue) MakeImmutable() Value     { return v }
func (v TypeValue) IsImmutable() bool        { return true }

func (v TypeValue) Equals(other Value) bool {
	o, ok := other.(TypeValue)
	return ok && sameType(v.T, o.T)
}

func (v TypeValue) String() string { return fmt.Sprintf("type(%s)", v.T) }

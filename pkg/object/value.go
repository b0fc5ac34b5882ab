package object

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Value: the opaque heap-value interface plus the primitive implementations
// ---------------------------------------------------------------------------

// Value is a runtime value as seen by the translator. The translator never
// assumes internal layout; it only queries kinds, instance-of relationships,
// equality, and immutability.
type Value interface {
	// Kind returns the value's exact runtime type.
	Kind() Type

	// IsInstanceOf reports whether the value is an instance of t.
	IsInstanceOf(t Type) bool

	// Equals reports semantic equality. Mutable values compare by identity.
	Equals(other Value) bool

	// MakeImmutable freezes the value against further mutation and returns
	// the same reference. Already-immutable values return themselves.
	MakeImmutable() Value

	// IsImmutable reports whether the value can no longer be mutated.
	IsImmutable() bool

	String() string
}

// isInstance is the shared IsInstanceOf implementation: membership for
// enumerations, subtyping of the exact kind otherwise.
func isInstance(v Value, t Type) bool {
	if e, ok := t.(*Enumeration); ok {
		return e.Contains(v)
	}
	return v.Kind().IsSubtypeOf(t)
}

// ---------------------------------------------------------------------------
// Integers
// ---------------------------------------------------------------------------

// IntValue is a boxed integer.
type IntValue int64

func (v IntValue) Kind() Type               { return Integer }
func (v IntValue) IsInstanceOf(t Type) bool { return isInstance(v, t) }
func (v IntValue) MakeImmutable() Value     { return v }
func (v IntValue) IsImmutable() bool        { return true }
func (v IntValue) String() string           { return strconv.FormatInt(int64(v), 10) }

func (v IntValue) Equals(other Value) bool {
	o, ok := other.(IntValue)
	return ok && o == v
}

// ---------------------------------------------------------------------------
// Floats
// ---------------------------------------------------------------------------

// FloatValue is a boxed double.
type FloatValue float64

func (v FloatValue) Kind() Type               { return Float }
func (v FloatValue) IsInstanceOf(t Type) bool { return isInstance(v, t) }
func (v FloatValue) MakeImmutable() Value     { return v }
func (v FloatValue) IsImmutable() bool        { return true }
func (v FloatValue) String() string           { return strconv.FormatFloat(float64(v), 'g', -1, 64) }

func (v FloatValue) Equals(other Value) bool {
	o, ok := other.(FloatValue)
	return ok && o == v
}

// ---------------------------------------------------------------------------
// Strings
// ---------------------------------------------------------------------------

// StringValue is a boxed immutable string.
type StringValue string

func (v StringValue) Kind() Type               { return Str }
func (v StringValue) IsInstanceOf(t Type) bool { return isInstance(v, t) }
func (v StringValue) MakeImmutable() Value     { return v }
func (v StringValue) IsImmutable() bool        { return true }
func (v StringValue) String() string           { return fmt.Sprintf("%q", string(v)) }

func (v StringValue) Equals(other Value) bool {
	o, ok := other.(StringValue)
	return ok && o == v
}

// ---------------------------------------------------------------------------
// Booleans
// ---------------------------------------------------------------------------

// BoolValue is a boxed boolean.
type BoolValue bool

func (v BoolValue) Kind() Type               { return Boolean }
func (v BoolValue) IsInstanceOf(t Type) bool { return isInstance(v, t) }
func (v BoolValue) MakeImmutable() Value     { return v }
func (v BoolValue) IsImmutable() bool        { return true }

func (v BoolValue) Equals(other Value) bool {
	o, ok := other.(BoolValue)
	return ok && o == v
}

func (v BoolValue) String() string {
	if v {
		return "true"
	}
	return "false"
}

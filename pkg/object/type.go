package object

import "fmt"

// ---------------------------------------------------------------------------
// Type: the static type lattice consumed by the optimizing translator
// ---------------------------------------------------------------------------
//
// The translator only ever talks to values and types through the interfaces
// in this package. The concrete lattice here is deliberately small: named
// object types with single-supertype chains, exact-value enumerations,
// variable (cell) types, and the Any/Bottom extremes. That is enough to
// express everything the register manifest tracks: upper bounds, known
// constants (enumerations of one), and provable disjointness.

// Type is the static description of a set of runtime values.
type Type interface {
	// Name returns a short human-readable name for diagnostics.
	Name() string

	// IsSubtypeOf reports whether every instance of this type is also an
	// instance of other.
	IsSubtypeOf(other Type) bool

	// TypeIntersection returns the most general type that is a subtype of
	// both this type and other. Returns Bottom when the types are disjoint.
	TypeIntersection(other Type) Type

	// TypeUnion returns the most specific type this lattice can express
	// that is a supertype of both this type and other.
	TypeUnion(other Type) Type

	// IsBottom reports whether this type has no instances.
	IsBottom() bool

	// IsTop reports whether this type is Any.
	IsTop() bool

	String() string
}

// ---------------------------------------------------------------------------
// Any and Bottom
// ---------------------------------------------------------------------------

type anyType struct{}

// Any is the top of the lattice: every value is an instance.
var Any Type = anyType{}

func (anyType) Name() string                { return "any" }
func (anyType) IsSubtypeOf(other Type) bool { return other.IsTop() }
func (anyType) TypeIntersection(other Type) Type {
	return other
}
func (anyType) TypeUnion(other Type) Type { return Any }
func (anyType) IsBottom() bool            { return false }
func (anyType) IsTop() bool               { return true }
func (anyType) String() string            { return "any" }

type bottomType struct{}

// Bottom is the empty type. A register restricted to Bottom can hold no
// value, which proves the code writing it unreachable.
var Bottom Type = bottomType{}

func (bottomType) Name() string                     { return "⊥" }
func (bottomType) IsSubtypeOf(other Type) bool      { return true }
func (bottomType) TypeIntersection(other Type) Type { return Bottom }
func (bottomType) TypeUnion(other Type) Type        { return other }
func (bottomType) IsBottom() bool                   { return true }
func (bottomType) IsTop() bool                      { return false }
func (bottomType) String() string                   { return "⊥" }

// ---------------------------------------------------------------------------
// Named object types
// ---------------------------------------------------------------------------

// ObjectType is a named type with an optional single supertype. The built-in
// numeric tower and the other primitive types below are all ObjectTypes.
type ObjectType struct {
	name   string
	parent *ObjectType
}

// NewType creates a named type under the given parent (nil parents sit
// directly below Any).
func NewType(name string, parent *ObjectType) *ObjectType {
	return &ObjectType{name: name, parent: parent}
}

// Built-in types. The numeric tower matters to the translator: unboxed int
// and float registers carry restrictions drawn from it.
var (
	Number       = NewType("number", nil)
	Integer      = NewType("integer", Number)
	Float        = NewType("float", Number)
	Str          = NewType("string", nil)
	Boolean      = NewType("boolean", nil)
	FunctionType = NewType("function", nil)
	Continuation = NewType("continuation", nil)
)

func (t *ObjectType) Name() string { return t.name }

func (t *ObjectType) IsSubtypeOf(other Type) bool {
	if other.IsTop() {
		return true
	}
	switch o := other.(type) {
	case *ObjectType:
		for c := t; c != nil; c = c.parent {
			if c == o {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func (t *ObjectType) TypeIntersection(other Type) Type {
	switch {
	case other.IsTop():
		return t
	case other.IsBottom():
		return Bottom
	}
	switch o := other.(type) {
	case *ObjectType:
		if t.IsSubtypeOf(o) {
			return t
		}
		if o.IsSubtypeOf(t) {
			return o
		}
		return Bottom
	case *Enumeration:
		return o.TypeIntersection(t)
	default:
		return Bottom
	}
}

func (t *ObjectType) TypeUnion(other Type) Type {
	switch {
	case other.IsTop():
		return Any
	case other.IsBottom():
		return t
	}
	switch o := other.(type) {
	case *ObjectType:
		// Walk up from t looking for a common ancestor.
		for c := t; c != nil; c = c.parent {
			if o.IsSubtypeOf(c) {
				return c
			}
		}
		for c := o; c != nil; c = c.parent {
			if t.IsSubtypeOf(c) {
				return c
			}
		}
		return Any
	case *Enumeration:
		return o.TypeUnion(t)
	default:
		return Any
	}
}

func (t *ObjectType) IsBottom() bool { return false }
func (t *ObjectType) IsTop() bool    { return false }
func (t *ObjectType) String() string { return t.name }

// ---------------------------------------------------------------------------
// Variable (cell) types
// ---------------------------------------------------------------------------

// VariableType is the type of a mutable cell holding instances of Content.
// Cell types are invariant: variable(integer) is unrelated to variable(number).
type VariableType struct {
	Content Type
}

// NewVariableType creates the type of cells constrained to content.
func NewVariableType(content Type) *VariableType {
	return &VariableType{Content: content}
}

func (t *VariableType) Name() string { return "variable" }

func (t *VariableType) IsSubtypeOf(other Type) bool {
	if other.IsTop() {
		return true
	}
	if o, ok := other.(*VariableType); ok {
		return sameType(t.Content, o.Content)
	}
	return false
}

func (t *VariableType) TypeIntersection(other Type) Type {
	switch {
	case other.IsTop():
		return t
	case other.IsBottom():
		return Bottom
	}
	if o, ok := other.(*VariableType); ok && sameType(t.Content, o.Content) {
		return t
	}
	return Bottom
}

func (t *VariableType) TypeUnion(other Type) Type {
	switch {
	case other.IsTop():
		return Any
	case other.IsBottom():
		return t
	}
	if o, ok := other.(*VariableType); ok && sameType(t.Content, o.Content) {
		return t
	}
	return Any
}

func (t *VariableType) IsBottom() bool { return false }
func (t *VariableType) IsTop() bool    { return false }
func (t *VariableType) String() string {
	return fmt.Sprintf("variable(%s)", t.Content)
}

// sameType reports mutual subtyping, the lattice's notion of type equality.
func sameType(a, b Type) bool {
	return a.IsSubtypeOf(b) && b.IsSubtypeOf(a)
}

package object

import "fmt"

// ---------------------------------------------------------------------------
// Function: callable values
// ---------------------------------------------------------------------------

// PrimitiveFunc is a Go function backing a primitive method body.
type PrimitiveFunc func(args []Value) (Value, error)

// Function is a callable value. A function either wraps a Go primitive or
// carries compiled code for a backend to execute; the translator treats both
// uniformly as constants it can fold into call sites.
type Function struct {
	name   string
	result Type
	prim   PrimitiveFunc

	// Code holds backend-specific compiled code for non-primitive
	// functions. The translator never looks inside it.
	Code any

	// Outers holds the values a closure captured, already immutable.
	Outers []Value
}

// NewPrimitive creates a function backed by a Go implementation.
func NewPrimitive(name string, result Type, prim PrimitiveFunc) *Function {
	return &Function{name: name, result: result, prim: prim}
}

// NewFunction creates a function carrying compiled code.
func NewFunction(name string, result Type, code any) *Function {
	return &Function{name: name, result: result, Code: code}
}

// Close returns a copy of the function closed over the given captures. The
// receiver is the template the translator folded into the create-function
// site; each execution of that site produces a distinct closure.
func (f *Function) Close(outers []Value) *Function {
	c := *f
	c.Outers = outers
	return &c
}

// Name returns the function's diagnostic name.
func (f *Function) Name() string { return f.name }

// ResultType returns the static type of values the function returns.
func (f *Function) ResultType() Type { return f.result }

// IsPrimitive reports whether the function is backed by a Go primitive.
func (f *Function) IsPrimitive() bool { return f.prim != nil }

// Invoke runs a primitive function. Calling a non-primitive is a backend
// responsibility and an error here.
func (f *Function) Invoke(args []Value) (Value, error) {
	if f.prim == nil {
		return nil, fmt.Errorf("function %q has no primitive implementation", f.name)
	}
	return f.prim(args)
}

func (f *Function) Kind() Type               { return FunctionType }
func (f *Function) IsInstanceOf(t Type) bool { return isInstance(f, t) }
func (f *Function) Equals(other Value) bool  { return f == other }
func (f *Function) MakeImmutable() Value     { return f }
func (f *Function) IsImmutable() bool        { return true }
func (f *Function) String() string           { return fmt.Sprintf("function %q", f.name) }

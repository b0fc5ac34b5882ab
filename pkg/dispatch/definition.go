package dispatch

import (
	"fmt"
	"strings"

	"github.com/chazu/optic/pkg/object"
)

// ---------------------------------------------------------------------------
// Definition: one body registered under a bundle
// ---------------------------------------------------------------------------

// Definition is a single implementation registered under a dispatch name:
// a parameter type signature plus a body function. Abstract and forward
// definitions participate in lookup but cannot be invoked; selecting one is
// reported through the corresponding lookup error code.
type Definition struct {
	params   []object.Type
	body     *object.Function
	abstract bool
	forward  bool
}

// NewDefinition creates a concrete definition.
func NewDefinition(params []object.Type, body *object.Function) *Definition {
	return &Definition{params: params, body: body}
}

// NewAbstractDefinition creates a definition with a signature but no body;
// subtypes are expected to override it.
func NewAbstractDefinition(params []object.Type) *Definition {
	return &Definition{params: params, abstract: true}
}

// NewForwardDefinition creates a placeholder for a declared-but-not-yet-
// implemented definition.
func NewForwardDefinition(params []object.Type) *Definition {
	return &Definition{params: params, forward: true}
}

// ParameterTypes returns the signature. Callers must not mutate it.
func (d *Definition) ParameterTypes() []object.Type { return d.params }

// BodyFunction returns the body, or nil for abstract/forward definitions.
func (d *Definition) BodyFunction() *object.Function { return d.body }

// IsAbstract reports whether the definition has no invokable body by design.
func (d *Definition) IsAbstract() bool { return d.abstract }

// IsForward reports whether the definition is a forward declaration.
func (d *Definition) IsForward() bool { return d.forward }

// Arity returns the number of parameters.
func (d *Definition) Arity() int { return len(d.params) }

// AcceptsValues reports whether every argument is an instance of the
// corresponding parameter type. This is the runtime applicability test.
func (d *Definition) AcceptsValues(args []object.Value) bool {
	if len(args) != len(d.params) {
		return false
	}
	for i, a := range args {
		if !a.IsInstanceOf(d.params[i]) {
			return false
		}
	}
	return true
}

// CouldAcceptBounds reports whether some runtime arguments within the given
// static type bounds could satisfy the signature: the definition stays a
// candidate unless a bound is provably disjoint from its parameter type.
func (d *Definition) CouldAcceptBounds(bounds []object.Type) bool {
	if len(bounds) != len(d.params) {
		return false
	}
	for i, b := range bounds {
		if b.TypeIntersection(d.params[i]).IsBottom() {
			return false
		}
	}
	return true
}

// DefinitelyAcceptsBounds reports whether every runtime argument within the
// bounds must satisfy the signature (each bound is a subtype of the
// parameter type). Used to prove a candidate always applicable.
func (d *Definition) DefinitelyAcceptsBounds(bounds []object.Type) bool {
	if len(bounds) != len(d.params) {
		return false
	}
	for i, b := range bounds {
		if !b.IsSubtypeOf(d.params[i]) {
			return false
		}
	}
	return true
}

// MoreSpecificThan reports strict specificity: every parameter type of d is
// a subtype of other's, and the signatures differ.
func (d *Definition) MoreSpecificThan(other *Definition) bool {
	if len(d.params) != len(other.params) {
		return false
	}
	narrower := false
	for i := range d.params {
		if !d.params[i].IsSubtypeOf(other.params[i]) {
			return false
		}
		if !other.params[i].IsSubtypeOf(d.params[i]) {
			narrower = true
		}
	}
	return narrower
}

// SameSignatureAs reports mutual subtyping of every parameter pair.
func (d *Definition) SameSignatureAs(other *Definition) bool {
	if len(d.params) != len(other.params) {
		return false
	}
	for i := range d.params {
		if !d.params[i].IsSubtypeOf(other.params[i]) || !other.params[i].IsSubtypeOf(d.params[i]) {
			return false
		}
	}
	return true
}

func (d *Definition) String() string {
	var b strings.Builder
	b.WriteString("(")
	for i, p := range d.params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteString(")")
	switch {
	case d.abstract:
		b.WriteString(" abstract")
	case d.forward:
		b.WriteString(" forward")
	default:
		fmt.Fprintf(&b, " -> %s", d.body.Name())
	}
	return b.String()
}

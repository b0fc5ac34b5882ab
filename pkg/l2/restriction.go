package l2

import (
	"fmt"

	"github.com/chazu/optic/pkg/object"
)

// ---------------------------------------------------------------------------
// Type restrictions
// ---------------------------------------------------------------------------

// TypeRestriction is what the manifest statically knows about the value in a
// register: an upper-bound type and, when the value is exactly known, the
// constant itself. The constant and the type stay consistent: a restriction
// whose type is an enumeration of one value always carries that value as its
// constant.
type TypeRestriction struct {
	Type     object.Type
	Constant object.Value
}

// AnyRestriction is the trivial restriction: any value at all.
func AnyRestriction() TypeRestriction {
	return TypeRestriction{Type: object.Any}
}

// RestrictionForType restricts to instances of t.
func RestrictionForType(t object.Type) TypeRestriction {
	return TypeRestriction{Type: t}.normalize()
}

// RestrictionForConstant restricts to exactly v.
func RestrictionForConstant(v object.Value) TypeRestriction {
	return TypeRestriction{Type: object.InstanceType(v), Constant: v}
}

// normalize re-derives the constant from the type: an enumeration with a
// sole instance pins the constant, a bottom type clears it.
func (r TypeRestriction) normalize() TypeRestriction {
	if r.Type.IsBottom() {
		r.Constant = nil
		return r
	}
	if e, ok := r.Type.(*object.Enumeration); ok {
		if sole := e.Sole(); sole != nil {
			r.Constant = sole
		}
	}
	return r
}

// HasConstant reports whether the value is exactly known.
func (r TypeRestriction) HasConstant() bool { return r.Constant != nil }

// IsImpossible reports whether no value can satisfy the restriction, which
// proves the code it guards unreachable.
func (r TypeRestriction) IsImpossible() bool { return r.Type.IsBottom() }

// Intersect combines two restrictions that must both hold for the same
// value. Incompatible constants produce an impossible restriction.
func (r TypeRestriction) Intersect(o TypeRestriction) TypeRestriction {
	if r.HasConstant() && o.HasConstant() && !r.Constant.Equals(o.Constant) {
		return TypeRestriction{Type: object.Bottom}
	}
	out := TypeRestriction{Type: r.Type.TypeIntersection(o.Type)}
	if out.Type.IsBottom() {
		return out
	}
	switch {
	case r.HasConstant():
		out.Constant = r.Constant
	case o.HasConstant():
		out.Constant = o.Constant
	}
	if out.HasConstant() && !out.Constant.IsInstanceOf(out.Type) {
		return TypeRestriction{Type: object.Bottom}
	}
	return out.normalize()
}

// Union combines two restrictions of which at least one holds, as at a
// control-flow join. The constant survives only if both sides agree on it.
func (r TypeRestriction) Union(o TypeRestriction) TypeRestriction {
	out := TypeRestriction{Type: r.Type.TypeUnion(o.Type)}
	if r.HasConstant() && o.HasConstant() && r.Constant.Equals(o.Constant) {
		out.Constant = r.Constant
	}
	return out.normalize()
}

// DisjointFrom reports whether no single value could satisfy both
// restrictions, proving an equality test between them never succeeds.
func (r TypeRestriction) DisjointFrom(o TypeRestriction) bool {
	return r.Intersect(o).IsImpossible()
}

func (r TypeRestriction) String() string {
	if r.HasConstant() {
		return fmt.Sprintf("=%s", r.Constant)
	}
	return fmt.Sprintf(":%s", r.Type)
}

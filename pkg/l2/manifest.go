package l2

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chazu/optic/pkg/object"
)

// ---------------------------------------------------------------------------
// The value manifest
// ---------------------------------------------------------------------------
//
// A Manifest tracks, at one point in the instruction stream, which semantic
// values live in which registers and what is statically known about them.
// Semantic values known to hold the same runtime value share a synonym set;
// the set is the unit of registration: it owns the chosen register and one
// type restriction for all its members.
//
// A manifest is owned by exactly one translation and is never shared across
// units, so none of this needs locking. Edge-specific refinements work on
// clones; the original is never narrowed retroactively.

// synonymSet is one group of semantic values known to be the same runtime
// value, with the register holding it and what is statically known about it.
type synonymSet struct {
	members     map[SemanticValue]struct{}
	register    Register
	restriction TypeRestriction
}

func (s *synonymSet) clone() *synonymSet {
	members := make(map[SemanticValue]struct{}, len(s.members))
	for v := range s.members {
		members[v] = struct{}{}
	}
	return &synonymSet{members: members, register: s.register, restriction: s.restriction}
}

// Manifest maps semantic values to synonym sets. Invariant: every semantic
// value in bindings appears in exactly one set's member map, and every set
// is reachable from bindings.
type Manifest struct {
	bindings map[SemanticValue]*synonymSet
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{bindings: make(map[SemanticValue]*synonymSet)}
}

// Bind registers a freshly written semantic value: a new synonym set holding
// just v in the given register. Binding an already-live value is an internal
// error; rebind through Unbind first.
func (m *Manifest) Bind(v SemanticValue, r Register, res TypeRestriction) error {
	if _, ok := m.bindings[v]; ok {
		return internalf("semantic value %s is already bound", v)
	}
	m.bindings[v] = &synonymSet{
		members:     map[SemanticValue]struct{}{v: {}},
		register:    r,
		restriction: res,
	}
	return nil
}

// BindSynonym records that alias holds the same runtime value as existing,
// extending existing's synonym set. No code is generated for this; it is how
// a move becomes free when the register can simply be shared.
func (m *Manifest) BindSynonym(existing, alias SemanticValue) error {
	set, ok := m.bindings[existing]
	if !ok {
		return internalf("no live synonym set for %s", existing)
	}
	if _, bound := m.bindings[alias]; bound {
		return internalf("semantic value %s is already bound", alias)
	}
	set.members[alias] = struct{}{}
	m.bindings[alias] = set
	return nil
}

// Unbind removes v from its synonym set. The set survives while it has
// other members; the last member takes the set with it.
func (m *Manifest) Unbind(v SemanticValue) {
	set, ok := m.bindings[v]
	if !ok {
		return
	}
	delete(set.members, v)
	delete(m.bindings, v)
}

// Has reports whether v is live.
func (m *Manifest) Has(v SemanticValue) bool {
	_, ok := m.bindings[v]
	return ok
}

// Read returns the register holding v. Reading an unbound value is an
// internal error: the translator asked for a value it never registered.
func (m *Manifest) Read(v SemanticValue) (Register, error) {
	set, ok := m.bindings[v]
	if !ok {
		return Register{}, internalf("no live synonym set for %s", v)
	}
	return set.register, nil
}

// RestrictionOf returns what is statically known about v.
func (m *Manifest) RestrictionOf(v SemanticValue) (TypeRestriction, error) {
	set, ok := m.bindings[v]
	if !ok {
		return TypeRestriction{}, internalf("no live synonym set for %s", v)
	}
	return set.restriction, nil
}

// Synonyms returns the members of v's synonym set, sorted for determinism.
func (m *Manifest) Synonyms(v SemanticValue) []SemanticValue {
	set, ok := m.bindings[v]
	if !ok {
		return nil
	}
	out := make([]SemanticValue, 0, len(set.members))
	for member := range set.members {
		out = append(out, member)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Purpose != out[j].Purpose {
			return out[i].Purpose < out[j].Purpose
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// IntersectType narrows the statically known type of v's whole synonym set.
func (m *Manifest) IntersectType(v SemanticValue, t object.Type) error {
	set, ok := m.bindings[v]
	if !ok {
		return internalf("no live synonym set for %s", v)
	}
	set.restriction = set.restriction.Intersect(RestrictionForType(t))
	return nil
}

// IntersectRestriction narrows v's synonym set with an arbitrary
// restriction (type and possibly constant).
func (m *Manifest) IntersectRestriction(v SemanticValue, r TypeRestriction) error {
	set, ok := m.bindings[v]
	if !ok {
		return internalf("no live synonym set for %s", v)
	}
	set.restriction = set.restriction.Intersect(r)
	return nil
}

// AssertConstant records that v is exactly the given constant. Used on the
// taken edge of an equality test against a known constant; the assertion is
// path-sensitive, so callers apply it to an edge clone, never globally.
func (m *Manifest) AssertConstant(v SemanticValue, c object.Value) error {
	return m.IntersectRestriction(v, RestrictionForConstant(c))
}

// Retain destructively prunes every synonym set with no live member and
// drops dead members from surviving sets. Used at loop back-edges to bound
// manifest growth; trading precision for termination. Retain is idempotent:
// retaining the same live set twice leaves the manifest exactly as after the
// first call.
func (m *Manifest) Retain(live []SemanticValue) {
	keep := make(map[SemanticValue]struct{}, len(live))
	for _, v := range live {
		keep[v] = struct{}{}
	}
	for v, set := range m.bindings {
		if _, ok := keep[v]; ok {
			continue
		}
		delete(set.members, v)
		delete(m.bindings, v)
	}
}

// Clone returns an independent copy for edge-specific refinement.
func (m *Manifest) Clone() *Manifest {
	out := NewManifest()
	cloned := make(map[*synonymSet]*synonymSet)
	for v, set := range m.bindings {
		c, ok := cloned[set]
		if !ok {
			c = set.clone()
			cloned[set] = c
		}
		out.bindings[v] = c
	}
	return out
}

// Meet combines the manifests of two predecessor edges at a join point. A
// semantic value survives only if both sides hold it in the same register;
// two values stay synonymous only if both sides agree they are; the
// restriction becomes the union of the two sides' knowledge.
func (m *Manifest) Meet(other *Manifest) *Manifest {
	out := NewManifest()
	built := make(map[string]*synonymSet)
	for v, mset := range m.bindings {
		oset, ok := other.bindings[v]
		if !ok || oset.register != mset.register {
			continue
		}
		// Group by the pair of source sets so synonymy survives only
		// where both sides agree.
		key := fmt.Sprintf("%p/%p", mset, oset)
		set, ok := built[key]
		if !ok {
			set = &synonymSet{
				members:     make(map[SemanticValue]struct{}),
				register:    mset.register,
				restriction: mset.restriction.Union(oset.restriction),
			}
			built[key] = set
		}
		set.members[v] = struct{}{}
		out.bindings[v] = set
	}
	return out
}

// Live returns all live semantic values, sorted for determinism.
func (m *Manifest) Live() []SemanticValue {
	out := make([]SemanticValue, 0, len(m.bindings))
	for v := range m.bindings {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Purpose != out[j].Purpose {
			return out[i].Purpose < out[j].Purpose
		}
		return out[i].Index < out[j].Index
	})
	return out
}

func (m *Manifest) String() string {
	var b strings.Builder
	for _, v := range m.Live() {
		set := m.bindings[v]
		fmt.Fprintf(&b, "%s -> %s %s\n", v, set.register, set.restriction)
	}
	return b.String()
}

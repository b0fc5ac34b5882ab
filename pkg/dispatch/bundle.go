package dispatch

import (
	"github.com/chazu/optic/pkg/object"
)

// ---------------------------------------------------------------------------
// Bundle: a dispatch name grouping definitions
// ---------------------------------------------------------------------------

// LookupError classifies the outcome of a runtime lookup. Failed lookups are
// ordinary, recoverable results carried through a dedicated error-code
// register in generated code; they are never panics.
type LookupError uint8

const (
	// LookupOK means a unique most-specific concrete definition was found.
	LookupOK LookupError = iota

	// LookupNoMethod means the bundle has no definitions at all.
	LookupNoMethod

	// LookupNoDefinition means definitions exist but none accepts the
	// arguments.
	LookupNoDefinition

	// LookupAmbiguous means several applicable definitions are equally
	// specific and no unique winner exists.
	LookupAmbiguous

	// LookupAbstract means the winner is an abstract definition.
	LookupAbstract

	// LookupForward means the winner is a forward declaration with no
	// implementation yet.
	LookupForward
)

// String returns the diagnostic name of the error code.
func (e LookupError) String() string {
	switch e {
	case LookupOK:
		return "ok"
	case LookupNoMethod:
		return "no-method"
	case LookupNoDefinition:
		return "no-matching-definition"
	case LookupAmbiguous:
		return "ambiguous-lookup"
	case LookupAbstract:
		return "abstract-method"
	case LookupForward:
		return "forward-method"
	default:
		return "unknown"
	}
}

// Bundle groups the definitions registered under one dispatch name. A Bundle
// value is immutable once published; the Table replaces the whole Bundle on
// every definition addition so concurrent lookups always see a consistent
// snapshot of the definition list.
type Bundle struct {
	name  string
	arity int
	defs  []*Definition
}

// NewBundle creates an empty bundle for the given name and arity.
func NewBundle(name string, arity int) *Bundle {
	return &Bundle{name: name, arity: arity}
}

// Name returns the dispatch name.
func (b *Bundle) Name() string { return b.name }

// Arity returns the argument count every definition must match.
func (b *Bundle) Arity() int { return b.arity }

// Definitions returns the definition snapshot. Callers must not mutate it.
func (b *Bundle) Definitions() []*Definition { return b.defs }

// GetKey implements the registry key contract for the table's lock-free map.
func (b Bundle) GetKey() string { return b.name }

// ComputeSize implements the registry size contract. The estimate covers the
// bundle header and definition slice only.
func (b Bundle) ComputeSize() uint {
	return uint(48 + 8*len(b.defs))
}

// withDefinition returns a copy of the bundle with def appended.
func (b *Bundle) withDefinition(def *Definition) *Bundle {
	defs := make([]*Definition, 0, len(b.defs)+1)
	defs = append(defs, b.defs...)
	defs = append(defs, def)
	return &Bundle{name: b.name, arity: b.arity, defs: defs}
}

// withReplacedDefinition returns a copy with the definition at index i
// replaced (used when a forward declaration gains its implementation).
func (b *Bundle) withReplacedDefinition(i int, def *Definition) *Bundle {
	defs := make([]*Definition, len(b.defs))
	copy(defs, b.defs)
	defs[i] = def
	return &Bundle{name: b.name, arity: b.arity, defs: defs}
}

// DefinitionsApplicableTo returns every definition a call site with the
// given static argument type bounds could reach at runtime. A definition is
// excluded only when some bound is provably disjoint from its parameter
// type; this is the static phase of dispatch resolution.
func (b *Bundle) DefinitionsApplicableTo(bounds []object.Type) []*Definition {
	var out []*Definition
	for _, d := range b.defs {
		if d.CouldAcceptBounds(bounds) {
			out = append(out, d)
		}
	}
	return out
}

// LookupByValues performs the dynamic phase: exact multi-argument dispatch
// against the runtime argument values. It returns the unique most-specific
// applicable definition, or a distinguished error code. It never guesses
// among equally specific candidates.
func (b *Bundle) LookupByValues(args []object.Value) (*Definition, LookupError) {
	if len(b.defs) == 0 {
		return nil, LookupNoMethod
	}

	var applicable []*Definition
	for _, d := range b.defs {
		if d.AcceptsValues(args) {
			applicable = append(applicable, d)
		}
	}
	return MostSpecific(applicable)
}

// MostSpecific selects the unique most-specific definition among applicable
// candidates. Shared by the dynamic lookup above and the translator's static
// phase (which calls it on the statically applicable set).
func MostSpecific(applicable []*Definition) (*Definition, LookupError) {
	if len(applicable) == 0 {
		return nil, LookupNoDefinition
	}

	// Keep the maximally specific candidates: those no other applicable
	// definition is strictly more specific than.
	var maximal []*Definition
	for _, d := range applicable {
		dominated := false
		for _, o := range applicable {
			if o != d && o.MoreSpecificThan(d) {
				dominated = true
				break
			}
		}
		if !dominated {
			maximal = append(maximal, d)
		}
	}

	if len(maximal) != 1 {
		return nil, LookupAmbiguous
	}

	winner := maximal[0]
	switch {
	case winner.IsAbstract():
		return nil, LookupAbstract
	case winner.IsForward():
		return nil, LookupForward
	}
	return winner, LookupOK
}

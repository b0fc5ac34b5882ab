package object

import "strings"

// ---------------------------------------------------------------------------
// Enumeration: exact-value types
// ---------------------------------------------------------------------------
//
// An enumeration is the type whose instances are exactly a finite set of
// values. Two places lean on it heavily: known constants are tracked as
// enumerations of one, and an ambiguous dispatch site types its destination
// as the enumeration over every candidate body function.

// Enumeration is a type with a finite, explicit instance set.
type Enumeration struct {
	instances []Value
}

// InstanceType returns the type whose only instance is v.
func InstanceType(v Value) *Enumeration {
	return &Enumeration{instances: []Value{v}}
}

// NewEnumeration builds an enumeration over the given values, deduplicating
// by Equals. An empty instance set is Bottom.
func NewEnumeration(values ...Value) Type {
	var kept []Value
outer:
	for _, v := range values {
		for _, k := range kept {
			if k.Equals(v) {
				continue outer
			}
		}
		kept = append(kept, v)
	}
	if len(kept) == 0 {
		return Bottom
	}
	return &Enumeration{instances: kept}
}

// Instances returns the instance set. Callers must not mutate it.
func (e *Enumeration) Instances() []Value { return e.instances }

// Contains reports whether v is one of the enumeration's instances.
func (e *Enumeration) Contains(v Value) bool {
	for _, i := range e.instances {
		if i.Equals(v) {
			return true
		}
	}
	return false
}

// Sole returns the single instance, or nil if the enumeration has more than
// one. A restriction whose type has a sole instance is a known constant.
func (e *Enumeration) Sole() Value {
	if len(e.instances) == 1 {
		return e.instances[0]
	}
	return nil
}

func (e *Enumeration) Name() string { return "enumeration" }

func (e *Enumeration) IsSubtypeOf(other Type) bool {
	if other.IsTop() {
		return true
	}
	for _, v := range e.instances {
		if !v.IsInstanceOf(other) {
			return false
		}
	}
	return true
}

func (e *Enumeration) TypeIntersection(other Type) Type {
	switch {
	case other.IsTop():
		return e
	case other.IsBottom():
		return Bottom
	}
	var kept []Value
	for _, v := range e.instances {
		if v.IsInstanceOf(other) {
			kept = append(kept, v)
		}
	}
	return NewEnumeration(kept...)
}

func (e *Enumeration) TypeUnion(other Type) Type {
	switch {
	case other.IsTop():
		return Any
	case other.IsBottom():
		return e
	}
	if o, ok := other.(*Enumeration); ok {
		merged := make([]Value, 0, len(e.instances)+len(o.instances))
		merged = append(merged, e.instances...)
		merged = append(merged, o.instances...)
		return NewEnumeration(merged...)
	}
	if e.IsSubtypeOf(other) {
		return other
	}
	// Dissolve the enumeration into the kinds of its instances.
	result := other
	for _, v := range e.instances {
		result = result.TypeUnion(v.Kind())
	}
	return result
}

func (e *Enumeration) IsBottom() bool { return false }
func (e *Enumeration) IsTop() bool    { return false }

func (e *Enumeration) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, v := range e.instances {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.String())
	}
	b.WriteString("}")
	return b.String()
}

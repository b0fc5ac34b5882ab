package dispatch

import (
	"fmt"
	"sync"

	"github.com/launix-de/NonLockingReadMap"
)

// ---------------------------------------------------------------------------
// Table: the snapshot-consistent bundle registry
// ---------------------------------------------------------------------------
//
// Definitions can be added while other code resolves call sites, so the
// registry must hand every resolution an atomic snapshot of a bundle's
// definition list. Bundles are immutable values; an addition builds a new
// Bundle and swaps it in through a non-locking read map, so readers either
// see the old list or the new one, never a torn mix. Writers are serialized
// by a mutex; writes are rare and never block readers.

// Table is the registry of dispatch bundles keyed by name.
type Table struct {
	mu      sync.Mutex // serializes writers only
	bundles NonLockingReadMap.NonLockingReadMap[Bundle, string]
}

// NewTable creates an empty registry.
func NewTable() *Table {
	return &Table{bundles: NonLockingReadMap.New[Bundle, string]()}
}

// Bundle returns the current snapshot of the named bundle, or nil.
func (t *Table) Bundle(name string) *Bundle {
	return t.bundles.Get(name)
}

// Names returns the names of all registered bundles.
func (t *Table) Names() []string {
	all := t.bundles.GetAll()
	names := make([]string, 0, len(all))
	for _, b := range all {
		names = append(names, b.Name())
	}
	return names
}

// AddDefinition registers a definition under name, creating the bundle on
// first use. A definition whose signature duplicates an existing concrete
// one is rejected; implementing a forward declaration replaces it.
func (t *Table) AddDefinition(name string, def *Definition) (*Bundle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current := t.bundles.Get(name)
	if current == nil {
		current = NewBundle(name, def.Arity())
	}
	if def.Arity() != current.Arity() {
		return nil, fmt.Errorf("bundle %q has arity %d, definition has %d",
			name, current.Arity(), def.Arity())
	}

	next := (*Bundle)(nil)
	for i, existing := range current.Definitions() {
		if !existing.SameSignatureAs(def) {
			continue
		}
		if existing.IsForward() && !def.IsForward() {
			next = current.withReplacedDefinition(i, def)
			break
		}
		return nil, fmt.Errorf("bundle %q already has a definition with signature %s",
			name, def)
	}
	if next == nil {
		next = current.withDefinition(def)
	}

	t.bundles.Set(next)
	return next, nil
}

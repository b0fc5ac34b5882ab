package dispatch

import (
	"fmt"
	"sync"
	"testing"

	"github.com/chazu/optic/pkg/object"
)

func concrete(name string, params ...object.Type) *Definition {
	body := object.NewPrimitive(name, object.Any, func(args []object.Value) (object.Value, error) {
		return object.StringValue(name), nil
	})
	return NewDefinition(params, body)
}

// ---------------------------------------------------------------------------
// Applicability and specificity
// ---------------------------------------------------------------------------

func TestCouldAcceptBounds(t *testing.T) {
	d := concrete("f", object.Integer, object.Integer)

	tests := []struct {
		name   string
		bounds []object.Type
		want   bool
	}{
		{"exact", []object.Type{object.Integer, object.Integer}, true},
		{"wider bounds still possible", []object.Type{object.Number, object.Any}, true},
		{"disjoint first argument", []object.Type{object.Str, object.Integer}, false},
		{"wrong arity", []object.Type{object.Integer}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.CouldAcceptBounds(tt.bounds); got != tt.want {
				t.Errorf("CouldAcceptBounds = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMoreSpecificThan(t *testing.T) {
	intInt := concrete("ii", object.Integer, object.Integer)
	numNum := concrete("nn", object.Number, object.Number)
	intNum := concrete("in", object.Integer, object.Number)

	if !intInt.MoreSpecificThan(numNum) {
		t.Error("(integer, integer) should be more specific than (number, number)")
	}
	if numNum.MoreSpecificThan(intInt) {
		t.Error("(number, number) should not be more specific than (integer, integer)")
	}
	if intInt.MoreSpecificThan(intInt) {
		t.Error("specificity should be strict")
	}
	if !intInt.MoreSpecificThan(intNum) {
		t.Error("(integer, integer) should be more specific than (integer, number)")
	}
	// (integer, number) and (number, integer) are incomparable.
	numInt := concrete("ni", object.Number, object.Integer)
	if intNum.MoreSpecificThan(numInt) || numInt.MoreSpecificThan(intNum) {
		t.Error("(integer, number) and (number, integer) should be incomparable")
	}
}

// ---------------------------------------------------------------------------
// Dynamic lookup
// ---------------------------------------------------------------------------

func TestLookupSingleApplicable(t *testing.T) {
	table := NewTable()
	d := concrete("plus-int", object.Integer, object.Integer)
	if _, err := table.AddDefinition("_+_", d); err != nil {
		t.Fatal(err)
	}

	b := table.Bundle("_+_")
	got, code := b.LookupByValues([]object.Value{object.IntValue(1), object.IntValue(2)})
	if code != LookupOK {
		t.Fatalf("lookup code = %s, want ok", code)
	}
	if got != d {
		t.Errorf("lookup returned %s, want plus-int", got)
	}
}

func TestLookupPrefersMostSpecific(t *testing.T) {
	table := NewTable()
	general := concrete("general", object.Number, object.Number)
	narrow := concrete("narrow", object.Integer, object.Integer)
	table.AddDefinition("_+_", general)
	table.AddDefinition("_+_", narrow)

	b := table.Bundle("_+_")
	got, code := b.LookupByValues([]object.Value{object.IntValue(1), object.IntValue(2)})
	if code != LookupOK {
		t.Fatalf("lookup code = %s, want ok", code)
	}
	if got != narrow {
		t.Errorf("lookup picked %s, want the narrow definition", got)
	}

	// Float arguments only match the general definition.
	got, code = b.LookupByValues([]object.Value{object.FloatValue(1), object.FloatValue(2)})
	if code != LookupOK || got != general {
		t.Errorf("float lookup = %v (%s), want general", got, code)
	}
}

func TestLookupAmbiguous(t *testing.T) {
	table := NewTable()
	table.AddDefinition("f", concrete("a", object.Integer, object.Number))
	table.AddDefinition("f", concrete("b", object.Number, object.Integer))

	// Both apply to (integer, integer) and neither dominates.
	_, code := table.Bundle("f").LookupByValues([]object.Value{object.IntValue(1), object.IntValue(2)})
	if code != LookupAmbiguous {
		t.Errorf("lookup code = %s, want ambiguous-lookup", code)
	}
}

func TestLookupFailureCodes(t *testing.T) {
	table := NewTable()
	intArgs := []object.Value{object.IntValue(1)}

	if _, err := table.AddDefinition("g", NewAbstractDefinition([]object.Type{object.Integer})); err != nil {
		t.Fatal(err)
	}
	if _, code := table.Bundle("g").LookupByValues(intArgs); code != LookupAbstract {
		t.Errorf("abstract winner: code = %s, want abstract-method", code)
	}

	table.AddDefinition("h", NewForwardDefinition([]object.Type{object.Integer}))
	if _, code := table.Bundle("h").LookupByValues(intArgs); code != LookupForward {
		t.Errorf("forward winner: code = %s, want forward-method", code)
	}

	table.AddDefinition("k", concrete("k", object.Str))
	if _, code := table.Bundle("k").LookupByValues(intArgs); code != LookupNoDefinition {
		t.Errorf("no applicable: code = %s, want no-matching-definition", code)
	}

	empty := NewBundle("empty", 1)
	if _, code := empty.LookupByValues(intArgs); code != LookupNoMethod {
		t.Errorf("empty bundle: code = %s, want no-method", code)
	}
}

func TestForwardReplacedByImplementation(t *testing.T) {
	table := NewTable()
	table.AddDefinition("f", NewForwardDefinition([]object.Type{object.Integer}))
	impl := concrete("impl", object.Integer)
	if _, err := table.AddDefinition("f", impl); err != nil {
		t.Fatalf("implementing a forward declaration failed: %v", err)
	}

	b := table.Bundle("f")
	if len(b.Definitions()) != 1 {
		t.Fatalf("definition count = %d, want 1 (replacement, not addition)", len(b.Definitions()))
	}
	got, code := b.LookupByValues([]object.Value{object.IntValue(1)})
	if code != LookupOK || got != impl {
		t.Errorf("lookup = %v (%s), want the implementation", got, code)
	}
}

func TestDuplicateSignatureRejected(t *testing.T) {
	table := NewTable()
	table.AddDefinition("f", concrete("a", object.Integer))
	if _, err := table.AddDefinition("f", concrete("b", object.Integer)); err == nil {
		t.Error("duplicate concrete signature should be rejected")
	}
}

func TestArityMismatchRejected(t *testing.T) {
	table := NewTable()
	table.AddDefinition("f", concrete("a", object.Integer))
	if _, err := table.AddDefinition("f", concrete("b", object.Integer, object.Integer)); err == nil {
		t.Error("definition with different arity should be rejected")
	}
}

// ---------------------------------------------------------------------------
// Static phase
// ---------------------------------------------------------------------------

func TestDefinitionsApplicableTo(t *testing.T) {
	table := NewTable()
	intDef := concrete("int", object.Integer, object.Integer)
	strDef := concrete("str", object.Str, object.Str)
	table.AddDefinition("f", intDef)
	table.AddDefinition("f", strDef)
	b := table.Bundle("f")

	got := b.DefinitionsApplicableTo([]object.Type{object.Integer, object.Integer})
	if len(got) != 1 || got[0] != intDef {
		t.Errorf("integer bounds: %d candidates, want just the integer definition", len(got))
	}

	got = b.DefinitionsApplicableTo([]object.Type{object.Any, object.Any})
	if len(got) != 2 {
		t.Errorf("unbounded arguments: %d candidates, want 2", len(got))
	}
}

// ---------------------------------------------------------------------------
// Snapshot consistency
// ---------------------------------------------------------------------------

func TestConcurrentAdditionsAndLookups(t *testing.T) {
	table := NewTable()
	table.AddDefinition("f", concrete("seed", object.Integer))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers: every snapshot they obtain must be internally consistent
	// (a unique winner or a principled error, never a crash or torn list).
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			args := []object.Value{object.IntValue(7)}
			for {
				select {
				case <-stop:
					return
				default:
				}
				b := table.Bundle("f")
				if b == nil {
					t.Error("bundle disappeared during reads")
					return
				}
				if _, code := b.LookupByValues(args); code != LookupOK && code != LookupAmbiguous {
					t.Errorf("unexpected lookup code %s", code)
					return
				}
			}
		}()
	}

	// Writer: grow the bundle with non-overlapping string signatures.
	for i := 0; i < 200; i++ {
		name := object.NewType(fmt.Sprintf("tag%d", i), nil)
		if _, err := table.AddDefinition("f", concrete("d", name)); err != nil {
			t.Fatalf("AddDefinition failed: %v", err)
		}
	}
	close(stop)
	wg.Wait()

	if got := len(table.Bundle("f").Definitions()); got != 201 {
		t.Errorf("definition count = %d, want 201", got)
	}
}

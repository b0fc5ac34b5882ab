package object

import "testing"

// ---------------------------------------------------------------------------
// Lattice tests
// ---------------------------------------------------------------------------

func TestSubtypeChain(t *testing.T) {
	if !Integer.IsSubtypeOf(Number) {
		t.Error("integer should be a subtype of number")
	}
	if !Integer.IsSubtypeOf(Integer) {
		t.Error("subtyping should be reflexive")
	}
	if Number.IsSubtypeOf(Integer) {
		t.Error("number should not be a subtype of integer")
	}
	if !Integer.IsSubtypeOf(Any) {
		t.Error("everything is a subtype of Any")
	}
	if !Bottom.IsSubtypeOf(Integer) {
		t.Error("Bottom is a subtype of everything")
	}
}

func TestIntersectionDisjoint(t *testing.T) {
	got := Integer.TypeIntersection(Str)
	if !got.IsBottom() {
		t.Errorf("integer ∩ string = %s, want bottom", got)
	}
}

func TestIntersectionRelated(t *testing.T) {
	if got := Integer.TypeIntersection(Number); got != Type(Integer) {
		t.Errorf("integer ∩ number = %s, want integer", got)
	}
	if got := Number.TypeIntersection(Integer); got != Type(Integer) {
		t.Errorf("number ∩ integer = %s, want integer", got)
	}
	if got := Number.TypeIntersection(Any); got != Type(Number) {
		t.Errorf("number ∩ any = %s, want number", got)
	}
}

func TestUnionCommonAncestor(t *testing.T) {
	if got := Integer.TypeUnion(Float); got != Type(Number) {
		t.Errorf("integer ∪ float = %s, want number", got)
	}
	if got := Integer.TypeUnion(Str); !got.IsTop() {
		t.Errorf("integer ∪ string = %s, want any", got)
	}
	if got := Integer.TypeUnion(Bottom); got != Type(Integer) {
		t.Errorf("integer ∪ bottom = %s, want integer", got)
	}
}

func TestEnumerationMembership(t *testing.T) {
	five := IntValue(5)
	seven := IntValue(7)
	e := NewEnumeration(five, seven).(*Enumeration)

	if !e.Contains(IntValue(5)) {
		t.Error("enumeration should contain 5")
	}
	if e.Contains(IntValue(6)) {
		t.Error("enumeration should not contain 6")
	}
	if !e.IsSubtypeOf(Integer) {
		t.Error("{5, 7} should be a subtype of integer")
	}
	if e.IsSubtypeOf(Str) {
		t.Error("{5, 7} should not be a subtype of string")
	}
}

func TestEnumerationDeduplicates(t *testing.T) {
	e := NewEnumeration(IntValue(1), IntValue(1), IntValue(2)).(*Enumeration)
	if got := len(e.Instances()); got != 2 {
		t.Errorf("instance count = %d, want 2", got)
	}
}

func TestEmptyEnumerationIsBottom(t *testing.T) {
	if got := NewEnumeration(); !got.IsBottom() {
		t.Errorf("empty enumeration = %s, want bottom", got)
	}
}

func TestEnumerationIntersection(t *testing.T) {
	e := NewEnumeration(IntValue(1), StringValue("x"))
	got := e.TypeIntersection(Integer)
	ge, ok := got.(*Enumeration)
	if !ok {
		t.Fatalf("intersection = %s, want enumeration", got)
	}
	if len(ge.Instances()) != 1 || !ge.Contains(IntValue(1)) {
		t.Errorf("intersection = %s, want {1}", got)
	}
	if sole := ge.Sole(); sole == nil || !sole.Equals(IntValue(1)) {
		t.Errorf("Sole() = %v, want 1", sole)
	}
}

func TestEnumerationDisjointIntersectionIsBottom(t *testing.T) {
	a := InstanceType(IntValue(1))
	b := InstanceType(IntValue(2))
	if got := a.TypeIntersection(b); !got.IsBottom() {
		t.Errorf("{1} ∩ {2} = %s, want bottom", got)
	}
}

func TestEnumerationUnion(t *testing.T) {
	a := InstanceType(IntValue(1))
	b := InstanceType(IntValue(2))
	got, ok := a.TypeUnion(b).(*Enumeration)
	if !ok {
		t.Fatalf("{1} ∪ {2} is not an enumeration")
	}
	if !got.Contains(IntValue(1)) || !got.Contains(IntValue(2)) {
		t.Errorf("{1} ∪ {2} = %s, want {1, 2}", got)
	}
}

func TestVariableTypeInvariance(t *testing.T) {
	vi := NewVariableType(Integer)
	vn := NewVariableType(Number)

	if vi.IsSubtypeOf(vn) {
		t.Error("variable(integer) should not be a subtype of variable(number)")
	}
	if !vi.IsSubtypeOf(NewVariableType(Integer)) {
		t.Error("variable(integer) should be a subtype of itself")
	}
	if got := vi.TypeIntersection(vn); !got.IsBottom() {
		t.Errorf("variable(integer) ∩ variable(number) = %s, want bottom", got)
	}
}

// ---------------------------------------------------------------------------
// Value tests
// ---------------------------------------------------------------------------

func TestValueInstanceOf(t *testing.T) {
	if !IntValue(3).IsInstanceOf(Number) {
		t.Error("3 should be an instance of number")
	}
	if IntValue(3).IsInstanceOf(Float) {
		t.Error("3 should not be an instance of float")
	}
	if !FloatValue(2.5).IsInstanceOf(Number) {
		t.Error("2.5 should be an instance of number")
	}
	if !StringValue("hi").IsInstanceOf(Str) {
		t.Error("\"hi\" should be an instance of string")
	}
	if !IntValue(3).IsInstanceOf(NewEnumeration(IntValue(3), IntValue(4))) {
		t.Error("3 should be an instance of {3, 4}")
	}
}

func TestVariableLifecycle(t *testing.T) {
	v := NewVariable(Integer)

	if _, ok := v.Get(); ok {
		t.Error("fresh variable should be unassigned")
	}
	if err := v.Set(IntValue(42)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, ok := v.Get()
	if !ok || !got.Equals(IntValue(42)) {
		t.Errorf("Get = %v, %v; want 42, true", got, ok)
	}
	if err := v.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, ok := v.Get(); ok {
		t.Error("cleared variable should be unassigned")
	}
}

func TestVariableContentTypeEnforced(t *testing.T) {
	v := NewVariable(Integer)
	if err := v.Set(StringValue("no")); err == nil {
		t.Error("storing a string in variable(integer) should fail")
	}
}

func TestFrozenVariableRejectsWrites(t *testing.T) {
	v := NewVariable(Any)
	if err := v.Set(IntValue(1)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := v.MakeImmutable(); got != Value(v) {
		t.Error("MakeImmutable should return the same reference")
	}
	if !v.IsImmutable() {
		t.Error("variable should report immutable after freeze")
	}
	if err := v.Set(IntValue(2)); err == nil {
		t.Error("Set after freeze should fail")
	}
	if err := v.Clear(); err == nil {
		t.Error("Clear after freeze should fail")
	}
	// The frozen value must still be readable.
	if got, ok := v.Get(); !ok || !got.Equals(IntValue(1)) {
		t.Errorf("Get after freeze = %v, %v; want 1, true", got, ok)
	}
}

func TestFunctionInvoke(t *testing.T) {
	double := NewPrimitive("double", Integer, func(args []Value) (Value, error) {
		return IntValue(int64(args[0].(IntValue)) * 2), nil
	})
	got, err := double.Invoke([]Value{IntValue(21)})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !got.Equals(IntValue(42)) {
		t.Errorf("double(21) = %s, want 42", got)
	}
	if !double.Equals(double) {
		t.Error("function should equal itself")
	}
	if double.Equals(NewPrimitive("double", Integer, nil)) {
		t.Error("distinct function values should not be equal")
	}
}

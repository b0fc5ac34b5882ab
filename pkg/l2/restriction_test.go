package l2

import (
	"testing"

	"github.com/chazu/optic/pkg/object"
)

func TestIntersectNarrowsType(t *testing.T) {
	r := RestrictionForType(object.Number).Intersect(RestrictionForType(object.Integer))
	if !r.Type.IsSubtypeOf(object.Integer) {
		t.Errorf("intersection = %s, want within integer", r)
	}
}

func TestIntersectConflictingConstantsIsImpossible(t *testing.T) {
	a := RestrictionForConstant(object.IntValue(1))
	b := RestrictionForConstant(object.IntValue(2))
	if got := a.Intersect(b); !got.IsImpossible() {
		t.Errorf("intersection of distinct constants = %s, want impossible", got)
	}
}

func TestIntersectConstantOutsideTypeIsImpossible(t *testing.T) {
	a := RestrictionForConstant(object.StringValue("hi"))
	b := RestrictionForType(object.Integer)
	if got := a.Intersect(b); !got.IsImpossible() {
		t.Errorf("intersection = %s, want impossible", got)
	}
}

func TestIntersectKeepsConsistentConstant(t *testing.T) {
	a := RestrictionForConstant(object.IntValue(7))
	b := RestrictionForType(object.Number)
	got := a.Intersect(b)
	if !got.HasConstant() || !got.Constant.Equals(object.IntValue(7)) {
		t.Errorf("intersection = %s, want constant 7", got)
	}
}

func TestUnionConstantNeedsAgreement(t *testing.T) {
	same := RestrictionForConstant(object.IntValue(3)).Union(RestrictionForConstant(object.IntValue(3)))
	if !same.HasConstant() {
		t.Errorf("union of equal constants = %s, want constant kept", same)
	}
	differ := RestrictionForConstant(object.IntValue(3)).Union(RestrictionForConstant(object.IntValue(4)))
	if differ.HasConstant() {
		t.Errorf("union of distinct constants = %s, want constant dropped", differ)
	}
}

func TestSoleEnumerationNormalizesToConstant(t *testing.T) {
	r := RestrictionForType(object.NewEnumeration(object.IntValue(9)))
	if !r.HasConstant() || !r.Constant.Equals(object.IntValue(9)) {
		t.Errorf("restriction = %s, want constant 9", r)
	}
}

func TestDisjointFrom(t *testing.T) {
	ints := RestrictionForType(object.Integer)
	strs := RestrictionForType(object.Str)
	if !ints.DisjointFrom(strs) {
		t.Error("integer and string restrictions should be disjoint")
	}
	nums := RestrictionForType(object.Number)
	if ints.DisjointFrom(nums) {
		t.Error("integer and number restrictions should overlap")
	}
}

package l2

import "fmt"

// ---------------------------------------------------------------------------
// Semantic values
// ---------------------------------------------------------------------------

// SemanticPurpose classifies what a semantic value stands for.
type SemanticPurpose uint8

const (
	// SemArgument is the i'th argument of the unit being translated.
	SemArgument SemanticPurpose = iota

	// SemLocal is the value currently held by local slot i.
	SemLocal

	// SemOuter is the i'th captured outer value.
	SemOuter

	// SemConstant is the value of literal-pool entry i.
	SemConstant

	// SemTemp is an anonymous intermediate result.
	SemTemp
)

// SemanticValue is an opaque, immutable, comparable identifier for "the
// value computed here for this logical purpose", independent of the register
// that happens to hold it. Semantic values are the keys of the manifest;
// several of them can be synonymous when they are known to hold the same
// runtime value.
type SemanticValue struct {
	Purpose SemanticPurpose
	Index   int
}

// Argument names the i'th argument.
func Argument(i int) SemanticValue { return SemanticValue{SemArgument, i} }

// Local names the value in local slot i.
func Local(i int) SemanticValue { return SemanticValue{SemLocal, i} }

// Outer names the i'th captured outer value.
func Outer(i int) SemanticValue { return SemanticValue{SemOuter, i} }

// ConstantValue names the value of literal-pool entry i.
func ConstantValue(i int) SemanticValue { return SemanticValue{SemConstant, i} }

// Temp names the i'th anonymous intermediate.
func Temp(i int) SemanticValue { return SemanticValue{SemTemp, i} }

func (v SemanticValue) String() string {
	switch v.Purpose {
	case SemArgument:
		return fmt.Sprintf("arg%d", v.Index)
	case SemLocal:
		return fmt.Sprintf("local%d", v.Index)
	case SemOuter:
		return fmt.Sprintf("outer%d", v.Index)
	case SemConstant:
		return fmt.Sprintf("const%d", v.Index)
	case SemTemp:
		return fmt.Sprintf("tmp%d", v.Index)
	default:
		return fmt.Sprintf("sem(%d,%d)", v.Purpose, v.Index)
	}
}

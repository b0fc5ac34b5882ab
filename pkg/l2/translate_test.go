package l2

import (
	"errors"
	"testing"

	"github.com/chazu/optic/pkg/dispatch"
	"github.com/chazu/optic/pkg/l1"
	"github.com/chazu/optic/pkg/object"
)

func intAddPrim() *object.Function {
	return object.NewPrimitive("int-add", object.Integer, func(args []object.Value) (object.Value, error) {
		a := args[0].(object.IntValue)
		b := args[1].(object.IntValue)
		return object.IntValue(int64(a) + int64(b)), nil
	})
}

func strConcatPrim() *object.Function {
	return object.NewPrimitive("str-concat", object.Str, func(args []object.Value) (object.Value, error) {
		a := args[0].(object.StringValue)
		b := args[1].(object.StringValue)
		return object.StringValue(string(a) + string(b)), nil
	})
}

func tableWith(t *testing.T, name string, defs ...*dispatch.Definition) *dispatch.Table {
	t.Helper()
	table := dispatch.NewTable()
	for _, def := range defs {
		if _, err := table.AddDefinition(name, def); err != nil {
			t.Fatal(err)
		}
	}
	return table
}

func TestMonomorphicCallInlined(t *testing.T) {
	table := tableWith(t, "_+_",
		dispatch.NewDefinition([]object.Type{object.Integer, object.Integer}, intAddPrim()))

	src := l1.NewChunk("five-plus-three")
	src.EmitPushLiteral(object.IntValue(5))
	src.EmitPushLiteral(object.IntValue(3))
	src.EmitCall("_+_", 2)
	src.Emit(l1.OpReturn)

	c, err := Translate(src, table, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if n := countOp(c, OpLookupByValues); n != 0 {
		t.Errorf("monomorphic call emitted %d runtime lookups:\n%s", n, Disassemble(c))
	}
	got, err := Run(c, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equals(object.IntValue(8)) {
		t.Errorf("Run = %s, want 8", got)
	}
}

func TestPolymorphicCallEmitsLookup(t *testing.T) {
	table := tableWith(t, "_+_",
		dispatch.NewDefinition([]object.Type{object.Integer, object.Integer}, intAddPrim()),
		dispatch.NewDefinition([]object.Type{object.Str, object.Str}, strConcatPrim()))

	src := l1.NewChunk("add-args")
	src.ParamTypes = []object.Type{object.Any, object.Any}
	src.Emit(l1.OpPushLocal, 0)
	src.Emit(l1.OpPushLocal, 1)
	src.EmitCall("_+_", 2)
	src.Emit(l1.OpReturn)

	c, err := Translate(src, table, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if n := countOp(c, OpLookupByValues); n != 1 {
		t.Fatalf("polymorphic call emitted %d runtime lookups, want 1:\n%s", n, Disassemble(c))
	}

	got, err := Run(c, []object.Value{object.IntValue(5), object.IntValue(3)}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equals(object.IntValue(8)) {
		t.Errorf("Run(ints) = %s, want 8", got)
	}

	got, err = Run(c, []object.Value{object.StringValue("a"), object.StringValue("b")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equals(object.StringValue("ab")) {
		t.Errorf("Run(strings) = %s, want \"ab\"", got)
	}
}

func TestAmbiguousDispatchFailsWithCode(t *testing.T) {
	table := tableWith(t, "f",
		dispatch.NewDefinition([]object.Type{object.Integer, object.Number}, intAddPrim()),
		dispatch.NewDefinition([]object.Type{object.Number, object.Integer}, intAddPrim()))

	src := l1.NewChunk("ambiguous")
	src.EmitPushLiteral(object.IntValue(1))
	src.EmitPushLiteral(object.IntValue(2))
	src.EmitCall("f", 2)
	src.Emit(l1.OpReturn)

	c, err := Translate(src, table, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if n := countOp(c, OpLookupByValues); n != 1 {
		t.Fatalf("ambiguous call emitted %d runtime lookups, want 1", n)
	}

	_, err = Run(c, nil, nil)
	var failure *FailureError
	if !errors.As(err, &failure) {
		t.Fatalf("Run error = %v, want FailureError", err)
	}
	if failure.Code != int64(dispatch.LookupAmbiguous) {
		t.Errorf("failure code = %d, want %d", failure.Code, dispatch.LookupAmbiguous)
	}
}

func TestInapplicableDispatchFailsWithCode(t *testing.T) {
	table := tableWith(t, "f",
		dispatch.NewDefinition([]object.Type{object.Integer, object.Integer}, intAddPrim()))

	src := l1.NewChunk("inapplicable")
	src.EmitPushLiteral(object.StringValue("a"))
	src.EmitPushLiteral(object.StringValue("b"))
	src.EmitCall("f", 2)
	src.Emit(l1.OpReturn)

	c, err := Translate(src, table, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	_, err = Run(c, nil, nil)
	var failure *FailureError
	if !errors.As(err, &failure) {
		t.Fatalf("Run error = %v, want FailureError", err)
	}
	if failure.Code != int64(dispatch.LookupNoDefinition) {
		t.Errorf("failure code = %d, want %d", failure.Code, dispatch.LookupNoDefinition)
	}
}

func TestUnknownBundleRejected(t *testing.T) {
	src := l1.NewChunk("missing")
	src.EmitPushLiteral(object.IntValue(1))
	src.EmitCall("no-such-bundle", 1)
	src.Emit(l1.OpReturn)

	_, err := Translate(src, dispatch.NewTable(), DefaultOptions())
	if !errors.Is(err, ErrUntranslatable) {
		t.Errorf("Translate error = %v, want ErrUntranslatable", err)
	}
}

func TestArityMismatchRejectedByTranslator(t *testing.T) {
	table := tableWith(t, "f",
		dispatch.NewDefinition([]object.Type{object.Integer, object.Integer}, intAddPrim()))

	src := l1.NewChunk("bad-arity")
	src.EmitPushLiteral(object.IntValue(1))
	src.EmitCall("f", 1)
	src.Emit(l1.OpReturn)

	_, err := Translate(src, table, DefaultOptions())
	if !errors.Is(err, ErrUntranslatable) {
		t.Errorf("Translate error = %v, want ErrUntranslatable", err)
	}
}

func TestLocalReadBeforeAssignmentRejected(t *testing.T) {
	src := l1.NewChunk("uninitialized")
	src.NumLocals = 1
	src.Emit(l1.OpPushLocal, 0)
	src.Emit(l1.OpReturn)

	_, err := Translate(src, dispatch.NewTable(), DefaultOptions())
	if !errors.Is(err, ErrUntranslatable) {
		t.Errorf("Translate error = %v, want ErrUntranslatable", err)
	}
}

func TestInvalidChunkRejected(t *testing.T) {
	src := l1.NewChunk("no-return")
	src.EmitPushLiteral(object.IntValue(1))

	_, err := Translate(src, dispatch.NewTable(), DefaultOptions())
	if !errors.Is(err, ErrUntranslatable) {
		t.Errorf("Translate error = %v, want ErrUntranslatable", err)
	}
}

func TestStackUnderflowRejected(t *testing.T) {
	// Chunks whose stack discipline is broken must come back as errors,
	// never reach the symbolic stack and panic.
	dupEmpty := l1.NewChunk("dup-empty")
	dupEmpty.Emit(l1.OpDup)
	dupEmpty.Emit(l1.OpReturn)

	getEmpty := l1.NewChunk("get-empty")
	getEmpty.Emit(l1.OpGetVariable)
	getEmpty.EmitPushLiteral(object.IntValue(1))
	getEmpty.Emit(l1.OpPop)
	getEmpty.Emit(l1.OpReturn)

	for _, src := range []*l1.Chunk{dupEmpty, getEmpty} {
		_, err := Translate(src, dispatch.NewTable(), DefaultOptions())
		if !errors.Is(err, ErrUntranslatable) {
			t.Errorf("Translate(%q) error = %v, want ErrUntranslatable", src.Name, err)
		}
	}
}

func TestLocalsBecomeSynonymsNotMoves(t *testing.T) {
	table := tableWith(t, "_+_",
		dispatch.NewDefinition([]object.Type{object.Integer, object.Integer}, intAddPrim()))

	// x := 5; x + x. The local is a synonym for the literal; pushing it
	// twice costs nothing and the literal is materialized exactly once.
	src := l1.NewChunk("double")
	src.NumLocals = 1
	src.EmitPushLiteral(object.IntValue(5))
	src.Emit(l1.OpSetLocal, 0)
	src.Emit(l1.OpPushLocal, 0)
	src.Emit(l1.OpPushLocal, 0)
	src.EmitCall("_+_", 2)
	src.Emit(l1.OpReturn)

	c, err := Translate(src, table, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	// One materialization of 5, one of the inlined body.
	if n := countOp(c, OpMoveConstant); n != 2 {
		t.Errorf("emitted %d constant moves, want 2:\n%s", n, Disassemble(c))
	}
	got, err := Run(c, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equals(object.IntValue(10)) {
		t.Errorf("Run = %s, want 10", got)
	}
}

func TestRepeatedLiteralMaterializedOnce(t *testing.T) {
	table := tableWith(t, "_+_",
		dispatch.NewDefinition([]object.Type{object.Integer, object.Integer}, intAddPrim()))

	src := l1.NewChunk("five-plus-five")
	src.EmitPushLiteral(object.IntValue(5))
	src.EmitPushLiteral(object.IntValue(5))
	src.EmitCall("_+_", 2)
	src.Emit(l1.OpReturn)

	c, err := Translate(src, table, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if n := countOp(c, OpMoveConstant); n != 2 {
		t.Errorf("emitted %d constant moves, want 2:\n%s", n, Disassemble(c))
	}
	got, err := Run(c, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equals(object.IntValue(10)) {
		t.Errorf("Run = %s, want 10", got)
	}
}

func TestVariableAccessThroughTranslation(t *testing.T) {
	cellType := object.NewVariableType(object.Integer)

	src := l1.NewChunk("deref")
	src.ParamTypes = []object.Type{cellType}
	src.Emit(l1.OpPushLocal, 0)
	src.Emit(l1.OpGetVariable)
	src.Emit(l1.OpReturn)

	c, err := Translate(src, dispatch.NewTable(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	cell := object.NewVariable(object.Integer)
	if err := cell.Set(object.IntValue(42)); err != nil {
		t.Fatal(err)
	}
	got, err := Run(c, []object.Value{cell}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equals(object.IntValue(42)) {
		t.Errorf("Run = %s, want 42", got)
	}

	_, err = Run(c, []object.Value{object.NewVariable(object.Integer)}, nil)
	var failure *FailureError
	if !errors.As(err, &failure) {
		t.Fatalf("Run error = %v, want FailureError", err)
	}
	if failure.Code != FailUnassignedVariable {
		t.Errorf("failure code = %d, want %d", failure.Code, FailUnassignedVariable)
	}
}

func TestClosureCapturesFrozenValues(t *testing.T) {
	inner := l1.NewChunk("inner")
	inner.NumOuters = 1
	inner.Emit(l1.OpPushOuter, 0)
	inner.Emit(l1.OpReturn)

	outer := l1.NewChunk("outer")
	outer.EmitPushLiteral(object.IntValue(10))
	outer.Emit(l1.OpClose, outer.AddFunction(inner), 1)
	outer.Emit(l1.OpReturn)

	c, err := Translate(outer, dispatch.NewTable(), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	got, err := Run(c, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	fn, ok := got.(*object.Function)
	if !ok {
		t.Fatalf("Run = %s, want a function", got)
	}
	if len(fn.Outers) != 1 {
		t.Fatalf("closure captured %d values, want 1", len(fn.Outers))
	}
	if !fn.Outers[0].IsImmutable() {
		t.Error("captured value was not frozen")
	}

	body, ok := fn.Code.(*Chunk)
	if !ok {
		t.Fatalf("closure code is %T, want *Chunk", fn.Code)
	}
	result, err := Run(body, nil, fn.Outers)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Equals(object.IntValue(10)) {
		t.Errorf("closure body = %s, want 10", result)
	}
}

func TestPublishedUnitSwapsAtomically(t *testing.T) {
	var unit CompiledUnit
	if unit.Current() != nil {
		t.Fatal("fresh unit should have no chunk")
	}
	first := &Chunk{Name: "v1"}
	second := &Chunk{Name: "v2"}
	unit.Publish(first)
	if got := unit.Current(); got != first {
		t.Errorf("Current = %v, want first publish", got)
	}
	unit.Publish(second)
	if got := unit.Current(); got != second {
		t.Errorf("Current = %v, want second publish", got)
	}
}

package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/chazu/optic/pkg/dispatch"
	"github.com/chazu/optic/pkg/l1"
	"github.com/chazu/optic/pkg/l2"
	"github.com/chazu/optic/pkg/object"
)

func addTable(t *testing.T) *dispatch.Table {
	t.Helper()
	table := dispatch.NewTable()
	add := object.NewPrimitive("int-add", object.Integer, func(args []object.Value) (object.Value, error) {
		a := args[0].(object.IntValue)
		b := args[1].(object.IntValue)
		return object.IntValue(int64(a) + int64(b)), nil
	})
	concat := object.NewPrimitive("str-concat", object.Str, func(args []object.Value) (object.Value, error) {
		a := args[0].(object.StringValue)
		b := args[1].(object.StringValue)
		return object.StringValue(string(a) + string(b)), nil
	})
	if _, err := table.AddDefinition("_+_",
		dispatch.NewDefinition([]object.Type{object.Integer, object.Integer}, add)); err != nil {
		t.Fatal(err)
	}
	if _, err := table.AddDefinition("_+_",
		dispatch.NewDefinition([]object.Type{object.Str, object.Str}, concat)); err != nil {
		t.Fatal(err)
	}
	return table
}

func addProgram() *l1.Chunk {
	src := l1.NewChunk("add-args")
	src.ParamTypes = []object.Type{object.Any, object.Any}
	src.Emit(l1.OpPushLocal, 0)
	src.Emit(l1.OpPushLocal, 1)
	src.EmitCall("_+_", 2)
	src.Emit(l1.OpReturn)
	return src
}

func TestProgramRoundTrip(t *testing.T) {
	src := addProgram()
	data, err := EncodeProgram(src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeProgram(data, BuiltinTypes())
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != src.Name {
		t.Errorf("name = %q, want %q", got.Name, src.Name)
	}
	if !bytes.Equal(got.Code, src.Code) {
		t.Error("code bytes differ after round trip")
	}
	if len(got.ParamTypes) != 2 || !got.ParamTypes[0].IsTop() {
		t.Errorf("param types = %v", got.ParamTypes)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("decoded chunk fails validation: %v", err)
	}
}

func TestProgramDigestIsDeterministic(t *testing.T) {
	a, err := ProgramDigest(addProgram())
	if err != nil {
		t.Fatal(err)
	}
	b, err := ProgramDigest(addProgram())
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("same program produced different digests")
	}

	other := addProgram()
	other.EmitPushLiteral(object.IntValue(1))
	c, err := ProgramDigest(other)
	if err != nil {
		t.Fatal(err)
	}
	if a == c {
		t.Error("different programs produced the same digest")
	}
}

func TestLiteralsSurviveRoundTrip(t *testing.T) {
	src := l1.NewChunk("lits")
	src.EmitPushLiteral(object.IntValue(5))
	src.Emit(l1.OpPop)
	src.EmitPushLiteral(object.FloatValue(2.5))
	src.Emit(l1.OpPop)
	src.EmitPushLiteral(object.BoolValue(true))
	src.Emit(l1.OpPop)
	src.EmitPushLiteral(object.StringValue("hi"))
	src.Emit(l1.OpReturn)

	data, err := EncodeProgram(src)
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeProgram(data, BuiltinTypes())
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Literals) != len(src.Literals) {
		t.Fatalf("literal count = %d, want %d", len(got.Literals), len(src.Literals))
	}
	for i, lit := range src.Literals {
		if !got.Literals[i].Equals(lit) {
			t.Errorf("literal %d = %s, want %s", i, got.Literals[i], lit)
		}
	}
}

func TestChunkRoundTripExecutesIdentically(t *testing.T) {
	table := addTable(t)
	compiled, err := l2.Translate(addProgram(), table, l2.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	data, err := EncodeChunk(compiled)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeChunk(data, table, BuiltinTypes())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.UnitID != compiled.UnitID {
		t.Errorf("unit id = %s, want %s", decoded.UnitID, compiled.UnitID)
	}
	if len(decoded.Instructions) != len(compiled.Instructions) {
		t.Fatalf("instruction count = %d, want %d", len(decoded.Instructions), len(compiled.Instructions))
	}

	args := []object.Value{object.IntValue(5), object.IntValue(3)}
	want, err := l2.Run(compiled, args, nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := l2.Run(decoded, args, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equals(want) {
		t.Errorf("decoded chunk computed %s, original computed %s", got, want)
	}
}

func TestChunkWithFunctionConstantIsUnencodable(t *testing.T) {
	table := dispatch.NewTable()

	inner := l1.NewChunk("inner")
	inner.NumOuters = 1
	inner.Emit(l1.OpPushOuter, 0)
	inner.Emit(l1.OpReturn)

	outer := l1.NewChunk("outer")
	outer.EmitPushLiteral(object.IntValue(10))
	outer.Emit(l1.OpClose, outer.AddFunction(inner), 1)
	outer.Emit(l1.OpReturn)

	compiled, err := l2.Translate(outer, table, l2.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := EncodeChunk(compiled); !errors.Is(err, ErrUnencodable) {
		t.Errorf("EncodeChunk error = %v, want ErrUnencodable", err)
	}
}

func TestDecodeRejectsWrongMagic(t *testing.T) {
	src := addProgram()
	data, err := EncodeProgram(src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeChunk(data, dispatch.NewTable(), BuiltinTypes()); !errors.Is(err, ErrBadFormat) {
		t.Errorf("DecodeChunk of a program = %v, want ErrBadFormat", err)
	}
}

func TestDecodeChunkRejectsUnknownBundle(t *testing.T) {
	table := addTable(t)
	compiled, err := l2.Translate(addProgram(), table, l2.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	data, err := EncodeChunk(compiled)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeChunk(data, dispatch.NewTable(), BuiltinTypes()); !errors.Is(err, ErrBadFormat) {
		t.Errorf("DecodeChunk error = %v, want ErrBadFormat for missing bundle", err)
	}
}

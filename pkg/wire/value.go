package wire

import (
	"fmt"

	"github.com/chazu/optic/pkg/object"
)

// TypeResolver maps type names back to types on decode. Encoded records
// refer to named types by name only; the resolver supplies the decoding
// side's view of those types.
type TypeResolver func(name string) (object.Type, bool)

// BuiltinTypes resolves the built-in type names.
func BuiltinTypes() TypeResolver {
	builtin := map[string]object.Type{
		object.Any.Name():          object.Any,
		object.Number.Name():       object.Number,
		object.Integer.Name():      object.Integer,
		object.Float.Name():        object.Float,
		object.Str.Name():          object.Str,
		object.Boolean.Name():      object.Boolean,
		object.FunctionType.Name(): object.FunctionType,
		object.Continuation.Name(): object.Continuation,
		object.Meta.Name():         object.Meta,
	}
	return func(name string) (object.Type, bool) {
		t, ok := builtin[name]
		return t, ok
	}
}

// encodedType is the wire form of a type reference.
type encodedType struct {
	Kind    string       `cbor:"k"` // "any", "bottom", "named", "variable"
	Name    string       `cbor:"n,omitempty"`
	Content *encodedType `cbor:"c,omitempty"`
}

func encodeType(t object.Type) (*encodedType, error) {
	switch {
	case t.IsTop():
		return &encodedType{Kind: "any"}, nil
	case t.IsBottom():
		return &encodedType{Kind: "bottom"}, nil
	}
	switch v := t.(type) {
	case *object.VariableType:
		content, err := encodeType(v.Content)
		if err != nil {
			return nil, err
		}
		return &encodedType{Kind: "variable", Content: content}, nil
	case *object.ObjectType:
		return &encodedType{Kind: "named", Name: v.Name()}, nil
	default:
		return nil, fmt.Errorf("%w: type %s", ErrUnencodable, t)
	}
}

func decodeType(e *encodedType, resolve TypeResolver) (object.Type, error) {
	switch e.Kind {
	case "any":
		return object.Any, nil
	case "bottom":
		return object.Bottom, nil
	case "variable":
		content, err := decodeType(e.Content, resolve)
		if err != nil {
			return nil, err
		}
		return object.NewVariableType(content), nil
	case "named":
		t, ok := resolve(e.Name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown type %q", ErrBadFormat, e.Name)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: type kind %q", ErrBadFormat, e.Kind)
	}
}

// encodedValue is the wire form of a constant. Only plain data constants and
// type references encode; anything with runtime identity does not.
type encodedValue struct {
	Tag   string       `cbor:"t"` // "int", "float", "string", "bool", "type"
	Int   int64        `cbor:"i,omitempty"`
	Float float64      `cbor:"f,omitempty"`
	Str   string       `cbor:"s,omitempty"`
	Bool  bool         `cbor:"b,omitempty"`
	Type  *encodedType `cbor:"y,omitempty"`
}

func encodeValue(v object.Value) (*encodedValue, error) {
	switch x := v.(type) {
	case object.IntValue:
		return &encodedValue{Tag: "int", Int: int64(x)}, nil
	case object.FloatValue:
		return &encodedValue{Tag: "float", Float: float64(x)}, nil
	case object.StringValue:
		return &encodedValue{Tag: "string", Str: string(x)}, nil
	case object.BoolValue:
		return &encodedValue{Tag: "bool", Bool: bool(x)}, nil
	case object.TypeValue:
		t, err := encodeType(x.T)
		if err != nil {
			return nil, err
		}
		return &encodedValue{Tag: "type", Type: t}, nil
	default:
		return nil, fmt.Errorf("%w: constant %s", ErrUnencodable, v)
	}
}

func decodeValue(e *encodedValue, resolve TypeResolver) (object.Value, error) {
	switch e.Tag {
	case "int":
		return object.IntValue(e.Int), nil
	case "float":
		return object.FloatValue(e.Float), nil
	case "string":
		return object.StringValue(e.Str), nil
	case "bool":
		return object.BoolValue(e.Bool), nil
	case "type":
		t, err := decodeType(e.Type, resolve)
		if err != nil {
			return nil, err
		}
		return object.AsValue(t), nil
	default:
		return nil, fmt.Errorf("%w: value tag %q", ErrBadFormat, e.Tag)
	}
}

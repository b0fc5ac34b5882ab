package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/chazu/optic/pkg/dispatch"
	"github.com/chazu/optic/pkg/l2"
)

// encodedChunk is the wire form of a level-two chunk. Labels flatten to
// instruction indices; selectors flatten to bundle names and are re-resolved
// against the decoder's dispatch table. Edge manifests are generation-time
// artifacts and are not carried.
type encodedChunk struct {
	Magic  string `cbor:"m"`
	Format uint16 `cbor:"v"`

	Name   string `cbor:"name"`
	UnitID []byte `cbor:"unit"`

	Instructions []*encodedInstruction `cbor:"ins"`

	NumArgs   int `cbor:"args,omitempty"`
	NumOuters int `cbor:"outers,omitempty"`
	NumBoxed  int `cbor:"boxed,omitempty"`
	NumInt    int `cbor:"int,omitempty"`
	NumFloat  int `cbor:"float,omitempty"`
}

type encodedInstruction struct {
	Op       uint8             `cbor:"op"`
	Source   int               `cbor:"src,omitempty"`
	Operands []*encodedOperand `cbor:"ops,omitempty"`
}

type encodedOperand struct {
	Kind uint8 `cbor:"k"`

	Register int               `cbor:"r,omitempty"`
	IntImm   int64             `cbor:"i,omitempty"`
	FloatImm float64           `cbor:"f,omitempty"`
	Constant *encodedValue     `cbor:"c,omitempty"`
	Target   int               `cbor:"pc,omitempty"`
	Label    string            `cbor:"l,omitempty"`
	Purpose  uint8             `cbor:"p,omitempty"`
	Vector   []*encodedOperand `cbor:"vec,omitempty"`
	Selector string            `cbor:"sel,omitempty"`
}

func encodeOperand(o *l2.Operand) (*encodedOperand, error) {
	e := &encodedOperand{Kind: uint8(o.Kind)}
	switch o.Kind {
	case l2.ReadBoxedKind, l2.WriteBoxedKind, l2.ReadIntKind, l2.WriteIntKind,
		l2.ReadFloatKind, l2.WriteFloatKind:
		e.Register = o.Register.Index
	case l2.IntImmediateKind:
		e.IntImm = o.IntImm
	case l2.FloatImmediateKind:
		e.FloatImm = o.FloatImm
	case l2.ConstantKind:
		c, err := encodeValue(o.Constant)
		if err != nil {
			return nil, err
		}
		e.Constant = c
	case l2.PCKind:
		e.Target = o.Edge.Label.PC()
		e.Label = o.Edge.Label.Name()
		e.Purpose = uint8(o.Edge.Purpose)
	case l2.ReadVectorKind:
		for i := range o.Vector {
			el, err := encodeOperand(&o.Vector[i])
			if err != nil {
				return nil, err
			}
			e.Vector = append(e.Vector, el)
		}
	case l2.SelectorKind:
		e.Selector = o.Bundle.Name()
	default:
		return nil, fmt.Errorf("%w: operand kind %s", ErrUnencodable, o.Kind)
	}
	return e, nil
}

// chunkDecoder shares the label pool across one chunk's operands, so every
// edge to the same instruction index reuses one label.
type chunkDecoder struct {
	table   *dispatch.Table
	resolve TypeResolver
	labels  map[int]*l2.Label
}

func (d *chunkDecoder) label(name string, pc int) *l2.Label {
	if l, ok := d.labels[pc]; ok {
		return l
	}
	l := l2.PlacedLabel(name, pc)
	d.labels[pc] = l
	return l
}

func (d *chunkDecoder) operand(e *encodedOperand) (l2.Operand, error) {
	kind := l2.OperandKind(e.Kind)
	switch kind {
	case l2.ReadBoxedKind:
		return l2.ReadBoxed(l2.Register{Kind: l2.BoxedKind, Index: e.Register}), nil
	case l2.WriteBoxedKind:
		return l2.WriteBoxed(l2.Register{Kind: l2.BoxedKind, Index: e.Register}), nil
	case l2.ReadIntKind:
		return l2.ReadInt(l2.Register{Kind: l2.IntKind, Index: e.Register}), nil
	case l2.WriteIntKind:
		return l2.WriteInt(l2.Register{Kind: l2.IntKind, Index: e.Register}), nil
	case l2.ReadFloatKind:
		return l2.ReadFloat(l2.Register{Kind: l2.FloatKind, Index: e.Register}), nil
	case l2.WriteFloatKind:
		return l2.WriteFloat(l2.Register{Kind: l2.FloatKind, Index: e.Register}), nil
	case l2.IntImmediateKind:
		return l2.IntImmediate(e.IntImm), nil
	case l2.FloatImmediateKind:
		return l2.FloatImmediate(e.FloatImm), nil
	case l2.ConstantKind:
		v, err := decodeValue(e.Constant, d.resolve)
		if err != nil {
			return l2.Operand{}, err
		}
		return l2.ConstantOperand(v), nil
	case l2.PCKind:
		edge := &l2.Edge{
			Purpose: l2.EdgePurpose(e.Purpose),
			Label:   d.label(e.Label, e.Target),
		}
		return l2.Target(edge), nil
	case l2.ReadVectorKind:
		reads := make([]l2.Operand, len(e.Vector))
		for i, el := range e.Vector {
			o, err := d.operand(el)
			if err != nil {
				return l2.Operand{}, err
			}
			reads[i] = o
		}
		return l2.ReadVector(reads), nil
	case l2.SelectorKind:
		bundle := d.table.Bundle(e.Selector)
		if bundle == nil {
			return l2.Operand{}, fmt.Errorf("%w: unknown bundle %q", ErrBadFormat, e.Selector)
		}
		return l2.Selector(bundle), nil
	default:
		return l2.Operand{}, fmt.Errorf("%w: operand kind %d", ErrBadFormat, e.Kind)
	}
}

// EncodeChunk serializes a level-two chunk to canonical CBOR. Chunks holding
// runtime-only constants (closures, variable cells) return ErrUnencodable;
// such chunks simply stay out of the cache.
func EncodeChunk(c *l2.Chunk) ([]byte, error) {
	e := &encodedChunk{
		Magic:     chunkMagic,
		Format:    formatVersion,
		Name:      c.Name,
		UnitID:    c.UnitID[:],
		NumArgs:   c.NumArgs,
		NumOuters: c.NumOuters,
		NumBoxed:  c.NumBoxed,
		NumInt:    c.NumInt,
		NumFloat:  c.NumFloat,
	}
	for _, ins := range c.Instructions {
		ei := &encodedInstruction{Op: uint8(ins.Op), Source: ins.Source}
		for i := range ins.Operands {
			eo, err := encodeOperand(&ins.Operands[i])
			if err != nil {
				return nil, err
			}
			ei.Operands = append(ei.Operands, eo)
		}
		e.Instructions = append(e.Instructions, ei)
	}
	return cborEncMode.Marshal(e)
}

// DecodeChunk deserializes a level-two chunk, re-resolving selector operands
// against the given dispatch table and type names through the resolver.
func DecodeChunk(data []byte, table *dispatch.Table, resolve TypeResolver) (*l2.Chunk, error) {
	var e encodedChunk
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("wire: unmarshal chunk: %w", err)
	}
	if err := checkHeader(chunkMagic, e.Magic, e.Format); err != nil {
		return nil, err
	}
	unitID, err := uuid.FromBytes(e.UnitID)
	if err != nil {
		return nil, fmt.Errorf("%w: unit id: %v", ErrBadFormat, err)
	}

	d := &chunkDecoder{table: table, resolve: resolve, labels: make(map[int]*l2.Label)}
	c := &l2.Chunk{
		Name:      e.Name,
		UnitID:    unitID,
		NumArgs:   e.NumArgs,
		NumOuters: e.NumOuters,
		NumBoxed:  e.NumBoxed,
		NumInt:    e.NumInt,
		NumFloat:  e.NumFloat,
	}
	for _, ei := range e.Instructions {
		operands := make([]l2.Operand, len(ei.Operands))
		for i, eo := range ei.Operands {
			o, err := d.operand(eo)
			if err != nil {
				return nil, err
			}
			operands[i] = o
		}
		ins, err := l2.NewInstruction(l2.Opcode(ei.Op), operands...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
		}
		ins.Source = ei.Source
		c.Instructions = append(c.Instructions, ins)
	}
	return c, nil
}

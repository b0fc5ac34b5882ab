package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/optic/pkg/l1"
)

// encodedProgram is the wire form of a level-one chunk.
type encodedProgram struct {
	Magic  string `cbor:"m"`
	Format uint16 `cbor:"v"`

	Name       string            `cbor:"name"`
	Code       []byte            `cbor:"code"`
	Literals   []*encodedValue   `cbor:"lits,omitempty"`
	Bundles    []string          `cbor:"bundles,omitempty"`
	Functions  []*encodedProgram `cbor:"fns,omitempty"`
	ParamTypes []*encodedType    `cbor:"params,omitempty"`
	NumLocals  int               `cbor:"locals,omitempty"`
	NumOuters  int               `cbor:"outers,omitempty"`
}

func encodeProgram(c *l1.Chunk) (*encodedProgram, error) {
	e := &encodedProgram{
		Magic:     programMagic,
		Format:    formatVersion,
		Name:      c.Name,
		Code:      c.Code,
		Bundles:   c.Bundles,
		NumLocals: c.NumLocals,
		NumOuters: c.NumOuters,
	}
	for _, lit := range c.Literals {
		ev, err := encodeValue(lit)
		if err != nil {
			return nil, err
		}
		e.Literals = append(e.Literals, ev)
	}
	for _, fn := range c.Functions {
		ef, err := encodeProgram(fn)
		if err != nil {
			return nil, err
		}
		e.Functions = append(e.Functions, ef)
	}
	for _, t := range c.ParamTypes {
		et, err := encodeType(t)
		if err != nil {
			return nil, err
		}
		e.ParamTypes = append(e.ParamTypes, et)
	}
	return e, nil
}

func decodeProgram(e *encodedProgram, resolve TypeResolver) (*l1.Chunk, error) {
	if err := checkHeader(programMagic, e.Magic, e.Format); err != nil {
		return nil, err
	}
	c := &l1.Chunk{
		Name:      e.Name,
		Code:      e.Code,
		Bundles:   e.Bundles,
		NumLocals: e.NumLocals,
		NumOuters: e.NumOuters,
	}
	for _, ev := range e.Literals {
		v, err := decodeValue(ev, resolve)
		if err != nil {
			return nil, err
		}
		c.Literals = append(c.Literals, v)
	}
	for _, ef := range e.Functions {
		fn, err := decodeProgram(ef, resolve)
		if err != nil {
			return nil, err
		}
		c.Functions = append(c.Functions, fn)
	}
	for _, et := range e.ParamTypes {
		t, err := decodeType(et, resolve)
		if err != nil {
			return nil, err
		}
		c.ParamTypes = append(c.ParamTypes, t)
	}
	return c, nil
}

// EncodeProgram serializes a level-one chunk to canonical CBOR.
func EncodeProgram(c *l1.Chunk) ([]byte, error) {
	e, err := encodeProgram(c)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(e)
}

// DecodeProgram deserializes a level-one chunk.
func DecodeProgram(data []byte, resolve TypeResolver) (*l1.Chunk, error) {
	var e encodedProgram
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("wire: unmarshal program: %w", err)
	}
	return decodeProgram(&e, resolve)
}

// ProgramDigest returns the content digest of a level-one chunk over its
// canonical encoding. Two chunks with the same digest are the same program.
func ProgramDigest(c *l1.Chunk) ([32]byte, error) {
	data, err := EncodeProgram(c)
	if err != nil {
		return [32]byte{}, err
	}
	return Digest(data), nil
}

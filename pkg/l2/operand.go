package l2

import (
	"fmt"
	"strings"

	"github.com/chazu/optic/pkg/dispatch"
	"github.com/chazu/optic/pkg/object"
)

// ---------------------------------------------------------------------------
// Operands
// ---------------------------------------------------------------------------

// OperandKind identifies the shape of one instruction operand. Every opcode
// declares its exact ordered kind sequence in the opcode table, and
// NewInstruction rejects any mismatch, so downstream code never kind-casts
// blindly.
type OperandKind uint8

const (
	ReadBoxedKind OperandKind = iota
	WriteBoxedKind
	ReadIntKind
	WriteIntKind
	ReadFloatKind
	WriteFloatKind
	IntImmediateKind
	FloatImmediateKind
	ConstantKind
	PCKind
	ReadVectorKind
	SelectorKind
)

// String returns the kind's diagnostic name.
func (k OperandKind) String() string {
	switch k {
	case ReadBoxedKind:
		return "read-boxed"
	case WriteBoxedKind:
		return "write-boxed"
	case ReadIntKind:
		return "read-int"
	case WriteIntKind:
		return "write-int"
	case ReadFloatKind:
		return "read-float"
	case WriteFloatKind:
		return "write-float"
	case IntImmediateKind:
		return "int-immediate"
	case FloatImmediateKind:
		return "float-immediate"
	case ConstantKind:
		return "constant"
	case PCKind:
		return "pc"
	case ReadVectorKind:
		return "read-vector"
	case SelectorKind:
		return "selector"
	default:
		return fmt.Sprintf("OperandKind(%d)", uint8(k))
	}
}

// EdgePurpose tags a branch target with its role at a two-target site.
type EdgePurpose uint8

const (
	// PurposeNone marks the single target of an unconditional jump.
	PurposeNone EdgePurpose = iota

	// PurposeSuccess marks the expected-outcome edge.
	PurposeSuccess

	// PurposeFailure marks the exceptional-outcome edge.
	PurposeFailure
)

func (p EdgePurpose) String() string {
	switch p {
	case PurposeSuccess:
		return "success"
	case PurposeFailure:
		return "failure"
	default:
		return ""
	}
}

// Edge is one control-flow edge leaving a branching instruction: the target
// label plus the manifest narrowed for that edge only. Edges are the only
// way control moves between basic blocks; a branching instruction always
// transfers to exactly one of its labeled targets, never falls through.
type Edge struct {
	Purpose  EdgePurpose
	Label    *Label
	Manifest *Manifest
}

// Operand is one operand site of an instruction. Exactly one payload field
// is meaningful, determined by Kind; Name carries the role declared in the
// opcode table (filled in by NewInstruction).
type Operand struct {
	Kind OperandKind
	Name string

	Register Register
	IntImm   int64
	FloatImm float64
	Constant object.Value
	Edge     *Edge
	Vector   []Operand
	Bundle   *dispatch.Bundle
}

// ReadBoxed creates a boxed-register read operand.
func ReadBoxed(r Register) Operand { return Operand{Kind: ReadBoxedKind, Register: r} }

// WriteBoxed creates a boxed-register write operand.
func WriteBoxed(r Register) Operand { return Operand{Kind: WriteBoxedKind, Register: r} }

// ReadInt creates an int-register read operand.
func ReadInt(r Register) Operand { return Operand{Kind: ReadIntKind, Register: r} }

// WriteInt creates an int-register write operand.
func WriteInt(r Register) Operand { return Operand{Kind: WriteIntKind, Register: r} }

// ReadFloat creates a float-register read operand.
func ReadFloat(r Register) Operand { return Operand{Kind: ReadFloatKind, Register: r} }

// WriteFloat creates a float-register write operand.
func WriteFloat(r Register) Operand { return Operand{Kind: WriteFloatKind, Register: r} }

// IntImmediate creates an immediate integer operand.
func IntImmediate(v int64) Operand { return Operand{Kind: IntImmediateKind, IntImm: v} }

// FloatImmediate creates an immediate float operand.
func FloatImmediate(v float64) Operand { return Operand{Kind: FloatImmediateKind, FloatImm: v} }

// ConstantOperand creates a constant operand.
func ConstantOperand(v object.Value) Operand { return Operand{Kind: ConstantKind, Constant: v} }

// Target creates a program-counter operand for the given edge.
func Target(e *Edge) Operand { return Operand{Kind: PCKind, Edge: e} }

// ReadVector creates an ordered vector of read operands.
func ReadVector(reads []Operand) Operand { return Operand{Kind: ReadVectorKind, Vector: reads} }

// Selector creates a dispatch-bundle reference operand.
func Selector(b *dispatch.Bundle) Operand { return Operand{Kind: SelectorKind, Bundle: b} }

// checkKind verifies the operand matches the declared kind, including the
// element kinds of read vectors.
func (o Operand) checkKind(want OperandKind) error {
	if o.Kind != want {
		return internalf("operand kind %s where %s expected", o.Kind, want)
	}
	if o.Kind == ReadVectorKind {
		for i, e := range o.Vector {
			switch e.Kind {
			case ReadBoxedKind, ReadIntKind, ReadFloatKind:
			default:
				return internalf("read-vector element %d has kind %s", i, e.Kind)
			}
		}
	}
	return nil
}

// registerKindFor maps register operand kinds to their register kind.
func registerKindFor(k OperandKind) (RegisterKind, bool) {
	switch k {
	case ReadBoxedKind, WriteBoxedKind:
		return BoxedKind, true
	case ReadIntKind, WriteIntKind:
		return IntKind, true
	case ReadFloatKind, WriteFloatKind:
		return FloatKind, true
	default:
		return 0, false
	}
}

// IsRead reports whether the operand reads a register (vectors included).
func (o Operand) IsRead() bool {
	switch o.Kind {
	case ReadBoxedKind, ReadIntKind, ReadFloatKind, ReadVectorKind:
		return true
	}
	return false
}

// IsWrite reports whether the operand writes a register.
func (o Operand) IsWrite() bool {
	switch o.Kind {
	case WriteBoxedKind, WriteIntKind, WriteFloatKind:
		return true
	}
	return false
}

func (o Operand) String() string {
	var payload string
	switch o.Kind {
	case ReadBoxedKind, WriteBoxedKind, ReadIntKind, WriteIntKind, ReadFloatKind, WriteFloatKind:
		payload = o.Register.String()
	case IntImmediateKind:
		payload = fmt.Sprintf("#%d", o.IntImm)
	case FloatImmediateKind:
		payload = fmt.Sprintf("#%g", o.FloatImm)
	case ConstantKind:
		payload = o.Constant.String()
	case PCKind:
		payload = o.Edge.Label.String()
	case ReadVectorKind:
		parts := make([]string, len(o.Vector))
		for i, e := range o.Vector {
			parts[i] = e.String()
		}
		payload = "[" + strings.Join(parts, ", ") + "]"
	case SelectorKind:
		payload = fmt.Sprintf("%q", o.Bundle.Name())
	}
	if o.Name != "" {
		return fmt.Sprintf("%s=%s", o.Name, payload)
	}
	return payload
}

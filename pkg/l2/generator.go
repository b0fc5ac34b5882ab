package l2

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chazu/optic/pkg/dispatch"
	"github.com/chazu/optic/pkg/object"
)

// ---------------------------------------------------------------------------
// Generator: builds one unit's instruction graph
// ---------------------------------------------------------------------------
//
// The generator owns everything a single translation needs: the register
// allocator, the current manifest, the growing instruction list, and the
// labels. Every emission helper both appends the instruction and applies its
// manifest effects, so the manifest is always consistent with the stream at
// the point of the next emission. Branch helpers perform branch reduction
// inline: a branch provable at generation time becomes an unconditional jump
// (or nothing at all) and the runtime compare is never emitted.

// Options controls the optimizer's individual strengths. The zero value
// disables everything; DefaultOptions enables everything.
type Options struct {
	// FoldBranches resolves equality/subtype branches whose outcome is
	// statically provable into unconditional jumps.
	FoldBranches bool

	// FoldConstants folds checked arithmetic over known constants.
	FoldConstants bool

	// InlineMonomorphic replaces a dispatch with exactly one provably
	// applicable definition by a constant function, emitting no runtime
	// lookup.
	InlineMonomorphic bool

	// RemoveDeadCode prunes side-effect-free instructions whose written
	// registers are never read.
	RemoveDeadCode bool
}

// DefaultOptions enables every optimization.
func DefaultOptions() Options {
	return Options{
		FoldBranches:      true,
		FoldConstants:     true,
		InlineMonomorphic: true,
		RemoveDeadCode:    true,
	}
}

// Label marks a join point in the instruction stream. Labels collect the
// manifests of their incoming edges; placing the label meets them into the
// manifest the code after the label starts from. The control-flow graph is
// generated forward-only: every edge to a label is created before the label
// is placed.
type Label struct {
	name     string
	pc       int
	placed   bool
	incoming []*Manifest
}

// PlacedLabel creates a label already bound to an instruction index. Used
// when rebuilding a chunk from its serialized form, where every target is
// known up front.
func PlacedLabel(name string, pc int) *Label {
	return &Label{name: name, pc: pc, placed: true}
}

// Name returns the label's diagnostic name.
func (l *Label) Name() string { return l.name }

// PC returns the instruction index of the label, valid once placed.
func (l *Label) PC() int { return l.pc }

func (l *Label) String() string {
	if l.placed {
		return fmt.Sprintf("%s@%d", l.name, l.pc)
	}
	return l.name
}

// Generator accumulates the instructions of one unit under translation.
type Generator struct {
	options      Options
	alloc        RegisterAllocator
	manifest     *Manifest // nil while the current position is unreachable
	instructions []*Instruction
	labels       []*Label
	source       int // L1 offset attributed to emitted instructions
}

// NewGenerator creates a generator with an empty manifest positioned at the
// unit entry.
func NewGenerator(options Options) *Generator {
	return &Generator{options: options, manifest: NewManifest(), source: -1}
}

// Manifest exposes the current manifest for inspection and entry binding.
func (g *Generator) Manifest() *Manifest { return g.manifest }

// SetSource attributes subsequently emitted instructions to an L1 offset.
func (g *Generator) SetSource(offset int) { g.source = offset }

// NewLabel creates an unplaced label.
func (g *Generator) NewLabel(name string) *Label {
	l := &Label{name: name, pc: -1}
	g.labels = append(g.labels, l)
	return l
}

// Reachable reports whether the current position can be reached.
func (g *Generator) Reachable() bool { return g.manifest != nil }

// Place binds a label to the current position. The manifests of all
// incoming edges, plus the fall-through manifest if the position is
// reachable, are met pairwise to form the manifest the following code
// starts from. A label with no way in leaves the position unreachable.
func (g *Generator) Place(l *Label) error {
	if l.placed {
		return internalf("label %s placed twice", l)
	}
	l.placed = true
	l.pc = len(g.instructions)

	incoming := l.incoming
	if g.manifest != nil {
		incoming = append(incoming, g.manifest)
	}
	switch len(incoming) {
	case 0:
		g.manifest = nil
	case 1:
		g.manifest = incoming[0]
	default:
		met := incoming[0]
		for _, m := range incoming[1:] {
			met = met.Meet(m)
		}
		g.manifest = met
	}
	return nil
}

// edgeTo builds an edge carrying the given manifest to a not-yet-placed
// label, registering the manifest for the label's meet.
func (g *Generator) edgeTo(l *Label, purpose EdgePurpose, m *Manifest) (*Edge, error) {
	if l.placed {
		return nil, internalf("edge to already-placed label %s", l)
	}
	l.incoming = append(l.incoming, m)
	return &Edge{Purpose: purpose, Label: l, Manifest: m}, nil
}

// append adds a finished instruction to the stream and updates
// reachability.
func (g *Generator) append(ins *Instruction) {
	ins.Source = g.source
	g.instructions = append(g.instructions, ins)
	if ins.EndsBlock() {
		g.manifest = nil
	}
}

// checkReachable guards every emission helper.
func (g *Generator) checkReachable() error {
	if g.manifest == nil {
		return internalf("emitting into unreachable code")
	}
	return nil
}

// BindEntry registers a semantic value the unit receives on entry (an
// argument or a captured outer) in a fresh boxed register, emitting nothing.
func (g *Generator) BindEntry(v SemanticValue, res TypeRestriction) (Register, error) {
	if err := g.checkReachable(); err != nil {
		return Register{}, err
	}
	r := g.alloc.Allocate(BoxedKind)
	if err := g.manifest.Bind(v, r, res); err != nil {
		return Register{}, err
	}
	return r, nil
}

// ---------------------------------------------------------------------------
// Moves and constants
// ---------------------------------------------------------------------------

// MoveConstant materializes a boxed constant for the given semantic value.
// If the value is already live from a previous materialization of the same
// constant, its register is reused and nothing is emitted.
func (g *Generator) MoveConstant(value object.Value, dest SemanticValue) (Register, error) {
	if err := g.checkReachable(); err != nil {
		return Register{}, err
	}
	if g.manifest.Has(dest) {
		return g.manifest.Read(dest)
	}
	r := g.alloc.Allocate(BoxedKind)
	if err := g.manifest.Bind(dest, r, RestrictionForConstant(value)); err != nil {
		return Register{}, err
	}
	g.append(mustInstruction(OpMoveConstant, ConstantOperand(value), WriteBoxed(r)))
	return r, nil
}

// MoveConstantInt materializes an int32 immediate in an int register.
func (g *Generator) MoveConstantInt(value int64, dest SemanticValue) (Register, error) {
	if err := g.checkReachable(); err != nil {
		return Register{}, err
	}
	if int64(int32(value)) != value {
		return Register{}, internalf("immediate %d exceeds int32 range", value)
	}
	if g.manifest.Has(dest) {
		return g.manifest.Read(dest)
	}
	r := g.alloc.Allocate(IntKind)
	if err := g.manifest.Bind(dest, r, RestrictionForConstant(object.IntValue(value))); err != nil {
		return Register{}, err
	}
	g.append(mustInstruction(OpMoveConstantInt, IntImmediate(value), WriteInt(r)))
	return r, nil
}

// MoveConstantFloat materializes a double immediate in a float register.
func (g *Generator) MoveConstantFloat(value float64, dest SemanticValue) (Register, error) {
	if err := g.checkReachable(); err != nil {
		return Register{}, err
	}
	if g.manifest.Has(dest) {
		return g.manifest.Read(dest)
	}
	r := g.alloc.Allocate(FloatKind)
	if err := g.manifest.Bind(dest, r, RestrictionForConstant(object.FloatValue(value))); err != nil {
		return Register{}, err
	}
	g.append(mustInstruction(OpMoveConstantFloat, FloatImmediate(value), WriteFloat(r)))
	return r, nil
}

// Move copies a boxed value into a fresh register. Synonym binding makes
// most copies free, so this is for the cases where a value genuinely needs
// its own register, carrying the source's restriction along.
func (g *Generator) Move(src, dest SemanticValue) (Register, error) {
	return g.move(OpMove, src, dest, BoxedKind)
}

// MoveInt copies between int registers.
func (g *Generator) MoveInt(src, dest SemanticValue) (Register, error) {
	return g.move(OpMoveInt, src, dest, IntKind)
}

// MoveFloat copies between float registers.
func (g *Generator) MoveFloat(src, dest SemanticValue) (Register, error) {
	return g.move(OpMoveFloat, src, dest, FloatKind)
}

func (g *Generator) move(op Opcode, src, dest SemanticValue, kind RegisterKind) (Register, error) {
	if err := g.checkReachable(); err != nil {
		return Register{}, err
	}
	sr, sres, err := g.readOfKind(src, kind)
	if err != nil {
		return Register{}, err
	}
	r := g.alloc.Allocate(kind)
	if err := g.manifest.Bind(dest, r, sres); err != nil {
		return Register{}, err
	}
	switch kind {
	case BoxedKind:
		g.append(mustInstruction(op, ReadBoxed(sr), WriteBoxed(r)))
	case IntKind:
		g.append(mustInstruction(op, ReadInt(sr), WriteInt(r)))
	case FloatKind:
		g.append(mustInstruction(op, ReadFloat(sr), WriteFloat(r)))
	}
	return r, nil
}

// BoxInt boxes an int-register value into a fresh boxed register.
func (g *Generator) BoxInt(src, dest SemanticValue) (Register, error) {
	if err := g.checkReachable(); err != nil {
		return Register{}, err
	}
	sr, res, err := g.readOfKind(src, IntKind)
	if err != nil {
		return Register{}, err
	}
	r := g.alloc.Allocate(BoxedKind)
	if err := g.manifest.Bind(dest, r, res); err != nil {
		return Register{}, err
	}
	g.append(mustInstruction(OpBoxInt, ReadInt(sr), WriteBoxed(r)))
	return r, nil
}

// BoxFloat boxes a float-register value into a fresh boxed register.
func (g *Generator) BoxFloat(src, dest SemanticValue) (Register, error) {
	if err := g.checkReachable(); err != nil {
		return Register{}, err
	}
	sr, res, err := g.readOfKind(src, FloatKind)
	if err != nil {
		return Register{}, err
	}
	r := g.alloc.Allocate(BoxedKind)
	if err := g.manifest.Bind(dest, r, res); err != nil {
		return Register{}, err
	}
	g.append(mustInstruction(OpBoxFloat, ReadFloat(sr), WriteBoxed(r)))
	return r, nil
}

// UnboxInt extracts an int32 from a boxed value, branching to fail when the
// value is not an integer in range. On the success edge the destination is
// live and the source is known to be an integer.
func (g *Generator) UnboxInt(src, dest SemanticValue, ok, fail *Label) error {
	if err := g.checkReachable(); err != nil {
		return err
	}
	sr, _, err := g.readOfKind(src, BoxedKind)
	if err != nil {
		return err
	}
	r := g.alloc.Allocate(IntKind)

	okManifest := g.manifest.Clone()
	if err := okManifest.IntersectType(src, object.Integer); err != nil {
		return err
	}
	if err := okManifest.Bind(dest, r, RestrictionForType(object.Integer)); err != nil {
		return err
	}
	failManifest := g.manifest.Clone()

	okEdge, err := g.edgeTo(ok, PurposeSuccess, okManifest)
	if err != nil {
		return err
	}
	failEdge, err := g.edgeTo(fail, PurposeFailure, failManifest)
	if err != nil {
		return err
	}
	g.append(mustInstruction(OpUnboxInt, ReadBoxed(sr), WriteInt(r), Target(okEdge), Target(failEdge)))
	return nil
}

// UnboxFloat extracts a double from a boxed value, branching to fail when
// the value is not a float. On the success edge the source is known to be a
// float.
func (g *Generator) UnboxFloat(src, dest SemanticValue, ok, fail *Label) error {
	if err := g.checkReachable(); err != nil {
		return err
	}
	sr, _, err := g.readOfKind(src, BoxedKind)
	if err != nil {
		return err
	}
	r := g.alloc.Allocate(FloatKind)

	okManifest := g.manifest.Clone()
	if err := okManifest.IntersectType(src, object.Float); err != nil {
		return err
	}
	if err := okManifest.Bind(dest, r, RestrictionForType(object.Float)); err != nil {
		return err
	}
	failManifest := g.manifest.Clone()

	okEdge, err := g.edgeTo(ok, PurposeSuccess, okManifest)
	if err != nil {
		return err
	}
	failEdge, err := g.edgeTo(fail, PurposeFailure, failManifest)
	if err != nil {
		return err
	}
	g.append(mustInstruction(OpUnboxFloat, ReadBoxed(sr), WriteFloat(r), Target(okEdge), Target(failEdge)))
	return nil
}

// readOfKind resolves a semantic value to its register and restriction,
// checking the register kind.
func (g *Generator) readOfKind(v SemanticValue, k RegisterKind) (Register, TypeRestriction, error) {
	r, err := g.manifest.Read(v)
	if err != nil {
		return Register{}, TypeRestriction{}, err
	}
	if r.Kind != k {
		return Register{}, TypeRestriction{}, internalf("%s lives in %s register %s, need %s",
			v, r.Kind, r, k)
	}
	res, err := g.manifest.RestrictionOf(v)
	if err != nil {
		return Register{}, TypeRestriction{}, err
	}
	return r, res, nil
}

// ---------------------------------------------------------------------------
// Checked arithmetic
// ---------------------------------------------------------------------------

// AddIntToInt emits a checked 32-bit addition: the sum is computed in the
// widened 64-bit domain, its low 32 bits are written to sum's register on
// both edges, and control continues at inRange iff the widened result
// round-trips through int32. With constant folding enabled and both
// operands known, the branch resolves at generation time.
func (g *Generator) AddIntToInt(augend, addend, sum SemanticValue, inRange, outOfRange *Label) error {
	return g.checkedArithmetic(OpAddIntToInt, augend, addend, sum, inRange, outOfRange,
		func(a, b int64) int64 { return a + b })
}

// SubtractIntFromInt emits a checked 32-bit subtraction with the same
// widened-domain overflow protocol as AddIntToInt.
func (g *Generator) SubtractIntFromInt(minuend, subtrahend, difference SemanticValue, inRange, outOfRange *Label) error {
	return g.checkedArithmetic(OpSubtractIntFromInt, minuend, subtrahend, difference, inRange, outOfRange,
		func(a, b int64) int64 { return a - b })
}

func (g *Generator) checkedArithmetic(op Opcode, left, right, dest SemanticValue, inRange, outOfRange *Label, fn func(a, b int64) int64) error {
	if err := g.checkReachable(); err != nil {
		return err
	}
	lr, lres, err := g.readOfKind(left, IntKind)
	if err != nil {
		return err
	}
	rr, rres, err := g.readOfKind(right, IntKind)
	if err != nil {
		return err
	}

	if g.options.FoldConstants && lres.HasConstant() && rres.HasConstant() {
		a, aok := lres.Constant.(object.IntValue)
		b, bok := rres.Constant.(object.IntValue)
		if aok && bok {
			wide := fn(int64(a), int64(b))
			truncated := int64(int32(wide))
			if _, err := g.MoveConstantInt(truncated, dest); err != nil {
				return err
			}
			if truncated == wide {
				return g.Jump(inRange)
			}
			return g.Jump(outOfRange)
		}
	}

	r := g.alloc.Allocate(IntKind)
	inManifest := g.manifest.Clone()
	if err := inManifest.Bind(dest, r, RestrictionForType(object.Integer)); err != nil {
		return err
	}
	outManifest := g.manifest.Clone()
	if err := outManifest.Bind(dest, r, RestrictionForType(object.Integer)); err != nil {
		return err
	}

	inEdge, err := g.edgeTo(inRange, PurposeSuccess, inManifest)
	if err != nil {
		return err
	}
	outEdge, err := g.edgeTo(outOfRange, PurposeFailure, outManifest)
	if err != nil {
		return err
	}
	g.append(mustInstruction(op, ReadInt(lr), ReadInt(rr), WriteInt(r), Target(inEdge), Target(outEdge)))
	return nil
}

// ---------------------------------------------------------------------------
// Variables
// ---------------------------------------------------------------------------

// CreateVariable allocates a fresh unassigned cell for the given content
// type.
func (g *Generator) CreateVariable(content object.Type, dest SemanticValue) (Register, error) {
	if err := g.checkReachable(); err != nil {
		return Register{}, err
	}
	r := g.alloc.Allocate(BoxedKind)
	cellType := object.NewVariableType(content)
	if err := g.manifest.Bind(dest, r, RestrictionForType(cellType)); err != nil {
		return Register{}, err
	}
	g.append(mustInstruction(OpCreateVariable, ConstantOperand(object.AsValue(content)), WriteBoxed(r)))
	return r, nil
}

// GetVariable reads a cell. On the success edge the destination holds the
// cell's value; on the failure edge the destination was never written.
func (g *Generator) GetVariable(cell, dest SemanticValue, succeeded, failed *Label) error {
	if err := g.checkReachable(); err != nil {
		return err
	}
	cr, cres, err := g.readOfKind(cell, BoxedKind)
	if err != nil {
		return err
	}
	r := g.alloc.Allocate(BoxedKind)

	content := object.Any
	if vt, ok := cres.Type.(*object.VariableType); ok {
		content = vt.Content
	}
	okManifest := g.manifest.Clone()
	if err := okManifest.Bind(dest, r, RestrictionForType(content)); err != nil {
		return err
	}
	failManifest := g.manifest.Clone()

	okEdge, err := g.edgeTo(succeeded, PurposeSuccess, okManifest)
	if err != nil {
		return err
	}
	failEdge, err := g.edgeTo(failed, PurposeFailure, failManifest)
	if err != nil {
		return err
	}
	g.append(mustInstruction(OpGetVariable, ReadBoxed(cr), WriteBoxed(r), Target(okEdge), Target(failEdge)))
	return nil
}

// SetVariable stores a value into a cell.
func (g *Generator) SetVariable(cell, value SemanticValue) error {
	if err := g.checkReachable(); err != nil {
		return err
	}
	cr, _, err := g.readOfKind(cell, BoxedKind)
	if err != nil {
		return err
	}
	vr, _, err := g.readOfKind(value, BoxedKind)
	if err != nil {
		return err
	}
	g.append(mustInstruction(OpSetVariable, ReadBoxed(cr), ReadBoxed(vr)))
	return nil
}

// ClearVariable returns a cell to the unassigned state.
func (g *Generator) ClearVariable(cell SemanticValue) error {
	if err := g.checkReachable(); err != nil {
		return err
	}
	cr, _, err := g.readOfKind(cell, BoxedKind)
	if err != nil {
		return err
	}
	g.append(mustInstruction(OpClearVariable, ReadBoxed(cr)))
	return nil
}

// MakeImmutable freezes a value into a fresh destination register. The
// guaranteed-immutability post-condition attaches to the destination
// only; the source's restriction is copied but deliberately not upgraded.
func (g *Generator) MakeImmutable(src, dest SemanticValue) (Register, error) {
	if err := g.checkReachable(); err != nil {
		return Register{}, err
	}
	sr, sres, err := g.readOfKind(src, BoxedKind)
	if err != nil {
		return Register{}, err
	}
	r := g.alloc.Allocate(BoxedKind)
	if err := g.manifest.Bind(dest, r, sres); err != nil {
		return Register{}, err
	}
	g.append(mustInstruction(OpMakeImmutable, ReadBoxed(sr), WriteBoxed(r)))
	return r, nil
}

// ---------------------------------------------------------------------------
// Control flow
// ---------------------------------------------------------------------------

// Jump transfers control unconditionally.
func (g *Generator) Jump(target *Label) error {
	if err := g.checkReachable(); err != nil {
		return err
	}
	edge, err := g.edgeTo(target, PurposeNone, g.manifest)
	if err != nil {
		return err
	}
	g.append(mustInstruction(OpJump, Target(edge)))
	return nil
}

// JumpIfObjectsEqual branches on semantic equality. Branch reduction: two
// known constants resolve at generation time (no compare emitted); provably
// disjoint static types prove the equal edge never taken. On the equal edge
// both operands' restrictions are intersected and a constant known for
// either side transfers to the other, on that edge only.
func (g *Generator) JumpIfObjectsEqual(first, second SemanticValue, equal, notEqual *Label) error {
	if err := g.checkReachable(); err != nil {
		return err
	}
	fr, fres, err := g.readOfKind(first, BoxedKind)
	if err != nil {
		return err
	}
	sr, sres, err := g.readOfKind(second, BoxedKind)
	if err != nil {
		return err
	}

	if g.options.FoldBranches {
		if fres.HasConstant() && sres.HasConstant() {
			if fres.Constant.Equals(sres.Constant) {
				return g.Jump(equal)
			}
			return g.Jump(notEqual)
		}
		if fres.DisjointFrom(sres) {
			return g.Jump(notEqual)
		}
	}

	equalManifest := g.manifest.Clone()
	if err := equalManifest.IntersectRestriction(first, sres); err != nil {
		return err
	}
	if err := equalManifest.IntersectRestriction(second, fres); err != nil {
		return err
	}
	notEqualManifest := g.manifest.Clone()

	equalEdge, err := g.edgeTo(equal, PurposeSuccess, equalManifest)
	if err != nil {
		return err
	}
	notEqualEdge, err := g.edgeTo(notEqual, PurposeFailure, notEqualManifest)
	if err != nil {
		return err
	}
	g.append(mustInstruction(OpJumpIfObjectsEqual, ReadBoxed(fr), ReadBoxed(sr), Target(equalEdge), Target(notEqualEdge)))
	return nil
}

// JumpIfSubtypeOf branches on instance-of. Branch reduction is symmetric
// here: a statically known subtype proves the test always taken, a bottom
// intersection proves it never taken. On the taken edge the value's type is
// intersected with the target type, on that edge only.
func (g *Generator) JumpIfSubtypeOf(value SemanticValue, t object.Type, isInstance, notInstance *Label) error {
	if err := g.checkReachable(); err != nil {
		return err
	}
	vr, vres, err := g.readOfKind(value, BoxedKind)
	if err != nil {
		return err
	}

	if g.options.FoldBranches {
		if vres.Type.IsSubtypeOf(t) {
			return g.Jump(isInstance)
		}
		if vres.Type.TypeIntersection(t).IsBottom() {
			return g.Jump(notInstance)
		}
	}

	yesManifest := g.manifest.Clone()
	if err := yesManifest.IntersectType(value, t); err != nil {
		return err
	}
	noManifest := g.manifest.Clone()

	yesEdge, err := g.edgeTo(isInstance, PurposeSuccess, yesManifest)
	if err != nil {
		return err
	}
	noEdge, err := g.edgeTo(notInstance, PurposeFailure, noManifest)
	if err != nil {
		return err
	}
	g.append(mustInstruction(OpJumpIfSubtypeOf, ReadBoxed(vr), ConstantOperand(object.AsValue(t)), Target(yesEdge), Target(noEdge)))
	return nil
}

// ---------------------------------------------------------------------------
// Continuations, functions, dispatch
// ---------------------------------------------------------------------------

// GetCurrentContinuation reifies the current execution state into a boxed
// register.
func (g *Generator) GetCurrentContinuation(dest SemanticValue) (Register, error) {
	if err := g.checkReachable(); err != nil {
		return Register{}, err
	}
	r := g.alloc.Allocate(BoxedKind)
	if err := g.manifest.Bind(dest, r, RestrictionForType(object.Continuation)); err != nil {
		return Register{}, err
	}
	g.append(mustInstruction(OpGetCurrentContinuation, WriteBoxed(r)))
	return r, nil
}

// CreateFunction closes the constant code body over the captured outers.
func (g *Generator) CreateFunction(code *object.Function, outers []SemanticValue, dest SemanticValue) (Register, error) {
	if err := g.checkReachable(); err != nil {
		return Register{}, err
	}
	reads := make([]Operand, len(outers))
	for i, o := range outers {
		or, _, err := g.readOfKind(o, BoxedKind)
		if err != nil {
			return Register{}, err
		}
		reads[i] = ReadBoxed(or)
	}
	r := g.alloc.Allocate(BoxedKind)
	if err := g.manifest.Bind(dest, r, RestrictionForType(object.FunctionType)); err != nil {
		return Register{}, err
	}
	g.append(mustInstruction(OpCreateFunction, ConstantOperand(code), ReadVector(reads), WriteBoxed(r)))
	return r, nil
}

// ResolveDispatch runs the static phase of dispatch resolution for a call
// with the given argument semantic values. When exactly one definition is
// applicable and the static bounds prove it must apply, the body function is
// returned and the caller materializes it as a constant: the monomorphic
// fast path, with no runtime lookup. Otherwise the statically applicable
// candidates are returned for the runtime path's result-type bound.
func (g *Generator) ResolveDispatch(bundle *dispatch.Bundle, args []SemanticValue) (*object.Function, []*dispatch.Definition, error) {
	bounds := make([]object.Type, len(args))
	for i, a := range args {
		res, err := g.manifest.RestrictionOf(a)
		if err != nil {
			return nil, nil, err
		}
		bounds[i] = res.Type
	}
	applicable := bundle.DefinitionsApplicableTo(bounds)
	if g.options.InlineMonomorphic && len(applicable) == 1 {
		d := applicable[0]
		if !d.IsAbstract() && !d.IsForward() && d.DefinitelyAcceptsBounds(bounds) {
			return d.BodyFunction(), nil, nil
		}
	}
	return nil, applicable, nil
}

// LookupByValues emits the runtime dispatch path. On the found edge the
// function destination is bounded by the enumeration of the statically
// applicable candidate bodies; on the not-found edge the error-code
// destination holds one of the distinguished lookup failure codes.
func (g *Generator) LookupByValues(bundle *dispatch.Bundle, candidates []*dispatch.Definition,
	args []SemanticValue, fnDest, errDest SemanticValue, found, notFound *Label) error {
	if err := g.checkReachable(); err != nil {
		return err
	}
	reads := make([]Operand, len(args))
	for i, a := range args {
		ar, _, err := g.readOfKind(a, BoxedKind)
		if err != nil {
			return err
		}
		reads[i] = ReadBoxed(ar)
	}
	fnReg := g.alloc.Allocate(BoxedKind)
	errReg := g.alloc.Allocate(IntKind)

	// The found edge's bound on the looked-up function: the enumeration of
	// candidate bodies when all are concrete, the general function type
	// otherwise. Strictly weaker than a constant but still narrowable.
	fnBound := RestrictionForType(object.FunctionType)
	bodies := make([]object.Value, 0, len(candidates))
	concrete := true
	for _, d := range candidates {
		if d.BodyFunction() == nil {
			concrete = false
			break
		}
		bodies = append(bodies, d.BodyFunction())
	}
	if concrete && len(bodies) > 0 {
		fnBound = RestrictionForType(object.NewEnumeration(bodies...))
	}

	foundManifest := g.manifest.Clone()
	if err := foundManifest.Bind(fnDest, fnReg, fnBound); err != nil {
		return err
	}
	notFoundManifest := g.manifest.Clone()
	if err := notFoundManifest.Bind(errDest, errReg, RestrictionForType(object.Integer)); err != nil {
		return err
	}

	foundEdge, err := g.edgeTo(found, PurposeSuccess, foundManifest)
	if err != nil {
		return err
	}
	notFoundEdge, err := g.edgeTo(notFound, PurposeFailure, notFoundManifest)
	if err != nil {
		return err
	}
	g.append(mustInstruction(OpLookupByValues,
		Selector(bundle), ReadVector(reads), WriteBoxed(fnReg), WriteInt(errReg),
		Target(foundEdge), Target(notFoundEdge)))
	return nil
}

// Invoke calls a function value. The result's static bound comes from the
// function's restriction: a constant function pins the declared result
// type, an enumeration unions the candidates' result types.
func (g *Generator) Invoke(fn SemanticValue, args []SemanticValue, dest SemanticValue) (Register, error) {
	if err := g.checkReachable(); err != nil {
		return Register{}, err
	}
	fr, fres, err := g.readOfKind(fn, BoxedKind)
	if err != nil {
		return Register{}, err
	}
	reads := make([]Operand, len(args))
	for i, a := range args {
		ar, _, err := g.readOfKind(a, BoxedKind)
		if err != nil {
			return Register{}, err
		}
		reads[i] = ReadBoxed(ar)
	}

	resultType := object.Any
	if f, ok := fres.Constant.(*object.Function); ok {
		resultType = f.ResultType()
	} else if e, ok := fres.Type.(*object.Enumeration); ok {
		resultType = object.Bottom
		for _, v := range e.Instances() {
			if f, ok := v.(*object.Function); ok {
				resultType = resultType.TypeUnion(f.ResultType())
			} else {
				resultType = object.Any
				break
			}
		}
	}

	r := g.alloc.Allocate(BoxedKind)
	if err := g.manifest.Bind(dest, r, RestrictionForType(resultType)); err != nil {
		return Register{}, err
	}
	g.append(mustInstruction(OpInvoke, ReadBoxed(fr), ReadVector(reads), WriteBoxed(r)))
	return r, nil
}

// Fail terminates the unit reporting the failure code held in an int
// register.
func (g *Generator) Fail(code SemanticValue) error {
	if err := g.checkReachable(); err != nil {
		return err
	}
	cr, _, err := g.readOfKind(code, IntKind)
	if err != nil {
		return err
	}
	g.append(mustInstruction(OpFail, ReadInt(cr)))
	return nil
}

// Return terminates the unit with a result.
func (g *Generator) Return(value SemanticValue) error {
	if err := g.checkReachable(); err != nil {
		return err
	}
	vr, _, err := g.readOfKind(value, BoxedKind)
	if err != nil {
		return err
	}
	g.append(mustInstruction(OpReturn, ReadBoxed(vr)))
	return nil
}

// ---------------------------------------------------------------------------
// Finishing
// ---------------------------------------------------------------------------

// Finish seals the unit: runs dead-code elimination if enabled, verifies
// every referenced label was placed, and produces the immutable chunk.
func (g *Generator) Finish(name string, numArgs, numOuters int) (*Chunk, error) {
	if g.manifest != nil {
		return nil, internalf("unit %q ends in reachable code with no exit", name)
	}
	for _, l := range g.labels {
		if !l.placed && len(l.incoming) > 0 {
			return nil, internalf("unit %q jumps to unplaced label %s", name, l)
		}
	}

	instructions := g.instructions
	if g.options.RemoveDeadCode {
		instructions = removeDeadCode(instructions, g.labels)
	}

	boxed, ints, floats := g.alloc.Counts()
	return &Chunk{
		Name:         name,
		UnitID:       uuid.New(),
		Instructions: instructions,
		NumArgs:      numArgs,
		NumOuters:    numOuters,
		NumBoxed:     boxed,
		NumInt:       ints,
		NumFloat:     floats,
	}, nil
}

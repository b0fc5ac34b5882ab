package l2

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"github.com/chazu/optic/pkg/dispatch"
	"github.com/chazu/optic/pkg/l1"
	"github.com/chazu/optic/pkg/object"
)

var log = commonlog.GetLogger("optic.l2")

// ErrUntranslatable marks defects in the input program itself: references to
// bundles the dispatch table has never heard of, reads of never-assigned
// locals, arity mismatches. Distinct from ErrInternal, which marks bugs in
// the translator.
var ErrUntranslatable = errors.New("untranslatable program")

func untranslatable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUntranslatable, fmt.Sprintf(format, args...))
}

// Translate converts one validated level-one chunk into an optimized
// level-two chunk against a snapshot of the dispatch table.
//
// The translator simulates the level-one operand stack symbolically: each
// stack entry is a semantic value, and the manifest decides which values
// already live in registers. Pushing a literal that was pushed before costs
// nothing; storing to a local is a synonym binding, not a move. Calls go
// through static dispatch resolution first, so a provably monomorphic call
// site invokes its one definition as a constant with no runtime lookup.
func Translate(src *l1.Chunk, table *dispatch.Table, opts Options) (*Chunk, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUntranslatable, err)
	}
	instructions, err := l1.Decode(src.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUntranslatable, err)
	}

	tr := &translator{
		src:   src,
		table: table,
		opts:  opts,
		gen:   NewGenerator(opts),
	}
	if err := tr.bindEntry(); err != nil {
		return nil, err
	}
	for _, ins := range instructions {
		tr.gen.SetSource(ins.Offset)
		if err := tr.step(ins); err != nil {
			return nil, fmt.Errorf("chunk %q at offset %d: %w", src.Name, ins.Offset, err)
		}
	}

	out, err := tr.gen.Finish(src.Name, src.NumArgs(), src.NumOuters)
	if err != nil {
		return nil, err
	}
	log.Debugf("translated %q: %d L1 instructions -> %d L2 instructions, %d inlined dispatches",
		src.Name, len(instructions), len(out.Instructions), tr.inlined)
	return out, nil
}

type translator struct {
	src   *l1.Chunk
	table *dispatch.Table
	opts  Options
	gen   *Generator

	stack   []SemanticValue
	temps   int
	inlined int
}

// bindEntry registers arguments and captured outers in the first boxed
// registers, restricted to their declared types.
func (tr *translator) bindEntry() error {
	for i, t := range tr.src.ParamTypes {
		if _, err := tr.gen.BindEntry(Argument(i), RestrictionForType(t)); err != nil {
			return err
		}
	}
	for i := 0; i < tr.src.NumOuters; i++ {
		if _, err := tr.gen.BindEntry(Outer(i), AnyRestriction()); err != nil {
			return err
		}
	}
	return nil
}

func (tr *translator) push(v SemanticValue) { tr.stack = append(tr.stack, v) }

// pop rejects underflow even though Validate already enforces stack
// discipline: a malformed chunk must produce an error, never a panic.
func (tr *translator) pop() (SemanticValue, error) {
	if len(tr.stack) == 0 {
		return SemanticValue{}, untranslatable("operand stack underflow")
	}
	v := tr.stack[len(tr.stack)-1]
	tr.stack = tr.stack[:len(tr.stack)-1]
	return v, nil
}

func (tr *translator) temp() SemanticValue {
	tr.temps++
	return Temp(tr.temps - 1)
}

func (tr *translator) step(ins l1.Instruction) error {
	switch ins.Op {
	case l1.OpPushLiteral:
		sem := ConstantValue(ins.Operands[0])
		if _, err := tr.gen.MoveConstant(tr.src.Literals[ins.Operands[0]], sem); err != nil {
			return err
		}
		tr.push(sem)
		return nil

	case l1.OpPushLocal:
		slot := ins.Operands[0]
		var sem SemanticValue
		if slot < tr.src.NumArgs() {
			sem = Argument(slot)
		} else {
			sem = Local(slot - tr.src.NumArgs())
		}
		if !tr.gen.Manifest().Has(sem) {
			return untranslatable("local slot %d read before assignment", slot)
		}
		tr.push(sem)
		return nil

	case l1.OpSetLocal:
		local := Local(ins.Operands[0] - tr.src.NumArgs())
		top, err := tr.pop()
		if err != nil {
			return err
		}
		tr.gen.Manifest().Unbind(local)
		return tr.gen.Manifest().BindSynonym(top, local)

	case l1.OpPushOuter:
		tr.push(Outer(ins.Operands[0]))
		return nil

	case l1.OpGetVariable:
		return tr.getVariable()

	case l1.OpSetVariable:
		value, err := tr.pop()
		if err != nil {
			return err
		}
		cell, err := tr.pop()
		if err != nil {
			return err
		}
		return tr.gen.SetVariable(cell, value)

	case l1.OpCall:
		return tr.call(tr.src.Bundles[ins.Operands[0]], ins.Operands[1])

	case l1.OpClose:
		return tr.close(tr.src.Functions[ins.Operands[0]], ins.Operands[1])

	case l1.OpPop:
		_, err := tr.pop()
		return err

	case l1.OpDup:
		if len(tr.stack) == 0 {
			return untranslatable("operand stack underflow")
		}
		tr.push(tr.stack[len(tr.stack)-1])
		return nil

	case l1.OpReturn:
		top, err := tr.pop()
		if err != nil {
			return err
		}
		return tr.gen.Return(top)

	default:
		return untranslatable("opcode %s", ins.Op)
	}
}

// getVariable lowers a cell read: the failure edge becomes a unit-failure
// epilogue reporting the unassigned-variable code.
func (tr *translator) getVariable() error {
	cell, err := tr.pop()
	if err != nil {
		return err
	}
	dest := tr.temp()
	ok := tr.gen.NewLabel("var-assigned")
	fail := tr.gen.NewLabel("var-unassigned")
	if err := tr.gen.GetVariable(cell, dest, ok, fail); err != nil {
		return err
	}
	if err := tr.gen.Place(fail); err != nil {
		return err
	}
	code := tr.temp()
	if _, err := tr.gen.MoveConstantInt(FailUnassignedVariable, code); err != nil {
		return err
	}
	if err := tr.gen.Fail(code); err != nil {
		return err
	}
	if err := tr.gen.Place(ok); err != nil {
		return err
	}
	tr.push(dest)
	return nil
}

// call lowers a dispatch site. Static resolution first: a provably
// monomorphic site materializes its one body as a constant and invokes it
// directly; anything weaker emits the runtime lookup, whose failure edge
// fails the unit with the lookup's error code.
func (tr *translator) call(name string, argc int) error {
	bundle := tr.table.Bundle(name)
	if bundle == nil {
		return untranslatable("call to unknown bundle %q", name)
	}
	if bundle.Arity() != argc {
		return untranslatable("bundle %q takes %d arguments, called with %d",
			name, bundle.Arity(), argc)
	}

	args := make([]SemanticValue, argc)
	for i := argc - 1; i >= 0; i-- {
		arg, err := tr.pop()
		if err != nil {
			return err
		}
		args[i] = arg
	}

	body, candidates, err := tr.gen.ResolveDispatch(bundle, args)
	if err != nil {
		return err
	}
	result := tr.temp()
	if body != nil {
		tr.inlined++
		log.Debugf("monomorphic call to %q in %q resolves to %s", name, tr.src.Name, body)
		fn := tr.temp()
		if _, err := tr.gen.MoveConstant(body, fn); err != nil {
			return err
		}
		if _, err := tr.gen.Invoke(fn, args, result); err != nil {
			return err
		}
		tr.push(result)
		return nil
	}

	fn := tr.temp()
	errCode := tr.temp()
	found := tr.gen.NewLabel("found")
	notFound := tr.gen.NewLabel("lookup-failed")
	if err := tr.gen.LookupByValues(bundle, candidates, args, fn, errCode, found, notFound); err != nil {
		return err
	}
	if err := tr.gen.Place(notFound); err != nil {
		return err
	}
	if err := tr.gen.Fail(errCode); err != nil {
		return err
	}
	if err := tr.gen.Place(found); err != nil {
		return err
	}
	if _, err := tr.gen.Invoke(fn, args, result); err != nil {
		return err
	}
	tr.push(result)
	return nil
}

// close lowers function creation: captured values are frozen, the nested
// chunk is translated recursively, and the closure is built over the frozen
// captures.
func (tr *translator) close(nested *l1.Chunk, captures int) error {
	outers := make([]SemanticValue, captures)
	for i := captures - 1; i >= 0; i-- {
		captured, err := tr.pop()
		if err != nil {
			return err
		}
		frozen := tr.temp()
		if _, err := tr.gen.MakeImmutable(captured, frozen); err != nil {
			return err
		}
		outers[i] = frozen
	}

	code, err := Translate(nested, tr.table, tr.opts)
	if err != nil {
		return err
	}
	fnConst := object.NewFunction(nested.Name, object.Any, code)

	dest := tr.temp()
	if _, err := tr.gen.CreateFunction(fnConst, outers, dest); err != nil {
		return err
	}
	tr.push(dest)
	return nil
}

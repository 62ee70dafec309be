package lower

import (
	"fmt"

	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/ir"
	"github.com/corrosion-lang/corrosion/internal/modules"
	"github.com/corrosion-lang/corrosion/internal/token"
)

// unitBuilder accumulates one unit's CFG: blocks, a register counter, and
// the lexical scope stack mapping names to registers. A nested closure gets
// its own builder whose parent pointer is the enclosing unit; names resolved
// through the parent chain become captures.
type unitBuilder struct {
	lw     *lowerer
	mod    *modules.Module
	unit   *ir.Unit
	parent *unitBuilder

	scopes   []map[string]ir.Reg
	captured map[string]ir.Reg

	cur      int
	sealed   []bool
	loops    []loopFrame
	closures int
}

// loopFrame records the jump targets of one enclosing while loop.
type loopFrame struct {
	cond int
	exit int
}

// newUnitBuilder opens a unit with its parameter frame. Registers
// 0..len(params)-1 hold the parameters; captures are appended to the frame
// as the body discovers them.
func newUnitBuilder(lw *lowerer, mod *modules.Module, name string, params []*ast.Identifier, parent *unitBuilder) *unitBuilder {
	b := &unitBuilder{
		lw:       lw,
		mod:      mod,
		unit:     &ir.Unit{Name: name, Module: mod.Path},
		parent:   parent,
		captured: make(map[string]ir.Reg),
		scopes:   []map[string]ir.Reg{make(map[string]ir.Reg)},
	}
	b.unit.Blocks = []*ir.Block{{}}
	b.sealed = []bool{false}
	for _, p := range params {
		b.unit.Params = append(b.unit.Params, p.Value)
		b.scopes[0][p.Value] = b.newReg()
	}
	return b
}

func (b *unitBuilder) newReg() ir.Reg {
	r := ir.Reg(b.unit.NumRegs)
	b.unit.NumRegs++
	return r
}

func (b *unitBuilder) newBlock() int {
	b.unit.Blocks = append(b.unit.Blocks, &ir.Block{})
	b.sealed = append(b.sealed, false)
	return len(b.unit.Blocks) - 1
}

func (b *unitBuilder) block() *ir.Block { return b.unit.Blocks[b.cur] }

func (b *unitBuilder) emit(ins ir.Instruction) {
	b.block().Instrs = append(b.block().Instrs, ins)
}

func (b *unitBuilder) emitAt(tok token.Token, ins ir.Instruction) ir.Reg {
	ins.Line, ins.Column = tok.Line, tok.Column
	b.emit(ins)
	return ins.Dst
}

// terminate seals the current block. A block already sealed by return or
// break keeps its first terminator; the extra one is dropped.
func (b *unitBuilder) terminate(t ir.Terminator) {
	if b.sealed[b.cur] {
		return
	}
	b.block().Term = t
	b.sealed[b.cur] = true
}

func (b *unitBuilder) switchTo(idx int) { b.cur = idx }

// jumpTo seals the current block with a jump and moves to the target.
func (b *unitBuilder) jumpTo(idx int) {
	b.terminate(ir.Terminator{Kind: ir.TermJump, Then: idx})
	b.cur = idx
}

// finishRet seals the final block with a return of val (nil when RegNone).
func (b *unitBuilder) finishRet(val ir.Reg) {
	if !b.sealed[b.cur] {
		if val == ir.RegNone {
			val = b.emitAt(token.Token{}, ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.NilConst()})
		}
		b.terminate(ir.Terminator{Kind: ir.TermRet, Val: val})
	}
	b.seal()
}

// seal finalizes every block: unsealed blocks (created but never reached,
// e.g. after a trailing return) get a trivial return.
func (b *unitBuilder) seal() {
	for i, blk := range b.unit.Blocks {
		if !b.sealed[i] {
			blk.Term = ir.Terminator{Kind: ir.TermRet, Val: ir.RegNone}
			b.sealed[i] = true
		}
	}
}

func (b *unitBuilder) pushScope() { b.scopes = append(b.scopes, make(map[string]ir.Reg)) }
func (b *unitBuilder) popScope()  { b.scopes = b.scopes[:len(b.scopes)-1] }

// define binds a name to a fresh register in the innermost scope.
func (b *unitBuilder) define(name string) ir.Reg {
	r := b.newReg()
	b.scopes[len(b.scopes)-1][name] = r
	return r
}

// lookupLocal resolves a name against this unit's scope stack only.
func (b *unitBuilder) lookupLocal(name string) (ir.Reg, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if r, ok := b.scopes[i][name]; ok {
			return r, true
		}
	}
	if r, ok := b.captured[name]; ok {
		return r, true
	}
	return ir.RegNone, false
}

// capture pulls a name out of the enclosing unit into this one's capture
// frame. The enclosing builder materializes the value at closure creation.
func (b *unitBuilder) capture(name string) ir.Reg {
	r := b.newReg()
	b.captured[name] = r
	b.unit.Captures = append(b.unit.Captures, name)
	return r
}

// lowerClosure builds the unit for a function literal (or local fn) and
// emits the MakeClosure that materializes it, passing the captured values
// from this unit's registers.
func (b *unitBuilder) lowerClosure(tok token.Token, params []*ast.Identifier, body *ast.BlockExpression) ir.Reg {
	b.closures++
	name := fmt.Sprintf("%s.$fn%d", b.unit.Name, b.closures)

	nested := newUnitBuilder(b.lw, b.mod, name, params, b)
	for _, free := range freeNames(params, body) {
		if _, local := nested.lookupLocal(free); local {
			continue
		}
		if _, ok := b.lookupLocal(free); ok {
			nested.capture(free)
			continue
		}
		// A free name the enclosing unit cannot see resolves as a module
		// global inside the nested body.
	}
	val := nested.lowerBlockBody(body)
	nested.finishRet(val)
	b.lw.addUnit(nested.unit)

	args := make([]ir.Reg, 0, len(nested.unit.Captures))
	for _, capName := range nested.unit.Captures {
		src, ok := b.lookupLocal(capName)
		if !ok {
			// lookupLocal succeeded during capture planning; keep the
			// frame aligned regardless.
			src = b.emitAt(tok, ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.NilConst()})
		}
		args = append(args, src)
	}
	return b.emitAt(tok, ir.Instruction{
		Op:   ir.OpMakeClosure,
		Dst:  b.newReg(),
		Sym:  name,
		Args: args,
	})
}

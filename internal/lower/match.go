package lower

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/ir"
	"github.com/corrosion-lang/corrosion/internal/patterns"
	"github.com/corrosion-lang/corrosion/internal/symbols"
)

// lowerMatch compiles the arms to a decision tree and emits it as a branch
// network. Every reached arm body jumps to one join block whose phi merges
// the arm values into the match expression's result.
func (b *unitBuilder) lowerMatch(me *ast.MatchExpression) ir.Reg {
	scrutinee := b.lowerExpression(me.Scrutinee)
	shape := b.lw.set.KnownShapes[me.Scrutinee]

	compiled, diags := patterns.Compile(me, shape, func(name string) (*symbols.StructShape, bool) {
		return b.mod.SymbolTable.LookupStruct(name)
	})
	for _, d := range diags {
		if d.Module == "" {
			d.Module = b.mod.Path
		}
	}
	b.lw.diags = append(b.lw.diags, diags...)

	m := &matchEmitter{
		b:         b,
		match:     me,
		root:      scrutinee,
		join:      b.newBlock(),
		projected: map[string]ir.Reg{patterns.Path{}.String(): scrutinee},
	}
	m.emitNode(compiled.Tree)

	b.switchTo(m.join)
	if len(m.incoming) == 0 {
		// Every path fails; the phi would be empty.
		return b.emitAt(me.Token, ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.NilConst()})
	}
	regs := make([]ir.Reg, len(m.incoming))
	blocks := make([]int, len(m.incoming))
	for i, in := range m.incoming {
		regs[i] = in.val
		blocks[i] = in.block
	}
	return b.emitAt(me.Token, ir.Instruction{Op: ir.OpPhi, Dst: b.newReg(), Args: regs, Blocks: blocks})
}

type matchEmitter struct {
	b         *unitBuilder
	match     *ast.MatchExpression
	root      ir.Reg
	join      int
	projected map[string]ir.Reg
	incoming  []matchEdge
}

type matchEdge struct {
	block int
	val   ir.Reg
}

// project walks a path from the scrutinee, reusing loads already emitted.
// Field loads are nil-safe: the decision tree tests shapes before
// descending, but optional fields may legitimately hold nil.
func (m *matchEmitter) project(p patterns.Path) ir.Reg {
	key := p.String()
	if reg, ok := m.projected[key]; ok {
		return reg
	}
	parent := m.project(p[:len(p)-1])
	reg := m.b.emitAt(m.match.Token, ir.Instruction{
		Op: ir.OpFieldLoad, Dst: m.b.newReg(), Sym: p[len(p)-1], Safe: true, Args: []ir.Reg{parent},
	})
	m.projected[key] = reg
	return reg
}

func (m *matchEmitter) emitNode(node patterns.Node) {
	switch n := node.(type) {
	case *patterns.Fail:
		m.b.terminate(ir.Terminator{
			Kind: ir.TermMatchFail,
			Line: m.match.Token.Line, Column: m.match.Token.Column,
		})
	case *patterns.Leaf:
		m.emitArm(n.Arm, n.Bindings)
	case *patterns.Guard:
		m.emitGuard(n)
	case *patterns.Switch:
		m.emitSwitch(n)
	}
}

// emitArm binds the leaf's names, runs the arm body and routes the value to
// the join block.
func (m *matchEmitter) emitArm(arm int, bindings []patterns.Binding) {
	b := m.b
	b.pushScope()
	for _, bind := range bindings {
		val := m.project(bind.Path)
		dst := b.define(bind.Name)
		b.emitAt(m.match.Arms[arm].GetToken(), ir.Instruction{Op: ir.OpMove, Dst: dst, Args: []ir.Reg{val}})
	}
	val := b.lowerExpression(m.match.Arms[arm].Body)
	b.popScope()
	m.incoming = append(m.incoming, matchEdge{block: b.cur, val: val})
	b.terminate(ir.Terminator{Kind: ir.TermJump, Then: m.join})
}

func (m *matchEmitter) emitGuard(g *patterns.Guard) {
	b := m.b
	b.pushScope()
	for _, bind := range g.Bindings {
		val := m.project(bind.Path)
		dst := b.define(bind.Name)
		b.emitAt(m.match.Arms[g.Arm].GetToken(), ir.Instruction{Op: ir.OpMove, Dst: dst, Args: []ir.Reg{val}})
	}
	cond := b.lowerExpression(m.match.Arms[g.Arm].Guard)

	bodyBlk := b.newBlock()
	otherBlk := b.newBlock()
	b.terminate(ir.Terminator{Kind: ir.TermBranch, Cond: cond, Then: bodyBlk, Else: otherBlk})

	b.switchTo(bodyBlk)
	val := b.lowerExpression(m.match.Arms[g.Arm].Body)
	b.popScope()
	m.incoming = append(m.incoming, matchEdge{block: b.cur, val: val})
	b.terminate(ir.Terminator{Kind: ir.TermJump, Then: m.join})

	b.switchTo(otherBlk)
	m.emitNode(g.Otherwise)
}

// emitSwitch tests the projected value against each case in order; the
// chain's last branch goes to the default (or a match failure when the
// cases are provably complete but a test still falls through at run time).
func (m *matchEmitter) emitSwitch(s *patterns.Switch) {
	b := m.b
	val := m.project(s.Path)

	for _, c := range s.Cases {
		var cond ir.Reg
		switch {
		case c.Shape != "":
			sym := c.Shape
			if sh, ok := b.mod.SymbolTable.LookupStruct(c.Shape); ok {
				sym = sh.Module + "." + sh.Name
			}
			cond = b.emitAt(m.match.Token, ir.Instruction{
				Op: ir.OpShapeTest, Dst: b.newReg(), Sym: sym, Args: []ir.Reg{val},
			})
		case c.Lit.Kind == patterns.LitNil:
			cond = b.emitAt(m.match.Token, ir.Instruction{
				Op: ir.OpNilTest, Dst: b.newReg(), Args: []ir.Reg{val},
			})
		default:
			cond = b.emitAt(m.match.Token, ir.Instruction{
				Op: ir.OpLitTest, Dst: b.newReg(), Const: litConstant(*c.Lit), Args: []ir.Reg{val},
			})
		}

		caseBlk := b.newBlock()
		nextBlk := b.newBlock()
		b.terminate(ir.Terminator{Kind: ir.TermBranch, Cond: cond, Then: caseBlk, Else: nextBlk})

		saved := m.snapshot()
		b.switchTo(caseBlk)
		m.emitNode(c.Body)
		m.restore(saved)

		b.switchTo(nextBlk)
	}

	if s.Default != nil {
		m.emitNode(s.Default)
		return
	}
	b.terminate(ir.Terminator{
		Kind: ir.TermMatchFail,
		Line: m.match.Token.Line, Column: m.match.Token.Column,
	})
}

// snapshot/restore keep projection reuse branch-local: a load emitted inside
// one case's blocks does not dominate its siblings.
func (m *matchEmitter) snapshot() map[string]ir.Reg {
	saved := make(map[string]ir.Reg, len(m.projected))
	for k, v := range m.projected {
		saved[k] = v
	}
	return saved
}

func (m *matchEmitter) restore(saved map[string]ir.Reg) {
	m.projected = saved
}

func litConstant(v patterns.LitValue) ir.Constant {
	switch v.Kind {
	case patterns.LitInt:
		return ir.IntConst(v.Int)
	case patterns.LitFloat:
		return ir.FloatConst(v.Float)
	case patterns.LitString:
		return ir.StringConst(v.Str)
	case patterns.LitBool:
		return ir.BoolConst(v.Bool)
	}
	return ir.NilConst()
}

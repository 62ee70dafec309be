package lower

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/ir"
	"github.com/corrosion-lang/corrosion/internal/symbols"
)

// isInit reports whether this builder emits a module's top-level unit, where
// declarations bind module globals instead of registers.
func (b *unitBuilder) isInit() bool {
	return b.parent == nil && len(b.scopes) == 1 && b.unit.Name == b.mod.Path+InitUnitSuffix
}

func (b *unitBuilder) lowerStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		b.lowerVarDeclaration(s)
	case *ast.AssignStatement:
		b.lowerAssign(s)
	case *ast.FunctionDeclaration:
		// A local fn binds a closure value, same as let f = fn(...){...}.
		val := b.lowerClosure(s.GetToken(), s.Params, s.Body)
		dst := b.define(s.Name.Value)
		b.emitAt(s.GetToken(), ir.Instruction{Op: ir.OpMove, Dst: dst, Args: []ir.Reg{val}})
	case *ast.ExpressionStatement:
		b.lowerExpression(s.Expression)
	case *ast.ReturnStatement:
		val := ir.RegNone
		if s.Value != nil {
			val = b.lowerExpression(s.Value)
		} else {
			val = b.emitAt(s.GetToken(), ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.NilConst()})
		}
		b.terminate(ir.Terminator{Kind: ir.TermRet, Val: val, Line: s.Token.Line, Column: s.Token.Column})
		b.switchTo(b.newBlock())
	case *ast.WhileStatement:
		b.lowerWhile(s)
	case *ast.BreakStatement:
		if len(b.loops) > 0 {
			b.terminate(ir.Terminator{Kind: ir.TermJump, Then: b.loops[len(b.loops)-1].exit})
			b.switchTo(b.newBlock())
		}
	case *ast.ContinueStatement:
		if len(b.loops) > 0 {
			b.terminate(ir.Terminator{Kind: ir.TermJump, Then: b.loops[len(b.loops)-1].cond})
			b.switchTo(b.newBlock())
		}
	}
}

func (b *unitBuilder) lowerVarDeclaration(vd *ast.VarDeclaration) {
	var val ir.Reg
	if vd.Value != nil {
		val = b.lowerExpression(vd.Value)
	} else {
		val = b.emitAt(vd.GetToken(), ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.NilConst()})
	}
	if b.isInit() {
		b.emitAt(vd.GetToken(), ir.Instruction{
			Op:   ir.OpSetGlobal,
			Dst:  ir.RegNone,
			Sym:  unitName(b.mod.Path, vd.Name.Value),
			Args: []ir.Reg{val},
		})
		return
	}
	dst := b.define(vd.Name.Value)
	b.emitAt(vd.GetToken(), ir.Instruction{Op: ir.OpMove, Dst: dst, Args: []ir.Reg{val}})
}

func (b *unitBuilder) lowerAssign(as *ast.AssignStatement) {
	val := b.lowerExpression(as.Value)
	if reg, ok := b.lookupLocal(as.Target.Value); ok {
		b.emitAt(as.GetToken(), ir.Instruction{Op: ir.OpMove, Dst: reg, Args: []ir.Reg{val}})
		return
	}
	// Module-level var; the resolver already rejected everything else.
	origin := b.mod.Path
	if sym, ok := b.lw.set.Resolution[as.Target]; ok {
		origin = sym.OriginModule
	}
	b.emitAt(as.GetToken(), ir.Instruction{
		Op:   ir.OpSetGlobal,
		Dst:  ir.RegNone,
		Sym:  unitName(origin, as.Target.Value),
		Args: []ir.Reg{val},
	})
}

func (b *unitBuilder) lowerWhile(ws *ast.WhileStatement) {
	condBlk := b.newBlock()
	bodyBlk := b.newBlock()
	exitBlk := b.newBlock()

	b.jumpTo(condBlk)
	cond := b.lowerExpression(ws.Condition)
	b.terminate(ir.Terminator{
		Kind: ir.TermBranch, Cond: cond, Then: bodyBlk, Else: exitBlk,
		Line: ws.Token.Line, Column: ws.Token.Column,
	})

	b.loops = append(b.loops, loopFrame{cond: condBlk, exit: exitBlk})
	b.switchTo(bodyBlk)
	b.pushScope()
	for _, stmt := range ws.Body.Statements {
		b.lowerStatement(stmt)
	}
	b.popScope()
	b.terminate(ir.Terminator{Kind: ir.TermJump, Then: condBlk})
	b.loops = b.loops[:len(b.loops)-1]

	b.switchTo(exitBlk)
}

// lowerBlockBody lowers a function body without opening an extra scope (the
// parameter scope is the body scope). The value is the final expression
// statement's value, nil otherwise.
func (b *unitBuilder) lowerBlockBody(block *ast.BlockExpression) ir.Reg {
	return b.lowerStatements(block.Statements)
}

func (b *unitBuilder) lowerStatements(stmts []ast.Statement) ir.Reg {
	val := ir.RegNone
	for i, stmt := range stmts {
		if es, ok := stmt.(*ast.ExpressionStatement); ok && i == len(stmts)-1 {
			val = b.lowerExpression(es.Expression)
			continue
		}
		b.lowerStatement(stmt)
		val = ir.RegNone
	}
	return val
}

// globalRef reads a resolved non-local symbol as a value.
func (b *unitBuilder) globalRef(id *ast.Identifier, sym symbols.Symbol, found bool) ir.Reg {
	tok := id.GetToken()
	if found {
		switch sym.Kind {
		case symbols.FunctionSymbol:
			return b.emitAt(tok, ir.Instruction{
				Op:  ir.OpMakeClosure,
				Dst: b.newReg(),
				Sym: unitName(sym.OriginModule, sym.Name),
			})
		case symbols.BuiltinSymbol:
			return b.emitAt(tok, ir.Instruction{Op: ir.OpGlobal, Dst: b.newReg(), Sym: sym.Name})
		case symbols.VariableSymbol:
			return b.emitAt(tok, ir.Instruction{
				Op:  ir.OpGlobal,
				Dst: b.newReg(),
				Sym: unitName(sym.OriginModule, sym.Name),
			})
		}
	}
	// Module aliases, struct and trait names have no run-time value of
	// their own; they lower to nil in value position.
	return b.emitAt(tok, ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.NilConst()})
}

package lower

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/ir"
	"github.com/corrosion-lang/corrosion/internal/symbols"
)

func (b *unitBuilder) lowerExpression(expr ast.Expression) ir.Reg {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return b.emitAt(e.Token, ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.IntConst(e.Value)})
	case *ast.FloatLiteral:
		return b.emitAt(e.Token, ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.FloatConst(e.Value)})
	case *ast.StringLiteral:
		return b.emitAt(e.Token, ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.StringConst(e.Value)})
	case *ast.BooleanLiteral:
		return b.emitAt(e.Token, ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.BoolConst(e.Value)})
	case *ast.NilLiteral:
		return b.emitAt(e.Token, ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.NilConst()})
	case *ast.Identifier:
		return b.lowerIdentifier(e)
	case *ast.PrefixExpression:
		operand := b.lowerExpression(e.Right)
		return b.emitAt(e.Token, ir.Instruction{Op: ir.OpUnOp, Dst: b.newReg(), Sym: e.Operator, Args: []ir.Reg{operand}})
	case *ast.InfixExpression:
		return b.lowerInfix(e)
	case *ast.PipeExpression:
		return b.lowerPipe(e)
	case *ast.CallExpression:
		return b.lowerCall(e)
	case *ast.MemberExpression:
		return b.lowerMember(e)
	case *ast.StructLiteral:
		return b.lowerStructLiteral(e)
	case *ast.IfExpression:
		return b.lowerIf(e)
	case *ast.MatchExpression:
		return b.lowerMatch(e)
	case *ast.BlockExpression:
		b.pushScope()
		val := b.lowerStatements(e.Statements)
		b.popScope()
		if val == ir.RegNone {
			val = b.emitAt(e.Token, ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.NilConst()})
		}
		return val
	case *ast.FunctionLiteral:
		return b.lowerClosure(e.Token, e.Params, e.Body)
	}
	return b.emitAt(expr.GetToken(), ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.NilConst()})
}

func (b *unitBuilder) lowerIdentifier(id *ast.Identifier) ir.Reg {
	if reg, ok := b.lookupLocal(id.Value); ok {
		return reg
	}
	sym, found := b.lw.set.Resolution[id]
	return b.globalRef(id, sym, found)
}

// lowerInfix emits a binary operation. and/or short-circuit: the right
// operand is evaluated only when the left does not decide the result.
func (b *unitBuilder) lowerInfix(e *ast.InfixExpression) ir.Reg {
	if e.Operator == "and" || e.Operator == "or" {
		return b.lowerShortCircuit(e)
	}
	left := b.lowerExpression(e.Left)
	right := b.lowerExpression(e.Right)
	return b.emitAt(e.Token, ir.Instruction{
		Op: ir.OpBinOp, Dst: b.newReg(), Sym: e.Operator, Args: []ir.Reg{left, right},
	})
}

func (b *unitBuilder) lowerShortCircuit(e *ast.InfixExpression) ir.Reg {
	left := b.lowerExpression(e.Left)
	leftBlk := b.cur
	rightBlk := b.newBlock()
	joinBlk := b.newBlock()

	if e.Operator == "and" {
		b.terminate(ir.Terminator{Kind: ir.TermBranch, Cond: left, Then: rightBlk, Else: joinBlk})
	} else {
		b.terminate(ir.Terminator{Kind: ir.TermBranch, Cond: left, Then: joinBlk, Else: rightBlk})
	}

	b.switchTo(rightBlk)
	right := b.lowerExpression(e.Right)
	rightEnd := b.cur
	b.terminate(ir.Terminator{Kind: ir.TermJump, Then: joinBlk})

	b.switchTo(joinBlk)
	return b.emitAt(e.Token, ir.Instruction{
		Op:     ir.OpPhi,
		Dst:    b.newReg(),
		Args:   []ir.Reg{left, right},
		Blocks: []int{leftBlk, rightEnd},
	})
}

// lowerPipe applies the pipe: a |> f becomes f(a), a |> f(b) becomes
// f(a, b). Anything else on the right is evaluated and called as a value.
func (b *unitBuilder) lowerPipe(e *ast.PipeExpression) ir.Reg {
	piped := b.lowerExpression(e.Left)
	switch rhs := e.Right.(type) {
	case *ast.CallExpression:
		return b.lowerCallWith(rhs, rhs.Callee, []ir.Reg{piped})
	default:
		return b.lowerCalleeWith(e.Right, []ir.Reg{piped})
	}
}

func (b *unitBuilder) lowerCall(e *ast.CallExpression) ir.Reg {
	return b.lowerCallWith(e, e.Callee, nil)
}

// lowerCallWith lowers a call, prepending any piped-in arguments. Uniform
// call syntax is normalized here: a member callee whose object is not a
// module alias puts the receiver in front of the argument list.
func (b *unitBuilder) lowerCallWith(call *ast.CallExpression, callee ast.Expression, prefix []ir.Reg) ir.Reg {
	me, isMember := callee.(*ast.MemberExpression)
	if isMember {
		if sym, ok := b.lw.set.Resolution[me]; ok {
			// alias.name: a cross-module reference, not a method call.
			args := b.lowerArgs(prefix, call.Arguments)
			return b.staticOrValueCall(call, sym, args)
		}
		receiver := b.lowerExpression(me.Object)
		args := b.lowerArgs(append([]ir.Reg{receiver}, prefix...), call.Arguments)
		if sym, ok := b.mod.SymbolTable.Find(me.Member.Value); ok {
			// Uniform call syntax: x.m(a) is m(x, a) when m names a
			// visible function.
			switch sym.Kind {
			case symbols.FunctionSymbol:
				return b.emitAt(call.Token, ir.Instruction{
					Op: ir.OpCall, Dst: b.newReg(), Sym: unitName(sym.OriginModule, sym.Name), Args: args,
				})
			case symbols.BuiltinSymbol:
				return b.emitAt(call.Token, ir.Instruction{
					Op: ir.OpCall, Dst: b.newReg(), Sym: sym.Name, Args: args,
				})
			}
		}
		return b.emitAt(call.Token, ir.Instruction{
			Op: ir.OpDynCall, Dst: b.newReg(), Sym: me.Member.Value, Args: args,
		})
	}

	if id, isIdent := callee.(*ast.Identifier); isIdent {
		if _, local := b.lookupLocal(id.Value); !local {
			if sym, ok := b.lw.set.Resolution[id]; ok {
				args := b.lowerArgs(prefix, call.Arguments)
				return b.staticOrValueCall(call, sym, args)
			}
		}
	}

	fn := b.lowerExpression(callee)
	args := b.lowerArgs(prefix, call.Arguments)
	return b.emitAt(call.Token, ir.Instruction{
		Op: ir.OpCallValue, Dst: b.newReg(), Args: append([]ir.Reg{fn}, args...),
	})
}

// staticOrValueCall calls a resolved symbol: functions and builtins call
// directly, variables call through the stored value.
func (b *unitBuilder) staticOrValueCall(call *ast.CallExpression, sym symbols.Symbol, args []ir.Reg) ir.Reg {
	switch sym.Kind {
	case symbols.FunctionSymbol:
		return b.emitAt(call.Token, ir.Instruction{
			Op: ir.OpCall, Dst: b.newReg(), Sym: unitName(sym.OriginModule, sym.Name), Args: args,
		})
	case symbols.BuiltinSymbol:
		return b.emitAt(call.Token, ir.Instruction{
			Op: ir.OpCall, Dst: b.newReg(), Sym: sym.Name, Args: args,
		})
	default:
		fn := b.emitAt(call.Token, ir.Instruction{
			Op: ir.OpGlobal, Dst: b.newReg(), Sym: unitName(sym.OriginModule, sym.Name),
		})
		return b.emitAt(call.Token, ir.Instruction{
			Op: ir.OpCallValue, Dst: b.newReg(), Args: append([]ir.Reg{fn}, args...),
		})
	}
}

// lowerCalleeWith evaluates a callee expression and calls it with args;
// identifiers naming functions still call statically.
func (b *unitBuilder) lowerCalleeWith(callee ast.Expression, args []ir.Reg) ir.Reg {
	if id, ok := callee.(*ast.Identifier); ok {
		if _, local := b.lookupLocal(id.Value); !local {
			if sym, found := b.lw.set.Resolution[id]; found && sym.Kind == symbols.FunctionSymbol {
				return b.emitAt(id.Token, ir.Instruction{
					Op: ir.OpCall, Dst: b.newReg(), Sym: unitName(sym.OriginModule, sym.Name), Args: args,
				})
			}
			if sym, found := b.lw.set.Resolution[id]; found && sym.Kind == symbols.BuiltinSymbol {
				return b.emitAt(id.Token, ir.Instruction{
					Op: ir.OpCall, Dst: b.newReg(), Sym: sym.Name, Args: args,
				})
			}
		}
	}
	fn := b.lowerExpression(callee)
	return b.emitAt(callee.GetToken(), ir.Instruction{
		Op: ir.OpCallValue, Dst: b.newReg(), Args: append([]ir.Reg{fn}, args...),
	})
}

func (b *unitBuilder) lowerArgs(prefix []ir.Reg, exprs []ast.Expression) []ir.Reg {
	args := append([]ir.Reg(nil), prefix...)
	for _, arg := range exprs {
		args = append(args, b.lowerExpression(arg))
	}
	return args
}

func (b *unitBuilder) lowerMember(me *ast.MemberExpression) ir.Reg {
	if sym, ok := b.lw.set.Resolution[me]; ok {
		return b.globalRef(me.Member, sym, true)
	}
	obj := b.lowerExpression(me.Object)
	return b.emitAt(me.Token, ir.Instruction{
		Op: ir.OpFieldLoad, Dst: b.newReg(), Sym: me.Member.Value, Safe: me.Safe, Args: []ir.Reg{obj},
	})
}

func (b *unitBuilder) lowerStructLiteral(sl *ast.StructLiteral) ir.Reg {
	keys := make([]string, 0, len(sl.Fields))
	args := make([]ir.Reg, 0, len(sl.Fields))
	for _, f := range sl.Fields {
		keys = append(keys, f.Name.Value)
		args = append(args, b.lowerExpression(f.Value))
	}
	return b.emitAt(sl.Token, ir.Instruction{
		Op: ir.OpMakeStruct, Dst: b.newReg(), Sym: sl.TypeName.Value, Keys: keys, Args: args,
	})
}

// lowerIf emits the diamond: both branch values flow into a phi at the join
// block. A missing else contributes nil.
func (b *unitBuilder) lowerIf(e *ast.IfExpression) ir.Reg {
	cond := b.lowerExpression(e.Condition)
	thenBlk := b.newBlock()
	elseBlk := b.newBlock()
	joinBlk := b.newBlock()
	b.terminate(ir.Terminator{
		Kind: ir.TermBranch, Cond: cond, Then: thenBlk, Else: elseBlk,
		Line: e.Token.Line, Column: e.Token.Column,
	})

	b.switchTo(thenBlk)
	thenVal := b.lowerExpression(e.Then)
	thenEnd := b.cur
	b.terminate(ir.Terminator{Kind: ir.TermJump, Then: joinBlk})

	b.switchTo(elseBlk)
	var elseVal ir.Reg
	if e.Else != nil {
		elseVal = b.lowerExpression(e.Else)
	} else {
		elseVal = b.emitAt(e.Token, ir.Instruction{Op: ir.OpConst, Dst: b.newReg(), Const: ir.NilConst()})
	}
	elseEnd := b.cur
	b.terminate(ir.Terminator{Kind: ir.TermJump, Then: joinBlk})

	b.switchTo(joinBlk)
	return b.emitAt(e.Token, ir.Instruction{
		Op:     ir.OpPhi,
		Dst:    b.newReg(),
		Args:   []ir.Reg{thenVal, elseVal},
		Blocks: []int{thenEnd, elseEnd},
	})
}

package macro

import (
	"fmt"

	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/token"
)

// Expander rewrites macro invocations into their expanded bodies until none
// remain. It runs before resolution, so a macro invocation is any call whose
// callee is a bare identifier naming a macro declared in the same module.
//
// Hygiene: bindings the body introduces get fresh internal names; names the
// caller passed in and free references to module scope are untouched. The
// fresh-name counter is scoped to one Expander, never shared across modules.
type Expander struct {
	macros     map[string]*ast.MacroDeclaration
	depthLimit int
	counter    int
	diags      []*diagnostics.DiagnosticError
}

func New(depthLimit int) *Expander {
	return &Expander{
		macros:     make(map[string]*ast.MacroDeclaration),
		depthLimit: depthLimit,
	}
}

func (e *Expander) Diagnostics() []*diagnostics.DiagnosticError {
	return e.diags
}

func (e *Expander) errorf(code diagnostics.ErrorCode, node ast.Node, format string, args ...interface{}) {
	tok := nodeToken(node)
	e.diags = append(e.diags, diagnostics.NewError(code, tok, fmt.Sprintf(format, args...)))
}

func nodeToken(node ast.Node) token.Token {
	if tp, ok := node.(ast.TokenProvider); ok {
		return tp.GetToken()
	}
	return token.Token{}
}

// freshName mints a globally unique internal name. The marker rune cannot be
// written in source identifiers, so collision with call-site names is
// impossible; diagnostics.DisplayName recovers the name the author wrote.
func (e *Expander) freshName(original string) string {
	e.counter++
	return fmt.Sprintf("%s·%d", original, e.counter)
}

// ExpandModule expands every macro invocation in mod in place and strips the
// macro declarations, which exist only at compile time. The returned module
// contains no macro-callee call nodes unless expansion failed.
func (e *Expander) ExpandModule(mod *ast.Module) *ast.Module {
	e.collectMacros(mod)

	kept := mod.Statements[:0]
	for _, stmt := range mod.Statements {
		if _, isMacro := stmt.(*ast.MacroDeclaration); isMacro {
			continue
		}
		kept = append(kept, e.expandStatement(stmt, 0))
	}
	mod.Statements = kept
	return mod
}

func (e *Expander) collectMacros(mod *ast.Module) {
	for _, stmt := range mod.Statements {
		decl, ok := stmt.(*ast.MacroDeclaration)
		if !ok {
			continue
		}
		name := decl.Name.Value
		if _, dup := e.macros[name]; dup {
			e.errorf(diagnostics.ErrM004, decl, "macro %q is already declared", name)
			continue
		}
		seen := make(map[string]bool, len(decl.Params))
		for _, param := range decl.Params {
			if seen[param.Value] {
				e.errorf(diagnostics.ErrM003, decl, "macro %q has duplicate parameter %q", name, param.Value)
			}
			seen[param.Value] = true
		}
		e.macros[name] = decl
	}
}

func (e *Expander) expandStatement(stmt ast.Statement, depth int) ast.Statement {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		s.Value = e.expandExpression(s.Value, depth)
	case *ast.AssignStatement:
		s.Value = e.expandExpression(s.Value, depth)
	case *ast.FunctionDeclaration:
		e.expandBlock(s.Body, depth)
	case *ast.ImplDeclaration:
		for _, m := range s.Methods {
			e.expandBlock(m.Body, depth)
		}
	case *ast.ExpressionStatement:
		s.Expression = e.expandExpression(s.Expression, depth)
	case *ast.ReturnStatement:
		s.Value = e.expandExpression(s.Value, depth)
	case *ast.WhileStatement:
		s.Condition = e.expandExpression(s.Condition, depth)
		e.expandBlock(s.Body, depth)
	}
	return stmt
}

func (e *Expander) expandBlock(block *ast.BlockExpression, depth int) {
	if block == nil {
		return
	}
	for i, stmt := range block.Statements {
		block.Statements[i] = e.expandStatement(stmt, depth)
	}
}

func (e *Expander) expandExpression(expr ast.Expression, depth int) ast.Expression {
	if expr == nil {
		return nil
	}
	switch x := expr.(type) {
	case *ast.PrefixExpression:
		x.Right = e.expandExpression(x.Right, depth)
	case *ast.InfixExpression:
		x.Left = e.expandExpression(x.Left, depth)
		x.Right = e.expandExpression(x.Right, depth)
	case *ast.PipeExpression:
		x.Left = e.expandExpression(x.Left, depth)
		x.Right = e.expandExpression(x.Right, depth)
	case *ast.CallExpression:
		x.Callee = e.expandExpression(x.Callee, depth)
		for i, arg := range x.Arguments {
			x.Arguments[i] = e.expandExpression(arg, depth)
		}
		if callee, ok := x.Callee.(*ast.Identifier); ok {
			if decl, isMacro := e.macros[callee.Value]; isMacro {
				return e.expandInvocation(x, decl, depth)
			}
		}
	case *ast.MemberExpression:
		x.Object = e.expandExpression(x.Object, depth)
	case *ast.StructLiteral:
		for _, f := range x.Fields {
			f.Value = e.expandExpression(f.Value, depth)
		}
	case *ast.IfExpression:
		x.Condition = e.expandExpression(x.Condition, depth)
		e.expandBlock(x.Then, depth)
		x.Else = e.expandExpression(x.Else, depth)
	case *ast.MatchExpression:
		x.Scrutinee = e.expandExpression(x.Scrutinee, depth)
		for _, arm := range x.Arms {
			arm.Guard = e.expandExpression(arm.Guard, depth)
			arm.Body = e.expandExpression(arm.Body, depth)
		}
	case *ast.BlockExpression:
		e.expandBlock(x, depth)
	case *ast.FunctionLiteral:
		e.expandBlock(x.Body, depth)
	}
	return expr
}

// expandInvocation instantiates one macro call: clone the body, rename the
// bindings it introduces, substitute arguments for parameters, then expand
// the result again for nested invocations. Arguments were already expanded
// by the caller.
func (e *Expander) expandInvocation(call *ast.CallExpression, decl *ast.MacroDeclaration, depth int) ast.Expression {
	if depth >= e.depthLimit {
		e.errorf(diagnostics.ErrM001, call,
			"macro expansion exceeded depth %d at %q, likely infinite recursion", e.depthLimit, decl.Name.Value)
		return call
	}
	if len(call.Arguments) != len(decl.Params) {
		e.errorf(diagnostics.ErrM002, call,
			"macro %q expects %d arguments, got %d", decl.Name.Value, len(decl.Params), len(call.Arguments))
		return call
	}

	body := cloneBlock(decl.Body)
	newRenamer(e).renameBlock(body)

	subst := make(map[string]ast.Expression, len(decl.Params))
	for i, param := range decl.Params {
		subst[param.Value] = call.Arguments[i]
	}
	substituteBlock(body, subst)

	return e.expandExpression(body, depth+1)
}

// substituteBlock replaces identifier uses of macro parameters with copies of
// the corresponding argument expressions. Hygiene ran first, so every
// remaining occurrence of a parameter name really is the parameter.
func substituteBlock(block *ast.BlockExpression, subst map[string]ast.Expression) {
	if block == nil {
		return
	}
	for _, stmt := range block.Statements {
		substituteStatement(stmt, subst)
	}
}

func substituteStatement(stmt ast.Statement, subst map[string]ast.Expression) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		s.Value = substituteExpression(s.Value, subst)
	case *ast.AssignStatement:
		s.Value = substituteExpression(s.Value, subst)
	case *ast.FunctionDeclaration:
		substituteBlock(s.Body, subst)
	case *ast.ExpressionStatement:
		s.Expression = substituteExpression(s.Expression, subst)
	case *ast.ReturnStatement:
		s.Value = substituteExpression(s.Value, subst)
	case *ast.WhileStatement:
		s.Condition = substituteExpression(s.Condition, subst)
		substituteBlock(s.Body, subst)
	}
}

func substituteExpression(expr ast.Expression, subst map[string]ast.Expression) ast.Expression {
	if expr == nil {
		return nil
	}
	switch x := expr.(type) {
	case *ast.Identifier:
		if arg, ok := subst[x.Value]; ok {
			return cloneExpression(arg)
		}
	case *ast.PrefixExpression:
		x.Right = substituteExpression(x.Right, subst)
	case *ast.InfixExpression:
		x.Left = substituteExpression(x.Left, subst)
		x.Right = substituteExpression(x.Right, subst)
	case *ast.PipeExpression:
		x.Left = substituteExpression(x.Left, subst)
		x.Right = substituteExpression(x.Right, subst)
	case *ast.CallExpression:
		x.Callee = substituteExpression(x.Callee, subst)
		for i, arg := range x.Arguments {
			x.Arguments[i] = substituteExpression(arg, subst)
		}
	case *ast.MemberExpression:
		x.Object = substituteExpression(x.Object, subst)
	case *ast.StructLiteral:
		for _, f := range x.Fields {
			f.Value = substituteExpression(f.Value, subst)
		}
	case *ast.IfExpression:
		x.Condition = substituteExpression(x.Condition, subst)
		substituteBlock(x.Then, subst)
		x.Else = substituteExpression(x.Else, subst)
	case *ast.MatchExpression:
		x.Scrutinee = substituteExpression(x.Scrutinee, subst)
		for _, arm := range x.Arms {
			arm.Guard = substituteExpression(arm.Guard, subst)
			arm.Body = substituteExpression(arm.Body, subst)
		}
	case *ast.BlockExpression:
		substituteBlock(x, subst)
	case *ast.FunctionLiteral:
		substituteBlock(x.Body, subst)
	}
	return expr
}

package macro

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
)

// renamer gives every binding a macro body introduces a fresh internal name
// so it can neither capture nor be captured by call-site names. Free names in
// the body (references to module scope) and macro parameters are left alone;
// parameters are substituted afterwards.
type renamer struct {
	exp    *Expander
	scopes []map[string]string
}

func newRenamer(exp *Expander) *renamer {
	return &renamer{exp: exp, scopes: []map[string]string{{}}}
}

func (r *renamer) push() {
	r.scopes = append(r.scopes, map[string]string{})
}

func (r *renamer) pop() {
	r.scopes = r.scopes[:len(r.scopes)-1]
}

// bind renames name in the current scope and returns the fresh name.
func (r *renamer) bind(name string) string {
	fresh := r.exp.freshName(name)
	r.scopes[len(r.scopes)-1][name] = fresh
	return fresh
}

// lookup walks the scope stack innermost-out.
func (r *renamer) lookup(name string) (string, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if fresh, ok := r.scopes[i][name]; ok {
			return fresh, true
		}
	}
	return "", false
}

func (r *renamer) renameBlock(block *ast.BlockExpression) {
	if block == nil {
		return
	}
	r.push()
	for _, stmt := range block.Statements {
		r.renameStatement(stmt)
	}
	r.pop()
}

func (r *renamer) renameStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		// The initializer sees the outer meaning of the name.
		r.renameExpression(s.Value)
		s.Name.Value = r.bind(s.Name.Value)
	case *ast.AssignStatement:
		r.renameExpression(s.Value)
		if fresh, ok := r.lookup(s.Target.Value); ok {
			s.Target.Value = fresh
		}
	case *ast.FunctionDeclaration:
		s.Name.Value = r.bind(s.Name.Value)
		r.push()
		for _, param := range s.Params {
			param.Value = r.bind(param.Value)
		}
		r.renameBlock(s.Body)
		r.pop()
	case *ast.ExpressionStatement:
		r.renameExpression(s.Expression)
	case *ast.ReturnStatement:
		r.renameExpression(s.Value)
	case *ast.WhileStatement:
		r.renameExpression(s.Condition)
		r.renameBlock(s.Body)
	}
}

func (r *renamer) renameExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Identifier:
		if fresh, ok := r.lookup(e.Value); ok {
			e.Value = fresh
		}
	case *ast.PrefixExpression:
		r.renameExpression(e.Right)
	case *ast.InfixExpression:
		r.renameExpression(e.Left)
		r.renameExpression(e.Right)
	case *ast.PipeExpression:
		r.renameExpression(e.Left)
		r.renameExpression(e.Right)
	case *ast.CallExpression:
		r.renameExpression(e.Callee)
		for _, arg := range e.Arguments {
			r.renameExpression(arg)
		}
	case *ast.MemberExpression:
		// Member names are field selectors, not bindings.
		r.renameExpression(e.Object)
	case *ast.StructLiteral:
		for _, f := range e.Fields {
			r.renameExpression(f.Value)
		}
	case *ast.IfExpression:
		r.renameExpression(e.Condition)
		r.renameBlock(e.Then)
		r.renameExpression(e.Else)
	case *ast.MatchExpression:
		r.renameExpression(e.Scrutinee)
		for _, arm := range e.Arms {
			r.push()
			r.renamePattern(arm.Pattern)
			r.renameExpression(arm.Guard)
			r.renameExpression(arm.Body)
			r.pop()
		}
	case *ast.BlockExpression:
		r.renameBlock(e)
	case *ast.FunctionLiteral:
		r.push()
		for _, param := range e.Params {
			param.Value = r.bind(param.Value)
		}
		r.renameBlock(e.Body)
		r.pop()
	}
}

// renamePattern renames the bindings a pattern introduces. Field names stay:
// they select struct fields. A pun is rewritten to an explicit sub-pattern so
// the binding can diverge from the field name.
func (r *renamer) renamePattern(pat ast.Pattern) {
	switch p := pat.(type) {
	case *ast.IdentifierPattern:
		p.Name.Value = r.bind(p.Name.Value)
	case *ast.LiteralPattern:
		r.renameExpression(p.Value)
	case *ast.StructPattern:
		for _, f := range p.Fields {
			if f.Pattern == nil {
				fresh := r.bind(f.Name.Value)
				bound := *f.Name
				bound.Value = fresh
				f.Pattern = &ast.IdentifierPattern{Token: f.Token, Name: &bound}
				continue
			}
			r.renamePattern(f.Pattern)
		}
	case *ast.OrPattern:
		// Alternatives cannot bind, so only literal sub-expressions remain.
		for _, alt := range p.Alternatives {
			r.renamePattern(alt)
		}
	}
}

package macro

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
)

// Deep copies for macro expansion. The tree owns its children exclusively,
// so every substituted argument and every instantiated body is a fresh copy.

func cloneExpression(expr ast.Expression) ast.Expression {
	if expr == nil {
		return nil
	}
	switch e := expr.(type) {
	case *ast.Identifier:
		c := *e
		return &c
	case *ast.IntegerLiteral:
		c := *e
		return &c
	case *ast.FloatLiteral:
		c := *e
		return &c
	case *ast.StringLiteral:
		c := *e
		return &c
	case *ast.BooleanLiteral:
		c := *e
		return &c
	case *ast.NilLiteral:
		c := *e
		return &c
	case *ast.PrefixExpression:
		return &ast.PrefixExpression{
			Token:    e.Token,
			Operator: e.Operator,
			Right:    cloneExpression(e.Right),
		}
	case *ast.InfixExpression:
		return &ast.InfixExpression{
			Token:    e.Token,
			Left:     cloneExpression(e.Left),
			Operator: e.Operator,
			Right:    cloneExpression(e.Right),
		}
	case *ast.PipeExpression:
		return &ast.PipeExpression{
			Token: e.Token,
			Left:  cloneExpression(e.Left),
			Right: cloneExpression(e.Right),
		}
	case *ast.CallExpression:
		args := make([]ast.Expression, len(e.Arguments))
		for i, a := range e.Arguments {
			args[i] = cloneExpression(a)
		}
		return &ast.CallExpression{
			Token:     e.Token,
			Callee:    cloneExpression(e.Callee),
			Arguments: args,
		}
	case *ast.MemberExpression:
		member := *e.Member
		return &ast.MemberExpression{
			Token:  e.Token,
			Object: cloneExpression(e.Object),
			Member: &member,
			Safe:   e.Safe,
		}
	case *ast.StructLiteral:
		typeName := *e.TypeName
		fields := make([]*ast.FieldInit, len(e.Fields))
		for i, f := range e.Fields {
			name := *f.Name
			fields[i] = &ast.FieldInit{
				Token: f.Token,
				Name:  &name,
				Value: cloneExpression(f.Value),
			}
		}
		return &ast.StructLiteral{Token: e.Token, TypeName: &typeName, Fields: fields}
	case *ast.IfExpression:
		return &ast.IfExpression{
			Token:     e.Token,
			Condition: cloneExpression(e.Condition),
			Then:      cloneBlock(e.Then),
			Else:      cloneExpression(e.Else),
		}
	case *ast.MatchExpression:
		arms := make([]*ast.MatchArm, len(e.Arms))
		for i, arm := range e.Arms {
			arms[i] = &ast.MatchArm{
				Token:   arm.Token,
				Pattern: clonePattern(arm.Pattern),
				Guard:   cloneExpression(arm.Guard),
				Body:    cloneExpression(arm.Body),
			}
		}
		return &ast.MatchExpression{
			Token:     e.Token,
			Scrutinee: cloneExpression(e.Scrutinee),
			Arms:      arms,
		}
	case *ast.BlockExpression:
		return cloneBlock(e)
	case *ast.FunctionLiteral:
		return &ast.FunctionLiteral{
			Token:  e.Token,
			Params: cloneIdentifiers(e.Params),
			Body:   cloneBlock(e.Body),
		}
	default:
		return expr
	}
}

func cloneBlock(block *ast.BlockExpression) *ast.BlockExpression {
	if block == nil {
		return nil
	}
	stmts := make([]ast.Statement, len(block.Statements))
	for i, s := range block.Statements {
		stmts[i] = cloneStatement(s)
	}
	return &ast.BlockExpression{Token: block.Token, Statements: stmts}
}

func cloneStatement(stmt ast.Statement) ast.Statement {
	if stmt == nil {
		return nil
	}
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		name := *s.Name
		return &ast.VarDeclaration{
			Token: s.Token,
			Name:  &name,
			Value: cloneExpression(s.Value),
			Pub:   s.Pub,
		}
	case *ast.AssignStatement:
		target := *s.Target
		return &ast.AssignStatement{
			Token:  s.Token,
			Target: &target,
			Value:  cloneExpression(s.Value),
		}
	case *ast.FunctionDeclaration:
		name := *s.Name
		return &ast.FunctionDeclaration{
			Token:  s.Token,
			Name:   &name,
			Params: cloneIdentifiers(s.Params),
			Body:   cloneBlock(s.Body),
			Pub:    s.Pub,
		}
	case *ast.ExpressionStatement:
		return &ast.ExpressionStatement{
			Token:      s.Token,
			Expression: cloneExpression(s.Expression),
		}
	case *ast.ReturnStatement:
		return &ast.ReturnStatement{Token: s.Token, Value: cloneExpression(s.Value)}
	case *ast.WhileStatement:
		return &ast.WhileStatement{
			Token:     s.Token,
			Condition: cloneExpression(s.Condition),
			Body:      cloneBlock(s.Body),
		}
	case *ast.BreakStatement:
		c := *s
		return &c
	case *ast.ContinueStatement:
		c := *s
		return &c
	default:
		// Declarations (struct, trait, impl, macro) never appear inside a
		// macro body; the parser confines them to the top level.
		return stmt
	}
}

func clonePattern(pat ast.Pattern) ast.Pattern {
	if pat == nil {
		return nil
	}
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		c := *p
		return &c
	case *ast.IdentifierPattern:
		name := *p.Name
		return &ast.IdentifierPattern{Token: p.Token, Name: &name}
	case *ast.LiteralPattern:
		return &ast.LiteralPattern{Token: p.Token, Value: cloneExpression(p.Value)}
	case *ast.StructPattern:
		typeName := *p.TypeName
		fields := make([]*ast.FieldPattern, len(p.Fields))
		for i, f := range p.Fields {
			name := *f.Name
			fields[i] = &ast.FieldPattern{
				Token:   f.Token,
				Name:    &name,
				Pattern: clonePattern(f.Pattern),
			}
		}
		return &ast.StructPattern{Token: p.Token, TypeName: &typeName, Fields: fields}
	case *ast.OrPattern:
		alts := make([]ast.Pattern, len(p.Alternatives))
		for i, a := range p.Alternatives {
			alts[i] = clonePattern(a)
		}
		return &ast.OrPattern{Token: p.Token, Alternatives: alts}
	default:
		return pat
	}
}

func cloneIdentifiers(ids []*ast.Identifier) []*ast.Identifier {
	out := make([]*ast.Identifier, len(ids))
	for i, id := range ids {
		c := *id
		out[i] = &c
	}
	return out
}

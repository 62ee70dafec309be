package lower

import "github.com/corrosion-lang/corrosion/internal/ast"

// freeNames lists the identifiers a function body references but does not
// bind itself, in first-appearance order. The caller decides which of them
// are captures of the enclosing unit and which resolve as module globals.
func freeNames(params []*ast.Identifier, body *ast.BlockExpression) []string {
	fv := &freeVarWalker{seen: make(map[string]bool)}
	fv.pushScope()
	for _, p := range params {
		fv.bind(p.Value)
	}
	fv.walkBlock(body)
	fv.popScope()
	return fv.free
}

type freeVarWalker struct {
	scopes []map[string]bool
	seen   map[string]bool
	free   []string
}

func (fv *freeVarWalker) pushScope() { fv.scopes = append(fv.scopes, make(map[string]bool)) }
func (fv *freeVarWalker) popScope()  { fv.scopes = fv.scopes[:len(fv.scopes)-1] }

func (fv *freeVarWalker) bind(name string) {
	fv.scopes[len(fv.scopes)-1][name] = true
}

func (fv *freeVarWalker) bound(name string) bool {
	for i := len(fv.scopes) - 1; i >= 0; i-- {
		if fv.scopes[i][name] {
			return true
		}
	}
	return false
}

func (fv *freeVarWalker) use(name string) {
	if name == "" || fv.bound(name) || fv.seen[name] {
		return
	}
	fv.seen[name] = true
	fv.free = append(fv.free, name)
}

func (fv *freeVarWalker) walkBlock(block *ast.BlockExpression) {
	fv.pushScope()
	for _, stmt := range block.Statements {
		fv.walkStatement(stmt)
	}
	fv.popScope()
}

func (fv *freeVarWalker) walkStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		if s.Value != nil {
			fv.walkExpression(s.Value)
		}
		fv.bind(s.Name.Value)
	case *ast.FunctionDeclaration:
		fv.bind(s.Name.Value)
		fv.pushScope()
		for _, p := range s.Params {
			fv.bind(p.Value)
		}
		fv.walkBlock(s.Body)
		fv.popScope()
	case *ast.AssignStatement:
		fv.walkExpression(s.Value)
		fv.use(s.Target.Value)
	case *ast.ExpressionStatement:
		fv.walkExpression(s.Expression)
	case *ast.ReturnStatement:
		if s.Value != nil {
			fv.walkExpression(s.Value)
		}
	case *ast.WhileStatement:
		fv.walkExpression(s.Condition)
		fv.walkBlock(s.Body)
	}
}

func (fv *freeVarWalker) walkExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Identifier:
		fv.use(e.Value)
	case *ast.PrefixExpression:
		fv.walkExpression(e.Right)
	case *ast.InfixExpression:
		fv.walkExpression(e.Left)
		fv.walkExpression(e.Right)
	case *ast.PipeExpression:
		fv.walkExpression(e.Left)
		fv.walkExpression(e.Right)
	case *ast.CallExpression:
		fv.walkExpression(e.Callee)
		for _, arg := range e.Arguments {
			fv.walkExpression(arg)
		}
	case *ast.MemberExpression:
		fv.walkExpression(e.Object)
	case *ast.StructLiteral:
		for _, f := range e.Fields {
			fv.walkExpression(f.Value)
		}
	case *ast.IfExpression:
		fv.walkExpression(e.Condition)
		fv.walkBlock(e.Then)
		if e.Else != nil {
			fv.walkExpression(e.Else)
		}
	case *ast.MatchExpression:
		fv.walkExpression(e.Scrutinee)
		for _, arm := range e.Arms {
			fv.pushScope()
			fv.bindPattern(arm.Pattern)
			if arm.Guard != nil {
				fv.walkExpression(arm.Guard)
			}
			fv.walkExpression(arm.Body)
			fv.popScope()
		}
	case *ast.BlockExpression:
		fv.walkBlock(e)
	case *ast.FunctionLiteral:
		fv.pushScope()
		for _, p := range e.Params {
			fv.bind(p.Value)
		}
		fv.walkBlock(e.Body)
		fv.popScope()
	}
}

func (fv *freeVarWalker) bindPattern(pat ast.Pattern) {
	switch p := pat.(type) {
	case *ast.IdentifierPattern:
		fv.bind(p.Name.Value)
	case *ast.StructPattern:
		for _, f := range p.Fields {
			if f.Pattern == nil {
				fv.bind(f.Name.Value)
				continue
			}
			fv.bindPattern(f.Pattern)
		}
	case *ast.OrPattern:
		for _, alt := range p.Alternatives {
			fv.bindPattern(alt)
		}
	}
}

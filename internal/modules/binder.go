package modules

import (
	"fmt"

	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/symbols"
	"github.com/corrosion-lang/corrosion/internal/token"
)

// binder walks one module's statements and records a resolution for every
// name use. Top-level statements bind in source order, so a value binding is
// visible only after its declaration. Function bodies are queued and bound
// after the walk completes: a body runs when called, by which time every
// scope it closes over has reached its final population.
type binder struct {
	res       *Resolver
	mod       *Module
	scope     *symbols.SymbolTable
	loopDepth int
	deferred  []deferredBody
}

// deferredBody is a function body waiting to be bound, together with the
// scope it was declared in.
type deferredBody struct {
	params []*ast.Identifier
	body   *ast.BlockExpression
	scope  *symbols.SymbolTable
}

func (b *binder) run() {
	for _, stmt := range b.mod.Ast.Statements {
		b.bindStatement(stmt)
	}
	// Draining by index lets a deferred body queue nested literals.
	for i := 0; i < len(b.deferred); i++ {
		b.bindFunctionBody(b.deferred[i])
	}
}

func (b *binder) bindStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		b.bindVarDeclaration(s)
	case *ast.AssignStatement:
		b.bindExpression(s.Value)
		b.bindAssignTarget(s.Target)
	case *ast.FunctionDeclaration:
		if !b.scope.IsModuleScope() {
			b.declareLocal(s.Name.Token, symbols.Symbol{
				Name:         s.Name.Value,
				Kind:         symbols.FunctionSymbol,
				Mutability:   symbols.ConstBinding,
				OriginModule: b.mod.Path,
				DeclNode:     s,
			})
		}
		b.deferred = append(b.deferred, deferredBody{params: s.Params, body: s.Body, scope: b.scope})
	case *ast.ImplDeclaration:
		for _, m := range s.Methods {
			b.deferred = append(b.deferred, deferredBody{params: m.Params, body: m.Body, scope: b.scope})
		}
	case *ast.ExpressionStatement:
		b.bindExpression(s.Expression)
	case *ast.ReturnStatement:
		if s.Value != nil {
			b.bindExpression(s.Value)
		}
	case *ast.WhileStatement:
		b.bindExpression(s.Condition)
		b.loopDepth++
		b.bindBlockScoped(s.Body)
		b.loopDepth--
	case *ast.BreakStatement:
		if b.loopDepth == 0 {
			b.errorf(diagnostics.ErrR007, s.Token, "break outside a loop")
		}
	case *ast.ContinueStatement:
		if b.loopDepth == 0 {
			b.errorf(diagnostics.ErrR007, s.Token, "continue outside a loop")
		}
	case *ast.ImportDeclaration, *ast.StructDeclaration, *ast.TraitDeclaration, *ast.MacroDeclaration:
		// Handled during declaration collection; nothing to bind here.
	}
}

func (b *binder) bindVarDeclaration(vd *ast.VarDeclaration) {
	if vd.Value != nil {
		b.bindExpression(vd.Value)
	}

	var mut symbols.Mutability
	switch vd.Keyword() {
	case "var":
		mut = symbols.VarBinding
	case "const":
		mut = symbols.ConstBinding
	default:
		mut = symbols.LetBinding
	}
	sym := symbols.Symbol{
		Name:         vd.Name.Value,
		Kind:         symbols.VariableSymbol,
		Mutability:   mut,
		Pub:          vd.Pub,
		OriginModule: b.mod.Path,
		DeclNode:     vd,
	}

	if mut == symbols.LetBinding {
		// let always rebinds: a fresh symbol shadows whatever held the name.
		b.scope.Define(sym)
	} else {
		b.declareLocal(vd.Name.Token, sym)
	}

	if vd.Pub && b.scope.IsModuleScope() {
		b.mod.Exports[vd.Name.Value] = true
	}

	// A let or const initialized from a struct literal has a statically
	// known shape; reads of the binding inherit it.
	if mut != symbols.VarBinding && vd.Value != nil {
		if lit, ok := vd.Value.(*ast.StructLiteral); ok {
			if name, known := b.res.knownShapes[lit]; known {
				b.res.shapeOfDecl[vd] = name
			}
		}
	}
}

// declareLocal defines sym unless the name is already taken in the current
// scope. let bindings never come through here; they shadow unconditionally.
func (b *binder) declareLocal(tok token.Token, sym symbols.Symbol) {
	if _, exists := b.scope.FindLocal(sym.Name); exists {
		b.errorf(diagnostics.ErrR004, tok, "%q is already declared in this scope", sym.Name)
		return
	}
	b.scope.Define(sym)
}

func (b *binder) bindAssignTarget(target *ast.Identifier) {
	sym, ok := b.scope.Find(target.Value)
	if !ok {
		b.errorf(diagnostics.ErrR001, target.Token, "unbound name %q",
			diagnostics.DisplayName(target.Value))
		return
	}
	switch {
	case sym.Kind == symbols.VariableSymbol && sym.Mutability == symbols.VarBinding:
		b.res.resolution[target] = sym
	case sym.Kind == symbols.VariableSymbol:
		b.errorf(diagnostics.ErrR005, target.Token, "cannot assign to %s binding %q",
			sym.Mutability, diagnostics.DisplayName(target.Value))
	default:
		b.errorf(diagnostics.ErrR005, target.Token, "cannot assign to %s %q",
			sym.Kind, diagnostics.DisplayName(target.Value))
	}
}

func (b *binder) bindExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.Identifier:
		b.bindIdentifier(e)
	case *ast.IntegerLiteral, *ast.FloatLiteral, *ast.StringLiteral, *ast.BooleanLiteral, *ast.NilLiteral:
		// Literals resolve to themselves.
	case *ast.PrefixExpression:
		b.bindExpression(e.Right)
	case *ast.InfixExpression:
		b.bindExpression(e.Left)
		b.bindExpression(e.Right)
	case *ast.PipeExpression:
		b.bindExpression(e.Left)
		b.bindExpression(e.Right)
	case *ast.CallExpression:
		b.bindExpression(e.Callee)
		for _, arg := range e.Arguments {
			b.bindExpression(arg)
		}
	case *ast.MemberExpression:
		b.bindMemberExpression(e)
	case *ast.StructLiteral:
		b.bindStructLiteral(e)
	case *ast.IfExpression:
		b.bindExpression(e.Condition)
		b.bindBlockScoped(e.Then)
		if e.Else != nil {
			b.bindExpression(e.Else)
		}
	case *ast.MatchExpression:
		b.bindMatchExpression(e)
	case *ast.BlockExpression:
		b.bindBlockScoped(e)
	case *ast.FunctionLiteral:
		b.deferred = append(b.deferred, deferredBody{params: e.Params, body: e.Body, scope: b.scope})
	}
}

func (b *binder) bindIdentifier(id *ast.Identifier) {
	sym, ok := b.scope.Find(id.Value)
	if !ok {
		b.errorf(diagnostics.ErrR001, id.Token, "unbound name %q",
			diagnostics.DisplayName(id.Value))
		return
	}
	b.res.resolution[id] = sym
	if sym.DeclNode != nil {
		if shape, known := b.res.shapeOfDecl[sym.DeclNode]; known {
			b.res.knownShapes[id] = shape
		}
	}
}

// bindMemberExpression resolves alias.name against the imported module when
// the object is an import alias. Any other member access is a dynamic field
// or method lookup and resolves at run time.
func (b *binder) bindMemberExpression(me *ast.MemberExpression) {
	b.bindExpression(me.Object)

	obj, ok := me.Object.(*ast.Identifier)
	if !ok {
		return
	}
	sym, bound := b.res.resolution[obj]
	if !bound || sym.Kind != symbols.ModuleSymbol {
		return
	}
	dep := b.mod.Imports[sym.Name]
	if dep == nil || dep.Failed {
		// The import itself already produced a diagnostic.
		return
	}
	name := me.Member.Value
	target, found := dep.SymbolTable.FindLocal(name)
	if !found {
		b.errorf(diagnostics.ErrR001, me.Member.Token, "module %q has no name %q", dep.Path, name)
		return
	}
	if !dep.Exported(name) {
		b.errorf(diagnostics.ErrR006, me.Member.Token, "%q is not pub in module %q", name, dep.Path)
		return
	}
	b.res.resolution[me] = target
}

func (b *binder) bindStructLiteral(sl *ast.StructLiteral) {
	name := sl.TypeName.Value
	if sym, ok := b.scope.Find(name); !ok {
		b.errorf(diagnostics.ErrR001, sl.TypeName.Token, "unbound name %q", name)
	} else if sym.Kind != symbols.StructSymbol {
		b.errorf(diagnostics.ErrR001, sl.TypeName.Token, "%q is a %s, not a struct", name, sym.Kind)
	} else {
		b.res.resolution[sl.TypeName] = sym
		b.res.knownShapes[sl] = name
	}
	for _, f := range sl.Fields {
		b.bindExpression(f.Value)
	}
}

func (b *binder) bindMatchExpression(me *ast.MatchExpression) {
	b.bindExpression(me.Scrutinee)
	for _, arm := range me.Arms {
		saved := b.scope
		b.scope = symbols.NewEnclosedSymbolTable(saved, symbols.ScopeBlock)
		b.bindPattern(arm.Pattern)
		if arm.Guard != nil {
			b.bindExpression(arm.Guard)
		}
		b.bindExpression(arm.Body)
		b.scope = saved
	}
}

func (b *binder) bindPattern(pat ast.Pattern) {
	switch p := pat.(type) {
	case *ast.WildcardPattern, *ast.LiteralPattern:
		// No bindings.
	case *ast.IdentifierPattern:
		b.bindPatternName(p.Name, p)
	case *ast.StructPattern:
		name := p.TypeName.Value
		if sym, ok := b.scope.Find(name); !ok {
			b.errorf(diagnostics.ErrR001, p.TypeName.Token, "unbound name %q", name)
		} else if sym.Kind != symbols.StructSymbol {
			b.errorf(diagnostics.ErrR001, p.TypeName.Token, "%q is a %s, not a struct", name, sym.Kind)
		} else {
			b.res.resolution[p.TypeName] = sym
		}
		for _, f := range p.Fields {
			if f.Pattern == nil {
				b.bindPatternName(f.Name, f.Name)
				continue
			}
			b.bindPattern(f.Pattern)
		}
	case *ast.OrPattern:
		// Alternatives never bind; the parser rejects ones that try.
		for _, alt := range p.Alternatives {
			b.bindPattern(alt)
		}
	}
}

// bindPatternName introduces one match binding. Bindings behave like let
// toward enclosing scopes but may not repeat within a single pattern.
func (b *binder) bindPatternName(name *ast.Identifier, decl ast.Node) {
	if _, exists := b.scope.FindLocal(name.Value); exists {
		b.errorf(diagnostics.ErrR004, name.Token, "%q is bound more than once in this pattern",
			diagnostics.DisplayName(name.Value))
		return
	}
	b.scope.Define(symbols.Symbol{
		Name:         name.Value,
		Kind:         symbols.VariableSymbol,
		Mutability:   symbols.LetBinding,
		OriginModule: b.mod.Path,
		DeclNode:     decl,
	})
}

func (b *binder) bindBlockScoped(block *ast.BlockExpression) {
	saved := b.scope
	b.scope = symbols.NewEnclosedSymbolTable(saved, symbols.ScopeBlock)
	for _, stmt := range block.Statements {
		b.bindStatement(stmt)
	}
	b.scope = saved
}

// bindFunctionBody binds a queued body in a fresh function scope. Parameters
// bind like let. The loop depth resets: a break inside a function never
// targets a loop outside it.
func (b *binder) bindFunctionBody(d deferredBody) {
	savedScope, savedDepth := b.scope, b.loopDepth
	b.scope = symbols.NewEnclosedSymbolTable(d.scope, symbols.ScopeFunction)
	b.loopDepth = 0

	for _, p := range d.params {
		b.scope.Define(symbols.Symbol{
			Name:         p.Value,
			Kind:         symbols.VariableSymbol,
			Mutability:   symbols.LetBinding,
			OriginModule: b.mod.Path,
			DeclNode:     p,
		})
	}
	for _, stmt := range d.body.Statements {
		b.bindStatement(stmt)
	}

	b.scope, b.loopDepth = savedScope, savedDepth
}

func (b *binder) errorf(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	d := diagnostics.NewError(code, tok, fmt.Sprintf(format, args...))
	d.Module = b.mod.Path
	b.res.diags = append(b.res.diags, d)
}

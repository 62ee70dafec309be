package modules

import (
	"fmt"
	"strings"

	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/config"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/lexer"
	"github.com/corrosion-lang/corrosion/internal/macro"
	"github.com/corrosion-lang/corrosion/internal/parser"
	"github.com/corrosion-lang/corrosion/internal/pipeline"
	"github.com/corrosion-lang/corrosion/internal/symbols"
	"github.com/corrosion-lang/corrosion/internal/token"
)

// Resolver loads every module reachable from an entry path, runs each one
// through the per-module pipeline (lex, parse, expand), and binds every name
// use to its declaration. It is the point where independent per-module
// results merge into one program.
type Resolver struct {
	sources    SourceSet
	macroDepth int

	prelude *symbols.SymbolTable
	modules map[string]*Module
	loading map[string]bool
	chain   []string
	order   []string

	resolution  map[ast.Node]symbols.Symbol
	knownShapes map[ast.Node]string
	shapeOfDecl map[ast.Node]string

	diags []*diagnostics.DiagnosticError
}

// NewResolver builds a resolver over the given sources. The host owns the
// mapping from module paths to text; nothing here reads files.
func NewResolver(sources SourceSet) *Resolver {
	r := &Resolver{
		sources:     sources,
		prelude:     symbols.NewPreludeTable(),
		modules:     make(map[string]*Module),
		loading:     make(map[string]bool),
		resolution:  make(map[ast.Node]symbols.Symbol),
		knownShapes: make(map[ast.Node]string),
		shapeOfDecl: make(map[ast.Node]string),
	}
	for _, name := range []string{
		config.PrintFuncName,
		config.PanicFuncName,
		config.LenFuncName,
		config.TypeOfFuncName,
		config.ToStrFuncName,
	} {
		r.prelude.Define(symbols.Symbol{
			Name:       name,
			Kind:       symbols.BuiltinSymbol,
			Mutability: symbols.ConstBinding,
		})
	}
	return r
}

// SetMacroDepthLimit overrides the expansion depth cap for every module this
// resolver loads. Zero keeps the default.
func (r *Resolver) SetMacroDepthLimit(n int) { r.macroDepth = n }

// Resolve loads the entry module and everything it transitively imports,
// then binds all of them. It reports every diagnostic it can rather than
// stopping at the first; callers gate on diagnostics.HasErrors.
func (r *Resolver) Resolve(entry string) (*ResolvedSet, []*diagnostics.DiagnosticError) {
	r.load(entry, token.Token{}, entry)

	for _, path := range r.order {
		if mod := r.modules[path]; !mod.Failed {
			r.declareModule(mod)
		}
	}
	for _, path := range r.order {
		mod := r.modules[path]
		if mod.Failed {
			continue
		}
		b := &binder{res: r, mod: mod, scope: mod.SymbolTable}
		b.run()
	}

	set := &ResolvedSet{
		Entry:       entry,
		Modules:     r.modules,
		Order:       r.order,
		Resolution:  r.resolution,
		KnownShapes: r.knownShapes,
	}
	return set, r.diags
}

// load parses one module and, depth first, every module it imports. The
// depth-first walk makes r.order list dependencies before dependents and
// turns a revisit of an in-flight path into a cycle report.
func (r *Resolver) load(path string, at token.Token, inModule string) *Module {
	if mod, ok := r.modules[path]; ok {
		return mod
	}
	if r.loading[path] {
		r.errorf(diagnostics.ErrR003, at, inModule, "import cycle: %s", r.cycleDescription(path))
		return nil
	}
	src, ok := r.sources[path]
	if !ok {
		r.errorf(diagnostics.ErrR002, at, inModule, "cannot resolve module %q: no source provided", path)
		return nil
	}

	r.loading[path] = true
	r.chain = append(r.chain, path)
	defer func() {
		delete(r.loading, path)
		r.chain = r.chain[:len(r.chain)-1]
	}()

	ctx := &pipeline.PipelineContext{
		ModulePath:      path,
		SourceCode:      src,
		MacroDepthLimit: r.macroDepth,
	}
	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&macro.MacroProcessor{},
	).Run(ctx)
	for _, d := range ctx.Errors {
		if d.Module == "" {
			d.Module = path
		}
	}
	r.diags = append(r.diags, ctx.Errors...)

	mod := &Module{
		Path:        path,
		SymbolTable: symbols.NewEnclosedSymbolTable(r.prelude, symbols.ScopeModule),
		Exports:     make(map[string]bool),
		Imports:     make(map[string]*Module),
	}
	if root, ok := ctx.AstRoot.(*ast.Module); ok && !ctx.Failed() {
		mod.Ast = root
	} else {
		mod.Failed = true
	}

	if mod.Ast != nil {
		for _, imp := range mod.Ast.Imports {
			if dep := r.load(imp.Path.Value, imp.GetToken(), path); dep != nil {
				mod.Imports[imp.LocalName()] = dep
			}
		}
	}

	r.modules[path] = mod
	r.order = append(r.order, path)
	return mod
}

// cycleDescription renders the import chain from the first visit of path
// back around to path, e.g. "app -> geometry -> app".
func (r *Resolver) cycleDescription(path string) string {
	start := 0
	for i, p := range r.chain {
		if p == path {
			start = i
			break
		}
	}
	parts := append(append([]string{}, r.chain[start:]...), path)
	return strings.Join(parts, " -> ")
}

// declareModule populates the module scope with the names that are visible
// independent of statement order: import aliases, functions, structs and
// traits. Value bindings stay out; they take effect in source order during
// the binding pass.
func (r *Resolver) declareModule(mod *Module) {
	for _, imp := range mod.Ast.Imports {
		alias := imp.LocalName()
		if _, exists := mod.SymbolTable.FindLocal(alias); exists {
			r.errorf(diagnostics.ErrR004, imp.GetToken(), mod.Path,
				"%q is already declared in this module", alias)
			continue
		}
		mod.SymbolTable.Define(symbols.Symbol{
			Name:         alias,
			Kind:         symbols.ModuleSymbol,
			Mutability:   symbols.ConstBinding,
			OriginModule: mod.Path,
			DeclNode:     imp,
		})
	}

	for _, stmt := range mod.Ast.Statements {
		switch s := stmt.(type) {
		case *ast.FunctionDeclaration:
			if r.declareName(mod, s.Name, symbols.FunctionSymbol, s.Pub, s) && s.Pub {
				mod.Exports[s.Name.Value] = true
			}
		case *ast.StructDeclaration:
			if !r.declareName(mod, s.Name, symbols.StructSymbol, s.Pub, s) {
				continue
			}
			mod.SymbolTable.DefineStruct(structShape(mod.Path, s))
			if s.Pub {
				mod.Exports[s.Name.Value] = true
			}
		case *ast.TraitDeclaration:
			if !r.declareName(mod, s.Name, symbols.TraitSymbol, s.Pub, s) {
				continue
			}
			mod.SymbolTable.DefineTrait(traitContract(mod.Path, s))
			if s.Pub {
				mod.Exports[s.Name.Value] = true
			}
		case *ast.ImplDeclaration:
			mod.SymbolTable.AddImpl(implRecord(mod.Path, s))
		}
	}
}

// declareName defines a declaration-class symbol (function, struct, trait)
// at module scope. These never shadow: a second declaration of the name in
// the same module is R004.
func (r *Resolver) declareName(mod *Module, name *ast.Identifier, kind symbols.SymbolKind, pub bool, decl ast.Node) bool {
	if _, exists := mod.SymbolTable.FindLocal(name.Value); exists {
		r.errorf(diagnostics.ErrR004, name.Token, mod.Path,
			"%q is already declared in this module", name.Value)
		return false
	}
	mod.SymbolTable.Define(symbols.Symbol{
		Name:         name.Value,
		Kind:         kind,
		Mutability:   symbols.ConstBinding,
		Pub:          pub,
		OriginModule: mod.Path,
		DeclNode:     decl,
	})
	return true
}

func structShape(modulePath string, decl *ast.StructDeclaration) *symbols.StructShape {
	shape := &symbols.StructShape{
		Name:   decl.Name.Value,
		Module: modulePath,
		Pub:    decl.Pub,
	}
	for _, f := range decl.Fields {
		typeName := ""
		if f.TypeName != nil {
			typeName = f.TypeName.Value
		}
		shape.Fields = append(shape.Fields, symbols.StructShapeField{
			Name:     f.Name.Value,
			TypeName: typeName,
			Optional: f.Optional,
		})
	}
	return shape
}

func traitContract(modulePath string, decl *ast.TraitDeclaration) *symbols.TraitContract {
	contract := &symbols.TraitContract{
		Name:   decl.Name.Value,
		Module: modulePath,
		Pub:    decl.Pub,
	}
	for _, m := range decl.Methods {
		contract.Methods = append(contract.Methods, symbols.TraitRequirement{
			Name:  m.Name.Value,
			Arity: m.Arity,
		})
	}
	return contract
}

func implRecord(modulePath string, decl *ast.ImplDeclaration) *symbols.ImplRecord {
	rec := &symbols.ImplRecord{
		Trait:   decl.TraitName.Value,
		Target:  decl.Target.Value,
		Module:  modulePath,
		Methods: make(map[string]*ast.FunctionDeclaration),
		Decl:    decl,
	}
	for _, m := range decl.Methods {
		if _, dup := rec.Methods[m.Name.Value]; !dup {
			rec.Methods[m.Name.Value] = m
		}
	}
	return rec
}

func (r *Resolver) errorf(code diagnostics.ErrorCode, tok token.Token, modulePath string, format string, args ...interface{}) {
	d := diagnostics.NewError(code, tok, fmt.Sprintf(format, args...))
	d.Module = modulePath
	r.diags = append(r.diags, d)
}

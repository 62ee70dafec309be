package modules

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/symbols"
)

// SourceSet maps module paths to source text. The host (CLI, language server,
// embedding program) decides where text comes from; resolution itself never
// touches the filesystem.
type SourceSet map[string]string

// Module is one resolved compilation unit.
type Module struct {
	// Path is the import path, e.g. "geometry/shapes".
	Path string

	// Ast is the module body after macro expansion.
	Ast *ast.Module

	// SymbolTable is the module scope. Structs, traits and impls declared
	// by the module are registered on it.
	SymbolTable *symbols.SymbolTable

	// Exports lists the names declared pub.
	Exports map[string]bool

	// Imports maps the local alias to the imported module.
	Imports map[string]*Module

	// Failed is set when the module's own pipeline (lex, parse, expand)
	// reported errors. A failed module still occupies its path so that
	// importers do not re-report R002, but its bodies are not bound.
	Failed bool
}

// Exported reports whether the module declares name with pub.
func (m *Module) Exported(name string) bool {
	return m.Exports[name]
}

// ResolvedSet is the output of resolution: every reachable module bound into
// one program, plus the side tables later stages consume.
type ResolvedSet struct {
	// Entry is the path resolution started from.
	Entry string

	// Modules holds every module reached from the entry, keyed by path.
	Modules map[string]*Module

	// Order lists module paths with dependencies before dependents.
	// Lowering emits units in this order.
	Order []string

	// Resolution binds identifier and member-access nodes to the symbol
	// they refer to.
	Resolution map[ast.Node]symbols.Symbol

	// KnownShapes maps expression nodes whose struct type is statically
	// known (struct literals, and reads of let/const bindings initialized
	// with one) to the struct name. Match compilation uses it to decide
	// when exhaustiveness over declared fields is checkable.
	KnownShapes map[ast.Node]string
}

// Module returns the module at path, or nil.
func (s *ResolvedSet) Module(path string) *Module {
	return s.Modules[path]
}

// EntryModule returns the module resolution started from.
func (s *ResolvedSet) EntryModule() *Module {
	return s.Modules[s.Entry]
}

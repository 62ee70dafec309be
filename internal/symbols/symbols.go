package symbols

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
)

type SymbolKind int

const (
	VariableSymbol SymbolKind = iota
	FunctionSymbol
	StructSymbol
	TraitSymbol
	ModuleSymbol
	BuiltinSymbol
)

func (k SymbolKind) String() string {
	switch k {
	case VariableSymbol:
		return "variable"
	case FunctionSymbol:
		return "function"
	case StructSymbol:
		return "struct"
	case TraitSymbol:
		return "trait"
	case ModuleSymbol:
		return "module"
	case BuiltinSymbol:
		return "builtin"
	}
	return "symbol"
}

// Mutability is the binding class of a name. var is reassignable but not
// redeclarable in one scope; let is immutable but shadowable; const is
// neither. Function parameters and match bindings behave like let.
type Mutability int

const (
	VarBinding Mutability = iota
	LetBinding
	ConstBinding
)

func (m Mutability) String() string {
	switch m {
	case VarBinding:
		return "var"
	case LetBinding:
		return "let"
	case ConstBinding:
		return "const"
	}
	return "binding"
}

type ScopeType int

const (
	ScopePrelude ScopeType = iota // predeclared builtins
	ScopeModule                   // module top level
	ScopeFunction
	ScopeBlock
)

// Symbol is one resolved name. DeclNode points back into the AST so later
// stages can reach the declaration (struct fields, function bodies) without
// a second lookup structure.
type Symbol struct {
	Name         string
	Kind         SymbolKind
	Mutability   Mutability
	Pub          bool
	OriginModule string
	DeclNode     ast.Node
}

// StructShape is the checker-facing view of a struct declaration: ordered
// fields with their typespec names and optional markers.
type StructShape struct {
	Name   string
	Module string
	Pub    bool
	Fields []StructShapeField
}

type StructShapeField struct {
	Name     string
	TypeName string
	Optional bool
}

// Field returns the named field, if declared.
func (s *StructShape) Field(name string) (StructShapeField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return StructShapeField{}, false
}

// FieldNames returns the declared field names in declaration order.
func (s *StructShape) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// RequiredFieldNames returns the names of non-optional fields.
func (s *StructShape) RequiredFieldNames() []string {
	var names []string
	for _, f := range s.Fields {
		if !f.Optional {
			names = append(names, f.Name)
		}
	}
	return names
}

// TraitContract is one trait declaration: the methods an implementor must
// provide. Arity -1 leaves the arity unchecked.
type TraitContract struct {
	Name    string
	Module  string
	Pub     bool
	Methods []TraitRequirement
}

type TraitRequirement struct {
	Name  string
	Arity int
}

// Method returns the named requirement, if declared.
func (t *TraitContract) Method(name string) (TraitRequirement, bool) {
	for _, m := range t.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return TraitRequirement{}, false
}

// ImplRecord is one impl block: the methods a struct provides for a trait.
type ImplRecord struct {
	Trait   string
	Target  string
	Module  string
	Methods map[string]*ast.FunctionDeclaration
	Decl    *ast.ImplDeclaration
}

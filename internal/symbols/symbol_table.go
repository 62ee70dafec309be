package symbols

import "sort"

// SymbolTable is a lexical scope: a name store plus a pointer to the
// enclosing scope. Struct, trait and impl registries live on the module
// scope only; enclosed scopes delegate through the outer chain.
type SymbolTable struct {
	store     map[string]Symbol
	outer     *SymbolTable
	scopeType ScopeType

	structs map[string]*StructShape
	traits  map[string]*TraitContract
	impls   map[string][]*ImplRecord // trait name -> impl blocks
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		store:     make(map[string]Symbol),
		scopeType: ScopeModule,
		structs:   make(map[string]*StructShape),
		traits:    make(map[string]*TraitContract),
		impls:     make(map[string][]*ImplRecord),
	}
}

// NewPreludeTable builds the outermost scope holding predeclared builtins.
// Every module scope encloses one shared prelude, so a module-level
// declaration shadows a builtin instead of colliding with it.
func NewPreludeTable() *SymbolTable {
	return &SymbolTable{
		store:     make(map[string]Symbol),
		scopeType: ScopePrelude,
	}
}

func NewEnclosedSymbolTable(outer *SymbolTable, scopeType ScopeType) *SymbolTable {
	t := &SymbolTable{
		store:     make(map[string]Symbol),
		outer:     outer,
		scopeType: scopeType,
	}
	if scopeType == ScopeModule {
		t.structs = make(map[string]*StructShape)
		t.traits = make(map[string]*TraitContract)
		t.impls = make(map[string][]*ImplRecord)
	}
	return t
}

// Outer returns the enclosing scope, nil at the root.
func (s *SymbolTable) Outer() *SymbolTable { return s.outer }

func (s *SymbolTable) IsModuleScope() bool   { return s.scopeType == ScopeModule }
func (s *SymbolTable) IsFunctionScope() bool { return s.scopeType == ScopeFunction }

// Define binds sym.Name in this scope, replacing any previous binding with
// the same name here. Redeclaration policy is the resolver's business.
func (s *SymbolTable) Define(sym Symbol) {
	s.store[sym.Name] = sym
}

// Find resolves a name through the scope chain, innermost first.
func (s *SymbolTable) Find(name string) (Symbol, bool) {
	sym, _, ok := s.FindWithScope(name)
	return sym, ok
}

// FindWithScope resolves a name and reports the scope that defines it.
func (s *SymbolTable) FindWithScope(name string) (Symbol, *SymbolTable, bool) {
	if sym, ok := s.store[name]; ok {
		return sym, s, true
	}
	if s.outer != nil {
		return s.outer.FindWithScope(name)
	}
	return Symbol{}, nil, false
}

// FindLocal resolves a name in this scope only.
func (s *SymbolTable) FindLocal(name string) (Symbol, bool) {
	sym, ok := s.store[name]
	return sym, ok
}

// All returns the symbols of this scope only, for export collection.
func (s *SymbolTable) All() []Symbol {
	out := make([]Symbol, 0, len(s.store))
	for _, sym := range s.store {
		out = append(out, sym)
	}
	return out
}

// moduleScope walks to the scope that owns the registries.
func (s *SymbolTable) moduleScope() *SymbolTable {
	t := s
	for t.structs == nil && t.outer != nil {
		t = t.outer
	}
	return t
}

// DefineStruct registers a struct shape on the module scope.
func (s *SymbolTable) DefineStruct(shape *StructShape) {
	s.moduleScope().structs[shape.Name] = shape
}

// LookupStruct finds a struct shape by name through the scope chain.
func (s *SymbolTable) LookupStruct(name string) (*StructShape, bool) {
	m := s.moduleScope()
	if shape, ok := m.structs[name]; ok {
		return shape, true
	}
	if m.outer != nil {
		return m.outer.LookupStruct(name)
	}
	return nil, false
}

// DefineTrait registers a trait contract on the module scope.
func (s *SymbolTable) DefineTrait(contract *TraitContract) {
	s.moduleScope().traits[contract.Name] = contract
}

// LookupTrait finds a trait contract by name through the scope chain.
func (s *SymbolTable) LookupTrait(name string) (*TraitContract, bool) {
	m := s.moduleScope()
	if contract, ok := m.traits[name]; ok {
		return contract, true
	}
	if m.outer != nil {
		return m.outer.LookupTrait(name)
	}
	return nil, false
}

// AddImpl records an impl block under its trait name.
func (s *SymbolTable) AddImpl(rec *ImplRecord) {
	m := s.moduleScope()
	m.impls[rec.Trait] = append(m.impls[rec.Trait], rec)
}

// ImplsFor returns every recorded impl of the named trait, innermost module
// scope first.
func (s *SymbolTable) ImplsFor(trait string) []*ImplRecord {
	m := s.moduleScope()
	recs := append([]*ImplRecord(nil), m.impls[trait]...)
	if m.outer != nil {
		recs = append(recs, m.outer.ImplsFor(trait)...)
	}
	return recs
}

// ImplOf returns the impl of trait for target, if one is recorded.
func (s *SymbolTable) ImplOf(trait, target string) (*ImplRecord, bool) {
	for _, rec := range s.ImplsFor(trait) {
		if rec.Target == target {
			return rec, true
		}
	}
	return nil, false
}

// Structs returns the struct shapes registered on this module scope.
func (s *SymbolTable) Structs() map[string]*StructShape {
	return s.moduleScope().structs
}

// Traits returns the trait contracts registered on this module scope.
func (s *SymbolTable) Traits() map[string]*TraitContract {
	return s.moduleScope().traits
}

// Impls returns every impl record registered on this module scope, ordered
// by trait then target so callers iterate deterministically.
func (s *SymbolTable) Impls() []*ImplRecord {
	m := s.moduleScope()
	var out []*ImplRecord
	for _, recs := range m.impls {
		out = append(out, recs...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Trait != out[j].Trait {
			return out[i].Trait < out[j].Trait
		}
		return out[i].Target < out[j].Target
	})
	return out
}

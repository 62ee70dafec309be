package checker

import (
	"fmt"
	"sort"
	"strings"

	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/config"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/modules"
	"github.com/corrosion-lang/corrosion/internal/symbols"
	"github.com/corrosion-lang/corrosion/internal/token"
)

// Checker validates struct declarations, trait contracts and impl coverage
// over a resolved module set. It is the only static layer of the language:
// everything it cannot decide from declared shapes is left to run time.
type Checker struct {
	set   *modules.ResolvedSet
	diags []*diagnostics.DiagnosticError
}

// Check runs every struct/trait check over the resolved set and returns the
// collected diagnostics. Modules whose own pipeline failed are skipped; their
// errors were already reported.
func Check(set *modules.ResolvedSet) []*diagnostics.DiagnosticError {
	c := &Checker{set: set}
	for _, path := range set.Order {
		mod := set.Modules[path]
		if mod == nil || mod.Failed {
			continue
		}
		c.checkStructs(mod)
		c.checkImpls(mod)
		c.checkBodies(mod)
	}
	return c.diags
}

var builtinTypeNames = map[string]bool{
	config.IntTypeName:    true,
	config.FloatTypeName:  true,
	config.StringTypeName: true,
	config.BoolTypeName:   true,
	config.AnyTypeName:    true,
}

// IsBuiltinType reports whether name is a built-in dynamic type marker.
func IsBuiltinType(name string) bool { return builtinTypeNames[name] }

// checkStructs validates field-name uniqueness and that every field typespec
// names a declared struct or a built-in marker.
func (c *Checker) checkStructs(mod *modules.Module) {
	for name, shape := range mod.SymbolTable.Structs() {
		decl := c.structDecl(mod, name)
		seen := make(map[string]bool)
		for i, field := range shape.Fields {
			tok := token.Token{}
			if decl != nil && i < len(decl.Fields) {
				tok = decl.Fields[i].GetToken()
			}
			if seen[field.Name] {
				c.errorf(diagnostics.ErrT001, tok, mod.Path,
					"duplicate field %q in struct %s", field.Name, name)
			}
			seen[field.Name] = true

			if field.TypeName == "" || builtinTypeNames[field.TypeName] {
				continue
			}
			if _, ok := mod.SymbolTable.LookupStruct(field.TypeName); !ok {
				c.errorf(diagnostics.ErrT002, tok, mod.Path,
					"unknown type %q in field %s.%s", field.TypeName, name, field.Name)
			}
		}
	}
}

// checkImpls verifies that every impl block names a declared trait and a
// declared struct, and that the implementor covers every required method
// with a matching arity.
func (c *Checker) checkImpls(mod *modules.Module) {
	seen := make(map[string]bool)
	for _, rec := range mod.SymbolTable.Impls() {
		tok := rec.Decl.GetToken()

		contract, haveTrait := mod.SymbolTable.LookupTrait(rec.Trait)
		if !haveTrait {
			c.errorf(diagnostics.ErrT004, tok, mod.Path,
				"impl names unknown trait %q", rec.Trait)
		}
		if _, haveTarget := mod.SymbolTable.LookupStruct(rec.Target); !haveTarget {
			c.errorf(diagnostics.ErrT004, tok, mod.Path,
				"impl target %q is not a declared struct", rec.Target)
		}

		key := rec.Trait + " for " + rec.Target
		if seen[key] {
			c.errorf(diagnostics.ErrT004, tok, mod.Path, "duplicate impl %s", key)
			continue
		}
		seen[key] = true

		if !haveTrait {
			continue
		}
		c.checkImplCoverage(mod, rec, contract)
	}
}

// checkImplCoverage reports one diagnostic naming the trait, the implementor
// and every missing method, then checks arities of the methods that exist.
func (c *Checker) checkImplCoverage(mod *modules.Module, rec *symbols.ImplRecord, contract *symbols.TraitContract) {
	var missing []string
	for _, req := range contract.Methods {
		method, ok := rec.Methods[req.Name]
		if !ok {
			missing = append(missing, req.Name)
			continue
		}
		if req.Arity >= 0 && len(method.Params) != req.Arity {
			c.errorf(diagnostics.ErrT003, method.GetToken(), mod.Path,
				"method %s on %s has %d parameters, trait %s requires %d",
				req.Name, rec.Target, len(method.Params), rec.Trait, req.Arity)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		c.errorf(diagnostics.ErrT003, rec.Decl.GetToken(), mod.Path,
			"%s does not implement trait %s: missing %s",
			rec.Target, rec.Trait, strings.Join(missing, ", "))
	}
}

func (c *Checker) structDecl(mod *modules.Module, name string) *ast.StructDeclaration {
	sym, ok := mod.SymbolTable.FindLocal(name)
	if !ok {
		return nil
	}
	decl, _ := sym.DeclNode.(*ast.StructDeclaration)
	return decl
}

func (c *Checker) errorf(code diagnostics.ErrorCode, tok token.Token, modulePath string, format string, args ...interface{}) {
	d := diagnostics.NewError(code, tok, fmt.Sprintf(format, args...))
	d.Module = modulePath
	c.diags = append(c.diags, d)
}

func (c *Checker) warnf(code diagnostics.ErrorCode, tok token.Token, modulePath string, format string, args ...interface{}) {
	d := diagnostics.NewWarning(code, tok, fmt.Sprintf(format, args...))
	d.Module = modulePath
	c.diags = append(c.diags, d)
}

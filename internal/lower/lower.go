package lower

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/config"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/ir"
	"github.com/corrosion-lang/corrosion/internal/modules"
	"github.com/corrosion-lang/corrosion/internal/symbols"
)

// StartUnitName is the synthetic unit execution begins in: it runs every
// module's top-level code in dependency order, then the entry module's main
// function when one is declared.
const StartUnitName = "$start"

// InitUnitSuffix names a module's top-level-statements unit.
const InitUnitSuffix = ".$init"

// lowerer walks a resolved module set and emits one ir.Unit per function,
// impl method, closure and module top level. Pipe application and uniform
// call syntax are normalized to ordinary calls here, and nowhere else.
type lowerer struct {
	set   *modules.ResolvedSet
	out   *ir.Module
	diags []*diagnostics.DiagnosticError
}

// Lower converts a fully resolved and checked module set into one IR module.
// Error-severity diagnostics (non-exhaustive or ill-formed matches, surfaced
// by the pattern-match compiler) invalidate the returned module.
func Lower(set *modules.ResolvedSet) (*ir.Module, []*diagnostics.DiagnosticError) {
	lw := &lowerer{
		set: set,
		out: &ir.Module{
			BuildID: uuid.NewString(),
			Entry:   StartUnitName,
		},
	}

	for _, path := range set.Order {
		mod := set.Modules[path]
		if mod.Failed {
			continue
		}
		lw.lowerModule(mod)
	}
	lw.emitStart()

	sort.Slice(lw.out.Units, func(i, j int) bool {
		return lw.out.Units[i].Name < lw.out.Units[j].Name
	})
	return lw.out, lw.diags
}

func (lw *lowerer) lowerModule(mod *modules.Module) {
	lw.collectShapes(mod)
	lw.collectExports(mod)

	init := newUnitBuilder(lw, mod, mod.Path+InitUnitSuffix, nil, nil)
	for _, stmt := range mod.Ast.Statements {
		switch s := stmt.(type) {
		case *ast.FunctionDeclaration:
			lw.lowerFunction(mod, unitName(mod.Path, s.Name.Value), s.Params, s.Body, s.GetToken().Line)
		case *ast.ImplDeclaration:
			lw.lowerImpl(mod, s)
		case *ast.ImportDeclaration, *ast.StructDeclaration, *ast.TraitDeclaration, *ast.MacroDeclaration:
			// Declarations carry no runtime code of their own.
		default:
			init.lowerStatement(stmt)
		}
	}
	init.finishRet(ir.RegNone)
	lw.addUnit(init.unit)
}

func (lw *lowerer) lowerFunction(mod *modules.Module, name string, params []*ast.Identifier, body *ast.BlockExpression, line int) {
	b := newUnitBuilder(lw, mod, name, params, nil)
	b.unit.Line = line
	val := b.lowerBlockBody(body)
	b.finishRet(val)
	lw.addUnit(b.unit)
}

func (lw *lowerer) lowerImpl(mod *modules.Module, decl *ast.ImplDeclaration) {
	rec := ir.ConformanceRecord{
		Trait:  decl.TraitName.Value,
		Target: decl.Target.Value,
		Module: mod.Path,
	}
	for _, m := range decl.Methods {
		name := implUnitName(mod.Path, decl.TraitName.Value, decl.Target.Value, m.Name.Value)
		lw.lowerFunction(mod, name, m.Params, m.Body, m.GetToken().Line)
		rec.Methods = append(rec.Methods, ir.MethodBinding{Name: m.Name.Value, Unit: name})
	}
	sort.Slice(rec.Methods, func(i, j int) bool { return rec.Methods[i].Name < rec.Methods[j].Name })
	lw.out.Conformances = append(lw.out.Conformances, rec)
}

func (lw *lowerer) collectShapes(mod *modules.Module) {
	structs := mod.SymbolTable.Structs()
	names := make([]string, 0, len(structs))
	for name, shape := range structs {
		if shape.Module == mod.Path {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		shape := structs[name]
		rec := ir.ShapeRecord{Name: shape.Name, Module: shape.Module}
		for _, f := range shape.Fields {
			rec.Fields = append(rec.Fields, ir.ShapeField{
				Name:     f.Name,
				TypeName: f.TypeName,
				Optional: f.Optional,
			})
		}
		lw.out.Shapes = append(lw.out.Shapes, rec)
	}
}

func (lw *lowerer) collectExports(mod *modules.Module) {
	if len(mod.Exports) == 0 {
		return
	}
	names := make([]string, 0, len(mod.Exports))
	for name := range mod.Exports {
		names = append(names, name)
	}
	sort.Strings(names)
	lw.out.Exports = append(lw.out.Exports, ir.ExportRecord{Module: mod.Path, Names: names})
}

// emitStart builds the synthetic entry unit: run $init units in dependency
// order, then call the entry module's main function if it declares one.
func (lw *lowerer) emitStart() {
	u := &ir.Unit{Name: StartUnitName}
	blk := &ir.Block{}

	for _, path := range lw.set.Order {
		mod := lw.set.Modules[path]
		if mod.Failed {
			continue
		}
		blk.Instrs = append(blk.Instrs, ir.Instruction{
			Op:  ir.OpCall,
			Dst: ir.RegNone,
			Sym: path + InitUnitSuffix,
		})
	}

	ret := ir.Terminator{Kind: ir.TermRet, Val: ir.RegNone}
	entry := lw.set.EntryModule()
	if entry != nil && !entry.Failed {
		if sym, ok := entry.SymbolTable.FindLocal(config.EntryFunctionName); ok && sym.Kind == symbols.FunctionSymbol {
			blk.Instrs = append(blk.Instrs, ir.Instruction{
				Op:  ir.OpCall,
				Dst: 0,
				Sym: unitName(entry.Path, config.EntryFunctionName),
			})
			u.NumRegs = 1
			ret.Val = 0
		}
	}

	blk.Term = ret
	u.Blocks = []*ir.Block{blk}
	lw.addUnit(u)
}

func (lw *lowerer) addUnit(u *ir.Unit) {
	lw.out.Units = append(lw.out.Units, u)
}

func unitName(modulePath, name string) string {
	return modulePath + "." + name
}

func implUnitName(modulePath, trait, target, method string) string {
	return fmt.Sprintf("%s.%s.%s.%s", modulePath, trait, target, method)
}

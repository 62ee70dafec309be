package checker

import (
	"sort"
	"strings"

	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/modules"
)

// checkBodies walks every expression in the module looking for struct
// literals that disagree with the declared shape and for plain member access
// on optional fields. Resolution and known-shape facts come from the
// resolver's side tables; nothing here re-resolves names.
func (c *Checker) checkBodies(mod *modules.Module) {
	w := &bodyWalker{c: c, mod: mod}
	for _, stmt := range mod.Ast.Statements {
		w.statement(stmt)
	}
}

type bodyWalker struct {
	c   *Checker
	mod *modules.Module
}

func (w *bodyWalker) statement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		w.expression(s.Value)
	case *ast.AssignStatement:
		w.expression(s.Value)
	case *ast.FunctionDeclaration:
		w.block(s.Body)
	case *ast.ImplDeclaration:
		for _, m := range s.Methods {
			w.block(m.Body)
		}
	case *ast.ExpressionStatement:
		w.expression(s.Expression)
	case *ast.ReturnStatement:
		w.expression(s.Value)
	case *ast.WhileStatement:
		w.expression(s.Condition)
		w.block(s.Body)
	}
}

func (w *bodyWalker) block(b *ast.BlockExpression) {
	if b == nil {
		return
	}
	for _, stmt := range b.Statements {
		w.statement(stmt)
	}
}

func (w *bodyWalker) expression(expr ast.Expression) {
	switch e := expr.(type) {
	case nil:
	case *ast.PrefixExpression:
		w.expression(e.Right)
	case *ast.InfixExpression:
		w.expression(e.Left)
		w.expression(e.Right)
	case *ast.PipeExpression:
		w.expression(e.Left)
		w.expression(e.Right)
	case *ast.CallExpression:
		w.expression(e.Callee)
		for _, arg := range e.Arguments {
			w.expression(arg)
		}
	case *ast.MemberExpression:
		w.memberAccess(e)
		w.expression(e.Object)
	case *ast.StructLiteral:
		w.structLiteral(e)
	case *ast.IfExpression:
		w.expression(e.Condition)
		w.block(e.Then)
		w.expression(e.Else)
	case *ast.MatchExpression:
		w.expression(e.Scrutinee)
		for _, arm := range e.Arms {
			w.expression(arm.Guard)
			w.expression(arm.Body)
		}
	case *ast.BlockExpression:
		w.block(e)
	case *ast.FunctionLiteral:
		w.block(e.Body)
	}
}

// structLiteral checks the initializer list against the declared shape:
// every field must be declared, no field may repeat, and every required
// field must be present.
func (w *bodyWalker) structLiteral(sl *ast.StructLiteral) {
	for _, f := range sl.Fields {
		w.expression(f.Value)
	}

	shape, ok := w.mod.SymbolTable.LookupStruct(sl.TypeName.Value)
	if !ok {
		// The resolver already reported the unknown name.
		return
	}

	given := make(map[string]bool)
	for _, f := range sl.Fields {
		if _, declared := shape.Field(f.Name.Value); !declared {
			w.c.errorf(diagnostics.ErrT006, f.GetToken(), w.mod.Path,
				"struct %s has no field %q", shape.Name, f.Name.Value)
			continue
		}
		if given[f.Name.Value] {
			w.c.errorf(diagnostics.ErrT006, f.GetToken(), w.mod.Path,
				"field %q given more than once in %s literal", f.Name.Value, shape.Name)
		}
		given[f.Name.Value] = true
	}

	var missing []string
	for _, name := range shape.RequiredFieldNames() {
		if !given[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		w.c.errorf(diagnostics.ErrT007, sl.GetToken(), w.mod.Path,
			"%s literal is missing required fields: %s", shape.Name, strings.Join(missing, ", "))
	}
}

// memberAccess surfaces the optional-field obligation: reading an optional
// field with plain `.` may observe an absent value, so the sanctioned form
// is `?.`. This is a diagnosis, not a hard error.
func (w *bodyWalker) memberAccess(me *ast.MemberExpression) {
	if me.Safe {
		return
	}
	shapeName, known := w.c.set.KnownShapes[me.Object]
	if !known {
		return
	}
	shape, ok := w.mod.SymbolTable.LookupStruct(shapeName)
	if !ok {
		return
	}
	field, declared := shape.Field(me.Member.Value)
	if declared && field.Optional {
		w.c.warnf(diagnostics.WarnT005, me.Member.Token, w.mod.Path,
			"field %s.%s is optional; use ?. to read it nil-safely",
			shape.Name, field.Name)
	}
}

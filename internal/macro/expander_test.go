package macro_test

import (
	"testing"

	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/macro"
	"github.com/corrosion-lang/corrosion/internal/parser"
)

func expand(t *testing.T, input string, depth int) (*ast.Module, []*diagnostics.DiagnosticError) {
	t.Helper()
	mod, errs := parser.Parse("main", input)
	if len(errs) > 0 {
		t.Fatalf("parse failed: %v", errs)
	}
	exp := macro.New(depth)
	mod = exp.ExpandModule(mod)
	return mod, exp.Diagnostics()
}

func expectMacroError(t *testing.T, input string, code diagnostics.ErrorCode) {
	t.Helper()
	_, diags := expand(t, input, 16)
	for _, d := range diags {
		if d.Code == code {
			return
		}
	}
	t.Fatalf("expected diagnostic %s, got %v", code, diags)
}

// countMacroCalls walks an expanded module and counts call nodes whose callee
// still names one of the given macros.
func countMacroCalls(node ast.Node, names map[string]bool) int {
	count := 0
	var walkExpr func(ast.Expression)
	var walkStmt func(ast.Statement)

	walkBlock := func(b *ast.BlockExpression) {
		if b == nil {
			return
		}
		for _, s := range b.Statements {
			walkStmt(s)
		}
	}
	walkExpr = func(e ast.Expression) {
		switch x := e.(type) {
		case *ast.CallExpression:
			if id, ok := x.Callee.(*ast.Identifier); ok && names[id.Value] {
				count++
			}
			walkExpr(x.Callee)
			for _, a := range x.Arguments {
				walkExpr(a)
			}
		case *ast.PrefixExpression:
			walkExpr(x.Right)
		case *ast.InfixExpression:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.PipeExpression:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.MemberExpression:
			walkExpr(x.Object)
		case *ast.StructLiteral:
			for _, f := range x.Fields {
				walkExpr(f.Value)
			}
		case *ast.IfExpression:
			walkExpr(x.Condition)
			walkBlock(x.Then)
			walkExpr(x.Else)
		case *ast.MatchExpression:
			walkExpr(x.Scrutinee)
			for _, arm := range x.Arms {
				walkExpr(arm.Guard)
				walkExpr(arm.Body)
			}
		case *ast.BlockExpression:
			walkBlock(x)
		case *ast.FunctionLiteral:
			walkBlock(x.Body)
		case nil:
		}
	}
	walkStmt = func(s ast.Statement) {
		switch x := s.(type) {
		case *ast.VarDeclaration:
			walkExpr(x.Value)
		case *ast.AssignStatement:
			walkExpr(x.Value)
		case *ast.FunctionDeclaration:
			walkBlock(x.Body)
		case *ast.ImplDeclaration:
			for _, m := range x.Methods {
				walkBlock(m.Body)
			}
		case *ast.ExpressionStatement:
			walkExpr(x.Expression)
		case *ast.ReturnStatement:
			walkExpr(x.Value)
		case *ast.WhileStatement:
			walkExpr(x.Condition)
			walkBlock(x.Body)
		}
	}

	if mod, ok := node.(*ast.Module); ok {
		for _, s := range mod.Statements {
			walkStmt(s)
		}
	}
	return count
}

func TestSimpleExpansion(t *testing.T) {
	mod, diags := expand(t, "macro twice(x) { x + x }\nlet y = twice(3)", 16)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	if len(mod.Statements) != 1 {
		t.Fatalf("expected 1 statement after expansion, got %d", len(mod.Statements))
	}
	decl, ok := mod.Statements[0].(*ast.VarDeclaration)
	if !ok {
		t.Fatalf("expected var declaration, got %T", mod.Statements[0])
	}
	block, ok := decl.Value.(*ast.BlockExpression)
	if !ok {
		t.Fatalf("expected expanded body block, got %T", decl.Value)
	}
	if len(block.Statements) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(block.Statements))
	}
	es, ok := block.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected expression statement, got %T", block.Statements[0])
	}
	infix, ok := es.Expression.(*ast.InfixExpression)
	if !ok || infix.Operator != "+" {
		t.Fatalf("expected substituted addition, got %T", es.Expression)
	}
	left, ok := infix.Left.(*ast.IntegerLiteral)
	if !ok || left.Value != 3 {
		t.Errorf("expected left operand 3, got %v", infix.Left)
	}
	right, ok := infix.Right.(*ast.IntegerLiteral)
	if !ok || right.Value != 3 {
		t.Errorf("expected right operand 3, got %v", infix.Right)
	}
	if left == right {
		t.Error("substituted arguments must be independent copies")
	}
}

func TestNestedMacroExpansion(t *testing.T) {
	input := `macro inc(x) { x + 1 }
macro incTwice(x) { inc(inc(x)) }
let y = incTwice(5)`

	mod, diags := expand(t, input, 16)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	names := map[string]bool{"inc": true, "incTwice": true}
	if n := countMacroCalls(mod, names); n != 0 {
		t.Errorf("expected no residual macro invocations, found %d", n)
	}
}

func TestMacroDeclarationsStripped(t *testing.T) {
	mod, diags := expand(t, "macro id(x) { x }\nlet a = id(1)\nlet b = 2", 16)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	for _, stmt := range mod.Statements {
		if _, ok := stmt.(*ast.MacroDeclaration); ok {
			t.Error("macro declaration survived expansion")
		}
	}
	if len(mod.Statements) != 2 {
		t.Errorf("expected 2 statements, got %d", len(mod.Statements))
	}
}

func TestRecursiveMacroHitsDepthLimit(t *testing.T) {
	expectMacroError(t, "macro forever(x) { forever(x) }\nlet a = forever(1)", diagnostics.ErrM001)
}

func TestMutuallyRecursiveMacrosHitDepthLimit(t *testing.T) {
	input := `macro ping(x) { pong(x) }
macro pong(x) { ping(x) }
let a = ping(1)`
	expectMacroError(t, input, diagnostics.ErrM001)
}

func TestArityMismatch(t *testing.T) {
	expectMacroError(t, "macro pair(a, b) { a + b }\nlet x = pair(1)", diagnostics.ErrM002)
	expectMacroError(t, "macro one(a) { a }\nlet x = one(1, 2)", diagnostics.ErrM002)
}

func TestDuplicateMacroDeclaration(t *testing.T) {
	expectMacroError(t, "macro m(a) { a }\nmacro m(b) { b }\nlet x = m(1)", diagnostics.ErrM004)
}

// The parser reports its own diagnostic for duplicate parameters, so this
// exercises the expander's check with a hand-built tree.
func TestDuplicateMacroParameter(t *testing.T) {
	param := func(name string) *ast.Identifier { return &ast.Identifier{Value: name} }
	decl := &ast.MacroDeclaration{
		Name:   param("bad"),
		Params: []*ast.Identifier{param("a"), param("a")},
		Body:   &ast.BlockExpression{},
	}
	mod := &ast.Module{Statements: []ast.Statement{decl}}

	exp := macro.New(4)
	exp.ExpandModule(mod)

	for _, d := range exp.Diagnostics() {
		if d.Code == diagnostics.ErrM003 {
			return
		}
	}
	t.Fatalf("expected %s, got %v", diagnostics.ErrM003, exp.Diagnostics())
}

func TestHygieneProtectsCallSiteNames(t *testing.T) {
	input := `macro addTemp(e) {
    let tmp = 100
    e + tmp
}
let tmp = 1
let r = addTemp(tmp)`

	mod, diags := expand(t, input, 16)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	decl, ok := mod.Statements[1].(*ast.VarDeclaration)
	if !ok || decl.Name.Value != "r" {
		t.Fatalf("expected r declaration second, got %v", mod.Statements[1])
	}
	block, ok := decl.Value.(*ast.BlockExpression)
	if !ok {
		t.Fatalf("expected expanded block, got %T", decl.Value)
	}

	inner, ok := block.Statements[0].(*ast.VarDeclaration)
	if !ok {
		t.Fatalf("expected inner let, got %T", block.Statements[0])
	}
	if inner.Name.Value == "tmp" {
		t.Error("macro-introduced binding kept its source name and can capture the call site")
	}
	if diagnostics.DisplayName(inner.Name.Value) != "tmp" {
		t.Errorf("display name should recover the source name, got %q", diagnostics.DisplayName(inner.Name.Value))
	}

	es, ok := block.Statements[1].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected expression statement, got %T", block.Statements[1])
	}
	sum, ok := es.Expression.(*ast.InfixExpression)
	if !ok {
		t.Fatalf("expected addition, got %T", es.Expression)
	}
	left, ok := sum.Left.(*ast.Identifier)
	if !ok || left.Value != "tmp" {
		t.Errorf("substituted argument must keep the caller's name, got %v", sum.Left)
	}
	right, ok := sum.Right.(*ast.Identifier)
	if !ok || right.Value != inner.Name.Value {
		t.Errorf("body reference must follow the renamed binding, got %v", sum.Right)
	}
}

func TestHygieneRenamesMatchBindings(t *testing.T) {
	input := `macro classify(e) {
    match e {
        v if v > 0 => v
        _ => 0
    }
}
let v = -5
let r = classify(v)`

	mod, diags := expand(t, input, 16)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	decl := mod.Statements[1].(*ast.VarDeclaration)
	block := decl.Value.(*ast.BlockExpression)
	es := block.Statements[0].(*ast.ExpressionStatement)
	m, ok := es.Expression.(*ast.MatchExpression)
	if !ok {
		t.Fatalf("expected match, got %T", es.Expression)
	}

	scrutinee, ok := m.Scrutinee.(*ast.Identifier)
	if !ok || scrutinee.Value != "v" {
		t.Errorf("scrutinee must be the caller's v, got %v", m.Scrutinee)
	}

	pat, ok := m.Arms[0].Pattern.(*ast.IdentifierPattern)
	if !ok {
		t.Fatalf("expected identifier pattern, got %T", m.Arms[0].Pattern)
	}
	if pat.Name.Value == "v" {
		t.Error("arm binding kept its source name and shadows the caller's v unhygienically")
	}
	guard, ok := m.Arms[0].Guard.(*ast.InfixExpression)
	if !ok {
		t.Fatalf("expected guard comparison, got %T", m.Arms[0].Guard)
	}
	guardLeft, ok := guard.Left.(*ast.Identifier)
	if !ok || guardLeft.Value != pat.Name.Value {
		t.Errorf("guard must reference the renamed binding, got %v", guard.Left)
	}
}

func TestShadowingParamInsideBody(t *testing.T) {
	input := `macro shadow(e) {
    let e = 7
    e
}
let r = shadow(99)`

	mod, diags := expand(t, input, 16)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	decl := mod.Statements[0].(*ast.VarDeclaration)
	block := decl.Value.(*ast.BlockExpression)
	inner := block.Statements[0].(*ast.VarDeclaration)
	lit, ok := inner.Value.(*ast.IntegerLiteral)
	if !ok || lit.Value != 7 {
		t.Fatalf("shadowing let must keep its literal initializer, got %v", inner.Value)
	}
	es := block.Statements[1].(*ast.ExpressionStatement)
	use, ok := es.Expression.(*ast.Identifier)
	if !ok || use.Value != inner.Name.Value {
		t.Errorf("trailing expression must reference the local binding, got %v", es.Expression)
	}
}

func TestMacroAsStatement(t *testing.T) {
	input := `macro logTwice(e) {
    print(e)
    print(e)
}
fn run(x) {
    logTwice(x)
}`

	mod, diags := expand(t, input, 16)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}

	fn := mod.Statements[0].(*ast.FunctionDeclaration)
	es, ok := fn.Body.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected expression statement, got %T", fn.Body.Statements[0])
	}
	block, ok := es.Expression.(*ast.BlockExpression)
	if !ok {
		t.Fatalf("expected expanded block in statement position, got %T", es.Expression)
	}
	if len(block.Statements) != 2 {
		t.Errorf("expected both body statements, got %d", len(block.Statements))
	}
}

func TestExpansionInsideControlFlow(t *testing.T) {
	input := `macro double(x) { x * 2 }
fn f(n) {
    if double(n) > 10 {
        while double(n) < 100 {
            n = n + 1
        }
    }
    match double(n) {
        0 => 0
        _ => 1
    }
}`

	mod, diags := expand(t, input, 16)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if n := countMacroCalls(mod, map[string]bool{"double": true}); n != 0 {
		t.Errorf("expected no residual invocations, found %d", n)
	}
}

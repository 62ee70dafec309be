package prettyprinter

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/corrosion-lang/corrosion/internal/ast"
)

// --- Tree Printer (structural AST dump) ---

// TreePrinter renders the AST as an indented node tree. Positions are
// omitted so two parses of equivalent source compare equal.
type TreePrinter struct {
	buf    bytes.Buffer
	indent int
}

func NewTreePrinter() *TreePrinter {
	return &TreePrinter{}
}

func (t *TreePrinter) String() string {
	return t.buf.String()
}

func (t *TreePrinter) line(format string, args ...interface{}) {
	for i := 0; i < t.indent; i++ {
		t.buf.WriteString("  ")
	}
	fmt.Fprintf(&t.buf, format, args...)
	t.buf.WriteByte('\n')
}

func (t *TreePrinter) child(n ast.Node) {
	if n == nil {
		t.indent++
		t.line("<nil>")
		t.indent--
		return
	}
	t.indent++
	n.Accept(t)
	t.indent--
}

func (t *TreePrinter) VisitModule(n *ast.Module) {
	t.line("Module")
	for _, imp := range n.Imports {
		t.child(imp)
	}
	for _, stmt := range n.Statements {
		t.child(stmt)
	}
}

func (t *TreePrinter) VisitImportDeclaration(n *ast.ImportDeclaration) {
	if n.Alias != nil {
		t.line("Import (%q as %s)", n.Path.Value, n.Alias.Value)
	} else {
		t.line("Import (%q)", n.Path.Value)
	}
}

func (t *TreePrinter) VisitVarDeclaration(n *ast.VarDeclaration) {
	pub := ""
	if n.Pub {
		pub = " pub"
	}
	t.line("VarDeclaration (%s %s%s)", n.Keyword(), n.Name.Value, pub)
	t.child(n.Value)
}

func (t *TreePrinter) VisitFunctionDeclaration(n *ast.FunctionDeclaration) {
	pub := ""
	if n.Pub {
		pub = " pub"
	}
	t.line("FunctionDeclaration (%s/%d%s)", n.Name.Value, len(n.Params), pub)
	for _, param := range n.Params {
		t.indent++
		t.line("Param (%s)", param.Value)
		t.indent--
	}
	t.child(n.Body)
}

func (t *TreePrinter) VisitStructDeclaration(n *ast.StructDeclaration) {
	pub := ""
	if n.Pub {
		pub = " pub"
	}
	t.line("StructDeclaration (%s%s)", n.Name.Value, pub)
	for _, f := range n.Fields {
		opt := ""
		if f.Optional {
			opt = "?"
		}
		t.indent++
		t.line("Field (%s%s: %s)", f.Name.Value, opt, f.TypeName.Value)
		t.indent--
	}
}

func (t *TreePrinter) VisitTraitDeclaration(n *ast.TraitDeclaration) {
	pub := ""
	if n.Pub {
		pub = " pub"
	}
	t.line("TraitDeclaration (%s%s)", n.Name.Value, pub)
	for _, m := range n.Methods {
		t.indent++
		if m.Arity < 0 {
			t.line("Method (%s)", m.Name.Value)
		} else {
			t.line("Method (%s/%d)", m.Name.Value, m.Arity)
		}
		t.indent--
	}
}

func (t *TreePrinter) VisitImplDeclaration(n *ast.ImplDeclaration) {
	t.line("ImplDeclaration (%s for %s)", n.TraitName.Value, n.Target.Value)
	for _, m := range n.Methods {
		t.child(m)
	}
}

func (t *TreePrinter) VisitMacroDeclaration(n *ast.MacroDeclaration) {
	pub := ""
	if n.Pub {
		pub = " pub"
	}
	t.line("MacroDeclaration (%s/%d%s)", n.Name.Value, len(n.Params), pub)
	for _, param := range n.Params {
		t.indent++
		t.line("Param (%s)", param.Value)
		t.indent--
	}
	t.child(n.Body)
}

func (t *TreePrinter) VisitAssignStatement(n *ast.AssignStatement) {
	t.line("Assign (%s)", n.Target.Value)
	t.child(n.Value)
}

func (t *TreePrinter) VisitExpressionStatement(n *ast.ExpressionStatement) {
	t.line("ExpressionStatement")
	t.child(n.Expression)
}

func (t *TreePrinter) VisitReturnStatement(n *ast.ReturnStatement) {
	t.line("Return")
	if n.Value != nil {
		t.child(n.Value)
	}
}

func (t *TreePrinter) VisitWhileStatement(n *ast.WhileStatement) {
	t.line("While")
	t.child(n.Condition)
	t.child(n.Body)
}

func (t *TreePrinter) VisitBreakStatement(n *ast.BreakStatement) {
	t.line("Break")
}

func (t *TreePrinter) VisitContinueStatement(n *ast.ContinueStatement) {
	t.line("Continue")
}

func (t *TreePrinter) VisitIdentifier(n *ast.Identifier) {
	t.line("Identifier (%s)", n.Value)
}

func (t *TreePrinter) VisitIntegerLiteral(n *ast.IntegerLiteral) {
	t.line("Integer (%d)", n.Value)
}

func (t *TreePrinter) VisitFloatLiteral(n *ast.FloatLiteral) {
	t.line("Float (%s)", strconv.FormatFloat(n.Value, 'g', -1, 64))
}

func (t *TreePrinter) VisitStringLiteral(n *ast.StringLiteral) {
	t.line("String (%q)", n.Value)
}

func (t *TreePrinter) VisitBooleanLiteral(n *ast.BooleanLiteral) {
	t.line("Boolean (%v)", n.Value)
}

func (t *TreePrinter) VisitNilLiteral(n *ast.NilLiteral) {
	t.line("Nil")
}

func (t *TreePrinter) VisitPrefixExpression(n *ast.PrefixExpression) {
	t.line("Prefix (%s)", n.Operator)
	t.child(n.Right)
}

func (t *TreePrinter) VisitInfixExpression(n *ast.InfixExpression) {
	t.line("Infix (%s)", n.Operator)
	t.child(n.Left)
	t.child(n.Right)
}

func (t *TreePrinter) VisitPipeExpression(n *ast.PipeExpression) {
	t.line("Pipe")
	t.child(n.Left)
	t.child(n.Right)
}

func (t *TreePrinter) VisitCallExpression(n *ast.CallExpression) {
	t.line("Call")
	t.child(n.Callee)
	for _, arg := range n.Arguments {
		t.child(arg)
	}
}

func (t *TreePrinter) VisitMemberExpression(n *ast.MemberExpression) {
	if n.Safe {
		t.line("Member (?.%s)", n.Member.Value)
	} else {
		t.line("Member (.%s)", n.Member.Value)
	}
	t.child(n.Object)
}

func (t *TreePrinter) VisitStructLiteral(n *ast.StructLiteral) {
	t.line("StructLiteral (%s)", n.TypeName.Value)
	for _, f := range n.Fields {
		t.indent++
		t.line("FieldInit (%s)", f.Name.Value)
		t.child(f.Value)
		t.indent--
	}
}

func (t *TreePrinter) VisitIfExpression(n *ast.IfExpression) {
	t.line("If")
	t.child(n.Condition)
	t.child(n.Then)
	if n.Else != nil {
		t.child(n.Else)
	}
}

func (t *TreePrinter) VisitMatchExpression(n *ast.MatchExpression) {
	t.line("Match")
	t.child(n.Scrutinee)
	for _, arm := range n.Arms {
		t.indent++
		if arm.Guard != nil {
			t.line("Arm (guarded)")
		} else {
			t.line("Arm")
		}
		t.child(arm.Pattern)
		if arm.Guard != nil {
			t.child(arm.Guard)
		}
		t.child(arm.Body)
		t.indent--
	}
}

func (t *TreePrinter) VisitBlockExpression(n *ast.BlockExpression) {
	t.line("Block")
	for _, stmt := range n.Statements {
		t.child(stmt)
	}
}

func (t *TreePrinter) VisitFunctionLiteral(n *ast.FunctionLiteral) {
	t.line("FunctionLiteral (/%d)", len(n.Params))
	for _, param := range n.Params {
		t.indent++
		t.line("Param (%s)", param.Value)
		t.indent--
	}
	t.child(n.Body)
}

func (t *TreePrinter) VisitWildcardPattern(n *ast.WildcardPattern) {
	t.line("WildcardPattern")
}

func (t *TreePrinter) VisitIdentifierPattern(n *ast.IdentifierPattern) {
	t.line("IdentifierPattern (%s)", n.Name.Value)
}

func (t *TreePrinter) VisitLiteralPattern(n *ast.LiteralPattern) {
	t.line("LiteralPattern")
	t.child(n.Value)
}

func (t *TreePrinter) VisitStructPattern(n *ast.StructPattern) {
	t.line("StructPattern (%s)", n.TypeName.Value)
	for _, f := range n.Fields {
		t.indent++
		if f.Pattern == nil {
			t.line("FieldPattern (%s pun)", f.Name.Value)
		} else {
			t.line("FieldPattern (%s)", f.Name.Value)
			t.child(f.Pattern)
		}
		t.indent--
	}
}

func (t *TreePrinter) VisitOrPattern(n *ast.OrPattern) {
	t.line("OrPattern")
	for _, alt := range n.Alternatives {
		t.child(alt)
	}
}

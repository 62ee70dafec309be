package prettyprinter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/corrosion-lang/corrosion/internal/ast"
)

// --- Code Printer (output looks like source code) ---

// Operator precedence (higher = binds tighter). Mirrors the parser's table
// so parentheses are emitted only where reparsing would otherwise change the
// tree.
var operatorPrecedence = map[string]int{
	"|>":  1,
	"or":  2,
	"and": 3,
	"==":  4,
	"!=":  4,
	"<":   5,
	">":   5,
	"<=":  5,
	">=":  5,
	"+":   6,
	"-":   6,
	"*":   7,
	"/":   7,
	"%":   7,
}

func getPrecedence(op string) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 10 // default high precedence for unknown ops
}

// CodePrinter reconstructs source text from an AST. Reparsing its output
// yields a structurally identical tree.
type CodePrinter struct {
	buf    bytes.Buffer
	indent int
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

// --- statements ---

func (p *CodePrinter) printStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.VarDeclaration:
		if s.Pub {
			p.write("pub ")
		}
		p.write(s.Keyword())
		p.write(" ")
		p.write(s.Name.Value)
		p.write(" = ")
		p.printExpr(s.Value, 0)
	case *ast.AssignStatement:
		p.write(s.Target.Value)
		p.write(" = ")
		p.printExpr(s.Value, 0)
	case *ast.FunctionDeclaration:
		if s.Pub {
			p.write("pub ")
		}
		p.write("fn ")
		p.write(s.Name.Value)
		p.printParams(s.Params)
		p.write(" ")
		p.printBlock(s.Body)
	case *ast.StructDeclaration:
		p.printStructDeclaration(s)
	case *ast.TraitDeclaration:
		p.printTraitDeclaration(s)
	case *ast.ImplDeclaration:
		p.printImplDeclaration(s)
	case *ast.MacroDeclaration:
		if s.Pub {
			p.write("pub ")
		}
		p.write("macro ")
		p.write(s.Name.Value)
		p.printParams(s.Params)
		p.write(" ")
		p.printBlock(s.Body)
	case *ast.ReturnStatement:
		p.write("return")
		if s.Value != nil {
			p.write(" ")
			p.printExpr(s.Value, 0)
		}
	case *ast.WhileStatement:
		p.write("while ")
		p.printExpr(s.Condition, 0)
		p.write(" ")
		p.printBlock(s.Body)
	case *ast.BreakStatement:
		p.write("break")
	case *ast.ContinueStatement:
		p.write("continue")
	case *ast.ExpressionStatement:
		p.printExpr(s.Expression, 0)
	default:
		p.write("<?stmt?>")
	}
}

func (p *CodePrinter) printParams(params []*ast.Identifier) {
	p.write("(")
	for i, param := range params {
		if i > 0 {
			p.write(", ")
		}
		p.write(param.Value)
	}
	p.write(")")
}

func (p *CodePrinter) printStructDeclaration(s *ast.StructDeclaration) {
	if s.Pub {
		p.write("pub ")
	}
	p.write("struct ")
	p.write(s.Name.Value)
	p.write(" {")
	if len(s.Fields) == 0 {
		p.write("}")
		return
	}
	p.write("\n")
	p.indent++
	for _, field := range s.Fields {
		p.writeIndent()
		p.write(field.Name.Value)
		if field.Optional {
			p.write("?")
		}
		p.write(": ")
		p.write(field.TypeName.Value)
		p.write(",\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) printTraitDeclaration(s *ast.TraitDeclaration) {
	if s.Pub {
		p.write("pub ")
	}
	p.write("trait ")
	p.write(s.Name.Value)
	p.write(" {")
	if len(s.Methods) == 0 {
		p.write("}")
		return
	}
	p.write("\n")
	p.indent++
	for _, m := range s.Methods {
		p.writeIndent()
		if m.Arity < 0 {
			p.write(m.Name.Value)
		} else {
			p.write("fn ")
			p.write(m.Name.Value)
			p.write("(")
			// Trait signatures record arity, not names; self stands first by
			// convention.
			for i := 0; i < m.Arity; i++ {
				if i > 0 {
					p.write(", ")
				}
				if i == 0 {
					p.write("self")
				} else {
					p.write(fmt.Sprintf("a%d", i))
				}
			}
			p.write(")")
		}
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) printImplDeclaration(s *ast.ImplDeclaration) {
	p.write("impl ")
	p.write(s.TraitName.Value)
	p.write(" for ")
	p.write(s.Target.Value)
	p.write(" {")
	if len(s.Methods) == 0 {
		p.write("}")
		return
	}
	p.write("\n")
	p.indent++
	for _, m := range s.Methods {
		p.writeIndent()
		p.printStatement(m)
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

// --- expressions ---

// printExpr prints an expression, adding parentheses only if needed.
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int) {
	if expr == nil {
		p.write("<???>")
		return
	}
	switch e := expr.(type) {
	case *ast.Identifier:
		p.write(e.Value)
	case *ast.IntegerLiteral:
		p.write(strconv.FormatInt(e.Value, 10))
	case *ast.FloatLiteral:
		p.write(formatFloat(e.Value))
	case *ast.StringLiteral:
		p.write(quoteString(e.Value))
	case *ast.BooleanLiteral:
		if e.Value {
			p.write("true")
		} else {
			p.write("false")
		}
	case *ast.NilLiteral:
		p.write("nil")
	case *ast.PrefixExpression:
		if parentPrec > 8 {
			p.write("(")
			p.write(e.Operator)
			p.printExpr(e.Right, 8)
			p.write(")")
			return
		}
		p.write(e.Operator)
		p.printExpr(e.Right, 8)
	case *ast.InfixExpression:
		prec := getPrecedence(e.Operator)
		if prec < parentPrec {
			p.write("(")
			p.printExpr(e.Left, prec)
			p.write(" " + e.Operator + " ")
			p.printExpr(e.Right, prec+1)
			p.write(")")
			return
		}
		p.printExpr(e.Left, prec)
		p.write(" " + e.Operator + " ")
		p.printExpr(e.Right, prec+1)
	case *ast.PipeExpression:
		prec := getPrecedence("|>")
		if prec < parentPrec {
			p.write("(")
			p.printExpr(e.Left, prec)
			p.write(" |> ")
			p.printExpr(e.Right, prec+1)
			p.write(")")
			return
		}
		p.printExpr(e.Left, prec)
		p.write(" |> ")
		p.printExpr(e.Right, prec+1)
	case *ast.CallExpression:
		p.printExpr(e.Callee, 9)
		p.write("(")
		for i, arg := range e.Arguments {
			if i > 0 {
				p.write(", ")
			}
			p.printExpr(arg, 0)
		}
		p.write(")")
	case *ast.MemberExpression:
		p.printExpr(e.Object, 9)
		if e.Safe {
			p.write("?.")
		} else {
			p.write(".")
		}
		p.write(e.Member.Value)
	case *ast.StructLiteral:
		p.write(e.TypeName.Value)
		p.write("{")
		for i, field := range e.Fields {
			if i > 0 {
				p.write(", ")
			}
			p.write(field.Name.Value)
			p.write(": ")
			p.printExpr(field.Value, 0)
		}
		p.write("}")
	case *ast.IfExpression:
		p.write("if ")
		p.printExpr(e.Condition, 0)
		p.write(" ")
		p.printBlock(e.Then)
		if e.Else != nil {
			p.write(" else ")
			if elseIf, ok := e.Else.(*ast.IfExpression); ok {
				p.printExpr(elseIf, 0)
			} else if block, ok := e.Else.(*ast.BlockExpression); ok {
				p.printBlock(block)
			}
		}
	case *ast.MatchExpression:
		p.printMatch(e)
	case *ast.BlockExpression:
		p.printBlock(e)
	case *ast.FunctionLiteral:
		p.write("fn")
		p.printParams(e.Params)
		p.write(" ")
		p.printBlock(e.Body)
	default:
		p.write("<?expr?>")
	}
}

func (p *CodePrinter) printBlock(block *ast.BlockExpression) {
	if block == nil {
		p.write("{}")
		return
	}
	if len(block.Statements) == 0 {
		p.write("{}")
		return
	}
	p.write("{\n")
	p.indent++
	for _, stmt := range block.Statements {
		p.writeIndent()
		p.printStatement(stmt)
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) printMatch(m *ast.MatchExpression) {
	p.write("match ")
	p.printExpr(m.Scrutinee, 0)
	p.write(" {\n")
	p.indent++
	for _, arm := range m.Arms {
		p.writeIndent()
		p.printPattern(arm.Pattern)
		if arm.Guard != nil {
			p.write(" if ")
			p.printExpr(arm.Guard, 0)
		}
		p.write(" => ")
		p.printExpr(arm.Body, 0)
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) printPattern(pat ast.Pattern) {
	switch pt := pat.(type) {
	case *ast.WildcardPattern:
		p.write("_")
	case *ast.IdentifierPattern:
		p.write(pt.Name.Value)
	case *ast.LiteralPattern:
		p.printExpr(pt.Value, 0)
	case *ast.StructPattern:
		p.write(pt.TypeName.Value)
		if len(pt.Fields) == 0 {
			return
		}
		p.write("{")
		for i, field := range pt.Fields {
			if i > 0 {
				p.write(", ")
			}
			p.write(field.Name.Value)
			if field.Pattern != nil {
				p.write(": ")
				p.printPattern(field.Pattern)
			}
		}
		p.write("}")
	case *ast.OrPattern:
		for i, alt := range pt.Alternatives {
			if i > 0 {
				p.write(" | ")
			}
			p.printPattern(alt)
		}
	default:
		p.write("<?pat?>")
	}
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Keep a decimal point so the literal reparses as a float.
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		case '\r':
			b.WriteString("\\r")
		case 0:
			b.WriteString("\\0")
		case '\\':
			b.WriteString("\\\\")
		case '"':
			b.WriteString("\\\"")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// --- Visitor plumbing ---

// VisitModule prints every import and top-level statement.
func (p *CodePrinter) VisitModule(m *ast.Module) {
	for _, imp := range m.Imports {
		p.write("import ")
		p.write(quoteString(imp.Path.Value))
		if imp.Alias != nil {
			p.write(" as ")
			p.write(imp.Alias.Value)
		}
		p.write("\n")
	}
	if len(m.Imports) > 0 && len(m.Statements) > 0 {
		p.write("\n")
	}
	for _, stmt := range m.Statements {
		p.printStatement(stmt)
		p.write("\n")
	}
}

func (p *CodePrinter) VisitImportDeclaration(id *ast.ImportDeclaration) {
	p.write("import ")
	p.write(quoteString(id.Path.Value))
	if id.Alias != nil {
		p.write(" as ")
		p.write(id.Alias.Value)
	}
}

func (p *CodePrinter) VisitVarDeclaration(vd *ast.VarDeclaration) { p.printStatement(vd) }
func (p *CodePrinter) VisitFunctionDeclaration(fd *ast.FunctionDeclaration) {
	p.printStatement(fd)
}
func (p *CodePrinter) VisitStructDeclaration(sd *ast.StructDeclaration) { p.printStatement(sd) }
func (p *CodePrinter) VisitTraitDeclaration(td *ast.TraitDeclaration)   { p.printStatement(td) }
func (p *CodePrinter) VisitImplDeclaration(id *ast.ImplDeclaration)     { p.printStatement(id) }
func (p *CodePrinter) VisitMacroDeclaration(md *ast.MacroDeclaration)   { p.printStatement(md) }
func (p *CodePrinter) VisitAssignStatement(as *ast.AssignStatement)     { p.printStatement(as) }
func (p *CodePrinter) VisitExpressionStatement(es *ast.ExpressionStatement) {
	p.printStatement(es)
}
func (p *CodePrinter) VisitReturnStatement(rs *ast.ReturnStatement)     { p.printStatement(rs) }
func (p *CodePrinter) VisitWhileStatement(ws *ast.WhileStatement)       { p.printStatement(ws) }
func (p *CodePrinter) VisitBreakStatement(bs *ast.BreakStatement)       { p.printStatement(bs) }
func (p *CodePrinter) VisitContinueStatement(cs *ast.ContinueStatement) { p.printStatement(cs) }

func (p *CodePrinter) VisitIdentifier(i *ast.Identifier)             { p.printExpr(i, 0) }
func (p *CodePrinter) VisitIntegerLiteral(il *ast.IntegerLiteral)    { p.printExpr(il, 0) }
func (p *CodePrinter) VisitFloatLiteral(fl *ast.FloatLiteral)        { p.printExpr(fl, 0) }
func (p *CodePrinter) VisitStringLiteral(sl *ast.StringLiteral)      { p.printExpr(sl, 0) }
func (p *CodePrinter) VisitBooleanLiteral(bl *ast.BooleanLiteral)    { p.printExpr(bl, 0) }
func (p *CodePrinter) VisitNilLiteral(nl *ast.NilLiteral)            { p.printExpr(nl, 0) }
func (p *CodePrinter) VisitPrefixExpression(pe *ast.PrefixExpression) {
	p.printExpr(pe, 0)
}
func (p *CodePrinter) VisitInfixExpression(ie *ast.InfixExpression) { p.printExpr(ie, 0) }
func (p *CodePrinter) VisitPipeExpression(pe *ast.PipeExpression)   { p.printExpr(pe, 0) }
func (p *CodePrinter) VisitCallExpression(ce *ast.CallExpression)   { p.printExpr(ce, 0) }
func (p *CodePrinter) VisitMemberExpression(me *ast.MemberExpression) {
	p.printExpr(me, 0)
}
func (p *CodePrinter) VisitStructLiteral(sl *ast.StructLiteral)   { p.printExpr(sl, 0) }
func (p *CodePrinter) VisitIfExpression(ie *ast.IfExpression)     { p.printExpr(ie, 0) }
func (p *CodePrinter) VisitMatchExpression(me *ast.MatchExpression) {
	p.printExpr(me, 0)
}
func (p *CodePrinter) VisitBlockExpression(be *ast.BlockExpression) { p.printExpr(be, 0) }
func (p *CodePrinter) VisitFunctionLiteral(fl *ast.FunctionLiteral) { p.printExpr(fl, 0) }

func (p *CodePrinter) VisitWildcardPattern(wp *ast.WildcardPattern) { p.printPattern(wp) }
func (p *CodePrinter) VisitIdentifierPattern(ip *ast.IdentifierPattern) {
	p.printPattern(ip)
}
func (p *CodePrinter) VisitLiteralPattern(lp *ast.LiteralPattern) { p.printPattern(lp) }
func (p *CodePrinter) VisitStructPattern(sp *ast.StructPattern)   { p.printPattern(sp) }
func (p *CodePrinter) VisitOrPattern(op *ast.OrPattern)           { p.printPattern(op) }

package ast

import (
	"github.com/corrosion-lang/corrosion/internal/token"
)

// TokenProvider is an interface for any AST node that can provide its primary
// token. This is useful for error reporting.
type TokenProvider interface {
	GetToken() token.Token
}

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	Accept(v Visitor)
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
	GetToken() token.Token
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
}

// Pattern is a Node usable in pattern position (match arms).
type Pattern interface {
	Node
	patternNode()
	GetToken() token.Token
}

// Module is the root node for one source file. Path is the module path the
// host supplied with the source text; the tree owns all children exclusively.
type Module struct {
	Path       string
	Imports    []*ImportDeclaration
	Statements []Statement
}

func (m *Module) Accept(v Visitor) { v.VisitModule(m) }
func (m *Module) TokenLiteral() string {
	if len(m.Statements) > 0 {
		return m.Statements[0].TokenLiteral()
	}
	return ""
}

// ImportDeclaration brings another module into scope.
// import "geometry/shapes" as shapes
type ImportDeclaration struct {
	Token token.Token // the 'import' token
	Path  *StringLiteral
	Alias *Identifier // nil when no 'as' clause; local name defaults to the last path segment
}

func (id *ImportDeclaration) Accept(v Visitor)     { v.VisitImportDeclaration(id) }
func (id *ImportDeclaration) statementNode()       {}
func (id *ImportDeclaration) TokenLiteral() string { return id.Token.Lexeme }
func (id *ImportDeclaration) GetToken() token.Token {
	if id == nil {
		return token.Token{}
	}
	return id.Token
}

// LocalName is the name the imported module is bound to in this module.
func (id *ImportDeclaration) LocalName() string {
	if id.Alias != nil {
		return id.Alias.Value
	}
	path := id.Path.Value
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// VarDeclaration covers var, let and const bindings. The keyword token
// carries the mutability class: var is reassignable, let shadows on
// redeclaration, const is neither.
type VarDeclaration struct {
	Token token.Token // 'var', 'let' or 'const'
	Name  *Identifier
	Value Expression
	Pub   bool
}

func (vd *VarDeclaration) Accept(v Visitor)     { v.VisitVarDeclaration(vd) }
func (vd *VarDeclaration) statementNode()       {}
func (vd *VarDeclaration) TokenLiteral() string { return vd.Token.Lexeme }
func (vd *VarDeclaration) GetToken() token.Token {
	if vd == nil {
		return token.Token{}
	}
	return vd.Token
}

// Keyword returns the declaration keyword: "var", "let" or "const".
func (vd *VarDeclaration) Keyword() string { return vd.Token.Lexeme }

// FunctionDeclaration is a named top-level or impl-block function.
// fn area(shape) { ... }
type FunctionDeclaration struct {
	Token  token.Token // the 'fn' token
	Name   *Identifier
	Params []*Identifier
	Body   *BlockExpression
	Pub    bool
}

func (fd *FunctionDeclaration) Accept(v Visitor)     { v.VisitFunctionDeclaration(fd) }
func (fd *FunctionDeclaration) statementNode()       {}
func (fd *FunctionDeclaration) TokenLiteral() string { return fd.Token.Lexeme }
func (fd *FunctionDeclaration) GetToken() token.Token {
	if fd == nil {
		return token.Token{}
	}
	return fd.Token
}

// StructField is one field of a struct declaration: name, typespec and the
// optional-field marker. name?: Type
type StructField struct {
	Token    token.Token // the field name token
	Name     *Identifier
	TypeName *Identifier // declared struct name or builtin marker (Int, Float, String, Bool, Any)
	Optional bool
}

func (sf *StructField) GetToken() token.Token {
	if sf == nil {
		return token.Token{}
	}
	return sf.Token
}

// StructDeclaration declares a nominal struct shape.
// struct Point { x: Int, y: Int }
type StructDeclaration struct {
	Token  token.Token // the 'struct' token
	Name   *Identifier
	Fields []*StructField
	Pub    bool
}

func (sd *StructDeclaration) Accept(v Visitor)     { v.VisitStructDeclaration(sd) }
func (sd *StructDeclaration) statementNode()       {}
func (sd *StructDeclaration) TokenLiteral() string { return sd.Token.Lexeme }
func (sd *StructDeclaration) GetToken() token.Token {
	if sd == nil {
		return token.Token{}
	}
	return sd.Token
}

// TraitMethod is one required method in a trait declaration. A bare name
// leaves the arity unchecked (Arity -1); a fn signature fixes it.
type TraitMethod struct {
	Token token.Token // the method name or 'fn' token
	Name  *Identifier
	Arity int // -1 when declared as a bare name
}

func (tm *TraitMethod) GetToken() token.Token {
	if tm == nil {
		return token.Token{}
	}
	return tm.Token
}

// TraitDeclaration declares a conformance contract.
// trait Greet { hello }  or  trait Greet { fn hello(self) }
type TraitDeclaration struct {
	Token   token.Token // the 'trait' token
	Name    *Identifier
	Methods []*TraitMethod
	Pub     bool
}

func (td *TraitDeclaration) Accept(v Visitor)     { v.VisitTraitDeclaration(td) }
func (td *TraitDeclaration) statementNode()       {}
func (td *TraitDeclaration) TokenLiteral() string { return td.Token.Lexeme }
func (td *TraitDeclaration) GetToken() token.Token {
	if td == nil {
		return token.Token{}
	}
	return td.Token
}

// ImplDeclaration provides a trait's methods for a struct.
// impl Greet for Person { fn hello(self) { ... } }
type ImplDeclaration struct {
	Token     token.Token // the 'impl' token
	TraitName *Identifier
	Target    *Identifier
	Methods   []*FunctionDeclaration
}

func (id *ImplDeclaration) Accept(v Visitor)     { v.VisitImplDeclaration(id) }
func (id *ImplDeclaration) statementNode()       {}
func (id *ImplDeclaration) TokenLiteral() string { return id.Token.Lexeme }
func (id *ImplDeclaration) GetToken() token.Token {
	if id == nil {
		return token.Token{}
	}
	return id.Token
}

// MacroDeclaration declares a compile-time expansion template. Invocations
// are ordinary call-shaped nodes whose callee names the macro.
// macro twice(x) { x + x }
type MacroDeclaration struct {
	Token  token.Token // the 'macro' token
	Name   *Identifier
	Params []*Identifier
	Body   *BlockExpression
	Pub    bool
}

func (md *MacroDeclaration) Accept(v Visitor)     { v.VisitMacroDeclaration(md) }
func (md *MacroDeclaration) statementNode()       {}
func (md *MacroDeclaration) TokenLiteral() string { return md.Token.Lexeme }
func (md *MacroDeclaration) GetToken() token.Token {
	if md == nil {
		return token.Token{}
	}
	return md.Token
}

// AssignStatement reassigns an existing var binding. x = e
type AssignStatement struct {
	Token  token.Token // the '=' token
	Target *Identifier
	Value  Expression
}

func (as *AssignStatement) Accept(v Visitor)     { v.VisitAssignStatement(as) }
func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Lexeme }
func (as *AssignStatement) GetToken() token.Token {
	if as == nil {
		return token.Token{}
	}
	return as.Token
}

// ExpressionStatement wraps an expression in statement position.
type ExpressionStatement struct {
	Token      token.Token // first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) Accept(v Visitor)     { v.VisitExpressionStatement(es) }
func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Lexeme }
func (es *ExpressionStatement) GetToken() token.Token {
	if es == nil {
		return token.Token{}
	}
	return es.Token
}

// ReturnStatement exits the enclosing function. Value may be nil.
type ReturnStatement struct {
	Token token.Token // the 'return' token
	Value Expression
}

func (rs *ReturnStatement) Accept(v Visitor)     { v.VisitReturnStatement(rs) }
func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Lexeme }
func (rs *ReturnStatement) GetToken() token.Token {
	if rs == nil {
		return token.Token{}
	}
	return rs.Token
}

// WhileStatement loops while the condition holds.
type WhileStatement struct {
	Token     token.Token // the 'while' token
	Condition Expression
	Body      *BlockExpression
}

func (ws *WhileStatement) Accept(v Visitor)     { v.VisitWhileStatement(ws) }
func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Lexeme }
func (ws *WhileStatement) GetToken() token.Token {
	if ws == nil {
		return token.Token{}
	}
	return ws.Token
}

// BreakStatement exits the innermost while loop.
type BreakStatement struct {
	Token token.Token
}

func (bs *BreakStatement) Accept(v Visitor)     { v.VisitBreakStatement(bs) }
func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Lexeme }
func (bs *BreakStatement) GetToken() token.Token {
	if bs == nil {
		return token.Token{}
	}
	return bs.Token
}

// ContinueStatement restarts the innermost while loop.
type ContinueStatement struct {
	Token token.Token
}

func (cs *ContinueStatement) Accept(v Visitor)     { v.VisitContinueStatement(cs) }
func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Lexeme }
func (cs *ContinueStatement) GetToken() token.Token {
	if cs == nil {
		return token.Token{}
	}
	return cs.Token
}

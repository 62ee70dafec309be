package ast

import (
	"github.com/corrosion-lang/corrosion/internal/token"
)

// Identifier names a value, function, module or macro.
type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) Accept(v Visitor)     { v.VisitIdentifier(i) }
func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token {
	if i == nil {
		return token.Token{}
	}
	return i.Token
}

type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) Accept(v Visitor)     { v.VisitIntegerLiteral(il) }
func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Lexeme }
func (il *IntegerLiteral) GetToken() token.Token {
	if il == nil {
		return token.Token{}
	}
	return il.Token
}

type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) Accept(v Visitor)     { v.VisitFloatLiteral(fl) }
func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Lexeme }
func (fl *FloatLiteral) GetToken() token.Token {
	if fl == nil {
		return token.Token{}
	}
	return fl.Token
}

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) Accept(v Visitor)     { v.VisitStringLiteral(sl) }
func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token {
	if sl == nil {
		return token.Token{}
	}
	return sl.Token
}

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (bl *BooleanLiteral) Accept(v Visitor)     { v.VisitBooleanLiteral(bl) }
func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Lexeme }
func (bl *BooleanLiteral) GetToken() token.Token {
	if bl == nil {
		return token.Token{}
	}
	return bl.Token
}

type NilLiteral struct {
	Token token.Token
}

func (nl *NilLiteral) Accept(v Visitor)     { v.VisitNilLiteral(nl) }
func (nl *NilLiteral) expressionNode()      {}
func (nl *NilLiteral) TokenLiteral() string { return nl.Token.Lexeme }
func (nl *NilLiteral) GetToken() token.Token {
	if nl == nil {
		return token.Token{}
	}
	return nl.Token
}

// PrefixExpression is a unary operator application: !x, -x.
type PrefixExpression struct {
	Token    token.Token // the operator token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) Accept(v Visitor)     { v.VisitPrefixExpression(pe) }
func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Lexeme }
func (pe *PrefixExpression) GetToken() token.Token {
	if pe == nil {
		return token.Token{}
	}
	return pe.Token
}

// InfixExpression is a binary operator application: a + b, x == y, p and q.
type InfixExpression struct {
	Token    token.Token // the operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) Accept(v Visitor)     { v.VisitInfixExpression(ie) }
func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Lexeme }
func (ie *InfixExpression) GetToken() token.Token {
	if ie == nil {
		return token.Token{}
	}
	return ie.Token
}

// PipeExpression is the pipe operator: a |> f. It survives parsing as its own
// node so printing reproduces the surface syntax; lowering rewrites it to an
// ordinary call with Left prepended to the argument list.
type PipeExpression struct {
	Token token.Token // the '|>' token
	Left  Expression
	Right Expression
}

func (pe *PipeExpression) Accept(v Visitor)     { v.VisitPipeExpression(pe) }
func (pe *PipeExpression) expressionNode()      {}
func (pe *PipeExpression) TokenLiteral() string { return pe.Token.Lexeme }
func (pe *PipeExpression) GetToken() token.Token {
	if pe == nil {
		return token.Token{}
	}
	return pe.Token
}

// CallExpression applies a callee to arguments: f(a, b), p.dist(q).
type CallExpression struct {
	Token     token.Token // the '(' token
	Callee    Expression
	Arguments []Expression
}

func (ce *CallExpression) Accept(v Visitor)     { v.VisitCallExpression(ce) }
func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Lexeme }
func (ce *CallExpression) GetToken() token.Token {
	if ce == nil {
		return token.Token{}
	}
	return ce.Token
}

// MemberExpression is member access: obj.field, mod.name, obj?.field.
// Safe access (?.) yields nil instead of failing when the object or the
// field is nil.
type MemberExpression struct {
	Token  token.Token // the '.' or '?.' token
	Object Expression
	Member *Identifier
	Safe   bool
}

func (me *MemberExpression) Accept(v Visitor)     { v.VisitMemberExpression(me) }
func (me *MemberExpression) expressionNode()      {}
func (me *MemberExpression) TokenLiteral() string { return me.Token.Lexeme }
func (me *MemberExpression) GetToken() token.Token {
	if me == nil {
		return token.Token{}
	}
	return me.Token
}

// FieldInit is one field initializer inside a struct literal.
type FieldInit struct {
	Token token.Token // the field name token
	Name  *Identifier
	Value Expression
}

func (fi *FieldInit) GetToken() token.Token {
	if fi == nil {
		return token.Token{}
	}
	return fi.Token
}

// StructLiteral allocates a struct value: Point{x: 1, y: 2}.
type StructLiteral struct {
	Token    token.Token // the type name token
	TypeName *Identifier
	Fields   []*FieldInit
}

func (sl *StructLiteral) Accept(v Visitor)     { v.VisitStructLiteral(sl) }
func (sl *StructLiteral) expressionNode()      {}
func (sl *StructLiteral) TokenLiteral() string { return sl.Token.Lexeme }
func (sl *StructLiteral) GetToken() token.Token {
	if sl == nil {
		return token.Token{}
	}
	return sl.Token
}

// IfExpression is expression-valued: the value of the taken branch block.
// Else is nil, a *BlockExpression, or a chained *IfExpression.
type IfExpression struct {
	Token     token.Token // the 'if' token
	Condition Expression
	Then      *BlockExpression
	Else      Expression
}

func (ie *IfExpression) Accept(v Visitor)     { v.VisitIfExpression(ie) }
func (ie *IfExpression) expressionNode()      {}
func (ie *IfExpression) TokenLiteral() string { return ie.Token.Lexeme }
func (ie *IfExpression) GetToken() token.Token {
	if ie == nil {
		return token.Token{}
	}
	return ie.Token
}

// MatchArm is one arm of a match expression: pattern [if guard] => body.
type MatchArm struct {
	Token   token.Token // first token of the pattern
	Pattern Pattern
	Guard   Expression // nil when unguarded
	Body    Expression
}

func (ma *MatchArm) GetToken() token.Token {
	if ma == nil {
		return token.Token{}
	}
	return ma.Token
}

// MatchExpression tests a scrutinee against ordered arms.
type MatchExpression struct {
	Token     token.Token // the 'match' token
	Scrutinee Expression
	Arms      []*MatchArm
}

func (me *MatchExpression) Accept(v Visitor)     { v.VisitMatchExpression(me) }
func (me *MatchExpression) expressionNode()      {}
func (me *MatchExpression) TokenLiteral() string { return me.Token.Lexeme }
func (me *MatchExpression) GetToken() token.Token {
	if me == nil {
		return token.Token{}
	}
	return me.Token
}

// BlockExpression is a braced statement sequence whose value is the value of
// its trailing expression statement, or nil when there is none.
type BlockExpression struct {
	Token      token.Token // the '{' token
	Statements []Statement
}

func (be *BlockExpression) Accept(v Visitor)     { v.VisitBlockExpression(be) }
func (be *BlockExpression) expressionNode()      {}
func (be *BlockExpression) TokenLiteral() string { return be.Token.Lexeme }
func (be *BlockExpression) GetToken() token.Token {
	if be == nil {
		return token.Token{}
	}
	return be.Token
}

// FunctionLiteral is an anonymous function in expression position.
// fn(x, y) { x + y }
type FunctionLiteral struct {
	Token  token.Token // the 'fn' token
	Params []*Identifier
	Body   *BlockExpression
}

func (fl *FunctionLiteral) Accept(v Visitor)     { v.VisitFunctionLiteral(fl) }
func (fl *FunctionLiteral) expressionNode()      {}
func (fl *FunctionLiteral) TokenLiteral() string { return fl.Token.Lexeme }
func (fl *FunctionLiteral) GetToken() token.Token {
	if fl == nil {
		return token.Token{}
	}
	return fl.Token
}

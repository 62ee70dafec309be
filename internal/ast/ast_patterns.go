package ast

import (
	"github.com/corrosion-lang/corrosion/internal/token"
)

// WildcardPattern matches any value without binding: _
type WildcardPattern struct {
	Token token.Token
}

func (wp *WildcardPattern) Accept(v Visitor)     { v.VisitWildcardPattern(wp) }
func (wp *WildcardPattern) patternNode()         {}
func (wp *WildcardPattern) TokenLiteral() string { return wp.Token.Lexeme }
func (wp *WildcardPattern) GetToken() token.Token {
	if wp == nil {
		return token.Token{}
	}
	return wp.Token
}

// IdentifierPattern matches any value and binds it to a name.
type IdentifierPattern struct {
	Token token.Token
	Name  *Identifier
}

func (ip *IdentifierPattern) Accept(v Visitor)     { v.VisitIdentifierPattern(ip) }
func (ip *IdentifierPattern) patternNode()         {}
func (ip *IdentifierPattern) TokenLiteral() string { return ip.Token.Lexeme }
func (ip *IdentifierPattern) GetToken() token.Token {
	if ip == nil {
		return token.Token{}
	}
	return ip.Token
}

// LiteralPattern matches by equality against a literal value. Value is one
// of IntegerLiteral, FloatLiteral, StringLiteral, BooleanLiteral, NilLiteral.
type LiteralPattern struct {
	Token token.Token
	Value Expression
}

func (lp *LiteralPattern) Accept(v Visitor)     { v.VisitLiteralPattern(lp) }
func (lp *LiteralPattern) patternNode()         {}
func (lp *LiteralPattern) TokenLiteral() string { return lp.Token.Lexeme }
func (lp *LiteralPattern) GetToken() token.Token {
	if lp == nil {
		return token.Token{}
	}
	return lp.Token
}

// FieldPattern is one field of a struct pattern. A nil Pattern is field
// punning: Point{x: 0, y} binds y to the field's value.
type FieldPattern struct {
	Token   token.Token // the field name token
	Name    *Identifier
	Pattern Pattern // nil means pun (bind field name)
}

func (fp *FieldPattern) GetToken() token.Token {
	if fp == nil {
		return token.Token{}
	}
	return fp.Token
}

// StructPattern matches a value's shape tag and recurses into fields.
// Point{x: 0, y}
type StructPattern struct {
	Token    token.Token // the type name token
	TypeName *Identifier
	Fields   []*FieldPattern
}

func (sp *StructPattern) Accept(v Visitor)     { v.VisitStructPattern(sp) }
func (sp *StructPattern) patternNode()         {}
func (sp *StructPattern) TokenLiteral() string { return sp.Token.Lexeme }
func (sp *StructPattern) GetToken() token.Token {
	if sp == nil {
		return token.Token{}
	}
	return sp.Token
}

// OrPattern matches when any alternative matches: 0 | 1 | 2.
// Alternatives may not introduce bindings (each row expansion would have to
// bind identically); the parser enforces this.
type OrPattern struct {
	Token        token.Token // the first '|' token
	Alternatives []Pattern
}

func (op *OrPattern) Accept(v Visitor)     { v.VisitOrPattern(op) }
func (op *OrPattern) patternNode()         {}
func (op *OrPattern) TokenLiteral() string { return op.Token.Lexeme }
func (op *OrPattern) GetToken() token.Token {
	if op == nil {
		return token.Token{}
	}
	return op.Token
}

package parser

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/token"
)

// parsePattern parses a match-arm pattern, including or-alternatives.
// curToken is the pattern's first token on entry and its last on exit.
func (p *Parser) parsePattern() ast.Pattern {
	first := p.parseSinglePattern()
	if first == nil {
		return nil
	}

	if !p.peekTokenIs(token.PIPE) {
		return first
	}

	or := &ast.OrPattern{Token: p.peekToken, Alternatives: []ast.Pattern{first}}
	for p.peekTokenIs(token.PIPE) {
		p.nextToken() // consume '|'
		p.nextToken() // advance to next alternative
		alt := p.parseSinglePattern()
		if alt == nil {
			return nil
		}
		or.Alternatives = append(or.Alternatives, alt)
	}

	for _, alt := range or.Alternatives {
		if name := firstBindingName(alt); name != "" {
			p.errorAt(diagnostics.ErrP003, alt.GetToken(),
				"or-pattern alternatives cannot bind names (found %q)", name)
			return nil
		}
	}

	return or
}

func (p *Parser) parseSinglePattern() ast.Pattern {
	switch p.curToken.Type {
	case token.IDENT_LOWER:
		if p.curToken.Lexeme == "_" {
			return &ast.WildcardPattern{Token: p.curToken}
		}
		return &ast.IdentifierPattern{
			Token: p.curToken,
			Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
		}
	case token.INT:
		lit := p.parseIntegerLiteral()
		if lit == nil {
			return nil
		}
		return &ast.LiteralPattern{Token: p.curToken, Value: lit}
	case token.FLOAT:
		lit := p.parseFloatLiteral()
		if lit == nil {
			return nil
		}
		return &ast.LiteralPattern{Token: p.curToken, Value: lit}
	case token.STRING:
		return &ast.LiteralPattern{Token: p.curToken, Value: p.parseStringLiteral()}
	case token.TRUE, token.FALSE:
		return &ast.LiteralPattern{Token: p.curToken, Value: p.parseBooleanLiteral()}
	case token.NIL:
		return &ast.LiteralPattern{Token: p.curToken, Value: p.parseNilLiteral()}
	case token.MINUS:
		return p.parseNegativeLiteralPattern()
	case token.IDENT_UPPER:
		return p.parseStructPattern()
	default:
		p.errorAt(diagnostics.ErrP003, p.curToken, "unexpected token %q in pattern", p.curToken.Lexeme)
		return nil
	}
}

func (p *Parser) parseNegativeLiteralPattern() ast.Pattern {
	minus := p.curToken
	p.nextToken()

	switch p.curToken.Type {
	case token.INT:
		value, ok := p.curToken.Literal.(int64)
		if !ok {
			p.errorAt(diagnostics.ErrP003, p.curToken, "malformed integer literal %q", p.curToken.Lexeme)
			return nil
		}
		lit := &ast.IntegerLiteral{Token: minus, Value: -value}
		return &ast.LiteralPattern{Token: minus, Value: lit}
	case token.FLOAT:
		value, ok := p.curToken.Literal.(float64)
		if !ok {
			p.errorAt(diagnostics.ErrP003, p.curToken, "malformed float literal %q", p.curToken.Lexeme)
			return nil
		}
		lit := &ast.FloatLiteral{Token: minus, Value: -value}
		return &ast.LiteralPattern{Token: minus, Value: lit}
	default:
		p.errorAt(diagnostics.ErrP003, p.curToken, "expected numeric literal after '-' in pattern")
		return nil
	}
}

// parseStructPattern parses Point, Point{} or Point{x: 0, y}. A bare type
// name tests only the shape tag.
func (p *Parser) parseStructPattern() ast.Pattern {
	pat := &ast.StructPattern{
		Token:    p.curToken,
		TypeName: &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
	}

	if !p.peekTokenIs(token.LBRACE) {
		return pat
	}
	p.nextToken() // consume '{'

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}

		if !p.expectPeek(token.IDENT_LOWER) {
			return nil
		}
		field := &ast.FieldPattern{
			Token: p.curToken,
			Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
		}

		// Explicit sub-pattern, or punning when no colon follows.
		if p.peekTokenIs(token.COLON) {
			p.nextToken()
			p.nextToken()
			field.Pattern = p.parsePattern()
			if field.Pattern == nil {
				return nil
			}
		}

		pat.Fields = append(pat.Fields, field)
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}

	return pat
}

// firstBindingName returns the first name a pattern would bind, or "".
func firstBindingName(pat ast.Pattern) string {
	switch pt := pat.(type) {
	case *ast.IdentifierPattern:
		return pt.Name.Value
	case *ast.StructPattern:
		for _, f := range pt.Fields {
			if f.Pattern == nil {
				return f.Name.Value // pun binds the field name
			}
			if name := firstBindingName(f.Pattern); name != "" {
				return name
			}
		}
	case *ast.OrPattern:
		for _, alt := range pt.Alternatives {
			if name := firstBindingName(alt); name != "" {
				return name
			}
		}
	}
	return ""
}

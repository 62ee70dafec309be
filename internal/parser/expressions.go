package parser

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxRecursionDepth {
		if !p.inRecursionRecovery {
			p.errorAt(diagnostics.ErrP002, p.curToken,
				"expression too complex: recursion depth limit exceeded")
			p.inRecursionRecovery = true
		}
		// Skip the rest of the statement to avoid a cascade of errors.
		p.skipToStatementBoundary()
		p.inRecursionRecovery = false
		return nil
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}
	leftExp := prefix()

	for {
		if p.peekTokenIs(token.NEWLINE) {
			// A pipe on the next line continues the expression.
			if p.peekAfterNewlines().Type != token.PIPE_GT {
				break
			}
			for p.peekTokenIs(token.NEWLINE) {
				p.nextToken()
			}
		}

		if precedence >= p.peekPrecedence() {
			break
		}

		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		nextExp := infix(leftExp)
		if nextExp == nil {
			return nil
		}
		leftExp = nextExp
	}

	return leftExp
}

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
}

// parseTypeName handles an uppercase identifier in expression position:
// a struct literal when a brace follows, otherwise a reference to the type.
func (p *Parser) parseTypeName() ast.Expression {
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if p.peekTokenIs(token.LBRACE) && !p.noStructLiteral {
		return p.parseStructLiteral(name)
	}
	return name
}

func (p *Parser) parseStructLiteral(name *ast.Identifier) ast.Expression {
	lit := &ast.StructLiteral{Token: name.Token, TypeName: name}

	p.nextToken() // consume '{'

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}

		if !p.expectPeek(token.IDENT_LOWER) {
			return nil
		}
		field := &ast.FieldInit{
			Token: p.curToken,
			Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
		}

		if !p.expectPeek(token.COLON) {
			return nil
		}

		p.nextToken()
		prev := p.noStructLiteral
		p.noStructLiteral = false
		field.Value = p.parseExpression(LOWEST)
		p.noStructLiteral = prev
		if field.Value == nil {
			return nil
		}

		lit.Fields = append(lit.Fields, field)
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}

	return lit
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	value, ok := p.curToken.Literal.(int64)
	if !ok {
		p.errorAt(diagnostics.ErrP001, p.curToken, "malformed integer literal %q", p.curToken.Lexeme)
		return nil
	}
	return &ast.IntegerLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	value, ok := p.curToken.Literal.(float64)
	if !ok {
		p.errorAt(diagnostics.ErrP001, p.curToken, "malformed float literal %q", p.curToken.Lexeme)
		return nil
	}
	return &ast.FloatLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	value, _ := p.curToken.Literal.(string)
	return &ast.StringLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parseBooleanLiteral() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNilLiteral() ast.Expression {
	return &ast.NilLiteral{Token: p.curToken}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
	}
	p.nextToken()
	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parsePipeExpression(left ast.Expression) ast.Expression {
	expression := &ast.PipeExpression{Token: p.curToken, Left: left}

	p.nextToken()
	// PIPE precedence keeps chains left-associative: a |> f |> g is (a|>f)|>g.
	expression.Right = p.parseExpression(PIPE)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()
	p.skipNewlines()

	prev := p.noStructLiteral
	p.noStructLiteral = false
	exp := p.parseExpression(LOWEST)
	p.noStructLiteral = prev
	if exp == nil {
		return nil
	}

	if p.peekTokenIs(token.NEWLINE) {
		for p.peekTokenIs(token.NEWLINE) {
			p.nextToken()
		}
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return exp
}

func (p *Parser) parseCallExpression(callee ast.Expression) ast.Expression {
	call := &ast.CallExpression{Token: p.curToken, Callee: callee}

	for !p.peekTokenIs(token.RPAREN) && !p.peekTokenIs(token.EOF) {
		if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}

		p.nextToken()
		prev := p.noStructLiteral
		p.noStructLiteral = false
		arg := p.parseExpression(LOWEST)
		p.noStructLiteral = prev
		if arg == nil {
			return nil
		}
		call.Arguments = append(call.Arguments, arg)
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return call
}

func (p *Parser) parseMemberExpression(object ast.Expression) ast.Expression {
	expr := &ast.MemberExpression{
		Token:  p.curToken,
		Object: object,
		Safe:   p.curTokenIs(token.SAFE_DOT),
	}

	if !p.expectPeek(token.IDENT_LOWER) {
		return nil
	}
	expr.Member = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	return expr
}

func (p *Parser) parseIfExpression() ast.Expression {
	expr := &ast.IfExpression{Token: p.curToken}

	p.nextToken()
	prev := p.noStructLiteral
	p.noStructLiteral = true
	expr.Condition = p.parseExpression(LOWEST)
	p.noStructLiteral = prev
	if expr.Condition == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	expr.Then = p.parseBlockExpression()
	if expr.Then == nil {
		return nil
	}

	if p.peekAfterNewlines().Type == token.ELSE {
		for p.peekTokenIs(token.NEWLINE) {
			p.nextToken()
		}
		p.nextToken() // consume 'else'

		if p.peekTokenIs(token.IF) {
			p.nextToken()
			expr.Else = p.parseIfExpression()
			if expr.Else == nil {
				return nil
			}
		} else {
			if !p.expectPeek(token.LBRACE) {
				return nil
			}
			expr.Else = p.parseBlockExpression()
			if expr.Else == nil {
				return nil
			}
		}
	}

	return expr
}

func (p *Parser) parseMatchExpression() ast.Expression {
	expr := &ast.MatchExpression{Token: p.curToken}

	p.nextToken()
	prev := p.noStructLiteral
	p.noStructLiteral = true
	expr.Scrutinee = p.parseExpression(LOWEST)
	p.noStructLiteral = prev
	if expr.Scrutinee == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}

		p.nextToken() // advance to the pattern's first token
		arm := p.parseMatchArm()
		if arm == nil {
			return nil
		}
		expr.Arms = append(expr.Arms, arm)
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}

	if len(expr.Arms) == 0 {
		p.errorAt(diagnostics.ErrP003, expr.Token, "match expression has no arms")
		return nil
	}

	return expr
}

func (p *Parser) parseMatchArm() *ast.MatchArm {
	arm := &ast.MatchArm{Token: p.curToken}

	arm.Pattern = p.parsePattern()
	if arm.Pattern == nil {
		return nil
	}

	if p.peekTokenIs(token.IF) {
		p.nextToken()
		p.nextToken()
		arm.Guard = p.parseExpression(LOWEST)
		if arm.Guard == nil {
			return nil
		}
	}

	if !p.expectPeek(token.FAT_ARROW) {
		return nil
	}

	p.nextToken()
	for p.curTokenIs(token.NEWLINE) {
		p.nextToken()
	}
	arm.Body = p.parseExpression(LOWEST)
	if arm.Body == nil {
		return nil
	}

	return arm
}

// parseBlockPrefix handles a bare block in expression position.
func (p *Parser) parseBlockPrefix() ast.Expression {
	block := p.parseBlockExpression()
	if block == nil {
		return nil
	}
	return block
}

// parseBlockExpression parses a braced statement list. curToken is '{' on
// entry and '}' on successful exit. The block's value is the value of its
// trailing expression statement.
func (p *Parser) parseBlockExpression() *ast.BlockExpression {
	block := &ast.BlockExpression{Token: p.curToken}

	p.blockDepth++
	defer func() { p.blockDepth-- }()

	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
			if !p.peekTokenIs(token.NEWLINE) && !p.peekTokenIs(token.SEMICOLON) &&
				!p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
				p.errorAt(diagnostics.ErrP001, p.peekToken,
					"expected newline or ';' after statement, found %q", p.peekToken.Lexeme)
				p.skipToStatementBoundary()
			}
		} else {
			p.skipToStatementBoundary()
		}
		p.nextToken()
	}

	if !p.curTokenIs(token.RBRACE) {
		p.errorAt(diagnostics.ErrP001, p.curToken, "expected \"}\", found end of file")
		return nil
	}

	return block
}

// parseFunctionLiteral parses an anonymous fn in expression position.
func (p *Parser) parseFunctionLiteral() ast.Expression {
	lit := &ast.FunctionLiteral{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params, ok := p.parseParameterList()
	if !ok {
		return nil
	}
	lit.Params = params

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	lit.Body = p.parseBlockExpression()
	if lit.Body == nil {
		return nil
	}

	return lit
}

package parser

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/token"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.VAR, token.LET, token.CONST:
		return p.parseVarDeclaration(false)
	case token.PUB:
		return p.parsePubDeclaration()
	case token.FN:
		if p.peekTokenIs(token.IDENT_LOWER) {
			return p.parseFunctionDeclaration(false)
		}
		// Anonymous fn: fall through to expression parsing.
		return p.parseExpressionStatement()
	case token.STRUCT:
		p.requireTopLevel("struct")
		return p.parseStructDeclaration(false)
	case token.TRAIT:
		p.requireTopLevel("trait")
		return p.parseTraitDeclaration(false)
	case token.IMPL:
		p.requireTopLevel("impl")
		return p.parseImplDeclaration()
	case token.MACRO:
		p.requireTopLevel("macro")
		return p.parseMacroDeclaration(false)
	case token.WHILE:
		return p.parseWhileStatement()
	case token.BREAK:
		return &ast.BreakStatement{Token: p.curToken}
	case token.CONTINUE:
		return &ast.ContinueStatement{Token: p.curToken}
	case token.RETURN:
		return p.parseReturnStatement()
	case token.IMPORT:
		p.errorAt(diagnostics.ErrP005, p.curToken, "imports must appear at the top level of a module")
		return nil
	case token.IDENT_LOWER:
		if p.peekTokenIs(token.ASSIGN) {
			return p.parseAssignStatement()
		}
		return p.parseExpressionStatement()
	default:
		return p.parseExpressionStatement()
	}
}

// requireTopLevel reports type-level declarations nested inside a block.
// The declaration is still parsed so recovery stays cheap.
func (p *Parser) requireTopLevel(kind string) {
	if p.blockDepth > 0 {
		p.errorAt(diagnostics.ErrP005, p.curToken, "%s declarations must appear at the top level of a module", kind)
	}
}

// parsePubDeclaration handles the pub prefix on exportable declarations.
func (p *Parser) parsePubDeclaration() ast.Statement {
	if p.blockDepth > 0 {
		p.errorAt(diagnostics.ErrP005, p.curToken, "pub declarations must appear at the top level of a module")
	}
	pubToken := p.curToken
	p.nextToken()

	switch p.curToken.Type {
	case token.FN:
		if !p.peekTokenIs(token.IDENT_LOWER) {
			p.errorAt(diagnostics.ErrP005, p.curToken, "pub requires a named function")
			return nil
		}
		return p.parseFunctionDeclaration(true)
	case token.STRUCT:
		return p.parseStructDeclaration(true)
	case token.TRAIT:
		return p.parseTraitDeclaration(true)
	case token.CONST:
		return p.parseVarDeclaration(true)
	case token.MACRO:
		return p.parseMacroDeclaration(true)
	default:
		p.errorAt(diagnostics.ErrP005, pubToken,
			"pub applies to fn, struct, trait, const and macro declarations, not %q", p.curToken.Lexeme)
		return nil
	}
}

// parseVarDeclaration parses var/let/const bindings. The keyword token is
// kept on the node; the resolver derives the mutability class from it.
func (p *Parser) parseVarDeclaration(pub bool) ast.Statement {
	decl := &ast.VarDeclaration{Token: p.curToken, Pub: pub}

	if pub && decl.Token.Type != token.CONST {
		p.errorAt(diagnostics.ErrP005, decl.Token, "only const bindings can be pub")
		return nil
	}

	if !p.expectPeek(token.IDENT_LOWER) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if !p.expectPeek(token.ASSIGN) {
		return nil
	}

	p.nextToken()
	decl.Value = p.parseExpression(LOWEST)
	if decl.Value == nil {
		return nil
	}

	return decl
}

func (p *Parser) parseAssignStatement() ast.Statement {
	target := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	p.nextToken() // now at '='
	stmt := &ast.AssignStatement{Token: p.curToken, Target: target}

	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}

	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}

	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}

	// Only plain names are assignable; anything else followed by '=' is a
	// bad target, not a missing statement boundary.
	if p.peekTokenIs(token.ASSIGN) {
		p.errorAt(diagnostics.ErrP004, p.peekToken, "cannot assign to this expression")
		p.skipToStatementBoundary()
		return nil
	}

	return stmt
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}

	if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.SEMICOLON) ||
		p.peekTokenIs(token.RBRACE) || p.peekTokenIs(token.EOF) {
		return stmt
	}

	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}

	p.nextToken()
	prev := p.noStructLiteral
	p.noStructLiteral = true
	stmt.Condition = p.parseExpression(LOWEST)
	p.noStructLiteral = prev
	if stmt.Condition == nil {
		return nil
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockExpression()
	if stmt.Body == nil {
		return nil
	}

	return stmt
}

func (p *Parser) parseImportDeclaration() *ast.ImportDeclaration {
	imp := &ast.ImportDeclaration{Token: p.curToken}

	if !p.expectPeek(token.STRING) {
		return nil
	}
	imp.Path = &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal.(string)}

	if p.peekTokenIs(token.AS) {
		p.nextToken()
		if !p.expectPeek(token.IDENT_LOWER) {
			return nil
		}
		imp.Alias = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	}

	return imp
}

// parseFunctionDeclaration parses fn name(params) { body }. The caller has
// verified that a name follows.
func (p *Parser) parseFunctionDeclaration(pub bool) ast.Statement {
	decl := &ast.FunctionDeclaration{Token: p.curToken, Pub: pub}

	p.nextToken()
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params, ok := p.parseParameterList()
	if !ok {
		return nil
	}
	decl.Params = params

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	decl.Body = p.parseBlockExpression()
	if decl.Body == nil {
		return nil
	}

	return decl
}

// parseParameterList parses the parenthesized names of a fn or macro header.
// curToken is '(' on entry and ')' on successful exit.
func (p *Parser) parseParameterList() ([]*ast.Identifier, bool) {
	var params []*ast.Identifier
	seen := make(map[string]bool)

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params, true
	}

	for {
		if !p.peekTokenIs(token.IDENT_LOWER) && !p.peekTokenIs(token.SELF) {
			p.peekError(token.IDENT_LOWER)
			return nil, false
		}
		p.nextToken()
		name := p.curToken.Lexeme
		if seen[name] {
			p.errorAt(diagnostics.ErrP005, p.curToken, "duplicate parameter %q", name)
		}
		seen[name] = true
		params = append(params, &ast.Identifier{Token: p.curToken, Value: name})

		if p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}

	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}
	return params, true
}

func (p *Parser) parseStructDeclaration(pub bool) ast.Statement {
	decl := &ast.StructDeclaration{Token: p.curToken, Pub: pub}

	if !p.expectPeek(token.IDENT_UPPER) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}

		if !p.expectPeek(token.IDENT_LOWER) {
			return nil
		}
		field := &ast.StructField{
			Token: p.curToken,
			Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
		}

		if p.peekTokenIs(token.QUESTION) {
			p.nextToken()
			field.Optional = true
		}

		if !p.expectPeek(token.COLON) {
			return nil
		}
		if !p.expectPeek(token.IDENT_UPPER) {
			return nil
		}
		field.TypeName = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

		decl.Fields = append(decl.Fields, field)
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}

	return decl
}

func (p *Parser) parseTraitDeclaration(pub bool) ast.Statement {
	decl := &ast.TraitDeclaration{Token: p.curToken, Pub: pub}

	if !p.expectPeek(token.IDENT_UPPER) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}

		// A member is either a bare method name, leaving arity unchecked,
		// or a full fn signature fixing it.
		if p.peekTokenIs(token.IDENT_LOWER) {
			p.nextToken()
			decl.Methods = append(decl.Methods, &ast.TraitMethod{
				Token: p.curToken,
				Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme},
				Arity: -1,
			})
			continue
		}

		if p.peekTokenIs(token.FN) {
			p.nextToken()
			method := &ast.TraitMethod{Token: p.curToken}
			if !p.expectPeek(token.IDENT_LOWER) {
				return nil
			}
			method.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
			if !p.expectPeek(token.LPAREN) {
				return nil
			}
			params, ok := p.parseParameterList()
			if !ok {
				return nil
			}
			method.Arity = len(params)
			decl.Methods = append(decl.Methods, method)
			continue
		}

		p.errorAt(diagnostics.ErrP005, p.peekToken,
			"expected method name or fn signature in trait body, found %q", p.peekToken.Lexeme)
		return nil
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}

	return decl
}

func (p *Parser) parseImplDeclaration() ast.Statement {
	decl := &ast.ImplDeclaration{Token: p.curToken}

	if !p.expectPeek(token.IDENT_UPPER) {
		return nil
	}
	decl.TraitName = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if !p.expectPeek(token.FOR) {
		return nil
	}
	if !p.expectPeek(token.IDENT_UPPER) {
		return nil
	}
	decl.Target = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}

	for !p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		if p.peekTokenIs(token.NEWLINE) || p.peekTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}

		if !p.expectPeek(token.FN) {
			return nil
		}
		if !p.peekTokenIs(token.IDENT_LOWER) {
			p.peekError(token.IDENT_LOWER)
			return nil
		}
		method, _ := p.parseFunctionDeclaration(false).(*ast.FunctionDeclaration)
		if method == nil {
			return nil
		}
		decl.Methods = append(decl.Methods, method)
	}

	if !p.expectPeek(token.RBRACE) {
		return nil
	}

	return decl
}

func (p *Parser) parseMacroDeclaration(pub bool) ast.Statement {
	decl := &ast.MacroDeclaration{Token: p.curToken, Pub: pub}

	if !p.expectPeek(token.IDENT_LOWER) {
		return nil
	}
	decl.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params, ok := p.parseParameterList()
	if !ok {
		return nil
	}
	decl.Params = params

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	decl.Body = p.parseBlockExpression()
	if decl.Body == nil {
		return nil
	}

	return decl
}

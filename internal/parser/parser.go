package parser

import (
	"fmt"

	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/pipeline"
	"github.com/corrosion-lang/corrosion/internal/token"
)

// Operator precedence levels, loosest to tightest. PIPE sits below every
// other operator so `a + b |> f` pipes the whole sum.
const (
	_ int = iota
	LOWEST
	PIPE        // |>
	LOGIC_OR    // or
	LOGIC_AND   // and
	EQUALS      // == !=
	LESSGREATER // < > <= >=
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // -x !x
	CALL        // f(x) x.f x?.f
)

var precedences = map[token.TokenType]int{
	token.PIPE_GT:  PIPE,
	token.OR:       LOGIC_OR,
	token.AND:      LOGIC_AND,
	token.EQ:       EQUALS,
	token.NOT_EQ:   EQUALS,
	token.LT:       LESSGREATER,
	token.GT:       LESSGREATER,
	token.LTE:      LESSGREATER,
	token.GTE:      LESSGREATER,
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.PERCENT:  PRODUCT,
	token.LPAREN:   CALL,
	token.DOT:      CALL,
	token.SAFE_DOT: CALL,
}

// MaxRecursionDepth bounds expression nesting so pathological input degrades
// into one diagnostic instead of a stack overflow.
const MaxRecursionDepth = 512

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser is a recursive-descent parser with Pratt expression parsing. It
// produces one *ast.Module per source file and performs statement-boundary
// recovery so a single pass reports as many parse errors as it can.
type Parser struct {
	tokens []token.Token
	pos    int // index of the token after peekToken

	curToken  token.Token
	peekToken token.Token

	ctx *pipeline.PipelineContext

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn

	depth               int
	inRecursionRecovery bool

	// noStructLiteral suppresses TypeName{...} literals while parsing the
	// header of if/while/match, where `{` opens the body block instead.
	noStructLiteral bool

	// blockDepth is nonzero while parsing inside a block. Type-level
	// declarations (struct, trait, impl, macro) are only legal at depth 0.
	blockDepth int
}

func New(tokens []token.Token, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{tokens: tokens, ctx: ctx}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT_LOWER, p.parseIdentifier)
	p.registerPrefix(token.SELF, p.parseIdentifier)
	p.registerPrefix(token.IDENT_UPPER, p.parseTypeName)
	p.registerPrefix(token.INT, p.parseIntegerLiteral)
	p.registerPrefix(token.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(token.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(token.NIL, p.parseNilLiteral)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACE, p.parseBlockPrefix)
	p.registerPrefix(token.IF, p.parseIfExpression)
	p.registerPrefix(token.MATCH, p.parseMatchExpression)
	p.registerPrefix(token.FN, p.parseFunctionLiteral)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	p.registerInfix(token.PLUS, p.parseInfixExpression)
	p.registerInfix(token.MINUS, p.parseInfixExpression)
	p.registerInfix(token.ASTERISK, p.parseInfixExpression)
	p.registerInfix(token.SLASH, p.parseInfixExpression)
	p.registerInfix(token.PERCENT, p.parseInfixExpression)
	p.registerInfix(token.EQ, p.parseInfixExpression)
	p.registerInfix(token.NOT_EQ, p.parseInfixExpression)
	p.registerInfix(token.LT, p.parseInfixExpression)
	p.registerInfix(token.GT, p.parseInfixExpression)
	p.registerInfix(token.LTE, p.parseInfixExpression)
	p.registerInfix(token.GTE, p.parseInfixExpression)
	p.registerInfix(token.AND, p.parseInfixExpression)
	p.registerInfix(token.OR, p.parseInfixExpression)
	p.registerInfix(token.PIPE_GT, p.parsePipeExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.DOT, p.parseMemberExpression)
	p.registerInfix(token.SAFE_DOT, p.parseMemberExpression)

	// Prime curToken and peekToken.
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
	} else if len(p.tokens) > 0 {
		// EOF is sticky.
		p.peekToken = p.tokens[len(p.tokens)-1]
	}
}

// peekAfterNewlines returns the first upcoming token that is not a NEWLINE,
// starting from peekToken.
func (p *Parser) peekAfterNewlines() token.Token {
	if p.peekToken.Type != token.NEWLINE {
		return p.peekToken
	}
	for i := p.pos; i < len(p.tokens); i++ {
		if p.tokens[i].Type != token.NEWLINE {
			return p.tokens[i]
		}
	}
	return p.peekToken
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) errorAt(code diagnostics.ErrorCode, tok token.Token, format string, args ...interface{}) {
	p.ctx.Errors = append(p.ctx.Errors, diagnostics.NewError(code, tok, fmt.Sprintf(format, args...)))
}

func (p *Parser) peekError(t token.TokenType) {
	found := string(p.peekToken.Type)
	if p.peekToken.Type == token.NEWLINE {
		found = "end of line"
	} else if p.peekToken.Type == token.EOF {
		found = "end of file"
	}
	p.errorAt(diagnostics.ErrP001, p.peekToken, "expected %q, found %s", string(t), found)
}

func (p *Parser) noPrefixParseFnError(t token.TokenType) {
	// ILLEGAL tokens already carry a lexer diagnostic; skipping silently
	// avoids a second report for the same spot.
	if t == token.ILLEGAL {
		return
	}
	p.errorAt(diagnostics.ErrP001, p.curToken, "unexpected token %q in expression", p.curToken.Lexeme)
}

// skipToStatementBoundary advances past the remainder of the current
// statement so parsing can resume cleanly at the next one.
func (p *Parser) skipToStatementBoundary() {
	for !p.curTokenIs(token.NEWLINE) &&
		!p.curTokenIs(token.SEMICOLON) &&
		!p.curTokenIs(token.RBRACE) &&
		!p.curTokenIs(token.EOF) {
		p.nextToken()
	}
}

func (p *Parser) skipNewlines() {
	for p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
		p.nextToken()
	}
}

// ParseModule parses the whole token stream into a module.
func (p *Parser) ParseModule() *ast.Module {
	mod := &ast.Module{}

	for !p.curTokenIs(token.EOF) {
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}

		if p.curTokenIs(token.IMPORT) {
			imp := p.parseImportDeclaration()
			if imp != nil {
				mod.Imports = append(mod.Imports, imp)
			} else {
				p.skipToStatementBoundary()
			}
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt != nil {
			mod.Statements = append(mod.Statements, stmt)
			if !p.peekTokenIs(token.NEWLINE) && !p.peekTokenIs(token.SEMICOLON) &&
				!p.peekTokenIs(token.EOF) {
				p.errorAt(diagnostics.ErrP001, p.peekToken,
					"expected newline or ';' after statement, found %q", p.peekToken.Lexeme)
				p.skipToStatementBoundary()
			}
		} else {
			p.skipToStatementBoundary()
		}
		p.nextToken()
	}

	return mod
}

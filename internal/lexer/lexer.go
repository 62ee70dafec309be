package lexer

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/token"
)

// Lexer scans one module's source text into tokens. Scanning never aborts:
// on a bad character, escape or unterminated literal it records a diagnostic,
// emits an ILLEGAL token and resumes at the next recognizable boundary, so a
// single pass surfaces every lexical error in the file.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number

	diags []*diagnostics.DiagnosticError
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// Diagnostics returns every lexical error recorded so far, in source order.
func (l *Lexer) Diagnostics() []*diagnostics.DiagnosticError {
	return l.diags
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.position = l.readPosition
		l.readPosition += w
		l.column++
		return
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

// mark captures the position of the token that starts at the current char.
type mark struct {
	line, column, offset int
}

func (l *Lexer) mark() mark {
	return mark{line: l.line, column: l.column, offset: l.position}
}

// emit builds a token whose lexeme is the exact source slice from m to the
// character after the current one. Literal defaults to the lexeme.
func (l *Lexer) emit(t token.TokenType, m mark) token.Token {
	lexeme := l.input[m.offset:l.readPosition]
	return token.Token{Type: t, Lexeme: lexeme, Literal: lexeme, Line: m.line, Column: m.column, Offset: m.offset}
}

func (l *Lexer) errorf(code diagnostics.ErrorCode, m mark, format string, args ...interface{}) {
	l.diags = append(l.diags, &diagnostics.DiagnosticError{
		Code:     code,
		Severity: diagnostics.SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Line:     m.line,
		Column:   m.column,
	})
}

func (l *Lexer) NextToken() token.Token {
	var tok token.Token

	l.skipWhitespace()

	m := l.mark()

	switch l.ch {
	case '\n':
		tok = l.emit(token.NEWLINE, m)
	case ';':
		tok = l.emit(token.SEMICOLON, m)
	case '=':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.emit(token.EQ, m)
		} else if l.peekChar() == '>' {
			l.readChar()
			tok = l.emit(token.FAT_ARROW, m)
		} else {
			tok = l.emit(token.ASSIGN, m)
		}
	case '+':
		tok = l.emit(token.PLUS, m)
	case '-':
		tok = l.emit(token.MINUS, m)
	case '*':
		tok = l.emit(token.ASTERISK, m)
	case '/':
		tok = l.emit(token.SLASH, m)
	case '%':
		tok = l.emit(token.PERCENT, m)
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.emit(token.NOT_EQ, m)
		} else {
			tok = l.emit(token.BANG, m)
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.emit(token.LTE, m)
		} else {
			tok = l.emit(token.LT, m)
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok = l.emit(token.GTE, m)
		} else {
			tok = l.emit(token.GT, m)
		}
	case '|':
		if l.peekChar() == '>' {
			l.readChar()
			tok = l.emit(token.PIPE_GT, m)
		} else {
			tok = l.emit(token.PIPE, m)
		}
	case '?':
		if l.peekChar() == '.' {
			l.readChar()
			tok = l.emit(token.SAFE_DOT, m)
		} else {
			tok = l.emit(token.QUESTION, m)
		}
	case '.':
		tok = l.emit(token.DOT, m)
	case ':':
		tok = l.emit(token.COLON, m)
	case ',':
		tok = l.emit(token.COMMA, m)
	case '(':
		tok = l.emit(token.LPAREN, m)
	case ')':
		tok = l.emit(token.RPAREN, m)
	case '{':
		tok = l.emit(token.LBRACE, m)
	case '}':
		tok = l.emit(token.RBRACE, m)
	case '"':
		return l.readString(m)
	case 0:
		tok.Type = token.EOF
		tok.Lexeme = ""
		tok.Line = l.line
		tok.Column = l.column
		tok.Offset = len(l.input)
	default:
		if isLetter(l.ch) {
			lexeme := l.readIdentifier()
			tok.Lexeme = lexeme
			tok.Type = determineIdentifierType(lexeme)
			tok.Literal = lexeme
			tok.Line = m.line
			tok.Column = m.column
			tok.Offset = m.offset
			return tok
		} else if isDigit(l.ch) {
			return l.readNumber(m)
		}
		l.errorf(diagnostics.ErrL001, m, "invalid character %q", l.ch)
		tok = l.emit(token.ILLEGAL, m)
	}

	l.readChar()
	return tok
}

// readString scans a double-quoted string literal, decoding escapes into the
// token's Literal while keeping the raw source text as the Lexeme. Invalid
// escapes and an unterminated literal are recorded and scanning resumes
// after the closing quote or at the offending newline/EOF.
func (l *Lexer) readString(m mark) token.Token {
	var out []byte
	buf := make([]byte, 4)
	terminated := false

	for {
		l.readChar()
		if l.ch == 0 || l.ch == '\n' {
			// Leave the newline for NextToken so the line still terminates.
			break
		}
		if l.ch == '"' {
			terminated = true
			break
		}
		if l.ch == '\\' {
			escMark := l.mark()
			l.readChar()
			if l.ch == 0 || l.ch == '\n' {
				break
			}
			switch l.ch {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			case 'r':
				out = append(out, '\r')
			case '0':
				out = append(out, 0)
			case '\\':
				out = append(out, '\\')
			case '"':
				out = append(out, '"')
			default:
				l.errorf(diagnostics.ErrL003, escMark, "invalid escape sequence \\%c", l.ch)
				out = append(out, '\\')
				n := utf8.EncodeRune(buf, l.ch)
				out = append(out, buf[:n]...)
			}
			continue
		}
		n := utf8.EncodeRune(buf, l.ch)
		out = append(out, buf[:n]...)
	}

	if !terminated {
		lexeme := l.input[m.offset:l.position]
		l.errorf(diagnostics.ErrL002, m, "unterminated string literal")
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: string(out), Line: m.line, Column: m.column, Offset: m.offset}
	}

	lexeme := l.input[m.offset:l.readPosition]
	l.readChar() // consume closing quote
	return token.Token{Type: token.STRING, Lexeme: lexeme, Literal: string(out), Line: m.line, Column: m.column, Offset: m.offset}
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func determineIdentifierType(ident string) token.TokenType {
	if len(ident) == 0 {
		return token.ILLEGAL
	}
	first := ident[0]
	if 'A' <= first && first <= 'Z' {
		return token.IDENT_UPPER
	}
	return token.LookupIdent(ident)
}

func (l *Lexer) readNumber(m mark) token.Token {
	position := l.position
	base := 10

	// Base prefixes: 0x, 0b, 0o
	if l.ch == '0' {
		peek := l.peekChar()
		if peek == 'x' || peek == 'X' {
			l.readChar()
			l.readChar()
			base = 16
		} else if peek == 'b' || peek == 'B' {
			l.readChar()
			l.readChar()
			base = 2
		} else if peek == 'o' || peek == 'O' {
			l.readChar()
			l.readChar()
			base = 8
		}
	}

	for {
		if base == 16 {
			if !isHexDigit(l.ch) {
				break
			}
		} else if !isDigit(l.ch) {
			break
		}
		l.readChar()
	}

	isFloat := false
	if base == 10 && l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar() // .
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	lexeme := l.input[position:l.position]

	if isFloat {
		val, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			l.errorf(diagnostics.ErrL005, m, "malformed float literal %q", lexeme)
			return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: lexeme, Line: m.line, Column: m.column, Offset: m.offset}
		}
		return token.Token{Type: token.FLOAT, Lexeme: lexeme, Literal: val, Line: m.line, Column: m.column, Offset: m.offset}
	}

	// strconv.ParseInt with base 0 understands the 0x/0b/0o prefixes.
	val, err := strconv.ParseInt(lexeme, 0, 64)
	if err != nil {
		l.errorf(diagnostics.ErrL005, m, "malformed integer literal %q", lexeme)
		return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: lexeme, Line: m.line, Column: m.column, Offset: m.offset}
	}
	return token.Token{Type: token.INT, Lexeme: lexeme, Literal: val, Line: m.line, Column: m.column, Offset: m.offset}
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || (ch >= 0x80 && unicode.IsLetter(ch))
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) skipWhitespace() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '/' {
			if l.peekChar() == '/' {
				l.readChar() // consume first /
				l.readChar() // consume second /
				for l.ch != '\n' && l.ch != 0 {
					l.readChar()
				}
				continue
			} else if l.peekChar() == '*' {
				m := l.mark()
				l.readChar() // consume /
				l.readChar() // consume *
				closed := false
				for l.ch != 0 {
					if l.ch == '*' && l.peekChar() == '/' {
						l.readChar() // consume *
						l.readChar() // consume /
						closed = true
						break
					}
					l.readChar()
				}
				if !closed {
					l.errorf(diagnostics.ErrL004, m, "unterminated block comment")
				}
				continue
			}
		}
		break
	}
}

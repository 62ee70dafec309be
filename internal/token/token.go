package token

type TokenType string

// Token is a single lexical unit. Tokens are immutable once produced by the
// lexer: Lexeme is the exact source text, Literal the decoded value for
// literal tokens (int64, float64, string), and Line/Column/Offset locate the
// first byte of the lexeme in the original source.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
	Offset  int
}

const (
	ILLEGAL = "ILLEGAL"
	EOF     = "EOF"
	NEWLINE = "NEWLINE"

	// Identifiers and literals
	IDENT_LOWER = "IDENT_LOWER" // values, functions, modules, macros
	IDENT_UPPER = "IDENT_UPPER" // structs, traits, builtin type markers
	INT         = "INT"
	FLOAT       = "FLOAT"
	STRING      = "STRING"

	// Operators
	ASSIGN   = "="
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"
	PERCENT  = "%"
	BANG     = "!"

	EQ     = "=="
	NOT_EQ = "!="
	LT     = "<"
	GT     = ">"
	LTE    = "<="
	GTE    = ">="

	PIPE_GT   = "|>"
	PIPE      = "|"
	DOT       = "."
	SAFE_DOT  = "?."
	FAT_ARROW = "=>"
	QUESTION  = "?"
	COLON     = ":"

	// Delimiters
	COMMA     = ","
	SEMICOLON = ";"
	LPAREN    = "("
	RPAREN    = ")"
	LBRACE    = "{"
	RBRACE    = "}"

	// Keywords
	VAR      = "VAR"
	LET      = "LET"
	CONST    = "CONST"
	FN       = "FN"
	STRUCT   = "STRUCT"
	TRAIT    = "TRAIT"
	IMPL     = "IMPL"
	FOR      = "FOR"
	IMPORT   = "IMPORT"
	AS       = "AS"
	PUB      = "PUB"
	MACRO    = "MACRO"
	MATCH    = "MATCH"
	IF       = "IF"
	ELSE     = "ELSE"
	WHILE    = "WHILE"
	BREAK    = "BREAK"
	CONTINUE = "CONTINUE"
	RETURN   = "RETURN"
	TRUE     = "TRUE"
	FALSE    = "FALSE"
	NIL      = "NIL"
	AND      = "AND"
	OR       = "OR"
	SELF     = "SELF"
)

var keywords = map[string]TokenType{
	"var":      VAR,
	"let":      LET,
	"const":    CONST,
	"fn":       FN,
	"struct":   STRUCT,
	"trait":    TRAIT,
	"impl":     IMPL,
	"for":      FOR,
	"import":   IMPORT,
	"as":       AS,
	"pub":      PUB,
	"macro":    MACRO,
	"match":    MATCH,
	"if":       IF,
	"else":     ELSE,
	"while":    WHILE,
	"break":    BREAK,
	"continue": CONTINUE,
	"return":   RETURN,
	"true":     TRUE,
	"false":    FALSE,
	"nil":      NIL,
	"and":      AND,
	"or":       OR,
	"self":     SELF,
}

// LookupIdent classifies a lowercase identifier as a keyword or IDENT_LOWER.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT_LOWER
}

// IsKeyword reports whether the lexeme is a reserved word.
func IsKeyword(lexeme string) bool {
	_, ok := keywords[lexeme]
	return ok
}

package lexer_test

import (
	"strings"
	"testing"

	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/lexer"
	"github.com/corrosion-lang/corrosion/internal/token"
)

func lexAll(t *testing.T, input string) ([]token.Token, []*diagnostics.DiagnosticError) {
	t.Helper()
	l := lexer.New(input)
	var tokens []token.Token
	for {
		tok := l.NextToken()
		if tok.Type == token.EOF {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens, l.Diagnostics()
}

func lexClean(t *testing.T, input string) []token.Token {
	t.Helper()
	tokens, diags := lexAll(t, input)
	if len(diags) > 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	return tokens
}

func wantCode(t *testing.T, diags []*diagnostics.DiagnosticError, code diagnostics.ErrorCode) {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return
		}
	}
	t.Fatalf("expected diagnostic %s, got %v", code, diags)
}

const sampleProgram = `import "geometry/shapes" as geo

// circle area
pub fn area(r) {
	let pi = 3.14159
	pi * r * r
}

struct Point { x: Int, y: Int }

fn main() {
	var total = 0
	total = total + len("hello\n")
	area(2) |> print
}
`

// Every lexeme is the exact source slice at its recorded offset, and the
// bytes between consecutive tokens are whitespace or comments only. Together
// that means the token stream reconstructs the file.
func TestTokensReconstructSource(t *testing.T) {
	tokens := lexClean(t, sampleProgram)
	if len(tokens) == 0 {
		t.Fatal("no tokens produced")
	}

	pos := 0
	for i, tok := range tokens {
		if tok.Offset < pos {
			t.Fatalf("token %d (%s %q) offset %d overlaps previous token ending at %d", i, tok.Type, tok.Lexeme, tok.Offset, pos)
		}
		end := tok.Offset + len(tok.Lexeme)
		if end > len(sampleProgram) {
			t.Fatalf("token %d (%s) extends past the input", i, tok.Type)
		}
		if got := sampleProgram[tok.Offset:end]; got != tok.Lexeme {
			t.Errorf("token %d (%s): lexeme %q but source slice %q", i, tok.Type, tok.Lexeme, got)
		}
		gap := sampleProgram[pos:tok.Offset]
		if trimmed := strings.TrimLeft(gap, " \t\r\n"); trimmed != "" && !strings.HasPrefix(trimmed, "//") && !strings.HasPrefix(trimmed, "/*") {
			t.Errorf("token %d: gap %q before it is not whitespace or a comment", i, gap)
		}
		pos = end
	}
}

func TestTokensCarryLineAndColumn(t *testing.T) {
	tokens := lexClean(t, "let x = 1\nlet y = 2\n")
	var second token.Token
	for _, tok := range tokens {
		if tok.Line == 2 && tok.Type == token.LET {
			second = tok
			break
		}
	}
	if second.Type != token.LET {
		t.Fatal("did not find the second let")
	}
	if second.Column != 1 {
		t.Errorf("second let column = %d, want 1", second.Column)
	}
	if second.Offset != len("let x = 1\n") {
		t.Errorf("second let offset = %d, want %d", second.Offset, len("let x = 1\n"))
	}
}

func TestLiteralDecoding(t *testing.T) {
	tokens := lexClean(t, `42 0xff 0b101 3.5 "a\tb" true`)

	byType := map[token.TokenType]token.Token{}
	for _, tok := range tokens {
		if _, seen := byType[tok.Type]; !seen {
			byType[tok.Type] = tok
		}
	}
	if got := byType[token.INT].Literal; got != int64(42) {
		t.Errorf("int literal = %v, want int64 42", got)
	}
	if got := byType[token.FLOAT].Literal; got != 3.5 {
		t.Errorf("float literal = %v, want 3.5", got)
	}
	if got := byType[token.STRING].Literal; got != "a\tb" {
		t.Errorf("string literal = %q, want %q", got, "a\tb")
	}
	if byType[token.STRING].Lexeme != `"a\tb"` {
		t.Errorf("string lexeme = %q, want raw quoted source", byType[token.STRING].Lexeme)
	}

	var ints []int64
	for _, tok := range tokens {
		if tok.Type == token.INT {
			ints = append(ints, tok.Literal.(int64))
		}
	}
	if len(ints) != 3 || ints[1] != 255 || ints[2] != 5 {
		t.Errorf("int literals = %v, want [42 255 5]", ints)
	}
}

func TestIdentifierCase(t *testing.T) {
	tokens := lexClean(t, "Point point")
	if tokens[0].Type != token.IDENT_UPPER {
		t.Errorf("Point lexed as %s", tokens[0].Type)
	}
	if tokens[1].Type != token.IDENT_LOWER {
		t.Errorf("point lexed as %s", tokens[1].Type)
	}
}

func TestInvalidCharacterRecovers(t *testing.T) {
	tokens, diags := lexAll(t, "let x @ = 1")
	wantCode(t, diags, diagnostics.ErrL001)
	// Lexing continues past the bad character.
	var sawAssign bool
	for _, tok := range tokens {
		if tok.Type == token.ASSIGN {
			sawAssign = true
		}
	}
	if !sawAssign {
		t.Error("lexer did not resume after the invalid character")
	}
}

func TestUnterminatedStringReported(t *testing.T) {
	tokens, diags := lexAll(t, `let s = "oops`)
	wantCode(t, diags, diagnostics.ErrL002)
	// The open quote still yields a token, lexeme running to end of input.
	last := tokens[len(tokens)-1]
	if last.Type != token.ILLEGAL || last.Lexeme != `"oops` {
		t.Errorf("got %s %q", last.Type, last.Lexeme)
	}
}

func TestStringStopsAtNewline(t *testing.T) {
	tokens, diags := lexAll(t, "let s = \"oops\nlet t = 1\n")
	wantCode(t, diags, diagnostics.ErrL002)
	// The literal ends at the newline and the next line lexes normally.
	var lets int
	for _, tok := range tokens {
		if tok.Type == token.LET {
			lets++
		}
		if tok.Type == token.ILLEGAL && tok.Lexeme != `"oops` {
			t.Errorf("string ran past the newline: %q", tok.Lexeme)
		}
	}
	if lets != 2 {
		t.Errorf("expected both let keywords, got %d", lets)
	}
}

func TestInvalidEscapeReported(t *testing.T) {
	tokens, diags := lexAll(t, `"a\qb"`)
	wantCode(t, diags, diagnostics.ErrL003)
	// The string token still comes out, escape preserved verbatim.
	if tokens[0].Type != token.STRING || tokens[0].Literal != `a\qb` {
		t.Errorf("got %s %q", tokens[0].Type, tokens[0].Literal)
	}
}

func TestUnterminatedBlockCommentReported(t *testing.T) {
	_, diags := lexAll(t, "let x = 1 /* never closed")
	wantCode(t, diags, diagnostics.ErrL004)
}

func TestMalformedNumberReported(t *testing.T) {
	_, diags := lexAll(t, "let x = 0x")
	wantCode(t, diags, diagnostics.ErrL005)

	_, diags = lexAll(t, "let y = 99999999999999999999")
	wantCode(t, diags, diagnostics.ErrL005)
}

func TestErrorsAccumulateInOnePass(t *testing.T) {
	_, diags := lexAll(t, "@ \"open\nlet x = 0x")
	if len(diags) < 2 {
		t.Fatalf("expected multiple diagnostics from one pass, got %d", len(diags))
	}
}

package parser_test

import (
	"strings"
	"testing"

	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/parser"
)

func parseWithErrors(input string) []*diagnostics.DiagnosticError {
	_, errs := parser.Parse("main", input)
	return errs
}

// expectError asserts at least one error with the given code.
func expectError(t *testing.T, input string, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	t.Helper()
	errs := parseWithErrors(input)
	if len(errs) == 0 {
		t.Fatalf("expected error %s, but got none\ninput: %s", code, input)
	}
	for _, e := range errs {
		if e.Code == code {
			return e
		}
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	t.Fatalf("expected error %s, got:\n%s\ninput: %s", code, strings.Join(msgs, "\n"), input)
	return nil
}

func expectNoErrors(t *testing.T, input string) {
	t.Helper()
	errs := parseWithErrors(input)
	if len(errs) > 0 {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("expected no errors, got:\n%s\ninput: %s", strings.Join(msgs, "\n"), input)
	}
}

func TestUnexpectedToken(t *testing.T) {
	expectError(t, "let = 5", diagnostics.ErrP001)
	expectError(t, "fn f() {\n    1 2\n}", diagnostics.ErrP001)
	expectError(t, "let x = ", diagnostics.ErrP001)
}

func TestRecursionDepthLimit(t *testing.T) {
	depth := parser.MaxRecursionDepth + 8
	input := "let x = " + strings.Repeat("(", depth) + "1" + strings.Repeat(")", depth)
	expectError(t, input, diagnostics.ErrP002)
}

func TestMalformedPattern(t *testing.T) {
	expectError(t, "let r = match x {\n    + => 1\n}", diagnostics.ErrP003)
	expectError(t, "let r = match x {\n    - done => 1\n}", diagnostics.ErrP003)
	expectError(t, "let r = match x {}", diagnostics.ErrP003)
}

func TestOrPatternAlternativesCannotBind(t *testing.T) {
	err := expectError(t, "let r = match x {\n    a | 2 => 1\n}", diagnostics.ErrP003)
	if !strings.Contains(err.Message, "a") {
		t.Errorf("message should name the binding: %s", err.Message)
	}
	// Wildcards are fine in alternatives.
	expectNoErrors(t, "let r = match x {\n    1 | 2 => 1\n    _ => 0\n}")
}

func TestInvalidAssignmentTarget(t *testing.T) {
	expectError(t, "fn f(p) {\n    p.x = 1\n}", diagnostics.ErrP004)
	expectError(t, "fn f() {\n    f() = 1\n}", diagnostics.ErrP004)
	expectNoErrors(t, "fn f() {\n    var x = 0\n    x = 1\n    x\n}")
}

func TestMalformedDeclarations(t *testing.T) {
	expectError(t, "pub let x = 1", diagnostics.ErrP005)
	expectError(t, "fn f(x, x) {\n    x\n}", diagnostics.ErrP005)
	expectError(t, "fn outer() {\n    struct S {}\n}", diagnostics.ErrP005)
	expectError(t, "fn outer() {\n    import \"util\" as u\n}", diagnostics.ErrP005)
}

func TestRecoveryCollectsMultipleErrors(t *testing.T) {
	input := "let = 1\nlet ok = 2\nlet = 3"
	errs := parseWithErrors(input)
	count := 0
	for _, e := range errs {
		if e.Code == diagnostics.ErrP001 {
			count++
		}
	}
	if count < 2 {
		t.Fatalf("expected recovery to surface both bad statements, got %d errors: %v", count, errs)
	}
}

func TestNegativeLiteralPatterns(t *testing.T) {
	expectNoErrors(t, "let r = match x {\n    -1 => \"neg\"\n    _ => \"other\"\n}")
}

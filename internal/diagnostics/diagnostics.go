package diagnostics

import (
	"fmt"

	"github.com/corrosion-lang/corrosion/internal/token"
)

// Severity ranks a diagnostic. Errors invalidate the producing stage's
// output; warnings are advisory and never stop the pipeline.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// ErrorCode is a stable, per-stage diagnostic code. The prefix letter names
// the producing stage: L lexer, P parser, M macro expander, R resolver,
// T struct/trait checker, X match compiler.
type ErrorCode string

const (
	// Lexer
	ErrL001 ErrorCode = "L001" // invalid character
	ErrL002 ErrorCode = "L002" // unterminated string
	ErrL003 ErrorCode = "L003" // invalid escape sequence
	ErrL004 ErrorCode = "L004" // unterminated block comment
	ErrL005 ErrorCode = "L005" // malformed number literal

	// Parser
	ErrP001 ErrorCode = "P001" // unexpected token (expected vs found)
	ErrP002 ErrorCode = "P002" // expression nesting too deep
	ErrP003 ErrorCode = "P003" // malformed pattern
	ErrP004 ErrorCode = "P004" // invalid assignment target
	ErrP005 ErrorCode = "P005" // malformed declaration

	// Macro expander
	ErrM001 ErrorCode = "M001" // expansion depth limit exceeded
	ErrM002 ErrorCode = "M002" // macro argument count mismatch
	ErrM003 ErrorCode = "M003" // duplicate macro parameter
	ErrM004 ErrorCode = "M004" // duplicate macro declaration

	// Resolver
	ErrR001 ErrorCode = "R001" // unbound name
	ErrR002 ErrorCode = "R002" // unresolved import path
	ErrR003 ErrorCode = "R003" // import cycle
	ErrR004 ErrorCode = "R004" // redeclaration in the same scope
	ErrR005 ErrorCode = "R005" // assignment to an immutable binding
	ErrR006 ErrorCode = "R006" // reference to a non-exported symbol
	ErrR007 ErrorCode = "R007" // break or continue outside a loop

	// Struct/trait checker
	ErrT001  ErrorCode = "T001" // duplicate struct field
	ErrT002  ErrorCode = "T002" // unknown typespec
	ErrT003  ErrorCode = "T003" // missing trait method
	ErrT004  ErrorCode = "T004" // malformed impl (unknown trait or implementor)
	WarnT005 ErrorCode = "T005" // optional field accessed without ?.
	ErrT006  ErrorCode = "T006" // unknown field in struct literal
	ErrT007  ErrorCode = "T007" // struct literal missing required fields

	// Match compiler
	ErrX001  ErrorCode = "X001" // non-exhaustive match
	WarnX002 ErrorCode = "X002" // unreachable match arm
	ErrX003  ErrorCode = "X003" // pattern does not fit scrutinee shape
)

// Kind returns the taxonomy name for a code, e.g. UnboundNameError for R001.
// External reporters key on this rather than on the raw code.
func (c ErrorCode) Kind() string {
	switch c {
	case ErrR001, ErrR002:
		return "UnboundNameError"
	case ErrR003:
		return "ImportCycleError"
	case ErrT003:
		return "MissingTraitMethodError"
	case ErrX001:
		return "ExhaustivenessError"
	case WarnX002:
		return "UnreachableArmWarning"
	case WarnT005:
		return "OptionalFieldAccessWarning"
	}
	switch c[0] {
	case 'L':
		return "LexError"
	case 'P':
		return "ParseError"
	case 'M':
		return "MacroError"
	case 'R':
		return "ResolveError"
	case 'T':
		return "TraitCheckError"
	case 'X':
		return "MatchError"
	}
	return "Error"
}

// DiagnosticError is one structured diagnostic. Module is the module path of
// the source file; processors fill it in when the producing code did not.
type DiagnosticError struct {
	Code     ErrorCode
	Severity Severity
	Message  string
	Line     int
	Column   int
	Module   string
}

func (e *DiagnosticError) Error() string {
	loc := fmt.Sprintf("%d:%d", e.Line, e.Column)
	if e.Module != "" {
		loc = e.Module + ":" + loc
	}
	if e.Severity == SeverityWarning {
		return fmt.Sprintf("%s: warning[%s]: %s", loc, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: error[%s]: %s", loc, e.Code, e.Message)
}

// NewError builds an error-severity diagnostic positioned at tok.
func NewError(code ErrorCode, tok token.Token, msg string) *DiagnosticError {
	return &DiagnosticError{
		Code:     code,
		Severity: SeverityError,
		Message:  msg,
		Line:     tok.Line,
		Column:   tok.Column,
	}
}

// NewWarning builds a warning-severity diagnostic positioned at tok.
func NewWarning(code ErrorCode, tok token.Token, msg string) *DiagnosticError {
	return &DiagnosticError{
		Code:     code,
		Severity: SeverityWarning,
		Message:  msg,
		Line:     tok.Line,
		Column:   tok.Column,
	}
}

// HasErrors reports whether any diagnostic in the list is error severity.
// Warnings alone never invalidate a stage's output.
func HasErrors(diags []*DiagnosticError) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// DisplayName strips the internal rename marker hygiene appends to
// macro-introduced bindings, so messages show the name the user wrote.
// The marker rune cannot occur in source identifiers.
func DisplayName(name string) string {
	for i, r := range name {
		if r == '·' {
			return name[:i]
		}
	}
	return name
}

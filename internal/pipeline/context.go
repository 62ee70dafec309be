package pipeline

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/token"
)

// Processor is one pipeline stage. A processor reads what its predecessors
// left in the context, appends its own artifact and diagnostics, and returns
// the context. Processors never print and never abort the run themselves.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext is the shared state threaded through the per-module
// stages (lexing, parsing, macro expansion). The host supplies SourceCode
// and ModulePath; the core performs no file I/O.
type PipelineContext struct {
	// ModulePath identifies the module, e.g. "geometry/shapes".
	ModulePath string

	// SourceCode is the full UTF-8 source text of the module.
	SourceCode string

	// TokenStream is the lexer's output, terminated by an EOF token.
	TokenStream []token.Token

	// AstRoot is the parser's output, an *ast.Module after parsing and the
	// macro-expanded tree after expansion.
	AstRoot ast.Node

	// MacroDepthLimit caps recursive macro expansion. Zero selects the
	// default from the config package. This is the core's sole tunable.
	MacroDepthLimit int

	// Errors accumulates structured diagnostics across stages in emission
	// order. Warnings and errors share the list; severity tells them apart.
	Errors []*diagnostics.DiagnosticError
}

// Failed reports whether any error-severity diagnostic has been produced.
// Later stages must not consume this context's artifacts when it returns
// true.
func (ctx *PipelineContext) Failed() bool {
	return diagnostics.HasErrors(ctx.Errors)
}

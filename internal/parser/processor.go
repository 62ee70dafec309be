package parser

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/lexer"
	"github.com/corrosion-lang/corrosion/internal/pipeline"
	"github.com/corrosion-lang/corrosion/internal/token"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.TokenStream == nil {
		// This case should ideally not be hit if the lexer runs first, but
		// as a safeguard:
		err := diagnostics.NewError(diagnostics.ErrP001, token.Token{}, "parser: token stream is nil")
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}

	parser := New(ctx.TokenStream, ctx)
	mod := parser.ParseModule()
	mod.Path = ctx.ModulePath
	ctx.AstRoot = mod

	// Ensure all errors carry the module path.
	for _, err := range ctx.Errors {
		if err.Module == "" {
			err.Module = ctx.ModulePath
		}
	}

	return ctx
}

// Parse is a convenience for tests and tools that need a module AST without
// assembling a pipeline by hand.
func Parse(modulePath, source string) (*ast.Module, []*diagnostics.DiagnosticError) {
	ctx := &pipeline.PipelineContext{ModulePath: modulePath, SourceCode: source}
	ctx = (&lexer.LexerProcessor{}).Process(ctx)
	ctx = (&ParserProcessor{}).Process(ctx)
	mod, _ := ctx.AstRoot.(*ast.Module)
	return mod, ctx.Errors
}

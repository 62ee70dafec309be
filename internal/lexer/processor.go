package lexer

import (
	"github.com/corrosion-lang/corrosion/internal/pipeline"
	"github.com/corrosion-lang/corrosion/internal/token"
)

// LexerProcessor runs the lexer as a pipeline stage, materializing the whole
// token stream. Lexical diagnostics are appended to the context; the stream
// is produced even for erroneous input so the parser can keep collecting.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	l := New(ctx.SourceCode)

	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			break
		}
	}

	ctx.TokenStream = tokens

	for _, d := range l.Diagnostics() {
		if d.Module == "" {
			d.Module = ctx.ModulePath
		}
		ctx.Errors = append(ctx.Errors, d)
	}

	return ctx
}

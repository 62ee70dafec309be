package macro

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/config"
	"github.com/corrosion-lang/corrosion/internal/pipeline"
)

// MacroProcessor is the pipeline stage between parsing and resolution. It
// leaves ctx.AstRoot fully expanded, with all macro declarations stripped.
type MacroProcessor struct{}

func (mp *MacroProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil || ctx.Failed() {
		return ctx
	}

	mod, ok := ctx.AstRoot.(*ast.Module)
	if !ok {
		return ctx
	}

	limit := ctx.MacroDepthLimit
	if limit <= 0 {
		limit = config.DefaultMacroDepth
	}

	expander := New(limit)
	ctx.AstRoot = expander.ExpandModule(mod)

	for _, d := range expander.Diagnostics() {
		if d.Module == "" {
			d.Module = ctx.ModulePath
		}
		ctx.Errors = append(ctx.Errors, d)
	}

	return ctx
}

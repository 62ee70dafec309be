// Package driver runs the compiler pipeline end to end over an in-memory
// source set. It is the single entry point the CLI and the compile server
// share; neither the pipeline stages nor this package touch the filesystem.
package driver

import (
	"github.com/corrosion-lang/corrosion/internal/checker"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/ir"
	"github.com/corrosion-lang/corrosion/internal/lower"
	"github.com/corrosion-lang/corrosion/internal/modules"
)

// Options carry the host-level knobs into a run.
type Options struct {
	// Entry is the module path compilation starts from.
	Entry string

	// MacroDepth overrides the expansion cap when positive.
	MacroDepth int
}

// Result is everything a full run produces. Module is nil when any
// error-severity diagnostic was reported.
type Result struct {
	Set         *modules.ResolvedSet
	Module      *ir.Module
	Diagnostics []*diagnostics.DiagnosticError
}

// Check runs the front end through struct/trait checking. Match compilation
// happens during lowering, so `corrosion check` reports everything up to
// T-codes; X-codes surface from Build.
func Check(sources map[string]string, opts Options) (*modules.ResolvedSet, []*diagnostics.DiagnosticError) {
	res := modules.NewResolver(modules.SourceSet(sources))
	if opts.MacroDepth > 0 {
		res.SetMacroDepthLimit(opts.MacroDepth)
	}
	set, diags := res.Resolve(opts.Entry)
	if diagnostics.HasErrors(diags) {
		return set, diags
	}
	diags = append(diags, checker.Check(set)...)
	return set, diags
}

// Build runs the whole pipeline: front end, checking, match compilation and
// IR lowering.
func Build(sources map[string]string, opts Options) *Result {
	set, diags := Check(sources, opts)
	if diagnostics.HasErrors(diags) {
		return &Result{Set: set, Diagnostics: diags}
	}

	mod, lowerDiags := lower.Lower(set)
	diags = append(diags, lowerDiags...)
	if diagnostics.HasErrors(diags) {
		return &Result{Set: set, Diagnostics: diags}
	}
	return &Result{Set: set, Module: mod, Diagnostics: diags}
}

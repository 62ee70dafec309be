package patterns

import (
	"fmt"

	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/config"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/symbols"
	"github.com/corrosion-lang/corrosion/internal/token"
)

// Compiler lowers one match expression into a decision tree, checking
// exhaustiveness and arm reachability along the way. The algorithm is the
// standard matrix decomposition: branch on the column with the most
// discriminating tests, specialize the matrix per constructor, recurse.
type Compiler struct {
	match   *ast.MatchExpression
	rootTy  string // declared struct name of the scrutinee, "" when dynamic
	lookup  ShapeLookup
	diags   []*diagnostics.DiagnosticError
	armDead []bool
}

// CompiledMatch is the output handed to lowering.
type CompiledMatch struct {
	Tree Node
	Arms int
}

// Compile builds the decision tree for a match expression. scrutineeShape is
// the declared struct type of the scrutinee when statically known, "" when
// the value is fully dynamic. Error-severity diagnostics invalidate the
// returned tree.
func Compile(me *ast.MatchExpression, scrutineeShape string, lookup ShapeLookup) (*CompiledMatch, []*diagnostics.DiagnosticError) {
	if lookup == nil {
		lookup = func(string) (*symbols.StructShape, bool) { return nil, false }
	}
	c := &Compiler{
		match:   me,
		rootTy:  scrutineeShape,
		lookup:  lookup,
		armDead: make([]bool, len(me.Arms)),
	}

	rootCol := column{typeName: scrutineeShape}
	for i, arm := range me.Arms {
		if !c.validate(arm.Pattern, rootCol) {
			c.armDead[i] = true
		}
	}

	full := c.buildMatrix(func(int) bool { return true })
	c.checkExhaustiveness()
	c.checkReachability()

	return &CompiledMatch{Tree: c.compile(full), Arms: len(me.Arms)}, c.diags
}

// buildMatrix assembles the root matrix from the arms selected by keep,
// skipping arms that failed validation and expanding or-patterns into one
// row per alternative.
func (c *Compiler) buildMatrix(keep func(arm int) bool) *matrix {
	m := &matrix{cols: []column{{typeName: c.rootTy}}}
	for i, arm := range c.match.Arms {
		if c.armDead[i] || !keep(i) {
			continue
		}
		for _, alt := range expandPattern(arm.Pattern) {
			m.rows = append(m.rows, row{cells: []ast.Pattern{alt}, arm: i})
		}
	}
	return m
}

func (c *Compiler) guarded(arm int) bool {
	return c.match.Arms[arm].Guard != nil
}

// compile turns a matrix into a decision tree. The first row decides: when
// it is all wildcards its arm wins (through its guard if it has one);
// otherwise the best column is split per constructor.
func (c *Compiler) compile(m *matrix) Node {
	if len(m.rows) == 0 {
		return &Fail{}
	}

	i := m.pickColumn()
	if i < 0 || rowIrrefutable(m.rows[0]) {
		return c.commitRow(m)
	}

	col := m.cols[i]
	heads := m.headsAt(i)
	sw := &Switch{Path: col.path}
	for _, h := range heads {
		spec := c.specialize(m, i, h)
		cs := Case{Shape: h.shape, Body: c.compile(spec)}
		if !h.isShape() {
			lit := *h.lit
			cs.Lit = &lit
		}
		sw.Cases = append(sw.Cases, cs)
	}
	if !c.completeSignature(col, heads) {
		sw.Default = c.compile(defaultMatrix(m, i))
	}
	return sw
}

// commitRow emits the leaf (or guard) for the matrix's first row, folding
// the row's remaining identifier cells into bindings.
func (c *Compiler) commitRow(m *matrix) Node {
	r := m.rows[0]
	binds := append([]Binding(nil), r.binds...)
	for ci, cell := range r.cells {
		if ip, ok := cell.(*ast.IdentifierPattern); ok {
			binds = append(binds, Binding{Name: ip.Name.Value, Path: m.cols[ci].path})
		}
	}
	if c.guarded(r.arm) {
		rest := &matrix{cols: m.cols, rows: m.rows[1:]}
		return &Guard{Arm: r.arm, Bindings: binds, Otherwise: c.compile(rest)}
	}
	return &Leaf{Arm: r.arm, Bindings: binds}
}

func rowIrrefutable(r row) bool {
	for _, cell := range r.cells {
		if !irrefutable(cell) {
			return false
		}
	}
	return true
}

// checkExhaustiveness proves coverage when the scrutinee's shape is
// declared, or demands a trailing wildcard arm when it is not. Guarded arms
// never contribute coverage; a guard may fail at run time.
func (c *Compiler) checkExhaustiveness() {
	if c.rootTy == "" {
		c.requireTrailingWildcard()
		return
	}
	cover := c.buildMatrix(func(arm int) bool { return !c.guarded(arm) })
	if ok, w := c.usefulWildcard(cover); ok {
		c.errorf(c.match.GetToken(), "match is not exhaustive; uncovered example: %s", w[0])
	}
}

func (c *Compiler) requireTrailingWildcard() {
	for i := len(c.match.Arms) - 1; i >= 0; i-- {
		if c.armDead[i] {
			continue
		}
		arm := c.match.Arms[i]
		if arm.Guard == nil && irrefutable(arm.Pattern) {
			return
		}
		break
	}
	c.errorf(c.match.GetToken(),
		"match scrutinee has no statically known shape; a trailing wildcard arm is required")
}

// checkReachability warns about arms no value can reach because earlier
// unguarded arms already cover everything they would match.
func (c *Compiler) checkReachability() {
	for i := range c.match.Arms {
		if c.armDead[i] {
			continue
		}
		earlier := c.buildMatrix(func(arm int) bool { return arm < i && !c.guarded(arm) })
		reachable := false
		for _, alt := range expandPattern(c.match.Arms[i].Pattern) {
			if c.usefulRow(earlier, []ast.Pattern{alt}) {
				reachable = true
				break
			}
		}
		if !reachable {
			d := diagnostics.NewWarning(diagnostics.WarnX002, c.match.Arms[i].GetToken(),
				"unreachable match arm: earlier arms cover every value it matches")
			c.diags = append(c.diags, d)
		}
	}
}

func (c *Compiler) errorf(tok token.Token, format string, args ...interface{}) {
	c.diags = append(c.diags, diagnostics.NewError(diagnostics.ErrX001, tok, fmt.Sprintf(format, args...)))
}

// validate checks that a pattern can fit the column's declared type,
// reporting X003 for shape and literal mismatches and for undeclared fields
// in struct patterns. A pattern that cannot fit makes its whole arm dead.
func (c *Compiler) validate(pat ast.Pattern, col column) bool {
	switch p := pat.(type) {
	case nil, *ast.WildcardPattern, *ast.IdentifierPattern:
		return true
	case *ast.OrPattern:
		ok := true
		for _, alt := range p.Alternatives {
			if !c.validate(alt, col) {
				ok = false
			}
		}
		return ok
	case *ast.LiteralPattern:
		v, _ := litValueOf(p.Value)
		if !c.litFits(v, col) {
			c.misfit(p.GetToken(), "literal %s cannot match a %s value", v, col.typeName)
			return false
		}
		return true
	case *ast.StructPattern:
		return c.validateStruct(p, col)
	}
	return true
}

func (c *Compiler) litFits(v LitValue, col column) bool {
	if v.Kind == LitNil {
		return col.optional || col.typeName == "" || col.typeName == config.AnyTypeName
	}
	switch col.typeName {
	case "", config.AnyTypeName:
		return true
	case config.IntTypeName:
		return v.Kind == LitInt
	case config.FloatTypeName:
		return v.Kind == LitFloat
	case config.StringTypeName:
		return v.Kind == LitString
	case config.BoolTypeName:
		return v.Kind == LitBool
	}
	// Declared struct type: no literal inhabits it.
	return false
}

func (c *Compiler) validateStruct(p *ast.StructPattern, col column) bool {
	switch col.typeName {
	case "", config.AnyTypeName:
	case config.IntTypeName, config.FloatTypeName, config.StringTypeName, config.BoolTypeName:
		c.misfit(p.GetToken(), "struct pattern %s cannot match a %s value", p.TypeName.Value, col.typeName)
		return false
	default:
		if p.TypeName.Value != col.typeName {
			c.misfit(p.GetToken(), "struct pattern %s cannot match a %s value", p.TypeName.Value, col.typeName)
			return false
		}
	}

	shape, known := c.lookup(p.TypeName.Value)
	ok := true
	for _, f := range p.Fields {
		sub := column{path: col.path.Child(f.Name.Value)}
		if known {
			field, declared := shape.Field(f.Name.Value)
			if !declared {
				c.misfit(f.GetToken(), "struct %s has no field %q", shape.Name, f.Name.Value)
				ok = false
				continue
			}
			sub.typeName = field.TypeName
			sub.optional = field.Optional
		}
		if f.Pattern != nil && !c.validate(f.Pattern, sub) {
			ok = false
		}
	}
	return ok
}

func (c *Compiler) misfit(tok token.Token, format string, args ...interface{}) {
	c.diags = append(c.diags, diagnostics.NewError(diagnostics.ErrX003, tok, fmt.Sprintf(format, args...)))
}

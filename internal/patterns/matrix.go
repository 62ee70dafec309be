package patterns

import (
	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/config"
	"github.com/corrosion-lang/corrosion/internal/symbols"
)

// ShapeLookup resolves a struct name to its declared shape. The match
// compiler never reaches for symbol tables itself; the caller hands it this
// view of the checked declarations.
type ShapeLookup func(name string) (*symbols.StructShape, bool)

// column describes one tested position: where it sits in the scrutinee and
// what the declared shape, if any, says about its type. TypeName "" or Any
// means the column is fully dynamic. Optional adds nil to the column's
// domain.
type column struct {
	path     Path
	typeName string
	optional bool
}

// row is one matrix row: a pattern per column (nil is wildcard), the
// bindings committed so far, and the arm the row belongs to.
type row struct {
	cells []ast.Pattern
	binds []Binding
	arm   int
}

type matrix struct {
	cols []column
	rows []row
}

// head is one constructor: a struct shape tag or a literal value.
type head struct {
	shape string
	lit   *LitValue
}

func shapeHead(name string) head { return head{shape: name} }
func litHead(v LitValue) head    { return head{lit: &v} }
func (h head) isShape() bool     { return h.shape != "" }

func (h head) sameAs(o head) bool {
	if h.isShape() != o.isShape() {
		return false
	}
	if h.isShape() {
		return h.shape == o.shape
	}
	return *h.lit == *o.lit
}

// irrefutable reports whether the pattern matches every value. A nil cell is
// an implicit wildcard.
func irrefutable(pat ast.Pattern) bool {
	switch pat.(type) {
	case nil, *ast.WildcardPattern, *ast.IdentifierPattern:
		return true
	}
	return false
}

// headOf returns the constructor a refutable pattern tests.
func headOf(pat ast.Pattern) (head, bool) {
	switch p := pat.(type) {
	case *ast.StructPattern:
		return shapeHead(p.TypeName.Value), true
	case *ast.LiteralPattern:
		if v, ok := litValueOf(p.Value); ok {
			return litHead(v), true
		}
	}
	return head{}, false
}

// expandPattern rewrites away or-patterns, returning one or-free pattern per
// alternative. Struct patterns expand to the cartesian product of their
// fields' expansions; the parser guarantees alternatives bind nothing, so
// duplicated sub-patterns are safe to share.
func expandPattern(pat ast.Pattern) []ast.Pattern {
	switch p := pat.(type) {
	case *ast.OrPattern:
		var out []ast.Pattern
		for _, alt := range p.Alternatives {
			out = append(out, expandPattern(alt)...)
		}
		return out
	case *ast.StructPattern:
		rows := []*ast.StructPattern{{Token: p.Token, TypeName: p.TypeName}}
		for _, f := range p.Fields {
			if f.Pattern == nil {
				for _, r := range rows {
					r.Fields = append(r.Fields, f)
				}
				continue
			}
			alts := expandPattern(f.Pattern)
			next := make([]*ast.StructPattern, 0, len(rows)*len(alts))
			for _, r := range rows {
				for _, alt := range alts {
					clone := &ast.StructPattern{Token: r.Token, TypeName: r.TypeName}
					clone.Fields = append(clone.Fields, r.Fields...)
					clone.Fields = append(clone.Fields, &ast.FieldPattern{
						Token:   f.Token,
						Name:    f.Name,
						Pattern: alt,
					})
					next = append(next, clone)
				}
			}
			rows = next
		}
		out := make([]ast.Pattern, len(rows))
		for i, r := range rows {
			out[i] = r
		}
		return out
	default:
		return []ast.Pattern{pat}
	}
}

// pickColumn selects the column to branch on: the one with a refutable
// pattern in the most rows, ties resolved left to right. This is the
// branching-factor heuristic of matrix decomposition.
func (m *matrix) pickColumn() int {
	best, bestScore := -1, 0
	for i := range m.cols {
		score := 0
		for _, r := range m.rows {
			if !irrefutable(r.cells[i]) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

// headsAt collects the distinct constructors tested at column i, in first
// appearance order.
func (m *matrix) headsAt(i int) []head {
	var heads []head
	for _, r := range m.rows {
		h, ok := headOf(r.cells[i])
		if !ok {
			continue
		}
		dup := false
		for _, seen := range heads {
			if seen.sameAs(h) {
				dup = true
				break
			}
		}
		if !dup {
			heads = append(heads, h)
		}
	}
	return heads
}

// subColumns returns the columns a shape head expands into: the declared
// fields when the shape is known, otherwise the union of fields the rows
// mention, in first appearance order.
func (c *Compiler) subColumns(col column, shapeName string, rows []row, i int) []column {
	if shape, ok := c.lookup(shapeName); ok {
		cols := make([]column, 0, len(shape.Fields))
		for _, f := range shape.Fields {
			cols = append(cols, column{
				path:     col.path.Child(f.Name),
				typeName: f.TypeName,
				optional: f.Optional,
			})
		}
		return cols
	}
	var cols []column
	seen := make(map[string]bool)
	for _, r := range rows {
		sp, ok := r.cells[i].(*ast.StructPattern)
		if !ok || sp.TypeName.Value != shapeName {
			continue
		}
		for _, f := range sp.Fields {
			if !seen[f.Name.Value] {
				seen[f.Name.Value] = true
				cols = append(cols, column{path: col.path.Child(f.Name.Value)})
			}
		}
	}
	return cols
}

// specialize builds the sub-matrix for head h at column i. Rows that test a
// different constructor drop out; rows with an irrefutable cell stay, their
// identifier (if any) recorded as a binding; rows testing h are unpacked
// into the head's sub-columns.
func (c *Compiler) specialize(m *matrix, i int, h head) *matrix {
	col := m.cols[i]
	var subCols []column
	if h.isShape() {
		subCols = c.subColumns(col, h.shape, m.rows, i)
	}

	spec := &matrix{}
	spec.cols = append(spec.cols, m.cols[:i]...)
	spec.cols = append(spec.cols, m.cols[i+1:]...)
	spec.cols = append(spec.cols, subCols...)

	for _, r := range m.rows {
		cell := r.cells[i]
		if irrefutable(cell) {
			nr := r.without(i, len(subCols))
			if ip, ok := cell.(*ast.IdentifierPattern); ok {
				nr.binds = append(nr.binds, Binding{Name: ip.Name.Value, Path: col.path})
			}
			spec.rows = append(spec.rows, nr)
			continue
		}
		rh, _ := headOf(cell)
		if !rh.sameAs(h) {
			continue
		}
		nr := r.without(i, len(subCols))
		if sp, ok := cell.(*ast.StructPattern); ok {
			for ci, sub := range subCols {
				field := structFieldNamed(sp, lastSegment(sub.path))
				if field == nil {
					continue
				}
				if field.Pattern == nil {
					// Pun: bind the field's name to the field's value.
					nr.binds = append(nr.binds, Binding{Name: field.Name.Value, Path: sub.path})
					continue
				}
				nr.cells[len(m.cols)-1+ci] = field.Pattern
			}
		}
		spec.rows = append(spec.rows, nr)
	}
	return spec
}

// defaultMatrix keeps only the rows whose cell at column i matches any
// value, dropping the column.
func defaultMatrix(m *matrix, i int) *matrix {
	def := &matrix{}
	def.cols = append(def.cols, m.cols[:i]...)
	def.cols = append(def.cols, m.cols[i+1:]...)
	for _, r := range m.rows {
		cell := r.cells[i]
		if !irrefutable(cell) {
			continue
		}
		nr := r.without(i, 0)
		if ip, ok := cell.(*ast.IdentifierPattern); ok {
			nr.binds = append(nr.binds, Binding{Name: ip.Name.Value, Path: m.cols[i].path})
		}
		def.rows = append(def.rows, nr)
	}
	return def
}

// without copies the row minus cell i, appending extra wildcard cells for a
// head's sub-columns.
func (r row) without(i, extra int) row {
	cells := make([]ast.Pattern, 0, len(r.cells)-1+extra)
	cells = append(cells, r.cells[:i]...)
	cells = append(cells, r.cells[i+1:]...)
	cells = append(cells, make([]ast.Pattern, extra)...)
	binds := make([]Binding, len(r.binds), len(r.binds)+2)
	copy(binds, r.binds)
	return row{cells: cells, binds: binds, arm: r.arm}
}

// completeSignature reports whether the heads cover the column's whole
// domain. Only finite domains can be completed: Bool, a declared struct
// type, and nil-extended variants of either. Numeric, string and dynamic
// columns are never complete.
func (c *Compiler) completeSignature(col column, heads []head) bool {
	needNil := col.optional
	hasNil := false
	for _, h := range heads {
		if !h.isShape() && h.lit.Kind == LitNil {
			hasNil = true
		}
	}
	if needNil && !hasNil {
		return false
	}

	switch col.typeName {
	case config.BoolTypeName:
		hasTrue, hasFalse := false, false
		for _, h := range heads {
			if !h.isShape() && h.lit.Kind == LitBool {
				if h.lit.Bool {
					hasTrue = true
				} else {
					hasFalse = true
				}
			}
		}
		return hasTrue && hasFalse
	case "", config.AnyTypeName, config.IntTypeName, config.FloatTypeName, config.StringTypeName:
		return false
	default:
		// Declared struct type: the single shape completes it.
		for _, h := range heads {
			if h.isShape() && h.shape == col.typeName {
				return true
			}
		}
		return false
	}
}

func lastSegment(p Path) string {
	return p[len(p)-1]
}

func structFieldNamed(sp *ast.StructPattern, name string) *ast.FieldPattern {
	for _, f := range sp.Fields {
		if f.Name.Value == name {
			return f
		}
	}
	return nil
}

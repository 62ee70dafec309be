package patterns

import (
	"strings"

	"github.com/corrosion-lang/corrosion/internal/ast"
	"github.com/corrosion-lang/corrosion/internal/config"
)

// wit is a synthesized example value, used to show the user one concrete
// uncovered case when exhaustiveness fails.
type wit struct {
	any    bool
	lit    *LitValue
	shape  string
	fields []witField
}

type witField struct {
	name  string
	value wit
}

func (w wit) String() string {
	switch {
	case w.any:
		return "_"
	case w.lit != nil:
		return w.lit.String()
	default:
		parts := make([]string, len(w.fields))
		for i, f := range w.fields {
			parts[i] = f.name + ": " + f.value.String()
		}
		return w.shape + "{" + strings.Join(parts, ", ") + "}"
	}
}

func litWit(v LitValue) wit { return wit{lit: &v} }

// usefulWildcard reports whether a row of wildcards would still match some
// value the matrix does not cover, returning a witness per column when it
// would. This is the exhaustiveness question: the matrix is exhaustive
// exactly when the wildcard row is useless against it.
func (c *Compiler) usefulWildcard(m *matrix) (bool, []wit) {
	if len(m.rows) == 0 {
		return true, c.zeroWits(m.cols)
	}
	if len(m.cols) == 0 {
		return false, nil
	}

	i := m.pickColumn()
	if i < 0 {
		// Some row is all wildcards and swallows everything.
		return false, nil
	}

	col := m.cols[i]
	heads := m.headsAt(i)

	if c.completeSignature(col, heads) {
		for _, h := range heads {
			spec := c.specialize(m, i, h)
			ok, sub := c.usefulWildcard(spec)
			if !ok {
				continue
			}
			return true, assembleWitness(m, i, c.headWit(h, col, sub), sub)
		}
		return false, nil
	}

	def := defaultMatrix(m, i)
	ok, sub := c.usefulWildcard(def)
	if !ok {
		return false, nil
	}
	return true, assembleWitness(m, i, c.missingWit(col, heads), sub)
}

// assembleWitness rebuilds a witness vector in the original column order.
// sub holds witnesses for the matrix with column i removed (and, for a
// shape head, that head's sub-columns appended at the end; headWit already
// consumed those).
func assembleWitness(m *matrix, i int, at wit, sub []wit) []wit {
	out := make([]wit, len(m.cols))
	for j := range m.cols {
		switch {
		case j < i:
			out[j] = sub[j]
		case j == i:
			out[j] = at
		default:
			out[j] = sub[j-1]
		}
	}
	return out
}

// headWit wraps a constructor around the sub-witnesses of its fields, which
// sit at the tail of the specialized witness vector.
func (c *Compiler) headWit(h head, col column, sub []wit) wit {
	if !h.isShape() {
		return litWit(*h.lit)
	}
	w := wit{shape: h.shape}
	if shape, ok := c.lookup(h.shape); ok {
		tail := sub[len(sub)-len(shape.Fields):]
		for fi, f := range shape.Fields {
			w.fields = append(w.fields, witField{name: f.Name, value: tail[fi]})
		}
	}
	return w
}

// missingWit picks one value of the column's domain that no head covers.
func (c *Compiler) missingWit(col column, heads []head) wit {
	if col.optional {
		covered := false
		for _, h := range heads {
			if !h.isShape() && h.lit.Kind == LitNil {
				covered = true
				break
			}
		}
		if !covered {
			return litWit(LitValue{Kind: LitNil})
		}
	}

	switch col.typeName {
	case config.BoolTypeName:
		hasTrue := false
		for _, h := range heads {
			if !h.isShape() && h.lit.Kind == LitBool && h.lit.Bool {
				hasTrue = true
			}
		}
		return litWit(LitValue{Kind: LitBool, Bool: !hasTrue})
	case config.FloatTypeName:
		used := make(map[float64]bool)
		for _, h := range heads {
			if !h.isShape() && h.lit.Kind == LitFloat {
				used[h.lit.Float] = true
			}
		}
		v := 0.0
		for used[v] {
			v++
		}
		return litWit(LitValue{Kind: LitFloat, Float: v})
	case config.StringTypeName:
		used := make(map[string]bool)
		for _, h := range heads {
			if !h.isShape() && h.lit.Kind == LitString {
				used[h.lit.Str] = true
			}
		}
		v := ""
		for used[v] {
			v += "x"
		}
		return litWit(LitValue{Kind: LitString, Str: v})
	case "", config.AnyTypeName, config.IntTypeName:
		used := make(map[int64]bool)
		for _, h := range heads {
			if !h.isShape() && h.lit.Kind == LitInt {
				used[h.lit.Int] = true
			}
		}
		var v int64
		for used[v] {
			v++
		}
		return litWit(LitValue{Kind: LitInt, Int: v})
	default:
		// A declared struct type whose shape head is absent.
		return c.zeroWit(column{typeName: col.typeName}, 0)
	}
}

func (c *Compiler) zeroWits(cols []column) []wit {
	out := make([]wit, len(cols))
	for i, col := range cols {
		out[i] = c.zeroWit(col, 0)
	}
	return out
}

// zeroWit builds the canonical example value for a column's type. Recursion
// through struct fields is depth-capped so self-referential shapes degrade
// to a wildcard instead of looping.
func (c *Compiler) zeroWit(col column, depth int) wit {
	switch col.typeName {
	case config.IntTypeName:
		return litWit(LitValue{Kind: LitInt})
	case config.FloatTypeName:
		return litWit(LitValue{Kind: LitFloat})
	case config.StringTypeName:
		return litWit(LitValue{Kind: LitString})
	case config.BoolTypeName:
		return litWit(LitValue{Kind: LitBool})
	case "", config.AnyTypeName:
		return wit{any: true}
	}
	shape, ok := c.lookup(col.typeName)
	if !ok || depth >= 3 {
		return wit{any: true}
	}
	w := wit{shape: shape.Name}
	for _, f := range shape.Fields {
		sub := column{typeName: f.TypeName, optional: f.Optional}
		w.fields = append(w.fields, witField{name: f.Name, value: c.zeroWit(sub, depth+1)})
	}
	return w
}

// usefulRow reports whether the query row can match a value no matrix row
// matches first. Arm reachability is this question asked against the rows
// of all earlier unguarded arms.
func (c *Compiler) usefulRow(m *matrix, q []ast.Pattern) bool {
	if len(m.rows) == 0 {
		return true
	}
	if len(m.cols) == 0 {
		return false
	}

	for i, cell := range q {
		if irrefutable(cell) {
			continue
		}
		h, ok := headOf(cell)
		if !ok {
			continue
		}
		spec := c.specialize(m, i, h)
		return c.usefulRow(spec, c.specializeQuery(m, q, i, h, len(spec.cols)))
	}

	ok, _ := c.usefulWildcard(m)
	return ok
}

// specializeQuery rebuilds the query row to line up with a specialized
// matrix: the tested cell is replaced by its sub-patterns, aligned to the
// head's sub-columns at the tail.
func (c *Compiler) specializeQuery(m *matrix, q []ast.Pattern, i int, h head, specCols int) []ast.Pattern {
	out := make([]ast.Pattern, 0, specCols)
	out = append(out, q[:i]...)
	out = append(out, q[i+1:]...)
	for len(out) < specCols {
		out = append(out, nil)
	}
	sp, ok := q[i].(*ast.StructPattern)
	if !ok || !h.isShape() {
		return out
	}
	sub := specCols - len(q) + 1
	base := specCols - sub
	if shape, known := c.lookup(h.shape); known {
		for fi, f := range shape.Fields {
			if field := structFieldNamed(sp, f.Name); field != nil && field.Pattern != nil {
				out[base+fi] = field.Pattern
			}
		}
	}
	return out
}

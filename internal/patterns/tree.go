package patterns

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corrosion-lang/corrosion/internal/ast"
)

// Path addresses a sub-value of the scrutinee by field names from the root.
// The empty path is the scrutinee itself.
type Path []string

func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	return "$." + strings.Join(p, ".")
}

// Child returns the path extended by one field.
func (p Path) Child(field string) Path {
	child := make(Path, len(p)+1)
	copy(child, p)
	child[len(p)] = field
	return child
}

// Node is one decision-tree node. The tree is what lowering turns into
// branches: Switch tests a projected value, Leaf and Guard commit to an arm,
// Fail is the no-match sink reachable only through guard fall-through or an
// unprovable dynamic scrutinee.
type Node interface {
	node()
	Repr(indent string) string
}

// Leaf commits to the arm at Arm with the accumulated bindings.
type Leaf struct {
	Arm      int
	Bindings []Binding
}

// Guard evaluates arm Arm's guard under Bindings; when the guard fails,
// matching continues at Otherwise.
type Guard struct {
	Arm       int
	Bindings  []Binding
	Otherwise Node
}

// Fail reports that no arm matched.
type Fail struct{}

// Switch tests the value at Path against each case's constructor in order.
// Default covers every remaining value; it is nil only when the cases are
// provably complete for the column's declared type.
type Switch struct {
	Path    Path
	Cases   []Case
	Default Node
}

// Case is one constructor test: exactly one of Shape (struct tag test) or
// Lit (literal equality test) is set.
type Case struct {
	Shape string
	Lit   *LitValue
	Body  Node
}

// Binding binds Name to the value at Path when its arm is chosen.
type Binding struct {
	Name string
	Path Path
}

func (*Leaf) node()   {}
func (*Guard) node()  {}
func (*Fail) node()   {}
func (*Switch) node() {}

func (l *Leaf) Repr(indent string) string {
	return fmt.Sprintf("%sleaf arm=%d%s\n", indent, l.Arm, bindingsRepr(l.Bindings))
}

func (g *Guard) Repr(indent string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%sguard arm=%d%s\n", indent, g.Arm, bindingsRepr(g.Bindings))
	b.WriteString(g.Otherwise.Repr(indent + "  "))
	return b.String()
}

func (f *Fail) Repr(indent string) string {
	return indent + "fail\n"
}

func (s *Switch) Repr(indent string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%sswitch %s\n", indent, s.Path)
	for _, c := range s.Cases {
		if c.Shape != "" {
			fmt.Fprintf(&b, "%s  case shape %s:\n", indent, c.Shape)
		} else {
			fmt.Fprintf(&b, "%s  case %s:\n", indent, c.Lit)
		}
		b.WriteString(c.Body.Repr(indent + "    "))
	}
	if s.Default != nil {
		fmt.Fprintf(&b, "%s  default:\n", indent)
		b.WriteString(s.Default.Repr(indent + "    "))
	}
	return b.String()
}

func bindingsRepr(binds []Binding) string {
	if len(binds) == 0 {
		return ""
	}
	parts := make([]string, len(binds))
	for i, b := range binds {
		parts[i] = b.Name + "=" + b.Path.String()
	}
	return " [" + strings.Join(parts, " ") + "]"
}

// LitKind discriminates the literal domains a pattern can test.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitBool
	LitNil
)

// LitValue is one literal constant in a comparable representation, usable as
// a map key when grouping constructor heads.
type LitValue struct {
	Kind  LitKind
	Int   int64
	Float float64
	Str   string
	Bool  bool
}

func (v LitValue) String() string {
	switch v.Kind {
	case LitInt:
		return strconv.FormatInt(v.Int, 10)
	case LitFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case LitString:
		return strconv.Quote(v.Str)
	case LitBool:
		return strconv.FormatBool(v.Bool)
	}
	return "nil"
}

// litValueOf extracts the comparable value from a literal pattern's
// expression.
func litValueOf(expr ast.Expression) (LitValue, bool) {
	switch lit := expr.(type) {
	case *ast.IntegerLiteral:
		return LitValue{Kind: LitInt, Int: lit.Value}, true
	case *ast.FloatLiteral:
		return LitValue{Kind: LitFloat, Float: lit.Value}, true
	case *ast.StringLiteral:
		return LitValue{Kind: LitString, Str: lit.Value}, true
	case *ast.BooleanLiteral:
		return LitValue{Kind: LitBool, Bool: lit.Value}, true
	case *ast.NilLiteral:
		return LitValue{Kind: LitNil}, true
	}
	return LitValue{}, false
}

package prettyprinter_test

import (
	"strings"
	"testing"

	"github.com/corrosion-lang/corrosion/internal/parser"
	"github.com/corrosion-lang/corrosion/internal/prettyprinter"
)

func parseOrFail(t *testing.T, input string) string {
	t.Helper()
	mod, errs := parser.Parse("main", input)
	if len(errs) > 0 {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("parsing failed:\n%s\ninput:\n%s", strings.Join(msgs, "\n"), input)
	}
	printer := prettyprinter.NewCodePrinter()
	mod.Accept(printer)
	return printer.String()
}

// Printing and reparsing must reach a fixed point: print(parse(print(parse(s))))
// equals print(parse(s)).
func TestReprintIdempotence(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"let_binding", "let x = 5"},
		{"var_binding", "var count = 0"},
		{"const_binding", "const limit = 100"},
		{"pub_const", "pub const version = \"1.0\""},
		{"arithmetic", "let y = 1 + 2 * 3 - 4 / 2"},
		{"grouped", "let y = (1 + 2) * 3"},
		{"nested_groups", "let z = ((1 + 2) * (3 - 4)) % 5"},
		{"comparison_chain", "let ok = 1 < 2 and 3 >= 2 or false"},
		{"unary", "let n = -x + !done"},
		{"pipe_chain", "let r = 5 |> double |> inc"},
		{"pipe_with_call", "let r = xs |> map(inc) |> sum"},
		{"call_nested", "let r = f(g(x), h(y, z))"},
		{"member_chain", "let d = p.pos.x"},
		{"safe_member", "let m = user?.email"},
		{"uniform_call", "let d = p.distance(origin)"},
		{"struct_literal", "let p = Point{x: 1, y: 2}"},
		{"struct_literal_nested", "let s = Segment{from: Point{x: 0, y: 0}, to: Point{x: 1, y: 1}}"},
		{"fn_decl", "fn double(x) {\n    x * 2\n}"},
		{"fn_decl_pub", "pub fn inc(x) {\n    x + 1\n}"},
		{"fn_literal", "let f = fn(x, y) {\n    x + y\n}"},
		{"if_expr", "let m = if a > b { a } else { b }"},
		{"if_else_if", "let s = if x < 0 { -1 } else if x > 0 { 1 } else { 0 }"},
		{"while_loop", "while i < 10 {\n    i = i + 1\n}"},
		{"while_break", "while true {\n    if done { break }\n    continue\n}"},
		{"return_value", "fn f() {\n    return 42\n}"},
		{"return_bare", "fn f() {\n    return\n}"},
		{"struct_decl", "struct Point {\n    x: Int\n    y: Int\n}"},
		{"struct_optional_field", "struct Person {\n    name: String\n    email?: String\n}"},
		{"trait_decl", "trait Greet {\n    hello\n}"},
		{"trait_fn_sig", "trait Shape {\n    fn area(self)\n}"},
		{"impl_decl", "impl Greet for Person {\n    fn hello(self) {\n        \"hi\"\n    }\n}"},
		{"macro_decl", "macro twice(e) {\n    e\n    e\n}"},
		{"match_literals", "let r = match x {\n    0 => \"zero\"\n    1 => \"one\"\n    _ => \"many\"\n}"},
		{"match_struct", "let r = match p {\n    Point{x: 0, y: 0} => \"origin\"\n    Point{x, y} => \"other\"\n}"},
		{"match_guard", "let r = match n {\n    v if v > 0 => \"pos\"\n    _ => \"rest\"\n}"},
		{"match_or_pattern", "let r = match c {\n    0 | 1 | 2 => \"small\"\n    _ => \"big\"\n}"},
		{"match_pun", "let r = match p {\n    Point{x, y} => x + y\n}"},
		{"imports", "import \"geo/shapes\" as shapes\nlet a = shapes.area(c)"},
		{"string_escapes", "let s = \"line\\nbreak\\t\\\"quoted\\\"\""},
		{"float_literal", "let f = 3.25"},
		{"float_whole", "let f = 2.0"},
		{"nil_literal", "let n = nil"},
		{"block_value", "let v = {\n    let t = 1\n    t + 2\n}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			first := parseOrFail(t, tc.input)
			second := parseOrFail(t, first)
			if first != second {
				t.Errorf("reprint not idempotent:\n--- first\n%s\n--- second\n%s", first, second)
			}
		})
	}
}

// Printed output must preserve tree structure: the reparse of the printed
// form dumps to the same tree as the original parse.
func TestReprintPreservesStructure(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"precedence_flat", "let y = 1 + 2 * 3"},
		{"precedence_grouped", "let y = (1 + 2) * 3"},
		{"left_assoc_chain", "let y = 10 - 4 - 3"},
		{"right_nested_sub", "let y = 10 - (4 - 3)"},
		{"pipe_order", "let r = 5 |> double |> inc"},
		{"prefix_callee", "let r = (-f)(x)"},
		{"mixed_logic", "let b = a or b and c"},
		{"member_call", "let d = p.distance(origin)"},
		{"match_arms", "let r = match p {\n    Point{x: 0} => 1\n    _ => 2\n}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mod1, errs := parser.Parse("main", tc.input)
			if len(errs) > 0 {
				t.Fatalf("parse failed: %v", errs)
			}
			code := prettyprinter.NewCodePrinter()
			mod1.Accept(code)

			mod2, errs := parser.Parse("main", code.String())
			if len(errs) > 0 {
				t.Fatalf("reparse failed: %v\nprinted:\n%s", errs, code.String())
			}

			tree1 := prettyprinter.NewTreePrinter()
			mod1.Accept(tree1)
			tree2 := prettyprinter.NewTreePrinter()
			mod2.Accept(tree2)

			if tree1.String() != tree2.String() {
				t.Errorf("tree changed after reprint:\n--- original\n%s\n--- reparsed\n%s\nprinted code:\n%s",
					tree1.String(), tree2.String(), code.String())
			}
		})
	}
}

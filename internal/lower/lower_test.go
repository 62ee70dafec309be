package lower_test

import (
	"strings"
	"testing"

	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/ir"
	"github.com/corrosion-lang/corrosion/internal/lower"
	"github.com/corrosion-lang/corrosion/internal/modules"
)

func lowerSet(t *testing.T, sources modules.SourceSet) *ir.Module {
	t.Helper()
	set, diags := modules.NewResolver(sources).Resolve("main")
	if diagnostics.HasErrors(diags) {
		t.Fatalf("resolution failed: %v", diags)
	}
	mod, diags := lower.Lower(set)
	if diagnostics.HasErrors(diags) {
		t.Fatalf("lowering failed: %v", diags)
	}
	if err := mod.Validate(); err != nil {
		t.Fatalf("lowered module does not validate: %v", err)
	}
	return mod
}

func lowerSource(t *testing.T, source string) *ir.Module {
	t.Helper()
	return lowerSet(t, modules.SourceSet{"main": source})
}

func mustUnit(t *testing.T, mod *ir.Module, name string) *ir.Unit {
	t.Helper()
	u := mod.Unit(name)
	if u == nil {
		names := make([]string, len(mod.Units))
		for i, unit := range mod.Units {
			names[i] = unit.Name
		}
		t.Fatalf("no unit %q in %v", name, names)
	}
	return u
}

func collectOps(u *ir.Unit, op ir.Op) []ir.Instruction {
	var out []ir.Instruction
	for _, blk := range u.Blocks {
		for _, ins := range blk.Instrs {
			if ins.Op == op {
				out = append(out, ins)
			}
		}
	}
	return out
}

func regsEqual(a, b []ir.Reg) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// A uniform call on a non-module receiver and the equivalent free call must
// produce the same call site.
func TestUniformCallMatchesFreeCall(t *testing.T) {
	mod := lowerSource(t, `
fn distance(a, b) { 0 }
fn both(p, origin) {
	distance(p, origin)
	p.distance(origin)
}
`)
	u := mustUnit(t, mod, "main.both")
	calls := collectOps(u, ir.OpCall)
	var sites []ir.Instruction
	for _, c := range calls {
		if c.Sym == "main.distance" {
			sites = append(sites, c)
		}
	}
	if len(sites) != 2 {
		t.Fatalf("expected 2 calls to main.distance, got %d", len(sites))
	}
	if !regsEqual(sites[0].Args, sites[1].Args) {
		t.Errorf("call arguments differ: %v vs %v", sites[0].Args, sites[1].Args)
	}
}

// Pipe application is sugar for an ordinary call with the piped value
// prepended; both spellings lower to the same instruction stream.
func TestPipeEqualsNestedCall(t *testing.T) {
	mod := lowerSource(t, `
fn double(x) { x * 2 }
fn inc(x) { x + 1 }
fn viaPipe(n) { n |> double |> inc }
fn viaCall(n) { inc(double(n)) }
`)
	piped := mustUnit(t, mod, "main.viaPipe")
	called := mustUnit(t, mod, "main.viaCall")

	var pl, cl []string
	for _, ins := range piped.Blocks[0].Instrs {
		pl = append(pl, ins.String())
	}
	for _, ins := range called.Blocks[0].Instrs {
		cl = append(cl, ins.String())
	}
	if strings.Join(pl, "\n") != strings.Join(cl, "\n") {
		t.Errorf("pipe and nested call diverge:\n%v\nvs\n%v", pl, cl)
	}
}

func TestPipeWithExtraArguments(t *testing.T) {
	mod := lowerSource(t, `
fn add(a, b) { a + b }
fn f(n) { n |> add(10) }
`)
	u := mustUnit(t, mod, "main.f")
	calls := collectOps(u, ir.OpCall)
	if len(calls) != 1 || calls[0].Sym != "main.add" {
		t.Fatalf("expected one call to main.add, got %v", calls)
	}
	if len(calls[0].Args) != 2 || calls[0].Args[0] != 0 {
		t.Errorf("piped value must be the first argument: %v", calls[0].Args)
	}
}

func TestClosureCapturesEnclosingLocal(t *testing.T) {
	mod := lowerSource(t, `
fn make(n) {
	fn(x) { x + n }
}
`)
	inner := mustUnit(t, mod, "main.make.$fn1")
	if len(inner.Params) != 1 || inner.Params[0] != "x" {
		t.Fatalf("params = %v", inner.Params)
	}
	if len(inner.Captures) != 1 || inner.Captures[0] != "n" {
		t.Fatalf("captures = %v", inner.Captures)
	}

	outer := mustUnit(t, mod, "main.make")
	mk := collectOps(outer, ir.OpMakeClosure)
	if len(mk) != 1 || mk[0].Sym != "main.make.$fn1" {
		t.Fatalf("expected one MakeClosure of the inner unit, got %v", mk)
	}
	// make's only local is the parameter n, register 0.
	if len(mk[0].Args) != 1 || mk[0].Args[0] != 0 {
		t.Errorf("capture frame should carry n by value: %v", mk[0].Args)
	}
}

func TestClosureReferencingGlobalDoesNotCapture(t *testing.T) {
	mod := lowerSource(t, `
fn helper(x) { x }
fn make() {
	fn(x) { helper(x) }
}
`)
	inner := mustUnit(t, mod, "main.make.$fn1")
	if len(inner.Captures) != 0 {
		t.Errorf("module functions resolve statically, captures = %v", inner.Captures)
	}
	calls := collectOps(inner, ir.OpCall)
	if len(calls) != 1 || calls[0].Sym != "main.helper" {
		t.Errorf("expected static call to main.helper, got %v", calls)
	}
}

func TestTopLevelVarBecomesGlobal(t *testing.T) {
	mod := lowerSource(t, `
var counter = 0
fn bump() {
	counter = counter + 1
}
`)
	init := mustUnit(t, mod, "main.$init")
	sets := collectOps(init, ir.OpSetGlobal)
	if len(sets) != 1 || sets[0].Sym != "main.counter" {
		t.Fatalf("init should store main.counter once, got %v", sets)
	}

	bump := mustUnit(t, mod, "main.bump")
	if loads := collectOps(bump, ir.OpGlobal); len(loads) != 1 || loads[0].Sym != "main.counter" {
		t.Errorf("bump should load the module global, got %v", loads)
	}
	if stores := collectOps(bump, ir.OpSetGlobal); len(stores) != 1 || stores[0].Sym != "main.counter" {
		t.Errorf("bump should store the module global, got %v", stores)
	}
}

func TestStartRunsInitsInDependencyOrderThenMain(t *testing.T) {
	mod := lowerSet(t, modules.SourceSet{
		"main": `
import "util" as util
fn main() { util.answer() }
`,
		"util": `
pub fn answer() { 42 }
`,
	})
	start := mustUnit(t, mod, lower.StartUnitName)
	var syms []string
	for _, ins := range start.Blocks[0].Instrs {
		if ins.Op == ir.OpCall {
			syms = append(syms, ins.Sym)
		}
	}
	want := []string{"util.$init", "main.$init", "main.main"}
	if strings.Join(syms, ",") != strings.Join(want, ",") {
		t.Errorf("start calls %v, want %v", syms, want)
	}
	if mod.Entry != lower.StartUnitName {
		t.Errorf("entry = %q", mod.Entry)
	}
}

func TestStartWithoutMainReturnsNothing(t *testing.T) {
	mod := lowerSource(t, `
var x = 1
`)
	start := mustUnit(t, mod, lower.StartUnitName)
	for _, ins := range start.Blocks[0].Instrs {
		if ins.Op == ir.OpCall && ins.Sym == "main.main" {
			t.Fatal("no main declared, start must not call one")
		}
	}
	if start.Blocks[0].Term.Val != ir.RegNone {
		t.Errorf("start should return nothing, got r%d", start.Blocks[0].Term.Val)
	}
}

func TestIfLowersToDiamondWithPhi(t *testing.T) {
	mod := lowerSource(t, `
fn pick(c) {
	if c { 1 } else { 2 }
}
`)
	u := mustUnit(t, mod, "main.pick")
	phis := collectOps(u, ir.OpPhi)
	if len(phis) != 1 {
		t.Fatalf("expected one phi, got %d", len(phis))
	}
	if len(phis[0].Args) != 2 || len(phis[0].Blocks) != 2 {
		t.Errorf("phi must merge both branches: %v", phis[0])
	}
}

func TestShortCircuitSkipsRightOperand(t *testing.T) {
	mod := lowerSource(t, `
fn f(a, b) { a and b }
`)
	u := mustUnit(t, mod, "main.f")
	hasBranch := false
	for _, blk := range u.Blocks {
		if blk.Term.Kind == ir.TermBranch {
			hasBranch = true
		}
	}
	if !hasBranch {
		t.Error("and must branch around its right operand")
	}
	if len(collectOps(u, ir.OpPhi)) != 1 {
		t.Error("and merges through a phi")
	}
}

func TestWhileLoopShape(t *testing.T) {
	mod := lowerSource(t, `
fn count(n) {
	var i = 0
	while i < n {
		i = i + 1
	}
	i
}
`)
	u := mustUnit(t, mod, "main.count")
	branches := 0
	for _, blk := range u.Blocks {
		if blk.Term.Kind == ir.TermBranch {
			branches++
		}
	}
	if branches != 1 {
		t.Errorf("expected the loop condition branch, got %d branches", branches)
	}
}

func TestMatchLowersShapeAndLiteralTests(t *testing.T) {
	mod := lowerSource(t, `
struct Point { x: Int, y: Int }
fn classify(p) {
	let q = Point{x: 1, y: 2}
	match q {
		Point{x: 0, y: 0} => 1
		Point{x, y} => 2
	}
}
`)
	u := mustUnit(t, mod, "main.classify")
	shapes := collectOps(u, ir.OpShapeTest)
	if len(shapes) == 0 {
		t.Fatal("expected a shape test")
	}
	for _, s := range shapes {
		if s.Sym != "main.Point" {
			t.Errorf("shape test should use the qualified name, got %q", s.Sym)
		}
	}
	if lits := collectOps(u, ir.OpLitTest); len(lits) == 0 {
		t.Error("expected literal tests for the field patterns")
	}
	if phis := collectOps(u, ir.OpPhi); len(phis) != 1 {
		t.Errorf("match result merges through one phi, got %d", len(phis))
	}
}

func TestMatchBindsFieldsThroughProjections(t *testing.T) {
	mod := lowerSource(t, `
struct Point { x: Int, y: Int }
fn sum(p) {
	let q = Point{x: 1, y: 2}
	match q {
		Point{x, y} => x + y
	}
}
`)
	u := mustUnit(t, mod, "main.sum")
	loads := collectOps(u, ir.OpFieldLoad)
	fields := map[string]bool{}
	for _, l := range loads {
		fields[l.Sym] = true
	}
	if !fields["x"] || !fields["y"] {
		t.Errorf("expected field loads for x and y, got %v", fields)
	}
}

func TestDynamicMatchKeepsFailSink(t *testing.T) {
	mod := lowerSource(t, `
fn f(x) {
	match x {
		1 => "one"
		other if other > 1 => "big"
		_ => "small"
	}
}
`)
	u := mustUnit(t, mod, "main.f")
	if len(collectOps(u, ir.OpLitTest)) == 0 {
		t.Error("expected a literal test for the 1 arm")
	}
	// The guard falls through to the wildcard, never to a failure.
	for _, blk := range u.Blocks {
		if blk.Term.Kind == ir.TermMatchFail {
			t.Error("a trailing wildcard leaves no failure path")
		}
	}
}

func TestImplMethodsBecomeUnitsAndConformances(t *testing.T) {
	mod := lowerSource(t, `
struct Point { x: Int, y: Int }
trait Show {
	fn show(self)
}
impl Show for Point {
	fn show(self) { "point" }
}
`)
	mustUnit(t, mod, "main.Show.Point.show")
	if len(mod.Conformances) != 1 {
		t.Fatalf("expected one conformance record, got %d", len(mod.Conformances))
	}
	c := mod.Conformances[0]
	if c.Trait != "Show" || c.Target != "Point" {
		t.Errorf("conformance = %+v", c)
	}
	if len(c.Methods) != 1 || c.Methods[0].Unit != "main.Show.Point.show" {
		t.Errorf("methods = %+v", c.Methods)
	}
}

func TestUnitsAreSortedByName(t *testing.T) {
	mod := lowerSource(t, `
fn zebra() { 1 }
fn apple() { 2 }
`)
	for i := 1; i < len(mod.Units); i++ {
		if mod.Units[i-1].Name > mod.Units[i].Name {
			t.Fatalf("units out of order: %q before %q", mod.Units[i-1].Name, mod.Units[i].Name)
		}
	}
}

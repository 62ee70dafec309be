package esgen_test

import (
	"strings"
	"testing"

	"github.com/corrosion-lang/corrosion/internal/backend"
	"github.com/corrosion-lang/corrosion/internal/backend/esgen"
	"github.com/corrosion-lang/corrosion/internal/ir"
)

func sampleModule() *ir.Module {
	return &ir.Module{
		BuildID: "test-build",
		Entry:   "$start",
		Units: []*ir.Unit{
			{
				Name:    "$start",
				NumRegs: 1,
				Blocks: []*ir.Block{
					{
						Instrs: []ir.Instruction{
							{Op: ir.OpCall, Dst: ir.RegNone, Sym: "main.$init"},
							{Op: ir.OpCall, Dst: 0, Sym: "main.main"},
						},
						Term: ir.Terminator{Kind: ir.TermRet, Val: 0},
					},
				},
			},
			{
				Name:    "main.$init",
				Module:  "main",
				NumRegs: 1,
				Blocks: []*ir.Block{
					{
						Instrs: []ir.Instruction{
							{Op: ir.OpConst, Dst: 0, Const: ir.IntConst(1)},
							{Op: ir.OpSetGlobal, Dst: ir.RegNone, Sym: "main.seed", Args: []ir.Reg{0}},
						},
						Term: ir.Terminator{Kind: ir.TermRet, Val: ir.RegNone},
					},
				},
			},
			{
				Name:    "main.main",
				Module:  "main",
				NumRegs: 4,
				Blocks: []*ir.Block{
					{
						Instrs: []ir.Instruction{
							{Op: ir.OpGlobal, Dst: 0, Sym: "main.seed"},
							{Op: ir.OpConst, Dst: 1, Const: ir.IntConst(0)},
							{Op: ir.OpBinOp, Dst: 2, Sym: ">", Args: []ir.Reg{0, 1}},
						},
						Term: ir.Terminator{Kind: ir.TermBranch, Cond: 2, Then: 1, Else: 2},
					},
					{
						Instrs: []ir.Instruction{
							{Op: ir.OpMakeStruct, Dst: 3, Sym: "main.Point", Keys: []string{"x", "y"}, Args: []ir.Reg{0, 1}},
						},
						Term: ir.Terminator{Kind: ir.TermJump, Then: 3},
					},
					{
						Instrs: []ir.Instruction{
							{Op: ir.OpConst, Dst: 3, Const: ir.NilConst()},
						},
						Term: ir.Terminator{Kind: ir.TermJump, Then: 3},
					},
					{
						Instrs: []ir.Instruction{
							{Op: ir.OpPhi, Dst: 3, Args: []ir.Reg{3, 3}, Blocks: []int{1, 2}},
						},
						Term: ir.Terminator{Kind: ir.TermRet, Val: 3},
					},
				},
			},
			{
				Name:    "main.Show.Point.show",
				Module:  "main",
				Params:  []string{"self"},
				NumRegs: 2,
				Blocks: []*ir.Block{
					{
						Instrs: []ir.Instruction{
							{Op: ir.OpFieldLoad, Dst: 1, Sym: "x", Args: []ir.Reg{0}},
						},
						Term: ir.Terminator{Kind: ir.TermRet, Val: 1},
					},
				},
			},
		},
		Shapes: []ir.ShapeRecord{
			{Name: "Point", Module: "main", Fields: []ir.ShapeField{
				{Name: "x", TypeName: "Int"},
				{Name: "y", TypeName: "Int"},
			}},
		},
		Conformances: []ir.ConformanceRecord{
			{Trait: "Show", Target: "Point", Module: "main", Methods: []ir.MethodBinding{
				{Name: "show", Unit: "main.Show.Point.show"},
			}},
		},
	}
}

func emit(t *testing.T) string {
	t.Helper()
	out, err := esgen.New().Emit(sampleModule())
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return string(out)
}

func TestRegistersUnderTargetName(t *testing.T) {
	e, ok := backend.Lookup("es")
	if !ok {
		t.Fatal("es emitter not registered")
	}
	if e.FileExt() != ".mjs" {
		t.Errorf("ext = %q", e.FileExt())
	}
}

func TestEmitsEveryUnit(t *testing.T) {
	src := emit(t)
	for _, name := range []string{"$start", "main.$init", "main.main", "main.Show.Point.show"} {
		if !strings.Contains(src, `$U["`+name+`"] = function`) {
			t.Errorf("missing unit %q", name)
		}
	}
}

func TestPreludeRealizesBuiltins(t *testing.T) {
	src := emit(t)
	for _, name := range []string{"print", "panic", "len", "typeOf", "toStr"} {
		if !strings.Contains(src, `$U["`+name+`"] = `) {
			t.Errorf("builtin %q missing from the prelude", name)
		}
	}
	// A lowered call to a builtin renders like any other unit call, so the
	// prelude entry is all it needs.
	if !strings.Contains(src, "console.log") {
		t.Error("print must write through console.log")
	}
}

func TestDispatchTableFromConformances(t *testing.T) {
	src := emit(t)
	if !strings.Contains(src, `$M["main.Point"]["show"] = $U["main.Show.Point.show"];`) {
		t.Error("conformance method not bound into the dispatch table")
	}
}

func TestBranchUsesTruthiness(t *testing.T) {
	src := emit(t)
	if !strings.Contains(src, "bb = $truthy(r[2]) ? 1 : 2; break;") {
		t.Error("branch terminator not rendered through $truthy")
	}
}

func TestPhiBecomesEdgeCopies(t *testing.T) {
	src := emit(t)
	if strings.Contains(src, "$phi") {
		t.Error("phi must not survive into the output")
	}
	// Both predecessors already leave the value in r[3]; the copies are
	// self-moves here, which is still correct output.
	if !strings.Contains(src, "r[3] = r[3];") {
		t.Error("expected phi edge copies in the predecessor blocks")
	}
}

func TestGlobalsGoThroughTheStore(t *testing.T) {
	src := emit(t)
	if !strings.Contains(src, `$G["main.seed"] = r[0];`) {
		t.Error("SetGlobal not rendered")
	}
}

func TestStructLiteralCarriesShapeTag(t *testing.T) {
	src := emit(t)
	if !strings.Contains(src, `$struct("main.Point", { "x": r[0], "y": r[1] })`) {
		t.Error("MakeStruct not rendered with its tag and fields")
	}
}

func TestExportsEntryAsMain(t *testing.T) {
	src := emit(t)
	if !strings.Contains(src, `export function main()`) || !strings.Contains(src, `$U["$start"]();`) {
		t.Error("module must export a main() running the start unit")
	}
}

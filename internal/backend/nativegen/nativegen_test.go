package nativegen_test

import (
	"strings"
	"testing"

	"github.com/corrosion-lang/corrosion/internal/backend"
	"github.com/corrosion-lang/corrosion/internal/backend/nativegen"
	"github.com/corrosion-lang/corrosion/internal/ir"
)

func sampleModule() *ir.Module {
	return &ir.Module{
		BuildID: "test-build",
		Entry:   "$start",
		Units: []*ir.Unit{
			{
				Name:    "$start",
				NumRegs: 3,
				Blocks: []*ir.Block{
					{
						Instrs: []ir.Instruction{
							{Op: ir.OpConst, Dst: 0, Const: ir.IntConst(1)},
							{Op: ir.OpConst, Dst: 1, Const: ir.IntConst(2)},
							{Op: ir.OpCall, Dst: 2, Sym: "main.add", Args: []ir.Reg{0, 1}},
						},
						Term: ir.Terminator{Kind: ir.TermRet, Val: 2},
					},
				},
			},
			{
				Name:    "main.add",
				Module:  "main",
				Params:  []string{"a", "b"},
				NumRegs: 3,
				Blocks: []*ir.Block{
					{
						Instrs: []ir.Instruction{
							{Op: ir.OpBinOp, Dst: 2, Sym: "+", Args: []ir.Reg{0, 1}},
						},
						Term: ir.Terminator{Kind: ir.TermRet, Val: 2},
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
			{
				Name:    "main.pick",
				Module:  "main",
				Params:  []string{"c"},
				NumRegs: 2,
				Blocks: []*ir.Block{
					{
						Term: ir.Terminator{Kind: ir.TermBranch, Cond: 0, Then: 1, Else: 2},
					},
					{
						Instrs: []ir.Instruction{{Op: ir.OpConst, Dst: 1, Const: ir.IntConst(1)}},
						Term:   ir.Terminator{Kind: ir.TermJump, Then: 3},
					},
					{
						Term: ir.Terminator{Kind: ir.TermMatchFail, Line: 7, Column: 3},
					},
					{
						Term: ir.Terminator{Kind: ir.TermRet, Val: 1},
					},
				},
			},
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
	out, err := nativegen.New().Emit(sampleModule())
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return string(out)
}

func TestRegistersUnderTargetName(t *testing.T) {
	e, ok := backend.Lookup("native")
	if !ok {
		t.Fatal("native emitter not registered")
	}
	if e.FileExt() != ".ll" {
		t.Errorf("ext = %q", e.FileExt())
	}
}

func TestDeclaresBoxedRuntime(t *testing.T) {
	src := emit(t)
	for _, rt := range []string{"crn_rt_binop", "crn_rt_truthy", "crn_rt_field", "crn_rt_match_fail"} {
		if !strings.Contains(src, "declare") || !strings.Contains(src, rt) {
			t.Errorf("missing runtime extern %s", rt)
		}
	}
}

func TestDefinesEveryUnit(t *testing.T) {
	src := emit(t)
	for _, name := range []string{"$start", "main.add", "main.Show.Point.show", "main.pick"} {
		if !strings.Contains(src, name) {
			t.Errorf("missing unit %q", name)
		}
	}
}

func TestBuiltinCallsResolveToRuntime(t *testing.T) {
	mod := &ir.Module{
		BuildID: "test-build",
		Units: []*ir.Unit{
			{
				Name:    "main.greet",
				Module:  "main",
				NumRegs: 3,
				Blocks: []*ir.Block{
					{
						Instrs: []ir.Instruction{
							{Op: ir.OpConst, Dst: 0, Const: ir.StringConst("hi")},
							{Op: ir.OpCall, Dst: 1, Sym: "print", Args: []ir.Reg{0}},
							{Op: ir.OpCall, Dst: 2, Sym: "typeOf", Args: []ir.Reg{0}},
						},
						Term: ir.Terminator{Kind: ir.TermRet, Val: 2},
					},
				},
			},
		},
	}
	out, err := nativegen.New().Emit(mod)
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	src := string(out)
	for _, rt := range []string{"crn_rt_print", "crn_rt_type_of"} {
		if !strings.Contains(src, rt) {
			t.Errorf("missing builtin runtime call %s", rt)
		}
	}
}

func TestStaticCallIsDirect(t *testing.T) {
	src := emit(t)
	if !strings.Contains(src, "call") || !strings.Contains(src, "main.add") {
		t.Error("expected a direct call to main.add")
	}
	// Boxed arithmetic goes through the runtime, never native add.
	if !strings.Contains(src, "crn_rt_binop") {
		t.Error("binop must call the runtime")
	}
}

func TestMatchFailIsNoReturn(t *testing.T) {
	src := emit(t)
	if !strings.Contains(src, "crn_rt_match_fail") {
		t.Fatal("missing match-fail call")
	}
	if !strings.Contains(src, "unreachable") {
		t.Error("match failure block must end in unreachable")
	}
}

func TestEmitsCEntryPoint(t *testing.T) {
	src := emit(t)
	if !strings.Contains(src, "@main") || !strings.Contains(src, "crn_module_init") {
		t.Error("expected a main() that runs module registration first")
	}
	if !strings.Contains(src, "crn_rt_bind_method") {
		t.Error("conformance methods must be bound at init")
	}
}

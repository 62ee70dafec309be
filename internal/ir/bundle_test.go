package ir_test

import (
	"strings"
	"testing"

	"github.com/corrosion-lang/corrosion/internal/ir"
)

func sampleModule() *ir.Module {
	return &ir.Module{
		BuildID: "test-build",
		Entry:   "main.$init",
		Units: []*ir.Unit{
			{
				Name:    "main.$init",
				Module:  "main",
				NumRegs: 2,
				Blocks: []*ir.Block{
					{
						Instrs: []ir.Instruction{
							{Op: ir.OpConst, Dst: 0, Const: ir.IntConst(5)},
							{Op: ir.OpCall, Dst: 1, Sym: "main.double", Args: []ir.Reg{0}},
						},
						Term: ir.Terminator{Kind: ir.TermRet, Val: 1},
					},
				},
			},
			{
				Name:    "main.double",
				Module:  "main",
				Params:  []string{"n"},
				NumRegs: 3,
				Blocks: []*ir.Block{
					{
						Instrs: []ir.Instruction{
							{Op: ir.OpConst, Dst: 1, Const: ir.IntConst(2)},
							{Op: ir.OpBinOp, Dst: 2, Sym: "*", Args: []ir.Reg{0, 1}},
						},
						Term: ir.Terminator{Kind: ir.TermRet, Val: 2},
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
		Exports: []ir.ExportRecord{{Module: "main", Names: []string{"double"}}},
	}
}

func TestBundleRoundTrip(t *testing.T) {
	m := sampleModule()
	data, err := ir.EncodeBundle(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(data[:4]) != "CRIR" {
		t.Fatalf("bundle magic = %q, want CRIR", data[:4])
	}
	got, err := ir.DecodeBundle(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Disassemble() != m.Disassemble() {
		t.Errorf("round-trip changed the module:\n%s\nvs\n%s", got.Disassemble(), m.Disassemble())
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	data, err := ir.EncodeBundle(sampleModule())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data[0] = 'X'
	if _, err := ir.DecodeBundle(data); err == nil {
		t.Fatal("expected magic error")
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	data, err := ir.EncodeBundle(sampleModule())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	data[4] = 0xFF
	if _, err := ir.DecodeBundle(data); err == nil {
		t.Fatal("expected version error")
	}
}

func TestValidateMissingEntry(t *testing.T) {
	m := sampleModule()
	m.Entry = "main.absent"
	if err := m.Validate(); err == nil || !strings.Contains(err.Error(), "entry unit") {
		t.Fatalf("expected entry error, got %v", err)
	}
}

func TestValidateBranchTargets(t *testing.T) {
	m := sampleModule()
	m.Units[0].Blocks[0].Term = ir.Terminator{Kind: ir.TermJump, Then: 9}
	if err := m.Validate(); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected target error, got %v", err)
	}
}

func TestValidatePhiEdges(t *testing.T) {
	m := sampleModule()
	u := m.Units[0]
	u.Blocks[0].Instrs = append(u.Blocks[0].Instrs, ir.Instruction{
		Op: ir.OpPhi, Dst: 1, Args: []ir.Reg{0}, Blocks: []int{0, 1},
	})
	if err := m.Validate(); err == nil || !strings.Contains(err.Error(), "phi") {
		t.Fatalf("expected phi error, got %v", err)
	}
}

func TestDisassembleShowsCallSites(t *testing.T) {
	text := sampleModule().Disassemble()
	for _, want := range []string{"call main.double r0", "binop * r0, r1", "ret r2", "shape main.Point {x: Int, y: Int}"} {
		if !strings.Contains(text, want) {
			t.Errorf("disassembly missing %q:\n%s", want, text)
		}
	}
}

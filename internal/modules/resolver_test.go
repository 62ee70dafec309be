package modules_test

import (
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/modules"
)

func fixture(t *testing.T, name string) modules.SourceSet {
	t.Helper()
	ar, err := txtar.ParseFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("loading fixture %s: %v", name, err)
	}
	set := modules.SourceSet{}
	for _, f := range ar.Files {
		set[strings.TrimSpace(f.Name)] = string(f.Data)
	}
	return set
}

func resolve(t *testing.T, set modules.SourceSet, entry string) (*modules.ResolvedSet, []*diagnostics.DiagnosticError) {
	t.Helper()
	r := modules.NewResolver(set)
	return r.Resolve(entry)
}

func resolveClean(t *testing.T, set modules.SourceSet, entry string) *modules.ResolvedSet {
	t.Helper()
	res, diags := resolve(t, set, entry)
	if diagnostics.HasErrors(diags) {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Error())
		}
		t.Fatalf("unexpected errors:\n%s", strings.Join(msgs, "\n"))
	}
	return res
}

func wantResolveCode(t *testing.T, diags []*diagnostics.DiagnosticError, code diagnostics.ErrorCode) {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return
		}
	}
	t.Fatalf("expected diagnostic %s, got %v", code, diags)
}

func TestBasicImportResolves(t *testing.T) {
	res := resolveClean(t, fixture(t, "imports_basic.txtar"), "app")

	if res.Entry != "app" {
		t.Errorf("entry = %q", res.Entry)
	}
	if res.Module("geometry/shapes") == nil {
		t.Fatal("dependency module not loaded")
	}
	if !res.Module("geometry/shapes").Exported("area") {
		t.Error("area should be exported")
	}
	if res.Module("geometry/shapes").Exported("helper") {
		t.Error("helper should not be exported")
	}
}

func TestOrderPutsDependenciesFirst(t *testing.T) {
	res := resolveClean(t, fixture(t, "imports_basic.txtar"), "app")

	if len(res.Order) != 2 {
		t.Fatalf("order = %v, want 2 modules", res.Order)
	}
	if res.Order[0] != "geometry/shapes" || res.Order[1] != "app" {
		t.Errorf("order = %v, want dependency before dependent", res.Order)
	}
}

func TestDiamondLoadsSharedModuleOnce(t *testing.T) {
	res := resolveClean(t, fixture(t, "diamond.txtar"), "app")

	if len(res.Order) != 4 {
		t.Fatalf("order = %v, want 4 modules", res.Order)
	}
	seen := map[string]int{}
	for i, path := range res.Order {
		seen[path] = i
	}
	if len(seen) != 4 {
		t.Fatalf("order has duplicates: %v", res.Order)
	}
	if seen["base"] > seen["left"] || seen["base"] > seen["right"] {
		t.Errorf("base must precede left and right: %v", res.Order)
	}
	if seen["app"] != 3 {
		t.Errorf("entry must come last: %v", res.Order)
	}
}

func TestImportCycleReported(t *testing.T) {
	_, diags := resolve(t, fixture(t, "import_cycle.txtar"), "app")
	wantResolveCode(t, diags, diagnostics.ErrR003)
}

func TestVisibilityEnforcedAcrossModules(t *testing.T) {
	_, diags := resolve(t, fixture(t, "visibility.txtar"), "app")

	// vault.combination exists but is not pub; vault.missing does not exist.
	wantResolveCode(t, diags, diagnostics.ErrR006)
	wantResolveCode(t, diags, diagnostics.ErrR001)
}

func TestMissingModuleReported(t *testing.T) {
	_, diags := resolve(t, modules.SourceSet{
		"main": `import "nope" as nope` + "\n",
	}, "main")
	wantResolveCode(t, diags, diagnostics.ErrR002)
}

func TestUnboundNameReported(t *testing.T) {
	_, diags := resolve(t, modules.SourceSet{
		"main": "fn main() {\n\tghost + 1\n}\n",
	}, "main")
	wantResolveCode(t, diags, diagnostics.ErrR001)
}

func TestRedeclarationReported(t *testing.T) {
	_, diags := resolve(t, modules.SourceSet{
		"main": "fn twice(x) { x }\nfn twice(x) { x + x }\n",
	}, "main")
	wantResolveCode(t, diags, diagnostics.ErrR004)
}

func TestBreakOutsideLoopReported(t *testing.T) {
	_, diags := resolve(t, modules.SourceSet{
		"main": "fn main() {\n\tbreak\n}\n",
	}, "main")
	wantResolveCode(t, diags, diagnostics.ErrR007)
}

// var allows reassignment; let and const do not.
func TestMutabilityMatrix(t *testing.T) {
	cases := []struct {
		name    string
		decl    string
		wantErr bool
	}{
		{"var reassigns", "var", false},
		{"let is immutable", "let", true},
		{"const is immutable", "const", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := "fn main() {\n\t" + tc.decl + " x = 1\n\tx = 2\n\tx\n}\n"
			_, diags := resolve(t, modules.SourceSet{"main": src}, "main")
			if tc.wantErr {
				wantResolveCode(t, diags, diagnostics.ErrR005)
			} else if diagnostics.HasErrors(diags) {
				t.Fatalf("unexpected errors: %v", diags)
			}
		})
	}
}

func TestLetShadowsInTheSameScope(t *testing.T) {
	_, diags := resolve(t, modules.SourceSet{
		"main": "fn main() {\n\tlet x = 1\n\tlet x = x + 1\n\tx\n}\n",
	}, "main")
	if diagnostics.HasErrors(diags) {
		t.Fatalf("let rebinding must be clean, got %v", diags)
	}
}

func TestVarAndConstRejectRedeclaration(t *testing.T) {
	for _, decl := range []string{"var", "const"} {
		t.Run(decl, func(t *testing.T) {
			src := "fn main() {\n\t" + decl + " x = 1\n\t" + decl + " x = 2\n\tx\n}\n"
			_, diags := resolve(t, modules.SourceSet{"main": src}, "main")
			wantResolveCode(t, diags, diagnostics.ErrR004)
		})
	}
}

func TestFunctionParamsAreImmutable(t *testing.T) {
	_, diags := resolve(t, modules.SourceSet{
		"main": "fn bump(n) {\n\tn = n + 1\n\tn\n}\n",
	}, "main")
	wantResolveCode(t, diags, diagnostics.ErrR005)
}

func TestStructPatternPunBindsField(t *testing.T) {
	_, diags := resolve(t, modules.SourceSet{
		"main": "struct Point { x: Int, y: Int }\n\nfn main() {\n\tlet p = Point{x: 1, y: 2}\n\tmatch p {\n\t\tPoint{x: 0, y} => y\n\t\tPoint{x, y} => x + y\n\t}\n}\n",
	}, "main")
	if diagnostics.HasErrors(diags) {
		t.Fatalf("pun fields must bind cleanly, got %v", diags)
	}
}

func TestStructPatternRepeatedBindingReported(t *testing.T) {
	_, diags := resolve(t, modules.SourceSet{
		"main": "struct Point { x: Int, y: Int }\n\nfn main() {\n\tlet p = Point{x: 1, y: 2}\n\tmatch p {\n\t\tPoint{x, y: x} => x\n\t\t_ => 0\n\t}\n}\n",
	}, "main")
	wantResolveCode(t, diags, diagnostics.ErrR004)
}

func TestStructLiteralShapeIsKnown(t *testing.T) {
	res := resolveClean(t, modules.SourceSet{
		"main": "struct Point { x: Int, y: Int }\n\nfn main() {\n\tlet p = Point{x: 1, y: 2}\n\tp\n}\n",
	}, "main")

	found := false
	for _, shape := range res.KnownShapes {
		if shape == "Point" {
			found = true
		}
	}
	if !found {
		t.Error("struct literal shape not recorded")
	}
}

package checker_test

import (
	"strings"
	"testing"

	"github.com/corrosion-lang/corrosion/internal/checker"
	"github.com/corrosion-lang/corrosion/internal/diagnostics"
	"github.com/corrosion-lang/corrosion/internal/modules"
)

// check resolves a single-module program and runs the struct/trait checker
// over it.
func check(t *testing.T, input string) []*diagnostics.DiagnosticError {
	t.Helper()
	res := modules.NewResolver(modules.SourceSet{"main": input})
	set, diags := res.Resolve("main")
	if diagnostics.HasErrors(diags) {
		t.Fatalf("resolution failed: %v", diags)
	}
	return checker.Check(set)
}

func expectCode(t *testing.T, diags []*diagnostics.DiagnosticError, code diagnostics.ErrorCode) *diagnostics.DiagnosticError {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return d
		}
	}
	t.Fatalf("expected diagnostic %s, got %v", code, diags)
	return nil
}

func expectClean(t *testing.T, diags []*diagnostics.DiagnosticError) {
	t.Helper()
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestMissingTraitMethod(t *testing.T) {
	diags := check(t, `
trait Greet { hello }
struct Person { name: String }
impl Greet for Person { }
`)
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic, got %v", diags)
	}
	d := diags[0]
	if d.Code != diagnostics.ErrT003 {
		t.Fatalf("expected T003, got %s", d.Code)
	}
	if d.Code.Kind() != "MissingTraitMethodError" {
		t.Errorf("expected MissingTraitMethodError kind, got %s", d.Code.Kind())
	}
	for _, want := range []string{"Greet", "Person", "hello"} {
		if !strings.Contains(d.Message, want) {
			t.Errorf("message %q does not name %q", d.Message, want)
		}
	}
}

func TestSatisfiedTraitChecksCleanly(t *testing.T) {
	expectClean(t, check(t, `
trait Greet { hello }
struct Person { name: String }
impl Greet for Person {
    fn hello(self) {
        self.name
    }
}
`))
}

func TestTraitArityChecked(t *testing.T) {
	diags := check(t, `
trait Surface { fn area(self) }
struct Rect { w: Int, h: Int }
impl Surface for Rect {
    fn area(self, scale) {
        self.w * self.h * scale
    }
}
`)
	d := expectCode(t, diags, diagnostics.ErrT003)
	if !strings.Contains(d.Message, "area") {
		t.Errorf("message %q does not name the method", d.Message)
	}
}

func TestBareNameRequirementSkipsArity(t *testing.T) {
	expectClean(t, check(t, `
trait Surface { area }
struct Rect { w: Int, h: Int }
impl Surface for Rect {
    fn area(self, scale) {
        self.w * self.h * scale
    }
}
`))
}

func TestMissingMethodsListedTogether(t *testing.T) {
	diags := check(t, `
trait Shape { area, perimeter, name }
struct Blob { size: Int }
impl Shape for Blob {
    fn area(self) { self.size }
}
`)
	if len(diags) != 1 {
		t.Fatalf("expected one aggregated diagnostic, got %v", diags)
	}
	msg := diags[0].Message
	if !strings.Contains(msg, "name") || !strings.Contains(msg, "perimeter") {
		t.Errorf("message %q does not list both missing methods", msg)
	}
	if strings.Contains(msg, "area,") || strings.HasSuffix(msg, "area") {
		t.Errorf("message %q lists a method that is not missing", msg)
	}
}

func TestDuplicateStructField(t *testing.T) {
	diags := check(t, `
struct Point { x: Int, x: Int }
`)
	expectCode(t, diags, diagnostics.ErrT001)
}

func TestUnknownFieldType(t *testing.T) {
	diags := check(t, `
struct Edge { from: Vertex }
`)
	expectCode(t, diags, diagnostics.ErrT002)
}

func TestDeclaredStructTypespec(t *testing.T) {
	expectClean(t, check(t, `
struct Vertex { id: Int }
struct Edge { from: Vertex, to: Vertex }
`))
}

func TestImplUnknownTrait(t *testing.T) {
	diags := check(t, `
struct Person { name: String }
impl Vanish for Person { }
`)
	expectCode(t, diags, diagnostics.ErrT004)
}

func TestImplUnknownTarget(t *testing.T) {
	diags := check(t, `
trait Greet { hello }
impl Greet for Ghost {
    fn hello(self) { 1 }
}
`)
	expectCode(t, diags, diagnostics.ErrT004)
}

func TestDuplicateImpl(t *testing.T) {
	diags := check(t, `
trait Greet { hello }
struct Person { name: String }
impl Greet for Person {
    fn hello(self) { 1 }
}
impl Greet for Person {
    fn hello(self) { 2 }
}
`)
	expectCode(t, diags, diagnostics.ErrT004)
}

func TestStructLiteralUnknownField(t *testing.T) {
	diags := check(t, `
struct Point { x: Int, y: Int }
let p = Point{x: 1, z: 2}
`)
	expectCode(t, diags, diagnostics.ErrT006)
}

func TestStructLiteralMissingRequired(t *testing.T) {
	diags := check(t, `
struct Point { x: Int, y: Int }
let p = Point{x: 1}
`)
	d := expectCode(t, diags, diagnostics.ErrT007)
	if !strings.Contains(d.Message, "y") {
		t.Errorf("message %q does not name the missing field", d.Message)
	}
}

func TestOptionalFieldMayBeOmitted(t *testing.T) {
	expectClean(t, check(t, `
struct Person { name: String, email?: String }
let p = Person{name: "ada"}
`))
}

func TestOptionalFieldPlainAccessWarns(t *testing.T) {
	diags := check(t, `
struct Person { name: String, email?: String }
let p = Person{name: "ada"}
let e = p.email
`)
	d := expectCode(t, diags, diagnostics.WarnT005)
	if d.Severity != diagnostics.SeverityWarning {
		t.Errorf("T005 must be a warning, got %v", d.Severity)
	}
	if d.Code.Kind() != "OptionalFieldAccessWarning" {
		t.Errorf("expected OptionalFieldAccessWarning kind, got %s", d.Code.Kind())
	}
}

func TestOptionalFieldSafeAccessIsQuiet(t *testing.T) {
	expectClean(t, check(t, `
struct Person { name: String, email?: String }
let p = Person{name: "ada"}
let e = p?.email
`))
}

func TestRequiredFieldPlainAccessIsQuiet(t *testing.T) {
	expectClean(t, check(t, `
struct Person { name: String, email?: String }
let p = Person{name: "ada"}
let n = p.name
`))
}

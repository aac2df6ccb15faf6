package typechecker

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/parser"
)

func check(t *testing.T, src string) (*ast.Program, []string) {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	checker := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	diags, err := checker.Check(prog)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	messages := make([]string, len(diags))
	for i, d := range diags {
		messages[i] = d.String()
	}
	return prog, messages
}

func TestCheckerAcceptsWellTypedProgram(t *testing.T) {
	_, diags := check(t, `
fun add(a: Int, b: Int): Int { return a + b }
val total: Int = add(2, 3)
val ratio: Double = total / 2
var names = ["a", "b"]
for (n in names) { println(n.length) }
if (total > 3 && ratio < 10.0) { println("ok") }
class Counter {
    var n: Int = 0
    constructor(start: Int) { this.n = start }
    fun inc() { this.n = this.n + 1 }
}
val c = Counter(5)
c.inc()
`)
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
}

func TestCheckerReportsMismatches(t *testing.T) {
	_, diags := check(t, `
val a: Int = "text"
var b = 1
b = "two"
if (b) { println(b) }
while ("yes") { break }
fun f(): Int { return "no" }
fun add(a: Int, b: Int) { return a + b }
add(1)
val bad = true - 1
`)
	want := []string{
		"2:1: variable 'a' declared as Int but initialized with String",
		"4:3: cannot assign String to 'b' of type Int",
		"5:5: if condition must be Boolean, got Int",
		"6:8: while condition must be Boolean, got String",
		"7:16: function 'f' returns String but declares Int",
		"9:4: no overload of 'add' takes 1 argument(s)",
		"10:16: operator - is not defined for Boolean and Int",
	}
	if diff := cmp.Diff(want, diags); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckerWritesInferredTypes(t *testing.T) {
	prog, diags := check(t, `
val a = 1 + 2
val b = 1 + 2.5
val c = "x" + 1
val d = [1, 2, 3]
val e = d[0]
val f = 10L * 2
val g = unknownThing
val h: Int = 4
`)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	got := map[string]string{}
	for _, stmt := range prog.Statements {
		decl := stmt.(*ast.VariableDeclaration)
		got[decl.Name] = decl.TypeAnnotation.String()
		if decl.Name != "h" && decl.TypeAnnotation != nil && !decl.TypeAnnotation.Inferred {
			t.Fatalf("annotation on %s should be marked inferred", decl.Name)
		}
	}
	want := map[string]string{
		"a": "Int",
		"b": "Double",
		"c": "String",
		"d": "Array<Int>",
		"e": "Int",
		"f": "Long",
		"g": "",
		"h": "Int",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("inferred types mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckerIsRepeatable(t *testing.T) {
	prog, err := parser.Parse("val a = 1\nval b: String = a")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	checker := New(WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	first, _ := checker.Check(prog)
	second, _ := checker.Check(prog)
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one diagnostic per run, got %d and %d", len(first), len(second))
	}
	if checker.Inferred() != 1 {
		t.Fatalf("expected one inferred declaration, got %d", checker.Inferred())
	}
}

func TestCheckerOverloadsAndConstructors(t *testing.T) {
	_, diags := check(t, `
fun show(x: Int): String { return "int" }
fun show(x: String): Int { return 1 }
val s: String = show(1)
val n: Int = show("a")
class P(val x: Int)
val p = P()
val q = P(1)
val r: Int = q.x
`)
	want := []string{
		"7:10: class 'P' has no constructor taking 0 argument(s)",
	}
	if diff := cmp.Diff(want, diags); diff != "" {
		t.Fatalf("diagnostics mismatch (-want +got):\n%s", diff)
	}
}

func TestTypeCompatibility(t *testing.T) {
	cases := []struct {
		from, to *Type
		want     bool
	}{
		{IntType, DoubleType, true},
		{IntType, LongType, true},
		{DoubleType, IntType, false},
		{StringType, IntType, false},
		{Unknown, IntType, true},
		{StringType, Any, true},
		{ArrayOf(IntType), ArrayOf(DoubleType), true},
		{ArrayOf(StringType), ArrayOf(IntType), false},
		{ClassType("A"), ClassType("B"), false},
	}
	for _, tc := range cases {
		if got := tc.from.IsCompatibleWith(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: got %v, want %v", tc.from.Name(), tc.to.Name(), got, tc.want)
		}
	}
}

package resolver

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/parser"
)

type slotResult struct {
	Name     string
	Line     int
	Resolved bool
	Slot     ast.Slot
}

// identifierSlots lists every identifier reference with its resolution, in
// source order.
func identifierSlots(prog *ast.Program) []slotResult {
	var out []slotResult
	for _, stmt := range prog.Statements {
		ast.Inspect(stmt, func(n ast.Node) bool {
			id, ok := n.(*ast.Identifier)
			if !ok {
				return true
			}
			slot, resolved := prog.Slot(id.ID())
			out = append(out, slotResult{Name: id.Name, Line: id.Pos().Line, Resolved: resolved, Slot: slot})
			return true
		})
	}
	return out
}

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return prog
}

func TestGlobalsStayUnresolved(t *testing.T) {
	prog := parse(t, "val x = 1\nprintln(x)")
	stats := Resolve(prog)
	if stats.Resolved != 0 || stats.References != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if prog.ResolvedCount() != 0 {
		t.Fatalf("global declarations should not get slots")
	}
}

func TestFunctionScopes(t *testing.T) {
	prog := parse(t, `
fun f(a, b) {
    val c = a
    if (c) {
        val d = b
        return d + c
    }
}`)
	Resolve(prog)
	want := []slotResult{
		{Name: "a", Line: 3, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 0}},
		{Name: "c", Line: 4, Resolved: true, Slot: ast.Slot{Distance: 0, Index: 0}},
		{Name: "b", Line: 5, Resolved: true, Slot: ast.Slot{Distance: 2, Index: 1}},
		{Name: "d", Line: 6, Resolved: true, Slot: ast.Slot{Distance: 0, Index: 0}},
		{Name: "c", Line: 6, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 0}},
	}
	if diff := cmp.Diff(want, identifierSlots(prog)); diff != "" {
		t.Fatalf("slots mismatch (-want +got):\n%s", diff)
	}
	fn := prog.Statements[0].(*ast.FunctionDeclaration)
	if slot, ok := prog.Slot(fn.Params[1].ID()); !ok || slot.Index != 1 {
		t.Fatalf("parameter slot: %+v (ok=%v)", slot, ok)
	}
}

func TestMethodsBindThisFirst(t *testing.T) {
	prog := parse(t, `
class Counter {
    constructor(start) { this.n = start }
    fun add(k) { this.n = this.n + k }
}`)
	Resolve(prog)
	got := identifierSlots(prog)
	want := []slotResult{
		{Name: "this", Line: 3, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 0}},
		{Name: "start", Line: 3, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 1}},
		{Name: "this", Line: 4, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 0}},
		{Name: "this", Line: 4, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 0}},
		{Name: "k", Line: 4, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 1}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("slots mismatch (-want +got):\n%s", diff)
	}
}

func TestClosuresLoopsAndCatch(t *testing.T) {
	prog := parse(t, `
fun outer() {
    val total = 0
    val add = { x -> total + x }
    for (item in [1, 2]) { add(item) }
    try { add(1) } catch (e) { println(e) }
}`)
	Resolve(prog)
	got := identifierSlots(prog)
	want := []slotResult{
		{Name: "total", Line: 4, Resolved: true, Slot: ast.Slot{Distance: 2, Index: 0}},
		{Name: "x", Line: 4, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 0}},
		{Name: "add", Line: 5, Resolved: true, Slot: ast.Slot{Distance: 2, Index: 1}},
		{Name: "item", Line: 5, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 0}},
		{Name: "add", Line: 6, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 1}},
		{Name: "println", Line: 6, Resolved: false},
		{Name: "e", Line: 6, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 0}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("slots mismatch (-want +got):\n%s", diff)
	}
}

func TestInitializerSeesOuterBinding(t *testing.T) {
	prog := parse(t, `
fun f(x) {
    val x = x + 1
}`)
	Resolve(prog)
	got := identifierSlots(prog)
	if len(got) != 1 || got[0].Slot != (ast.Slot{Distance: 1, Index: 0}) {
		t.Fatalf("initializer should read the parameter, got %+v", got)
	}
}

func TestMethodsMarkBindingsOutsideTheMethod(t *testing.T) {
	prog := parse(t, `
fun f(n) {
    class Q {
        fun get(k) { return n + k }
    }
    val g = { it + n }
}`)
	Resolve(prog)
	want := []slotResult{
		{Name: "n", Line: 4, Resolved: true, Slot: ast.Slot{Distance: 3, Index: 0, Outer: true}},
		{Name: "k", Line: 4, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 1}},
		{Name: "it", Line: 6, Resolved: true, Slot: ast.Slot{Distance: 1, Index: 0}},
		{Name: "n", Line: 6, Resolved: true, Slot: ast.Slot{Distance: 3, Index: 0}},
	}
	if diff := cmp.Diff(want, identifierSlots(prog)); diff != "" {
		t.Fatalf("slots mismatch (-want +got):\n%s", diff)
	}
}

package interpreter

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/parser"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestInterpreter(out io.Writer, opts ...Option) *Interpreter {
	base := []Option{WithLogger(quietLogger()), WithOutput(out), WithInput(strings.NewReader(""))}
	return New(append(base, opts...)...)
}

// runSource parses and runs src, returning the result and everything the
// program printed.
func runSource(t *testing.T, src string, args ...string) (runtime.Value, string, error) {
	t.Helper()
	prog, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	val, err := newTestInterpreter(&out).Run(prog, args, "test.lin")
	return val, out.String(), err
}

func mustRun(t *testing.T, src string, args ...string) (runtime.Value, string) {
	t.Helper()
	val, out, err := runSource(t, src, args...)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	return val, out
}

func runtimeError(t *testing.T, err error, kind ErrorKind) *Error {
	t.Helper()
	var rtErr *Error
	if !errors.As(err, &rtErr) {
		t.Fatalf("expected a runtime error, got %v", err)
	}
	if rtErr.Kind != kind {
		t.Fatalf("expected %s, got %s (%s)", kind, rtErr.Kind, rtErr.Message)
	}
	return rtErr
}

func expectInt(t *testing.T, val runtime.Value, want int32) {
	t.Helper()
	got, ok := val.(runtime.Int32Value)
	if !ok || got.Val != want {
		t.Fatalf("expected Int %d, got %#v", want, val)
	}
}

func expectString(t *testing.T, val runtime.Value, want string) {
	t.Helper()
	got, ok := val.(runtime.StringValue)
	if !ok || got.Val != want {
		t.Fatalf("expected String %q, got %#v", want, val)
	}
}

func TestArithmeticRespectsPrecedence(t *testing.T) {
	val, _ := mustRun(t, "2 + 3 * 4")
	expectInt(t, val, 14)
}

func TestFunctionDeclarationAndCall(t *testing.T) {
	prog := ast.Prog(
		ast.Fn("add", ast.Params("a", "b"), ast.Ret(ast.Bin("+", ast.ID("a"), ast.ID("b")))),
		ast.Call("add", ast.Int(2), ast.Int(3)),
	)
	val, err := Run(prog, nil, "dsl", WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	expectInt(t, val, 5)
}

func TestProgramBuiltWithDSL(t *testing.T) {
	box := ast.NewClassDeclaration("Box", "",
		[]*ast.VariableDeclaration{ast.Var("v", ast.Int(0))},
		[]*ast.ConstructorDeclaration{
			ast.Ctor([]*ast.FunctionParameter{ast.Param("start", ast.Ty("Int"))},
				ast.Assign(ast.Member(ast.ID("this"), "v"), ast.ID("start"))),
		},
		[]*ast.FunctionDeclaration{
			ast.FnTyped("get", nil, ast.Ty("Int"), ast.Ret(ast.Member(ast.ID("this"), "v"))),
		},
	)
	prog := ast.Prog(
		box,
		ast.FnTyped("half", []*ast.FunctionParameter{ast.Param("x", ast.Ty("Double"))}, ast.Ty("Double"),
			ast.Ret(ast.Bin("/", ast.ID("x"), ast.Flt(2)))),
		ast.Val("b", ast.Call("Box", ast.Int(5))),
		ast.ValTyped("n", ast.Ty("Int"), ast.MethodCall(ast.ID("b"), "get")),
		ast.Var("total", ast.Int(0)),
		ast.Val("double", ast.Lam(ast.Params("x"), ast.Ret(ast.Bin("*", ast.ID("x"), ast.Int(2))))),
		ast.While(ast.Bin("<", ast.ID("total"), ast.Int(10)),
			ast.Assign(ast.ID("total"), ast.Bin("+", ast.ID("total"), ast.CallExpr(ast.ID("double"), ast.Int(3))))),
		ast.Val("neg", ast.Un("-", ast.ID("n"))),
		ast.When(ast.ID("total"), ast.Call("println", ast.Str("other")),
			ast.Branch(ast.Call("println", ast.Str("twelve")), ast.Int(12))),
		ast.Try(ast.Block(ast.Call("throw", ast.Str("bad"))), "e",
			ast.Block(ast.Call("println", ast.Interp(ast.Str("caught "), ast.ID("e")))), nil),
		ast.Call("println", ast.Interp(ast.Str("n="), ast.ID("n"), ast.Str(" neg="), ast.ID("neg"),
			ast.Str(" half="), ast.Call("half", ast.Flt(3)))),
		ast.Call("println", ast.Arr(ast.Int(1), ast.Int(2))),
		ast.ID("total"),
	)
	var out bytes.Buffer
	val, err := newTestInterpreter(&out).Run(prog, nil, "dsl")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	expectInt(t, val, 12)
	want := "twelve\ncaught bad\nn=5 neg=-5 half=1.5\n[1, 2]\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestCallWithWrongArityFails(t *testing.T) {
	_, _, err := runSource(t, `
fun add(a: Int, b: Int): Int { return a + b }
add(2)
`)
	rtErr := runtimeError(t, err, CallError)
	if rtErr.Line != 3 || rtErr.Column != 4 {
		t.Fatalf("expected error at 3:4, got %d:%d", rtErr.Line, rtErr.Column)
	}
}

func TestClassFieldsAndMethods(t *testing.T) {
	val, _ := mustRun(t, `
class Counter {
    var count = 0
    fun increment() { count = count + 1 }
}
val c = Counter()
c.increment()
c.increment()
c.count
`)
	expectInt(t, val, 2)
}

func TestConstructorsAndInheritance(t *testing.T) {
	val, out := mustRun(t, `
class Shape {
    var sides = 0
    init { println("shape") }
}
class Point(val x: Int, var y: Int) : Shape {
    val label = "p"
    constructor() { this.x = 7 }
    init { println("point") }
    fun sum(): Int { return x + y }
}
val p = Point(1, 2)
val q = Point()
println(q.x)
p.sum() + p.sides
`)
	expectInt(t, val, 3)
	if diff := cmp.Diff("shape\npoint\nshape\npoint\n7\n", out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestWhileFalseNeverRuns(t *testing.T) {
	_, out := mustRun(t, `while (false) { println("never") }`)
	if out != "" {
		t.Fatalf("expected no output, got %q", out)
	}
}

func TestLoopsWithBreakAndContinue(t *testing.T) {
	val, _ := mustRun(t, `
var sum = 0
for (n in [1, 2, 3, 4, 5, 6]) {
    if (n == 5) break
    if (n % 2 == 1) continue
    sum += n
}
var i = 0
while (true) {
    i += 1
    if (i > 3) { break }
}
sum * 10 + i
`)
	expectInt(t, val, 64)
}

func TestOverloadsPreferMatchingTypes(t *testing.T) {
	val, _ := mustRun(t, `
fun show(x: Int): String { return "int" }
fun show(x: String): String { return "string" }
fun show(x: Int, y: Int): String { return "pair" }
show("a") + show(1) + show(1, 2) + show(true)
`)
	expectString(t, val, "stringintpairint")
}

func TestReturnInsideTryRunsFinally(t *testing.T) {
	val, _ := mustRun(t, `
var log = ""
fun f(): Int {
    try {
        return 1
    } catch (e: Exception) {
        log = log + "c"
    } finally {
        log = log + "f"
    }
    return 2
}
val r = f()
"$r$log"
`)
	expectString(t, val, "1f")
}

func TestCatchBindsMessage(t *testing.T) {
	val, _ := mustRun(t, `
var seen = ""
try {
    throw("boom")
} catch (e: Exception) {
    seen = e
}
fun divide(d: Int): Int { return 10 / d }
try {
    divide(0)
} catch (e: Exception) {
    seen = seen + ", " + e
}
seen
`)
	expectString(t, val, "boom, Division by zero")
}

func TestUncaughtErrorCarriesStack(t *testing.T) {
	_, _, err := runSource(t, `
fun inner(d: Int): Int { return 10 / d }
fun outer(): Int { return inner(0) }
outer()
`)
	rtErr := runtimeError(t, err, TypeMismatch)
	if rtErr.Message != "Division by zero" {
		t.Fatalf("unexpected message %q", rtErr.Message)
	}
	if len(rtErr.Stack) != 2 || !strings.HasPrefix(rtErr.Stack[0], "inner (test.lin:3:") || !strings.HasPrefix(rtErr.Stack[1], "outer (test.lin:4:") {
		t.Fatalf("unexpected stack %q", rtErr.Stack)
	}
	full := rtErr.FullMessage()
	if !strings.HasPrefix(full, "test.lin:2:") || !strings.Contains(full, "\n    at inner (") {
		t.Fatalf("unexpected full message:\n%s", full)
	}
}

func TestWhenMatchesPatterns(t *testing.T) {
	val, _ := mustRun(t, `
fun describe(x: Int): String {
    when (x) {
        1, 2 -> return "low"
        3 -> { return "three" }
        else -> return "other"
    }
    return "none"
}
describe(2) + describe(3) + describe(9)
`)
	expectString(t, val, "lowthreeother")
}

func TestLambdasAndClosures(t *testing.T) {
	val, _ := mustRun(t, `
fun makeCounter() {
    var n = 0
    return { n = n + 1
        n }
}
val next = makeCounter()
next()
next()
val sq = { x: Int -> x * x }
val dbl = { it * 2 }
sq(next()) + dbl(4)
`)
	expectInt(t, val, 17)
}

func TestDeepRecursionYieldsSentinel(t *testing.T) {
	val, _ := mustRun(t, `
fun forever(n: Int): Int { return forever(n + 1) }
forever(0)
`)
	expectString(t, val, RecursionLimitValue)
}

func TestCallDepthLimit(t *testing.T) {
	prog, err := parser.Parse("fun down(n: Int): Int { return down(n - 1) }\ndown(0)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opts := DefaultOptions()
	opts.MaxCallDepth = 10
	_, err = newTestInterpreter(io.Discard, WithOptions(opts)).Run(prog, nil, "deep.lin")
	rtErr := runtimeError(t, err, IndexOutOfBounds)
	if len(rtErr.Stack) != 10 {
		t.Fatalf("expected 10 frames, got %d", len(rtErr.Stack))
	}
}

func TestCallDepthLimitWithRaisedDepthGuard(t *testing.T) {
	prog, err := parser.Parse("fun down(n: Int): Int { return down(n - 1) }\ndown(0)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	opts := DefaultOptions()
	opts.MaxDepth = 100 * DefaultMaxCallDepth
	_, err = newTestInterpreter(io.Discard, WithOptions(opts)).Run(prog, nil, "deep.lin")
	rtErr := runtimeError(t, err, IndexOutOfBounds)
	if len(rtErr.Stack) != DefaultMaxCallDepth {
		t.Fatalf("expected %d frames, got %d", DefaultMaxCallDepth, len(rtErr.Stack))
	}
	if !strings.Contains(rtErr.Message, "more than 2000 nested calls") {
		t.Fatalf("unexpected message %q", rtErr.Message)
	}
}

func TestFieldsShadowEnclosingLocals(t *testing.T) {
	class := `
class Q {
    var n = 1
    fun get() { return n }
    fun put(v) { n = v }
}
`
	programs := map[string]string{
		"top level": "val n = 7\n" + class + "val q = Q()\nq.put(5)\nprintln(q.get(), q.n, n)\n",
		"nested":    "fun run() {\n    val n = 7\n" + class + "    val q = Q()\n    q.put(5)\n    println(q.get(), q.n, n)\n}\nrun()\n",
	}
	for name, src := range programs {
		t.Run(name, func(t *testing.T) {
			_, out := mustRun(t, src)
			if out != "5 5 7\n" {
				t.Fatalf("expected the field to shadow the local, got %q", out)
			}
		})
	}
}

func TestImplicitItShadowsEnclosingIt(t *testing.T) {
	val, _ := mustRun(t, `
fun g() {
    val it = 100
    val f = { it * 2 }
    return f(3) + it
}
g()
`)
	expectInt(t, val, 106)
}

func TestUndefinedIdentifierIsSoft(t *testing.T) {
	val, _ := mustRun(t, "val x = missing\nx")
	expectString(t, val, UndefinedValue)

	_, _, err := runSource(t, "nothing(1)")
	runtimeError(t, err, CallError)
}

func TestExitIsNotCaught(t *testing.T) {
	_, out, err := runSource(t, `
try {
    exit(3)
} catch (e: Exception) {
    println("caught")
} finally {
    println("finally")
}
println("after")
`)
	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != 3 {
		t.Fatalf("expected exit status 3, got %v", err)
	}
	if out != "finally\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestMainReceivesArguments(t *testing.T) {
	val, _ := mustRun(t, `
fun main(args: Array<String>): Int {
    return args.size
}
`, "a", "b")
	expectInt(t, val, 2)

	val, _ = mustRun(t, `
fun main(name: String, greeting: String): String {
    return "$greeting $name".trim()
}
`, "bob")
	expectString(t, val, "bob")
}

func TestBuiltinsAndOutput(t *testing.T) {
	val, out := mustRun(t, `
println("a", 1, true, 2.5)
print("x")
print("y")
println()
printf("%s has %d items%%\n", "cart", 3)
val parts = split("a,b,c", ",")
println(parts, parts.size, length("héllo"), "héllo".substring(1, 3))
println(format("%.2f", 3.14159), sqrt(16.0), abs(-4), max(2, 7.5), pow(2, 10))
println(toInt("42") + 1, toDouble("1.5"), toString(12) + "!", isInt(3), isArray(parts))
println("Hello".toUpperCase(), "  pad ".trim(), indexOf("banana", "na"), indexOf([1, 2, 3], 3))
val xs = intArrayOf(3, 1)
xs.add(2)
xs.add(0, 9)
xs.removeAt(1)
xs.contentToString
`)
	expectString(t, val, "[9, 1, 2]")
	want := strings.Join([]string{
		"a 1 true 2.5",
		"xy",
		"cart has 3 items%",
		"[a, b, c] 3 5 él",
		"3.14 4.0 4 7.5 1024.0",
		"43 1.5 12! true true",
		"HELLO pad 2 2",
		"",
	}, "\n")
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestBuiltinArgumentErrors(t *testing.T) {
	cases := map[string]struct {
		kind ErrorKind
		msg  string
	}{
		"sqrt()":             {BuiltinArgumentError, "sqrt() expects exactly 1 argument"},
		"clock(1)":           {BuiltinArgumentError, "clock() expects no arguments"},
		"sqrt(-1.0)":         {BuiltinArgumentError, "sqrt() cannot take negative numbers"},
		`toInt("abc")`:       {BuiltinArgumentError, `Cannot convert string "abc" to int`},
		`"abc".reverse()`:    {UnknownBuiltin, "Unknown method 'reverse' on string"},
		"[1, 2][5]":          {IndexOutOfBounds, "Array index out of bounds: 5 (size 2)"},
		`intArrayOf(1, "a")`: {BuiltinArgumentError, "intArrayOf() expects Int elements, got string at position 1"},
	}
	for src, want := range cases {
		_, _, err := runSource(t, src)
		rtErr := runtimeError(t, err, want.kind)
		if rtErr.Message != want.msg {
			t.Fatalf("%s: got %q, want %q", src, rtErr.Message, want.msg)
		}
	}
}

func TestReadLineUsesInput(t *testing.T) {
	prog, err := parser.Parse(`val name = readLine("name? ")
val age = readln()
"$name is $age"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	interp := New(WithLogger(quietLogger()), WithOutput(&out), WithInput(strings.NewReader("ada\n36\n")))
	val, err := interp.Run(prog, nil, "io.lin")
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	expectString(t, val, "ada is 36")
	if out.String() != "name? " {
		t.Fatalf("expected prompt, got %q", out.String())
	}
}

func TestExecuteKeepsGlobalsBetweenPrograms(t *testing.T) {
	interp := newTestInterpreter(io.Discard)
	for _, src := range []string{"val x = 40", "fun bump(n: Int): Int { return n + 2 }"} {
		prog, err := parser.Parse(src)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if _, err := interp.Execute(prog, "<repl>"); err != nil {
			t.Fatalf("execute %q: %v", src, err)
		}
	}
	prog, err := parser.Parse("bump(x)")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	val, err := interp.Execute(prog, "<repl>")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	expectInt(t, val, 42)
	if _, err := interp.GlobalEnvironment().Get("x"); err != nil {
		t.Fatalf("expected x in globals: %v", err)
	}
}

func TestStrictTypeCheckRejectsProgram(t *testing.T) {
	prog, err := parser.Parse(`val a: Int = "text"
println("ran")`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	opts := DefaultOptions()
	opts.TypeCheck = TypeCheckStrict
	_, err = newTestInterpreter(&out, WithOptions(opts)).Run(prog, nil, "strict.lin")
	var checkErr *CheckError
	if !errors.As(err, &checkErr) || len(checkErr.Diagnostics) != 1 {
		t.Fatalf("expected a check error with one diagnostic, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("program should not run, printed %q", out.String())
	}

	opts.TypeCheck = TypeCheckWarn
	interp := newTestInterpreter(&out, WithOptions(opts))
	if _, err := interp.Run(prog, nil, "warn.lin"); err != nil {
		t.Fatalf("warn mode should run: %v", err)
	}
	if len(interp.Diagnostics()) != 1 || out.String() != "ran\n" {
		t.Fatalf("expected one diagnostic and output, got %v %q", interp.Diagnostics(), out.String())
	}
}

func TestParseTypeCheckMode(t *testing.T) {
	for in, want := range map[string]TypeCheckMode{"": TypeCheckWarn, "OFF": TypeCheckOff, " strict ": TypeCheckStrict} {
		got, err := ParseTypeCheckMode(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q, %v", in, got, err)
		}
	}
	if _, err := ParseTypeCheckMode("loud"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestEvaluateExpressionWithoutProgram(t *testing.T) {
	interp := newTestInterpreter(io.Discard)
	env := interp.GlobalEnvironment()
	if _, err := interp.evaluateExpression(ast.Assign(ast.ID("flag"), ast.Str("set")), env); err != nil {
		t.Fatalf("assignment failed: %v", err)
	}
	val, err := interp.evaluateExpression(ast.Bin("+", ast.ID("flag"), ast.Int(1)), env)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	expectString(t, val, "set1")
}

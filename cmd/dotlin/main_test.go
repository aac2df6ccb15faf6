package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/interpreter"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := newCLI(strings.NewReader(stdin), &stdout, &stderr).run(args)
	return code, stdout.String(), stderr.String()
}

func TestVersionAndHelp(t *testing.T) {
	code, out, _ := runCLI(t, "", "--version")
	if code != 0 || out != cliToolVersion+"\n" {
		t.Fatalf("--version = %d %q", code, out)
	}
	code, _, errOut := runCLI(t, "", "--help")
	if code != 0 || !strings.Contains(errOut, "run <file.lin> [args...]") {
		t.Fatalf("--help = %d %q", code, errOut)
	}
	if code, _, _ := runCLI(t, ""); code != 1 {
		t.Fatalf("no arguments should exit 1, got %d", code)
	}
	if code, _, _ := runCLI(t, "", "frobnicate"); code != 2 {
		t.Fatalf("unknown command should exit 2, got %d", code)
	}
}

func TestRunScript(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "hello.lin")
	writeFile(t, script, `
fun main(name: String) {
    println("Hello, " + name + "! " + readln())
}
`)
	code, out, errOut := runCLI(t, "how are you\n", "run", script, "Ada")
	if code != 0 {
		t.Fatalf("run exited %d: %s", code, errOut)
	}
	if out != "Hello, Ada! how are you\n" {
		t.Fatalf("unexpected output %q", out)
	}

	code, out, _ = runCLI(t, "", script, "Bob")
	if code != 0 || !strings.HasPrefix(out, "Hello, Bob!") {
		t.Fatalf("shorthand run = %d %q", code, out)
	}
}

func TestRunReportsErrorsAndExitCodes(t *testing.T) {
	dir := t.TempDir()
	failing := filepath.Join(dir, "fail.lin")
	writeFile(t, failing, "fun boom(): Int { return missing() }\nboom()\n")
	code, _, errOut := runCLI(t, "", "run", failing)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "CallError: Undefined function 'missing'") || !strings.Contains(errOut, "\n    at boom (") {
		t.Fatalf("unexpected stderr %q", errOut)
	}

	exiting := filepath.Join(dir, "exit.lin")
	writeFile(t, exiting, "println(\"bye\")\nexit(4)\n")
	code, out, _ := runCLI(t, "", "run", exiting)
	if code != 4 || out != "bye\n" {
		t.Fatalf("exit = %d %q", code, out)
	}
}

func TestStrictConfigStopsBeforeRunning(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "dotlin.yml"), "name: strict\ntypecheck: strict\n")
	script := filepath.Join(dir, "src", "typed.lin")
	writeFile(t, script, "val n: Int = \"x\"\nprintln(\"ran\")\n")

	code, out, errOut := runCLI(t, "", "run", script)
	if code != 1 || out != "" {
		t.Fatalf("strict run = %d %q", code, out)
	}
	if !strings.Contains(errOut, "variable 'n' declared as Int but initialized with String") {
		t.Fatalf("missing diagnostic in %q", errOut)
	}

	code, out, _ = runCLI(t, "", "--config", filepath.Join(dir, "missing.yml"), "run", script)
	if code != 1 || out != "" {
		t.Fatalf("missing explicit config should fail, got %d %q", code, out)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.lin")
	bad := filepath.Join(dir, "bad.lin")
	writeFile(t, good, "val a = 1\n")
	writeFile(t, bad, "while (1) { break }\n")

	code, out, _ := runCLI(t, "", "check", good)
	if code != 0 || out != "1 file(s) checked, no problems\n" {
		t.Fatalf("check good = %d %q", code, out)
	}
	code, out, _ = runCLI(t, "", "check", good, bad)
	if code != 1 || !strings.HasSuffix(out, "bad.lin:1:8: while condition must be Boolean, got Int\n") {
		t.Fatalf("check bad = %d %q", code, out)
	}
}

func TestTestCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "cases.md"), "## Test: sum\n\n```dotlin\nprintln(1 + 2)\n```\n\n```output\n3\n```\n\n"+
		"## Test: wrong\n\n```dotlin\nprintln(1)\n```\n\n```output\n2\n```\n")
	code, out, _ := runCLI(t, "", "test", dir)
	if code != 1 {
		t.Fatalf("expected failure exit, got %d", code)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if lines[0] != "PASS cases.md/sum" || !strings.HasPrefix(lines[1], "FAIL cases.md/wrong") || lines[len(lines)-1] != "1 passed, 1 failed" {
		t.Fatalf("unexpected test output:\n%s", out)
	}
}

func TestParseGlobalFlags(t *testing.T) {
	c := newCLI(nil, io.Discard, io.Discard)
	rest, err := c.parseGlobalFlags([]string{"--log-level=debug", "--config", "x.yml", "run", "a.lin", "--config"})
	if err != nil {
		t.Fatalf("parseGlobalFlags returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"run", "a.lin", "--config"}, rest); diff != "" {
		t.Fatalf("rest mismatch (-want +got):\n%s", diff)
	}
	if c.logLevel != "debug" || c.configPath != "x.yml" {
		t.Fatalf("unexpected flags %q %q", c.logLevel, c.configPath)
	}
	if _, err := c.parseGlobalFlags([]string{"--config"}); err == nil {
		t.Fatalf("expected missing value error")
	}
}

func TestREPLSession(t *testing.T) {
	var out, errOut bytes.Buffer
	interp := interpreter.New(
		interpreter.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		interpreter.WithOutput(&out),
	)
	session := newREPLSession(interp, &out, &errOut)
	lines := []string{
		"val x = 40",
		"fun add(a: Int, b: Int): Int {",
		"    return a + b",
		"}",
		"add(x, 2)",
		`println("hi")`,
		"nope(",
		")",
		"x = 1",
		"[1, 2][9]",
	}
	for _, line := range lines {
		if _, done := session.feed(line); done {
			t.Fatalf("session ended early at %q", line)
		}
		if line == "fun add(a: Int, b: Int): Int {" && session.prompt() != continuePrompt {
			t.Fatalf("expected continuation prompt")
		}
	}
	if diff := cmp.Diff("42\nhi\n", out.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(errOut.String(), "Undefined function 'nope'") || !strings.Contains(errOut.String(), "IndexOutOfBounds") {
		t.Fatalf("unexpected errors %q", errOut.String())
	}
	out.Reset()
	session.feed(":vars")
	if names := strings.Fields(out.String()); len(names) != 1 || names[0] != "x" {
		t.Fatalf(":vars listed %q", out.String())
	}
	if code, done := session.feed("exit(3)"); !done || code != 3 {
		t.Fatalf("exit should end the session with 3, got %d %v", code, done)
	}
	if _, done := session.feed(":quit"); !done {
		t.Fatalf(":quit should end the session")
	}
}

func TestBraceDepthIgnoresStrings(t *testing.T) {
	cases := []struct {
		src  string
		want int
	}{
		{"fun f() {", 1},
		{`println("{")`, 0},
		{"if (a) { b }", 0},
		{`val s = "\"{"; }`, -1},
	}
	for _, tc := range cases {
		if got := braceDepth(tc.src); got != tc.want {
			t.Fatalf("braceDepth(%q) = %d, want %d", tc.src, got, tc.want)
		}
	}
}

package driver

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/interpreter"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPipelineRunUsesConfiguredArgs(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "greet.lin")
	writeFile(t, script, `
fun main(name: String) {
    println("hello " + name)
    return 7
}
`)
	cfg := DefaultConfig()
	cfg.Args = []string{"world"}
	var out bytes.Buffer
	pipeline := NewPipeline(WithLogger(quietLogger()), WithConfig(cfg), WithOutput(&out))

	val, err := pipeline.Run(script, nil)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if n, ok := val.(runtime.Int32Value); !ok || n.Val != 7 {
		t.Fatalf("expected 7, got %#v", val)
	}
	if out.String() != "hello world\n" {
		t.Fatalf("unexpected output %q", out.String())
	}

	out.Reset()
	if _, err := pipeline.Run(script, []string{"there"}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.String() != "hello there\n" {
		t.Fatalf("explicit args should win, got %q", out.String())
	}
}

func TestLoadSourceRejectsOtherExtensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.kt")
	writeFile(t, path, "println(1)\n")
	if _, err := LoadSource(path); !errors.Is(err, ErrUnsupportedSource) {
		t.Fatalf("expected ErrUnsupportedSource, got %v", err)
	}
}

func TestRuntimeErrorsNameTheSource(t *testing.T) {
	script := filepath.Join(t.TempDir(), "bad.lin")
	writeFile(t, script, "val xs = [1]\nxs[3]\n")
	_, err := NewPipeline(WithLogger(quietLogger()), WithOutput(io.Discard)).Run(script, nil)
	var rtErr *interpreter.Error
	if !errors.As(err, &rtErr) || rtErr.Kind != interpreter.IndexOutOfBounds {
		t.Fatalf("expected IndexOutOfBounds, got %v", err)
	}
	if !strings.HasSuffix(rtErr.Source, "bad.lin") || rtErr.Line != 2 {
		t.Fatalf("unexpected position %s:%d", rtErr.Source, rtErr.Line)
	}
}

func TestCheckAll(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.lin")
	bad := filepath.Join(dir, "bad.lin")
	broken := filepath.Join(dir, "broken.lin")
	writeFile(t, good, "val a: Int = 1\nprintln(a)\n")
	writeFile(t, bad, "val a: Int = \"one\"\nif (a) { println(a) }\n")
	writeFile(t, broken, "fun (\n")

	cfg := DefaultConfig()
	cfg.TypeCheck = interpreter.TypeCheckOff
	results, err := NewPipeline(WithLogger(quietLogger()), WithConfig(cfg)).CheckAll(context.Background(), []string{good, bad, broken})
	if err != nil {
		t.Fatalf("CheckAll returned error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || len(results[0].Diagnostics) != 0 {
		t.Fatalf("good.lin: %v %v", results[0].Err, results[0].Diagnostics)
	}
	if results[1].Err != nil || len(results[1].Diagnostics) != 2 {
		t.Fatalf("bad.lin: expected 2 diagnostics, got %v %v", results[1].Err, results[1].Diagnostics)
	}
	if results[2].Err == nil {
		t.Fatalf("broken.lin: expected a parse error")
	}
}

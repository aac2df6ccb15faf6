package doctest

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

const sample = "# Scripts\n\n" +
	"Some prose.\n\n" +
	"```go\nignored := true\n```\n\n" +
	"## Test: greeting\n\n" +
	"```dotlin\nfun main(name: String) {\n    println(\"hi \" + readln() + \" and \" + name)\n}\n```\n\n" +
	"```input\nann\n```\n\n" +
	"```args\nbob\n```\n\n" +
	"```output\nhi ann and bob\n```\n\n" +
	"## Test: failure\n\n" +
	"```dotlin\nval xs = [1]\nxs[4]\n```\n\n" +
	"```error\nIndexOutOfBounds\n```\n"

func TestExtract(t *testing.T) {
	cases, err := Extract("sample.md", []byte(sample))
	be.Err(t, err, nil)
	be.Equal(t, len(cases), 2)

	greeting := cases[0]
	be.Equal(t, greeting.Name, "greeting")
	be.Equal(t, greeting.ID(), "sample.md/greeting")
	be.Equal(t, greeting.Input, "ann\n")
	be.Equal(t, greeting.Args, []string{"bob"})
	be.Equal(t, greeting.Output, "hi ann and bob\n")
	be.True(t, strings.HasPrefix(greeting.Source, "fun main"))
	be.Equal(t, greeting.Line, 9)

	be.Equal(t, cases[1].Error, "IndexOutOfBounds")
}

func TestExtractRejectsMalformedCases(t *testing.T) {
	_, err := Extract("x.md", []byte("## Test: empty\n\n```output\n1\n```\n"))
	be.Err(t, err, "has no dotlin fence")

	_, err = Extract("x.md", []byte("```dotlin\nprintln(1)\n```\n"))
	be.Err(t, err, "outside of a test case")

	_, err = Extract("x.md", []byte("## Test: odd\n\n```dotlin\n1\n```\n\n```stdout\n1\n```\n"))
	be.Err(t, err, `unknown fence "stdout"`)

	_, err = Extract("x.md", []byte("## Test: silent\n\n```dotlin\n1\n```\n"))
	be.Err(t, err, "expects neither output nor error")
}

func TestRunnerReportsMismatches(t *testing.T) {
	cases, err := Extract("sample.md", []byte(sample))
	be.Err(t, err, nil)

	runner := NewRunner()
	for _, res := range runner.RunAll(cases) {
		if !res.Passed() {
			t.Fatalf("%s: %s", res.Case.ID(), res.Problem)
		}
	}

	wrong := cases[0]
	wrong.Output = "hi nobody\n"
	res := runner.Run(wrong)
	be.True(t, !res.Passed())
	be.True(t, strings.Contains(res.Problem, "output mismatch"))

	ok := cases[1]
	ok.Error = ""
	ok.hasOutput = true
	res = runner.Run(ok)
	be.True(t, strings.HasPrefix(res.Problem, "unexpected error: "))
}

func TestLoadDir(t *testing.T) {
	cases, err := LoadDir("../interpreter/testdata")
	be.Err(t, err, nil)
	be.True(t, len(cases) > 0)
}

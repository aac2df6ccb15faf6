package doctest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/interpreter"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/parser"
)

// Result reports how one case ran.
type Result struct {
	Case   Case
	Output string
	Err    error
	// Problem is empty when the case passed.
	Problem string
}

func (r Result) Passed() bool { return r.Problem == "" }

// Runner executes cases with a fixed set of engine options.
type Runner struct {
	logger  *slog.Logger
	options interpreter.Options
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithOptions(opts interpreter.Options) RunnerOption {
	return func(r *Runner) {
		r.options = opts
	}
}

func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		options: interpreter.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes c in a fresh interpreter and compares what it printed and how
// it ended against the case's expectations. An exit(code) call ends the run
// normally; its status is only checked through an error fence.
func (r *Runner) Run(c Case) Result {
	res := Result{Case: c}
	prog, err := parser.Parse(c.Source)
	if err != nil {
		res.Err = err
		res.Problem = fmt.Sprintf("parse error: %v", err)
		return res
	}
	var out bytes.Buffer
	interp := interpreter.New(
		interpreter.WithLogger(r.logger),
		interpreter.WithOptions(r.options),
		interpreter.WithOutput(&out),
		interpreter.WithInput(strings.NewReader(c.Input)),
	)
	_, res.Err = interp.Run(prog, c.Args, c.ID())
	res.Output = out.String()

	var exit *interpreter.ExitError
	failed := res.Err != nil && !(errors.As(res.Err, &exit) && c.Error == "")
	switch {
	case c.Error != "" && res.Err == nil:
		res.Problem = fmt.Sprintf("expected error containing %q, run succeeded", c.Error)
	case c.Error != "" && !strings.Contains(res.Err.Error(), c.Error):
		res.Problem = fmt.Sprintf("expected error containing %q, got %v", c.Error, res.Err)
	case c.Error == "" && failed:
		res.Problem = fmt.Sprintf("unexpected error: %s", describe(res.Err))
	}
	if res.Problem == "" && c.hasOutput && res.Output != c.Output {
		res.Problem = "output mismatch (-want +got):\n" + cmp.Diff(c.Output, res.Output)
	}
	return res
}

// RunAll runs every case in order.
func (r *Runner) RunAll(cases []Case) []Result {
	results := make([]Result, len(cases))
	for n, c := range cases {
		results[n] = r.Run(c)
	}
	return results
}

func describe(err error) string {
	var rtErr *interpreter.Error
	if errors.As(err, &rtErr) {
		return rtErr.FullMessage()
	}
	return err.Error()
}

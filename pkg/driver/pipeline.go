package driver

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/interpreter"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/typechecker"
)

// Pipeline loads scripts and hands them to a configured interpreter.
type Pipeline struct {
	logger *slog.Logger
	config *Config
	out    io.Writer
	in     io.Reader
}

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithConfig(cfg *Config) Option {
	return func(p *Pipeline) {
		if cfg != nil {
			p.config = cfg
		}
	}
}

func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) {
		p.out = w
	}
}

func WithInput(r io.Reader) Option {
	return func(p *Pipeline) {
		p.in = r
	}
}

func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		config: DefaultConfig(),
		out:    os.Stdout,
		in:     os.Stdin,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Config() *Config {
	return p.config
}

// NewInterpreter returns an interpreter wired with the pipeline's settings.
func (p *Pipeline) NewInterpreter() *interpreter.Interpreter {
	return interpreter.New(
		interpreter.WithLogger(p.logger),
		interpreter.WithOptions(p.config.Options()),
		interpreter.WithOutput(p.out),
		interpreter.WithInput(p.in),
	)
}

// Run loads path and executes it. When args is empty the configured default
// arguments are used.
func (p *Pipeline) Run(path string, args []string) (runtime.Value, error) {
	src, err := LoadSource(path)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		args = p.config.Args
	}
	p.logger.Debug("running script", "path", src.Path, "args", len(args))
	return p.NewInterpreter().Run(src.Program, args, src.Name())
}

// CheckResult is the outcome of checking one file. Err is set when the file
// could not be loaded or parsed.
type CheckResult struct {
	Path        string
	Name        string
	Diagnostics []typechecker.Diagnostic
	Err         error
}

// Check loads, resolves, optimizes and type-checks path without running it.
// Diagnostics are collected even when the configuration turns checking off.
func (p *Pipeline) Check(path string) *CheckResult {
	result := &CheckResult{Path: path, Name: path}
	src, err := LoadSource(path)
	if err != nil {
		result.Err = err
		return result
	}
	result.Name = src.Name()
	opts := p.config.Options()
	opts.TypeCheck = interpreter.TypeCheckWarn
	interp := interpreter.New(interpreter.WithLogger(p.logger), interpreter.WithOptions(opts))
	result.Diagnostics, result.Err = interp.Check(src.Program, result.Name)
	return result
}

// CheckAll checks every path concurrently. Each file gets its own
// interpreter; results come back in the order of paths.
func (p *Pipeline) CheckAll(ctx context.Context, paths []string) ([]*CheckResult, error) {
	results := make([]*CheckResult, len(paths))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(8)
	for n, path := range paths {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[n] = p.Check(path)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

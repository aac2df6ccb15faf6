package interpreter

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/optimizer"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/resolver"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/typechecker"
)

// Every call nests at least one expression, so with these defaults the depth
// guard trips before the call stack fills. MaxCallDepth only binds once
// MaxDepth is raised above it.
const (
	DefaultMaxDepth     = 1000
	DefaultMaxCallDepth = 2000

	// RecursionLimitValue is what an expression evaluates to once the depth
	// guard trips.
	RecursionLimitValue = "recursion_limit_exceeded"
	// UndefinedValue is what an unknown identifier evaluates to.
	UndefinedValue = "undefined"
)

// TypeCheckMode selects what Run does with checker diagnostics.
type TypeCheckMode string

const (
	TypeCheckOff    TypeCheckMode = "off"
	TypeCheckWarn   TypeCheckMode = "warn"
	TypeCheckStrict TypeCheckMode = "strict"
)

// ParseTypeCheckMode accepts the spellings used in configuration files.
func ParseTypeCheckMode(s string) (TypeCheckMode, error) {
	switch mode := TypeCheckMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case TypeCheckOff, TypeCheckWarn, TypeCheckStrict:
		return mode, nil
	case "":
		return TypeCheckWarn, nil
	default:
		return "", fmt.Errorf("unknown typecheck mode %q (want off, warn or strict)", s)
	}
}

// Options carries the engine settings a driver resolves from configuration.
type Options struct {
	MaxDepth     int
	MaxCallDepth int
	Fold         bool
	DCE          bool
	TypeCheck    TypeCheckMode
}

// DefaultOptions enables both optimizer passes and advisory type checking.
func DefaultOptions() Options {
	return Options{
		MaxDepth:     DefaultMaxDepth,
		MaxCallDepth: DefaultMaxCallDepth,
		Fold:         true,
		DCE:          true,
		TypeCheck:    TypeCheckWarn,
	}
}

// Option configures an Interpreter.
type Option func(*Interpreter)

func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

func WithOptions(opts Options) Option {
	return func(i *Interpreter) {
		if opts.MaxDepth <= 0 {
			opts.MaxDepth = DefaultMaxDepth
		}
		if opts.MaxCallDepth <= 0 {
			opts.MaxCallDepth = DefaultMaxCallDepth
		}
		if opts.TypeCheck == "" {
			opts.TypeCheck = TypeCheckWarn
		}
		i.opts = opts
	}
}

// WithOutput redirects print/println/printf.
func WithOutput(w io.Writer) Option {
	return func(i *Interpreter) {
		i.out = w
	}
}

// WithInput replaces the reader used by readln/readLine.
func WithInput(r io.Reader) Option {
	return func(i *Interpreter) {
		i.in = bufio.NewReader(r)
	}
}

// Interpreter executes Dotlin programs. One instance keeps its globals and
// function registry across Execute calls, which is what the REPL relies on.
// It is not safe for concurrent use.
type Interpreter struct {
	logger *slog.Logger
	opts   Options
	out    io.Writer
	in     *bufio.Reader

	globals   *runtime.Environment
	functions map[string][]*runtime.FunctionDef
	args      *runtime.ArrayValue
	program   *ast.Program
	source    string

	depth  int
	frames []string

	diagnostics []typechecker.Diagnostic
}

// New returns an interpreter with an empty global environment.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		logger:    slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		opts:      DefaultOptions(),
		out:       os.Stdout,
		in:        bufio.NewReader(os.Stdin),
		globals:   runtime.NewEnvironment(nil),
		functions: make(map[string][]*runtime.FunctionDef),
		args:      runtime.NewArray(nil),
		source:    "<input>",
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run is a shorthand for New(opts...).Run(program, args, sourceName).
func Run(program *ast.Program, args []string, sourceName string, opts ...Option) (runtime.Value, error) {
	return New(opts...).Run(program, args, sourceName)
}

// GlobalEnvironment returns the interpreter's global environment.
func (i *Interpreter) GlobalEnvironment() *runtime.Environment {
	return i.globals
}

// Diagnostics returns the checker output of the last prepared program.
func (i *Interpreter) Diagnostics() []typechecker.Diagnostic {
	return i.diagnostics
}

// Run prepares and executes program, then invokes main if one was declared.
// The result is main's return value, otherwise the value of the last
// top-level expression statement, otherwise Int 0.
func (i *Interpreter) Run(program *ast.Program, args []string, sourceName string) (runtime.Value, error) {
	elements := make([]runtime.Value, len(args))
	for n, arg := range args {
		elements[n] = runtime.StringValue{Val: arg}
	}
	i.args = runtime.NewArray(elements)

	last, returned, err := i.execute(program, sourceName)
	if err != nil {
		return nil, err
	}
	if returned {
		return last, nil
	}
	if mains := i.functions["main"]; len(mains) > 0 {
		return i.invokeMain(mains, args)
	}
	return last, nil
}

// Check resolves, optimizes and type-checks program without executing it.
func (i *Interpreter) Check(program *ast.Program, sourceName string) ([]typechecker.Diagnostic, error) {
	if program == nil {
		return nil, fmt.Errorf("interpreter: program is nil")
	}
	if sourceName != "" {
		i.source = sourceName
	}
	if err := i.prepare(program); err != nil {
		return i.diagnostics, err
	}
	return i.diagnostics, nil
}

// Execute prepares and runs program against the existing globals without
// invoking main. It returns the value of the last expression statement.
func (i *Interpreter) Execute(program *ast.Program, sourceName string) (runtime.Value, error) {
	last, _, err := i.execute(program, sourceName)
	return last, err
}

func (i *Interpreter) execute(program *ast.Program, sourceName string) (runtime.Value, bool, error) {
	if program == nil {
		return nil, false, fmt.Errorf("interpreter: program is nil")
	}
	if sourceName != "" {
		i.source = sourceName
	}
	if err := i.prepare(program); err != nil {
		return nil, false, err
	}
	i.program = program
	i.depth = 0
	i.frames = i.frames[:0]

	last := runtime.Void()
	for _, stmt := range program.Statements {
		outcome, err := i.executeStatement(stmt, i.globals)
		if err != nil {
			return nil, false, err
		}
		switch outcome.Kind {
		case Return:
			return outcome.Value, true, nil
		case Normal:
			if _, ok := stmt.(ast.Expression); ok && outcome.Value != nil {
				last = outcome.Value
			}
		}
	}
	return last, false, nil
}

// prepare resolves, optimizes and checks program. Slots are recomputed after
// the optimizer has rewritten anything.
func (i *Interpreter) prepare(program *ast.Program) error {
	stats := resolver.Resolve(program)
	rewritten := false
	if i.opts.Fold {
		folded := optimizer.Fold(program)
		rewritten = folded.Expressions+folded.Branches > 0
		i.logger.Debug("constant folding", "expressions", folded.Expressions, "branches", folded.Branches)
	}
	if i.opts.DCE {
		dce := optimizer.EliminateDeadCode(program)
		rewritten = rewritten || dce.Removed > 0
		i.logger.Debug("dead code elimination", "removed", dce.Removed)
	}
	if rewritten {
		stats = resolver.Resolve(program)
	}
	i.logger.Debug("resolved", "references", stats.References, "slots", stats.Resolved)

	i.diagnostics = nil
	if i.opts.TypeCheck == TypeCheckOff {
		return nil
	}
	checker := typechecker.New(typechecker.WithLogger(i.logger))
	diags, err := checker.Check(program)
	if err != nil {
		return err
	}
	i.diagnostics = diags
	if i.opts.TypeCheck == TypeCheckStrict && len(diags) > 0 {
		return &CheckError{Source: i.source, Diagnostics: diags}
	}
	return nil
}

// invokeMain binds command-line arguments to main's parameters. A parameter
// annotated as an array receives all of them; missing arguments get the zero
// value of the parameter's annotation.
func (i *Interpreter) invokeMain(mains []*runtime.FunctionDef, args []string) (runtime.Value, error) {
	values := make([]runtime.Value, len(args))
	for n, arg := range args {
		values[n] = runtime.StringValue{Val: arg}
	}
	def := selectOverload(mains, values)
	if def == nil {
		def = mains[0]
	}
	bound := make([]runtime.Value, def.Arity())
	for n, param := range def.Params {
		if param.Type != nil && runtime.NormalizeTypeName(param.Type.Name) == "Array" {
			bound[n] = i.args
			continue
		}
		if n < len(values) {
			bound[n] = values[n]
			continue
		}
		bound[n] = zeroValue(param.Type, runtime.StringValue{Val: ""})
	}
	i.logger.Debug("invoking main", "params", def.Arity(), "args", len(args))
	return i.callFunction(def, bound, nil, nil)
}

// zeroValue is the default for a declaration without an initializer.
func zeroValue(ref *ast.TypeRef, fallback runtime.Value) runtime.Value {
	if ref == nil {
		return fallback
	}
	switch runtime.NormalizeTypeName(ref.Name) {
	case "int":
		return runtime.Int32Value{Val: 0}
	case "long":
		return runtime.Int64Value{Val: 0}
	case "double":
		return runtime.Float64Value{Val: 0}
	case "bool":
		return runtime.BoolValue{Val: false}
	case "string":
		return runtime.StringValue{Val: ""}
	case "Array":
		return runtime.NewArray(nil)
	}
	return fallback
}

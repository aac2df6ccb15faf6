package typechecker

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
)

// Checker walks a program computing best-effort types and records
// diagnostics. It never rejects a program on its own; callers decide what a
// diagnostic means.
type Checker struct {
	logger          *slog.Logger
	global          *TypeEnvironment
	functions       map[string][]*signature
	classes         map[string]*classInfo
	returnTypeStack []*Type
	functionStack   []string
	inferred        int
}

// Diagnostic represents a type-checking warning.
type Diagnostic struct {
	Message string
	Line    int
	Column  int
	Node    ast.Node
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message)
}

type signature struct {
	params []*Type
	result *Type
}

type classInfo struct {
	name         string
	super        string
	fields       map[string]*Type
	constructors []int
	methods      map[string]*signature
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger routes diagnostics and inference events to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a checker instance.
func New(opts ...Option) *Checker {
	c := &Checker{
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		global: NewTypeEnvironment(nil),
	}
	c.global.Define("args", ArrayOf(StringType))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Inferred reports how many declarations received a written-back type during
// the last Check.
func (c *Checker) Inferred() int {
	return c.inferred
}

// Check type-checks program and returns its diagnostics in source order of
// discovery. Unannotated variable declarations whose initializer has a known
// type get an inferred TypeRef.
func (c *Checker) Check(program *ast.Program) ([]Diagnostic, error) {
	if program == nil {
		return nil, fmt.Errorf("typechecker: program is nil")
	}
	c.functions = make(map[string][]*signature)
	c.classes = make(map[string]*classInfo)
	c.returnTypeStack = nil
	c.functionStack = nil
	c.inferred = 0

	c.collectDeclarations(program.Statements)

	var diagnostics []Diagnostic
	env := c.global.Extend()
	for _, stmt := range program.Statements {
		diagnostics = append(diagnostics, c.checkStatement(env, stmt)...)
	}
	for _, d := range diagnostics {
		c.logger.Warn("type check", "line", d.Line, "col", d.Column, "message", d.Message)
	}
	return diagnostics, nil
}

// collectDeclarations registers every top-level function and class so calls
// may precede declarations.
func (c *Checker) collectDeclarations(stmts []ast.Statement) {
	for _, stmt := range stmts {
		if class, ok := stmt.(*ast.ClassDeclaration); ok {
			c.classes[class.Name] = &classInfo{
				name:    class.Name,
				super:   class.SuperClass,
				fields:  make(map[string]*Type),
				methods: make(map[string]*signature),
			}
		}
	}
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.FunctionDeclaration:
			c.functions[s.Name] = append(c.functions[s.Name], c.signatureOf(s))
		case *ast.ClassDeclaration:
			info := c.classes[s.Name]
			for _, field := range s.Fields {
				info.fields[field.Name] = FromRef(field.TypeAnnotation, c.classes)
			}
			for _, ctor := range s.Constructors {
				info.constructors = append(info.constructors, len(ctor.Params))
			}
			for _, method := range s.Methods {
				info.methods[method.Name] = c.signatureOf(method)
			}
		}
	}
}

func (c *Checker) signatureOf(decl *ast.FunctionDeclaration) *signature {
	sig := &signature{result: FromRef(decl.ReturnType, c.classes)}
	for _, param := range decl.Params {
		sig.params = append(sig.params, FromRef(param.Type, c.classes))
	}
	return sig
}

func (c *Checker) diag(node ast.Node, format string, args ...any) Diagnostic {
	pos := node.Pos()
	return Diagnostic{
		Message: fmt.Sprintf(format, args...),
		Line:    pos.Line,
		Column:  pos.Column,
		Node:    node,
	}
}

func (c *Checker) pushReturnType(name string, typ *Type) {
	c.returnTypeStack = append(c.returnTypeStack, typ)
	c.functionStack = append(c.functionStack, name)
}

func (c *Checker) popReturnType() {
	c.returnTypeStack = c.returnTypeStack[:len(c.returnTypeStack)-1]
	c.functionStack = c.functionStack[:len(c.functionStack)-1]
}

func (c *Checker) currentReturnType() (string, *Type, bool) {
	if len(c.returnTypeStack) == 0 {
		return "", nil, false
	}
	n := len(c.returnTypeStack) - 1
	return c.functionStack[n], c.returnTypeStack[n], true
}

// fieldType walks the superclass chain for a field declared in a class body.
func (c *Checker) fieldType(class, field string) *Type {
	seen := make(map[string]bool)
	for info, ok := c.classes[class]; ok && !seen[info.name]; info, ok = c.classes[info.super] {
		seen[info.name] = true
		if typ, found := info.fields[field]; found {
			return typ
		}
	}
	return Unknown
}

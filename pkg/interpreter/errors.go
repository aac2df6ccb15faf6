package interpreter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/typechecker"
)

// ErrorKind classifies runtime failures.
type ErrorKind int

const (
	UndefinedVariable ErrorKind = iota
	TypeMismatch
	BuiltinArgumentError
	CallError
	IndexOutOfBounds
	UnknownBuiltin
	UserThrown
)

func (k ErrorKind) String() string {
	switch k {
	case UndefinedVariable:
		return "UndefinedVariable"
	case TypeMismatch:
		return "TypeMismatch"
	case BuiltinArgumentError:
		return "BuiltinArgumentError"
	case CallError:
		return "CallError"
	case IndexOutOfBounds:
		return "IndexOutOfBounds"
	case UnknownBuiltin:
		return "UnknownBuiltin"
	case UserThrown:
		return "UserThrown"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a positioned runtime failure. Stack lists the active call frames,
// innermost first, at the moment the error was raised.
type Error struct {
	Kind    ErrorKind
	Message string
	Line    int
	Column  int
	Source  string
	Stack   []string
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", e.Source, e.Line, e.Column, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// FullMessage renders the error followed by its stack trace.
func (e *Error) FullMessage() string {
	var b strings.Builder
	b.WriteString(e.Error())
	for _, frame := range e.Stack {
		b.WriteString("\n    at ")
		b.WriteString(frame)
	}
	return b.String()
}

// ExitError is raised by exit(code). try/catch does not intercept it.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// CheckError is returned by Run when strict type checking finds problems.
type CheckError struct {
	Source      string
	Diagnostics []typechecker.Diagnostic
}

func (e *CheckError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: type check failed with %d diagnostic(s)", e.Source, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		fmt.Fprintf(&b, "\n  %s:%s", e.Source, d)
	}
	return b.String()
}

// builtinError carries a failure out of a builtin before it has a position.
type builtinError struct {
	kind ErrorKind
	msg  string
}

func (e *builtinError) Error() string { return e.msg }

func argErrorf(format string, args ...any) error {
	return &builtinError{kind: BuiltinArgumentError, msg: fmt.Sprintf(format, args...)}
}

func (i *Interpreter) errorAt(node ast.Node, kind ErrorKind, format string, args ...any) *Error {
	err := &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Source:  i.source,
		Stack:   i.trace(),
	}
	if node != nil && !ast.IsNil(node) {
		pos := node.Pos()
		err.Line, err.Column = pos.Line, pos.Column
	}
	return err
}

// wrap positions a lower-level error at node. Errors that already carry a
// position, and exit requests, pass through untouched.
func (i *Interpreter) wrap(node ast.Node, err error) error {
	if err == nil {
		return nil
	}
	var positioned *Error
	if errors.As(err, &positioned) {
		return err
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return err
	}
	kind := TypeMismatch
	msg := err.Error()
	var be *builtinError
	switch {
	case errors.As(err, &be):
		kind = be.kind
	case errors.Is(err, runtime.ErrUndefinedVariable):
		kind = UndefinedVariable
	case errors.Is(err, runtime.ErrDivisionByZero):
		msg = "Division by zero"
	case errors.Is(err, runtime.ErrIndexOutOfBounds):
		kind = IndexOutOfBounds
	}
	wrapped := i.errorAt(node, kind, "%s", msg)
	wrapped.cause = err
	return wrapped
}

// trace returns the call stack innermost first.
func (i *Interpreter) trace() []string {
	if len(i.frames) == 0 {
		return nil
	}
	out := make([]string, len(i.frames))
	for n, frame := range i.frames {
		out[len(i.frames)-1-n] = frame
	}
	return out
}

// catchMessage is the text bound to a catch variable.
func catchMessage(err error) string {
	var rtErr *Error
	if errors.As(err, &rtErr) {
		return rtErr.Message
	}
	return err.Error()
}

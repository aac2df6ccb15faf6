package optimizer

import (
	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
)

// DCEStats counts the statements dropped by EliminateDeadCode.
type DCEStats struct {
	Removed int
}

type eliminator struct {
	stats DCEStats
}

// EliminateDeadCode drops every statement that follows a return in the same
// statement list. A block that stops at a return also ends the list it sits
// in; if/while/for/when/try bodies are pruned internally but never end the
// enclosing list, even when every branch returns.
func EliminateDeadCode(program *ast.Program) DCEStats {
	e := &eliminator{}
	program.Statements, _ = e.statements(program.Statements)
	return e.stats
}

func (e *eliminator) statements(stmts []ast.Statement) ([]ast.Statement, bool) {
	for i, stmt := range stmts {
		if e.statement(stmt) {
			e.stats.Removed += len(stmts) - i - 1
			return stmts[:i+1], true
		}
	}
	return stmts, false
}

func (e *eliminator) block(block *ast.BlockStatement) bool {
	if block == nil {
		return false
	}
	var returns bool
	block.Statements, returns = e.statements(block.Statements)
	return returns
}

// body prunes a nested body. Its return flag is dropped on purpose: only a
// bare block propagates.
func (e *eliminator) body(stmt ast.Statement) {
	if stmt != nil && !ast.IsNil(stmt) {
		e.statement(stmt)
	}
}

// statement reports whether stmt ends its statement list.
func (e *eliminator) statement(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.ReturnStatement:
		e.lambdas(s.Value)
		return true
	case *ast.BlockStatement:
		return e.block(s)
	case *ast.VariableDeclaration:
		e.lambdas(s.Initializer)
	case *ast.FunctionDeclaration:
		e.block(s.Body)
	case *ast.ClassDeclaration:
		for _, field := range s.Fields {
			e.lambdas(field.Initializer)
		}
		for _, ctor := range s.Constructors {
			e.block(ctor.Body)
		}
		for _, init := range s.Initializers {
			e.block(init)
		}
		for _, method := range s.Methods {
			e.block(method.Body)
		}
	case *ast.IfStatement:
		e.lambdas(s.Condition)
		e.body(s.Then)
		e.body(s.Else)
	case *ast.WhileStatement:
		e.lambdas(s.Condition)
		e.body(s.Body)
	case *ast.ForStatement:
		e.lambdas(s.Iterable)
		e.body(s.Body)
	case *ast.WhenStatement:
		e.lambdas(s.Subject)
		for _, branch := range s.Branches {
			e.body(branch.Body)
		}
		e.body(s.Else)
	case *ast.TryStatement:
		e.block(s.Body)
		e.block(s.Catch)
		e.block(s.Finally)
	case ast.Expression:
		e.lambdas(s)
	}
	return false
}

// lambdas prunes the bodies of lambda expressions nested in expr.
func (e *eliminator) lambdas(expr ast.Expression) {
	if expr == nil || ast.IsNil(expr) {
		return
	}
	ast.Inspect(expr, func(n ast.Node) bool {
		if lam, ok := n.(*ast.LambdaExpression); ok {
			e.block(lam.Body)
			return false
		}
		return true
	})
}

package optimizer

import (
	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
)

// FoldStats counts the rewrites made by Fold.
type FoldStats struct {
	Expressions int
	Branches    int
}

type folder struct {
	program *ast.Program
	stats   FoldStats
}

// Fold replaces constant expressions with literals and prunes if/while
// statements whose condition is a literal boolean. Arithmetic goes through
// runtime.BinaryOp, so anything that would fail at runtime (division by zero,
// mismatched operands) is left for the evaluator to report.
func Fold(program *ast.Program) FoldStats {
	f := &folder{program: program}
	program.Statements = f.statements(program.Statements)
	return f.stats
}

func (f *folder) statements(stmts []ast.Statement) []ast.Statement {
	for i, stmt := range stmts {
		stmts[i] = f.statement(stmt)
	}
	return stmts
}

func (f *folder) block(block *ast.BlockStatement) {
	if block != nil {
		block.Statements = f.statements(block.Statements)
	}
}

func (f *folder) optional(stmt ast.Statement) ast.Statement {
	if stmt == nil || ast.IsNil(stmt) {
		return nil
	}
	return f.statement(stmt)
}

func (f *folder) emptyBlock(at ast.Node) *ast.BlockStatement {
	block := ast.NewBlockStatement(nil)
	block.SetPos(at.Pos())
	f.program.Adopt(block)
	return block
}

func (f *folder) statement(stmt ast.Statement) ast.Statement {
	switch s := stmt.(type) {
	case *ast.VariableDeclaration:
		s.Initializer = f.expression(s.Initializer)
	case *ast.FunctionDeclaration:
		f.block(s.Body)
	case *ast.ClassDeclaration:
		for _, field := range s.Fields {
			field.Initializer = f.expression(field.Initializer)
		}
		for _, ctor := range s.Constructors {
			f.block(ctor.Body)
		}
		for _, init := range s.Initializers {
			f.block(init)
		}
		for _, method := range s.Methods {
			f.block(method.Body)
		}
	case *ast.BlockStatement:
		f.block(s)
	case *ast.IfStatement:
		s.Condition = f.expression(s.Condition)
		s.Then = f.statement(s.Then)
		s.Else = f.optional(s.Else)
		if lit, ok := s.Condition.(*ast.BooleanLiteral); ok {
			f.stats.Branches++
			if lit.Value {
				return s.Then
			}
			if s.Else != nil {
				return s.Else
			}
			return f.emptyBlock(s)
		}
	case *ast.WhileStatement:
		s.Condition = f.expression(s.Condition)
		s.Body = f.statement(s.Body)
		if lit, ok := s.Condition.(*ast.BooleanLiteral); ok && !lit.Value {
			f.stats.Branches++
			return f.emptyBlock(s)
		}
	case *ast.ForStatement:
		s.Iterable = f.expression(s.Iterable)
		s.Body = f.statement(s.Body)
	case *ast.WhenStatement:
		s.Subject = f.expression(s.Subject)
		for _, branch := range s.Branches {
			for i, pattern := range branch.Patterns {
				branch.Patterns[i] = f.expression(pattern)
			}
			branch.Body = f.statement(branch.Body)
		}
		s.Else = f.optional(s.Else)
	case *ast.TryStatement:
		f.block(s.Body)
		f.block(s.Catch)
		f.block(s.Finally)
	case *ast.ReturnStatement:
		s.Value = f.expression(s.Value)
	case ast.Expression:
		return f.expression(s)
	}
	return stmt
}

func (f *folder) expression(expr ast.Expression) ast.Expression {
	switch e := expr.(type) {
	case nil:
		return nil
	case *ast.UnaryExpression:
		e.Operand = f.expression(e.Operand)
		if operand, ok := runtime.LiteralValue(e.Operand); ok {
			if v, err := runtime.UnaryOp(e.Operator, operand); err == nil {
				return f.replace(e, v)
			}
		}
	case *ast.BinaryExpression:
		e.Left = f.expression(e.Left)
		e.Right = f.expression(e.Right)
		left, lok := runtime.LiteralValue(e.Left)
		right, rok := runtime.LiteralValue(e.Right)
		if lok && rok {
			if v, err := runtime.BinaryOp(e.Operator, left, right); err == nil {
				return f.replace(e, v)
			}
		}
	case *ast.StringInterpolation:
		text := ""
		constant := true
		for i, part := range e.Parts {
			e.Parts[i] = f.expression(part)
			if v, ok := runtime.LiteralValue(e.Parts[i]); ok {
				text += runtime.ToDisplayString(v)
			} else {
				constant = false
			}
		}
		if constant {
			return f.replace(e, runtime.StringValue{Val: text})
		}
	case *ast.ArrayLiteral:
		for i, el := range e.Elements {
			e.Elements[i] = f.expression(el)
		}
	case *ast.AssignmentExpression:
		e.Value = f.expression(e.Value)
	case *ast.FunctionCall:
		e.Callee = f.expression(e.Callee)
		for i, arg := range e.Arguments {
			e.Arguments[i] = f.expression(arg)
		}
	case *ast.MemberAccessExpression:
		e.Object = f.expression(e.Object)
	case *ast.IndexExpression:
		e.Object = f.expression(e.Object)
		e.Index = f.expression(e.Index)
	case *ast.LambdaExpression:
		f.block(e.Body)
	}
	return expr
}

func (f *folder) replace(original ast.Expression, v runtime.Value) ast.Expression {
	lit := literalFor(v)
	if lit == nil {
		return original
	}
	lit.SetPos(original.Pos())
	f.program.Adopt(lit)
	f.stats.Expressions++
	return lit
}

func literalFor(v runtime.Value) ast.Expression {
	switch val := v.(type) {
	case runtime.Int32Value:
		return ast.NewIntegerLiteral(int64(val.Val), false)
	case runtime.Int64Value:
		return ast.NewIntegerLiteral(val.Val, true)
	case runtime.Float64Value:
		return ast.NewFloatLiteral(val.Val)
	case runtime.StringValue:
		return ast.NewStringLiteral(val.Val)
	case runtime.BoolValue:
		return ast.NewBooleanLiteral(val.Val)
	}
	return nil
}

// Package resolver computes, for every variable reference and declaration in
// a program, which scope holds the binding and at which slot. Results are
// stored in the program's arena keyed by NodeID, so the evaluator can skip
// name-based chain walks. Top-level names are globals and stay unresolved.
package resolver

import (
	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
)

// Stats summarizes one resolution pass.
type Stats struct {
	References int
	Resolved   int
}

type entry struct {
	index   int
	defined bool
}

type scope struct {
	entries map[string]*entry
	next    int
}

func newScope() *scope {
	return &scope{entries: make(map[string]*entry)}
}

type Resolver struct {
	program *ast.Program
	scopes  []*scope
	// methods holds the index of the parameter scope of every enclosing
	// method, constructor or init block.
	methods []int
	stats   Stats
}

// Resolve walks program and records slots. Previous results are discarded.
func Resolve(program *ast.Program) Stats {
	r := &Resolver{program: program}
	program.ClearSlots()
	for _, stmt := range program.Statements {
		r.statement(stmt)
	}
	return r.stats
}

func (r *Resolver) push() { r.scopes = append(r.scopes, newScope()) }
func (r *Resolver) pop()  { r.scopes = r.scopes[:len(r.scopes)-1] }

// declare reserves a slot in the innermost scope. A redeclaration in the same
// scope gets a fresh slot so earlier closures keep the old binding.
func (r *Resolver) declare(name string) (int, bool) {
	if len(r.scopes) == 0 {
		return -1, false
	}
	s := r.scopes[len(r.scopes)-1]
	idx := s.next
	s.next++
	s.entries[name] = &entry{index: idx}
	return idx, true
}

func (r *Resolver) define(name string) {
	if len(r.scopes) == 0 {
		return
	}
	if e, ok := r.scopes[len(r.scopes)-1].entries[name]; ok {
		e.defined = true
	}
}

// bind declares and defines name, recording the slot on the declaring node.
func (r *Resolver) bind(node ast.Node, name string) {
	idx, ok := r.declare(name)
	if !ok {
		return
	}
	r.define(name)
	r.program.SetSlot(node.ID(), ast.Slot{Distance: 0, Index: idx})
}

func (r *Resolver) reference(node ast.Node, name string) {
	r.stats.References++
	for i := len(r.scopes) - 1; i >= 0; i-- {
		e, ok := r.scopes[i].entries[name]
		if !ok || !e.defined {
			continue
		}
		slot := ast.Slot{Distance: len(r.scopes) - 1 - i, Index: e.index}
		if n := len(r.methods); n > 0 && i < r.methods[n-1] {
			slot.Outer = true
		}
		r.program.SetSlot(node.ID(), slot)
		r.stats.Resolved++
		return
	}
}

func (r *Resolver) block(block *ast.BlockStatement) {
	if block == nil {
		return
	}
	r.push()
	for _, stmt := range block.Statements {
		r.statement(stmt)
	}
	r.pop()
}

// body handles a branch or loop body, which only opens a scope when it is a
// block.
func (r *Resolver) body(stmt ast.Statement) {
	if stmt == nil {
		return
	}
	if block, ok := stmt.(*ast.BlockStatement); ok {
		r.block(block)
		return
	}
	r.statement(stmt)
}

func (r *Resolver) statement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case nil:
		return
	case *ast.VariableDeclaration:
		if len(r.scopes) > 0 {
			r.declare(s.Name)
		}
		r.expression(s.Initializer)
		if len(r.scopes) > 0 {
			r.define(s.Name)
			r.program.SetSlot(s.ID(), ast.Slot{Index: r.scopes[len(r.scopes)-1].entries[s.Name].index})
		}
	case *ast.FunctionDeclaration:
		r.bind(s, s.Name)
		r.function(s.Params, s.Body, false)
	case *ast.ClassDeclaration:
		r.bind(s, s.Name)
		r.class(s)
	case *ast.BlockStatement:
		r.block(s)
	case *ast.IfStatement:
		r.expression(s.Condition)
		r.body(s.Then)
		r.body(s.Else)
	case *ast.WhileStatement:
		r.expression(s.Condition)
		r.body(s.Body)
	case *ast.ForStatement:
		r.expression(s.Iterable)
		r.push()
		r.bind(s, s.Variable)
		r.body(s.Body)
		r.pop()
	case *ast.WhenStatement:
		r.expression(s.Subject)
		for _, branch := range s.Branches {
			for _, pattern := range branch.Patterns {
				r.expression(pattern)
			}
			r.body(branch.Body)
		}
		r.body(s.Else)
	case *ast.TryStatement:
		r.block(s.Body)
		if s.Catch != nil {
			r.push()
			if s.CatchVar != "" {
				r.bind(s, s.CatchVar)
			}
			r.block(s.Catch)
			r.pop()
		}
		r.block(s.Finally)
	case *ast.ReturnStatement:
		r.expression(s.Value)
	case *ast.BreakStatement, *ast.ContinueStatement:
	case ast.Expression:
		r.expression(s)
	}
}

// function opens the parameter scope; the body block adds its own scope.
// Methods, constructors and init blocks get `this` at slot 0.
func (r *Resolver) function(params []*ast.FunctionParameter, body *ast.BlockStatement, withThis bool) {
	r.push()
	if withThis {
		r.methods = append(r.methods, len(r.scopes)-1)
		defer func() { r.methods = r.methods[:len(r.methods)-1] }()
		r.declare("this")
		r.define("this")
	}
	for _, p := range params {
		r.bind(p, p.Name)
	}
	r.block(body)
	r.pop()
}

func (r *Resolver) class(c *ast.ClassDeclaration) {
	for _, field := range c.Fields {
		r.expression(field.Initializer)
	}
	for _, ctor := range c.Constructors {
		r.function(ctor.Params, ctor.Body, true)
	}
	for _, init := range c.Initializers {
		r.function(nil, init, true)
	}
	for _, method := range c.Methods {
		r.function(method.Params, method.Body, true)
	}
}

func (r *Resolver) expression(expr ast.Expression) {
	switch e := expr.(type) {
	case nil:
		return
	case *ast.Identifier:
		r.reference(e, e.Name)
	case *ast.IntegerLiteral, *ast.FloatLiteral, *ast.StringLiteral, *ast.BooleanLiteral:
	case *ast.StringInterpolation:
		for _, part := range e.Parts {
			r.expression(part)
		}
	case *ast.ArrayLiteral:
		for _, el := range e.Elements {
			r.expression(el)
		}
	case *ast.UnaryExpression:
		r.expression(e.Operand)
	case *ast.BinaryExpression:
		r.expression(e.Left)
		r.expression(e.Right)
	case *ast.AssignmentExpression:
		r.expression(e.Value)
		r.expression(e.Target)
	case *ast.FunctionCall:
		r.expression(e.Callee)
		for _, arg := range e.Arguments {
			r.expression(arg)
		}
	case *ast.MemberAccessExpression:
		r.expression(e.Object)
	case *ast.IndexExpression:
		r.expression(e.Object)
		r.expression(e.Index)
	case *ast.LambdaExpression:
		r.lambda(e)
	}
}

// lambda is like function, except that a lambda without a parameter list
// gets the implicit `it` at slot 0.
func (r *Resolver) lambda(e *ast.LambdaExpression) {
	if len(e.Params) > 0 {
		r.function(e.Params, e.Body, false)
		return
	}
	r.push()
	r.declare("it")
	r.define("it")
	r.block(e.Body)
	r.pop()
}

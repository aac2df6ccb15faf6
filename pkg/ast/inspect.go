package ast

import "reflect"

// Inspect walks the tree rooted at node in depth-first order. If fn returns
// false the children of that node are skipped.
func Inspect(node Node, fn func(Node) bool) {
	if node == nil || IsNil(node) {
		return
	}
	if !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Inspect(child, fn)
	}
}

// Children lists the direct child nodes of node in source order.
func Children(node Node) []Node {
	var out []Node
	add := func(n Node) {
		if n != nil && !IsNil(n) {
			out = append(out, n)
		}
	}
	switch n := node.(type) {
	case *Program:
		for _, s := range n.Statements {
			add(s)
		}
	case *StringInterpolation:
		for _, part := range n.Parts {
			add(part)
		}
	case *ArrayLiteral:
		for _, el := range n.Elements {
			add(el)
		}
	case *UnaryExpression:
		add(n.Operand)
	case *BinaryExpression:
		add(n.Left)
		add(n.Right)
	case *AssignmentExpression:
		add(n.Target)
		add(n.Value)
	case *FunctionCall:
		add(n.Callee)
		for _, arg := range n.Arguments {
			add(arg)
		}
	case *MemberAccessExpression:
		add(n.Object)
	case *IndexExpression:
		add(n.Object)
		add(n.Index)
	case *LambdaExpression:
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *VariableDeclaration:
		add(n.Initializer)
	case *FunctionDeclaration:
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *ConstructorDeclaration:
		for _, p := range n.Params {
			add(p)
		}
		add(n.Body)
	case *ClassDeclaration:
		for _, f := range n.Fields {
			add(f)
		}
		for _, c := range n.Constructors {
			add(c)
		}
		for _, m := range n.Methods {
			add(m)
		}
		for _, b := range n.Initializers {
			add(b)
		}
	case *BlockStatement:
		for _, s := range n.Statements {
			add(s)
		}
	case *IfStatement:
		add(n.Condition)
		add(n.Then)
		add(n.Else)
	case *WhileStatement:
		add(n.Condition)
		add(n.Body)
	case *ForStatement:
		add(n.Iterable)
		add(n.Body)
	case *WhenBranch:
		for _, p := range n.Patterns {
			add(p)
		}
		add(n.Body)
	case *WhenStatement:
		add(n.Subject)
		for _, b := range n.Branches {
			add(b)
		}
		add(n.Else)
	case *TryStatement:
		add(n.Body)
		add(n.Catch)
		add(n.Finally)
	case *ReturnStatement:
		add(n.Value)
	}
	return out
}

// IsNil catches typed nil pointers stored in interface fields, e.g. an
// absent *BlockStatement assigned to a Statement.
func IsNil(n Node) bool {
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

package typechecker

import (
	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
)

func (c *Checker) checkExpression(env *TypeEnvironment, expr ast.Expression) ([]Diagnostic, *Type) {
	if expr == nil || ast.IsNil(expr) {
		return nil, Unknown
	}
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		if e.Long {
			return nil, LongType
		}
		return nil, IntType
	case *ast.FloatLiteral:
		return nil, DoubleType
	case *ast.StringLiteral:
		return nil, StringType
	case *ast.BooleanLiteral:
		return nil, BoolType
	case *ast.StringInterpolation:
		var diags []Diagnostic
		for _, part := range e.Parts {
			partDiags, _ := c.checkExpression(env, part)
			diags = append(diags, partDiags...)
		}
		return diags, StringType
	case *ast.ArrayLiteral:
		return c.checkArrayLiteral(env, e)
	case *ast.Identifier:
		if typ, ok := env.Lookup(e.Name); ok {
			return nil, typ
		}
		if sigs, ok := c.functions[e.Name]; ok && len(sigs) > 0 {
			return nil, FunctionReturning(sigs[0].result)
		}
		return nil, Unknown
	case *ast.UnaryExpression:
		diags, operand := c.checkExpression(env, e.Operand)
		switch e.Operator {
		case "!":
			return diags, BoolType
		case "-", "+":
			if operand.IsNumeric() {
				return diags, operand
			}
			if operand.Known() {
				diags = append(diags, c.diag(e, "unary %s is not defined for %s", e.Operator, operand.Name()))
			}
		}
		return diags, Unknown
	case *ast.BinaryExpression:
		return c.checkBinary(env, e)
	case *ast.AssignmentExpression:
		return c.checkAssignment(env, e)
	case *ast.FunctionCall:
		return c.checkCall(env, e)
	case *ast.MemberAccessExpression:
		diags, object := c.checkExpression(env, e.Object)
		return diags, c.memberType(object, e.Member)
	case *ast.IndexExpression:
		diags, object := c.checkExpression(env, e.Object)
		indexDiags, index := c.checkExpression(env, e.Index)
		diags = append(diags, indexDiags...)
		if index.Known() && index.Kind != KindInt && index.Kind != KindLong {
			diags = append(diags, c.diag(e.Index, "array index must be Int, got %s", index.Name()))
		}
		if object.Kind == KindArray {
			return diags, object.Element
		}
		return diags, Unknown
	case *ast.LambdaExpression:
		lambdaEnv := env.Extend()
		for _, param := range e.Params {
			lambdaEnv.Define(param.Name, FromRef(param.Type, c.classes))
		}
		c.pushReturnType("<lambda>", Unknown)
		diags := c.checkBlock(lambdaEnv.Extend(), e.Body)
		c.popReturnType()
		return diags, FunctionReturning(Unknown)
	}
	return nil, Unknown
}

func (c *Checker) checkArrayLiteral(env *TypeEnvironment, lit *ast.ArrayLiteral) ([]Diagnostic, *Type) {
	var diags []Diagnostic
	var element *Type
	for _, el := range lit.Elements {
		elDiags, typ := c.checkExpression(env, el)
		diags = append(diags, elDiags...)
		switch {
		case element == nil:
			element = typ
		case element.Kind != typ.Kind:
			element = Any
		}
	}
	return diags, ArrayOf(element)
}

func (c *Checker) checkBinary(env *TypeEnvironment, bin *ast.BinaryExpression) ([]Diagnostic, *Type) {
	diags, left := c.checkExpression(env, bin.Left)
	rightDiags, right := c.checkExpression(env, bin.Right)
	diags = append(diags, rightDiags...)

	switch bin.Operator {
	case "==", "!=":
		return diags, BoolType
	case "&&", "||":
		for _, side := range []*Type{left, right} {
			if side.Known() && side.Kind != KindBool {
				diags = append(diags, c.diag(bin, "operator %s requires Boolean operands, got %s", bin.Operator, side.Name()))
				break
			}
		}
		return diags, BoolType
	case "<", "<=", ">", ">=":
		if left.Known() && right.Known() && !(left.IsNumeric() && right.IsNumeric()) && !(left.Kind == KindString && right.Kind == KindString) {
			diags = append(diags, c.diag(bin, "cannot compare %s with %s", left.Name(), right.Name()))
		}
		return diags, BoolType
	case "+":
		if left.Kind == KindString || right.Kind == KindString {
			return diags, StringType
		}
	}

	if !left.Known() || !right.Known() {
		return diags, Unknown
	}
	if !left.IsNumeric() || !right.IsNumeric() {
		diags = append(diags, c.diag(bin, "operator %s is not defined for %s and %s", bin.Operator, left.Name(), right.Name()))
		return diags, Unknown
	}
	return diags, widen(left, right)
}

// widen mirrors runtime numeric promotion: Int < Long < Double.
func widen(a, b *Type) *Type {
	rank := func(t *Type) int {
		switch t.Kind {
		case KindInt:
			return 1
		case KindLong:
			return 2
		case KindDouble:
			return 3
		}
		return 0
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

func (c *Checker) checkAssignment(env *TypeEnvironment, assign *ast.AssignmentExpression) ([]Diagnostic, *Type) {
	diags, value := c.checkExpression(env, assign.Value)
	switch target := assign.Target.(type) {
	case *ast.Identifier:
		current, ok := env.Lookup(target.Name)
		if !ok {
			env.Define(target.Name, value)
			return diags, value
		}
		if !value.IsCompatibleWith(current) {
			diags = append(diags, c.diag(assign, "cannot assign %s to '%s' of type %s", value.Name(), target.Name, current.Name()))
		}
	case *ast.MemberAccessExpression:
		objDiags, object := c.checkExpression(env, target.Object)
		diags = append(diags, objDiags...)
		if object.Kind == KindClass {
			field := c.fieldType(object.Class, target.Member)
			if !value.IsCompatibleWith(field) {
				diags = append(diags, c.diag(assign, "cannot assign %s to field '%s' of type %s", value.Name(), target.Member, field.Name()))
			}
		}
	default:
		diags = append(diags, c.diag(assign, "invalid assignment target"))
	}
	return diags, value
}

func (c *Checker) checkCall(env *TypeEnvironment, call *ast.FunctionCall) ([]Diagnostic, *Type) {
	var diags []Diagnostic
	args := make([]*Type, len(call.Arguments))
	for i, arg := range call.Arguments {
		argDiags, typ := c.checkExpression(env, arg)
		diags = append(diags, argDiags...)
		args[i] = typ
	}

	switch callee := call.Callee.(type) {
	case *ast.Identifier:
		return c.checkNamedCall(env, call, callee.Name, args, diags)
	case *ast.MemberAccessExpression:
		objDiags, object := c.checkExpression(env, callee.Object)
		diags = append(diags, objDiags...)
		return diags, c.methodType(object, callee.Member)
	default:
		calleeDiags, typ := c.checkExpression(env, call.Callee)
		diags = append(diags, calleeDiags...)
		if typ.Kind == KindFunction {
			return diags, typ.Return
		}
		return diags, Unknown
	}
}

// checkNamedCall follows the runtime call priority: builtins, classes,
// lambdas in scope, then user functions.
func (c *Checker) checkNamedCall(env *TypeEnvironment, call *ast.FunctionCall, name string, args []*Type, diags []Diagnostic) ([]Diagnostic, *Type) {
	if result, ok := builtinResults[name]; ok {
		if name == "abs" || name == "min" || name == "max" {
			return diags, numericResult(args)
		}
		return diags, result
	}
	if info, ok := c.classes[name]; ok {
		if !acceptsArity(info.constructors, len(args)) {
			diags = append(diags, c.diag(call, "class '%s' has no constructor taking %d argument(s)", name, len(args)))
		}
		return diags, ClassType(name)
	}
	if typ, ok := env.Lookup(name); ok && typ.Kind != KindFunction {
		return diags, Unknown
	} else if ok && len(c.functions[name]) == 0 {
		return diags, typ.Return
	}
	sigs, ok := c.functions[name]
	if !ok {
		return diags, Unknown
	}
	if sig := selectSignature(sigs, args); sig != nil {
		return diags, sig.result
	}
	diags = append(diags, c.diag(call, "no overload of '%s' takes %d argument(s)", name, len(args)))
	return diags, Unknown
}

// acceptsArity treats a class without constructors as having the implicit
// zero-argument one.
func acceptsArity(ctors []int, n int) bool {
	if len(ctors) == 0 {
		return n == 0
	}
	for _, arity := range ctors {
		if arity == n {
			return true
		}
	}
	return false
}

// selectSignature uses the runtime policy: first arity-and-type match, then
// first arity match.
func selectSignature(sigs []*signature, args []*Type) *signature {
	var byArity *signature
	for _, sig := range sigs {
		if len(sig.params) != len(args) {
			continue
		}
		if byArity == nil {
			byArity = sig
		}
		matches := true
		for i, param := range sig.params {
			if !args[i].IsCompatibleWith(param) {
				matches = false
				break
			}
		}
		if matches {
			return sig
		}
	}
	return byArity
}

func (c *Checker) memberType(object *Type, member string) *Type {
	switch object.Kind {
	case KindArray:
		if member == "size" {
			return IntType
		}
		if member == "contentToString" {
			return StringType
		}
	case KindString:
		if member == "length" {
			return IntType
		}
	case KindClass:
		return c.fieldType(object.Class, member)
	}
	return Unknown
}

func (c *Checker) methodType(object *Type, method string) *Type {
	switch object.Kind {
	case KindArray:
		return arrayMethodResult(object, method)
	case KindString:
		return stringMethodResult(method)
	case KindClass:
		if info, ok := c.classes[object.Class]; ok {
			if sig, ok := info.methods[method]; ok {
				return sig.result
			}
		}
	}
	if method == "toString" {
		return StringType
	}
	return Unknown
}

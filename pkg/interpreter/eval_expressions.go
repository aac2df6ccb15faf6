package interpreter

import (
	"strings"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
)

// evaluateExpression is guarded by the depth counter: past the ceiling it
// logs and yields RecursionLimitValue instead of recursing further.
func (i *Interpreter) evaluateExpression(node ast.Expression, env *runtime.Environment) (runtime.Value, error) {
	i.depth++
	defer func() { i.depth-- }()
	if i.depth > i.opts.MaxDepth {
		i.logger.Warn("evaluation depth exceeded", "depth", i.depth, "limit", i.opts.MaxDepth, "line", node.Pos().Line)
		return runtime.StringValue{Val: RecursionLimitValue}, nil
	}

	switch n := node.(type) {
	case *ast.IntegerLiteral, *ast.FloatLiteral, *ast.StringLiteral, *ast.BooleanLiteral:
		val, _ := runtime.LiteralValue(n)
		return val, nil
	case *ast.StringInterpolation:
		return i.evaluateInterpolation(n, env)
	case *ast.ArrayLiteral:
		elements := make([]runtime.Value, 0, len(n.Elements))
		for _, el := range n.Elements {
			val, err := i.evaluateExpression(el, env)
			if err != nil {
				return nil, err
			}
			elements = append(elements, val)
		}
		return runtime.NewArray(elements), nil
	case *ast.Identifier:
		return i.evaluateIdentifier(n, env), nil
	case *ast.UnaryExpression:
		operand, err := i.evaluateExpression(n.Operand, env)
		if err != nil {
			return nil, err
		}
		val, err := runtime.UnaryOp(n.Operator, operand)
		return val, i.wrap(n, err)
	case *ast.BinaryExpression:
		return i.evaluateBinary(n, env)
	case *ast.AssignmentExpression:
		return i.evaluateAssignment(n, env)
	case *ast.FunctionCall:
		return i.evaluateCall(n, env)
	case *ast.MemberAccessExpression:
		return i.evaluateMemberAccess(n, env)
	case *ast.IndexExpression:
		return i.evaluateIndex(n, env)
	case *ast.LambdaExpression:
		return &runtime.LambdaValue{
			Params:  n.Params,
			Body:    n.Body,
			Closure: env,
			Program: i.program,
		}, nil
	default:
		return nil, i.errorAt(node, TypeMismatch, "unsupported expression type: %s", node.NodeType())
	}
}

func (i *Interpreter) evaluateInterpolation(n *ast.StringInterpolation, env *runtime.Environment) (runtime.Value, error) {
	var b strings.Builder
	for _, part := range n.Parts {
		val, err := i.evaluateExpression(part, env)
		if err != nil {
			return nil, err
		}
		b.WriteString(runtime.ToDisplayString(val))
	}
	return runtime.StringValue{Val: b.String()}, nil
}

// evaluateIdentifier never fails: a name that cannot be found evaluates to
// UndefinedValue.
func (i *Interpreter) evaluateIdentifier(id *ast.Identifier, env *runtime.Environment) runtime.Value {
	if id.Name == "args" {
		return i.args
	}
	if val, ok := i.lookup(id, env); ok {
		return val
	}
	i.logger.Debug("undefined identifier", "name", id.Name, "line", id.Pos().Line, "col", id.Pos().Column)
	return runtime.StringValue{Val: UndefinedValue}
}

// lookup reads a variable through scoped, then the scope chain by name, then
// a declared function.
func (i *Interpreter) lookup(id *ast.Identifier, env *runtime.Environment) (runtime.Value, bool) {
	if val, ok := i.scoped(id, env); ok {
		return val, true
	}
	if val, err := env.Get(id.Name); err == nil {
		return val, true
	}
	if defs := i.functions[id.Name]; len(defs) > 0 {
		def := defs[0]
		return &runtime.LambdaValue{
			Name:     def.Name,
			Params:   def.Params,
			Body:     def.Body,
			Closure:  def.Closure,
			Program:  def.Program,
			Function: def,
		}, true
	}
	return nil, false
}

// scoped reads id from a slot inside the current method, then a field of the
// current `this`, then a slot outside the method.
func (i *Interpreter) scoped(id *ast.Identifier, env *runtime.Environment) (runtime.Value, bool) {
	slot, resolved := i.program.Slot(id.ID())
	if resolved && !slot.Outer {
		if val, ok := env.GetAt(slot.Distance, slot.Index); ok {
			return val, true
		}
	}
	if id.Name != "this" {
		if inst := currentThis(env); inst != nil {
			if val, ok := inst.Fields[id.Name]; ok {
				return val, true
			}
		}
	}
	if resolved && slot.Outer {
		return env.GetAt(slot.Distance, slot.Index)
	}
	return nil, false
}

func currentThis(env *runtime.Environment) *runtime.ClassInstanceValue {
	val, err := env.Get("this")
	if err != nil {
		return nil
	}
	inst, _ := val.(*runtime.ClassInstanceValue)
	return inst
}

// evaluateBinary short-circuits && and || on a Boolean left operand and
// hands everything else to the shared operator table.
func (i *Interpreter) evaluateBinary(n *ast.BinaryExpression, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.evaluateExpression(n.Left, env)
	if err != nil {
		return nil, err
	}
	if lb, ok := left.(runtime.BoolValue); ok {
		if (n.Operator == "&&" && !lb.Val) || (n.Operator == "||" && lb.Val) {
			return lb, nil
		}
	}
	right, err := i.evaluateExpression(n.Right, env)
	if err != nil {
		return nil, err
	}
	val, err := runtime.BinaryOp(n.Operator, left, right)
	return val, i.wrap(n, err)
}

// evaluateAssignment stores into a variable or an instance field. An
// identifier that is not bound anywhere becomes a new variable in the
// current scope.
func (i *Interpreter) evaluateAssignment(n *ast.AssignmentExpression, env *runtime.Environment) (runtime.Value, error) {
	value, err := i.evaluateExpression(n.Value, env)
	if err != nil {
		return nil, err
	}
	switch target := n.Target.(type) {
	case *ast.Identifier:
		slot, resolved := i.program.Slot(target.ID())
		if resolved && !slot.Outer && env.AssignAt(slot.Distance, slot.Index, value) {
			return value, nil
		}
		if inst := currentThis(env); inst != nil {
			if _, ok := inst.Fields[target.Name]; ok {
				inst.Fields[target.Name] = value
				return value, nil
			}
		}
		if resolved && slot.Outer && env.AssignAt(slot.Distance, slot.Index, value) {
			return value, nil
		}
		if err := env.Assign(target.Name, value); err != nil {
			env.Define(target.Name, value)
		}
		return value, nil
	case *ast.MemberAccessExpression:
		object, err := i.evaluateExpression(target.Object, env)
		if err != nil {
			return nil, err
		}
		inst, ok := object.(*runtime.ClassInstanceValue)
		if !ok {
			return nil, i.errorAt(n, TypeMismatch, "Cannot assign to field '%s' of non-object %s", target.Member, runtime.TypeOf(object))
		}
		inst.Fields[target.Member] = value
		return value, nil
	default:
		return nil, i.errorAt(n, TypeMismatch, "Invalid assignment target")
	}
}

func (i *Interpreter) evaluateMemberAccess(n *ast.MemberAccessExpression, env *runtime.Environment) (runtime.Value, error) {
	object, err := i.evaluateExpression(n.Object, env)
	if err != nil {
		return nil, err
	}
	switch obj := object.(type) {
	case *runtime.ClassInstanceValue:
		if val, ok := obj.Fields[n.Member]; ok {
			return val, nil
		}
		return nil, i.errorAt(n, UndefinedVariable, "Undefined field '%s' on %s", n.Member, obj.ClassName)
	case *runtime.ArrayValue, runtime.StringValue:
		if val, ok, err := i.builtinProperty(obj, n.Member); ok {
			return val, i.wrap(n, err)
		}
	}
	return nil, i.errorAt(n, TypeMismatch, "Invalid member access '%s' on %s", n.Member, runtime.TypeOf(object))
}

func (i *Interpreter) evaluateIndex(n *ast.IndexExpression, env *runtime.Environment) (runtime.Value, error) {
	object, err := i.evaluateExpression(n.Object, env)
	if err != nil {
		return nil, err
	}
	index, err := i.evaluateExpression(n.Index, env)
	if err != nil {
		return nil, err
	}
	idx, ok := runtime.AsInt64(index)
	if !ok {
		return nil, i.errorAt(n.Index, TypeMismatch, "Array index must be an integer, got %s", runtime.TypeOf(index))
	}
	switch obj := object.(type) {
	case *runtime.ArrayValue:
		if idx < 0 || idx >= int64(obj.Len()) {
			return nil, i.errorAt(n, IndexOutOfBounds, "Array index out of bounds: %d (size %d)", idx, obj.Len())
		}
		val, err := obj.Get(int(idx))
		return val, i.wrap(n, err)
	case runtime.StringValue:
		runes := []rune(obj.Val)
		if idx < 0 || idx >= int64(len(runes)) {
			return nil, i.errorAt(n, IndexOutOfBounds, "String index out of bounds: %d (length %d)", idx, len(runes))
		}
		return runtime.StringValue{Val: string(runes[idx])}, nil
	}
	return nil, i.errorAt(n, TypeMismatch, "Invalid array access on %s", runtime.TypeOf(object))
}

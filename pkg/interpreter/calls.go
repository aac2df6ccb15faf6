package interpreter

import (
	"fmt"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
)

// evaluateCall dispatches a call. For a plain name the order is: builtin,
// class constructor, lambda bound in scope, declared function.
func (i *Interpreter) evaluateCall(call *ast.FunctionCall, env *runtime.Environment) (runtime.Value, error) {
	if member, ok := call.Callee.(*ast.MemberAccessExpression); ok {
		return i.evaluateMethodCall(call, member, env)
	}
	args, err := i.evaluateArguments(call.Arguments, env)
	if err != nil {
		return nil, err
	}

	id, ok := call.Callee.(*ast.Identifier)
	if !ok {
		callee, err := i.evaluateExpression(call.Callee, env)
		if err != nil {
			return nil, err
		}
		return i.callValue(callee, args, call)
	}

	if b, ok := builtins[id.Name]; ok {
		return i.callBuiltin(id.Name, b, args, call)
	}
	if val, ok := i.lookupCallable(id, env); ok {
		switch v := val.(type) {
		case *runtime.ClassDefinitionValue:
			return i.construct(v, args, call)
		case *runtime.LambdaValue:
			return i.callLambda(v, args, call)
		}
	}
	defs, ok := i.functions[id.Name]
	if !ok || len(defs) == 0 {
		return nil, i.errorAt(call, CallError, "Undefined function '%s'", id.Name)
	}
	def := selectOverload(defs, args)
	if def == nil {
		return nil, i.errorAt(call, CallError, "No overload of '%s' accepts %d argument(s)", id.Name, len(args))
	}
	return i.callFunction(def, args, nil, call)
}

// lookupCallable reads a callee from scope without falling back to the
// function registry, which the caller consults with overload resolution.
func (i *Interpreter) lookupCallable(id *ast.Identifier, env *runtime.Environment) (runtime.Value, bool) {
	if val, ok := i.scoped(id, env); ok {
		return val, true
	}
	val, err := env.Get(id.Name)
	return val, err == nil
}

func (i *Interpreter) evaluateArguments(exprs []ast.Expression, env *runtime.Environment) ([]runtime.Value, error) {
	args := make([]runtime.Value, 0, len(exprs))
	for _, expr := range exprs {
		val, err := i.evaluateExpression(expr, env)
		if err != nil {
			return nil, err
		}
		args = append(args, val)
	}
	return args, nil
}

// callValue invokes a callee that was computed by an expression.
func (i *Interpreter) callValue(callee runtime.Value, args []runtime.Value, call *ast.FunctionCall) (runtime.Value, error) {
	switch v := callee.(type) {
	case *runtime.LambdaValue:
		return i.callLambda(v, args, call)
	case *runtime.ClassDefinitionValue:
		return i.construct(v, args, call)
	}
	return nil, i.errorAt(call, CallError, "Attempt to call a non-function value of type %s", runtime.TypeOf(callee))
}

func (i *Interpreter) evaluateMethodCall(call *ast.FunctionCall, member *ast.MemberAccessExpression, env *runtime.Environment) (runtime.Value, error) {
	receiver, err := i.evaluateExpression(member.Object, env)
	if err != nil {
		return nil, err
	}
	args, err := i.evaluateArguments(call.Arguments, env)
	if err != nil {
		return nil, err
	}
	if inst, ok := receiver.(*runtime.ClassInstanceValue); ok {
		return i.invokeMethod(inst, member.Member, args, call)
	}
	return i.callBuiltinMethod(receiver, member.Member, args, call)
}

// invokeMethod looks at the instance's fields first, then at the methods of
// its own class. Superclass methods are not searched.
func (i *Interpreter) invokeMethod(inst *runtime.ClassInstanceValue, name string, args []runtime.Value, call *ast.FunctionCall) (runtime.Value, error) {
	if field, ok := inst.Fields[name]; ok {
		return i.callValue(field, args, call)
	}
	methods := inst.Definition.MethodsNamed(name)
	if len(methods) == 0 {
		if name == "toString" && len(args) == 0 {
			return runtime.StringValue{Val: runtime.ToDisplayString(inst)}, nil
		}
		return nil, i.errorAt(call, CallError, "Method '%s' not found on %s", name, inst.ClassName)
	}
	def := selectOverload(methods, args)
	if def == nil {
		return nil, i.errorAt(call, CallError, "No overload of '%s.%s' accepts %d argument(s)", inst.ClassName, name, len(args))
	}
	return i.callFunction(def, args, inst, call)
}

// enter pushes a call frame, swapping in the program the callee belongs to.
// The returned function undoes both.
func (i *Interpreter) enter(frame string, program *ast.Program, call ast.Node) (func(), error) {
	if len(i.frames) >= i.opts.MaxCallDepth {
		return nil, i.errorAt(call, IndexOutOfBounds, "Call stack overflow: more than %d nested calls", i.opts.MaxCallDepth)
	}
	if call != nil && !ast.IsNil(call) {
		frame = fmt.Sprintf("%s (%s:%d:%d)", frame, i.source, call.Pos().Line, call.Pos().Column)
	}
	i.frames = append(i.frames, frame)
	saved := i.program
	if program != nil {
		i.program = program
	}
	return func() {
		i.frames = i.frames[:len(i.frames)-1]
		i.program = saved
	}, nil
}

// callFunction runs a declared function or method. this is nil for plain
// functions; for methods it occupies slot 0 ahead of the parameters.
func (i *Interpreter) callFunction(def *runtime.FunctionDef, args []runtime.Value, this *runtime.ClassInstanceValue, call ast.Node) (runtime.Value, error) {
	frame := def.Name
	if this != nil {
		frame = this.ClassName + "." + def.Name
	}
	leave, err := i.enter(frame, def.Program, call)
	if err != nil {
		return nil, err
	}
	defer leave()

	env := runtime.NewEnvironment(def.Closure)
	if this != nil {
		env.DefineAt(0, "this", this)
	}
	for n, param := range def.Params {
		i.define(env, param, param.Name, args[n])
	}
	return i.runBody(def.Body, env, false)
}

// callLambda invokes a closure. A lambda written without parameters and
// called with a single argument sees it as `it`. Without an explicit return
// the lambda yields its last expression statement.
func (i *Interpreter) callLambda(lambda *runtime.LambdaValue, args []runtime.Value, call ast.Node) (runtime.Value, error) {
	if lambda.Function != nil {
		if lambda.Function.Arity() != len(args) {
			return nil, i.errorAt(call, CallError, "Function '%s' expects %d argument(s), got %d", lambda.Name, lambda.Function.Arity(), len(args))
		}
		return i.callFunction(lambda.Function, args, nil, call)
	}
	implicitIt := len(lambda.Params) == 0 && len(args) == 1
	if len(lambda.Params) != len(args) && !implicitIt {
		return nil, i.errorAt(call, CallError, "Lambda expects %d argument(s), got %d", len(lambda.Params), len(args))
	}
	leave, err := i.enter("<lambda>", lambda.Program, call)
	if err != nil {
		return nil, err
	}
	defer leave()

	env := runtime.NewEnvironment(lambda.Closure)
	if implicitIt {
		env.DefineAt(0, "it", args[0])
	}
	for n, param := range lambda.Params {
		i.define(env, param, param.Name, args[n])
	}
	return i.runBody(lambda.Body, env, true)
}

func (i *Interpreter) runBody(body *ast.BlockStatement, env *runtime.Environment, yieldsLast bool) (runtime.Value, error) {
	if body == nil {
		return runtime.Void(), nil
	}
	scope := runtime.NewEnvironment(env)
	last := runtime.Void()
	for _, stmt := range body.Statements {
		outcome, err := i.executeStatement(stmt, scope)
		if err != nil {
			return nil, err
		}
		if outcome.Kind == Return {
			if outcome.Value == nil {
				return runtime.Void(), nil
			}
			return outcome.Value, nil
		}
		if outcome.interrupted() {
			break
		}
		if _, ok := stmt.(ast.Expression); ok && yieldsLast {
			last = outcome.Value
		}
	}
	return last, nil
}

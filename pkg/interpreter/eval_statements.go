package interpreter

import (
	"errors"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
)

func (i *Interpreter) executeStatement(node ast.Statement, env *runtime.Environment) (Outcome, error) {
	if node == nil || ast.IsNil(node) {
		return normal(runtime.Void()), nil
	}
	switch n := node.(type) {
	case ast.Expression:
		val, err := i.evaluateExpression(n, env)
		if err != nil {
			return Outcome{}, err
		}
		return normal(val), nil
	case *ast.VariableDeclaration:
		return i.executeVariableDeclaration(n, env)
	case *ast.FunctionDeclaration:
		i.registerFunction(runtime.NewFunctionDef(n, env, i.program))
		return normal(runtime.Void()), nil
	case *ast.ClassDeclaration:
		return i.executeClassDeclaration(n, env)
	case *ast.BlockStatement:
		return i.executeBlock(n, env)
	case *ast.IfStatement:
		return i.executeIf(n, env)
	case *ast.WhileStatement:
		return i.executeWhile(n, env)
	case *ast.ForStatement:
		return i.executeFor(n, env)
	case *ast.WhenStatement:
		return i.executeWhen(n, env)
	case *ast.TryStatement:
		return i.executeTry(n, env)
	case *ast.ReturnStatement:
		val := runtime.Void()
		if n.Value != nil {
			var err error
			if val, err = i.evaluateExpression(n.Value, env); err != nil {
				return Outcome{}, err
			}
		}
		return Outcome{Kind: Return, Value: val}, nil
	case *ast.BreakStatement:
		return Outcome{Kind: Break}, nil
	case *ast.ContinueStatement:
		return Outcome{Kind: Continue}, nil
	default:
		return Outcome{}, i.errorAt(node, TypeMismatch, "unsupported statement type: %s", node.NodeType())
	}
}

// define binds name in env at the slot the resolver gave node, or by name for
// globals.
func (i *Interpreter) define(env *runtime.Environment, node ast.Node, name string, value runtime.Value) {
	if slot, ok := i.program.Slot(node.ID()); ok {
		env.DefineAt(slot.Index, name, value)
		return
	}
	env.Define(name, value)
}

func (i *Interpreter) executeVariableDeclaration(decl *ast.VariableDeclaration, env *runtime.Environment) (Outcome, error) {
	var value runtime.Value
	if decl.Initializer != nil {
		var err error
		if value, err = i.evaluateExpression(decl.Initializer, env); err != nil {
			return Outcome{}, err
		}
	} else {
		value = zeroValue(decl.TypeAnnotation, runtime.Void())
	}
	i.define(env, decl, decl.Name, value)
	return normal(runtime.Void()), nil
}

func (i *Interpreter) executeBlock(block *ast.BlockStatement, env *runtime.Environment) (Outcome, error) {
	if block == nil {
		return normal(runtime.Void()), nil
	}
	scope := runtime.NewEnvironment(env)
	for _, stmt := range block.Statements {
		outcome, err := i.executeStatement(stmt, scope)
		if err != nil || outcome.interrupted() {
			return outcome, err
		}
	}
	return normal(runtime.Void()), nil
}

func (i *Interpreter) executeIf(stmt *ast.IfStatement, env *runtime.Environment) (Outcome, error) {
	cond, err := i.evaluateExpression(stmt.Condition, env)
	if err != nil {
		return Outcome{}, err
	}
	if runtime.Truthy(cond) {
		return i.executeStatement(stmt.Then, env)
	}
	if stmt.Else != nil {
		return i.executeStatement(stmt.Else, env)
	}
	return normal(runtime.Void()), nil
}

func (i *Interpreter) executeWhile(loop *ast.WhileStatement, env *runtime.Environment) (Outcome, error) {
	for {
		cond, err := i.evaluateExpression(loop.Condition, env)
		if err != nil {
			return Outcome{}, err
		}
		if !runtime.Truthy(cond) {
			return normal(runtime.Void()), nil
		}
		outcome, err := i.executeStatement(loop.Body, env)
		if err != nil {
			return Outcome{}, err
		}
		switch outcome.Kind {
		case Break:
			return normal(runtime.Void()), nil
		case Return:
			return outcome, nil
		}
	}
}

// executeFor iterates a snapshot of an array, binding the loop variable in a
// fresh scope per iteration. Anything else is not iterable and the loop does
// nothing.
func (i *Interpreter) executeFor(loop *ast.ForStatement, env *runtime.Environment) (Outcome, error) {
	iterable, err := i.evaluateExpression(loop.Iterable, env)
	if err != nil {
		return Outcome{}, err
	}
	array, ok := iterable.(*runtime.ArrayValue)
	if !ok {
		i.logger.Debug("for loop over non-array skipped", "type", runtime.TypeOf(iterable), "line", loop.Pos().Line)
		return normal(runtime.Void()), nil
	}
	elements := append([]runtime.Value(nil), array.Elements...)
	for _, element := range elements {
		scope := runtime.NewEnvironment(env)
		i.define(scope, loop, loop.Variable, element)
		outcome, err := i.executeStatement(loop.Body, scope)
		if err != nil {
			return Outcome{}, err
		}
		switch outcome.Kind {
		case Break:
			return normal(runtime.Void()), nil
		case Return:
			return outcome, nil
		}
	}
	return normal(runtime.Void()), nil
}

// executeWhen evaluates the subject once and runs the first branch with a
// pattern equal to it. There is no fallthrough.
func (i *Interpreter) executeWhen(stmt *ast.WhenStatement, env *runtime.Environment) (Outcome, error) {
	subject, err := i.evaluateExpression(stmt.Subject, env)
	if err != nil {
		return Outcome{}, err
	}
	for _, branch := range stmt.Branches {
		for _, pattern := range branch.Patterns {
			candidate, err := i.evaluateExpression(pattern, env)
			if err != nil {
				return Outcome{}, err
			}
			if runtime.Equals(subject, candidate) {
				return i.executeStatement(branch.Body, env)
			}
		}
	}
	if stmt.Else != nil {
		return i.executeStatement(stmt.Else, env)
	}
	return normal(runtime.Void()), nil
}

// executeTry runs the body, hands any failure to the catch block as its
// message, and always runs finally exactly once. Return, break and continue
// pass through untouched; exit requests are never caught.
func (i *Interpreter) executeTry(stmt *ast.TryStatement, env *runtime.Environment) (outcome Outcome, err error) {
	if stmt.Finally != nil {
		defer func() {
			finOutcome, finErr := i.executeBlock(stmt.Finally, env)
			switch {
			case finErr != nil:
				outcome, err = Outcome{}, finErr
			case finOutcome.interrupted():
				outcome, err = finOutcome, nil
			}
		}()
	}

	outcome, err = i.executeBlock(stmt.Body, env)
	if err == nil || stmt.Catch == nil {
		return outcome, err
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return outcome, err
	}

	scope := runtime.NewEnvironment(env)
	if stmt.CatchVar != "" {
		i.define(scope, stmt, stmt.CatchVar, runtime.StringValue{Val: catchMessage(err)})
	}
	return i.executeBlock(stmt.Catch, scope)
}

func (i *Interpreter) executeClassDeclaration(decl *ast.ClassDeclaration, env *runtime.Environment) (Outcome, error) {
	def := &runtime.ClassDefinitionValue{
		Name:         decl.Name,
		Fields:       decl.Fields,
		Initializers: decl.Initializers,
		Closure:      env,
		Program:      i.program,
	}
	if decl.SuperClass != "" {
		super, err := env.Get(decl.SuperClass)
		if err != nil {
			return Outcome{}, i.errorAt(decl, UndefinedVariable, "Unknown superclass '%s' for class '%s'", decl.SuperClass, decl.Name)
		}
		superDef, ok := super.(*runtime.ClassDefinitionValue)
		if !ok {
			return Outcome{}, i.errorAt(decl, TypeMismatch, "'%s' is not a class", decl.SuperClass)
		}
		def.Superclass = superDef
	}
	for _, ctor := range decl.Constructors {
		def.Constructors = append(def.Constructors, &runtime.ConstructorDef{
			Params: ctor.Params,
			Body:   ctor.Body,
			Decl:   ctor.ID(),
		})
	}
	for _, method := range decl.Methods {
		def.Methods = append(def.Methods, runtime.NewFunctionDef(method, env, i.program))
	}
	i.define(env, decl, decl.Name, def)
	return normal(runtime.Void()), nil
}

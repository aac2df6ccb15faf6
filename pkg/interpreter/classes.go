package interpreter

import (
	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
)

// construct creates an instance of def. Field initializers run first, from
// the root superclass down, each in the environment its class was declared
// in; then the constructor chosen by arity; then init blocks.
func (i *Interpreter) construct(def *runtime.ClassDefinitionValue, args []runtime.Value, call ast.Node) (runtime.Value, error) {
	ctor, ok := selectConstructor(def, len(args))
	if !ok {
		return nil, i.errorAt(call, CallError, "No constructor of '%s' accepts %d argument(s)", def.Name, len(args))
	}
	leave, err := i.enter(def.Name+".<init>", def.Program, call)
	if err != nil {
		return nil, err
	}
	defer leave()

	inst := runtime.NewInstance(def)
	for _, class := range lineage(def) {
		if err := i.initializeFields(class, inst); err != nil {
			return nil, err
		}
	}
	if ctor != nil {
		env := runtime.NewEnvironment(def.Closure)
		env.DefineAt(0, "this", inst)
		for n, param := range ctor.Params {
			i.define(env, param, param.Name, args[n])
		}
		if _, err := i.runBody(ctor.Body, env, false); err != nil {
			return nil, err
		}
	}
	for _, class := range lineage(def) {
		for _, init := range class.Initializers {
			env := runtime.NewEnvironment(class.Closure)
			env.DefineAt(0, "this", inst)
			if err := i.withProgram(class.Program, func() error {
				_, err := i.runBody(init, env, false)
				return err
			}); err != nil {
				return nil, err
			}
		}
	}
	return inst, nil
}

// lineage lists def and its superclasses, root first.
func lineage(def *runtime.ClassDefinitionValue) []*runtime.ClassDefinitionValue {
	var chain []*runtime.ClassDefinitionValue
	seen := make(map[*runtime.ClassDefinitionValue]bool)
	for c := def; c != nil && !seen[c]; c = c.Superclass {
		seen[c] = true
		chain = append([]*runtime.ClassDefinitionValue{c}, chain...)
	}
	return chain
}

func (i *Interpreter) initializeFields(class *runtime.ClassDefinitionValue, inst *runtime.ClassInstanceValue) error {
	return i.withProgram(class.Program, func() error {
		for _, field := range class.Fields {
			if field.Initializer == nil {
				inst.Fields[field.Name] = zeroValue(field.TypeAnnotation, runtime.Void())
				continue
			}
			val, err := i.evaluateExpression(field.Initializer, class.Closure)
			if err != nil {
				return err
			}
			inst.Fields[field.Name] = val
		}
		return nil
	})
}

func (i *Interpreter) withProgram(program *ast.Program, fn func() error) error {
	saved := i.program
	if program != nil {
		i.program = program
	}
	defer func() { i.program = saved }()
	return fn()
}

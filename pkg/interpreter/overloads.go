package interpreter

import (
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
)

// registerFunction adds def to its overload set in declaration order.
// Re-running the same declaration (a nested function in a body executed
// again) refreshes the closure instead of adding a duplicate.
func (i *Interpreter) registerFunction(def *runtime.FunctionDef) {
	defs := i.functions[def.Name]
	for n, existing := range defs {
		if existing.Program == def.Program && existing.Decl == def.Decl {
			defs[n] = def
			return
		}
	}
	i.functions[def.Name] = append(defs, def)
}

// selectOverload is the one overload policy used for every call: the first
// candidate whose arity matches and whose annotated parameter types accept
// the arguments, otherwise the first candidate whose arity matches.
func selectOverload(candidates []*runtime.FunctionDef, args []runtime.Value) *runtime.FunctionDef {
	var byArity *runtime.FunctionDef
	for _, def := range candidates {
		if def.Arity() != len(args) {
			continue
		}
		if paramsAccept(def, args) {
			return def
		}
		if byArity == nil {
			byArity = def
		}
	}
	return byArity
}

func paramsAccept(def *runtime.FunctionDef, args []runtime.Value) bool {
	for n, param := range def.Params {
		if param.Type == nil {
			continue
		}
		if !runtime.Accepts(param.Type.Name, args[n]) {
			return false
		}
	}
	return true
}

// selectConstructor matches by arity only. A class without constructors has
// an implicit one taking no arguments, reported as ok with a nil result.
func selectConstructor(def *runtime.ClassDefinitionValue, argc int) (*runtime.ConstructorDef, bool) {
	if len(def.Constructors) == 0 {
		return nil, argc == 0
	}
	for _, ctor := range def.Constructors {
		if ctor.Arity() == argc {
			return ctor, true
		}
	}
	return nil, false
}

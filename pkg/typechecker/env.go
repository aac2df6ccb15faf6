package typechecker

// TypeEnvironment is the checker's lexical scope. It mirrors the runtime
// environment chain but binds names to types.
type TypeEnvironment struct {
	parent  *TypeEnvironment
	symbols map[string]*Type
}

// NewTypeEnvironment creates a new environment with an optional parent.
func NewTypeEnvironment(parent *TypeEnvironment) *TypeEnvironment {
	return &TypeEnvironment{
		parent:  parent,
		symbols: make(map[string]*Type),
	}
}

// Define binds a name to a type in the current scope.
func (e *TypeEnvironment) Define(name string, typ *Type) {
	e.symbols[name] = typ
}

// Lookup searches for a name in the current scope chain.
func (e *TypeEnvironment) Lookup(name string) (*Type, bool) {
	for env := e; env != nil; env = env.parent {
		if typ, ok := env.symbols[name]; ok {
			return typ, true
		}
	}
	return nil, false
}

// Extend returns a child environment.
func (e *TypeEnvironment) Extend() *TypeEnvironment {
	return NewTypeEnvironment(e)
}

package runtime

import (
	"fmt"
)

type binding struct {
	name  string
	value Value
}

// Environment provides lexical scoping for Dotlin runtime values. Bindings are
// reachable both by name and by the slot index the resolver assigned them.
type Environment struct {
	values map[string]*binding
	order  []*binding
	slots  []*binding
	parent *Environment
}

// NewEnvironment creates a scope nested under parent, or a global scope when
// parent is nil. Blocks, calls and loop iterations all use it; the resolver
// tracks which kind of scope each one is.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]*binding),
		parent: parent,
	}
}

// Define inserts or shadows a binding in the current scope.
func (e *Environment) Define(name string, value Value) {
	if b, ok := e.values[name]; ok {
		b.value = value
		return
	}
	b := &binding{name: name, value: value}
	e.values[name] = b
	e.order = append(e.order, b)
}

// DefineAt binds name in the current scope and records it under index.
// A second definition at the same index replaces the first.
func (e *Environment) DefineAt(index int, name string, value Value) {
	if index < 0 {
		e.Define(name, value)
		return
	}
	for index >= len(e.slots) {
		e.slots = append(e.slots, nil)
	}
	b := &binding{name: name, value: value}
	e.slots[index] = b
	e.values[name] = b
	e.order = append(e.order, b)
}

// Assign updates an existing binding in the first scope where it appears.
func (e *Environment) Assign(name string, value Value) error {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.values[name]; ok {
			b.value = value
			return nil
		}
	}
	return &UndefinedError{Name: name}
}

// Get retrieves a binding, searching outward through the scope chain.
func (e *Environment) Get(name string) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.values[name]; ok {
			return b.value, nil
		}
	}
	return nil, &UndefinedError{Name: name}
}

// Ancestor walks up exactly distance parents. It returns nil when the chain is
// shorter than that.
func (e *Environment) Ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance && env != nil; i++ {
		env = env.parent
	}
	return env
}

// GetAt reads the binding stored at index in the scope distance levels up.
// ok is false when that slot has not been defined yet.
func (e *Environment) GetAt(distance, index int) (Value, bool) {
	b := e.slotAt(distance, index)
	if b == nil {
		return nil, false
	}
	return b.value, true
}

// AssignAt stores value into an existing slot.
func (e *Environment) AssignAt(distance, index int, value Value) bool {
	b := e.slotAt(distance, index)
	if b == nil {
		return false
	}
	b.value = value
	return true
}

func (e *Environment) slotAt(distance, index int) *binding {
	env := e.Ancestor(distance)
	if env == nil || index < 0 || index >= len(env.slots) {
		return nil
	}
	return env.slots[index]
}

// Names returns the bindings of this scope in definition order.
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.values))
	for _, b := range e.order {
		if e.values[b.name] == b {
			names = append(names, b.name)
		}
	}
	return names
}

// UndefinedError reports a failed lookup or assignment by name.
type UndefinedError struct {
	Name string
}

func (u *UndefinedError) Error() string {
	return fmt.Sprintf("Undefined variable '%s'", u.Name)
}

func (u *UndefinedError) Unwrap() error {
	return ErrUndefinedVariable
}

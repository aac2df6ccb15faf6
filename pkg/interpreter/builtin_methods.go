package interpreter

import (
	"fmt"
	"strings"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
)

// method is a builtin bound to a receiver. The receiver is passed as args[0];
// min and max count the remaining arguments.
type method struct {
	min, max int
	fn       builtinFunc
}

var (
	stringMethods map[string]method
	arrayMethods  map[string]method
	numberMethods map[string]method
)

func init() {
	stringMethods = map[string]method{
		"length":      {0, 0, builtinLength},
		"substring":   {1, 2, builtinSubstring},
		"indexOf":     {1, 1, builtinIndexOf},
		"startsWith":  {1, 1, builtinStartsWith},
		"endsWith":    {1, 1, builtinEndsWith},
		"contains":    {1, 1, builtinContains},
		"toUpperCase": {0, 0, stringFunc("toUpperCase", strings.ToUpper)},
		"toLowerCase": {0, 0, stringFunc("toLowerCase", strings.ToLower)},
		"trim":        {0, 0, stringFunc("trim", strings.TrimSpace)},
		"split":       {1, 1, builtinSplit},
		"isEmpty":     {0, 0, isEmpty},
		"toInt":       {0, 0, builtinToInt},
		"toDouble":    {0, 0, builtinToDouble},
	}
	arrayMethods = map[string]method{
		"size":            {0, 0, builtinLength},
		"contentToString": {0, 0, contentToString},
		"add":             {1, 2, arrayAdd},
		"get":             {1, 1, arrayGet},
		"set":             {2, 2, arraySet},
		"removeAt":        {1, 1, arrayRemoveAt},
		"indexOf":         {1, 1, builtinIndexOf},
		"contains":        {1, 1, arrayContains},
		"isEmpty":         {0, 0, isEmpty},
	}
	numberMethods = map[string]method{
		"toInt":    {0, 0, builtinToInt},
		"toDouble": {0, 0, builtinToDouble},
	}
}

// callBuiltinMethod handles a method call on a value that is not a class
// instance. toString works on every receiver.
func (i *Interpreter) callBuiltinMethod(receiver runtime.Value, name string, args []runtime.Value, call *ast.FunctionCall) (runtime.Value, error) {
	if name == "toString" && len(args) == 0 {
		return runtime.StringValue{Val: runtime.ToDisplayString(receiver)}, nil
	}
	var table map[string]method
	var typeName string
	switch receiver.(type) {
	case runtime.StringValue:
		table, typeName = stringMethods, "String"
	case *runtime.ArrayValue:
		table, typeName = arrayMethods, "Array"
	case runtime.Int32Value, runtime.Int64Value, runtime.Float64Value:
		table, typeName = numberMethods, "Number"
	}
	m, ok := table[name]
	if !ok {
		return nil, i.errorAt(call, UnknownBuiltin, "Unknown method '%s' on %s", name, runtime.TypeOf(receiver))
	}
	if err := checkArity(fmt.Sprintf("%s.%s()", typeName, name), m.min, m.max, len(args)); err != nil {
		return nil, i.wrap(call, err)
	}
	val, err := m.fn(i, append([]runtime.Value{receiver}, args...))
	if err != nil {
		return nil, i.wrap(call, err)
	}
	return val, nil
}

// builtinProperty reads the properties that work without parentheses:
// size and contentToString on arrays, length on strings.
func (i *Interpreter) builtinProperty(obj runtime.Value, name string) (runtime.Value, bool, error) {
	switch obj.(type) {
	case *runtime.ArrayValue:
		if name != "size" && name != "length" && name != "contentToString" {
			return nil, false, nil
		}
		if name == "contentToString" {
			val, err := contentToString(i, []runtime.Value{obj})
			return val, true, err
		}
	case runtime.StringValue:
		if name != "length" {
			return nil, false, nil
		}
	default:
		return nil, false, nil
	}
	val, err := builtinLength(i, []runtime.Value{obj})
	return val, true, err
}

func isEmpty(i *Interpreter, args []runtime.Value) (runtime.Value, error) {
	n, err := builtinLength(i, args[:1])
	if err != nil {
		return nil, err
	}
	return runtime.BoolValue{Val: n.(runtime.Int32Value).Val == 0}, nil
}

func contentToString(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	return runtime.StringValue{Val: runtime.ToDisplayString(args[0])}, nil
}

// arrayAdd appends one element, or inserts at an index when given two.
func arrayAdd(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	arr := args[0].(*runtime.ArrayValue)
	if len(args) == 2 {
		arr.Append(args[1])
		return runtime.Void(), nil
	}
	idx, err := integer("add", args[1])
	if err != nil {
		return nil, err
	}
	return runtime.Void(), arr.Insert(idx, args[2])
}

func arrayGet(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	idx, err := integer("get", args[1])
	if err != nil {
		return nil, err
	}
	return args[0].(*runtime.ArrayValue).Get(idx)
}

func arraySet(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	idx, err := integer("set", args[1])
	if err != nil {
		return nil, err
	}
	return runtime.Void(), args[0].(*runtime.ArrayValue).Set(idx, args[2])
}

func arrayRemoveAt(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	idx, err := integer("removeAt", args[1])
	if err != nil {
		return nil, err
	}
	return args[0].(*runtime.ArrayValue).RemoveAt(idx)
}

func arrayContains(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	for _, el := range args[0].(*runtime.ArrayValue).Elements {
		if runtime.Equals(el, args[1]) {
			return runtime.BoolValue{Val: true}, nil
		}
	}
	return runtime.BoolValue{Val: false}, nil
}

package typechecker

// builtinResults maps builtin function names to the type they produce.
// Builtins are checked for arity at runtime; the checker only needs their
// result to keep inference going.
var builtinResults = map[string]*Type{
	"println":        Void,
	"print":          Void,
	"printf":         Void,
	"readln":         StringType,
	"readLine":       StringType,
	"format":         StringType,
	"toString":       StringType,
	"toInt":          IntType,
	"toDouble":       DoubleType,
	"sqrt":           DoubleType,
	"pow":            DoubleType,
	"sin":            DoubleType,
	"cos":            DoubleType,
	"tan":            DoubleType,
	"random":         DoubleType,
	"round":          DoubleType,
	"ceil":           DoubleType,
	"floor":          DoubleType,
	"abs":            Unknown,
	"min":            Unknown,
	"max":            Unknown,
	"clock":          LongType,
	"exit":           Void,
	"throw":          Void,
	"isString":       BoolType,
	"isInt":          BoolType,
	"isBoolean":      BoolType,
	"isArray":        BoolType,
	"substring":      StringType,
	"indexOf":        IntType,
	"startsWith":     BoolType,
	"endsWith":       BoolType,
	"toUpperCase":    StringType,
	"toLowerCase":    StringType,
	"trim":           StringType,
	"split":          ArrayOf(StringType),
	"length":         IntType,
	"arrayOf":        ArrayOf(Unknown),
	"intArrayOf":     ArrayOf(IntType),
	"doubleArrayOf":  ArrayOf(DoubleType),
	"stringArrayOf":  ArrayOf(StringType),
	"booleanArrayOf": ArrayOf(BoolType),
}

// numericResult covers abs/min/max, whose result follows their arguments.
func numericResult(args []*Type) *Type {
	result := Unknown
	for _, arg := range args {
		if !arg.IsNumeric() {
			return Unknown
		}
		result = widen(result, arg)
	}
	return result
}

func stringMethodResult(name string) *Type {
	switch name {
	case "length", "indexOf":
		return IntType
	case "substring", "toUpperCase", "toLowerCase", "trim", "toString":
		return StringType
	case "startsWith", "endsWith", "contains", "isEmpty":
		return BoolType
	case "toInt":
		return IntType
	case "toDouble":
		return DoubleType
	case "split":
		return ArrayOf(StringType)
	}
	return Unknown
}

func arrayMethodResult(array *Type, name string) *Type {
	switch name {
	case "size", "indexOf":
		return IntType
	case "contentToString", "toString":
		return StringType
	case "get", "removeAt":
		return array.Element
	case "contains", "isEmpty":
		return BoolType
	case "add", "set":
		return Void
	}
	return Unknown
}

package interpreter

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
	"github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"
)

type builtinFunc func(i *Interpreter, args []runtime.Value) (runtime.Value, error)

// builtin is a native function with a fixed arity range. max < 0 means
// variadic.
type builtin struct {
	min, max int
	fn       builtinFunc
}

var builtins map[string]builtin

func init() {
	builtins = map[string]builtin{
		"println":        {0, -1, builtinPrintln},
		"print":          {0, -1, builtinPrint},
		"readln":         {0, 0, builtinReadln},
		"readLine":       {0, 1, builtinReadLine},
		"printf":         {1, -1, builtinPrintf},
		"format":         {1, -1, builtinFormat},
		"sqrt":           {1, 1, builtinSqrt},
		"abs":            {1, 1, builtinAbs},
		"pow":            {2, 2, builtinPow},
		"sin":            {1, 1, mathFunc("sin", math.Sin)},
		"cos":            {1, 1, mathFunc("cos", math.Cos)},
		"tan":            {1, 1, mathFunc("tan", math.Tan)},
		"round":          {1, 1, mathFunc("round", math.Round)},
		"ceil":           {1, 1, mathFunc("ceil", math.Ceil)},
		"floor":          {1, 1, mathFunc("floor", math.Floor)},
		"min":            {2, 2, extremum("min", "<")},
		"max":            {2, 2, extremum("max", ">")},
		"random":         {0, 0, builtinRandom},
		"length":         {1, 1, builtinLength},
		"substring":      {2, 3, builtinSubstring},
		"indexOf":        {2, 2, builtinIndexOf},
		"startsWith":     {2, 2, builtinStartsWith},
		"endsWith":       {2, 2, builtinEndsWith},
		"toUpperCase":    {1, 1, stringFunc("toUpperCase", strings.ToUpper)},
		"toLowerCase":    {1, 1, stringFunc("toLowerCase", strings.ToLower)},
		"trim":           {1, 1, stringFunc("trim", strings.TrimSpace)},
		"split":          {2, 2, builtinSplit},
		"arrayOf":        {0, -1, builtinArrayOf},
		"intArrayOf":     {0, -1, typedArrayOf("intArrayOf", "Int", intElement)},
		"doubleArrayOf":  {0, -1, typedArrayOf("doubleArrayOf", "Double", doubleElement)},
		"stringArrayOf":  {0, -1, typedArrayOf("stringArrayOf", "String", stringElement)},
		"booleanArrayOf": {0, -1, typedArrayOf("booleanArrayOf", "Boolean", boolElement)},
		"toInt":          {1, 1, builtinToInt},
		"toDouble":       {1, 1, builtinToDouble},
		"toString":       {1, 1, builtinToString},
		"isString":       {1, 1, kindPredicate(runtime.KindString)},
		"isInt":          {1, 1, kindPredicate(runtime.KindInt32, runtime.KindInt64)},
		"isBoolean":      {1, 1, kindPredicate(runtime.KindBool)},
		"isArray":        {1, 1, kindPredicate(runtime.KindArray)},
		"exit":           {1, 1, builtinExit},
		"clock":          {0, 0, builtinClock},
		"throw":          {1, 1, builtinThrow},
	}
}

func (i *Interpreter) callBuiltin(name string, b builtin, args []runtime.Value, call ast.Node) (runtime.Value, error) {
	if err := checkArity(name+"()", b.min, b.max, len(args)); err != nil {
		return nil, i.wrap(call, err)
	}
	val, err := b.fn(i, args)
	if err != nil {
		return nil, i.wrap(call, err)
	}
	return val, nil
}

func checkArity(name string, min, max, got int) error {
	if got >= min && (max < 0 || got <= max) {
		return nil
	}
	switch {
	case max < 0:
		return argErrorf("%s expects at least %s", name, plural(min, "argument"))
	case min == max && min == 0:
		return argErrorf("%s expects no arguments", name)
	case min == max:
		return argErrorf("%s expects exactly %s", name, plural(min, "argument"))
	case min == 0:
		return argErrorf("%s expects at most %s", name, plural(max, "argument"))
	default:
		return argErrorf("%s expects %d to %d arguments", name, min, max)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// I/O

func joinDisplay(args []runtime.Value, sep string) string {
	parts := make([]string, len(args))
	for n, arg := range args {
		parts[n] = runtime.ToDisplayString(arg)
	}
	return strings.Join(parts, sep)
}

func builtinPrintln(i *Interpreter, args []runtime.Value) (runtime.Value, error) {
	_, err := fmt.Fprintln(i.out, joinDisplay(args, " "))
	return runtime.Void(), err
}

func builtinPrint(i *Interpreter, args []runtime.Value) (runtime.Value, error) {
	_, err := io.WriteString(i.out, joinDisplay(args, ""))
	return runtime.Void(), err
}

func builtinReadln(i *Interpreter, _ []runtime.Value) (runtime.Value, error) {
	return i.readLine()
}

func builtinReadLine(i *Interpreter, args []runtime.Value) (runtime.Value, error) {
	if len(args) == 1 {
		if _, err := io.WriteString(i.out, runtime.ToDisplayString(args[0])); err != nil {
			return nil, err
		}
	}
	return i.readLine()
}

// readLine returns the next input line without its terminator. End of input
// reads as an empty string.
func (i *Interpreter) readLine() (runtime.Value, error) {
	line, err := i.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return runtime.StringValue{Val: strings.TrimRight(line, "\r\n")}, nil
}

func builtinPrintf(i *Interpreter, args []runtime.Value) (runtime.Value, error) {
	_, err := io.WriteString(i.out, formatString(args))
	return runtime.Void(), err
}

func builtinFormat(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	return runtime.StringValue{Val: formatString(args)}, nil
}

// formatString substitutes %s, %d, %i and %f (optionally %.Nf) with the
// remaining arguments in order; %% is a literal percent sign. Placeholders
// without a matching argument are left as written.
func formatString(args []runtime.Value) string {
	format := runtime.ToDisplayString(args[0])
	rest := args[1:]
	var b strings.Builder
	for n := 0; n < len(format); n++ {
		c := format[n]
		if c != '%' || n+1 >= len(format) {
			b.WriteByte(c)
			continue
		}
		if format[n+1] == '%' {
			b.WriteByte('%')
			n++
			continue
		}
		verb, precision, width := parseVerb(format[n+1:])
		if verb == 0 || len(rest) == 0 {
			b.WriteByte(c)
			continue
		}
		arg := rest[0]
		rest = rest[1:]
		if verb == 'f' && precision >= 0 {
			if f, ok := runtime.AsFloat64(arg); ok {
				b.WriteString(strconv.FormatFloat(f, 'f', precision, 64))
				n += width
				continue
			}
		}
		b.WriteString(runtime.ToDisplayString(arg))
		n += width
	}
	return b.String()
}

// parseVerb reads "s", "d", "i", "f" or ".Nf" at the start of s. width is
// the number of bytes consumed.
func parseVerb(s string) (verb byte, precision, width int) {
	precision = -1
	if s == "" {
		return 0, precision, 0
	}
	switch s[0] {
	case 's', 'd', 'i', 'f':
		return s[0], precision, 1
	case '.':
		end := 1
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if end == 1 || end >= len(s) || s[end] != 'f' {
			return 0, precision, 0
		}
		p, _ := strconv.Atoi(s[1:end])
		return 'f', p, end + 1
	}
	return 0, precision, 0
}

// Math

func number(name string, v runtime.Value) (float64, error) {
	f, ok := runtime.AsFloat64(v)
	if !ok {
		return 0, argErrorf("%s() expects a number, got %s", name, runtime.TypeOf(v))
	}
	return f, nil
}

func builtinSqrt(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	f, err := number("sqrt", args[0])
	if err != nil {
		return nil, err
	}
	if f < 0 {
		return nil, argErrorf("sqrt() cannot take negative numbers")
	}
	return runtime.Float64Value{Val: math.Sqrt(f)}, nil
}

func builtinAbs(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	switch n := args[0].(type) {
	case runtime.Int32Value:
		if n.Val < 0 {
			return runtime.Int32Value{Val: -n.Val}, nil
		}
		return n, nil
	case runtime.Int64Value:
		if n.Val < 0 {
			return runtime.Int64Value{Val: -n.Val}, nil
		}
		return n, nil
	case runtime.Float64Value:
		return runtime.Float64Value{Val: math.Abs(n.Val)}, nil
	}
	return nil, argErrorf("abs() expects a number, got %s", runtime.TypeOf(args[0]))
}

func builtinPow(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	base, err := number("pow", args[0])
	if err != nil {
		return nil, err
	}
	exp, err := number("pow", args[1])
	if err != nil {
		return nil, err
	}
	return runtime.Float64Value{Val: math.Pow(base, exp)}, nil
}

func mathFunc(name string, fn func(float64) float64) builtinFunc {
	return func(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
		f, err := number(name, args[0])
		if err != nil {
			return nil, err
		}
		return runtime.Float64Value{Val: fn(f)}, nil
	}
}

// extremum keeps the winning argument's own numeric type.
func extremum(name, op string) builtinFunc {
	return func(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
		if !runtime.IsNumeric(args[0]) || !runtime.IsNumeric(args[1]) {
			return nil, argErrorf("%s() expects numbers, got %s and %s", name, runtime.TypeOf(args[0]), runtime.TypeOf(args[1]))
		}
		better, err := runtime.BinaryOp(op, args[1], args[0])
		if err != nil {
			return nil, err
		}
		if better.(runtime.BoolValue).Val {
			return args[1], nil
		}
		return args[0], nil
	}
}

func builtinRandom(_ *Interpreter, _ []runtime.Value) (runtime.Value, error) {
	return runtime.Float64Value{Val: rand.Float64()}, nil
}

// Strings

func str(name string, v runtime.Value) (string, error) {
	s, ok := v.(runtime.StringValue)
	if !ok {
		return "", argErrorf("%s() expects a string, got %s", name, runtime.TypeOf(v))
	}
	return s.Val, nil
}

func integer(name string, v runtime.Value) (int, error) {
	n, ok := runtime.AsInt64(v)
	if !ok {
		return 0, argErrorf("%s() expects an integer, got %s", name, runtime.TypeOf(v))
	}
	return int(n), nil
}

func builtinLength(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.StringValue:
		return runtime.Int32Value{Val: int32(utf8.RuneCountInString(v.Val))}, nil
	case *runtime.ArrayValue:
		return runtime.Int32Value{Val: int32(v.Len())}, nil
	}
	return nil, argErrorf("length() expects a string or array, got %s", runtime.TypeOf(args[0]))
}

func builtinSubstring(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	s, err := str("substring", args[0])
	if err != nil {
		return nil, err
	}
	runes := []rune(s)
	start, err := integer("substring", args[1])
	if err != nil {
		return nil, err
	}
	end := len(runes)
	if len(args) == 3 {
		if end, err = integer("substring", args[2]); err != nil {
			return nil, err
		}
	}
	if start < 0 || end > len(runes) || start > end {
		return nil, argErrorf("Invalid substring indices %d..%d for length %d", start, end, len(runes))
	}
	return runtime.StringValue{Val: string(runes[start:end])}, nil
}

func builtinIndexOf(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.StringValue:
		needle, err := str("indexOf", args[1])
		if err != nil {
			return nil, err
		}
		idx := strings.Index(v.Val, needle)
		if idx < 0 {
			return runtime.Int32Value{Val: -1}, nil
		}
		return runtime.Int32Value{Val: int32(utf8.RuneCountInString(v.Val[:idx]))}, nil
	case *runtime.ArrayValue:
		for n, el := range v.Elements {
			if runtime.Equals(el, args[1]) {
				return runtime.Int32Value{Val: int32(n)}, nil
			}
		}
		return runtime.Int32Value{Val: -1}, nil
	}
	return nil, argErrorf("indexOf() expects a string or array, got %s", runtime.TypeOf(args[0]))
}

func stringPredicate(name string, fn func(s, arg string) bool) builtinFunc {
	return func(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
		s, err := str(name, args[0])
		if err != nil {
			return nil, err
		}
		arg, err := str(name, args[1])
		if err != nil {
			return nil, err
		}
		return runtime.BoolValue{Val: fn(s, arg)}, nil
	}
}

var (
	builtinStartsWith = stringPredicate("startsWith", strings.HasPrefix)
	builtinEndsWith   = stringPredicate("endsWith", strings.HasSuffix)
	builtinContains   = stringPredicate("contains", strings.Contains)
)

func stringFunc(name string, fn func(string) string) builtinFunc {
	return func(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
		s, err := str(name, args[0])
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: fn(s)}, nil
	}
}

func builtinSplit(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	s, err := str("split", args[0])
	if err != nil {
		return nil, err
	}
	sep, err := str("split", args[1])
	if err != nil {
		return nil, err
	}
	parts := strings.Split(s, sep)
	elements := make([]runtime.Value, len(parts))
	for n, part := range parts {
		elements[n] = runtime.StringValue{Val: part}
	}
	return runtime.NewArray(elements), nil
}

// Arrays

func builtinArrayOf(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	return runtime.NewArray(append([]runtime.Value(nil), args...)), nil
}

func typedArrayOf(name, typeName string, convert func(runtime.Value) (runtime.Value, bool)) builtinFunc {
	return func(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
		elements := make([]runtime.Value, len(args))
		for n, arg := range args {
			val, ok := convert(arg)
			if !ok {
				return nil, argErrorf("%s() expects %s elements, got %s at position %d", name, typeName, runtime.TypeOf(arg), n)
			}
			elements[n] = val
		}
		return runtime.NewArray(elements), nil
	}
}

func intElement(v runtime.Value) (runtime.Value, bool) {
	_, ok := runtime.AsInt64(v)
	return v, ok
}

func doubleElement(v runtime.Value) (runtime.Value, bool) {
	f, ok := runtime.AsFloat64(v)
	return runtime.Float64Value{Val: f}, ok
}

func stringElement(v runtime.Value) (runtime.Value, bool) {
	_, ok := v.(runtime.StringValue)
	return v, ok
}

func boolElement(v runtime.Value) (runtime.Value, bool) {
	_, ok := v.(runtime.BoolValue)
	return v, ok
}

// Conversions

func intValue(n int64) runtime.Value {
	if n >= math.MinInt32 && n <= math.MaxInt32 {
		return runtime.Int32Value{Val: int32(n)}
	}
	return runtime.Int64Value{Val: n}
}

func builtinToInt(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.StringValue:
		n, err := strconv.ParseInt(strings.TrimSpace(v.Val), 10, 64)
		if err != nil {
			return nil, argErrorf("Cannot convert string %q to int", v.Val)
		}
		return intValue(n), nil
	case runtime.Int32Value, runtime.Int64Value:
		return v, nil
	case runtime.Float64Value:
		return runtime.Int32Value{Val: int32(v.Val)}, nil
	}
	return nil, argErrorf("toInt() expects a string or number, got %s", runtime.TypeOf(args[0]))
}

func builtinToDouble(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	if s, ok := args[0].(runtime.StringValue); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s.Val), 64)
		if err != nil {
			return nil, argErrorf("Cannot convert string %q to double", s.Val)
		}
		return runtime.Float64Value{Val: f}, nil
	}
	if f, ok := runtime.AsFloat64(args[0]); ok {
		return runtime.Float64Value{Val: f}, nil
	}
	return nil, argErrorf("toDouble() expects a string or number, got %s", runtime.TypeOf(args[0]))
}

func builtinToString(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	return runtime.StringValue{Val: runtime.ToDisplayString(args[0])}, nil
}

func kindPredicate(kinds ...runtime.Kind) builtinFunc {
	return func(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
		for _, kind := range kinds {
			if args[0] != nil && args[0].Kind() == kind {
				return runtime.BoolValue{Val: true}, nil
			}
		}
		return runtime.BoolValue{Val: false}, nil
	}
}

// System

func builtinExit(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	code, ok := runtime.AsInt64(args[0])
	if !ok {
		return nil, argErrorf("exit() expects an integer, got %s", runtime.TypeOf(args[0]))
	}
	return nil, &ExitError{Code: int(code)}
}

func builtinClock(_ *Interpreter, _ []runtime.Value) (runtime.Value, error) {
	return runtime.Int64Value{Val: time.Now().UnixMilli()}, nil
}

func builtinThrow(_ *Interpreter, args []runtime.Value) (runtime.Value, error) {
	return nil, &builtinError{kind: UserThrown, msg: runtime.ToDisplayString(args[0])}
}

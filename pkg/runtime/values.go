package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/otabekoff/dotlin-lang-sub000/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindInt32 Kind = iota
	KindInt64
	KindFloat64
	KindBool
	KindString
	KindArray
	KindLambda
	KindClassInstance
	KindClassDefinition
)

func (k Kind) String() string {
	switch k {
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindFloat64:
		return "float64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindLambda:
		return "lambda"
	case KindClassInstance:
		return "class_instance"
	case KindClassDefinition:
		return "class_def"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type Int32Value struct {
	Val int32
}

func (v Int32Value) Kind() Kind { return KindInt32 }

type Int64Value struct {
	Val int64
}

func (v Int64Value) Kind() Kind { return KindInt64 }

type Float64Value struct {
	Val float64
}

func (v Float64Value) Kind() Kind { return KindFloat64 }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

// Void is what statements and body-less calls produce.
func Void() Value { return Int32Value{Val: 0} }

//-----------------------------------------------------------------------------
// Arrays
//-----------------------------------------------------------------------------

// ElementType classifies the contents of an array.
type ElementType int

const (
	ElementUnknown ElementType = iota
	ElementInt
	ElementDouble
	ElementBool
	ElementString
	ElementMixed
)

func (e ElementType) String() string {
	switch e {
	case ElementInt:
		return "Int"
	case ElementDouble:
		return "Double"
	case ElementBool:
		return "Bool"
	case ElementString:
		return "String"
	case ElementMixed:
		return "Mixed"
	default:
		return "Unknown"
	}
}

func classify(v Value) ElementType {
	switch v.(type) {
	case Int32Value, Int64Value:
		return ElementInt
	case Float64Value:
		return ElementDouble
	case BoolValue:
		return ElementBool
	case StringValue:
		return ElementString
	default:
		return ElementMixed
	}
}

func merge(current ElementType, v Value) ElementType {
	next := classify(v)
	switch current {
	case ElementUnknown:
		return next
	case next:
		return current
	default:
		return ElementMixed
	}
}

// ArrayValue is shared by reference and mutated in place. The element type is
// Unknown exactly when the array is empty.
type ArrayValue struct {
	Elements    []Value
	elementType ElementType
}

func (v *ArrayValue) Kind() Kind { return KindArray }

func NewArray(elements []Value) *ArrayValue {
	arr := &ArrayValue{Elements: elements}
	arr.rescan()
	return arr
}

func (v *ArrayValue) ElementType() ElementType { return v.elementType }

func (v *ArrayValue) Len() int { return len(v.Elements) }

func (v *ArrayValue) Get(index int) (Value, error) {
	if index < 0 || index >= len(v.Elements) {
		return nil, fmt.Errorf("%w: index %d out of bounds for length %d", ErrIndexOutOfBounds, index, len(v.Elements))
	}
	return v.Elements[index], nil
}

func (v *ArrayValue) Set(index int, value Value) error {
	if index < 0 || index >= len(v.Elements) {
		return fmt.Errorf("%w: index %d out of bounds for length %d", ErrIndexOutOfBounds, index, len(v.Elements))
	}
	v.Elements[index] = value
	v.rescan()
	return nil
}

func (v *ArrayValue) Append(value Value) {
	v.Elements = append(v.Elements, value)
	v.elementType = merge(v.elementType, value)
}

func (v *ArrayValue) Insert(index int, value Value) error {
	if index < 0 || index > len(v.Elements) {
		return fmt.Errorf("%w: index %d out of bounds for length %d", ErrIndexOutOfBounds, index, len(v.Elements))
	}
	v.Elements = append(v.Elements, nil)
	copy(v.Elements[index+1:], v.Elements[index:])
	v.Elements[index] = value
	v.elementType = merge(v.elementType, value)
	return nil
}

// RemoveAt deletes and returns the element at index. The classification is
// recomputed from scratch because removal can turn a Mixed array uniform.
func (v *ArrayValue) RemoveAt(index int) (Value, error) {
	if index < 0 || index >= len(v.Elements) {
		return nil, fmt.Errorf("%w: index %d out of bounds for length %d", ErrIndexOutOfBounds, index, len(v.Elements))
	}
	removed := v.Elements[index]
	v.Elements = append(v.Elements[:index], v.Elements[index+1:]...)
	v.rescan()
	return removed, nil
}

func (v *ArrayValue) rescan() {
	v.elementType = ElementUnknown
	for _, el := range v.Elements {
		v.elementType = merge(v.elementType, el)
	}
}

//-----------------------------------------------------------------------------
// Functions & closures
//-----------------------------------------------------------------------------

// LambdaValue is a closure: parameters and body plus the environment that was
// active when the lambda expression ran. Named functions read through an
// identifier are wrapped as lambdas too, in which case Name is set.
type LambdaValue struct {
	Name    string
	Params  []*ast.FunctionParameter
	Body    *ast.BlockStatement
	Closure *Environment
	Program *ast.Program
	// Function is set when the lambda wraps a declared function, whose body
	// needs an explicit return.
	Function *FunctionDef
}

func (v *LambdaValue) Kind() Kind { return KindLambda }

// FunctionDef is one member of an overload set.
type FunctionDef struct {
	Name       string
	Params     []*ast.FunctionParameter
	ReturnType *ast.TypeRef
	Body       *ast.BlockStatement
	// TypeHash discriminates overloads with equal arity by their annotated
	// parameter kinds.
	TypeHash string
	Closure  *Environment
	Program  *ast.Program
	Decl     ast.NodeID
}

// NewFunctionDef copies what the evaluator needs out of a declaration so the
// definition does not alias the declaration node itself.
func NewFunctionDef(decl *ast.FunctionDeclaration, closure *Environment, program *ast.Program) *FunctionDef {
	return &FunctionDef{
		Name:       decl.Name,
		Params:     append([]*ast.FunctionParameter(nil), decl.Params...),
		ReturnType: decl.ReturnType,
		Body:       decl.Body,
		TypeHash:   ParamTypeHash(decl.Params),
		Closure:    closure,
		Program:    program,
		Decl:       decl.ID(),
	}
}

// ParamTypeHash joins the normalized annotated parameter kinds; unannotated
// parameters contribute "_".
func ParamTypeHash(params []*ast.FunctionParameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		if p.Type == nil {
			parts[i] = "_"
			continue
		}
		parts[i] = NormalizeTypeName(p.Type.Name)
	}
	return strings.Join(parts, ",")
}

func (f *FunctionDef) Arity() int { return len(f.Params) }

//-----------------------------------------------------------------------------
// Classes
//-----------------------------------------------------------------------------

type ConstructorDef struct {
	Params []*ast.FunctionParameter
	Body   *ast.BlockStatement
	Decl   ast.NodeID
}

func (c *ConstructorDef) Arity() int { return len(c.Params) }

// ClassDefinitionValue is created once per class declaration and bound in the
// defining environment.
type ClassDefinitionValue struct {
	Name         string
	Fields       []*ast.VariableDeclaration
	Constructors []*ConstructorDef
	Methods      []*FunctionDef
	Initializers []*ast.BlockStatement
	Superclass   *ClassDefinitionValue
	Closure      *Environment
	Program      *ast.Program
}

func (v *ClassDefinitionValue) Kind() Kind { return KindClassDefinition }

// MethodsNamed returns the overload set for name, in declaration order.
func (v *ClassDefinitionValue) MethodsNamed(name string) []*FunctionDef {
	var out []*FunctionDef
	for _, m := range v.Methods {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

type ClassInstanceValue struct {
	ClassName  string
	Fields     map[string]Value
	Definition *ClassDefinitionValue
}

func (v *ClassInstanceValue) Kind() Kind { return KindClassInstance }

func NewInstance(def *ClassDefinitionValue) *ClassInstanceValue {
	return &ClassInstanceValue{ClassName: def.Name, Fields: make(map[string]Value), Definition: def}
}

//-----------------------------------------------------------------------------
// Helpers
//-----------------------------------------------------------------------------

// Equals is strict structural equality: primitives compare by variant and
// value, arrays element-wise, and everything else by identity. Values of
// different variants are never equal.
func Equals(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Int32Value:
		return av.Val == b.(Int32Value).Val
	case Int64Value:
		return av.Val == b.(Int64Value).Val
	case Float64Value:
		return av.Val == b.(Float64Value).Val
	case BoolValue:
		return av.Val == b.(BoolValue).Val
	case StringValue:
		return av.Val == b.(StringValue).Val
	case *ArrayValue:
		bv := b.(*ArrayValue)
		if av == bv {
			return true
		}
		if len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equals(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// TypeOf names the runtime type of v.
func TypeOf(v Value) string {
	switch v.(type) {
	case Int32Value:
		return "int"
	case Int64Value:
		return "long"
	case Float64Value:
		return "double"
	case BoolValue:
		return "bool"
	case StringValue:
		return "string"
	case *ArrayValue:
		return "Array"
	case *LambdaValue:
		return "Lambda"
	case *ClassInstanceValue:
		return "Object"
	case *ClassDefinitionValue:
		return "Class"
	default:
		return "unknown"
	}
}

// NormalizeTypeName maps a source-level annotation to the name TypeOf uses.
func NormalizeTypeName(name string) string {
	switch name {
	case "Int", "int", "Int32":
		return "int"
	case "Long", "long", "Int64":
		return "long"
	case "Double", "double", "Float", "float", "Float64":
		return "double"
	case "Boolean", "Bool", "bool", "boolean":
		return "bool"
	case "String", "string":
		return "string"
	case "Array", "array":
		return "Array"
	case "Any", "any":
		return "any"
	default:
		return name
	}
}

// Accepts reports whether a parameter annotated with typeName takes v.
// Annotations naming a class accept instances of that class.
func Accepts(typeName string, v Value) bool {
	want := NormalizeTypeName(typeName)
	if want == "any" {
		return true
	}
	if inst, ok := v.(*ClassInstanceValue); ok {
		for def := inst.Definition; def != nil; def = def.Superclass {
			if def.Name == typeName {
				return true
			}
		}
		return want == "Object"
	}
	return TypeOf(v) == want
}

// LiteralValue reads a literal node as the value it evaluates to. Integer
// literals that fit in 32 bits and carry no L suffix are Int32.
func LiteralValue(expr ast.Expression) (Value, bool) {
	switch lit := expr.(type) {
	case *ast.IntegerLiteral:
		if !lit.Long && lit.Value >= math.MinInt32 && lit.Value <= math.MaxInt32 {
			return Int32Value{Val: int32(lit.Value)}, true
		}
		return Int64Value{Val: lit.Value}, true
	case *ast.FloatLiteral:
		return Float64Value{Val: lit.Value}, true
	case *ast.StringLiteral:
		return StringValue{Val: lit.Value}, true
	case *ast.BooleanLiteral:
		return BoolValue{Val: lit.Value}, true
	}
	return nil, false
}

// ToDisplayString renders v the way println shows it.
func ToDisplayString(v Value) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case Int32Value:
		return strconv.FormatInt(int64(val.Val), 10)
	case Int64Value:
		return strconv.FormatInt(val.Val, 10)
	case Float64Value:
		return FormatDouble(val.Val)
	case BoolValue:
		if val.Val {
			return "true"
		}
		return "false"
	case StringValue:
		return val.Val
	case *ArrayValue:
		parts := make([]string, len(val.Elements))
		for i, el := range val.Elements {
			parts[i] = ToDisplayString(el)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *LambdaValue:
		return "<lambda>"
	case *ClassInstanceValue:
		return "<" + val.ClassName + "> instance"
	case *ClassDefinitionValue:
		return "<" + val.Name + "> class"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FormatDouble prints the shortest form that round-trips, keeping a ".0" on
// integral values.
func FormatDouble(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	format := byte('f')
	if abs := math.Abs(f); abs >= 1e16 || (abs != 0 && abs < 1e-4) {
		format = 'g'
	}
	s := strconv.FormatFloat(f, format, -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

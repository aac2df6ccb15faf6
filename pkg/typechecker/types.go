package typechecker

import "github.com/otabekoff/dotlin-lang-sub000/pkg/ast"

// Kind is the coarse category the checker reasons about.
type Kind int

const (
	KindUnknown Kind = iota
	KindAny
	KindVoid
	KindInt
	KindLong
	KindDouble
	KindBool
	KindString
	KindArray
	KindFunction
	KindClass
)

// Type is a best-effort static type. Element is set for arrays, Class for
// class instances and Return for functions.
type Type struct {
	Kind    Kind
	Element *Type
	Class   string
	Return  *Type
}

var (
	Unknown    = &Type{Kind: KindUnknown}
	Any        = &Type{Kind: KindAny}
	Void       = &Type{Kind: KindVoid}
	IntType    = &Type{Kind: KindInt}
	LongType   = &Type{Kind: KindLong}
	DoubleType = &Type{Kind: KindDouble}
	BoolType   = &Type{Kind: KindBool}
	StringType = &Type{Kind: KindString}
)

func ArrayOf(element *Type) *Type {
	if element == nil {
		element = Unknown
	}
	return &Type{Kind: KindArray, Element: element}
}

func FunctionReturning(ret *Type) *Type {
	if ret == nil {
		ret = Unknown
	}
	return &Type{Kind: KindFunction, Return: ret}
}

func ClassType(name string) *Type {
	return &Type{Kind: KindClass, Class: name}
}

// Name renders the type the way annotations are written.
func (t *Type) Name() string {
	if t == nil {
		return "Unknown"
	}
	switch t.Kind {
	case KindAny:
		return "Any"
	case KindVoid:
		return "Unit"
	case KindInt:
		return "Int"
	case KindLong:
		return "Long"
	case KindDouble:
		return "Double"
	case KindBool:
		return "Boolean"
	case KindString:
		return "String"
	case KindArray:
		return "Array<" + t.Element.Name() + ">"
	case KindFunction:
		return "Function"
	case KindClass:
		return t.Class
	default:
		return "Unknown"
	}
}

// Known reports whether the checker has anything useful to say about t.
func (t *Type) Known() bool {
	return t != nil && t.Kind != KindUnknown && t.Kind != KindAny
}

func (t *Type) IsNumeric() bool {
	return t != nil && (t.Kind == KindInt || t.Kind == KindLong || t.Kind == KindDouble)
}

// IsCompatibleWith reports whether a value of type t may be stored where
// target is expected. Unknown and Any are compatible with everything, and
// integers widen to Long and Double.
func (t *Type) IsCompatibleWith(target *Type) bool {
	if !t.Known() || !target.Known() {
		return true
	}
	if t.Kind == target.Kind {
		switch t.Kind {
		case KindArray:
			return t.Element.IsCompatibleWith(target.Element)
		case KindClass:
			return t.Class == target.Class
		}
		return true
	}
	switch {
	case t.Kind == KindInt && (target.Kind == KindLong || target.Kind == KindDouble):
		return true
	case t.Kind == KindLong && target.Kind == KindDouble:
		return true
	}
	return false
}

// FromRef converts a written annotation. Names that are neither primitives
// nor known classes are Unknown.
func FromRef(ref *ast.TypeRef, classes map[string]*classInfo) *Type {
	if ref == nil {
		return Unknown
	}
	switch ref.Name {
	case "Int", "Int32":
		return IntType
	case "Long", "Int64":
		return LongType
	case "Double", "Float", "Float64":
		return DoubleType
	case "Boolean", "Bool":
		return BoolType
	case "String":
		return StringType
	case "Array", "List":
		return ArrayOf(FromRef(ref.Element, classes))
	case "IntArray":
		return ArrayOf(IntType)
	case "DoubleArray":
		return ArrayOf(DoubleType)
	case "Any":
		return Any
	case "Unit", "Void":
		return Void
	}
	if _, ok := classes[ref.Name]; ok {
		return ClassType(ref.Name)
	}
	return Unknown
}

// ToRef is the inverse of FromRef for types worth writing back into the tree.
func ToRef(t *Type) *ast.TypeRef {
	if !t.Known() || t.Kind == KindVoid || t.Kind == KindFunction {
		return nil
	}
	ref := &ast.TypeRef{Name: t.Name(), Inferred: true}
	if t.Kind == KindArray {
		ref.Name = "Array"
		ref.Element = ToRef(t.Element)
		if ref.Element == nil {
			ref.Element = &ast.TypeRef{Name: "Any", Inferred: true}
		}
	}
	return ref
}

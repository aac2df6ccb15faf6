package runtime

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEnvironmentDefineAssignGet(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("x", Int32Value{Val: 1})

	block := NewEnvironment(global)
	block.Define("y", StringValue{Val: "inner"})
	if err := block.Assign("x", Int32Value{Val: 2}); err != nil {
		t.Fatalf("assign through chain failed: %v", err)
	}
	got, err := global.Get("x")
	if err != nil || got != (Int32Value{Val: 2}) {
		t.Fatalf("expected x=2 in global, got %#v (%v)", got, err)
	}
	if _, err := global.Get("y"); !errors.Is(err, ErrUndefinedVariable) {
		t.Fatalf("block binding leaked into parent: %v", err)
	}
	err = block.Assign("missing", Int32Value{Val: 0})
	if !errors.Is(err, ErrUndefinedVariable) {
		t.Fatalf("expected ErrUndefinedVariable, got %v", err)
	}
	if err.Error() != "Undefined variable 'missing'" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestEnvironmentSlots(t *testing.T) {
	outer := NewEnvironment(nil)
	outer.DefineAt(0, "a", Int32Value{Val: 1})
	outer.DefineAt(1, "b", Int32Value{Val: 2})
	inner := NewEnvironment(outer)
	inner.DefineAt(0, "a", StringValue{Val: "shadow"})

	if v, ok := inner.GetAt(0, 0); !ok || v != (StringValue{Val: "shadow"}) {
		t.Fatalf("expected shadowing binding, got %#v", v)
	}
	if v, ok := inner.GetAt(1, 1); !ok || v != (Int32Value{Val: 2}) {
		t.Fatalf("expected outer b, got %#v", v)
	}
	if !inner.AssignAt(1, 0, Int32Value{Val: 10}) {
		t.Fatalf("assign at slot failed")
	}
	if v, _ := outer.Get("a"); v != (Int32Value{Val: 10}) {
		t.Fatalf("slot and name views diverged: %#v", v)
	}
	if _, ok := inner.GetAt(3, 0); ok {
		t.Fatalf("expected miss past the global scope")
	}
	if _, ok := inner.GetAt(0, 5); ok {
		t.Fatalf("expected miss for an undefined slot")
	}
	if diff := cmp.Diff([]string{"a", "b"}, outer.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestArrayElementTypeTracksContents(t *testing.T) {
	arr := NewArray(nil)
	if arr.ElementType() != ElementUnknown {
		t.Fatalf("empty array should be Unknown, got %s", arr.ElementType())
	}
	arr.Append(Int32Value{Val: 1})
	if arr.ElementType() != ElementInt {
		t.Fatalf("expected Int, got %s", arr.ElementType())
	}
	arr.Append(StringValue{Val: "x"})
	if arr.ElementType() != ElementMixed {
		t.Fatalf("expected Mixed, got %s", arr.ElementType())
	}
	if _, err := arr.RemoveAt(1); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if arr.ElementType() != ElementInt {
		t.Fatalf("expected Int after removal, got %s", arr.ElementType())
	}
	if _, err := arr.RemoveAt(0); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if arr.ElementType() != ElementUnknown {
		t.Fatalf("expected Unknown once empty, got %s", arr.ElementType())
	}
	if _, err := arr.Get(0); !errors.Is(err, ErrIndexOutOfBounds) {
		t.Fatalf("expected ErrIndexOutOfBounds, got %v", err)
	}
	if err := arr.Insert(0, Float64Value{Val: 1.5}); err != nil || arr.ElementType() != ElementDouble {
		t.Fatalf("insert failed: %v (%s)", err, arr.ElementType())
	}
}

func TestEqualsIsVariantStrict(t *testing.T) {
	cases := []struct {
		a, b Value
		want bool
	}{
		{Int32Value{Val: 1}, Int32Value{Val: 1}, true},
		{Int32Value{Val: 1}, Int64Value{Val: 1}, false},
		{StringValue{Val: "a"}, StringValue{Val: "a"}, true},
		{NewArray([]Value{Int32Value{Val: 1}}), NewArray([]Value{Int32Value{Val: 1}}), true},
		{NewArray([]Value{Int32Value{Val: 1}}), NewArray([]Value{Int32Value{Val: 2}}), false},
		{&LambdaValue{}, &LambdaValue{}, false},
	}
	for i, tc := range cases {
		if got := Equals(tc.a, tc.b); got != tc.want {
			t.Fatalf("case %d: Equals(%#v, %#v) = %v", i, tc.a, tc.b, got)
		}
	}
	for _, op := range []string{"==", "!="} {
		got, err := BinaryOp(op, Int32Value{Val: 1}, Float64Value{Val: 1})
		if err != nil || got != (BoolValue{Val: op == "!="}) {
			t.Fatalf("1 %s 1.0 = %#v (%v), numbers of different variants are unequal", op, got, err)
		}
	}
}

func TestToDisplayString(t *testing.T) {
	def := &ClassDefinitionValue{Name: "Point"}
	cases := []struct {
		value Value
		want  string
	}{
		{Int32Value{Val: -3}, "-3"},
		{Int64Value{Val: 10000000000}, "10000000000"},
		{Float64Value{Val: 2}, "2.0"},
		{Float64Value{Val: 0.1}, "0.1"},
		{Float64Value{Val: 1e6}, "1000000.0"},
		{Float64Value{Val: math.Inf(1)}, "Infinity"},
		{BoolValue{Val: true}, "true"},
		{NewArray([]Value{Int32Value{Val: 1}, StringValue{Val: "a"}}), "[1, a]"},
		{&LambdaValue{}, "<lambda>"},
		{NewInstance(def), "<Point> instance"},
		{def, "<Point> class"},
	}
	for _, tc := range cases {
		if got := ToDisplayString(tc.value); got != tc.want {
			t.Fatalf("ToDisplayString(%#v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestBinaryOpMatrix(t *testing.T) {
	cases := []struct {
		op          string
		left, right Value
		want        Value
	}{
		{"+", Int32Value{Val: 2}, Int32Value{Val: 3}, Int32Value{Val: 5}},
		{"+", Int32Value{Val: math.MaxInt32}, Int32Value{Val: 1}, Int32Value{Val: math.MinInt32}},
		{"*", Int32Value{Val: 2}, Int64Value{Val: 3}, Int64Value{Val: 6}},
		{"/", Int32Value{Val: 7}, Int32Value{Val: 2}, Int32Value{Val: 3}},
		{"/", Int32Value{Val: 7}, Float64Value{Val: 2}, Float64Value{Val: 3.5}},
		{"%", Int32Value{Val: -7}, Int32Value{Val: 3}, Int32Value{Val: -1}},
		{"+", StringValue{Val: "n="}, Int32Value{Val: 1}, StringValue{Val: "n=1"}},
		{"+", Int32Value{Val: 1}, StringValue{Val: "!"}, StringValue{Val: "1!"}},
		{"<", StringValue{Val: "a"}, StringValue{Val: "b"}, BoolValue{Val: true}},
		{">=", Float64Value{Val: 1.5}, Int32Value{Val: 2}, BoolValue{Val: false}},
		{"==", Int32Value{Val: 2}, Float64Value{Val: 2}, BoolValue{Val: true}},
		{"!=", StringValue{Val: "a"}, Int32Value{Val: 1}, BoolValue{Val: true}},
		{"&&", BoolValue{Val: true}, BoolValue{Val: false}, BoolValue{Val: false}},
	}
	for _, tc := range cases {
		got, err := BinaryOp(tc.op, tc.left, tc.right)
		if err != nil {
			t.Fatalf("%#v %s %#v: unexpected error %v", tc.left, tc.op, tc.right, err)
		}
		if got != tc.want {
			t.Fatalf("%#v %s %#v = %#v, want %#v", tc.left, tc.op, tc.right, got, tc.want)
		}
	}
}

func TestBinaryOpFailures(t *testing.T) {
	if _, err := BinaryOp("/", Int32Value{Val: 1}, Int32Value{Val: 0}); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
	if _, err := BinaryOp("%", Float64Value{Val: 1}, Float64Value{Val: 0}); !errors.Is(err, ErrDivisionByZero) {
		t.Fatalf("expected division by zero, got %v", err)
	}
	if _, err := BinaryOp("-", StringValue{Val: "a"}, Int32Value{Val: 1}); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	if _, err := UnaryOp("!", Int32Value{Val: 1}); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected type mismatch for !1, got %v", err)
	}
}

func TestTruthy(t *testing.T) {
	if Truthy(Int32Value{Val: 0}) || !Truthy(Int32Value{Val: 3}) {
		t.Fatalf("integer truthiness wrong")
	}
	if Truthy(StringValue{Val: ""}) || !Truthy(StringValue{Val: "x"}) {
		t.Fatalf("string truthiness wrong")
	}
	if !Truthy(NewInstance(&ClassDefinitionValue{Name: "A"})) {
		t.Fatalf("objects should be truthy")
	}
}

func TestAcceptsNormalizesAnnotations(t *testing.T) {
	if !Accepts("Int", Int32Value{Val: 1}) || Accepts("Int", StringValue{Val: "1"}) {
		t.Fatalf("Int annotation handling wrong")
	}
	base := &ClassDefinitionValue{Name: "Shape"}
	circle := &ClassDefinitionValue{Name: "Circle", Superclass: base}
	if !Accepts("Shape", NewInstance(circle)) {
		t.Fatalf("subclass instance should satisfy superclass annotation")
	}
	if !Accepts("Any", NewArray(nil)) {
		t.Fatalf("Any accepts everything")
	}
}

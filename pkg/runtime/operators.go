package runtime

import (
	"fmt"
	"math"
)

type numericRank int

const (
	rankInt32 numericRank = iota
	rankInt64
	rankFloat64
)

func numericRankOf(v Value) (numericRank, bool) {
	switch v.(type) {
	case Int32Value:
		return rankInt32, true
	case Int64Value:
		return rankInt64, true
	case Float64Value:
		return rankFloat64, true
	default:
		return 0, false
	}
}

// AsInt64 widens an integral value.
func AsInt64(v Value) (int64, bool) {
	switch n := v.(type) {
	case Int32Value:
		return int64(n.Val), true
	case Int64Value:
		return n.Val, true
	default:
		return 0, false
	}
}

// AsFloat64 widens any numeric value.
func AsFloat64(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int32Value:
		return float64(n.Val), true
	case Int64Value:
		return float64(n.Val), true
	case Float64Value:
		return n.Val, true
	default:
		return 0, false
	}
}

func IsNumeric(v Value) bool {
	_, ok := numericRankOf(v)
	return ok
}

func mismatch(op string, left, right Value) error {
	return fmt.Errorf("%w: unsupported operand types for %s: %s and %s", ErrTypeMismatch, op, TypeOf(left), TypeOf(right))
}

// BinaryOp applies a non-short-circuit binary operator. The evaluator and the
// constant folder both go through here so they agree on every combination.
func BinaryOp(op string, left, right Value) (Value, error) {
	switch op {
	case "==":
		return BoolValue{Val: Equals(left, right)}, nil
	case "!=":
		return BoolValue{Val: !Equals(left, right)}, nil
	case "&&", "||":
		lb, lok := left.(BoolValue)
		rb, rok := right.(BoolValue)
		if !lok || !rok {
			return nil, mismatch(op, left, right)
		}
		if op == "&&" {
			return BoolValue{Val: lb.Val && rb.Val}, nil
		}
		return BoolValue{Val: lb.Val || rb.Val}, nil
	}

	if op == "+" {
		_, ls := left.(StringValue)
		_, rs := right.(StringValue)
		if ls || rs {
			return StringValue{Val: ToDisplayString(left) + ToDisplayString(right)}, nil
		}
	}

	lr, lok := numericRankOf(left)
	rr, rok := numericRankOf(right)
	if !lok || !rok {
		if ls, ok := left.(StringValue); ok {
			if rs, ok := right.(StringValue); ok {
				return compareStrings(op, ls.Val, rs.Val, left, right)
			}
		}
		return nil, mismatch(op, left, right)
	}

	rank := max(lr, rr)
	switch rank {
	case rankFloat64:
		l, _ := AsFloat64(left)
		r, _ := AsFloat64(right)
		return floatOp(op, l, r, left, right)
	case rankInt64:
		l, _ := AsInt64(left)
		r, _ := AsInt64(right)
		return int64Op(op, l, r, left, right)
	default:
		l := left.(Int32Value).Val
		r := right.(Int32Value).Val
		return int32Op(op, l, r, left, right)
	}
}

func int32Op(op string, l, r int32, left, right Value) (Value, error) {
	switch op {
	case "+":
		return Int32Value{Val: l + r}, nil
	case "-":
		return Int32Value{Val: l - r}, nil
	case "*":
		return Int32Value{Val: l * r}, nil
	case "/":
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return Int32Value{Val: l / r}, nil
	case "%":
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return Int32Value{Val: l % r}, nil
	case "<":
		return BoolValue{Val: l < r}, nil
	case "<=":
		return BoolValue{Val: l <= r}, nil
	case ">":
		return BoolValue{Val: l > r}, nil
	case ">=":
		return BoolValue{Val: l >= r}, nil
	}
	return nil, mismatch(op, left, right)
}

func int64Op(op string, l, r int64, left, right Value) (Value, error) {
	switch op {
	case "+":
		return Int64Value{Val: l + r}, nil
	case "-":
		return Int64Value{Val: l - r}, nil
	case "*":
		return Int64Value{Val: l * r}, nil
	case "/":
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return Int64Value{Val: l / r}, nil
	case "%":
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return Int64Value{Val: l % r}, nil
	case "<":
		return BoolValue{Val: l < r}, nil
	case "<=":
		return BoolValue{Val: l <= r}, nil
	case ">":
		return BoolValue{Val: l > r}, nil
	case ">=":
		return BoolValue{Val: l >= r}, nil
	}
	return nil, mismatch(op, left, right)
}

func floatOp(op string, l, r float64, left, right Value) (Value, error) {
	switch op {
	case "+":
		return Float64Value{Val: l + r}, nil
	case "-":
		return Float64Value{Val: l - r}, nil
	case "*":
		return Float64Value{Val: l * r}, nil
	case "/":
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return Float64Value{Val: l / r}, nil
	case "%":
		if r == 0 {
			return nil, ErrDivisionByZero
		}
		return Float64Value{Val: math.Mod(l, r)}, nil
	case "<":
		return BoolValue{Val: l < r}, nil
	case "<=":
		return BoolValue{Val: l <= r}, nil
	case ">":
		return BoolValue{Val: l > r}, nil
	case ">=":
		return BoolValue{Val: l >= r}, nil
	}
	return nil, mismatch(op, left, right)
}

func compareStrings(op, l, r string, left, right Value) (Value, error) {
	switch op {
	case "<":
		return BoolValue{Val: l < r}, nil
	case "<=":
		return BoolValue{Val: l <= r}, nil
	case ">":
		return BoolValue{Val: l > r}, nil
	case ">=":
		return BoolValue{Val: l >= r}, nil
	}
	return nil, mismatch(op, left, right)
}

// UnaryOp applies prefix - or !.
func UnaryOp(op string, operand Value) (Value, error) {
	switch op {
	case "-":
		switch n := operand.(type) {
		case Int32Value:
			return Int32Value{Val: -n.Val}, nil
		case Int64Value:
			return Int64Value{Val: -n.Val}, nil
		case Float64Value:
			return Float64Value{Val: -n.Val}, nil
		}
	case "!":
		if b, ok := operand.(BoolValue); ok {
			return BoolValue{Val: !b.Val}, nil
		}
	case "+":
		if IsNumeric(operand) {
			return operand, nil
		}
	}
	return nil, fmt.Errorf("%w: unsupported operand type for unary %s: %s", ErrTypeMismatch, op, TypeOf(operand))
}

// Truthy decides conditions: booleans as-is, non-zero numbers, non-empty
// strings and arrays, and any other object.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil:
		return false
	case BoolValue:
		return val.Val
	case Int32Value:
		return val.Val != 0
	case Int64Value:
		return val.Val != 0
	case Float64Value:
		return val.Val != 0
	case StringValue:
		return val.Val != ""
	case *ArrayValue:
		return len(val.Elements) > 0
	default:
		return true
	}
}

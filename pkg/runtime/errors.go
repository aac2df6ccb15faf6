package runtime

import "errors"

var (
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrIndexOutOfBounds  = errors.New("index out of bounds")
)

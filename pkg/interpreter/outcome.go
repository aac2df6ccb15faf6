package interpreter

import "github.com/otabekoff/dotlin-lang-sub000/pkg/runtime"

// OutcomeKind tags how a statement finished.
type OutcomeKind int

const (
	Normal OutcomeKind = iota
	Return
	Break
	Continue
)

func (k OutcomeKind) String() string {
	switch k {
	case Return:
		return "return"
	case Break:
		return "break"
	case Continue:
		return "continue"
	default:
		return "normal"
	}
}

// Outcome is the result of executing a statement. Failures travel separately
// as errors, so a try block never sees a return.
type Outcome struct {
	Kind  OutcomeKind
	Value runtime.Value
}

func normal(v runtime.Value) Outcome {
	return Outcome{Kind: Normal, Value: v}
}

func (o Outcome) interrupted() bool {
	return o.Kind != Normal
}

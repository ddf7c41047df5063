package strategy

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/indicator"
)

// ErrInvalidDefinition marks a malformed strategy or rule. It is returned
// at registration or book load, never during evaluation.
var ErrInvalidDefinition = errors.New("invalid strategy definition")

func invalidf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidDefinition, format, args...)
}

// Condition is an entry predicate evaluated at bar i of an annotated frame.
// A non-nil error means the bar could not be evaluated; callers treat it as
// false for that bar only.
type Condition interface {
	Evaluate(f *indicator.Frame, i int) (bool, error)
	String() string
}

// Describer is implemented by conditions that can render the values they
// looked at, e.g. "RSI(14)=27.4 < 30".
type Describer interface {
	Describe(f *indicator.Frame, i int) string
}

// Func adapts a plain predicate to Condition.
type Func struct {
	Desc string
	Fn   func(f *indicator.Frame, i int) (bool, error)
}

func (c Func) Evaluate(f *indicator.Frame, i int) (bool, error) { return c.Fn(f, i) }
func (c Func) String() string                                  { return c.Desc }

// When builds a Func from an infallible predicate.
func When(desc string, fn func(f *indicator.Frame, i int) bool) Func {
	return Func{Desc: desc, Fn: func(f *indicator.Frame, i int) (bool, error) { return fn(f, i), nil }}
}

// All is the conjunction of its members. It short-circuits on the first
// false member or error.
type All []Condition

func (a All) Evaluate(f *indicator.Frame, i int) (bool, error) {
	for _, c := range a {
		ok, err := c.Evaluate(f, i)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (a All) String() string {
	parts := make([]string, len(a))
	for i, c := range a {
		parts[i] = c.String()
	}
	return strings.Join(parts, " + ")
}

// Outcome is the result of one member of a conjunction.
type Outcome struct {
	Description string
	Met         bool
	Err         error
}

// Explain evaluates every member without short-circuiting.
func Explain(c Condition, f *indicator.Frame, i int) []Outcome {
	members, ok := c.(All)
	if !ok {
		members = All{c}
	}
	out := make([]Outcome, 0, len(members))
	for _, m := range members {
		met, err := m.Evaluate(f, i)
		desc := m.String()
		if d, ok := m.(Describer); ok && err == nil {
			desc = d.Describe(f, i)
		}
		out = append(out, Outcome{Description: desc, Met: met && err == nil, Err: err})
	}
	return out
}

// EvalError reports a condition that failed at a given bar.
type EvalError struct {
	StrategyID string
	Index      int
	Err        error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("strategy %s: bar %d: %v", e.StrategyID, e.Index, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

func checkIndex(f *indicator.Frame, i int) error {
	if f == nil {
		return errors.New("nil frame")
	}
	if i < 0 || i >= f.Len() {
		return errors.Errorf("bar index %d out of range [0,%d)", i, f.Len())
	}
	return nil
}

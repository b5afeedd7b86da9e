package evaluator

import "math"

// #region result

// Kind discriminates the duck-typed value a predicate returned.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindNumber
)

// Result is a tagged predicate return value. Predicates return booleans or
// numbers; anything else is KindInvalid.
type Result struct {
	Kind   Kind
	Bool   bool
	Number float64
}

// BoolResult wraps a boolean predicate result.
func BoolResult(b bool) Result { return Result{Kind: KindBool, Bool: b} }

// NumberResult wraps a numeric predicate result.
func NumberResult(n float64) Result { return Result{Kind: KindNumber, Number: n} }

// InvalidResult represents an unsupported return type.
func InvalidResult() Result { return Result{Kind: KindInvalid} }

// Weight is the one total mapping from a predicate result to an integer
// weight: true → 1, false → 0, numbers floor and clamp at zero, invalid → 0.
func (r Result) Weight() int {
	switch r.Kind {
	case KindBool:
		if r.Bool {
			return 1
		}
		return 0
	case KindNumber:
		w := int(math.Floor(r.Number))
		if w < 0 {
			return 0
		}
		return w
	default:
		return 0
	}
}

// #endregion result

package types

import (
	"math"
	"strconv"
)

// NumberValue is the only numeric kind. Booleans are numbers carrying a
// hint so that they print as True/False.
type NumberValue struct {
	Val  float64
	Bool bool
}

// Shared boolean values
var (
	True  = NumberValue{Val: 1, Bool: true}
	False = NumberValue{Val: 0, Bool: true}
)

// NewNumber creates a new number value
func NewNumber(v float64) NumberValue {
	return NumberValue{Val: v}
}

// NewBool creates a boolean number
func NewBool(b bool) NumberValue {
	if b {
		return True
	}
	return False
}

func (n NumberValue) Type() TypeCode { return TYPE_NUMBER }

// String prints integral values without a fraction
func (n NumberValue) String() string {
	if n.Bool {
		if n.Val != 0 {
			return "True"
		}
		return "False"
	}
	switch {
	case math.IsNaN(n.Val):
		return "NaN"
	case math.IsInf(n.Val, 1):
		return "Inf"
	case math.IsInf(n.Val, -1):
		return "-Inf"
	}
	if n.Val == math.Trunc(n.Val) && math.Abs(n.Val) < 1e15 {
		return strconv.FormatInt(int64(n.Val), 10)
	}
	return strconv.FormatFloat(n.Val, 'g', -1, 64)
}

func (n NumberValue) Truthy() bool { return n.Val != 0 && !math.IsNaN(n.Val) }

// Equal compares numerically; the boolean hint does not matter
func (n NumberValue) Equal(other Value) bool {
	o, ok := other.(NumberValue)
	return ok && n.Val == o.Val
}

// Int returns the value truncated to an int
func (n NumberValue) Int() int {
	return int(n.Val)
}

package vm

import (
	"math"
	"strings"

	"ember/parser"
	"ember/types"
)

// ============================================================================
// UNARY OPERATORS
// ============================================================================

func unary(op parser.Operator, operand types.Value) (types.Value, error) {
	switch op {
	case parser.OP_NOT:
		return types.NewBool(!operand.Truthy()), nil
	case parser.OP_NEG:
		n, ok := operand.(types.NumberValue)
		if !ok {
			return nil, operandError(op, operand)
		}
		return types.NewNumber(-n.Val), nil
	case parser.OP_POS:
		n, ok := operand.(types.NumberValue)
		if !ok {
			return nil, operandError(op, operand)
		}
		return types.NewNumber(n.Val), nil
	}
	return nil, types.NewError(types.E_ERROR, "'%s' is not a unary operator", op)
}

// ============================================================================
// BINARY OPERATORS
// ============================================================================

func binary(op parser.Operator, left, right types.Value) (types.Value, error) {
	switch op {
	case parser.OP_ADD:
		return add(left, right)
	case parser.OP_SUB:
		return arithmetic(op, left, right, func(a, b float64) float64 { return a - b })
	case parser.OP_MUL:
		return multiply(left, right)
	case parser.OP_DIV:
		return divide(op, left, right, func(a, b float64) float64 { return a / b })
	case parser.OP_MOD:
		return divide(op, left, right, math.Mod)
	case parser.OP_EQ:
		return types.NewBool(left.Equal(right)), nil
	case parser.OP_NE:
		return types.NewBool(!left.Equal(right)), nil
	case parser.OP_LT, parser.OP_GT, parser.OP_LE, parser.OP_GE:
		return compare(op, left, right)
	}
	return nil, types.NewError(types.E_ERROR, "'%s' is not a binary operator", op)
}

func operandError(op parser.Operator, operands ...types.Value) error {
	names := make([]string, len(operands))
	for i, v := range operands {
		names[i] = v.Type().String()
	}
	return types.NewError(types.E_TYPE, "unsupported operand types for '%s': %s", op, strings.Join(names, " and "))
}

func numbers(left, right types.Value) (float64, float64, bool) {
	l, lok := left.(types.NumberValue)
	r, rok := right.(types.NumberValue)
	return l.Val, r.Val, lok && rok
}

// add handles numbers, text concatenation, array concatenation and
// dictionary merging
func add(left, right types.Value) (types.Value, error) {
	if a, b, ok := numbers(left, right); ok {
		return types.NewNumber(a + b), nil
	}
	switch l := left.(type) {
	case types.TextValue:
		if r, ok := right.(types.TextValue); ok {
			return types.NewText(l.Value() + r.Value()), nil
		}
	case *types.ArrayValue:
		if r, ok := right.(*types.ArrayValue); ok {
			elems := make([]types.Value, 0, l.Len()+r.Len())
			for _, v := range l.Elements() {
				elems = append(elems, types.Duplicate(v))
			}
			for _, v := range r.Elements() {
				elems = append(elems, types.Duplicate(v))
			}
			return types.NewArray(elems), nil
		}
	case *types.DictValue:
		if r, ok := right.(*types.DictValue); ok {
			out := types.Duplicate(l).(*types.DictValue)
			keys, vals := r.Keys(), r.Values()
			for i := range keys {
				out.Set(keys[i], types.Duplicate(vals[i]))
			}
			return out, nil
		}
	}
	return nil, operandError(parser.OP_ADD, left, right)
}

func arithmetic(op parser.Operator, left, right types.Value, fn func(a, b float64) float64) (types.Value, error) {
	a, b, ok := numbers(left, right)
	if !ok {
		return nil, operandError(op, left, right)
	}
	return types.NewNumber(fn(a, b)), nil
}

// multiply handles numbers and repetition of text or arrays
func multiply(left, right types.Value) (types.Value, error) {
	if a, b, ok := numbers(left, right); ok {
		return types.NewNumber(a * b), nil
	}
	seq, count := left, right
	if _, ok := seq.(types.NumberValue); ok {
		seq, count = right, left
	}
	n, ok := count.(types.NumberValue)
	if !ok {
		return nil, operandError(parser.OP_MUL, left, right)
	}
	times := n.Int()
	if times < 0 {
		times = 0
	}
	switch s := seq.(type) {
	case types.TextValue:
		return types.NewText(strings.Repeat(s.Value(), times)), nil
	case *types.ArrayValue:
		elems := make([]types.Value, 0, s.Len()*times)
		for i := 0; i < times; i++ {
			for _, v := range s.Elements() {
				elems = append(elems, types.Duplicate(v))
			}
		}
		return types.NewArray(elems), nil
	}
	return nil, operandError(parser.OP_MUL, left, right)
}

// divide applies / and %, refusing a zero divisor
func divide(op parser.Operator, left, right types.Value, fn func(a, b float64) float64) (types.Value, error) {
	a, b, ok := numbers(left, right)
	if !ok {
		return nil, operandError(op, left, right)
	}
	if b == 0 {
		return nil, types.NewError(types.E_ARITHMETIC, "division by zero")
	}
	return types.NewNumber(fn(a, b)), nil
}

// ============================================================================
// COMPARISON OPERATORS
// ============================================================================

// compare orders numbers numerically and texts lexicographically
func compare(op parser.Operator, left, right types.Value) (types.Value, error) {
	var c int
	if a, b, ok := numbers(left, right); ok {
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	} else {
		l, lok := left.(types.TextValue)
		r, rok := right.(types.TextValue)
		if !lok || !rok {
			return nil, operandError(op, left, right)
		}
		c = strings.Compare(l.Value(), r.Value())
	}
	switch op {
	case parser.OP_LT:
		return types.NewBool(c < 0), nil
	case parser.OP_GT:
		return types.NewBool(c > 0), nil
	case parser.OP_LE:
		return types.NewBool(c <= 0), nil
	default:
		return types.NewBool(c >= 0), nil
	}
}

// contains implements "x in y" for arrays, dictionary keys, record
// members and substrings
func (e *Evaluator) contains(needle, haystack types.Value) (types.Value, error) {
	switch h := haystack.(type) {
	case *types.ArrayValue:
		for _, v := range h.Elements() {
			if v.Equal(needle) {
				return types.True, nil
			}
		}
		return types.False, nil
	case *types.DictValue:
		_, ok := h.Get(needle)
		return types.NewBool(ok), nil
	case types.TextValue:
		n, ok := needle.(types.TextValue)
		if !ok {
			return nil, operandError(parser.OP_IN, needle, haystack)
		}
		return types.NewBool(strings.Contains(h.Value(), n.Value())), nil
	case types.RecordValue:
		n, ok := needle.(types.TextValue)
		if !ok {
			return nil, operandError(parser.OP_IN, needle, haystack)
		}
		rec, err := e.recordOf(h, "right side of 'in'")
		if err != nil {
			return nil, err
		}
		v, _ := e.proc.store.Lookup(rec.ID, n.Value(), false)
		return types.NewBool(v != nil), nil
	}
	return nil, operandError(parser.OP_IN, needle, haystack)
}

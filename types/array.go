package types

import "strings"

// ArrayValue is an ordered, mutable sequence. Indexed assignment mutates
// the array held by a variable in place, so values are duplicated
// whenever they are read by value.
type ArrayValue struct {
	elems []Value
}

// NewArray creates an array from elements (the slice is taken over)
func NewArray(elems []Value) *ArrayValue {
	if elems == nil {
		elems = []Value{}
	}
	return &ArrayValue{elems: elems}
}

func (a *ArrayValue) Type() TypeCode { return TYPE_ARRAY }

func (a *ArrayValue) String() string {
	parts := make([]string, len(a.elems))
	for i, e := range a.elems {
		parts[i] = Repr(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (a *ArrayValue) Truthy() bool { return len(a.elems) > 0 }

func (a *ArrayValue) Equal(other Value) bool {
	o, ok := other.(*ArrayValue)
	if !ok || len(o.elems) != len(a.elems) {
		return false
	}
	for i := range a.elems {
		if !a.elems[i].Equal(o.elems[i]) {
			return false
		}
	}
	return true
}

// Len returns the number of elements
func (a *ArrayValue) Len() int {
	return len(a.elems)
}

// index converts a possibly negative index to a slice position
func (a *ArrayValue) index(i int) (int, bool) {
	if i < 0 {
		i += len(a.elems)
	}
	return i, i >= 0 && i < len(a.elems)
}

// At returns the element at i; negative indices count from the end
func (a *ArrayValue) At(i int) (Value, error) {
	pos, ok := a.index(i)
	if !ok {
		return nil, NewError(E_RANGE, "index %d out of range for array of %d elements", i, len(a.elems))
	}
	return a.elems[pos], nil
}

// Set replaces the element at i
func (a *ArrayValue) Set(i int, v Value) error {
	pos, ok := a.index(i)
	if !ok {
		return NewError(E_RANGE, "index %d out of range for array of %d elements", i, len(a.elems))
	}
	a.elems[pos] = v
	return nil
}

// Append adds an element at the end
func (a *ArrayValue) Append(v Value) {
	a.elems = append(a.elems, v)
}

// Remove deletes the element at i
func (a *ArrayValue) Remove(i int) error {
	pos, ok := a.index(i)
	if !ok {
		return NewError(E_RANGE, "index %d out of range for array of %d elements", i, len(a.elems))
	}
	a.elems = append(a.elems[:pos], a.elems[pos+1:]...)
	return nil
}

// Slice returns a new array of elements [start, end), clamped to bounds
func (a *ArrayValue) Slice(start, end int) *ArrayValue {
	start, end = clampRange(start, end, len(a.elems))
	out := make([]Value, end-start)
	copy(out, a.elems[start:end])
	return &ArrayValue{elems: out}
}

// Elements returns the backing elements for iteration
func (a *ArrayValue) Elements() []Value {
	return a.elems
}

// clampRange resolves negative bounds and clamps to [0, n]
func clampRange(start, end, n int) (int, int) {
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}
	if end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return start, end
}

// SliceText returns the runes of s in [start, end), clamped to bounds
func SliceText(s string, start, end int) string {
	runes := []rune(s)
	start, end = clampRange(start, end, len(runes))
	return string(runes[start:end])
}

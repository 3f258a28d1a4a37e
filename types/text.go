package types

import "strconv"

// TextValue is an immutable string
type TextValue struct {
	val string
}

// NewText creates a new text value
func NewText(s string) TextValue {
	return TextValue{val: s}
}

func (t TextValue) Type() TypeCode { return TYPE_TEXT }
func (t TextValue) String() string { return t.val }
func (t TextValue) Truthy() bool   { return len(t.val) > 0 }

// Equal is case-sensitive
func (t TextValue) Equal(other Value) bool {
	o, ok := other.(TextValue)
	return ok && t.val == o.val
}

// Value returns the Go string
func (t TextValue) Value() string {
	return t.val
}

// Quoted returns the text as a literal
func (t TextValue) Quoted() string {
	return strconv.Quote(t.val)
}

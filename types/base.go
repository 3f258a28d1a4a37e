package types

import "fmt"

// RecordID is a stable handle to a Record in the store.
// Records never reference each other through Go pointers; a deleted
// record's handle simply stops resolving.
type RecordID int64

// NoRecord is the null record handle
const NoRecord RecordID = -1

// String returns the handle in #N form
func (id RecordID) String() string {
	if id == NoRecord {
		return "#none"
	}
	return fmt.Sprintf("#%d", id)
}

// Value is the interface all script values implement.
// The set of implementations is closed: NoneValue, NumberValue, TextValue,
// *ArrayValue, *DictValue, RecordValue, RefValue and FunctionValue.
type Value interface {
	Type() TypeCode
	String() string   // display form, as print shows it
	Equal(Value) bool // deep equality
	Truthy() bool
}

// NoneValue is the absence of a value
type NoneValue struct{}

// None is the shared None value
var None = NoneValue{}

func (NoneValue) Type() TypeCode { return TYPE_NONE }
func (NoneValue) String() string { return "None" }
func (NoneValue) Truthy() bool   { return false }

func (NoneValue) Equal(other Value) bool {
	_, ok := other.(NoneValue)
	return ok
}

// Repr returns the literal form of a value: texts are quoted so that
// nested elements of arrays and dictionaries read unambiguously.
func Repr(v Value) string {
	if t, ok := v.(TextValue); ok {
		return t.Quoted()
	}
	if v == nil {
		return "None"
	}
	return v.String()
}

// Duplicate copies a value for storage in another variable.
// Arrays and dictionaries are copied element by element, owning record
// values become plain references, everything else is shared.
func Duplicate(v Value) Value {
	switch val := v.(type) {
	case nil:
		return None
	case *ArrayValue:
		elems := make([]Value, len(val.elems))
		for i, e := range val.elems {
			elems[i] = Duplicate(e)
		}
		return &ArrayValue{elems: elems}
	case *DictValue:
		out := NewDict()
		for _, k := range val.order() {
			e := val.pairs[k]
			out.Set(Duplicate(e.key), Duplicate(e.val))
		}
		return out
	case RecordValue:
		return RecordValue{ID: val.ID}
	default:
		return v
	}
}

// Deref returns the value a reference points at, or v itself
func Deref(v Value) Value {
	if ref, ok := v.(RefValue); ok && ref.Var != nil {
		return ref.Var.Value()
	}
	return v
}

package types

// TypeCode identifies the kind of a Value (what typeof() reports)
type TypeCode int

const (
	TYPE_NONE     TypeCode = 0
	TYPE_NUMBER   TypeCode = 1
	TYPE_TEXT     TypeCode = 2
	TYPE_ARRAY    TypeCode = 3
	TYPE_DICT     TypeCode = 4
	TYPE_RECORD   TypeCode = 5
	TYPE_REF      TypeCode = 6
	TYPE_FUNCTION TypeCode = 7
)

// String returns the script-visible name of the type code
func (t TypeCode) String() string {
	switch t {
	case TYPE_NONE:
		return "None"
	case TYPE_NUMBER:
		return "Number"
	case TYPE_TEXT:
		return "Text"
	case TYPE_ARRAY:
		return "Array"
	case TYPE_DICT:
		return "Dictionary"
	case TYPE_RECORD:
		return "Record"
	case TYPE_REF:
		return "Reference"
	case TYPE_FUNCTION:
		return "Function"
	default:
		return "Unknown"
	}
}

package types

import "testing"

func TestTypeCodeNames(t *testing.T) {
	tests := []struct {
		code TypeCode
		name string
	}{
		{TYPE_NONE, "None"},
		{TYPE_NUMBER, "Number"},
		{TYPE_TEXT, "Text"},
		{TYPE_ARRAY, "Array"},
		{TYPE_DICT, "Dictionary"},
		{TYPE_RECORD, "Record"},
		{TYPE_REF, "Reference"},
		{TYPE_FUNCTION, "Function"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code.String() != tt.name {
				t.Errorf("String() = %q, expected %q", tt.code.String(), tt.name)
			}
		})
	}
}

func TestValueTypes(t *testing.T) {
	values := map[TypeCode]Value{
		TYPE_NONE:     None,
		TYPE_NUMBER:   NewNumber(1),
		TYPE_TEXT:     NewText("a"),
		TYPE_ARRAY:    NewArray(nil),
		TYPE_DICT:     NewDict(),
		TYPE_RECORD:   NewRecordRef(3),
		TYPE_REF:      RefValue{Var: NewVariable("x", nil)},
		TYPE_FUNCTION: NewFunction(NewNative("f", nil, nil)),
	}
	for code, v := range values {
		if v.Type() != code {
			t.Errorf("%T.Type() = %s, expected %s", v, v.Type(), code)
		}
	}
}

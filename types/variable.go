package types

// Variable is a named holder of exactly one value
type Variable struct {
	name     string
	value    Value
	readOnly bool

	// release is called with a replaced value that owned a record
	release func(old Value)
}

// NewVariable creates a variable holding v (None when v is nil)
func NewVariable(name string, v Value) *Variable {
	if v == nil {
		v = None
	}
	return &Variable{name: name, value: v}
}

// Name returns the variable's name
func (v *Variable) Name() string {
	return v.name
}

// Value returns the current value without copying it
func (v *Variable) Value() Value {
	return v.value
}

// Set replaces the value. Read-only variables refuse.
func (v *Variable) Set(val Value) error {
	if v.readOnly {
		return NewError(E_READONLY, "variable '%s' is read-only", v.name)
	}
	v.replace(val)
	return nil
}

// replace swaps in a new value and releases a previously owned record
func (v *Variable) replace(val Value) {
	if val == nil {
		val = None
	}
	old := v.value
	v.value = val
	if rec, ok := old.(RecordValue); ok && rec.Owned && v.release != nil {
		if nr, same := val.(RecordValue); same && nr.ID == rec.ID {
			return
		}
		v.release(old)
	}
}

// ReadOnly reports whether the variable refuses assignment
func (v *Variable) ReadOnly() bool {
	return v.readOnly
}

// SetReadOnly marks the variable constant
func (v *Variable) SetReadOnly(ro bool) {
	v.readOnly = ro
}

// SetRelease installs the hook used to delete owned records
func (v *Variable) SetRelease(fn func(old Value)) {
	v.release = fn
}

// Release runs the release hook for the current value, used when the
// variable itself is destroyed.
func (v *Variable) Release() {
	if rec, ok := v.value.(RecordValue); ok && rec.Owned && v.release != nil {
		v.value = None
		v.release(rec)
	}
}

// RefValue is a handle to a variable, produced by by-reference evaluation
type RefValue struct {
	Var *Variable
}

func (r RefValue) Type() TypeCode { return TYPE_REF }

func (r RefValue) String() string {
	if r.Var == nil {
		return "None"
	}
	return r.Var.Value().String()
}

func (r RefValue) Truthy() bool {
	return r.Var != nil && r.Var.Value().Truthy()
}

// Equal compares the referenced values
func (r RefValue) Equal(other Value) bool {
	return Deref(r).Equal(Deref(other))
}

// Assign stores a value through the reference
func (r RefValue) Assign(v Value) error {
	if r.Var == nil {
		return NewError(E_NOTFOUND, "reference to a deleted variable")
	}
	return r.Var.Set(v)
}

// Disown gives up ownership of a held record without deleting it.
// It reports whether the variable owned one.
func (v *Variable) Disown() bool {
	if rec, ok := v.value.(RecordValue); ok && rec.Owned {
		v.value = RecordValue{ID: rec.ID}
		return true
	}
	return false
}

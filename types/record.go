package types

import "fmt"

// RecordValue refers to a Record in the store. An owning value is
// responsible for the record: when the variable holding it is overwritten
// or deleted, the record is deleted too. Reading an owning value by value
// yields a non-owning reference.
type RecordValue struct {
	ID    RecordID
	Owned bool
}

// NewRecordRef creates a non-owning record reference
func NewRecordRef(id RecordID) RecordValue {
	return RecordValue{ID: id}
}

// NewOwnedRecord creates a record value that owns its record
func NewOwnedRecord(id RecordID) RecordValue {
	return RecordValue{ID: id, Owned: true}
}

func (r RecordValue) Type() TypeCode { return TYPE_RECORD }
func (r RecordValue) String() string { return fmt.Sprintf("<Record %s>", r.ID) }
func (r RecordValue) Truthy() bool   { return r.ID != NoRecord }

func (r RecordValue) Equal(other Value) bool {
	o, ok := other.(RecordValue)
	return ok && o.ID == r.ID
}

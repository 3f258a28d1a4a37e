package vm

import (
	"ember/db"
	"ember/types"
)

// Iterator yields the values a for statement binds in turn
type Iterator interface {
	Next() (types.Value, bool)
}

// sliceIterator walks a snapshot taken when the loop started
type sliceIterator struct {
	values []types.Value
	pos    int
}

func (it *sliceIterator) Next() (types.Value, bool) {
	if it.pos >= len(it.values) {
		return nil, false
	}
	v := it.values[it.pos]
	it.pos++
	return types.Duplicate(v), true
}

// newIterator iterates array elements, dictionary keys in sorted order,
// the characters of a text, or the member names of a record
func newIterator(store *db.Store, v types.Value) (Iterator, error) {
	switch val := v.(type) {
	case *types.ArrayValue:
		snapshot := make([]types.Value, val.Len())
		copy(snapshot, val.Elements())
		return &sliceIterator{values: snapshot}, nil
	case *types.DictValue:
		return &sliceIterator{values: val.Keys()}, nil
	case types.TextValue:
		runes := []rune(val.Value())
		chars := make([]types.Value, len(runes))
		for i, r := range runes {
			chars[i] = types.NewText(string(r))
		}
		return &sliceIterator{values: chars}, nil
	case types.RecordValue:
		rec := store.Get(val.ID)
		if rec == nil {
			return nil, types.NewError(types.E_NOTFOUND, "record %s has been deleted", val.ID)
		}
		names := rec.Members()
		values := make([]types.Value, len(names))
		for i, name := range names {
			values[i] = types.NewText(name)
		}
		return &sliceIterator{values: values}, nil
	}
	return nil, types.NewError(types.E_TYPE, "%s is not iterable", v.Type())
}

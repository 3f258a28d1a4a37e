package db

import (
	"ember/types"
)

// Observer is notified when a record it watches is deleted
type Observer interface {
	RecordDeleted(id types.RecordID)
}

// Record is a namespace: an ordered set of named Variables plus supers.
// CRITICAL: cross-record references are RecordIDs, never Go pointers.
// A holder that must not outlive a record joins its audience.
type Record struct {
	ID     types.RecordID
	Name   string           // label for diagnostics, may be empty
	Supers []types.RecordID // NOT []*Record

	store    *Store
	members  map[string]*types.Variable
	order    []string
	audience []Observer
}

// Has reports whether the record itself defines name
func (r *Record) Has(name string) bool {
	_, ok := r.members[name]
	return ok
}

// Get returns the record's own member, nil when missing
func (r *Record) Get(name string) *types.Variable {
	return r.members[name]
}

// Add creates a member holding None. An existing member of the same name
// is removed first, releasing what it owned.
func (r *Record) Add(name string) *types.Variable {
	if _, ok := r.members[name]; ok {
		r.Remove(name)
	}
	v := types.NewVariable(name, types.None)
	v.SetRelease(r.store.release)
	r.members[name] = v
	r.order = append(r.order, name)
	return v
}

// Set assigns a member, creating it when missing
func (r *Record) Set(name string, value types.Value) error {
	v := r.members[name]
	if v == nil {
		v = r.Add(name)
	}
	return v.Set(value)
}

// Remove deletes a member; an owned record it held is deleted too
func (r *Record) Remove(name string) bool {
	v, ok := r.members[name]
	if !ok {
		return false
	}
	delete(r.members, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	v.Release()
	return true
}

// Members returns the member names in definition order
func (r *Record) Members() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Len returns the number of members
func (r *Record) Len() int { return len(r.order) }

// Clear removes every member
func (r *Record) Clear() {
	for _, name := range r.Members() {
		r.Remove(name)
	}
}

// Subrecords returns the names of members that own a record, in order
func (r *Record) Subrecords() []string {
	var out []string
	for _, name := range r.order {
		if rv, ok := r.members[name].Value().(types.RecordValue); ok && rv.Owned {
			out = append(out, name)
		}
	}
	return out
}

// Observe adds o to the audience notified when the record is deleted
func (r *Record) Observe(o Observer) {
	for _, x := range r.audience {
		if x == o {
			return
		}
	}
	r.audience = append(r.audience, o)
}

// Unobserve removes o from the audience
func (r *Record) Unobserve(o Observer) {
	for i, x := range r.audience {
		if x == o {
			r.audience = append(r.audience[:i], r.audience[i+1:]...)
			return
		}
	}
}

// superLink is the audience entry a record places on each of its supers
type superLink struct {
	store  *Store
	holder types.RecordID
}

func (l superLink) RecordDeleted(id types.RecordID) {
	if rec := l.store.Get(l.holder); rec != nil {
		rec.Supers = removeID(rec.Supers, id)
	}
}

func removeID(ids []types.RecordID, id types.RecordID) []types.RecordID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

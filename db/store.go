package db

import (
	"sync"

	"ember/types"
)

// Store is the arena every Record lives in. Records are addressed by
// RecordID; a deleted record's id never resolves again.
//
// The arena maps are guarded by a mutex, but records themselves are not
// synchronized: a Store belongs to one Process tree at a time.
type Store struct {
	mu      sync.RWMutex
	records map[types.RecordID]*Record
	nextID  types.RecordID
}

// NewStore creates a new empty record store
func NewStore() *Store {
	return &Store{
		records: make(map[types.RecordID]*Record),
	}
}

// New allocates an empty record
func (s *Store) New(name string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &Record{
		ID:      s.nextID,
		Name:    name,
		store:   s,
		members: make(map[string]*types.Variable),
	}
	s.records[rec.ID] = rec
	s.nextID++
	return rec
}

// Get retrieves a record by ID
// Returns nil if the record doesn't exist or was deleted
func (s *Store) Get(id types.RecordID) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id]
}

// Valid checks if a record exists
func (s *Store) Valid(id types.RecordID) bool {
	return s.Get(id) != nil
}

// Len returns the number of live records
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Delete destroys a record. Its audience is told first, then its links to
// supers are dropped, then its members are released, which deletes every
// record it owns.
func (s *Store) Delete(id types.RecordID) error {
	s.mu.Lock()
	rec, ok := s.records[id]
	if ok {
		delete(s.records, id)
	}
	s.mu.Unlock()
	if !ok {
		return types.NewError(types.E_NOTFOUND, "record %s does not exist", id)
	}

	audience := append([]Observer(nil), rec.audience...)
	rec.audience = nil
	for _, o := range audience {
		o.RecordDeleted(id)
	}
	for _, sup := range rec.Supers {
		if sr := s.Get(sup); sr != nil {
			sr.Unobserve(superLink{store: s, holder: id})
		}
	}
	rec.Supers = nil
	rec.Clear()
	return nil
}

// release is the hook every record-held Variable calls when it drops a
// value: an owned record goes with it.
func (s *Store) release(old types.Value) {
	if rv, ok := old.(types.RecordValue); ok && rv.Owned {
		if s.Valid(rv.ID) {
			s.Delete(rv.ID)
		}
	}
}

// AddSuper appends super to rec's supers.
// A super that would make the chain cyclic is rejected with a ScopeError.
func (s *Store) AddSuper(id, super types.RecordID) error {
	rec, sr := s.Get(id), s.Get(super)
	if rec == nil || sr == nil {
		return types.NewError(types.E_NOTFOUND, "cannot derive %s from %s: record does not exist", id, super)
	}
	if id == super || s.Inherits(super, id) {
		return types.NewError(types.E_SCOPE, "cannot derive %s from %s: cyclic inheritance", id, super)
	}
	for _, x := range rec.Supers {
		if x == super {
			return nil
		}
	}
	rec.Supers = append(rec.Supers, super)
	sr.Observe(superLink{store: s, holder: id})
	return nil
}

// RemoveSuper detaches super from rec
func (s *Store) RemoveSuper(id, super types.RecordID) {
	if rec := s.Get(id); rec != nil {
		rec.Supers = removeID(rec.Supers, super)
	}
	if sr := s.Get(super); sr != nil {
		sr.Unobserve(superLink{store: s, holder: id})
	}
}

// Inherits reports whether ancestor is reachable through id's supers
func (s *Store) Inherits(id, ancestor types.RecordID) bool {
	visited := make(map[types.RecordID]bool)
	var walk func(types.RecordID) bool
	walk = func(cur types.RecordID) bool {
		if visited[cur] {
			return false
		}
		visited[cur] = true
		rec := s.Get(cur)
		if rec == nil {
			return false
		}
		for _, sup := range rec.Supers {
			if sup == ancestor || walk(sup) {
				return true
			}
		}
		return false
	}
	return walk(id)
}

// Lookup finds name in a record. The record's own members win; otherwise,
// unless localOnly, its supers are searched in reverse declaration order,
// each one depth first. It returns the variable and the record defining it.
func (s *Store) Lookup(id types.RecordID, name string, localOnly bool) (*types.Variable, types.RecordID) {
	visited := make(map[types.RecordID]bool)
	var walk func(types.RecordID) (*types.Variable, types.RecordID)
	walk = func(cur types.RecordID) (*types.Variable, types.RecordID) {
		if visited[cur] {
			return nil, types.NoRecord
		}
		visited[cur] = true
		rec := s.Get(cur)
		if rec == nil {
			return nil, types.NoRecord
		}
		if v := rec.Get(name); v != nil {
			return v, cur
		}
		if localOnly {
			return nil, types.NoRecord
		}
		for i := len(rec.Supers) - 1; i >= 0; i-- {
			if v, at := walk(rec.Supers[i]); v != nil {
				return v, at
			}
		}
		return nil, types.NoRecord
	}
	return walk(id)
}

// Subrecord creates an empty record owned by parent's member name,
// replacing any previous member of that name
func (s *Store) Subrecord(parent types.RecordID, name string) (*Record, error) {
	p := s.Get(parent)
	if p == nil {
		return nil, types.NewError(types.E_NOTFOUND, "record %s does not exist", parent)
	}
	child := s.New(name)
	v := p.Add(name)
	if err := v.Set(types.NewOwnedRecord(child.ID)); err != nil {
		return nil, err
	}
	return child, nil
}

// Copy makes an independent copy of a record: members are duplicated,
// owned subrecords are copied recursively, supers are shared.
func (s *Store) Copy(id types.RecordID) (*Record, error) {
	src := s.Get(id)
	if src == nil {
		return nil, types.NewError(types.E_NOTFOUND, "record %s does not exist", id)
	}
	dst := s.New(src.Name)
	for _, name := range src.order {
		v := src.members[name]
		value := v.Value()
		if rv, ok := value.(types.RecordValue); ok && rv.Owned && s.Valid(rv.ID) {
			child, err := s.Copy(rv.ID)
			if err != nil {
				return nil, err
			}
			value = types.NewOwnedRecord(child.ID)
		} else {
			value = types.Duplicate(value)
		}
		nv := dst.Add(name)
		nv.Set(value)
		nv.SetReadOnly(v.ReadOnly())
	}
	for _, sup := range src.Supers {
		if err := s.AddSuper(dst.ID, sup); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// All returns the ids of all live records
func (s *Store) All() []types.RecordID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]types.RecordID, 0, len(s.records))
	for id := range s.records {
		result = append(result, id)
	}
	return result
}

package db

import (
	"errors"
	"testing"

	"ember/types"
)

func TestStoreBasics(t *testing.T) {
	store := NewStore()

	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}

	rec := store.New("a")
	if got := store.Get(rec.ID); got != rec {
		t.Fatalf("Get(%s) = %v, want the new record", rec.ID, got)
	}
	other := store.New("b")
	if other.ID == rec.ID {
		t.Error("records should get distinct ids")
	}
	if store.Valid(types.NoRecord) {
		t.Error("Valid(NoRecord) = true")
	}

	if err := store.Delete(rec.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.Valid(rec.ID) {
		t.Error("deleted record should not resolve")
	}
	if err := store.Delete(rec.ID); !errors.Is(err, types.Kind(types.E_NOTFOUND)) {
		t.Errorf("second Delete() error = %v, want NotFoundError", err)
	}
}

func TestRecordMembers(t *testing.T) {
	store := NewStore()
	rec := store.New("r")

	rec.Set("b", types.NewNumber(2))
	rec.Set("a", types.NewNumber(1))
	rec.Set("b", types.NewNumber(3))

	if got := rec.Members(); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Errorf("Members() = %v, want [b a]", got)
	}
	if v := rec.Get("b").Value(); !v.Equal(types.NewNumber(3)) {
		t.Errorf("b = %s, want 3", v)
	}
	if !rec.Remove("a") || rec.Has("a") {
		t.Error("Remove(a) should delete the member")
	}
	if rec.Remove("missing") {
		t.Error("Remove(missing) = true")
	}
}

func TestLookupShadowing(t *testing.T) {
	store := NewStore()
	base := store.New("S")
	rec := store.New("R")
	base.Set("x", types.NewText("super"))
	rec.Set("x", types.NewText("own"))
	if err := store.AddSuper(rec.ID, base.ID); err != nil {
		t.Fatal(err)
	}

	v, at := store.Lookup(rec.ID, "x", false)
	if v == nil || v.Value().String() != "own" || at != rec.ID {
		t.Errorf("Lookup(x) = %v at %s, want own member", v, at)
	}

	if v, _ := store.Lookup(rec.ID, "y", false); v != nil {
		t.Error("Lookup(y) should fail")
	}
}

func TestLookupReverseSuperOrder(t *testing.T) {
	store := NewStore()
	s1 := store.New("S1")
	s2 := store.New("S2")
	deep := store.New("Deep")
	rec := store.New("R")

	deep.Set("x", types.NewText("deep"))
	s1.Set("x", types.NewText("s1"))
	s1.Set("y", types.NewText("s1"))
	store.AddSuper(s2.ID, deep.ID)
	store.AddSuper(rec.ID, s1.ID)
	store.AddSuper(rec.ID, s2.ID)

	// S2 was declared last, so its chain is searched first
	if v, at := store.Lookup(rec.ID, "x", false); v == nil || at != deep.ID {
		t.Errorf("Lookup(x) found at %s, want %s", at, deep.ID)
	}
	if v, at := store.Lookup(rec.ID, "y", false); v == nil || at != s1.ID {
		t.Errorf("Lookup(y) found at %s, want %s", at, s1.ID)
	}
	if v, _ := store.Lookup(rec.ID, "x", true); v != nil {
		t.Error("local-only lookup must not consult supers")
	}
}

func TestAddSuperRejectsCycles(t *testing.T) {
	store := NewStore()
	a := store.New("a")
	b := store.New("b")
	c := store.New("c")
	store.AddSuper(b.ID, a.ID)
	store.AddSuper(c.ID, b.ID)

	tests := []struct {
		name       string
		rec, super types.RecordID
	}{
		{"self", a.ID, a.ID},
		{"direct", a.ID, b.ID},
		{"indirect", a.ID, c.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.AddSuper(tt.rec, tt.super)
			if !errors.Is(err, types.Kind(types.E_SCOPE)) {
				t.Errorf("AddSuper() error = %v, want ScopeError", err)
			}
		})
	}
}

type deletionWatcher struct {
	seen []types.RecordID
}

func (w *deletionWatcher) RecordDeleted(id types.RecordID) {
	w.seen = append(w.seen, id)
}

func TestDeleteNotifiesAudience(t *testing.T) {
	store := NewStore()
	base := store.New("base")
	derived := store.New("derived")
	store.AddSuper(derived.ID, base.ID)

	w := &deletionWatcher{}
	base.Observe(w)
	base.Observe(w)

	if err := store.Delete(base.ID); err != nil {
		t.Fatal(err)
	}
	if len(w.seen) != 1 || w.seen[0] != base.ID {
		t.Errorf("watcher saw %v, want [%s]", w.seen, base.ID)
	}
	if len(derived.Supers) != 0 {
		t.Errorf("derived still lists supers %v", derived.Supers)
	}
}

func TestOwnedRecordsAreReleased(t *testing.T) {
	store := NewStore()
	root := store.New("root")
	child, err := store.Subrecord(root.ID, "child")
	if err != nil {
		t.Fatal(err)
	}
	grandchild, _ := store.Subrecord(child.ID, "inner")

	// a plain reference does not own
	root.Set("alias", types.NewRecordRef(child.ID))
	root.Remove("alias")
	if !store.Valid(child.ID) {
		t.Fatal("removing a reference must not delete the record")
	}

	// overwriting the owner deletes the whole subtree
	root.Set("child", types.NewNumber(0))
	if store.Valid(child.ID) || store.Valid(grandchild.ID) {
		t.Error("overwriting an owning variable should delete owned records")
	}

	// replacing a subrecord of the same name replaces, not merges
	first, _ := store.Subrecord(root.ID, "sub")
	first.Set("x", types.NewNumber(1))
	second, _ := store.Subrecord(root.ID, "sub")
	if store.Valid(first.ID) || second.Has("x") {
		t.Error("Subrecord should replace the previous member")
	}
	if got := root.Subrecords(); len(got) != 1 || got[0] != "sub" {
		t.Errorf("Subrecords() = %v, want [sub]", got)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	store := NewStore()
	base := store.New("base")
	src := store.New("src")
	store.AddSuper(src.ID, base.ID)
	src.Set("list", types.NewArray([]types.Value{types.NewNumber(1)}))
	inner, _ := store.Subrecord(src.ID, "inner")
	inner.Set("v", types.NewNumber(7))

	dup, err := store.Copy(src.ID)
	if err != nil {
		t.Fatal(err)
	}
	dup.Get("list").Value().(*types.ArrayValue).Append(types.NewNumber(2))
	if got := src.Get("list").Value().String(); got != "[1]" {
		t.Errorf("source list = %s, want [1]", got)
	}

	dupInner := dup.Get("inner").Value().(types.RecordValue)
	if dupInner.ID == inner.ID || !dupInner.Owned {
		t.Error("owned subrecords should be copied")
	}
	if len(dup.Supers) != 1 || dup.Supers[0] != base.ID {
		t.Errorf("copy supers = %v, want [%s]", dup.Supers, base.ID)
	}
}

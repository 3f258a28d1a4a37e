package types

import (
	"fmt"
	"sort"
	"strings"
)

// dictEntry stores a key-value pair
type dictEntry struct {
	key Value
	val Value
}

// DictValue maps values to values. Keys are compared by kind and literal
// form, so the number 1 and the text "1" are different keys.
type DictValue struct {
	pairs map[string]dictEntry
}

// NewDict creates an empty dictionary
func NewDict() *DictValue {
	return &DictValue{pairs: make(map[string]dictEntry)}
}

// keyHash converts a value to a comparable Go map key
func keyHash(v Value) string {
	v = Deref(v)
	if n, ok := v.(NumberValue); ok {
		return fmt.Sprintf("%d:%v", TYPE_NUMBER, n.Val)
	}
	return fmt.Sprintf("%d:%s", v.Type(), Repr(v))
}

func (d *DictValue) Type() TypeCode { return TYPE_DICT }

func (d *DictValue) String() string {
	keys := d.order()
	parts := make([]string, len(keys))
	for i, h := range keys {
		e := d.pairs[h]
		parts[i] = Repr(e.key) + ": " + Repr(e.val)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (d *DictValue) Truthy() bool { return len(d.pairs) > 0 }

func (d *DictValue) Equal(other Value) bool {
	o, ok := other.(*DictValue)
	if !ok || len(o.pairs) != len(d.pairs) {
		return false
	}
	for h, e := range d.pairs {
		oe, ok := o.pairs[h]
		if !ok || !e.val.Equal(oe.val) {
			return false
		}
	}
	return true
}

// Len returns the number of keys
func (d *DictValue) Len() int {
	return len(d.pairs)
}

// Get looks up a key
func (d *DictValue) Get(key Value) (Value, bool) {
	e, ok := d.pairs[keyHash(key)]
	if !ok {
		return nil, false
	}
	return e.val, true
}

// Set stores a value under key, replacing any previous value
func (d *DictValue) Set(key, val Value) {
	key = Deref(key)
	d.pairs[keyHash(key)] = dictEntry{key: key, val: val}
}

// Delete removes a key; it reports whether the key existed
func (d *DictValue) Delete(key Value) bool {
	h := keyHash(key)
	if _, ok := d.pairs[h]; !ok {
		return false
	}
	delete(d.pairs, h)
	return true
}

// order returns the hashes sorted so output and iteration are stable
func (d *DictValue) order() []string {
	keys := make([]string, 0, len(d.pairs))
	for h := range d.pairs {
		keys = append(keys, h)
	}
	sort.Strings(keys)
	return keys
}

// Keys returns the keys in a stable order
func (d *DictValue) Keys() []Value {
	order := d.order()
	keys := make([]Value, len(order))
	for i, h := range order {
		keys[i] = d.pairs[h].key
	}
	return keys
}

// Values returns the values in key order
func (d *DictValue) Values() []Value {
	order := d.order()
	vals := make([]Value, len(order))
	for i, h := range order {
		vals[i] = d.pairs[h].val
	}
	return vals
}

package vm

import (
	"ember/db"
	"ember/parser"
	"ember/types"
)

// namespaces returns the records a name is searched in, innermost first.
// Record bodies stack on the namespace below them; a function call sees
// its locals and then the globals of the module it was defined in.
func (p *Process) namespaces() []types.RecordID {
	var out []types.RecordID
	for i := len(p.contexts) - 1; i >= 0; i-- {
		c := p.contexts[i]
		if c.namespace != types.NoRecord {
			out = append(out, c.namespace)
		}
		switch c.kind {
		case CONTEXT_BASE, CONTEXT_GLOBAL_NAMESPACE:
			return out
		case CONTEXT_FUNCTION_CALL:
			g := p.globalsBelow(i)
			if g != types.NoRecord && (len(out) == 0 || out[len(out)-1] != g) {
				out = append(out, g)
			}
			return out
		}
	}
	return out
}

// globalsBelow finds the globals in effect for the context at index i
func (p *Process) globalsBelow(i int) types.RecordID {
	for j := i - 1; j >= 0; j-- {
		c := p.contexts[j]
		if c.kind == CONTEXT_GLOBAL_NAMESPACE || c.kind == CONTEXT_BASE {
			return c.namespace
		}
	}
	return p.globals
}

// currentGlobals is the globals namespace of the running code
func (p *Process) currentGlobals() types.RecordID {
	return p.globalsBelow(len(p.contexts))
}

// localNamespace is the innermost namespace, where new names are created
func (p *Process) localNamespace() (*db.Record, error) {
	c := p.top()
	if c == nil {
		return nil, types.NewError(types.E_SCOPE, "no active context")
	}
	rec := p.store.Get(c.namespace)
	if rec == nil {
		return nil, types.NewError(types.E_NOTFOUND, "the local namespace has been deleted")
	}
	return rec, nil
}

// throwaway receives assignments that must have no effect
func throwaway(name string) *types.Variable {
	return types.NewVariable(name, types.None)
}

// lookup resolves a name to its variable following the name's flags
func (e *Evaluator) lookup(n *parser.NameExpr) (*types.Variable, error) {
	if n.Scoped() {
		return e.lookupScoped(n)
	}
	name := n.Identifier()
	store := e.proc.store
	spaces := e.proc.namespaces()
	if len(spaces) == 0 {
		return nil, types.NewError(types.E_NOTFOUND, "the local namespace has been deleted")
	}

	var found *types.Variable
	if n.Flags.Has(parser.NAME_LOCAL_ONLY) {
		if rec := store.Get(spaces[0]); rec != nil {
			found = rec.Get(name)
		}
	} else {
		for _, ns := range spaces {
			if v, _ := store.Lookup(ns, name, false); v != nil {
				found = v
				break
			}
		}
	}

	if found != nil {
		switch {
		case n.Flags.Has(parser.NAME_NOT_IN_SCOPE):
			return nil, types.NewError(types.E_EXISTS, "'%s' already exists", name)
		case n.Flags.Has(parser.NAME_THROWAWAY_IF_IN_SCOPE):
			return throwaway(name), nil
		}
		return found, nil
	}

	rec := store.Get(spaces[0])
	if rec == nil {
		return nil, types.NewError(types.E_NOTFOUND, "the local namespace has been deleted")
	}
	switch {
	case n.Flags.Has(parser.NAME_NEW_SUBRECORD):
		if _, err := store.Subrecord(rec.ID, name); err != nil {
			return nil, err
		}
		return rec.Get(name), nil
	case n.Flags.Has(parser.NAME_NEW_VARIABLE):
		return rec.Add(name), nil
	}
	return nil, types.NewError(types.E_NOTFOUND, "'%s' not found", name)
}

// lookupScoped resolves A::B::c: A is found normally, every following
// segment is a member of the record before it. A segment may come from
// that record's supers, so S::f reaches an inherited f; enclosing scopes
// are never searched.
func (e *Evaluator) lookupScoped(n *parser.NameExpr) (*types.Variable, error) {
	head := &parser.NameExpr{Pos: n.Pos, Segments: n.Segments[:1]}
	v, err := e.lookup(head)
	if err != nil {
		return nil, err
	}
	store := e.proc.store
	for i, seg := range n.Segments[1:] {
		prev := n.Segments[i]
		rv, ok := types.Deref(v.Value()).(types.RecordValue)
		if !ok || !store.Valid(rv.ID) {
			return nil, types.NewError(types.E_SCOPE, "'%s' is not a record", prev)
		}
		next, _ := store.Lookup(rv.ID, seg, false)
		if next == nil {
			last := i == len(n.Segments)-2
			if last && n.Flags.Has(parser.NAME_NEW_VARIABLE) {
				next = store.Get(rv.ID).Add(seg)
			} else {
				return nil, types.NewError(types.E_NOTFOUND, "'%s' not found in '%s'", seg, prev)
			}
		}
		v = next
	}
	if n.Flags.Has(parser.NAME_NOT_IN_SCOPE) {
		return nil, types.NewError(types.E_EXISTS, "'%s' already exists", n.Identifier())
	}
	return v, nil
}

// recordOf converts a value to the record it refers to
func (e *Evaluator) recordOf(v types.Value, what string) (*db.Record, error) {
	rv, ok := types.Deref(v).(types.RecordValue)
	if !ok {
		return nil, types.NewError(types.E_TYPE, "%s is not a record: %s", what, types.Deref(v).Type())
	}
	rec := e.proc.store.Get(rv.ID)
	if rec == nil {
		return nil, types.NewError(types.E_NOTFOUND, "record %s has been deleted", rv.ID)
	}
	return rec, nil
}

// memberVariable finds a member for reading: the record's own members
// first, then its supers
func (e *Evaluator) memberVariable(rec *db.Record, name string) (*types.Variable, error) {
	v, _ := e.proc.store.Lookup(rec.ID, name, false)
	if v == nil {
		return nil, types.NewError(types.E_NOTFOUND, "'%s' not found in record", name)
	}
	return v, nil
}

// memberTarget finds a member for assignment: always in the record itself
func memberTarget(rec *db.Record, name string) *types.Variable {
	if v := rec.Get(name); v != nil {
		return v
	}
	return rec.Add(name)
}

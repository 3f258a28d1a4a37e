package vm

import (
	"fmt"
	"strings"

	"ember/db"
	"ember/parser"
	"ember/types"
)

// installErrorKinds adds one record per catchable error kind to globals,
// derived along the kind families, so scripts can throw and extend them:
//
//	record MissingConfig(KeyError) end
//	throw MissingConfig("no such key")
func (p *Process) installErrorKinds(globals *db.Record) {
	kinds := make(map[types.ErrorCode]types.RecordID)
	for code := types.E_ERROR; code <= types.E_THROWN; code++ {
		if code == types.E_HANG || code == types.E_THROWN {
			continue
		}
		rec, err := p.store.Subrecord(globals.ID, code.String())
		if err != nil {
			continue
		}
		kinds[code] = rec.ID
		if code == types.E_ERROR {
			rec.Set("__init__", types.NewFunction(errorInit))
			continue
		}
		if parent, ok := kinds[code.Parent()]; ok {
			p.store.AddSuper(rec.ID, parent)
		}
	}
}

// errorInit is the initializer of the error kind records
var errorInit = types.NewNative("__init__", []string{"message"}, func(call *types.NativeCall) (types.Value, error) {
	p, ok := call.Host.(*Process)
	if !ok || call.Self == types.NoRecord {
		return types.None, nil
	}
	if rec := p.store.Get(call.Self); rec != nil && len(call.Args) > 0 {
		rec.Set("message", types.NewText(call.Args[0].String()))
	}
	return types.None, nil
})

// ancestors lists a record and every record reachable through its supers
func ancestors(store *db.Store, id types.RecordID) []*db.Record {
	var out []*db.Record
	visited := make(map[types.RecordID]bool)
	var walk func(types.RecordID)
	walk = func(cur types.RecordID) {
		if visited[cur] {
			return
		}
		visited[cur] = true
		rec := store.Get(cur)
		if rec == nil {
			return
		}
		out = append(out, rec)
		for _, sup := range rec.Supers {
			walk(sup)
		}
	}
	walk(id)
	return out
}

// thrownError builds the error raised by "throw value". A thrown record
// takes the most specific error kind its inheritance chain names.
func (p *Process) thrownError(v types.Value) *types.ScriptError {
	rv, ok := v.(types.RecordValue)
	if !ok {
		return types.Thrown(v)
	}
	se := &types.ScriptError{Code: types.E_THROWN, Value: v}
	found := false
	for _, rec := range ancestors(p.store, rv.ID) {
		code, ok := types.ErrorFromString(rec.Name)
		if !ok || code == types.E_HANG || code == types.E_THROWN {
			continue
		}
		if !found || code.IsA(se.Code) {
			se.Code = code
			found = true
		}
	}
	se.Message = rv.String()
	if rec := p.store.Get(rv.ID); rec != nil {
		if m := rec.Get("message"); m != nil {
			se.Message = m.Value().String()
		} else if rec.Name != "" {
			se.Message = rec.Name
		}
	}
	return se
}

// catchMatches reports whether a catch clause handles err. A pattern
// matches an error kind of the family it names, or a thrown record that
// is, or derives from, the record the pattern resolves to.
func (p *Process) catchMatches(s *parser.CatchStmt, err *types.ScriptError) bool {
	if len(s.Patterns) == 0 {
		return true
	}
	thrown, isRecord := err.Value.(types.RecordValue)
	for _, pat := range s.Patterns {
		if code, ok := types.ErrorFromString(pat); ok && err.Code.IsA(code) {
			return true
		}
		if !isRecord {
			continue
		}
		if id, ok := p.resolvePattern(pat); ok && (id == thrown.ID || p.store.Inherits(thrown.ID, id)) {
			return true
		}
	}
	return false
}

// resolvePattern finds the record a catch pattern names
func (p *Process) resolvePattern(pat string) (types.RecordID, bool) {
	c := p.top()
	if c == nil {
		return types.NoRecord, false
	}
	v, err := c.eval.lookup(&parser.NameExpr{Segments: strings.Split(pat, "::")})
	if err != nil {
		return types.NoRecord, false
	}
	rv, ok := types.Deref(v.Value()).(types.RecordValue)
	return rv.ID, ok
}

// caughtValue is what a catch variable is bound to: the thrown value, or
// the text of a runtime error. A thrown record's ownership passes to the
// first catch variable that receives it.
func caughtValue(err *types.ScriptError) types.Value {
	if err.Value == nil {
		return types.NewText(fmt.Sprintf("[%s] %s", err.Code, err.Message))
	}
	v := err.Value
	err.Value = types.Duplicate(v)
	return v
}

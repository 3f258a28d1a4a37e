package vm

import (
	"fmt"
	"strings"

	"ember/parser"
	"ember/types"
)

// exec executes one statement of c and moves c's statement pointer
func (p *Process) exec(c *Context, stmt parser.Stmt) error {
	e := c.eval
	id := c.Current()

	switch s := stmt.(type) {
	case *parser.ExprStmt:
		v, err := e.Eval(s.Expr)
		if err != nil {
			return err
		}
		p.discard(v)
		c.Proceed()

	case *parser.AssignStmt:
		if err := p.assign(c, s); err != nil {
			return err
		}
		c.Proceed()

	case *parser.IfStmt:
		for _, branch := range s.Branches {
			cond, err := e.EvalValue(branch.Cond)
			if err != nil {
				return err
			}
			if cond.Truthy() {
				c.startBody(branch.Body, s.Next)
				return nil
			}
		}
		if s.Else.Len() > 0 {
			c.startBody(s.Else, s.Next)
			return nil
		}
		c.Proceed()

	case *parser.WhileStmt:
		cond, err := e.EvalValue(s.Cond)
		if err != nil {
			return err
		}
		if !cond.Truthy() {
			c.Proceed()
			return nil
		}
		c.Start(s.Body.First(), id, id, id)

	case *parser.ForStmt:
		return p.iterate(c, s, id)

	case *parser.TryStmt:
		c.startBody(s.Body, s.Next)

	case *parser.CatchStmt:
		// reached without an error: the try body completed
		c.Proceed()

	case *parser.FlowStmt:
		return p.flow(c, s)

	case *parser.PrintStmt:
		parts := make([]string, 0, len(s.Args))
		for _, arg := range s.Args {
			v, err := e.EvalValue(arg)
			if err != nil {
				return err
			}
			parts = append(parts, v.String())
			p.discard(v)
		}
		fmt.Fprintln(p.Output(), strings.Join(parts, " "))
		c.Proceed()

	case *parser.DeleteStmt:
		for _, target := range s.Targets {
			if err := p.delete(c, target); err != nil {
				return err
			}
		}
		c.Proceed()

	case *parser.FunctionStmt:
		v, err := e.lookup(&parser.NameExpr{
			Pos:      s.Pos,
			Segments: []string{s.Name},
			Flags:    parser.NAME_LOCAL_ONLY | parser.NAME_NOT_IN_SCOPE | parser.NAME_NEW_VARIABLE,
		})
		if err != nil {
			return err
		}
		fn := newFunction(s, c.prog, p.currentGlobals())
		if err := v.Set(types.NewFunction(fn)); err != nil {
			return err
		}
		c.Proceed()

	case *parser.ScopeStmt:
		return p.defineRecord(c, s)

	case *parser.DeclareStmt:
		ns, err := p.localNamespace()
		if err != nil {
			return err
		}
		for _, name := range s.Names {
			if v := ns.Get(name); v != nil && v.ReadOnly() {
				return types.NewError(types.E_READONLY, "variable '%s' is read-only", name)
			}
			if _, err := p.store.Subrecord(ns.ID, name); err != nil {
				return err
			}
		}
		c.Proceed()

	case *parser.ImportStmt:
		if err := p.importModules(c, s); err != nil {
			return err
		}
		c.Proceed()

	default:
		return types.NewError(types.E_ERROR, "unknown statement type: %T", stmt)
	}
	return nil
}

// discard deletes a record owned by a value nobody stored
func (p *Process) discard(v types.Value) {
	if rv, ok := v.(types.RecordValue); ok && rv.Owned && p.store.Valid(rv.ID) {
		p.store.Delete(rv.ID)
	}
}

// assign evaluates the value once and stores it into every target,
// rightmost first. Only the rightmost target receives ownership.
func (p *Process) assign(c *Context, s *parser.AssignStmt) error {
	value, err := c.eval.EvalValue(s.Value)
	if err != nil {
		return err
	}
	for i := len(s.Targets) - 1; i >= 0; i-- {
		v := value
		if i != len(s.Targets)-1 {
			v = types.Duplicate(value)
		}
		if err := p.assignTarget(c, s.Targets[i], v, s.Const); err != nil {
			return err
		}
	}
	return nil
}

func (p *Process) assignTarget(c *Context, t parser.AssignTarget, v types.Value, isConst bool) error {
	e := c.eval
	if len(t.Indices) == 0 {
		ref, err := e.Eval(t.Target)
		if err != nil {
			return err
		}
		r, ok := ref.(types.RefValue)
		if !ok || r.Var == nil {
			return types.NewError(types.E_TYPE, "cannot assign to this expression")
		}
		if err := r.Var.Set(v); err != nil {
			return err
		}
		if isConst {
			r.Var.SetReadOnly(true)
		}
		return nil
	}

	container, err := e.place(t.Target)
	if err != nil {
		return err
	}
	last := len(t.Indices) - 1
	for _, idx := range t.Indices[:last] {
		key, err := e.EvalValue(idx)
		if err != nil {
			return err
		}
		if container, err = e.indexValue(container, key); err != nil {
			return err
		}
	}
	key, err := e.EvalValue(t.Indices[last])
	if err != nil {
		return err
	}
	return e.setIndex(container, key, v)
}

// iterate runs one round of a for statement. The iteration state lives
// on the flow entry the statement is current in.
func (p *Process) iterate(c *Context, s *parser.ForStmt, id parser.StmtID) error {
	if c.top().iteration == nil {
		iterable, err := c.eval.EvalValue(s.Iterable)
		if err != nil {
			return err
		}
		it, err := newIterator(p.store, iterable)
		if err != nil {
			return err
		}
		c.top().iteration = it
	}
	v, ok := c.top().iteration.Next()
	if !ok {
		c.Proceed()
		return nil
	}
	ref, err := c.eval.Eval(s.Iterator)
	if err != nil {
		return err
	}
	if err := ref.(types.RefValue).Assign(v); err != nil {
		return err
	}
	c.Start(s.Body.First(), id, id, id)
	return nil
}

// flow executes pass, continue, break, return and throw
func (p *Process) flow(c *Context, s *parser.FlowStmt) error {
	e := c.eval
	switch s.Kind {
	case parser.FLOW_CONTINUE:
		return c.JumpContinue()

	case parser.FLOW_BREAK:
		count := 1
		if s.Value != nil {
			v, err := e.EvalValue(s.Value)
			if err != nil {
				return err
			}
			n, ok := v.(types.NumberValue)
			if !ok {
				return types.NewError(types.E_TYPE, "break count must be a number, not %s", v.Type())
			}
			count = n.Int()
		}
		return c.JumpBreak(count)

	case parser.FLOW_RETURN:
		var v types.Value = types.None
		if s.Value != nil {
			var err error
			if v, err = e.EvalValue(s.Value); err != nil {
				return err
			}
		}
		p.doReturn(v)
		return nil

	case parser.FLOW_THROW:
		if s.Value == nil {
			if h := c.handling(); h != nil {
				return h
			}
			return types.NewError(types.E_FLOW, "nothing to re-throw outside of a catch")
		}
		v, err := e.EvalValue(s.Value)
		if err != nil {
			return err
		}
		return p.thrownError(v)
	}
	c.Proceed()
	return nil
}

// doReturn finishes the innermost function call, abandoning any record
// bodies running inside it. At the top level it ends the program.
func (p *Process) doReturn(v types.Value) {
	for i := len(p.contexts) - 1; i >= 0; i-- {
		c := p.contexts[i]
		if c.kind != CONTEXT_FUNCTION_CALL && c.kind != CONTEXT_BASE {
			continue
		}
		c.result = p.takeOwnership(c, v)
		c.Finish()
		for len(p.contexts)-1 > i {
			p.pop()
		}
		return
	}
}

// takeOwnership moves a returned record out of the function's locals so
// that it survives them
func (p *Process) takeOwnership(c *Context, v types.Value) types.Value {
	rv, ok := v.(types.RecordValue)
	if !ok || rv.Owned || c.kind != CONTEXT_FUNCTION_CALL {
		return v
	}
	locals := p.store.Get(c.namespace)
	if locals == nil {
		return v
	}
	for _, name := range locals.Members() {
		held, ok := locals.Get(name).Value().(types.RecordValue)
		if ok && held.Owned && held.ID == rv.ID && locals.Get(name).Disown() {
			return types.NewOwnedRecord(rv.ID)
		}
	}
	return v
}

// delete removes variables, record members or container elements
func (p *Process) delete(c *Context, target parser.Expr) error {
	e := c.eval
	switch t := target.(type) {
	case *parser.NameExpr:
		owner, err := p.localNamespace()
		if err != nil {
			return err
		}
		if t.Scoped() {
			prefix := &parser.NameExpr{Pos: t.Pos, Segments: t.Segments[:len(t.Segments)-1]}
			v, err := e.lookup(prefix)
			if err != nil {
				return err
			}
			if owner, err = e.recordOf(v.Value(), "'"+strings.Join(prefix.Segments, "::")+"'"); err != nil {
				return err
			}
		}
		return p.removeMember(owner.Get(t.Identifier()), func() bool { return owner.Remove(t.Identifier()) }, t.Identifier())

	case *parser.OperatorExpr:
		left, err := e.EvalValue(t.Left)
		if err != nil {
			return err
		}
		rec, err := e.recordOf(left, "left side of '.'")
		if err != nil {
			return err
		}
		name := t.Right.(*parser.NameExpr).Identifier()
		return p.removeMember(rec.Get(name), func() bool { return rec.Remove(name) }, name)

	case *parser.IndexExpr:
		container, err := e.place(t.Expr)
		if err != nil {
			return err
		}
		key, err := e.EvalValue(t.Index)
		if err != nil {
			return err
		}
		return e.deleteIndex(container, key)
	}
	return types.NewError(types.E_TYPE, "cannot delete this expression")
}

// removeMember deletes a variable. A record still serving as the
// namespace of a running context cannot be deleted through its owner.
func (p *Process) removeMember(v *types.Variable, remove func() bool, name string) error {
	if v == nil {
		return types.NewError(types.E_NOTFOUND, "'%s' not found", name)
	}
	if v.ReadOnly() {
		return types.NewError(types.E_READONLY, "variable '%s' is read-only", name)
	}
	if rv, ok := v.Value().(types.RecordValue); ok && rv.Owned && p.namespaceInUse(rv.ID) {
		return types.NewError(types.E_OWNERSHIP, "record '%s' is in use by a running context", name)
	}
	remove()
	return nil
}

func (p *Process) namespaceInUse(id types.RecordID) bool {
	for _, c := range p.contexts {
		if c.namespace == id {
			return true
		}
	}
	return false
}

// defineRecord runs "record Name(supers): body". An existing record of
// that name in the local namespace is extended rather than replaced.
func (p *Process) defineRecord(c *Context, s *parser.ScopeStmt) error {
	ns, err := p.localNamespace()
	if err != nil {
		return err
	}
	var target types.RecordID = types.NoRecord
	if v := ns.Get(s.Name); v != nil {
		if rv, ok := v.Value().(types.RecordValue); ok && p.store.Valid(rv.ID) {
			target = rv.ID
		} else if v.ReadOnly() {
			return types.NewError(types.E_READONLY, "variable '%s' is read-only", s.Name)
		}
	}
	if target == types.NoRecord {
		rec, err := p.store.Subrecord(ns.ID, s.Name)
		if err != nil {
			return err
		}
		target = rec.ID
	}
	for _, super := range s.Supers {
		v, err := c.eval.EvalValue(super)
		if err != nil {
			return err
		}
		sr, err := c.eval.recordOf(v, "super of "+s.Name)
		if err != nil {
			return err
		}
		if err := p.store.AddSuper(target, sr.ID); err != nil {
			return err
		}
	}
	c.Proceed()
	body := newContext(p, CONTEXT_NAMESPACE, c.prog, target)
	body.name = s.Name
	body.line = c.line
	p.push(body)
	body.startBody(s.Body, parser.NoStmt)
	return nil
}

// importModules binds each named module in the local namespace, by
// reference or, for "import record", as an owned copy
func (p *Process) importModules(c *Context, s *parser.ImportStmt) error {
	if p.opts.Modules == nil {
		return types.NewError(types.E_IMPORT, "no module registry is available")
	}
	ns, err := p.localNamespace()
	if err != nil {
		return err
	}
	for _, name := range s.Names {
		id, err := p.opts.Modules.Import(p, name, c.prog.Source)
		if err != nil {
			return err
		}
		var v types.Value = types.NewRecordRef(id)
		if s.ByValue {
			dup, err := p.store.Copy(id)
			if err != nil {
				return err
			}
			v = types.NewOwnedRecord(dup.ID)
		}
		if err := ns.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

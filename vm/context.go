package vm

import (
	"ember/parser"
	"ember/types"
)

// ContextKind distinguishes the frames on a Process's context stack
type ContextKind int

const (
	CONTEXT_BASE             ContextKind = iota // bottom frame, runs the program
	CONTEXT_FUNCTION_CALL                       // owns the call's local namespace
	CONTEXT_NAMESPACE                           // record body: its namespace stacks on the one below
	CONTEXT_GLOBAL_NAMESPACE                    // marks the globals of a function from another module
)

func (k ContextKind) String() string {
	switch k {
	case CONTEXT_FUNCTION_CALL:
		return "function"
	case CONTEXT_NAMESPACE:
		return "namespace"
	case CONTEXT_GLOBAL_NAMESPACE:
		return "globals"
	default:
		return "base"
	}
}

// flowEntry tracks one compound being executed. When current runs off
// the end of the compound, execution resumes at fallback in the entry
// below. Loop bodies also know where continue and break lead.
type flowEntry struct {
	current    parser.StmtID
	fallback   parser.StmtID
	continueTo parser.StmtID
	breakTo    parser.StmtID

	// iteration is the state of a for statement that is current in this entry
	iteration Iterator

	// handling is set on catch bodies: the error being handled
	handling *types.ScriptError
}

// Context is one frame of execution: a program, the statement pointer
// within it and the namespace names are created in.
type Context struct {
	kind      ContextKind
	proc      *Process
	prog      *parser.Program
	namespace types.RecordID
	owned     bool // namespace is deleted when the context is popped
	name      string
	line      int
	flow      []flowEntry
	result    types.Value
	eval      *Evaluator
}

func newContext(p *Process, kind ContextKind, prog *parser.Program, ns types.RecordID) *Context {
	c := &Context{
		kind:      kind,
		proc:      p,
		prog:      prog,
		namespace: types.NoRecord,
		result:    types.None,
	}
	c.eval = &Evaluator{proc: p, ctx: c}
	c.setNamespace(ns)
	return c
}

// Kind returns the context kind
func (c *Context) Kind() ContextKind { return c.kind }

// Namespace returns the record names are created in, NoRecord when it was deleted
func (c *Context) Namespace() types.RecordID { return c.namespace }

// Line returns the line of the statement executed last
func (c *Context) Line() int { return c.line }

// Evaluator returns the context's expression evaluator
func (c *Context) Evaluator() *Evaluator { return c.eval }

func (c *Context) setNamespace(id types.RecordID) {
	if c.namespace != types.NoRecord {
		if rec := c.proc.store.Get(c.namespace); rec != nil {
			rec.Unobserve(c)
		}
	}
	c.namespace = types.NoRecord
	if rec := c.proc.store.Get(id); rec != nil {
		c.namespace = id
		rec.Observe(c)
	}
}

// RecordDeleted forgets a namespace deleted while the context still runs
func (c *Context) RecordDeleted(id types.RecordID) {
	if c.namespace == id {
		c.namespace = types.NoRecord
		c.owned = false
	}
}

// release detaches the context from its namespace, deleting it when owned
func (c *Context) release() {
	ns, owned := c.namespace, c.owned
	c.setNamespace(types.NoRecord)
	if owned && c.proc.store.Valid(ns) {
		c.proc.store.Delete(ns)
	}
}

// Finished reports whether the context has no statement left to run
func (c *Context) Finished() bool {
	return len(c.flow) == 0
}

// Current returns the statement about to execute, NoStmt when finished
func (c *Context) Current() parser.StmtID {
	if len(c.flow) == 0 {
		return parser.NoStmt
	}
	return c.flow[len(c.flow)-1].current
}

func (c *Context) top() *flowEntry {
	return &c.flow[len(c.flow)-1]
}

// Start begins executing a compound whose first statement is first.
// An empty compound falls through to fallback immediately.
func (c *Context) Start(first, fallback, continueTo, breakTo parser.StmtID) {
	c.flow = append(c.flow, flowEntry{
		current:    first,
		fallback:   fallback,
		continueTo: continueTo,
		breakTo:    breakTo,
	})
	c.settle()
}

// startBody runs a plain compound that resumes at fallback
func (c *Context) startBody(body parser.Compound, fallback parser.StmtID) {
	c.Start(body.First(), fallback, parser.NoStmt, parser.NoStmt)
}

// Proceed moves past the current statement
func (c *Context) Proceed() {
	if len(c.flow) == 0 {
		return
	}
	e := c.top()
	e.iteration = nil
	e.current = parser.NextOf(c.prog.Stmt(e.current))
	c.settle()
}

// settle unwinds entries whose compound has run out
func (c *Context) settle() {
	for len(c.flow) > 0 && c.top().current == parser.NoStmt {
		fallback := c.top().fallback
		c.flow = c.flow[:len(c.flow)-1]
		if len(c.flow) == 0 {
			return
		}
		c.top().current = fallback
	}
}

// JumpContinue returns to the innermost loop statement
func (c *Context) JumpContinue() error {
	for i := len(c.flow) - 1; i > 0; i-- {
		if to := c.flow[i].continueTo; to != parser.NoStmt {
			c.flow = c.flow[:i]
			c.top().current = to
			return nil
		}
	}
	return types.NewError(types.E_FLOW, "continue outside of a loop")
}

// JumpBreak leaves count enclosing loops
func (c *Context) JumpBreak(count int) error {
	if count < 1 {
		count = 1
	}
	for i := len(c.flow) - 1; i > 0; i-- {
		to := c.flow[i].breakTo
		if to == parser.NoStmt {
			continue
		}
		if count--; count == 0 {
			c.flow = c.flow[:i]
			c.top().current = to
			c.Proceed()
			return nil
		}
	}
	return types.NewError(types.E_FLOW, "break outside of a loop")
}

// Finish abandons the rest of the context
func (c *Context) Finish() {
	c.flow = nil
}

// handling returns the error the innermost running catch body handles
func (c *Context) handling() *types.ScriptError {
	for i := len(c.flow) - 1; i >= 0; i-- {
		if c.flow[i].handling != nil {
			return c.flow[i].handling
		}
	}
	return nil
}

// jumpIntoCatch skips forward from the failed statement to a catch that
// handles err, ignoring the catches of tries opened after the failure.
// It reports false when the context ran out first.
func (c *Context) jumpIntoCatch(err *types.ScriptError) bool {
	if !err.Code.Catchable() {
		return false
	}
	level := 0
	for !c.Finished() {
		stmt := c.prog.Stmt(c.Current())
		switch s := stmt.(type) {
		case *parser.TryStmt:
			level++
		case *parser.CatchStmt:
			if level == 0 && c.proc.catchMatches(s, err) {
				c.enterCatch(s, err)
				return true
			}
			if s.Final && level > 0 {
				level--
			}
		}
		c.Proceed()
	}
	return false
}

// enterCatch binds the catch variable and starts the handler body
func (c *Context) enterCatch(s *parser.CatchStmt, err *types.ScriptError) {
	if s.Variable != "" {
		if rec := c.proc.store.Get(c.namespace); rec != nil {
			rec.Set(s.Variable, caughtValue(err))
		}
	}
	after := parser.NextOf(c.prog.Stmt(s.Last))
	n := len(c.flow)
	c.Start(s.Body.First(), after, parser.NoStmt, parser.NoStmt)
	if len(c.flow) > n {
		c.flow[n].handling = err
	}
}

// step executes the current statement
func (c *Context) step() error {
	stmt := c.prog.Stmt(c.Current())
	if stmt == nil {
		c.Finish()
		return nil
	}
	c.line = stmt.Position().Line
	return c.proc.exec(c, stmt)
}

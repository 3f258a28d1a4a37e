package vm

import (
	"errors"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"

	"ember/db"
	"ember/parser"
	"ember/types"
)

// State is the run state of a Process
type State int32

const (
	STOPPED State = iota
	RUNNING
	SUSPENDED
)

func (s State) String() string {
	switch s {
	case RUNNING:
		return "running"
	case SUSPENDED:
		return "suspended"
	default:
		return "stopped"
	}
}

// DefaultMaxExecutionTime bounds one outermost Execute
const DefaultMaxExecutionTime = 10 * time.Second

// ModuleLoader resolves import statements to module records
type ModuleLoader interface {
	Import(p *Process, name, origin string) (types.RecordID, error)
}

// Installer binds native functions into a new Process's globals
type Installer interface {
	Install(rec *db.Record)
}

// Tracer observes function calls
type Tracer interface {
	Call(name string, args []types.Value)
	Return(name string, result types.Value)
	Throw(name string, err *types.ScriptError)
}

// Options configure a Process
type Options struct {
	Output           io.Writer     // print destination, stdout when nil
	MaxExecutionTime time.Duration // 0 means DefaultMaxExecutionTime, negative disables
	Modules          ModuleLoader
	Natives          Installer
	Tracer           Tracer
}

// Frame is one line of a traceback
type Frame struct {
	Kind     ContextKind
	Function string
	Source   string
	Line     int
}

// errStopped unwinds nested executions of a process stopped from outside
var errStopped = types.NewError(types.E_HANG, "process was stopped")

// Process runs one program: a stack of Contexts over a shared Store.
// Statements are executed one step at a time so that the process can be
// suspended between any two of them.
type Process struct {
	store    *db.Store
	opts     Options
	tracer   Tracer
	contexts []*Context
	globals  types.RecordID

	state       atomic.Int32
	stopRequest atomic.Bool

	workingPath string
	executing   int
	started     time.Time

	traceback []Frame
	traceFor  *types.ScriptError
}

// NewProcess creates a stopped process with fresh globals in store.
// A nil store gets a private one.
func NewProcess(store *db.Store, opts Options) *Process {
	if store == nil {
		store = db.NewStore()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.MaxExecutionTime == 0 {
		opts.MaxExecutionTime = DefaultMaxExecutionTime
	}
	p := &Process{
		store:  store,
		opts:   opts,
		tracer: opts.Tracer,
	}
	globals := store.New("globals")
	p.globals = globals.ID
	p.installErrorKinds(globals)
	if opts.Natives != nil {
		opts.Natives.Install(globals)
	}
	p.contexts = []*Context{newContext(p, CONTEXT_BASE, parser.NewProgram(""), p.globals)}
	return p
}

// Spawn creates a process sharing this one's store and options, used
// to run modules
func (p *Process) Spawn() *Process {
	child := NewProcess(p.store, p.opts)
	child.workingPath = p.workingPath
	return child
}

// Store returns the record arena the process works in
func (p *Process) Store() *db.Store { return p.store }

// Output returns where print writes
func (p *Process) Output() io.Writer { return p.opts.Output }

// Globals returns the process's global namespace
func (p *Process) Globals() types.RecordID { return p.globals }

// Depth returns the number of contexts on the stack
func (p *Process) Depth() int { return len(p.contexts) }

// WorkingPath is where imports are searched after the importing file's directory
func (p *Process) WorkingPath() string { return p.workingPath }

// SetWorkingPath changes the working path
func (p *Process) SetWorkingPath(path string) { p.workingPath = path }

// State returns the run state
func (p *Process) State() State { return State(p.state.Load()) }

func (p *Process) setState(s State) { p.state.Store(int32(s)) }

// Suspend pauses a running process after the current statement, or
// resumes a suspended one. Only the outermost Execute honors it.
func (p *Process) Suspend(suspended bool) {
	if suspended {
		p.state.CompareAndSwap(int32(RUNNING), int32(SUSPENDED))
	} else {
		p.state.CompareAndSwap(int32(SUSPENDED), int32(RUNNING))
	}
}

// RequestStop asks a process running on another goroutine to stop at
// its next step
func (p *Process) RequestStop() {
	p.stopRequest.Store(true)
}

// Stop returns the context stack to the base frame and stops
func (p *Process) Stop() {
	p.truncate(1)
	p.contexts[0].Finish()
	p.setState(STOPPED)
}

// Run loads a program into the base context. The globals are kept, so
// a REPL can run one line after another.
func (p *Process) Run(prog *parser.Program) error {
	if p.State() != STOPPED {
		return types.NewError(types.E_ERROR, "process is %s", p.State())
	}
	p.truncate(1)
	p.contexts[0].release()
	base := newContext(p, CONTEXT_BASE, prog, p.globals)
	base.name = "<main>"
	p.contexts[0] = base
	base.startBody(prog.Root, parser.NoStmt)
	p.traceback, p.traceFor = nil, nil
	p.setState(RUNNING)
	return nil
}

// Execute steps the process until it finishes, is suspended or fails.
// An error that no catch handled stops the process and is returned.
func (p *Process) Execute() error {
	if p.State() != RUNNING {
		return nil
	}
	err := p.execute()
	if errors.Is(err, errStopped) {
		return nil
	}
	return err
}

// execute runs the contexts from the current top until the stack falls
// below where it started. Nested executions, made by function calls,
// run to completion; suspension is honored only by the outermost.
func (p *Process) execute() error {
	outer := p.executing == 0
	if outer {
		p.started = time.Now()
	}
	p.executing++
	defer func() { p.executing-- }()

	startDepth := len(p.contexts)
	for len(p.contexts) >= startDepth {
		if p.stopRequest.Load() {
			if !outer {
				return errStopped
			}
			p.stopRequest.Store(false)
			p.Stop()
			return errStopped
		}
		if outer && p.State() != RUNNING {
			return nil
		}
		if max := p.opts.MaxExecutionTime; max > 0 && time.Since(p.started) > max {
			err := types.NewError(types.E_HANG, "execution exceeded %s", max).AtLine(p.top().line)
			p.captureTraceback(err)
			log.Printf("Process hung: %v", err)
			p.Stop()
			return err
		}

		ctx := p.top()
		if ctx.Finished() {
			if len(p.contexts) == 1 {
				p.setState(STOPPED)
				return nil
			}
			p.pop()
			continue
		}
		if err := ctx.step(); err != nil {
			if err := p.handleError(err, startDepth, outer); err != nil {
				return err
			}
		}
	}
	return nil
}

// handleError looks for a catch for err, unwinding contexts down to
// startDepth. Unhandled errors at the outermost level stop the process.
func (p *Process) handleError(err error, startDepth int, outer bool) error {
	se := types.AsScriptError(err)
	if se == errStopped {
		if outer {
			p.stopRequest.Store(false)
			p.Stop()
		}
		return se
	}
	se.AtLine(p.top().line)
	p.captureTraceback(se)

	if se.Code.Catchable() && p.State() != STOPPED {
		for len(p.contexts) >= startDepth {
			if p.top().jumpIntoCatch(se) {
				return nil
			}
			if len(p.contexts) == startDepth {
				break
			}
			p.pop()
		}
	}
	if outer {
		if se.Code != types.E_HANG {
			log.Printf("Process stopped: %v", se)
		}
		p.Stop()
	}
	return se
}

// Call invokes a script value from the host: a function, or a record to
// instantiate. self binds the receiver, NoRecord for none.
func (p *Process) Call(fn types.Value, self types.RecordID, args ...types.Value) (types.Value, error) {
	prev := p.State()
	p.setState(RUNNING)
	defer func() {
		if p.State() == RUNNING {
			p.setState(prev)
		}
	}()
	var result types.Value
	var err error
	switch f := types.Deref(fn).(type) {
	case types.FunctionValue:
		result, err = p.call(f.Fn, args, nil, self)
	case types.RecordValue:
		result, err = p.instantiate(f.ID, args, nil)
	default:
		return nil, types.NewError(types.E_TYPE, "%s is not callable", describe(fn))
	}
	if err != nil {
		se := types.AsScriptError(err)
		p.captureTraceback(se)
		return nil, se
	}
	return result, nil
}

// Traceback returns the frames active when the last error was raised,
// innermost first
func (p *Process) Traceback() []Frame {
	return p.traceback
}

func (p *Process) captureTraceback(se *types.ScriptError) {
	if p.traceFor == se {
		return
	}
	p.traceFor = se
	p.traceback = nil
	for i := len(p.contexts) - 1; i >= 0; i-- {
		c := p.contexts[i]
		if c.kind == CONTEXT_GLOBAL_NAMESPACE {
			continue
		}
		p.traceback = append(p.traceback, Frame{
			Kind:     c.kind,
			Function: c.name,
			Source:   c.prog.Source,
			Line:     c.line,
		})
	}
}

func (p *Process) top() *Context {
	if len(p.contexts) == 0 {
		return nil
	}
	return p.contexts[len(p.contexts)-1]
}

func (p *Process) push(c *Context) {
	p.contexts = append(p.contexts, c)
}

func (p *Process) pop() {
	n := len(p.contexts)
	c := p.contexts[n-1]
	p.contexts = p.contexts[:n-1]
	c.release()
}

// truncate pops contexts until depth remain; the base is never popped
func (p *Process) truncate(depth int) {
	if depth < 1 {
		depth = 1
	}
	for len(p.contexts) > depth {
		p.pop()
	}
}

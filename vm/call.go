package vm

import (
	"ember/parser"
	"ember/types"
)

// InitializerName is the member called when a record is instantiated.
// A record without one falls back to a member named init.
const (
	InitializerName  = "__init__"
	initializerAlias = "init"
)

// Function is a script-defined function. It remembers the program it
// was parsed from and the globals of the module that defined it.
type Function struct {
	name     string
	params   []string
	defaults []parser.Expr
	body     parser.Compound
	prog     *parser.Program
	globals  types.RecordID
}

func (f *Function) Name() string     { return f.name }
func (f *Function) Params() []string { return f.params }

// Globals returns the namespace the function's free names resolve in
func (f *Function) Globals() types.RecordID { return f.globals }

func newFunction(s *parser.FunctionStmt, prog *parser.Program, globals types.RecordID) *Function {
	return &Function{
		name:     s.Name,
		params:   s.Params,
		defaults: s.Defaults,
		body:     s.Body,
		prog:     prog,
		globals:  globals,
	}
}

// call invokes a callable. Script functions get a fresh context whose
// locals hold the parameters; a function from another module also gets
// its own globals pushed. The context stack is restored even on error.
func (p *Process) call(fn types.Callable, args []types.Value, named map[string]types.Value, self types.RecordID) (types.Value, error) {
	if p.tracer != nil {
		p.tracer.Call(fn.Name(), args)
	}
	var result types.Value
	var err error
	switch f := fn.(type) {
	case *types.NativeFunction:
		if len(named) > 0 {
			err = types.NewError(types.E_ARGS, "%s() does not take named arguments", f.Name())
			break
		}
		result, err = f.Invoke(&types.NativeCall{Host: p, Self: self, Args: args})
	case *Function:
		result, err = p.callScript(f, args, named, self)
	default:
		err = types.NewError(types.E_TYPE, "%s is not callable", fn.Name())
	}
	if err != nil {
		if p.tracer != nil {
			p.tracer.Throw(fn.Name(), types.AsScriptError(err))
		}
		return nil, err
	}
	if p.tracer != nil {
		p.tracer.Return(fn.Name(), result)
	}
	return result, nil
}

func (p *Process) callScript(f *Function, args []types.Value, named map[string]types.Value, self types.RecordID) (types.Value, error) {
	if len(args) > len(f.params) {
		return nil, types.NewError(types.E_ARGS, "%s() takes %d argument(s), %d given", f.name, len(f.params), len(args))
	}
	start := len(p.contexts)
	defer p.truncate(start)

	if f.globals != p.currentGlobals() && p.store.Valid(f.globals) {
		p.push(newContext(p, CONTEXT_GLOBAL_NAMESPACE, f.prog, f.globals))
	}
	locals := p.store.New(f.name)
	ctx := newContext(p, CONTEXT_FUNCTION_CALL, f.prog, locals.ID)
	ctx.owned = true
	ctx.name = f.name
	p.push(ctx)

	if err := p.bindArgs(ctx, f, args, named); err != nil {
		return nil, err
	}
	if self != types.NoRecord {
		locals.Set("self", types.NewRecordRef(self))
	}

	ctx.startBody(f.body, parser.NoStmt)
	if err := p.execute(); err != nil {
		return nil, err
	}
	return ctx.result, nil
}

// bindArgs assigns positional and named arguments to parameters and
// evaluates the defaults of those left out
func (p *Process) bindArgs(ctx *Context, f *Function, args []types.Value, named map[string]types.Value) error {
	locals := p.store.Get(ctx.namespace)
	for i, v := range args {
		locals.Set(f.params[i], v)
	}
	for name := range named {
		idx := -1
		for i, param := range f.params {
			if param == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return types.NewError(types.E_ARGS, "%s() has no parameter '%s'", f.name, name)
		}
		if idx < len(args) {
			return types.NewError(types.E_ARGS, "%s() got multiple values for '%s'", f.name, name)
		}
	}
	for i := len(args); i < len(f.params); i++ {
		param := f.params[i]
		if v, ok := named[param]; ok {
			locals.Set(param, v)
			continue
		}
		if i >= len(f.defaults) || f.defaults[i] == nil {
			return types.NewError(types.E_ARGS, "%s() missing argument '%s'", f.name, param)
		}
		v, err := ctx.eval.EvalValue(f.defaults[i])
		if err != nil {
			return err
		}
		locals.Set(param, v)
	}
	return nil
}

// instantiate creates a record derived from class and runs its
// initializer with the new record as self. The new record is returned
// owned; whoever stores the value becomes responsible for it.
func (p *Process) instantiate(class types.RecordID, args []types.Value, named map[string]types.Value) (types.Value, error) {
	src := p.store.Get(class)
	if src == nil {
		return nil, types.NewError(types.E_NOTFOUND, "record %s has been deleted", class)
	}
	inst := p.store.New(src.Name)
	if err := p.store.AddSuper(inst.ID, class); err != nil {
		p.store.Delete(inst.ID)
		return nil, err
	}
	init, _ := p.store.Lookup(class, InitializerName, false)
	if init == nil {
		init, _ = p.store.Lookup(class, initializerAlias, false)
	}
	if init == nil {
		if len(args) > 0 || len(named) > 0 {
			p.store.Delete(inst.ID)
			return nil, types.NewError(types.E_ARGS, "record %s has no %s to take arguments", src.Name, InitializerName)
		}
		return types.NewOwnedRecord(inst.ID), nil
	}
	fn, ok := init.Value().(types.FunctionValue)
	if !ok {
		p.store.Delete(inst.ID)
		return nil, types.NewError(types.E_TYPE, "%s of %s is not a function", InitializerName, src.Name)
	}
	if _, err := p.call(fn.Fn, args, named, inst.ID); err != nil {
		if p.store.Valid(inst.ID) {
			p.store.Delete(inst.ID)
		}
		return nil, err
	}
	return types.NewOwnedRecord(inst.ID), nil
}

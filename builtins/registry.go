package builtins

import (
	"sort"
	"strconv"

	"ember/db"
	"ember/types"
)

// StoreHost is implemented by hosts that expose their record store to
// natives, as vm.Process does
type StoreHost interface {
	types.Host
	Store() *db.Store
}

// Registry holds native functions by name. Install binds every one of
// them into a record, which makes a Registry usable both as the natives
// of a Process and as a native module.
type Registry struct {
	funcs map[string]*types.NativeFunction
}

// NewRegistry creates a registry with the standard natives
func NewRegistry() *Registry {
	r := NewEmptyRegistry()

	// Records
	r.Register("derive", []string{"record", "super"}, builtinDerive)

	// Arrays
	r.Register("range", []string{"n", "end", "step"}, builtinRange)
	r.Register("sorted", []string{"array"}, builtinSorted)

	// Text
	r.Register("join", []string{"array", "sep"}, builtinJoin)
	r.Register("split", []string{"text", "sep"}, builtinSplit)
	r.Register("upper", []string{"text"}, builtinUpper)
	r.Register("lower", []string{"text"}, builtinLower)

	// Process
	r.Register("time", nil, builtinTime)
	r.Register("suspend", nil, builtinSuspend)

	return r
}

// NewEmptyRegistry creates a registry with no functions
func NewEmptyRegistry() *Registry {
	return &Registry{funcs: make(map[string]*types.NativeFunction)}
}

// Register adds a native function, replacing any of the same name
func (r *Registry) Register(name string, params []string, fn types.NativeFunc) {
	r.funcs[name] = types.NewNative(name, params, fn)
}

// Get retrieves a native function by name
func (r *Registry) Get(name string) (*types.NativeFunction, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Install binds the functions into rec. Members the record already
// has are left alone.
func (r *Registry) Install(rec *db.Record) {
	for _, name := range r.Names() {
		if rec.Has(name) {
			continue
		}
		rec.Set(name, types.NewFunction(r.funcs[name]))
	}
}

// argCount checks the number of arguments a native received
func argCount(call *types.NativeCall, name string, min, max int) error {
	n := len(call.Args)
	if n < min || (max >= 0 && n > max) {
		return types.NewError(types.E_ARGS, "%s() takes %s, %d given", name, countText(min, max), n)
	}
	return nil
}

func countText(min, max int) string {
	switch {
	case min == max && min == 1:
		return "1 argument"
	case min == max:
		return strconv.Itoa(min) + " arguments"
	case max < 0:
		return "at least " + strconv.Itoa(min) + " argument(s)"
	default:
		return strconv.Itoa(min) + " to " + strconv.Itoa(max) + " arguments"
	}
}

func textArg(call *types.NativeCall, name string, i int) (string, error) {
	t, ok := call.Arg(i).(types.TextValue)
	if !ok {
		return "", types.NewError(types.E_TYPE, "%s() expects Text as argument %d, got %s", name, i+1, call.Arg(i).Type())
	}
	return t.Value(), nil
}

func numberArg(call *types.NativeCall, name string, i int) (float64, error) {
	n, ok := call.Arg(i).(types.NumberValue)
	if !ok {
		return 0, types.NewError(types.E_TYPE, "%s() expects a Number as argument %d, got %s", name, i+1, call.Arg(i).Type())
	}
	return n.Val, nil
}

package types

import (
	"fmt"
	"io"
)

// Callable is implemented by script-defined functions and native functions
type Callable interface {
	Name() string
	Params() []string
}

// FunctionValue wraps a callable
type FunctionValue struct {
	Fn Callable
}

// NewFunction wraps a callable as a value
func NewFunction(fn Callable) FunctionValue {
	return FunctionValue{Fn: fn}
}

func (f FunctionValue) Type() TypeCode { return TYPE_FUNCTION }
func (f FunctionValue) Truthy() bool   { return true }

func (f FunctionValue) String() string {
	return fmt.Sprintf("<Function %s>", f.Fn.Name())
}

// Equal is identity of the callable
func (f FunctionValue) Equal(other Value) bool {
	o, ok := other.(FunctionValue)
	return ok && o.Fn == f.Fn
}

// Host is what the runtime exposes to native functions
type Host interface {
	Output() io.Writer
	Suspend(bool)
}

// NativeCall carries the arguments of a native function invocation
type NativeCall struct {
	Host Host
	Self RecordID // NoRecord when called without a receiver
	Args []Value
}

// Arg returns argument i, or None when it was not given
func (c *NativeCall) Arg(i int) Value {
	if i < len(c.Args) {
		return c.Args[i]
	}
	return None
}

// NativeFunc is the Go signature of host-registered functions
type NativeFunc func(call *NativeCall) (Value, error)

// NativeFunction is a callable implemented in Go
type NativeFunction struct {
	name   string
	params []string
	fn     NativeFunc
}

// NewNative creates a native callable
func NewNative(name string, params []string, fn NativeFunc) *NativeFunction {
	return &NativeFunction{name: name, params: params, fn: fn}
}

func (n *NativeFunction) Name() string     { return n.name }
func (n *NativeFunction) Params() []string { return n.params }

// Invoke runs the native function
func (n *NativeFunction) Invoke(call *NativeCall) (Value, error) {
	v, err := n.fn(call)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = None
	}
	return v, nil
}

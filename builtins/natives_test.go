package builtins

import (
	"bytes"
	"io"
	"math"
	"testing"

	"ember/db"
	"ember/types"
)

type testHost struct {
	out       bytes.Buffer
	store     *db.Store
	suspended bool
}

func newTestHost() *testHost {
	return &testHost{store: db.NewStore()}
}

func (h *testHost) Output() io.Writer { return &h.out }
func (h *testHost) Suspend(s bool)    { h.suspended = s }
func (h *testHost) Store() *db.Store  { return h.store }

func invoke(t *testing.T, host types.Host, name string, args ...types.Value) (types.Value, error) {
	t.Helper()
	fn, ok := NewRegistry().Get(name)
	if !ok {
		t.Fatalf("%s is not registered", name)
	}
	return fn.Invoke(&types.NativeCall{Host: host, Self: types.NoRecord, Args: args})
}

func nums(ns ...float64) *types.ArrayValue {
	elems := make([]types.Value, len(ns))
	for i, n := range ns {
		elems[i] = types.NewNumber(n)
	}
	return types.NewArray(elems)
}

func texts(ss ...string) *types.ArrayValue {
	elems := make([]types.Value, len(ss))
	for i, s := range ss {
		elems[i] = types.NewText(s)
	}
	return types.NewArray(elems)
}

func TestNatives(t *testing.T) {
	n := types.NewNumber
	s := types.NewText
	tests := []struct {
		name string
		fn   string
		args []types.Value
		want string
	}{
		{"range to n", "range", []types.Value{n(3)}, "[0, 1, 2]"},
		{"range start end", "range", []types.Value{n(2), n(5)}, "[2, 3, 4]"},
		{"range step", "range", []types.Value{n(0), n(10), n(4)}, "[0, 4, 8]"},
		{"range down", "range", []types.Value{n(3), n(0), n(-1)}, "[3, 2, 1]"},
		{"range empty", "range", []types.Value{n(5), n(1)}, "[]"},
		{"sorted numbers", "sorted", []types.Value{nums(3, 1, 2)}, "[1, 2, 3]"},
		{"sorted text", "sorted", []types.Value{texts("b", "c", "a")}, `["a", "b", "c"]`},
		{"join", "join", []types.Value{nums(1, 2, 3), s("-")}, `"1-2-3"`},
		{"join no separator", "join", []types.Value{texts("a", "b")}, `"ab"`},
		{"split", "split", []types.Value{s("a,b,,c"), s(",")}, `["a", "b", "", "c"]`},
		{"split whitespace", "split", []types.Value{s("  a b\tc ")}, `["a", "b", "c"]`},
		{"upper", "upper", []types.Value{s("MiXed")}, `"MIXED"`},
		{"lower", "lower", []types.Value{s("MiXed")}, `"mixed"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := invoke(t, newTestHost(), tt.fn, tt.args...)
			if err != nil {
				t.Fatalf("%s() error = %v", tt.fn, err)
			}
			if types.Repr(got) != tt.want {
				t.Errorf("%s() = %s, want %s", tt.fn, types.Repr(got), tt.want)
			}
		})
	}
}

func TestNativeErrors(t *testing.T) {
	n := types.NewNumber
	s := types.NewText
	tests := []struct {
		name string
		fn   string
		args []types.Value
		code types.ErrorCode
	}{
		{"range zero step", "range", []types.Value{n(0), n(5), n(0)}, types.E_ARGS},
		{"range too large", "range", []types.Value{n(1e12)}, types.E_RANGE},
		{"range not a number", "range", []types.Value{n(math.NaN())}, types.E_ARGS},
		{"range infinite end", "range", []types.Value{n(0), n(math.Inf(1))}, types.E_ARGS},
		{"range text", "range", []types.Value{s("3")}, types.E_TYPE},
		{"sorted mixed", "sorted", []types.Value{types.NewArray([]types.Value{n(1), s("a")})}, types.E_TYPE},
		{"sorted not array", "sorted", []types.Value{n(1)}, types.E_TYPE},
		{"split empty separator", "split", []types.Value{s("abc"), s("")}, types.E_ARGS},
		{"upper arity", "upper", nil, types.E_ARGS},
		{"time arity", "time", []types.Value{n(1)}, types.E_ARGS},
		{"derive arity", "derive", []types.Value{n(1)}, types.E_ARGS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invoke(t, newTestHost(), tt.fn, tt.args...)
			if err == nil {
				t.Fatalf("%s() succeeded, want %s", tt.fn, tt.code)
			}
			if se := types.AsScriptError(err); se.Code != tt.code {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestDerive(t *testing.T) {
	host := newTestHost()
	base := host.store.New("Base")
	base.Set("greeting", types.NewText("hello"))
	child := host.store.New("Child")

	if _, err := invoke(t, host, "derive", types.NewRecordRef(child.ID), types.NewRecordRef(base.ID)); err != nil {
		t.Fatalf("derive() error = %v", err)
	}
	if v, _ := host.store.Lookup(child.ID, "greeting", false); v == nil {
		t.Error("child does not see the super's member")
	}
	// a cycle is refused by the store
	if _, err := invoke(t, host, "derive", types.NewRecordRef(base.ID), types.NewRecordRef(child.ID)); err == nil {
		t.Error("derive() accepted a cycle")
	}
}

func TestSuspendNative(t *testing.T) {
	host := newTestHost()
	if _, err := invoke(t, host, "suspend"); err != nil {
		t.Fatal(err)
	}
	if !host.suspended {
		t.Error("suspend() did not suspend the host")
	}
}

func TestTime(t *testing.T) {
	v, err := invoke(t, newTestHost(), "time")
	if err != nil {
		t.Fatal(err)
	}
	if v.(types.NumberValue).Val < 1e9 {
		t.Errorf("time() = %v", v)
	}
}

func TestInstallKeepsExistingMembers(t *testing.T) {
	store := db.NewStore()
	rec := store.New("globals")
	rec.Set("upper", types.NewText("mine"))
	NewRegistry().Install(rec)

	if got := rec.Get("upper").Value(); got.String() != "mine" {
		t.Errorf("upper = %v, want the existing member", got)
	}
	if !rec.Has("range") || !rec.Has("sorted") {
		t.Error("natives were not installed")
	}
}

package builtins

import (
	"math"
	"sort"
	"strings"
	"time"

	"ember/types"
)

// maxRange bounds the arrays range() builds
const maxRange = 10_000_000

// builtinDerive adds supers to a record
// derive(record, super...) -> None
func builtinDerive(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "derive", 2, -1); err != nil {
		return nil, err
	}
	host, ok := call.Host.(StoreHost)
	if !ok {
		return nil, types.NewError(types.E_ERROR, "derive() needs a record store")
	}
	store := host.Store()
	rv, ok := types.Deref(call.Args[0]).(types.RecordValue)
	if !ok {
		return nil, types.NewError(types.E_TYPE, "derive() expects a Record, got %s", call.Args[0].Type())
	}
	for _, arg := range call.Args[1:] {
		sup, ok := types.Deref(arg).(types.RecordValue)
		if !ok {
			return nil, types.NewError(types.E_TYPE, "derive() expects Record supers, got %s", arg.Type())
		}
		if err := store.AddSuper(rv.ID, sup.ID); err != nil {
			return nil, err
		}
	}
	return types.None, nil
}

// builtinRange builds an array of numbers
// range(n) -> [0 .. n-1]; range(start, end[, step])
func builtinRange(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "range", 1, 3); err != nil {
		return nil, err
	}
	nums := make([]float64, len(call.Args))
	for i := range call.Args {
		n, err := numberArg(call, "range", i)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, types.NewError(types.E_ARGS, "range() arguments must be finite")
		}
		nums[i] = n
	}
	start, end, step := 0.0, nums[0], 1.0
	if len(nums) > 1 {
		start, end = nums[0], nums[1]
	}
	if len(nums) > 2 {
		step = nums[2]
	}
	if step == 0 {
		return nil, types.NewError(types.E_ARGS, "range() step must not be zero")
	}
	span := math.Ceil((end - start) / step)
	if span < 0 {
		span = 0
	}
	if span > maxRange {
		return nil, types.NewError(types.E_RANGE, "range() of %g elements is too large", span)
	}
	count := int(span)
	elems := make([]types.Value, 0, count)
	for i := 0; i < count; i++ {
		elems = append(elems, types.NewNumber(start+float64(i)*step))
	}
	return types.NewArray(elems), nil
}

// builtinSorted returns a sorted copy of an array of Numbers or of Text
// sorted(array) -> array
func builtinSorted(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "sorted", 1, 1); err != nil {
		return nil, err
	}
	arr, ok := call.Args[0].(*types.ArrayValue)
	if !ok {
		return nil, types.NewError(types.E_TYPE, "sorted() expects an Array, got %s", call.Args[0].Type())
	}
	elems := append([]types.Value(nil), arr.Elements()...)
	if len(elems) == 0 {
		return types.NewArray(elems), nil
	}
	kind := elems[0].Type()
	for _, v := range elems {
		if v.Type() != kind || (kind != types.TYPE_NUMBER && kind != types.TYPE_TEXT) {
			return nil, types.NewError(types.E_TYPE, "sorted() needs all Numbers or all Text")
		}
	}
	sort.SliceStable(elems, func(i, j int) bool {
		if kind == types.TYPE_NUMBER {
			return elems[i].(types.NumberValue).Val < elems[j].(types.NumberValue).Val
		}
		return elems[i].(types.TextValue).Value() < elems[j].(types.TextValue).Value()
	})
	return types.NewArray(elems), nil
}

// builtinJoin concatenates the printed elements of an array
// join(array[, sep]) -> text
func builtinJoin(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "join", 1, 2); err != nil {
		return nil, err
	}
	arr, ok := call.Args[0].(*types.ArrayValue)
	if !ok {
		return nil, types.NewError(types.E_TYPE, "join() expects an Array, got %s", call.Args[0].Type())
	}
	sep := ""
	if len(call.Args) == 2 {
		s, err := textArg(call, "join", 1)
		if err != nil {
			return nil, err
		}
		sep = s
	}
	parts := make([]string, 0, arr.Len())
	for _, v := range arr.Elements() {
		parts = append(parts, v.String())
	}
	return types.NewText(strings.Join(parts, sep)), nil
}

// builtinSplit splits text on a separator, or on whitespace without one
// split(text[, sep]) -> array
func builtinSplit(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "split", 1, 2); err != nil {
		return nil, err
	}
	text, err := textArg(call, "split", 0)
	if err != nil {
		return nil, err
	}
	var parts []string
	if len(call.Args) == 2 {
		sep, err := textArg(call, "split", 1)
		if err != nil {
			return nil, err
		}
		if sep == "" {
			return nil, types.NewError(types.E_ARGS, "split() separator must not be empty")
		}
		parts = strings.Split(text, sep)
	} else {
		parts = strings.Fields(text)
	}
	elems := make([]types.Value, len(parts))
	for i, part := range parts {
		elems[i] = types.NewText(part)
	}
	return types.NewArray(elems), nil
}

func builtinUpper(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "upper", 1, 1); err != nil {
		return nil, err
	}
	text, err := textArg(call, "upper", 0)
	if err != nil {
		return nil, err
	}
	return types.NewText(strings.ToUpper(text)), nil
}

func builtinLower(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "lower", 1, 1); err != nil {
		return nil, err
	}
	text, err := textArg(call, "lower", 0)
	if err != nil {
		return nil, err
	}
	return types.NewText(strings.ToLower(text)), nil
}

// builtinTime returns the current Unix time in seconds
func builtinTime(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "time", 0, 0); err != nil {
		return nil, err
	}
	return types.NewNumber(float64(time.Now().UnixNano()) / 1e9), nil
}

// builtinSuspend suspends the calling process after the current statement
func builtinSuspend(call *types.NativeCall) (types.Value, error) {
	if err := argCount(call, "suspend", 0, 0); err != nil {
		return nil, err
	}
	call.Host.Suspend(true)
	return types.None, nil
}

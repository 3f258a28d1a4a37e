package vm

import (
	"math"
	"strconv"
	"strings"

	"ember/parser"
	"ember/types"
)

// builtIn evaluates the language-level functions
func (e *Evaluator) builtIn(n *parser.BuiltInExpr) (types.Value, error) {
	if n.Kind == parser.BUILTIN_EVAL {
		return e.evalText(n)
	}
	args := make([]types.Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := e.EvalValue(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	switch n.Kind {
	case parser.BUILTIN_LOCALS:
		if err := arity(n, args, 0); err != nil {
			return nil, err
		}
		rec, err := e.proc.localNamespace()
		if err != nil {
			return nil, err
		}
		return types.NewRecordRef(rec.ID), nil
	case parser.BUILTIN_GLOBALS:
		if err := arity(n, args, 0); err != nil {
			return nil, err
		}
		return types.NewRecordRef(e.proc.currentGlobals()), nil
	case parser.BUILTIN_RECORD:
		return e.newRecord(n, args)
	}

	if err := arity(n, args, 1); err != nil {
		return nil, err
	}
	arg := args[0]
	switch n.Kind {
	case parser.BUILTIN_LEN:
		switch v := arg.(type) {
		case *types.ArrayValue:
			return types.NewNumber(float64(v.Len())), nil
		case *types.DictValue:
			return types.NewNumber(float64(v.Len())), nil
		case types.TextValue:
			return types.NewNumber(float64(len([]rune(v.Value())))), nil
		case types.RecordValue:
			rec, err := e.recordOf(v, "argument of len")
			if err != nil {
				return nil, err
			}
			return types.NewNumber(float64(rec.Len())), nil
		}
		return nil, builtInTypeError(n, arg)

	case parser.BUILTIN_DICTKEYS, parser.BUILTIN_DICTVALUES:
		d, ok := arg.(*types.DictValue)
		if !ok {
			return nil, builtInTypeError(n, arg)
		}
		var elems []types.Value
		if n.Kind == parser.BUILTIN_DICTKEYS {
			elems = d.Keys()
		} else {
			elems = d.Values()
		}
		out := make([]types.Value, len(elems))
		for i, v := range elems {
			out[i] = types.Duplicate(v)
		}
		return types.NewArray(out), nil

	case parser.BUILTIN_MEMBERS, parser.BUILTIN_SUBRECORDS:
		rec, err := e.recordOf(arg, "argument of "+n.Kind.String())
		if err != nil {
			return nil, err
		}
		names := rec.Members()
		if n.Kind == parser.BUILTIN_SUBRECORDS {
			names = rec.Subrecords()
		}
		d := types.NewDict()
		for _, name := range names {
			d.Set(types.NewText(name), types.Duplicate(rec.Get(name).Value()))
		}
		return d, nil

	case parser.BUILTIN_NUMBER:
		return toNumber(arg)

	case parser.BUILTIN_TEXT:
		return types.NewText(arg.String()), nil

	case parser.BUILTIN_TYPEOF:
		return types.NewText(arg.Type().String()), nil

	case parser.BUILTIN_FLOOR:
		num, ok := arg.(types.NumberValue)
		if !ok {
			return nil, builtInTypeError(n, arg)
		}
		return types.NewNumber(math.Floor(num.Val)), nil
	}
	return nil, types.NewError(types.E_ERROR, "unknown built-in %s", n.Kind)
}

func arity(n *parser.BuiltInExpr, args []types.Value, want int) error {
	if len(args) != want {
		return types.NewError(types.E_ARGS, "%s() takes %d argument(s), %d given", n.Kind, want, len(args))
	}
	return nil
}

func builtInTypeError(n *parser.BuiltInExpr, arg types.Value) error {
	return types.NewError(types.E_TYPE, "%s() does not accept %s", n.Kind, arg.Type())
}

// newRecord makes an empty owned record, or an owned copy of its argument
func (e *Evaluator) newRecord(n *parser.BuiltInExpr, args []types.Value) (types.Value, error) {
	store := e.proc.store
	switch len(args) {
	case 0:
		return types.NewOwnedRecord(store.New("").ID), nil
	case 1:
		src, err := e.recordOf(args[0], "argument of Record")
		if err != nil {
			return nil, err
		}
		dup, err := store.Copy(src.ID)
		if err != nil {
			return nil, err
		}
		return types.NewOwnedRecord(dup.ID), nil
	}
	return nil, types.NewError(types.E_ARGS, "%s() takes at most 1 argument, %d given", n.Kind, len(args))
}

// toNumber converts text (decimal or 0x hex) and booleans to plain numbers
func toNumber(v types.Value) (types.Value, error) {
	switch val := v.(type) {
	case types.NumberValue:
		return types.NewNumber(val.Val), nil
	case types.TextValue:
		s := strings.TrimSpace(val.Value())
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			if u, err := strconv.ParseUint(s[2:], 16, 64); err == nil {
				return types.NewNumber(float64(u)), nil
			}
		} else if f, err := strconv.ParseFloat(s, 64); err == nil {
			return types.NewNumber(f), nil
		}
		return nil, types.NewError(types.E_TYPE, "cannot convert %s to a number", val.Quoted())
	case types.NoneValue:
		return types.NewNumber(0), nil
	}
	return nil, types.NewError(types.E_TYPE, "cannot convert %s to a number", v.Type())
}

// evalText parses its argument as a single expression and evaluates it
// in the current context
func (e *Evaluator) evalText(n *parser.BuiltInExpr) (types.Value, error) {
	if len(n.Args) != 1 {
		return nil, types.NewError(types.E_ARGS, "eval() takes 1 argument, %d given", len(n.Args))
	}
	src, err := e.EvalValue(n.Args[0])
	if err != nil {
		return nil, err
	}
	text, ok := src.(types.TextValue)
	if !ok {
		return nil, builtInTypeError(n, src)
	}
	prog, err := parser.ParseString(text.Value(), "eval")
	if err != nil {
		return nil, err
	}
	if prog.Root.Len() != 1 {
		return nil, types.NewError(types.E_SYNTAX, "eval() expects a single expression")
	}
	stmt, ok := prog.Stmt(prog.Root.First()).(*parser.ExprStmt)
	if !ok {
		return nil, types.NewError(types.E_SYNTAX, "eval() expects a single expression")
	}
	return e.EvalValue(stmt.Expr)
}

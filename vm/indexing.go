package vm

import (
	"ember/parser"
	"ember/types"
)

func (e *Evaluator) index(n *parser.IndexExpr) (types.Value, error) {
	container, err := e.EvalValue(n.Expr)
	if err != nil {
		return nil, err
	}
	key, err := e.EvalValue(n.Index)
	if err != nil {
		return nil, err
	}
	v, err := e.indexValue(container, key)
	if err != nil {
		return nil, err
	}
	return types.Duplicate(v), nil
}

// position converts an index value to an int
func position(key types.Value) (int, error) {
	n, ok := key.(types.NumberValue)
	if !ok {
		return 0, types.NewError(types.E_TYPE, "index must be a number, not %s", key.Type())
	}
	return n.Int(), nil
}

// indexValue returns the element stored at key without copying it
func (e *Evaluator) indexValue(container, key types.Value) (types.Value, error) {
	switch c := container.(type) {
	case *types.ArrayValue:
		i, err := position(key)
		if err != nil {
			return nil, err
		}
		return c.At(i)
	case types.TextValue:
		i, err := position(key)
		if err != nil {
			return nil, err
		}
		runes := []rune(c.Value())
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return nil, types.NewError(types.E_RANGE, "index %d out of range for text of %d characters", i, len(runes))
		}
		return types.NewText(string(runes[i])), nil
	case *types.DictValue:
		v, ok := c.Get(key)
		if !ok {
			return nil, types.NewError(types.E_KEY, "key %s not found", types.Repr(key))
		}
		return v, nil
	case types.RecordValue:
		rec, err := e.recordOf(c, "indexed value")
		if err != nil {
			return nil, err
		}
		name, ok := key.(types.TextValue)
		if !ok {
			return nil, types.NewError(types.E_ILLEGALINDEX, "records are indexed by text, not %s", key.Type())
		}
		v, err := e.memberVariable(rec, name.Value())
		if err != nil {
			return nil, err
		}
		return v.Value(), nil
	}
	return nil, types.NewError(types.E_TYPE, "%s cannot be indexed", container.Type())
}

// setIndex stores v at key, mutating the container in place
func (e *Evaluator) setIndex(container, key, v types.Value) error {
	switch c := container.(type) {
	case *types.ArrayValue:
		i, err := position(key)
		if err != nil {
			return err
		}
		return c.Set(i, v)
	case *types.DictValue:
		c.Set(key, v)
		return nil
	case types.RecordValue:
		rec, err := e.recordOf(c, "indexed value")
		if err != nil {
			return err
		}
		name, ok := key.(types.TextValue)
		if !ok {
			return types.NewError(types.E_ILLEGALINDEX, "records are indexed by text, not %s", key.Type())
		}
		return memberTarget(rec, name.Value()).Set(v)
	case types.TextValue:
		return types.NewError(types.E_TYPE, "text cannot be modified by index")
	}
	return types.NewError(types.E_TYPE, "%s cannot be indexed", container.Type())
}

// deleteIndex removes the element at key
func (e *Evaluator) deleteIndex(container, key types.Value) error {
	switch c := container.(type) {
	case *types.ArrayValue:
		i, err := position(key)
		if err != nil {
			return err
		}
		return c.Remove(i)
	case *types.DictValue:
		if !c.Delete(key) {
			return types.NewError(types.E_KEY, "key %s not found", types.Repr(key))
		}
		return nil
	case types.RecordValue:
		rec, err := e.recordOf(c, "indexed value")
		if err != nil {
			return err
		}
		name, ok := key.(types.TextValue)
		if !ok {
			return types.NewError(types.E_ILLEGALINDEX, "records are indexed by text, not %s", key.Type())
		}
		if !rec.Remove(name.Value()) {
			return types.NewError(types.E_NOTFOUND, "'%s' not found in record", name.Value())
		}
		return nil
	}
	return types.NewError(types.E_TYPE, "cannot delete from %s", container.Type())
}

func (e *Evaluator) slice(n *parser.SliceExpr) (types.Value, error) {
	container, err := e.EvalValue(n.Expr)
	if err != nil {
		return nil, err
	}
	var length int
	switch c := container.(type) {
	case *types.ArrayValue:
		length = c.Len()
	case types.TextValue:
		length = len([]rune(c.Value()))
	default:
		return nil, types.NewError(types.E_TYPE, "%s cannot be sliced", container.Type())
	}
	start, end := 0, length
	if n.Start != nil {
		v, err := e.EvalValue(n.Start)
		if err != nil {
			return nil, err
		}
		if start, err = position(v); err != nil {
			return nil, err
		}
	}
	if n.End != nil {
		v, err := e.EvalValue(n.End)
		if err != nil {
			return nil, err
		}
		if end, err = position(v); err != nil {
			return nil, err
		}
	}
	if a, ok := container.(*types.ArrayValue); ok {
		return types.Duplicate(a.Slice(start, end)), nil
	}
	return types.NewText(types.SliceText(container.(types.TextValue).Value(), start, end)), nil
}

// place evaluates an expression to the stored value itself rather than a
// copy, so that indexed assignment can mutate it
func (e *Evaluator) place(expr parser.Expr) (types.Value, error) {
	switch n := expr.(type) {
	case *parser.NameExpr:
		v, err := e.lookup(n)
		if err != nil {
			return nil, err
		}
		return v.Value(), nil
	case *parser.OperatorExpr:
		if n.Op != parser.OP_MEMBER {
			break
		}
		left, err := e.EvalValue(n.Left)
		if err != nil {
			return nil, err
		}
		rec, err := e.recordOf(left, "left side of '.'")
		if err != nil {
			return nil, err
		}
		v, err := e.memberVariable(rec, n.Right.(*parser.NameExpr).Identifier())
		if err != nil {
			return nil, err
		}
		return v.Value(), nil
	case *parser.IndexExpr:
		container, err := e.place(n.Expr)
		if err != nil {
			return nil, err
		}
		key, err := e.EvalValue(n.Index)
		if err != nil {
			return nil, err
		}
		return e.indexValue(container, key)
	}
	return e.EvalValue(expr)
}

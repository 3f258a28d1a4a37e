package vm

import (
	"fmt"

	"ember/parser"
	"ember/types"
)

// Evaluator computes expression values within one Context.
// It is a recursive walk over the expression tree; statements are
// stepped by the Process, never evaluated recursively.
type Evaluator struct {
	proc *Process
	ctx  *Context
}

// Eval evaluates an expression to a value. Names flagged by-reference
// yield a RefValue to their variable.
func (e *Evaluator) Eval(expr parser.Expr) (types.Value, error) {
	switch n := expr.(type) {
	case *parser.ConstantExpr:
		return n.Value, nil
	case *parser.NameExpr:
		return e.name(n)
	case *parser.OperatorExpr:
		return e.operator(n)
	case *parser.ArrayExpr:
		return e.array(n)
	case *parser.DictExpr:
		return e.dict(n)
	case *parser.BuiltInExpr:
		return e.builtIn(n)
	case *parser.CallExpr:
		return e.call(n)
	case *parser.IndexExpr:
		return e.index(n)
	case *parser.SliceExpr:
		return e.slice(n)
	case nil:
		return types.None, nil
	default:
		return nil, types.NewError(types.E_ERROR, "unknown expression type: %T", expr)
	}
}

// EvalValue evaluates an expression and dereferences the result
func (e *Evaluator) EvalValue(expr parser.Expr) (types.Value, error) {
	v, err := e.Eval(expr)
	if err != nil {
		return nil, err
	}
	return types.Deref(v), nil
}

// name reads a variable. By-value reads duplicate containers and never
// pass on ownership of a record.
func (e *Evaluator) name(n *parser.NameExpr) (types.Value, error) {
	v, err := e.lookup(n)
	if err != nil {
		return nil, err
	}
	if n.Flags.Has(parser.NAME_BY_REFERENCE) {
		return types.RefValue{Var: v}, nil
	}
	return types.Duplicate(v.Value()), nil
}

func (e *Evaluator) array(n *parser.ArrayExpr) (types.Value, error) {
	elems := make([]types.Value, 0, len(n.Elements))
	for _, el := range n.Elements {
		v, err := e.EvalValue(el)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
	return types.NewArray(elems), nil
}

func (e *Evaluator) dict(n *parser.DictExpr) (types.Value, error) {
	d := types.NewDict()
	for i := range n.Keys {
		k, err := e.EvalValue(n.Keys[i])
		if err != nil {
			return nil, err
		}
		v, err := e.EvalValue(n.Values[i])
		if err != nil {
			return nil, err
		}
		d.Set(k, v)
	}
	return d, nil
}

// operator evaluates unary, binary, member and compound assignment operators
func (e *Evaluator) operator(n *parser.OperatorExpr) (types.Value, error) {
	switch n.Op {
	case parser.OP_AND:
		left, err := e.EvalValue(n.Left)
		if err != nil || !left.Truthy() {
			return types.False, err
		}
		right, err := e.EvalValue(n.Right)
		if err != nil {
			return nil, err
		}
		return types.NewBool(right.Truthy()), nil

	case parser.OP_OR:
		left, err := e.EvalValue(n.Left)
		if err != nil {
			return nil, err
		}
		if left.Truthy() {
			return types.True, nil
		}
		right, err := e.EvalValue(n.Right)
		if err != nil {
			return nil, err
		}
		return types.NewBool(right.Truthy()), nil

	case parser.OP_MEMBER:
		return e.member(n)
	}

	if n.Op.Unary() {
		operand, err := e.EvalValue(n.Right)
		if err != nil {
			return nil, err
		}
		return unary(n.Op, operand)
	}

	if arith, ok := n.Op.Arithmetic(); ok {
		return e.compoundAssign(n, arith)
	}

	left, err := e.EvalValue(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := e.EvalValue(n.Right)
	if err != nil {
		return nil, err
	}
	if n.Op == parser.OP_IN {
		return e.contains(left, right)
	}
	return binary(n.Op, left, right)
}

// member evaluates record.name
func (e *Evaluator) member(n *parser.OperatorExpr) (types.Value, error) {
	left, err := e.EvalValue(n.Left)
	if err != nil {
		return nil, err
	}
	name := n.Right.(*parser.NameExpr)
	rec, err := e.recordOf(left, "left side of '.'")
	if err != nil {
		return nil, err
	}
	if name.Flags.Has(parser.NAME_NEW_VARIABLE) {
		return types.RefValue{Var: memberTarget(rec, name.Identifier())}, nil
	}
	v, err := e.memberVariable(rec, name.Identifier())
	if err != nil {
		return nil, err
	}
	if name.Flags.Has(parser.NAME_BY_REFERENCE) {
		return types.RefValue{Var: v}, nil
	}
	return types.Duplicate(v.Value()), nil
}

// compoundAssign evaluates x op= y, storing the result in x
func (e *Evaluator) compoundAssign(n *parser.OperatorExpr, op parser.Operator) (types.Value, error) {
	right, err := e.EvalValue(n.Right)
	if err != nil {
		return nil, err
	}
	if ix, ok := n.Left.(*parser.IndexExpr); ok {
		container, err := e.place(ix.Expr)
		if err != nil {
			return nil, err
		}
		key, err := e.EvalValue(ix.Index)
		if err != nil {
			return nil, err
		}
		current, err := e.indexValue(container, key)
		if err != nil {
			return nil, err
		}
		result, err := binary(op, current, right)
		if err != nil {
			return nil, err
		}
		if err := e.setIndex(container, key, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	target, err := e.Eval(n.Left)
	if err != nil {
		return nil, err
	}
	ref, ok := target.(types.RefValue)
	if !ok || ref.Var == nil {
		return nil, types.NewError(types.E_TYPE, "cannot assign to the left side of '%s'", n.Op)
	}
	result, err := binary(op, ref.Var.Value(), right)
	if err != nil {
		return nil, err
	}
	if err := ref.Var.Set(result); err != nil {
		return nil, err
	}
	return result, nil
}

// call evaluates a function call or record instantiation. Calling a
// member function binds the record it was reached through as self.
func (e *Evaluator) call(n *parser.CallExpr) (types.Value, error) {
	self := types.NoRecord
	var callee types.Value
	var err error
	if m, ok := n.Callee.(*parser.OperatorExpr); ok && m.Op == parser.OP_MEMBER {
		left, err := e.EvalValue(m.Left)
		if err != nil {
			return nil, err
		}
		rec, err := e.recordOf(left, "left side of '.'")
		if err != nil {
			return nil, err
		}
		v, err := e.memberVariable(rec, m.Right.(*parser.NameExpr).Identifier())
		if err != nil {
			return nil, err
		}
		callee = v.Value()
		self = rec.ID
	} else if callee, err = e.EvalValue(n.Callee); err != nil {
		return nil, err
	}

	args := make([]types.Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := e.EvalValue(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	var named map[string]types.Value
	if len(n.Named) > 0 {
		named = make(map[string]types.Value, len(n.Named))
		for _, na := range n.Named {
			v, err := e.EvalValue(na.Value)
			if err != nil {
				return nil, err
			}
			named[na.Name] = v
		}
	}

	switch fn := callee.(type) {
	case types.FunctionValue:
		return e.proc.call(fn.Fn, args, named, self)
	case types.RecordValue:
		return e.proc.instantiate(fn.ID, args, named)
	default:
		return nil, types.NewError(types.E_TYPE, "%s is not callable", describe(callee))
	}
}

// describe names a value for error messages
func describe(v types.Value) string {
	switch val := v.(type) {
	case types.TextValue:
		return fmt.Sprintf("text %s", val.Quoted())
	case types.FunctionValue:
		return fmt.Sprintf("function '%s'", val.Fn.Name())
	default:
		return v.Type().String()
	}
}

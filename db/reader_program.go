package db

import (
	"ember/parser"
)

// readCompound reads a statement count and the statements into c.
// Catch chains get their Last link back once the final catch is read.
func (rd *Reader) readCompound(c *parser.Compound) error {
	n, err := rd.readCount()
	if err != nil {
		return err
	}
	var pending []*parser.CatchStmt
	for i := 0; i < n; i++ {
		stmt, err := rd.readStmt()
		if err != nil {
			return err
		}
		id := rd.prog.Add(stmt)
		rd.prog.Append(c, id)
		if cs, ok := stmt.(*parser.CatchStmt); ok {
			pending = append(pending, cs)
			if cs.Final {
				for _, p := range pending {
					p.Last = id
				}
				pending = nil
			}
		}
	}
	if len(pending) > 0 {
		return rd.fail("catch sequence without a final catch")
	}
	return nil
}

func (rd *Reader) readExprs() ([]parser.Expr, error) {
	n, err := rd.readCount()
	if err != nil {
		return nil, err
	}
	out := make([]parser.Expr, 0, n)
	for i := 0; i < n; i++ {
		e, err := rd.readExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// readRequired reads an expression that may not be absent
func (rd *Reader) readRequired() (parser.Expr, error) {
	e, err := rd.readExpr()
	if err == nil && e == nil {
		return nil, rd.fail("missing expression")
	}
	return e, err
}

// readStmt reads one tagged statement
func (rd *Reader) readStmt() (parser.Stmt, error) {
	tag, err := rd.readInt()
	if err != nil {
		return nil, err
	}
	line, err := rd.readInt()
	if err != nil {
		return nil, err
	}
	base := parser.StmtBase{Pos: parser.Position{Line: line}, Next: parser.NoStmt}

	switch parser.StmtTag(tag) {
	case parser.STMT_ASSIGN:
		s := &parser.AssignStmt{StmtBase: base}
		mode, err := rd.readInt()
		if err != nil {
			return nil, err
		}
		s.Mode = parser.AssignMode(mode)
		if s.Const, err = rd.readBool(); err != nil {
			return nil, err
		}
		n, err := rd.readCount()
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			var t parser.AssignTarget
			if t.Target, err = rd.readRequired(); err != nil {
				return nil, err
			}
			if t.Indices, err = rd.readExprs(); err != nil {
				return nil, err
			}
			s.Targets = append(s.Targets, t)
		}
		if s.Value, err = rd.readRequired(); err != nil {
			return nil, err
		}
		return s, nil

	case parser.STMT_EXPR:
		e, err := rd.readRequired()
		return &parser.ExprStmt{StmtBase: base, Expr: e}, err

	case parser.STMT_IF:
		s := &parser.IfStmt{StmtBase: base}
		n, err := rd.readCount()
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			var b parser.IfBranch
			if b.Cond, err = rd.readRequired(); err != nil {
				return nil, err
			}
			if err := rd.readCompound(&b.Body); err != nil {
				return nil, err
			}
			s.Branches = append(s.Branches, b)
		}
		return s, rd.readCompound(&s.Else)

	case parser.STMT_WHILE:
		s := &parser.WhileStmt{StmtBase: base}
		if s.Cond, err = rd.readRequired(); err != nil {
			return nil, err
		}
		return s, rd.readCompound(&s.Body)

	case parser.STMT_FOR:
		s := &parser.ForStmt{StmtBase: base}
		it, err := rd.readRequired()
		if err != nil {
			return nil, err
		}
		name, ok := it.(*parser.NameExpr)
		if !ok {
			return nil, rd.fail("loop variable must be a name")
		}
		s.Iterator = name
		if s.Iterable, err = rd.readRequired(); err != nil {
			return nil, err
		}
		return s, rd.readCompound(&s.Body)

	case parser.STMT_TRY:
		s := &parser.TryStmt{StmtBase: base}
		return s, rd.readCompound(&s.Body)

	case parser.STMT_CATCH:
		s := &parser.CatchStmt{StmtBase: base, Last: parser.NoStmt}
		if s.Patterns, err = rd.readStrings(); err != nil {
			return nil, err
		}
		if s.Variable, err = rd.readString(); err != nil {
			return nil, err
		}
		if s.Final, err = rd.readBool(); err != nil {
			return nil, err
		}
		return s, rd.readCompound(&s.Body)

	case parser.STMT_FLOW:
		s := &parser.FlowStmt{StmtBase: base}
		kind, err := rd.readInt()
		if err != nil {
			return nil, err
		}
		if kind < int(parser.FLOW_PASS) || kind > int(parser.FLOW_THROW) {
			return nil, rd.fail("unknown flow kind %d", kind)
		}
		s.Kind = parser.FlowKind(kind)
		s.Value, err = rd.readExpr()
		return s, err

	case parser.STMT_PRINT:
		args, err := rd.readExprs()
		return &parser.PrintStmt{StmtBase: base, Args: args}, err

	case parser.STMT_DELETE:
		targets, err := rd.readExprs()
		return &parser.DeleteStmt{StmtBase: base, Targets: targets}, err

	case parser.STMT_FUNCTION:
		s := &parser.FunctionStmt{StmtBase: base}
		if s.Name, err = rd.readString(); err != nil {
			return nil, err
		}
		if s.Params, err = rd.readStrings(); err != nil {
			return nil, err
		}
		for range s.Params {
			d, err := rd.readExpr()
			if err != nil {
				return nil, err
			}
			s.Defaults = append(s.Defaults, d)
		}
		return s, rd.readCompound(&s.Body)

	case parser.STMT_SCOPE:
		s := &parser.ScopeStmt{StmtBase: base}
		if s.Name, err = rd.readString(); err != nil {
			return nil, err
		}
		if s.Supers, err = rd.readExprs(); err != nil {
			return nil, err
		}
		return s, rd.readCompound(&s.Body)

	case parser.STMT_DECLARE:
		names, err := rd.readStrings()
		return &parser.DeclareStmt{StmtBase: base, Names: names}, err

	case parser.STMT_IMPORT:
		s := &parser.ImportStmt{StmtBase: base}
		if s.ByValue, err = rd.readBool(); err != nil {
			return nil, err
		}
		s.Names, err = rd.readStrings()
		return s, err
	}
	return nil, rd.fail("unknown statement tag %d", tag)
}

// readExpr reads one tagged expression; tag 0 is an absent expression
func (rd *Reader) readExpr() (parser.Expr, error) {
	tag, err := rd.readInt()
	if err != nil || tag == 0 {
		return nil, err
	}
	line, err := rd.readInt()
	if err != nil {
		return nil, err
	}
	pos := parser.Position{Line: line}

	switch parser.ExprTag(tag) {
	case parser.EXPR_CONSTANT:
		v, err := rd.readValue()
		return &parser.ConstantExpr{Pos: pos, Value: v}, err

	case parser.EXPR_NAME:
		flags, err := rd.readInt()
		if err != nil {
			return nil, err
		}
		e := &parser.NameExpr{Pos: pos, Flags: parser.NameFlags(flags)}
		if rd.version < 2 {
			// legacy: a single identifier, no segment count
			id, err := rd.readString()
			if err != nil {
				return nil, err
			}
			e.Segments = []string{id}
			return e, nil
		}
		if e.Segments, err = rd.readStrings(); err != nil {
			return nil, err
		}
		if len(e.Segments) == 0 {
			return nil, rd.fail("name without segments")
		}
		return e, nil

	case parser.EXPR_OPERATOR:
		op, err := rd.readInt()
		if err != nil {
			return nil, err
		}
		e := &parser.OperatorExpr{Pos: pos, Op: parser.Operator(op)}
		if e.Left, err = rd.readExpr(); err != nil {
			return nil, err
		}
		if e.Right, err = rd.readRequired(); err != nil {
			return nil, err
		}
		if e.Op.Unary() != (e.Left == nil) {
			return nil, rd.fail("operator %s has the wrong number of operands", e.Op)
		}
		return e, nil

	case parser.EXPR_ARRAY:
		elems, err := rd.readExprs()
		return &parser.ArrayExpr{Pos: pos, Elements: elems}, err

	case parser.EXPR_DICT:
		e := &parser.DictExpr{Pos: pos}
		if e.Keys, err = rd.readExprs(); err != nil {
			return nil, err
		}
		if e.Values, err = rd.readExprs(); err != nil {
			return nil, err
		}
		if len(e.Keys) != len(e.Values) {
			return nil, rd.fail("dictionary with %d keys and %d values", len(e.Keys), len(e.Values))
		}
		return e, nil

	case parser.EXPR_BUILTIN:
		kind, err := rd.readInt()
		if err != nil {
			return nil, err
		}
		e := &parser.BuiltInExpr{Pos: pos, Kind: parser.BuiltIn(kind)}
		if e.Kind.String() == "?" {
			return nil, rd.fail("unknown built-in %d", kind)
		}
		e.Args, err = rd.readExprs()
		return e, err

	case parser.EXPR_CALL:
		e := &parser.CallExpr{Pos: pos}
		if e.Callee, err = rd.readRequired(); err != nil {
			return nil, err
		}
		if e.Args, err = rd.readExprs(); err != nil {
			return nil, err
		}
		n, err := rd.readCount()
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			var na parser.NamedArg
			if na.Name, err = rd.readString(); err != nil {
				return nil, err
			}
			if na.Value, err = rd.readRequired(); err != nil {
				return nil, err
			}
			e.Named = append(e.Named, na)
		}
		return e, nil

	case parser.EXPR_INDEX:
		e := &parser.IndexExpr{Pos: pos}
		if e.Expr, err = rd.readRequired(); err != nil {
			return nil, err
		}
		e.Index, err = rd.readRequired()
		return e, err

	case parser.EXPR_SLICE:
		e := &parser.SliceExpr{Pos: pos}
		if e.Expr, err = rd.readRequired(); err != nil {
			return nil, err
		}
		if e.Start, err = rd.readExpr(); err != nil {
			return nil, err
		}
		e.End, err = rd.readExpr()
		return e, err
	}
	return nil, rd.fail("unknown expression tag %d", tag)
}

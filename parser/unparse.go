package parser

import (
	"strings"

	"ember/types"
)

const rankAtom = rankPostfix + 1

// Unparse converts a program back to source lines. Every compound
// statement is written in block form.
func Unparse(prog *Program) []string {
	u := &unparser{prog: prog}
	u.compound(prog.Root, 0)
	return u.lines
}

type unparser struct {
	prog  *Program
	lines []string
}

func (u *unparser) emit(indent int, s string) {
	u.lines = append(u.lines, strings.Repeat("  ", indent)+s)
}

func (u *unparser) compound(c Compound, indent int) {
	for _, id := range c.Stmts {
		u.stmt(u.prog.Stmt(id), indent)
	}
}

// stmt converts a statement to source lines
func (u *unparser) stmt(stmt Stmt, indent int) {
	switch s := stmt.(type) {
	case *ExprStmt:
		u.emit(indent, unparseExpr(s.Expr, 0))

	case *AssignStmt:
		var sb strings.Builder
		if s.Const {
			sb.WriteString("const ")
		}
		for _, t := range s.Targets {
			sb.WriteString(unparseExpr(t.Target, rankPostfix))
			for _, idx := range t.Indices {
				sb.WriteString("[" + unparseExpr(idx, 0) + "]")
			}
			sb.WriteString(" " + s.Mode.String() + " ")
		}
		sb.WriteString(unparseExpr(s.Value, 0))
		u.emit(indent, sb.String())

	case *IfStmt:
		for i, b := range s.Branches {
			kw := "if "
			if i > 0 {
				kw = "elsif "
			}
			u.emit(indent, kw+unparseExpr(b.Cond, 0))
			u.compound(b.Body, indent+1)
		}
		if s.Else.Len() > 0 {
			u.emit(indent, "else")
			u.compound(s.Else, indent+1)
		}
		u.emit(indent, "end")

	case *WhileStmt:
		u.emit(indent, "while "+unparseExpr(s.Cond, 0))
		u.compound(s.Body, indent+1)
		u.emit(indent, "end")

	case *ForStmt:
		u.emit(indent, "for "+s.Iterator.Identifier()+" in "+unparseExpr(s.Iterable, 0))
		u.compound(s.Body, indent+1)
		u.emit(indent, "end")

	case *TryStmt:
		u.emit(indent, "try")
		u.compound(s.Body, indent+1)

	case *CatchStmt:
		line := "catch"
		if len(s.Patterns) > 0 {
			line += " " + strings.Join(s.Patterns, ", ")
		}
		if s.Variable != "" {
			line += " as " + s.Variable
		}
		u.emit(indent, line)
		u.compound(s.Body, indent+1)
		if s.Final {
			u.emit(indent, "end")
		}

	case *FlowStmt:
		if s.Value == nil {
			u.emit(indent, s.Kind.String())
		} else {
			u.emit(indent, s.Kind.String()+" "+unparseExpr(s.Value, 0))
		}

	case *PrintStmt:
		if len(s.Args) == 0 {
			u.emit(indent, "print")
		} else {
			u.emit(indent, "print "+unparseArgs(s.Args))
		}

	case *DeleteStmt:
		u.emit(indent, "del "+unparseArgs(s.Targets))

	case *FunctionStmt:
		params := make([]string, len(s.Params))
		for i, name := range s.Params {
			params[i] = name
			if s.Defaults[i] != nil {
				params[i] += " = " + unparseExpr(s.Defaults[i], 0)
			}
		}
		u.emit(indent, "def "+s.Name+"("+strings.Join(params, ", ")+")")
		u.compound(s.Body, indent+1)
		u.emit(indent, "end")

	case *ScopeStmt:
		u.emit(indent, "record "+s.Name+"("+unparseArgs(s.Supers)+")")
		u.compound(s.Body, indent+1)
		u.emit(indent, "end")

	case *DeclareStmt:
		u.emit(indent, "record "+strings.Join(s.Names, ", "))

	case *ImportStmt:
		if s.ByValue {
			u.emit(indent, "import record "+strings.Join(s.Names, ", "))
		} else {
			u.emit(indent, "import "+strings.Join(s.Names, ", "))
		}
	}
}

// exprRank returns the binding strength of an expression's outer operator
func exprRank(e Expr) int {
	switch x := e.(type) {
	case *OperatorExpr:
		switch x.Op {
		case OP_NEG, OP_POS:
			return rankUnary
		case OP_NOT:
			return rankNot
		case OP_MEMBER:
			return rankPostfix
		}
		return binaryOps[x.Op.String()].rank
	case *CallExpr, *IndexExpr, *SliceExpr, *BuiltInExpr:
		return rankPostfix
	}
	return rankAtom
}

// unparseExpr converts an expression to source, parenthesized when it
// binds looser than minRank requires
func unparseExpr(expr Expr, minRank int) string {
	s := unparseBare(expr)
	if exprRank(expr) < minRank {
		return "(" + s + ")"
	}
	return s
}

func unparseBare(expr Expr) string {
	switch e := expr.(type) {
	case *ConstantExpr:
		return unparseLiteral(e.Value)
	case *NameExpr:
		return strings.Join(e.Segments, "::")
	case *OperatorExpr:
		return unparseOperator(e)
	case *ArrayExpr:
		return "[" + unparseArgs(e.Elements) + "]"
	case *DictExpr:
		parts := make([]string, len(e.Keys))
		for i := range e.Keys {
			parts[i] = unparseExpr(e.Keys[i], 0) + ": " + unparseExpr(e.Values[i], 0)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *BuiltInExpr:
		return e.Kind.String() + "(" + unparseArgs(e.Args) + ")"
	case *CallExpr:
		args := unparseArgs(e.Args)
		for _, n := range e.Named {
			if args != "" {
				args += ", "
			}
			args += n.Name + " = " + unparseExpr(n.Value, 0)
		}
		return unparseExpr(e.Callee, rankPostfix) + "(" + args + ")"
	case *IndexExpr:
		return unparseExpr(e.Expr, rankPostfix) + "[" + unparseExpr(e.Index, 0) + "]"
	case *SliceExpr:
		s := unparseExpr(e.Expr, rankPostfix) + "["
		if e.Start != nil {
			s += unparseExpr(e.Start, 0)
		}
		s += ":"
		if e.End != nil {
			s += unparseExpr(e.End, 0)
		}
		return s + "]"
	}
	return "?"
}

func unparseOperator(e *OperatorExpr) string {
	switch e.Op {
	case OP_NEG, OP_POS:
		return e.Op.String() + unparseExpr(e.Right, rankUnary)
	case OP_NOT:
		return "not " + unparseExpr(e.Right, rankNot)
	case OP_MEMBER:
		return unparseExpr(e.Left, rankPostfix) + "." + unparseBare(e.Right)
	}
	rank := exprRank(e)
	left, right := rank, rank+1
	if rank == rankAssign {
		left, right = rank+1, rank
	}
	return unparseExpr(e.Left, left) + " " + e.Op.String() + " " + unparseExpr(e.Right, right)
}

// unparseLiteral converts a constant to source
func unparseLiteral(v types.Value) string {
	t, ok := v.(types.TextValue)
	if !ok {
		return v.String()
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for _, b := range []byte(t.Value()) {
		switch b {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(b)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteByte(b)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// unparseArgs joins expressions with commas
func unparseArgs(args []Expr) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = unparseExpr(arg, 0)
	}
	return strings.Join(parts, ", ")
}

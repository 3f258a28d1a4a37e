package db

import (
	"ember/parser"
	"ember/types"
)

// writeCompound writes a statement count, then each statement
func (w *Writer) writeCompound(prog *parser.Program, c parser.Compound) error {
	if err := w.writeInt(c.Len()); err != nil {
		return err
	}
	for _, id := range c.Stmts {
		if err := w.writeStmt(prog, prog.Stmt(id)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeExprs(list []parser.Expr) error {
	if err := w.writeInt(len(list)); err != nil {
		return err
	}
	for _, e := range list {
		if err := w.writeExpr(e); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeStrings(list []string) error {
	if err := w.writeInt(len(list)); err != nil {
		return err
	}
	for _, s := range list {
		if err := w.writeString(s); err != nil {
			return err
		}
	}
	return nil
}

// writeStmt writes a statement: tag, line, then the statement's fields
func (w *Writer) writeStmt(prog *parser.Program, stmt parser.Stmt) error {
	tag := parser.TagOfStmt(stmt)
	if tag == 0 {
		return types.NewError(types.E_SERIALIZATION, "cannot serialize statement %T", stmt)
	}
	if err := w.writeInt(int(tag)); err != nil {
		return err
	}
	if err := w.writeInt(stmt.Position().Line); err != nil {
		return err
	}

	switch s := stmt.(type) {
	case *parser.AssignStmt:
		if err := w.writeInt(int(s.Mode)); err != nil {
			return err
		}
		if err := w.writeBool(s.Const); err != nil {
			return err
		}
		if err := w.writeInt(len(s.Targets)); err != nil {
			return err
		}
		for _, t := range s.Targets {
			if err := w.writeExpr(t.Target); err != nil {
				return err
			}
			if err := w.writeExprs(t.Indices); err != nil {
				return err
			}
		}
		return w.writeExpr(s.Value)

	case *parser.ExprStmt:
		return w.writeExpr(s.Expr)

	case *parser.IfStmt:
		if err := w.writeInt(len(s.Branches)); err != nil {
			return err
		}
		for _, b := range s.Branches {
			if err := w.writeExpr(b.Cond); err != nil {
				return err
			}
			if err := w.writeCompound(prog, b.Body); err != nil {
				return err
			}
		}
		return w.writeCompound(prog, s.Else)

	case *parser.WhileStmt:
		if err := w.writeExpr(s.Cond); err != nil {
			return err
		}
		return w.writeCompound(prog, s.Body)

	case *parser.ForStmt:
		if err := w.writeExpr(s.Iterator); err != nil {
			return err
		}
		if err := w.writeExpr(s.Iterable); err != nil {
			return err
		}
		return w.writeCompound(prog, s.Body)

	case *parser.TryStmt:
		return w.writeCompound(prog, s.Body)

	case *parser.CatchStmt:
		if err := w.writeStrings(s.Patterns); err != nil {
			return err
		}
		if err := w.writeString(s.Variable); err != nil {
			return err
		}
		if err := w.writeBool(s.Final); err != nil {
			return err
		}
		return w.writeCompound(prog, s.Body)

	case *parser.FlowStmt:
		if err := w.writeInt(int(s.Kind)); err != nil {
			return err
		}
		return w.writeExpr(s.Value)

	case *parser.PrintStmt:
		return w.writeExprs(s.Args)

	case *parser.DeleteStmt:
		return w.writeExprs(s.Targets)

	case *parser.FunctionStmt:
		if err := w.writeString(s.Name); err != nil {
			return err
		}
		if err := w.writeStrings(s.Params); err != nil {
			return err
		}
		for _, d := range s.Defaults {
			if err := w.writeExpr(d); err != nil {
				return err
			}
		}
		return w.writeCompound(prog, s.Body)

	case *parser.ScopeStmt:
		if err := w.writeString(s.Name); err != nil {
			return err
		}
		if err := w.writeExprs(s.Supers); err != nil {
			return err
		}
		return w.writeCompound(prog, s.Body)

	case *parser.DeclareStmt:
		return w.writeStrings(s.Names)

	case *parser.ImportStmt:
		if err := w.writeBool(s.ByValue); err != nil {
			return err
		}
		return w.writeStrings(s.Names)
	}
	return nil
}

// writeExpr writes an expression: tag, line, then fields.
// A missing optional expression is written as tag 0.
func (w *Writer) writeExpr(expr parser.Expr) error {
	if expr == nil || isNilExpr(expr) {
		return w.writeInt(0)
	}
	if err := w.writeInt(int(parser.TagOf(expr))); err != nil {
		return err
	}
	if err := w.writeInt(expr.Position().Line); err != nil {
		return err
	}

	switch e := expr.(type) {
	case *parser.ConstantExpr:
		return w.writeValue(e.Value)

	case *parser.NameExpr:
		if err := w.writeInt(int(e.Flags)); err != nil {
			return err
		}
		return w.writeStrings(e.Segments)

	case *parser.OperatorExpr:
		if err := w.writeInt(int(e.Op)); err != nil {
			return err
		}
		if err := w.writeExpr(e.Left); err != nil {
			return err
		}
		return w.writeExpr(e.Right)

	case *parser.ArrayExpr:
		return w.writeExprs(e.Elements)

	case *parser.DictExpr:
		if err := w.writeExprs(e.Keys); err != nil {
			return err
		}
		return w.writeExprs(e.Values)

	case *parser.BuiltInExpr:
		if err := w.writeInt(int(e.Kind)); err != nil {
			return err
		}
		return w.writeExprs(e.Args)

	case *parser.CallExpr:
		if err := w.writeExpr(e.Callee); err != nil {
			return err
		}
		if err := w.writeExprs(e.Args); err != nil {
			return err
		}
		if err := w.writeInt(len(e.Named)); err != nil {
			return err
		}
		for _, n := range e.Named {
			if err := w.writeString(n.Name); err != nil {
				return err
			}
			if err := w.writeExpr(n.Value); err != nil {
				return err
			}
		}
		return nil

	case *parser.IndexExpr:
		if err := w.writeExpr(e.Expr); err != nil {
			return err
		}
		return w.writeExpr(e.Index)

	case *parser.SliceExpr:
		if err := w.writeExpr(e.Expr); err != nil {
			return err
		}
		if err := w.writeExpr(e.Start); err != nil {
			return err
		}
		return w.writeExpr(e.End)
	}
	return types.NewError(types.E_SERIALIZATION, "cannot serialize expression %T", expr)
}

// isNilExpr catches typed nil pointers stored in an Expr
func isNilExpr(expr parser.Expr) bool {
	switch e := expr.(type) {
	case *parser.NameExpr:
		return e == nil
	case *parser.OperatorExpr:
		return e == nil
	}
	return false
}

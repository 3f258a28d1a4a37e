package parser

import "ember/types"

// Node is the base interface for all AST nodes
type Node interface {
	Position() Position
}

// Expr represents an expression node
type Expr interface {
	Node
	exprNode()
}

// ExprTag identifies an expression kind in serialized programs
type ExprTag int

const (
	EXPR_CONSTANT ExprTag = 1
	EXPR_NAME     ExprTag = 2
	EXPR_OPERATOR ExprTag = 3
	EXPR_ARRAY    ExprTag = 4
	EXPR_DICT     ExprTag = 5
	EXPR_BUILTIN  ExprTag = 6
	EXPR_CALL     ExprTag = 7
	EXPR_INDEX    ExprTag = 8
	EXPR_SLICE    ExprTag = 9
)

// NameFlags control how a name is resolved and what happens
// when it is missing
type NameFlags uint16

const (
	NAME_BY_REFERENCE          NameFlags = 1 << iota // yield the variable, not its value
	NAME_LOCAL_ONLY                                  // search the innermost namespace only
	NAME_NEW_VARIABLE                                // create a variable when missing
	NAME_NEW_SUBRECORD                               // create (or replace) an owned subrecord
	NAME_NOT_IN_SCOPE                                // raise AlreadyExists when found
	NAME_IMPORT                                      // resolve as a module import
	NAME_IMPORT_BY_VALUE                             // import a copy rather than a reference
	NAME_THROWAWAY_IF_IN_SCOPE                       // discard the assignment when found
	NAME_READ_ONLY                                   // mark the variable read-only
)

// Has reports whether all of f are set
func (n NameFlags) Has(f NameFlags) bool { return n&f == f }

// ConstantExpr is a literal value
type ConstantExpr struct {
	Pos   Position
	Value types.Value
}

func (e *ConstantExpr) Position() Position { return e.Pos }
func (e *ConstantExpr) exprNode()          {}

// NameExpr is an identifier, possibly scoped with ::
type NameExpr struct {
	Pos      Position
	Segments []string // a::b::c is [a b c]
	Flags    NameFlags
}

func (e *NameExpr) Position() Position { return e.Pos }
func (e *NameExpr) exprNode()          {}

// Identifier returns the last segment
func (e *NameExpr) Identifier() string { return e.Segments[len(e.Segments)-1] }

// Scoped reports whether the name has a :: prefix
func (e *NameExpr) Scoped() bool { return len(e.Segments) > 1 }

// Operator identifies a unary or binary operation
type Operator int

const (
	OP_ADD Operator = iota
	OP_SUB
	OP_MUL
	OP_DIV
	OP_MOD
	OP_NEG // unary -
	OP_POS // unary +
	OP_EQ
	OP_NE
	OP_LT
	OP_GT
	OP_LE
	OP_GE
	OP_IN
	OP_AND
	OP_OR
	OP_NOT
	OP_MEMBER // a.b
	OP_ADD_ASSIGN
	OP_SUB_ASSIGN
	OP_MUL_ASSIGN
	OP_DIV_ASSIGN
	OP_MOD_ASSIGN
)

var operatorNames = map[Operator]string{
	OP_ADD: "+", OP_SUB: "-", OP_MUL: "*", OP_DIV: "/", OP_MOD: "%",
	OP_NEG: "-", OP_POS: "+",
	OP_EQ: "==", OP_NE: "!=", OP_LT: "<", OP_GT: ">", OP_LE: "<=", OP_GE: ">=",
	OP_IN: "in", OP_AND: "and", OP_OR: "or", OP_NOT: "not", OP_MEMBER: ".",
	OP_ADD_ASSIGN: "+=", OP_SUB_ASSIGN: "-=", OP_MUL_ASSIGN: "*=",
	OP_DIV_ASSIGN: "/=", OP_MOD_ASSIGN: "%=",
}

func (op Operator) String() string {
	if s, ok := operatorNames[op]; ok {
		return s
	}
	return "?"
}

// Unary reports whether the operator takes a single operand
func (op Operator) Unary() bool {
	return op == OP_NEG || op == OP_POS || op == OP_NOT
}

// Arithmetic returns the operation a compound assignment applies
func (op Operator) Arithmetic() (Operator, bool) {
	switch op {
	case OP_ADD_ASSIGN:
		return OP_ADD, true
	case OP_SUB_ASSIGN:
		return OP_SUB, true
	case OP_MUL_ASSIGN:
		return OP_MUL, true
	case OP_DIV_ASSIGN:
		return OP_DIV, true
	case OP_MOD_ASSIGN:
		return OP_MOD, true
	}
	return op, false
}

// OperatorExpr is a unary (Left nil) or binary operation.
// For OP_MEMBER the right side is always a *NameExpr.
type OperatorExpr struct {
	Pos   Position
	Op    Operator
	Left  Expr
	Right Expr
}

func (e *OperatorExpr) Position() Position { return e.Pos }
func (e *OperatorExpr) exprNode()          {}

// ArrayExpr is an array literal
type ArrayExpr struct {
	Pos      Position
	Elements []Expr
}

func (e *ArrayExpr) Position() Position { return e.Pos }
func (e *ArrayExpr) exprNode()          {}

// DictExpr is a dictionary literal; Keys and Values are parallel
type DictExpr struct {
	Pos    Position
	Keys   []Expr
	Values []Expr
}

func (e *DictExpr) Position() Position { return e.Pos }
func (e *DictExpr) exprNode()          {}

// BuiltIn identifies a language-level function
type BuiltIn int

const (
	BUILTIN_LEN BuiltIn = iota
	BUILTIN_DICTKEYS
	BUILTIN_DICTVALUES
	BUILTIN_MEMBERS
	BUILTIN_SUBRECORDS
	BUILTIN_NUMBER
	BUILTIN_TEXT
	BUILTIN_RECORD
	BUILTIN_LOCALS
	BUILTIN_GLOBALS
	BUILTIN_TYPEOF
	BUILTIN_FLOOR
	BUILTIN_EVAL
)

var builtInNames = []string{
	"len", "dictkeys", "dictvalues", "members", "subrecords",
	"Number", "Text", "Record", "locals", "globals", "typeof", "floor", "eval",
}

func (b BuiltIn) String() string {
	if int(b) >= 0 && int(b) < len(builtInNames) {
		return builtInNames[b]
	}
	return "?"
}

// BuiltInFromName looks up a built-in by its script name
func BuiltInFromName(name string) (BuiltIn, bool) {
	for i, n := range builtInNames {
		if n == name {
			return BuiltIn(i), true
		}
	}
	return 0, false
}

// BuiltInExpr is a call of a built-in function
type BuiltInExpr struct {
	Pos  Position
	Kind BuiltIn
	Args []Expr
}

func (e *BuiltInExpr) Position() Position { return e.Pos }
func (e *BuiltInExpr) exprNode()          {}

// NamedArg is a name = value argument in a call
type NamedArg struct {
	Name  string
	Value Expr
}

// CallExpr is a function call or record instantiation
type CallExpr struct {
	Pos    Position
	Callee Expr
	Args   []Expr
	Named  []NamedArg
}

func (e *CallExpr) Position() Position { return e.Pos }
func (e *CallExpr) exprNode()          {}

// IndexExpr is a[i]
type IndexExpr struct {
	Pos   Position
	Expr  Expr
	Index Expr
}

func (e *IndexExpr) Position() Position { return e.Pos }
func (e *IndexExpr) exprNode()          {}

// SliceExpr is a[start:end]; either bound may be nil
type SliceExpr struct {
	Pos   Position
	Expr  Expr
	Start Expr
	End   Expr
}

func (e *SliceExpr) Position() Position { return e.Pos }
func (e *SliceExpr) exprNode()          {}

// TagOf returns the serialization tag of an expression
func TagOf(e Expr) ExprTag {
	switch e.(type) {
	case *ConstantExpr:
		return EXPR_CONSTANT
	case *NameExpr:
		return EXPR_NAME
	case *OperatorExpr:
		return EXPR_OPERATOR
	case *ArrayExpr:
		return EXPR_ARRAY
	case *DictExpr:
		return EXPR_DICT
	case *BuiltInExpr:
		return EXPR_BUILTIN
	case *CallExpr:
		return EXPR_CALL
	case *IndexExpr:
		return EXPR_INDEX
	case *SliceExpr:
		return EXPR_SLICE
	}
	return 0
}

package parser

// StmtID addresses a statement in its Program's arena.
// Statements link to each other by StmtID, never by pointer.
type StmtID int

// NoStmt is the null statement link
const NoStmt StmtID = -1

// Stmt represents a statement node
type Stmt interface {
	Node
	stmtNode()
	base() *StmtBase
}

// StmtBase carries the fields every statement shares
type StmtBase struct {
	Pos  Position
	Next StmtID // following statement in the same compound, or NoStmt
}

func (s *StmtBase) Position() Position { return s.Pos }
func (s *StmtBase) base() *StmtBase    { return s }
func (s *StmtBase) stmtNode()          {}

// NextOf returns the statement that follows s
func NextOf(s Stmt) StmtID { return s.base().Next }

// StmtTag identifies a statement kind in serialized programs
type StmtTag int

const (
	STMT_ASSIGN   StmtTag = 1
	STMT_EXPR     StmtTag = 2
	STMT_IF       StmtTag = 3
	STMT_WHILE    StmtTag = 4
	STMT_FOR      StmtTag = 5
	STMT_TRY      StmtTag = 6
	STMT_CATCH    StmtTag = 7
	STMT_FLOW     StmtTag = 8
	STMT_PRINT    StmtTag = 9
	STMT_DELETE   StmtTag = 10
	STMT_FUNCTION StmtTag = 11
	STMT_SCOPE    StmtTag = 12
	STMT_DECLARE  StmtTag = 13
	STMT_IMPORT   StmtTag = 14
)

// Compound is an ordered statement sequence
type Compound struct {
	Stmts []StmtID
}

// First returns the first statement, or NoStmt when empty
func (c Compound) First() StmtID {
	if len(c.Stmts) == 0 {
		return NoStmt
	}
	return c.Stmts[0]
}

// Len returns the number of statements
func (c Compound) Len() int { return len(c.Stmts) }

// AssignMode selects how an assignment finds its variable
type AssignMode int

const (
	ASSIGN_LOCAL AssignMode = iota // =   create in the local namespace
	ASSIGN_SCOPE                   // :=  update the nearest visible variable
	ASSIGN_WEAK                    // ?=  assign only when not yet defined
)

func (m AssignMode) String() string {
	switch m {
	case ASSIGN_SCOPE:
		return ":="
	case ASSIGN_WEAK:
		return "?="
	default:
		return "="
	}
}

// AssignTarget is the left side of an assignment: a name or member
// expression followed by zero or more index expressions.
type AssignTarget struct {
	Target  Expr
	Indices []Expr
}

// AssignStmt assigns one value to one or more targets
type AssignStmt struct {
	StmtBase
	Targets []AssignTarget // assigned right to left
	Value   Expr
	Mode    AssignMode
	Const   bool
}

// ExprStmt evaluates an expression for its effects
type ExprStmt struct {
	StmtBase
	Expr Expr
}

// IfBranch is one condition of an if/elsif chain
type IfBranch struct {
	Cond Expr
	Body Compound
}

// IfStmt is a conditional chain
type IfStmt struct {
	StmtBase
	Branches []IfBranch
	Else     Compound
}

// WhileStmt loops while its condition is true
type WhileStmt struct {
	StmtBase
	Cond Expr
	Body Compound
}

// ForStmt iterates over the elements of a value
type ForStmt struct {
	StmtBase
	Iterator *NameExpr
	Iterable Expr
	Body     Compound
}

// TryStmt runs its body; the catch statements follow it directly
type TryStmt struct {
	StmtBase
	Body Compound
}

// CatchStmt handles errors raised in the preceding try body.
// Catches of one try form a chain ending in the one marked Final.
type CatchStmt struct {
	StmtBase
	Patterns []string // error kind or record names, empty catches all
	Variable string   // bound to the error, "" for none
	Body     Compound
	Final    bool
	Last     StmtID // final catch of the chain
}

// FlowKind is the kind of a flow statement
type FlowKind int

const (
	FLOW_PASS FlowKind = iota
	FLOW_CONTINUE
	FLOW_BREAK
	FLOW_RETURN
	FLOW_THROW
)

func (k FlowKind) String() string {
	switch k {
	case FLOW_CONTINUE:
		return "continue"
	case FLOW_BREAK:
		return "break"
	case FLOW_RETURN:
		return "return"
	case FLOW_THROW:
		return "throw"
	default:
		return "pass"
	}
}

// FlowStmt is pass, continue, break, return or throw
type FlowStmt struct {
	StmtBase
	Kind  FlowKind
	Value Expr // optional
}

// PrintStmt writes its arguments separated by spaces
type PrintStmt struct {
	StmtBase
	Args []Expr
}

// DeleteStmt removes variables, members or elements
type DeleteStmt struct {
	StmtBase
	Targets []Expr
}

// FunctionStmt defines a function in the local namespace.
// Defaults is parallel to Params with nil for required parameters.
type FunctionStmt struct {
	StmtBase
	Name     string
	Params   []string
	Defaults []Expr
	Body     Compound
}

// ScopeStmt is "record Name(supers): body"
type ScopeStmt struct {
	StmtBase
	Name   string
	Supers []Expr
	Body   Compound
}

// DeclareStmt is the bare subrecord declaration "record a, b"
type DeclareStmt struct {
	StmtBase
	Names []string
}

// ImportStmt binds modules in the local namespace
type ImportStmt struct {
	StmtBase
	Names   []string
	ByValue bool
}

// Program is a parsed script: a statement arena plus the root compound
type Program struct {
	Source string // file or label the program came from
	Stmts  []Stmt
	Root   Compound
}

// NewProgram creates an empty program
func NewProgram(source string) *Program {
	return &Program{Source: source}
}

// Add stores a statement and returns its id
func (p *Program) Add(s Stmt) StmtID {
	s.base().Next = NoStmt
	p.Stmts = append(p.Stmts, s)
	return StmtID(len(p.Stmts) - 1)
}

// Stmt returns the statement with the given id, nil for NoStmt
func (p *Program) Stmt(id StmtID) Stmt {
	if id < 0 || int(id) >= len(p.Stmts) {
		return nil
	}
	return p.Stmts[id]
}

// Append adds a statement to c and links its predecessor to it
func (p *Program) Append(c *Compound, id StmtID) {
	if n := len(c.Stmts); n > 0 {
		p.Stmts[c.Stmts[n-1]].base().Next = id
	}
	c.Stmts = append(c.Stmts, id)
}

// TagOfStmt returns the serialization tag of a statement
func TagOfStmt(s Stmt) StmtTag {
	switch s.(type) {
	case *AssignStmt:
		return STMT_ASSIGN
	case *ExprStmt:
		return STMT_EXPR
	case *IfStmt:
		return STMT_IF
	case *WhileStmt:
		return STMT_WHILE
	case *ForStmt:
		return STMT_FOR
	case *TryStmt:
		return STMT_TRY
	case *CatchStmt:
		return STMT_CATCH
	case *FlowStmt:
		return STMT_FLOW
	case *PrintStmt:
		return STMT_PRINT
	case *DeleteStmt:
		return STMT_DELETE
	case *FunctionStmt:
		return STMT_FUNCTION
	case *ScopeStmt:
		return STMT_SCOPE
	case *DeclareStmt:
		return STMT_DECLARE
	case *ImportStmt:
		return STMT_IMPORT
	}
	return 0
}

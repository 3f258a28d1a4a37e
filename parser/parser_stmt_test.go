package parser

import (
	"errors"
	"strings"
	"testing"

	"ember/types"
)

func mustParse(t *testing.T, input string) *Program {
	t.Helper()
	prog, err := ParseString(input, "test")
	if err != nil {
		t.Fatalf("ParseString error = %v\n%s", err, input)
	}
	return prog
}

func rootStmt(t *testing.T, prog *Program, i int) Stmt {
	t.Helper()
	if i >= prog.Root.Len() {
		t.Fatalf("root has %d statements, want index %d", prog.Root.Len(), i)
	}
	return prog.Stmt(prog.Root.Stmts[i])
}

func TestParseStatementCount(t *testing.T) {
	tests := []struct {
		input string
		count int
	}{
		{"", 0},
		{"x = 1", 1},
		{"x = 1\ny = 2; z = 3\n\n", 3},
		{"if a: b\nc", 2},
		{"if a\n  b\nelsif c\n  d\nelse\n  e\nend\nf", 2},
		{"while True: pass end", 1},
		{"try: throw E() catch E as e: x = e end", 2},
		{"try\n  a\ncatch A\n  b\ncatch\n  c\nend", 3},
		{"def f(a, b = 2)\n  return a + b\nend\nprint f(1)", 2},
		{"record A(B, C)\n  x = 1\nend", 1},
		{"record a, b", 1},
		{"import m, n; import record q", 2},
		{"f(1,\n  2)", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			prog := mustParse(t, tt.input)
			if prog.Root.Len() != tt.count {
				t.Errorf("got %d statements, want %d", prog.Root.Len(), tt.count)
			}
		})
	}
}

func TestParseNextLinks(t *testing.T) {
	prog := mustParse(t, "a = 1\nb = 2\nc = 3")
	id := prog.Root.First()
	var count int
	for id != NoStmt {
		count++
		id = NextOf(prog.Stmt(id))
	}
	if count != 3 {
		t.Errorf("followed %d links, want 3", count)
	}
}

func TestParseIfChain(t *testing.T) {
	prog := mustParse(t, "if a: x = 1 elsif b: x = 2 else: x = 3 end")
	s, ok := rootStmt(t, prog, 0).(*IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", rootStmt(t, prog, 0))
	}
	if len(s.Branches) != 2 {
		t.Errorf("got %d branches, want 2", len(s.Branches))
	}
	if s.Else.Len() != 1 {
		t.Errorf("else has %d statements, want 1", s.Else.Len())
	}

	// one end closes the whole chain
	prog = mustParse(t, "if a\n  x\nelsif b\n  y\nelse\n  z\nend")
	if prog.Root.Len() != 1 {
		t.Errorf("got %d statements, want 1", prog.Root.Len())
	}
}

func TestParseTryCatch(t *testing.T) {
	prog := mustParse(t, "try\n  f()\ncatch NotFoundError, KeyError as e\n  print e\ncatch (err)\n  pass\nend")
	try, ok := rootStmt(t, prog, 0).(*TryStmt)
	if !ok {
		t.Fatalf("expected TryStmt, got %T", rootStmt(t, prog, 0))
	}
	if NextOf(try) != prog.Root.Stmts[1] {
		t.Error("try should link to its first catch")
	}
	first := rootStmt(t, prog, 1).(*CatchStmt)
	second := rootStmt(t, prog, 2).(*CatchStmt)

	if strings.Join(first.Patterns, ",") != "NotFoundError,KeyError" || first.Variable != "e" {
		t.Errorf("first catch = %v as %q", first.Patterns, first.Variable)
	}
	if len(second.Patterns) != 0 || second.Variable != "err" {
		t.Errorf("second catch = %v as %q", second.Patterns, second.Variable)
	}
	if first.Final || !second.Final {
		t.Error("only the last catch should be final")
	}
	if first.Last != prog.Root.Stmts[2] || second.Last != prog.Root.Stmts[2] {
		t.Error("catches should point at the final catch")
	}
}

func TestParseAssignments(t *testing.T) {
	prog := mustParse(t, "a = b = 3\nd['k'][0] := 1\nw ?= 2\nconst PI = 3.14\nr.x = 5")

	chain := rootStmt(t, prog, 0).(*AssignStmt)
	if len(chain.Targets) != 2 || chain.Mode != ASSIGN_LOCAL {
		t.Errorf("chained assign: %d targets, mode %s", len(chain.Targets), chain.Mode)
	}
	name := chain.Targets[0].Target.(*NameExpr)
	if !name.Flags.Has(NAME_BY_REFERENCE | NAME_NEW_VARIABLE | NAME_LOCAL_ONLY) {
		t.Errorf("local assign flags = %b", name.Flags)
	}

	indexed := rootStmt(t, prog, 1).(*AssignStmt)
	if indexed.Mode != ASSIGN_SCOPE || len(indexed.Targets[0].Indices) != 2 {
		t.Errorf("indexed assign: mode %s, %d indices", indexed.Mode, len(indexed.Targets[0].Indices))
	}
	if got := sexpr(indexed.Targets[0].Indices[0]); got != `"k"` {
		t.Errorf("first index = %s, want \"k\"", got)
	}
	if indexed.Targets[0].Target.(*NameExpr).Flags.Has(NAME_NEW_VARIABLE) {
		t.Error("indexed target must not create a variable")
	}

	weak := rootStmt(t, prog, 2).(*AssignStmt)
	if !weak.Targets[0].Target.(*NameExpr).Flags.Has(NAME_THROWAWAY_IF_IN_SCOPE) {
		t.Error("weak assign should be throwaway if in scope")
	}

	constant := rootStmt(t, prog, 3).(*AssignStmt)
	if !constant.Const || !constant.Targets[0].Target.(*NameExpr).Flags.Has(NAME_READ_ONLY) {
		t.Error("const assign should be read-only")
	}

	member := rootStmt(t, prog, 4).(*AssignStmt)
	if op, ok := member.Targets[0].Target.(*OperatorExpr); !ok || op.Op != OP_MEMBER {
		t.Errorf("member target = %T", member.Targets[0].Target)
	}
}

func TestParseDefinitions(t *testing.T) {
	prog := mustParse(t, "def f(a, b = 1 + 1): return a\nrecord Point(Base): x = 0\nrecord p, q\nfor i in range(3): print i")

	fn := rootStmt(t, prog, 0).(*FunctionStmt)
	if fn.Name != "f" || len(fn.Params) != 2 || fn.Defaults[0] != nil || fn.Defaults[1] == nil {
		t.Errorf("function = %s %v", fn.Name, fn.Params)
	}

	scope := rootStmt(t, prog, 1).(*ScopeStmt)
	if scope.Name != "Point" || len(scope.Supers) != 1 || scope.Body.Len() != 1 {
		t.Errorf("scope = %s, %d supers, %d body", scope.Name, len(scope.Supers), scope.Body.Len())
	}

	decl := rootStmt(t, prog, 2).(*DeclareStmt)
	if strings.Join(decl.Names, ",") != "p,q" {
		t.Errorf("declare names = %v", decl.Names)
	}

	loop := rootStmt(t, prog, 3).(*ForStmt)
	if !loop.Iterator.Flags.Has(NAME_BY_REFERENCE | NAME_NEW_VARIABLE | NAME_LOCAL_ONLY) {
		t.Errorf("loop variable flags = %b", loop.Iterator.Flags)
	}
}

func TestParseRecordForms(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		count   int
		block   bool
		members int
	}{
		{"block", "record R\n  v = 1\n  w = 2\nend\nprint R.v", 2, true, 2},
		{"empty block", "record R\nend", 1, true, 0},
		{"nested blocks", "record A\n  record B\n    v = 3\n  end\nend", 1, true, 1},
		{"block with supers", "record R(S)\n  v = 1\nend", 1, true, 1},
		{"bare declaration", "record R\nx = 1", 2, false, 0},
		{"declaration list", "record a, b\nx = 1", 2, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustParse(t, tt.input)
			if prog.Root.Len() != tt.count {
				t.Fatalf("got %d statements, want %d", prog.Root.Len(), tt.count)
			}
			switch s := rootStmt(t, prog, 0).(type) {
			case *ScopeStmt:
				if !tt.block {
					t.Fatalf("parsed a record body, want a declaration")
				}
				if s.Body.Len() != tt.members {
					t.Errorf("body has %d statements, want %d", s.Body.Len(), tt.members)
				}
			case *DeclareStmt:
				if tt.block {
					t.Fatalf("parsed a declaration, want a record body")
				}
			default:
				t.Fatalf("first statement is %T", s)
			}
		})
	}

	if _, err := ParseString("record R\n  v = 1\nelse", "test"); err == nil {
		t.Error("record body closed by 'else' parsed")
	}
}

func TestParseFlow(t *testing.T) {
	prog := mustParse(t, "while True\n  break 2\n  continue\n  return x\n  throw\nend")
	loop := rootStmt(t, prog, 0).(*WhileStmt)
	kinds := []FlowKind{FLOW_BREAK, FLOW_CONTINUE, FLOW_RETURN, FLOW_THROW}
	for i, id := range loop.Body.Stmts {
		flow := prog.Stmt(id).(*FlowStmt)
		if flow.Kind != kinds[i] {
			t.Errorf("stmt %d kind = %s, want %s", i, flow.Kind, kinds[i])
		}
	}
	if loop.Body.Len() != 4 {
		t.Errorf("body has %d statements, want 4", loop.Body.Len())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  types.ErrorCode
		line  int
	}{
		{"if a\n  b\n", types.E_MISSINGTOKEN, 1},
		{"x = 1\nwhile a\n  b", types.E_MISSINGTOKEN, 2},
		{"try: a", types.E_MISSINGTOKEN, 1},
		{"end", types.E_UNEXPECTEDTOKEN, 1},
		{"x = 1\nelse", types.E_UNEXPECTEDTOKEN, 2},
		{"try: a catch A B: b", types.E_UNEXPECTEDTOKEN, 1},
		{"try: a catch (x, y): b", types.E_UNEXPECTEDTOKEN, 1},
		{"catch: b", types.E_UNEXPECTEDTOKEN, 1},
		{"pass 1", types.E_UNEXPECTEDTOKEN, 1},
		{"def f(a, a): pass", types.E_UNEXPECTEDTOKEN, 1},
		{"def (a): pass", types.E_MISSINGTOKEN, 1},
		{"for 1 in x: pass", types.E_MISSINGTOKEN, 1},
		{"for i of x: pass", types.E_MISSINGTOKEN, 1},
		{"if a: pass\nend", types.E_UNEXPECTEDTOKEN, 2},
		{"if a: while b\n  c\nend", types.E_MISSINGTOKEN, 1},
		{"while a: pass end x", types.E_UNEXPECTEDTOKEN, 1},
		{"x = (1 + 2", types.E_MISSINGTOKEN, 1},
		{"const x := 1", types.E_UNEXPECTEDTOKEN, 1},
		{"if: pass", types.E_MISSINGTOKEN, 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseString(tt.input, "test")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, types.Kind(tt.kind)) {
				t.Errorf("error = %v, want %s", err, tt.kind)
			}
			if se := types.AsScriptError(err); se.Line != tt.line {
				t.Errorf("line = %d, want %d (%v)", se.Line, tt.line, err)
			}
		})
	}
}

func TestUnparseRoundTrip(t *testing.T) {
	src := `
import m
record Shape(m::Base)
  sides = 0
  def area(scale = 1): return scale * (sides - 1)
end
record a, b
s = Shape()
const N = -(1 + 2) * 3
d = {"k": [1, 2.5, "t\n"]}
for i in range(N): print i, d["k"][1:]
if not s.sides == 0 and N < 3: x := 1 elsif N: x ?= 2 else: del d
try: throw KeyError catch KeyError, NotFoundError as e: print e end
while True
  x += 1
  if x > 5: break
end
`
	first := mustParse(t, src)
	text := strings.Join(Unparse(first), "\n")
	second := mustParse(t, text)
	again := strings.Join(Unparse(second), "\n")
	if text != again {
		t.Errorf("unparse not stable:\n%s\n---\n%s", text, again)
	}
	if first.Root.Len() != second.Root.Len() {
		t.Errorf("statement count %d != %d", first.Root.Len(), second.Root.Len())
	}
}

func TestIsIncomplete(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"while x\n  print x", true},
		{"def f()\n  return 1", true},
		{"try\n  x = 1", true},
		{"print 1 +", false},
		{"end", false},
	}
	for _, tt := range tests {
		_, err := ParseString(tt.input, "test")
		if err == nil {
			t.Fatalf("%q parsed without error", tt.input)
		}
		if got := IsIncomplete(err); got != tt.want {
			t.Errorf("IsIncomplete(%q) = %v, want %v (%v)", tt.input, got, tt.want, err)
		}
	}
}

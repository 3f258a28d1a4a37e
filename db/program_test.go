package db

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"ember/parser"
	"ember/types"
)

const sampleScript = `
import m
record Shape(m::Base)
  sides = 0
  def area(scale = 1): return scale * (sides - 1.25)
end
record a, b
const N = -(1 + 2) * 3
d = {"k": [1, 2.5, "t\n", None, True]}
for i in range(N): print i, d["k"][1:], d["k"][:2]
if not d and N < 3: x := 1 elsif N: x ?= 2 else: del d["k"]
try
  throw KeyError
catch KeyError, NotFoundError as e
  print e
catch
  pass
end
while True
  x += 1
  if x > 5: break 1
end
print len(d), f(1, b = 2), a.b.c
`

func roundTrip(t *testing.T, prog *parser.Program) *parser.Program {
	t.Helper()
	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteProgram(prog); err != nil {
		t.Fatalf("WriteProgram() error = %v", err)
	}
	out, err := ReadProgram(&buf)
	if err != nil {
		t.Fatalf("ReadProgram() error = %v", err)
	}
	return out
}

func TestProgramRoundTrip(t *testing.T) {
	prog, err := parser.ParseString(sampleScript, "sample.em")
	if err != nil {
		t.Fatal(err)
	}
	back := roundTrip(t, prog)

	if back.Source != "sample.em" {
		t.Errorf("source = %q", back.Source)
	}
	want := strings.Join(parser.Unparse(prog), "\n")
	got := strings.Join(parser.Unparse(back), "\n")
	if got != want {
		t.Errorf("round trip changed the program:\n%s\n---\n%s", want, got)
	}

	// catch links are rebuilt
	var catches []*parser.CatchStmt
	for _, s := range back.Stmts {
		if cs, ok := s.(*parser.CatchStmt); ok {
			catches = append(catches, cs)
		}
	}
	if len(catches) != 2 || catches[0].Last != catches[1].Last || !catches[1].Final {
		t.Errorf("catch chain not restored: %+v", catches)
	}
}

func TestProgramHeader(t *testing.T) {
	prog, _ := parser.ParseString("x = 1", "h")
	var buf bytes.Buffer
	NewWriter(&buf).WriteProgram(prog)
	if !strings.HasPrefix(buf.String(), "** Ember Program v2 **\n") {
		t.Errorf("header = %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}
}

func TestProgramLegacyNames(t *testing.T) {
	// v1: name expressions carry one identifier and no segment count
	data := strings.Join([]string{
		"** Ember Program v1 **",
		`"old"`,
		"1",      // statements
		"2", "1", // ExprStmt, line
		"2", "1", // NameExpr, line
		"0",        // flags
		`"answer"`, // identifier
	}, "\n") + "\n"

	rd := NewReader(strings.NewReader(data))
	prog, err := rd.ReadProgram()
	if err != nil {
		t.Fatalf("ReadProgram() error = %v", err)
	}
	if rd.Version() != 1 {
		t.Errorf("Version() = %d, want 1", rd.Version())
	}
	name := prog.Stmt(prog.Root.First()).(*parser.ExprStmt).Expr.(*parser.NameExpr)
	if name.Identifier() != "answer" {
		t.Errorf("identifier = %q, want answer", name.Identifier())
	}
}

func TestProgramReadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"bad header", "hello\n"},
		{"future version", "** Ember Program v9 **\n\"x\"\n0\n"},
		{"unknown statement tag", "** Ember Program v2 **\n\"x\"\n1\n99\n1\n"},
		{"unknown expression tag", "** Ember Program v2 **\n\"x\"\n1\n2\n1\n42\n1\n"},
		{"truncated", "** Ember Program v2 **\n\"x\"\n3\n"},
		{"malformed number", "** Ember Program v2 **\n\"x\"\n1\n2\n1\n1\n1\n1\nabc\n"},
		{"unquoted string", "** Ember Program v2 **\nx\n0\n"},
		{"catch without final", "** Ember Program v2 **\n\"x\"\n1\n7\n1\n0\n\"\"\n0\n0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadProgram(strings.NewReader(tt.data))
			if !errors.Is(err, types.Kind(types.E_SERIALIZATION)) {
				t.Errorf("error = %v, want SerializationError", err)
			}
		})
	}
}

func TestSaveAndLoadProgram(t *testing.T) {
	prog, err := parser.ParseString("print 'saved'", "save.em")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out", "save.emp")
	if err := SaveProgram(path, prog); err != nil {
		t.Fatalf("SaveProgram() error = %v", err)
	}
	back, err := LoadProgram(path)
	if err != nil {
		t.Fatalf("LoadProgram() error = %v", err)
	}
	if back.Root.Len() != 1 {
		t.Errorf("loaded %d statements, want 1", back.Root.Len())
	}
	if _, err := LoadProgram(path + ".missing"); err == nil {
		t.Error("LoadProgram of a missing file should fail")
	}
}

package vm

import (
	"bytes"
	"errors"
	"testing"

	"ember/parser"
	"ember/types"
)

// runScript parses and executes src in a fresh process
func runScript(t *testing.T, src string, opts Options) (*Process, string, error) {
	t.Helper()
	prog, err := parser.ParseString(src, "test.em")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	var out bytes.Buffer
	opts.Output = &out
	p := NewProcess(nil, opts)
	if err := p.Run(prog); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	err = p.Execute()
	return p, out.String(), err
}

func TestExecuteOutput(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"precedence", `print 1 + 2 * 3, (1 + 2) * 3, -2 * 3, 10 % 4, 7 / 2`, "7 9 -6 2 3.5\n"},
		{"text operators", `print "ab" + "c", "xy" * 2, len("héllo")`, "abc xyxy 5\n"},
		{"comparison", `print 1 < 2, "a" < "b", 2 == 2.0, 1 != 1, 3 in [1, 2, 3], "k" in {"k": 1}`,
			"True True True False True True\n"},
		{"logic", `print not 0, 1 and 0, 0 or 2`, "True False True\n"},
		{"while", `
i = 0
while i < 3
  print i
  i += 1
end`, "0\n1\n2\n"},
		{"for array", `for x in [1, 2, 3]: print x`, "1\n2\n3\n"},
		{"for dict keys", `for k in {"b": 1, "a": 2}: print k`, "a\nb\n"},
		{"for text", `for ch in "abc": print ch`, "a\nb\nc\n"},
		{"continue and break", `
for i in [1, 2, 3, 4, 5]
  if i == 2: continue
  if i == 4: break
  print i
end`, "1\n3\n"},
		{"break count", `
for i in [1, 2]
  for j in [1, 2]
    print i, j
    break 2
  end
end
print "done"`, "1 1\ndone\n"},
		{"if chain", `
x = 2
if x == 1
  print "one"
elsif x == 2
  print "two"
else
  print "many"
end`, "two\n"},
		{"shadowing", `
x = "global"
def f()
  x = "local"
  print x
end
f()
print x
def g()
  x := "changed"
end
g()
print x`, "local\nglobal\nchanged\n"},
		{"weak assignment", `
a = 1
a ?= 2
b ?= 3
print a, b`, "1 3\n"},
		{"chained assignment", `
a = b = [1]
b[0] = 2
print a, b`, "[1] [2]\n"},
		{"defaults and named arguments", `
def f(a, b = 10, c = a + 1)
  return a + b + c
end
print f(1), f(1, 2), f(1, c = 0)`, "13 5 11\n"},
		{"methods", `
record Counter
  def __init__(start)
    self.count = start
  end
  def bump()
    self.count += 1
    return self.count
  end
end
c = Counter(5)
c.bump()
print c.bump(), c.count`, "7 7\n"},
		{"initializer runs once", `
calls = []
record R
  def __init__()
    calls := calls + [1]
  end
end
r = R()
print len(calls)`, "1\n"},
		{"init member", `
record Pair
  def init(a, b)
    self.sum = a + b
  end
end
record Both
  def init(): self.v = "init"
  def __init__(): self.v = "__init__"
end
p = Pair(2, 3)
b = Both()
print p.sum, b.v`, "5 __init__\n"},
		{"record block form", `
record R
  v = 1
end
record a, b
print R.v, typeof(a)`, "1 Record\n"},
		{"inherited members", `
record Base
  kind = "base"
  def describe(): return "I am " + self.kind
end
record Derived(Base)
  kind = "derived"
end
print Derived.kind, Derived::kind, Derived.describe()`, "derived derived I am derived\n"},
		{"scoped names", `
record A
  record B
    v = 3
  end
end
print A::B::v, A.B.v`, "3 3\n"},
		{"scoped name through supers", `
record S
  def f(): return "from S"
end
record T(S)
  v = 1
end
print T::f()`, "from S\n"},
		{"record body extends", `
record A
  x = 1
end
record A
  y = 2
end
print A.x + A.y`, "3\n"},
		{"returned record survives", `
record P
  v = 1
end
def make()
  p = P()
  p.v = 42
  return p
end
q = make()
print q.v`, "42\n"},
		{"indexed assignment", `
d = {"a": [1, 2]}
d["a"][1] = 5
d["b"] = 3
d["b"] += 1
print d["a"], d["b"], len(d)`, "[1, 5] 4 2\n"},
		{"record index", `
record R
  v = 1
end
R["w"] = 2
print R["v"] + R.w`, "3\n"},
		{"value semantics", `
a = [1, 2]
b = a
b[0] = 9
print a, b`, "[1, 2] [9, 2]\n"},
		{"slices", `print [1, 2, 3, 4][1:3], "hello"[:2], "hello"[-3:]`, "[2, 3] he llo\n"},
		{"built-ins", `print typeof(1), typeof("a"), Number("0x10"), Text(12) + "!", floor(2.7), eval("1 + 2")`,
			"Number Text 16 12! 2 3\n"},
		{"members", `
record R
  a = 1
  b = 2
end
print len(members(R)), len(dictkeys({"x": 1})), "a" in R`, "2 1 True\n"},
		{"delete", `
x = 1
del x
try
  print x
catch NotFoundError
  print "gone"
end`, "gone\n"},
		{"function from another scope", `
def outer()
  def inner(): return "inner"
  return inner()
end
print outer()`, "inner\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got, err := runScript(t, tt.src, Options{})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExceptions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"kind match", `
try
  print missing
catch NotFoundError as e
  print "caught", typeof(e)
end`, "caught Text\n"},
		{"family match", `
try
  print missing
catch ScopeError
  print "scope"
end`, "scope\n"},
		{"next clause", `
try
  x = [1][5]
catch KeyError
  print "key"
catch RangeError
  print "range"
end
print "after"`, "range\nafter\n"},
		{"catch all", `
try
  print 1 / 0
catch
  print "any"
end`, "any\n"},
		{"thrown error record", `
record Oops(KeyError)
  code = 7
end
try
  throw Oops("bad")
catch KeyError as e
  print "got", e.message, e.code
end`, "got bad 7\n"},
		{"thrown record by super", `
record Base
  x = 1
end
record Derived(Base)
  y = 2
end
try
  throw Derived()
catch Base
  print "base"
end`, "base\n"},
		{"rethrow", `
try
  try
    throw "inner"
  catch
    print "first"
    throw
  end
catch ThrownError as e
  print "second", e
end`, "first\nsecond inner\n"},
		{"propagates out of functions", `
def f()
  throw "boom"
end
try
  f()
  print "not reached"
catch Error as e
  print "caught", e
end`, "caught boom\n"},
		{"nested try skipped", `
try
  throw "x"
  try
    pass
  catch
    print "wrong"
  end
catch
  print "right"
end`, "right\n"},
		{"error inside handler", `
try
  try
    throw "a"
  catch
    throw "b"
  catch
    print "sibling"
  end
catch as e
  print "outer", e
end`, "outer b\n"},
		{"loop state discarded", `
try
  for i in [1, 2, 3]
    if i == 2: throw "stop"
    print i
  end
catch
  print "caught"
end
for i in [7]: print i`, "1\ncaught\n7\n"},
		{"error in record body", `
try
  record R
    v = missing
  end
catch NotFoundError
  print "body"
end`, "body\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got, err := runScript(t, tt.src, Options{})
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUncaughtErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code types.ErrorCode
	}{
		{"division by zero", `print 1 / 0`, types.E_ARITHMETIC},
		{"missing key", "x = {}\nprint x[\"k\"]", types.E_KEY},
		{"out of range", `print [1][3]`, types.E_RANGE},
		{"record index", "record R\n  v = 1\nend\nprint R[1]", types.E_ILLEGALINDEX},
		{"constant", "const N = 1\nN = 2", types.E_READONLY},
		{"redefinition", "def f(): pass\ndef f(): pass", types.E_EXISTS},
		{"unknown function", `f(1)`, types.E_NOTFOUND},
		{"missing argument", "def f(a): return a\nf()", types.E_ARGS},
		{"unknown named argument", "def f(a): return a\nf(b = 1)", types.E_ARGS},
		{"operand types", `print 1 + "a"`, types.E_TYPE},
		{"break outside loop", `break`, types.E_FLOW},
		{"bare throw outside catch", `throw`, types.E_FLOW},
		{"thrown value", `throw "x"`, types.E_THROWN},
		{"cyclic supers", "record A\n  v = 1\nend\nrecord B(A)\n  v = 2\nend\nrecord A(B)\n  v = 3\nend", types.E_SCOPE},
		{"record in use", "record Outer\n  record Inner\n    del Outer::Inner\n  end\nend", types.E_OWNERSHIP},
		{"no module registry", `import os`, types.E_IMPORT},
		{"scoped name skips enclosing scopes", "x = 1\nrecord R\n  v = 1\nend\nprint R::x", types.E_NOTFOUND},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _, err := runScript(t, tt.src, Options{})
			if err == nil {
				t.Fatal("Execute() succeeded, want an error")
			}
			if !errors.Is(err, types.Kind(tt.code)) {
				t.Errorf("error = %v, want kind %s", err, tt.code)
			}
			if p.State() != STOPPED {
				t.Errorf("state = %s, want stopped", p.State())
			}
		})
	}
}

func TestErrorLine(t *testing.T) {
	_, _, err := runScript(t, "x = 1\n\nprint y", Options{})
	se := types.AsScriptError(err)
	if se.Line != 3 {
		t.Errorf("line = %d, want 3", se.Line)
	}
}

func TestLoopRunsExactly(t *testing.T) {
	for _, n := range []int{0, 1, 5, 100} {
		src := "count = 0\ni = 0\nwhile i < " + types.NewNumber(float64(n)).String() + "\n  i += 1\n  count += 1\nend\nprint count"
		_, got, err := runScript(t, src, Options{})
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		want := types.NewNumber(float64(n)).String() + "\n"
		if got != want {
			t.Errorf("n=%d: output = %q, want %q", n, got, want)
		}
	}
}

package modules

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ember/builtins"
	"ember/db"
	"ember/parser"
	"ember/types"
	"ember/vm"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, src := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

// runMain runs src as the file main.em in dir
func runMain(t *testing.T, reg *Registry, dir, src string) (*vm.Process, string, error) {
	t.Helper()
	path := filepath.Join(dir, "main.em")
	writeFiles(t, dir, map[string]string{"main.em": src})
	prog, err := parser.ParseString(src, path)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	var out bytes.Buffer
	p := vm.NewProcess(nil, vm.Options{Output: &out, Modules: reg, Natives: builtins.NewRegistry()})
	if err := p.Run(prog); err != nil {
		t.Fatal(err)
	}
	err = p.Execute()
	return p, out.String(), err
}

func TestImportScriptModule(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"geometry.em": `
pi = 3
def area(r): return pi * r * r
record Square
  def __init__(side)
    self.side = side
  end
end`,
	})
	_, out, err := runMain(t, NewRegistry(), dir, `
import geometry
print geometry.area(2), geometry::pi
s = geometry.Square(4)
print s.side`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if out != "12 3\n4\n" {
		t.Errorf("output = %q", out)
	}
}

func TestModuleLoadedOnce(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"counter.em": "print \"loading\"\nn = 0",
	})
	_, out, err := runMain(t, NewRegistry(), dir, `
import counter
counter.n += 1
import counter
print counter.n`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "loading\n1\n" {
		t.Errorf("output = %q", out)
	}
}

func TestImportByValue(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"cfg.em": "level = 1"})
	_, out, err := runMain(t, NewRegistry(), dir, `
import record cfg
cfg.level = 2
print cfg.level
import cfg
print cfg.level`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "2\n1\n" {
		t.Errorf("output = %q", out)
	}
}

func TestImportSearchPaths(t *testing.T) {
	dir := t.TempDir()
	lib := t.TempDir()
	writeFiles(t, lib, map[string]string{"text.em": `def shout(s): return s + "!"`})

	_, out, err := runMain(t, NewRegistry(lib), dir, `
import text
print text.shout("hi")`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "hi!\n" {
		t.Errorf("output = %q", out)
	}
}

func TestImportErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		main  string
		code  types.ErrorCode
	}{
		{"missing module", nil, `import nowhere`, types.E_IMPORT},
		{"cycle", map[string]string{
			"a.em": "import b",
			"b.em": "import a",
		}, `import a`, types.E_IMPORT},
		{"syntax error", map[string]string{"bad.em": "def f(:"}, `import bad`, types.E_IMPORT},
		{"runtime error", map[string]string{"boom.em": "x = 1 / 0"}, `import boom`, types.E_IMPORT},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.files)
			_, _, err := runMain(t, NewRegistry(), dir, tt.main)
			if !errors.Is(err, types.Kind(tt.code)) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestImportErrorIsCatchable(t *testing.T) {
	_, out, err := runMain(t, NewRegistry(), t.TempDir(), `
try
  import nowhere
catch ImportError as e
  print "no module"
end`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "no module\n" {
		t.Errorf("output = %q", out)
	}
}

func TestFailedLoadNotCached(t *testing.T) {
	dir := t.TempDir()
	reg := NewRegistry()
	writeFiles(t, dir, map[string]string{"late.em": "x = missing"})
	if _, _, err := runMain(t, reg, dir, `import late`); err == nil {
		t.Fatal("first import succeeded")
	}
	writeFiles(t, dir, map[string]string{"late.em": "x = 5"})
	// make sure the parse cache sees a new file
	later := filepath.Join(dir, "late.em")
	if fi, err := os.Stat(later); err == nil {
		os.Chtimes(later, fi.ModTime(), fi.ModTime().Add(1e9))
	}
	_, out, err := runMain(t, reg, dir, "import late\nprint late.x")
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if out != "5\n" {
		t.Errorf("output = %q", out)
	}
}

func TestNativeModule(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterNative(builtins.CryptoModuleName, builtins.NewCryptoModule())
	_, out, err := runMain(t, reg, t.TempDir(), `
import Crypto
print Crypto.hex("ab")`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "6162\n" {
		t.Errorf("output = %q", out)
	}
}

func TestSerializedModule(t *testing.T) {
	dir := t.TempDir()
	prog, err := parser.ParseString(`def twice(x): return x * 2`, "twice.em")
	if err != nil {
		t.Fatal(err)
	}
	if err := db.SaveProgram(filepath.Join(dir, "twice"+ProgramExt), prog); err != nil {
		t.Fatal(err)
	}
	_, out, err := runMain(t, NewRegistry(), dir, "import twice\nprint twice.twice(21)")
	if err != nil {
		t.Fatal(err)
	}
	if out != "42\n" {
		t.Errorf("output = %q", out)
	}
}

func TestDeletedModuleEvicted(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"m.em": `print "load"`})
	reg := NewRegistry()
	p, _, err := runMain(t, reg, dir, `import m`)
	if err != nil {
		t.Fatal(err)
	}
	id, ok := reg.cached(reg.modulesOf(p.Store()), "m")
	if !ok {
		t.Fatal("module was not cached")
	}
	p.Store().Delete(id)
	if _, ok := reg.cached(reg.modulesOf(p.Store()), "m"); ok {
		t.Error("deleted module is still cached")
	}
}

func TestModuleErrorKindsMatchAcrossModules(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"lookup.em": `
record MissingEntry(KeyError)
  pass
end
def find(k): throw MissingEntry("no " + k)`,
	})
	_, out, err := runMain(t, NewRegistry(), dir, `
import lookup
try
  lookup.find("x")
catch KeyError as e
  print e.message
end`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "no x\n" {
		t.Errorf("output = %q", out)
	}
}

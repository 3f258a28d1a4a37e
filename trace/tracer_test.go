package trace

import (
	"bytes"
	"strings"
	"testing"

	"ember/parser"
	"ember/vm"
)

func runTraced(t *testing.T, tr *Tracer, src string) {
	t.Helper()
	prog, err := parser.ParseString(src, "trace.em")
	if err != nil {
		t.Fatal(err)
	}
	p := vm.NewProcess(nil, vm.Options{Output: &bytes.Buffer{}, Tracer: tr})
	if err := p.Run(prog); err != nil {
		t.Fatal(err)
	}
	p.Execute()
}

const tracedProgram = `
def square(x): return x * x
def fail(): throw "no"
square(3)
try
  fail()
catch
  pass
end`

func TestTracerOutput(t *testing.T) {
	var out bytes.Buffer
	runTraced(t, New(true, nil, &out), tracedProgram)

	want := []string{
		"[TRACE] CALL square args=[3]",
		"[TRACE] RETURN square => 9",
		"[TRACE] CALL fail args=[]",
		"[TRACE] EXCEPTION fail [ThrownError] no",
	}
	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("trace =\n%s\nwant\n%s", out.String(), strings.Join(want, "\n"))
	}
}

func TestTracerFilter(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		filters []string
		calls   int
	}{
		{"everything", true, nil, 2},
		{"glob", true, []string{"sq*"}, 1},
		{"no match", true, []string{"other"}, 0},
		{"disabled", false, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			runTraced(t, New(tt.enabled, tt.filters, &out), tracedProgram)
			if got := strings.Count(out.String(), "CALL "); got != tt.calls {
				t.Errorf("%d calls traced, want %d:\n%s", got, tt.calls, out.String())
			}
		})
	}
}

func TestNilTracerDisabled(t *testing.T) {
	var tr *Tracer
	if tr.IsEnabled() {
		t.Error("nil tracer is enabled")
	}
}

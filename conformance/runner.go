package conformance

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ember/builtins"
	"ember/db"
	"ember/modules"
	"ember/parser"
	"ember/types"
	"ember/vm"
)

// Mode says how a test program reaches the interpreter
type Mode int

const (
	// ModeDirect runs the parsed program
	ModeDirect Mode = iota
	// ModeRoundTrip runs the program after writing and reading it back
	ModeRoundTrip
)

func (m Mode) String() string {
	if m == ModeRoundTrip {
		return "round_trip"
	}
	return "direct"
}

// DefaultTimeout bounds each test program
const DefaultTimeout = 2 * time.Second

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Mode       Mode
	Passed     bool
	Skipped    bool
	SkipReason string
	Output     string
	Error      error
}

// Runner executes conformance tests
type Runner struct {
	Timeout time.Duration
}

// NewRunner creates a test runner with the default timeout
func NewRunner() *Runner {
	return &Runner{Timeout: DefaultTimeout}
}

// Run executes a single test case in one mode
func (r *Runner) Run(test LoadedTest, mode Mode) TestResult {
	result := TestResult{Test: test, Mode: mode}
	if skipped, reason := test.Test.IsSkipped(); skipped {
		result.Skipped, result.SkipReason = true, reason
		return result
	}
	if mode == ModeRoundTrip && test.Test.NoRoundTrip {
		result.Skipped, result.SkipReason = true, "no round trip"
		return result
	}

	dir, err := os.MkdirTemp("", "ember-conformance-")
	if err != nil {
		result.Error = err
		return result
	}
	defer os.RemoveAll(dir)

	if test.Suite != nil {
		if err := writeFiles(dir, test.Suite.Files); err != nil {
			result.Error = err
			return result
		}
	}
	if err := writeFiles(dir, test.Test.Files); err != nil {
		result.Error = err
		return result
	}

	main := filepath.Join(dir, "main.em")
	if err := os.WriteFile(main, []byte(test.Test.Code), 0644); err != nil {
		result.Error = err
		return result
	}
	output, runErr := r.execute(main, test.Test.Code, mode)
	result.Output = output
	result.Error = checkExpectation(test.Test.Expect, output, runErr)
	result.Passed = result.Error == nil
	return result
}

// RunAll executes every test in both modes
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, 0, 2*len(tests))
	for _, test := range tests {
		results = append(results, r.Run(test, ModeDirect), r.Run(test, ModeRoundTrip))
	}
	return results
}

// execute parses and runs code as the file path, returning what it printed
func (r *Runner) execute(path, code string, mode Mode) (string, error) {
	prog, err := parser.ParseString(code, path)
	if err != nil {
		return "", err
	}
	if mode == ModeRoundTrip {
		if prog, err = roundTrip(prog); err != nil {
			return "", err
		}
	}

	reg := modules.NewRegistry()
	reg.RegisterNative(builtins.CryptoModuleName, builtins.NewCryptoModule())

	var out bytes.Buffer
	p := vm.NewProcess(nil, vm.Options{
		Output:           &out,
		MaxExecutionTime: r.Timeout,
		Modules:          reg,
		Natives:          builtins.NewRegistry(),
	})
	if err := p.Run(prog); err != nil {
		return "", err
	}
	for {
		if err := p.Execute(); err != nil {
			return out.String(), err
		}
		if p.State() != vm.SUSPENDED {
			return out.String(), nil
		}
		p.Suspend(false)
	}
}

// roundTrip writes prog in the program format and reads it back
func roundTrip(prog *parser.Program) (*parser.Program, error) {
	var buf bytes.Buffer
	if err := db.NewWriter(&buf).WriteProgram(prog); err != nil {
		return nil, fmt.Errorf("write program: %w", err)
	}
	back, err := db.ReadProgram(&buf)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	return back, nil
}

func writeFiles(dir string, files FileSet) error {
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

// checkExpectation compares a run's output and error with what the test expects
func checkExpectation(expect Expectation, output string, runErr error) error {
	if expect.Error != "" {
		code, _ := errorKind(expect.Error)
		if runErr == nil {
			return fmt.Errorf("expected %s, program finished with output %q", expect.Error, output)
		}
		if !errors.Is(runErr, types.Kind(code)) {
			return fmt.Errorf("expected %s, got %v", expect.Error, runErr)
		}
		se := types.AsScriptError(runErr)
		if expect.Message != "" && !strings.Contains(se.Message, expect.Message) {
			return fmt.Errorf("expected message containing %q, got %q", expect.Message, se.Message)
		}
		if expect.Line != 0 && se.Line != expect.Line {
			return fmt.Errorf("expected error on line %d, got line %d", expect.Line, se.Line)
		}
	} else if runErr != nil {
		return fmt.Errorf("unexpected error: %v", runErr)
	}

	if expect.Output != nil && output != *expect.Output {
		return fmt.Errorf("expected output %q, got %q", *expect.Output, output)
	}
	for _, want := range expect.Contains {
		if !strings.Contains(output, want) {
			return fmt.Errorf("output %q does not contain %q", output, want)
		}
	}
	return nil
}

// errorKind converts an error name to its code
func errorKind(name string) (types.ErrorCode, bool) {
	return types.ErrorFromString(name)
}

// SummaryStats computes statistics from test results
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from test results
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
		} else if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}

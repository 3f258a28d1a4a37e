package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ember/types"
)

// Tracer writes function calls, returns and exceptions. It implements
// vm.Tracer.
type Tracer struct {
	enabled bool
	filters []string
	writer  io.Writer
	mu      sync.Mutex
}

// New creates a tracer writing to writer, stderr when nil. Filters are
// glob patterns matched against function names; none traces everything.
func New(enabled bool, filters []string, writer io.Writer) *Tracer {
	if writer == nil {
		writer = os.Stderr
	}
	return &Tracer{
		enabled: enabled,
		filters: filters,
		writer:  writer,
	}
}

// IsEnabled returns whether tracing is enabled
func (t *Tracer) IsEnabled() bool {
	return t != nil && t.enabled
}

// matchesFilter checks if a function name matches any of the filter patterns
func (t *Tracer) matchesFilter(name string) bool {
	if len(t.filters) == 0 {
		return true
	}
	for _, pattern := range t.filters {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// Call logs a function call
func (t *Tracer) Call(name string, args []types.Value) {
	if !t.IsEnabled() || !t.matchesFilter(name) {
		return
	}

	argStrs := make([]string, len(args))
	for i, arg := range args {
		argStrs[i] = types.Repr(arg)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE] CALL %s args=[%s]\n", name, strings.Join(argStrs, ", "))
}

// Return logs a function's result
func (t *Tracer) Return(name string, result types.Value) {
	if !t.IsEnabled() || !t.matchesFilter(name) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE] RETURN %s => %s\n", name, types.Repr(result))
}

// Throw logs an error leaving a function
func (t *Tracer) Throw(name string, err *types.ScriptError) {
	if !t.IsEnabled() || !t.matchesFilter(name) {
		return
	}

	msg := err.Message
	if len(msg) > 60 {
		msg = msg[:57] + "..."
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE] EXCEPTION %s [%s] %s\n", name, err.Code, msg)
}

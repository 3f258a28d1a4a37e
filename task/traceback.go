package task

import (
	"fmt"
	"strings"

	"ember/types"
	"ember/vm"
)

// FormatTraceback formats the frames of a failed process, innermost
// first, in the form:
//
//	main.em:2 in inner:  [ArithmeticError] division by zero
//	... called from main.em:5 in outer
//	... called from main.em:7 in <main>
//	(End of traceback)
func FormatTraceback(frames []vm.Frame, err error) []string {
	msg := ""
	if err != nil {
		se := types.AsScriptError(err)
		msg = fmt.Sprintf("[%s] %s", se.Code, se.Message)
	}
	if len(frames) == 0 {
		return []string{
			"(no stack):  " + msg,
			"(End of traceback)",
		}
	}

	lines := make([]string, 0, len(frames)+1)
	for i, f := range frames {
		where := fmt.Sprintf("%s:%d in %s", sourceName(f.Source), f.Line, frameName(f))
		if i == 0 {
			lines = append(lines, where+":  "+msg)
		} else {
			lines = append(lines, "... called from "+where)
		}
	}
	return append(lines, "(End of traceback)")
}

// FormatTracebackString returns the traceback as a single string with newlines
func FormatTracebackString(frames []vm.Frame, err error) string {
	return strings.Join(FormatTraceback(frames, err), "\n")
}

func frameName(f vm.Frame) string {
	switch {
	case f.Kind == vm.CONTEXT_NAMESPACE:
		return "record " + f.Function
	case f.Function == "":
		return "<main>"
	default:
		return f.Function
	}
}

func sourceName(s string) string {
	if s == "" {
		return "<unknown>"
	}
	return s
}

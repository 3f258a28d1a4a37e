package types

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of script error. Kinds form families:
// a catch clause naming a family also catches its members.
type ErrorCode int

const (
	E_ERROR           ErrorCode = 0
	E_SYNTAX          ErrorCode = 1
	E_MISSINGTOKEN    ErrorCode = 2
	E_UNEXPECTEDTOKEN ErrorCode = 3
	E_SCOPE           ErrorCode = 4
	E_NOTFOUND        ErrorCode = 5
	E_EXISTS          ErrorCode = 6
	E_ILLEGALINDEX    ErrorCode = 7
	E_READONLY        ErrorCode = 8
	E_OWNERSHIP       ErrorCode = 9
	E_SERIALIZATION   ErrorCode = 10
	E_HANG            ErrorCode = 11
	E_TYPE            ErrorCode = 12
	E_ARITHMETIC      ErrorCode = 13
	E_KEY             ErrorCode = 14
	E_RANGE           ErrorCode = 15
	E_ARGS            ErrorCode = 16
	E_IMPORT          ErrorCode = 17
	E_FLOW            ErrorCode = 18
	E_THROWN          ErrorCode = 19
)

var errorNames = map[ErrorCode]string{
	E_ERROR:           "Error",
	E_SYNTAX:          "SyntaxError",
	E_MISSINGTOKEN:    "MissingTokenError",
	E_UNEXPECTEDTOKEN: "UnexpectedTokenError",
	E_SCOPE:           "ScopeError",
	E_NOTFOUND:        "NotFoundError",
	E_EXISTS:          "AlreadyExistsError",
	E_ILLEGALINDEX:    "IllegalIndexError",
	E_READONLY:        "ReadOnlyError",
	E_OWNERSHIP:       "OwnershipError",
	E_SERIALIZATION:   "SerializationError",
	E_HANG:            "HangError",
	E_TYPE:            "TypeError",
	E_ARITHMETIC:      "ArithmeticError",
	E_KEY:             "KeyError",
	E_RANGE:           "RangeError",
	E_ARGS:            "ArgumentError",
	E_IMPORT:          "ImportError",
	E_FLOW:            "FlowError",
	E_THROWN:          "ThrownError",
}

// String returns the script-visible name of the error kind
func (e ErrorCode) String() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return "UnknownError"
}

// Parent returns the family an error kind belongs to.
// E_ERROR is the root and is its own parent.
func (e ErrorCode) Parent() ErrorCode {
	switch e {
	case E_MISSINGTOKEN, E_UNEXPECTEDTOKEN:
		return E_SYNTAX
	case E_NOTFOUND, E_EXISTS, E_ILLEGALINDEX:
		return E_SCOPE
	default:
		return E_ERROR
	}
}

// IsA reports whether e is family or one of its members
func (e ErrorCode) IsA(family ErrorCode) bool {
	for {
		if e == family {
			return true
		}
		if e == E_ERROR {
			return false
		}
		e = e.Parent()
	}
}

// Catchable reports whether script-level catch clauses may handle the kind.
// Hang errors always stop the process.
func (e ErrorCode) Catchable() bool {
	return e != E_HANG
}

// ErrorFromString converts a name like "NotFoundError" to an ErrorCode
func ErrorFromString(s string) (ErrorCode, bool) {
	for code, name := range errorNames {
		if name == s {
			return code, true
		}
	}
	return E_ERROR, false
}

// ScriptError is the error type raised by parsing and execution
type ScriptError struct {
	Code    ErrorCode
	Message string
	Line    int   // source line, 0 when unknown
	Value   Value // value given to throw, nil for runtime errors
}

// NewError creates a ScriptError with a formatted message
func NewError(code ErrorCode, format string, args ...any) *ScriptError {
	return &ScriptError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Thrown creates the error raised by a script throw statement
func Thrown(v Value) *ScriptError {
	return &ScriptError{Code: E_THROWN, Message: v.String(), Value: v}
}

func (e *ScriptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] (line %d) %s", e.Code, e.Line, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is lets errors.Is match by family: a target with no message matches
// every error of its kind or of a member kind.
func (e *ScriptError) Is(target error) bool {
	t, ok := target.(*ScriptError)
	if !ok {
		return false
	}
	if t.Message == "" {
		return e.Code.IsA(t.Code)
	}
	return e.Code == t.Code && e.Message == t.Message
}

// AtLine records the line an error happened on, unless already known
func (e *ScriptError) AtLine(line int) *ScriptError {
	if e.Line == 0 {
		e.Line = line
	}
	return e
}

// Kind returns an error usable as an errors.Is target for a whole family
func Kind(code ErrorCode) error {
	return &ScriptError{Code: code}
}

// AsScriptError converts any error to a ScriptError.
// Errors from outside the runtime become plain E_ERROR.
func AsScriptError(err error) *ScriptError {
	var se *ScriptError
	if errors.As(err, &se) {
		return se
	}
	return &ScriptError{Code: E_ERROR, Message: err.Error()}
}

package parser

import (
	"errors"
	"fmt"
	"strings"

	"ember/types"
)

// describe renders a token for diagnostics
func describe(tok Token) string {
	switch tok.Type {
	case TOKEN_EOF, TOKEN_EOL:
		return tok.String()
	case TOKEN_TEXT:
		return fmt.Sprintf("text %s", tok.Value)
	default:
		return fmt.Sprintf("%q", tok.Value)
	}
}

// unexpected reports a token that cannot appear where it was found
func unexpected(tok Token) error {
	return types.NewError(types.E_UNEXPECTEDTOKEN,
		"unexpected %s", describe(tok)).AtLine(tok.Position.Line)
}

// unexpectedAfter reports a token that cannot follow a keyword
func unexpectedAfter(tok Token, keyword string) error {
	return types.NewError(types.E_UNEXPECTEDTOKEN,
		"unexpected %s after '%s'", describe(tok), keyword).AtLine(tok.Position.Line)
}

// missing reports a token or construct the parser expected but did not find
func missing(line int, format string, args ...any) error {
	return types.NewError(types.E_MISSINGTOKEN, format, args...).AtLine(line)
}

// IsIncomplete reports whether err means the input ended inside an
// unclosed block, so more lines could complete it
func IsIncomplete(err error) bool {
	var se *types.ScriptError
	if !errors.As(err, &se) || se.Code != types.E_MISSINGTOKEN {
		return false
	}
	return strings.HasPrefix(se.Message, "expected 'end'") || strings.HasPrefix(se.Message, "expected 'catch'")
}

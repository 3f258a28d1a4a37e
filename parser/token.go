package parser

// TokenType represents different types of lexical tokens
type TokenType int

const (
	TOKEN_EOF TokenType = iota
	TOKEN_EOL           // newline or ';' outside brackets

	TOKEN_NUMBER     // 42, 3.14, 0x1f
	TOKEN_TEXT       // "hello", 'hi', """long"""
	TOKEN_IDENTIFIER // name
	TOKEN_KEYWORD    // if, while, and, True, ...
	TOKEN_OPERATOR   // + - == ( ) [ ] { } , : :: . and friends
)

// Position represents a position in the source code
type Position struct {
	Line   int
	Column int
}

// Token represents a lexical token
type Token struct {
	Type     TokenType
	Value    string
	Literal  string // decoded text for TOKEN_TEXT
	Position Position
}

// Is reports whether the token is the keyword or operator s.
// Text literals never match, so "end" in quotes is not a block end.
func (t Token) Is(s string) bool {
	return (t.Type == TOKEN_KEYWORD || t.Type == TOKEN_OPERATOR) && t.Value == s
}

// IsOperand reports whether the token can stand alone as a value
func (t Token) IsOperand() bool {
	switch t.Type {
	case TOKEN_NUMBER, TOKEN_TEXT, TOKEN_IDENTIFIER:
		return true
	case TOKEN_KEYWORD:
		return t.Value == "True" || t.Value == "False" || t.Value == "None"
	}
	return false
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	switch t {
	case TOKEN_EOF:
		return "EOF"
	case TOKEN_EOL:
		return "EOL"
	case TOKEN_NUMBER:
		return "NUMBER"
	case TOKEN_TEXT:
		return "TEXT"
	case TOKEN_IDENTIFIER:
		return "IDENTIFIER"
	case TOKEN_KEYWORD:
		return "KEYWORD"
	case TOKEN_OPERATOR:
		return "OPERATOR"
	default:
		return "UNKNOWN"
	}
}

func (t Token) String() string {
	switch t.Type {
	case TOKEN_EOF:
		return "end of input"
	case TOKEN_EOL:
		return "end of line"
	default:
		return t.Value
	}
}

// keywords maps reserved words; all of them lex as TOKEN_KEYWORD
var keywords = map[string]bool{
	"if": true, "elsif": true, "else": true, "end": true,
	"while": true, "for": true, "in": true,
	"def": true, "record": true,
	"try": true, "catch": true, "throw": true,
	"del": true, "pass": true, "continue": true, "break": true, "return": true,
	"print": true, "import": true, "const": true,
	"and": true, "or": true, "not": true,
	"True": true, "False": true, "None": true,
}

// blockKeywords end a statement when they appear after its first token
var blockKeywords = map[string]bool{
	"end": true, "else": true, "elsif": true, "catch": true,
}

// IsKeyword reports whether s is a reserved word
func IsKeyword(s string) bool {
	return keywords[s]
}

// operators lists multi-character operators, longest first
var operators = []string{
	"::", ":=", "?=", "+=", "-=", "*=", "/=", "%=", "==", "!=", "<=", ">=",
}

const singleOperators = "+-*/%<>=.:,()[]{}"

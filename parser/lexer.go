package parser

import (
	"strings"
	"unicode"

	"ember/types"
)

// Lexer tokenizes ember source code
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
	line         int
	column       int
	depth        int // bracket nesting; newlines inside brackets are not EOLs
}

// NewLexer creates a new Lexer instance
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar reads the next character and advances position
func (l *Lexer) readChar() {
	if l.position < len(l.input) && l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NUL
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar returns the next character without advancing
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// skipBlank skips spaces, comments and escaped line breaks.
// Newlines are left for NextToken unless inside brackets.
func (l *Lexer) skipBlank() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.readChar()
		case l.ch == '\n' && l.depth > 0:
			l.readChar()
		case l.ch == '\\' && (l.peekChar() == '\n' || l.peekChar() == '\r'):
			l.readChar()
			for l.ch == '\r' {
				l.readChar()
			}
			if l.ch == '\n' {
				l.readChar()
			}
		case l.ch == '#':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		default:
			return
		}
	}
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() (Token, error) {
	l.skipBlank()

	pos := Position{Line: l.line, Column: l.column}
	tok := Token{Position: pos}

	switch {
	case l.ch == 0:
		tok.Type = TOKEN_EOF
	case l.ch == '\n' || l.ch == ';':
		tok.Type = TOKEN_EOL
		tok.Value = string(l.ch)
		l.readChar()
	case l.ch == '"' || l.ch == '\'':
		return l.readText()
	case isDigit(l.ch):
		tok.Type = TOKEN_NUMBER
		tok.Value = l.readNumber()
	case isLetter(l.ch):
		tok.Value = l.readIdentifier()
		tok.Type = TOKEN_IDENTIFIER
		if IsKeyword(tok.Value) {
			tok.Type = TOKEN_KEYWORD
		}
	default:
		op := l.readOperator()
		if op == "" {
			return tok, types.NewError(types.E_UNEXPECTEDTOKEN,
				"unexpected character %q", l.ch).AtLine(pos.Line)
		}
		tok.Type = TOKEN_OPERATOR
		tok.Value = op
		switch op {
		case "(", "[", "{":
			l.depth++
		case ")", "]", "}":
			if l.depth > 0 {
				l.depth--
			}
		}
	}
	return tok, nil
}

func (l *Lexer) readOperator() string {
	rest := l.input[l.position:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			for range op {
				l.readChar()
			}
			return op
		}
	}
	if strings.IndexByte(singleOperators, l.ch) >= 0 {
		op := string(l.ch)
		l.readChar()
		return op
	}
	return ""
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

// readNumber reads decimal, fractional, exponent and 0x hex forms
func (l *Lexer) readNumber() string {
	start := l.position
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return l.input[start:l.position]
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || next == '-' || next == '+' {
			l.readChar()
			if l.ch == '-' || l.ch == '+' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return l.input[start:l.position]
}

// Tokenize lexes the whole input into a TokenBuffer
func Tokenize(input string) (*TokenBuffer, error) {
	l := NewLexer(input)
	buf := &TokenBuffer{}
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		buf.add(tok)
		if tok.Type == TOKEN_EOF {
			return buf, nil
		}
	}
}

// isLetter returns true if the character is a letter or underscore
func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_' || ch >= 0x80
}

// isDigit returns true if the character is a digit
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

package parser

import (
	"strings"

	"ember/types"
)

// TokenBuffer holds the tokens of one source text
type TokenBuffer struct {
	tokens []Token
}

// add appends a token, collapsing runs of EOL and leading EOLs
func (b *TokenBuffer) add(tok Token) {
	if tok.Type == TOKEN_EOL {
		n := len(b.tokens)
		if n == 0 || b.tokens[n-1].Type == TOKEN_EOL {
			return
		}
	}
	b.tokens = append(b.tokens, tok)
}

// Len returns the number of tokens, including the final EOF
func (b *TokenBuffer) Len() int { return len(b.tokens) }

// At returns the token at absolute index i, EOF past the end
func (b *TokenBuffer) At(i int) Token {
	if i < 0 || i >= len(b.tokens) {
		if len(b.tokens) > 0 {
			last := b.tokens[len(b.tokens)-1]
			return Token{Type: TOKEN_EOF, Position: last.Position}
		}
		return Token{Type: TOKEN_EOF}
	}
	return b.tokens[i]
}

// TokenRange is a half-open window [start, end) into a TokenBuffer.
// Indices passed to its methods are relative to start.
type TokenRange struct {
	buf        *TokenBuffer
	start, end int
}

// NewRange returns the range [start, end) of buf
func NewRange(buf *TokenBuffer, start, end int) TokenRange {
	return TokenRange{buf: buf, start: start, end: end}
}

func (r TokenRange) Size() int         { return r.end - r.start }
func (r TokenRange) IsEmpty() bool     { return r.end <= r.start }
func (r TokenRange) Token(i int) Token { return r.buf.At(r.start + i) }
func (r TokenRange) First() Token      { return r.Token(0) }
func (r TokenRange) Last() Token       { return r.Token(r.Size() - 1) }

// Line returns the line of the first token
func (r TokenRange) Line() int {
	return r.First().Position.Line
}

// Between returns the subrange [a, b)
func (r TokenRange) Between(a, b int) TokenRange {
	return TokenRange{buf: r.buf, start: r.start + a, end: r.start + b}
}

// StartingFrom returns the subrange from a to the end
func (r TokenRange) StartingFrom(a int) TokenRange {
	return r.Between(a, r.Size())
}

// EndingTo returns the subrange up to but excluding b
func (r TokenRange) EndingTo(b int) TokenRange {
	return r.Between(0, b)
}

// Find returns the index of the first token matching s at or after from,
// or -1
func (r TokenRange) Find(s string, from int) int {
	for i := from; i < r.Size(); i++ {
		if r.Token(i).Is(s) {
			return i
		}
	}
	return -1
}

// FindBracketless is like Find but skips tokens inside brackets
func (r TokenRange) FindBracketless(s string, from int) int {
	depth := 0
	for i := from; i < r.Size(); i++ {
		tok := r.Token(i)
		if depth == 0 && tok.Is(s) {
			return i
		}
		switch {
		case isOpening(tok):
			depth++
		case isClosing(tok):
			depth--
		}
	}
	return -1
}

// Closing returns the index of the bracket matching the opening bracket at i
func (r TokenRange) Closing(i int) (int, error) {
	open := r.Token(i)
	if !isOpening(open) {
		return -1, types.NewError(types.E_UNEXPECTEDTOKEN,
			"expected a bracket, found %q", open.String()).AtLine(open.Position.Line)
	}
	depth := 0
	for j := i; j < r.Size(); j++ {
		tok := r.Token(j)
		switch {
		case isOpening(tok):
			depth++
		case isClosing(tok):
			depth--
			if depth == 0 {
				if tok.Value != closerOf(open.Value) {
					return -1, types.NewError(types.E_UNEXPECTEDTOKEN,
						"mismatched %q, expected %q", tok.Value, closerOf(open.Value)).AtLine(tok.Position.Line)
				}
				return j, nil
			}
		}
	}
	return -1, types.NewError(types.E_MISSINGTOKEN,
		"missing %q", closerOf(open.Value)).AtLine(open.Position.Line)
}

// Opening returns the index of the bracket matching the closing bracket at i
func (r TokenRange) Opening(i int) (int, error) {
	tok := r.Token(i)
	if !isClosing(tok) {
		return -1, types.NewError(types.E_UNEXPECTEDTOKEN,
			"expected a bracket, found %q", tok.String()).AtLine(tok.Position.Line)
	}
	depth := 0
	for j := i; j >= 0; j-- {
		t := r.Token(j)
		switch {
		case isClosing(t):
			depth++
		case isOpening(t):
			depth--
			if depth == 0 {
				return j, nil
			}
		}
	}
	return -1, types.NewError(types.E_MISSINGTOKEN,
		"missing opening bracket for %q", tok.Value).AtLine(tok.Position.Line)
}

// IsWrapped reports whether the whole range is one bracketed group
// opened by open
func (r TokenRange) IsWrapped(open string) bool {
	if r.Size() < 2 || !r.First().Is(open) {
		return false
	}
	end, err := r.Closing(0)
	return err == nil && end == r.Size()-1
}

// Split divides the range at top-level occurrences of sep.
// An empty range gives no parts; an empty part is an error.
func (r TokenRange) Split(sep string) ([]TokenRange, error) {
	if r.IsEmpty() {
		return nil, nil
	}
	var parts []TokenRange
	from := 0
	for {
		at := r.FindBracketless(sep, from)
		if at < 0 {
			at = r.Size()
		}
		if at == from {
			tok := r.Token(at)
			return nil, types.NewError(types.E_MISSINGTOKEN,
				"expected an expression before %q", tok.String()).AtLine(tok.Position.Line)
		}
		parts = append(parts, r.Between(from, at))
		if at == r.Size() {
			return parts, nil
		}
		from = at + 1
	}
}

// String joins the token texts with spaces
func (r TokenRange) String() string {
	var sb strings.Builder
	for i := 0; i < r.Size(); i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(r.Token(i).Value)
	}
	return sb.String()
}

func isOpening(t Token) bool {
	return t.Type == TOKEN_OPERATOR && (t.Value == "(" || t.Value == "[" || t.Value == "{")
}

func isClosing(t Token) bool {
	return t.Type == TOKEN_OPERATOR && (t.Value == ")" || t.Value == "]" || t.Value == "}")
}

func closerOf(open string) string {
	switch open {
	case "(":
		return ")"
	case "[":
		return "]"
	default:
		return "}"
	}
}

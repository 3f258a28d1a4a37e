package parser

import (
	"errors"
	"testing"

	"ember/types"
)

func tokenValues(t *testing.T, input string) []Token {
	t.Helper()
	buf, err := Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize(%q) error = %v", input, err)
	}
	return buf.tokens
}

func TestLexerTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []Token
	}{
		{
			"x = 42",
			[]Token{
				{Type: TOKEN_IDENTIFIER, Value: "x"},
				{Type: TOKEN_OPERATOR, Value: "="},
				{Type: TOKEN_NUMBER, Value: "42"},
				{Type: TOKEN_EOF},
			},
		},
		{
			"a::b := 1.5e3",
			[]Token{
				{Type: TOKEN_IDENTIFIER, Value: "a"},
				{Type: TOKEN_OPERATOR, Value: "::"},
				{Type: TOKEN_IDENTIFIER, Value: "b"},
				{Type: TOKEN_OPERATOR, Value: ":="},
				{Type: TOKEN_NUMBER, Value: "1.5e3"},
				{Type: TOKEN_EOF},
			},
		},
		{
			"if not x: pass end",
			[]Token{
				{Type: TOKEN_KEYWORD, Value: "if"},
				{Type: TOKEN_KEYWORD, Value: "not"},
				{Type: TOKEN_IDENTIFIER, Value: "x"},
				{Type: TOKEN_OPERATOR, Value: ":"},
				{Type: TOKEN_KEYWORD, Value: "pass"},
				{Type: TOKEN_KEYWORD, Value: "end"},
				{Type: TOKEN_EOF},
			},
		},
		{
			"a--b ?= 0x1F",
			[]Token{
				{Type: TOKEN_IDENTIFIER, Value: "a"},
				{Type: TOKEN_OPERATOR, Value: "-"},
				{Type: TOKEN_OPERATOR, Value: "-"},
				{Type: TOKEN_IDENTIFIER, Value: "b"},
				{Type: TOKEN_OPERATOR, Value: "?="},
				{Type: TOKEN_NUMBER, Value: "0x1F"},
				{Type: TOKEN_EOF},
			},
		},
		{
			"x # comment\n\n\ny; z",
			[]Token{
				{Type: TOKEN_IDENTIFIER, Value: "x"},
				{Type: TOKEN_EOL, Value: "\n"},
				{Type: TOKEN_IDENTIFIER, Value: "y"},
				{Type: TOKEN_EOL, Value: ";"},
				{Type: TOKEN_IDENTIFIER, Value: "z"},
				{Type: TOKEN_EOF},
			},
		},
		{
			"f(1,\n  2)\n",
			[]Token{
				{Type: TOKEN_IDENTIFIER, Value: "f"},
				{Type: TOKEN_OPERATOR, Value: "("},
				{Type: TOKEN_NUMBER, Value: "1"},
				{Type: TOKEN_OPERATOR, Value: ","},
				{Type: TOKEN_NUMBER, Value: "2"},
				{Type: TOKEN_OPERATOR, Value: ")"},
				{Type: TOKEN_EOL, Value: "\n"},
				{Type: TOKEN_EOF},
			},
		},
		{
			"a + \\\n b",
			[]Token{
				{Type: TOKEN_IDENTIFIER, Value: "a"},
				{Type: TOKEN_OPERATOR, Value: "+"},
				{Type: TOKEN_IDENTIFIER, Value: "b"},
				{Type: TOKEN_EOF},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := tokenValues(t, tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d tokens %v, want %d", len(got), got, len(tt.want))
			}
			for i, want := range tt.want {
				if got[i].Type != want.Type {
					t.Errorf("token[%d] type = %s, want %s", i, got[i].Type, want.Type)
				}
				if got[i].Value != want.Value {
					t.Errorf("token[%d] value = %q, want %q", i, got[i].Value, want.Value)
				}
			}
		})
	}
}

func TestLexerText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`'it''s'`, "it"},
		{`"a\nb\t\"c\""`, "a\nb\t\"c\""},
		{`'don\'t'`, "don't"},
		{`"""line one
line "two" """`, "line one\nline \"two\" "},
		{`"\q"`, `\q`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := tokenValues(t, tt.input)
			if got[0].Type != TOKEN_TEXT {
				t.Fatalf("type = %s, want TEXT", got[0].Type)
			}
			if got[0].Literal != tt.want {
				t.Errorf("literal = %q, want %q", got[0].Literal, tt.want)
			}
		})
	}
}

func TestLexerLines(t *testing.T) {
	got := tokenValues(t, "a\n\"\"\"x\ny\"\"\"\nb")
	lines := map[string]int{}
	for _, tok := range got {
		if tok.Type == TOKEN_IDENTIFIER {
			lines[tok.Value] = tok.Position.Line
		}
	}
	if lines["a"] != 1 || lines["b"] != 4 {
		t.Errorf("lines = %v, want a:1 b:4", lines)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		kind  types.ErrorCode
	}{
		{`"open`, types.E_MISSINGTOKEN},
		{"'line\nbreak'", types.E_MISSINGTOKEN},
		{`"""never closed`, types.E_MISSINGTOKEN},
		{"a $ b", types.E_UNEXPECTEDTOKEN},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, types.Kind(tt.kind)) {
				t.Errorf("error = %v, want %s", err, tt.kind)
			}
			if !errors.Is(err, types.Kind(types.E_SYNTAX)) {
				t.Errorf("error %v is not a SyntaxError", err)
			}
		})
	}
}

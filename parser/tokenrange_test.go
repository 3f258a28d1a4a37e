package parser

import "testing"

func rangeOf(t *testing.T, input string) TokenRange {
	t.Helper()
	buf, err := Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize(%q) error = %v", input, err)
	}
	return NewRange(buf, 0, buf.Len()-1)
}

func TestTokenRangeClosing(t *testing.T) {
	r := rangeOf(t, "f(a[1], {b: (c)}) + d")
	end, err := r.Closing(1)
	if err != nil {
		t.Fatalf("Closing() error = %v", err)
	}
	if got := r.Token(end).Value; end != 14 || got != ")" {
		t.Errorf("Closing(1) = %d (%q), want 14", end, got)
	}
	open, err := r.Opening(end)
	if err != nil || open != 1 {
		t.Errorf("Opening(%d) = %d, %v; want 1", end, open, err)
	}

	if _, err := rangeOf(t, "(a]").Closing(0); err == nil {
		t.Error("expected error for mismatched bracket")
	}
	if _, err := rangeOf(t, "(a").Closing(0); err == nil {
		t.Error("expected error for unclosed bracket")
	}
}

func TestTokenRangeSplit(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"a, b, c", []string{"a", "b", "c"}},
		{"f(a, b), [c, d]", []string{"f ( a , b )", "[ c , d ]"}},
		{"", nil},
		{"x", []string{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			parts, err := rangeOf(t, tt.input).Split(",")
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if len(parts) != len(tt.want) {
				t.Fatalf("got %d parts, want %d", len(parts), len(tt.want))
			}
			for i, part := range parts {
				if part.String() != tt.want[i] {
					t.Errorf("part[%d] = %q, want %q", i, part.String(), tt.want[i])
				}
			}
		})
	}

	if _, err := rangeOf(t, "a,,b").Split(","); err == nil {
		t.Error("expected error for empty part")
	}
}

func TestTokenRangeFindBracketless(t *testing.T) {
	r := rangeOf(t, "d[a:b]: x")
	if got := r.Find(":", 0); got != 3 {
		t.Errorf("Find = %d, want 3", got)
	}
	if got := r.FindBracketless(":", 0); got != 6 {
		t.Errorf("FindBracketless = %d, want 6", got)
	}
	if got := r.FindBracketless("+", 0); got != -1 {
		t.Errorf("FindBracketless(+) = %d, want -1", got)
	}
}

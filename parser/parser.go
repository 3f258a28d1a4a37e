package parser

// Parser builds a Program from a token buffer one statement at a time
type Parser struct {
	tokens *TokenBuffer
	pos    int // absolute index of the next unread token
	prog   *Program
}

// NewParser creates a Parser over tokens; source names the program
// in diagnostics and tracebacks
func NewParser(tokens *TokenBuffer, source string) *Parser {
	return &Parser{
		tokens: tokens,
		prog:   NewProgram(source),
	}
}

// ParseString lexes and parses a source text
func ParseString(input, source string) (*Program, error) {
	tokens, err := Tokenize(input)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens, source).Parse()
}

// Parse parses the whole buffer. The first structural error aborts
// parsing; no partial program is returned.
func (p *Parser) Parse() (*Program, error) {
	if err := p.parseCompound(&p.prog.Root); err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TOKEN_EOF {
		return nil, unexpected(tok)
	}
	return p.prog, nil
}

// peek returns the next unread token
func (p *Parser) peek() Token {
	return p.tokens.At(p.pos)
}

// skipEOL consumes line terminators
func (p *Parser) skipEOL() {
	for p.peek().Type == TOKEN_EOL {
		p.pos++
	}
}

// continues reports whether the next token after any line terminators is
// one of keywords. On false nothing is consumed.
func (p *Parser) continues(keywords ...string) bool {
	save := p.pos
	p.skipEOL()
	tok := p.peek()
	for _, kw := range keywords {
		if tok.Is(kw) {
			return true
		}
	}
	p.pos = save
	return false
}

// statementRange consumes the tokens of one statement: everything up to a
// line terminator, or up to a block keyword after the first token.
func (p *Parser) statementRange() TokenRange {
	start := p.pos
	depth := 0
	for ; ; p.pos++ {
		tok := p.peek()
		if tok.Type == TOKEN_EOF || tok.Type == TOKEN_EOL {
			break
		}
		if depth == 0 && p.pos > start && tok.Type == TOKEN_KEYWORD && blockKeywords[tok.Value] {
			break
		}
		switch {
		case isOpening(tok):
			depth++
		case isClosing(tok):
			depth--
		}
	}
	return NewRange(p.tokens, start, p.pos)
}

// parseCompound parses statements into c until end of input or until the
// next statement starts with one of terminators, which is left unread.
func (p *Parser) parseCompound(c *Compound, terminators ...string) error {
	for {
		p.skipEOL()
		tok := p.peek()
		if tok.Type == TOKEN_EOF {
			return nil
		}
		for _, t := range terminators {
			if tok.Is(t) {
				return nil
			}
		}
		if tok.Type == TOKEN_KEYWORD && blockKeywords[tok.Value] {
			return unexpected(tok)
		}
		if err := p.parseStatement(c, p.statementRange(), false); err != nil {
			return err
		}
	}
}

// parseBody parses the body following a compound statement header.
// With a colon the rest of the header is a one-line body; otherwise the
// body is read from the following lines up to one of terminators.
// It reports whether the block form was used.
func (p *Parser) parseBody(header TokenRange, colon int, c *Compound, inline bool, terminators ...string) (bool, error) {
	if colon >= 0 {
		rest := header.StartingFrom(colon + 1)
		if rest.IsEmpty() {
			return false, missing(header.Token(colon).Position.Line, "expected a statement after ':'")
		}
		return false, p.parseStatement(c, rest, true)
	}
	if inline {
		return false, missing(header.Line(), "expected ':' after '%s'", header.First().Value)
	}
	return true, p.parseCompound(c, terminators...)
}

// closeBlock consumes the end of a compound statement. Block forms need
// an "end"; one-line forms accept an optional "end" on the same line.
func (p *Parser) closeBlock(block bool, keyword string, line int) error {
	if block {
		p.skipEOL()
		if !p.peek().Is("end") {
			return missing(line, "expected 'end' to close '%s' on line %d", keyword, line)
		}
	} else if !p.peek().Is("end") {
		return nil
	}
	p.pos++
	tok := p.peek()
	if tok.Type == TOKEN_EOF || tok.Type == TOKEN_EOL || (tok.Type == TOKEN_KEYWORD && blockKeywords[tok.Value]) {
		return nil
	}
	return unexpectedAfter(tok, "end")
}

// headerColon returns the index of the ':' ending a statement header, or -1
func headerColon(r TokenRange, from int) int {
	return r.FindBracketless(":", from)
}

// untilColon returns the header part between from and the colon (or end)
func untilColon(r TokenRange, from, colon int) TokenRange {
	if colon < 0 {
		return r.StartingFrom(from)
	}
	return r.Between(from, colon)
}

func baseOf(r TokenRange) StmtBase {
	return StmtBase{Pos: r.First().Position, Next: NoStmt}
}

package parser

import "strings"

// parseStatement parses the statement in r and appends it to c.
// Inline statements are the bodies of one-line colon forms.
func (p *Parser) parseStatement(c *Compound, r TokenRange, inline bool) error {
	first := r.First()
	if first.Type == TOKEN_KEYWORD {
		switch first.Value {
		case "if":
			return p.parseIf(c, r, inline)
		case "while":
			return p.parseWhile(c, r, inline)
		case "for":
			return p.parseFor(c, r, inline)
		case "try":
			return p.parseTry(c, r, inline)
		case "def":
			return p.parseFunction(c, r, inline)
		case "record":
			return p.parseRecord(c, r, inline)
		case "pass", "continue", "break", "return", "throw":
			return p.parseFlow(c, r)
		case "print":
			return p.parsePrint(c, r)
		case "del":
			return p.parseDelete(c, r)
		case "import":
			return p.parseImport(c, r)
		case "const":
			if r.Size() == 1 {
				return missing(first.Position.Line, "expected an assignment after 'const'")
			}
			return p.parseAssign(c, r.StartingFrom(1), true)
		case "end", "else", "elsif", "catch":
			return unexpected(first)
		}
	}
	if at, _ := findAssign(r); at >= 0 {
		return p.parseAssign(c, r, false)
	}
	expr, err := p.parseExpr(r, 0)
	if err != nil {
		return err
	}
	p.add(c, &ExprStmt{StmtBase: baseOf(r), Expr: expr})
	return nil
}

func (p *Parser) add(c *Compound, s Stmt) StmtID {
	id := p.prog.Add(s)
	p.prog.Append(c, id)
	return id
}

func (p *Parser) parseIf(c *Compound, r TokenRange, inline bool) error {
	stmt := &IfStmt{StmtBase: baseOf(r)}
	line := r.Line()
	block := false
	header := r
	for {
		colon := headerColon(header, 1)
		condRange := untilColon(header, 1, colon)
		if condRange.IsEmpty() {
			return missing(header.Line(), "expected a condition after '%s'", header.First().Value)
		}
		cond, err := p.parseExpr(condRange, 0)
		if err != nil {
			return err
		}
		var body Compound
		b, err := p.parseBody(header, colon, &body, inline, "elsif", "else", "end")
		if err != nil {
			return err
		}
		block = block || b
		stmt.Branches = append(stmt.Branches, IfBranch{Cond: cond, Body: body})

		if !p.continues("elsif", "else") {
			break
		}
		next := p.statementRange()
		if next.First().Is("elsif") {
			header = next
			continue
		}
		colon = headerColon(next, 1)
		if (colon < 0 && next.Size() > 1) || colon > 1 {
			return unexpectedAfter(next.Token(1), "else")
		}
		b, err = p.parseBody(next, colon, &stmt.Else, inline, "end")
		if err != nil {
			return err
		}
		block = block || b
		break
	}
	p.add(c, stmt)
	return p.closeBlock(block, "if", line)
}

func (p *Parser) parseWhile(c *Compound, r TokenRange, inline bool) error {
	colon := headerColon(r, 1)
	condRange := untilColon(r, 1, colon)
	if condRange.IsEmpty() {
		return missing(r.Line(), "expected a condition after 'while'")
	}
	cond, err := p.parseExpr(condRange, 0)
	if err != nil {
		return err
	}
	stmt := &WhileStmt{StmtBase: baseOf(r), Cond: cond}
	block, err := p.parseBody(r, colon, &stmt.Body, inline, "end")
	if err != nil {
		return err
	}
	p.add(c, stmt)
	return p.closeBlock(block, "while", r.Line())
}

func (p *Parser) parseFor(c *Compound, r TokenRange, inline bool) error {
	if r.Size() < 2 || r.Token(1).Type != TOKEN_IDENTIFIER {
		return missing(r.Line(), "expected a loop variable after 'for'")
	}
	if !r.Token(2).Is("in") {
		return missing(r.Line(), "expected 'in' after the loop variable")
	}
	colon := headerColon(r, 3)
	iterRange := untilColon(r, 3, colon)
	if iterRange.IsEmpty() {
		return missing(r.Line(), "expected an expression after 'in'")
	}
	iterable, err := p.parseExpr(iterRange, 0)
	if err != nil {
		return err
	}
	tok := r.Token(1)
	stmt := &ForStmt{
		StmtBase: baseOf(r),
		Iterator: &NameExpr{
			Pos:      tok.Position,
			Segments: []string{tok.Value},
			Flags:    NAME_BY_REFERENCE | NAME_NEW_VARIABLE | NAME_LOCAL_ONLY,
		},
		Iterable: iterable,
	}
	block, err := p.parseBody(r, colon, &stmt.Body, inline, "end")
	if err != nil {
		return err
	}
	p.add(c, stmt)
	return p.closeBlock(block, "for", r.Line())
}

// parseTry parses a try statement and the catch statements that follow it.
// They are appended to c in sequence; the try's Next is the first catch.
func (p *Parser) parseTry(c *Compound, r TokenRange, inline bool) error {
	colon := headerColon(r, 1)
	if (colon < 0 && r.Size() > 1) || colon > 1 {
		return unexpectedAfter(r.Token(1), "try")
	}
	stmt := &TryStmt{StmtBase: baseOf(r)}
	block, err := p.parseBody(r, colon, &stmt.Body, inline, "catch")
	if err != nil {
		return err
	}
	p.add(c, stmt)

	var catches []*CatchStmt
	var last StmtID
	for p.continues("catch") {
		header := p.statementRange()
		colon := headerColon(header, 1)
		cs := &CatchStmt{StmtBase: baseOf(header)}
		if err := parseCatchArgs(untilColon(header, 1, colon), cs); err != nil {
			return err
		}
		b, err := p.parseBody(header, colon, &cs.Body, inline, "catch", "end")
		if err != nil {
			return err
		}
		block = block || b
		last = p.add(c, cs)
		catches = append(catches, cs)
	}
	if len(catches) == 0 {
		return missing(r.Line(), "expected 'catch' after 'try' on line %d", r.Line())
	}
	for _, cs := range catches {
		cs.Last = last
	}
	catches[len(catches)-1].Final = true
	return p.closeBlock(block, "try", r.Line())
}

// parseCatchArgs parses "[Pattern[, Pattern]*] [as name | (name)]"
func parseCatchArgs(h TokenRange, cs *CatchStmt) error {
	n := h.Size()
	switch {
	case n >= 2 && h.Token(n-2).Type == TOKEN_IDENTIFIER && h.Token(n-2).Value == "as":
		if h.Token(n-1).Type != TOKEN_IDENTIFIER {
			return unexpectedAfter(h.Token(n-1), "as")
		}
		cs.Variable = h.Token(n - 1).Value
		n -= 2
	case n >= 1 && h.Token(n-1).Is(")"):
		open, err := h.Opening(n - 1)
		if err != nil {
			return err
		}
		if open+3 != n || h.Token(open+1).Type != TOKEN_IDENTIFIER {
			return unexpected(h.Token(open + 1))
		}
		cs.Variable = h.Token(open + 1).Value
		n = open
	}
	parts, err := h.EndingTo(n).Split(",")
	if err != nil {
		return err
	}
	for _, part := range parts {
		segs, ok := scopedName(part)
		if !ok {
			return unexpectedAfter(part.First(), "catch")
		}
		cs.Patterns = append(cs.Patterns, strings.Join(segs, "::"))
	}
	return nil
}

func (p *Parser) parseFunction(c *Compound, r TokenRange, inline bool) error {
	if r.Size() < 2 || r.Token(1).Type != TOKEN_IDENTIFIER {
		return missing(r.Line(), "expected a function name after 'def'")
	}
	if !r.Token(2).Is("(") {
		return missing(r.Line(), "expected '(' after the function name")
	}
	closing, err := r.Closing(2)
	if err != nil {
		return err
	}
	colon := -1
	if closing+1 < r.Size() {
		if !r.Token(closing + 1).Is(":") {
			return unexpected(r.Token(closing + 1))
		}
		colon = closing + 1
	}
	stmt := &FunctionStmt{StmtBase: baseOf(r), Name: r.Token(1).Value}
	params, err := r.Between(3, closing).Split(",")
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	for _, param := range params {
		tok := param.First()
		if tok.Type != TOKEN_IDENTIFIER {
			return unexpected(tok)
		}
		if seen[tok.Value] {
			return unexpected(tok)
		}
		seen[tok.Value] = true
		var def Expr
		if param.Size() > 1 {
			if !param.Token(1).Is("=") {
				return unexpected(param.Token(1))
			}
			if param.Size() == 2 {
				return missing(tok.Position.Line, "expected a default value for '%s'", tok.Value)
			}
			if def, err = p.parseExpr(param.StartingFrom(2), 0); err != nil {
				return err
			}
		}
		stmt.Params = append(stmt.Params, tok.Value)
		stmt.Defaults = append(stmt.Defaults, def)
	}
	block, err := p.parseBody(r, colon, &stmt.Body, inline, "end")
	if err != nil {
		return err
	}
	p.add(c, stmt)
	return p.closeBlock(block, "def", r.Line())
}

// parseRecord parses "record Name(supers): body", its block form, or the
// bare declaration "record a, b"
func (p *Parser) parseRecord(c *Compound, r TokenRange, inline bool) error {
	if r.Size() < 2 || r.Token(1).Type != TOKEN_IDENTIFIER {
		return missing(r.Line(), "expected a record name after 'record'")
	}
	if r.Size() == 2 && !inline {
		if stmt, ok := p.recordBlock(r); ok {
			p.add(c, stmt)
			return p.closeBlock(true, "record", r.Line())
		}
	}
	if r.Size() == 2 || r.Token(2).Is(",") {
		names, err := identifierList(r.StartingFrom(1))
		if err != nil {
			return err
		}
		p.add(c, &DeclareStmt{StmtBase: baseOf(r), Names: names})
		return nil
	}
	stmt := &ScopeStmt{StmtBase: baseOf(r), Name: r.Token(1).Value}
	colon := 2
	if r.Token(2).Is("(") {
		closing, err := r.Closing(2)
		if err != nil {
			return err
		}
		supers, err := r.Between(3, closing).Split(",")
		if err != nil {
			return err
		}
		for _, s := range supers {
			expr, err := p.parseExpr(s, 0)
			if err != nil {
				return err
			}
			stmt.Supers = append(stmt.Supers, expr)
		}
		colon = closing + 1
		if colon == r.Size() {
			colon = -1
		}
	}
	if colon >= 0 && !r.Token(colon).Is(":") {
		return unexpected(r.Token(colon))
	}
	block, err := p.parseBody(r, colon, &stmt.Body, inline, "end")
	if err != nil {
		return err
	}
	p.add(c, stmt)
	return p.closeBlock(block, "record", r.Line())
}

// recordBlock parses the body of a "record Name" header when lines
// closed by "end" follow it. Otherwise nothing is consumed and the header
// is a bare declaration.
func (p *Parser) recordBlock(r TokenRange) (*ScopeStmt, bool) {
	pos, n := p.pos, len(p.prog.Stmts)
	stmt := &ScopeStmt{StmtBase: baseOf(r), Name: r.Token(1).Value}
	if err := p.parseCompound(&stmt.Body, "end"); err == nil {
		body := p.pos
		p.skipEOL()
		if p.peek().Is("end") {
			p.pos = body
			return stmt, true
		}
	}
	p.pos, p.prog.Stmts = pos, p.prog.Stmts[:n]
	return nil, false
}

func (p *Parser) parseFlow(c *Compound, r TokenRange) error {
	stmt := &FlowStmt{StmtBase: baseOf(r)}
	switch r.First().Value {
	case "pass":
		stmt.Kind = FLOW_PASS
	case "continue":
		stmt.Kind = FLOW_CONTINUE
	case "break":
		stmt.Kind = FLOW_BREAK
	case "return":
		stmt.Kind = FLOW_RETURN
	case "throw":
		stmt.Kind = FLOW_THROW
	}
	if r.Size() > 1 {
		if stmt.Kind == FLOW_PASS || stmt.Kind == FLOW_CONTINUE {
			return unexpectedAfter(r.Token(1), r.First().Value)
		}
		value, err := p.parseExpr(r.StartingFrom(1), 0)
		if err != nil {
			return err
		}
		stmt.Value = value
	}
	p.add(c, stmt)
	return nil
}

func (p *Parser) parsePrint(c *Compound, r TokenRange) error {
	args, err := p.parseList(r.StartingFrom(1))
	if err != nil {
		return err
	}
	p.add(c, &PrintStmt{StmtBase: baseOf(r), Args: args})
	return nil
}

func (p *Parser) parseDelete(c *Compound, r TokenRange) error {
	if r.Size() == 1 {
		return missing(r.Line(), "expected a name after 'del'")
	}
	parts, err := r.StartingFrom(1).Split(",")
	if err != nil {
		return err
	}
	stmt := &DeleteStmt{StmtBase: baseOf(r)}
	for _, part := range parts {
		target, err := p.parseExpr(part, NAME_BY_REFERENCE|NAME_LOCAL_ONLY)
		if err != nil {
			return err
		}
		switch t := target.(type) {
		case *NameExpr, *IndexExpr:
		case *OperatorExpr:
			if t.Op != OP_MEMBER {
				return unexpectedAfter(part.First(), "del")
			}
		default:
			return unexpectedAfter(part.First(), "del")
		}
		stmt.Targets = append(stmt.Targets, target)
	}
	p.add(c, stmt)
	return nil
}

func (p *Parser) parseImport(c *Compound, r TokenRange) error {
	stmt := &ImportStmt{StmtBase: baseOf(r)}
	rest := r.StartingFrom(1)
	if rest.First().Is("record") {
		stmt.ByValue = true
		rest = rest.StartingFrom(1)
	}
	if rest.IsEmpty() {
		return missing(r.Line(), "expected a module name after 'import'")
	}
	names, err := identifierList(rest)
	if err != nil {
		return err
	}
	stmt.Names = names
	p.add(c, stmt)
	return nil
}

// findAssign locates the first top-level assignment token of a statement
func findAssign(r TokenRange) (int, AssignMode) {
	depth := 0
	for i := 0; i < r.Size(); i++ {
		tok := r.Token(i)
		switch {
		case isOpening(tok):
			depth++
		case isClosing(tok):
			depth--
		case depth == 0 && tok.Is("="):
			return i, ASSIGN_LOCAL
		case depth == 0 && tok.Is(":="):
			return i, ASSIGN_SCOPE
		case depth == 0 && tok.Is("?="):
			return i, ASSIGN_WEAK
		}
	}
	return -1, ASSIGN_LOCAL
}

// parseAssign parses "target [= target]* = value". Every target is split
// off at the same assignment operator; the value is the last part.
func (p *Parser) parseAssign(c *Compound, r TokenRange, isConst bool) error {
	at, mode := findAssign(r)
	if at < 0 {
		return missing(r.Line(), "expected an assignment")
	}
	if isConst && mode != ASSIGN_LOCAL {
		return unexpectedAfter(r.Token(at), "const")
	}
	op := r.Token(at).Value
	parts, err := r.Split(op)
	if err != nil {
		return err
	}
	if len(parts) < 2 {
		return missing(r.Token(at).Position.Line, "expected a value after '%s'", op)
	}
	stmt := &AssignStmt{StmtBase: baseOf(r), Mode: mode, Const: isConst}
	for _, part := range parts[:len(parts)-1] {
		target, err := p.parseTarget(part, mode, isConst)
		if err != nil {
			return err
		}
		stmt.Targets = append(stmt.Targets, target)
	}
	if stmt.Value, err = p.parseExpr(parts[len(parts)-1], 0); err != nil {
		return err
	}
	p.add(c, stmt)
	return nil
}

// parseTarget peels trailing [index] suffixes off an assignment target,
// right to left, and parses what remains as a name or member expression.
func (p *Parser) parseTarget(r TokenRange, mode AssignMode, isConst bool) (AssignTarget, error) {
	var t AssignTarget
	for r.Size() > 1 && r.Last().Is("]") {
		open, err := r.Opening(r.Size() - 1)
		if err != nil {
			return t, err
		}
		if open == 0 {
			break
		}
		inner := r.Between(open+1, r.Size()-1)
		if inner.IsEmpty() {
			return t, missing(r.Line(), "expected an index")
		}
		idx, err := p.parseExpr(inner, 0)
		if err != nil {
			return t, err
		}
		t.Indices = append([]Expr{idx}, t.Indices...)
		r = r.EndingTo(open)
	}
	flags := NAME_BY_REFERENCE
	if len(t.Indices) == 0 {
		switch mode {
		case ASSIGN_LOCAL:
			flags |= NAME_NEW_VARIABLE | NAME_LOCAL_ONLY
		case ASSIGN_SCOPE:
			flags |= NAME_NEW_VARIABLE
		case ASSIGN_WEAK:
			flags |= NAME_NEW_VARIABLE | NAME_THROWAWAY_IF_IN_SCOPE
		}
		if isConst {
			flags |= NAME_READ_ONLY
		}
	} else if isConst {
		return t, unexpectedAfter(r.Token(r.Size()), "const")
	}
	target, err := p.parseExpr(r, flags)
	if err != nil {
		return t, err
	}
	switch e := target.(type) {
	case *NameExpr:
	case *OperatorExpr:
		if e.Op != OP_MEMBER {
			return t, unexpected(r.First())
		}
	default:
		return t, unexpected(r.First())
	}
	t.Target = target
	return t, nil
}

// identifierList parses "a, b, c"
func identifierList(r TokenRange) ([]string, error) {
	parts, err := r.Split(",")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if part.Size() != 1 || part.First().Type != TOKEN_IDENTIFIER {
			return nil, unexpected(part.First())
		}
		names = append(names, part.First().Value)
	}
	return names, nil
}

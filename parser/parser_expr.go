package parser

import (
	"strconv"
	"strings"

	"ember/types"
)

// Precedence ranks. A range is split at its lowest-ranked operator.
const (
	rankAssign   = 1 // += -= *= /= %=  (right associative)
	rankOr       = 2
	rankAnd      = 3
	rankNot      = 4 // prefix
	rankEquality = 5 // in == !=
	rankCompare  = 6 // < > <= >=
	rankAdd      = 7
	rankMul      = 8
	rankUnary    = 9  // prefix + -
	rankPostfix  = 10 // call, index, slice, member
)

type binaryOp struct {
	op   Operator
	rank int
}

var binaryOps = map[string]binaryOp{
	"+=":  {OP_ADD_ASSIGN, rankAssign},
	"-=":  {OP_SUB_ASSIGN, rankAssign},
	"*=":  {OP_MUL_ASSIGN, rankAssign},
	"/=":  {OP_DIV_ASSIGN, rankAssign},
	"%=":  {OP_MOD_ASSIGN, rankAssign},
	"or":  {OP_OR, rankOr},
	"and": {OP_AND, rankAnd},
	"in":  {OP_IN, rankEquality},
	"==":  {OP_EQ, rankEquality},
	"!=":  {OP_NE, rankEquality},
	"<":   {OP_LT, rankCompare},
	">":   {OP_GT, rankCompare},
	"<=":  {OP_LE, rankCompare},
	">=":  {OP_GE, rankCompare},
	"+":   {OP_ADD, rankAdd},
	"-":   {OP_SUB, rankAdd},
	"*":   {OP_MUL, rankMul},
	"/":   {OP_DIV, rankMul},
	"%":   {OP_MOD, rankMul},
}

type splitKind int

const (
	splitBinary splitKind = iota
	splitPrefix
	splitMember
	splitCall
	splitIndex
)

type splitPoint struct {
	index int
	rank  int
	kind  splitKind
	op    Operator
}

// leftAssoc reports whether ties are broken at the rightmost occurrence
func (s splitPoint) leftAssoc() bool {
	return s.kind != splitPrefix && s.rank != rankAssign
}

// findSplit scans r once and returns the operator to split at.
// ok is false when r has no top-level operator.
func findSplit(r TokenRange) (best splitPoint, ok bool, err error) {
	prevOperand := false
	for i := 0; i < r.Size(); i++ {
		tok := r.Token(i)
		var cand splitPoint
		found := false
		switch {
		case isOpening(tok):
			closing, err := r.Closing(i)
			if err != nil {
				return best, false, err
			}
			if prevOperand {
				if tok.Value == "{" {
					return best, false, unexpected(tok)
				}
				cand, found = splitPoint{index: i, rank: rankPostfix, kind: splitCall}, true
				if tok.Value == "[" {
					cand.kind = splitIndex
				}
			}
			i = closing
			prevOperand = true
		case isClosing(tok):
			return best, false, unexpected(tok)
		case tok.Is("::"):
			if !prevOperand || r.Token(i+1).Type != TOKEN_IDENTIFIER {
				return best, false, unexpected(tok)
			}
			prevOperand = false
		case tok.Is("."):
			if !prevOperand {
				return best, false, unexpected(tok)
			}
			if i+1 >= r.Size() || r.Token(i+1).Type != TOKEN_IDENTIFIER {
				return best, false, missing(tok.Position.Line, "expected a member name after '.'")
			}
			cand, found = splitPoint{index: i, rank: rankPostfix, kind: splitMember, op: OP_MEMBER}, true
			prevOperand = false
		case tok.Is("not"):
			if prevOperand {
				return best, false, unexpected(tok)
			}
			rank := rankNot
			if i > 0 {
				rank = rankUnary
			}
			cand, found = splitPoint{index: i, rank: rank, kind: splitPrefix, op: OP_NOT}, true
		case (tok.Type == TOKEN_OPERATOR || tok.Type == TOKEN_KEYWORD) && binaryOps[tok.Value].rank > 0:
			bin := binaryOps[tok.Value]
			switch {
			case prevOperand:
				cand = splitPoint{index: i, rank: bin.rank, kind: splitBinary, op: bin.op}
			case tok.Value == "-":
				cand = splitPoint{index: i, rank: rankUnary, kind: splitPrefix, op: OP_NEG}
			case tok.Value == "+":
				cand = splitPoint{index: i, rank: rankUnary, kind: splitPrefix, op: OP_POS}
			default:
				return best, false, missing(tok.Position.Line, "expected an operand before '%s'", tok.Value)
			}
			found = true
			prevOperand = false
		case tok.IsOperand():
			if prevOperand {
				return best, false, unexpected(tok)
			}
			prevOperand = true
		default:
			return best, false, unexpected(tok)
		}
		if found && (!ok || cand.rank < best.rank || (cand.rank == best.rank && cand.leftAssoc())) {
			best, ok = cand, true
		}
	}
	if !prevOperand {
		last := r.Last()
		return best, false, missing(last.Position.Line, "expected an operand after '%s'", last.Value)
	}
	return best, ok, nil
}

// parseExpr parses r as one expression. flags apply when r is a name.
func (p *Parser) parseExpr(r TokenRange, flags NameFlags) (Expr, error) {
	if r.IsEmpty() {
		return nil, missing(r.Token(-1).Position.Line, "expected an expression")
	}
	split, ok, err := findSplit(r)
	if err != nil {
		return nil, err
	}
	if !ok {
		return p.parsePrimary(r, flags)
	}
	pos := r.First().Position
	i := split.index
	switch split.kind {
	case splitPrefix:
		if i != 0 {
			return nil, unexpected(r.Token(i))
		}
		operand, err := p.parseExpr(r.StartingFrom(1), 0)
		if err != nil {
			return nil, err
		}
		return &OperatorExpr{Pos: pos, Op: split.op, Right: operand}, nil

	case splitBinary:
		var leftFlags NameFlags
		if split.rank == rankAssign {
			leftFlags = NAME_BY_REFERENCE
		}
		left, err := p.parseExpr(r.EndingTo(i), leftFlags)
		if err != nil {
			return nil, err
		}
		right, err := p.parseExpr(r.StartingFrom(i+1), 0)
		if err != nil {
			return nil, err
		}
		return &OperatorExpr{Pos: pos, Op: split.op, Left: left, Right: right}, nil

	case splitMember:
		left, err := p.parseExpr(r.EndingTo(i), 0)
		if err != nil {
			return nil, err
		}
		if i+2 != r.Size() {
			return nil, unexpected(r.Token(i + 2))
		}
		tok := r.Token(i + 1)
		member := &NameExpr{Pos: tok.Position, Segments: []string{tok.Value}, Flags: flags}
		return &OperatorExpr{Pos: pos, Op: OP_MEMBER, Left: left, Right: member}, nil

	case splitCall:
		return p.parseCall(r, i)

	default:
		return p.parseIndex(r, i)
	}
}

// parseCall parses callee(args) where the parenthesis is at i
func (p *Parser) parseCall(r TokenRange, i int) (Expr, error) {
	closing, err := r.Closing(i)
	if err != nil {
		return nil, err
	}
	if closing != r.Size()-1 {
		return nil, unexpected(r.Token(closing + 1))
	}
	pos := r.First().Position
	args := r.Between(i+1, closing)

	calleeRange := r.EndingTo(i)
	if calleeRange.Size() == 1 && calleeRange.First().Type == TOKEN_IDENTIFIER {
		if kind, ok := BuiltInFromName(calleeRange.First().Value); ok {
			list, err := p.parseList(args)
			if err != nil {
				return nil, err
			}
			return &BuiltInExpr{Pos: pos, Kind: kind, Args: list}, nil
		}
	}
	callee, err := p.parseExpr(calleeRange, 0)
	if err != nil {
		return nil, err
	}
	call := &CallExpr{Pos: pos, Callee: callee}
	parts, err := args.Split(",")
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		if part.Size() > 2 && part.First().Type == TOKEN_IDENTIFIER && part.Token(1).Is("=") {
			value, err := p.parseExpr(part.StartingFrom(2), 0)
			if err != nil {
				return nil, err
			}
			call.Named = append(call.Named, NamedArg{Name: part.First().Value, Value: value})
			continue
		}
		arg, err := p.parseExpr(part, 0)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
	}
	return call, nil
}

// parseIndex parses a[i] or a[i:j] where the bracket is at i
func (p *Parser) parseIndex(r TokenRange, i int) (Expr, error) {
	closing, err := r.Closing(i)
	if err != nil {
		return nil, err
	}
	if closing != r.Size()-1 {
		return nil, unexpected(r.Token(closing + 1))
	}
	pos := r.First().Position
	target, err := p.parseExpr(r.EndingTo(i), 0)
	if err != nil {
		return nil, err
	}
	inner := r.Between(i+1, closing)
	if inner.IsEmpty() {
		return nil, missing(pos.Line, "expected an index")
	}
	colon := inner.FindBracketless(":", 0)
	if colon < 0 {
		index, err := p.parseExpr(inner, 0)
		if err != nil {
			return nil, err
		}
		return &IndexExpr{Pos: pos, Expr: target, Index: index}, nil
	}
	slice := &SliceExpr{Pos: pos, Expr: target}
	if colon > 0 {
		if slice.Start, err = p.parseExpr(inner.EndingTo(colon), 0); err != nil {
			return nil, err
		}
	}
	if colon < inner.Size()-1 {
		if slice.End, err = p.parseExpr(inner.StartingFrom(colon+1), 0); err != nil {
			return nil, err
		}
	}
	return slice, nil
}

// parsePrimary parses an operand without top-level operators
func (p *Parser) parsePrimary(r TokenRange, flags NameFlags) (Expr, error) {
	pos := r.First().Position
	switch {
	case r.Size() == 1:
		return parseOperand(r.First(), flags)

	case r.IsWrapped("("):
		if r.Size() == 2 {
			return nil, missing(pos.Line, "expected an expression inside '()'")
		}
		return p.parseExpr(r.Between(1, r.Size()-1), flags)

	case r.IsWrapped("["):
		elems, err := p.parseList(r.Between(1, r.Size()-1))
		if err != nil {
			return nil, err
		}
		return &ArrayExpr{Pos: pos, Elements: elems}, nil

	case r.IsWrapped("{"):
		return p.parseDict(r.Between(1, r.Size()-1), pos)
	}
	if segs, ok := scopedName(r); ok {
		return &NameExpr{Pos: pos, Segments: segs, Flags: flags}, nil
	}
	return nil, unexpected(r.Token(1))
}

func (p *Parser) parseDict(r TokenRange, pos Position) (Expr, error) {
	dict := &DictExpr{Pos: pos}
	parts, err := r.Split(",")
	if err != nil {
		return nil, err
	}
	for _, part := range parts {
		colon := part.FindBracketless(":", 0)
		if colon < 0 {
			return nil, missing(part.Line(), "expected ':' in dictionary entry")
		}
		if colon == 0 || colon == part.Size()-1 {
			return nil, missing(part.Line(), "expected a key and a value around ':'")
		}
		key, err := p.parseExpr(part.EndingTo(colon), 0)
		if err != nil {
			return nil, err
		}
		value, err := p.parseExpr(part.StartingFrom(colon+1), 0)
		if err != nil {
			return nil, err
		}
		dict.Keys = append(dict.Keys, key)
		dict.Values = append(dict.Values, value)
	}
	return dict, nil
}

// parseList parses comma separated expressions; an empty range is an
// empty list
func (p *Parser) parseList(r TokenRange) ([]Expr, error) {
	parts, err := r.Split(",")
	if err != nil {
		return nil, err
	}
	out := make([]Expr, 0, len(parts))
	for _, part := range parts {
		e, err := p.parseExpr(part, 0)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// parseOperand converts a single token to a constant or a name
func parseOperand(tok Token, flags NameFlags) (Expr, error) {
	pos := tok.Position
	switch tok.Type {
	case TOKEN_IDENTIFIER:
		return &NameExpr{Pos: pos, Segments: []string{tok.Value}, Flags: flags}, nil
	case TOKEN_TEXT:
		return &ConstantExpr{Pos: pos, Value: types.NewText(tok.Literal)}, nil
	case TOKEN_NUMBER:
		n, err := parseNumber(tok.Value)
		if err != nil {
			return nil, types.NewError(types.E_UNEXPECTEDTOKEN,
				"malformed number %q", tok.Value).AtLine(pos.Line)
		}
		return &ConstantExpr{Pos: pos, Value: types.NewNumber(n)}, nil
	case TOKEN_KEYWORD:
		switch tok.Value {
		case "True":
			return &ConstantExpr{Pos: pos, Value: types.True}, nil
		case "False":
			return &ConstantExpr{Pos: pos, Value: types.False}, nil
		case "None":
			return &ConstantExpr{Pos: pos, Value: types.None}, nil
		}
	}
	return nil, unexpected(tok)
}

func parseNumber(s string) (float64, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		return float64(n), err
	}
	return strconv.ParseFloat(s, 64)
}

// scopedName matches "a", "a::b", "a::b::c"...
func scopedName(r TokenRange) ([]string, bool) {
	if r.Size()%2 == 0 {
		return nil, false
	}
	segs := make([]string, 0, r.Size()/2+1)
	for i := 0; i < r.Size(); i++ {
		tok := r.Token(i)
		if i%2 == 0 {
			if tok.Type != TOKEN_IDENTIFIER {
				return nil, false
			}
			segs = append(segs, tok.Value)
		} else if !tok.Is("::") {
			return nil, false
		}
	}
	return segs, true
}

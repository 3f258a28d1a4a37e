package parser

import "ember/types"

// readText reads a quoted text literal with escape sequences.
// Tripled quotes open a long literal that may span lines.
func (l *Lexer) readText() (Token, error) {
	tok := Token{
		Type: TOKEN_TEXT,
		Position: Position{
			Line:   l.line,
			Column: l.column,
		},
	}

	start := l.position
	quote := l.ch
	long := l.peekChar() == quote && l.readPosition+1 < len(l.input) && l.input[l.readPosition+1] == quote
	if long {
		l.readChar()
		l.readChar()
	}
	l.readChar() // skip opening quote

	var result []byte
	for {
		if l.ch == 0 || (l.ch == '\n' && !long) {
			return tok, types.NewError(types.E_MISSINGTOKEN,
				"unterminated text literal").AtLine(tok.Position.Line)
		}
		if l.ch == quote {
			if !long {
				l.readChar()
				break
			}
			if l.peekChar() == quote && l.readPosition+1 < len(l.input) && l.input[l.readPosition+1] == quote {
				l.readChar()
				l.readChar()
				l.readChar()
				break
			}
		}
		if l.ch == '\\' {
			l.readChar() // skip backslash
			switch l.ch {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			case 'r':
				result = append(result, '\r')
			case '0':
				result = append(result, 0)
			case '"', '\'', '\\':
				result = append(result, l.ch)
			case '\n':
				// escaped line break is dropped
			case 0:
				continue
			default:
				// Unknown escape - keep the backslash
				result = append(result, '\\', l.ch)
			}
			l.readChar()
			continue
		}
		result = append(result, l.ch)
		l.readChar()
	}

	tok.Value = l.input[start:l.position] // Store the full quoted text
	tok.Literal = string(result)          // Store the decoded value
	return tok, nil
}

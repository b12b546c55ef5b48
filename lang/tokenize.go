package lang

import (
	"strconv"
	"strings"
	"unicode"
)

// tokenizer classifies lexemes into a flat token stream.
type tokenizer struct {
	*cursor

	decorators map[rune]Decorator
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isIdentRune(r rune) bool { return isIdentStart(r) || isDigit(r) }

// validMarker reports whether r may be used as a decorator marker.
func validMarker(r rune) bool {
	switch {
	case isIdentRune(r), unicode.IsSpace(r):
		return false
	}

	switch r {
	case '-', '"', '[', ']', '(', ')', OpAssign, OpFeed, OpCall:
		return false
	}

	return true
}

// next returns the next token, or false at the end of input.
func (t *tokenizer) next() (Token, bool, error) {
	r, ok := t.skipSpace()
	if !ok {
		return Token{}, false, nil
	}

	var (
		tok Token
		err error
	)

	switch {
	case isDigit(r) || r == '-':
		tok, err = t.number()
	case r == '"':
		tok, err = t.string()
	case r == '[':
		tok, err = t.tag()
	case isIdentStart(r):
		tok, err = t.ident()
	default:
		t.cursor.next()

		if d, ok := t.decorators[r]; ok {
			tok = decoratorToken(r, d)
		} else {
			tok = Operator(r)
		}
	}

	if err != nil {
		return Token{}, false, err
	}

	return tok, true, nil
}

func (t *tokenizer) skipSpace() (rune, bool) {
	for {
		r, ok := t.peek()
		if !ok || !unicode.IsSpace(r) {
			return r, ok
		}

		t.cursor.next()
	}
}

// number lexes an optionally negative integer or a float with exactly one
// decimal point.
func (t *tokenizer) number() (Token, error) {
	var (
		sb  strings.Builder
		dot bool
	)

	first, _ := t.cursor.next()
	sb.WriteRune(first)

	for {
		r, ok := t.cursor.next()
		if !ok {
			break
		}

		if isDigit(r) {
			sb.WriteRune(r)

			continue
		}

		if r == '.' {
			if dot {
				return Token{}, t.errorf("unexpected float number %s%c", sb.String(), r)
			}

			dot = true
			sb.WriteRune(r)

			continue
		}

		t.back()

		break
	}

	text := sb.String()

	if dot {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Token{}, t.errorf("invalid number %s", text)
		}

		return Literal(Float(f)), nil
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Token{}, t.errorf("invalid number %s", text)
	}

	return Literal(Int(n)), nil
}

func escapeRune(r rune) (rune, bool) {
	switch r {
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case '\\':
		return '\\', true
	case '"':
		return '"', true
	default:
		return 0, false
	}
}

// string lexes a double-quoted string literal.
func (t *tokenizer) string() (Token, error) {
	var sb strings.Builder

	t.cursor.next() // opening quote

	for {
		r, ok := t.cursor.next()
		if !ok {
			return Token{}, t.errorf("unterminated string")
		}

		switch r {
		case '"':
			return Literal(Str(sb.String())), nil

		case '\\':
			e, ok := t.cursor.next()
			if !ok {
				return Token{}, t.errorf("unterminated string")
			}

			u, known := escapeRune(e)
			if !known {
				return Token{}, t.errorf("unknown escape character %c", e)
			}

			sb.WriteRune(u)

		default:
			sb.WriteRune(r)
		}
	}
}

// tag lexes a bracketed, dot-separated scope path.
func (t *tokenizer) tag() (Token, error) {
	path := []string{""}

	t.cursor.next() // opening bracket

	for {
		r, ok := t.cursor.next()
		if !ok {
			return Token{}, t.errorf("unterminated tag")
		}

		last := len(path) - 1

		switch {
		case r == ']':
			if path[last] == "" {
				return Token{}, t.errorf("empty tag section")
			}

			return Tag(path...), nil

		case r == '.':
			if path[last] == "" {
				return Token{}, t.errorf("empty tag section")
			}

			path = append(path, "")

		case isIdentRune(r):
			path[last] += string(r)

		default:
			return Token{}, t.errorf("unexpected character %q in tag", r)
		}
	}
}

// ident lexes a dot-separated symbol path or one of the keywords true, false
// and null.
func (t *tokenizer) ident() (Token, error) {
	path := []string{""}

	for {
		r, ok := t.cursor.next()
		if !ok {
			break
		}

		last := len(path) - 1

		if isIdentRune(r) {
			path[last] += string(r)

			continue
		}

		if r == '.' {
			if path[last] == "" {
				return Token{}, t.errorf("empty symbol section")
			}

			path = append(path, "")

			continue
		}

		t.back()

		break
	}

	if path[len(path)-1] == "" {
		return Token{}, t.errorf("empty symbol section")
	}

	if len(path) == 1 {
		switch path[0] {
		case "true":
			return Literal(Bool(true)), nil
		case "false":
			return Literal(Bool(false)), nil
		case "null":
			return Literal(Null()), nil
		}
	}

	return Symbol(path...), nil
}

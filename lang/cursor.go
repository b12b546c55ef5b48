package lang

import (
	"fmt"
	"unicode/utf8"
)

// cursor walks source text one rune at a time tracking line and column.
// It supports a single level of pushback.
type cursor struct {
	input []byte
	pos   int
	line  int
	col   int

	// state before the most recent next, restored by back.
	prev struct {
		pos, line, col int
		ok             bool
	}
}

func newCursor(input []byte) *cursor {
	return &cursor{input: input, line: 1, col: 1}
}

func (c *cursor) eof() bool {
	return c.pos >= len(c.input)
}

// next consumes and returns the current rune. It reports false at the end of
// input.
func (c *cursor) next() (rune, bool) {
	if c.eof() {
		c.prev.ok = false

		return 0, false
	}

	r, size := utf8.DecodeRune(c.input[c.pos:])

	c.prev.pos, c.prev.line, c.prev.col, c.prev.ok = c.pos, c.line, c.col, true

	c.pos += size
	if r == '\n' {
		c.line++
		c.col = 1
	} else {
		c.col++
	}

	return r, true
}

// peek returns the current rune without consuming it.
func (c *cursor) peek() (rune, bool) {
	if c.eof() {
		return 0, false
	}

	r, _ := utf8.DecodeRune(c.input[c.pos:])

	return r, true
}

// back un-consumes the rune returned by the most recent next. Calling it
// twice in a row has no further effect.
func (c *cursor) back() {
	if !c.prev.ok {
		return
	}

	c.pos, c.line, c.col = c.prev.pos, c.prev.line, c.prev.col
	c.prev.ok = false
}

// errorf returns a SyntaxError at the current position.
func (c *cursor) errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Line:   c.line,
		Column: c.col,
		Msg:    fmt.Sprintf(format, args...),
	}
}

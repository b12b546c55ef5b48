package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrReadInput        = NewError("failed to read input")
	ErrMaxDepthExceeded = NewError("maximum nesting depth exceeded")
	ErrInvalidDecorator = NewError("invalid decorator marker")
	ErrCellInUse        = NewError("cell already in use")
	ErrExport           = NewError("export failed")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from with
// [Error.With] or [Error.Wrap].
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.err == nil && t.msg != "" && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// SyntaxError reports malformed source text. Lexing and parsing stop at the
// first SyntaxError.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return "syntax error at line " + strconv.Itoa(e.Line) +
		", column " + strconv.Itoa(e.Column) + ": " + e.Msg
}

// LogValue implements slog.LogValuer.
func (e *SyntaxError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Msg),
		slog.Int("line", e.Line),
		slog.Int("column", e.Column),
	)
}

// Snippet renders the line of source containing the error followed by a
// caret under the offending column:
//
//	3 | x = 1..2
//	         ^
//
// It returns an empty string if the line is out of range.
func (e *SyntaxError) Snippet(source string) string {
	lines := strings.Split(source, "\n")
	if e.Line < 1 || e.Line > len(lines) {
		return ""
	}

	var sb strings.Builder

	num := strconv.Itoa(e.Line)

	sb.WriteString("  ")
	sb.WriteString(num)
	sb.WriteString(" | ")
	sb.WriteString(strings.TrimRight(lines[e.Line-1], "\r"))
	sb.WriteByte('\n')

	// 2 leading spaces + " | " (3 chars)
	padding := len(num) + 5
	if e.Column > 1 {
		padding += e.Column - 1
	}

	sb.WriteString(strings.Repeat(" ", padding))
	sb.WriteString("^\n")

	return sb.String()
}

// RuntimeError reports a failure while executing a token tree. Errors raised
// inside a call are wrapped with the calling symbol, forming a chain.
type RuntimeError struct {
	Msg string
	Err error
}

// RuntimeErrorf formats a new [RuntimeError].
func RuntimeErrorf(format string, args ...any) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

// WrapRuntimeError formats a new [RuntimeError] with err as its cause.
func WrapRuntimeError(err error, format string, args ...any) *RuntimeError {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// Error implements the error interface. Wrapped causes follow on the next
// line.
func (e *RuntimeError) Error() string {
	switch {
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	default:
		return e.Msg + "\n" + e.Err.Error()
	}
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RuntimeError) Unwrap() error { return e.Err }

// LogValue implements slog.LogValuer.
func (e *RuntimeError) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("error", e.Msg)}
	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}

	return slog.GroupValue(attrs...)
}

// IsRuntimeError reports whether err is or wraps a [RuntimeError].
func IsRuntimeError(err error) bool {
	var re *RuntimeError

	return errors.As(err, &re)
}

// IsSyntaxError reports whether err is or wraps a [SyntaxError].
func IsSyntaxError(err error) bool {
	var se *SyntaxError

	return errors.As(err, &se)
}

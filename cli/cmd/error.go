package cmd

import (
	"log/slog"
	"strings"
)

// Error is a command failure carrying structured attributes for the logger.
// Sentinels are compared by message, so errors.Is matches any copy produced
// by [Error.With] or [Error.Wrap].
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError returns a sentinel with the given message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

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

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg == e.msg
}

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.Any("cause", e.err))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e wrapping err.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: append(append(make([]slog.Attr, 0, len(e.attrs)+len(attrs)), e.attrs...), attrs...),
	}
}

var (
	ErrSyntax      = NewError("parse source")
	ErrRuntime     = NewError("run source")
	ErrFormat      = NewError("format output")
	ErrWriteConfig = NewError("write configuration file")
	ErrFileExists  = NewError("file exists (use --force to overwrite)")
)

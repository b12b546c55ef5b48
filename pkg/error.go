package pkg

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
)

// Sentinels shared by the ipml command and its subpackages. Wrap them with
// the underlying cause and test with errors.Is.
var (
	// ErrReadSource reports that a source file or stdin could not be read.
	ErrReadSource = MakeErrorf("failed to read source")
	// ErrInvalidFormat reports an output format outside the supported set.
	ErrInvalidFormat = MakeErrorf("invalid format")
	// ErrConfig reports a configuration file that failed to parse or run.
	// The file is optional, so callers log it and continue with defaults.
	ErrConfig = MakeErrorf("invalid configuration")
)

// Error is a chain of errors ordered from innermost to outermost.
type Error []error

// MakeError flattens errs into a chain, dropping nil entries. The first
// argument is innermost.
func MakeError(errs ...error) Error {
	var chain Error

	for _, err := range errs {
		chain = append(chain, UnwrapErrors(err)...)
	}

	return chain
}

// MakeErrorf returns a chain holding one formatted error.
func MakeErrorf(format string, args ...any) Error {
	return Error{fmt.Errorf(format, args...)}
}

func (e Error) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}

	return strings.Join(msgs, ": ")
}

// Wrap returns a copy of e with err appended. The receiver is never
// modified, so sentinels can be wrapped freely.
func (e Error) Wrap(err ...error) Error {
	return append(slices.Clip(e), err...)
}

// Wrapf returns a copy of e with a formatted error appended.
func (e Error) Wrapf(format string, args ...any) Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Unwrap exposes the chain to errors.Is and errors.As.
func (e Error) Unwrap() []error { return e }

// LogValue implements slog.LogValuer. Members that are themselves
// slog.LogValuer keep their structured form.
func (e Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e))

	for i, err := range e {
		key := strconv.Itoa(i)

		if lv, ok := err.(slog.LogValuer); ok {
			attrs = append(attrs, slog.Any(key, lv))
		} else {
			attrs = append(attrs, slog.String(key, err.Error()))
		}
	}

	return slog.GroupValue(attrs...)
}

// UnwrapErrors returns every error reachable from err, innermost first, with
// err itself last. It returns nil for a nil err.
func UnwrapErrors(err error) Error {
	if err == nil {
		return nil
	}

	var chain Error

	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			chain = append(chain, UnwrapErrors(inner)...)
		}

	case interface{ Unwrap() error }:
		chain = UnwrapErrors(u.Unwrap())
	}

	return append(chain, err)
}

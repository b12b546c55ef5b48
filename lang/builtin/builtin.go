// Package builtin provides the standard functor library bound into a root
// scope before evaluation.
//
// Functors read their arguments from the call scope by name: V (value),
// C (condition), T and F (branches), A and B (operands or body), L (list) and
// I (index).
package builtin

import (
	"io"
	"maps"
	"os"
	"slices"

	"github.com/ardnew/ipml/lang"
)

// Option configures [Register].
type Option func(*config)

type config struct {
	output  io.Writer
	environ func(string) (string, bool)
}

// WithOutput sets the writer used by print. The default is standard output.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w == nil {
			w = io.Discard
		}

		c.output = w
	}
}

// WithLookupEnv sets the environment lookup used by getenv, expr and
// path_prefix. The default is [os.LookupEnv].
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(c *config) {
		if lookup != nil {
			c.environ = lookup
		}
	}
}

// Register binds every built-in functor into s.
func Register(s *lang.Scope, opts ...Option) error {
	cfg := config{output: os.Stdout, environ: os.LookupEnv}
	for _, opt := range opts {
		opt(&cfg)
	}

	fns := map[string]lang.FunctorFunc{
		"print":  cfg.print,
		"if":     ifElse,
		"while":  while,
		"return": ret,
		"not":    not,
		"mode":   mode,

		"add": arith("add", func(a, b int64) (int64, error) { return a + b, nil },
			func(a, b float64) float64 { return a + b }),
		"sub": arith("sub", func(a, b int64) (int64, error) { return a - b, nil },
			func(a, b float64) float64 { return a - b }),
		"mul": arith("mul", func(a, b int64) (int64, error) { return a * b, nil },
			func(a, b float64) float64 { return a * b }),
		"div": arith("div", divInt,
			func(a, b float64) float64 { return a / b }),

		"eq": equality(true),
		"ne": equality(false),
		"lt": order("lt", func(c int) bool { return c < 0 }),
		"le": order("le", func(c int) bool { return c <= 0 }),
		"gt": order("gt", func(c int) bool { return c > 0 }),
		"ge": order("ge", func(c int) bool { return c >= 0 }),

		"push_back":  pushBack,
		"push_front": pushFront,
		"pop_back":   popBack,
		"pop_front":  popFront,
		"index":      index,
		"size":       size,
		"empty":      empty,
		"clear":      clearList,
		"replace":    replace,

		"expr":        cfg.expr,
		"getenv":      cfg.getenv,
		"path_prefix": cfg.pathPrefix,
	}

	for name, fn := range fns {
		if err := s.Register(name, fn); err != nil {
			return err
		}
	}

	return nil
}

// params lists the argument names each functor reads from its call scope.
var params = map[string][]string{
	"print":  {"V"},
	"if":     {"C", "T", "F"},
	"while":  {"C", "B"},
	"return": {"V"},
	"not":    {"V"},
	"mode":   {"filter"},

	"add": {"A", "B"},
	"sub": {"A", "B"},
	"mul": {"A", "B"},
	"div": {"A", "B"},
	"eq":  {"A", "B"},
	"ne":  {"A", "B"},
	"lt":  {"A", "B"},
	"le":  {"A", "B"},
	"gt":  {"A", "B"},
	"ge":  {"A", "B"},

	"push_back":  {"L", "V"},
	"push_front": {"L", "V"},
	"pop_back":   {"L"},
	"pop_front":  {"L"},
	"index":      {"L", "I"},
	"size":       {"L"},
	"empty":      {"L"},
	"clear":      {"L"},
	"replace":    {"L", "I", "V"},

	"expr":        {"E"},
	"getenv":      {"V"},
	"path_prefix": {"V", "P"},
}

// Names returns the names bound by [Register] in sorted order.
func Names() []string { return slices.Sorted(maps.Keys(params)) }

// Params returns the argument names read by the named functor.
func Params(name string) ([]string, bool) {
	p, ok := params[name]

	return slices.Clone(p), ok
}

// param returns the cell bound to name as seen from the call scope.
func param(call *lang.Scope, name string) *lang.Cell {
	return call.QueryValue([]string{name})
}

// value returns a copy of the value bound to name.
func value(call *lang.Scope, name string) (lang.Value, error) {
	return param(call, name).Get()
}

func cell(v lang.Value) *lang.Cell { return lang.NewCell(v) }

func null() *lang.Cell { return lang.NewCell(lang.Null()) }

package builtin

import (
	"context"
	"math"
	"reflect"

	"github.com/expr-lang/expr"

	"github.com/ardnew/ipml/lang"
)

// exprEnv builds the evaluation environment for an expression run from
// call: every visible non-functor value by name, then host helpers that are
// not shadowed.
func (c config) exprEnv(call *lang.Scope) map[string]any {
	env := map[string]any{
		"platform": hostPlatform(),
		"hostname": hostname(),
		"cwd":      cwd,
		"getenv": func(name string) string {
			s, _ := c.environ(name)

			return s
		},
		"path": map[string]any{
			"abs": pathAbs,
			"cat": pathCat,
			"rel": pathRel,
		},
		"mung": map[string]any{
			"prefix": mungPrefix,
		},
	}

	for name, cl := range call.Visible() {
		if cl.Kind() == lang.KindFunctor {
			continue
		}

		if v, err := cl.Get(); err == nil {
			env[name] = v.Native()
		}
	}

	return env
}

// expr evaluates the expression in E and converts its result to a value.
func (c config) expr(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	v, err := value(call, "E")
	if err != nil {
		return nil, err
	}

	src, ok := v.AsStr()
	if !ok {
		return nil, lang.RuntimeErrorf("[expr] Expected a string expression, but got %s", v.Source())
	}

	env := c.exprEnv(call)

	program, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return nil, lang.WrapRuntimeError(err, "[expr] Cannot compile %q", src)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return nil, lang.WrapRuntimeError(err, "[expr] Cannot evaluate %q", src)
	}

	res, err := fromNative(out)
	if err != nil {
		return nil, err
	}

	return cell(res), nil
}

// fromNative converts an expression result into a value.
func fromNative(x any) (lang.Value, error) {
	if x == nil {
		return lang.Null(), nil
	}

	rv := reflect.ValueOf(x)

	switch rv.Kind() {
	case reflect.Bool:
		return lang.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lang.Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return lang.Null(), lang.RuntimeErrorf("[expr] Result %d overflows int64", u)
		}

		return lang.Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return lang.Float(rv.Float()), nil
	case reflect.String:
		return lang.Str(rv.String()), nil
	case reflect.Slice, reflect.Array:
		vs := make([]lang.Value, rv.Len())

		for i := range vs {
			v, err := fromNative(rv.Index(i).Interface())
			if err != nil {
				return lang.Null(), err
			}

			vs[i] = v
		}

		return lang.ListOf(vs...), nil
	default:
		return lang.Null(), lang.RuntimeErrorf("[expr] Unsupported result type %T", x)
	}
}

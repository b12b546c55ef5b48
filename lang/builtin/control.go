package builtin

import (
	"context"
	"fmt"

	"github.com/ardnew/ipml/lang"
)

func (c config) print(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	v, err := value(call, "V")
	if err != nil {
		return nil, err
	}

	if _, err := fmt.Fprintln(c.output, v.String()); err != nil {
		return nil, lang.WrapRuntimeError(err, "[print] Cannot write output")
	}

	return null(), nil
}

// ifElse returns T when C is truthy and F otherwise. A selected functor is
// invoked with the call scope and its result returned instead.
func ifElse(ctx context.Context, call *lang.Scope) (*lang.Cell, error) {
	cond, err := value(call, "C")
	if err != nil {
		return nil, err
	}

	branch := param(call, "F")
	if cond.Truthy() {
		branch = param(call, "T")
	}

	if branch.Kind() == lang.KindFunctor {
		return branch.Call(ctx, call)
	}

	return branch, nil
}

// while invokes B until the loop condition is falsy. If C is a functor it is
// invoked before each iteration to produce the condition; otherwise C is the
// initial condition and each result of B is the next one.
func while(ctx context.Context, call *lang.Scope) (*lang.Cell, error) {
	cond := param(call, "C")
	body := param(call, "B")

	next := func() (bool, error) {
		res, err := body.Call(ctx, call)
		if err != nil {
			return false, err
		}

		v, err := res.Get()

		return v.Truthy(), err
	}

	if cond.Kind() == lang.KindFunctor {
		next = func() (bool, error) {
			res, err := cond.Call(ctx, call)
			if err != nil {
				return false, err
			}

			v, err := res.Get()
			if err != nil || !v.Truthy() {
				return false, err
			}

			_, err = body.Call(ctx, call)

			return err == nil, err
		}
	} else {
		v, err := cond.Get()
		if err != nil {
			return nil, err
		}

		if !v.Truthy() {
			return null(), nil
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, lang.WrapRuntimeError(err, "[while] Interrupted")
		}

		ok, err := next()
		if err != nil {
			return nil, err
		}

		if !ok {
			return null(), nil
		}
	}
}

func ret(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	return param(call, "V"), nil
}

func not(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	v, err := value(call, "V")
	if err != nil {
		return nil, err
	}

	return cell(lang.Bool(!v.Truthy())), nil
}

// mode replaces the evaluation flags of the calling scope from the local
// values of the call scope. Missing flags are reset.
func mode(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	var m lang.Mode

	for name, c := range call.Values() {
		if name != "filter" {
			continue
		}

		v, err := c.Get()
		if err != nil {
			return nil, err
		}

		m.Filter = v.Truthy()
	}

	call.SetCallerMode(m)

	return null(), nil
}

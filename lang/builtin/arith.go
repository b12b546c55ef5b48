package builtin

import (
	"context"

	"github.com/ardnew/ipml/lang"
)

func operands(call *lang.Scope) (a, b lang.Value, err error) {
	if a, err = value(call, "A"); err != nil {
		return a, b, err
	}

	b, err = value(call, "B")

	return a, b, err
}

// arith applies intOp to two Ints or floatOp to two Floats. Mixed or
// non-numeric operands are an error.
func arith(
	name string,
	intOp func(a, b int64) (int64, error),
	floatOp func(a, b float64) float64,
) lang.FunctorFunc {
	return func(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
		a, b, err := operands(call)
		if err != nil {
			return nil, err
		}

		if x, ok := a.AsInt(); ok {
			if y, ok := b.AsInt(); ok {
				n, err := intOp(x, y)
				if err != nil {
					return nil, lang.WrapRuntimeError(err, "[%s] Cannot compute %d and %d", name, x, y)
				}

				return cell(lang.Int(n)), nil
			}
		}

		if x, ok := a.AsFloat(); ok {
			if y, ok := b.AsFloat(); ok {
				return cell(lang.Float(floatOp(x, y))), nil
			}
		}

		return nil, lang.RuntimeErrorf(
			"[%s] Expected two numbers, but got %s and %s", name, a.Source(), b.Source())
	}
}

func divInt(a, b int64) (int64, error) {
	if b == 0 {
		return 0, lang.RuntimeErrorf("division by zero")
	}

	return a / b, nil
}

// equality compares A and B structurally. Values of different kinds are
// unequal.
func equality(want bool) lang.FunctorFunc {
	return func(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
		a, b, err := operands(call)
		if err != nil {
			return nil, err
		}

		return cell(lang.Bool(a.Equal(b) == want)), nil
	}
}

// order compares A and B, which must be of the same ordered kind.
func order(name string, test func(int) bool) lang.FunctorFunc {
	return func(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
		a, b, err := operands(call)
		if err != nil {
			return nil, err
		}

		c, err := a.Compare(b)
		if err != nil {
			return nil, lang.WrapRuntimeError(err, "[%s] Cannot order %s and %s",
				name, a.Source(), b.Source())
		}

		return cell(lang.Bool(test(c))), nil
	}
}

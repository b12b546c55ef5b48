package lang

import (
	"context"
)

// functionName names functors created from function literals.
const functionName = "function"

// asTrueValue resolves tok to a cell. Literals yield fresh cells, symbols
// yield the shared cell they name, function literals yield functors and any
// other block yields a list of its resolved elements.
func (s *Scope) asTrueValue(ctx context.Context, tok Token) (*Cell, error) {
	switch tok.kind {
	case TokenLiteral:
		return NewCell(tok.value.Clone()), nil

	case TokenSymbol:
		return s.QueryValue(tok.path), nil

	case TokenBlock:
		if tok.decor == DecoratorFunction {
			return NewCell(FunctorValue(NewFunctor(functionName, functionBody(tok)))), nil
		}

		cells := make([]*Cell, 0, len(tok.block))

		for _, el := range tok.block {
			c, err := s.asTrueValue(ctx, el)
			if err != nil {
				return nil, err
			}

			cells = append(cells, c)
		}

		return NewCell(List(cells...)), nil

	default:
		return nil, RuntimeErrorf(
			"[Eval] Expected value-convertible type (including literal values, "+
				"symbols, and blocks(aka lists)), but got %s", tok)
	}
}

// functionBody feeds body into the call scope and returns the call scope's
// own [Return] slot.
func functionBody(body Token) FunctorFunc {
	return func(ctx context.Context, call *Scope) (*Cell, error) {
		if _, err := call.feed(ctx, body); err != nil {
			return nil, err
		}

		if c, ok := call.values[Return]; ok {
			return c, nil
		}

		return NewCell(Null()), nil
	}
}

// asFeedable resolves tok to the target of a feed or call.
func (s *Scope) asFeedable(ctx context.Context, tok Token) (feedable, error) {
	switch tok.kind {
	case TokenSymbol:
		return s.QueryValue(tok.path), nil

	case TokenTag:
		return s.QueryScope(tok.path), nil

	case TokenBlock:
		return s.toSubscope(ctx, tok)

	default:
		return nil, RuntimeErrorf(
			"[Feed] Expected feedable type (including symbols, tags, and "+
				"blocks(aka implicit scopes)), but got %s %s", tok.kind, tok)
	}
}

// toSubscope resolves the argument of a call. A tag names an existing scope.
// A block is fed into a new scope: parentless when decorated as independent,
// otherwise a child of s linked as [Anonymous].
func (s *Scope) toSubscope(ctx context.Context, tok Token) (*Scope, error) {
	switch tok.kind {
	case TokenTag:
		return s.QueryScope(tok.path), nil

	case TokenBlock:
		var sc *Scope

		if tok.decor == DecoratorIndependent {
			sc = NewScope()
		} else {
			sc = NewChild(s)
			if err := s.LinkChild(Anonymous, sc); err != nil {
				return nil, err
			}
		}

		if _, err := sc.feed(ctx, tok); err != nil {
			return nil, err
		}

		return sc, nil

	default:
		return nil, RuntimeErrorf(
			"[Call] Expected tag or block as arguments, but got %s", tok)
	}
}

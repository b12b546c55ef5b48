package lang

import (
	"context"
	"log/slog"
)

// feedable is a target of the feed and call operators.
type feedable interface {
	feed(ctx context.Context, tok Token) (*Cell, error)
	call(ctx context.Context, args *Scope) (*Cell, error)
}

// Feed executes the statements of block tok in s. Every non-null statement
// result is stored in the local [Return] slot as it is produced, and the
// last one is returned. Side effects of completed statements persist when a
// later statement fails.
func Feed(ctx context.Context, s *Scope, tok Token) (*Cell, error) {
	return s.feed(ctx, tok)
}

// Run feeds tok into s and then cleans s up, whether or not feeding failed.
func Run(ctx context.Context, s *Scope, tok Token) (*Cell, error) {
	c, err := s.feed(ctx, tok)

	s.Cleanup()

	return c, err
}

func (s *Scope) feed(ctx context.Context, tok Token) (*Cell, error) {
	if tok.kind != TokenBlock {
		return nil, RuntimeErrorf(
			"[Scope] Scope can only be fed with blocks instead of %s", tok)
	}

	block := tok.block
	if len(block)%3 != 0 {
		return nil, RuntimeErrorf(
			"[Scope] Executed block length must be a multiple of 3, but got %d",
			len(block))
	}

	logger := loggerFrom(ctx)
	last := NewCell(Null())

	for i := 0; i < len(block); i += 3 {
		lhs, op, rhs := block[i], block[i+1], block[i+2]

		if op.kind != TokenOperator {
			return nil, RuntimeErrorf(
				"[Scope] Expected operator at block position %d, but got %s",
				i+1, op)
		}

		logger.TraceContext(ctx, "execute",
			slog.String("lhs", lhs.String()),
			slog.String("op", string(op.op)),
			slog.Int("depth", s.depth),
		)

		res, err := s.execute(ctx, lhs, op.op, rhs)
		if err != nil {
			return nil, err
		}

		if res != nil && !res.peek().IsNull() {
			s.values[Return] = res
			last = res
		}
	}

	return last, nil
}

func (s *Scope) execute(ctx context.Context, lhs Token, op rune, rhs Token) (*Cell, error) {
	switch op {
	case OpAssign:
		return nil, s.assign(ctx, lhs, rhs)

	case OpFeed:
		f, err := s.asFeedable(ctx, lhs)
		if err != nil {
			return nil, err
		}

		if _, err := f.feed(ctx, rhs); err != nil {
			return nil, err
		}

		return nil, nil

	case OpCall:
		return s.invoke(ctx, lhs, rhs)

	default:
		return nil, RuntimeErrorf("[Scope] Operator '%c' is not supported", op)
	}
}

func (s *Scope) assign(ctx context.Context, lhs, rhs Token) error {
	switch lhs.kind {
	case TokenSymbol:
		c, err := s.asTrueValue(ctx, rhs)
		if err != nil {
			return err
		}

		return s.Assign(lhs.path, c)

	case TokenTag:
		var sc *Scope

		switch rhs.kind {
		case TokenTag:
			sc = s.QueryScope(rhs.path)

		case TokenBlock:
			if rhs.decor == DecoratorSubScope {
				sc = NewChild(s.QueryScope(lhs.path[:len(lhs.path)-1]))
			} else {
				sc = NewScope()
			}

			if _, err := sc.feed(ctx, rhs); err != nil {
				return err
			}

		default:
			return RuntimeErrorf(
				"[Assign] Expected tag or block at right hand side, but got %s", rhs)
		}

		return s.SetScope(lhs.path, sc)

	default:
		return RuntimeErrorf(
			"[Assign] Expected symbol or tag at left hand side, but got %s", lhs)
	}
}

func (s *Scope) invoke(ctx context.Context, lhs, rhs Token) (*Cell, error) {
	f, err := s.asFeedable(ctx, lhs)
	if err != nil {
		return nil, err
	}

	args, err := s.toSubscope(ctx, rhs)
	if err != nil {
		return nil, err
	}

	loggerFrom(ctx).TraceContext(ctx, "call",
		slog.String("target", lhs.String()),
		slog.Int("depth", s.depth),
	)

	res, err := f.call(ctx, args)
	if err != nil {
		return nil, WrapRuntimeError(err, "[Call] When calling %s,", lhs)
	}

	return res, nil
}

// call reports that scopes cannot be invoked.
func (s *Scope) call(context.Context, *Scope) (*Cell, error) {
	return nil, RuntimeErrorf("[Feed] Expected functor, but got scope")
}

// feed reports that values cannot be fed.
func (c *Cell) feed(_ context.Context, tok Token) (*Cell, error) {
	return nil, RuntimeErrorf("[Feed] Cannot feed %s into a %s value", tok, c.Kind())
}

// Call invokes the functor held by c with args as its call scope. The cell
// stays borrowed for the duration of the call.
func (c *Cell) Call(ctx context.Context, args *Scope) (*Cell, error) {
	return c.call(ctx, args)
}

func (c *Cell) call(ctx context.Context, args *Scope) (*Cell, error) {
	v, release, err := c.Borrow()
	if err != nil {
		return nil, err
	}
	defer release()

	fn, ok := v.AsFunctor()
	if !ok {
		return nil, RuntimeErrorf("[Feed] Expected functor, but got %s", v.Source())
	}

	return fn.Call(ctx, args)
}

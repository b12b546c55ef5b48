package builtin

import (
	"context"

	"github.com/ardnew/ipml/lang"
)

// mutate runs fn on the list bound to L under an exclusive borrow.
func mutate(
	name string,
	call *lang.Scope,
	fn func(l *lang.Value) (*lang.Cell, error),
) (*lang.Cell, error) {
	l, release, err := param(call, "L").BorrowMut()
	if err != nil {
		return nil, err
	}
	defer release()

	if l.Kind() != lang.KindList {
		return nil, lang.RuntimeErrorf("[%s] Expected a list, but got %s", name, l.Source())
	}

	return fn(l)
}

// inspect runs fn on a copy of the list bound to L.
func inspect(
	name string,
	call *lang.Scope,
	fn func(l lang.Value) (*lang.Cell, error),
) (*lang.Cell, error) {
	l, err := value(call, "L")
	if err != nil {
		return nil, err
	}

	if l.Kind() != lang.KindList {
		return nil, lang.RuntimeErrorf("[%s] Expected a list, but got %s", name, l.Source())
	}

	return fn(l)
}

func pushBack(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	v := param(call, "V")

	return mutate("push_back", call, func(l *lang.Value) (*lang.Cell, error) {
		l.PushBack(v)

		return null(), nil
	})
}

func pushFront(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	v := param(call, "V")

	return mutate("push_front", call, func(l *lang.Value) (*lang.Cell, error) {
		l.PushFront(v)

		return null(), nil
	})
}

func popBack(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	return mutate("pop_back", call, func(l *lang.Value) (*lang.Cell, error) {
		if c := l.PopBack(); c != nil {
			return c, nil
		}

		return null(), nil
	})
}

func popFront(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	return mutate("pop_front", call, func(l *lang.Value) (*lang.Cell, error) {
		if c := l.PopFront(); c != nil {
			return c, nil
		}

		return null(), nil
	})
}

func clearList(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	return mutate("clear", call, func(l *lang.Value) (*lang.Cell, error) {
		l.Clear()

		return null(), nil
	})
}

func indexArg(name string, call *lang.Scope) (int, error) {
	v, err := value(call, "I")
	if err != nil {
		return 0, err
	}

	i, ok := v.AsInt()
	if !ok {
		return 0, lang.RuntimeErrorf("[%s] Expected an integer index, but got %s", name, v.Source())
	}

	return int(i), nil
}

// replace stores V at index I of L. An index out of range is an error.
func replace(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	i, err := indexArg("replace", call)
	if err != nil {
		return nil, err
	}

	v := param(call, "V")

	return mutate("replace", call, func(l *lang.Value) (*lang.Cell, error) {
		if !l.Replace(i, v) {
			return nil, lang.RuntimeErrorf("[replace] Index out of range: %d", i)
		}

		return null(), nil
	})
}

// index returns the element of L at I, or null when out of range.
func index(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	i, err := indexArg("index", call)
	if err != nil {
		return nil, err
	}

	return inspect("index", call, func(l lang.Value) (*lang.Cell, error) {
		if c := l.Index(i); c != nil {
			return c, nil
		}

		return null(), nil
	})
}

func size(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	return inspect("size", call, func(l lang.Value) (*lang.Cell, error) {
		return cell(lang.Int(int64(l.Len()))), nil
	})
}

func empty(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	return inspect("empty", call, func(l lang.Value) (*lang.Cell, error) {
		return cell(lang.Bool(l.Len() == 0)), nil
	})
}

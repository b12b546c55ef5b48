package lang

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/ipml/log"
)

// idFunctor returns the cell bound to V.
func idFunctor(_ context.Context, call *Scope) (*Cell, error) {
	return call.QueryValue(Path("V")), nil
}

func newTestScope(t *testing.T) *Scope {
	t.Helper()

	s := NewScope()

	fns := map[string]FunctorFunc{
		"id": idFunctor,
		"fail": func(context.Context, *Scope) (*Cell, error) {
			return nil, RuntimeErrorf("boom")
		},
		"orphan": func(_ context.Context, call *Scope) (*Cell, error) {
			return NewCell(Bool(call.Parent() == nil)), nil
		},
		"grab": func(_ context.Context, call *Scope) (*Cell, error) {
			c := call.QueryValue(Path("L"))

			_, release, err := c.BorrowMut()
			if err != nil {
				return nil, err
			}
			defer release()

			return nil, c.Set(Int(1))
		},
	}

	for name, fn := range fns {
		if err := s.Register(name, fn); err != nil {
			t.Fatalf("Register %s: %v", name, err)
		}
	}

	return s
}

func feedString(t *testing.T, s *Scope, src string) (*Cell, error) {
	t.Helper()

	tok, err := ParseString(t.Context(), src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}

	return Feed(t.Context(), s, tok)
}

func valueAt(t *testing.T, s *Scope, path string) Value {
	t.Helper()

	c, ok := s.Lookup(Path(path))
	if !ok {
		t.Fatalf("no value at %s", path)
	}

	return c.peek()
}

func TestFeed_AssignLiteral(t *testing.T) {
	s := newTestScope(t)

	res, err := feedString(t, s, `foo = 1`)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}

	if !res.peek().IsNull() {
		t.Errorf("expected null result from assignment, got %s", res)
	}

	if v := valueAt(t, s, "foo"); !v.Equal(Int(1)) {
		t.Errorf("expected foo = 1, got %s", v)
	}
}

func TestFeed_AssignScope(t *testing.T) {
	s := newTestScope(t)

	_, err := feedString(t, s, `y = 5 [s] = (bar = "hi" x = y) [t] = @(x = y) [u.v] = %(w = 1)`)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}

	if v := valueAt(t, s, "s.bar"); !v.Equal(Str("hi")) {
		t.Errorf(`expected s.bar = "hi", got %s`, v)
	}

	sc, _ := s.LookupScope(Path("s"))
	if sc.Parent() != s || sc.Depth() != 1 {
		t.Error("expected [s] to be linked under the root")
	}

	if x := sc.values["x"].peek(); !x.IsNull() {
		t.Errorf("plain scope block must not see the root, got x = %s", x)
	}

	if x := valueAt(t, s, "t.x"); !x.Equal(Int(5)) {
		t.Errorf("parented scope block must see the root, got x = %s", x)
	}

	if v := valueAt(t, s, "u.v.w"); !v.Equal(Int(1)) {
		t.Errorf("expected u.v.w = 1, got %s", v)
	}

	if uv, _ := s.LookupScope(Path("u.v")); uv.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", uv.Depth())
	}
}

func TestFeed_AssignTagAlias(t *testing.T) {
	s := newTestScope(t)

	if _, err := feedString(t, s, `[a] = (n = 1) [b] = [a] [b] : (m = 2)`); err != nil {
		t.Fatalf("feed: %v", err)
	}

	if v := valueAt(t, s, "a.m"); !v.Equal(Int(2)) {
		t.Errorf("expected alias to share the scope, got a.m = %s", v)
	}
}

func TestFeed_AssignFindsExisting(t *testing.T) {
	s := newTestScope(t)

	if _, err := feedString(t, s, `x = 1 [c] = @(x = 2 z = 3)`); err != nil {
		t.Fatalf("feed: %v", err)
	}

	if v := valueAt(t, s, "x"); !v.Equal(Int(2)) {
		t.Errorf("expected assignment to overwrite the root slot, got x = %s", v)
	}

	c, _ := s.LookupScope(Path("c"))
	if _, ok := c.values["x"]; ok {
		t.Error("assignment to an existing name created a local slot")
	}

	if _, ok := c.values["z"]; !ok {
		t.Error("expected new name to be local")
	}
}

func TestFeed_SymbolsShareCells(t *testing.T) {
	s := newTestScope(t)

	if _, err := feedString(t, s, `a = (1 2) b = a`); err != nil {
		t.Fatalf("feed: %v", err)
	}

	if s.values["a"] != s.values["b"] {
		t.Error("expected symbol assignment to share the cell")
	}

	if v := valueAt(t, s, "a"); v.String() != "[1, 2]" {
		t.Errorf("expected list, got %s", v)
	}
}

func TestFeed_Return(t *testing.T) {
	s := newTestScope(t)

	res, err := feedString(t, s, `id ! (V = 1) id ! (V = 2) z = ret`)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}

	if !res.peek().Equal(Int(2)) {
		t.Errorf("expected last non-null result 2, got %s", res)
	}

	if v := valueAt(t, s, "z"); !v.Equal(Int(2)) {
		t.Errorf("expected z = 2, got %s", v)
	}
}

func TestFeed_FunctionLiteral(t *testing.T) {
	s := newTestScope(t)

	src := `f = $(id ! (V = A)) g = $(x = A) f ! (A = 7) y = ret g ! (A = 8)`

	res, err := feedString(t, s, src)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}

	if v := valueAt(t, s, "y"); !v.Equal(Int(7)) {
		t.Errorf("expected y = 7, got %s", v)
	}

	if !res.peek().Equal(Int(7)) {
		t.Errorf("function without results must return null, last result %s", res)
	}

	if _, ok := s.Lookup(Path("x")); ok {
		t.Error("names bound by a function body must stay in its call scope")
	}

	if fn, ok := valueAt(t, s, "f").AsFunctor(); !ok || fn.Name() != functionName {
		t.Errorf("expected f to be a functor")
	}
}

func TestFeed_CallArguments(t *testing.T) {
	s := newTestScope(t)

	src := `orphan ! %(V = 1) a = ret orphan ! (V = 1) b = ret [args] = (V = 3) id ! [args] c = ret`
	if _, err := feedString(t, s, src); err != nil {
		t.Fatalf("feed: %v", err)
	}

	if v := valueAt(t, s, "a"); !v.Equal(Bool(true)) {
		t.Errorf("independent argument scope must be parentless, got %s", v)
	}

	if v := valueAt(t, s, "b"); !v.Equal(Bool(false)) {
		t.Errorf("block argument scope must be parented, got %s", v)
	}

	if v := valueAt(t, s, "c"); !v.Equal(Int(3)) {
		t.Errorf("expected c = 3, got %s", v)
	}

	if _, ok := s.scopes[Anonymous]; !ok {
		t.Errorf("expected argument scope linked at %s", Anonymous)
	}
}

func TestFeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"arity", `a = 1 b`, "[Scope] Executed block length must be a multiple of 3, but got 4"},
		{"operator position", `a b c`, "[Scope] Expected operator at block position 1, but got b"},
		{"operator position later", `a = 1 b c d`, "[Scope] Expected operator at block position 4, but got c"},
		{"unsupported operator", `a + 1`, "[Scope] Operator '+' is not supported"},
		{"assign lhs", `1 = 2`, "[Assign] Expected symbol or tag at left hand side, but got 1"},
		{"assign tag rhs", `[s] = 1`, "[Assign] Expected tag or block at right hand side, but got 1"},
		{"value rhs", `x = =`, "[Eval] Expected value-convertible type"},
		{"feed cell", `x = 1 x : (a = 1)`, "[Feed] Cannot feed (a = 1) into a int value"},
		{"feed non block", `[s] : 1`, "[Scope] Scope can only be fed with blocks instead of 1"},
		{"feed literal", `1 : (a = 1)`, "[Feed] Expected feedable type"},
		{"call wrap", `fail ! ()`, "[Call] When calling fail,\nboom"},
		{"call non functor", `x = 1 x ! ()`, "[Call] When calling x,\n[Feed] Expected functor, but got 1"},
		{"call scope", `[s] ! ()`, "[Call] When calling [s],\n[Feed] Expected functor, but got scope"},
		{"call args", `id ! 1`, "[Call] Expected tag or block as arguments, but got 1"},
		{"stray decorator", `x = $`, "[Eval] Expected value-convertible type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := feedString(t, newTestScope(t), tt.src)
			if !IsRuntimeError(err) {
				t.Fatalf("expected runtime error, got %v", err)
			}

			if !strings.HasPrefix(err.Error(), tt.want) {
				t.Errorf("expected error starting with %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestFeed_PartialExecution(t *testing.T) {
	s := newTestScope(t)

	if _, err := feedString(t, s, `a = 1 b = 2 fail ! () d = 4`); err == nil {
		t.Fatal("expected error")
	}

	if v := valueAt(t, s, "b"); !v.Equal(Int(2)) {
		t.Errorf("expected completed statements to persist, got b = %s", v)
	}

	if _, ok := s.Lookup(Path("d")); ok {
		t.Error("statement after the failure ran")
	}
}

func TestFeed_CellInUse(t *testing.T) {
	s := newTestScope(t)

	_, err := feedString(t, s, `grab ! (L = (1 2))`)
	if !errors.Is(err, ErrCellInUse) {
		t.Fatalf("expected ErrCellInUse through the call chain, got %v", err)
	}

	if !strings.HasPrefix(err.Error(), "[Call] When calling grab,\ncannot write list value") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRun_Cleanup(t *testing.T) {
	s := newTestScope(t)
	s.SetMode(Mode{Filter: true})

	tok, err := ParseString(t.Context(), `_p = 1 q = 2 id ! (V = 1) [_s] = (a = 1)`)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Run(t.Context(), s, tok); err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := s.String(); got != "q = 2 [_s] = (a = 1)" {
		t.Errorf("expected only q and the [_s] scope to survive cleanup, got %q", got)
	}

	tok, err = ParseString(t.Context(), `r = 1 fail ! ()`)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Run(t.Context(), s, tok); err == nil {
		t.Fatal("expected error")
	}

	if _, ok := s.scopes[Anonymous]; ok {
		t.Error("expected cleanup after a failed run")
	}
}

func TestFeed_TraceLogger(t *testing.T) {
	var buf bytes.Buffer

	logger := log.Make(&buf,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatJSON),
	)

	tok, err := ParseString(t.Context(), `x = 1 id ! (V = x)`)
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithTraceLogger(t.Context(), logger)
	if _, err := Feed(ctx, newTestScope(t), tok); err != nil {
		t.Fatalf("feed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"msg":"execute"`, `"msg":"call"`, `"target":"id"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected trace output to contain %s, got:\n%s", want, out)
		}
	}
}

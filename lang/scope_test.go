package lang

import (
	"context"
	"maps"
	"runtime"
	"slices"
	"testing"
)

func TestScope_QueryTouches(t *testing.T) {
	s := NewScope()

	c := s.QueryValue(Path("a.b.c"))
	if !c.peek().IsNull() {
		t.Fatalf("expected null cell, got %s", c)
	}

	if got, ok := s.Lookup(Path("a.b.c")); !ok || got != c {
		t.Fatal("expected touched cell to be reachable")
	}

	ab, ok := s.LookupScope(Path("a.b"))
	if !ok {
		t.Fatal("expected touched scopes to be created")
	}

	if ab.Depth() != 2 || ab.Parent() == nil || ab.Parent().Parent() != s {
		t.Errorf("unexpected parent chain, depth %d", ab.Depth())
	}

	if fresh := s.QueryValue(nil); fresh == s.QueryValue(nil) {
		t.Error("expected a fresh cell for an empty path")
	}

	if s.QueryScope(nil) != s {
		t.Error("expected empty scope path to yield the receiver")
	}

	if _, ok := s.Lookup(Path("missing")); ok {
		t.Error("Lookup must not create slots")
	}

	if _, ok := s.values["missing"]; ok {
		t.Error("Lookup created a slot")
	}
}

func TestScope_QueryResolvesAncestors(t *testing.T) {
	root := NewScope()
	x := NewCell(Int(1))
	root.values["x"] = x

	child := root.QueryScope(Path("c"))
	if child.QueryValue(Path("x")) != x {
		t.Error("expected child to resolve ancestor cell")
	}

	if _, ok := child.values["x"]; ok {
		t.Error("resolving an ancestor must not create a local slot")
	}

	if root.QueryScope(Path("c")).QueryScope(Path("c")) != child {
		t.Error("expected scope resolution through ancestors")
	}
}

func TestScope_ShadowVersusAssign(t *testing.T) {
	root := NewScope()
	root.values["x"] = NewCell(Int(1))

	child := NewChild(root)

	if err := child.SetValue(Path("x"), NewCell(Int(2))); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	if got := root.values["x"].peek().i; got != 1 {
		t.Errorf("SetValue must shadow locally, root x = %d", got)
	}

	if got := child.values["x"].peek().i; got != 2 {
		t.Errorf("expected local x = 2, got %d", got)
	}

	other := NewChild(root)

	if err := other.Assign(Path("x"), NewCell(Int(3))); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if got := root.values["x"].peek().i; got != 3 {
		t.Errorf("Assign must overwrite the existing ancestor slot, root x = %d", got)
	}

	if _, ok := other.values["x"]; ok {
		t.Error("Assign created a local slot")
	}

	if err := other.Assign(Path("y"), NewCell(Int(4))); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	if _, ok := other.values["y"]; !ok {
		t.Error("Assign of a new name must create it locally")
	}

	if err := other.SetValue(nil, NewCell(Null())); !IsRuntimeError(err) {
		t.Errorf("expected runtime error for empty path, got %v", err)
	}
}

func TestScope_LinkChild(t *testing.T) {
	root := NewScope()
	root.SetMode(Mode{Filter: true})

	a := NewScope()
	b := a.QueryScope(Path("b"))

	if err := root.LinkChild("a", a); err != nil {
		t.Fatalf("LinkChild: %v", err)
	}

	if a.Parent() != root || a.Depth() != 1 || b.Depth() != 2 {
		t.Errorf("unexpected depths a=%d b=%d", a.Depth(), b.Depth())
	}

	if !a.Mode().Filter {
		t.Error("expected linked child to inherit mode")
	}

	other := NewScope()
	if err := other.LinkChild("a", a); !IsRuntimeError(err) {
		t.Errorf("expected error linking a child with another parent, got %v", err)
	}

	if _, ok := other.scopes["a"]; ok {
		t.Error("failed link changed the target")
	}
}

func TestScope_CycleRejection(t *testing.T) {
	root := NewScope()
	a := root.QueryScope(Path("a"))
	b := a.QueryScope(Path("b"))

	before := slices.Collect(maps.Keys(b.scopes))

	tests := []struct {
		name  string
		run   func() error
		owner *Scope
	}{
		{"self", func() error { return a.LinkChild("self", a) }, a},
		{"ancestor alias", func() error { return b.SetScope(Path("up"), a) }, b},
		{"root alias", func() error { return b.SetScope(Path("top"), root) }, b},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !IsRuntimeError(err) {
				t.Fatalf("expected cycle error, got %v", err)
			}
		})
	}

	if after := slices.Collect(maps.Keys(b.scopes)); len(after) != len(before) {
		t.Errorf("graph changed: %v", after)
	}

	if a.Parent() != root || b.Parent() != a || a.Depth() != 1 || b.Depth() != 2 {
		t.Error("parent links changed after rejected cycles")
	}
}

func TestScope_SetScopeAlias(t *testing.T) {
	root := NewScope()
	a := root.QueryScope(Path("a"))
	c := root.QueryScope(Path("c"))

	if err := c.SetScope(Path("alias"), a); err != nil {
		t.Fatalf("SetScope: %v", err)
	}

	if c.scopes["alias"] != a || a.Parent() != root {
		t.Error("expected alias to share the scope without reparenting")
	}
}

func TestScope_SetCallerMode(t *testing.T) {
	root := NewScope()
	call := NewChild(root)

	call.SetCallerMode(Mode{Filter: true})

	if !root.Mode().Filter {
		t.Error("expected caller mode to change")
	}

	if call.Mode().Filter {
		t.Error("call scope mode must not change")
	}

	NewScope().SetCallerMode(Mode{Filter: true})
}

func TestScope_Register(t *testing.T) {
	s := NewScope()

	if err := s.Register("math.id", func(_ context.Context, call *Scope) (*Cell, error) {
		return call.QueryValue(Path("V")), nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	c, ok := s.Lookup(Path("math.id"))
	if !ok {
		t.Fatal("expected registered functor")
	}

	fn, ok := c.peek().AsFunctor()
	if !ok || fn.Name() != "math.id" {
		t.Fatalf("expected functor math.id, got %s", c)
	}

	call := NewChild(s)
	call.values["V"] = NewCell(Int(7))

	res, err := fn.Call(t.Context(), call)
	if err != nil || res.peek().i != 7 {
		t.Errorf("expected 7, got %v (%v)", res, err)
	}
}

func TestScope_IterSorted(t *testing.T) {
	s := NewScope()
	for _, n := range []string{"c", "a", "b"} {
		s.values[n] = NewCell(Null())
		s.QueryScope(Path("s" + n))
	}

	var names []string
	for n := range s.Values() {
		names = append(names, n)
	}

	for n := range s.Scopes() {
		names = append(names, n)
	}

	want := []string{"a", "b", "c", "sa", "sb", "sc"}
	if !slices.Equal(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestScope_Cleanup(t *testing.T) {
	root := NewScope()
	if err := root.Register("f", func(context.Context, *Scope) (*Cell, error) {
		return nil, nil
	}); err != nil {
		t.Fatal(err)
	}

	root.values["keep"] = NewCell(Int(1))
	root.values["_hidden"] = NewCell(Int(2))
	root.values[Return] = NewCell(Int(3))
	root.QueryScope(Path("_tmp"))
	root.QueryScope([]string{Anonymous})

	child := root.QueryScope(Path("child"))
	child.values["_x"] = NewCell(Null())
	child.values["y"] = NewCell(Null())

	// cycle through an alias
	if err := child.SetScope(Path("sib"), root.QueryScope(Path("sib"))); err != nil {
		t.Fatal(err)
	}

	root.QueryScope(Path("sib")).scopes["back"] = child

	child.SetMode(Mode{Filter: true})
	root.Cleanup()

	if len(root.values) != 4 {
		t.Fatalf("cleanup without filter changed values: %d", len(root.values))
	}

	if len(child.values) != 2 {
		t.Fatalf("cleanup without filter reached a child: %d", len(child.values))
	}

	root.SetMode(Mode{Filter: true})

	for range 2 {
		root.Cleanup()

		if names := slices.Sorted(maps.Keys(root.values)); !slices.Equal(names, []string{"keep"}) {
			t.Errorf("unexpected root values %v", names)
		}

		if names := slices.Sorted(maps.Keys(root.scopes)); !slices.Equal(names, []string{"_tmp", "child", "sib"}) {
			t.Errorf("unexpected root scopes %v", names)
		}

		if names := slices.Sorted(maps.Keys(child.values)); !slices.Equal(names, []string{"y"}) {
			t.Errorf("unexpected child values %v", names)
		}
	}
}

func TestScope_DottedPathsStayLocal(t *testing.T) {
	s := newTestScope(t)

	src := `bar = 1 [s] = (y = 1) s.bar = 2 z = s.other
		[b] = (q = 0) [a] = (p = 0) a.b.c = 7`
	if _, err := feedString(t, s, src); err != nil {
		t.Fatalf("feed: %v", err)
	}

	if v := valueAt(t, s, "bar"); !v.Equal(Int(1)) {
		t.Errorf("qualified assignment changed root bar to %s", v)
	}

	if v := valueAt(t, s, "s.bar"); !v.Equal(Int(2)) {
		t.Errorf("expected s.bar = 2, got %s", v)
	}

	sc, _ := s.LookupScope(Path("s"))
	if _, ok := sc.values["bar"]; !ok {
		t.Error("expected s.bar to be local to s")
	}

	if _, ok := sc.values["other"]; !ok {
		t.Error("expected reading s.other to touch it in s")
	}

	if _, ok := s.values["other"]; ok {
		t.Error("reading s.other created a root slot")
	}

	b, _ := s.LookupScope(Path("b"))
	if _, ok := b.values["c"]; ok {
		t.Error("a.b.c was written into the root [b]")
	}

	if v := valueAt(t, s, "a.b.c"); !v.Equal(Int(7)) {
		t.Errorf("expected a.b.c = 7, got %s", v)
	}

	ab, ok := s.LookupScope(Path("a.b"))
	if !ok || ab == b || ab.Parent() == nil || ab.Parent().Parent() != s {
		t.Error("expected a.b to be created beneath a")
	}

	child := s.QueryScope(Path("child"))
	if got := child.QueryValue(Path("s.bar")); got != sc.values["bar"] {
		t.Error("expected the first segment to resolve through ancestors")
	}

	if _, ok := child.Lookup(Path("s.y")); !ok {
		t.Error("expected Lookup to resolve the first segment through ancestors")
	}

	if _, ok := child.Lookup(Path("s.z")); ok {
		t.Error("Lookup resolved a later segment through ancestors")
	}

	if _, ok := s.LookupScope(Path("a.a")); ok {
		t.Error("LookupScope resolved a later segment through ancestors")
	}
}

func TestScope_AliasOutlivesOwner(t *testing.T) {
	s := newTestScope(t)

	src := `x = 1 [tmp] = @([inner] = @(y = 2)) [keep] = [tmp.inner] [tmp] = ()`
	if _, err := feedString(t, s, src); err != nil {
		t.Fatalf("feed: %v", err)
	}

	keep, ok := s.LookupScope(Path("keep"))
	if !ok {
		t.Fatal("expected [keep]")
	}

	for range 3 {
		runtime.GC()
	}

	owner := keep.Parent()
	if owner == nil || owner.Parent() != s {
		t.Fatal("expected the alias to keep its owner chain")
	}

	if keep.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", keep.Depth())
	}

	if _, err := feedString(t, s, `[keep] : (z = x)`); err != nil {
		t.Fatalf("feed: %v", err)
	}

	if v := valueAt(t, s, "keep.z"); !v.Equal(Int(1)) {
		t.Errorf("expected keep.z to resolve root x, got %s", v)
	}
}

func TestScope_SetCallerModePropagates(t *testing.T) {
	root := NewScope()
	owned := root.QueryScope(Path("owned"))
	nested := owned.QueryScope(Path("nested"))

	other := NewScope()
	shared := other.QueryScope(Path("shared"))

	if err := root.SetScope(Path("alias"), shared); err != nil {
		t.Fatal(err)
	}

	call := NewChild(root)
	call.SetCallerMode(Mode{Filter: true})

	for name, sc := range map[string]*Scope{"root": root, "owned": owned, "nested": nested} {
		if !sc.Mode().Filter {
			t.Errorf("expected %s to be filtered", name)
		}
	}

	if shared.Mode().Filter {
		t.Error("an aliased scope must keep its owner's mode")
	}
}

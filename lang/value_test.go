package lang

import (
	"errors"
	"testing"
)

func TestValue_Truthy(t *testing.T) {
	fn := NewFunctor("f", nil)

	tests := []struct {
		v    Value
		want bool
	}{
		{Null(), false},
		{Int(0), false},
		{Int(-1), true},
		{Float(0), false},
		{Float(0.1), true},
		{Bool(false), false},
		{Bool(true), true},
		{Str(""), false},
		{Str("x"), true},
		{ListOf(), false},
		{ListOf(Null()), true},
		{FunctorValue(fn), true},
	}

	for _, tt := range tests {
		if got := tt.v.Truthy(); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.v.Source(), tt.want, got)
		}
	}
}

func TestValue_Equal(t *testing.T) {
	f, g := NewFunctor("f", nil), NewFunctor("f", nil)

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"ints", Int(1), Int(1), true},
		{"int vs float", Int(1), Float(1), false},
		{"strings", Str("a"), Str("b"), false},
		{"nulls", Null(), Null(), true},
		{"lists", ListOf(Int(1), Str("x")), ListOf(Int(1), Str("x")), true},
		{"list lengths", ListOf(Int(1)), ListOf(Int(1), Int(2)), false},
		{"nested lists", ListOf(ListOf(Bool(true))), ListOf(ListOf(Bool(false))), false},
		{"same functor", FunctorValue(f), FunctorValue(f), true},
		{"distinct functors", FunctorValue(f), FunctorValue(g), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestValue_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"ints", Int(1), Int(2), -1},
		{"floats", Float(2.5), Float(2.5), 0},
		{"strings", Str("b"), Str("a"), 1},
		{"bools", Bool(false), Bool(true), -1},
		{"lists", ListOf(Int(1), Int(2)), ListOf(Int(1), Int(3)), -1},
		{"list prefix", ListOf(Int(1)), ListOf(Int(1), Int(0)), -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Compare(tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}

	if _, err := Int(1).Compare(Float(1)); !IsRuntimeError(err) {
		t.Errorf("expected runtime error for mixed kinds, got %v", err)
	}

	if _, err := Null().Compare(Null()); !IsRuntimeError(err) {
		t.Errorf("expected runtime error for nulls, got %v", err)
	}
}

func TestValue_Render(t *testing.T) {
	v := ListOf(Int(1), Float(2), Str("a \"b\""), ListOf(Bool(true)), Null())

	if got, want := v.String(), `[1, 2.0, a "b", [true], null]`; got != want {
		t.Errorf("String: expected %q, got %q", want, got)
	}

	if got, want := v.Source(), `(1 2.0 "a \"b\"" (true) null)`; got != want {
		t.Errorf("Source: expected %q, got %q", want, got)
	}

	fn := FunctorValue(NewFunctor("print", nil))
	if got := fn.String(); got != "<functor print>" {
		t.Errorf("functor: got %q", got)
	}
}

func TestValue_SelfReference(t *testing.T) {
	c := NewCell(ListOf(Int(1)))

	v, release, err := c.BorrowMut()
	if err != nil {
		t.Fatalf("BorrowMut: %v", err)
	}

	v.PushBack(c)
	release()

	if got, want := c.String(), "[1, [...]]"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	if got := c.peek().Native(); len(got.([]any)) != 2 {
		t.Errorf("expected 2 native elements, got %v", got)
	}
}

func TestValue_ListMutation(t *testing.T) {
	v := ListOf(Int(1), Int(2))
	snapshot := v

	v.PushFront(NewCell(Int(0)))
	v.PushBack(NewCell(Int(3)))

	if v.Len() != 4 || snapshot.Len() != 2 {
		t.Fatalf("expected lengths 4 and 2, got %d and %d", v.Len(), snapshot.Len())
	}

	if c := v.PopFront(); c.peek().i != 0 {
		t.Errorf("PopFront: got %s", c)
	}

	if c := v.PopBack(); c.peek().i != 3 {
		t.Errorf("PopBack: got %s", c)
	}

	if !v.Replace(1, NewCell(Str("x"))) || v.Replace(2, NewCell(Null())) {
		t.Error("Replace: unexpected range result")
	}

	if snapshot.String() != "[1, 2]" {
		t.Errorf("snapshot changed: %s", snapshot)
	}

	v.Clear()

	if v.Len() != 0 || v.PopBack() != nil || v.Index(0) != nil {
		t.Errorf("expected empty list after Clear, got %s", v)
	}
}

func TestCell_Borrow(t *testing.T) {
	c := NewCell(Int(1))

	_, release, err := c.Borrow()
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}

	if _, _, err := c.Borrow(); err != nil {
		t.Errorf("second shared borrow: %v", err)
	}

	if err := c.Set(Int(2)); !errors.Is(err, ErrCellInUse) {
		t.Errorf("Set while borrowed: expected ErrCellInUse, got %v", err)
	}

	release()
	release()

	_, releaseMut, err := c.BorrowMut()
	if err != nil {
		t.Fatalf("BorrowMut: %v", err)
	}

	if _, err := c.Get(); !errors.Is(err, ErrCellInUse) || !IsRuntimeError(err) {
		t.Errorf("Get while exclusive: expected ErrCellInUse, got %v", err)
	}

	if _, _, err := c.BorrowMut(); !errors.Is(err, ErrCellInUse) {
		t.Errorf("second BorrowMut: expected ErrCellInUse, got %v", err)
	}

	releaseMut()

	if err := c.Set(Int(3)); err != nil {
		t.Fatalf("Set after release: %v", err)
	}

	if v, _ := c.Get(); v.i != 3 {
		t.Errorf("expected 3, got %s", v)
	}
}

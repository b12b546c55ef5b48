package lang

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a [Value].
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindStr
	KindList
	KindFunctor
)

var kindName = [...]string{
	KindNull:    "null",
	KindInt:     "int",
	KindFloat:   "float",
	KindBool:    "bool",
	KindStr:     "str",
	KindList:    "list",
	KindFunctor: "functor",
}

func (k Kind) String() string {
	if int(k) < len(kindName) {
		return kindName[k]
	}

	return "invalid"
}

// FunctorFunc is the native implementation of a [Functor]. The call scope
// holds the arguments supplied by the caller and is where the functor binds
// its own temporaries.
type FunctorFunc func(ctx context.Context, call *Scope) (*Cell, error)

// Functor is a named native callable bound into the scope graph. Functors
// are shared by pointer and compare by identity.
type Functor struct {
	name string
	fn   FunctorFunc
}

// NewFunctor returns a functor that invokes fn.
func NewFunctor(name string, fn FunctorFunc) *Functor {
	return &Functor{name: name, fn: fn}
}

func (f *Functor) Name() string { return f.name }

// Call invokes the functor with call as its working scope. A nil result is
// reported as Null.
func (f *Functor) Call(ctx context.Context, call *Scope) (*Cell, error) {
	c, err := f.fn(ctx, call)
	if err != nil {
		return nil, err
	}

	if c == nil {
		c = NewCell(Null())
	}

	return c, nil
}

// Value is a runtime datum. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []*Cell
	fn   *Functor
}

func Null() Value                   { return Value{} }
func Int(n int64) Value             { return Value{kind: KindInt, i: n} }
func Float(f float64) Value         { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value             { return Value{kind: KindBool, b: b} }
func Str(s string) Value            { return Value{kind: KindStr, s: s} }
func FunctorValue(f *Functor) Value { return Value{kind: KindFunctor, fn: f} }

// List returns a list value holding the given cells. The cells are shared,
// not copied.
func List(cells ...*Cell) Value {
	return Value{kind: KindList, list: cells}
}

// ListOf returns a list value holding a fresh cell for each of vs.
func ListOf(vs ...Value) Value {
	cells := make([]*Cell, len(vs))
	for i, v := range vs {
		cells[i] = NewCell(v)
	}

	return List(cells...)
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsInt() (int64, bool)     { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }
func (v Value) AsBool() (bool, bool)     { return v.b, v.kind == KindBool }
func (v Value) AsStr() (string, bool)    { return v.s, v.kind == KindStr }

// AsList returns the cells of a list value. The slice must not be modified;
// use the list methods on *Value while holding an exclusive borrow.
func (v Value) AsList() ([]*Cell, bool) { return v.list, v.kind == KindList }

func (v Value) AsFunctor() (*Functor, bool) { return v.fn, v.kind == KindFunctor }

// Truthy reports the truthiness of v: Null, zero, the empty string and the
// empty list are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindBool:
		return v.b
	case KindStr:
		return v.s != ""
	case KindList:
		return len(v.list) > 0
	case KindFunctor:
		return true
	default:
		return false
	}
}

// Clone returns a copy of v. Lists get a new backing array holding the same
// cells; functors keep their identity.
func (v Value) Clone() Value {
	if v.kind == KindList {
		v.list = slices.Clone(v.list)
	}

	return v
}

// Equal reports structural equality. Values of different kinds are never
// equal and functors compare by identity.
func (v Value) Equal(o Value) bool {
	return v.equal(o, 0)
}

// maxCompareDepth bounds recursion through self-referencing lists.
const maxCompareDepth = 64

func (v Value) equal(o Value, depth int) bool {
	if v.kind != o.kind {
		return false
	}

	switch v.kind {
	case KindNull:
		return true
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindStr:
		return v.s == o.s
	case KindFunctor:
		return v.fn == o.fn
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}

		if depth > maxCompareDepth {
			return false
		}

		for i := range v.list {
			if v.list[i] == o.list[i] {
				continue
			}

			if !v.list[i].peek().equal(o.list[i].peek(), depth+1) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// Compare orders two values of the same kind. Comparing values of different
// kinds, nulls, or functors is a RuntimeError.
func (v Value) Compare(o Value) (int, error) {
	return v.compare(o, 0)
}

func (v Value) compare(o Value, depth int) (int, error) {
	if v.kind != o.kind {
		return 0, RuntimeErrorf("cannot compare %s with %s", v.kind, o.kind)
	}

	switch v.kind {
	case KindInt:
		return cmp.Compare(v.i, o.i), nil
	case KindFloat:
		return cmp.Compare(v.f, o.f), nil
	case KindStr:
		return strings.Compare(v.s, o.s), nil
	case KindBool:
		switch {
		case v.b == o.b:
			return 0, nil
		case !v.b:
			return -1, nil
		default:
			return 1, nil
		}
	case KindList:
		if depth > maxCompareDepth {
			return 0, RuntimeErrorf("cannot compare self-referencing lists")
		}

		for i := range min(len(v.list), len(o.list)) {
			c, err := v.list[i].peek().compare(o.list[i].peek(), depth+1)
			if err != nil || c != 0 {
				return c, err
			}
		}

		return cmp.Compare(len(v.list), len(o.list)), nil
	default:
		return 0, RuntimeErrorf("%s values are not ordered", v.kind)
	}
}

// String renders v for display: strings appear without quotes and lists as
// "[a, b]".
func (v Value) String() string {
	var sb strings.Builder

	v.display(&sb, map[*Cell]bool{})

	return sb.String()
}

func (v Value) display(sb *strings.Builder, seen map[*Cell]bool) {
	switch v.kind {
	case KindStr:
		sb.WriteString(v.s)
	case KindList:
		sb.WriteByte('[')

		for i, c := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}

			if seen[c] {
				sb.WriteString("[...]")

				continue
			}

			seen[c] = true
			c.peek().display(sb, seen)
			delete(seen, c)
		}

		sb.WriteByte(']')
	default:
		v.scalar(sb)
	}
}

// Source renders v in source syntax where one exists: strings are quoted,
// floats always carry a decimal point and lists render as plain blocks.
// Functors render as "<functor name>", which does not parse.
func (v Value) Source() string {
	var sb strings.Builder

	v.source(&sb, map[*Cell]bool{})

	return sb.String()
}

func (v Value) source(sb *strings.Builder, seen map[*Cell]bool) {
	switch v.kind {
	case KindStr:
		sb.WriteString(quote(v.s))
	case KindList:
		sb.WriteByte('(')

		for i, c := range v.list {
			if i > 0 {
				sb.WriteByte(' ')
			}

			if seen[c] {
				sb.WriteString("null")

				continue
			}

			seen[c] = true
			c.peek().source(sb, seen)
			delete(seen, c)
		}

		sb.WriteByte(')')
	default:
		v.scalar(sb)
	}
}

func (v Value) scalar(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		sb.WriteString(formatFloat(v.f))
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindFunctor:
		sb.WriteString("<functor ")
		sb.WriteString(v.fn.name)
		sb.WriteByte('>')
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}

	return s
}

// quote renders s as a string literal using only the escapes the tokenizer
// recognizes.
func quote(s string) string {
	var sb strings.Builder

	sb.Grow(len(s) + 2)
	sb.WriteByte('"')

	for _, r := range s {
		switch r {
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		default:
			sb.WriteRune(r)
		}
	}

	sb.WriteByte('"')

	return sb.String()
}

// Native converts v into plain Go data: nil, int64, float64, bool, string or
// []any. Functors convert to nil.
func (v Value) Native() any {
	return v.native(map[*Cell]bool{})
}

func (v Value) native(seen map[*Cell]bool) any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindStr:
		return v.s
	case KindList:
		out := make([]any, 0, len(v.list))

		for _, c := range v.list {
			if seen[c] {
				out = append(out, nil)

				continue
			}

			seen[c] = true
			out = append(out, c.peek().native(seen))
			delete(seen, c)
		}

		return out
	default:
		return nil
	}
}

// List mutation. These methods act on list values only and are no-ops
// otherwise; callers hold an exclusive borrow of the owning cell. Copies of
// the value taken earlier keep observing their own length.

// Len returns the number of elements of a list value.
func (v *Value) Len() int { return len(v.list) }

// Index returns the element at i, or nil when out of range.
func (v *Value) Index(i int) *Cell {
	if i < 0 || i >= len(v.list) {
		return nil
	}

	return v.list[i]
}

func (v *Value) PushBack(c *Cell) {
	if v.kind == KindList {
		v.list = append(v.list, c)
	}
}

func (v *Value) PushFront(c *Cell) {
	if v.kind == KindList {
		v.list = append([]*Cell{c}, v.list...)
	}
}

// PopBack removes and returns the last element, or nil when empty.
func (v *Value) PopBack() *Cell {
	if v.kind != KindList || len(v.list) == 0 {
		return nil
	}

	c := v.list[len(v.list)-1]
	v.list = v.list[:len(v.list)-1]

	return c
}

// PopFront removes and returns the first element, or nil when empty.
func (v *Value) PopFront() *Cell {
	if v.kind != KindList || len(v.list) == 0 {
		return nil
	}

	c := v.list[0]
	v.list = v.list[1:]

	return c
}

// Replace stores c at index i and reports whether i was in range.
func (v *Value) Replace(i int, c *Cell) bool {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return false
	}

	v.list = slices.Clone(v.list)
	v.list[i] = c

	return true
}

func (v *Value) Clear() {
	if v.kind == KindList {
		v.list = nil
	}
}

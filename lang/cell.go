package lang

import (
	"log/slog"
	"strings"
)

// Cell is a shared, mutable slot holding one [Value]. Many scope entries and
// list elements may refer to the same Cell.
//
// A Cell tracks borrows at run time: any number of shared borrows, or a single
// exclusive borrow. A conflicting request fails with [ErrCellInUse] instead of
// observing a value that is being modified. Borrow tracking is not safe for
// concurrent use.
type Cell struct {
	value Value
	// borrows > 0 counts shared borrows; -1 marks an exclusive borrow.
	borrows int
}

// NewCell returns a cell holding v.
func NewCell(v Value) *Cell {
	return &Cell{value: v}
}

// Get returns a copy of the held value. It fails while the cell is borrowed
// exclusively.
func (c *Cell) Get() (Value, error) {
	if c.borrows < 0 {
		return Value{}, c.inUse("read")
	}

	return c.value, nil
}

// Set replaces the held value. It fails while the cell is borrowed.
func (c *Cell) Set(v Value) error {
	if c.borrows != 0 {
		return c.inUse("write")
	}

	c.value = v

	return nil
}

// Borrow returns the held value and registers a shared borrow until release
// is called.
func (c *Cell) Borrow() (v Value, release func(), err error) {
	if c.borrows < 0 {
		return Value{}, nil, c.inUse("borrow")
	}

	c.borrows++

	return c.value, c.releaseShared, nil
}

// BorrowMut returns a pointer to the held value for in-place mutation and
// registers an exclusive borrow until release is called.
func (c *Cell) BorrowMut() (v *Value, release func(), err error) {
	if c.borrows != 0 {
		return nil, nil, c.inUse("borrow mutably")
	}

	c.borrows = -1

	return &c.value, c.releaseExclusive, nil
}

// Kind returns the kind of the held value without borrowing.
func (c *Cell) Kind() Kind { return c.value.kind }

// String renders the held value for display without borrowing.
func (c *Cell) String() string {
	var sb strings.Builder

	c.value.display(&sb, map[*Cell]bool{c: true})

	return sb.String()
}

func (c *Cell) peek() Value { return c.value }

func (c *Cell) releaseShared() {
	if c.borrows > 0 {
		c.borrows--
	}
}

func (c *Cell) releaseExclusive() {
	if c.borrows < 0 {
		c.borrows = 0
	}
}

func (c *Cell) inUse(op string) error {
	return WrapRuntimeError(
		ErrCellInUse.With(
			slog.String("op", op),
			slog.String("kind", c.value.kind.String()),
		),
		"cannot %s %s value", op, c.value.kind,
	)
}

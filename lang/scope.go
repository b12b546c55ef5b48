package lang

import (
	"iter"
	"maps"
	"slices"
	"strings"
	"weak"
)

// Reserved names.
const (
	// Anonymous is the scope slot holding the argument scope of the most
	// recent call.
	Anonymous = "[anonymous]"
	// Return is the value slot receiving each non-null statement result.
	Return = "ret"
	// PrivatePrefix marks names removed by [Scope.Cleanup].
	PrivatePrefix = "_"
)

// Mode holds per-scope evaluation flags. It is replaced wholesale.
type Mode struct {
	// Filter enables [Scope.Cleanup] for the scope.
	Filter bool
}

// Scope is a named environment of value cells and child scopes. A scope
// holds only a weak reference to its parent; the parent owns its children.
//
// A scope bound outside its owner with [Scope.SetScope] pins its ancestor
// chain, so names resolved from the alias never depend on whether the
// owner is still reachable otherwise.
type Scope struct {
	values map[string]*Cell
	scopes map[string]*Scope
	parent weak.Pointer[Scope]
	pin    *Scope
	depth  int
	mode   Mode
}

// NewScope returns an empty root scope.
func NewScope() *Scope {
	return &Scope{
		values: make(map[string]*Cell),
		scopes: make(map[string]*Scope),
	}
}

// NewChild returns an empty scope that resolves names through parent but is
// not registered in parent until linked with [Scope.LinkChild] or
// [Scope.SetScope].
func NewChild(parent *Scope) *Scope {
	s := NewScope()
	if parent != nil {
		s.parent = weak.Make(parent)
		s.depth = parent.depth + 1
		s.mode = parent.mode
	}

	return s
}

// Path splits a dotted name into path segments.
func Path(name string) []string {
	if name == "" {
		return nil
	}

	return strings.Split(name, ".")
}

// Parent returns the parent scope, or nil for a root.
func (s *Scope) Parent() *Scope { return s.parent.Value() }

// Depth returns the distance from the nearest root.
func (s *Scope) Depth() int { return s.depth }

// Mode returns the evaluation flags of s.
func (s *Scope) Mode() Mode { return s.mode }

// SetMode replaces the evaluation flags of s.
func (s *Scope) SetMode(m Mode) { s.mode = m }

// SetCallerMode replaces the flags of the scope that created s, that is, the
// caller of a native functor receiving s as its call scope, and of every
// descendant the caller owns. Aliased scopes keep their flags. It has no
// effect on a root.
func (s *Scope) SetCallerMode(m Mode) {
	if p := s.Parent(); p != nil {
		p.setModeTree(m, make(map[*Scope]bool))
	}
}

func (s *Scope) setModeTree(m Mode, seen map[*Scope]bool) {
	if seen[s] {
		return
	}

	seen[s] = true
	s.mode = m

	for _, c := range s.scopes {
		if c.Parent() == s {
			c.setModeTree(m, seen)
		}
	}
}

// Values returns the local value slots in name order.
func (s *Scope) Values() iter.Seq2[string, *Cell] {
	return func(yield func(string, *Cell) bool) {
		for _, name := range slices.Sorted(maps.Keys(s.values)) {
			if !yield(name, s.values[name]) {
				return
			}
		}
	}
}

// Scopes returns the local scope slots in name order.
func (s *Scope) Scopes() iter.Seq2[string, *Scope] {
	return func(yield func(string, *Scope) bool) {
		for _, name := range slices.Sorted(maps.Keys(s.scopes)) {
			if !yield(name, s.scopes[name]) {
				return
			}
		}
	}
}

// Visible returns every value slot visible from s, nearest binding first.
// Names shadowed by a nearer scope are skipped.
func (s *Scope) Visible() iter.Seq2[string, *Cell] {
	return func(yield func(string, *Cell) bool) {
		seen := make(map[string]bool)

		for cur := range s.ancestors() {
			for name, c := range cur.Values() {
				if seen[name] {
					continue
				}

				seen[name] = true

				if !yield(name, c) {
					return
				}
			}
		}
	}
}

// ancestors yields s and then each parent up to the root.
func (s *Scope) ancestors() iter.Seq[*Scope] {
	return func(yield func(*Scope) bool) {
		for cur := s; cur != nil; cur = cur.Parent() {
			if !yield(cur) {
				return
			}
		}
	}
}

func (s *Scope) findValue(name string) (*Scope, *Cell) {
	for cur := range s.ancestors() {
		if c, ok := cur.values[name]; ok {
			return cur, c
		}
	}

	return nil, nil
}

func (s *Scope) findScope(name string) *Scope {
	for cur := range s.ancestors() {
		if sc, ok := cur.scopes[name]; ok {
			return sc
		}
	}

	return nil
}

func (s *Scope) touchValue(name string) *Cell {
	if _, c := s.findValue(name); c != nil {
		return c
	}

	return s.localValue(name)
}

func (s *Scope) touchScope(name string) *Scope {
	if sc := s.findScope(name); sc != nil {
		return sc
	}

	return s.localScope(name)
}

// localValue returns the cell named in s itself, creating a null cell if
// there is none. Ancestors are not consulted.
func (s *Scope) localValue(name string) *Cell {
	if c, ok := s.values[name]; ok {
		return c
	}

	c := NewCell(Null())
	s.values[name] = c

	return c
}

// localScope is the scope counterpart of [Scope.localValue].
func (s *Scope) localScope(name string) *Scope {
	if sc, ok := s.scopes[name]; ok {
		return sc
	}

	sc := NewChild(s)
	s.scopes[name] = sc

	return sc
}

// QueryValue returns the cell at path, creating a null cell if there is
// none. A single name resolves through ancestors before it is created
// locally. In a dotted path only the first segment resolves through
// ancestors; every later segment is local to the scope named before it. An
// empty path yields a fresh null cell.
func (s *Scope) QueryValue(path []string) *Cell {
	switch len(path) {
	case 0:
		return NewCell(Null())
	case 1:
		return s.touchValue(path[0])
	}

	n := len(path) - 1

	return s.QueryScope(path[:n]).localValue(path[n])
}

// QueryScope returns the scope at path, creating empty scopes for missing
// segments. Only the first segment resolves through ancestors. An empty path
// yields s.
func (s *Scope) QueryScope(path []string) *Scope {
	if len(path) == 0 {
		return s
	}

	cur := s.touchScope(path[0])
	for _, name := range path[1:] {
		cur = cur.localScope(name)
	}

	return cur
}

// Lookup returns the cell at path without creating anything, resolving
// segments as [Scope.QueryValue] does.
func (s *Scope) Lookup(path []string) (*Cell, bool) {
	switch len(path) {
	case 0:
		return nil, false
	case 1:
		_, c := s.findValue(path[0])

		return c, c != nil
	}

	n := len(path) - 1

	sc, ok := s.LookupScope(path[:n])
	if !ok {
		return nil, false
	}

	c, ok := sc.values[path[n]]

	return c, ok
}

// LookupScope returns the scope at path without creating anything, resolving
// segments as [Scope.QueryScope] does.
func (s *Scope) LookupScope(path []string) (*Scope, bool) {
	if len(path) == 0 {
		return s, true
	}

	cur := s.findScope(path[0])
	if cur == nil {
		return nil, false
	}

	for _, name := range path[1:] {
		next, ok := cur.scopes[name]
		if !ok {
			return nil, false
		}

		cur = next
	}

	return cur, true
}

// SetValue stores c in the final segment of path, always in the resolved
// scope itself, shadowing any ancestor slot of the same name.
func (s *Scope) SetValue(path []string, c *Cell) error {
	if len(path) == 0 {
		return RuntimeErrorf("[Scope] Cannot set a value at an empty path")
	}

	n := len(path) - 1
	s.QueryScope(path[:n]).values[path[n]] = c

	return nil
}

// Assign stores c at path. A single name overwrites the nearest scope
// already holding it, or is created in s if none does. The final segment of
// a dotted path is always stored in the scope its leading segments resolve
// to.
func (s *Scope) Assign(path []string, c *Cell) error {
	if len(path) == 0 {
		return RuntimeErrorf("[Scope] Cannot assign a value at an empty path")
	}

	n := len(path) - 1
	target := s.QueryScope(path[:n])

	if n == 0 {
		if owner, _ := target.findValue(path[n]); owner != nil {
			target = owner
		}
	}

	target.values[path[n]] = c

	return nil
}

// SetScope stores child in the final segment of path. A parentless child, or
// one created for the resolved scope with [NewChild], is linked; any other
// child is stored as an alias and pins its ancestors. Linking rejects any
// cycle through parent links; aliasing rejects binding a scope beneath
// itself or its descendants but may still make two scope tables refer to
// each other.
func (s *Scope) SetScope(path []string, child *Scope) error {
	if len(path) == 0 {
		return RuntimeErrorf("[Scope] Cannot set a scope at an empty path")
	}

	n := len(path) - 1
	target := s.QueryScope(path[:n])

	if p := child.Parent(); p == nil || p == target {
		return target.LinkChild(path[n], child)
	}

	if target.hasAncestor(child) {
		return RuntimeErrorf("[Scope] Binding %s would create a cycle",
			strings.Join(path, "."))
	}

	child.pinAncestors()
	target.scopes[path[n]] = child

	return nil
}

// pinAncestors holds a strong reference from s to its parent, and from that
// parent to its own, up to the first scope already pinned or a root.
func (s *Scope) pinAncestors() {
	for cur := s; cur.pin == nil; {
		p := cur.Parent()
		if p == nil {
			return
		}

		cur.pin = p
		cur = p
	}
}

// hasAncestor reports whether a is s or one of its ancestors.
func (s *Scope) hasAncestor(a *Scope) bool {
	for cur := range s.ancestors() {
		if cur == a {
			return true
		}
	}

	return false
}

// LinkChild registers child under name and makes s its parent. It fails,
// leaving both scopes unchanged, if child already has another parent or if
// child is s or one of its ancestors.
func (s *Scope) LinkChild(name string, child *Scope) error {
	if child == nil {
		return RuntimeErrorf("[Scope] Cannot link a nil scope as %s", name)
	}

	if p := child.Parent(); p != nil && p != s {
		return RuntimeErrorf("[Scope] Scope %s already has a different parent", name)
	}

	if s.hasAncestor(child) {
		return RuntimeErrorf("[Scope] Linking %s would create a cycle", name)
	}

	child.parent = weak.Make(s)
	child.mode = s.mode
	child.setDepth(s.depth+1, make(map[*Scope]bool))
	s.scopes[name] = child

	return nil
}

// setDepth updates the depth of s and of every descendant it owns.
func (s *Scope) setDepth(depth int, seen map[*Scope]bool) {
	if seen[s] {
		return
	}

	seen[s] = true
	s.depth = depth

	for _, c := range s.scopes {
		if c.Parent() == s {
			c.setDepth(depth+1, seen)
		}
	}
}

// Register stores fn as a functor value at the dotted path, creating scopes
// for leading segments.
func (s *Scope) Register(path string, fn FunctorFunc) error {
	p := Path(path)
	if len(p) == 0 {
		return RuntimeErrorf("[Scope] Cannot register a functor at an empty path")
	}

	return s.SetValue(p, NewCell(FunctorValue(NewFunctor(path, fn))))
}

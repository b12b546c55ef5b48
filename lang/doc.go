// Package lang implements IPML, a small language mixing nested named data
// with imperative execution over a tree of scopes.
//
// # Syntax
//
// A program is a sequence of statements, each a triple of left operand,
// operator and right operand. The operators assign (=), feed (:) and call
// (!):
//
//	foo = 1
//	[s] = (bar = "hi")
//	[s] : (baz = 2)
//	print ! (V = foo)
//
// Operands are literals (integers, floats, strings, true, false, null),
// symbols naming value slots (a.b.c), tags naming scope slots ([a.b]) and
// parenthesized blocks. A block used as a value is a list. Markers before a
// block change its meaning:
//
//	$( ... )   function literal
//	@( ... )   scope parented to the current one
//	%( ... )   parentless scope
//
// # Evaluation
//
// [Parser] folds source text into one root [Block] token. [Feed] executes a
// block in a [Scope]; [Run] additionally calls [Scope.Cleanup]. Native code
// is bound into a scope as [Functor] values with [Scope.Register].
//
// Errors from the parser are [SyntaxError] values; errors from evaluation
// are [RuntimeError] values. Conflicting access to a [Cell] yields an error
// matching [ErrCellInUse].
package lang

package lang

import (
	"slices"
	"strings"
)

// TokenKind identifies the variant held by a [Token].
type TokenKind uint8

const (
	TokenInvalid TokenKind = iota
	TokenLiteral
	TokenSymbol
	TokenTag
	TokenBlock
	TokenOperator
	TokenDecorator
)

var tokenKindName = [...]string{
	TokenInvalid:   "invalid",
	TokenLiteral:   "literal",
	TokenSymbol:    "symbol",
	TokenTag:       "tag",
	TokenBlock:     "block",
	TokenOperator:  "operator",
	TokenDecorator: "decorator",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenKindName) {
		return tokenKindName[k]
	}

	return "invalid"
}

// Decorator selects how the evaluator interprets a grouped block.
type Decorator uint8

const (
	// DecoratorNone is a plain block: a list when used as a value, a scope
	// body when fed.
	DecoratorNone Decorator = iota
	// DecoratorFunction makes the block a function literal.
	DecoratorFunction
	// DecoratorSubScope builds an anonymous scope parented to the current one.
	DecoratorSubScope
	// DecoratorIndependent builds a parentless scope.
	DecoratorIndependent
)

func (d Decorator) String() string {
	switch d {
	case DecoratorNone:
		return "none"
	case DecoratorFunction:
		return "function"
	case DecoratorSubScope:
		return "subscope"
	case DecoratorIndependent:
		return "independent"
	default:
		return "invalid"
	}
}

// DefaultDecorators maps the default marker runes to their decorators.
func DefaultDecorators() map[rune]Decorator {
	return map[rune]Decorator{
		'$': DecoratorFunction,
		'@': DecoratorSubScope,
		'%': DecoratorIndependent,
	}
}

// Execution operators.
const (
	OpAssign = '='
	OpFeed   = ':'
	OpCall   = '!'
)

// Token is a node of the syntax tree. Tokens are immutable once built and
// may be shared freely, including across goroutines.
type Token struct {
	kind  TokenKind
	op    rune
	decor Decorator
	value Value
	path  []string
	block []Token
}

// Literal returns a token holding the constant v.
func Literal(v Value) Token { return Token{kind: TokenLiteral, value: v} }

// Symbol returns a token referring to the value slot at path.
func Symbol(path ...string) Token { return Token{kind: TokenSymbol, path: path} }

// Tag returns a token referring to the scope slot at path.
func Tag(path ...string) Token { return Token{kind: TokenTag, path: path} }

// Block returns a grouped token with the given decorator.
func Block(d Decorator, tokens ...Token) Token {
	return Token{kind: TokenBlock, decor: d, block: tokens}
}

// Operator returns a single-rune operator token.
func Operator(r rune) Token { return Token{kind: TokenOperator, op: r} }

func decoratorToken(r rune, d Decorator) Token {
	return Token{kind: TokenDecorator, op: r, decor: d}
}

func (t Token) Kind() TokenKind { return t.kind }

// Value returns the constant held by a literal token.
func (t Token) Value() Value { return t.value }

// Path returns a copy of the path of a symbol or tag token.
func (t Token) Path() []string { return slices.Clone(t.path) }

// Tokens returns the children of a block token.
func (t Token) Tokens() []Token { return t.block }

// Decorator returns the decorator of a block or decorator token.
func (t Token) Decorator() Decorator { return t.decor }

// Op returns the rune of an operator or decorator token.
func (t Token) Op() rune { return t.op }

func (t Token) isOp(r rune) bool {
	return t.kind == TokenOperator && t.op == r
}

// Equal reports whether t and o are structurally identical.
func (t Token) Equal(o Token) bool {
	if t.kind != o.kind {
		return false
	}

	switch t.kind {
	case TokenLiteral:
		return t.value.Equal(o.value)
	case TokenSymbol, TokenTag:
		return slices.Equal(t.path, o.path)
	case TokenBlock:
		return t.decor == o.decor && slices.EqualFunc(t.block, o.block, Token.Equal)
	case TokenOperator:
		return t.op == o.op
	case TokenDecorator:
		return t.op == o.op && t.decor == o.decor
	default:
		return true
	}
}

// String renders the token in source form. A root block renders with its
// enclosing parentheses.
func (t Token) String() string {
	var sb strings.Builder

	t.write(&sb, DefaultDecorators())

	return sb.String()
}

func (t Token) write(sb *strings.Builder, markers map[rune]Decorator) {
	switch t.kind {
	case TokenLiteral:
		sb.WriteString(t.value.Source())

	case TokenSymbol:
		sb.WriteString(strings.Join(t.path, "."))

	case TokenTag:
		sb.WriteByte('[')
		sb.WriteString(strings.Join(t.path, "."))
		sb.WriteByte(']')

	case TokenBlock:
		if t.decor != DecoratorNone {
			sb.WriteRune(markerFor(markers, t.decor))
		}

		sb.WriteByte('(')

		for i, c := range t.block {
			if i > 0 {
				sb.WriteByte(' ')
			}

			c.write(sb, markers)
		}

		sb.WriteByte(')')

	case TokenOperator, TokenDecorator:
		sb.WriteRune(t.op)

	default:
		sb.WriteString("<invalid>")
	}
}

func markerFor(markers map[rune]Decorator, d Decorator) rune {
	for r, md := range markers {
		if md == d {
			return r
		}
	}

	return '?'
}

package lang

import (
	"context"
	"log/slog"

	"github.com/ardnew/ipml/log"
)

// DefaultMaxDepth bounds block nesting when no [WithMaxDepth] option is given.
var DefaultMaxDepth = 256

// Option configures a [Parser].
type Option func(*Parser)

// WithDecorators replaces the marker runes recognized before a block.
func WithDecorators(markers map[rune]Decorator) Option {
	return func(p *Parser) {
		p.decorators = make(map[rune]Decorator, len(markers))
		for r, d := range markers {
			p.decorators[r] = d
		}
	}
}

// WithMaxDepth bounds block nesting. A non-positive depth disables the bound.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// WithLogger sets the logger used to trace parsing.
func WithLogger(logger log.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// Parser turns source text into a single root [Block] token.
type Parser struct {
	source     []byte
	decorators map[rune]Decorator
	maxDepth   int
	logger     log.Logger
}

// lexeme is a token with the position of its first rune.
type lexeme struct {
	tok       Token
	line, col int
}

// NewParser returns a parser over src.
func NewParser(src []byte, opts ...Option) *Parser {
	p := &Parser{
		source:     src,
		decorators: DefaultDecorators(),
		maxDepth:   DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Parse tokenizes the whole source and folds parentheses into nested blocks.
// The returned token is an undecorated root block.
func (p *Parser) Parse(ctx context.Context) (Token, error) {
	for r := range p.decorators {
		if !validMarker(r) {
			return Token{}, ErrInvalidDecorator.With(slog.String("marker", string(r)))
		}
	}

	flat, err := p.tokenize()
	if err != nil {
		p.logger.TraceContext(ctx, "tokenize failed", slog.Any("error", err))

		return Token{}, err
	}

	p.logger.TraceContext(ctx, "tokenized",
		slog.Int("source_bytes", len(p.source)),
		slog.Int("tokens", len(flat)),
	)

	f := folder{lex: flat, maxDepth: p.maxDepth}

	root, err := f.fold(0)
	if err != nil {
		return Token{}, err
	}

	p.logger.TraceContext(ctx, "parse complete",
		slog.Int("blocks", f.blocks),
		slog.Int("depth", f.deepest),
	)

	return Block(DecoratorNone, root...), nil
}

func (p *Parser) tokenize() ([]lexeme, error) {
	t := tokenizer{cursor: newCursor(p.source), decorators: p.decorators}

	var flat []lexeme

	for {
		t.skipSpace()

		line, col := t.line, t.col

		tok, ok, err := t.next()
		if err != nil {
			return nil, err
		}

		if !ok {
			return flat, nil
		}

		flat = append(flat, lexeme{tok: tok, line: line, col: col})
	}
}

// folder groups a flat token stream by parentheses.
type folder struct {
	lex      []lexeme
	pos      int
	maxDepth int
	blocks   int
	deepest  int
}

// fold collects tokens for one nesting level. It returns on a closing paren
// or at the end of input, which closes every open level.
func (f *folder) fold(depth int) ([]Token, error) {
	if depth > f.deepest {
		f.deepest = depth
	}

	var out []Token

	for f.pos < len(f.lex) {
		lx := f.lex[f.pos]
		f.pos++

		decor := DecoratorNone

		if lx.tok.kind == TokenDecorator {
			if f.pos >= len(f.lex) || !f.lex[f.pos].tok.isOp('(') {
				out = append(out, lx.tok)

				continue
			}

			decor = lx.tok.decor
			lx = f.lex[f.pos]
			f.pos++
		}

		switch {
		case lx.tok.isOp('('):
			if f.maxDepth > 0 && depth+1 > f.maxDepth {
				return nil, ErrMaxDepthExceeded.With(
					slog.Int("line", lx.line),
					slog.Int("column", lx.col),
					slog.Int("max_depth", f.maxDepth),
				)
			}

			f.blocks++

			inner, err := f.fold(depth + 1)
			if err != nil {
				return nil, err
			}

			out = append(out, Block(decor, inner...))

		case lx.tok.isOp(')'):
			return out, nil

		default:
			out = append(out, lx.tok)
		}
	}

	return out, nil
}

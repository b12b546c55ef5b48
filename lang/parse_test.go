package lang

import (
	"errors"
	"strings"
	"testing"
)

// shape counts the blocks nested under root and their maximum depth.
func shape(root Token) (blocks, depth int) {
	for _, t := range root.Tokens() {
		if t.Kind() != TokenBlock {
			continue
		}

		b, d := shape(t)
		blocks += b + 1
		depth = max(depth, d+1)
	}

	return blocks, depth
}

func TestParse_Grouping(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		blocks int
		depth  int
		tokens int
	}{
		{name: "flat", input: "a = 1 b = 2", blocks: 0, depth: 0, tokens: 6},
		{name: "single group", input: "[s] = (x = 1)", blocks: 1, depth: 1, tokens: 3},
		{
			name:   "nested groups",
			input:  "a = (1 (2 3) @(b = 4))",
			blocks: 3, depth: 2, tokens: 3,
		},
		{
			name:   "deep",
			input:  "x = ((((1))))",
			blocks: 4, depth: 4, tokens: 3,
		},
		{name: "unclosed groups close at end", input: "a = (1 (2", blocks: 2, depth: 2, tokens: 3},
		{name: "unmatched close ends root", input: "a = 1 ) b = 2", blocks: 0, depth: 0, tokens: 3},
		{name: "empty", input: "  \n\t", blocks: 0, depth: 0, tokens: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := NewParser([]byte(tt.input)).Parse(t.Context())
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			if root.Kind() != TokenBlock || root.Decorator() != DecoratorNone {
				t.Fatalf("expected undecorated root block, got %s", root)
			}

			if n := len(root.Tokens()); n != tt.tokens {
				t.Errorf("expected %d root tokens, got %d", tt.tokens, n)
			}

			blocks, depth := shape(root)
			if blocks != tt.blocks {
				t.Errorf("expected %d blocks, got %d", tt.blocks, blocks)
			}

			if depth != tt.depth {
				t.Errorf("expected depth %d, got %d", tt.depth, depth)
			}
		})
	}
}

func TestParse_Decorators(t *testing.T) {
	root, err := NewParser([]byte("$(x) @(y) %(z) $ q")).Parse(t.Context())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	want := []Token{
		Block(DecoratorFunction, Symbol("x")),
		Block(DecoratorSubScope, Symbol("y")),
		Block(DecoratorIndependent, Symbol("z")),
		decoratorToken('$', DecoratorFunction),
		Symbol("q"),
	}

	got := root.Tokens()
	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %s", len(want), len(got), root)
	}

	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("token %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestParse_CustomDecorators(t *testing.T) {
	p := NewParser([]byte("^(x) $(y)"), WithDecorators(map[rune]Decorator{
		'^': DecoratorFunction,
	}))

	root, err := p.Parse(t.Context())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	got := root.Tokens()
	if len(got) != 3 {
		t.Fatalf("expected 3 tokens, got %d: %s", len(got), root)
	}

	if got[0].Kind() != TokenBlock || got[0].Decorator() != DecoratorFunction {
		t.Errorf("expected function block, got %s", got[0])
	}

	if !got[1].Equal(Operator('$')) {
		t.Errorf("expected $ to be a plain operator, got %s", got[1])
	}
}

func TestParse_InvalidDecorator(t *testing.T) {
	for _, marker := range []rune{'a', '1', '-', '"', '[', '(', ')', '=', ' '} {
		p := NewParser([]byte("x = 1"), WithDecorators(map[rune]Decorator{
			marker: DecoratorFunction,
		}))

		_, err := p.Parse(t.Context())
		if !errors.Is(err, ErrInvalidDecorator) {
			t.Errorf("marker %q: expected ErrInvalidDecorator, got %v", marker, err)
		}
	}
}

func TestParse_MaxDepth(t *testing.T) {
	_, err := NewParser([]byte("x = ((1))"), WithMaxDepth(2)).Parse(t.Context())
	if err != nil {
		t.Fatalf("depth 2 within limit: %v", err)
	}

	_, err = NewParser([]byte("x = (((1)))"), WithMaxDepth(2)).Parse(t.Context())
	if !errors.Is(err, ErrMaxDepthExceeded) {
		t.Fatalf("expected ErrMaxDepthExceeded, got %v", err)
	}

	_, err = NewParser([]byte(strings.Repeat("(", 1000)), WithMaxDepth(0)).Parse(t.Context())
	if err != nil {
		t.Fatalf("unbounded depth: %v", err)
	}
}

func TestParse_SyntaxErrorAborts(t *testing.T) {
	_, err := NewParser([]byte("a = (1 2\n b = 1..2)")).Parse(t.Context())
	if !IsSyntaxError(err) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}

func TestParse_RoundTrip(t *testing.T) {
	inputs := []string{
		`foo = 1`,
		`[s] = (bar = "hi\n" baz = -2.5)`,
		`f = $(add ! (A = x B = 1)) [t.u] = @(v = (1 2 (3))) [w] = %(z = null)`,
		`xs = (true false "q\"q") n = [a.b]`,
	}

	for _, in := range inputs {
		root, err := NewParser([]byte(in)).Parse(t.Context())
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}

		again, err := NewParser([]byte(root.String())).Parse(t.Context())
		if err != nil {
			t.Fatalf("reparse %q: %v", root.String(), err)
		}

		if toks := again.Tokens(); len(toks) != 1 || !toks[0].Equal(root) {
			t.Errorf("round trip of %q changed the tree: %s", in, again)
		}
	}
}

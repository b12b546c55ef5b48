package repl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/ardnew/ipml/lang"
	"github.com/ardnew/ipml/log"
)

// Config describes a REPL session.
type Config struct {
	// Preload is IPML source run before the first prompt.
	Preload string
	// CacheDir holds the history file.
	CacheDir string
	// Logger receives session and evaluation traces.
	Logger log.Logger
	// NewRoot returns a root scope with the built-in functors bound. Output
	// of the print functor must go to w.
	NewRoot func(w io.Writer) (*lang.Scope, error)
	// Options are applied to every parse.
	Options []lang.Option
}

// session owns the persistent root scope. Every line is fed into the same
// root, so bindings survive from one prompt to the next.
type session struct {
	cfg  Config
	root *lang.Scope
	out  bytes.Buffer
}

func newSession(ctx context.Context, cfg Config) (*session, error) {
	if cfg.NewRoot == nil {
		return nil, ErrNoRoot
	}

	s := &session{cfg: cfg}

	if _, err := s.load(ctx, cfg.Preload); err != nil {
		return nil, err
	}

	return s, nil
}

// reply is the outcome of one evaluation.
type reply struct {
	output string // text written by print
	result string // rendered value of the last statement, if any
}

func (s *session) context(ctx context.Context) context.Context {
	return lang.WithTraceLogger(ctx, s.cfg.Logger)
}

func (s *session) parse(ctx context.Context, src string) (lang.Token, error) {
	tok, err := lang.ParseString(ctx, src, s.cfg.Options...)
	if err == nil {
		return tok, nil
	}

	var se *lang.SyntaxError
	if errors.As(err, &se) {
		return tok, fmt.Errorf("%w\n%s", err, se.Snippet(src))
	}

	return tok, err
}

// eval feeds src into the persistent root. Statements that completed before
// an error keep their effects.
func (s *session) eval(ctx context.Context, src string) (reply, error) {
	ctx = s.context(ctx)

	tok, err := s.parse(ctx, src)
	if err != nil {
		return reply{}, err
	}

	res, err := lang.Feed(ctx, s.root, tok)

	r := reply{output: s.drain()}
	if err != nil {
		return r, err
	}

	if res != nil && res.Kind() != lang.KindNull {
		r.result = res.String()
	}

	s.cfg.Logger.TraceContext(ctx, "repl eval",
		slog.String("input", src),
		slog.String("result", r.result),
	)

	return r, nil
}

// load replaces the root with a fresh one holding the result of running src.
// The current root is kept when src fails to parse or run.
func (s *session) load(ctx context.Context, src string) (string, error) {
	ctx = s.context(ctx)

	tok, err := s.parse(ctx, src)
	if err != nil {
		return "", err
	}

	root, err := s.cfg.NewRoot(&s.out)
	if err != nil {
		return "", err
	}

	_, err = lang.Feed(ctx, root, tok)

	out := s.drain()
	if err != nil {
		return out, err
	}

	s.root = root

	return out, nil
}

func (s *session) drain() string {
	out := s.out.String()
	s.out.Reset()

	return out
}

// source renders the root's data bindings in IPML syntax.
func (s *session) source(ctx context.Context) (string, error) {
	var sb strings.Builder

	if err := s.root.Format(ctx, &sb, 2); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// member is a completion candidate.
type member struct {
	name     string
	callable bool
	scope    bool
}

// members lists the bindings of the scope at parent, or of the root when
// parent is empty. Lookups never create missing scopes.
func (s *session) members(parent string) []member {
	sc := s.root

	if parent != "" {
		var ok bool
		if sc, ok = s.root.LookupScope(lang.Path(parent)); !ok {
			return nil
		}
	}

	var list []member

	for name, c := range sc.Visible() {
		list = append(list, member{name: name, callable: c.Kind() == lang.KindFunctor})
	}

	for name := range sc.Scopes() {
		list = append(list, member{name: name, scope: true})
	}

	slices.SortStableFunc(list, func(a, b member) int {
		return strings.Compare(a.name, b.name)
	})

	return list
}

// describe renders a short listing of the root's bindings.
func (s *session) describe() string {
	var b strings.Builder

	for name, c := range s.root.Values() {
		if c.Kind() == lang.KindFunctor {
			continue
		}

		b.WriteString(fmt.Sprintf("  %s %s\n", name, hintStyle.Render(preview(c.String()))))
	}

	for name, sc := range s.root.Scopes() {
		var nv, ns int
		for range sc.Values() {
			nv++
		}

		for range sc.Scopes() {
			ns++
		}

		b.WriteString(fmt.Sprintf("  [%s] %s\n", name,
			hintStyle.Render(fmt.Sprintf("( %d values, %d scopes )", nv, ns))))
	}

	return b.String()
}

const previewWidth = 40

// preview shortens s to at most previewWidth terminal cells.
func preview(s string) string {
	return ansi.Truncate(s, previewWidth, "...")
}

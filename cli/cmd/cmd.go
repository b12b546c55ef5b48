package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ipml/lang"
	"github.com/ardnew/ipml/lang/builtin"
	"github.com/ardnew/ipml/pkg"
)

type (
	contextKey      struct{}
	parseOptionsKey struct{}
	outputKey       struct{}
	inputKey        struct{}
)

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(contextKey{}).(*kong.Context)

	return ktx
}

// WithParseOptions returns a new context.Context carrying the parser options
// applied by every command that reads IPML source.
func WithParseOptions(ctx context.Context, opts ...lang.Option) context.Context {
	return context.WithValue(ctx, parseOptionsKey{}, opts)
}

func parseOptionsFrom(ctx context.Context) []lang.Option {
	opts, _ := ctx.Value(parseOptionsKey{}).([]lang.Option)

	return opts
}

// WithOutput returns a new context.Context whose commands write their results
// to w instead of standard output.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// WithInput returns a new context.Context whose commands read the source "-"
// from r instead of standard input.
func WithInput(ctx context.Context, r io.Reader) context.Context {
	return context.WithValue(ctx, inputKey{}, r)
}

func inputFrom(ctx context.Context) io.Reader {
	if r, ok := ctx.Value(inputKey{}).(io.Reader); ok && r != nil {
		return r
	}

	return os.Stdin
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// fileKey identifies a file by device and inode so that one file reached
// through symlinks or different relative paths is read only once.
type fileKey struct {
	dev uint64
	ino uint64
}

func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	if info == nil {
		return key, false
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}

// sources is the concatenation of every named input, in order, with stdin
// read last regardless of where "-" appeared.
type sources struct {
	files []*os.File
	stdin io.Reader
}

// openSources opens each named source once. Unlike a missing configuration
// file, a missing source is an error.
func openSources(ctx context.Context, names []string) (*sources, error) {
	var (
		src  sources
		seen = make(map[fileKey]struct{})
	)

	stdin := inputFrom(ctx)

	// A named path that resolves to stdin is read as "-".
	stdinKey, hasStdinKey := fileKey{}, false
	if f, ok := stdin.(*os.File); ok {
		info, _ := f.Stat()
		stdinKey, hasStdinKey = makeFileKey(info)
	}

	for _, name := range names {
		if name == stdinSource {
			src.stdin = stdin

			continue
		}

		f, err := openUnique(name, seen)
		if err != nil {
			src.Close()

			return nil, pkg.ErrReadSource.Wrap(err)
		}

		if f != nil {
			src.files = append(src.files, f)
		}
	}

	if _, named := seen[stdinKey]; hasStdinKey && named {
		src.stdin = stdin
	}

	return &src, nil
}

// openUnique opens the file at path unless its device and inode were seen
// before, in which case it returns nil without error.
func openUnique(path string, seen map[fileKey]struct{}) (*os.File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, err
	}

	if key, ok := makeFileKey(info); ok {
		if _, dup := seen[key]; dup {
			return nil, nil
		}

		seen[key] = struct{}{}
	}

	return os.Open(resolved)
}

func (s *sources) readers() []io.Reader {
	r := make([]io.Reader, 0, len(s.files)+1)
	for _, f := range s.files {
		r = append(r, f)
	}

	if s.stdin != nil {
		r = append(r, s.stdin)
	}

	return r
}

// WriteTo implements io.WriterTo. Consecutive sources are separated by a
// newline so the last token of one file never merges with the first of the
// next.
func (s *sources) WriteTo(w io.Writer) (n int64, err error) {
	for i, r := range s.readers() {
		if i > 0 {
			m, err := io.WriteString(w, "\n")
			if n += int64(m); err != nil {
				return n, err
			}
		}

		m, err := io.Copy(w, r)
		if n += m; err != nil {
			return n, err
		}
	}

	return n, nil
}

// Close closes every opened file. Stdin is left open.
func (s *sources) Close() error {
	var errs []error

	for _, f := range s.files {
		errs = append(errs, f.Close())
	}

	s.files = nil

	return errors.Join(errs...)
}

// readSource returns the concatenated text of the named sources.
func readSource(ctx context.Context, names []string) (string, error) {
	src, err := openSources(ctx, names)
	if err != nil {
		return "", err
	}
	defer src.Close()

	var sb strings.Builder
	if _, err := src.WriteTo(&sb); err != nil {
		return "", pkg.ErrReadSource.Wrap(err)
	}

	return sb.String(), nil
}

// parse tokenizes src with the options carried by ctx. Syntax errors are
// decorated with a snippet of the offending line.
func parse(ctx context.Context, src string) (lang.Token, error) {
	tok, err := lang.ParseString(ctx, src, parseOptionsFrom(ctx)...)
	if err == nil {
		return tok, nil
	}

	var se *lang.SyntaxError
	if errors.As(err, &se) {
		return tok, ErrSyntax.
			With(slog.String("snippet", se.Snippet(src))).
			Wrap(err)
	}

	return tok, ErrSyntax.Wrap(err)
}

// NewRoot returns an empty root scope with the built-in functors bound. The
// print functor writes to the command output carried by ctx.
func NewRoot(ctx context.Context) (*lang.Scope, error) {
	root := lang.NewScope()

	err := builtin.Register(root, builtin.WithOutput(outputFrom(ctx)))
	if err != nil {
		return nil, err
	}

	return root, nil
}

// evaluate parses src and runs it in a fresh root scope. The root is returned
// even when execution fails so callers can inspect partial results.
func evaluate(ctx context.Context, src string, filter bool) (*lang.Scope, error) {
	tok, err := parse(ctx, src)
	if err != nil {
		return nil, err
	}

	root, err := NewRoot(ctx)
	if err != nil {
		return nil, err
	}

	root.SetMode(lang.Mode{Filter: filter})

	if _, err := lang.Run(ctx, root, tok); err != nil {
		return root, ErrRuntime.Wrap(err)
	}

	return root, nil
}

// Output formats understood by [writeScope].
const (
	formatNative = "native"
	formatJSON   = "json"
	formatYAML   = "yaml"
)

func writeScope(ctx context.Context, w io.Writer, s *lang.Scope, format string, indent int) error {
	var err error

	switch format {
	case formatNative, "":
		err = s.Format(ctx, w, indent)
	case formatJSON:
		err = s.FormatJSON(ctx, w, indent)
	case formatYAML:
		err = s.FormatYAML(ctx, w, indent)
	default:
		return pkg.ErrInvalidFormat.Wrapf(
			"%q (expected one of %s, %s, %s)", format, formatNative, formatJSON, formatYAML,
		)
	}

	if err != nil {
		return ErrFormat.With(slog.String("format", format)).Wrap(err)
	}

	return nil
}

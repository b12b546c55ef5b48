package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ardnew/ipml/lang"
)

// Fmt prints IPML sources in another form.
type Fmt struct {
	Tokens Tokens `cmd:"" default:"withargs" help:"Print the parsed token tree (default)."`
	JSON   JSON   `cmd:""                    help:"Run the sources and export the scope as JSON."`
	YAML   YAML   `cmd:""                    help:"Run the sources and export the scope as YAML."`
}

// Tokens prints the token tree of the parsed sources, one token per line.
type Tokens struct {
	Indent int `default:"2" help:"Indent width per nesting level." short:"i"`

	Source []string `arg:"" default:"-" help:"Source input files or '-' for stdin." name:"source" optional:""`
}

// Run executes the tokens command.
func (f *Tokens) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := readSource(ctx, f.Source)
	if err != nil {
		return err
	}

	tok, err := parse(ctx, src)
	if err != nil {
		return err
	}

	// The root block is implicit; print its statements at depth 0.
	for _, t := range tok.Tokens() {
		if err := writeToken(outputFrom(ctx), t, f.Indent, 0); err != nil {
			return ErrFormat.Wrap(err)
		}
	}

	return nil
}

func writeToken(w io.Writer, tok lang.Token, indent, depth int) error {
	pad := strings.Repeat(" ", indent*depth)

	if tok.Kind() != lang.TokenBlock {
		_, err := fmt.Fprintf(w, "%s%s %s\n", pad, tok.Kind(), tok)

		return err
	}

	head := pad + tok.Kind().String()
	if d := tok.Decorator(); d != lang.DecoratorNone {
		head += " " + d.String()
	}

	if _, err := fmt.Fprintln(w, head); err != nil {
		return err
	}

	for _, t := range tok.Tokens() {
		if err := writeToken(w, t, indent, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// export holds the flags shared by the JSON and YAML commands.
type export struct {
	Indent int  `default:"2"    help:"Indent width; 0 prints compact output." short:"i"`
	Filter bool `default:"true" help:"Drop private, functor and return values." negatable:""`

	Source []string `arg:"" default:"-" help:"Source input files or '-' for stdin." name:"source" optional:""`
}

func (e *export) run(ctx context.Context, format string) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := readSource(ctx, e.Source)
	if err != nil {
		return err
	}

	root, err := evaluate(ctx, src, e.Filter)
	if err != nil {
		return err
	}

	return writeScope(ctx, outputFrom(ctx), root, format, e.Indent)
}

// JSON runs the sources and prints the resulting scope as JSON.
type JSON struct {
	Export export `embed:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error { return j.Export.run(ctx, formatJSON) }

// YAML runs the sources and prints the resulting scope as YAML.
type YAML struct {
	Export export `embed:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error { return y.Export.run(ctx, formatYAML) }

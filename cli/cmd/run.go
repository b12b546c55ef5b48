package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/ipml/log"
)

// Run executes IPML sources in a fresh root scope and prints the result.
type Run struct {
	Format string `default:"native" enum:"native,json,yaml" help:"Output format (${enum})." short:"o"`
	Indent int    `default:"0"                              help:"Indent width; 0 prints one line for native, compact JSON, or flow YAML." short:"i"`
	Filter bool   `help:"Drop private, functor and return values from the printed scope."`

	Source []string `arg:"" default:"examples/example.ipml" help:"Source input files or '-' for stdin." name:"source" optional:""`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	src, err := readSource(ctx, r.Source)
	if err != nil {
		return err
	}

	log.DebugContext(ctx, "run",
		slog.Any("source", r.Source),
		slog.Int("bytes", len(src)),
		slog.Bool("filter", r.Filter),
	)

	root, err := evaluate(ctx, src, r.Filter)
	if err != nil {
		return err
	}

	return writeScope(ctx, outputFrom(ctx), root, r.Format, r.Indent)
}

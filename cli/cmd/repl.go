package cmd

import (
	"context"
	"io"

	"github.com/ardnew/ipml/cli/cmd/repl"
	"github.com/ardnew/ipml/lang"
	"github.com/ardnew/ipml/log"
	"github.com/ardnew/ipml/pkg"
)

// Repl starts an interactive session over a persistent root scope.
type Repl struct {
	Source []string `arg:"" help:"Source files to run before the first prompt, or '-' for stdin." name:"source" optional:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	cacheDir := pkg.CacheDir()
	if ktx := kongContextFrom(ctx); ktx != nil {
		if dir, ok := ktx.Model.Vars()[CacheIdentifier]; ok {
			cacheDir = dir
		}
	}

	var preload string

	if len(r.Source) > 0 {
		if preload, err = readSource(ctx, r.Source); err != nil {
			return err
		}
	}

	return repl.Run(ctx, repl.Config{
		Preload:  preload,
		CacheDir: cacheDir,
		Logger:   log.Default(),
		NewRoot: func(w io.Writer) (*lang.Scope, error) {
			return NewRoot(WithOutput(ctx, w))
		},
		Options: parseOptionsFrom(ctx),
	})
}

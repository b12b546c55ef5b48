package cli

import (
	"context"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ipml/cli/cmd"
	"github.com/ardnew/ipml/lang"
	"github.com/ardnew/ipml/log"
	"github.com/ardnew/ipml/pkg"
)

// CLI is the top-level command-line interface for ipml.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	MaxDepth int              `default:"${maxDepth}" help:"Maximum block nesting depth; 0 disables the limit."`
	Version  kong.VersionFlag `help:"Print version and exit."`

	Run  cmd.Run  `cmd:"" default:"withargs" help:"Run IPML sources and print the resulting scope"`
	Fmt  cmd.Fmt  `cmd:""                    help:"Print IPML sources as tokens, JSON or YAML"`
	Init cmd.Init `cmd:""                    help:"Initialize configuration file"`
	Repl cmd.Repl `cmd:""                    help:"Start an interactive session"`
}

// Run executes the ipml CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	if err := pkg.MkdirAll(); err != nil {
		return err
	}

	configFilePath := pkg.ConfigPath(cmd.ConfigScope)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"maxDepth":           strconv.Itoa(lang.DefaultMaxDepth),
		"version":            strings.TrimSpace(pkg.Version),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Boolean logger flags never pass through UnmarshalText, so apply every
	// logger flag before kong reports anything.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, configFilePath+".json"),
		kong.Configuration(resolve(ctx, cmd.ConfigScope), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	logger := log.Default()

	ctx = cmd.WithContext(ctx, ktx)
	ctx = lang.WithTraceLogger(ctx, logger)
	ctx = cmd.WithParseOptions(ctx,
		lang.WithMaxDepth(cli.MaxDepth),
		lang.WithLogger(logger),
	)

	return ktx.Run(ctx, &cli)
}

// joinSeq joins the strings of seq with commas, as kong expects of enums.
func joinSeq(seq iter.Seq[string]) string {
	return strings.Join(slices.Collect(seq), ",")
}

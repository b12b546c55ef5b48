package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ipml/lang"
	"github.com/ardnew/ipml/lang/builtin"
	"github.com/ardnew/ipml/log"
	"github.com/ardnew/ipml/pkg"
)

// resolve returns a [kong.ConfigurationLoader] for configuration files
// written in IPML.
//
// The file is run in a root scope with the built-in functors bound, so values
// may be computed. The values bound directly in the scope named by name
// become flag values; nested scopes, functors, ret and private names are
// ignored. Flag names use
// underscores in place of hyphens:
//
//	[config] = (
//	  log_level = "debug"
//	  log_pretty = false
//	  max_depth = 64
//	)
//
// Command-line flags override config file values. A configuration file that
// fails to parse or run is logged and otherwise ignored.
func resolve(ctx context.Context, name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		conf, err := loadConfig(ctx, r, name)
		if err != nil {
			log.WarnContext(ctx, "configuration ignored",
				slog.Any("error", pkg.ErrConfig.Wrap(err)),
			)

			return config{}, nil
		}

		return conf, nil
	}
}

func loadConfig(ctx context.Context, r io.Reader, name string) (config, error) {
	tok, err := lang.ParseReader(ctx, r)
	if err != nil {
		return nil, err
	}

	root := lang.NewScope()
	if err := builtin.Register(root, builtin.WithOutput(io.Discard)); err != nil {
		return nil, err
	}

	if _, err := lang.Feed(ctx, root, tok); err != nil {
		return nil, err
	}

	scope, ok := root.LookupScope([]string{name})
	if !ok {
		return config{}, nil
	}

	conf := config{}

	for key, c := range scope.Values() {
		if key == lang.Return || strings.HasPrefix(key, lang.PrivatePrefix) {
			continue
		}

		v, err := c.Get()
		if err != nil {
			return nil, err
		}

		if flag, ok := flagValue(v); ok {
			conf[key] = flag
		}
	}

	return conf, nil
}

// flagValue converts v to the form kong decodes flags from. Numbers are
// rendered as strings; lists become slices.
func flagValue(v lang.Value) (any, bool) {
	switch v.Kind() {
	case lang.KindBool:
		b, _ := v.AsBool()

		return b, true

	case lang.KindStr:
		s, _ := v.AsStr()

		return s, true

	case lang.KindInt:
		n, _ := v.AsInt()

		return strconv.FormatInt(n, 10), true

	case lang.KindFloat:
		f, _ := v.AsFloat()

		return strconv.FormatFloat(f, 'f', -1, 64), true

	case lang.KindList:
		cells, _ := v.AsList()
		items := make([]any, 0, len(cells))

		for _, c := range cells {
			item, err := c.Get()
			if err != nil {
				return nil, false
			}

			if x, ok := flagValue(item); ok {
				items = append(items, x)
			}
		}

		return items, true

	default:
		return nil, false
	}
}

// config implements [kong.Resolver] over the values of the config scope.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := r[flag.Name]; ok {
		return v, nil
	}

	if v, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return v, nil
	}

	return nil, nil
}

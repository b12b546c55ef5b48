package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ipml/lang"
	"github.com/ardnew/ipml/log"
	"github.com/ardnew/ipml/profile"
)

// defaultConfigIndent is the indent width of the generated configuration.
const defaultConfigIndent = 2

// Init writes a configuration file holding the current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		panic("internal error: kong context undefined")
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	if _, err := os.Stat(confPath); err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath), slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	root, err := configScope(ktx)
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}
	defer file.Close()

	if err := root.Format(ctx, file, defaultConfigIndent); err != nil {
		return ErrWriteConfig.With(slog.String("file", confPath)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// configScope builds a root scope whose [ConfigScope] child binds every
// visible application flag. Flag names use underscores in place of hyphens.
func configScope(ktx *kong.Context) (*lang.Scope, error) {
	conf := lang.NewScope()

	ignore := []string{"help", "version", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(ignore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		val, ok := flagValue(ktx.FlagValue(flag))
		if !ok {
			continue
		}

		name := strings.ReplaceAll(flag.Name, "-", "_")
		if err := conf.SetValue([]string{name}, lang.NewCell(val)); err != nil {
			return nil, err
		}
	}

	root := lang.NewScope()
	if err := root.LinkChild(ConfigScope, conf); err != nil {
		return nil, err
	}

	return root, nil
}

// flagValue converts a decoded flag value to an IPML value. Empty strings and
// empty slices are omitted so their defaults stay in effect.
func flagValue(v any) (lang.Value, bool) {
	switch v := v.(type) {
	case nil:
		return lang.Null(), false
	case bool:
		return lang.Bool(v), true
	case string:
		return lang.Str(v), v != ""
	case fmt.Stringer:
		s := v.String()

		return lang.Str(s), s != ""
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lang.Int(rv.Int()), true

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lang.Int(int64(rv.Uint())), true //nolint:gosec

	case reflect.Float32, reflect.Float64:
		return lang.Float(rv.Float()), true

	case reflect.String:
		return lang.Str(rv.String()), rv.Len() > 0

	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return lang.Null(), false
		}

		items := make([]lang.Value, 0, rv.Len())

		for i := range rv.Len() {
			if item, ok := flagValue(rv.Index(i).Interface()); ok {
				items = append(items, item)
			}
		}

		return lang.ListOf(items...), true

	default:
		return lang.Str(fmt.Sprint(v)), true
	}
}

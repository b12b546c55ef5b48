package builtin

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ardnew/mung"

	"github.com/ardnew/ipml/lang"
)

// platform identifies the host using Go conventions.
type platform struct {
	OS   string
	Arch string
}

func hostPlatform() platform {
	return platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return ""
	}

	return h
}

func cwd() string {
	d, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return d
}

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// mungPrefix prepends prefix to the path list subject, dropping duplicates.
func mungPrefix(subject string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(subject),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

// getenv returns environment variable V, or null when it is unset.
func (c config) getenv(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	v, err := value(call, "V")
	if err != nil {
		return nil, err
	}

	name, ok := v.AsStr()
	if !ok {
		return nil, lang.RuntimeErrorf("[getenv] Expected a string, but got %s", v.Source())
	}

	if s, ok := c.environ(name); ok {
		return cell(lang.Str(s)), nil
	}

	return null(), nil
}

// pathPrefix prepends the items of P to the path list V.
func (c config) pathPrefix(_ context.Context, call *lang.Scope) (*lang.Cell, error) {
	v, err := value(call, "V")
	if err != nil {
		return nil, err
	}

	subject, ok := v.AsStr()
	if !ok && !v.IsNull() {
		return nil, lang.RuntimeErrorf("[path_prefix] Expected a string, but got %s", v.Source())
	}

	p, err := value(call, "P")
	if err != nil {
		return nil, err
	}

	var prefix []string

	if s, ok := p.AsStr(); ok {
		prefix = append(prefix, s)
	} else if items, ok := p.AsList(); ok {
		for _, it := range items {
			iv, err := it.Get()
			if err != nil {
				return nil, err
			}

			s, ok := iv.AsStr()
			if !ok {
				return nil, lang.RuntimeErrorf(
					"[path_prefix] Expected a list of strings, but got %s", p.Source())
			}

			prefix = append(prefix, s)
		}
	} else {
		return nil, lang.RuntimeErrorf(
			"[path_prefix] Expected a string or a list of strings, but got %s", p.Source())
	}

	return cell(lang.Str(mungPrefix(subject, prefix...))), nil
}

package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format writes the local contents of s in native source syntax. Values
// precede scopes and each group is sorted by name; functor values are
// omitted. A positive indent places each entry on its own line.
func (s *Scope) Format(_ context.Context, w io.Writer, indent int) error {
	var sb strings.Builder

	s.format(&sb, indent, 0, map[*Scope]bool{})

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w)

	return err
}

// String renders s on a single line in native source syntax.
func (s *Scope) String() string {
	var sb strings.Builder

	s.format(&sb, 0, 0, map[*Scope]bool{})

	return sb.String()
}

func (s *Scope) format(sb *strings.Builder, indent, depth int, stack map[*Scope]bool) {
	stack[s] = true
	defer delete(stack, s)

	first := true
	sep := func() {
		switch {
		case indent > 0:
			if !first {
				sb.WriteByte('\n')
			}

			sb.WriteString(strings.Repeat(" ", depth*indent))
		case !first:
			sb.WriteByte(' ')
		}

		first = false
	}

	for name, c := range s.Values() {
		if c.Kind() == KindFunctor {
			continue
		}

		sep()
		sb.WriteString(name)
		sb.WriteString(" = ")
		sb.WriteString(c.peek().Source())
	}

	for name, sc := range s.Scopes() {
		sep()
		sb.WriteByte('[')
		sb.WriteString(name)
		sb.WriteString("] = (")

		switch {
		case stack[sc]:
			sb.WriteString("...")

		case indent > 0 && !sc.empty():
			sb.WriteByte('\n')
			sc.format(sb, indent, depth+1, stack)
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat(" ", depth*indent))

		default:
			sc.format(sb, 0, 0, stack)
		}

		sb.WriteByte(')')
	}
}

// empty reports whether s has nothing to render.
func (s *Scope) empty() bool {
	if len(s.scopes) > 0 {
		return false
	}

	for _, c := range s.values {
		if c.Kind() != KindFunctor {
			return false
		}
	}

	return true
}

// MarshalJSON implements json.Marshaler using [Scope.Export].
func (s *Scope) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Export())
}

// FormatJSON writes the exported contents of s as JSON.
func (s *Scope) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		data []byte
		err  error
	)

	if indent > 0 {
		data, err = json.MarshalIndent(s.Export(), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(s.Export())
	}

	if err != nil {
		return ErrExport.Wrap(err)
	}

	_, err = fmt.Fprintln(w, string(data))

	return err
}

// FormatYAML writes the exported contents of s as YAML. A non-positive
// indent selects flow style.
func (s *Scope) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	data, err := yaml.MarshalContext(ctx, s.Export(), opts...)
	if err != nil {
		return ErrExport.Wrap(err)
	}

	_, err = w.Write(data)

	return err
}

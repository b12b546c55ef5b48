package repl

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/ipml/lang"
	"github.com/ardnew/ipml/lang/builtin"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall describes the call whose argument block holds the cursor.
type functionCall struct {
	name     string   // dotted functor path
	assigned []string // argument names already bound in the block
	inCall   bool
}

func isPathRune(r rune) bool {
	return r == '.' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// detectFunctionCall reports whether the cursor is inside the argument block
// of a call such as "add!(A = 1 B".
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(cursor, len(input))

	open, depth := -1, 0

	for i := cursor; i > 0 && open < 0; {
		r, size := utf8.DecodeLastRuneInString(input[:i])
		i -= size

		switch r {
		case ')':
			depth++
		case '(':
			if depth == 0 {
				open = i
			}

			depth--
		}
	}

	if open < 0 {
		return functionCall{}
	}

	head := strings.TrimRightFunc(input[:open], unicode.IsSpace)

	head, ok := strings.CutSuffix(head, "!")
	if !ok {
		return functionCall{}
	}

	head = strings.TrimRightFunc(head, unicode.IsSpace)

	start := len(head)
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(head[:start])
		if !isPathRune(r) {
			break
		}

		start -= size
	}

	name := head[start:]
	if name == "" {
		return functionCall{}
	}

	return functionCall{
		name:     name,
		assigned: assignedNames(input[open+1 : cursor]),
		inCall:   true,
	}
}

// assignedNames returns the symbols bound with "=" at the top level of args.
func assignedNames(args string) []string {
	var (
		names []string
		depth int
		word  strings.Builder
		last  string
	)

	for _, r := range args {
		if isPathRune(r) {
			word.WriteRune(r)

			continue
		}

		if word.Len() > 0 {
			last = word.String()
			word.Reset()
		}

		switch {
		case r == '(':
			depth++
		case r == ')':
			depth--
		case depth == 0 && r == '=' && last != "":
			names = append(names, last)
		}

		if !unicode.IsSpace(r) {
			last = ""
		}
	}

	return names
}

// signature returns the argument names of the built-in functor bound at
// path, or false when path is unbound or not a built-in.
func (s *session) signature(path string) ([]string, bool) {
	c, ok := s.root.Lookup(lang.Path(path))
	if !ok {
		return nil, false
	}

	v, err := c.Get()
	if err != nil {
		return nil, false
	}

	fn, ok := v.AsFunctor()
	if !ok {
		return nil, false
	}

	return builtin.Params(fn.Name())
}

// renderSignatureHint renders "name!(A B)" with the first argument not yet
// assigned highlighted.
func renderSignatureHint(name string, params, assigned []string) string {
	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(name))
	b.WriteString(signatureStyle.Render("!("))

	current := -1

	for i, p := range params {
		if current < 0 && !slices.Contains(assigned, p) {
			current = i
		}
	}

	for i, p := range params {
		if i > 0 {
			b.WriteString(signatureStyle.Render(" "))
		}

		if i == current {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}

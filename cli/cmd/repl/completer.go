package repl

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "reset", "clear", "quit"}

// isWordBoundary reports whether r ends a completable word. Dots separate the
// segments of a path; everything else here is IPML punctuation.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', '(', ')', '[', ']',
		'=', ':', '!', '"',
		'$', '@', '%', '-':
		return true
	}

	return unicode.IsSpace(r)
}

// wordBounds returns the word under the cursor and its byte offsets in input.
// The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	for start = cursor; start > 0; {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	for end = cursor; end < len(input); {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the dotted path that precedes the word starting at
// wordStart. For "x = server.http.ho" with the word "ho" it is
// "server.http"; a word with no dotted prefix has an empty parent.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimRight(prefix, ".")
	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return prefix[pos:]
}

// computeMatches ranks the candidates for the word under the cursor. An empty
// word at the top level yields no matches so the hint line stays visible; an
// empty word after a dot lists every member of the parent scope.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	members map[string]member,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	var names []string

	if m.mode == modeCtrl {
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		names = ctrlCommands
	} else {
		parent := parentPath(input, wordStart)

		list := m.session.members(parent)
		if len(list) == 0 || (word == "" && parent == "") {
			return nil, nil, wordStart, wordEnd
		}

		members = make(map[string]member, len(list))
		names = make([]string, len(list))

		for i, mb := range list {
			members[mb.name] = mb
			names[i] = mb.name
		}

		if word == "" {
			matches = make(fuzzy.Matches, len(names))
			for i, n := range names {
				matches[i] = fuzzy.Match{Str: n, Index: i}
			}

			return matches, members, wordStart, wordEnd
		}
	}

	return fuzzy.Find(word, names), members, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// width.
func renderCandidateBar(
	matches fuzzy.Matches,
	members map[string]member,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var (
		b    strings.Builder
		used int
	)

	for i, match := range matches {
		rendered := renderCandidate(match, members[match.Str], tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		last := i == len(matches)-1
		if i > 0 && !last && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate highlights the matched runes of one candidate. Functors
// are suffixed with "!" and scopes are shown as tags.
func renderCandidate(match fuzzy.Match, mb member, selected bool) string {
	base := suggestionStyle
	highlight := lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)

	if selected {
		base = selectedStyle
		highlight = highlight.Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	if mb.scope {
		b.WriteString(base.Render("["))
	}

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	switch {
	case mb.scope:
		b.WriteString(base.Render("]"))
	case mb.callable:
		b.WriteString(base.Render("!"))
	}

	return b.String()
}

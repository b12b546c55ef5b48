package repl

import (
	"testing"

	"github.com/charmbracelet/bubbles/textinput"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_assign", "x = fo", 6, "fo", 4, 6},
		{"call_argument", "add!(A = fo", 11, "fo", 9, 11},
		{"tag", "[sr", 3, "sr", 1, 3},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"underscore", "push_ba", 7, "push_ba", 0, 7},
		{"after_decorator", "x = $(re", 8, "re", 6, 8},
		{"empty_at_boundary", "x = ", 4, "", 4, 4},
		{"empty_after_dot", "config.", 7, "", 7, 7},
		{"cursor_past_end", "ab", 9, "ab", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"partial_word", "a.b.fo", 4, "a.b"},
		{"after_assign", "x = bar.baz.", 12, "bar.baz"},
		{"call_block", "f!(bar.", 7, "bar"},
		{"tag", "[srv.", 5, "srv"},
		{"no_chain", "x = ", 4, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parentPath(tt.input, tt.wordStart); got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestComputeMatches(t *testing.T) {
	s := newTestSession(t, `[srv] = (host = "h" [http] = (port = 80))`)

	m := model{input: textinput.New(), session: s}

	tests := []struct {
		input string
		mode  inputMode
		want  string // best match, or "" for none
		count int    // expected number of matches, or -1 to skip
	}{
		{"", modeEval, "", 0},
		{"srv.", modeEval, "host", 2},
		{"srv.ht", modeEval, "http", -1},
		{"push_b", modeEval, "push_back", -1},
		{"qu", modeCtrl, "quit", 1},
		{"", modeCtrl, "", 0},
		{"nope.", modeEval, "", 0},
	}

	for _, tt := range tests {
		m.mode = tt.mode
		m.input.SetValue(tt.input)
		m.input.SetCursor(len(tt.input))

		matches, members, _, _ := m.computeMatches()

		if tt.count >= 0 && len(matches) != tt.count {
			t.Errorf("%q: expected %d matches, got %d", tt.input, tt.count, len(matches))
		}

		if tt.want == "" {
			continue
		}

		if len(matches) == 0 || matches[0].Str != tt.want {
			t.Errorf("%q: expected best match %q, got %v", tt.input, tt.want, matches)

			continue
		}

		if tt.mode == modeEval && tt.input == "srv." && !members["http"].scope {
			t.Errorf("expected http to be a scope member")
		}
	}
}

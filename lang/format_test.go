package lang

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

const formatSource = `foo = 1 bar = "x" l = (1 2.5) [s] = (a = true [n] = ()) [foo] = (z = null)`

func formatScope(t *testing.T) *Scope {
	t.Helper()

	s := newTestScope(t)
	if _, err := feedString(t, s, formatSource); err != nil {
		t.Fatalf("feed: %v", err)
	}

	return s
}

func TestScope_Format(t *testing.T) {
	s := formatScope(t)

	var buf bytes.Buffer
	if err := s.Format(t.Context(), &buf, 2); err != nil {
		t.Fatalf("Format: %v", err)
	}

	want := strings.Join([]string{
		`bar = "x"`,
		`foo = 1`,
		`l = (1 2.5)`,
		`[foo] = (`,
		`  z = null`,
		`)`,
		`[s] = (`,
		`  a = true`,
		`  [n] = ()`,
		`)`,
	}, "\n") + "\n"

	if buf.String() != want {
		t.Errorf("expected:\n%s\ngot:\n%s", want, buf.String())
	}

	line := `bar = "x" foo = 1 l = (1 2.5) [foo] = (z = null) [s] = (a = true [n] = ())`
	if got := s.String(); got != line {
		t.Errorf("expected %q, got %q", line, got)
	}
}

func TestScope_FormatRoundTrip(t *testing.T) {
	s := formatScope(t)

	var buf bytes.Buffer
	if err := s.Format(t.Context(), &buf, 4); err != nil {
		t.Fatalf("Format: %v", err)
	}

	again := NewScope()
	if _, err := feedString(t, again, buf.String()); err != nil {
		t.Fatalf("feed formatted source: %v\n%s", err, buf.String())
	}

	if !reflect.DeepEqual(again.Export(), s.Export()) {
		t.Errorf("round trip changed the scope:\n%v\n%v", again.Export(), s.Export())
	}
}

func TestScope_Export(t *testing.T) {
	got := formatScope(t).Export()

	want := map[string]any{
		"foo":   int64(1),
		"bar":   "x",
		"l":     []any{int64(1), 2.5},
		"s":     map[string]any{"a": true, "n": map[string]any{}},
		"[foo]": map[string]any{"z": nil},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestScope_FormatJSON(t *testing.T) {
	s := formatScope(t)

	var buf bytes.Buffer
	if err := s.FormatJSON(t.Context(), &buf, 0); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}

	want := `{"[foo]":{"z":null},"bar":"x","foo":1,"l":[1,2.5],"s":{"a":true,"n":{}}}` + "\n"
	if buf.String() != want {
		t.Errorf("expected %s, got %s", want, buf.String())
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}

	if string(data)+"\n" != want {
		t.Errorf("MarshalJSON disagrees with FormatJSON: %s", data)
	}
}

func TestScope_FormatYAML(t *testing.T) {
	s := formatScope(t)

	var block bytes.Buffer
	if err := s.FormatYAML(t.Context(), &block, 2); err != nil {
		t.Fatalf("FormatYAML: %v", err)
	}

	for _, want := range []string{"bar: x", "foo: 1", "  a: true"} {
		if !strings.Contains(block.String(), want) {
			t.Errorf("expected YAML to contain %q, got:\n%s", want, block.String())
		}
	}

	var flow bytes.Buffer
	if err := s.FormatYAML(t.Context(), &flow, 0); err != nil {
		t.Fatalf("FormatYAML: %v", err)
	}

	if !strings.HasPrefix(flow.String(), "{") {
		t.Errorf("expected flow style, got %s", flow.String())
	}
}

func TestScope_ExportCycle(t *testing.T) {
	root := NewScope()
	a := root.QueryScope(Path("a"))
	b := root.QueryScope(Path("b"))
	a.scopes["b"] = b
	b.scopes["a"] = a

	got := root.Export()

	ab := got["a"].(map[string]any)["b"].(map[string]any)
	if _, ok := ab["a"]; ok {
		t.Error("expected the cycle to be cut")
	}

	if s := root.String(); !strings.Contains(s, "(...)") {
		t.Errorf("expected cycle marker in %q", s)
	}
}

package pkg

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	expected := "ipml"
	if Name != expected {
		t.Errorf("Expected Name to be %q, got %q", expected, Name)
	}
}

func TestVersion(t *testing.T) {
	// Version is embedded from the VERSION file next to this package.
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); strings.TrimSpace(Version) != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version)
	}
}

func TestAuthor(t *testing.T) {
	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew" && a.Email == "andrew@ardnew.com"
	}) {
		t.Errorf("Expected Author to contain ardnew, got %v", Author)
	}

	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestErrorChain(t *testing.T) {
	inner := errors.New("boom")

	tests := []struct {
		name string
		err  Error
		want string
	}{
		{"single", MakeError(inner), "boom"},
		{"wrapf", MakeError(inner).Wrapf("read %s", "x.ipml"), "boom: read x.ipml"},
		{"sentinel", ErrInvalidFormat.Wrapf("%q", "xml"), `invalid format: "xml"`},
		{"nil skipped", MakeError(nil, inner, nil), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	if !errors.Is(MakeError(inner).Wrapf("ctx"), inner) {
		t.Error("expected wrapped chain to match inner error")
	}

	// Wrapping a sentinel must not mutate it.
	_ = ErrConfig.Wrapf("one")
	_ = ErrConfig.Wrapf("two")

	if got := ErrConfig.Error(); got != "invalid configuration" {
		t.Errorf("sentinel mutated: %q", got)
	}
}

func TestUnwrapErrors(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")

	chain := UnwrapErrors(errors.Join(a, b))
	if len(chain) != 3 || chain[0] != a || chain[1] != b {
		t.Fatalf("UnwrapErrors() = %v", chain)
	}

	if UnwrapErrors(nil) != nil {
		t.Error("UnwrapErrors(nil) should be nil")
	}
}

func TestPaths(t *testing.T) {
	if got := ConfigPath("config"); filepath.Base(got) != "config" ||
		filepath.Base(filepath.Dir(got)) != Prefix() {
		t.Errorf("ConfigPath() = %q", got)
	}

	if got := CachePath("history"); !strings.HasPrefix(got, CacheDir()) {
		t.Errorf("CachePath() = %q", got)
	}
}

func TestError_LogValue(t *testing.T) {
	v := ErrReadSource.Wrap(errors.New("no such file")).LogValue()

	attrs := v.Group()
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attrs, got %v", attrs)
	}

	if attrs[0].Value.String() != "failed to read source" ||
		attrs[1].Value.String() != "no such file" {
		t.Errorf("unexpected group %v", attrs)
	}
}

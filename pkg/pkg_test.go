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
	expected := "klisp"
	if Name != expected {
		t.Errorf("Expected Name to be %q, got %q", expected, Name)
	}
}

func TestVersion(t *testing.T) {
	// Tests run in the package directory, next to the embedded file.
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("Failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); strings.TrimSpace(Version) != content {
		t.Errorf("Expected Version to be %q, got %q", content, Version)
	}
}

func TestAuthor(t *testing.T) {
	if len(Author) == 0 {
		t.Fatal("Expected Author to have at least one entry")
	}

	if !slices.ContainsFunc(Author, func(a AuthorInfo) bool {
		return a.Name == "ardnew" && a.Email == "andrew@ardnew.com"
	}) {
		t.Errorf("Expected Author to contain ardnew")
	}

	for i, author := range Author {
		if author.Name == "" && author.Email == "" {
			t.Errorf("Author[%d] must define at least Name or Email", i)
		}
	}
}

func TestError_Is(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrOpenStore.Wrap(cause)

	if !errors.Is(err, ErrOpenStore) {
		t.Error("wrapped sentinel does not match itself")
	}

	if !errors.Is(err, cause) {
		t.Error("wrapped cause not found")
	}

	if errors.Is(err, ErrParse) {
		t.Error("unrelated sentinel matched")
	}

	if got, want := err.Error(), "cannot open store: disk full"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestError_WrapDoesNotAlias(t *testing.T) {
	base := ErrParse.Wrap(errors.New("a"))

	x := base.Wrap(errors.New("x"))
	y := base.Wrap(errors.New("y"))

	if x.Error() != "parse error: a: x" || y.Error() != "parse error: a: y" {
		t.Errorf("x = %q, y = %q", x, y)
	}
}

func TestPrefixOf(t *testing.T) {
	tests := []struct {
		exe  string
		want string
	}{
		{"/usr/local/bin/klisp", "klisp"},
		{"/opt/klisp.exe", "klisp"},
		{"/tmp/.hidden", "hidden"},
		{"/tmp/__debug_bin3141", Name},
		{"/tmp/...", Name},
	}

	for _, tt := range tests {
		if got := prefixOf(filepath.FromSlash(tt.exe)); got != tt.want {
			t.Errorf("prefixOf(%q) = %q, want %q", tt.exe, got, tt.want)
		}
	}
}

func TestUserDir(t *testing.T) {
	const env = "KLISP_TEST_DIR"

	root := func() (string, error) { return "/root-dir", nil }

	t.Run("override", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(env, dir)

		if got := userDir(env, root, ".x"); got != dir {
			t.Errorf("userDir() = %q, want %q", got, dir)
		}
	})

	t.Run("root", func(t *testing.T) {
		t.Setenv(env, "")

		want := filepath.Join("/root-dir", Prefix())
		if got := userDir(env, root, ".x"); got != want {
			t.Errorf("userDir() = %q, want %q", got, want)
		}
	})

	t.Run("home_fallback", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv(env, "")
		t.Setenv("HOME", home)
		t.Setenv("USERPROFILE", home)

		failing := func() (string, error) { return "", errors.New("no root") }

		want := filepath.Join(home, ".x", Prefix())
		if got := userDir(env, failing, ".x"); got != want {
			t.Errorf("userDir() = %q, want %q", got, want)
		}
	})
}

func TestBanner(t *testing.T) {
	if got := Banner(); got != Name+" "+Version || strings.ContainsAny(got, "\r\n") {
		t.Errorf("Banner() = %q", got)
	}
}

func TestAuthorInfo_String(t *testing.T) {
	if got := (AuthorInfo{Name: "a", Email: "a@b"}).String(); got != "a <a@b>" {
		t.Errorf("String() = %q", got)
	}

	if got := (AuthorInfo{Name: "a"}).String(); got != "a" {
		t.Errorf("String() = %q", got)
	}
}

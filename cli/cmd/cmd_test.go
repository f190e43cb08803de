package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/klisp/pkg"
)

func writeFile(t *testing.T, dir, name, text string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestWithSourceFiles(t *testing.T) {
	if got := sourceFilesFrom(context.Background()); got != nil {
		t.Errorf("sourceFilesFrom(empty) = %q, want nil", got)
	}

	want := []string{"a.kl", "b.kl"}

	ctx := WithSourceFiles(context.Background(), want)
	if got := sourceFilesFrom(ctx); !slices.Equal(got, want) {
		t.Errorf("sourceFilesFrom() = %q, want %q", got, want)
	}
}

func TestReadSources(t *testing.T) {
	dir := t.TempDir()

	a := writeFile(t, dir, "a.kl", "(define a 1)")
	b := writeFile(t, dir, "b.kl", "(define b 2)")

	link := filepath.Join(dir, "link.kl")
	if err := os.Symlink(b, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	tests := []struct {
		name      string
		names     []string
		wantNames []string
		wantTexts []string
	}{
		{
			name:      "in_order",
			names:     []string{b, a},
			wantNames: []string{b, a},
			wantTexts: []string{"(define b 2)", "(define a 1)"},
		},
		{
			name:      "duplicates_once",
			names:     []string{a, a, b},
			wantNames: []string{a, b},
			wantTexts: []string{"(define a 1)", "(define b 2)"},
		},
		{
			name:      "symlink_is_same_file",
			names:     []string{b, link},
			wantNames: []string{b},
			wantTexts: []string{"(define b 2)"},
		},
		{
			name:      "stdin_last",
			names:     []string{stdinSource, a, stdinSource},
			wantNames: []string{a, StdinName},
			wantTexts: []string{"(define a 1)", "(define s 3)"},
		},
		{
			name: "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srcs, err := readSources(tt.names, strings.NewReader("(define s 3)"))
			if err != nil {
				t.Fatalf("readSources() error = %v", err)
			}

			var names, texts []string
			for _, s := range srcs {
				names = append(names, s.Name)
				texts = append(texts, s.Text)
			}

			if !slices.Equal(names, tt.wantNames) {
				t.Errorf("names = %q, want %q", names, tt.wantNames)
			}

			if !slices.Equal(texts, tt.wantTexts) {
				t.Errorf("texts = %q, want %q", texts, tt.wantTexts)
			}
		})
	}
}

func TestReadSources_Missing(t *testing.T) {
	_, err := readSources([]string{filepath.Join(t.TempDir(), "missing.kl")}, nil)
	if !errors.Is(err, pkg.ErrReadInput) {
		t.Errorf("readSources() error = %v, want ErrReadInput", err)
	}
}

func TestStreamsFrom_Defaults(t *testing.T) {
	std := streamsFrom(context.Background())
	if std.In != os.Stdin || std.Out != os.Stdout || std.Err != os.Stderr {
		t.Error("streamsFrom() did not default to the standard streams")
	}

	var out strings.Builder

	std = streamsFrom(WithStreams(context.Background(), Streams{Out: &out}))
	if std.Out != &out || std.In != os.Stdin {
		t.Error("streamsFrom() did not keep the given stream and defaults")
	}
}

func TestError_Is(t *testing.T) {
	err := ErrWriteConfig.Wrap(ErrFileExists)

	if !errors.Is(err, ErrWriteConfig) {
		t.Error("wrapped error does not match its sentinel")
	}

	if !errors.Is(err, ErrFileExists) {
		t.Error("wrapped error does not match its cause")
	}

	if errors.Is(err, ErrEval) {
		t.Error("wrapped error matches an unrelated sentinel")
	}

	if got, want := err.Error(), "write configuration file: file exists (use --force to overwrite)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/alecthomas/kong"
	"github.com/klauspost/readahead"

	"github.com/ardnew/klisp/pkg"
)

type contextKey struct{}

// WithContext returns a copy of ctx carrying ktx.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, _ := ctx.Value(contextKey{}).(*kong.Context)

	return ktx
}

type sourceFilesKey struct{}

// Source is the text of one input file.
type Source struct {
	Name string
	Text string
}

// StdinName names the source read from standard input.
const StdinName = "<stdin>"

// stdinSource is the argument that selects standard input.
const stdinSource = "-"

// WithSourceFiles returns a copy of ctx carrying the files given with the
// global --source flag. They are loaded into a session before the command
// runs.
func WithSourceFiles(ctx context.Context, names []string) context.Context {
	return context.WithValue(ctx, sourceFilesKey{}, names)
}

func sourceFilesFrom(ctx context.Context) []string {
	names, _ := ctx.Value(sourceFilesKey{}).([]string)

	return names
}

// readSources reads the named files in order. Duplicates are skipped, and
// every occurrence of "-" (or a path naming stdin) is replaced by a single
// stdin source placed last.
func readSources(names []string, stdin io.Reader) ([]Source, error) {
	var (
		out      []Source
		seen     []os.FileInfo
		hasStdin bool
	)

	stdinInfo, _ := os.Stdin.Stat()

	for _, name := range names {
		if name == stdinSource {
			hasStdin = true

			continue
		}

		resolved, err := filepath.EvalSymlinks(name)
		if err != nil {
			return nil, pkg.ErrReadInput.Wrap(err)
		}

		info, err := os.Stat(resolved)
		if err != nil {
			return nil, pkg.ErrReadInput.Wrap(err)
		}

		// Files are identified by device and inode, so that one file reached
		// through different paths or symlinks is read once.
		if stdinInfo != nil && stdinInfo.Mode().IsRegular() && os.SameFile(info, stdinInfo) {
			hasStdin = true

			continue
		}

		if slices.ContainsFunc(seen, func(fi os.FileInfo) bool { return os.SameFile(fi, info) }) {
			continue
		}

		seen = append(seen, info)

		text, err := readFile(resolved)
		if err != nil {
			return nil, pkg.ErrReadInput.Wrap(err)
		}

		out = append(out, Source{Name: name, Text: text})
	}

	if hasStdin {
		text, err := readAll(stdin)
		if err != nil {
			return nil, pkg.ErrReadInput.Wrap(err)
		}

		out = append(out, Source{Name: StdinName, Text: text})
	}

	return out, nil
}

func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return readAll(f)
}

func readAll(r io.Reader) (string, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)

	return string(data), err
}

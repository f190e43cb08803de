package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/klisp/cli/cmd"
	"github.com/ardnew/klisp/pkg"
)

// isolate points the configuration and cache directories into a temporary
// directory. It skips the test when the directories were resolved earlier
// in this process.
func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	t.Setenv("HOME", dir)
	t.Setenv(pkg.EnvConfigDir, filepath.Join(dir, "config"))
	t.Setenv(pkg.EnvCacheDir, filepath.Join(dir, "cache"))

	if !strings.HasPrefix(pkg.ConfigDir(), dir) || !strings.HasPrefix(pkg.CacheDir(), dir) {
		t.Skip("configuration directory is outside the test directory")
	}

	return dir
}

func TestRun(t *testing.T) {
	isolate(t)

	// The config file sets a default that the command line does not.
	conf := configPath(baseConfig + configExt)
	if err := os.MkdirAll(filepath.Dir(conf), 0o700); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(conf, []byte(`(def db ":memory:") (def max-steps 100000)`), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer

	ctx := cmd.WithStreams(t.Context(), cmd.Streams{
		In:  strings.NewReader(""),
		Out: &stdout,
		Err: &stderr,
	})

	exited := -1

	err := Run(ctx, func(code int) { exited = code }, "eval", "-e", "(+ 40 2)")
	if err != nil {
		t.Fatalf("Run() error = %v (stderr %q)", err, stderr.String())
	}

	if exited != -1 {
		t.Errorf("exit called with %d", exited)
	}

	if stdout.String() != "42\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "42\n")
	}

	if _, err := os.Stat(cachePath(baseDB)); !os.IsNotExist(err) {
		t.Errorf("database created despite :memory: (stat error %v)", err)
	}

	stdout.Reset()

	err = Run(ctx, func(int) {}, "eval", "-e", "((lambda (f) (f f)) (lambda (f) (f f)))")
	if err == nil {
		t.Error("unbounded recursion finished under max-steps")
	}

	stdout.Reset()

	if err := Run(ctx, func(int) {}, "version"); err != nil {
		t.Fatalf("version: Run() error = %v", err)
	}

	if !strings.HasPrefix(stdout.String(), pkg.Name+" ") {
		t.Errorf("version stdout = %q", stdout.String())
	}
}

package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// testContext returns a context whose commands read stdin and write to the
// returned buffers, over in-memory storage unless db is set.
func testContext(t *testing.T, stdin, db string) (context.Context, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	ctx := WithStreams(t.Context(), Streams{
		In:  strings.NewReader(stdin),
		Out: &stdout,
		Err: &stderr,
	})

	return WithOptions(ctx, Options{DB: db}), &stdout, &stderr
}

func TestEval_Run(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.kl", `(println "loading") (define base 40)`)

	tests := []struct {
		name       string
		eval       Eval
		stdin      string
		wantOut    string
		wantErrOut string
		wantErr    error
	}{
		{
			name:    "expression",
			eval:    Eval{Expr: []string{"(+ 1 2)"}},
			wantOut: "3\n",
		},
		{
			name:    "file_values_hidden",
			eval:    Eval{Files: []string{lib}},
			wantOut: "loading\n",
		},
		{
			name:    "file_values_printed",
			eval:    Eval{Files: []string{lib}, Print: true},
			wantOut: "loading\n40\n",
		},
		{
			name:    "file_then_expression",
			eval:    Eval{Files: []string{lib}, Expr: []string{"(+ base 2)"}},
			wantOut: "loading\n42\n",
		},
		{
			name:    "stdin_default",
			eval:    Eval{},
			stdin:   "(println (* 6 7))",
			wantOut: "42\n",
		},
		{
			name:       "unbound_name",
			eval:       Eval{Expr: []string{"(nope)", "(+ 1 1)"}},
			wantOut:    "2\n",
			wantErrOut: "-e#1:1:2: NameError",
			wantErr:    ErrEval,
		},
		{
			name:       "unterminated",
			eval:       Eval{Expr: []string{"(+ 1"}},
			wantErrOut: "-e#1: unterminated form",
			wantErr:    ErrEval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, stdout, stderr := testContext(t, tt.stdin, "")

			err := tt.eval.Run(ctx)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Run() error = %v, want %v", err, tt.wantErr)
			}

			if stdout.String() != tt.wantOut {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.wantOut)
			}

			if !strings.HasPrefix(stderr.String(), tt.wantErrOut) {
				t.Errorf("stderr = %q, want prefix %q", stderr.String(), tt.wantErrOut)
			}
		})
	}
}

func TestEval_Preload(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, dir, "lib.kl", "(define (double x) (* 2 x))")

	ctx, stdout, _ := testContext(t, "", "")
	ctx = WithSourceFiles(ctx, []string{lib})

	if err := (&Eval{Expr: []string{"(double 21)"}}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stdout.String() != "42\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "42\n")
	}
}

func TestEval_PreloadFailure(t *testing.T) {
	dir := t.TempDir()
	lib := writeFile(t, dir, "bad.kl", "(nope)")

	ctx, _, stderr := testContext(t, "", "")
	ctx = WithSourceFiles(ctx, []string{lib})

	err := (&Eval{Expr: []string{"1"}}).Run(ctx)
	if !errors.Is(err, ErrPreload) {
		t.Fatalf("Run() error = %v, want ErrPreload", err)
	}

	if !strings.HasPrefix(stderr.String(), lib+":1:2: ") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestEval_StoragePersists(t *testing.T) {
	db := filepath.Join(t.TempDir(), "test.db")

	ctx, _, _ := testContext(t, "", db)
	if err := (&Eval{Expr: []string{`(db-put "greeting" "hello")`}}).Run(ctx); err != nil {
		t.Fatalf("put: Run() error = %v", err)
	}

	ctx, stdout, _ := testContext(t, "", db)
	if err := (&Eval{Expr: []string{`(db-get "greeting")`}}).Run(ctx); err != nil {
		t.Fatalf("get: Run() error = %v", err)
	}

	if stdout.String() != "\"hello\"\n" {
		t.Errorf("stdout = %q, want %q", stdout.String(), "\"hello\"\n")
	}
}

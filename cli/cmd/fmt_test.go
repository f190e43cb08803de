package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ardnew/klisp/lang"
)

func format(t *testing.T, src string) string {
	t.Helper()

	forms, errs := lang.Parse(src)
	if len(errs) > 0 {
		t.Fatalf("Parse(%q) errors = %v", src, errs)
	}

	return formatSource(src, forms, 2)
}

func TestFormatSource(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"spacing", "(define   x\n   1)", "(define x 1)\n"},
		{"quote_shorthand", "(quote (1 2))", "'(1 2)\n"},
		{"atoms", `42 "s" :k`, "42\n\n\"s\"\n\n:k\n"},
		{
			"comments_kept",
			"; head\n(a  b)\n\n; mid\n(c)\n; tail\n",
			"; head\n(a b)\n\n; mid\n(c)\n\n; tail\n",
		},
		{
			"inner_comment_verbatim",
			"(list 1 ; one\n  2)",
			"(list 1 ; one\n  2)\n",
		},
		{"empty", "", ""},
		{"only_comment", "; nothing\n", "; nothing\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := format(t, tt.src); got != tt.want {
				t.Errorf("formatSource() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatSource_LongForm(t *testing.T) {
	var args []string
	for i := range 20 {
		args = append(args, fmt.Sprintf("(element-%d x)", i))
	}

	src := "(define (build x) (list " + strings.Join(args, " ") + "))"
	got := format(t, src)

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) < 2 {
		t.Fatalf("long form not broken:\n%s", got)
	}

	if lines[0] != "(define (build x)" {
		t.Errorf("first line = %q, want the define head", lines[0])
	}

	for _, l := range lines {
		if len(l) > lineWidth {
			t.Errorf("line exceeds %d columns: %q", lineWidth, l)
		}
	}

	// Reformatting keeps the same forms.
	before, _ := lang.Parse(src)
	after, errs := lang.Parse(got)

	if len(errs) > 0 || len(after) != 1 || inline(after[0]) != inline(before[0]) {
		t.Errorf("formatted text reads differently:\n%s", got)
	}

	if again := format(t, got); again != got {
		t.Errorf("formatting is not stable:\n%s\nthen\n%s", got, again)
	}
}

func TestJSON_Run(t *testing.T) {
	ctx, stdout, _ := testContext(t, `1 "two" (3 4.5) true`, "")

	cmd := &JSON{fmtInput{Indent: 2, Source: stdinSource}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var got []any
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}

	if s := fmt.Sprint(got); s != "[1 two [3 4.5] true]" {
		t.Errorf("decoded = %s", s)
	}

	if !strings.Contains(stdout.String(), "\n  1,") {
		t.Errorf("output not indented:\n%s", stdout)
	}
}

func TestYAML_Run(t *testing.T) {
	ctx, stdout, _ := testContext(t, `1 ("x" "y")`, "")

	cmd := &YAML{fmtInput{Indent: 2, Source: stdinSource}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if want := "1\n---\n- x\n- y\n"; stdout.String() != want {
		t.Errorf("output = %q, want %q", stdout.String(), want)
	}
}

func TestKlisp_RunParseError(t *testing.T) {
	ctx, stdout, stderr := testContext(t, "(define x", "")

	cmd := &Klisp{fmtInput{Indent: 2, Source: stdinSource}}

	err := cmd.Run(ctx)
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("Run() error = %v, want ErrFormat", err)
	}

	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", stdout)
	}

	if !strings.HasPrefix(stderr.String(), StdinName+":") {
		t.Errorf("stderr = %q", stderr)
	}
}

package analysis

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/store"
)

const program = `(define (square x) (* x x))
(define y (let ((z 2)) (square z)))
(define y 3)
(define list 1)
(undefined-fn 1)
(oops`

func analyze(t *testing.T, a *Analyzer, text string) *Snapshot {
	t.Helper()

	s, err := a.Analyze(t.Context(), nil, "test.kl", 1, text)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	return s
}

// offset returns the byte offset of the n-th (0-based) occurrence of sub in
// text, plus delta.
func offset(t *testing.T, text, sub string, n, delta int) int {
	t.Helper()

	base := 0

	for range n {
		i := strings.Index(text[base:], sub)
		if i < 0 {
			t.Fatalf("%q occurs fewer than %d times", sub, n+1)
		}

		base += i + len(sub)
	}

	i := strings.Index(text[base:], sub)
	if i < 0 {
		t.Fatalf("%q not found", sub)
	}

	return base + i + delta
}

func TestAnalyzer_Diagnostics(t *testing.T) {
	s := analyze(t, New(), program)

	codes := make(map[string]Diagnostic)
	for _, d := range s.Diagnostics {
		codes[d.Code] = d
	}

	for _, want := range []string{"SyntaxError", "NameError", CodeDuplicate, CodeShadow} {
		if _, ok := codes[want]; !ok {
			t.Errorf("missing %s diagnostic in %v", want, s.Diagnostics)
		}
	}

	if n := s.Count(SeverityError); n != 2 {
		t.Errorf("errors = %d, want 2: %v", n, s.Diagnostics)
	}

	if n := s.Count(SeverityWarning); n != 2 {
		t.Errorf("warnings = %d, want 2: %v", n, s.Diagnostics)
	}

	name := codes["NameError"]
	if got, want := name.Span.Start.Offset, offset(t, program, "undefined-fn", 0, 0); got != want {
		t.Errorf("NameError at %d, want %d", got, want)
	}

	dup := codes[CodeDuplicate]
	if dup.Related == nil || dup.Related.Span.Start.Offset != offset(t, program, "y", 0, 0) {
		t.Errorf("duplicate related = %+v", dup.Related)
	}

	if dup.Span.Start.Offset != offset(t, program, "y", 1, 0) {
		t.Errorf("duplicate span = %v", dup.Span)
	}
}

func TestAnalyzer_Symbols(t *testing.T) {
	s := analyze(t, New(), program)

	var names []string
	for _, d := range s.Symbols() {
		names = append(names, d.Name)
	}

	if want := []string{"square", "y", "y", "list"}; !slices.Equal(names, want) {
		t.Errorf("Symbols() = %q, want %q", names, want)
	}

	sq := s.Symbols()[0]
	if sq.Kind != KindFunction || sq.Detail != "(square x)" {
		t.Errorf("square = %+v", sq)
	}

	if y := s.Symbols()[2]; y.Detail != "3" {
		t.Errorf("second y detail = %q, want 3", y.Detail)
	}
}

func TestAnalyzer_GlobalFrame(t *testing.T) {
	a := New()
	global := a.Interpreter().Global()

	if _, err := a.Interpreter().EvalString(t.Context(), "(define shared 10)", global); err != nil {
		t.Fatal(err)
	}

	s, err := a.Analyze(t.Context(), global, "doc", 1, "(+ shared 1)")
	if err != nil {
		t.Fatal(err)
	}

	if len(s.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", s.Diagnostics)
	}

	if got := lang.Print(s.Results[0].Value); got != "11" {
		t.Errorf("result = %s, want 11", got)
	}

	d, ok := s.Definition(offset(t, s.Text, "shared", 0, 1))
	if !ok || d.Kind != KindGlobal || d.Detail != "10" {
		t.Errorf("Definition(shared) = %+v, %v", d, ok)
	}

	// Definitions in the document must not leak into the session frame.
	if _, err := a.Analyze(t.Context(), global, "doc", 2, "(define leaked 1)"); err != nil {
		t.Fatal(err)
	}

	if _, ok := global.Lookup(lang.Intern("leaked")); ok {
		t.Error("document definition visible in global frame")
	}
}

func TestAnalyzer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancelCause(t.Context())
	cause := errors.New("superseded")
	cancel(cause)

	s, err := New().Analyze(ctx, nil, "doc", 1, "(+ 1 2)")
	if s != nil || !errors.Is(err, cause) {
		t.Errorf("Analyze() = %v, %v; want nil, %v", s, err, cause)
	}
}

func TestAnalyzer_InternalError(t *testing.T) {
	in := lang.New(lang.WithBuiltins(&lang.Builtin{
		Name: "boom", MaxArgs: 0,
		Fn: func(*lang.Call, lang.List) (lang.Value, error) { panic("kaboom") },
	}))

	_, err := New(WithInterpreter(in)).Analyze(t.Context(), in.Global(), "doc", 1, "(boom)")

	var lerr *lang.Error
	if !errors.As(err, &lerr) || lerr.Kind() != lang.InternalError {
		t.Errorf("Analyze() error = %v, want InternalError", err)
	}
}

func TestAnalyzer_MaxSteps(t *testing.T) {
	s := analyze(t, New(WithMaxSteps(1000)), "(define (spin) (spin))\n(spin)\n(define after 1)")

	if len(s.Diagnostics) != 1 || s.Diagnostics[0].Code != "LimitError" {
		t.Fatalf("diagnostics = %v", s.Diagnostics)
	}

	if _, ok := s.Frame.Lookup(lang.Intern("after")); !ok {
		t.Error("forms after a runaway loop were not evaluated")
	}
}

func TestAnalyzer_StorageReadOnly(t *testing.T) {
	m := store.NewMemory()
	if err := m.Put(t.Context(), "seed", "5"); err != nil {
		t.Fatal(err)
	}

	in := lang.New(lang.WithStorage(m))
	s := analyze(t, New(WithInterpreter(in)), `(db-put "k" 1) (db-delete "seed") (db-get "seed")`)

	if len(s.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v", s.Diagnostics)
	}

	if got := lang.Print(s.Results[2].Value); got != "5" {
		t.Errorf("db-get = %s, want 5", got)
	}

	keys, _ := m.Keys(t.Context(), "")
	if !slices.Equal(keys, []string{"seed"}) {
		t.Errorf("store keys = %q, want [seed]", keys)
	}
}

func BenchmarkAnalyzer_Analyze(b *testing.B) {
	a := New()
	text := strings.Repeat(program[:strings.Index(program, "(oops")], 20)

	for b.Loop() {
		if _, err := a.Analyze(b.Context(), nil, "bench", 1, text); err != nil {
			b.Fatal(err)
		}
	}
}

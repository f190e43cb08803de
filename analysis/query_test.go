package analysis

import (
	"fmt"
	"strings"
	"testing"
)

func TestSnapshot_Definition(t *testing.T) {
	s := analyze(t, New(), program)

	tests := []struct {
		name     string
		at       int
		wantKind Kind
		wantAt   int // -1 when the definition has no location
	}{
		{
			name:     "parameter",
			at:       offset(t, program, "x", 1, 0), // (* x x)
			wantKind: KindParameter,
			wantAt:   offset(t, program, "x", 0, 0),
		},
		{
			name:     "let binding",
			at:       offset(t, program, "z", 1, 0),
			wantKind: KindVariable,
			wantAt:   offset(t, program, "z", 0, 0),
		},
		{
			name:     "document function",
			at:       offset(t, program, "square", 1, 2),
			wantKind: KindFunction,
			wantAt:   offset(t, program, "square", 0, 0),
		},
		{
			name:     "builtin",
			at:       offset(t, program, "*", 0, 0),
			wantKind: KindBuiltin,
			wantAt:   -1,
		},
		{
			name:     "special form",
			at:       offset(t, program, "let", 0, 1),
			wantKind: KindSpecial,
			wantAt:   -1,
		},
		{
			name:     "first of duplicates",
			at:       offset(t, program, "y", 1, 0),
			wantKind: KindVariable,
			wantAt:   offset(t, program, "y", 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := s.Definition(tt.at)
			if !ok {
				t.Fatalf("Definition(%d) not found", tt.at)
			}

			if d.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", d.Kind, tt.wantKind)
			}

			switch {
			case tt.wantAt < 0 && d.HasLocation():
				t.Errorf("unexpected location %v", d.Span)
			case tt.wantAt >= 0 && d.Span.Start.Offset != tt.wantAt:
				t.Errorf("definition at %d, want %d", d.Span.Start.Offset, tt.wantAt)
			}
		})
	}

	if _, ok := s.Definition(offset(t, program, "undefined-fn", 0, 0)); ok {
		t.Error("unbound symbol resolved")
	}

	if _, ok := s.Definition(offset(t, program, "3", 0, 0)); ok {
		t.Error("literal resolved as a definition")
	}
}

func TestSnapshot_Complete(t *testing.T) {
	text := "(define (square x) x)\n(define sq-root 1)\n(sq"
	s := analyze(t, New(), text)

	got := s.Complete(len(text))

	var names []string

	for _, d := range got {
		if !strings.HasPrefix(d.Name, "sq") {
			t.Errorf("completion %q lacks prefix sq", d.Name)
		}

		names = append(names, d.Name)
	}

	for _, want := range []string{"sq-root", "square"} {
		if !strings.Contains(strings.Join(names, " "), want) {
			t.Errorf("Complete() = %q, missing %q", names, want)
		}
	}
}

func TestSnapshot_CompleteLocals(t *testing.T) {
	text := "(let ((alpha 1) (alps 2)) (al"
	s := analyze(t, New(), text)

	got := s.Complete(len(text))
	if len(got) < 2 {
		t.Fatalf("Complete() = %+v", got)
	}

	if got[0].Name != "alps" || got[1].Name != "alpha" || got[0].Kind != KindVariable {
		t.Errorf("Complete() = %+v, want innermost bindings first", got[:2])
	}
}

func TestSnapshot_CompleteEmptyPrefix(t *testing.T) {
	s := analyze(t, New(), "(")

	if n, want := len(s.Complete(1)), s.Index.Len(); n != want {
		t.Errorf("Complete() returned %d names, want all %d", n, want)
	}
}

func TestSnapshot_Hover(t *testing.T) {
	s := analyze(t, New(), program)

	h, ok := s.Hover(offset(t, program, "square", 1, 0))
	if !ok || h.Detail != "(square x)" || h.Kind != KindFunction {
		t.Errorf("Hover(square) = %+v, %v", h, ok)
	}

	if h.Range.Start.Offset != offset(t, program, "square", 1, 0) {
		t.Errorf("hover range = %v", h.Range)
	}

	h, ok = s.Hover(offset(t, program, "3", 0, 0))
	if !ok || h.Kind != KindLiteral || h.Detail != "integer" {
		t.Errorf("Hover(3) = %+v, %v", h, ok)
	}

	h, ok = s.Hover(offset(t, program, "*", 0, 0))
	if !ok || h.Doc == "" {
		t.Errorf("Hover(*) = %+v, %v", h, ok)
	}

	if _, ok := s.Hover(0); ok {
		t.Error("hover on '(' returned a result")
	}
}

func TestSnapshot_Signature(t *testing.T) {
	text := "(define (add3 a b c) (+ a b c))\n(add3 1 "
	s := analyze(t, New(), text)

	d, arg, ok := s.Signature(len(text))
	if !ok || d.Name != "add3" || arg != 1 {
		t.Errorf("Signature() = %+v, %d, %v", d, arg, ok)
	}

	d, arg, ok = s.Signature(offset(t, text, "b", 1, 0))
	if !ok || d.Name != "+" || arg != 1 {
		t.Errorf("Signature(inside +) = %+v, %d, %v", d, arg, ok)
	}
}

func TestSnapshot_SymbolAt(t *testing.T) {
	s := analyze(t, New(), program)

	f, ok := s.SymbolAt(offset(t, program, "square", 0, 6))
	if sym, _ := f.Symbol(); !ok || sym.Name() != "square" {
		t.Errorf("SymbolAt(end of square) = %v, %v", f, ok)
	}

	if _, ok := s.SymbolAt(len(program) + 100); ok {
		t.Error("SymbolAt past end of text")
	}
}

func TestIndex_Prefix(t *testing.T) {
	b := newIndexBuilder()
	for _, n := range []string{"car", "cdr", "cons", "count", "apply"} {
		b.add(Definition{Name: n, Kind: KindBuiltin})
	}

	b.add(Definition{Name: "cons", Kind: KindFunction})
	x := b.build()

	if got := x.Names("co"); strings.Join(got, ",") != "cons,count" {
		t.Errorf("Names(co) = %q", got)
	}

	if got := len(x.Prefix("c")); got != 5 {
		t.Errorf("len(Prefix(c)) = %d, want 5", got)
	}

	if defs := x.Lookup("cons"); len(defs) != 2 || defs[1].Kind != KindFunction {
		t.Errorf("Lookup(cons) = %+v", defs)
	}

	if x.Len() != 5 {
		t.Errorf("Len() = %d, want 5", x.Len())
	}

	var nilIndex *Index
	if nilIndex.Lookup("car") != nil || nilIndex.Len() != 0 {
		t.Error("nil index is not empty")
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		give fmt.Stringer
		want string
	}{
		{KindVariable, "variable"},
		{KindSpecial, "special form"},
		{KindLiteral, "literal"},
		{Kind(42), "Kind(42)"},
		{SeverityError, "error"},
		{SeverityHint, "hint"},
		{Severity(0), "Severity(0)"},
	}

	for _, tt := range tests {
		if got := tt.give.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

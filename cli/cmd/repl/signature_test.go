package repl

import (
	"slices"
	"strings"
	"testing"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{"bare symbol", "greeting", 8, "", 0, false},
		{"operator being typed", "(add", 4, "", 0, false},
		{"first arg empty", "(add ", 5, "add", 0, true},
		{"first arg typed", "(add 1", 6, "add", 0, true},
		{"second arg empty", "(add 1 ", 7, "add", 1, true},
		{"second arg typed", "(add 1 2", 8, "add", 1, true},
		{"nested inner", "(add (mul 2 ", 12, "mul", 1, true},
		{"nested closed", "(add (mul 2 3) ", 15, "add", 1, true},
		{"nested closed no space", "(add (mul 2 3)", 14, "add", 0, true},
		{"string with paren", `(str "a(b" `, 11, "str", 1, true},
		{"inside string", `(str "a `, 8, "", 0, false},
		{"comment ignored", "(add ; (mul\n1 ", 14, "add", 1, true},
		{"balanced", "(add 1 2)", 9, "", 0, false},
		{"cursor mid input", "(add 1 2)", 5, "add", 0, true},
		{"list head", "((f) ", 5, "", 0, false},
		{"empty", "", 0, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)

			if got.inCall != tt.wantInCall {
				t.Fatalf("inCall = %v, want %v", got.inCall, tt.wantInCall)
			}

			if !tt.wantInCall {
				return
			}

			if got.name != tt.wantName {
				t.Errorf("name = %q, want %q", got.name, tt.wantName)
			}

			if got.argIndex != tt.wantIndex {
				t.Errorf("argIndex = %d, want %d", got.argIndex, tt.wantIndex)
			}
		})
	}
}

func TestTopLevelTokens(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"add 1 2", []string{"add", "1", "2"}},
		{"add (mul 2 3) 4", []string{"add", "(mul 2 3)", "4"}},
		{`str "a b" c`, []string{"str", `"a b"`, "c"}},
		{`str "a\"b"`, []string{"str", `"a\"b"`}},
		{"f '(1 2)", []string{"f", "'(1 2)"}},
		{"f  \t x", []string{"f", "x"}},
		{"f (g", []string{"f", "(g"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := topLevelTokens(tt.input); !slices.Equal(got, tt.want) {
				t.Errorf("topLevelTokens(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSignatureParams(t *testing.T) {
	tests := []struct {
		signature string
		want      []string
	}{
		{"(f)", nil},
		{"(f a)", []string{"a"}},
		{"(f a b)", []string{"a", "b"}},
		{"(f a & rest)", []string{"a", "& rest"}},
		{"(append & lists)", []string{"& lists"}},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.signature, func(t *testing.T) {
			if got := signatureParams(tt.signature); !slices.Equal(got, tt.want) {
				t.Errorf("signatureParams(%q) = %q, want %q", tt.signature, got, tt.want)
			}
		})
	}
}

func TestRenderSignatureHint(t *testing.T) {
	if got := renderSignatureHint("", 0); got != "" {
		t.Errorf("empty signature rendered %q", got)
	}

	got := renderSignatureHint("(f a & rest)", 5)
	for _, want := range []string{"f", "a", "& rest"} {
		if !strings.Contains(got, want) {
			t.Errorf("hint %q missing %q", got, want)
		}
	}
}

func BenchmarkDetectFunctionCall(b *testing.B) {
	input := `(define (greet name) (str "hello, " (join (list name "!") "") `

	for b.Loop() {
		detectFunctionCall(input, len(input))
	}
}

package cmd

import (
	"strings"

	"github.com/ardnew/klisp/lang"
)

// lineWidth is the column a formatted form tries not to pass.
const lineWidth = 80

// inlineArgs is how many arguments stay on the line of each special form's
// head when the form is broken across lines.
var inlineArgs = map[string]int{
	"define": 1, "def": 1,
	"lambda": 1, "lam": 1, "fn": 1,
	"let": 1, "if": 1, "when": 1, "unless": 1,
}

// formatSource reformats the top-level forms of src. Comments between
// top-level forms are kept. A form that contains a comment is copied
// unchanged, since the reader drops comments.
func formatSource(src string, forms []*lang.Form, indent int) string {
	var b strings.Builder

	prev := 0

	for i, f := range forms {
		start, end := f.Span.Start.Offset, f.Span.End.Offset

		comments := commentLines(src[prev:start])
		if i > 0 {
			b.WriteByte('\n')
		}

		for _, c := range comments {
			b.WriteString(c)
			b.WriteByte('\n')
		}

		if text := src[start:end]; strings.Contains(text, ";") {
			b.WriteString(text)
		} else {
			writeForm(&b, f, 0, indent)
		}

		b.WriteByte('\n')

		prev = end
	}

	if trailing := commentLines(src[prev:]); len(trailing) > 0 {
		if len(forms) > 0 {
			b.WriteByte('\n')
		}

		b.WriteString(strings.Join(trailing, "\n"))
		b.WriteByte('\n')
	}

	return b.String()
}

func commentLines(gap string) []string {
	var out []string

	for line := range strings.Lines(gap) {
		if line = strings.TrimSpace(line); strings.HasPrefix(line, ";") {
			out = append(out, line)
		}
	}

	return out
}

// inline renders f on one line, using the quote shorthand.
func inline(f *lang.Form) string {
	if q, ok := quoted(f); ok {
		return "'" + inline(q)
	}

	if f.Kind != lang.FormList {
		return f.String()
	}

	parts := make([]string, len(f.Items))
	for i, it := range f.Items {
		parts[i] = inline(it)
	}

	return "(" + strings.Join(parts, " ") + ")"
}

func quoted(f *lang.Form) (*lang.Form, bool) {
	head, ok := f.Head()
	if !ok || head.Name() != "quote" || len(f.Items) != 2 {
		return nil, false
	}

	return f.Items[1], true
}

// writeForm writes f starting at column col.
func writeForm(b *strings.Builder, f *lang.Form, col, indent int) {
	flat := inline(f)
	if f.Kind != lang.FormList || len(f.Items) < 2 || col+len(flat) <= lineWidth {
		b.WriteString(flat)

		return
	}

	if q, ok := quoted(f); ok {
		b.WriteByte('\'')
		writeForm(b, q, col+1, indent)

		return
	}

	b.WriteByte('(')

	keep, body := 0, col+1
	if head, ok := f.Head(); ok {
		keep, body = 1+inlineArgs[head.Name()], col+indent
	}

	keep = min(keep, len(f.Items))

	at := col + 1

	for i, it := range f.Items[:keep] {
		if i > 0 {
			b.WriteByte(' ')
			at++
		}

		writeForm(b, it, at, indent)
		at += len(inline(it))
	}

	for i, it := range f.Items[keep:] {
		if keep > 0 || i > 0 {
			b.WriteByte('\n')
			b.WriteString(strings.Repeat(" ", body))
		}

		writeForm(b, it, body, indent)
	}

	b.WriteByte(')')
}

package lang

import (
	"math"
	"strconv"
	"strings"
)

// Print renders v as klisp source. For literals, numbers, strings, chars,
// keywords, booleans, and lists and maps of them, reading the output back
// yields an equal value.
func Print(v Value) string {
	var b strings.Builder

	write(&b, v, true)

	return b.String()
}

// Display renders v for humans: strings and chars appear without quoting.
func Display(v Value) string {
	var b strings.Builder

	write(&b, v, false)

	return b.String()
}

func write(b *strings.Builder, v Value, readable bool) {
	switch v := v.(type) {
	case Int:
		b.WriteString(strconv.FormatInt(int64(v), 10))

	case Float:
		b.WriteString(formatFloat(float64(v)))

	case String:
		if readable {
			writeQuoted(b, string(v))
		} else {
			b.WriteString(string(v))
		}

	case Char:
		if !readable {
			b.WriteRune(rune(v))

			break
		}

		b.WriteByte('\\')

		switch name := charName(rune(v)); name {
		case "":
			b.WriteRune(rune(v))
		default:
			b.WriteString(name)
		}

	case Bool:
		b.WriteString(strconv.FormatBool(bool(v)))

	case Keyword:
		b.WriteByte(':')
		b.WriteString(string(v))

	case Symbol:
		b.WriteString(v.Name())

	case List:
		b.WriteByte('(')

		for i, e := range v {
			if i > 0 {
				b.WriteByte(' ')
			}

			write(b, e, readable)
		}

		b.WriteByte(')')

	case *Map:
		b.WriteString("(map")

		for _, e := range v.Entries() {
			b.WriteString(" :")
			b.WriteString(string(e.Key))
			b.WriteByte(' ')
			write(b, e.Value, readable)
		}

		b.WriteByte(')')

	case *Builtin:
		b.WriteString("#<builtin ")
		b.WriteString(v.Name)
		b.WriteByte('>')

	case *Closure:
		b.WriteString("#<lambda")

		if v.Name != "" {
			b.WriteByte(' ')
			b.WriteString(v.Name)
		}

		b.WriteByte('>')

	case *Error:
		b.WriteString("#<")
		b.WriteString(v.Error())
		b.WriteByte('>')

	case nil:
		b.WriteString("()")
	}
}

// formatFloat always includes a decimal point or exponent so the text reads
// back as a float.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	case math.IsNaN(f):
		return "NaN"
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)

	if strings.ContainsAny(s, ".e") {
		if i := strings.IndexByte(s, 'e'); i >= 0 && !strings.Contains(s[:i], ".") {
			s = s[:i] + ".0" + s[i:]
		}

		return s
	}

	return s + ".0"
}

func writeQuoted(b *strings.Builder, s string) {
	b.WriteByte('"')

	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case 0:
			b.WriteString(`\0`)
		default:
			b.WriteRune(r)
		}
	}

	b.WriteByte('"')
}

func charName(r rune) string {
	for name, c := range namedChars {
		if c == r {
			return name
		}
	}

	return ""
}

// Quote renders v as an expression that evaluates to v using only quote,
// list and map. Unlike [Print], maps and nested lists survive a round trip
// through the evaluator.
func Quote(v Value) string {
	var b strings.Builder

	writeQuote(&b, v)

	return b.String()
}

func writeQuote(b *strings.Builder, v Value) {
	switch v := v.(type) {
	case List:
		if len(v) == 0 {
			b.WriteString("()")

			return
		}

		b.WriteString("(list")

		for _, e := range v {
			b.WriteByte(' ')
			writeQuote(b, e)
		}

		b.WriteByte(')')

	case *Map:
		b.WriteString("(map")

		for _, e := range v.Entries() {
			b.WriteString(" :")
			b.WriteString(string(e.Key))
			b.WriteByte(' ')
			writeQuote(b, e.Value)
		}

		b.WriteByte(')')

	case Symbol:
		b.WriteByte('\'')
		b.WriteString(v.Name())

	default:
		write(b, v, true)
	}
}

package repl

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
)

// functionCall is the innermost list enclosing the cursor.
type functionCall struct {
	name     string // operator symbol
	argIndex int    // argument under or before the cursor, 0-based
	inCall   bool   // false outside any list or when the operator is not a symbol
}

// detectFunctionCall finds the innermost unclosed list before cursor and
// counts the arguments that precede the cursor. Parentheses inside string
// literals and comments are ignored.
func detectFunctionCall(input string, cursor int) functionCall {
	cursor = min(max(cursor, 0), len(input))
	text := input[:cursor]

	var (
		open     []int // offsets of unclosed '('
		inString bool
		escaped  bool
	)

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case c == ';':
			if nl := strings.IndexByte(text[i:], '\n'); nl >= 0 {
				i += nl
			} else {
				i = len(text)
			}
		case c == '(':
			open = append(open, i)
		case c == ')':
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}

	if len(open) == 0 || inString {
		return functionCall{}
	}

	tokens := topLevelTokens(text[open[len(open)-1]+1:])
	if len(tokens) == 0 || strings.ContainsAny(tokens[0][:1], `("'`) {
		return functionCall{}
	}

	// An argument being typed counts as the current one; after trailing
	// space the next argument is current.
	arg := len(tokens) - 1
	if !strings.HasSuffix(text, " ") && !strings.HasSuffix(text, "\t") && arg > 0 {
		arg--
	}

	if len(tokens) == 1 && !strings.HasSuffix(text, " ") {
		// Still typing the operator.
		return functionCall{}
	}

	return functionCall{name: tokens[0], argIndex: arg, inCall: true}
}

// topLevelTokens splits s into its top-level atoms and lists. Nested lists
// and strings count as one token each; an unterminated one runs to the end.
func topLevelTokens(s string) []string {
	var (
		out   []string
		start = -1
		depth int
		inStr bool
		esc   bool
	)

	flush := func(end int) {
		if start >= 0 {
			out = append(out, s[start:end])
			start = -1
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inStr {
			switch {
			case esc:
				esc = false
			case c == '\\':
				esc = true
			case c == '"':
				inStr = false
				if depth == 0 {
					flush(i + 1)
				}
			}

			continue
		}

		switch c {
		case ' ', '\t', '\n', '\r', ',':
			if depth == 0 {
				flush(i)
			}
		case '(':
			if depth == 0 && start < 0 {
				start = i
			}

			depth++
		case ')':
			depth--
			if depth == 0 {
				flush(i + 1)
			}
		case '"':
			if depth == 0 && start < 0 {
				start = i
			}

			inStr = true
		case ';':
			if depth == 0 {
				flush(i)
			}

			if nl := strings.IndexByte(s[i:], '\n'); nl >= 0 {
				i += nl - 1
			} else {
				i = len(s)
			}
		default:
			if start < 0 {
				start = i
			}
		}
	}

	flush(len(s))

	return out
}

// signatureParams returns the parameter names of a signature such as
// "(f a b & rest)", with the rest parameter written "& rest".
func signatureParams(signature string) []string {
	fields := strings.Fields(strings.Trim(signature, "()"))
	if len(fields) < 2 {
		return nil
	}

	var out []string

	for i := 1; i < len(fields); i++ {
		if fields[i] == "&" && i+1 < len(fields) {
			return append(out, "& "+fields[i+1])
		}

		out = append(out, fields[i])
	}

	return out
}

// renderSignatureHint renders a signature with the parameter at argIdx
// highlighted. A rest parameter stays highlighted for every later argument.
func renderSignatureHint(signature string, argIdx int) string {
	fields := strings.Fields(strings.Trim(signature, "()"))
	if len(fields) == 0 {
		return ""
	}

	params := signatureParams(signature)

	var b strings.Builder

	b.WriteString(signatureStyle.Render("("))
	b.WriteString(signatureNameStyle.Render(fields[0]))

	for i, p := range params {
		rest := strings.HasPrefix(p, "& ")

		b.WriteString(signatureStyle.Render(" "))

		if i == argIdx || (rest && argIdx >= i) {
			b.WriteString(currentParamStyle.Render(p))
		} else {
			b.WriteString(signatureStyle.Render(p))
		}
	}

	b.WriteString(signatureStyle.Render(")"))

	return b.String()
}

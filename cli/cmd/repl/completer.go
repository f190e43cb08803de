package repl

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/klisp/analysis"
	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/session"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "reset", "clear", "quit"}

// isWordBoundary reports whether r ends a symbol. Everything else, including
// the hyphens, question marks and operators klisp names are made of, is part
// of the word.
func isWordBoundary(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '\'', '`', '"', ';', ',':
		return true
	}

	return unicode.IsSpace(r)
}

// wordBounds returns the word at cursor and its byte offsets in input. The
// word is empty when the cursor sits between two boundaries.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// candidate is a completion with what it names.
type candidate struct {
	name     string
	callable bool
}

// evalCandidates returns the names visible in the session's global frame.
// The REPL snapshot carries the index; before the first evaluation has
// published one, the builtins and special forms are offered instead.
func evalCandidates(sess *session.Session) []candidate {
	if snap := sess.Repl().Current(); snap != nil {
		names := snap.Index.Names("")
		out := make([]candidate, 0, len(names))

		for _, n := range names {
			defs := snap.Index.Lookup(n)
			out = append(out, candidate{
				name:     n,
				callable: len(defs) > 0 && defs[0].Callable(),
			})
		}

		return out
	}

	var out []candidate

	for _, sf := range lang.SpecialForms {
		out = append(out, candidate{name: sf.Name, callable: true})
	}

	for _, b := range sess.Interpreter().Builtins() {
		out = append(out, candidate{name: b.Name, callable: true})
	}

	slices.SortFunc(out, func(a, b candidate) int { return strings.Compare(a.name, b.name) })

	return slices.CompactFunc(out, func(a, b candidate) bool { return a.name == b.name })
}

// lookupDefinition finds a callable named name in the REPL snapshot.
func lookupDefinition(sess *session.Session, name string) (analysis.Definition, bool) {
	snap := sess.Repl().Current()
	if snap == nil {
		if b, ok := sess.Interpreter().Builtin(name); ok {
			return analysis.Definition{
				Name: b.Name, Kind: analysis.KindBuiltin, Detail: b.Signature(), Doc: b.Doc,
			}, true
		}

		return analysis.Definition{}, false
	}

	for _, d := range snap.Index.Lookup(name) {
		if d.Callable() {
			return d, true
		}
	}

	return analysis.Definition{}, false
}

type candidateSource []candidate

func (s candidateSource) String(i int) string { return s[i].name }
func (s candidateSource) Len() int            { return len(s) }

// computeMatches ranks candidates against the word at the cursor. An empty
// word yields no matches so that the hint line stays visible.
func (m model) computeMatches() (matches fuzzy.Matches, candidates []candidate, wordStart, wordEnd int) {
	word, wordStart, wordEnd := wordBounds(m.input.Value(), m.input.Position())
	if word == "" {
		return nil, nil, wordStart, wordEnd
	}

	if m.mode == modeCtrl {
		for _, c := range ctrlCommands {
			candidates = append(candidates, candidate{name: c})
		}
	} else {
		candidates = evalCandidates(m.sess)
	}

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	return fuzzy.FindFrom(word, candidateSource(candidates)), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// width. The selected candidate uses the selected style while tab-cycling.
func renderCandidateBar(
	matches fuzzy.Matches,
	candidates []candidate,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(ellipsis)

	var (
		b    strings.Builder
		used int
	)

	for i, match := range matches {
		rendered := renderCandidate(match, candidates[match.Index].callable, tabActive && i == suggIdx)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += len(sep)
		}

		if i > 0 && i < len(matches)-1 && used+w+reserve > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate highlights the matched runes of a candidate. Procedures are
// marked with a trailing λ that is not part of the completion.
func renderCandidate(match fuzzy.Match, callable, selected bool) string {
	base, highlight := suggestionStyle, matchStyle
	if selected {
		base, highlight = selectedStyle, selectedMatchStyle
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	if callable {
		b.WriteString(hintStyle.Render("λ"))
	}

	return b.String()
}

// preview renders a short form of v for the list command.
func preview(v lang.Value) string {
	const limit = 40

	s := lang.Print(v)
	if utf8.RuneCountInString(s) > limit {
		r := []rune(s)

		return string(r[:limit-3]) + "..."
	}

	return s
}

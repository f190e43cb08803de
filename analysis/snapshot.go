package analysis

import (
	"slices"

	"github.com/ardnew/klisp/lang"
)

// Snapshot is the result of one analysis pass over one version of a
// document. Its diagnostics and index always come from the same pass. A
// Snapshot is immutable, so queries may run on it from any goroutine.
type Snapshot struct {
	DocumentID string
	Version    int64
	Text       string
	Hash       uint64

	Forms   []*lang.Form
	Results []lang.Result
	// Frame views the document frame and its ancestors as they were at the
	// end of the pass.
	Frame lang.FrameHandle

	Diagnostics []Diagnostic
	Index       *Index

	defs []Definition
}

// Count returns the number of diagnostics with the given severity.
func (s *Snapshot) Count(sev Severity) int {
	n := 0

	for _, d := range s.Diagnostics {
		if d.Severity == sev {
			n++
		}
	}

	return n
}

// Symbols returns the document's definitions in source order.
func (s *Snapshot) Symbols() []Definition { return slices.Clone(s.defs) }

// site is a definition found by reading the source.
type site struct {
	name     string
	target   *lang.Form
	function bool
	detail   string
}

// definitionSites finds the define forms at top level, including inside
// top-level begin forms, without evaluating anything.
func definitionSites(forms []*lang.Form) []site {
	var out []site

	for _, f := range forms {
		switch headName(f) {
		case "begin":
			out = append(out, definitionSites(f.Items[1:])...)

		case "define", "def":
			if len(f.Items) < 2 {
				continue
			}

			t := f.Items[1]

			if sym, ok := t.Symbol(); ok {
				fn := len(f.Items) > 2 && isLambda(f.Items[2])
				out = append(out, site{name: sym.Name(), target: t, function: fn})

				continue
			}

			if sym, ok := t.Head(); ok {
				out = append(out, site{
					name:     sym.Name(),
					target:   t.Items[0],
					function: true,
					detail:   t.String(),
				})
			}
		}
	}

	return out
}

// headName returns the operator name of a list, including one the reader
// could not close.
func headName(f *lang.Form) string {
	if f == nil || (f.Kind != lang.FormList && f.Kind != lang.FormError) || len(f.Items) == 0 {
		return ""
	}

	if sym, ok := f.Items[0].Symbol(); ok {
		return sym.Name()
	}

	return ""
}

func isLambda(f *lang.Form) bool {
	switch headName(f) {
	case "lambda", "lam", "fn":
		return true
	}

	return false
}

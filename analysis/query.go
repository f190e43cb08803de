package analysis

import (
	"strings"

	"github.com/ardnew/klisp/lang"
)

// Hover describes the form under a position.
type Hover struct {
	// Range is the span of the hovered form.
	Range lang.Span
	Definition
}

// path returns the forms enclosing offset, outermost first.
func (s *Snapshot) path(offset int) []*lang.Form {
	var out []*lang.Form

	for forms := s.Forms; ; {
		i := enclosing(forms, offset)
		if i < 0 {
			return out
		}

		out = append(out, forms[i])
		forms = forms[i].Items
	}
}

func enclosing(forms []*lang.Form, offset int) int {
	for i, f := range forms {
		if f.Span.Contains(offset) {
			return i
		}
	}

	return -1
}

// SymbolAt returns the symbol atom at offset.
func (s *Snapshot) SymbolAt(offset int) (*lang.Form, bool) {
	p := s.path(offset)
	if len(p) == 0 {
		return nil, false
	}

	f := p[len(p)-1]
	_, ok := f.Symbol()

	return f, ok
}

// binders returns the let bindings and parameters visible at offset,
// outermost first.
func binders(docID string, path []*lang.Form, offset int) []Definition {
	var out []Definition

	add := func(f *lang.Form, kind Kind) {
		if sym, ok := f.Symbol(); ok && sym.Name() != "&" && f.Span.Start.Offset <= offset {
			out = append(out, Definition{
				Name: sym.Name(), Kind: kind, Span: f.Span, DocumentID: docID,
			})
		}
	}

	params := func(fs []*lang.Form) {
		for _, p := range fs {
			add(p, KindParameter)
		}
	}

	for _, f := range path {
		if len(f.Items) < 2 {
			continue
		}

		switch headName(f) {
		case "let":
			if names, _, ok := lang.LetBindings(f.Items[1]); ok {
				for _, n := range names {
					add(n, KindVariable)
				}
			}

		case "lambda", "lam", "fn":
			params(f.Items[1].Items)

		case "define", "def":
			if _, ok := f.Items[1].Head(); ok {
				params(f.Items[1].Items[1:])
			}
		}
	}

	return out
}

// Definition resolves the symbol at offset: first to an enclosing let
// binding or parameter, then through the index.
func (s *Snapshot) Definition(offset int) (Definition, bool) {
	f, ok := s.SymbolAt(offset)
	if !ok {
		return Definition{}, false
	}

	return s.resolve(f, offset)
}

func (s *Snapshot) resolve(f *lang.Form, offset int) (Definition, bool) {
	sym, _ := f.Symbol()
	name := sym.Name()

	locals := binders(s.DocumentID, s.path(offset), offset)
	for i := len(locals) - 1; i >= 0; i-- {
		if locals[i].Name == name {
			return locals[i], true
		}
	}

	if defs := s.Index.Lookup(name); len(defs) > 0 {
		return defs[0], true
	}

	return Definition{}, false
}

// prefixAt returns the part of the symbol at offset that precedes offset.
func (s *Snapshot) prefixAt(offset int) string {
	f, ok := s.SymbolAt(offset)
	if !ok {
		return ""
	}

	start := f.Span.Start.Offset
	end := min(offset, len(s.Text))

	if start > end {
		return ""
	}

	return s.Text[start:end]
}

// Complete returns the names that can complete the symbol at offset, local
// bindings first and then indexed names in order. Each name appears once.
func (s *Snapshot) Complete(offset int) []Definition {
	prefix := s.prefixAt(offset)
	seen := make(map[string]struct{})

	var out []Definition

	locals := binders(s.DocumentID, s.path(offset), offset)
	for i := len(locals) - 1; i >= 0; i-- {
		d := locals[i]
		if _, dup := seen[d.Name]; dup || !strings.HasPrefix(d.Name, prefix) {
			continue
		}

		seen[d.Name] = struct{}{}
		out = append(out, d)
	}

	for _, name := range s.Index.Names(prefix) {
		if _, dup := seen[name]; dup {
			continue
		}

		seen[name] = struct{}{}
		out = append(out, s.Index.Lookup(name)[0])
	}

	return out
}

// Hover describes the atom at offset. Symbols resolve like [Snapshot.Definition];
// other literals report their type.
func (s *Snapshot) Hover(offset int) (Hover, bool) {
	p := s.path(offset)
	if len(p) == 0 {
		return Hover{}, false
	}

	f := p[len(p)-1]
	if f.Kind != lang.FormAtom {
		return Hover{}, false
	}

	if _, isSym := f.Symbol(); isSym {
		d, ok := s.resolve(f, offset)
		if !ok {
			return Hover{}, false
		}

		return Hover{Range: f.Span, Definition: d}, true
	}

	return Hover{
		Range: f.Span,
		Definition: Definition{
			Name:   lang.Print(f.Value),
			Kind:   KindLiteral,
			Detail: lang.TypeName(f.Value),
		},
	}, true
}

// Signature finds the innermost call enclosing offset whose operator is a
// known procedure or special form. It returns the operator's definition and
// the index of the argument under the cursor.
func (s *Snapshot) Signature(offset int) (Definition, int, bool) {
	p := s.path(offset)

	for i := len(p) - 1; i >= 0; i-- {
		f := p[i]
		if headName(f) == "" || offset <= f.Items[0].Span.End.Offset {
			continue
		}

		d, ok := s.resolve(f.Items[0], offset)
		if !ok || !d.Callable() {
			continue
		}

		arg := 0

		for _, it := range f.Items[1:] {
			if it.Span.End.Offset < offset {
				arg++
			}
		}

		return d, arg, true
	}

	return Definition{}, 0, false
}

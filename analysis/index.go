package analysis

//go:generate go tool stringer --linecomment --type Kind --output index_string.go

import (
	"slices"

	iradix "github.com/hashicorp/go-immutable-radix/v2"

	"github.com/ardnew/klisp/lang"
)

// Kind classifies a [Definition].
type Kind uint8

const (
	KindVariable  Kind = iota // variable
	KindFunction              // function
	KindParameter             // parameter
	KindGlobal                // global
	KindConstant              // constant
	KindBuiltin               // builtin
	KindSpecial               // special form
	KindLiteral               // literal
)

// Definition is a named binding known to the analyzer. Builtins, constants
// and special forms have no span and no document.
type Definition struct {
	Name string
	Kind Kind
	Span lang.Span
	// Detail is a signature for procedures and special forms, or the printed
	// value of a variable.
	Detail     string
	Doc        string
	DocumentID string
}

// HasLocation reports whether d points into a document.
func (d Definition) HasLocation() bool { return d.DocumentID != "" && !d.Span.IsZero() }

// Callable reports whether d names a procedure or special form with a known
// call shape.
func (d Definition) Callable() bool {
	switch d.Kind {
	case KindFunction, KindBuiltin, KindSpecial:
		return d.Detail != ""
	}

	return false
}

// Index maps names to their definitions. It is a persistent radix tree, so
// an Index never changes after it is built and prefix queries cost the
// length of the prefix plus the number of matches.
type Index struct {
	tree *iradix.Tree[[]Definition]
}

// indexBuilder accumulates definitions in a single radix transaction.
type indexBuilder struct {
	txn *iradix.Txn[[]Definition]
}

func newIndexBuilder() *indexBuilder {
	return &indexBuilder{txn: iradix.New[[]Definition]().Txn()}
}

// add appends d to the definitions of its name. Document definitions keep
// source order.
func (b *indexBuilder) add(d Definition) {
	k := []byte(d.Name)

	prev, _ := b.txn.Get(k)
	b.txn.Insert(k, append(slices.Clip(prev), d))
}

// replace drops earlier definitions of the name before adding d.
func (b *indexBuilder) replace(d Definition) {
	b.txn.Insert([]byte(d.Name), []Definition{d})
}

func (b *indexBuilder) build() *Index {
	return &Index{tree: b.txn.Commit()}
}

// Len returns the number of distinct names.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}

	return x.tree.Len()
}

// Lookup returns every definition of name, document definitions in source
// order.
func (x *Index) Lookup(name string) []Definition {
	if x == nil {
		return nil
	}

	defs, _ := x.tree.Get([]byte(name))

	return defs
}

// Prefix returns the definitions of every name starting with p, ordered by
// name.
func (x *Index) Prefix(p string) []Definition {
	if x == nil {
		return nil
	}

	var out []Definition

	x.tree.Root().WalkPrefix([]byte(p), func(_ []byte, defs []Definition) bool {
		out = append(out, defs...)

		return false
	})

	return out
}

// Names returns the distinct names starting with p, in order.
func (x *Index) Names(p string) []string {
	if x == nil {
		return nil
	}

	var out []string

	x.tree.Root().WalkPrefix([]byte(p), func(k []byte, _ []Definition) bool {
		out = append(out, string(k))

		return false
	})

	return out
}

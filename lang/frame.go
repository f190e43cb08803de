package lang

import (
	"iter"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/immutable"
)

// Binding associates a symbol with a value in a frame. Span locates the name
// in the defining form; builtins have a zero span.
type Binding struct {
	Symbol Symbol
	Value  Value
	Span   Span
	Frame  *Frame
}

// Name returns the bound symbol's name.
func (b *Binding) Name() string { return b.Symbol.Name() }

type table = immutable.Map[Symbol, *Binding]

type symbolHasher struct{}

func (symbolHasher) Hash(s Symbol) uint32 {
	// Fibonacci hashing spreads sequential ids across the trie.
	return uint32(s) * 0x9E3779B1
}

func (symbolHasher) Equal(a, b Symbol) bool { return a == b }

var emptyTable = immutable.NewMap[Symbol, *Binding](symbolHasher{})

// Frame is one scope of an environment chain.
//
// A frame's bindings are held in a persistent map. Every mutation builds a
// new map and publishes it atomically, so readers never lock and a reader
// that loaded an older map keeps seeing exactly that version. Writers to the
// same frame are serialized.
type Frame struct {
	parent *Frame
	mu     sync.Mutex
	tab    atomic.Pointer[table]
}

// NewFrame returns an empty frame whose lookups fall back to parent.
func NewFrame(parent *Frame) *Frame {
	f := &Frame{parent: parent}
	f.tab.Store(emptyTable)

	return f
}

// Child returns a new empty frame with f as its parent.
func (f *Frame) Child() *Frame { return NewFrame(f) }

// Parent returns the enclosing frame, or nil for a root frame.
func (f *Frame) Parent() *Frame { return f.parent }

// Define binds sym to v in f, replacing any binding of sym in f itself and
// shadowing bindings of sym in enclosing frames.
func (f *Frame) Define(sym Symbol, v Value, span Span) *Binding {
	b := &Binding{Symbol: sym, Value: v, Span: span, Frame: f}

	f.mu.Lock()
	f.tab.Store(f.tab.Load().Set(sym, b))
	f.mu.Unlock()

	return b
}

// Lookup finds the innermost binding of sym, searching f and then each
// enclosing frame.
func (f *Frame) Lookup(sym Symbol) (*Binding, bool) {
	for fr := f; fr != nil; fr = fr.parent {
		if b, ok := fr.tab.Load().Get(sym); ok {
			return b, true
		}
	}

	return nil, false
}

// Local finds a binding of sym in f only.
func (f *Frame) Local(sym Symbol) (*Binding, bool) {
	return f.tab.Load().Get(sym)
}

// Len returns the number of bindings in f only.
func (f *Frame) Len() int { return f.tab.Load().Len() }

// Snapshot captures the current bindings of f and all its ancestors. The
// returned handle is unaffected by later mutations of any of those frames.
func (f *Frame) Snapshot() FrameHandle {
	var h FrameHandle

	for fr := f; fr != nil; fr = fr.parent {
		h.frames = append(h.frames, fr)
		h.tabs = append(h.tabs, fr.tab.Load())
	}

	return h
}

// Rollback restores f, and any of its ancestors captured in h, to the
// bindings they held when h was taken. It reports false if h was not taken
// from f.
func (f *Frame) Rollback(h FrameHandle) bool {
	if h.Frame() != f {
		return false
	}

	for i, fr := range h.frames {
		fr.mu.Lock()
		fr.tab.Store(h.tabs[i])
		fr.mu.Unlock()
	}

	return true
}

// FrameHandle is an immutable view of an environment chain as it was when
// [Frame.Snapshot] was called. The zero handle has no bindings.
type FrameHandle struct {
	frames []*Frame
	tabs   []*table
}

// Frame returns the innermost frame the handle was taken from.
func (h FrameHandle) Frame() *Frame {
	if len(h.frames) == 0 {
		return nil
	}

	return h.frames[0]
}

// Lookup finds the innermost binding of sym as of the snapshot.
func (h FrameHandle) Lookup(sym Symbol) (*Binding, bool) {
	for _, t := range h.tabs {
		if b, ok := t.Get(sym); ok {
			return b, true
		}
	}

	return nil, false
}

// Depth returns the number of frames captured.
func (h FrameHandle) Depth() int { return len(h.tabs) }

// Local iterates the bindings of the innermost frame only.
func (h FrameHandle) Local() iter.Seq[*Binding] {
	return func(yield func(*Binding) bool) {
		if len(h.tabs) == 0 {
			return
		}

		for it := h.tabs[0].Iterator(); !it.Done(); {
			_, b, _ := it.Next()
			if !yield(b) {
				return
			}
		}
	}
}

// All iterates every visible binding, innermost first. Shadowed bindings
// are skipped.
func (h FrameHandle) All() iter.Seq[*Binding] {
	return func(yield func(*Binding) bool) {
		seen := make(map[Symbol]struct{})

		for _, t := range h.tabs {
			for it := t.Iterator(); !it.Done(); {
				sym, b, _ := it.Next()
				if _, dup := seen[sym]; dup {
					continue
				}

				seen[sym] = struct{}{}

				if !yield(b) {
					return
				}
			}
		}
	}
}

// Names returns the sorted names of visible bindings that start with prefix.
func (h FrameHandle) Names(prefix string) []string {
	var out []string

	for b := range h.All() {
		if name := b.Name(); strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}

	sort.Strings(out)

	return out
}

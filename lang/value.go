package lang

import (
	"cmp"
	"context"
	"strings"

	"github.com/benbjohnson/immutable"
)

// Value is a klisp runtime value. The set of implementations is closed:
// [Int], [Float], [String], [Char], [Bool], [Keyword], [Symbol], [List],
// *[Map], *[Builtin], *[Closure] and *[Error].
type Value interface{ value() }

type (
	Int     int64
	Float   float64
	String  string
	Char    rune
	Bool    bool
	Keyword string // name without the leading colon
	List    []Value
)

func (Int) value()     {}
func (Float) value()   {}
func (String) value()  {}
func (Char) value()    {}
func (Bool) value()    {}
func (Keyword) value() {}
func (Symbol) value()  {}
func (List) value()    {}

// Nil is the empty list. Forms with no useful result evaluate to it.
var Nil = List(nil)

// Map is an immutable map from keywords to values, ordered by key.
type Map struct {
	m *immutable.SortedMap[Keyword, Value]
}

type keywordComparer struct{}

func (keywordComparer) Compare(a, b Keyword) int { return cmp.Compare(a, b) }

// NewMap returns a map holding the given pairs. Later keys replace earlier
// ones.
func NewMap(pairs ...MapEntry) *Map {
	b := immutable.NewSortedMapBuilder[Keyword, Value](keywordComparer{})
	for _, p := range pairs {
		b.Set(p.Key, p.Value)
	}

	return &Map{m: b.Map()}
}

// MapEntry is a single key/value pair of a [Map].
type MapEntry struct {
	Key   Keyword
	Value Value
}

func (*Map) value() {}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil || m.m == nil {
		return 0
	}

	return m.m.Len()
}

// Get returns the value stored under k.
func (m *Map) Get(k Keyword) (Value, bool) {
	if m.Len() == 0 {
		return nil, false
	}

	return m.m.Get(k)
}

// Set returns a new map with k bound to v.
func (m *Map) Set(k Keyword, v Value) *Map {
	if m == nil || m.m == nil {
		return NewMap(MapEntry{k, v})
	}

	return &Map{m: m.m.Set(k, v)}
}

// Entries returns the entries in key order.
func (m *Map) Entries() []MapEntry {
	if m.Len() == 0 {
		return nil
	}

	out := make([]MapEntry, 0, m.Len())

	for it := m.m.Iterator(); !it.Done(); {
		k, v, _ := it.Next()
		out = append(out, MapEntry{k, v})
	}

	return out
}

// Builtin is a procedure implemented in Go.
type Builtin struct {
	Name string
	// Params is the parameter list shown in signatures, e.g. "(list n)".
	Params string
	Doc    string
	// MinArgs and MaxArgs bound the argument count. MaxArgs < 0 means
	// variadic.
	MinArgs, MaxArgs int
	Fn               func(c *Call, args List) (Value, error)
}

func (*Builtin) value() {}

// Signature returns the builtin's call shape, such as "(nth list n)".
func (b *Builtin) Signature() string {
	if b.Params == "" {
		return "(" + b.Name + ")"
	}

	return "(" + b.Name + " " + b.Params + ")"
}

// Closure is a procedure defined in klisp.
type Closure struct {
	Name   string
	Params []Symbol
	Rest   Symbol // zero when the closure is not variadic
	Body   []*Form
	Env    *Frame
	Span   Span
}

func (*Closure) value() {}

// Signature returns the closure's call shape, such as "(f x & more)".
func (c *Closure) Signature() string {
	name := c.Name
	if name == "" {
		name = "lambda"
	}

	var b strings.Builder

	b.WriteByte('(')
	b.WriteString(name)

	for _, p := range c.Params {
		b.WriteByte(' ')
		b.WriteString(p.Name())
	}

	if c.Rest != 0 {
		b.WriteString(" & ")
		b.WriteString(c.Rest.Name())
	}

	b.WriteByte(')')

	return b.String()
}

// Call is the context passed to a [Builtin].
type Call struct {
	Context context.Context
	Interp  *Interpreter
	Env     *Frame
	Span    Span

	m *machine
}

// Apply invokes proc with args from inside a builtin.
func (c *Call) Apply(proc Value, args ...Value) (Value, error) {
	v, err := c.m.apply(proc, args, c.Span)
	if err != nil {
		return nil, err
	}

	return v, nil
}

// Truthy reports whether v counts as true in a condition: false, empty
// collections, empty strings and numbers not greater than zero are false.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case Bool:
		return bool(v)
	case Int:
		return v > 0
	case Float:
		return v > 0
	case String:
		return v != ""
	case List:
		return len(v) > 0
	case *Map:
		return v.Len() > 0
	case nil:
		return false
	default:
		return true
	}
}

// Equal reports whether a and b are structurally equal. Numbers of different
// types are not equal; use = for numeric comparison.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case List:
		bl, ok := b.(List)
		if !ok || len(a) != len(bl) {
			return false
		}

		for i := range a {
			if !Equal(a[i], bl[i]) {
				return false
			}
		}

		return true

	case *Map:
		bm, ok := b.(*Map)
		if !ok || a.Len() != bm.Len() {
			return false
		}

		for _, e := range a.Entries() {
			v, ok := bm.Get(e.Key)
			if !ok || !Equal(e.Value, v) {
				return false
			}
		}

		return true

	case *Error:
		be, ok := b.(*Error)

		return ok && a.Is(be)

	default:
		return a == b
	}
}

// TypeName returns the klisp name of v's type.
func TypeName(v Value) string {
	switch v.(type) {
	case Int:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Char:
		return "char"
	case Bool:
		return "bool"
	case Keyword:
		return "keyword"
	case Symbol:
		return "symbol"
	case List:
		return "list"
	case *Map:
		return "map"
	case *Builtin, *Closure:
		return "procedure"
	case *Error:
		return "error"
	default:
		return "nil"
	}
}

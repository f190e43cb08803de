package lang

//go:generate go tool stringer --linecomment --type FormKind --output form_string.go

import "strings"

// FormKind tags a [Form].
type FormKind uint8

const (
	// FormAtom is a literal or symbol. Its Value is set.
	FormAtom FormKind = iota + 1 // atom
	// FormList is a parenthesized list. Its Items are set.
	FormList // list
	// FormError marks source the reader could not parse. Its Err is set and
	// Items holds whatever was parsed before the error.
	FormError // error
)

// Form is a unit of syntax produced by the reader. Forms are never modified
// after parsing, so they may be shared between goroutines and between
// closures created from the same source.
type Form struct {
	Kind  FormKind
	Value Value
	Items []*Form
	Err   *Error
	Span  Span
}

// Symbol returns the form's symbol if it is a symbol atom.
func (f *Form) Symbol() (Symbol, bool) {
	if f == nil || f.Kind != FormAtom {
		return 0, false
	}

	s, ok := f.Value.(Symbol)

	return s, ok
}

// Head returns the symbol in operator position of a list form.
func (f *Form) Head() (Symbol, bool) {
	if f == nil || f.Kind != FormList || len(f.Items) == 0 {
		return 0, false
	}

	return f.Items[0].Symbol()
}

// Walk calls fn for f and each of its descendants in source order. Walking
// stops early when fn returns false.
func (f *Form) Walk(fn func(*Form) bool) bool {
	if f == nil {
		return true
	}

	if !fn(f) {
		return false
	}

	for _, it := range f.Items {
		if !it.Walk(fn) {
			return false
		}
	}

	return true
}

// Datum converts f to the value it denotes when quoted.
func (f *Form) Datum() (Value, *Error) {
	switch f.Kind {
	case FormAtom:
		return f.Value, nil
	case FormList:
		if len(f.Items) == 0 {
			return Nil, nil
		}

		out := make(List, len(f.Items))

		for i, it := range f.Items {
			v, err := it.Datum()
			if err != nil {
				return nil, err
			}

			out[i] = v
		}

		return out, nil
	default:
		return nil, f.Err
	}
}

// String renders f as source text.
func (f *Form) String() string {
	var b strings.Builder

	f.write(&b)

	return b.String()
}

func (f *Form) write(b *strings.Builder) {
	switch f.Kind {
	case FormAtom:
		b.WriteString(Print(f.Value))
	case FormList, FormError:
		b.WriteByte('(')

		for i, it := range f.Items {
			if i > 0 {
				b.WriteByte(' ')
			}

			it.write(b)
		}

		if f.Kind == FormError {
			b.WriteString(" #<error>")
		}

		b.WriteByte(')')
	}
}

package lang

import (
	"fmt"
	"slices"
)

// variadic marks a builtin with no upper bound on its arguments.
const variadic = -1

func standardBuiltins() []*Builtin {
	return slices.Concat(
		mathBuiltins(),
		compareBuiltins(),
		predicateBuiltins(),
		listBuiltins(),
		mapBuiltins(),
		stringBuiltins(),
		codecBuiltins(),
		pathBuiltins(),
		storageBuiltins(),
	)
}

// alias returns a copy of b under another name.
func alias(name string, b *Builtin) *Builtin {
	c := *b
	c.Name = name

	return &c
}

func isNumber(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	}

	return false
}

func number(op string, v Value) (Value, *Error) {
	if !isNumber(v) {
		return nil, typeError(op, "a number", v)
	}

	return v, nil
}

func toFloat(v Value) float64 {
	switch v := v.(type) {
	case Int:
		return float64(v)
	case Float:
		return float64(v)
	}

	return 0
}

func integer(op string, v Value) (Int, *Error) {
	switch v := v.(type) {
	case Int:
		return v, nil
	case Float:
		if i := Int(v); Float(i) == v {
			return i, nil
		}
	}

	return 0, typeError(op, "an integer", v)
}

func list(op string, v Value) (List, *Error) {
	l, ok := v.(List)
	if !ok {
		return nil, typeError(op, "a list", v)
	}

	return l, nil
}

func str(op string, v Value) (string, *Error) {
	s, ok := v.(String)
	if !ok {
		return "", typeError(op, "a string", v)
	}

	return string(s), nil
}

func mapping(op string, v Value) (*Map, *Error) {
	m, ok := v.(*Map)
	if !ok {
		return nil, typeError(op, "a map", v)
	}

	return m, nil
}

// key accepts a keyword, string or symbol as a map or storage key.
func key(op string, v Value) (string, *Error) {
	switch v := v.(type) {
	case Keyword:
		return string(v), nil
	case String:
		return string(v), nil
	case Symbol:
		return v.Name(), nil
	}

	return "", typeError(op, "a keyword or string", v)
}

func procedure(op string, v Value) (Value, *Error) {
	switch v.(type) {
	case *Builtin, *Closure, Keyword:
		return v, nil
	}

	return nil, typeError(op, "a procedure", v)
}

func valueError(format string, args ...any) *Error {
	return ErrPrimitive.Detail(fmt.Sprintf(format, args...))
}

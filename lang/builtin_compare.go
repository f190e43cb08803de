package lang

import (
	"cmp"
	"reflect"
)

func compareBuiltins() []*Builtin {
	ge := compare(">=", "Reports whether the arguments are non-increasing.", func(c int) bool { return c >= 0 })
	le := compare("<=", "Reports whether the arguments are non-decreasing.", func(c int) bool { return c <= 0 })

	return []*Builtin{
		{
			Name: "=", Params: "x y & more", Doc: "Reports whether all arguments are equal. Numbers compare by value across integer and float.",
			MinArgs: 2, MaxArgs: variadic, Fn: builtinNumEqual,
		},
		compare("<", "Reports whether the arguments are strictly increasing.", func(c int) bool { return c < 0 }),
		le,
		alias("=<", le),
		compare(">", "Reports whether the arguments are strictly decreasing.", func(c int) bool { return c > 0 }),
		ge,
		alias("=>", ge),
		{
			Name: "not", Params: "x", Doc: "Reports whether x is falsy.",
			MinArgs: 1, MaxArgs: 1,
			Fn: func(_ *Call, args List) (Value, error) { return Bool(!Truthy(args[0])), nil },
		},
		{
			Name: "eq?", Params: "x y", Doc: "Reports whether x and y are the same value. Collections are the same only if they share storage.",
			MinArgs: 2, MaxArgs: 2,
			Fn: func(_ *Call, args List) (Value, error) { return Bool(identical(args[0], args[1])), nil },
		},
		{
			Name: "equal?", Params: "x y", Doc: "Reports whether x and y are structurally equal.",
			MinArgs: 2, MaxArgs: 2,
			Fn: func(_ *Call, args List) (Value, error) { return Bool(Equal(args[0], args[1])), nil },
		},
	}
}

// order compares two numbers or two strings.
func order(op string, a, b Value) (int, *Error) {
	if isNumber(a) && isNumber(b) {
		x, xi := a.(Int)
		y, yi := b.(Int)

		if xi && yi {
			return cmp.Compare(x, y), nil
		}

		return cmp.Compare(toFloat(a), toFloat(b)), nil
	}

	if x, ok := a.(String); ok {
		if y, ok := b.(String); ok {
			return cmp.Compare(x, y), nil
		}
	}

	if x, ok := a.(Char); ok {
		if y, ok := b.(Char); ok {
			return cmp.Compare(x, y), nil
		}
	}

	if isNumber(a) {
		return 0, typeError(op, "a number", b)
	}

	return 0, typeError(op, "numbers or strings", a)
}

func compare(name, doc string, ok func(int) bool) *Builtin {
	return &Builtin{
		Name: name, Params: "x y & more", Doc: doc,
		MinArgs: 2, MaxArgs: variadic,
		Fn: func(_ *Call, args List) (Value, error) {
			result := true

			for i := 1; i < len(args); i++ {
				c, err := order(name, args[i-1], args[i])
				if err != nil {
					return nil, err
				}

				result = result && ok(c)
			}

			return Bool(result), nil
		},
	}
}

func builtinNumEqual(_ *Call, args List) (Value, error) {
	for i := 1; i < len(args); i++ {
		a, b := args[i-1], args[i]

		if isNumber(a) && isNumber(b) {
			if c, _ := order("=", a, b); c != 0 {
				return Bool(false), nil
			}

			continue
		}

		if !Equal(a, b) {
			return Bool(false), nil
		}
	}

	return Bool(true), nil
}

// identical reports reference equality for collections and procedures and
// value equality for everything else.
func identical(a, b Value) bool {
	switch x := a.(type) {
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}

		return len(x) == 0 || reflect.ValueOf(x).Pointer() == reflect.ValueOf(y).Pointer()

	case *Map:
		y, ok := b.(*Map)

		return ok && (x == y || (x.Len() == 0 && y.Len() == 0))
	}

	return a == b
}

package lang

func predicateBuiltins() []*Builtin {
	return []*Builtin{
		predicate("number?", "a number", isNumber),
		predicate("integer?", "an integer", func(v Value) bool { _, ok := v.(Int); return ok }),
		predicate("float?", "a float", func(v Value) bool { _, ok := v.(Float); return ok }),
		predicate("string?", "a string", func(v Value) bool { _, ok := v.(String); return ok }),
		predicate("char?", "a character", func(v Value) bool { _, ok := v.(Char); return ok }),
		predicate("keyword?", "a keyword", func(v Value) bool { _, ok := v.(Keyword); return ok }),
		predicate("symbol?", "a symbol", func(v Value) bool { _, ok := v.(Symbol); return ok }),
		predicate("bool?", "a boolean", func(v Value) bool { _, ok := v.(Bool); return ok }),
		predicate("list?", "a list", func(v Value) bool { _, ok := v.(List); return ok }),
		predicate("map?", "a map", func(v Value) bool { _, ok := v.(*Map); return ok }),
		predicate("error?", "an error value", func(v Value) bool { _, ok := v.(*Error); return ok }),
		predicate("procedure?", "callable", func(v Value) bool {
			switch v.(type) {
			case *Builtin, *Closure:
				return true
			}

			return false
		}),
		predicate("nil?", "the empty list", func(v Value) bool { l, ok := v.(List); return ok && len(l) == 0 }),
		predicate("empty?", "an empty list, map or string", func(v Value) bool {
			switch v := v.(type) {
			case List:
				return len(v) == 0
			case *Map:
				return v.Len() == 0
			case String:
				return v == ""
			}

			return false
		}),
	}
}

func predicate(name, what string, test func(Value) bool) *Builtin {
	return &Builtin{
		Name: name, Params: "x", Doc: "Reports whether x is " + what + ".",
		MinArgs: 1, MaxArgs: 1,
		Fn: func(_ *Call, args List) (Value, error) { return Bool(test(args[0])), nil },
	}
}

package lang

func mapBuiltins() []*Builtin {
	return []*Builtin{
		{
			Name: "map", Params: "& kvs", Doc: "Returns a map of alternating keys and values, e.g. (map :a 1 :b 2).",
			MinArgs: 0, MaxArgs: variadic, Fn: builtinMap,
		},
		{
			Name: "get", Params: "m k [default]", Doc: "Returns the value of k in m, or default, or ().",
			MinArgs: 2, MaxArgs: 3, Fn: builtinGet,
		},
		{
			Name: "has?", Params: "m k", Doc: "Reports whether m contains k.",
			MinArgs: 2, MaxArgs: 2, Fn: builtinHas,
		},
		{
			Name: "assoc", Params: "m k v & kvs", Doc: "Returns m with each key bound to the following value.",
			MinArgs: 3, MaxArgs: variadic, Fn: builtinAssoc,
		},
		{
			Name: "keys", Params: "m", Doc: "Returns the keys of m in order.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinKeys,
		},
		{
			Name: "vals", Params: "m", Doc: "Returns the values of m in key order.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinVals,
		},
	}
}

func pairs(op string, kvs List) ([]MapEntry, *Error) {
	if len(kvs)%2 != 0 {
		return nil, ErrArity.Detail(op + " expects key/value pairs")
	}

	out := make([]MapEntry, 0, len(kvs)/2)

	for i := 0; i < len(kvs); i += 2 {
		k, err := key(op, kvs[i])
		if err != nil {
			return nil, err
		}

		out = append(out, MapEntry{Keyword(k), kvs[i+1]})
	}

	return out, nil
}

func builtinMap(_ *Call, args List) (Value, error) {
	kv, err := pairs("map", args)
	if err != nil {
		return nil, err
	}

	return NewMap(kv...), nil
}

func builtinGet(_ *Call, args List) (Value, error) {
	m, err := mapping("get", args[0])
	if err != nil {
		return nil, err
	}

	k, err := key("get", args[1])
	if err != nil {
		return nil, err
	}

	if v, ok := m.Get(Keyword(k)); ok {
		return v, nil
	}

	if len(args) == 3 {
		return args[2], nil
	}

	return Nil, nil
}

func builtinHas(_ *Call, args List) (Value, error) {
	m, err := mapping("has?", args[0])
	if err != nil {
		return nil, err
	}

	k, err := key("has?", args[1])
	if err != nil {
		return nil, err
	}

	_, ok := m.Get(Keyword(k))

	return Bool(ok), nil
}

func builtinAssoc(_ *Call, args List) (Value, error) {
	m, err := mapping("assoc", args[0])
	if err != nil {
		return nil, err
	}

	kv, err := pairs("assoc", args[1:])
	if err != nil {
		return nil, err
	}

	for _, e := range kv {
		m = m.Set(e.Key, e.Value)
	}

	return m, nil
}

func builtinKeys(_ *Call, args List) (Value, error) {
	m, err := mapping("keys", args[0])
	if err != nil {
		return nil, err
	}

	out := make(List, 0, m.Len())
	for _, e := range m.Entries() {
		out = append(out, e.Key)
	}

	return out, nil
}

func builtinVals(_ *Call, args List) (Value, error) {
	m, err := mapping("vals", args[0])
	if err != nil {
		return nil, err
	}

	out := make(List, 0, m.Len())
	for _, e := range m.Entries() {
		out = append(out, e.Value)
	}

	return out, nil
}

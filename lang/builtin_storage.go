package lang

import (
	"slices"
	"sync"
)

// dataFrame binds just enough to evaluate the output of [Quote].
var dataFrame = sync.OnceValue(func() *Frame {
	f := NewFrame(nil)
	f.Define(Intern("list"), &Builtin{
		Name: "list", MaxArgs: variadic,
		Fn: func(_ *Call, args List) (Value, error) { return slices.Clone(args), nil },
	}, Span{})
	f.Define(Intern("map"), &Builtin{Name: "map", MaxArgs: variadic, Fn: builtinMap}, Span{})

	return f
})

func storageBuiltins() []*Builtin {
	return []*Builtin{
		{
			Name: "db-get", Params: "key [default]", Doc: "Returns the value stored under key, or default, or ().",
			MinArgs: 1, MaxArgs: 2, Fn: builtinDBGet,
		},
		{
			Name: "db-put", Params: "key x", Doc: "Stores x under key and returns x. Procedures cannot be stored.",
			MinArgs: 2, MaxArgs: 2, Fn: builtinDBPut,
		},
		{
			Name: "db-delete", Params: "key", Doc: "Removes key from storage.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinDBDelete,
		},
		{
			Name: "db-keys", Params: "[prefix]", Doc: "Returns the stored keys that start with prefix, in order.",
			MinArgs: 0, MaxArgs: 1, Fn: builtinDBKeys,
		},
	}
}

func storage(c *Call) (Storage, *Error) {
	if c.Interp.storage == nil {
		return nil, ErrNoStorage
	}

	return c.Interp.storage, nil
}

func builtinDBGet(c *Call, args List) (Value, error) {
	s, err := storage(c)
	if err != nil {
		return nil, err
	}

	k, err := key("db-get", args[0])
	if err != nil {
		return nil, err
	}

	src, ok, serr := s.Get(c.Context, k)
	if serr != nil {
		return nil, ErrStorage.Detail("get " + k).Wrap(serr)
	}

	if !ok {
		if len(args) == 2 {
			return args[1], nil
		}

		return Nil, nil
	}

	forms, errs := Parse(src)
	if len(errs) > 0 {
		return nil, ErrStorage.Detail("corrupt value for " + k).Wrap(errs[0].At(Span{}))
	}

	if len(forms) != 1 {
		return nil, ErrStorage.Detail("corrupt value for " + k)
	}

	v, derr := c.m.eval(forms[0], dataFrame())
	if derr != nil {
		return nil, ErrStorage.Detail("corrupt value for " + k).Wrap(derr)
	}

	return v, nil
}

func builtinDBPut(c *Call, args List) (Value, error) {
	s, err := storage(c)
	if err != nil {
		return nil, err
	}

	k, err := key("db-put", args[0])
	if err != nil {
		return nil, err
	}

	if bad := unstorable(args[1]); bad != nil {
		return nil, typeError("db-put", "data", bad)
	}

	if serr := s.Put(c.Context, k, Quote(args[1])); serr != nil {
		return nil, ErrStorage.Detail("put " + k).Wrap(serr)
	}

	return args[1], nil
}

func builtinDBDelete(c *Call, args List) (Value, error) {
	s, err := storage(c)
	if err != nil {
		return nil, err
	}

	k, err := key("db-delete", args[0])
	if err != nil {
		return nil, err
	}

	if serr := s.Delete(c.Context, k); serr != nil {
		return nil, ErrStorage.Detail("delete " + k).Wrap(serr)
	}

	return Nil, nil
}

func builtinDBKeys(c *Call, args List) (Value, error) {
	s, err := storage(c)
	if err != nil {
		return nil, err
	}

	var prefix string

	if len(args) == 1 {
		if prefix, err = key("db-keys", args[0]); err != nil {
			return nil, err
		}
	}

	keys, serr := s.Keys(c.Context, prefix)
	if serr != nil {
		return nil, ErrStorage.Detail("keys").Wrap(serr)
	}

	out := make(List, len(keys))
	for i, k := range keys {
		out[i] = String(k)
	}

	return out, nil
}

// unstorable returns the first procedure or error value found in v.
func unstorable(v Value) Value {
	switch v := v.(type) {
	case *Builtin, *Closure, *Error:
		return v
	case List:
		for _, e := range v {
			if bad := unstorable(e); bad != nil {
				return bad
			}
		}
	case *Map:
		for _, e := range v.Entries() {
			if bad := unstorable(e.Value); bad != nil {
				return bad
			}
		}
	}

	return nil
}

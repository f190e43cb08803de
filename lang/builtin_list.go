package lang

import (
	"fmt"
	"slices"
	"unicode/utf8"
)

// maxRange bounds the length of a list built by range.
const maxRange = 1 << 22

func listBuiltins() []*Builtin {
	head := &Builtin{
		Name: "head", Params: "list", Doc: "Returns the first element of list, or () if it is empty.",
		MinArgs: 1, MaxArgs: 1, Fn: builtinHead,
	}
	tail := &Builtin{
		Name: "tail", Params: "list", Doc: "Returns list without its first element, or () if it is empty.",
		MinArgs: 1, MaxArgs: 1, Fn: builtinTail,
	}
	length := &Builtin{
		Name: "len", Params: "coll", Doc: "Returns the number of elements of a list or map, or characters of a string.",
		MinArgs: 1, MaxArgs: 1, Fn: builtinLen,
	}

	return []*Builtin{
		{
			Name: "list", Params: "& xs", Doc: "Returns a list of its arguments.",
			MinArgs: 0, MaxArgs: variadic,
			Fn: func(_ *Call, args List) (Value, error) { return slices.Clone(args), nil },
		},
		{
			Name: "cons", Params: "x list", Doc: "Returns list with x prepended.",
			MinArgs: 2, MaxArgs: 2, Fn: builtinCons,
		},
		head,
		alias("first", head),
		alias("car", head),
		{
			Name: "last", Params: "list", Doc: "Returns the last element of list, or () if it is empty.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinLast,
		},
		tail,
		alias("rest", tail),
		alias("cdr", tail),
		length,
		alias("count", length),
		{
			Name: "nth", Params: "list n", Doc: "Returns the element of list at zero-based index n.",
			MinArgs: 2, MaxArgs: 2, Fn: builtinNth,
		},
		{
			Name: "range", Params: "[start] end [step]", Doc: "Returns the integers from start (default 0) up to but excluding end.",
			MinArgs: 1, MaxArgs: 3, Fn: builtinRange,
		},
		{
			Name: "append", Params: "& lists", Doc: "Concatenates lists.",
			MinArgs: 0, MaxArgs: variadic, Fn: builtinAppend,
		},
		{
			Name: "reverse", Params: "list", Doc: "Returns list in reverse order.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinReverse,
		},
		{
			Name: "apply", Params: "f & args list", Doc: "Calls f with args followed by the elements of list.",
			MinArgs: 2, MaxArgs: variadic, Fn: builtinApply,
		},
		{
			Name: "fmap", Params: "f list", Doc: "Returns the results of calling f on each element of list.",
			MinArgs: 2, MaxArgs: 2, Fn: builtinFmap,
		},
		{
			Name: "filter", Params: "f list", Doc: "Returns the elements of list for which f is truthy.",
			MinArgs: 2, MaxArgs: 2, Fn: builtinFilter,
		},
		{
			Name: "reduce", Params: "init f list", Doc: "Folds list from the left: (f (f init x0) x1)...",
			MinArgs: 3, MaxArgs: 3, Fn: builtinReduce,
		},
	}
}

func builtinCons(_ *Call, args List) (Value, error) {
	l, err := list("cons", args[1])
	if err != nil {
		return nil, err
	}

	out := make(List, 0, len(l)+1)

	return append(append(out, args[0]), l...), nil
}

func builtinHead(_ *Call, args List) (Value, error) {
	l, err := list("head", args[0])
	if err != nil {
		return nil, err
	}

	if len(l) == 0 {
		return Nil, nil
	}

	return l[0], nil
}

func builtinLast(_ *Call, args List) (Value, error) {
	l, err := list("last", args[0])
	if err != nil {
		return nil, err
	}

	if len(l) == 0 {
		return Nil, nil
	}

	return l[len(l)-1], nil
}

func builtinTail(_ *Call, args List) (Value, error) {
	l, err := list("tail", args[0])
	if err != nil {
		return nil, err
	}

	if len(l) <= 1 {
		return Nil, nil
	}

	// Lists are never mutated, so the tail can share storage.
	return l[1:], nil
}

func builtinLen(_ *Call, args List) (Value, error) {
	switch v := args[0].(type) {
	case List:
		return Int(len(v)), nil
	case *Map:
		return Int(v.Len()), nil
	case String:
		return Int(utf8.RuneCountInString(string(v))), nil
	}

	return nil, typeError("len", "a list, map or string", args[0])
}

func builtinNth(_ *Call, args List) (Value, error) {
	l, err := list("nth", args[0])
	if err != nil {
		return nil, err
	}

	n, err := integer("nth", args[1])
	if err != nil {
		return nil, err
	}

	if n < 0 || int(n) >= len(l) {
		return nil, ErrIndex.Detail(fmt.Sprintf("%d not in [0, %d)", n, len(l)))
	}

	return l[n], nil
}

func builtinRange(_ *Call, args List) (Value, error) {
	bounds := make([]Int, len(args))

	for i, a := range args {
		n, err := integer("range", a)
		if err != nil {
			return nil, err
		}

		bounds[i] = n
	}

	start, end, step := Int(0), bounds[0], Int(1)

	if len(bounds) > 1 {
		start, end = bounds[0], bounds[1]
	}

	if len(bounds) > 2 {
		step = bounds[2]
	}

	if step == 0 {
		return nil, valueError("range step must not be zero")
	}

	// The count is computed on the unsigned distance, which cannot overflow
	// for any pair of int64 bounds.
	var n uint64
	if (step > 0 && end > start) || (step < 0 && end < start) {
		dist, stride := uint64(end)-uint64(start), uint64(step)
		if step < 0 {
			dist, stride = uint64(start)-uint64(end), -uint64(step)
		}

		n = dist / stride
		if dist%stride != 0 {
			n++
		}
	}

	if n > maxRange {
		return nil, valueError("range of %d elements exceeds %d", n, maxRange)
	}

	out := make(List, 0, n)
	for k := range n {
		out = append(out, start+Int(k)*step)
	}

	return out, nil
}

func builtinAppend(_ *Call, args List) (Value, error) {
	var out List

	for _, a := range args {
		l, err := list("append", a)
		if err != nil {
			return nil, err
		}

		out = append(out, l...)
	}

	if out == nil {
		return Nil, nil
	}

	return out, nil
}

func builtinReverse(_ *Call, args List) (Value, error) {
	l, err := list("reverse", args[0])
	if err != nil {
		return nil, err
	}

	out := slices.Clone(l)
	slices.Reverse(out)

	return out, nil
}

func builtinApply(c *Call, args List) (Value, error) {
	f, err := procedure("apply", args[0])
	if err != nil {
		return nil, err
	}

	spread, err := list("apply", args[len(args)-1])
	if err != nil {
		return nil, err
	}

	call := slices.Concat(args[1:len(args)-1], spread)

	return c.Apply(f, call...)
}

func builtinFmap(c *Call, args List) (Value, error) {
	f, err := procedure("fmap", args[0])
	if err != nil {
		return nil, err
	}

	l, err := list("fmap", args[1])
	if err != nil {
		return nil, err
	}

	out := make(List, len(l))

	for i, x := range l {
		v, err := c.Apply(f, x)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

func builtinFilter(c *Call, args List) (Value, error) {
	f, err := procedure("filter", args[0])
	if err != nil {
		return nil, err
	}

	l, err := list("filter", args[1])
	if err != nil {
		return nil, err
	}

	var out List

	for _, x := range l {
		v, err := c.Apply(f, x)
		if err != nil {
			return nil, err
		}

		if Truthy(v) {
			out = append(out, x)
		}
	}

	if out == nil {
		return Nil, nil
	}

	return out, nil
}

func builtinReduce(c *Call, args List) (Value, error) {
	f, err := procedure("reduce", args[1])
	if err != nil {
		return nil, err
	}

	l, err := list("reduce", args[2])
	if err != nil {
		return nil, err
	}

	acc := args[0]

	for _, x := range l {
		v, err := c.Apply(f, acc, x)
		if err != nil {
			return nil, err
		}

		acc = v
	}

	return acc, nil
}

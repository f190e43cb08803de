package lang

import (
	"fmt"
	"strings"
)

func stringBuiltins() []*Builtin {
	return []*Builtin{
		{
			Name: "str", Params: "& xs", Doc: "Concatenates the displayed form of each argument.",
			MinArgs: 0, MaxArgs: variadic,
			Fn: func(_ *Call, args List) (Value, error) { return String(join(args, "")), nil },
		},
		{
			Name: "split", Params: "s sep", Doc: "Splits s around each instance of sep.",
			MinArgs: 2, MaxArgs: 2, Fn: builtinSplit,
		},
		{
			Name: "join", Params: "sep list", Doc: "Joins the displayed elements of list with sep.",
			MinArgs: 2, MaxArgs: 2, Fn: builtinJoin,
		},
		{
			Name: "print", Params: "& xs", Doc: "Writes the arguments separated by spaces.",
			MinArgs: 0, MaxArgs: variadic,
			Fn: func(c *Call, args List) (Value, error) { return Nil, output(c, args, "") },
		},
		{
			Name: "println", Params: "& xs", Doc: "Writes the arguments separated by spaces, then a newline.",
			MinArgs: 0, MaxArgs: variadic,
			Fn: func(c *Call, args List) (Value, error) { return Nil, output(c, args, "\n") },
		},
		{
			Name: "lex", Params: "s", Doc: "Returns the token texts of s.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinLex,
		},
		{
			Name: "read", Params: "s", Doc: "Parses s and returns the datum it denotes. Several data are returned as a list.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinRead,
		},
		{
			Name: "error", Params: "msg & xs", Doc: "Returns an error value whose message is the displayed arguments.",
			MinArgs: 1, MaxArgs: variadic,
			Fn: func(_ *Call, args List) (Value, error) { return ErrUser.Detail(join(args, " ")), nil },
		},
		{
			Name: "raise", Params: "err", Doc: "Signals err. A non-error argument becomes the message of a ValueError.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinRaise,
		},
	}
}

func join(args List, sep string) string {
	part := make([]string, len(args))
	for i, a := range args {
		part[i] = Display(a)
	}

	return strings.Join(part, sep)
}

func output(c *Call, args List, end string) error {
	_, err := fmt.Fprint(c.Interp.out, join(args, " "), end)

	return err
}

func builtinSplit(_ *Call, args List) (Value, error) {
	s, err := str("split", args[0])
	if err != nil {
		return nil, err
	}

	sep, err := str("split", args[1])
	if err != nil {
		return nil, err
	}

	part := strings.Split(s, sep)
	out := make(List, len(part))

	for i, p := range part {
		out[i] = String(p)
	}

	return out, nil
}

func builtinJoin(_ *Call, args List) (Value, error) {
	sep, err := str("join", args[0])
	if err != nil {
		return nil, err
	}

	l, err := list("join", args[1])
	if err != nil {
		return nil, err
	}

	return String(join(l, sep)), nil
}

func builtinLex(_ *Call, args List) (Value, error) {
	s, err := str("lex", args[0])
	if err != nil {
		return nil, err
	}

	toks := Lex(s)
	out := make(List, len(toks))

	for i, t := range toks {
		out[i] = String(t.Text)
	}

	return out, nil
}

func builtinRead(c *Call, args List) (Value, error) {
	s, err := str("read", args[0])
	if err != nil {
		return nil, err
	}

	prog := ParseCached(c.Context, s)
	if len(prog.Errors) > 0 {
		// Positions inside s mean nothing to the caller.
		return nil, prog.Errors[0].At(Span{})
	}

	data := make(List, len(prog.Forms))

	for i, f := range prog.Forms {
		v, err := f.Datum()
		if err != nil {
			return nil, err.At(Span{})
		}

		data[i] = v
	}

	switch len(data) {
	case 0:
		return Nil, nil
	case 1:
		return data[0], nil
	default:
		return data, nil
	}
}

func builtinRaise(_ *Call, args List) (Value, error) {
	if e, ok := args[0].(*Error); ok {
		return nil, e
	}

	return nil, ErrUser.Detail(Display(args[0]))
}

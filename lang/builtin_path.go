package lang

import (
	"os"
	"path/filepath"

	"github.com/ardnew/mung"
)

func pathBuiltins() []*Builtin {
	return []*Builtin{
		{
			Name: "path-prefix", Params: "list & dirs", Doc: "Prepends dirs to a PATH-style list, removing duplicates.",
			MinArgs: 1, MaxArgs: variadic, Fn: builtinPathPrefix,
		},
		{
			Name: "path-prefix-if", Params: "pred list & dirs", Doc: "Like path-prefix, keeping only entries for which pred is truthy.",
			MinArgs: 2, MaxArgs: variadic, Fn: builtinPathPrefixIf,
		},
		{
			Name: "path-join", Params: "& elems", Doc: "Joins path elements with the OS separator.",
			MinArgs: 0, MaxArgs: variadic, Fn: builtinPathJoin,
		},
		{
			Name: "path-abs", Params: "path", Doc: "Returns an absolute form of path.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinPathAbs,
		},
		{
			Name: "file-exists?", Params: "path", Doc: "Reports whether path exists.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinFileExists,
		},
		{
			Name: "getenv", Params: "name [default]", Doc: "Returns the environment variable name, or default, or ().",
			MinArgs: 1, MaxArgs: 2, Fn: builtinGetenv,
		},
	}
}

func stringArgs(op string, args List) ([]string, *Error) {
	out := make([]string, len(args))

	for i, a := range args {
		s, err := str(op, a)
		if err != nil {
			return nil, err
		}

		out[i] = s
	}

	return out, nil
}

func mungPrefix(subject string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(subject),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

func mungPrefixIf(subject string, keep func(string) bool, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(subject),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(keep),
	).String()
}

func builtinPathPrefix(_ *Call, args List) (Value, error) {
	items, err := stringArgs("path-prefix", args)
	if err != nil {
		return nil, err
	}

	return String(mungPrefix(items[0], items[1:]...)), nil
}

func builtinPathPrefixIf(c *Call, args List) (Value, error) {
	pred, err := procedure("path-prefix-if", args[0])
	if err != nil {
		return nil, err
	}

	items, err := stringArgs("path-prefix-if", args[1:])
	if err != nil {
		return nil, err
	}

	var failed error

	keep := func(s string) bool {
		if failed != nil {
			return false
		}

		v, err := c.Apply(pred, String(s))
		if err != nil {
			failed = err

			return false
		}

		return Truthy(v)
	}

	out := mungPrefixIf(items[0], keep, items[1:]...)
	if failed != nil {
		return nil, failed
	}

	return String(out), nil
}

func builtinPathJoin(_ *Call, args List) (Value, error) {
	items, err := stringArgs("path-join", args)
	if err != nil {
		return nil, err
	}

	return String(filepath.Join(items...)), nil
}

func builtinPathAbs(_ *Call, args List) (Value, error) {
	p, err := str("path-abs", args[0])
	if err != nil {
		return nil, err
	}

	abs, aerr := filepath.Abs(p)
	if aerr != nil {
		return nil, aerr
	}

	return String(abs), nil
}

func builtinFileExists(_ *Call, args List) (Value, error) {
	p, err := str("file-exists?", args[0])
	if err != nil {
		return nil, err
	}

	_, serr := os.Stat(p)

	return Bool(!os.IsNotExist(serr)), nil
}

func builtinGetenv(_ *Call, args List) (Value, error) {
	name, err := str("getenv", args[0])
	if err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv(name); ok {
		return String(v), nil
	}

	if len(args) == 2 {
		return args[1], nil
	}

	return Nil, nil
}

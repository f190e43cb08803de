package lang

import (
	"strconv"

	"github.com/expr-lang/expr"
	"github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

func codecBuiltins() []*Builtin {
	return []*Builtin{
		{
			Name: "json", Params: "x", Doc: "Encodes x as a JSON string. Map keys lose their colon.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinJSON,
		},
		{
			Name: "json-parse", Params: "s", Doc: "Decodes the JSON document s. Objects become maps with keyword keys.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinJSONParse,
		},
		{
			Name: "json-get", Params: "s path [default]", Doc: "Returns the value at a GJSON path of the JSON document s.",
			MinArgs: 2, MaxArgs: 3, Fn: builtinJSONGet,
		},
		{
			Name: "json-set", Params: "s path x", Doc: "Returns the JSON document s with x stored at path.",
			MinArgs: 3, MaxArgs: 3, Fn: builtinJSONSet,
		},
		{
			Name: "yaml", Params: "x", Doc: "Encodes x as a YAML string.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinYAML,
		},
		{
			Name: "expr", Params: "src [env]", Doc: "Evaluates an expr-lang expression. Keys of the env map are visible as variables.",
			MinArgs: 1, MaxArgs: 2, Fn: builtinExpr,
		},
	}
}

func builtinJSON(_ *Call, args List) (Value, error) {
	b, err := MarshalJSON(args[0])
	if err != nil {
		return nil, err
	}

	return String(b), nil
}

func jsonDocument(op string, v Value) (string, *Error) {
	s, err := str(op, v)
	if err != nil {
		return "", err
	}

	if !gjson.Valid(s) {
		return "", valueError("%s: invalid JSON", op)
	}

	return s, nil
}

// fromJSON converts a GJSON result, keeping integral numbers as integers.
func fromJSON(r gjson.Result) Value {
	switch {
	case r.IsArray():
		var out List

		r.ForEach(func(_, v gjson.Result) bool {
			out = append(out, fromJSON(v))

			return true
		})

		if out == nil {
			return Nil
		}

		return out

	case r.IsObject():
		var kv []MapEntry

		r.ForEach(func(k, v gjson.Result) bool {
			kv = append(kv, MapEntry{Keyword(k.String()), fromJSON(v)})

			return true
		})

		return NewMap(kv...)
	}

	switch r.Type {
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	case gjson.Number:
		if n, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
			return Int(n)
		}

		return Float(r.Num)
	case gjson.String:
		return String(r.Str)
	default:
		return Nil
	}
}

func builtinJSONParse(_ *Call, args List) (Value, error) {
	s, err := jsonDocument("json-parse", args[0])
	if err != nil {
		return nil, err
	}

	return fromJSON(gjson.Parse(s)), nil
}

func builtinJSONGet(_ *Call, args List) (Value, error) {
	s, err := jsonDocument("json-get", args[0])
	if err != nil {
		return nil, err
	}

	path, err := key("json-get", args[1])
	if err != nil {
		return nil, err
	}

	r := gjson.Get(s, path)
	if !r.Exists() {
		if len(args) == 3 {
			return args[2], nil
		}

		return Nil, nil
	}

	return fromJSON(r), nil
}

func builtinJSONSet(_ *Call, args List) (Value, error) {
	s, err := str("json-set", args[0])
	if err != nil {
		return nil, err
	}

	path, err := key("json-set", args[1])
	if err != nil {
		return nil, err
	}

	out, serr := sjson.Set(s, path, ToNative(args[2]))
	if serr != nil {
		return nil, serr
	}

	return String(out), nil
}

func builtinYAML(_ *Call, args List) (Value, error) {
	b, err := yaml.Marshal(ToNative(args[0]))
	if err != nil {
		return nil, err
	}

	return String(b), nil
}

func builtinExpr(_ *Call, args List) (Value, error) {
	src, err := str("expr", args[0])
	if err != nil {
		return nil, err
	}

	env := map[string]any{}

	if len(args) == 2 {
		m, err := mapping("expr", args[1])
		if err != nil {
			return nil, err
		}

		for _, e := range m.Entries() {
			env[string(e.Key)] = ToNative(e.Value)
		}
	}

	out, eerr := expr.Eval(src, env)
	if eerr != nil {
		return nil, eerr
	}

	return FromNative(out), nil
}

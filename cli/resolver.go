package cli

import (
	"context"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/log"
)

// configMaxSteps bounds the evaluation of each form in a config file.
const configMaxSteps = 1 << 20

// resolve returns a [kong.ConfigurationLoader] for config files written in
// klisp. The file is evaluated in a sandbox interpreter without storage or
// output, and each top-level definition becomes a flag value:
//
//	(def log-level "debug")
//	(def log_pretty false)
//	(def max-steps (* 1024 1024))
//
// Names may use hyphens or underscores. Numbers are passed to kong as
// strings and lists become slices. Procedures are ignored, so a config file
// may define helpers. A form that fails is logged and skipped; the
// definitions before and after it still apply.
func resolve(ctx context.Context) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		prog, err := lang.ParseReader(ctx, r)
		if err != nil {
			log.WarnContext(ctx, "config unreadable", log.Err(err))

			return config{}, nil
		}

		in := lang.New(lang.WithMaxSteps(configMaxSteps))
		env := in.Global().Child()

		for _, res := range in.EvalAll(ctx, prog.Forms, env) {
			if res.Err != nil {
				log.WarnContext(ctx, "config form failed", log.Err(res.Err))
			}
		}

		return bindingsToConfig(env.Snapshot().Local()), nil
	}
}

// config implements [kong.Resolver] over a flat map of flag values.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
	if v, ok := r[flag.Name]; ok {
		return v, nil
	}

	if v, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return v, nil
	}

	return nil, nil
}

func bindingsToConfig(bindings iter.Seq[*lang.Binding]) config {
	out := config{}

	for b := range bindings {
		switch b.Value.(type) {
		case *lang.Closure, *lang.Builtin:
			continue
		}

		out[b.Name()] = flagValue(lang.ToNative(b.Value))
	}

	return out
}

// flagValue converts native data to what kong's mappers accept.
func flagValue(x any) any {
	switch x := x.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = flagValue(e)
		}

		return out
	default:
		return x
	}
}

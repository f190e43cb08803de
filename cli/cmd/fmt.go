package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/klisp/lang"
)

// Fmt reformats klisp source or converts its data to another format.
type Fmt struct {
	Klisp Klisp `cmd:"" default:"withargs" help:"Format as klisp source (default)."`
	JSON  JSON  `cmd:""                    help:"Convert each top-level datum to JSON."`
	YAML  YAML  `cmd:""                    help:"Convert each top-level datum to YAML."`
}

type fmtInput struct {
	Indent int    `default:"2" help:"Indent width." short:"i"`
	Source string `arg:"" default:"-" help:"Source input file or '-' for stdin." name:"source"`
}

// parse reads and parses the input. Any reader error fails the command,
// since formatting a broken file would lose text.
func (f *fmtInput) parse(ctx context.Context, format string) (*lang.Program, Streams, error) {
	std := streamsFrom(ctx)

	srcs, err := readSources([]string{f.Source}, std.In)
	if err != nil {
		return nil, std, err
	}

	var src Source
	if len(srcs) > 0 {
		src = srcs[0]
	}

	prog := lang.ParseCached(ctx, src.Text)
	if len(prog.Errors) > 0 {
		first := prog.Errors[0]

		reportError(std.Err, src.Name, first)

		return nil, std, ErrFormat.Wrap(first).With(
			slog.String("format", format),
			slog.String("file", src.Name),
			slog.Int("errors", len(prog.Errors)),
		)
	}

	return prog, std, nil
}

// data returns the datum of every top-level form as native Go data.
func data(prog *lang.Program) ([]any, error) {
	out := make([]any, 0, len(prog.Forms))

	for _, f := range prog.Forms {
		v, err := f.Datum()
		if err != nil {
			return nil, err
		}

		out = append(out, lang.ToNative(v))
	}

	return out, nil
}

// Klisp formats input as klisp source.
type Klisp struct {
	fmtInput `embed:""`
}

// Run executes the klisp formatter.
func (k *Klisp) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, std, err := k.parse(ctx, "klisp")
	if err != nil {
		return err
	}

	_, err = io.WriteString(std.Out, formatSource(prog.Source, prog.Forms, max(k.Indent, 1)))

	return err
}

// JSON converts input to a JSON array with one element per top-level form.
type JSON struct {
	fmtInput `embed:""`
}

// Run executes the JSON converter.
func (j *JSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, std, err := j.parse(ctx, "json")
	if err != nil {
		return err
	}

	docs, err := data(prog)
	if err != nil {
		return ErrJSONMarshal.Wrap(err)
	}

	out, err := json.MarshalIndent(docs, "", strings.Repeat(" ", max(j.Indent, 0)))
	if err != nil {
		return ErrJSONMarshal.Wrap(err)
	}

	_, err = fmt.Fprintf(std.Out, "%s\n", out)

	return err
}

// YAML converts input to a YAML stream with one document per top-level
// form.
type YAML struct {
	fmtInput `embed:""`
}

// Run executes the YAML converter.
func (y *YAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, std, err := y.parse(ctx, "yaml")
	if err != nil {
		return err
	}

	docs, err := data(prog)
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	for i, doc := range docs {
		out, err := yaml.MarshalWithOptions(doc, yaml.Indent(max(y.Indent, 1)))
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		if i > 0 {
			if _, err := io.WriteString(std.Out, "---\n"); err != nil {
				return err
			}
		}

		if _, err := std.Out.Write(out); err != nil {
			return err
		}
	}

	return nil
}

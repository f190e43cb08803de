package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/klisp/analysis"
	"github.com/ardnew/klisp/log"
)

// Check analyzes source files and reports their diagnostics without
// writing to storage.
type Check struct {
	Format string   `default:"text" enum:"text,json,yaml" help:"Report format (${enum})." short:"o"`
	Strict bool     `help:"Fail on warnings as well as errors."`
	Files  []string `arg:"" help:"Source file(s) or '-' for stdin." name:"file"`
}

// finding is one reported diagnostic.
type finding struct {
	File      string `json:"file"       yaml:"file"`
	Line      int    `json:"line"       yaml:"line"`
	Column    int    `json:"column"     yaml:"column"`
	EndLine   int    `json:"end_line"   yaml:"end_line"`
	EndColumn int    `json:"end_column" yaml:"end_column"`
	Severity  string `json:"severity"   yaml:"severity"`
	Code      string `json:"code"       yaml:"code"`
	Message   string `json:"message"    yaml:"message"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	std := streamsFrom(ctx)

	srcs, err := readSources(c.Files, std.In)
	if err != nil {
		return err
	}

	rt, err := openRuntime(ctx, io.Discard, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	a := analysis.New(
		analysis.WithInterpreter(rt.in),
		analysis.WithMaxSteps(rt.opts.MaxSteps),
		analysis.WithLogger(log.Default()),
	)

	var (
		found  []finding
		failed int
	)

	for _, src := range srcs {
		snap, err := a.Analyze(ctx, nil, src.Name, 1, src.Text)
		if err != nil {
			return err
		}

		for _, d := range snap.Diagnostics {
			found = append(found, finding{
				File:      src.Name,
				Line:      d.Span.Start.Line,
				Column:    d.Span.Start.Column,
				EndLine:   d.Span.End.Line,
				EndColumn: d.Span.End.Column,
				Severity:  d.Severity.String(),
				Code:      d.Code,
				Message:   d.Message,
			})

			if d.Severity == analysis.SeverityError ||
				(c.Strict && d.Severity == analysis.SeverityWarning) {
				failed++
			}
		}

		log.DebugContext(ctx, "checked",
			slog.String("file", src.Name),
			slog.Int("diagnostics", len(snap.Diagnostics)))
	}

	if err := c.write(std.Out, found); err != nil {
		return err
	}

	if failed > 0 {
		return ErrCheck.With(slog.Int("count", failed))
	}

	return nil
}

func (c *Check) write(w io.Writer, found []finding) error {
	switch c.Format {
	case "json":
		if found == nil {
			found = []finding{}
		}

		data, err := json.MarshalIndent(found, "", "  ")
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		_, err = fmt.Fprintf(w, "%s\n", data)

		return err

	case "yaml":
		if len(found) == 0 {
			return nil
		}

		data, err := yaml.Marshal(found)
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		_, err = w.Write(data)

		return err

	default:
		for _, f := range found {
			if _, err := fmt.Fprintf(w, "%s:%d:%d: %s: %s: %s\n",
				f.File, f.Line, f.Column, f.Severity, f.Code, f.Message); err != nil {
				return err
			}
		}

		return nil
	}
}

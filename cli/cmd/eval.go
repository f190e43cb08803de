package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/log"
)

// Eval evaluates source files and expressions in one session.
type Eval struct {
	Expr  []string `help:"Evaluate expression; its value is printed (repeatable)." placeholder:"EXPR" short:"e"`
	Print bool     `help:"Also print the value of the last form of each file."`
	Files []string `arg:"" help:"Source file(s) or '-' for stdin." name:"file" optional:""`
}

// Run executes the eval command. Every input is evaluated even after an
// earlier one fails; the command fails if any form did.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	std := streamsFrom(ctx)

	rt, err := openRuntime(ctx, std.Out, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	sess := rt.session(ctx, "eval")
	defer sess.Close()

	if err := rt.preload(ctx, sess, std.In, std.Err); err != nil {
		return err
	}

	files := e.Files
	if len(files) == 0 && len(e.Expr) == 0 {
		files = []string{stdinSource}
	}

	srcs, err := readSources(files, std.In)
	if err != nil {
		return err
	}

	type input struct {
		Source

		print bool
	}

	inputs := make([]input, 0, len(srcs)+len(e.Expr))
	for _, s := range srcs {
		inputs = append(inputs, input{s, e.Print})
	}

	for i, x := range e.Expr {
		inputs = append(inputs, input{Source{Name: fmt.Sprintf("-e#%d", i+1), Text: x}, true})
	}

	failed := 0

	for _, in := range inputs {
		reply, err := sess.Eval(ctx, in.Text)
		if err != nil {
			return err
		}

		if reply.More {
			sess.Reset()
			failed++

			fmt.Fprintf(std.Err, "%s: unterminated form\n", in.Name)

			continue
		}

		fmt.Fprint(std.Out, reply.Output)

		for _, r := range reply.Results {
			if r.Err != nil {
				failed++

				reportError(std.Err, in.Name, r.Err)
			}
		}

		if in.print && reply.Err == nil && reply.Value != nil {
			fmt.Fprintln(std.Out, lang.Print(reply.Value))
		}
	}

	log.DebugContext(ctx, "eval finished",
		slog.Int("inputs", len(inputs)), slog.Int("failed", failed))

	if failed > 0 {
		return ErrEval.With(slog.Int("failed", failed))
	}

	return nil
}

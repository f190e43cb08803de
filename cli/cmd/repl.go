package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ardnew/klisp/cli/cmd/repl"
	"github.com/ardnew/klisp/log"
)

// Repl starts an interactive session.
type Repl struct {
	Plain bool     `help:"Use a line-oriented prompt instead of the terminal UI."`
	Files []string `arg:"" help:"Source file(s) to evaluate before the first prompt." name:"file" optional:"" type:"existingfile"`
}

// Run executes the repl command. The terminal UI is used only when both
// standard input and output are terminals.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	std := streamsFrom(ctx)

	rt, err := openRuntime(ctx, std.Out, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	sess := rt.session(ctx, "repl")
	defer sess.Close()

	if err := rt.preload(ctx, sess, std.In, std.Err); err != nil {
		log.WarnContext(ctx, "preload failed", log.Err(err))
	}

	srcs, err := readSources(r.Files, std.In)
	if err != nil {
		return err
	}

	for _, src := range srcs {
		reply, err := sess.Eval(ctx, src.Text)
		if err != nil {
			return err
		}

		if reply.More {
			sess.Reset()
			log.WarnContext(ctx, "unterminated form", slog.String("file", src.Name))

			continue
		}

		for _, res := range reply.Results {
			if res.Err != nil {
				reportError(std.Err, src.Name, res.Err)
			}
		}
	}

	interactive := isTerminal(std.In) && isTerminal(std.Out)

	log.DebugContext(ctx, "repl ready",
		slog.Int("files", len(srcs)),
		slog.Bool("interactive", interactive),
		slog.Bool("plain", r.Plain))

	if r.Plain || !interactive {
		return repl.RunPlain(ctx, sess, std.In, std.Out, isTerminal(std.In))
	}

	err = repl.Run(ctx, sess, optionsFrom(ctx).CacheDir, log.Default())
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

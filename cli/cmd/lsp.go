package cmd

import (
	"context"
	"io"
	"time"

	"github.com/ardnew/klisp/log"
	"github.com/ardnew/klisp/lsp"
	"github.com/ardnew/klisp/session"
)

// LSP serves the language server protocol on stdin and stdout.
type LSP struct {
	Timeout time.Duration `default:"2s" help:"How long a request waits for the analysis of the latest edit."`
	Debug   bool          `help:"Log protocol messages."`
}

// Run executes the lsp command. Storage falls back to memory when the
// database is locked by another klisp process; analysis never writes to it.
func (l *LSP) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	rt, err := openRuntime(ctx, io.Discard, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	srv := lsp.New(ctx,
		lsp.WithLogger(log.Default()),
		lsp.WithQueryTimeout(l.Timeout),
		lsp.WithDebug(l.Debug),
		lsp.WithSessionOptions(
			session.WithInterpreter(rt.in),
			session.WithMaxSteps(rt.opts.MaxSteps),
		),
	)

	return srv.RunStdio()
}

package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ardnew/klisp/session"
)

// RunPlain runs a line-oriented REPL without terminal control, for piped
// input and dumb terminals. Prompts are written to w only when interactive
// is set. Lines ":quit" and ":reset" act like the control-mode commands.
func RunPlain(
	ctx context.Context,
	sess *session.Session,
	r io.Reader,
	w io.Writer,
	interactive bool,
) error {
	prompt := func(p string) {
		if interactive {
			fmt.Fprint(w, p)
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	prompt(session.Prompt)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Text()

		switch strings.TrimSpace(line) {
		case ":quit", ":q":
			return nil
		case ":reset", ":r":
			sess.Reset()
			prompt(session.Prompt)

			continue
		}

		reply, err := sess.Eval(ctx, line)
		if err != nil {
			return err
		}

		if !reply.More {
			for _, l := range replyLines(reply) {
				fmt.Fprintln(w, l.text)
			}
		}

		prompt(reply.Prompt)
	}

	if interactive {
		fmt.Fprintln(w)
	}

	return scanner.Err()
}

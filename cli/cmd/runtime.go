package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/log"
	"github.com/ardnew/klisp/pkg"
	"github.com/ardnew/klisp/session"
	"github.com/ardnew/klisp/store"
)

// Options are the global runtime settings every command shares.
type Options struct {
	// DB is the storage DSN: a bbolt file path or [store.MemoryDSN].
	DB string
	// MaxSteps bounds the evaluation of each top-level form. Zero is
	// unlimited.
	MaxSteps int
	// CacheDir holds transient files such as the REPL history.
	CacheDir string
}

type optionsKey struct{}

// WithOptions returns a copy of ctx carrying opts.
func WithOptions(ctx context.Context, opts Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

func optionsFrom(ctx context.Context) Options {
	opts, _ := ctx.Value(optionsKey{}).(Options)

	return opts
}

// runtime is an interpreter bound to an open store.
type runtime struct {
	in    *lang.Interpreter
	store store.Store
	opts  Options
}

// openRuntime opens the configured store and builds an interpreter over it.
// With fallback set, a store that cannot be opened (typically because
// another process holds the database lock) is replaced by an in-memory one.
func openRuntime(ctx context.Context, out io.Writer, fallback bool) (*runtime, error) {
	opts := optionsFrom(ctx)
	logger := log.Default()

	st, err := store.Open(opts.DB, store.WithLogger(logger))
	if err != nil {
		if !fallback {
			return nil, err
		}

		logger.WarnContext(ctx, "using in-memory storage",
			slog.String("db", opts.DB), log.Err(err))

		st = store.NewMemory(store.WithLogger(logger))
	}

	in := lang.New(
		lang.WithStorage(st),
		lang.WithLogger(logger),
		lang.WithMaxSteps(opts.MaxSteps),
		lang.WithOutput(out),
	)

	return &runtime{in: in, store: st, opts: opts}, nil
}

// session starts a session over the runtime's interpreter.
func (rt *runtime) session(ctx context.Context, id string, opts ...session.Option) *session.Session {
	return session.New(ctx, id, append([]session.Option{
		session.WithInterpreter(rt.in),
		session.WithLogger(log.Default()),
		session.WithMaxSteps(rt.opts.MaxSteps),
	}, opts...)...)
}

// preload evaluates the global --source files in the session, before any
// other input. Every file is evaluated; failures are reported to w and
// returned together as one [ErrPreload].
func (rt *runtime) preload(ctx context.Context, sess *session.Session, stdin io.Reader, w io.Writer) error {
	names := sourceFilesFrom(ctx)
	if len(names) == 0 {
		return nil
	}

	srcs, err := readSources(names, stdin)
	if err != nil {
		return err
	}

	var errs []error

	for _, src := range srcs {
		reply, err := sess.Eval(ctx, src.Text)
		if err != nil {
			return err
		}

		if reply.More {
			sess.Reset()
			errs = append(errs, pkg.ErrParse.Wrapf("%s: unterminated form", src.Name))

			continue
		}

		_, _ = io.WriteString(w, reply.Output)

		for _, r := range reply.Results {
			if r.Err != nil {
				reportError(w, src.Name, r.Err)
				errs = append(errs, r.Err)
			}
		}

		log.DebugContext(ctx, "preloaded source",
			slog.String("file", src.Name), slog.Int("forms", len(reply.Results)))
	}

	if len(errs) > 0 {
		return ErrPreload.Wrap(errors.Join(errs...))
	}

	return nil
}

func (rt *runtime) Close() error { return rt.store.Close() }

// Streams are the standard streams a command reads and writes.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type streamsKey struct{}

// WithStreams returns a copy of ctx whose commands use s instead of the
// process's standard streams. Nil fields keep the defaults.
func WithStreams(ctx context.Context, s Streams) context.Context {
	return context.WithValue(ctx, streamsKey{}, s)
}

func streamsFrom(ctx context.Context) Streams {
	s, _ := ctx.Value(streamsKey{}).(Streams)

	if s.In == nil {
		s.In = os.Stdin
	}

	if s.Out == nil {
		s.Out = os.Stdout
	}

	if s.Err == nil {
		s.Err = os.Stderr
	}

	return s
}

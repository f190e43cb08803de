package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/klisp/analysis"
	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/pkg"
)

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()

	s := New(t.Context(), "test", opts...)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestSession_Eval(t *testing.T) {
	s := newTestSession(t)

	r, err := s.Eval(t.Context(), "(+ 1 (* 2 3))")
	require.NoError(t, err)
	assert.Nil(t, r.Err)
	assert.Equal(t, "7", lang.Print(r.Value))
	assert.Equal(t, Prompt, r.Prompt)
	assert.False(t, r.More)
}

func TestSession_EvalMultiline(t *testing.T) {
	s := newTestSession(t)

	r, err := s.Eval(t.Context(), "(define (twice x)")
	require.NoError(t, err)
	assert.True(t, r.More)
	assert.Equal(t, ContinuePrompt, r.Prompt)

	r, err = s.Eval(t.Context(), `  (println "twice" x)`)
	require.NoError(t, err)
	assert.True(t, r.More)

	r, err = s.Eval(t.Context(), "  (* 2 x))")
	require.NoError(t, err)
	require.False(t, r.More)
	require.Nil(t, r.Err)

	r, err = s.Eval(t.Context(), "(twice 21)")
	require.NoError(t, err)
	assert.Equal(t, "42", lang.Print(r.Value))
	assert.Equal(t, "twice 21\n", r.Output)
}

func TestSession_EvalErrors(t *testing.T) {
	s := newTestSession(t)

	r, err := s.Eval(t.Context(), "(define a 1) (foo) (define b 2)")
	require.NoError(t, err)
	require.NotNil(t, r.Err)
	assert.Equal(t, lang.NameError, r.Err.Kind())
	assert.Equal(t, 15, r.Err.Span().Start.Column)
	assert.Nil(t, r.Value)
	require.Len(t, r.Results, 3)

	// Later forms still run.
	_, ok := s.Global().Lookup(lang.Intern("b"))
	assert.True(t, ok)
}

func TestSession_EvalRollback(t *testing.T) {
	in := lang.New(lang.WithBuiltins(&lang.Builtin{
		Name: "crash", MaxArgs: 0,
		Fn: func(*lang.Call, lang.List) (lang.Value, error) { panic("crash") },
	}))
	s := newTestSession(t, WithInterpreter(in))

	_, err := s.Eval(t.Context(), "(define kept 1)")
	require.NoError(t, err)

	r, err := s.Eval(t.Context(), "(define lost 2) (crash)")
	require.NoError(t, err)
	require.NotNil(t, r.Err)
	assert.Equal(t, lang.InternalError, r.Err.Kind())

	_, ok := s.Global().Lookup(lang.Intern("lost"))
	assert.False(t, ok, "definition survived an internal error")

	_, ok = s.Global().Lookup(lang.Intern("kept"))
	assert.True(t, ok)
}

func TestSession_ReplSnapshot(t *testing.T) {
	s := newTestSession(t)

	_, err := s.Eval(t.Context(), "(define repl-fn (fn (a b) a))")
	require.NoError(t, err)

	snap, err := s.Snapshot(t.Context(), s.Repl().ID(), 1)
	require.NoError(t, err)

	defs := snap.Index.Lookup("repl-fn")
	require.NotEmpty(t, defs)
	assert.Equal(t, "(repl-fn a b)", defs[0].Detail)
}

func TestSession_OpenQuery(t *testing.T) {
	s := newTestSession(t)
	ctx := t.Context()

	text := "(define (square x) (* x x))\n(square 4)"
	require.NoError(t, s.Open(ctx, "file:///a.kl", text, 1))

	v, err := s.Query(ctx, "file:///a.kl", len(text)-3, QueryHover, 1)
	require.NoError(t, err)

	h, ok := v.(*analysis.Hover)
	require.True(t, ok)
	require.NotNil(t, h)
	assert.Equal(t, "(square x)", h.Detail)

	v, err = s.Query(ctx, "file:///a.kl", 0, QuerySymbols, 1)
	require.NoError(t, err)
	assert.Len(t, v, 1)

	v, err = s.Query(ctx, "file:///a.kl", 0, QueryDiagnostics, 1)
	require.NoError(t, err)
	assert.Empty(t, v)

	_, err = s.Query(ctx, "file:///missing.kl", 0, QueryHover, 0)
	assert.ErrorIs(t, err, pkg.ErrUnknownDocument)
}

func TestSession_StaleChange(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.Open(t.Context(), "doc", "1", 3))
	assert.ErrorIs(t, s.Change(t.Context(), "doc", "2", 2), pkg.ErrStaleVersion)
	assert.ErrorIs(t, s.Change(t.Context(), "nope", "2", 9), pkg.ErrUnknownDocument)
}

// blockingInterpreter returns an interpreter with a builtin that waits on
// release, so tests can hold the worker busy.
func blockingInterpreter(release <-chan struct{}) *lang.Interpreter {
	return lang.New(lang.WithBuiltins(&lang.Builtin{
		Name: "block", MaxArgs: 0,
		Fn: func(c *lang.Call, _ lang.List) (lang.Value, error) {
			select {
			case <-release:
			case <-c.Context.Done():
			}

			return lang.Nil, nil
		},
	}))
}

func TestSession_LastEditWins(t *testing.T) {
	release := make(chan struct{})

	var (
		mu        sync.Mutex
		published []int64
	)

	s := newTestSession(t,
		WithInterpreter(blockingInterpreter(release)),
		WithOnPublish(func(snap *analysis.Snapshot) {
			mu.Lock()
			published = append(published, snap.Version)
			mu.Unlock()
		}),
	)
	ctx := t.Context()

	// Versions 1 and 2 hold the worker until a newer edit cancels them.
	require.NoError(t, s.Open(ctx, "doc", "(block) (define a 1)", 1))
	require.NoError(t, s.Change(ctx, "doc", "(block) (define b 2)", 2))
	require.NoError(t, s.Change(ctx, "doc", "(define c 3)", 3))
	close(release)

	snap, err := s.Snapshot(ctx, "doc", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.Version)
	assert.Equal(t, "(define c 3)", snap.Text)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int64{3}, published)
}

func TestSession_QueryWaitsForVersion(t *testing.T) {
	release := make(chan struct{})
	s := newTestSession(t, WithInterpreter(blockingInterpreter(release)))
	ctx := t.Context()

	require.NoError(t, s.Open(ctx, "doc", "(define v 1)", 1))
	_, err := s.Snapshot(ctx, "doc", 1)
	require.NoError(t, err)

	require.NoError(t, s.Change(ctx, "doc", "(block) (define v 2)", 2))

	// Readers of version 1 are not blocked by the running analysis.
	snap, err := s.Snapshot(ctx, "doc", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.Version)

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()

	_, err = s.Snapshot(short, "doc", 2)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)

	snap, err = s.Snapshot(ctx, "doc", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), snap.Version)
}

func TestSession_ConcurrentQueries(t *testing.T) {
	s := newTestSession(t)
	ctx := t.Context()

	// Version N defines xN and references the undefined undefN, so both the
	// symbols and the diagnostics identify the text they came from.
	text := func(v int64) string { return fmt.Sprintf("(define x%d %d) (undef%d)", v, v, v) }

	require.NoError(t, s.Open(ctx, "doc", text(1), 1))
	_, err := s.Snapshot(ctx, "doc", 1)
	require.NoError(t, err)

	var wg sync.WaitGroup

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range 50 {
				snap, err := s.Snapshot(ctx, "doc", 0)
				if !assert.NoError(t, err) {
					return
				}

				want := fmt.Sprintf("x%d", snap.Version)
				if !assert.Len(t, snap.Symbols(), 1) {
					return
				}

				assert.Equal(t, want, snap.Symbols()[0].Name)
				assert.NotEmpty(t, snap.Index.Lookup(want))

				if !assert.Len(t, snap.Diagnostics, 1) {
					return
				}

				undef := fmt.Sprintf("undef%d", snap.Version)
				assert.Equal(t, lang.ErrUnbound.Detail(undef).Message(), snap.Diagnostics[0].Message)
			}
		}()
	}

	for v := int64(2); v <= 30; v++ {
		require.NoError(t, s.Change(ctx, "doc", text(v), v))
	}

	wg.Wait()
}

func TestSession_CanceledAnalysisNotPublished(t *testing.T) {
	var (
		once    sync.Once
		reached = make(chan struct{})
	)

	in := lang.New(lang.WithBuiltins(&lang.Builtin{
		Name: "mark", MaxArgs: 0,
		Fn: func(*lang.Call, lang.List) (lang.Value, error) {
			once.Do(func() { close(reached) })

			return lang.Nil, nil
		},
	}))

	// No worker: analyze is driven directly so the test controls s.mu.
	s := newSession(t.Context(), "direct", WithInterpreter(in))

	st := &docState{doc: analysis.NewDocument("doc"), cancel: func(error) {}}
	st.requested.Store(1)

	actx, cancel := context.WithCancelCause(t.Context())
	defer cancel(nil)

	s.mu.Lock()

	finished := make(chan struct{})

	go func() {
		defer close(finished)
		s.analyze(actx, st, 1, "(define a 1) (mark)")
	}()

	<-reached
	// Let the analysis return and block on s.mu before canceling it the way
	// CloseDocument does.
	time.Sleep(20 * time.Millisecond)
	cancel(pkg.ErrUnknownDocument)
	s.mu.Unlock()

	<-finished
	assert.Nil(t, st.doc.Current())
}

func TestSession_CloseDocument(t *testing.T) {
	s := newTestSession(t)

	require.NoError(t, s.Open(t.Context(), "doc", "1", 1))
	require.NoError(t, s.CloseDocument("doc"))
	assert.ErrorIs(t, s.CloseDocument("doc"), pkg.ErrUnknownDocument)

	_, err := s.Query(t.Context(), "doc", 0, QueryHover, 0)
	assert.ErrorIs(t, err, pkg.ErrUnknownDocument)
}

func TestSession_Close(t *testing.T) {
	s := New(t.Context(), "closing")

	require.NoError(t, s.Open(t.Context(), "doc", "(define a 1)", 1))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Eval(t.Context(), "(+ 1 2)")
	assert.ErrorIs(t, err, pkg.ErrSessionClosed)

	select {
	case <-s.Done():
	default:
		t.Error("worker still running after Close")
	}
}

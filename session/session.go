package session

//go:generate go tool stringer --linecomment --type QueryKind --output session_string.go

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/ardnew/klisp/analysis"
	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/log"
	"github.com/ardnew/klisp/pkg"
)

// Prompts reported in [Reply.Prompt].
const (
	Prompt         = "➜ "
	ContinuePrompt = "… "
)

// ReplPrefix prefixes the id of every session's REPL document.
const ReplPrefix = "repl:"

// errSuperseded cancels an analysis made obsolete by a newer edit.
var errSuperseded = errors.New("superseded by a newer version")

// Reply is the outcome of one line of REPL input.
type Reply struct {
	// Output holds what the input printed.
	Output string
	// Results holds one entry per top-level form evaluated.
	Results []lang.Result
	// Value is the value of the last form, if every form succeeded.
	Value lang.Value
	// Err is the first error raised by the input.
	Err *lang.Error
	// More reports that the input is incomplete and nothing was evaluated.
	More   bool
	Prompt string
}

// Session owns one global environment and the documents analyzed against it.
// Mutations (REPL input and document analysis) run one at a time, in the
// order submitted, on a single worker goroutine. Queries read published
// snapshots and never wait for the worker except through
// [analysis.Document.Await].
type Session struct {
	id       string
	in       *lang.Interpreter
	analyzer *analysis.Analyzer
	global   *lang.Frame
	logger   log.Logger
	publish  func(*analysis.Snapshot)
	sem      *semaphore.Weighted
	maxSteps int

	ctx    context.Context
	cancel context.CancelCauseFunc
	tasks  *queue
	done   chan struct{}

	mu   sync.Mutex
	docs map[string]*docState

	replMu      sync.Mutex
	pending     strings.Builder
	repl        *analysis.Document
	replVersion atomic.Int64
}

// docState tracks one open document.
type docState struct {
	doc       *analysis.Document
	requested atomic.Int64
	cancel    context.CancelCauseFunc
}

// New starts a session. The worker runs until [Session.Close] or until ctx
// ends.
func New(ctx context.Context, id string, opts ...Option) *Session {
	s := newSession(ctx, id, opts...)
	go s.run()

	return s
}

func newSession(ctx context.Context, id string, opts ...Option) *Session {
	cfg := makeConfig(opts...)

	s := &Session{
		id:       id,
		in:       cfg.in,
		logger:   cfg.logger.With(log.Session(id)),
		publish:  cfg.onPublish,
		sem:      cfg.sem,
		maxSteps: cfg.maxSteps,
		tasks:    newQueue(),
		done:     make(chan struct{}),
		docs:     make(map[string]*docState),
		repl:     analysis.NewDocument(ReplPrefix + id),
	}

	s.analyzer = analysis.New(
		analysis.WithInterpreter(s.in),
		analysis.WithMaxSteps(s.maxSteps),
		analysis.WithLogger(s.logger),
	)
	s.global = s.in.Global()
	s.ctx, s.cancel = context.WithCancelCause(ctx)

	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Global returns the session's global frame.
func (s *Session) Global() *lang.Frame { return s.global }

// Interpreter returns the interpreter REPL input is evaluated with.
func (s *Session) Interpreter() *lang.Interpreter { return s.in }

// run is the worker loop. It returns after [Session.Close] once every queued
// task has run.
func (s *Session) run() error {
	defer close(s.done)

	s.logger.Debug("session started")

	for {
		t, ok := s.tasks.pop()
		if !ok {
			s.logger.Debug("session stopped")

			return nil
		}

		s.exec(t)
	}
}

func (s *Session) exec(t task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	t()
}

// Close cancels in-flight analyses, runs the tasks already queued, and stops
// the worker. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()

	for _, st := range s.docs {
		st.cancel(pkg.ErrSessionClosed)
	}

	s.mu.Unlock()

	s.tasks.close()
	<-s.done
	s.cancel(pkg.ErrSessionClosed)

	return nil
}

// Done is closed when the worker has stopped.
func (s *Session) Done() <-chan struct{} { return s.done }

// submit queues fn and waits for it to finish or for ctx to end.
func (s *Session) submit(ctx context.Context, fn func()) error {
	finished := make(chan struct{})

	if err := s.tasks.push(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}

// Eval feeds one line of REPL input to the session. Lines accumulate until
// they form complete expressions, which are then evaluated in the global
// frame. If evaluation fails internally the global frame is restored to its
// state before the input.
func (s *Session) Eval(ctx context.Context, line string) (Reply, error) {
	s.replMu.Lock()
	defer s.replMu.Unlock()

	s.pending.WriteString(line)
	s.pending.WriteByte('\n')

	input := s.pending.String()
	if depth, inString := lang.Balance(input); depth > 0 || inString {
		return Reply{More: true, Prompt: ContinuePrompt}, nil
	}

	s.pending.Reset()

	if strings.TrimSpace(input) == "" {
		return Reply{Prompt: Prompt}, nil
	}

	var reply Reply

	err := s.submit(ctx, func() { reply = s.evalInput(ctx, input) })
	if err != nil {
		return Reply{Prompt: Prompt}, err
	}

	reply.Prompt = Prompt

	return reply, nil
}

// Reset discards incomplete REPL input.
func (s *Session) Reset() {
	s.replMu.Lock()
	s.pending.Reset()
	s.replMu.Unlock()
}

// evalInput runs on the worker.
func (s *Session) evalInput(ctx context.Context, input string) Reply {
	var out bytes.Buffer

	before := s.global.Snapshot()
	in := s.in.With(lang.WithOutput(&out))

	results, _ := in.EvalString(ctx, input, s.global)

	reply := Reply{Results: results}

	for _, r := range results {
		if r.Err != nil && reply.Err == nil {
			reply.Err = r.Err
		}
	}

	if reply.Err == nil && len(results) > 0 {
		reply.Value = results[len(results)-1].Value
	}

	for _, r := range results {
		if r.Err != nil && r.Err.Kind() == lang.InternalError {
			s.global.Rollback(before)
			s.logger.WarnContext(ctx, "rolled back global frame", log.Err(r.Err))

			break
		}
	}

	reply.Output = out.String()
	s.republishRepl(ctx)

	return reply
}

// republishRepl publishes a snapshot of the global frame so that REPL
// completion sees new definitions.
func (s *Session) republishRepl(ctx context.Context) {
	v := s.replVersion.Add(1)

	snap, err := s.analyzer.Analyze(ctx, s.global, s.repl.ID(), v, "")
	if err != nil {
		s.logger.DebugContext(ctx, "repl snapshot failed", log.Err(err))

		return
	}

	if s.repl.Publish(snap) {
		s.notify(snap)
	}
}

// Repl returns the session's REPL document.
func (s *Session) Repl() *analysis.Document { return s.repl }

// Open starts tracking a document and analyzes its text. Opening a document
// that is already open behaves like [Session.Change].
func (s *Session) Open(ctx context.Context, docID, text string, version int64) error {
	s.mu.Lock()

	if _, ok := s.docs[docID]; !ok {
		st := &docState{doc: analysis.NewDocument(docID), cancel: func(error) {}}
		st.requested.Store(-1)
		s.docs[docID] = st
		s.logger.DebugContext(ctx, "opened document", log.Document(docID), log.Version(version))
	}

	s.mu.Unlock()

	return s.Change(ctx, docID, text, version)
}

// Change replaces the text of an open document. The document's in-flight
// analysis is canceled and a new one is queued; analyses of versions older
// than the newest requested one are never published.
func (s *Session) Change(ctx context.Context, docID, text string, version int64) error {
	s.mu.Lock()

	st, ok := s.docs[docID]
	if !ok {
		s.mu.Unlock()

		return pkg.ErrUnknownDocument.Wrapf("%s", docID)
	}

	if version <= st.requested.Load() {
		s.mu.Unlock()

		return pkg.ErrStaleVersion.Wrapf("%s: version %d, have %d", docID, version, st.requested.Load())
	}

	st.requested.Store(version)
	st.cancel(errSuperseded)

	actx, cancel := context.WithCancelCause(s.ctx)
	st.cancel = cancel
	s.mu.Unlock()

	err := s.tasks.push(func() {
		defer cancel(nil)
		s.analyze(actx, st, version, text)
	})
	if err != nil {
		cancel(err)

		return err
	}

	s.logger.TraceContext(ctx, "queued analysis", log.Document(docID), log.Version(version))

	return nil
}

// analyze runs on the worker.
func (s *Session) analyze(ctx context.Context, st *docState, version int64, text string) {
	id := st.doc.ID()

	if version < st.requested.Load() {
		s.logger.TraceContext(ctx, "skipped stale analysis", log.Document(id), log.Version(version))

		return
	}

	if s.sem != nil {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return
		}
		defer s.sem.Release(1)
	}

	snap, err := s.analyzer.Analyze(ctx, s.global, id, version, text)
	if err != nil {
		if ctx.Err() != nil {
			s.logger.TraceContext(ctx, "discarded analysis",
				log.Document(id), log.Version(version), log.Err(context.Cause(ctx)))
		} else {
			s.logger.WarnContext(ctx, "analysis failed",
				log.Document(id), log.Version(version), log.Err(err))
		}

		return
	}

	// Change and CloseDocument cancel ctx while holding s.mu, so the check and
	// the publish must happen under it too.
	s.mu.Lock()
	stale := ctx.Err() != nil || version < st.requested.Load() || !st.doc.Publish(snap)
	s.mu.Unlock()

	if stale {
		s.logger.TraceContext(ctx, "discarded analysis", log.Document(id), log.Version(version))

		return
	}

	s.logger.TraceContext(ctx, "published", log.Document(id), log.Version(version))
	s.notify(snap)
}

func (s *Session) notify(snap *analysis.Snapshot) {
	if s.publish != nil {
		s.publish(snap)
	}
}

// CloseDocument stops tracking a document and cancels its analysis.
func (s *Session) CloseDocument(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.docs[docID]
	if !ok {
		return pkg.ErrUnknownDocument.Wrapf("%s", docID)
	}

	st.cancel(pkg.ErrUnknownDocument)
	delete(s.docs, docID)
	s.logger.Debug("closed document", log.Document(docID))

	return nil
}

func (s *Session) document(docID string) (*analysis.Document, error) {
	if docID == s.repl.ID() {
		return s.repl, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.docs[docID]
	if !ok {
		return nil, pkg.ErrUnknownDocument.Wrapf("%s", docID)
	}

	return st.doc, nil
}

// Snapshot returns the published snapshot of a document, waiting until its
// version reaches minVersion.
func (s *Session) Snapshot(ctx context.Context, docID string, minVersion int64) (*analysis.Snapshot, error) {
	d, err := s.document(docID)
	if err != nil {
		return nil, err
	}

	return d.Await(ctx, minVersion)
}

// QueryKind selects a [Session.Query].
type QueryKind uint8

const (
	QueryHover       QueryKind = iota // hover
	QueryDefinition                   // definition
	QueryComplete                     // complete
	QuerySymbols                      // symbols
	QuerySignature                    // signature
	QueryDiagnostics                  // diagnostics
)

// Signature is the result of a [QuerySignature].
type Signature struct {
	analysis.Definition
	// Arg is the index of the argument under the cursor.
	Arg int
}

// Query answers a read-only request about a document at a byte offset. It
// waits for minVersion to be published. The result type depends on kind:
//
//	QueryHover        *analysis.Hover, or nil
//	QueryDefinition   *analysis.Definition, or nil
//	QueryComplete     []analysis.Definition
//	QuerySymbols      []analysis.Definition
//	QuerySignature    *Signature, or nil
//	QueryDiagnostics  []analysis.Diagnostic
func (s *Session) Query(
	ctx context.Context,
	docID string,
	offset int,
	kind QueryKind,
	minVersion int64,
) (any, error) {
	snap, err := s.Snapshot(ctx, docID, minVersion)
	if err != nil {
		return nil, err
	}

	switch kind {
	case QueryHover:
		if h, ok := snap.Hover(offset); ok {
			return &h, nil
		}

		return (*analysis.Hover)(nil), nil

	case QueryDefinition:
		if d, ok := snap.Definition(offset); ok {
			return &d, nil
		}

		return (*analysis.Definition)(nil), nil

	case QueryComplete:
		return snap.Complete(offset), nil

	case QuerySymbols:
		return snap.Symbols(), nil

	case QuerySignature:
		if d, arg, ok := snap.Signature(offset); ok {
			return &Signature{Definition: d, Arg: arg}, nil
		}

		return (*Signature)(nil), nil

	case QueryDiagnostics:
		return snap.Diagnostics, nil

	default:
		return nil, fmt.Errorf("unknown query kind %v", kind)
	}
}

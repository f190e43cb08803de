package lsp

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/ardnew/klisp/analysis"
	"github.com/ardnew/klisp/log"
	"github.com/ardnew/klisp/pkg"
	"github.com/ardnew/klisp/session"
)

const (
	serverName = pkg.Name
	diagSource = pkg.Name

	// DefaultQueryTimeout bounds how long a request waits for the analysis
	// of the latest document version before answering from an older one.
	DefaultQueryTimeout = 2 * time.Second
)

// Server answers language server requests from one session. Each open
// document is analyzed on the session worker; requests read the published
// snapshots.
type Server struct {
	ctx     context.Context
	cancel  context.CancelFunc
	sess    *session.Session
	logger  log.Logger
	timeout time.Duration
	debug   bool
	exitFn  func(int)
	sopts   []session.Option
	handler protocol.Handler

	mu       sync.Mutex
	notify   func(method string, params any)
	docs     map[protocol.DocumentUri]*openDoc
	shutdown bool
}

type openDoc struct {
	version int64
	text    string
}

// Option configures a [Server].
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithSessionOptions configures the session behind the server.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *Server) { s.sopts = append(s.sopts, opts...) }
}

// WithQueryTimeout sets how long requests wait for a pending analysis.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithDebug enables protocol debug logging in the transport.
func WithDebug(enable bool) Option {
	return func(s *Server) { s.debug = enable }
}

// New returns a server whose session lives until ctx ends or Close is
// called.
func New(ctx context.Context, opts ...Option) *Server {
	s := &Server{
		timeout: DefaultQueryTimeout,
		exitFn:  os.Exit,
		docs:    make(map[protocol.DocumentUri]*openDoc),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.sess = session.New(s.ctx, "lsp", append(s.sopts,
		session.WithLogger(s.logger),
		session.WithOnPublish(s.publish),
	)...)

	s.handler = protocol.Handler{
		Initialize:                 s.initialize,
		Initialized:                s.initialized,
		Shutdown:                   s.shutdownHandler,
		Exit:                       s.exit,
		SetTrace:                   s.setTrace,
		TextDocumentDidOpen:        s.textDocumentDidOpen,
		TextDocumentDidChange:      s.textDocumentDidChange,
		TextDocumentDidClose:       s.textDocumentDidClose,
		TextDocumentHover:          s.textDocumentHover,
		TextDocumentDefinition:     s.textDocumentDefinition,
		TextDocumentCompletion:     s.textDocumentCompletion,
		TextDocumentDocumentSymbol: s.textDocumentDocumentSymbol,
		TextDocumentSignatureHelp:  s.textDocumentSignatureHelp,
	}

	return s
}

// Session returns the session that evaluates and analyzes documents.
func (s *Server) Session() *session.Session { return s.sess }

// RunStdio serves the protocol on standard input and output until the
// client disconnects.
func (s *Server) RunStdio() error {
	defer s.Close()

	s.logger.Info("language server started", log.Session(s.sess.ID()))

	return server.NewServer(&s.handler, serverName, s.debug).RunStdio()
}

// Close stops the session.
func (s *Server) Close() error {
	err := s.sess.Close()
	s.cancel()

	return err
}

// remember keeps the notifier of the latest request so analyses finishing
// on the worker can publish diagnostics.
func (s *Server) remember(ctx *glsp.Context) {
	if ctx == nil || ctx.Notify == nil {
		return
	}

	s.mu.Lock()
	s.notify = ctx.Notify
	s.mu.Unlock()
}

func (s *Server) notifier() func(string, any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.notify
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	s.remember(ctx)

	caps := s.handler.CreateServerCapabilities()

	openClose, change := true, protocol.TextDocumentSyncKindFull
	caps.TextDocumentSync = protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &change,
	}
	caps.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"(", ":"},
	}
	caps.SignatureHelpProvider = &protocol.SignatureHelpOptions{
		TriggerCharacters: []string{"(", " "},
	}

	if params != nil && params.ClientInfo != nil {
		s.logger.Debug("initialize", log.Session(s.sess.ID()),
			slog.String("client", params.ClientInfo.Name))
	}

	version := pkg.Version

	return protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, _ *protocol.InitializedParams) error {
	s.remember(ctx)

	return nil
}

func (s *Server) shutdownHandler(ctx *glsp.Context) error {
	s.remember(ctx)
	protocol.SetTraceValue(protocol.TraceValueOff)

	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	return s.sess.Close()
}

func (s *Server) exit(*glsp.Context) error {
	s.mu.Lock()
	clean := s.shutdown
	s.mu.Unlock()

	_ = s.Close()

	if clean {
		s.exitFn(0)
	} else {
		s.exitFn(1)
	}

	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	s.remember(ctx)
	protocol.SetTraceValue(params.Value)

	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	s.remember(ctx)

	uri, version := params.TextDocument.URI, int64(params.TextDocument.Version)

	s.mu.Lock()
	s.docs[uri] = &openDoc{version: version, text: params.TextDocument.Text}
	s.mu.Unlock()

	return s.sess.Open(s.ctx, uri, params.TextDocument.Text, version)
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	s.remember(ctx)

	uri, version := params.TextDocument.URI, int64(params.TextDocument.Version)

	s.mu.Lock()
	d, ok := s.docs[uri]
	if !ok {
		s.mu.Unlock()

		return pkg.ErrUnknownDocument.Wrapf("%s", uri)
	}

	if version <= d.version {
		s.mu.Unlock()
		s.logger.Debug("dropped stale change", log.Document(uri), log.Version(version))

		return nil
	}

	text := applyChanges(d.text, params.ContentChanges)
	d.version, d.text = version, text
	s.mu.Unlock()

	err := s.sess.Change(s.ctx, uri, text, version)
	if errors.Is(err, pkg.ErrStaleVersion) {
		return nil
	}

	return err
}

// applyChanges applies full or ranged content changes in order.
func applyChanges(text string, changes []any) string {
	for _, c := range changes {
		switch c := c.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
		case *protocol.TextDocumentContentChangeEventWhole:
			text = c.Text
		case protocol.TextDocumentContentChangeEvent:
			text = applyRange(text, c.Range, c.Text)
		case *protocol.TextDocumentContentChangeEvent:
			text = applyRange(text, c.Range, c.Text)
		}
	}

	return text
}

func applyRange(text string, r *protocol.Range, repl string) string {
	if r == nil {
		return repl
	}

	x := newLineIndex(text)
	start, end := x.offset(r.Start), x.offset(r.End)

	if end < start {
		start, end = end, start
	}

	return text[:start] + repl + text[end:]
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.remember(ctx)

	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, uri)
	s.mu.Unlock()

	err := s.sess.CloseDocument(uri)
	if errors.Is(err, pkg.ErrUnknownDocument) {
		err = nil
	}

	if notify := s.notifier(); notify != nil {
		notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: []protocol.Diagnostic{},
		})
	}

	return err
}

// snapshot returns the analysis of the latest version the client sent, or
// the last published one if that analysis does not finish in time. Unknown
// documents yield nil.
func (s *Server) snapshot(uri protocol.DocumentUri) *analysis.Snapshot {
	s.mu.Lock()
	d, ok := s.docs[uri]
	var version int64
	if ok {
		version = d.version
	}
	s.mu.Unlock()

	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	snap, err := s.sess.Snapshot(ctx, uri, version)
	if err == nil {
		return snap
	}

	if errors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("analysis still running", log.Document(uri), log.Version(version))

		// ctx has ended, so this returns only what is already published.
		if snap, err = s.sess.Snapshot(ctx, uri, 0); err == nil {
			return snap
		}
	}

	s.logger.Debug("no snapshot", log.Document(uri), log.Err(err))

	return nil
}

// publish sends the diagnostics of a snapshot to the client.
func (s *Server) publish(snap *analysis.Snapshot) {
	notify := s.notifier()
	if notify == nil {
		return
	}

	s.mu.Lock()
	_, open := s.docs[snap.DocumentID]
	s.mu.Unlock()

	if !open {
		return
	}

	notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         snap.DocumentID,
		Diagnostics: diagnostics(snap),
	})
}

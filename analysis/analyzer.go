package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/ardnew/klisp/lang"
	"github.com/ardnew/klisp/log"
)

// DefaultMaxSteps bounds the evaluation of each top-level form during
// analysis so that a runaway loop in an open document cannot wedge its
// session.
const DefaultMaxSteps = 1_000_000

// Analyzer evaluates documents and builds their snapshots. An Analyzer is
// safe for concurrent use.
type Analyzer struct {
	in       *lang.Interpreter
	maxSteps int
	logger   log.Logger

	eval *lang.Interpreter
	base func() *lang.Frame
}

// Option configures an [Analyzer].
type Option func(*Analyzer)

// WithInterpreter sets the interpreter whose builtins and storage documents
// are evaluated with.
func WithInterpreter(in *lang.Interpreter) Option {
	return func(a *Analyzer) {
		if in != nil {
			a.in = in
		}
	}
}

// WithMaxSteps bounds the steps spent on each top-level form. Zero removes
// the bound.
func WithMaxSteps(n int) Option {
	return func(a *Analyzer) { a.maxSteps = max(n, 0) }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// New returns an Analyzer configured by opts.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{maxSteps: DefaultMaxSteps}

	for _, opt := range opts {
		opt(a)
	}

	if a.in == nil {
		a.in = lang.New(lang.WithLogger(a.logger))
	}

	evalOpts := []lang.Option{
		lang.WithOutput(io.Discard),
		lang.WithMaxSteps(a.maxSteps),
	}

	if s := a.in.Storage(); s != nil {
		evalOpts = append(evalOpts, lang.WithStorage(readOnly{Storage: s, logger: a.logger}))
	}

	a.eval = a.in.With(evalOpts...)
	a.base = sync.OnceValue(a.in.Global)

	return a
}

// Interpreter returns the interpreter documents are evaluated with.
func (a *Analyzer) Interpreter() *lang.Interpreter { return a.in }

// Analyze parses and evaluates text in a fresh frame below global and returns
// the resulting snapshot. A nil global uses a shared frame holding only the
// builtins.
//
// Evaluation failures become diagnostics. The error result is non-nil only
// when ctx ends or a builtin fails internally; no snapshot is returned then.
func (a *Analyzer) Analyze(
	ctx context.Context,
	global *lang.Frame,
	id string,
	version int64,
	text string,
) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, context.Cause(ctx)
	}

	if global == nil {
		global = a.base()
	}

	start := time.Now()
	prog := lang.ParseCached(ctx, text)
	globals := global.Snapshot()
	frame := global.Child()

	results := a.eval.EvalAll(ctx, prog.Forms, frame)

	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}

	for _, r := range results {
		if r.Err != nil && r.Err.Kind() == lang.InternalError {
			a.logger.WarnContext(ctx, "analysis aborted",
				log.Document(id), log.Version(version), log.Err(r.Err))

			return nil, r.Err
		}
	}

	s := &Snapshot{
		DocumentID: id,
		Version:    version,
		Text:       text,
		Hash:       prog.Hash,
		Forms:      prog.Forms,
		Results:    results,
		Frame:      frame.Snapshot(),
	}

	for _, err := range prog.Errors {
		s.Diagnostics = append(s.Diagnostics, errorDiagnostic(err, lang.Span{}))
	}

	for _, r := range results {
		// Reader errors were reported above.
		if r.Err != nil && r.Form.Kind != lang.FormError {
			s.Diagnostics = append(s.Diagnostics, errorDiagnostic(r.Err, r.Form.Span))
		}
	}

	a.index(s, globals)

	a.logger.TraceContext(ctx, "analyzed",
		log.Document(id),
		log.Version(version),
		slog.Int("forms", len(prog.Forms)),
		slog.Int("diagnostics", len(s.Diagnostics)),
		slog.Duration("elapsed", time.Since(start)),
	)

	return s, nil
}

// index builds the symbol index of s and reports definition warnings.
func (a *Analyzer) index(s *Snapshot, globals lang.FrameHandle) {
	b := newIndexBuilder()

	for _, sf := range lang.SpecialForms {
		b.add(Definition{Name: sf.Name, Kind: KindSpecial, Detail: sf.Syntax, Doc: sf.Doc})
	}

	for bind := range globals.All() {
		b.add(globalDefinition(bind))
	}

	first := make(map[string]Definition)

	for _, site := range definitionSites(s.Forms) {
		d := Definition{
			Name:       site.name,
			Kind:       KindVariable,
			Span:       site.target.Span,
			Detail:     site.detail,
			DocumentID: s.DocumentID,
		}

		if site.function {
			d.Kind = KindFunction
		}

		if bind, ok := s.Frame.Lookup(lang.Intern(site.name)); ok && bind.Span == d.Span {
			d.Kind, d.Detail = describe(bind.Value, d.Kind)
		}

		s.defs = append(s.defs, d)

		if prev, dup := first[d.Name]; dup {
			b.add(d)
			s.Diagnostics = append(s.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeDuplicate,
				Message:  fmt.Sprintf("%s is already defined", d.Name),
				Span:     d.Span,
				Related:  &Related{Span: prev.Span, Message: "previous definition of " + d.Name},
			})

			continue
		}

		first[d.Name] = d

		if msg := a.shadowed(d.Name); msg != "" {
			s.Diagnostics = append(s.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeShadow,
				Message:  msg,
				Span:     d.Span,
			})
		}

		// The document's first definition hides any global one.
		b.replace(d)
	}

	s.Index = b.build()
}

func (a *Analyzer) shadowed(name string) string {
	switch {
	case lang.IsSpecialForm(name):
		return name + " is a special form; this definition is never called"
	case lang.IsConstant(name):
		return "definition shadows the constant " + name
	}

	if _, ok := a.in.Builtin(name); ok {
		return "definition shadows the builtin " + name
	}

	return ""
}

func globalDefinition(b *lang.Binding) Definition {
	d := Definition{Name: b.Name(), Kind: KindGlobal, Span: b.Span}

	switch v := b.Value.(type) {
	case *lang.Builtin:
		d.Kind, d.Detail, d.Doc = KindBuiltin, v.Signature(), v.Doc
	default:
		if lang.IsConstant(d.Name) && b.Span.IsZero() {
			d.Kind = KindConstant
			d.Detail = preview(v)

			break
		}

		d.Kind, d.Detail = describe(v, KindGlobal)
	}

	return d
}

// describe returns the kind and detail of a bound value.
func describe(v lang.Value, fallback Kind) (Kind, string) {
	switch v := v.(type) {
	case *lang.Closure:
		return KindFunction, v.Signature()
	case *lang.Builtin:
		return KindBuiltin, v.Signature()
	default:
		return fallback, preview(v)
	}
}

const maxPreview = 120

func preview(v lang.Value) string {
	s := lang.Print(v)
	if len(s) <= maxPreview {
		return s
	}

	cut := maxPreview
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "…"
}

func keyAttr(key string) slog.Attr { return slog.String("key", key) }

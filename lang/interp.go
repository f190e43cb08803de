package lang

import (
	"context"
	"io"
	"log/slog"
	"math"
	"slices"

	"github.com/ardnew/klisp/log"
)

// DefaultMaxDepth bounds nested, non-tail evaluation.
const DefaultMaxDepth = 10000

// Storage is the persistence boundary used by the db-* primitives. Values are
// exchanged as klisp source text. Implementations must be safe for
// concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Interpreter evaluates forms. It holds configuration and the builtin
// procedures but no bindings: environments are [Frame] chains owned by the
// caller, so one Interpreter can serve many sessions at once.
type Interpreter struct {
	builtins []*Builtin
	byName   map[string]*Builtin
	maxDepth int
	maxSteps int
	storage  Storage
	out      io.Writer
	logger   log.Logger
}

// Option configures an [Interpreter].
type Option func(*Interpreter)

// WithMaxDepth bounds nested non-tail evaluation. Exceeding it is a
// LimitError rather than a stack overflow.
func WithMaxDepth(depth int) Option {
	return func(in *Interpreter) {
		if depth > 0 {
			in.maxDepth = depth
		}
	}
}

// WithMaxSteps bounds the evaluation steps spent on each top-level form.
// Zero means unlimited.
func WithMaxSteps(steps int) Option {
	return func(in *Interpreter) { in.maxSteps = max(steps, 0) }
}

// WithStorage sets the backend of the db-* primitives.
func WithStorage(s Storage) Option {
	return func(in *Interpreter) { in.storage = s }
}

// WithOutput sets where print and println write.
func WithOutput(w io.Writer) Option {
	return func(in *Interpreter) { in.out = w }
}

// WithLogger sets the interpreter's logger.
func WithLogger(l log.Logger) Option {
	return func(in *Interpreter) { in.logger = l }
}

// WithBuiltins adds procedures to the global environment, replacing any
// standard builtin of the same name.
func WithBuiltins(b ...*Builtin) Option {
	return func(in *Interpreter) {
		for _, x := range b {
			in.register(x)
		}
	}
}

// New returns an interpreter with the standard builtins.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{
		byName:   make(map[string]*Builtin),
		maxDepth: DefaultMaxDepth,
		out:      io.Discard,
	}

	for _, b := range standardBuiltins() {
		in.register(b)
	}

	for _, opt := range opts {
		opt(in)
	}

	if in.out == nil {
		in.out = io.Discard
	}

	return in
}

// With returns a copy of in with opts applied. The builtins are shared.
func (in *Interpreter) With(opts ...Option) *Interpreter {
	c := *in
	c.builtins = slices.Clone(in.builtins)
	c.byName = make(map[string]*Builtin, len(in.byName))

	for k, v := range in.byName {
		c.byName[k] = v
	}

	for _, opt := range opts {
		opt(&c)
	}

	return &c
}

func (in *Interpreter) register(b *Builtin) {
	if _, dup := in.byName[b.Name]; dup {
		in.builtins = slices.DeleteFunc(in.builtins, func(x *Builtin) bool {
			return x.Name == b.Name
		})
	}

	in.byName[b.Name] = b
	in.builtins = append(in.builtins, b)
}

// Builtins returns the interpreter's builtin procedures.
func (in *Interpreter) Builtins() []*Builtin { return slices.Clone(in.builtins) }

// Builtin returns the builtin named name.
func (in *Interpreter) Builtin(name string) (*Builtin, bool) {
	b, ok := in.byName[name]

	return b, ok
}

// Storage returns the configured storage backend, if any.
func (in *Interpreter) Storage() Storage { return in.storage }

// Constants bound in every global frame.
var constants = []struct {
	name  string
	value Value
}{
	{"pi", Float(math.Pi)},
	{"PI", Float(math.Pi)},
	{"e", Float(math.E)},
	{"MAX_INT", Int(math.MaxInt64)},
	{"MIN_INT", Int(math.MinInt64)},
	{"MAX_FLOAT", Float(math.MaxFloat64)},
}

// IsConstant reports whether name is a predefined constant.
func IsConstant(name string) bool {
	for _, c := range constants {
		if c.name == name {
			return true
		}
	}

	return false
}

// Global returns a new root frame holding the builtins and constants.
func (in *Interpreter) Global() *Frame {
	f := NewFrame(nil)

	for _, b := range in.builtins {
		f.Define(Intern(b.Name), b, Span{})
	}

	for _, c := range constants {
		f.Define(Intern(c.name), c.value, Span{})
	}

	return f
}

// Result is the outcome of evaluating one top-level form. Exactly one of
// Value and Err is set.
type Result struct {
	Form  *Form
	Value Value
	Err   *Error
}

// Eval evaluates form in env.
func (in *Interpreter) Eval(ctx context.Context, form *Form, env *Frame) (Value, error) {
	v, err := in.machine(ctx).eval(form, env)
	if err != nil {
		return nil, err
	}

	return v, nil
}

// EvalAll evaluates forms in order. An error stops only the form that raised
// it; the remaining forms are still evaluated.
func (in *Interpreter) EvalAll(ctx context.Context, forms []*Form, env *Frame) []Result {
	out := make([]Result, len(forms))

	for i, f := range forms {
		v, err := in.machine(ctx).eval(f, env)
		out[i] = Result{Form: f, Value: v, Err: err}

		if err != nil {
			in.logger.TraceContext(ctx, "form failed",
				slog.Int("index", i),
				slog.Any("span", f.Span),
				log.Err(err))
		}
	}

	return out
}

// EvalString parses and evaluates src in env. Reader errors are returned
// separately; each also fails the form that contains it.
func (in *Interpreter) EvalString(ctx context.Context, src string, env *Frame) ([]Result, []*Error) {
	prog := ParseCached(ctx, src)

	return in.EvalAll(ctx, prog.Forms, env), prog.Errors
}

func (in *Interpreter) machine(ctx context.Context) *machine {
	if ctx == nil {
		ctx = context.Background()
	}

	return &machine{in: in, ctx: ctx}
}

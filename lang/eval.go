package lang

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// cancelCheckInterval is how many steps pass between context checks.
const cancelCheckInterval = 1024

// machine carries the per-evaluation state of one top-level form.
type machine struct {
	in    *Interpreter
	ctx   context.Context
	steps int
	depth int
}

func (m *machine) tick(span Span) *Error {
	m.steps++

	if m.in.maxSteps > 0 && m.steps > m.in.maxSteps {
		return ErrMaxSteps.Detail(fmt.Sprint(m.in.maxSteps)).At(span)
	}

	if m.steps%cancelCheckInterval == 0 {
		if m.ctx.Err() != nil {
			return ErrCanceled.Wrap(context.Cause(m.ctx)).At(span)
		}
	}

	return nil
}

// eval evaluates form in env. Calls in tail position, and the tail branches
// of special forms, replace the current form and environment instead of
// recursing, so tail-recursive klisp loops run in constant Go stack.
func (m *machine) eval(form *Form, env *Frame) (Value, *Error) {
	m.depth++
	defer func() { m.depth-- }()

	if m.depth > m.in.maxDepth {
		return nil, ErrMaxDepth.Detail(fmt.Sprint(m.in.maxDepth)).At(form.Span)
	}

	if m.ctx.Err() != nil {
		return nil, ErrCanceled.Wrap(context.Cause(m.ctx)).At(form.Span)
	}

	for {
		if err := m.tick(form.Span); err != nil {
			return nil, err
		}

		switch form.Kind {
		case FormError:
			return nil, form.Err

		case FormAtom:
			sym, ok := form.Value.(Symbol)
			if !ok {
				return form.Value, nil
			}

			b, ok := env.Lookup(sym)
			if !ok {
				return nil, ErrUnbound.Detail(sym.Name()).At(form.Span)
			}

			return b.Value, nil
		}

		if len(form.Items) == 0 {
			return Nil, nil
		}

		if head, ok := form.Head(); ok {
			if sf := specialForm(head); sf != nil {
				tail, tailEnv, v, err := sf(m, form, env)
				if err != nil {
					return nil, err
				}

				if tail == nil {
					return v, nil
				}

				form, env = tail, tailEnv

				continue
			}
		}

		proc, err := m.eval(form.Items[0], env)
		if err != nil {
			return nil, err
		}

		args := make(List, len(form.Items)-1)

		for i, a := range form.Items[1:] {
			if args[i], err = m.eval(a, env); err != nil {
				return nil, err
			}
		}

		c, ok := proc.(*Closure)
		if !ok {
			return m.call(proc, args, form.Span, env)
		}

		frame, err := bind(c, args, form.Span)
		if err != nil {
			return nil, err
		}

		tail, v, err := m.body(c.Body, frame)
		if err != nil || tail == nil {
			return v, err
		}

		form, env = tail, frame
	}
}

// body evaluates every form of body but the last and returns the last one
// for the caller to evaluate in tail position. An empty body yields Nil.
func (m *machine) body(body []*Form, env *Frame) (*Form, Value, *Error) {
	if len(body) == 0 {
		return nil, Nil, nil
	}

	for _, f := range body[:len(body)-1] {
		if _, err := m.eval(f, env); err != nil {
			return nil, nil, err
		}
	}

	return body[len(body)-1], nil, nil
}

// apply invokes proc with already evaluated arguments.
func (m *machine) apply(proc Value, args List, span Span) (Value, *Error) {
	c, ok := proc.(*Closure)
	if !ok {
		return m.call(proc, args, span, nil)
	}

	frame, err := bind(c, args, span)
	if err != nil {
		return nil, err
	}

	tail, v, err := m.body(c.Body, frame)
	if err != nil || tail == nil {
		return v, err
	}

	return m.eval(tail, frame)
}

// call invokes a procedure that is not a closure.
func (m *machine) call(proc Value, args List, span Span, env *Frame) (Value, *Error) {
	switch p := proc.(type) {
	case *Builtin:
		return m.invoke(p, args, span, env)

	case Keyword:
		// A keyword in operator position looks itself up in a map:
		// (:k m) or (:k m default).
		if len(args) < 1 || len(args) > 2 {
			return nil, ErrArity.Detail(fmt.Sprintf(":%s expects 1 or 2 arguments, got %d", p, len(args))).At(span)
		}

		m0, ok := args[0].(*Map)
		if !ok {
			return nil, typeError(":"+string(p), "map", args[0]).At(span)
		}

		if v, ok := m0.Get(p); ok {
			return v, nil
		}

		if len(args) == 2 {
			return args[1], nil
		}

		return Nil, nil
	}

	return nil, ErrNotCallable.Detail(TypeName(proc) + " " + Print(proc)).At(span)
}

func (m *machine) invoke(b *Builtin, args List, span Span, env *Frame) (v Value, e *Error) {
	if len(args) < b.MinArgs || (b.MaxArgs >= 0 && len(args) > b.MaxArgs) {
		return nil, ErrArity.Detail(fmt.Sprintf("%s expects %s, got %d",
			b.Name, arityText(b.MinArgs, b.MaxArgs), len(args))).At(span)
	}

	defer func() {
		if r := recover(); r != nil {
			e = ErrInternal.Detail(fmt.Sprint(r)).
				With(slog.String("builtin", b.Name)).
				At(span)
			m.in.logger.ErrorContext(m.ctx, "builtin panicked",
				slog.String("builtin", b.Name),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	c := &Call{Context: m.ctx, Interp: m.in, Env: env, Span: span, m: m}

	v, err := b.Fn(c, args)
	if err != nil {
		var ke *Error
		if errors.As(err, &ke) {
			return nil, ke.within(span)
		}

		return nil, ErrPrimitive.Detail(b.Name).Wrap(err).At(span)
	}

	if v == nil {
		v = Nil
	}

	return v, nil
}

// bind creates the frame for a call of c.
func bind(c *Closure, args List, span Span) (*Frame, *Error) {
	n := len(c.Params)
	if len(args) < n || (c.Rest == 0 && len(args) > n) {
		want := n
		if c.Rest != 0 {
			want = -1
		}

		return nil, ErrArity.Detail(fmt.Sprintf("%s expects %s, got %d",
			c.Signature(), arityText(n, want), len(args))).At(span)
	}

	frame := NewFrame(c.Env)

	for i, p := range c.Params {
		frame.Define(p, args[i], c.Span)
	}

	if c.Rest != 0 {
		rest := make(List, len(args)-n)
		copy(rest, args[n:])
		frame.Define(c.Rest, rest, c.Span)
	}

	return frame, nil
}

func arityText(lo, hi int) string {
	switch {
	case hi < 0:
		return fmt.Sprintf("at least %d argument(s)", lo)
	case lo == hi:
		return fmt.Sprintf("%d argument(s)", lo)
	default:
		return fmt.Sprintf("%d to %d arguments", lo, hi)
	}
}

func typeError(op, want string, got Value) *Error {
	return ErrType.Detail(fmt.Sprintf("%s expects %s, got %s", op, want, TypeName(got)))
}

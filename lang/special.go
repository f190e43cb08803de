package lang

import "fmt"

// special evaluates one special form. A non-nil tail is a form the caller
// must evaluate next in tailEnv, in place of returning v.
type special func(m *machine, f *Form, env *Frame) (tail *Form, tailEnv *Frame, v Value, err *Error)

// specialForm returns the evaluator for head, or nil when head does not
// name a special form. Special forms are recognized by name regardless of
// any binding of that name.
func specialForm(head Symbol) special {
	switch head {
	case symQuote:
		return evalQuote
	case symDefine, symDef:
		return evalDefine
	case symLet:
		return evalLet
	case symIf:
		return evalIf
	case symWhen:
		return evalWhen
	case symUnless:
		return evalUnless
	case symLambda, symLam, symFn:
		return evalLambda
	case symBegin:
		return evalBegin
	case symAnd:
		return evalAnd
	case symOr:
		return evalOr
	}

	return nil
}

// SpecialForm documents a special form for completion and hover.
type SpecialForm struct {
	Name   string
	Syntax string
	Doc    string
}

// SpecialForms lists the special forms.
var SpecialForms = []SpecialForm{
	{"quote", "(quote datum)", "Returns datum unevaluated. 'datum is shorthand."},
	{"define", "(define name expr) | (define (name params...) body...)", "Binds name in the current frame and returns the value."},
	{"def", "(def name expr)", "Alias of define."},
	{"let", "(let ((name expr)...) body...)", "Evaluates body with sequential local bindings. Flat (let (a 1 b 2) ...) is also accepted."},
	{"if", "(if test then [else])", "Evaluates then when test is truthy, otherwise else or ()."},
	{"when", "(when test body...)", "Evaluates body when test is truthy."},
	{"unless", "(unless test body...)", "Evaluates body when test is falsy."},
	{"lambda", "(lambda (params... [& rest]) body...)", "Creates a procedure closing over the current environment."},
	{"lam", "(lam (params...) body...)", "Alias of lambda."},
	{"fn", "(fn (params...) body...)", "Alias of lambda."},
	{"begin", "(begin body...)", "Evaluates body in order and returns the last value."},
	{"and", "(and expr...)", "Returns the first falsy value, or the last value. (and) is true."},
	{"or", "(or expr...)", "Returns the first truthy value, or the last value. (or) is false."},
}

// IsSpecialForm reports whether name is a special form keyword.
func IsSpecialForm(name string) bool {
	sym, ok := LookupSymbol(name)

	return ok && specialForm(sym) != nil
}

func malformed(f *Form, format string, args ...any) *Error {
	name := "form"
	if head, ok := f.Head(); ok {
		name = head.Name()
	}

	return ErrMalformed.Detail(name + ": " + fmt.Sprintf(format, args...)).At(f.Span)
}

func evalQuote(_ *machine, f *Form, _ *Frame) (*Form, *Frame, Value, *Error) {
	if len(f.Items) != 2 {
		return nil, nil, nil, malformed(f, "expects exactly one datum")
	}

	v, err := f.Items[1].Datum()

	return nil, nil, v, err
}

func evalDefine(m *machine, f *Form, env *Frame) (*Form, *Frame, Value, *Error) {
	if len(f.Items) < 3 {
		return nil, nil, nil, malformed(f, "expects a name and a value")
	}

	target := f.Items[1]

	if sym, ok := target.Symbol(); ok {
		if len(f.Items) != 3 {
			return nil, nil, nil, malformed(f, "expects exactly one value for %s", sym)
		}

		v, err := m.eval(f.Items[2], env)
		if err != nil {
			return nil, nil, nil, err
		}

		v = named(v, sym.Name())
		env.Define(sym, v, target.Span)

		return nil, nil, v, nil
	}

	// (define (name params...) body...)
	sym, ok := target.Head()
	if !ok {
		return nil, nil, nil, malformed(f, "expects a symbol or (name params...)")
	}

	c, err := closure(f, target.Items[1:], f.Items[2:], env)
	if err != nil {
		return nil, nil, nil, err
	}

	c.Name = sym.Name()
	env.Define(sym, c, target.Items[0].Span)

	return nil, nil, c, nil
}

// named gives an anonymous closure the name it is being bound to.
func named(v Value, name string) Value {
	c, ok := v.(*Closure)
	if !ok || c.Name != "" {
		return v
	}

	nc := *c
	nc.Name = name

	return &nc
}

// LetBindings returns the (name, expr) pairs of a let binding list, which
// may be written as ((a 1) (b 2)) or flat as (a 1 b 2).
func LetBindings(list *Form) (names, exprs []*Form, ok bool) {
	if list == nil || list.Kind != FormList {
		return nil, nil, false
	}

	paired := len(list.Items) > 0

	for _, it := range list.Items {
		if it.Kind != FormList {
			paired = false

			break
		}
	}

	if paired {
		for _, it := range list.Items {
			if len(it.Items) != 2 {
				return nil, nil, false
			}

			if _, isSym := it.Items[0].Symbol(); !isSym {
				return nil, nil, false
			}

			names = append(names, it.Items[0])
			exprs = append(exprs, it.Items[1])
		}

		return names, exprs, true
	}

	if len(list.Items)%2 != 0 {
		return nil, nil, false
	}

	for i := 0; i < len(list.Items); i += 2 {
		if _, isSym := list.Items[i].Symbol(); !isSym {
			return nil, nil, false
		}

		names = append(names, list.Items[i])
		exprs = append(exprs, list.Items[i+1])
	}

	return names, exprs, true
}

func evalLet(m *machine, f *Form, env *Frame) (*Form, *Frame, Value, *Error) {
	if len(f.Items) < 2 {
		return nil, nil, nil, malformed(f, "expects a binding list")
	}

	names, exprs, ok := LetBindings(f.Items[1])
	if !ok {
		return nil, nil, nil, malformed(f, "bindings must be ((name expr)...) or (name expr...)")
	}

	frame := env.Child()

	for i, n := range names {
		v, err := m.eval(exprs[i], frame)
		if err != nil {
			return nil, nil, nil, err
		}

		sym, _ := n.Symbol()
		frame.Define(sym, named(v, sym.Name()), n.Span)
	}

	tail, v, err := m.body(f.Items[2:], frame)

	return tail, frame, v, err
}

func evalIf(m *machine, f *Form, env *Frame) (*Form, *Frame, Value, *Error) {
	if n := len(f.Items); n < 3 || n > 4 {
		return nil, nil, nil, malformed(f, "expects (if test then [else])")
	}

	test, err := m.eval(f.Items[1], env)
	if err != nil {
		return nil, nil, nil, err
	}

	switch {
	case Truthy(test):
		return f.Items[2], env, nil, nil
	case len(f.Items) == 4:
		return f.Items[3], env, nil, nil
	default:
		return nil, nil, Nil, nil
	}
}

func evalWhen(m *machine, f *Form, env *Frame) (*Form, *Frame, Value, *Error) {
	return conditional(m, f, env, true)
}

func evalUnless(m *machine, f *Form, env *Frame) (*Form, *Frame, Value, *Error) {
	return conditional(m, f, env, false)
}

func conditional(m *machine, f *Form, env *Frame, want bool) (*Form, *Frame, Value, *Error) {
	if len(f.Items) < 2 {
		return nil, nil, nil, malformed(f, "expects a test")
	}

	test, err := m.eval(f.Items[1], env)
	if err != nil {
		return nil, nil, nil, err
	}

	if Truthy(test) != want {
		return nil, nil, Nil, nil
	}

	tail, v, err := m.body(f.Items[2:], env)

	return tail, env, v, err
}

func evalLambda(_ *machine, f *Form, env *Frame) (*Form, *Frame, Value, *Error) {
	if len(f.Items) < 2 || f.Items[1].Kind != FormList {
		return nil, nil, nil, malformed(f, "expects a parameter list")
	}

	c, err := closure(f, f.Items[1].Items, f.Items[2:], env)
	if err != nil {
		return nil, nil, nil, err
	}

	return nil, nil, c, nil
}

// closure builds a closure from parameter and body forms.
func closure(f *Form, params, body []*Form, env *Frame) (*Closure, *Error) {
	c := &Closure{Body: body, Env: env, Span: f.Span}
	seen := make(map[Symbol]bool, len(params))

	for i := 0; i < len(params); i++ {
		sym, ok := params[i].Symbol()
		if !ok {
			return nil, malformed(f, "parameter %s is not a symbol", params[i])
		}

		if sym == symRest {
			if i != len(params)-2 {
				return nil, malformed(f, "& must be followed by exactly one parameter")
			}

			rest, ok := params[i+1].Symbol()
			if !ok || rest == symRest || seen[rest] {
				return nil, malformed(f, "invalid rest parameter %s", params[i+1])
			}

			c.Rest = rest

			break
		}

		if seen[sym] {
			return nil, malformed(f, "duplicate parameter %s", sym)
		}

		seen[sym] = true
		c.Params = append(c.Params, sym)
	}

	return c, nil
}

func evalBegin(m *machine, f *Form, env *Frame) (*Form, *Frame, Value, *Error) {
	tail, v, err := m.body(f.Items[1:], env)

	return tail, env, v, err
}

func evalAnd(m *machine, f *Form, env *Frame) (*Form, *Frame, Value, *Error) {
	return shortCircuit(m, f, env, false)
}

func evalOr(m *machine, f *Form, env *Frame) (*Form, *Frame, Value, *Error) {
	return shortCircuit(m, f, env, true)
}

// shortCircuit evaluates operands until one's truthiness equals stop.
func shortCircuit(m *machine, f *Form, env *Frame, stop bool) (*Form, *Frame, Value, *Error) {
	args := f.Items[1:]
	if len(args) == 0 {
		return nil, nil, Bool(!stop), nil
	}

	for _, a := range args[:len(args)-1] {
		v, err := m.eval(a, env)
		if err != nil {
			return nil, nil, nil, err
		}

		if Truthy(v) == stop {
			return nil, nil, v, nil
		}
	}

	return args[len(args)-1], env, nil, nil
}

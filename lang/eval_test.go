package lang

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

// evalLast evaluates src in a fresh global frame and returns the result of
// the last top-level form.
func evalLast(t *testing.T, in *Interpreter, src string) Result {
	t.Helper()

	res, _ := in.EvalString(t.Context(), src, in.Global())
	if len(res) == 0 {
		t.Fatalf("no forms in %q", src)
	}

	return res[len(res)-1]
}

func TestInterpreter_Eval(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"integer", "42", "42"},
		{"sum", "(+ 1 2 3)", "6"},
		{"mixed sum", "(+ 1 2.5)", "3.5"},
		{"string concat", `(+ "a" 1 "b")`, `"a1b"`},
		{"negate", "(- 5)", "-5"},
		{"subtract", "(- 10 3 2)", "5"},
		{"product", "(* 2 3 4)", "24"},
		{"divide is float", "(/ 4 2)", "2.0"},
		{"divide", "(/ 10 4)", "2.5"},
		{"power", "(^ 2 10)", "1024.0"},
		{"remainder", "(% 7 3)", "1"},
		{"negative remainder", "(rem -7 3)", "-1"},
		{"floored modulus", "(mod -7 3)", "2"},
		{"abs", "(abs -3)", "3"},
		{"numeric equality", "(= 1 1.0)", "true"},
		{"chained less", "(< 1 2 3)", "true"},
		{"chained less fails", "(< 1 3 2)", "false"},
		{"string order", `(< "a" "b")`, "true"},
		{"alias ge", "(=> 3 3 1)", "true"},
		{"zero is falsy", "(if 0 1 2)", "2"},
		{"negative is falsy", "(if -1 1 2)", "2"},
		{"empty string is falsy", `(if "" 1 2)`, "2"},
		{"empty list is falsy", "(if '() 1 2)", "2"},
		{"list is truthy", "(if (list 1) 1 2)", "1"},
		{"missing else", "(if false 1)", "()"},
		{"define", "(define x 10) (* x x)", "100"},
		{"define function", "(define (sq x) (* x x)) (sq 7)", "49"},
		{"def alias", "(def y 3) y", "3"},
		{"sequential let", "(let ((a 1) (b (+ a 1))) (+ a b))", "3"},
		{"flat let", "(let (a 1 b 2) (+ a b))", "3"},
		{"let shadows", "(define a 1) (let ((a 2)) a)", "2"},
		{"let does not leak", "(define a 1) (let ((a 2)) a) a", "1"},
		{"rest parameter", "((lambda (x & more) more) 1 2 3)", "(2 3)"},
		{"empty rest", "((fn (x & more) more) 1)", "()"},
		{"thunk", "((fn () 1))", "1"},
		{"closure captures", "(define (adder n) (lam (x) (+ x n))) ((adder 3) 4)", "7"},
		{"quote shorthand", `'(1 a "s")`, `(1 a "s")`},
		{"quote", "(quote (1 2))", "(1 2)"},
		{"begin", "(begin 1 2 3)", "3"},
		{"and", "(and 1 2 3)", "3"},
		{"and short circuits", "(and 1 0 (undefined))", "0"},
		{"empty and", "(and)", "true"},
		{"or", "(or 0 false 5)", "5"},
		{"empty or", "(or)", "false"},
		{"when", "(when true 1 2)", "2"},
		{"unless", "(unless true 1)", "()"},
		{"cons", "(cons 1 (list 2 3))", "(1 2 3)"},
		{"head of empty", "(head '())", "()"},
		{"car", "(car '(1 2))", "1"},
		{"tail of singleton", "(tail '(1))", "()"},
		{"rest", "(rest '(1 2 3))", "(2 3)"},
		{"last", "(last '(1 2 3))", "3"},
		{"string length", `(len "héllo")`, "5"},
		{"count map", "(count (map :a 1))", "1"},
		{"nth", "(nth '(a b c) 1)", "b"},
		{"range", "(range 5)", "(0 1 2 3 4)"},
		{"range step", "(range 1 10 3)", "(1 4 7)"},
		{"range down", "(range 10 0 -3)", "(10 7 4 1)"},
		{"fmap", "(fmap (fn (x) (* x 2)) '(1 2 3))", "(2 4 6)"},
		{"filter", "(filter (fn (x) (> x 1)) '(1 2 3))", "(2 3)"},
		{"reduce", "(reduce 0 + '(1 2 3 4))", "10"},
		{"apply", "(apply + 1 2 '(3 4))", "10"},
		{"append", "(append '(1) '() '(2 3))", "(1 2 3)"},
		{"reverse", "(reverse '(1 2 3))", "(3 2 1)"},
		{"map literal sorted", "(map :b 2 :a 1)", "(map :a 1 :b 2)"},
		{"keyword lookup", "(:a (map :a 1))", "1"},
		{"keyword default", "(:z (map :a 1) 9)", "9"},
		{"get default", "(get (map :a 1) :b 7)", "7"},
		{"assoc keys", "(keys (assoc (map) :x 1 :y 2))", "(:x :y)"},
		{"vals", "(vals (map :x 1 :y 2))", "(1 2)"},
		{"has", "(has? (map :x 1) :x)", "true"},
		{"str", `(str "a" 1 \b)`, `"a1b"`},
		{"split", `(split "a,b" ",")`, `("a" "b")`},
		{"join", `(join "-" '(1 2))`, `"1-2"`},
		{"read", `(read "(1 2)")`, "(1 2)"},
		{"lex", `(lex "(a 1)")`, `("(" "a" "1" ")")`},
		{"error value", `(error? (error "boom" 1))`, "true"},
		{"not", "(not 0)", "true"},
		{"eq on lists", "(define l '(1)) (eq? l l)", "true"},
		{"eq on fresh lists", "(eq? (list 1) (list 1))", "false"},
		{"equal on fresh lists", "(equal? (list 1) (list 1))", "true"},
		{"predicate", "(procedure? car)", "true"},
		{"constant", "(> pi 3)", "true"},
		{"named closure", "(define f (fn (x) x)) f", "#<lambda f>"},
		{"builtin prints", "car", "#<builtin car>"},
	}

	in := New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := evalLast(t, in, tt.input)
			if r.Err != nil {
				t.Fatalf("eval %q: %v", tt.input, r.Err)
			}

			if got := Print(r.Value); got != tt.want {
				t.Errorf("eval %q = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestInterpreter_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *Error
		kind  ErrorKind
	}{
		{"unbound", "undefined-thing", ErrUnbound, NameError},
		{"not callable", "(1 2)", ErrNotCallable, TypeError},
		{"too few arguments", "((fn (x) x))", ErrArity, ArityError},
		{"too many arguments", "(car '(1) 2)", ErrArity, ArityError},
		{"wrong type", `(+ 1 "a")`, ErrType, TypeError},
		{"divide by zero", "(/ 1 0)", ErrDivideByZero, ValueError},
		{"integer divide by zero", "(% 1 0)", ErrDivideByZero, ValueError},
		{"overflow", "(+ MAX_INT 1)", ErrOverflow, ValueError},
		{"index", "(nth '(1) 5)", ErrIndex, ValueError},
		{"raise", `(raise "bad")`, ErrUser, ValueError},
		{"raise error value", `(raise (error "bad"))`, ErrUser, ValueError},
		{"malformed if", "(if)", ErrMalformed, SyntaxError},
		{"malformed let", "(let (a) a)", ErrMalformed, SyntaxError},
		{"duplicate parameter", "(fn (x x) x)", ErrMalformed, SyntaxError},
		{"bad rest", "(fn (& a b) a)", ErrMalformed, SyntaxError},
		{"no storage", "(db-get :k)", ErrNoStorage, StorageError},
		{"syntax error", "(1 2", ErrUnclosedList, SyntaxError},
		{"zero step", "(range 1 2 0)", ErrPrimitive, ValueError},
		{"expr failure", `(expr "1 +")`, ErrPrimitive, ValueError},
	}

	in := New()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := evalLast(t, in, tt.input)
			if r.Err == nil {
				t.Fatalf("eval %q = %s, want error", tt.input, Print(r.Value))
			}

			if !errors.Is(r.Err, tt.want) {
				t.Errorf("err = %v, want %v", r.Err, tt.want)
			}

			if r.Err.Kind() != tt.kind {
				t.Errorf("kind = %v, want %v", r.Err.Kind(), tt.kind)
			}

			if r.Err.Span().IsZero() {
				t.Errorf("err %v has no span", r.Err)
			}
		})
	}
}

func TestInterpreter_ErrorSpan(t *testing.T) {
	r := evalLast(t, New(), "(+ 1\n   zz)")
	if !errors.Is(r.Err, ErrUnbound) {
		t.Fatalf("err = %v, want unbound", r.Err)
	}

	if got := r.Err.Span().Start; got.Line != 2 || got.Column != 4 {
		t.Errorf("err at %v, want 2:4", got)
	}
}

func TestInterpreter_EvalAllContinues(t *testing.T) {
	in := New()

	res, _ := in.EvalString(t.Context(), "(define a 1) (oops) (define b 2) b", in.Global())
	if len(res) != 4 {
		t.Fatalf("got %d results, want 4", len(res))
	}

	if !errors.Is(res[1].Err, ErrUnbound) {
		t.Errorf("result 1 err = %v, want unbound", res[1].Err)
	}

	if res[3].Err != nil || res[3].Value != Int(2) {
		t.Errorf("result 3 = %v, %v", res[3].Value, res[3].Err)
	}
}

func TestInterpreter_TailCalls(t *testing.T) {
	in := New(WithMaxDepth(200))

	r := evalLast(t, in, `
(define (loop n acc)
  (if (= n 0)
    acc
    (loop (- n 1) (+ acc 1))))
(loop 100000 0)`)
	if r.Err != nil {
		t.Fatalf("loop: %v", r.Err)
	}

	if r.Value != Int(100000) {
		t.Errorf("loop = %s, want 100000", Print(r.Value))
	}
}

func TestInterpreter_MutualTailCalls(t *testing.T) {
	in := New(WithMaxDepth(200))

	r := evalLast(t, in, `
(define (even? n) (if (= n 0) true (odd? (- n 1))))
(define (odd? n) (if (= n 0) false (even? (- n 1))))
(even? 50001)`)
	if r.Err != nil {
		t.Fatalf("even?: %v", r.Err)
	}

	if r.Value != Bool(false) {
		t.Errorf("even? = %s, want false", Print(r.Value))
	}
}

func TestInterpreter_MaxDepth(t *testing.T) {
	in := New(WithMaxDepth(50))

	r := evalLast(t, in, "(define (f n) (+ 1 (f n))) (f 1)")
	if !errors.Is(r.Err, ErrMaxDepth) {
		t.Fatalf("err = %v, want max depth", r.Err)
	}

	if r.Err.Kind() != LimitError {
		t.Errorf("kind = %v, want LimitError", r.Err.Kind())
	}
}

func TestInterpreter_MaxSteps(t *testing.T) {
	in := New(WithMaxSteps(1000))

	r := evalLast(t, in, "(define (f) (f)) (f)")
	if !errors.Is(r.Err, ErrMaxSteps) {
		t.Fatalf("err = %v, want step limit", r.Err)
	}

	// The budget is per top-level form.
	r = evalLast(t, in, "(define (f) (f)) (+ 1 2)")
	if r.Err != nil || r.Value != Int(3) {
		t.Errorf("after limit: %v, %v", r.Value, r.Err)
	}
}

func TestInterpreter_Canceled(t *testing.T) {
	in := New()
	ctx, cancel := context.WithCancelCause(t.Context())
	cause := errors.New("shutdown")
	cancel(cause)

	res, _ := in.EvalString(ctx, "(+ 1 2)", in.Global())
	if len(res) != 1 || !errors.Is(res[0].Err, ErrCanceled) {
		t.Fatalf("results = %v, want canceled", res)
	}

	if !errors.Is(res[0].Err, cause) {
		t.Errorf("err = %v, want cause %v", res[0].Err, cause)
	}
}

func TestInterpreter_BuiltinFailures(t *testing.T) {
	in := New(WithBuiltins(
		&Builtin{
			Name: "boom", MaxArgs: 0,
			Fn: func(*Call, List) (Value, error) { panic("kaboom") },
		},
		&Builtin{
			Name: "fail", MaxArgs: 0,
			Fn: func(*Call, List) (Value, error) { return nil, errors.New("plain") },
		},
	))

	r := evalLast(t, in, "(boom)")
	if r.Err == nil || r.Err.Kind() != InternalError {
		t.Errorf("panic err = %v, want InternalError", r.Err)
	}

	r = evalLast(t, in, "(fail)")
	if !errors.Is(r.Err, ErrPrimitive) {
		t.Errorf("plain err = %v, want primitive failure", r.Err)
	}

	// The interpreter stays usable after a recovered panic.
	r = evalLast(t, in, "(+ 1 1)")
	if r.Err != nil || r.Value != Int(2) {
		t.Errorf("after panic: %v, %v", r.Value, r.Err)
	}
}

func TestInterpreter_Output(t *testing.T) {
	var buf bytes.Buffer

	in := New(WithOutput(&buf))
	evalLast(t, in, `(print "a" 1) (println \b "c")`)

	if got := buf.String(); got != "a 1b c\n" {
		t.Errorf("output = %q", got)
	}
}

func TestInterpreter_SpecialFormsIgnoreBindings(t *testing.T) {
	r := evalLast(t, New(), "(define if 1) (if false 2 3)")
	if r.Err != nil || r.Value != Int(3) {
		t.Errorf("if after redefinition = %v, %v", r.Value, r.Err)
	}
}

func TestInterpreter_With(t *testing.T) {
	base := New()
	limited := base.With(WithMaxSteps(10))

	if r := evalLast(t, base, "(range 100)"); r.Err != nil {
		t.Errorf("base: %v", r.Err)
	}

	r := evalLast(t, limited, "(define (f) (f)) (f)")
	if !errors.Is(r.Err, ErrMaxSteps) {
		t.Errorf("limited: %v", r.Err)
	}
}

func BenchmarkInterpreter_Loop(b *testing.B) {
	in := New()
	env := in.Global()
	in.EvalString(b.Context(), "(define (loop n) (if (= n 0) 0 (loop (- n 1))))", env)

	forms, _ := Parse("(loop 1000)")

	for b.Loop() {
		if _, err := in.Eval(b.Context(), forms[0], env); err != nil {
			b.Fatal(err)
		}
	}
}

package lang

import (
	"math"
	"strings"
)

func mathBuiltins() []*Builtin {
	pow := &Builtin{
		Name: "pow", Params: "x y", Doc: "Returns x raised to the power y as a float.",
		MinArgs: 2, MaxArgs: 2, Fn: builtinPow,
	}
	rem := &Builtin{
		Name: "rem", Params: "x y", Doc: "Returns the remainder of x / y, with the sign of x.",
		MinArgs: 2, MaxArgs: 2, Fn: builtinRem,
	}

	return []*Builtin{
		{
			Name: "+", Params: "& xs", Doc: "Adds numbers. If the first argument is a string, concatenates the displayed arguments.",
			MinArgs: 0, MaxArgs: variadic, Fn: builtinAdd,
		},
		{
			Name: "-", Params: "x & ys", Doc: "Subtracts ys from x, or negates a single x.",
			MinArgs: 1, MaxArgs: variadic, Fn: builtinSub,
		},
		{
			Name: "*", Params: "& xs", Doc: "Multiplies numbers.",
			MinArgs: 0, MaxArgs: variadic, Fn: builtinMul,
		},
		{
			Name: "/", Params: "x & ys", Doc: "Divides x by each of ys, always producing a float. A single x yields 1/x.",
			MinArgs: 1, MaxArgs: variadic, Fn: builtinDiv,
		},
		alias("^", pow),
		pow,
		alias("%", rem),
		rem,
		{
			Name: "mod", Params: "x y", Doc: "Returns x modulo y, with the sign of y.",
			MinArgs: 2, MaxArgs: 2, Fn: builtinMod,
		},
		{
			Name: "abs", Params: "x", Doc: "Returns the absolute value of x.",
			MinArgs: 1, MaxArgs: 1, Fn: builtinAbs,
		},
	}
}

func addInt(a, b int64) (int64, bool) {
	s := a + b

	return s, (a >= 0) == (b >= 0) && (s >= 0) != (a >= 0)
}

func subInt(a, b int64) (int64, bool) {
	d := a - b

	return d, (b > 0 && d > a) || (b < 0 && d < a)
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}

	p := a * b

	return p, p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64)
}

// fold combines numbers left to right, staying in integers until a float
// appears.
func fold(
	op string,
	acc Value,
	args List,
	iop func(a, b int64) (int64, bool),
	fop func(a, b float64) float64,
) (Value, error) {
	for _, a := range args {
		if _, err := number(op, a); err != nil {
			return nil, err
		}

		x, xi := acc.(Int)
		y, yi := a.(Int)

		if xi && yi {
			r, overflow := iop(int64(x), int64(y))
			if overflow {
				return nil, ErrOverflow.Detail(op)
			}

			acc = Int(r)

			continue
		}

		acc = Float(fop(toFloat(acc), toFloat(a)))
	}

	return acc, nil
}

func builtinAdd(_ *Call, args List) (Value, error) {
	if len(args) > 0 {
		if _, ok := args[0].(String); ok {
			var b strings.Builder
			for _, a := range args {
				b.WriteString(Display(a))
			}

			return String(b.String()), nil
		}
	}

	return fold("+", Int(0), args, addInt, func(a, b float64) float64 { return a + b })
}

func builtinSub(_ *Call, args List) (Value, error) {
	if len(args) == 1 {
		return fold("-", Int(0), args, subInt, func(a, b float64) float64 { return a - b })
	}

	if _, err := number("-", args[0]); err != nil {
		return nil, err
	}

	return fold("-", args[0], args[1:], subInt, func(a, b float64) float64 { return a - b })
}

func builtinMul(_ *Call, args List) (Value, error) {
	return fold("*", Int(1), args, mulInt, func(a, b float64) float64 { return a * b })
}

func builtinDiv(_ *Call, args List) (Value, error) {
	for _, a := range args {
		if _, err := number("/", a); err != nil {
			return nil, err
		}
	}

	acc := toFloat(args[0])
	rest := args[1:]

	if len(rest) == 0 {
		acc, rest = 1, args
	}

	for _, a := range rest {
		d := toFloat(a)
		if d == 0 {
			return nil, ErrDivideByZero
		}

		acc /= d
	}

	return Float(acc), nil
}

func builtinPow(_ *Call, args List) (Value, error) {
	for _, a := range args {
		if _, err := number("pow", a); err != nil {
			return nil, err
		}
	}

	return Float(math.Pow(toFloat(args[0]), toFloat(args[1]))), nil
}

func builtinRem(_ *Call, args List) (Value, error) {
	return remainder("rem", args, false)
}

func builtinMod(_ *Call, args List) (Value, error) {
	return remainder("mod", args, true)
}

// remainder computes a truncated remainder, or a floored modulus when
// floored is set.
func remainder(op string, args List, floored bool) (Value, error) {
	for _, a := range args {
		if _, err := number(op, a); err != nil {
			return nil, err
		}
	}

	x, xi := args[0].(Int)
	y, yi := args[1].(Int)

	if xi && yi {
		if y == 0 {
			return nil, ErrDivideByZero
		}

		if y == -1 {
			return Int(0), nil
		}

		r := x % y
		if floored && r != 0 && (r < 0) != (y < 0) {
			r += y
		}

		return r, nil
	}

	fx, fy := toFloat(args[0]), toFloat(args[1])
	if fy == 0 {
		return nil, ErrDivideByZero
	}

	r := math.Mod(fx, fy)
	if floored && r != 0 && (r < 0) != (fy < 0) {
		r += fy
	}

	return Float(r), nil
}

func builtinAbs(_ *Call, args List) (Value, error) {
	switch v := args[0].(type) {
	case Int:
		if v == math.MinInt64 {
			return nil, ErrOverflow.Detail("abs")
		}

		if v < 0 {
			return -v, nil
		}

		return v, nil
	case Float:
		return Float(math.Abs(float64(v))), nil
	}

	return nil, typeError("abs", "a number", args[0])
}
